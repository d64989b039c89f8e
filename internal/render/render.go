// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns controller snapshots into terminal text, JSON, or
// YAML. Absent values are shown with fixed placeholders rather than blanks.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// Placeholders for absent values.
const (
	Dash          = "—"
	NoAuthor      = "Author not specified"
	NoKeywords    = "Keywords not specified"
	NoAnnotations = "No annotation"
	NoResults     = "No articles found."
)

// Format selects an output encoding.
type Format string

const (
	Table Format = "table"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Table, JSON, YAML:
		return f, nil
	case "":
		return Table, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json, or yaml)", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Encode writes v as JSON or YAML. Table output is the caller's job.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		return WriteJSON(w, v)
	case YAML:
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("format %q is not a data encoding", f)
	}
}

// Or returns s, or Dash when s is blank.
func Or(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dash
	}
	return s
}

// Year returns the first non-zero year as text, or Dash.
func Year(years ...int) string {
	for _, y := range years {
		if y != 0 {
			return strconv.Itoa(y)
		}
	}
	return Dash
}

// Truncate shortens s to max runes, ending with "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
