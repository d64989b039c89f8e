// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/toast"
	"github.com/pdiddy/article-catalog/pkg/types"
)

// Author writes an author profile with its publication page.
func Author(w io.Writer, st detail.AuthorState) {
	if st.Err != "" {
		fmt.Fprintf(w, "Error: %s\n", st.Err)
	}
	if st.LoadingAuthor {
		fmt.Fprintln(w, "Loading author...")
	} else if a := st.Author; a != nil {
		name := Or(a.FullName)
		if a.Verified {
			name += " (verified)"
		}
		fmt.Fprintf(w, "[%s] %s\n", detail.Initials(a.FullName), name)
		var aff []string
		for _, s := range []string{a.Department, a.Organization} {
			if s != "" {
				aff = append(aff, s)
			}
		}
		if len(aff) > 0 {
			fmt.Fprintln(w, strings.Join(aff, " • "))
		}
		if a.SpinCode != "" {
			fmt.Fprintf(w, "SPIN: %s\n", a.SpinCode)
		}
	}

	s := st.Stats
	fmt.Fprintf(w, "\nPublications %d · Citations %d · Views %d · Downloads %d\n",
		s.Publications, s.Citations, s.Views, s.Downloads)

	if len(st.TopCoauthors) > 0 {
		fmt.Fprintln(w, "\nFrequent co-authors")
		for _, name := range st.TopCoauthors {
			if detail.ImplausibleName(name) {
				fmt.Fprintf(w, "  %s (?)\n", name)
				continue
			}
			fmt.Fprintf(w, "  %s\n", name)
		}
	}

	fmt.Fprintln(w, "\nPublications")
	if st.LoadingPubs {
		fmt.Fprintln(w, "  Loading...")
		return
	}
	if len(st.Publications) == 0 {
		fmt.Fprintln(w, "  No publications found.")
		return
	}
	for _, p := range st.Publications {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			pad(Year(p.Year), 4),
			pad(Truncate(Or(p.Title), 60), 60),
			publicationMeta(p))
	}
	fmt.Fprintf(w, "\n%s\n", PageLine(st.Page, st.TotalPages))
}

func publicationMeta(p types.Publication) string {
	var parts []string
	if p.SourceName != "" {
		parts = append(parts, p.SourceName)
	}
	parts = append(parts, fmt.Sprintf("cited %d", p.Citations()))
	if p.PDFURL != "" {
		parts = append(parts, "PDF")
	}
	return strings.Join(parts, " · ")
}

// FilterOptions writes the values the filter form offers.
func FilterOptions(w io.Writer, o types.FilterOptions, pubTypes []types.PublicationType) {
	years := make([]string, len(o.Years))
	for i, y := range o.Years {
		years[i] = Year(y)
	}
	names := make([]string, 0, len(pubTypes))
	for _, t := range pubTypes {
		names = append(names, t.Name)
	}
	if len(names) == 0 {
		names = o.PublicationTypes
	}

	rows := []struct {
		label  string
		values []string
	}{
		{"Years", years},
		{"Languages", o.Languages},
		{"Publication types", names},
		{"OECD", o.OECDCodes},
		{"ASJC", o.ASJCCodes},
		{"VAK", o.VAKCodes},
	}
	for _, r := range rows {
		v := Dash
		if len(r.values) > 0 {
			v = strings.Join(r.values, ", ")
		}
		fmt.Fprintf(w, "%s %s\n", pad(r.label+":", 19), v)
	}
}

// Toast writes one notification line with its age.
func Toast(w io.Writer, t toast.Toast, now time.Time) {
	age := now.Sub(t.CreatedAt).Truncate(time.Second)
	if age < 0 {
		age = 0
	}
	fmt.Fprintf(w, "* %s [%s] %s ago\n", t.Title, t.SubjectID, age)
}
