// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download saves article PDFs to a local directory. Each PDF gets a
// YAML sidecar with the record it came from, and files that already exist
// are skipped so a batch can be rerun after a partial failure.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-catalog/pkg/types"
)

// ErrNoPDF is returned for an item without a PDF link.
var ErrNoPDF = errors.New("PDF not available")

// Doer sends one HTTP request. *httputil.Doer satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Item is one PDF to fetch together with the metadata written beside it.
type Item struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Year    int      `yaml:"year,omitempty"`
	Authors []string `yaml:"authors,omitempty"`
	Source  string   `yaml:"source,omitempty"`
	URL     string   `yaml:"pdf_url"`
	// Path is set after a successful fetch or skip.
	Path string `yaml:"pdf_path,omitempty"`
}

// FromProvider builds an item from the selected provider record of an
// article. The provider year wins over the article year.
func FromProvider(a types.Article, p types.Provider) Item {
	it := Item{
		ID:     p.ID,
		Title:  a.Title,
		Year:   p.Year,
		Source: p.Source,
		URL:    p.PDFURL,
	}
	if it.Year == 0 {
		it.Year = a.Year
	}
	for _, au := range a.Authors {
		it.Authors = append(it.Authors, au.FullName)
	}
	return it
}

// FromPublication builds an item from an author's publication entry.
func FromPublication(p types.Publication) Item {
	return Item{
		ID:      p.ID,
		Title:   p.Title,
		Year:    p.Year,
		Authors: p.Authors,
		Source:  p.SourceName,
		URL:     p.PDFURL,
	}
}

// Result summarizes a batch.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
	Items      []Item
}

// Total returns the number of items processed.
func (r Result) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any item failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Downloader writes PDFs and sidecars into one directory.
type Downloader struct {
	doer Doer
	dir  string
	log  *logrus.Entry
}

// New returns a Downloader that writes into dir.
func New(doer Doer, dir string, log *logrus.Entry) *Downloader {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Downloader{doer: doer, dir: dir, log: log}
}

// Fetch saves one item. It reports skipped=true when the PDF is already
// present. The sidecar is rewritten in both cases.
func (d *Downloader) Fetch(ctx context.Context, it Item, w io.Writer) (Item, bool, error) {
	if it.URL == "" {
		return it, false, ErrNoPDF
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return it, false, fmt.Errorf("creating output directory: %w", err)
	}

	stem := Slug(it)
	it.Path = filepath.Join(d.dir, stem+".pdf")
	metaPath := filepath.Join(d.dir, stem+".yaml")

	if _, err := os.Stat(it.Path); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", it.Path)
		d.log.WithField("id", it.ID).Debug("pdf exists, skipping")
		return it, true, writeMetadata(it, metaPath)
	}

	if err := d.downloadFile(ctx, it.URL, it.Path); err != nil {
		return it, false, fmt.Errorf("downloading %s: %w", it.ID, err)
	}
	if err := writeMetadata(it, metaPath); err != nil {
		return it, false, fmt.Errorf("writing metadata: %w", err)
	}
	fmt.Fprintf(w, "downloaded: %s\n", it.Path)
	d.log.WithFields(logrus.Fields{"id": it.ID, "path": it.Path}).Info("pdf saved")
	return it, false, nil
}

// Batch fetches every item, continuing past failures, and prints a summary.
func (d *Downloader) Batch(ctx context.Context, items []Item, w io.Writer) Result {
	var result Result
	for _, it := range items {
		if ctx.Err() != nil {
			break
		}
		got, skipped, err := d.Fetch(ctx, it, w)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed: %s: %v\n", it.ID, err)
			result.Failed++
		case skipped:
			result.Skipped++
			result.Items = append(result.Items, got)
		default:
			result.Downloaded++
			result.Items = append(result.Items, got)
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile streams url into a temp file beside dest and renames it into
// place, so an interrupted download never leaves a partial PDF behind.
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.doer.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dest)
}

func writeMetadata(it Item, path string) error {
	data, err := yaml.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Slug returns a filesystem-safe file stem: the year, the first words of the
// title, and the id. Characters outside letters and digits become dashes.
func Slug(it Item) string {
	var parts []string
	if it.Year > 0 {
		parts = append(parts, fmt.Sprint(it.Year))
	}
	if words := strings.Fields(it.Title); len(words) > 0 {
		if len(words) > 6 {
			words = words[:6]
		}
		parts = append(parts, strings.Join(words, " "))
	}
	parts = append(parts, it.ID)

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.Join(parts, " ")) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}
