// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the canonical data structures shared by the catalog
// client: articles and their provider records, authors and publications, search
// requests, and configuration.
//
// Wire payloads from the catalog API are decoded into these shapes by the
// catalog package; nothing else in the module sees the raw JSON.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Article is one canonical publication with the source-specific provider
// records that describe it.
type Article struct {
	// ID is the canonical article identifier.
	ID string `json:"id" yaml:"id"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Authors lists the article authors in source order.
	Authors []ArticleAuthor `json:"authors" yaml:"authors"`

	// Details carries the summary fields shown on result cards.
	Details ArticleDetails `json:"articleDetails" yaml:"article_details"`

	// Providers holds the source-specific records, the first one is the default.
	Providers []Provider `json:"providers" yaml:"providers"`
}

// ArticleAuthor is an author as embedded in an article record.
type ArticleAuthor struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	FullName     string `json:"fullName" yaml:"full_name"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
	Department   string `json:"department,omitempty" yaml:"department,omitempty"`
	SpinCode     string `json:"spinCode,omitempty" yaml:"spin_code,omitempty"`
}

// ArticleDetails are the card-level bibliographic fields of a search result.
type ArticleDetails struct {
	UniversityName  string `json:"universityName,omitempty" yaml:"university_name,omitempty"`
	Source          string `json:"source,omitempty" yaml:"source,omitempty"`
	PublicationType string `json:"publicationType,omitempty" yaml:"publication_type,omitempty"`
	Language        string `json:"language,omitempty" yaml:"language,omitempty"`
}

// Provider is one source-specific record of a publication (an eLibrary or
// CyberLenin entry, for example) with its bibliographic and altmetric data.
type Provider struct {
	ID              string       `json:"id" yaml:"id"`
	Source          string       `json:"source,omitempty" yaml:"source,omitempty"`
	PublicationType string       `json:"publicationType,omitempty" yaml:"publication_type,omitempty"`
	Year            int          `json:"year,omitempty" yaml:"year,omitempty"`
	UniversityName  string       `json:"universityName,omitempty" yaml:"university_name,omitempty"`
	Language        string       `json:"language,omitempty" yaml:"language,omitempty"`
	EDN             string       `json:"edn,omitempty" yaml:"edn,omitempty"`
	HasFull         bool         `json:"hasFull" yaml:"has_full"`
	PDFURL          string       `json:"pdfUrl,omitempty" yaml:"pdf_url,omitempty"`
	SourceURL       string       `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`
	Keywords        Keywords     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Annotations     []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	ASJCCodeName    string       `json:"asjcCodeName,omitempty" yaml:"asjc_code_name,omitempty"`
	OECDCodeName    string       `json:"oecdCodeName,omitempty" yaml:"oecd_code_name,omitempty"`
	VAKCodeName     string       `json:"vakCodeName,omitempty" yaml:"vak_code_name,omitempty"`
	IsRinc          bool         `json:"isRinc" yaml:"is_rinc"`
	IsCoreRinc      bool         `json:"isCoreRinc" yaml:"is_core_rinc"`

	// CitationsRinc and CitationsCoreRinc keep the API's transliterated names on the wire.
	CitationsRinc     int `json:"citirovanieInRinc" yaml:"citations_rinc"`
	CitationsCoreRinc int `json:"citirovanieInCoreRinc" yaml:"citations_core_rinc"`

	Altmetric *Altmetric `json:"altmetric,omitempty" yaml:"altmetric,omitempty"`
}

// Annotation is an abstract in one language.
type Annotation struct {
	LanguageCode string `json:"languageCode,omitempty" yaml:"language_code,omitempty"`
	DisplayName  string `json:"displayName,omitempty" yaml:"display_name,omitempty"`
	Text         string `json:"text" yaml:"text"`
}

// Label returns the tab label for the annotation at position idx.
func (a Annotation) Label(idx int) string {
	switch {
	case a.DisplayName != "":
		return a.DisplayName
	case a.LanguageCode != "":
		return strings.ToUpper(a.LanguageCode)
	default:
		return fmt.Sprintf("Annotation %d", idx+1)
	}
}

// Altmetric is the engagement bundle attached to a provider record.
type Altmetric struct {
	Views                 int     `json:"views" yaml:"views"`
	CountDownloaded       int     `json:"countDownloaded" yaml:"count_downloaded"`
	IncludedInCollections int     `json:"includedInCollections" yaml:"included_in_collections"`
	TotalReviews          int     `json:"totalReviews" yaml:"total_reviews"`
	AllScore              float64 `json:"allScore" yaml:"all_score"`
}

// Provider returns the provider with the given id.
func (a Article) Provider(id string) (Provider, bool) {
	for _, p := range a.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// Keywords is a keyword list. The API sends it either as a JSON array or as
// one comma-separated string; both decode to the same list.
type Keywords []string

// UnmarshalJSON accepts an array of strings, a comma-separated string, or null.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = CleanKeywords(list)
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("keywords: expected array or string, got %s", data)
	}
	*k = SplitKeywords(joined)
	return nil
}

// SplitKeywords splits a comma-separated keyword string, trimming blanks and
// dropping empty entries.
func SplitKeywords(s string) Keywords {
	return CleanKeywords(strings.Split(s, ","))
}

// CleanKeywords trims each keyword and drops empty ones.
func CleanKeywords(in []string) Keywords {
	out := make(Keywords, 0, len(in))
	for _, kw := range in {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
