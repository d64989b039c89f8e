// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Author is the profile returned by GET /Author/{id}.
type Author struct {
	ID           string       `json:"id" yaml:"id"`
	FullName     string       `json:"fullName" yaml:"full_name"`
	Organization string       `json:"organization,omitempty" yaml:"organization,omitempty"`
	Department   string       `json:"department,omitempty" yaml:"department,omitempty"`
	SpinCode     string       `json:"spinCode,omitempty" yaml:"spin_code,omitempty"`
	Verified     bool         `json:"verified" yaml:"verified"`
	Stats        *AuthorStats `json:"stats,omitempty" yaml:"stats,omitempty"`
	TopCoauthors []string     `json:"topCoauthors,omitempty" yaml:"top_coauthors,omitempty"`
}

// AuthorStats are the aggregate counters of an author profile. Publications
// is nil when the server does not report it.
type AuthorStats struct {
	Publications           *int `json:"publications,omitempty" yaml:"publications,omitempty"`
	TotalCitationsRinc     int  `json:"totalCitationsRinc" yaml:"total_citations_rinc"`
	TotalCitationsCoreRinc int  `json:"totalCitationsCoreRinc" yaml:"total_citations_core_rinc"`
	TotalViews             int  `json:"totalViews" yaml:"total_views"`
	TotalDownloads         int  `json:"totalDownloads" yaml:"total_downloads"`
}

// Publication is one entry of an author's publication list.
type Publication struct {
	// ID is the provider id of the publication, usable with GET /Article/{id}.
	ID                string   `json:"id" yaml:"id"`
	Year              int      `json:"year,omitempty" yaml:"year,omitempty"`
	Title             string   `json:"title" yaml:"title"`
	SourceName        string   `json:"sourceName,omitempty" yaml:"source_name,omitempty"`
	PublicationType   string   `json:"publicationType,omitempty" yaml:"publication_type,omitempty"`
	CitationsRinc     int      `json:"citationsRinc" yaml:"citations_rinc"`
	CitationsCoreRinc int      `json:"citationsCoreRinc" yaml:"citations_core_rinc"`
	Authors           []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Keywords          Keywords `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Abstract          string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	SourceURL         string   `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`
	PDFURL            string   `json:"pdfUrl,omitempty" yaml:"pdf_url,omitempty"`
	Views             int      `json:"views" yaml:"views"`
	Downloads         int      `json:"downloads" yaml:"downloads"`
}

// Citations is the combined RINC and core RINC citation count.
func (p Publication) Citations() int {
	return p.CitationsRinc + p.CitationsCoreRinc
}

// PublicationQuery filters GET /Author/{id}/publications.
type PublicationQuery struct {
	Query    string
	YearFrom string
	YearTo   string
	OnlyPDF  bool
	Page     int
	PageSize int
}

// PublicationsPage is one page of an author's publications.
type PublicationsPage struct {
	Items []Publication `json:"items" yaml:"items"`
	Total int           `json:"total" yaml:"total"`
}
