// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PageSize is the fixed number of results per search page.
const PageSize = 20

// NotEmptyMarker is the reserved value the search API reads as "field must be
// present and non-empty".
const NotEmptyMarker = "__NOT_EMPTY__"

// SearchRequest is the body of POST /Article. Every optional field is a
// pointer or carries omitempty so that an unset filter is absent from the
// JSON rather than sent as "" or null.
type SearchRequest struct {
	Page           int                  `json:"page" yaml:"page"`
	PageSize       int                  `json:"pageSize" yaml:"page_size"`
	Title          string               `json:"title,omitempty" yaml:"title,omitempty"`
	Authors        []AuthorFilter       `json:"authors,omitempty" yaml:"authors,omitempty"`
	ArticleDetails ArticleDetailsFilter `json:"articleDetails" yaml:"article_details"`
	Altmetric      AltmetricFilter      `json:"altmetric" yaml:"altmetric"`
}

// AuthorFilter narrows results to articles with a matching author.
type AuthorFilter struct {
	FullName     string `json:"fullName,omitempty" yaml:"full_name,omitempty"`
	Department   string `json:"department,omitempty" yaml:"department,omitempty"`
	SpinCode     string `json:"spinCode,omitempty" yaml:"spin_code,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// IsZero reports whether no author field is set.
func (f AuthorFilter) IsZero() bool {
	return f == AuthorFilter{}
}

// ArticleDetailsFilter holds the bibliographic and classification filters.
type ArticleDetailsFilter struct {
	Year                     *int     `json:"year,omitempty" yaml:"year,omitempty"`
	Source                   string   `json:"source,omitempty" yaml:"source,omitempty"`
	UniversityName           string   `json:"universityName,omitempty" yaml:"university_name,omitempty"`
	PublicationType          string   `json:"publicationType,omitempty" yaml:"publication_type,omitempty"`
	EDN                      string   `json:"edn,omitempty" yaml:"edn,omitempty"`
	Patents                  string   `json:"patents,omitempty" yaml:"patents,omitempty"`
	RuAnnotation             string   `json:"ruAnnotation,omitempty" yaml:"ru_annotation,omitempty"`
	EnAnnotation             string   `json:"enAnnotation,omitempty" yaml:"en_annotation,omitempty"`
	Language                 string   `json:"language,omitempty" yaml:"language,omitempty"`
	Keywords                 []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	IsRinc                   bool     `json:"isRinc,omitempty" yaml:"is_rinc,omitempty"`
	IsCoreRinc               bool     `json:"isCoreRinc,omitempty" yaml:"is_core_rinc,omitempty"`
	OECDCodeName             string   `json:"oecdCodeName,omitempty" yaml:"oecd_code_name,omitempty"`
	ASJCCodeName             string   `json:"asjcCodeName,omitempty" yaml:"asjc_code_name,omitempty"`
	VAKCodeName              string   `json:"vakCodeName,omitempty" yaml:"vak_code_name,omitempty"`
	MinViews                 *int     `json:"minViews,omitempty" yaml:"min_views,omitempty"`
	MinCitationsRinc         *int     `json:"minCitationsRinc,omitempty" yaml:"min_citations_rinc,omitempty"`
	MinCitirovanieInCoreRinc *int     `json:"minCitirovanieInCoreRinc,omitempty" yaml:"min_citations_core_rinc,omitempty"`
}

// AltmetricFilter holds minimum thresholds on provider engagement metrics.
type AltmetricFilter struct {
	AllScoreMin              *float64 `json:"allScoreMin,omitempty" yaml:"all_score_min,omitempty"`
	ViewsMin                 *int     `json:"viewsMin,omitempty" yaml:"views_min,omitempty"`
	DownloadsMin             *int     `json:"downloadsMin,omitempty" yaml:"downloads_min,omitempty"`
	IncludedInCollectionsMin *int     `json:"includedInCollectionsMin,omitempty" yaml:"included_in_collections_min,omitempty"`
	TotalReviewsMin          *int     `json:"totalReviewsMin,omitempty" yaml:"total_reviews_min,omitempty"`
}

// SearchPage is one page of search results in canonical form.
type SearchPage struct {
	Items      []Article `json:"items" yaml:"items"`
	TotalCount int       `json:"totalCount" yaml:"total_count"`
}

// TotalPages returns the page count for total results at size per page. An
// empty result still has one page.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// FilterOptions lists the values the filter form can offer.
type FilterOptions struct {
	Years            []int    `json:"years" yaml:"years"`
	Languages        []string `json:"languages" yaml:"languages"`
	PublicationTypes []string `json:"publicationTypes" yaml:"publication_types"`
	OECDCodes        []string `json:"oecdCodes" yaml:"oecd_codes"`
	ASJCCodes        []string `json:"asjcCodes" yaml:"asjc_codes"`
	VAKCodes         []string `json:"vakCodes" yaml:"vak_codes"`
}

// PublicationType is one entry of GET /PublicationType.
type PublicationType struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}
