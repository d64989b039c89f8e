// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/article-catalog/pkg/types"
)

// Build converts the flat form state into the nested POST /Article body for
// the given page. It is pure: the same inputs always give the same request.
// Unset fields are left at their zero value so they are omitted from JSON.
func Build(s State, title string, page int) (types.SearchRequest, error) {
	req := types.SearchRequest{
		Page:     page,
		PageSize: types.PageSize,
		Title:    strings.TrimSpace(title),
	}

	author := types.AuthorFilter{
		FullName:     s.trimmed(AuthorName),
		Department:   s.trimmed(AuthorDepartment),
		SpinCode:     s.trimmed(AuthorSpin),
		Organization: s.trimmed(AuthorOrg),
	}
	if !author.IsZero() {
		req.Authors = []types.AuthorFilter{author}
	}

	var err error
	d := &req.ArticleDetails
	if d.Year, err = s.intField(Year); err != nil {
		return types.SearchRequest{}, err
	}
	d.Source = s.trimmed(Source)
	d.UniversityName = s.trimmed(UniversityName)
	d.PublicationType = s.trimmed(PublicationType)
	d.EDN = s.trimmed(EDN)
	d.Patents = s.trimmed(Patents)
	d.RuAnnotation = s.annotation(AbstractRuText, HasAbstractRu)
	d.EnAnnotation = s.annotation(AbstractEnText, HasAbstractEn)
	d.Language = s.trimmed(Language)
	if kw := s.List(KeywordsText); len(kw) > 0 {
		d.Keywords = kw
	}
	d.IsRinc = s.Flag(IsRinc)
	d.IsCoreRinc = s.Flag(IsCoreRinc)
	d.OECDCodeName = s.trimmed(OECDCodeName)
	d.ASJCCodeName = s.trimmed(ASJCCodeName)
	d.VAKCodeName = s.trimmed(VAKCodeName)
	if d.MinViews, err = s.intField(MinViews); err != nil {
		return types.SearchRequest{}, err
	}
	if d.MinCitationsRinc, err = s.intField(MinCitationsRinc); err != nil {
		return types.SearchRequest{}, err
	}
	if d.MinCitirovanieInCoreRinc, err = s.intField(MinCitirovanieInCoreRinc); err != nil {
		return types.SearchRequest{}, err
	}

	a := &req.Altmetric
	if a.AllScoreMin, err = s.floatField(AltmetricAllScoreMin); err != nil {
		return types.SearchRequest{}, err
	}
	ints := []struct {
		name string
		dst  **int
	}{
		{AltmetricViewsMin, &a.ViewsMin},
		{AltmetricDownloadsMin, &a.DownloadsMin},
		{AltmetricIncludedInCollectionsMin, &a.IncludedInCollectionsMin},
		{AltmetricTotalReviewsMin, &a.TotalReviewsMin},
	}
	for _, f := range ints {
		if *f.dst, err = s.intField(f.name); err != nil {
			return types.SearchRequest{}, err
		}
	}

	return req, nil
}

// InvalidValueError reports a numeric filter that does not parse.
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("filter %s: %q is not a number", e.Field, e.Value)
}

func (s State) trimmed(name string) string {
	return strings.TrimSpace(s.text[name])
}

// annotation applies the sentinel rule: explicit text wins, otherwise the
// "must have one" flag sends the not-empty marker, otherwise nothing.
func (s State) annotation(textField, flagField string) string {
	if t := s.trimmed(textField); t != "" {
		return t
	}
	if s.flags[flagField] {
		return types.NotEmptyMarker
	}
	return ""
}

func (s State) intField(name string) (*int, error) {
	raw := s.trimmed(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Accept integral floats such as "10.0" the way a numeric form input would.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil, &InvalidValueError{Field: name, Value: raw}
		}
		n = int(f)
	}
	return &n, nil
}

func (s State) floatField(name string) (*float64, error) {
	raw := s.trimmed(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &InvalidValueError{Field: name, Value: raw}
	}
	return &f, nil
}
