// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/article-catalog/pkg/types"
)

// searchPageWire is the body of a POST /Article response. Deployed API
// versions name the list either "items" or "articles" and the count either
// "total" or "totalCount"; exactly one list name must be present.
type searchPageWire struct {
	Items      *[]articleWire `json:"items"`
	Articles   *[]articleWire `json:"articles"`
	Total      *int           `json:"total"`
	TotalCount *int           `json:"totalCount"`
}

func (w searchPageWire) canonical(log *logrus.Entry) (types.SearchPage, error) {
	var raw []articleWire
	switch {
	case w.Items != nil && w.Articles != nil:
		return types.SearchPage{}, fmt.Errorf("%w: both items and articles present", ErrUnexpectedShape)
	case w.Items != nil:
		raw = *w.Items
	case w.Articles != nil:
		raw = *w.Articles
	default:
		return types.SearchPage{}, fmt.Errorf("%w: no items or articles list", ErrUnexpectedShape)
	}

	page := types.SearchPage{Items: make([]types.Article, 0, len(raw))}
	for _, a := range raw {
		page.Items = append(page.Items, a.canonical())
	}

	switch {
	case w.Total != nil:
		page.TotalCount = *w.Total
	case w.TotalCount != nil:
		page.TotalCount = *w.TotalCount
	default:
		log.WithField("items", len(raw)).Warn("search response carries no total; using page length")
		page.TotalCount = len(raw)
	}
	return page, nil
}

// articleWire accepts both the list shape (articleDetails + providers) and
// the detail shape (a singular provider).
type articleWire struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Year           int                   `json:"year"`
	Authors        []types.ArticleAuthor `json:"authors"`
	ArticleDetails *types.ArticleDetails `json:"articleDetails"`
	Provider       *types.Provider       `json:"provider"`
	Providers      []types.Provider      `json:"providers"`
}

func (w articleWire) canonical() types.Article {
	a := types.Article{
		ID:        w.ID,
		Title:     w.Title,
		Year:      w.Year,
		Authors:   w.Authors,
		Providers: w.Providers,
	}

	if w.Provider != nil {
		if _, dup := a.Provider(w.Provider.ID); !dup || w.Provider.ID == "" {
			a.Providers = append([]types.Provider{*w.Provider}, a.Providers...)
		}
	}

	switch {
	case w.ArticleDetails != nil:
		a.Details = *w.ArticleDetails
	case len(a.Providers) > 0:
		p := a.Providers[0]
		a.Details = types.ArticleDetails{
			UniversityName:  p.UniversityName,
			Source:          p.Source,
			PublicationType: p.PublicationType,
			Language:        p.Language,
		}
	}
	return a
}

type publicationWire struct {
	ArticleProviderID string `json:"articleProviderId"`
	types.Publication
}

type publicationsPageWire struct {
	Items []publicationWire `json:"items"`
	Total int               `json:"total"`
}

func (w publicationsPageWire) canonical() types.PublicationsPage {
	page := types.PublicationsPage{
		Items: make([]types.Publication, 0, len(w.Items)),
		Total: w.Total,
	}
	for _, p := range w.Items {
		pub := p.Publication
		if p.ArticleProviderID != "" {
			pub.ID = p.ArticleProviderID
		}
		page.Items = append(page.Items, pub)
	}
	return page
}

// publicationTypeWire accepts a bare name or an {id, name} object whose id
// may be numeric.
type publicationTypeWire struct {
	ID   string
	Name string
}

func (p *publicationTypeWire) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		p.ID, p.Name = name, name
		return nil
	}

	var obj struct {
		ID   any    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: publication type %s", ErrUnexpectedShape, data)
	}
	p.Name = obj.Name
	switch id := obj.ID.(type) {
	case nil:
		p.ID = obj.Name
	case string:
		p.ID = id
	case float64:
		p.ID = fmt.Sprintf("%g", id)
	default:
		p.ID = fmt.Sprint(id)
	}
	return nil
}
