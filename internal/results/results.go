// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package results drives the paginated article result list: it owns the
// filter form and the title query, issues searches, and keeps the current
// page of results. Every load is tagged with a sequence number and only the
// most recent one may change the list, so a slow response can never
// overwrite a newer one.
package results

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/article-catalog/internal/catalog"
	"github.com/pdiddy/article-catalog/internal/filters"
	"github.com/pdiddy/article-catalog/pkg/types"
)

// ErrSuperseded is returned by a load whose response arrived after a newer
// load was issued. The response was discarded.
var ErrSuperseded = errors.New("results: superseded by a newer request")

const loadFailed = "An error occurred while loading articles"

// Searcher runs one article search.
type Searcher interface {
	Search(ctx context.Context, req types.SearchRequest) (types.SearchPage, error)
}

// View is a snapshot of the controller for presentation.
type View struct {
	Items         []types.Article
	TotalCount    int
	Page          int
	TotalPages    int
	Loading       bool
	Err           string
	Query         string
	Filters       []filters.Entry
	FiltersActive bool
}

// CanPrev reports whether a previous page exists.
func (v View) CanPrev() bool { return v.Page > 1 }

// CanNext reports whether a next page exists.
func (v View) CanNext() bool { return v.Page < v.TotalPages }

// Controller is the result list. It is safe for concurrent use.
type Controller struct {
	searcher Searcher
	log      *logrus.Entry

	mu      sync.Mutex
	state   filters.State
	query   string
	items   []types.Article
	total   int
	page    int
	loading bool
	errMsg  string
	seq     uint64
}

// New returns a controller on page 1 with default filters and no results.
func New(searcher Searcher, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		searcher: searcher,
		log:      log,
		state:    filters.Defaults(),
		page:     1,
	}
}

// SetFilter changes one filter field without fetching.
func (c *Controller) SetFilter(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Set(name, value)
}

// SetFilters replaces the whole filter form without fetching.
func (c *Controller) SetFilters(s filters.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s.Clone()
}

// Filters returns a copy of the filter form.
func (c *Controller) Filters() filters.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SetQuery sets the free-text title query without fetching.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// ApplyFilters loads page 1 with the current query and filters.
func (c *Controller) ApplyFilters(ctx context.Context) error {
	return c.load(ctx, 1)
}

// Search is ApplyFilters under the name the search box uses.
func (c *Controller) Search(ctx context.Context) error {
	return c.load(ctx, 1)
}

// GoToPage loads page n with the current query and filters. Bounds are the
// caller's concern.
func (c *Controller) GoToPage(ctx context.Context, n int) error {
	return c.load(ctx, n)
}

// Reset restores the default filters and empty query, then loads page 1.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.state = filters.Defaults()
	c.query = ""
	c.mu.Unlock()
	return c.load(ctx, 1)
}

// FiltersActive reports whether the query or any filter is set.
func (c *Controller) FiltersActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *Controller) activeLocked() bool {
	if strings.TrimSpace(c.query) != "" {
		return true
	}
	return c.state.Active()
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Items:         append([]types.Article(nil), c.items...),
		TotalCount:    c.total,
		Page:          c.page,
		TotalPages:    types.TotalPages(c.total, types.PageSize),
		Loading:       c.loading,
		Err:           c.errMsg,
		Query:         c.query,
		Filters:       c.state.Entries(),
		FiltersActive: c.activeLocked(),
	}
}

func (c *Controller) load(ctx context.Context, page int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	state := c.state.Clone()
	query := c.query
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	log := c.log.WithFields(logrus.Fields{"page": page, "seq": seq})

	req, err := filters.Build(state, query, page)
	if err != nil {
		c.mu.Lock()
		if seq == c.seq {
			c.loading = false
			c.errMsg = err.Error()
		}
		c.mu.Unlock()
		log.WithError(err).Warn("invalid filters")
		return err
	}

	res, err := c.searcher.Search(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Debug("discarding superseded search response")
		return ErrSuperseded
	}
	c.loading = false
	if err != nil {
		c.errMsg = catalog.Describe(err, loadFailed)
		log.WithError(err).Warn("search failed")
		return err
	}
	c.items = res.Items
	c.total = res.TotalCount
	c.page = page
	log.WithField("total", res.TotalCount).Debug("search loaded")
	return nil
}
