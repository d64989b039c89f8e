// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detail

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/article-catalog/internal/catalog"
	"github.com/pdiddy/article-catalog/pkg/types"
)

// MaxCoauthors is how many co-authors the profile lists.
const MaxCoauthors = 8

const (
	authorLoadFailed       = "Failed to load the author"
	publicationsLoadFailed = "Failed to load publications"
)

// AuthorFetcher loads author profiles and their publications.
type AuthorFetcher interface {
	Author(ctx context.Context, id string) (types.Author, error)
	AuthorPublications(ctx context.Context, id string, q types.PublicationQuery) (types.PublicationsPage, error)
}

// Stats are the headline counters of an author profile.
type Stats struct {
	Publications int
	Citations    int
	Views        int
	Downloads    int
}

// PublicationFilter narrows the publication list.
type PublicationFilter struct {
	Query    string
	YearFrom string
	YearTo   string
	OnlyPDF  bool
}

// AuthorState is a snapshot of the author view.
type AuthorState struct {
	ID            string
	Author        *types.Author
	Publications  []types.Publication
	Total         int
	Page          int
	TotalPages    int
	Filter        PublicationFilter
	Stats         Stats
	TopCoauthors  []string
	LoadingAuthor bool
	LoadingPubs   bool
	Err           string
}

// AuthorView is the author profile screen. It is safe for concurrent use.
type AuthorView struct {
	fetch AuthorFetcher
	log   *logrus.Entry

	mu            sync.Mutex
	id            string
	author        *types.Author
	pubs          []types.Publication
	total         int
	page          int
	filter        PublicationFilter
	loadingAuthor bool
	loadingPubs   bool
	authorErr     string
	pubsErr       string
	authorSeq     uint64
	pubsSeq       uint64
}

// NewAuthorView creates an empty author view.
func NewAuthorView(fetch AuthorFetcher, log *logrus.Entry) *AuthorView {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &AuthorView{fetch: fetch, log: log, page: 1}
}

// Load shows author id: the profile and the first publications page are
// fetched concurrently. The first error is returned; the other fetch still
// completes.
func (v *AuthorView) Load(ctx context.Context, id string) error {
	v.mu.Lock()
	v.id = id
	v.page = 1
	v.author = nil
	v.pubs = nil
	v.total = 0
	v.authorErr = ""
	v.pubsErr = ""
	v.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { return v.loadAuthor(ctx) })
	g.Go(func() error { return v.loadPublications(ctx) })
	return g.Wait()
}

// SetFilter replaces the publication filter without fetching. The next Load
// or page change uses it.
func (v *AuthorView) SetFilter(f PublicationFilter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

// SetQuery filters publications by text and reloads from page 1.
func (v *AuthorView) SetQuery(ctx context.Context, q string) error {
	return v.refilter(ctx, func(f *PublicationFilter) { f.Query = q })
}

// SetYearRange filters publications by year and reloads from page 1. Empty
// bounds are open.
func (v *AuthorView) SetYearRange(ctx context.Context, from, to string) error {
	return v.refilter(ctx, func(f *PublicationFilter) { f.YearFrom, f.YearTo = from, to })
}

// SetOnlyPDF restricts publications to those with a PDF and reloads from page 1.
func (v *AuthorView) SetOnlyPDF(ctx context.Context, only bool) error {
	return v.refilter(ctx, func(f *PublicationFilter) { f.OnlyPDF = only })
}

// GoToPage loads page n of the publications.
func (v *AuthorView) GoToPage(ctx context.Context, n int) error {
	v.mu.Lock()
	v.page = n
	v.mu.Unlock()
	return v.loadPublications(ctx)
}

func (v *AuthorView) refilter(ctx context.Context, edit func(*PublicationFilter)) error {
	v.mu.Lock()
	edit(&v.filter)
	v.page = 1
	v.mu.Unlock()
	return v.loadPublications(ctx)
}

func (v *AuthorView) loadAuthor(ctx context.Context) error {
	v.mu.Lock()
	v.authorSeq++
	seq := v.authorSeq
	id := v.id
	v.loadingAuthor = true
	v.authorErr = ""
	v.mu.Unlock()

	a, err := v.fetch.Author(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.authorSeq {
		return ErrSuperseded
	}
	v.loadingAuthor = false
	if err != nil {
		v.authorErr = catalog.Describe(err, authorLoadFailed)
		v.log.WithError(err).WithField("author", id).Warn("author load failed")
		return err
	}
	v.author = &a
	return nil
}

func (v *AuthorView) loadPublications(ctx context.Context) error {
	v.mu.Lock()
	v.pubsSeq++
	seq := v.pubsSeq
	id := v.id
	f := v.filter
	q := types.PublicationQuery{
		Query:    f.Query,
		YearFrom: f.YearFrom,
		YearTo:   f.YearTo,
		OnlyPDF:  f.OnlyPDF,
		Page:     v.page,
		PageSize: types.PageSize,
	}
	v.loadingPubs = true
	v.pubsErr = ""
	v.mu.Unlock()

	res, err := v.fetch.AuthorPublications(ctx, id, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.pubsSeq {
		return ErrSuperseded
	}
	v.loadingPubs = false
	if err != nil {
		v.pubsErr = catalog.Describe(err, publicationsLoadFailed)
		v.log.WithError(err).WithField("author", id).Warn("publications load failed")
		return err
	}
	v.pubs = res.Items
	v.total = res.Total
	return nil
}

// Snapshot returns the current view state with derived stats, co-authors and
// sorted publications.
func (v *AuthorView) Snapshot() AuthorState {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := AuthorState{
		ID:            v.id,
		Publications:  SortPublications(v.pubs),
		Total:         v.total,
		Page:          v.page,
		TotalPages:    types.TotalPages(v.total, types.PageSize),
		Filter:        v.filter,
		LoadingAuthor: v.loadingAuthor,
		LoadingPubs:   v.loadingPubs,
		Err:           v.authorErr,
	}
	if st.Err == "" {
		st.Err = v.pubsErr
	}
	if v.author != nil {
		a := *v.author
		st.Author = &a
	}
	st.Stats = AuthorStats(st.Author, v.total)
	st.TopCoauthors = TopCoauthors(st.Author, v.pubs)
	return st
}

// AuthorStats derives the profile counters. The publication count falls
// back to the publication list total when the server does not report one.
func AuthorStats(a *types.Author, total int) Stats {
	st := Stats{Publications: total}
	if a == nil || a.Stats == nil {
		return st
	}
	s := a.Stats
	if s.Publications != nil {
		st.Publications = *s.Publications
	}
	st.Citations = s.TotalCitationsRinc + s.TotalCitationsCoreRinc
	st.Views = s.TotalViews
	st.Downloads = s.TotalDownloads
	return st
}

// TopCoauthors returns the server's co-author list, or else up to
// MaxCoauthors names counted across pubs, most frequent first. Names that
// contain the author's own name are skipped.
func TopCoauthors(a *types.Author, pubs []types.Publication) []string {
	if a != nil && len(a.TopCoauthors) > 0 {
		return append([]string(nil), a.TopCoauthors...)
	}

	self := ""
	if a != nil {
		self = a.FullName
	}
	counts := make(map[string]int)
	var order []string
	for _, p := range pubs {
		for _, name := range p.Authors {
			name = strings.TrimSpace(name)
			if name == "" || (self != "" && strings.Contains(name, self)) {
				continue
			}
			if counts[name] == 0 {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > MaxCoauthors {
		order = order[:MaxCoauthors]
	}
	return order
}

// SortPublications returns a copy of pubs ordered by year, newest first,
// then by combined citations, highest first.
func SortPublications(pubs []types.Publication) []types.Publication {
	out := append([]types.Publication(nil), pubs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Citations() > out[j].Citations()
	})
	return out
}

var initialsRun = regexp.MustCompile(`([A-Za-zА-Яа-яЁё]\.){2,}`)

// ImplausibleName reports whether an author name looks like parser debris:
// too short, dotted initials strung together, or three or more dots. Such
// names are flagged for display, not removed.
func ImplausibleName(name string) bool {
	s := strings.TrimSpace(name)
	if utf8.RuneCountInString(s) < 6 {
		return true
	}
	if strings.Count(s, ".") >= 3 {
		return true
	}
	return initialsRun.MatchString(s)
}

// Initials returns the upper-case first letters of the first and last word
// of name.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(parts[0])
	last, _ := utf8.DecodeRuneInString(parts[len(parts)-1])
	return strings.ToUpper(string(first) + string(last))
}
