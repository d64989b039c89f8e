// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/article-catalog/internal/catalog"
	"github.com/pdiddy/article-catalog/internal/hub"
	"github.com/pdiddy/article-catalog/pkg/types"
)

// fakeArticles serves article records and counts fetches.
type fakeArticles struct {
	mu      sync.Mutex
	calls   int
	records map[string]types.Article
	err     error
	gate    chan struct{}
}

func (f *fakeArticles) Article(_ context.Context, id string) (types.Article, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	rec, ok := f.records[id]
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return types.Article{}, err
	}
	if !ok {
		return types.Article{}, &catalog.StatusError{Op: "article", StatusCode: 404}
	}
	return rec, nil
}

func (f *fakeArticles) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeChannel stands in for the hub client.
type fakeChannel struct {
	mu          sync.Mutex
	state       hub.State
	starts      int
	startErr    error
	handlers    map[hub.HandlerID]func(hub.ArticleUpdated)
	next        hub.HandlerID
	invocations []string
	invokeErr   error
	invokeGate  chan struct{}
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[hub.HandlerID]func(hub.ArticleUpdated))}
}

func (f *fakeChannel) State() hub.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeChannel) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.state = hub.Connected
	return nil
}

func (f *fakeChannel) OnArticleUpdated(fn func(hub.ArticleUpdated)) hub.HandlerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.handlers[f.next] = fn
	return f.next
}

func (f *fakeChannel) Off(_ string, id hub.HandlerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, id)
}

func (f *fakeChannel) invoke(method, id string) error {
	f.mu.Lock()
	f.invocations = append(f.invocations, method+":"+id)
	gate := f.invokeGate
	err := f.invokeErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeChannel) Subscribe(_ context.Context, id string) error {
	return f.invoke(hub.MethodSubscribe, id)
}

func (f *fakeChannel) Unsubscribe(_ context.Context, id string) error {
	return f.invoke(hub.MethodUnsubscribe, id)
}

func (f *fakeChannel) emit(ev hub.ArticleUpdated) {
	f.mu.Lock()
	hs := make([]func(hub.ArticleUpdated), 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (f *fakeChannel) handlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

func (f *fakeChannel) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invocations...)
}

func sampleArticle() types.Article {
	return types.Article{
		ID:    "a1",
		Title: "Graphene",
		Providers: []types.Provider{
			{ID: "p1", Source: "eLibrary", Annotations: []types.Annotation{{Text: "ru"}, {Text: "en"}}},
			{ID: "p2", Source: "CyberLenin"},
		},
	}
}

func TestArticleView_MountLoadsAndSelectsFirstProvider(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	v := NewArticleView(fa, ch, nil)

	require.NoError(t, v.Mount(context.Background(), "a1"))

	st := v.Snapshot()
	require.NotNil(t, st.Article)
	require.NotNil(t, st.Provider)
	assert.Equal(t, "p1", st.Provider.ID)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
	assert.Equal(t, 1, ch.handlerCount())
}

func TestArticleView_LoadError(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{}}
	v := NewArticleView(fa, nil, nil)

	err := v.Mount(context.Background(), "missing")
	require.Error(t, err)

	st := v.Snapshot()
	assert.Equal(t, "Not found", st.Err)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Article)
}

func TestArticleView_NoProviders(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": {ID: "a1", Title: "Bare"}}}
	v := NewArticleView(fa, newFakeChannel(), nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))

	assert.Nil(t, v.Snapshot().Provider)
	assert.ErrorIs(t, v.ToggleNotify(context.Background()), ErrNoProvider)
}

func TestArticleView_ReloadsOnlyForSelectedProvider(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	v := NewArticleView(fa, ch, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))
	require.Equal(t, 1, fa.callCount())

	ch.emit(hub.ArticleUpdated{ArticleProviderID: "p2", Title: "x"})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fa.callCount(), "event for another provider is ignored")

	ch.emit(hub.ArticleUpdated{ArticleProviderID: "p1", Title: "x"})
	assert.Eventually(t, func() bool { return fa.callCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, v.SelectProvider("p2"))
	ch.emit(hub.ArticleUpdated{ArticleProviderID: "p2"})
	assert.Eventually(t, func() bool { return fa.callCount() == 3 }, time.Second, time.Millisecond)
}

func TestArticleView_QuietReloadKeepsSelection(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	v := NewArticleView(fa, ch, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))
	require.NoError(t, v.SelectProvider("p2"))

	updated := sampleArticle()
	updated.Title = "Graphene, revised"
	fa.mu.Lock()
	fa.records["a1"] = updated
	fa.mu.Unlock()

	ch.emit(hub.ArticleUpdated{ArticleProviderID: "p2"})
	assert.Eventually(t, func() bool {
		st := v.Snapshot()
		return st.Article != nil && st.Article.Title == "Graphene, revised"
	}, time.Second, time.Millisecond)
	assert.Equal(t, "p2", v.Snapshot().Provider.ID)
}

func TestArticleView_QuietReloadFailureClearsLoading(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	v := NewArticleView(fa, ch, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))
	require.Equal(t, "p1", v.Snapshot().Provider.ID)

	gate := make(chan struct{})
	fa.mu.Lock()
	fa.gate = gate
	fa.err = errors.New("connection refused")
	fa.mu.Unlock()

	errc := make(chan error, 1)
	go func() { errc <- v.Load(context.Background()) }()
	require.Eventually(t, func() bool { return fa.callCount() == 2 }, time.Second, time.Millisecond)
	require.True(t, v.Snapshot().Loading)

	ch.emit(hub.ArticleUpdated{ArticleProviderID: "p1"})
	require.Eventually(t, func() bool { return fa.callCount() == 3 }, time.Second, time.Millisecond)
	close(gate)

	assert.ErrorIs(t, <-errc, ErrSuperseded)
	assert.Eventually(t, func() bool {
		st := v.Snapshot()
		return !st.Loading && st.Err != ""
	}, time.Second, time.Millisecond)
	assert.Equal(t, "Graphene", v.Snapshot().Article.Title, "the last good record stays")
}

func TestArticleView_UnmountDropsHandlerAndLateResponse(t *testing.T) {
	gate := make(chan struct{})
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}, gate: gate}
	ch := newFakeChannel()
	v := NewArticleView(fa, ch, nil)

	errc := make(chan error, 1)
	go func() { errc <- v.Mount(context.Background(), "a1") }()
	require.Eventually(t, func() bool { return fa.callCount() == 1 }, time.Second, time.Millisecond)

	v.Unmount()
	close(gate)

	assert.ErrorIs(t, <-errc, ErrSuperseded)
	assert.Nil(t, v.Snapshot().Article)
	assert.Equal(t, 0, ch.handlerCount())
	assert.ErrorIs(t, v.Load(context.Background()), ErrNotMounted)
}

func TestArticleView_RemountDiscardsOldResponse(t *testing.T) {
	gate := make(chan struct{})
	other := sampleArticle()
	other.ID = "a2"
	other.Title = "Other"
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle(), "a2": other}, gate: gate}
	v := NewArticleView(fa, newFakeChannel(), nil)

	first := make(chan error, 1)
	go func() { first <- v.Mount(context.Background(), "a1") }()
	require.Eventually(t, func() bool { return fa.callCount() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- v.Mount(context.Background(), "a2") }()
	require.Eventually(t, func() bool { return fa.callCount() == 2 }, time.Second, time.Millisecond)

	close(gate)
	assert.ErrorIs(t, <-first, ErrSuperseded)
	require.NoError(t, <-second)
	assert.Equal(t, "Other", v.Snapshot().Article.Title)
}

func TestToggleNotify_StartsHubAndFlipsAfterAck(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	v := NewArticleView(fa, ch, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))

	require.NoError(t, v.ToggleNotify(context.Background()))
	assert.True(t, v.Snapshot().Notify)
	assert.Equal(t, 1, ch.starts)

	require.NoError(t, v.ToggleNotify(context.Background()))
	assert.False(t, v.Snapshot().Notify)
	assert.Equal(t, 1, ch.starts, "connected hub is not restarted")

	assert.Equal(t, []string{hub.MethodSubscribe + ":p1", hub.MethodUnsubscribe + ":p1"}, ch.calls())
}

func TestToggleNotify_FailureLeavesFlag(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	ch.startErr = errors.New("dial refused")
	v := NewArticleView(fa, ch, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))

	err := v.ToggleNotify(context.Background())
	require.Error(t, err)

	st := v.Snapshot()
	assert.False(t, st.Notify)
	assert.False(t, st.NotifyBusy)
	assert.Contains(t, st.NotifyErr, "dial refused")
	assert.Empty(t, ch.calls())

	ch.mu.Lock()
	ch.startErr = nil
	ch.invokeErr = &hub.ServerError{Method: hub.MethodSubscribe, Message: "denied"}
	ch.mu.Unlock()
	require.Error(t, v.ToggleNotify(context.Background()))
	assert.False(t, v.Snapshot().Notify)
}

func TestToggleNotify_InFlightGuard(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	ch.invokeGate = make(chan struct{})
	v := NewArticleView(fa, ch, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))

	first := make(chan error, 1)
	go func() { first <- v.ToggleNotify(context.Background()) }()
	require.Eventually(t, func() bool { return len(ch.calls()) == 1 }, time.Second, time.Millisecond)
	assert.True(t, v.Snapshot().NotifyBusy)

	assert.ErrorIs(t, v.ToggleNotify(context.Background()), ErrNotifyInFlight)

	close(ch.invokeGate)
	require.NoError(t, <-first)
	assert.Len(t, ch.calls(), 1)
	assert.True(t, v.Snapshot().Notify)
}

func TestToggleNotify_PerProvider(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	ch := newFakeChannel()
	v := NewArticleView(fa, ch, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))

	require.NoError(t, v.ToggleNotify(context.Background()))
	require.NoError(t, v.SelectProvider("p2"))
	assert.False(t, v.Snapshot().Notify)
	require.NoError(t, v.SelectProvider("p1"))
	assert.True(t, v.Snapshot().Notify)

	assert.ErrorIs(t, v.SelectProvider("nope"), ErrUnknownProvider)
}

func TestSelectAnnotation(t *testing.T) {
	fa := &fakeArticles{records: map[string]types.Article{"a1": sampleArticle()}}
	v := NewArticleView(fa, nil, nil)
	require.NoError(t, v.Mount(context.Background(), "a1"))

	assert.True(t, v.SelectAnnotation(1))
	assert.Equal(t, 1, v.Snapshot().Annotation)
	assert.False(t, v.SelectAnnotation(2))

	require.NoError(t, v.SelectProvider("p2"))
	assert.Equal(t, 0, v.Snapshot().Annotation)
	assert.False(t, v.SelectAnnotation(0))
}

// fakeAuthors serves an author profile and publication pages.
type fakeAuthors struct {
	mu        sync.Mutex
	author    types.Author
	authorErr error
	pages     map[int]types.PublicationsPage
	queries   []types.PublicationQuery
	pubsGate  chan struct{}
}

func (f *fakeAuthors) Author(_ context.Context, id string) (types.Author, error) {
	if f.authorErr != nil {
		return types.Author{}, f.authorErr
	}
	a := f.author
	a.ID = id
	return a, nil
}

func (f *fakeAuthors) AuthorPublications(_ context.Context, _ string, q types.PublicationQuery) (types.PublicationsPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.pubsGate
	page := f.pages[q.Page]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return page, nil
}

func (f *fakeAuthors) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeAuthors) lastQuery() types.PublicationQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func TestAuthorView_LoadAndDerive(t *testing.T) {
	fa := &fakeAuthors{
		author: types.Author{FullName: "Иванов Иван"},
		pages: map[int]types.PublicationsPage{1: {Total: 41, Items: []types.Publication{
			{ID: "x1", Year: 2019, CitationsRinc: 9, Authors: []string{"Иванов Иван", "Петров Пётр"}},
			{ID: "x2", Year: 2022, CitationsRinc: 1, Authors: []string{"Петров Пётр", "Сидоров Сидор"}},
			{ID: "x3", Year: 2022, CitationsRinc: 4, CitationsCoreRinc: 1},
		}}},
	}
	v := NewAuthorView(fa, nil)
	require.NoError(t, v.Load(context.Background(), "auth-1"))

	st := v.Snapshot()
	require.NotNil(t, st.Author)
	assert.Equal(t, "auth-1", st.Author.ID)
	assert.Equal(t, 3, st.TotalPages)
	assert.Equal(t, 41, st.Stats.Publications, "falls back to list total")
	assert.Equal(t, []string{"x3", "x2", "x1"}, []string{st.Publications[0].ID, st.Publications[1].ID, st.Publications[2].ID})
	assert.Equal(t, []string{"Петров Пётр", "Сидоров Сидор"}, st.TopCoauthors)

	q := fa.lastQuery()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, types.PageSize, q.PageSize)
}

func TestAuthorView_LoadClearsPreviousPublications(t *testing.T) {
	fa := &fakeAuthors{
		author: types.Author{FullName: "Иванов Иван"},
		pages: map[int]types.PublicationsPage{1: {Total: 1, Items: []types.Publication{
			{ID: "x1", Year: 2019, Authors: []string{"Иванов Иван", "Петров Пётр"}},
		}}},
	}
	v := NewAuthorView(fa, nil)
	require.NoError(t, v.Load(context.Background(), "auth-1"))
	require.Len(t, v.Snapshot().Publications, 1)

	gate := make(chan struct{})
	fa.mu.Lock()
	fa.pubsGate = gate
	fa.mu.Unlock()

	errc := make(chan error, 1)
	go func() { errc <- v.Load(context.Background(), "auth-2") }()
	require.Eventually(t, func() bool { return fa.queryCount() == 2 }, time.Second, time.Millisecond)

	st := v.Snapshot()
	assert.Empty(t, st.Publications)
	assert.Zero(t, st.Total)
	assert.Empty(t, st.TopCoauthors)
	assert.True(t, st.LoadingPubs)

	close(gate)
	require.NoError(t, <-errc)
	assert.Len(t, v.Snapshot().Publications, 1)
}

func TestAuthorView_FiltersResetPage(t *testing.T) {
	fa := &fakeAuthors{pages: map[int]types.PublicationsPage{}}
	v := NewAuthorView(fa, nil)
	require.NoError(t, v.Load(context.Background(), "a"))

	require.NoError(t, v.GoToPage(context.Background(), 3))
	assert.Equal(t, 3, fa.lastQuery().Page)

	require.NoError(t, v.SetYearRange(context.Background(), "2015", "2020"))
	q := fa.lastQuery()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "2015", q.YearFrom)
	assert.Equal(t, "2020", q.YearTo)

	require.NoError(t, v.GoToPage(context.Background(), 2))
	require.NoError(t, v.SetOnlyPDF(context.Background(), true))
	q = fa.lastQuery()
	assert.Equal(t, 1, q.Page)
	assert.True(t, q.OnlyPDF)
	assert.Equal(t, "2015", q.YearFrom, "other filters are kept")

	require.NoError(t, v.SetQuery(context.Background(), "laser"))
	assert.Equal(t, "laser", fa.lastQuery().Query)
}

func TestAuthorView_AuthorErrorStillLoadsPublications(t *testing.T) {
	fa := &fakeAuthors{
		authorErr: &catalog.StatusError{Op: "author", StatusCode: 404},
		pages:     map[int]types.PublicationsPage{1: {Total: 1, Items: []types.Publication{{ID: "x"}}}},
	}
	v := NewAuthorView(fa, nil)

	require.Error(t, v.Load(context.Background(), "gone"))
	st := v.Snapshot()
	assert.Nil(t, st.Author)
	assert.Len(t, st.Publications, 1)
	assert.False(t, st.LoadingAuthor)
	assert.False(t, st.LoadingPubs)
}

func TestAuthorStats(t *testing.T) {
	assert.Equal(t, Stats{Publications: 5}, AuthorStats(nil, 5))

	n := 12
	a := &types.Author{Stats: &types.AuthorStats{
		Publications:           &n,
		TotalCitationsRinc:     3,
		TotalCitationsCoreRinc: 2,
		TotalViews:             100,
		TotalDownloads:         7,
	}}
	assert.Equal(t, Stats{Publications: 12, Citations: 5, Views: 100, Downloads: 7}, AuthorStats(a, 99))
}

func TestTopCoauthors(t *testing.T) {
	server := &types.Author{TopCoauthors: []string{"A", "B"}}
	assert.Equal(t, []string{"A", "B"}, TopCoauthors(server, nil))

	var pubs []types.Publication
	names := []string{"N0 Name", "N1 Name", "N2 Name", "N3 Name", "N4 Name", "N5 Name", "N6 Name", "N7 Name", "N8 Name"}
	for i, n := range names {
		for j := 0; j <= i; j++ {
			pubs = append(pubs, types.Publication{Authors: []string{n}})
		}
	}
	top := TopCoauthors(&types.Author{FullName: "Self"}, pubs)
	require.Len(t, top, MaxCoauthors)
	assert.Equal(t, "N8 Name", top[0])
	assert.NotContains(t, top, "N0 Name")
}

func TestImplausibleName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Иванов Иван Иванович", false},
		{"Smith John", false},
		{"Ив", true},
		{"А.Б.В.", true},
		{"X.Д.Дмитрий", true},
		{"a.b.c.d Name", true},
		{"Петров П. Сергей", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImplausibleName(tt.name))
		})
	}
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "ИИ", Initials("Иванов Иван Иванович"))
	assert.Equal(t, "SS", Initials("solo"))
	assert.Empty(t, Initials("  "))
}

func TestAuthorView_SetFilterAppliesOnLoad(t *testing.T) {
	fa := &fakeAuthors{pages: map[int]types.PublicationsPage{}}
	v := NewAuthorView(fa, nil)
	v.SetFilter(PublicationFilter{Query: "optics", YearFrom: "2010", OnlyPDF: true})
	assert.Empty(t, fa.queries, "SetFilter does not fetch")

	require.NoError(t, v.Load(context.Background(), "a"))
	q := fa.lastQuery()
	assert.Equal(t, "optics", q.Query)
	assert.Equal(t, "2010", q.YearFrom)
	assert.True(t, q.OnlyPDF)
	assert.Equal(t, 1, q.Page)
}

func TestAuthorView_AuthorErrorSurvivesPublications(t *testing.T) {
	fa := &fakeAuthors{
		authorErr: &catalog.StatusError{Op: "author", StatusCode: 404},
		pages:     map[int]types.PublicationsPage{},
	}
	v := NewAuthorView(fa, nil)
	require.Error(t, v.Load(context.Background(), "gone"))
	assert.Equal(t, "Not found", v.Snapshot().Err)

	require.NoError(t, v.GoToPage(context.Background(), 2))
	assert.Equal(t, "Not found", v.Snapshot().Err)
}
