// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/filters"
	"github.com/pdiddy/article-catalog/internal/hub"
	"github.com/pdiddy/article-catalog/internal/logging"
	"github.com/pdiddy/article-catalog/internal/results"
	"github.com/pdiddy/article-catalog/internal/toast"
	"github.com/pdiddy/article-catalog/pkg/types"
)

type fakeCatalog struct {
	mu       sync.Mutex
	total    int
	requests []types.SearchRequest
	articles map[string]types.Article
}

func (f *fakeCatalog) Search(_ context.Context, req types.SearchRequest) (types.SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	var items []types.Article
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("a%d-%d", req.Page, i)
		items = append(items, types.Article{ID: id, Title: "Title " + id})
	}
	return types.SearchPage{Items: items, TotalCount: f.total}, nil
}

func (f *fakeCatalog) Article(_ context.Context, id string) (types.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.articles[id]; ok {
		return a, nil
	}
	return types.Article{ID: id, Title: "Title " + id, Providers: []types.Provider{{ID: "p-" + id}}}, nil
}

func (f *fakeCatalog) last() types.SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeCatalog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeChannel struct {
	mu       sync.Mutex
	handlers map[hub.HandlerID]func(hub.ArticleUpdated)
	next     hub.HandlerID
	subs     []string
}

func (f *fakeChannel) State() hub.State                          { return hub.Connected }
func (f *fakeChannel) Start(context.Context) error               { return nil }
func (f *fakeChannel) Unsubscribe(context.Context, string) error { return nil }

func (f *fakeChannel) Subscribe(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, id)
	return nil
}

func (f *fakeChannel) OnArticleUpdated(fn func(hub.ArticleUpdated)) hub.HandlerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = make(map[hub.HandlerID]func(hub.ArticleUpdated))
	}
	f.next++
	f.handlers[f.next] = fn
	return f.next
}

func (f *fakeChannel) Off(_ string, id hub.HandlerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, id)
}

func (f *fakeChannel) emit(ev hub.ArticleUpdated) {
	f.mu.Lock()
	var fns []func(hub.ArticleUpdated)
	for _, fn := range f.handlers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeChannel) subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subs...)
}

// holdToasts keeps toasts on screen until dismissed.
func holdToasts(time.Duration, func()) func() bool {
	return func() bool { return true }
}

func newTestModel(t *testing.T, total int) (Model, *fakeCatalog, *fakeChannel) {
	t.Helper()
	cat := &fakeCatalog{total: total, articles: map[string]types.Article{}}
	ch := &fakeChannel{}
	log := logging.Component(logging.Discard(), "tui")
	m := New(Config{
		Results:      results.New(cat, log),
		Article:      detail.NewArticleView(cat, ch, log),
		Channel:      ch,
		ToastOptions: []toast.Option{toast.WithAfterFunc(holdToasts)},
		Log:          log,
	})
	require.NoError(t, m.results.Search(context.Background()))
	return m, cat, ch
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeKeys sends msg without running the returned command, which for prompt
// input is only the cursor blink.
func typeKeys(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends msg and, when a command comes back, runs it and feeds its
// message back once. Listen commands are never returned from key handling.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if done, ok := cmd().(doneMsg); ok {
		next, _ = m.Update(done)
		m = next.(Model)
	}
	return m
}

func TestModel_CursorAndPaging(t *testing.T) {
	m, cat, _ := newTestModel(t, 45)

	m = press(t, m, runes("j"))
	m = press(t, m, runes("j"))
	m = press(t, m, runes("j"))
	assert.Equal(t, 2, m.cursor, "cursor stops at the last row")

	m = press(t, m, runes("n"))
	assert.Equal(t, 2, m.results.Snapshot().Page)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 2, cat.last().Page)

	m = press(t, m, runes("n"))
	m = press(t, m, runes("n"))
	assert.Equal(t, 3, m.results.Snapshot().Page)
	assert.Equal(t, 3, cat.count(), "next is disabled on the last page")

	m = press(t, m, runes("p"))
	assert.Equal(t, 2, m.results.Snapshot().Page)
}

func TestModel_PrevDisabledOnFirstPage(t *testing.T) {
	m, cat, _ := newTestModel(t, 45)
	_, cmd := m.Update(runes("p"))
	assert.Nil(t, cmd)
	assert.Equal(t, 1, cat.count())
}

func TestModel_QueryPrompt(t *testing.T) {
	m, cat, _ := newTestModel(t, 5)

	m = typeKeys(m, runes("/"))
	require.Equal(t, promptQuery, m.prompt)
	m = typeKeys(m, runes("graphs"))
	assert.Contains(t, m.View(), "Search: ")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, promptNone, m.prompt)
	assert.Equal(t, "graphs", cat.last().Title)
	assert.Equal(t, 1, cat.last().Page)
}

func TestModel_QueryPromptEscCancels(t *testing.T) {
	m, cat, _ := newTestModel(t, 5)
	m = typeKeys(m, runes("/"))
	m = typeKeys(m, runes("x"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, promptNone, m.prompt)
	assert.Equal(t, 1, cat.count())
	assert.Equal(t, "", m.results.Snapshot().Query)
}

func TestModel_FilterPrompt(t *testing.T) {
	m, cat, _ := newTestModel(t, 5)

	m = typeKeys(m, runes("f"))
	m = typeKeys(m, runes("year=2020"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	req := cat.last()
	require.NotNil(t, req.ArticleDetails.Year)
	assert.Equal(t, 2020, *req.ArticleDetails.Year)
	assert.True(t, m.results.FiltersActive())
	assert.Contains(t, m.View(), "filters active")

	m = press(t, m, runes("r"))
	assert.Nil(t, cat.last().ArticleDetails.Year)
	assert.False(t, m.results.FiltersActive())
}

func TestModel_FilterPromptErrors(t *testing.T) {
	m, cat, _ := newTestModel(t, 5)

	m = typeKeys(m, runes("f"))
	m = typeKeys(m, runes("bogus=1"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.status, "bogus")

	m = typeKeys(m, runes("f"))
	m = typeKeys(m, runes(filters.Year))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.status, "name=value")
	assert.Equal(t, 1, cat.count())
}

func TestModel_OpenDetailAndBack(t *testing.T) {
	m, _, _ := newTestModel(t, 5)

	m = press(t, m, runes("j"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, screenDetail, m.screen)

	st := m.article.Snapshot()
	assert.True(t, st.Mounted)
	assert.Equal(t, "a1-1", st.ID)
	assert.Contains(t, m.View(), "Title a1-1")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenList, m.screen)
	assert.False(t, m.article.Snapshot().Mounted)
}

func TestModel_NotifyToggle(t *testing.T) {
	m, cat, ch := newTestModel(t, 5)
	cat.articles["done"] = types.Article{ID: "done", Providers: []types.Provider{{ID: "full", HasFull: true}}}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, runes("s"))
	assert.Equal(t, []string{"p-a1-0"}, ch.subscribed())
	assert.True(t, m.article.Snapshot().Notify)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	next, cmd := m.Update(navigateMsg{id: "done"})
	m = next.(Model)
	require.NotNil(t, cmd)
	require.NoError(t, m.article.Mount(context.Background(), "done"))

	_, cmd = m.Update(runes("s"))
	assert.Nil(t, cmd)
	assert.Len(t, ch.subscribed(), 1)
}

func TestModel_ProviderSwitch(t *testing.T) {
	m, cat, _ := newTestModel(t, 5)
	cat.articles["a1-0"] = types.Article{ID: "a1-0", Providers: []types.Provider{
		{ID: "p1", Annotations: []types.Annotation{{Text: "one"}, {Text: "two"}}},
		{ID: "p2"},
	}}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "p1", m.article.Snapshot().Provider.ID)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.article.Snapshot().Annotation)

	m = press(t, m, runes("]"))
	assert.Equal(t, "p2", m.article.Snapshot().Provider.ID)
	m = press(t, m, runes("]"))
	assert.Equal(t, "p1", m.article.Snapshot().Provider.ID)
	m = press(t, m, runes("["))
	assert.Equal(t, "p2", m.article.Snapshot().Provider.ID)
}

func TestModel_Toasts(t *testing.T) {
	m, _, ch := newTestModel(t, 5)

	ch.emit(hub.ArticleUpdated{ArticleProviderID: "p9"})
	ch.emit(hub.ArticleUpdated{ArticleProviderID: "p7", Title: "Seven"})
	require.Len(t, m.Toasts().Active(), 2)
	view := m.View()
	assert.Contains(t, view, toast.DefaultTitle)
	assert.Contains(t, view, "Seven")

	m = press(t, m, runes("x"))
	active := m.Toasts().Active()
	require.Len(t, active, 1)
	assert.Equal(t, "p9", active[0].SubjectID)

	m = press(t, m, runes("o"))
	assert.Empty(t, m.Toasts().Active())

	msg := listenNav(m.nav)()
	require.Equal(t, navigateMsg{id: "p9"}, msg)
	next, cmd := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, screenDetail, m.screen)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	_ = press(t, m, batch[0]())
	assert.Equal(t, "p9", m.article.Snapshot().ID)
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, 5)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_QIsTextInPrompt(t *testing.T) {
	m, _, _ := newTestModel(t, 5)
	m = typeKeys(m, runes("/"))
	m = typeKeys(m, runes("q"))
	assert.Equal(t, promptQuery, m.prompt)
	assert.Equal(t, "q", m.input.Value())
}
