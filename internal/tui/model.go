// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui is the interactive terminal front end: a result list with a
// search prompt and filter prompt, the article detail screen, and a stack of
// update toasts fed by the notification hub.
//
// Controllers own all state. The model keeps only screen-level concerns
// (cursor, prompt, status line) and re-reads controller snapshots in View.
// Blocking controller calls run inside tea.Cmds; change signals from the
// article view and the toast queue are turned into messages by listen
// commands that re-arm after each delivery.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/hub"
	"github.com/pdiddy/article-catalog/internal/render"
	"github.com/pdiddy/article-catalog/internal/results"
	"github.com/pdiddy/article-catalog/internal/toast"
	"github.com/pdiddy/article-catalog/pkg/types"
)

type screen int

const (
	screenList screen = iota
	screenDetail
)

type prompt int

const (
	promptNone prompt = iota
	promptQuery
	promptFilter
)

// Config wires the model to its controllers.
type Config struct {
	Context context.Context
	Results *results.Controller
	Article *detail.ArticleView
	// Channel feeds toasts and is started on Init. It may be nil.
	Channel detail.Channel
	// ToastOptions are passed to the toast queue the model creates.
	ToastOptions []toast.Option
	Log          *logrus.Entry
}

// Model is the bubbletea model of the catalog TUI.
type Model struct {
	ctx     context.Context
	results *results.Controller
	article *detail.ArticleView
	channel detail.Channel
	toasts  *toast.Queue
	nav     chan string
	log     *logrus.Entry
	keys    KeyMap

	screen screen
	cursor int
	prompt prompt
	input  textinput.Model
	status string
	width  int
}

type doneMsg struct {
	op  string
	err error
}

type articleChangedMsg struct{}

type toastsChangedMsg struct{}

type navigateMsg struct{ id string }

// New creates the model, its toast queue, and the hub handler that feeds it.
func New(cfg Config) Model {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	nav := make(chan string, 1)
	navigate := func(id string) {
		select {
		case nav <- id:
		default:
		}
	}
	opts := append([]toast.Option{toast.WithLogger(cfg.Log)}, cfg.ToastOptions...)
	queue := toast.New(navigate, opts...)
	if cfg.Channel != nil {
		cfg.Channel.OnArticleUpdated(func(ev hub.ArticleUpdated) {
			queue.Push(ev.ArticleProviderID, ev.Title)
		})
	}

	in := textinput.New()
	in.CharLimit = 256

	return Model{
		ctx:     cfg.Context,
		results: cfg.Results,
		article: cfg.Article,
		channel: cfg.Channel,
		toasts:  queue,
		nav:     nav,
		log:     cfg.Log,
		keys:    DefaultKeyMap,
		input:   in,
		width:   100,
	}
}

// Toasts returns the model's toast queue.
func (m Model) Toasts() *toast.Queue { return m.toasts }

// Init implements tea.Model: it starts the hub, loads the first page, and
// begins listening for change signals.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.op("search", m.results.Search),
		listen(m.toasts.Changes(), toastsChangedMsg{}),
		listenNav(m.nav),
	}
	if m.article != nil {
		cmds = append(cmds, listen(m.article.Changes(), articleChangedMsg{}))
	}
	if m.channel != nil {
		cmds = append(cmds, m.op("connect", m.channel.Start))
	}
	return tea.Batch(cmds...)
}

func listen(c <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-c; !ok {
			return nil
		}
		return msg
	}
}

func listenNav(c <-chan string) tea.Cmd {
	return func() tea.Msg {
		id, ok := <-c
		if !ok {
			return nil
		}
		return navigateMsg{id: id}
	}
}

// op runs a blocking controller call and reports its outcome.
func (m Model) op(name string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{op: name, err: fn(ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case doneMsg:
		m.status = ""
		switch {
		case msg.err == nil:
		case errors.Is(msg.err, results.ErrSuperseded), errors.Is(msg.err, detail.ErrSuperseded):
		case msg.op == "connect":
			m.log.WithError(msg.err).Warn("notification hub unavailable, retrying in background")
		default:
			m.status = fmt.Sprintf("%s: %v", msg.op, msg.err)
		}
		m.clampCursor()
		return m, nil

	case articleChangedMsg:
		return m, listen(m.article.Changes(), articleChangedMsg{})

	case toastsChangedMsg:
		return m, listen(m.toasts.Changes(), toastsChangedMsg{})

	case navigateMsg:
		if m.article == nil {
			return m, listenNav(m.nav)
		}
		return m.openArticle(msg.id), tea.Batch(m.mount(msg.id), listenNav(m.nav))

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKeys(msg)
		}
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.toasts.Close()
		if m.article != nil {
			m.article.Unmount()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.OpenToast):
		if t, ok := m.newestToast(); ok {
			m.toasts.Click(t.SubjectID)
		}
		return m, nil

	case key.Matches(msg, m.keys.DismissToast):
		if t, ok := m.newestToast(); ok {
			m.toasts.Dismiss(t.SubjectID)
		}
		return m, nil
	}

	if m.screen == screenDetail {
		return m.handleDetailKeys(msg)
	}
	return m.handleListKeys(msg)
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.results.Snapshot()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(v.Items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(v.Items) && m.article != nil {
			id := v.Items[m.cursor].ID
			return m.openArticle(id), m.mount(id)
		}
	case key.Matches(msg, m.keys.Next):
		if v.CanNext() && !v.Loading {
			m.cursor = 0
			return m, m.page(v.Page + 1)
		}
	case key.Matches(msg, m.keys.Prev):
		if v.CanPrev() && !v.Loading {
			m.cursor = 0
			return m, m.page(v.Page - 1)
		}
	case key.Matches(msg, m.keys.Reset):
		m.cursor = 0
		return m, m.op("reset", m.results.Reset)
	case key.Matches(msg, m.keys.Query):
		return m.openPrompt(promptQuery, v.Query)
	case key.Matches(msg, m.keys.Filter):
		return m.openPrompt(promptFilter, "")
	}
	return m, nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.article.Snapshot()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.article.Unmount()
		m.screen = screenList
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Notify):
		if st.Provider == nil {
			return m, nil
		}
		if st.Provider.HasFull {
			m.status = "This article is already complete."
			return m, nil
		}
		return m, m.op("notify", m.article.ToggleNotify)

	case key.Matches(msg, m.keys.NextProvider), key.Matches(msg, m.keys.PrevProvider):
		if st.Article == nil || st.Provider == nil || len(st.Article.Providers) < 2 {
			return m, nil
		}
		step := 1
		if key.Matches(msg, m.keys.PrevProvider) {
			step = -1
		}
		ps := st.Article.Providers
		i := providerIndex(ps, st.Provider.ID)
		next := ps[(i+step+len(ps))%len(ps)].ID
		if err := m.article.SelectProvider(next); err != nil {
			m.status = err.Error()
		}
		return m, nil

	case key.Matches(msg, m.keys.Annotation):
		if st.Provider != nil && len(st.Provider.Annotations) > 1 {
			m.article.SelectAnnotation((st.Annotation + 1) % len(st.Provider.Annotations))
		}
		return m, nil
	}
	return m, nil
}

func providerIndex(ps []types.Provider, id string) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return 0
}

func (m Model) openPrompt(p prompt, value string) (tea.Model, tea.Cmd) {
	m.prompt = p
	m.input.SetValue(value)
	m.input.CursorEnd()
	if p == promptQuery {
		m.input.Prompt = "Search: "
		m.input.Placeholder = "title"
	} else {
		m.input.Prompt = "Filter: "
		m.input.Placeholder = "name=value"
	}
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompt = promptNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		p := m.prompt
		m.prompt = promptNone
		m.input.Blur()
		m.cursor = 0
		if p == promptQuery {
			m.results.SetQuery(value)
			return m, m.op("search", m.results.Search)
		}
		name, val, ok := strings.Cut(value, "=")
		if !ok {
			m.status = "filter: expected name=value"
			return m, nil
		}
		if err := m.results.SetFilter(strings.TrimSpace(name), val); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, m.op("filter", m.results.ApplyFilters)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) page(n int) tea.Cmd {
	return m.op("page", func(ctx context.Context) error { return m.results.GoToPage(ctx, n) })
}

func (m Model) openArticle(id string) Model {
	m.screen = screenDetail
	m.status = ""
	m.log.WithField("article", id).Debug("opening article")
	return m
}

func (m Model) mount(id string) tea.Cmd {
	if m.article == nil {
		return nil
	}
	return m.op("article", func(ctx context.Context) error { return m.article.Mount(ctx, id) })
}

func (m Model) newestToast() (toast.Toast, bool) {
	ts := m.toasts.Active()
	if len(ts) == 0 {
		return toast.Toast{}, false
	}
	return ts[len(ts)-1], true
}

func (m *Model) clampCursor() {
	n := len(m.results.Snapshot().Items)
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	toastStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	if m.screen == screenDetail {
		b.WriteString(m.renderDetail())
	} else {
		b.WriteString(m.renderList())
	}
	if m.prompt != promptNone {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}
	if t := m.renderToasts(); t != "" {
		b.WriteString("\n" + t + "\n")
	}
	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	state := "offline"
	if m.channel != nil {
		state = m.channel.State().String()
	}
	return titleStyle.Render("Article catalog") + dimStyle.Render("  notifications: "+state)
}

func (m Model) renderList() string {
	v := m.results.Snapshot()
	var b strings.Builder
	if v.Loading {
		b.WriteString(dimStyle.Render("Loading...") + "\n")
	}
	if v.Err != "" {
		b.WriteString(errorStyle.Render(v.Err) + "\n")
	}
	if len(v.Items) == 0 && !v.Loading {
		b.WriteString(render.NoResults + "\n")
	}
	titleWidth := max(20, m.width-40)
	for i, a := range v.Items {
		line := fmt.Sprintf("%s  %s  %s",
			render.Year(a.Year),
			render.Truncate(render.Or(a.Title), titleWidth),
			dimStyle.Render(render.Truncate(render.FirstAuthor(a.Authors), 30)))
		if chips := render.Chips(a); len(chips) > 0 {
			line += dimStyle.Render("  " + strings.Join(chips, " · "))
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	footer := render.PageLine(v.Page, v.TotalPages)
	if v.FiltersActive {
		footer += "  (filters active)"
	}
	b.WriteString("\n" + dimStyle.Render(footer) + "\n")
	return b.String()
}

func (m Model) renderDetail() string {
	var b strings.Builder
	render.Article(&b, m.article.Snapshot())
	return b.String()
}

func (m Model) renderToasts() string {
	ts := m.toasts.Active()
	if len(ts) == 0 {
		return ""
	}
	var b strings.Builder
	for i, t := range ts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.Title + dimStyle.Render("  "+t.SubjectID))
	}
	return toastStyle.Render(b.String())
}

func (m Model) renderHelp() string {
	bindings := m.keys.listHelp()
	if m.screen == screenDetail {
		bindings = m.keys.detailHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}
