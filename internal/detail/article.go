// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detail drives the single-record screens: the article detail view,
// which reloads itself when the notification hub reports a change to the
// provider record on screen, and the author profile view.
//
// Both views tag every fetch with a sequence number and drop responses that
// arrive after a newer fetch or after the view was unmounted.
package detail

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/article-catalog/internal/catalog"
	"github.com/pdiddy/article-catalog/internal/hub"
	"github.com/pdiddy/article-catalog/pkg/types"
)

var (
	// ErrSuperseded is returned by a fetch whose response was discarded
	// because a newer fetch was issued or the view was unmounted.
	ErrSuperseded = errors.New("detail: superseded by a newer request")
	// ErrNotMounted is returned when loading a view that is not mounted.
	ErrNotMounted = errors.New("detail: view not mounted")
	// ErrNoProvider is returned by ToggleNotify when no provider is selected.
	ErrNoProvider = errors.New("detail: no provider selected")
	// ErrNotifyInFlight is returned by ToggleNotify while a toggle is pending.
	ErrNotifyInFlight = errors.New("detail: notification toggle already in progress")
	// ErrUnknownProvider is returned by SelectProvider for an id not on the record.
	ErrUnknownProvider = errors.New("detail: unknown provider")
)

const articleLoadFailed = "Failed to load the article"

// ArticleFetcher loads one article record.
type ArticleFetcher interface {
	Article(ctx context.Context, id string) (types.Article, error)
}

// Channel is the part of the notification hub the article view uses.
type Channel interface {
	State() hub.State
	Start(ctx context.Context) error
	OnArticleUpdated(fn func(hub.ArticleUpdated)) hub.HandlerID
	Off(event string, id hub.HandlerID)
	Subscribe(ctx context.Context, providerID string) error
	Unsubscribe(ctx context.Context, providerID string) error
}

// ArticleState is a snapshot of the article view.
type ArticleState struct {
	ID         string
	Article    *types.Article
	Provider   *types.Provider
	Annotation int
	Loading    bool
	Err        string
	Notify     bool
	NotifyBusy bool
	NotifyErr  string
	Mounted    bool
}

// ArticleView is the article detail screen. It is safe for concurrent use.
type ArticleView struct {
	fetch ArticleFetcher
	ch    Channel
	log   *logrus.Entry
	chg   changes

	mu         sync.Mutex
	id         string
	article    *types.Article
	providerID string
	annotation int
	loading    bool
	errMsg     string
	subscribed map[string]bool
	notifyBusy bool
	notifyErr  string
	mounted    bool
	seq        uint64
	handler    hub.HandlerID
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewArticleView creates an unmounted view. ch may be nil, in which case
// live updates and the notify toggle are unavailable.
func NewArticleView(fetch ArticleFetcher, ch Channel, log *logrus.Entry) *ArticleView {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ArticleView{
		fetch:      fetch,
		ch:         ch,
		log:        log,
		chg:        newChanges(),
		subscribed: make(map[string]bool),
	}
}

// Mount shows the article id: it registers for update events and loads the
// record. Mounting a mounted view unmounts it first.
func (v *ArticleView) Mount(ctx context.Context, id string) error {
	v.Unmount()

	mctx, cancel := context.WithCancel(ctx)
	v.mu.Lock()
	v.id = id
	v.article = nil
	v.providerID = ""
	v.annotation = 0
	v.errMsg = ""
	v.mounted = true
	v.ctx = mctx
	v.cancel = cancel
	v.mu.Unlock()

	if v.ch != nil {
		h := v.ch.OnArticleUpdated(v.onUpdate)
		v.mu.Lock()
		v.handler = h
		v.mu.Unlock()
	}
	return v.Load(ctx)
}

// Unmount deregisters the update handler and discards any response still in
// flight. It is safe to call on an unmounted view.
func (v *ArticleView) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.seq++
	v.loading = false
	h := v.handler
	v.handler = 0
	cancel := v.cancel
	v.mu.Unlock()

	cancel()
	if v.ch != nil && h != 0 {
		v.ch.Off(hub.EventArticleUpdated, h)
	}
	v.chg.notify()
}

// Load fetches the mounted article.
func (v *ArticleView) Load(ctx context.Context) error {
	return v.load(ctx, false)
}

// load fetches the record. A quiet load keeps the current record on screen
// and does not touch the loading flag or error, unless it replaces a visible
// load still in flight.
func (v *ArticleView) load(ctx context.Context, quiet bool) error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrNotMounted
	}
	v.seq++
	seq := v.seq
	id := v.id
	// A quiet load that supersedes a visible one owns its loading state.
	if v.loading {
		quiet = false
	}
	if !quiet {
		v.loading = true
		v.errMsg = ""
	}
	v.mu.Unlock()
	v.chg.notify()

	log := v.log.WithFields(logrus.Fields{"article": id, "seq": seq})
	a, err := v.fetch.Article(ctx, id)

	v.mu.Lock()
	if !v.mounted || seq != v.seq {
		v.mu.Unlock()
		log.Debug("discarding stale article response")
		return ErrSuperseded
	}
	if err != nil {
		if !quiet {
			v.loading = false
			v.errMsg = catalog.Describe(err, articleLoadFailed)
		}
		v.mu.Unlock()
		log.WithError(err).Warn("article load failed")
		v.chg.notify()
		return err
	}

	v.article = &a
	v.loading = false
	if _, ok := a.Provider(v.providerID); !ok {
		v.providerID = ""
		if len(a.Providers) > 0 {
			v.providerID = a.Providers[0].ID
		}
		v.annotation = 0
	}
	v.mu.Unlock()
	log.Debug("article loaded")
	v.chg.notify()
	return nil
}

// onUpdate runs on the hub's read goroutine, so the reload runs elsewhere.
func (v *ArticleView) onUpdate(ev hub.ArticleUpdated) {
	v.mu.Lock()
	match := v.mounted && v.providerID != "" && ev.ArticleProviderID == v.providerID
	ctx := v.ctx
	v.mu.Unlock()
	if !match {
		return
	}
	v.log.WithField("provider", ev.ArticleProviderID).Info("article updated, reloading")
	go func() { _ = v.load(ctx, true) }()
}

// SelectProvider switches the provider record shown.
func (v *ArticleView) SelectProvider(id string) error {
	v.mu.Lock()
	if v.article == nil {
		v.mu.Unlock()
		return ErrUnknownProvider
	}
	if _, ok := v.article.Provider(id); !ok {
		v.mu.Unlock()
		return ErrUnknownProvider
	}
	if id != v.providerID {
		v.providerID = id
		v.annotation = 0
		v.notifyErr = ""
	}
	v.mu.Unlock()
	v.chg.notify()
	return nil
}

// SelectAnnotation switches the annotation tab of the selected provider.
func (v *ArticleView) SelectAnnotation(i int) bool {
	v.mu.Lock()
	p, ok := v.selectedLocked()
	if !ok || i < 0 || i >= len(p.Annotations) {
		v.mu.Unlock()
		return false
	}
	v.annotation = i
	v.mu.Unlock()
	v.chg.notify()
	return true
}

// ToggleNotify subscribes to or unsubscribes from updates of the selected
// provider, starting the hub connection first when needed. The local flag
// flips only after the server acknowledges. A second call while one is
// pending returns ErrNotifyInFlight without contacting the server.
func (v *ArticleView) ToggleNotify(ctx context.Context) error {
	if v.ch == nil {
		return hub.ErrNotConnected
	}

	v.mu.Lock()
	if v.notifyBusy {
		v.mu.Unlock()
		return ErrNotifyInFlight
	}
	pid := v.providerID
	if pid == "" {
		v.mu.Unlock()
		return ErrNoProvider
	}
	want := !v.subscribed[pid]
	v.notifyBusy = true
	v.notifyErr = ""
	v.mu.Unlock()
	v.chg.notify()

	err := v.toggle(ctx, pid, want)

	v.mu.Lock()
	v.notifyBusy = false
	if err != nil {
		v.notifyErr = err.Error()
	} else {
		v.subscribed[pid] = want
	}
	v.mu.Unlock()
	v.chg.notify()

	log := v.log.WithFields(logrus.Fields{"provider": pid, "subscribe": want})
	if err != nil {
		log.WithError(err).Warn("notification toggle failed")
		return err
	}
	log.Info("notification toggled")
	return nil
}

func (v *ArticleView) toggle(ctx context.Context, pid string, subscribe bool) error {
	if v.ch.State() != hub.Connected {
		if err := v.ch.Start(ctx); err != nil {
			return err
		}
	}
	if subscribe {
		return v.ch.Subscribe(ctx, pid)
	}
	return v.ch.Unsubscribe(ctx, pid)
}

// Snapshot returns the current view state.
func (v *ArticleView) Snapshot() ArticleState {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := ArticleState{
		ID:         v.id,
		Annotation: v.annotation,
		Loading:    v.loading,
		Err:        v.errMsg,
		Notify:     v.subscribed[v.providerID],
		NotifyBusy: v.notifyBusy,
		NotifyErr:  v.notifyErr,
		Mounted:    v.mounted,
	}
	if v.article != nil {
		a := *v.article
		st.Article = &a
		if p, ok := v.selectedLocked(); ok {
			st.Provider = &p
		}
	}
	return st
}

// Changes delivers a value after the view state changes. Notifications
// coalesce.
func (v *ArticleView) Changes() <-chan struct{} {
	return v.chg.c
}

func (v *ArticleView) selectedLocked() (types.Provider, bool) {
	if v.article == nil || v.providerID == "" {
		return types.Provider{}, false
	}
	return v.article.Provider(v.providerID)
}

// changes is a coalescing change signal.
type changes struct {
	c chan struct{}
}

func newChanges() changes {
	return changes{c: make(chan struct{}, 1)}
}

func (c changes) notify() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}
