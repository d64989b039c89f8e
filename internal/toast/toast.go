// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toast keeps the short-lived "article updated" banners shown while
// the client runs. Each subject has at most one banner; banners expire on
// their own after a fixed duration unless dismissed or clicked first.
package toast

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTitle is used when a notification carries no title.
const DefaultTitle = "Article data was updated"

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 7 * time.Second

// Toast is one visible banner.
type Toast struct {
	SubjectID string
	Title     string
	CreatedAt time.Time
}

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Queue.
type Option func(*Queue)

// WithAfterFunc replaces the timer source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(q *Queue) { q.afterFunc = fn }
}

// WithNow replaces the wall clock used for CreatedAt.
func WithNow(fn func() time.Time) Option {
	return func(q *Queue) { q.now = fn }
}

// WithDuration sets the display duration.
func WithDuration(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.duration = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(q *Queue) { q.log = log }
}

type entry struct {
	toast Toast
	gen   uint64
	stop  func() bool
}

// Queue is the set of visible toasts. It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	entries  []*entry
	gen      uint64
	closed   bool
	navigate func(subjectID string)

	duration  time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	log       *logrus.Entry
	changes   chan struct{}
}

// New creates a queue. navigate is called by Click with the subject id and
// may be nil.
func New(navigate func(subjectID string), opts ...Option) *Queue {
	q := &Queue{
		navigate:  navigate,
		duration:  DefaultDuration,
		afterFunc: realAfterFunc,
		now:       time.Now,
		changes:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.log == nil {
		q.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return q
}

// Push shows a toast for subjectID. If one is already visible for the same
// subject its title is replaced and its timer restarts.
func (q *Queue) Push(subjectID, title string) {
	if title == "" {
		title = DefaultTitle
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.gen++
	gen := q.gen
	stop := q.afterFunc(q.duration, func() { q.expire(subjectID, gen) })

	if e := q.find(subjectID); e != nil {
		e.stop()
		e.toast.Title = title
		e.gen = gen
		e.stop = stop
		q.log.WithField("subject", subjectID).Debug("toast refreshed")
	} else {
		q.entries = append(q.entries, &entry{
			toast: Toast{SubjectID: subjectID, Title: title, CreatedAt: q.now()},
			gen:   gen,
			stop:  stop,
		})
		q.log.WithField("subject", subjectID).Debug("toast shown")
	}
	q.mu.Unlock()
	q.notify()
}

// Dismiss removes the toast for subjectID and cancels its timer. It reports
// whether a toast was removed.
func (q *Queue) Dismiss(subjectID string) bool {
	q.mu.Lock()
	removed := q.remove(subjectID, 0)
	q.mu.Unlock()
	if removed {
		q.notify()
	}
	return removed
}

// Click navigates to the subject and dismisses its toast.
func (q *Queue) Click(subjectID string) {
	if q.navigate != nil {
		q.navigate(subjectID)
	}
	q.Dismiss(subjectID)
}

// Active returns the visible toasts in creation order.
func (q *Queue) Active() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.toast
	}
	return out
}

// Changes delivers a value after the visible set changes. Notifications
// coalesce; readers should call Active to see the current set.
func (q *Queue) Changes() <-chan struct{} {
	return q.changes
}

// Close cancels every pending timer and drops all toasts. Later pushes are
// ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	for _, e := range q.entries {
		e.stop()
	}
	q.entries = nil
	q.mu.Unlock()
}

func (q *Queue) expire(subjectID string, gen uint64) {
	q.mu.Lock()
	removed := q.remove(subjectID, gen)
	q.mu.Unlock()
	if removed {
		q.log.WithField("subject", subjectID).Debug("toast expired")
		q.notify()
	}
}

// remove drops the toast for subjectID. A non-zero gen only matches the
// timer generation that scheduled it, so stale timers do nothing.
func (q *Queue) remove(subjectID string, gen uint64) bool {
	for i, e := range q.entries {
		if e.toast.SubjectID != subjectID {
			continue
		}
		if gen != 0 && e.gen != gen {
			return false
		}
		if gen == 0 {
			e.stop()
		}
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		return true
	}
	return false
}

func (q *Queue) find(subjectID string) *entry {
	for _, e := range q.entries {
		if e.toast.SubjectID == subjectID {
			return e
		}
	}
	return nil
}

func (q *Queue) notify() {
	select {
	case q.changes <- struct{}{}:
	default:
	}
}
