// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-catalog/internal/hub"
	"github.com/pdiddy/article-catalog/internal/logging"
	"github.com/pdiddy/article-catalog/internal/render"
	"github.com/pdiddy/article-catalog/internal/toast"
)

var watchCmd = &cobra.Command{
	Use:   "watch [provider-ids...]",
	Short: "Print article update notifications as they arrive",
	Long: `Watch connects to the notification hub, subscribes to the given provider
records, and prints a line for every update notification. Each notification
stays on the toast stack for the configured duration; repeated updates of the
same record refresh it. The hub reconnects on its own after a dropped
connection and restores the subscriptions.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	queue := toast.New(nil,
		toast.WithDuration(a.cfg.Toast.Duration),
		toast.WithLogger(logging.Component(a.log, "toast")))
	defer queue.Close()
	a.hub.OnArticleUpdated(func(ev hub.ArticleUpdated) {
		queue.Push(ev.ArticleProviderID, ev.Title)
	})

	for _, id := range args {
		if err := a.hub.Follow(ctx, id); err != nil {
			return fmt.Errorf("follow %s: %w", id, err)
		}
	}
	if err := a.hub.Start(ctx); err != nil {
		a.log.WithError(err).Warn("hub unavailable, retrying in background")
	}
	fmt.Fprintln(os.Stderr, "Watching for article updates, press Ctrl-C to stop.")

	shown := make(map[string]toast.Toast)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-queue.Changes():
			shown = printToastChanges(os.Stdout, shown, queue.Active(), time.Now())
		}
	}
}

// printToastChanges prints toasts that are new or retitled since prev and
// notes the ones that expired. It returns the new visible set.
func printToastChanges(w io.Writer, prev map[string]toast.Toast, active []toast.Toast, now time.Time) map[string]toast.Toast {
	next := make(map[string]toast.Toast, len(active))
	for _, t := range active {
		next[t.SubjectID] = t
		if old, ok := prev[t.SubjectID]; !ok || old.Title != t.Title {
			render.Toast(w, t, now)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			fmt.Fprintf(w, "  expired [%s]\n", id)
		}
	}
	return next
}
