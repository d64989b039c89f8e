// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/download"
	"github.com/pdiddy/article-catalog/internal/logging"
	"github.com/pdiddy/article-catalog/internal/render"
)

var articleCmd = &cobra.Command{
	Use:   "article <id>",
	Short: "Show one article record",
	Long: `Article prints the bibliographic record of one article for its selected
provider. With --follow the command subscribes to update notifications for
that provider and prints the record again after every update, until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runArticle,
}

func init() {
	articleCmd.Flags().String("provider", "", "provider record to show (default: the first)")
	articleCmd.Flags().Int("annotation", 0, "annotation tab to show (0-based)")
	articleCmd.Flags().Bool("follow", false, "subscribe to updates and re-print on change")
	articleCmd.Flags().String("download", "", "save the selected provider's PDF into this directory")
	articleCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(articleCmd)
}

func runArticle(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	follow, _ := cmd.Flags().GetBool("follow")
	annotation, _ := cmd.Flags().GetInt("annotation")

	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	view := detail.NewArticleView(a.client, a.hub, logging.Component(a.log, "article"))
	defer view.Unmount()

	if err := view.Mount(ctx, args[0]); err != nil {
		return fmt.Errorf("article %s: %s", args[0], view.Snapshot().Err)
	}
	if p := mustString(cmd, "provider"); p != "" {
		if err := view.SelectProvider(p); err != nil {
			return fmt.Errorf("provider %s: %w", p, err)
		}
	}
	if annotation > 0 && !view.SelectAnnotation(annotation) {
		return fmt.Errorf("annotation %d does not exist", annotation)
	}

	if dir := mustString(cmd, "download"); dir != "" {
		st := view.Snapshot()
		if st.Article == nil || st.Provider == nil {
			return fmt.Errorf("article %s has no provider record to download", args[0])
		}
		item := download.FromProvider(*st.Article, *st.Provider)
		if _, _, err := a.downloader(dir).Fetch(ctx, item, os.Stderr); err != nil {
			return fmt.Errorf("download %s: %w", item.ID, err)
		}
	}

	var buf bytes.Buffer
	if err := printArticle(&buf, format, view.Snapshot()); err != nil {
		return err
	}
	last := buf.Bytes()
	if _, err := os.Stdout.Write(last); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	st := view.Snapshot()
	if st.Provider != nil && st.Provider.HasFull {
		fmt.Fprintln(os.Stderr, "This article is already complete; nothing to follow.")
		return nil
	}
	if err := view.ToggleNotify(ctx); err != nil {
		return fmt.Errorf("subscribing to updates: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Following updates, press Ctrl-C to stop.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-view.Changes():
			var next bytes.Buffer
			if err := printArticle(&next, format, view.Snapshot()); err != nil {
				return err
			}
			// Change signals also fire for state the output does not show.
			if bytes.Equal(next.Bytes(), last) {
				continue
			}
			last = next.Bytes()
			fmt.Fprintln(os.Stdout)
			if _, err := os.Stdout.Write(last); err != nil {
				return err
			}
		}
	}
}

func printArticle(w io.Writer, format render.Format, st detail.ArticleState) error {
	if format == render.Table {
		render.Article(w, st)
		return nil
	}
	return render.Encode(w, format, st.Article)
}
