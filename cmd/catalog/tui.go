// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/logging"
	"github.com/pdiddy/article-catalog/internal/results"
	"github.com/pdiddy/article-catalog/internal/toast"
	"github.com/pdiddy/article-catalog/internal/tui"
)

// defaultTUILogFile keeps log lines off the alternate screen.
const defaultTUILogFile = "catalog.log"

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the catalog interactively",
	Long: `Tui opens the interactive browser: a paged result list with search and
filter prompts, the article detail screen with the notification toggle, and
a stack of update toasts. Logs go to catalog.log unless log.file is set.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(defaultTUILogFile)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	model := tui.New(tui.Config{
		Context: ctx,
		Results: results.New(a.client, logging.Component(a.log, "results")),
		Article: detail.NewArticleView(a.client, a.hub, logging.Component(a.log, "article")),
		Channel: a.hub,
		ToastOptions: []toast.Option{
			toast.WithDuration(a.cfg.Toast.Duration),
		},
		Log: logging.Component(a.log, "tui"),
	})

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
