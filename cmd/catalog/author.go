// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/download"
	"github.com/pdiddy/article-catalog/internal/logging"
	"github.com/pdiddy/article-catalog/internal/render"
)

var authorCmd = &cobra.Command{
	Use:   "author <id>",
	Short: "Show an author profile and publications",
	Long: `Author prints an author profile with headline counters, frequent
co-authors, and one page of publications, newest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthor,
}

func init() {
	authorCmd.Flags().String("query", "", "filter publications by text")
	authorCmd.Flags().String("year-from", "", "earliest publication year")
	authorCmd.Flags().String("year-to", "", "latest publication year")
	authorCmd.Flags().Bool("only-pdf", false, "only publications with a PDF")
	authorCmd.Flags().Int("page", 1, "publication page number")
	authorCmd.Flags().String("download", "", "save the PDFs of the shown publications into this directory")
	authorCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(authorCmd)
}

func runAuthor(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	page, _ := cmd.Flags().GetInt("page")
	onlyPDF, _ := cmd.Flags().GetBool("only-pdf")

	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	view := detail.NewAuthorView(a.client, logging.Component(a.log, "author"))
	view.SetFilter(detail.PublicationFilter{
		Query:    mustString(cmd, "query"),
		YearFrom: mustString(cmd, "year-from"),
		YearTo:   mustString(cmd, "year-to"),
		OnlyPDF:  onlyPDF,
	})
	if err := view.Load(ctx, args[0]); err != nil {
		return fmt.Errorf("author %s: %s", args[0], view.Snapshot().Err)
	}
	if page > 1 {
		if err := view.GoToPage(ctx, page); err != nil {
			return fmt.Errorf("author %s page %d: %s", args[0], page, view.Snapshot().Err)
		}
	}

	st := view.Snapshot()
	if format == render.Table {
		render.Author(os.Stdout, st)
	} else if err := render.Encode(os.Stdout, format, st); err != nil {
		return err
	}

	dir := mustString(cmd, "download")
	if dir == "" {
		return nil
	}
	items := make([]download.Item, 0, len(st.Publications))
	for _, p := range st.Publications {
		if p.PDFURL != "" {
			items = append(items, download.FromPublication(p))
		}
	}
	result := a.downloader(dir).Batch(ctx, items, os.Stderr)
	if result.HasFailures() {
		return fmt.Errorf("%d of %d downloads failed", result.Failed, result.Total())
	}
	return nil
}
