// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/article-catalog/internal/filters"
	"github.com/pdiddy/article-catalog/internal/render"
	"github.com/pdiddy/article-catalog/pkg/types"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the values the search filters accept",
	Long: `Filters prints the publication types and filter options the catalog
offers. With --fields it lists the filter names and kinds that search
--filter accepts instead.`,
	RunE: runFilters,
}

func init() {
	filtersCmd.Flags().Bool("fields", false, "list filter names and kinds")
	filtersCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(filtersCmd)
}

type filterOptionsOutput struct {
	PublicationTypes []types.PublicationType `json:"publicationTypes" yaml:"publication_types"`
	Options          types.FilterOptions     `json:"options" yaml:"options"`
}

func runFilters(cmd *cobra.Command, args []string) error {
	if fields, _ := cmd.Flags().GetBool("fields"); fields {
		for _, name := range filters.Names() {
			kind, _ := filters.KindOf(name)
			fmt.Printf("%-36s %s\n", name, kind)
		}
		return nil
	}

	format, err := render.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}

	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var out filterOptionsOutput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.PublicationTypes, err = a.client.PublicationTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Options, err = a.client.FilterOptions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("filters: %w", err)
	}

	if format == render.Table {
		render.FilterOptions(os.Stdout, out.Options, out.PublicationTypes)
		return nil
	}
	return render.Encode(os.Stdout, format, out)
}
