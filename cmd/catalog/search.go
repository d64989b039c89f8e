// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-catalog/internal/filters"
	"github.com/pdiddy/article-catalog/internal/logging"
	"github.com/pdiddy/article-catalog/internal/render"
	"github.com/pdiddy/article-catalog/internal/results"
	"github.com/pdiddy/article-catalog/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog for articles",
	Long: `Search runs one query against the catalog and prints a page of results.
Filters are given as name=value pairs (see "catalog filters --fields") or read
from a YAML file of the same names. Unset filters are left out of the request.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "title text to search for")
	searchCmd.Flags().StringArray("filter", nil, "filter as name=value (repeatable)")
	searchCmd.Flags().String("filters-file", "", "YAML file of filter values")
	searchCmd.Flags().String("save-filters", "", "write the effective filters to this YAML file")
	searchCmd.Flags().Int("page", 1, "page number")
	searchCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(searchCmd)
}

// searchOutput is the JSON/YAML shape of one result page.
type searchOutput struct {
	Page       int             `json:"page" yaml:"page"`
	TotalPages int             `json:"totalPages" yaml:"total_pages"`
	TotalCount int             `json:"totalCount" yaml:"total_count"`
	Filters    []filters.Entry `json:"filters,omitempty" yaml:"filters,omitempty"`
	Items      []types.Article `json:"items" yaml:"items"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	page, _ := cmd.Flags().GetInt("page")
	if page < 1 {
		return fmt.Errorf("page must be 1 or greater, got %d", page)
	}

	state, err := filterState(cmd)
	if err != nil {
		return err
	}
	if path := mustString(cmd, "save-filters"); path != "" {
		if err := filters.WriteFile(path, state); err != nil {
			return err
		}
	}

	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	ctrl := results.New(a.client, logging.Component(a.log, "results"))
	ctrl.SetFilters(state)
	ctrl.SetQuery(mustString(cmd, "query"))
	if err := ctrl.GoToPage(ctx, page); err != nil {
		return fmt.Errorf("search: %s", ctrl.Snapshot().Err)
	}

	v := ctrl.Snapshot()
	if format == render.Table {
		render.Results(os.Stdout, v)
		return nil
	}
	return render.Encode(os.Stdout, format, searchOutput{
		Page:       v.Page,
		TotalPages: v.TotalPages,
		TotalCount: v.TotalCount,
		Filters:    v.Filters,
		Items:      v.Items,
	})
}

// filterState builds the filter form from --filters-file and --filter.
func filterState(cmd *cobra.Command) (filters.State, error) {
	state := filters.Defaults()
	if path := mustString(cmd, "filters-file"); path != "" {
		loaded, err := filters.LoadFile(path)
		if err != nil {
			return filters.State{}, err
		}
		state = loaded
	}
	pairs, _ := cmd.Flags().GetStringArray("filter")
	for _, p := range pairs {
		if err := applyFilter(state, p); err != nil {
			return filters.State{}, err
		}
	}
	return state, nil
}

// applyFilter sets one name=value pair on s.
func applyFilter(s filters.State, pair string) error {
	name, value, ok := strings.Cut(pair, "=")
	if !ok {
		return fmt.Errorf("filter %q: expected name=value", pair)
	}
	return s.Set(strings.TrimSpace(name), value)
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
