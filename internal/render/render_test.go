// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/filters"
	"github.com/pdiddy/article-catalog/internal/results"
	"github.com/pdiddy/article-catalog/internal/toast"
	"github.com/pdiddy/article-catalog/pkg/types"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": Table, "table": Table, "JSON": JSON, " yaml ": YAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	v := types.PublicationType{ID: "1", Name: "Article"}

	var js bytes.Buffer
	require.NoError(t, Encode(&js, JSON, v))
	var back types.PublicationType
	require.NoError(t, json.Unmarshal(js.Bytes(), &back))
	assert.Equal(t, v, back)

	var ym bytes.Buffer
	require.NoError(t, Encode(&ym, YAML, v))
	var m map[string]string
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &m))
	assert.Equal(t, "Article", m["name"])

	assert.Error(t, Encode(&js, Table, v))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, Dash, Or("  "))
	assert.Equal(t, "x", Or("x"))
	assert.Equal(t, Dash, Year(0, 0))
	assert.Equal(t, "2021", Year(0, 2021, 2019))
	assert.Equal(t, NoAuthor, AuthorLine(nil))
	assert.Equal(t, NoAuthor, AuthorLine([]types.ArticleAuthor{{FullName: " "}}))
	assert.Equal(t, "A, B", AuthorLine([]types.ArticleAuthor{{FullName: "A"}, {FullName: "B"}}))
	assert.Equal(t, "A +2", FirstAuthor([]types.ArticleAuthor{{FullName: "A"}, {FullName: "B"}, {FullName: "C"}}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Иссле...", Truncate("Исследование", 8))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestChips(t *testing.T) {
	a := types.Article{Details: types.ArticleDetails{Source: "Journal", Language: "ru"}}
	assert.Equal(t, []string{"Journal", "RU"}, Chips(a))
}

func TestResults_Table(t *testing.T) {
	v := results.View{
		Items: []types.Article{
			{Title: "First", Year: 2020, Authors: []types.ArticleAuthor{{FullName: "Ivanov"}}},
			{Title: "Second"},
		},
		TotalCount:    22,
		Page:          2,
		TotalPages:    2,
		Filters:       []filters.Entry{{Name: filters.Year, Value: "2020"}},
		FiltersActive: true,
	}
	var buf bytes.Buffer
	Results(&buf, v)
	out := buf.String()

	assert.Contains(t, out, "21 ")
	assert.Contains(t, out, "First")
	assert.Contains(t, out, NoAuthor)
	assert.Contains(t, out, "Page 2 of 2")
	assert.Contains(t, out, "Filters: year=2020")
}

func TestResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	Results(&buf, results.View{Page: 1, TotalPages: 1, Err: "Not found"})
	assert.Contains(t, buf.String(), "Error: Not found")
	assert.Contains(t, buf.String(), NoResults)
	assert.Contains(t, buf.String(), "Page 1 of 1")
}

func TestArticle_Placeholders(t *testing.T) {
	a := types.Article{Title: "T", Year: 2019, Providers: []types.Provider{{ID: "p1"}}}
	st := detail.ArticleState{Article: &a, Provider: &a.Providers[0]}

	var buf bytes.Buffer
	Article(&buf, st)
	out := buf.String()

	assert.Contains(t, out, NoAuthor)
	assert.Contains(t, out, NoKeywords)
	assert.Contains(t, out, NoAnnotations)
	assert.Contains(t, out, "2019")
	assert.Contains(t, out, "Views 0 · Downloads 0")
	assert.Contains(t, out, "PDF not available")
	assert.Regexp(t, `Source:\s+`+Dash, out)
}

func TestArticle_Provider(t *testing.T) {
	p := types.Provider{
		ID:       "p2",
		Year:     2021,
		Keywords: types.Keywords{"graphs", "trees"},
		Annotations: []types.Annotation{
			{LanguageCode: "ru", Text: "Аннотация"},
			{LanguageCode: "en", Text: "Abstract"},
		},
		Altmetric: &types.Altmetric{Views: 5, AllScore: 1.5},
		PDFURL:    "https://x/p.pdf",
		IsRinc:    true,
		HasFull:   true,
	}
	a := types.Article{Title: "T", Year: 2019, Providers: []types.Provider{{ID: "p1"}, p}}
	st := detail.ArticleState{Article: &a, Provider: &p, Annotation: 1}

	var buf bytes.Buffer
	Article(&buf, st)
	out := buf.String()

	assert.Contains(t, out, "*p2")
	assert.Contains(t, out, "RU [EN]")
	assert.Contains(t, out, "Abstract")
	assert.NotContains(t, out, "Аннотация")
	assert.Contains(t, out, "graphs, trees")
	assert.Contains(t, out, "2021")
	assert.Contains(t, out, "Views 5")
	assert.Contains(t, out, "In RINC")
	assert.Contains(t, out, "PDF: https://x/p.pdf")
	assert.Contains(t, out, "already complete")
}

func TestArticle_LoadingAndError(t *testing.T) {
	var buf bytes.Buffer
	Article(&buf, detail.ArticleState{Loading: true})
	assert.Equal(t, "Loading...\n", buf.String())

	buf.Reset()
	Article(&buf, detail.ArticleState{Err: "Not found"})
	assert.Equal(t, "Error: Not found\n", buf.String())
}

func TestNotifyLabel(t *testing.T) {
	assert.Contains(t, NotifyLabel(detail.ArticleState{}), "Notify me")
	assert.Equal(t, "Notifications on", NotifyLabel(detail.ArticleState{Notify: true}))
	assert.Contains(t, NotifyLabel(detail.ArticleState{Notify: true, NotifyBusy: true}), "Connecting")
}

func TestAuthor(t *testing.T) {
	n := 3
	st := detail.AuthorState{
		Author: &types.Author{FullName: "Petrov Petr", Organization: "MSU", Verified: true,
			Stats: &types.AuthorStats{Publications: &n}},
		Stats:        detail.Stats{Publications: 3, Citations: 7},
		TopCoauthors: []string{"Sidorov Sidor", "A.B."},
		Publications: []types.Publication{{Year: 2022, Title: "Paper", SourceName: "J", CitationsRinc: 2, PDFURL: "u"}},
		Page:         1,
		TotalPages:   1,
	}
	var buf bytes.Buffer
	Author(&buf, st)
	out := buf.String()

	assert.Contains(t, out, "[PP] Petrov Petr (verified)")
	assert.Contains(t, out, "Publications 3 · Citations 7")
	assert.Contains(t, out, "  Sidorov Sidor\n")
	assert.Contains(t, out, "  A.B. (?)\n")
	assert.Contains(t, out, "J · cited 2 · PDF")
	assert.Contains(t, out, "Page 1 of 1")
}

func TestFilterOptions(t *testing.T) {
	var buf bytes.Buffer
	FilterOptions(&buf, types.FilterOptions{Years: []int{2020, 2021}, Languages: []string{"ru"}},
		[]types.PublicationType{{ID: "1", Name: "Article"}})
	out := buf.String()
	assert.Contains(t, out, "2020, 2021")
	assert.Contains(t, out, "Article")
	assert.True(t, strings.Contains(out, "VAK:"))
	assert.Contains(t, out, Dash)
}

func TestToast(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	var buf bytes.Buffer
	Toast(&buf, toast.Toast{SubjectID: "p1", Title: "Updated", CreatedAt: now.Add(-3 * time.Second)}, now)
	assert.Equal(t, "* Updated [p1] 3s ago\n", buf.String())
}
