// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/article-catalog/internal/detail"
	"github.com/pdiddy/article-catalog/internal/results"
	"github.com/pdiddy/article-catalog/pkg/types"
)

// AuthorLine joins author names, or returns NoAuthor.
func AuthorLine(authors []types.ArticleAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := strings.TrimSpace(a.FullName); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return NoAuthor
	}
	return strings.Join(names, ", ")
}

// FirstAuthor returns the first author name with a "+N" suffix for the rest.
func FirstAuthor(authors []types.ArticleAuthor) string {
	switch len(authors) {
	case 0:
		return NoAuthor
	case 1:
		return Or(authors[0].FullName)
	default:
		return fmt.Sprintf("%s +%d", Or(authors[0].FullName), len(authors)-1)
	}
}

// Chips returns the non-empty card chips of an article: source, type, language.
func Chips(a types.Article) []string {
	var out []string
	for _, s := range []string{a.Details.Source, a.Details.PublicationType, strings.ToUpper(a.Details.Language)} {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// PageLine is the "Page X of Y" footer.
func PageLine(page, total int) string {
	return fmt.Sprintf("Page %d of %d", page, total)
}

// Results writes a result list as a table.
func Results(w io.Writer, v results.View) {
	if v.Err != "" {
		fmt.Fprintf(w, "Error: %s\n", v.Err)
	}
	if len(v.Items) == 0 {
		fmt.Fprintln(w, NoResults)
		fmt.Fprintln(w, PageLine(v.Page, v.TotalPages))
		return
	}

	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		pad("#", 3), pad("Title", 50), pad("Author", 24), pad("Year", 4), "Details")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	offset := (v.Page - 1) * types.PageSize
	for i, a := range v.Items {
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			pad(fmt.Sprint(offset+i+1), 3),
			pad(Truncate(Or(a.Title), 50), 50),
			pad(Truncate(FirstAuthor(a.Authors), 24), 24),
			pad(Year(a.Year), 4),
			strings.Join(Chips(a), " · "))
	}
	fmt.Fprintf(w, "\n%d articles. %s\n", v.TotalCount, PageLine(v.Page, v.TotalPages))
	if v.FiltersActive {
		parts := make([]string, len(v.Filters))
		for i, e := range v.Filters {
			parts[i] = e.Name + "=" + e.Value
		}
		fmt.Fprintf(w, "Filters: %s\n", strings.Join(parts, "; "))
	}
}

// NotifyLabel is the notify toggle caption for the given state.
func NotifyLabel(st detail.ArticleState) string {
	switch {
	case st.Provider != nil && st.Provider.HasFull:
		return "This article is already complete"
	case st.NotifyBusy:
		return "Connecting notifications..."
	case st.Notify:
		return "Notifications on"
	default:
		return "Notify me when this article is complete"
	}
}

// Article writes the detail view of one article and its selected provider.
func Article(w io.Writer, st detail.ArticleState) {
	switch {
	case st.Loading:
		fmt.Fprintln(w, "Loading...")
		return
	case st.Err != "":
		fmt.Fprintf(w, "Error: %s\n", st.Err)
		return
	case st.Article == nil:
		return
	}

	a := st.Article
	var p types.Provider
	if st.Provider != nil {
		p = *st.Provider
	}

	fmt.Fprintln(w, a.Title)
	fmt.Fprintln(w, AuthorLine(a.Authors))
	fmt.Fprintf(w, "[%s]\n", NotifyLabel(st))
	if st.NotifyErr != "" {
		fmt.Fprintf(w, "Notification error: %s\n", st.NotifyErr)
	}

	if len(a.Providers) > 1 {
		ids := make([]string, len(a.Providers))
		for i, pr := range a.Providers {
			mark := " "
			if pr.ID == p.ID {
				mark = "*"
			}
			ids[i] = fmt.Sprintf("%s%s (%s)", mark, pr.ID, Or(pr.Source))
		}
		fmt.Fprintf(w, "Providers: %s\n", strings.Join(ids, "  "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Authors")
	if len(a.Authors) == 0 {
		fmt.Fprintf(w, "  %s\n", NoAuthor)
	}
	for _, au := range a.Authors {
		fmt.Fprintf(w, "  %s\n", Or(au.FullName))
		var aff []string
		if au.Department != "" {
			aff = append(aff, au.Department)
		}
		if au.Organization != "" {
			aff = append(aff, au.Organization)
		}
		if au.SpinCode != "" {
			aff = append(aff, "SPIN: "+au.SpinCode)
		}
		if len(aff) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(aff, " • "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Annotation")
	if len(p.Annotations) == 0 {
		fmt.Fprintf(w, "  %s\n", NoAnnotations)
	} else {
		labels := make([]string, len(p.Annotations))
		for i, an := range p.Annotations {
			l := an.Label(i)
			if i == st.Annotation {
				l = "[" + l + "]"
			}
			labels[i] = l
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(labels, " "))
		if st.Annotation < len(p.Annotations) {
			fmt.Fprintf(w, "  %s\n", p.Annotations[st.Annotation].Text)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keywords")
	if len(p.Keywords) == 0 {
		fmt.Fprintf(w, "  %s\n", NoKeywords)
	} else {
		fmt.Fprintf(w, "  %s\n", strings.Join(p.Keywords, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Bibliographic data")
	rows := [][2]string{
		{"Source", Or(p.Source)},
		{"Publication type", Or(p.PublicationType)},
		{"Year", Year(p.Year, a.Year)},
		{"Language", Or(strings.ToUpper(p.Language))},
		{"University", Or(p.UniversityName)},
		{"EDN", Or(p.EDN)},
		{"ASJC", Or(p.ASJCCodeName)},
		{"OECD", Or(p.OECDCodeName)},
		{"VAK", Or(p.VAKCodeName)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %s %s\n", pad(r[0]+":", 18), r[1])
	}

	var am types.Altmetric
	if p.Altmetric != nil {
		am = *p.Altmetric
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Metrics")
	fmt.Fprintf(w, "  Views %d · Downloads %d · In collections %d · Reviews %d · Score %g\n",
		am.Views, am.CountDownloaded, am.IncludedInCollections, am.TotalReviews, am.AllScore)
	fmt.Fprintf(w, "  Citations (RINC) %d · Citations (core RINC) %d\n", p.CitationsRinc, p.CitationsCoreRinc)
	var flags []string
	if p.IsRinc {
		flags = append(flags, "In RINC")
	}
	if p.IsCoreRinc {
		flags = append(flags, "RINC core")
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(flags, " · "))
	}

	fmt.Fprintln(w)
	if p.PDFURL != "" {
		fmt.Fprintf(w, "PDF: %s\n", p.PDFURL)
	} else {
		fmt.Fprintln(w, "PDF not available")
	}
	if p.SourceURL != "" {
		fmt.Fprintf(w, "Source: %s\n", p.SourceURL)
	}
}
