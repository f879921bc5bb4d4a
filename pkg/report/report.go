package report

import (
	"fmt"
	"strings"

	"github.com/mwhitford/feedrank/pkg/category"
	"github.com/mwhitford/feedrank/pkg/types"
)

// Markdown renders a ranked report as markdown, one section per
// category in declared order. Suitable for terminal rendering.
func Markdown(categories []category.Category, results [][]types.ScoredArticle) string {
	var b strings.Builder

	b.WriteString("# Ranked articles\n")

	for i, cat := range categories {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, cat.Name)

		if i >= len(results) || len(results[i]) == 0 {
			b.WriteString("_No articles._\n")
			continue
		}

		for _, s := range results[i] {
			fmt.Fprintf(&b, "- [%s](%s) `%.2f`", s.Article.Title, s.Article.Link, s.Composite)
			if len(s.Keywords) > 0 {
				fmt.Fprintf(&b, " (keywords: %s)", strings.Join(s.Keywords, ", "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
