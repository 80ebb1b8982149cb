package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// InspectSelector reports what a selector matches in the page: a count
// line, then one numbered block per match holding either the outer HTML or
// the trimmed text. It backs the command's "-selector" mode, used when the
// page's class vocabulary has drifted and rules stop matching.
func InspectSelector(w io.Writer, html, selector string, textOnly bool) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	matches := doc.Find(selector)
	fmt.Fprintf(w, "selector %q matched %d element(s)\n", selector, matches.Length())

	matches.Each(func(i int, s *goquery.Selection) {
		fmt.Fprintf(w, "--- %d ---\n", i+1)
		if textOnly {
			fmt.Fprintln(w, strings.TrimSpace(s.Text()))
			return
		}
		out, err := goquery.OuterHtml(s)
		if err != nil {
			// OuterHtml can fail on detached nodes; inner HTML is the best
			// remaining picture of the match.
			out, _ = s.Html()
		}
		fmt.Fprintln(w, out)
	})
	return nil
}
