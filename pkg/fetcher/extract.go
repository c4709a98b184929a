package fetcher

import (
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	minContainerLength = 200
	minLineLength      = 5
	minParagraphLength = 50
)

// contentSelectors are the containers rule text usually lives in on
// regulator sites. All of them are tried and the longest text wins.
var contentSelectors = []string{
	"div.field-name-body",
	"div.rule-book-content",
	"div#block-system-main",
	"article",
	"main",
}

// navigationMarkers flag breadcrumb and book navigation lines.
var navigationMarkers = []string{"Book traversal", "›"}

// Mode selects how the winning container is turned into text.
type Mode string

const (
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
)

// ParseMode maps a config string to a Mode, defaulting to ModeText.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeMarkdown)) {
		return ModeMarkdown
	}
	return ModeText
}

// ExtractText pulls the rule body out of an HTML page. It returns an empty
// string when nothing substantial is found.
func ExtractText(page string, mode Mode) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	var best string
	var bestSel *goquery.Selection
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		candidate := cleanLines(nodeText(sel.Nodes[0]))
		if utf8.RuneCountInString(candidate) > utf8.RuneCountInString(best) {
			best = candidate
			bestSel = sel
		}
	}

	if utf8.RuneCountInString(best) > minContainerLength {
		if mode == ModeMarkdown {
			return containerMarkdown(bestSel)
		}
		return best, nil
	}

	// Fallback: every reasonably long paragraph on the page.
	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if utf8.RuneCountInString(text) > minParagraphLength {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n"), nil
}

func containerMarkdown(sel *goquery.Selection) (string, error) {
	raw, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", err
	}
	md, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// nodeText joins every text node below n with newlines, skipping scripts
// and styles.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, "\n")
}

// cleanLines trims every line and drops short or navigation lines.
func cleanLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= minLineLength || isNavigation(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isNavigation(line string) bool {
	for _, m := range navigationMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}
