package browse

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// contentPipeline turns raw page HTML into readable markdown: scripts,
// styles, and event handlers are stripped before conversion.
type contentPipeline struct {
	sanitizer *bluemonday.Policy
	converter *converter.Converter
}

func newContentPipeline() *contentPipeline {
	return &contentPipeline{
		sanitizer: bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Markdown renders the page HTML as markdown, scoped to the page's URL so
// relative links resolve. When conversion fails or produces nothing, the
// page's plain text is returned instead.
func (p *contentPipeline) Markdown(rawHTML, pageURL string) (string, error) {
	clean := p.sanitizer.Sanitize(rawHTML)
	md, err := p.converter.ConvertString(clean, converter.WithDomain(pageURL))
	if err == nil && strings.TrimSpace(md) != "" {
		return strings.TrimSpace(md), nil
	}

	text := plainText(rawHTML)
	if text == "" && err != nil {
		return "", fmt.Errorf("browse: convert content: %w", err)
	}
	return text, nil
}

// plainText collects the visible text nodes of an HTML document, skipping
// script and style subtrees.
func plainText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}
