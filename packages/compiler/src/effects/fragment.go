package effects

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var templateContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "template",
	DataAtom: atom.Template,
}

// NormalizeFragment re-renders nested template markup with comments removed.
// Markup the HTML parser rejects is returned unchanged.
func NormalizeFragment(markup string) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), templateContext)
	if err != nil {
		return markup, err
	}
	var sb strings.Builder
	for _, n := range nodes {
		stripComments(n)
		if n.Type == html.CommentNode {
			continue
		}
		if err := html.Render(&sb, n); err != nil {
			return markup, err
		}
	}
	return sb.String(), nil
}

func stripComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			stripComments(c)
		}
		c = next
	}
}
