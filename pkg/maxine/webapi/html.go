package webapi

import (
	"strings"

	"golang.org/x/net/html"
)

// findFirst returns the first node under n, in document order, that
// matches pred.
func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// findNested returns the first node matching inner that has an ancestor
// matching outer (the CSS descendant combinator).
func findNested(root *html.Node, outer, inner func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if outer(n) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if found = findFirst(c, inner); found != nil {
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func withClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, class)
	}
}

func withID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	}
}

func hasClass(n *html.Node, want string) bool {
	for _, part := range strings.Fields(attr(n, "class")) {
		if part == want {
			return true
		}
	}
	return false
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// textContent joins the text nodes under n with sep and collapses
// whitespace. Script and style contents are skipped.
func textContent(n *html.Node, sep string) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode && (x.Data == "script" || x.Data == "style" || x.Data == "noscript") {
			return
		}
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
			b.WriteString(sep)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
