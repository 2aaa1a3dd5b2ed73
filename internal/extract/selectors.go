package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// nodeMatch describes one structural condition on an element: tag name,
// required classes, a required attribute, or a required attribute value
type nodeMatch struct {
	tag     string
	classes []string
	hasAttr string
	attrKey string
	attrVal string
}

// selector is a descendant selector: an optional ancestor condition plus the
// target condition
type selector struct {
	ancestor *nodeMatch
	target   nodeMatch
}

// The webmail host renders the open message through a handful of legacy and
// current structures; each list is tried in priority order until one yields
// content.
var (
	bodySelectors = []selector{
		{ancestor: &nodeMatch{hasAttr: "data-message-id"}, target: nodeMatch{classes: []string{"a3s", "aiL"}}},
		{target: nodeMatch{classes: []string{"a3s", "aiL"}}},
		{ancestor: &nodeMatch{attrKey: "role", attrVal: "listitem"}, target: nodeMatch{classes: []string{"ii", "gt"}}},
	}

	senderSelectors = []selector{
		{target: nodeMatch{hasAttr: "email"}},
		{target: nodeMatch{classes: []string{"gD"}}},
	}

	subjectSelectors = []selector{
		{target: nodeMatch{tag: "h2", classes: []string{"hP"}}},
		{ancestor: &nodeMatch{hasAttr: "data-thread-perm-id"}, target: nodeMatch{tag: "h2"}},
	}
)

func (m nodeMatch) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if m.tag != "" && n.Data != m.tag {
		return false
	}
	if m.hasAttr != "" && !hasAttribute(n, m.hasAttr) {
		return false
	}
	if m.attrKey != "" && attribute(n, m.attrKey) != m.attrVal {
		return false
	}
	if len(m.classes) > 0 {
		classes := strings.Fields(attribute(n, "class"))
		for _, want := range m.classes {
			if !contains(classes, want) {
				return false
			}
		}
	}
	return true
}

// findFirst returns the first node under root matching the selector, in
// document order
func findFirst(root *html.Node, sel selector) *html.Node {
	if sel.ancestor != nil {
		var found *html.Node
		walk(root, func(n *html.Node) bool {
			if sel.ancestor.matches(n) {
				if target := findFirst(n, selector{target: sel.target}); target != nil {
					found = target
					return false
				}
			}
			return true
		})
		return found
	}

	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if sel.target.matches(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first until fn returns false
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// innerText collects the visible text under a node, inserting line breaks at
// block boundaries so the extracted body reads like the rendered message
func innerText(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "br":
			b.WriteString("\n")
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}

	if n.Type == html.ElementNode && isBlockElement(n.Data) {
		b.WriteString("\n")
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "div", "p", "tr", "li", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func hasAttribute(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

func attribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
