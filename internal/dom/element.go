package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element wraps a node in the live tree. Exactly one Element exists per
// node per document, so elements can be used as map keys for membership.
type Element struct {
	doc  *Document
	node *html.Node
	id   int

	listeners map[string][]*listenerEntry
}

// ID returns the element's document-local numeric identity.
func (e *Element) ID() int {
	return e.id
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string {
	if e.node.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(e.node.Data)
}

// Attr returns an attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns an attribute value or a default.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr sets an attribute, replacing any existing value.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr = append(e.node.Attr[:i], e.node.Attr[i+1:]...)
			return
		}
	}
}

// Parent returns the parent element, or nil at the root.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil {
		return nil
	}
	return e.doc.wrap(p)
}

// Children returns the element's child elements.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// AppendChild attaches a detached element. Observers are notified only when
// the insertion lands in the live tree, not while assembling a fragment.
func (e *Element) AppendChild(child *Element) {
	e.node.AppendChild(child.node)
	if e.connected() {
		e.doc.notifyMutation([]*Element{child})
	}
}

func (e *Element) connected() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.rootNode {
			return true
		}
	}
	return false
}

// Text returns all descendant text, whitespace-collapsed. This is the
// element's visible label surface.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return strings.Join(strings.Fields(b.String()), " ")
}

// OwnText returns only the element's direct text children, not descendant
// text. The ancestor walk classifies on this so a page-wide wrapper never
// inherits a button's label.
func (e *Element) OwnText() string {
	var b strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteString(" ")
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Label returns the text the classifier should judge: aria-label wins,
// then an input's value, then visible text.
func (e *Element) Label() string {
	if v, ok := e.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if e.Tag() == "input" {
		if v, ok := e.Attr("value"); ok {
			return strings.TrimSpace(v)
		}
	}
	return e.Text()
}

// OwnLabel is Label restricted to the element's own text, for the
// document-level ancestor walk.
func (e *Element) OwnLabel() string {
	if v, ok := e.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if e.Tag() == "input" {
		if v, ok := e.Attr("value"); ok {
			return strings.TrimSpace(v)
		}
	}
	return e.OwnText()
}

// IsInteractive reports whether the element has an interactive role.
func (e *Element) IsInteractive() bool {
	switch e.Tag() {
	case "button", "a":
		return true
	case "input":
		t := strings.ToLower(e.AttrOr("type", "text"))
		return t == "button" || t == "submit"
	}
	return e.AttrOr("role", "") == "button"
}

// ClosestForm walks upward to the nearest enclosing form, or nil.
func (e *Element) ClosestForm() *Element {
	for cur := e; cur != nil; cur = cur.Parent() {
		if cur.Tag() == "form" {
			return cur
		}
	}
	return nil
}

// path returns ancestors from the root down to this element, inclusive.
func (e *Element) path() []*Element {
	var rev []*Element
	for cur := e; cur != nil; cur = cur.Parent() {
		rev = append(rev, cur)
	}
	out := make([]*Element, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}
