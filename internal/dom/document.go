package dom

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits page input to 10MB to prevent memory exhaustion.
const MaxHTMLSize = 10 * 1024 * 1024

// Document is a live page: the parsed tree plus the side channels a real
// page would have (navigation, form submission, mutation delivery).
type Document struct {
	rootNode *html.Node
	url      *url.URL

	byNode map[*html.Node]*Element
	nextID int

	observers  []*Observer
	nextObsID  int
	navigated  []string
	submitted  []*Element
	OnNavigate func(target string)
	OnSubmit   func(form *Element)
}

// Parse builds a Document from raw HTML with charset detection.
func Parse(rawHTML, pageURL string) (*Document, error) {
	if len(rawHTML) == 0 {
		return nil, fmt.Errorf("html content required")
	}
	if len(rawHTML) > MaxHTMLSize {
		return nil, fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}

	root, err := parseWithCharset(rawHTML)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	return &Document{
		rootNode: root,
		url:      u,
		byNode:   make(map[*html.Node]*Element),
	}, nil
}

func parseWithCharset(rawHTML string) (*html.Node, error) {
	data := []byte(rawHTML)

	detector := chardet.NewTextDetector()
	detected := "utf-8"
	if result, err := detector.DetectBest(data); err == nil && result != nil {
		detected = strings.ToLower(result.Charset)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detected)
	if err != nil {
		return html.Parse(strings.NewReader(rawHTML))
	}
	return html.Parse(utf8Reader)
}

// URL returns the document's current URL.
func (d *Document) URL() *url.URL {
	return d.url
}

// Hostname returns the document's hostname.
func (d *Document) Hostname() string {
	return d.url.Hostname()
}

// SetURL simulates a single-page-app history mutation. No load event fires;
// watchers discover the change by polling.
func (d *Document) SetURL(pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("invalid page url: %w", err)
	}
	d.url = u
	return nil
}

// Title returns the page title, or "" when absent.
func (d *Document) Title() string {
	sel := d.selection().Find("title").First()
	return strings.TrimSpace(sel.Text())
}

// Root returns the document root element.
func (d *Document) Root() *Element {
	return d.wrap(d.rootNode)
}

// RootNode exposes the underlying parse tree for selector engines.
func (d *Document) RootNode() *html.Node {
	return d.rootNode
}

// Query returns elements matching a CSS selector, in document order.
func (d *Document) Query(selector string) []*Element {
	var out []*Element
	d.selection().Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			out = append(out, d.wrap(n))
		}
	})
	return out
}

// QueryFirst returns the first element matching a CSS selector, or nil.
func (d *Document) QueryFirst(selector string) *Element {
	els := d.Query(selector)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// Interactive returns every element of an interactive role: buttons, links,
// ARIA buttons, and button/submit inputs.
func (d *Document) Interactive() []*Element {
	return d.Query(`button, a, [role="button"], input[type="button"], input[type="submit"]`)
}

// CreateElement builds a detached element owned by this document.
func (d *Document) CreateElement(tag string, attrs map[string]string, text string) *Element {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: 0,
	}
	for k, v := range attrs {
		node.Attr = append(node.Attr, html.Attribute{Key: k, Val: v})
	}
	if text != "" {
		node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return d.wrap(node)
}

// Navigations returns every navigation the document performed.
func (d *Document) Navigations() []string {
	return append([]string(nil), d.navigated...)
}

// Submissions returns every form the document submitted.
func (d *Document) Submissions() []*Element {
	return append([]*Element(nil), d.submitted...)
}

func (d *Document) navigate(target string) {
	resolved := target
	if ref, err := url.Parse(target); err == nil {
		resolved = d.url.ResolveReference(ref).String()
	}
	d.navigated = append(d.navigated, resolved)
	if d.OnNavigate != nil {
		d.OnNavigate(resolved)
	}
}

func (d *Document) submit(form *Element) {
	d.submitted = append(d.submitted, form)
	if d.OnSubmit != nil {
		d.OnSubmit(form)
	}
}

// selection returns a goquery document over the live tree.
func (d *Document) selection() *goquery.Document {
	return goquery.NewDocumentFromNode(d.rootNode)
}

// wrap returns the unique Element for a node, creating it on first sight.
// Wrapper identity is what the interception membership set keys on.
func (d *Document) wrap(node *html.Node) *Element {
	if el, ok := d.byNode[node]; ok {
		return el
	}
	d.nextID++
	el := &Element{doc: d, node: node, id: d.nextID}
	d.byNode[node] = el
	return el
}
