// Package dom models the page a content script runs against: a parsed HTML
// tree with capture/bubble event dispatch, default actions for links and
// form submissions, and a mutation-observer facility for dynamically
// inserted content.
//
// A Document belongs to a single page context and is driven cooperatively;
// it is not safe for concurrent use. Elements are thin wrappers over
// x/net/html nodes, so selector queries (goquery) and XPath queries
// (htmlquery) operate on the live tree without re-serialization.
package dom
