// Package classify provides the pure heuristics of the pipeline: checkout
// intent from an element's visible label, and website categorization from a
// hostname. Both are deterministic and side-effect free.
package classify

import (
	"strings"
	"unicode"
)

// maxLabelLength bounds the normalized text a candidate may carry. Large
// text blocks are paragraphs, not buttons.
const maxLabelLength = 100

// checkoutKeywords is the curated list of labels that signal a purchase is
// being finalized or assembled. Single-word entries match only by exact
// equality; multi-word entries also match as contiguous word sequences.
var checkoutKeywords = []string{
	"checkout",
	"check out",
	"buy now",
	"buy it now",
	"buy",
	"purchase",
	"purchase now",
	"place order",
	"place your order",
	"pay now",
	"pay",
	"complete order",
	"complete purchase",
	"complete checkout",
	"confirm order",
	"confirm purchase",
	"submit order",
	"order now",
	"proceed to checkout",
	"proceed to payment",
	"continue to checkout",
	"continue to payment",
	"add to cart",
	"add to bag",
	"add to basket",
}

// Checkout reports whether a candidate element's visible text signals
// checkout/purchase intent.
func Checkout(text string) bool {
	norm := normalize(text)
	if norm == "" || len(norm) > maxLabelLength {
		return false
	}
	cleaned := stripPunctuation(norm)

	// Pass one: exact equality after normalization. This is the only way a
	// single-word keyword may match, so "Checkout our new blog post" stays
	// unclassified.
	for _, kw := range checkoutKeywords {
		if norm == kw || cleaned == kw {
			return true
		}
	}

	// Pass two: word-boundary phrase search for multi-word keywords, run
	// against both forms since punctuation removal can destroy a boundary.
	for _, kw := range checkoutKeywords {
		if !strings.Contains(kw, " ") {
			continue
		}
		if containsPhrase(norm, kw) || containsPhrase(cleaned, kw) {
			return true
		}
	}

	return false
}

// normalize lowercases, trims, and collapses whitespace.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// stripPunctuation removes everything but letters, digits, and spaces, then
// re-collapses whitespace.
func stripPunctuation(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsPhrase reports whether phrase occurs in text as a contiguous
// sequence of whole words.
func containsPhrase(text, phrase string) bool {
	words := strings.Fields(text)
	target := strings.Fields(phrase)
	if len(target) == 0 || len(words) < len(target) {
		return false
	}

outer:
	for i := 0; i+len(target) <= len(words); i++ {
		for j, t := range target {
			if trimWordPunct(words[i+j]) != t {
				continue outer
			}
		}
		return true
	}
	return false
}

// trimWordPunct strips leading/trailing punctuation from a single word so
// "cart!" still bounds-matches "cart".
func trimWordPunct(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
