package intercept

import (
	"fmt"

	"github.com/spendguard/spendguard/internal/dom"
)

type restoreKind int

const (
	restoreNone restoreKind = iota
	restoreLink
	restoreInput
)

// restoration captures what neutralizing an element changed, so the
// original behavior can be reinstated for replay. Native handlers are
// never captured or reconstructed; they stay attached and are simply not
// suppressed during pass-through.
type restoration struct {
	kind      restoreKind
	href      string
	hasHref   bool
	inputType string
}

// captureRestoration inspects the element before any modification. An
// unexpected node shape is an error; the caller leaves such elements
// untouched.
func captureRestoration(el *dom.Element) (restoration, error) {
	switch el.Tag() {
	case "a":
		href, ok := el.Attr("href")
		return restoration{kind: restoreLink, href: href, hasHref: ok}, nil
	case "input":
		return restoration{kind: restoreInput, inputType: el.AttrOr("type", "text")}, nil
	case "button":
		return restoration{kind: restoreNone}, nil
	case "":
		return restoration{}, fmt.Errorf("unexpected node shape")
	default:
		// ARIA buttons and other role-carrying elements have no default
		// action to neutralize; guards are sufficient.
		if el.AttrOr("role", "") == "button" {
			return restoration{kind: restoreNone}, nil
		}
		return restoration{}, fmt.Errorf("unsupported interactive tag %q", el.Tag())
	}
}

// neutralize alters the element only enough to prevent default
// navigation/submission even if an undiscovered path dispatches on it.
func (r restoration) neutralize(el *dom.Element) {
	switch r.kind {
	case restoreLink:
		if r.hasHref {
			el.SetAttr("href", "#")
		}
	case restoreInput:
		if r.inputType == "submit" {
			el.SetAttr("type", "button")
		}
	}
}

// restore reinstates the captured attributes.
func (r restoration) restore(el *dom.Element) {
	switch r.kind {
	case restoreLink:
		if r.hasHref {
			el.SetAttr("href", r.href)
		} else {
			el.RemoveAttr("href")
		}
	case restoreInput:
		el.SetAttr("type", r.inputType)
	}
}
