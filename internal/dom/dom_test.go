package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storePage = `
<!DOCTYPE html>
<html>
<head><title>Gadget Shop</title></head>
<body>
	<div id="wrap">
		<a id="home" href="/home">Home</a>
		<form id="order" action="/order" method="POST">
			<input id="qty" type="text" name="qty">
			<button id="buy">Buy Now</button>
		</form>
		<div role="button" id="aria-btn">Checkout</div>
		<input id="pay" type="submit" value="Pay Now">
	</div>
</body>
</html>`

func mustParse(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(storePage, "https://shop.example.com/item/42")
	require.NoError(t, err)
	return doc
}

func TestParseAndQuery(t *testing.T) {
	doc := mustParse(t)

	assert.Equal(t, "Gadget Shop", doc.Title())
	assert.Equal(t, "shop.example.com", doc.Hostname())

	buy := doc.QueryFirst("#buy")
	require.NotNil(t, buy)
	assert.Equal(t, "button", buy.Tag())
	assert.Equal(t, "Buy Now", buy.Text())
}

func TestWrapperIdentityIsStable(t *testing.T) {
	doc := mustParse(t)

	first := doc.QueryFirst("#buy")
	second := doc.QueryFirst("#buy")
	assert.Same(t, first, second)
}

func TestInteractiveRoles(t *testing.T) {
	doc := mustParse(t)

	ids := map[string]bool{}
	for _, el := range doc.Interactive() {
		ids[el.AttrOr("id", "")] = true
	}

	assert.True(t, ids["home"])
	assert.True(t, ids["buy"])
	assert.True(t, ids["aria-btn"])
	assert.True(t, ids["pay"])
	assert.False(t, ids["qty"])
}

func TestDispatchPhaseOrder(t *testing.T) {
	doc := mustParse(t)
	wrap := doc.QueryFirst("#wrap")
	buy := doc.QueryFirst("#buy")

	var order []string
	wrap.AddEventListener("click", func(ev *Event) {
		order = append(order, "wrap-capture")
	}, ListenerOptions{Capture: true})
	wrap.AddEventListener("click", func(ev *Event) {
		order = append(order, "wrap-bubble")
	}, ListenerOptions{})
	buy.AddEventListener("click", func(ev *Event) {
		order = append(order, "target")
		ev.PreventDefault()
	}, ListenerOptions{})

	buy.Dispatch("click")

	assert.Equal(t, []string{"wrap-capture", "target", "wrap-bubble"}, order)
}

func TestStopImmediatePropagation(t *testing.T) {
	doc := mustParse(t)
	buy := doc.QueryFirst("#buy")

	var calls []string
	buy.AddEventListener("click", func(ev *Event) {
		calls = append(calls, "first")
		ev.StopImmediatePropagation()
		ev.PreventDefault()
	}, ListenerOptions{})
	buy.AddEventListener("click", func(ev *Event) {
		calls = append(calls, "second")
	}, ListenerOptions{})

	buy.Dispatch("click")

	assert.Equal(t, []string{"first"}, calls)
}

func TestOnceListener(t *testing.T) {
	doc := mustParse(t)
	buy := doc.QueryFirst("#buy")

	count := 0
	buy.AddEventListener("click", func(ev *Event) {
		count++
		ev.PreventDefault()
	}, ListenerOptions{Once: true})

	buy.Dispatch("click")
	buy.Dispatch("click")

	assert.Equal(t, 1, count)
}

func TestLinkDefaultAction(t *testing.T) {
	doc := mustParse(t)
	home := doc.QueryFirst("#home")

	home.Dispatch("click")

	require.Len(t, doc.Navigations(), 1)
	assert.Equal(t, "https://shop.example.com/home", doc.Navigations()[0])
}

func TestPreventDefaultSuppressesNavigation(t *testing.T) {
	doc := mustParse(t)
	home := doc.QueryFirst("#home")

	home.AddEventListener("click", func(ev *Event) {
		ev.PreventDefault()
	}, ListenerOptions{})
	home.Dispatch("click")

	assert.Empty(t, doc.Navigations())
}

func TestFormSubmitDefaultAction(t *testing.T) {
	doc := mustParse(t)
	buy := doc.QueryFirst("#buy")

	buy.Dispatch("click")

	require.Len(t, doc.Submissions(), 1)
	assert.Equal(t, "order", doc.Submissions()[0].AttrOr("id", ""))
}

func TestMutationObserverSeesSubtree(t *testing.T) {
	doc := mustParse(t)

	var added []*Element
	obs := doc.Observe(func(els []*Element) {
		added = append(added, els...)
	})

	wrap := doc.QueryFirst("#wrap")
	card := doc.CreateElement("div", map[string]string{"class": "card"}, "")
	btn := doc.CreateElement("button", map[string]string{"id": "late"}, "Add to Cart")
	card.AppendChild(btn)

	added = nil // only the attach into the live tree matters
	wrap.AppendChild(card)

	tags := map[string]int{}
	for _, el := range added {
		tags[el.Tag()]++
	}
	assert.Equal(t, 1, tags["div"])
	assert.Equal(t, 1, tags["button"])

	obs.Cancel()
	added = nil
	wrap.AppendChild(doc.CreateElement("span", nil, "x"))
	assert.Empty(t, added)
}

func TestLabelPrecedence(t *testing.T) {
	doc := mustParse(t)

	pay := doc.QueryFirst("#pay")
	assert.Equal(t, "Pay Now", pay.Label())

	aria := doc.QueryFirst("#aria-btn")
	aria.SetAttr("aria-label", "Complete Purchase")
	assert.Equal(t, "Complete Purchase", aria.Label())
}

func TestOwnTextExcludesDescendants(t *testing.T) {
	doc := mustParse(t)
	wrap := doc.QueryFirst("#wrap")

	// The wrapper aggregates descendant text but owns none itself.
	assert.Contains(t, wrap.Text(), "Buy Now")
	assert.Equal(t, "", wrap.OwnText())
}

func TestSetURL(t *testing.T) {
	doc := mustParse(t)

	require.NoError(t, doc.SetURL("https://shop.example.com/item/43"))
	assert.Equal(t, "/item/43", doc.URL().Path)

	assert.Error(t, doc.SetURL("://bad"))
}
