// Package intercept wires checkout-intent elements so their native action
// is suppressed and a decision hook runs instead. Elements stay wired
// across DOM mutations, native handlers are never removed, and a one-shot
// pass-through flag lets the original interaction replay untouched when
// the user decides to proceed.
package intercept

import (
	"go.uber.org/zap"

	"github.com/spendguard/spendguard/internal/classify"
	"github.com/spendguard/spendguard/internal/dom"
	"github.com/spendguard/spendguard/internal/infrastructure/logging"
)

// TriggerFunc is invoked when a guarded element is activated. The element
// is already suppressed; the callee decides whether Replay happens.
type TriggerFunc func(el *dom.Element)

// Controller owns the interception membership for one page.
type Controller struct {
	doc       *dom.Document
	onTrigger TriggerFunc
	log       *logging.Logger

	members   map[*dom.Element]*wiring
	observer  *dom.Observer
	docHandle *dom.ListenerHandle
}

// wiring is the per-element interception state: captured restoration data,
// guard handles, and the replay pass-through flag.
type wiring struct {
	restore     restoration
	handles     []*dom.ListenerHandle
	passThrough bool
}

// New creates a controller for doc. Call Start to begin interception.
func New(doc *dom.Document, onTrigger TriggerFunc, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.NewNop()
	}
	return &Controller{
		doc:       doc,
		onTrigger: onTrigger,
		log:       log,
		members:   make(map[*dom.Element]*wiring),
	}
}

// Start installs the document-level capture guard, wires everything
// currently on the page, and follows future mutations.
func (c *Controller) Start() {
	// The document-level capture listener is the primary defense against
	// pages whose own handlers sit on wrappers the scan never visits
	// individually: it sees every click first and walks the ancestry.
	c.docHandle = c.doc.Root().AddEventListener("click", c.documentGuard, dom.ListenerOptions{Capture: true})

	c.Scan()

	c.observer = c.doc.Observe(func(added []*dom.Element) {
		for _, el := range added {
			if el.IsInteractive() {
				c.wire(el)
			}
		}
	})
}

// Stop cancels observation, removes every guard, and restores neutralized
// elements, leaving the page as if interception never ran.
func (c *Controller) Stop() {
	if c.observer != nil {
		c.observer.Cancel()
	}
	if c.docHandle != nil {
		c.docHandle.Remove()
	}
	for el, w := range c.members {
		for _, h := range w.handles {
			h.Remove()
		}
		w.restore.restore(el)
	}
	c.members = make(map[*dom.Element]*wiring)
}

// Scan walks all interactive elements and wires first-time matches. Safe
// to call repeatedly; membership prevents double-attachment.
func (c *Controller) Scan() int {
	wired := 0
	for _, el := range c.doc.Interactive() {
		if c.wire(el) {
			wired++
		}
	}
	return wired
}

// Wired reports whether an element carries guards.
func (c *Controller) Wired(el *dom.Element) bool {
	_, ok := c.members[el]
	return ok
}

// WiredCount returns the membership size.
func (c *Controller) WiredCount() int {
	return len(c.members)
}

// wire attaches guards to a first-time checkout match. Returns true only
// when the element was newly wired.
func (c *Controller) wire(el *dom.Element) bool {
	if _, seen := c.members[el]; seen {
		return false
	}
	if !classify.Checkout(el.Label()) {
		return false
	}

	restore, err := captureRestoration(el)
	if err != nil {
		// Fail open: a missed interception is preferable to corrupting
		// the page.
		c.log.Warn("leaving element unwired",
			zap.Int("element", el.ID()),
			zap.Error(err))
		return false
	}

	w := &wiring{restore: restore}
	c.members[el] = w

	restore.neutralize(el)

	guard := func(ev *dom.Event) {
		if w.passThrough {
			return
		}
		ev.PreventDefault()
		ev.StopPropagation()
		ev.StopImmediatePropagation()
		if ev.Type == "click" {
			c.onTrigger(el)
		}
	}

	// Earliest and latest click phases plus the press events, so a page
	// handler on any phase never beats the guard.
	w.handles = append(w.handles,
		el.AddEventListener("click", guard, dom.ListenerOptions{Capture: true}),
		el.AddEventListener("click", guard, dom.ListenerOptions{}),
		el.AddEventListener("mousedown", guard, dom.ListenerOptions{}),
		el.AddEventListener("mouseup", guard, dom.ListenerOptions{}),
	)

	c.log.Debug("wired checkout element",
		zap.Int("element", el.ID()),
		zap.String("tag", el.Tag()),
		zap.String("label", el.Label()))
	return true
}

// documentGuard runs in the capture phase on every click. It walks upward
// from the target through interactive ancestors, re-running the classifier
// on each ancestor's own text, and suppresses the event when a match is
// found that is not mid-replay.
func (c *Controller) documentGuard(ev *dom.Event) {
	for cur := ev.Target; cur != nil; cur = cur.Parent() {
		if !cur.IsInteractive() {
			continue
		}

		label := cur.OwnLabel()
		if cur == ev.Target {
			label = cur.Label()
		}
		if !classify.Checkout(label) {
			continue
		}

		// Wire on sight so restoration data exists before any decision.
		c.wire(cur)
		w, ok := c.members[cur]
		if !ok || w.passThrough {
			return
		}

		ev.PreventDefault()
		ev.StopPropagation()
		ev.StopImmediatePropagation()
		c.onTrigger(cur)
		return
	}
}

// Replay restores the element and re-fires the suppressed interaction with
// the pass-through flag set, so native handlers and the default action run
// exactly as they would have without interception.
func (c *Controller) Replay(el *dom.Element) {
	w, ok := c.members[el]
	if !ok {
		// Never wired; nothing was suppressed. Fire the plain action.
		el.Click()
		return
	}

	w.restore.restore(el)
	w.passThrough = true
	el.Click()
	w.passThrough = false
	w.restore.neutralize(el)
}
