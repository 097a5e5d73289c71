package dom

import "strings"

// Event phases, mirroring browser dispatch.
const (
	PhaseCapture = iota
	PhaseTarget
	PhaseBubble
)

// Event is a dispatched page event.
type Event struct {
	Type   string
	Target *Element
	Phase  int

	defaultPrevented   bool
	propagationStopped bool
	immediateStopped   bool
}

// PreventDefault suppresses the element's default action.
func (ev *Event) PreventDefault() {
	ev.defaultPrevented = true
}

// StopPropagation stops delivery to later phases and elements; listeners
// already scheduled on the current element still run.
func (ev *Event) StopPropagation() {
	ev.propagationStopped = true
}

// StopImmediatePropagation stops delivery entirely, including remaining
// listeners on the current element.
func (ev *Event) StopImmediatePropagation() {
	ev.propagationStopped = true
	ev.immediateStopped = true
}

// DefaultPrevented reports whether a listener suppressed the default action.
func (ev *Event) DefaultPrevented() bool {
	return ev.defaultPrevented
}

// Listener handles a dispatched event.
type Listener func(ev *Event)

// ListenerOptions mirror addEventListener options.
type ListenerOptions struct {
	Capture bool
	Once    bool
}

type listenerEntry struct {
	fn      Listener
	opts    ListenerOptions
	removed bool
}

// ListenerHandle allows removal of a registered listener.
type ListenerHandle struct {
	entry *listenerEntry
}

// Remove unregisters the listener. Safe to call more than once.
func (h *ListenerHandle) Remove() {
	if h != nil && h.entry != nil {
		h.entry.removed = true
	}
}

// AddEventListener registers a listener on the element and returns a handle
// for removal. Registration order is preserved within a phase.
func (e *Element) AddEventListener(eventType string, fn Listener, opts ListenerOptions) *ListenerHandle {
	if e.listeners == nil {
		e.listeners = make(map[string][]*listenerEntry)
	}
	entry := &listenerEntry{fn: fn, opts: opts}
	e.listeners[eventType] = append(e.listeners[eventType], entry)
	return &ListenerHandle{entry: entry}
}

// Click dispatches a full press interaction the way a pointer would:
// mousedown, mouseup, then click with default actions.
func (e *Element) Click() {
	e.Dispatch("mousedown")
	e.Dispatch("mouseup")
	e.Dispatch("click")
}

// Dispatch delivers an event through capture, target, and bubble phases,
// then runs the default action unless a listener prevented it.
func (e *Element) Dispatch(eventType string) *Event {
	ev := &Event{Type: eventType, Target: e}
	path := e.path()

	// Capture phase: root toward target, capture listeners only.
	ev.Phase = PhaseCapture
	for _, el := range path[:len(path)-1] {
		el.deliver(ev, true)
		if ev.propagationStopped {
			e.runDefault(ev)
			return ev
		}
	}

	// Target phase: all listeners in registration order.
	ev.Phase = PhaseTarget
	e.deliverAll(ev)
	if ev.propagationStopped {
		e.runDefault(ev)
		return ev
	}

	// Bubble phase: target's parent toward root, non-capture listeners.
	ev.Phase = PhaseBubble
	for i := len(path) - 2; i >= 0; i-- {
		path[i].deliver(ev, false)
		if ev.propagationStopped {
			break
		}
	}

	e.runDefault(ev)
	return ev
}

func (e *Element) deliver(ev *Event, capture bool) {
	for _, entry := range e.listeners[ev.Type] {
		if entry.removed || entry.opts.Capture != capture {
			continue
		}
		e.invoke(ev, entry)
		if ev.immediateStopped {
			return
		}
	}
}

func (e *Element) deliverAll(ev *Event) {
	for _, entry := range e.listeners[ev.Type] {
		if entry.removed {
			continue
		}
		e.invoke(ev, entry)
		if ev.immediateStopped {
			return
		}
	}
}

func (e *Element) invoke(ev *Event, entry *listenerEntry) {
	if entry.opts.Once {
		entry.removed = true
	}
	entry.fn(ev)
}

// runDefault performs the browser default action for click events: link
// navigation and form submission. Other event types have no default here.
func (e *Element) runDefault(ev *Event) {
	if ev.Type != "click" || ev.defaultPrevented {
		return
	}

	// Nearest ancestor link wins, as in a real page.
	for cur := e; cur != nil; cur = cur.Parent() {
		if cur.Tag() == "a" {
			href, ok := cur.Attr("href")
			if ok && href != "" && href != "#" && !strings.HasPrefix(href, "javascript:") {
				e.doc.navigate(href)
			}
			return
		}
	}

	if e.isSubmitter() {
		if form := e.ClosestForm(); form != nil {
			e.doc.submit(form)
		}
	}
}

// isSubmitter reports whether a click on this element submits its form.
func (e *Element) isSubmitter() bool {
	switch e.Tag() {
	case "input":
		return strings.ToLower(e.AttrOr("type", "text")) == "submit"
	case "button":
		// Buttons inside forms default to type=submit.
		return strings.ToLower(e.AttrOr("type", "submit")) == "submit"
	}
	return false
}
