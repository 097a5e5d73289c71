package dom

// Observer receives elements added to the tree. Callbacks run synchronously
// in the page context's cooperative order, matching browser delivery of
// mutation records relative to other page work.
type Observer struct {
	doc      *Document
	id       int
	callback func(added []*Element)
	canceled bool
}

// Observe registers a mutation observer for subtree insertions and returns
// a cancellable handle.
func (d *Document) Observe(callback func(added []*Element)) *Observer {
	d.nextObsID++
	obs := &Observer{doc: d, id: d.nextObsID, callback: callback}
	d.observers = append(d.observers, obs)
	return obs
}

// Cancel stops delivery to this observer. Safe to call more than once.
func (o *Observer) Cancel() {
	if o.canceled {
		return
	}
	o.canceled = true
	live := o.doc.observers[:0]
	for _, obs := range o.doc.observers {
		if obs != o {
			live = append(live, obs)
		}
	}
	o.doc.observers = live
}

func (d *Document) notifyMutation(added []*Element) {
	// Expand to the full inserted subtree so observers see nested
	// interactive elements, not just the insertion root.
	var all []*Element
	for _, el := range added {
		all = append(all, el)
		all = append(all, el.descendants()...)
	}

	for _, obs := range append([]*Observer(nil), d.observers...) {
		if !obs.canceled {
			obs.callback(all)
		}
	}
}

func (e *Element) descendants() []*Element {
	var out []*Element
	for _, c := range e.Children() {
		out = append(out, c)
		out = append(out, c.descendants()...)
	}
	return out
}
