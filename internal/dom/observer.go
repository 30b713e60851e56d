package dom

// RecordType identifies the kind of mutation in a Record.
type RecordType int

const (
	// RecordChildList reports inserted or removed children.
	RecordChildList RecordType = iota
	// RecordAttributes reports an attribute change.
	RecordAttributes
)

// String returns the record type name.
func (t RecordType) String() string {
	switch t {
	case RecordChildList:
		return "childList"
	case RecordAttributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// Record describes one mutation.
type Record struct {
	Type          RecordType
	Target        *Element
	Added         []*Element
	Removed       []*Element
	AttributeName string
	OldValue      string
}

// ObserveOptions selects which mutations an observer receives.
type ObserveOptions struct {
	ChildList       bool
	Subtree         bool
	Attributes      bool
	AttributeFilter []string
}

// Observer receives mutation records for a target element. Records are
// delivered synchronously on the goroutine that made the change.
type Observer struct {
	doc       *Document
	target    *Element
	opts      ObserveOptions
	fn        func([]Record)
	connected bool
}

// Observe registers fn for mutations at or below target.
func (d *Document) Observe(target *Element, opts ObserveOptions, fn func([]Record)) *Observer {
	o := &Observer{
		doc:       d,
		target:    target,
		opts:      opts,
		fn:        fn,
		connected: true,
	}
	d.observers = append(d.observers, o)
	return o
}

// Disconnect stops delivery. It is safe to call more than once.
func (o *Observer) Disconnect() {
	if !o.connected {
		return
	}
	o.connected = false
	for i, other := range o.doc.observers {
		if other == o {
			o.doc.observers = append(o.doc.observers[:i], o.doc.observers[i+1:]...)
			break
		}
	}
}

// Connected reports whether the observer is still registered.
func (o *Observer) Connected() bool {
	return o.connected
}

func (o *Observer) wants(r Record) bool {
	if !o.connected || r.Target == nil {
		return false
	}
	if r.Target != o.target && !(o.opts.Subtree && o.target.Contains(r.Target)) {
		return false
	}

	switch r.Type {
	case RecordChildList:
		return o.opts.ChildList
	case RecordAttributes:
		if !o.opts.Attributes {
			return false
		}
		if len(o.opts.AttributeFilter) == 0 {
			return true
		}
		for _, name := range o.opts.AttributeFilter {
			if name == r.AttributeName {
				return true
			}
		}
	}
	return false
}

func (d *Document) notify(r Record) {
	if r.Type == RecordChildList {
		d.sheetsOK = false
	}
	if len(d.observers) == 0 {
		return
	}

	observers := make([]*Observer, len(d.observers))
	copy(observers, d.observers)
	for _, o := range observers {
		if o.wants(r) {
			o.fn([]Record{r})
		}
	}
}
