package resload

import "github.com/leapstack-labs/resload/pkg/dom"

// insert creates the element for a resource, wires its completion signals
// to done, and inserts it. Scripts are prepended to the target and styles
// appended, so styles cascade in call order.
func insert(doc dom.Document, sched Scheduler, kind Kind, url, id, name string, done func(dom.Element)) dom.Element {
	el := doc.CreateElement(kind.tag())
	if kind == Style {
		el.SetAttr("rel", "stylesheet")
		el.SetAttr("type", "text/css")
	}
	el.SetAttr("id", id)
	if name != "" {
		el.SetAttr("class", name)
	}
	if done != nil {
		onSettled(el, sched, done)
	}
	// The locator goes last: some engines signal as soon as it is set.
	el.SetAttr(kind.locator(), url)

	target := dom.Target(doc)
	if kind == Script {
		target.Prepend(el)
	} else {
		target.Append(el)
	}
	return el
}

// onSettled routes both completion signals of el to fn, one tick later.
// fn may be called more than once.
func onSettled(el dom.Element, sched Scheduler, fn func(dom.Element)) {
	settle := func() {
		sched.Defer(func() { fn(el) })
	}
	el.On(dom.EventLoad, settle)
	el.On(dom.EventReadyStateChange, func() {
		switch el.ReadyState() {
		case "loaded", "complete":
			settle()
		}
	})
}
