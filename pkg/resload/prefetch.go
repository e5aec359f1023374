package resload

import "github.com/leapstack-labs/resload/pkg/dom"

// Prefetch fetches url into the shared isolated context without executing
// or applying it. It is a no-op when the main document already has the
// resource or the context already requested it.
func (l *Loader) Prefetch(kind Kind, url string) {
	id, ok := l.Identity(kind, url)
	if !ok {
		return
	}
	if l.doc.ElementByID(id) != nil {
		return
	}

	frame := l.doc.IsolatedContext(PrefetchContextID)

	// Engines want the frame attached before anything is put in it.
	l.sched.Defer(func() {
		if frame.ElementByID(id) != nil || l.doc.ElementByID(id) != nil {
			return
		}
		l.logger.Debug("prefetching resource", "id", id, "url", url)

		if kind == Style {
			insert(frame, l.sched, kind, url, id, "", nil)
			return
		}

		var el dom.Element
		if frame.Supports(dom.FeatureExternalObject) {
			el = frame.CreateElement("object")
			el.SetAttr("id", id)
			el.SetAttr("width", "0")
			el.SetAttr("height", "0")
			el.SetAttr("data", url)
		} else {
			// An unknown script type is fetched but never executed.
			el = frame.CreateElement("script")
			el.SetAttr("id", id)
			el.SetAttr("type", "text/cache")
			el.SetAttr("src", url)
		}
		dom.Target(frame).Append(el)
	})
}
