package dom

import "strings"

// HasClass reports whether the space-separated class list contains class.
func HasClass(list, class string) bool {
	if class == "" {
		return false
	}
	for _, c := range strings.Fields(list) {
		if c == class {
			return true
		}
	}
	return false
}

// Target returns the element new resources are inserted into: the head,
// else the body, else the document element.
func Target(doc Document) Element {
	if h := doc.Head(); h != nil {
		return h
	}
	if b := doc.Body(); b != nil {
		return b
	}
	return doc.DocumentElement()
}
