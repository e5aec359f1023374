package resload

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Kind discriminates the resources a Loader accepts.
type Kind string

// Accepted kinds. Any other value is rejected silently.
const (
	Script Kind = "js"
	Style  Kind = "css"
)

// Valid reports whether k is Script or Style.
func (k Kind) Valid() bool {
	return k == Script || k == Style
}

// tag is the element tag used for k in the main document.
func (k Kind) tag() string {
	if k == Script {
		return "script"
	}
	return "link"
}

// locator is the attribute that carries the URL for k.
func (k Kind) locator() string {
	if k == Script {
		return "src"
	}
	return "href"
}

// Hasher maps a URL to a stable string.
type Hasher func(url string) string

// HashURL is the default Hasher: xxh3-64 of the URL in base 36.
func HashURL(url string) string {
	return strconv.FormatUint(xxh3.HashString(url), 36)
}

// identity builds kind-hash.
func identity(k Kind, url string, hash Hasher) string {
	var b strings.Builder
	b.WriteString(string(k))
	b.WriteByte('-')
	b.WriteString(hash(url))
	return b.String()
}

// Identity returns the id a Loader with the default Hasher gives (k, url).
// ok is false for an unsupported kind.
func Identity(k Kind, url string) (id string, ok bool) {
	if !k.Valid() {
		return "", false
	}
	return identity(k, url, HashURL), true
}
