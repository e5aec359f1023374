// Package assets minifies script and style resources with esbuild.
package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrUnsupported is returned for files that are neither scripts nor styles.
var ErrUnsupported = errors.New("unsupported asset type")

// Kind returns the resource kind ("js" or "css") for a file name, or "".
func Kind(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".mjs":
		return "js"
	case ".css":
		return "css"
	}
	return ""
}

// ContentType returns the MIME type served for a resource kind.
func ContentType(kind string) string {
	switch kind {
	case "js":
		return "text/javascript; charset=utf-8"
	case "css":
		return "text/css; charset=utf-8"
	}
	return "application/octet-stream"
}

// Minify returns src minified according to the kind of name.
func Minify(name string, src []byte) ([]byte, error) {
	var loader api.Loader
	switch Kind(name) {
	case "js":
		loader = api.LoaderJS
	case "css":
		loader = api.LoaderCSS
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}

	result := api.Transform(string(src), api.TransformOptions{
		Loader:            loader,
		Sourcefile:        name,
		Target:            api.ES2020,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		var msgs []string
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			} else {
				msgs = append(msgs, m.Text)
			}
		}
		return nil, fmt.Errorf("esbuild errors:\n%s", strings.Join(msgs, "\n"))
	}
	return result.Code, nil
}
