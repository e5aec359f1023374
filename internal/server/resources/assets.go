// Package resources provides the dev server's own static files.
package resources

// StaticDirectoryPath is the path to static files from the project root.
const StaticDirectoryPath = "internal/server/resources/static"

// StaticPath returns the URL path for a static file.
func StaticPath(path string) string {
	return "/static/" + path
}
