//go:build dev

package resources

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
)

// staticDir is the static directory next to this source file, wherever the
// binary runs from.
func staticDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return StaticDirectoryPath
	}
	return filepath.Join(filepath.Dir(filename), "static")
}

// Handler serves static files straight from the filesystem.
func Handler() http.Handler {
	dir := staticDir()
	slog.Info("static files served from filesystem", "path", dir)
	return http.StripPrefix("/static/", http.FileServer(http.FS(os.DirFS(dir))))
}
