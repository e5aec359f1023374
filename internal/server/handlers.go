package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/resload/internal/assets"
	"github.com/leapstack-labs/resload/internal/manifest"
	"github.com/leapstack-labs/resload/internal/session"
	"github.com/leapstack-labs/resload/pkg/resload"
)

const maxManifestBytes = 1 << 20

// assetEntry is one servable file in the asset directory.
type assetEntry struct {
	Path     string
	URL      string
	Kind     string
	Identity string
	Size     int64
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	entries, err := s.listAssets()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(entries).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// events is the long-lived SSE endpoint the index page connects to. The
// asset table is patched every time the directory changes.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := make(chan struct{}, 1)
	notify := func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}

	ctx := r.Context()
	for {
		// Subscriptions are consumed by each publish.
		s.notifier.Subscribe(topicAssets, notify)

		select {
		case <-ctx.Done():
			return
		case <-updates:
			entries, err := s.listAssets()
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(assetTable(entries)); err != nil {
				s.logger.Debug("sse patch failed", "error", err)
				return
			}
		}
	}
}

type identityResponse struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Identity string `json:"identity"`
}

func (s *Server) identity(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}
	id, ok := resload.Identity(resload.Kind(kind), url)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w, got %q", manifest.ErrInvalidKind, kind))
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{Type: kind, URL: url, Identity: id})
}

// render runs the posted manifest against the served assets. A manifest
// without a base URL resolves against this server's /assets/.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxManifestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read manifest: %w", err))
		return
	}
	m, err := manifest.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if m.Page != "" && !filepath.IsLocal(m.Page) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("page %q is outside the assets directory", m.Page))
		return
	}
	if m.BaseURL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		m.BaseURL = scheme + "://" + r.Host + "/assets/"
	}

	sess, err := session.New(m, session.WithDir(s.assetsDir), session.WithLogger(s.logger))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := sess.Run(ctx)
	switch {
	case errors.Is(err, session.ErrNotSettled):
		writeJSON(w, http.StatusGatewayTimeout, res)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// asset serves a file from the asset directory, minifying scripts and
// styles when enabled.
func (s *Server) asset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	fsys := os.DirFS(s.assetsDir)
	if !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}

	kind := assets.Kind(name)
	if !s.minify || kind == "" {
		http.ServeFileFS(w, r, fsys, name)
		return
	}

	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	out, err := assets.Minify(name, src)
	if err != nil {
		s.logger.Warn("minify failed, serving original", "file", name, "error", err)
		out = src
	}
	w.Header().Set("Content-Type", assets.ContentType(kind))
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(out)
}

// listAssets walks the asset directory for scripts and styles.
func (s *Server) listAssets() ([]assetEntry, error) {
	var entries []assetEntry
	err := fs.WalkDir(os.DirFS(s.assetsDir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		kind := assets.Kind(path)
		if kind == "" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		url := "/assets/" + path
		id, _ := resload.Identity(resload.Kind(kind), url)
		entries = append(entries, assetEntry{
			Path:     path,
			URL:      url,
			Kind:     kind,
			Identity: id,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
