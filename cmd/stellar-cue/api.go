package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-cue/internal/domain/playlist"
	"github.com/edumarques81/stellar-cue/internal/domain/session"
	"github.com/edumarques81/stellar-cue/internal/infra/cuedb"
	"github.com/edumarques81/stellar-cue/internal/version"
)

// Preview image bounds in pixels.
const (
	defaultPreviewWidth  = 1000
	defaultPreviewHeight = 120
	maxPreviewSide       = 4096
)

// projectStore is the part of the cue database the API exposes.
type projectStore interface {
	ListProjects(ctx context.Context) ([]cuedb.ProjectSummary, error)
	DeleteProject(ctx context.Context, path string) error
}

// api serves the HTTP endpoints next to the Socket.IO server.
type api struct {
	session  *session.Service
	projects projectStore
	health   func() error // media host reachability
	system   func() any
}

// routes registers the endpoints on router.
func (a *api) routes(router *mux.Router) {
	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/version", a.handleVersion).Methods(http.MethodGet)
	v1.HandleFunc("/system", a.handleSystem).Methods(http.MethodGet)
	v1.HandleFunc("/state", a.handleState).Methods(http.MethodGet)
	v1.HandleFunc("/export", a.handleExport).Methods(http.MethodGet)
	v1.HandleFunc("/waveform.png", a.handleWaveform).Methods(http.MethodGet)
	v1.HandleFunc("/cover.jpg", a.handleCover).Methods(http.MethodGet)
	v1.HandleFunc("/projects", a.handleListProjects).Methods(http.MethodGet)
	v1.HandleFunc("/projects", a.handleDeleteProject).Methods(http.MethodDelete)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "mpd": "disconnected"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mpd": "connected"})
}

func (a *api) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.GetInfo())
}

func (a *api) handleSystem(w http.ResponseWriter, r *http.Request) {
	if a.system == nil {
		http.Error(w, "system info unavailable", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a.system())
}

func (a *api) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session.Snapshot())
}

// handleExport downloads the cue list, ?format=cue by default.
func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "cue"
	}

	out, err := a.session.Export(format)
	switch {
	case errors.Is(err, playlist.ErrUnknownFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, session.ErrNoFile), errors.Is(err, session.ErrNoCues):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		log.Error().Err(err).Str("format", format).Msg("Export failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", out.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	w.Write([]byte(out.Content))
}

func previewSide(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxPreviewSide {
		return 0, fmt.Errorf("size must be between 1 and %d", maxPreviewSide)
	}
	return n, nil
}

// handleWaveform renders the current view, ?width=&height= in pixels.
func (a *api) handleWaveform(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err := previewSide(q.Get("width"), defaultPreviewWidth)
	if err != nil {
		http.Error(w, "width: "+err.Error(), http.StatusBadRequest)
		return
	}
	height, err := previewSide(q.Get("height"), defaultPreviewHeight)
	if err != nil {
		http.Error(w, "height: "+err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := a.session.WritePreview(&buf, width, height); err != nil {
		log.Error().Err(err).Msg("Waveform preview failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (a *api) handleCover(w http.ResponseWriter, r *http.Request) {
	data, ok := a.session.Cover()
	if !ok {
		http.Error(w, "cover not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (a *api) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if a.projects == nil {
		http.Error(w, "no cue database", http.StatusNotFound)
		return
	}
	list, err := a.projects.ListProjects(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []cuedb.ProjectSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleDeleteProject removes the project named by ?path=.
func (a *api) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if a.projects == nil {
		http.Error(w, "no cue database", http.StatusNotFound)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path parameter required", http.StatusBadRequest)
		return
	}
	err := a.projects.DeleteProject(r.Context(), path)
	if errors.Is(err, cuedb.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// staticHandler serves a single page app from dir, falling back to
// index.html for unknown paths.
func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := dir + r.URL.Path
		if r.URL.Path == "/" {
			path = dir + "/index.html"
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.ServeFile(w, r, dir+"/index.html")
			return
		}
		fs.ServeHTTP(w, r)
	})
}
