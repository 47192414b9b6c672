// Package web serves the padshift status page and JSON views of the
// controller state.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sweeney/padshift/internal/status"
)

// Source provides status snapshots. *status.Tracker implements it.
type Source interface {
	Snapshot() status.Snapshot
}

// Server serves the status routes.
type Server struct {
	src Source
	srv *http.Server
}

// New creates a Server listening on addr.
func New(addr string, src Source) *Server {
	s := &Server{src: src}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.page)
	mux.HandleFunc("GET /index.html", s.page)
	mux.HandleFunc("GET /index.json", s.statusJSON)
	mux.HandleFunc("GET /pad.json", s.padJSON)
	mux.HandleFunc("GET /healthz", s.health)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.src.Snapshot())
}

func (s *Server) statusJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.src.Snapshot()))
}

// padView is the live controller state without daemon metadata, for
// overlays that poll quickly.
type padView struct {
	Buttons  map[string]string `json:"buttons"`
	Triggers map[string]string `json:"triggers"`
	Chords   []string          `json:"chords"`
	Active   []string          `json:"active"`
	Faults   int               `json:"faults"`
}

func (s *Server) padJSON(w http.ResponseWriter, r *http.Request) {
	p := s.src.Snapshot().Pad
	v := padView{
		Buttons:  p.Buttons,
		Triggers: p.Triggers,
		Chords:   p.Chords,
		Active:   p.Active,
		Faults:   p.Faults,
	}
	if v.Buttons == nil {
		v.Buttons = map[string]string{}
	}
	if v.Triggers == nil {
		v.Triggers = map[string]string{}
	}
	if v.Chords == nil {
		v.Chords = []string{}
	}
	if v.Active == nil {
		v.Active = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(v)
}

// health reports 503 until the broker connection is up.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.src.Snapshot().MQTTConnected {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("mqtt disconnected\n"))
		return
	}
	w.Write([]byte("ok\n"))
}
