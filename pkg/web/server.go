package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tmaxmax/go-sse"

	"github.com/umputun/livecheck/pkg/catalog"
	"github.com/umputun/livecheck/pkg/runner"
)

//go:embed templates
var content embed.FS

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	Port   int    // port to listen on
	Target string // widget url, shown in the page title
}

// Server streams run events to browsers and exposes the report and metrics.
// it implements runner.Observer.
type Server struct {
	cfg     ServerConfig
	sse     *sse.Server
	buffer  *Buffer
	metrics http.Handler
	tmpl    *template.Template

	mu     sync.Mutex
	report *runner.Report
	srv    *http.Server
}

// NewServer creates a new web server. metrics is mounted on /metrics when not nil.
func NewServer(cfg ServerConfig, metrics http.Handler) (*Server, error) {
	tmpl, err := template.ParseFS(content, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Server{
		cfg:     cfg,
		sse:     &sse.Server{},
		buffer:  NewBuffer(DefaultBufferSize),
		metrics: metrics,
		tmpl:    tmpl,
	}, nil
}

// Publish stores the event for late clients and streams it to the connected ones.
func (s *Server) Publish(e Event) error {
	s.buffer.Add(e)
	if err := s.sse.Publish(e.ToSSEMessage()); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// OnTransition publishes a case state change.
func (s *Server) OnTransition(suite string, c catalog.Case, from, to runner.State) {
	s.publish(NewTransitionEvent(suite, c.ID, from, to))
}

// OnVerdict publishes a finished case.
func (s *Server) OnVerdict(v runner.Verdict) {
	s.publish(NewVerdictEvent(v))
}

// SetReport stores the final report for /api/report and publishes the totals.
func (s *Server) SetReport(rep runner.Report) {
	s.mu.Lock()
	s.report = &rep
	s.mu.Unlock()
	s.publish(NewReportEvent(rep))
}

// Buffer returns the server's event buffer.
func (s *Server) Buffer() *Buffer {
	return s.buffer
}

func (s *Server) publish(e Event) {
	if err := s.Publish(e); err != nil {
		log.Printf("[WARN] %v", err)
	}
}

// Handler returns the http handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/events", s.sse)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/report", s.handleReport)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Start runs the http server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the http server on the given listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// sse connections are long-lived, close them first so the http shutdown doesn't wait for them
		if err := s.sse.Shutdown(shutdownCtx); err != nil {
			log.Printf("[DEBUG] sse shutdown: %v", err)
		}
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// templateData holds data for the dashboard template.
type templateData struct {
	Target string
}

// handleIndex serves the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, templateData{Target: s.cfg.Target}); err != nil {
		http.Error(w, "template execution error", http.StatusInternalServerError)
		return
	}
}

// handleHistory serves all buffered events, the page replays them before subscribing.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	events := s.buffer.All()
	if events == nil {
		events = []Event{}
	}
	writeJSON(w, events)
}

// handleReport serves the final report, 404 while the run is in progress.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	rep := s.report
	s.mu.Unlock()
	if rep == nil {
		http.Error(w, "run in progress", http.StatusNotFound)
		return
	}
	writeJSON(w, rep)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WARN] failed to encode response: %v", err)
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
