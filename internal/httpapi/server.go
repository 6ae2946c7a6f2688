// Package httpapi exposes the triage engine over HTTP: incident intake,
// state inspection, gate approvals, and the final report, behind a chi
// router.
package httpapi

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kestrelops/pathtriage/internal/audit"
	"github.com/kestrelops/pathtriage/internal/checkpoint"
	"github.com/kestrelops/pathtriage/internal/incident"
	"github.com/kestrelops/pathtriage/internal/workflow"
)

// #endregion

// #region server

// maxBodyBytes caps incident submissions.
const maxBodyBytes = 1 << 20

// Lister enumerates stored incidents for the listing endpoint.
type Lister interface {
	List() ([]checkpoint.Summary, error)
}

// Server wires the triage engine behind a chi router.
type Server struct {
	engine *workflow.Engine
	lister Lister
	trail  *audit.Log
	router chi.Router
	addr   string
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Addr   string // listen address (default: "127.0.0.1:8713")
	Lister Lister // optional, enables GET /incidents
	Trail  *audit.Log
}

// NewServer creates a Server and sets up routing.
func NewServer(engine *workflow.Engine, cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8713"
	}
	s := &Server{
		engine: engine,
		lister: cfg.Lister,
		trail:  cfg.Trail,
		addr:   cfg.Addr,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/incidents", func(r chi.Router) {
		r.Post("/", s.handleStart)
		r.Get("/", s.handleList)

		r.Route("/{incidentID}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Post("/approve-diagnosis", s.gateHandler(workflow.StepReviewDiagnosis))
			r.Post("/approve-commands", s.gateHandler(workflow.StepReviewCommands))
			r.Post("/resume", s.handleResume)
			r.Post("/cancel", s.handleCancel)
			r.Get("/report", s.handleReport)
			r.Get("/events", s.handleEvents)
		})
	})

	return r
}

// ListenAndServe blocks serving HTTP on the configured address.
func (s *Server) ListenAndServe() error {
	log.Printf("[HTTP] listening on %s", s.addr)
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// #endregion server

// #region handlers

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type startRequest struct {
	IncidentID string           `json:"incident_id"`
	Incident   incident.Context `json:"incident"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.IncidentID == "" {
		http.Error(w, "incident_id is required", http.StatusBadRequest)
		return
	}
	if req.Incident.HotPath == "" {
		http.Error(w, "incident.hot_path is required", http.StatusBadRequest)
		return
	}

	st, err := s.engine.Start(r.Context(), req.IncidentID, req.Incident)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	if s.lister == nil {
		http.Error(w, "listing not available", http.StatusNotImplemented)
		return
	}
	items, err := s.lister.List()
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type approvalRequest struct {
	Approved bool   `json:"approved"`
	Approver string `json:"approver"`
	Feedback string `json:"feedback"`
}

// gateHandler builds the approval handler for one gate step.
func (s *Server) gateHandler(step string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "incidentID")
		var req approvalRequest
		if !decodeBody(w, r, &req) {
			return
		}
		st, err := s.engine.SubmitApproval(r.Context(), id, step, req.Approved, req.Approver, req.Feedback)
		if err != nil {
			if errors.Is(err, workflow.ErrNotFound) {
				http.Error(w, "incident not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "incidentID")
	st, err := s.engine.Resume(r.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			http.Error(w, "incident not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "incidentID")
	var req cancelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.engine.Cancel(id, req.Reason)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			http.Error(w, "incident not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	if st.Report == "" {
		http.Error(w, "report not generated", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, st.Report)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		http.Error(w, "audit trail not available", http.StatusNotImplemented)
		return
	}
	id := chi.URLParam(r, "incidentID")
	events, err := s.trail.Events(id)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// #endregion handlers

// #region helpers

func (s *Server) loadState(w http.ResponseWriter, r *http.Request) (workflow.State, bool) {
	id := chi.URLParam(r, "incidentID")
	st, err := s.engine.Get(id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			http.Error(w, "incident not found", http.StatusNotFound)
		} else {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return workflow.State{}, false
	}
	return st, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

// #endregion helpers
