package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/finchly/payguard/approval"
)

// Server exposes the approvals surface over HTTP. Callers are assumed to be
// authenticated upstream; the approver identity arrives in the request body
// and is authorized by the workflow.
type Server struct {
	approvals *approval.Workflow
	log       *slog.Logger
}

func NewServer(approvals *approval.Workflow, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{approvals: approvals, log: log}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/approvals", func(r chi.Router) {
		r.Get("/", s.listPending)
		r.Get("/{id}", s.getApproval)
		r.Post("/{id}/approve", s.decide(approval.StatusApproved))
		r.Post("/{id}/reject", s.decide(approval.StatusRejected))
	})
	return r
}

func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.approvals.ListPending(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]ApprovalView, 0, len(pending))
	for _, rec := range pending {
		views = append(views, newApprovalView(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"approvals": views,
		"count":     len(views),
	})
}

func (s *Server) getApproval(w http.ResponseWriter, r *http.Request) {
	rec, err := s.approvals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newApprovalView(rec))
}

type decisionRequest struct {
	ApproverID   string `json:"approver_id"`
	ApproverRole string `json:"approver_role"`
	Reason       string `json:"reason"`
}

func (s *Server) decide(decision approval.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req decisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
			return
		}
		if strings.TrimSpace(req.ApproverID) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("approver_id is required"))
			return
		}

		sum, err := s.approvals.Decide(r.Context(), chi.URLParam(r, "id"), decision,
			approval.Actor{ID: req.ApproverID, Role: req.ApproverRole}, req.Reason)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approval.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("approval not found"))
	case errors.Is(err, approval.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorBody("approval has already been decided"))
	case errors.Is(err, approval.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, approval.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, errorBody("access denied"))
	default:
		s.log.Error("approvals_api_error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
