package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type registerRunRequest struct {
	ExecutionID string `json:"execution_id"`
	ThreadID    string `json:"thread_id"`
	ApprovalID  string `json:"approval_id"`
}

// runRoutes lets the embedding agent hand a suspended run to the daemon and
// poll what became of it. The approvals surface itself stays in httpapi.
func runRoutes(r chi.Router, runs *RunRegistry) {
	r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
		var body registerRunRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeRunJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(body.ApprovalID) == "" {
			writeRunJSON(w, http.StatusBadRequest, map[string]string{"error": "approval_id is required"})
			return
		}
		info, err := runs.Register(body.ExecutionID, body.ThreadID, body.ApprovalID)
		if err != nil {
			writeRunJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeRunJSON(w, http.StatusCreated, info)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		info, ok := runs.Get(chi.URLParam(req, "id"))
		if !ok {
			writeRunJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeRunJSON(w, http.StatusOK, info)
	})
}

func writeRunJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
