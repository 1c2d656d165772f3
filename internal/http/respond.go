// Package http provides the JSON API, SVG chart endpoints and dashboard page.
//
// This file holds the response helpers. Errors are written as RFC 7807
// problem documents so that every client sees the same shape.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/transfer"
)

const problemContentType = "application/problem+json"

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problem(status int, title, detail string) ProblemDetail {
	return ProblemDetail{Title: title, Status: status, Detail: detail}
}

// problemFor maps a service error onto a status code. Internal errors keep
// their detail out of the response.
func problemFor(err error) ProblemDetail {
	var ve *core.ValidationError
	switch {
	case errors.Is(err, transfer.ErrImportFormat):
		return problem(http.StatusBadRequest, "Invalid import file", err.Error())
	case errors.As(err, &ve):
		p := problem(http.StatusBadRequest, "Validation failed", ve.Error())
		p.Field = ve.Field
		return p
	case errors.Is(err, core.ErrValidation):
		return problem(http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, core.ErrNotFound):
		return problem(http.StatusNotFound, "Not found", err.Error())
	default:
		return problem(http.StatusInternalServerError, "Internal server error", "")
	}
}

// writeError logs server-side failures and writes the matching problem.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	p := problemFor(err)
	if p.Status >= http.StatusInternalServerError {
		s.events.LogError(r.Context(), "Request failed", err, op,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
	}
	writeProblem(w, p)
}
