package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"budget/internal/log"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Export(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", attachment("budget-%s.json"))
	_, _ = w.Write(data)
}

// handleImport replaces the ledger with an uploaded export. The body is the
// raw JSON document; a rejected document leaves the ledger untouched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Import(r.Context(), r.Body, s.importLimit); err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statsResponse(s.svc.Stats()))
}

func (s *Server) handleExpenseLogXLSX(w http.ResponseWriter, r *http.Request) {
	q, err := parseLogQuery(r)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.WriteExpenseLogXLSX(r.Context(), &buf, q); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment("expenses-%s.xlsx"))
	_, _ = buf.WriteTo(w)
}

func attachment(pattern string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, fmt.Sprintf(pattern, time.Now().Format("2006-01-02")))
}
