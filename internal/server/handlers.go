package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sw33tLie/rulewatch/internal/utils"
	"github.com/sw33tLie/rulewatch/pkg/audit"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/report"
	"github.com/sw33tLie/rulewatch/pkg/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("encoding response: %v", err)
	}
}

// writeError maps archive errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		stats = []storage.DocumentStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.DB.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid snapshot id", http.StatusBadRequest)
		return
	}
	snap, err := s.DB.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// redlineParams reads from, to and the optional context query parameters.
func (s *Server) redlineParams(r *http.Request) (from, to int64, contextLines int, err error) {
	q := r.URL.Query()
	if from, err = strconv.ParseInt(q.Get("from"), 10, 64); err != nil {
		return 0, 0, 0, errors.New("invalid or missing 'from' snapshot id")
	}
	if to, err = strconv.ParseInt(q.Get("to"), 10, 64); err != nil {
		return 0, 0, 0, errors.New("invalid or missing 'to' snapshot id")
	}
	contextLines = s.Context
	if v := q.Get("context"); v != "" {
		if contextLines, err = strconv.Atoi(v); err != nil {
			return 0, 0, 0, errors.New("invalid 'context' value")
		}
	}
	return from, to, contextLines, nil
}

func (s *Server) loadRedline(w http.ResponseWriter, r *http.Request) (report.Report, bool) {
	from, to, contextLines, err := s.redlineParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return report.Report{}, false
	}
	rep, err := audit.Redline(r.Context(), s.DB, from, to, contextLines)
	if err != nil {
		writeError(w, err)
		return report.Report{}, false
	}
	return rep, true
}

func (s *Server) handleRedline(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadRedline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleRedlinePage(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadRedline(w, r)
	if !ok {
		return
	}
	if doc, found := documents.Find(s.Documents, rep.DocumentID); found {
		rep.DocumentName = doc.Label()
		rep.Source = doc.SourceDomain()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(w, rep); err != nil {
		utils.Log.Errorf("rendering redline %d..%d: %v", rep.From.SnapshotID, rep.To.SnapshotID, err)
	}
}

// CheckResponse is the JSON form of an on-demand check.
type CheckResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	SnapshotID int64  `json:"snapshot_id,omitempty"`
	ReportPath string `json:"report_path,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Duration   string `json:"duration"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if s.Auditor == nil {
		http.Error(w, "on-demand checks are disabled", http.StatusNotImplemented)
		return
	}
	doc, ok := documents.Find(s.Documents, chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "unknown document", http.StatusNotFound)
		return
	}

	if s.WriteLock != nil {
		if err := s.WriteLock.Lock(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer s.WriteLock.Unlock()
	}

	out, err := s.Auditor.CheckDocument(r.Context(), doc)
	resp := CheckResponse{
		DocumentID: out.DocumentID,
		Status:     string(out.Status),
		SnapshotID: out.SnapshotID,
		ReportPath: out.ReportPath,
		Summary:    out.Summary,
		Duration:   out.Duration.Round(time.Millisecond).String(),
	}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusBadGateway
		if out.Status == audit.StatusFailed {
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, resp)
}
