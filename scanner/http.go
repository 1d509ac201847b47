package scanner

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/structaudit/structaudit/store"
	"github.com/structaudit/structaudit/structure"
)

// RegisterRoutes mounts the scanner API on a chi router:
//
//	POST   /scans                 fetch, analyze and persist a URL
//	GET    /scans                 list recent scans
//	GET    /scans/{scanID}        one scan with its full result
//	GET    /scans/{scanID}/report markdown report
//	POST   /analyze               analyze raw markup, no persistence
//	DELETE /cache                 evict one URL from the content cache
//	GET    /events                recent scan lifecycle events
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Post("/scans", s.handleCreateScan)
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{scanID}", s.handleGetScan)
	r.Get("/scans/{scanID}/report", s.handleScanReport)
	r.Post("/analyze", s.handleAnalyze)
	r.Delete("/cache", s.handleClearCache)
	r.Get("/events", s.handleListEvents)
}

type scanRequest struct {
	URL   string   `json:"url"`
	Types []string `json:"types,omitempty"`
}

func (s *Service) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decode_error", err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url_required", "url field is required")
		return
	}

	scan, err := s.ScanURL(r.Context(), req.URL, structure.ParseTypes(req.Types)...)
	if err != nil {
		// Fetch and analysis failures surface to the caller; nothing is
		// retried here.
		writeError(w, http.StatusBadGateway, "scan_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, scan)
}

func (s *Service) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no_store", "scan persistence is not configured")
		return
	}
	scans, err := s.store.ListScans(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": scans})
}

func (s *Service) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scan, ok := s.loadScan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (s *Service) handleScanReport(w http.ResponseWriter, r *http.Request) {
	scan, ok := s.loadScan(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.Report(scan.URL, scan.Result)))
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HTML  string   `json:"html"`
		Types []string `json:"types,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decode_error", err.Error())
		return
	}
	if req.HTML == "" {
		writeError(w, http.StatusBadRequest, "html_required", "html field is required")
		return
	}

	res, err := s.AnalyzeHTML([]byte(req.HTML), structure.ParseTypes(req.Types)...)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "analyze_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleClearCache(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "url_required", "url query parameter is required")
		return
	}
	s.ClearCache(pageURL)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "no_events", "event recording is not configured")
		return
	}
	events, err := s.events.Recent(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "events_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Service) loadScan(w http.ResponseWriter, r *http.Request) (*store.Scan, bool) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no_store", "scan persistence is not configured")
		return nil, false
	}
	id := chi.URLParam(r, "scanID")
	scan, err := s.store.GetScan(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_failed", err.Error())
		return nil, false
	}
	if scan == nil {
		writeError(w, http.StatusNotFound, "not_found", "scan not found")
		return nil, false
	}
	return scan, true
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: code, Message: message})
}
