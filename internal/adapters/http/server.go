// Package httpadapter exposes the REST surface on chi.
package httpadapter

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"weblser/internal/fetcher"
	"weblser/internal/ports"
	"weblser/internal/report"
	"weblser/internal/services/analyses"
	"weblser/internal/services/audits"
	"weblser/internal/services/compliance"
)

type Server struct {
	analyses   *analyses.Service
	audits     *audits.Service
	compliance *compliance.Service
	renderer   *report.Renderer
}

func New(an *analyses.Service, au *audits.Service, co *compliance.Service, renderer *report.Renderer) *Server {
	return &Server{analyses: an, audits: au, compliance: co, renderer: renderer}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Get("/analyses/{id}/report", s.handleAnalysisDocument)
		r.Delete("/analyses/{id}", s.handleDeleteAnalysis)
		r.Get("/history", s.handleAnalysisHistory)
		r.Delete("/history", s.handleClearAnalyses)

		r.Route("/audit", func(r chi.Router) {
			r.Post("/analyze", s.handleAudit)
			r.Get("/history/list", s.handleAuditHistory)
			r.Delete("/history/clear", s.handleClearAudits)
			r.Get("/report/{id}/{documentType}", s.handleAuditDocument)
			r.Get("/{id}", s.handleGetAudit)
			r.Delete("/{id}", s.handleDeleteAudit)
		})

		r.Route("/compliance", func(r chi.Router) {
			r.Post("/analyze", s.handleCompliance)
			r.Get("/history/list", s.handleComplianceHistory)
			r.Get("/{id}", s.handleGetCompliance)
			r.Delete("/{id}", s.handleDeleteCompliance)
		})
	})

	return r
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURL(w, r)
	if !ok {
		return
	}
	stored, err := s.analyses.Analyze(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	stored, err := s.analyses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleAnalysisHistory(w http.ResponseWriter, r *http.Request) {
	items, total, err := s.analyses.History(r.Context(), limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "items": items})
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.analyses.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleClearAnalyses(w http.ResponseWriter, r *http.Request) {
	if err := s.analyses.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleAnalysisDocument(w http.ResponseWriter, r *http.Request) {
	stored, err := s.analyses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := s.renderer.RenderSummary(&stored.Analysis, brandingOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeHTML(w, doc)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURL(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("async") == "true" {
		stored, err := s.audits.Enqueue(r.Context(), req.URL)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, stored)
		return
	}

	deep := r.URL.Query().Get("deep") == "true"
	stored, err := s.audits.Run(r.Context(), req.URL, deep)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	stored, err := s.audits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleAuditHistory(w http.ResponseWriter, r *http.Request) {
	items, total, err := s.audits.History(r.Context(), limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "items": items})
}

func (s *Server) handleDeleteAudit(w http.ResponseWriter, r *http.Request) {
	if err := s.audits.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleClearAudits(w http.ResponseWriter, r *http.Request) {
	if err := s.audits.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleAuditDocument(w http.ResponseWriter, r *http.Request) {
	docType, err := report.ParseDocumentType(chi.URLParam(r, "documentType"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	stored, err := s.audits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if stored.Report == nil {
		writeDetail(w, http.StatusConflict, "audit has no report yet")
		return
	}
	doc, err := s.renderer.RenderAudit(docType, stored.Report, brandingOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeHTML(w, doc)
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURL(w, r)
	if !ok {
		return
	}
	stored, err := s.compliance.Run(r.Context(), req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleGetCompliance(w http.ResponseWriter, r *http.Request) {
	stored, err := s.compliance.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleComplianceHistory(w http.ResponseWriter, r *http.Request) {
	items, total, err := s.compliance.History(r.Context(), limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "items": items})
}

func (s *Server) handleDeleteCompliance(w http.ResponseWriter, r *http.Request) {
	if err := s.compliance.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// helpers

func decodeURL(w http.ResponseWriter, r *http.Request) (analyzeRequest, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.URL == "" {
		writeDetail(w, http.StatusBadRequest, "url is required")
		return req, false
	}
	return req, true
}

func brandingOptions(r *http.Request) report.Options {
	q := r.URL.Query()
	return report.Options{
		ClientName:     q.Get("client_name"),
		CompanyName:    q.Get("company_name"),
		CompanyDetails: q.Get("company_details"),
		DarkTheme:      q.Get("theme") == "dark",
	}
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeHTML(w http.ResponseWriter, doc []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// writeError maps domain failures onto status codes: unreachable targets are
// a bad gateway, unknown IDs a 404, everything else a 500.
func writeError(w http.ResponseWriter, err error) {
	var fe *fetcher.FetchError
	switch {
	case errors.As(err, &fe):
		writeDetail(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "not found")
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}
