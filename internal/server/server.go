// Package server exposes the canonical quarterly records over a small read
// API for the frontend collaborator. It never writes: the pipeline owns the
// documents, and the one piece of logic here — deriving operating income —
// is a read-time view, not a persisted mutation.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lankadata/csepipe/internal/docstore"
	"github.com/lankadata/csepipe/internal/model"
)

// Server serves the read API.
type Server struct {
	store *docstore.Store
}

// New creates a Server over the given document store.
func New(store *docstore.Store) *Server {
	return &Server{store: store}
}

// Router builds the chi router for the read API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/companies", s.handleCompanies)
		r.Get("/companies/{symbol}/financials", s.handleFinancials)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// companyList mirrors the response shape the frontend consumes.
type companyList struct {
	Companies []model.Company `json:"companies"`
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.Companies()
	if err != nil {
		zap.L().Error("list companies failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, companyList{Companies: companies})
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	year := r.URL.Query().Get("year")

	paths, err := s.store.ListDocuments(symbol)
	if err != nil {
		zap.L().Error("list documents failed", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if len(paths) == 0 {
		writeError(w, http.StatusNotFound, "company "+symbol+" not found")
		return
	}

	reports, err := s.store.Reports(symbol, year)
	if err != nil {
		zap.L().Error("read reports failed", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read reports")
		return
	}

	for i := range reports {
		deriveOperatingIncome(&reports[i].FinancialMetrics)
	}
	if reports == nil {
		reports = []model.QuarterlyReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// deriveOperatingIncome fills in operating income from its components when
// all required inputs are present, overriding any extracted value for
// display purposes.
func deriveOperatingIncome(m *model.FinancialMetrics) {
	if v, ok := m.DeriveOperatingIncome(); ok {
		m.OperatingIncome = &v
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
