// Package http exposes the transaction and reporting services over a JSON
// API. Routing uses method-qualified patterns on the standard mux.
package http

import (
	"net/http"

	"lifeplan/internal/log"
	"lifeplan/internal/services"
)

type Server struct {
	transactions *services.TransactionService
	reports      *services.ReportService
	userID       string
	logger       *log.Logger
}

func NewServer(transactions *services.TransactionService, reports *services.ReportService, userID string, logger *log.Logger) *Server {
	return &Server{
		transactions: transactions,
		reports:      reports,
		userID:       userID,
		logger:       logger,
	}
}

// Handler builds the routing table. All mutations go through the
// version-guarded service paths; a 409 means the caller must reload first.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/transactions", s.handleRegisterActual)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateActual)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteActual)

	mux.HandleFunc("POST /api/plans", s.handleSavePlan)
	mux.HandleFunc("DELETE /api/plans/{id}", s.handleDeletePlan)
	mux.HandleFunc("POST /api/plans/{id}/complete", s.handleCompletePlanDate)
	mux.HandleFunc("GET /api/plans/delayed", s.handleDelayedPlans)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/cashflow", s.handleCashFlow)
	mux.HandleFunc("GET /api/monthly", s.handleMonthly)
	mux.HandleFunc("POST /api/monthly/recompute", s.handleRecompute)
	mux.HandleFunc("POST /api/recalculate", s.handleRecalculate)

	mux.HandleFunc("GET /health", s.handleHealth)

	return logging(s.logger, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
