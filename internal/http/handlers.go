package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
)

type transactionRequest struct {
	ID              string   `json:"id"`
	Version         string   `json:"version"`
	TransactionType string   `json:"transactionType"`
	DateFrom        string   `json:"dateFrom"`
	DateTo          string   `json:"dateTo"`
	Frequency       string   `json:"frequency"`
	Interval        int      `json:"interval"`
	CycleUnit       string   `json:"cycleUnit"`
	PlanStatus      string   `json:"planStatus"`
	Amount          string   `json:"amount"`
	AccountIDIn     string   `json:"accountIdIn"`
	AccountIDOut    string   `json:"accountIdOut"`
	PlanID          string   `json:"planId"`    // actual only: occurrence being satisfied
	ActualIDs       []string `json:"actualIds"` // plan only: replacement link set
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return core.Transaction{}, core.ErrInvalidAmount
	}

	t := core.Transaction{
		ID:         req.ID,
		Version:    core.NormalizeVersion(req.Version),
		Type:       core.TransactionType(req.TransactionType),
		Frequency:  core.Frequency(req.Frequency),
		Interval:   req.Interval,
		CycleUnit:  req.CycleUnit,
		PlanStatus: core.PlanStatus(req.PlanStatus),
		Amount:     amount,
		AccountIn:  req.AccountIDIn,
		AccountOut: req.AccountIDOut,
	}
	if req.DateFrom != "" {
		if t.DateFrom, err = core.ParseDate(req.DateFrom); err != nil {
			return core.Transaction{}, core.ErrInvalidDateRange
		}
	}
	if req.DateTo != "" {
		if t.DateTo, err = core.ParseDate(req.DateTo); err != nil {
			return core.Transaction{}, core.ErrInvalidDateRange
		}
	}
	return t, nil
}

type transactionResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

func (s *Server) handleRegisterActual(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := s.transactions.RegisterActual(r.Context(), t, req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{ID: saved.ID, Version: saved.Version})
}

func (s *Server) handleUpdateActual(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	req.ID = r.PathValue("id")
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := s.transactions.UpdateActual(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{ID: saved.ID, Version: saved.Version})
}

func (s *Server) handleDeleteActual(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version := r.URL.Query().Get("version")
	if err := s.transactions.DeleteActual(r.Context(), id, version); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	plan, err := req.toTransaction()
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := s.transactions.SavePlan(r.Context(), plan, req.ActualIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{ID: saved.ID, Version: saved.Version})
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version := r.URL.Query().Get("version")
	if err := s.transactions.DeletePlan(r.Context(), id, version); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeDateRequest struct {
	Version string `json:"version"`
	Date    string `json:"date"`
}

func (s *Server) handleCompletePlanDate(w http.ResponseWriter, r *http.Request) {
	var req completeDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		badRequest(w, "invalid date")
		return
	}
	saved, err := s.transactions.CompletePlanDate(r.Context(), r.PathValue("id"), req.Version, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{ID: saved.ID, Version: saved.Version})
}

type accountResponse struct {
	ID        string `json:"id"`
	Version   string `json:"version"`
	Balance   string `json:"balance"`
	SortOrder int    `json:"sortOrder"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.transactions.VisibleAccounts(r.Context(), s.userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = accountResponse{
			ID:        a.ID,
			Version:   a.Version,
			Balance:   core.FormatAmount(a.Balance),
			SortOrder: a.SortOrder,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type monthRowResponse struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
	Funds   string `json:"funds"`
}

type overflowResponse struct {
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	FundsBefore   string `json:"fundsBefore"`
	FundsAfter    string `json:"fundsAfter"`
	MonthsFromNow int    `json:"monthsFromNow"`
	Shortfall     string `json:"shortfall"`
	MonthlySaving string `json:"monthlySaving"`
}

type cashFlowResponse struct {
	CompletedFunds string             `json:"completedFunds"`
	Monthly        []monthRowResponse `json:"monthly"`
	Overflows      []overflowResponse `json:"overflows"`
	TotalShortfall string             `json:"totalShortfall"`
	MonthlySaving  string             `json:"monthlySaving"`
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.CashFlow(r.Context(), core.Today())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := cashFlowResponse{
		CompletedFunds: core.FormatAmount(report.CompletedFunds),
		TotalShortfall: core.FormatAmount(report.Overflow.TotalShortfall),
		MonthlySaving:  core.FormatAmount(report.Overflow.MonthlySaving),
	}
	for _, row := range report.Monthly {
		resp.Monthly = append(resp.Monthly, monthRowResponse{
			Year:    row.Year,
			Month:   row.Month,
			Income:  core.FormatAmount(row.Income),
			Expense: core.FormatAmount(row.Expense),
			Balance: core.FormatAmount(row.Balance),
			Funds:   core.FormatAmount(row.Funds),
		})
	}
	for _, o := range report.Overflow.Entries {
		resp.Overflows = append(resp.Overflows, overflowResponse{
			Date:          o.Date.String(),
			Amount:        core.FormatAmount(o.Amount),
			FundsBefore:   core.FormatAmount(o.FundsBefore),
			FundsAfter:    core.FormatAmount(o.FundsAfter),
			MonthsFromNow: o.MonthsFromNow,
			Shortfall:     core.FormatAmount(o.Shortfall),
			MonthlySaving: core.FormatAmount(o.MonthlySaving),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type monthlyAggregateResponse struct {
	AccountID   string `json:"accountId"`
	ProjectType string `json:"projectType"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Income      string `json:"income"`
	Expense     string `json:"expense"`
	Balance     string `json:"balance"`
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.Monthly(r.Context(), s.userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]monthlyAggregateResponse, len(rows))
	for i, row := range rows {
		out[i] = monthlyAggregateResponse{
			AccountID:   row.AccountID,
			ProjectType: string(row.ProjectType),
			Year:        row.Year,
			Month:       row.Month,
			Income:      core.FormatAmount(row.Income),
			Expense:     core.FormatAmount(row.Expense),
			Balance:     core.FormatAmount(row.Balance),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.RecomputeMonthly(r.Context(), s.userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.RecalculateBalances(r.Context(), s.userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type delayedPlanResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Amount  string `json:"amount"`
	DateTo  string `json:"dateTo"`
}

func (s *Server) handleDelayedPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.reports.DelayedPlans(r.Context(), core.Today())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]delayedPlanResponse, len(plans))
	for i, p := range plans {
		out[i] = delayedPlanResponse{
			ID:      p.ID,
			Version: p.Version,
			Amount:  core.FormatAmount(p.Amount),
			DateTo:  p.DateTo.String(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}
