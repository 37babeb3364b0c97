package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
	"lifeplan/internal/log"
	"lifeplan/internal/repo"
	"lifeplan/internal/services"
	"lifeplan/internal/tables/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	sess := repo.NewSession(store)
	if err := sess.SaveAccounts(context.Background(), []core.Account{
		{ID: "bank", Version: "1", OwnerUserID: "owner", Balance: decimal.NewFromInt(1000)},
	}); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}

	transactions := services.NewTransactionService(store, nil, "owner")
	reports := services.NewReportService(store, "owner")
	logger := log.New(log.Config{})
	return NewServer(transactions, reports, "owner", logger), store
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rr.Code)
	}
}

func TestRegisterActualEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	body := `{"transactionType":"expense","dateTo":"2024-05-20","amount":"300","accountIdOut":"bank"}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rr.Code, rr.Body.String())
	}
	var resp transactionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" || resp.Version != "1" {
		t.Errorf("response = %+v, want generated id and version 1", resp)
	}

	accounts, err := repo.NewSession(store).Accounts(context.Background())
	if err != nil {
		t.Fatalf("load accounts: %v", err)
	}
	if !accounts[0].Balance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("bank balance = %s, want 700", accounts[0].Balance)
	}
}

func TestRegisterActualEndpoint_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "missing account",
			body: `{"transactionType":"expense","dateTo":"2024-05-20","amount":"300"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "malformed amount",
			body: `{"transactionType":"expense","dateTo":"2024-05-20","amount":"lots","accountIdOut":"bank"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "malformed date",
			body: `{"transactionType":"expense","dateTo":"20/05/2024","amount":"300","accountIdOut":"bank"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "invalid json",
			body: `{`,
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d, body %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestDeleteActualEndpoint_StaleVersionConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"transactionType":"expense","dateTo":"2024-05-20","amount":"300","accountIdOut":"bank"}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	srv.Handler().ServeHTTP(rr, req)
	var resp transactionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/transactions/"+resp.ID+"?version=99", nil)
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Errorf("stale delete status = %d, want 409", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/transactions/"+resp.ID+"?version="+resp.Version, nil)
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/transactions/missing?version=1", nil)
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Errorf("missing delete status = %d, want 409", rr.Code)
	}
}

func TestListAccountsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var accounts []accountResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "bank" || accounts[0].Balance != "1000" {
		t.Errorf("accounts = %+v, want [bank/1000]", accounts)
	}
}

func TestCashFlowEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	plan := core.Transaction{
		ID: "p-1", ProjectType: core.ProjectPlan, Type: core.TypeExpense,
		Frequency: core.FreqDay, DateTo: core.NewDate(2099, 4, 10),
		PlanStatus: core.StatusPlanning,
		Amount:     decimal.NewFromInt(1500), AccountOut: "bank",
	}
	if err := repo.NewSession(store).SaveTransactions(context.Background(), []core.Transaction{plan}); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cashflow", nil)
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	var resp cashFlowResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Overflows) != 1 {
		t.Fatalf("overflows = %d, want 1", len(resp.Overflows))
	}
	if resp.Overflows[0].Shortfall != "1500" {
		t.Errorf("shortfall = %s, want 1500", resp.Overflows[0].Shortfall)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/recalculate", nil)
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}
