package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func account(id, version string, balance int64) core.Account {
	return core.Account{ID: id, Version: version, Balance: decimal.NewFromInt(balance)}
}

func actual(id string, typ core.TransactionType, amount int64, in, out string) core.Transaction {
	return core.Transaction{
		ID:          id,
		ProjectType: core.ProjectActual,
		Type:        typ,
		Amount:      decimal.NewFromInt(amount),
		AccountIn:   in,
		AccountOut:  out,
		DateFrom:    core.NewDate(2024, 5, 1),
	}
}

func balanceOf(t *testing.T, accounts []core.Account, id string) decimal.Decimal {
	t.Helper()
	for _, a := range accounts {
		if a.ID == id {
			return a.Balance
		}
	}
	t.Fatalf("account %s not found", id)
	return decimal.Zero
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		tx          core.Transaction
		wantBank    int64
		wantCash    int64
		wantHistory int
	}{
		{
			name:        "income adds to receiving account",
			tx:          actual("tx-1", core.TypeIncome, 500, "bank", ""),
			wantBank:    1500,
			wantCash:    200,
			wantHistory: 1,
		},
		{
			name:        "expense subtracts from paying account",
			tx:          actual("tx-1", core.TypeExpense, 150, "", "cash"),
			wantBank:    1000,
			wantCash:    50,
			wantHistory: 1,
		},
		{
			name:        "transfer moves between accounts",
			tx:          actual("tx-1", core.TypeTransfer, 300, "cash", "bank"),
			wantBank:    700,
			wantCash:    500,
			wantHistory: 2,
		},
		{
			name:        "plan rows never move balances",
			tx:          core.Transaction{ID: "p-1", ProjectType: core.ProjectPlan, Type: core.TypeExpense, Amount: decimal.NewFromInt(999), AccountOut: "bank"},
			wantBank:    1000,
			wantCash:    200,
			wantHistory: 0,
		},
		{
			name: "deleted rows never move balances",
			tx: core.Transaction{
				ID: "tx-1", ProjectType: core.ProjectActual, Type: core.TypeExpense,
				Amount: decimal.NewFromInt(100), AccountOut: "bank", Deleted: true,
			},
			wantBank:    1000,
			wantCash:    200,
			wantHistory: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := []core.Account{account("bank", "1", 1000), account("cash", "1", 200)}
			got, history := Register(accounts, tt.tx, "tester", testNow)

			if b := balanceOf(t, got, "bank"); !b.Equal(decimal.NewFromInt(tt.wantBank)) {
				t.Errorf("bank balance = %s, want %d", b, tt.wantBank)
			}
			if b := balanceOf(t, got, "cash"); !b.Equal(decimal.NewFromInt(tt.wantCash)) {
				t.Errorf("cash balance = %s, want %d", b, tt.wantCash)
			}
			if len(history) != tt.wantHistory {
				t.Errorf("history rows = %d, want %d", len(history), tt.wantHistory)
			}
		})
	}
}

func TestRegister_BumpsVersionAndStamps(t *testing.T) {
	accounts := []core.Account{account("bank", "3", 1000)}
	got, history := Register(accounts, actual("tx-1", core.TypeIncome, 100, "bank", ""), "tester", testNow)

	if got[0].Version != "4" {
		t.Errorf("version = %s, want 4", got[0].Version)
	}
	if got[0].UpdatedBy != "tester" {
		t.Errorf("updatedBy = %s, want tester", got[0].UpdatedBy)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	h := history[0]
	if h.AccountID != "bank" || h.TransactionID != "tx-1" || h.Status != core.HistoryRegist {
		t.Errorf("history = %+v, want account bank, transaction tx-1, status regist", h)
	}
	if !h.Balance.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("history balance = %s, want 1100", h.Balance)
	}
	// Input slice untouched.
	if !accounts[0].Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("input balance mutated to %s", accounts[0].Balance)
	}
}

func TestRegisterThenDeleteRestoresBalances(t *testing.T) {
	accounts := []core.Account{account("bank", "1", 1000), account("cash", "1", 200)}
	tx := actual("tx-1", core.TypeTransfer, 250, "cash", "bank")

	after, _ := Register(accounts, tx, "tester", testNow)
	restored, _ := Delete(after, tx, "tester", testNow)

	if b := balanceOf(t, restored, "bank"); !b.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("bank balance = %s, want 1000", b)
	}
	if b := balanceOf(t, restored, "cash"); !b.Equal(decimal.NewFromInt(200)) {
		t.Errorf("cash balance = %s, want 200", b)
	}
}

func TestUpdate(t *testing.T) {
	accounts := []core.Account{account("bank", "1", 1000)}
	tx := actual("tx-1", core.TypeExpense, 80, "", "bank")

	t.Run("applies only the delta", func(t *testing.T) {
		got, history := Update(accounts, tx, decimal.NewFromInt(50), "tester", testNow)
		if b := balanceOf(t, got, "bank"); !b.Equal(decimal.NewFromInt(970)) {
			t.Errorf("bank balance = %s, want 970", b)
		}
		if len(history) != 1 || history[0].Status != core.HistoryUpdate {
			t.Errorf("history = %+v, want one update row", history)
		}
	})

	t.Run("unchanged amount writes nothing", func(t *testing.T) {
		got, history := Update(accounts, tx, decimal.NewFromInt(80), "tester", testNow)
		if len(history) != 0 {
			t.Errorf("history rows = %d, want 0", len(history))
		}
		if got[0].Version != "1" {
			t.Errorf("version = %s, want unchanged 1", got[0].Version)
		}
	})
}

func TestDeltas_SkipsBlankAccounts(t *testing.T) {
	tx := actual("tx-1", core.TypeIncome, 100, "", "")
	accounts := []core.Account{account("bank", "1", 1000)}
	got, history := Register(accounts, tx, "tester", testNow)
	if len(history) != 0 {
		t.Errorf("history rows = %d, want 0", len(history))
	}
	if b := balanceOf(t, got, "bank"); !b.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("bank balance = %s, want 1000", b)
	}
}

func TestRecalculateAll(t *testing.T) {
	txs := []core.Transaction{
		actual("tx-2", core.TypeExpense, 300, "", "bank"),
		actual("tx-1", core.TypeIncome, 1000, "bank", ""),
		actual("tx-3", core.TypeTransfer, 100, "cash", "bank"),
		// Deleted and plan rows are ignored in the replay.
		{ID: "tx-4", ProjectType: core.ProjectActual, Type: core.TypeExpense, Amount: decimal.NewFromInt(999), AccountOut: "bank", Deleted: true},
		{ID: "p-1", ProjectType: core.ProjectPlan, Type: core.TypeExpense, Amount: decimal.NewFromInt(999), AccountOut: "bank"},
	}

	t.Run("repairs drifted balances", func(t *testing.T) {
		accounts := []core.Account{account("bank", "1", 0), account("cash", "1", 0)}
		got, history := RecalculateAll(accounts, txs, "tester", testNow)

		if b := balanceOf(t, got, "bank"); !b.Equal(decimal.NewFromInt(600)) {
			t.Errorf("bank balance = %s, want 600", b)
		}
		if b := balanceOf(t, got, "cash"); !b.Equal(decimal.NewFromInt(100)) {
			t.Errorf("cash balance = %s, want 100", b)
		}
		if len(history) != 2 {
			t.Errorf("history rows = %d, want 2", len(history))
		}
		for _, h := range history {
			if h.TransactionID != "" {
				t.Errorf("repair row TransactionID = %s, want blank", h.TransactionID)
			}
			if h.Status != core.HistoryUpdate {
				t.Errorf("repair row status = %s, want %s", h.Status, core.HistoryUpdate)
			}
		}
	})

	t.Run("matching balances untouched", func(t *testing.T) {
		accounts := []core.Account{account("bank", "5", 600), account("cash", "2", 100)}
		got, history := RecalculateAll(accounts, txs, "tester", testNow)

		if len(history) != 0 {
			t.Errorf("history rows = %d, want 0", len(history))
		}
		if got[0].Version != "5" || got[1].Version != "2" {
			t.Errorf("versions = %s,%s, want unchanged 5,2", got[0].Version, got[1].Version)
		}
	})

	t.Run("unknown accounts in transactions ignored", func(t *testing.T) {
		accounts := []core.Account{account("cash", "1", 0)}
		got, _ := RecalculateAll(accounts, txs, "tester", testNow)
		if b := balanceOf(t, got, "cash"); !b.Equal(decimal.NewFromInt(100)) {
			t.Errorf("cash balance = %s, want 100", b)
		}
	})
}
