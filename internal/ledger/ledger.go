// Package ledger applies realized transactions to account balances and keeps
// the append-only balance history. Plan transactions never move a balance.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
)

// Register applies a newly realized transaction: income adds to the receiving
// account, expense subtracts from the paying account, transfer does both.
// It returns the full account slice with touched rows updated (version
// bumped, stamps set) and one history row per touched account.
func Register(accounts []core.Account, t core.Transaction, by string, now time.Time) ([]core.Account, []core.AccountHistory) {
	return apply(accounts, deltas(t, t.Amount), t.ID, core.HistoryRegist, by, now)
}

// Update applies the delta between the new and previous amount. An update
// that leaves the amount unchanged writes nothing.
func Update(accounts []core.Account, t core.Transaction, previousAmount decimal.Decimal, by string, now time.Time) ([]core.Account, []core.AccountHistory) {
	diff := t.Amount.Sub(previousAmount)
	if diff.IsZero() {
		return accounts, nil
	}
	return apply(accounts, deltas(t, diff), t.ID, core.HistoryUpdate, by, now)
}

// Delete reverses the register delta.
func Delete(accounts []core.Account, t core.Transaction, by string, now time.Time) ([]core.Account, []core.AccountHistory) {
	return apply(accounts, deltas(t, t.Amount.Neg()), t.ID, core.HistoryDelete, by, now)
}

// deltas maps account ids to signed balance changes for an amount moved by t.
// Plans and deleted rows contribute nothing.
func deltas(t core.Transaction, amount decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	if t.ProjectType != core.ProjectActual || t.Deleted {
		return out
	}
	switch t.Type {
	case core.TypeIncome:
		out[t.AccountIn] = amount
	case core.TypeExpense:
		out[t.AccountOut] = amount.Neg()
	case core.TypeTransfer:
		out[t.AccountOut] = amount.Neg()
		out[t.AccountIn] = amount
	}
	delete(out, "")
	return out
}

func apply(accounts []core.Account, d map[string]decimal.Decimal, transactionID string, status core.HistoryStatus, by string, now time.Time) ([]core.Account, []core.AccountHistory) {
	if len(d) == 0 {
		return accounts, nil
	}

	out := append([]core.Account(nil), accounts...)
	var history []core.AccountHistory
	for i, a := range out {
		delta, ok := d[a.ID]
		if !ok {
			continue
		}
		a.Balance = a.Balance.Add(delta)
		a.Version = core.NextVersion(a.Version)
		a.UpdatedBy = by
		a.UpdatedAt = now
		out[i] = a
		history = append(history, core.AccountHistory{
			ID:            uuid.NewString(),
			AccountID:     a.ID,
			TransactionID: transactionID,
			Balance:       a.Balance,
			Status:        status,
			CreatedAt:     now,
		})
	}
	return out, history
}

// RecalculateAll rebuilds every passed account's balance from scratch by
// replaying the non-deleted realized transactions in ascending
// (effectiveDate, id) order, starting from zero. The outcome matches what
// sequential Register calls would have produced. Accounts whose stored
// balance already matches are left untouched. Repair history rows carry no
// TransactionID since the drift has no single responsible transaction.
func RecalculateAll(accounts []core.Account, transactions []core.Transaction, by string, now time.Time) ([]core.Account, []core.AccountHistory) {
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}

	actuals := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.ProjectType == core.ProjectActual && !t.Deleted {
			actuals = append(actuals, t)
		}
	}
	sort.Slice(actuals, func(i, j int) bool {
		di, dj := actuals[i].EffectiveDate(), actuals[j].EffectiveDate()
		if !di.Equal(dj.Time) {
			return di.Before(dj.Time)
		}
		return actuals[i].ID < actuals[j].ID
	})

	balances := make(map[string]decimal.Decimal, len(accounts))
	for _, t := range actuals {
		for id, delta := range deltas(t, t.Amount) {
			if known[id] {
				balances[id] = balances[id].Add(delta)
			}
		}
	}

	out := append([]core.Account(nil), accounts...)
	var history []core.AccountHistory
	for i, a := range out {
		replayed := balances[a.ID]
		if a.Balance.Equal(replayed) {
			continue
		}
		a.Balance = replayed
		a.Version = core.NextVersion(a.Version)
		a.UpdatedBy = by
		a.UpdatedAt = now
		out[i] = a
		history = append(history, core.AccountHistory{
			ID:        uuid.NewString(),
			AccountID: a.ID,
			Balance:   a.Balance,
			Status:    core.HistoryUpdate,
			CreatedAt: now,
		})
	}
	return out, history
}
