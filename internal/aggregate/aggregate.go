// Package aggregate builds the per-account, per-month income/expense rows for
// both plan and actual transactions. Rows for a recomputed account are always
// replaced wholesale, never patched.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
	"lifeplan/internal/schedule"
)

type bucketKey struct {
	accountID   string
	projectType core.ProjectType
	year        int
	month       int
}

// Recompute produces fresh MonthlyAggregate rows for the given accounts.
// Actual rows bucket by their effective date; plan rows still in planning
// status expand through the occurrence calculator, so one plan row may feed
// several months. A transfer contributes to both the paying account's expense
// side and the receiving account's income side. Output order is
// deterministic, so reruns over unchanged data are byte-identical.
func Recompute(accountIDs []string, transactions []core.Transaction) []core.MonthlyAggregate {
	visible := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		visible[id] = true
	}

	buckets := make(map[bucketKey]*core.MonthlyAggregate)
	add := func(accountID string, projectType core.ProjectType, d core.Date, income, expense decimal.Decimal) {
		if accountID == "" || !visible[accountID] || d.IsZero() {
			return
		}
		key := bucketKey{accountID: accountID, projectType: projectType, year: d.Year(), month: d.Month()}
		b, ok := buckets[key]
		if !ok {
			b = &core.MonthlyAggregate{
				AccountID:   accountID,
				ProjectType: projectType,
				Year:        d.Year(),
				Month:       d.Month(),
			}
			buckets[key] = b
		}
		b.Income = b.Income.Add(income)
		b.Expense = b.Expense.Add(expense)
	}

	book := func(t core.Transaction, d core.Date) {
		switch t.Type {
		case core.TypeIncome:
			add(t.AccountIn, t.ProjectType, d, t.Amount, decimal.Zero)
		case core.TypeExpense:
			add(t.AccountOut, t.ProjectType, d, decimal.Zero, t.Amount)
		case core.TypeTransfer:
			add(t.AccountOut, t.ProjectType, d, decimal.Zero, t.Amount)
			add(t.AccountIn, t.ProjectType, d, t.Amount, decimal.Zero)
		}
	}

	for _, t := range transactions {
		if t.Deleted {
			continue
		}
		switch t.ProjectType {
		case core.ProjectActual:
			book(t, t.EffectiveDate())
		case core.ProjectPlan:
			if t.PlanStatus != core.StatusPlanning {
				continue
			}
			for _, d := range schedule.Dates(t) {
				book(t, d)
			}
		}
	}

	out := make([]core.MonthlyAggregate, 0, len(buckets))
	for _, b := range buckets {
		b.Balance = b.Income.Sub(b.Expense)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.ProjectType != b.ProjectType {
			return a.ProjectType < b.ProjectType
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out
}

// Replace merges fresh rows into an existing aggregate table: every prior row
// belonging to a recomputed account is dropped, rows of untouched accounts
// are carried through unchanged.
func Replace(existing []core.MonthlyAggregate, accountIDs []string, fresh []core.MonthlyAggregate) []core.MonthlyAggregate {
	recomputed := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		recomputed[id] = true
	}
	out := make([]core.MonthlyAggregate, 0, len(existing)+len(fresh))
	for _, row := range existing {
		if !recomputed[row.AccountID] {
			out = append(out, row)
		}
	}
	return append(out, fresh...)
}
