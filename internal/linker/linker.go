// Package linker reconciles plan occurrences against realized transactions.
// An occurrence is completed when it was marked done by hand (the plan's
// completedPlanDates set) or when a linked actual falls on that date;
// everything else is open.
package linker

import (
	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
	"lifeplan/internal/schedule"
)

// Occurrence is one classified occurrence of a plan. For a completed
// occurrence satisfied by an actual, Amount and Type come from the actual;
// otherwise they are the plan's own.
type Occurrence struct {
	Date   core.Date
	Type   core.TransactionType
	Amount decimal.Decimal
}

// Linker indexes the link table against the realized transactions it points
// at. Deleted actuals never satisfy an occurrence.
type Linker struct {
	byPlan map[string][]core.Transaction
}

func New(links []core.PlanActualLink, actuals []core.Transaction) *Linker {
	byID := make(map[string]core.Transaction, len(actuals))
	for _, a := range actuals {
		if a.ProjectType != core.ProjectActual || a.Deleted {
			continue
		}
		byID[a.ID] = a
	}

	byPlan := make(map[string][]core.Transaction)
	for _, l := range links {
		if a, ok := byID[l.ActualTransactionID]; ok {
			byPlan[l.PlanTransactionID] = append(byPlan[l.PlanTransactionID], a)
		}
	}
	return &Linker{byPlan: byPlan}
}

// ActualOn returns the linked actual whose effective date matches d, if any.
func (l *Linker) ActualOn(plan core.Transaction, d core.Date) (core.Transaction, bool) {
	for _, a := range l.byPlan[plan.ID] {
		if a.EffectiveDate().Equal(d.Time) {
			return a, true
		}
	}
	return core.Transaction{}, false
}

// Open returns the plan's occurrence dates not yet reconciled: neither in the
// completed set nor matched by a linked actual's effective date.
func (l *Linker) Open(plan core.Transaction) []core.Date {
	var out []core.Date
	for _, d := range schedule.Dates(plan) {
		if plan.HasCompletedDate(d) {
			continue
		}
		if _, ok := l.ActualOn(plan, d); ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Completed returns the plan's reconciled occurrences in date order.
func (l *Linker) Completed(plan core.Transaction) []Occurrence {
	var out []Occurrence
	for _, d := range schedule.Dates(plan) {
		if a, ok := l.ActualOn(plan, d); ok {
			out = append(out, Occurrence{Date: d, Type: a.Type, Amount: a.Amount})
			continue
		}
		if plan.HasCompletedDate(d) {
			out = append(out, Occurrence{Date: d, Type: plan.Type, Amount: plan.Amount})
		}
	}
	return out
}

// Delayed reports whether today is past an open occurrence of the plan.
func (l *Linker) Delayed(plan core.Transaction, today core.Date) bool {
	for _, d := range l.Open(plan) {
		if d.Before(today.Time) {
			return true
		}
	}
	return false
}
