// Package projection turns classified plan occurrences into forward-looking
// cash flow: the funds already realized or locked in, the monthly cash-flow
// table, and the points where planned expenses outrun available funds.
//
// Every computation runs over a signed event stream sorted ascending by date
// with income ordered before expense on the same day, so same-day income is
// available to cover a same-day expense.
package projection

import (
	"sort"

	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
	"lifeplan/internal/linker"
)

// Event is one dated money movement in the projection stream. Type is income
// or expense; transfers are expanded or dropped before the stream is built.
type Event struct {
	Date   core.Date
	Type   core.TransactionType
	Amount decimal.Decimal
}

// Options controls transfer handling per computation. The source system was
// never consistent about transfers here, so each caller chooses explicitly.
type Options struct {
	IncludeTransfers bool
}

// CompletedEvents builds the event stream from occurrences already
// reconciled, across all non-canceled, non-deleted plan rows. A completed
// occurrence contributes the linked actual's amount and type when one exists,
// otherwise the plan's own. An included transfer contributes both sides and
// therefore nets to zero in the funds scalar.
func CompletedEvents(plans []core.Transaction, lk *linker.Linker, opts Options) []Event {
	var out []Event
	for _, p := range plans {
		if p.ProjectType != core.ProjectPlan || p.Deleted || p.PlanStatus == core.StatusCanceled {
			continue
		}
		for _, occ := range lk.Completed(p) {
			out = append(out, expandOccurrence(occ, opts)...)
		}
	}
	sortEvents(out)
	return out
}

// OpenEvents builds the event stream from occurrences still open, for plans
// in planning status only.
func OpenEvents(plans []core.Transaction, lk *linker.Linker, opts Options) []Event {
	var out []Event
	for _, p := range plans {
		if p.ProjectType != core.ProjectPlan || p.Deleted || p.PlanStatus != core.StatusPlanning {
			continue
		}
		for _, d := range lk.Open(p) {
			occ := linker.Occurrence{Date: d, Type: p.Type, Amount: p.Amount}
			out = append(out, expandOccurrence(occ, opts)...)
		}
	}
	sortEvents(out)
	return out
}

func expandOccurrence(occ linker.Occurrence, opts Options) []Event {
	switch occ.Type {
	case core.TypeIncome, core.TypeExpense:
		return []Event{{Date: occ.Date, Type: occ.Type, Amount: occ.Amount}}
	case core.TypeTransfer:
		if !opts.IncludeTransfers {
			return nil
		}
		return []Event{
			{Date: occ.Date, Type: core.TypeIncome, Amount: occ.Amount},
			{Date: occ.Date, Type: core.TypeExpense, Amount: occ.Amount},
		}
	}
	return nil
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date.Time) {
			return events[i].Date.Before(events[j].Date.Time)
		}
		// Same-day income before expense.
		return events[i].Type == core.TypeIncome && events[j].Type == core.TypeExpense
	})
}

// CompletedFunds runs the signed accumulator over a completed event stream:
// income adds, expense subtracts. The scalar represents resources already
// realized or locked in.
func CompletedFunds(events []Event) decimal.Decimal {
	funds := decimal.Zero
	for _, e := range events {
		switch e.Type {
		case core.TypeIncome:
			funds = funds.Add(e.Amount)
		case core.TypeExpense:
			funds = funds.Sub(e.Amount)
		}
	}
	return funds
}

// Overflow records one planned expense the running funds cannot cover.
type Overflow struct {
	Date          core.Date
	Amount        decimal.Decimal
	FundsBefore   decimal.Decimal
	FundsAfter    decimal.Decimal
	MonthsFromNow int
	Shortfall     decimal.Decimal
	// MonthlySaving is the catch-up contribution needed to close this
	// entry's shortfall before it occurs: ceil(shortfall / monthsFromNow).
	MonthlySaving decimal.Decimal
}

// OverflowReport aggregates all overflow entries into one required
// monthly-saving figure.
type OverflowReport struct {
	Entries        []Overflow
	TotalShortfall decimal.Decimal
	MonthsToLast   int
	MonthlySaving  decimal.Decimal
}

// Overflows replays the open event stream against a starting funds scalar.
// Every expense the running funds cannot fully cover yields an entry; the
// funds are still debited by the full expense, so deficits persist and
// compound rather than being clipped.
func Overflows(funds decimal.Decimal, events []Event, today core.Date) OverflowReport {
	report := OverflowReport{TotalShortfall: decimal.Zero, MonthlySaving: decimal.Zero}
	for _, e := range events {
		if e.Type == core.TypeIncome {
			funds = funds.Add(e.Amount)
			continue
		}
		before := funds
		funds = funds.Sub(e.Amount)
		if e.Amount.GreaterThan(before) {
			months := core.MonthDelta(today, e.Date)
			if months < 1 {
				months = 1
			}
			shortfall := e.Amount.Sub(before)
			if shortfall.IsNegative() {
				shortfall = decimal.Zero
			}
			report.Entries = append(report.Entries, Overflow{
				Date:          e.Date,
				Amount:        e.Amount,
				FundsBefore:   before,
				FundsAfter:    funds,
				MonthsFromNow: months,
				Shortfall:     shortfall,
				MonthlySaving: ceilDiv(shortfall, months),
			})
			report.TotalShortfall = report.TotalShortfall.Add(shortfall)
			report.MonthsToLast = months
		}
	}
	if len(report.Entries) > 0 {
		report.MonthlySaving = ceilDiv(report.TotalShortfall, report.MonthsToLast)
	}
	return report
}

func ceilDiv(amount decimal.Decimal, months int) decimal.Decimal {
	return amount.Div(decimal.NewFromInt(int64(months))).Ceil()
}

// MonthRow is one line of the monthly cash-flow table.
type MonthRow struct {
	Year    int
	Month   int
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
	// Funds is the forward-accumulated funds after this month.
	Funds decimal.Decimal
}

// MonthlyTable groups the open event stream by calendar month, carrying the
// funds scalar forward through each row.
func MonthlyTable(funds decimal.Decimal, events []Event) []MonthRow {
	var out []MonthRow
	rowFor := func(d core.Date) *MonthRow {
		if n := len(out); n > 0 && out[n-1].Year == d.Year() && out[n-1].Month == d.Month() {
			return &out[n-1]
		}
		out = append(out, MonthRow{
			Year: d.Year(), Month: d.Month(),
			Income: decimal.Zero, Expense: decimal.Zero,
		})
		return &out[len(out)-1]
	}

	for _, e := range events {
		row := rowFor(e.Date)
		switch e.Type {
		case core.TypeIncome:
			row.Income = row.Income.Add(e.Amount)
		case core.TypeExpense:
			row.Expense = row.Expense.Add(e.Amount)
		}
	}
	for i := range out {
		out[i].Balance = out[i].Income.Sub(out[i].Expense)
		funds = funds.Add(out[i].Balance)
		out[i].Funds = funds
	}
	return out
}
