package linker

import (
	"testing"

	"github.com/shopspring/decimal"

	"lifeplan/internal/core"
)

// monthlyPlan recurs on the 15th, January through March 2024.
func monthlyPlan() core.Transaction {
	return core.Transaction{
		ID:          "plan-1",
		ProjectType: core.ProjectPlan,
		Type:        core.TypeExpense,
		Frequency:   core.FreqMonthly,
		DateFrom:    core.NewDate(2024, 1, 1),
		DateTo:      core.NewDate(2024, 3, 31),
		Interval:    1,
		CycleUnit:   "15",
		PlanStatus:  core.StatusPlanning,
		Amount:      decimal.NewFromInt(100),
		AccountOut:  "bank",
	}
}

func linkedActual(id string, date core.Date, amount int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		ProjectType: core.ProjectActual,
		Type:        core.TypeExpense,
		DateTo:      date,
		Amount:      decimal.NewFromInt(amount),
		AccountOut:  "bank",
	}
}

func TestLinker_Open(t *testing.T) {
	plan := monthlyPlan()
	act := linkedActual("act-1", core.NewDate(2024, 1, 15), 95)
	links := []core.PlanActualLink{{PlanTransactionID: "plan-1", ActualTransactionID: "act-1"}}

	t.Run("linked occurrence closed", func(t *testing.T) {
		lk := New(links, []core.Transaction{act})
		open := lk.Open(plan)
		if len(open) != 2 {
			t.Fatalf("Open() returned %d dates, want 2", len(open))
		}
		if open[0].String() != "2024-02-15" || open[1].String() != "2024-03-15" {
			t.Errorf("Open() = [%s %s], want [2024-02-15 2024-03-15]", open[0], open[1])
		}
	})

	t.Run("hand-completed occurrence closed", func(t *testing.T) {
		p := plan
		p.CompletedPlanDates = []core.Date{core.NewDate(2024, 2, 15)}
		lk := New(links, []core.Transaction{act})
		open := lk.Open(p)
		if len(open) != 1 || open[0].String() != "2024-03-15" {
			t.Errorf("Open() = %v, want [2024-03-15]", open)
		}
	})

	t.Run("deleted actual does not close its occurrence", func(t *testing.T) {
		gone := act
		gone.Deleted = true
		lk := New(links, []core.Transaction{gone})
		open := lk.Open(plan)
		if len(open) != 3 {
			t.Errorf("Open() returned %d dates, want 3", len(open))
		}
	})

	t.Run("actual on a different date does not close", func(t *testing.T) {
		moved := linkedActual("act-1", core.NewDate(2024, 1, 20), 95)
		lk := New(links, []core.Transaction{moved})
		open := lk.Open(plan)
		if len(open) != 3 {
			t.Errorf("Open() returned %d dates, want 3", len(open))
		}
	})
}

func TestLinker_Completed(t *testing.T) {
	plan := monthlyPlan()
	plan.CompletedPlanDates = []core.Date{core.NewDate(2024, 3, 15)}
	act := linkedActual("act-1", core.NewDate(2024, 1, 15), 95)
	links := []core.PlanActualLink{{PlanTransactionID: "plan-1", ActualTransactionID: "act-1"}}

	lk := New(links, []core.Transaction{act})
	completed := lk.Completed(plan)
	if len(completed) != 2 {
		t.Fatalf("Completed() returned %d occurrences, want 2", len(completed))
	}

	// Linked occurrence carries the actual's amount.
	if completed[0].Date.String() != "2024-01-15" || !completed[0].Amount.Equal(decimal.NewFromInt(95)) {
		t.Errorf("completed[0] = %s/%s, want 2024-01-15/95", completed[0].Date, completed[0].Amount)
	}
	// Hand-completed occurrence falls back to the plan's amount.
	if completed[1].Date.String() != "2024-03-15" || !completed[1].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("completed[1] = %s/%s, want 2024-03-15/100", completed[1].Date, completed[1].Amount)
	}
}

func TestLinker_Delayed(t *testing.T) {
	plan := monthlyPlan()
	act := linkedActual("act-1", core.NewDate(2024, 1, 15), 100)
	links := []core.PlanActualLink{{PlanTransactionID: "plan-1", ActualTransactionID: "act-1"}}
	lk := New(links, []core.Transaction{act})

	tests := []struct {
		name  string
		today core.Date
		want  bool
	}{
		{name: "before first open occurrence", today: core.NewDate(2024, 2, 10), want: false},
		{name: "on the open occurrence date", today: core.NewDate(2024, 2, 15), want: false},
		{name: "past an open occurrence", today: core.NewDate(2024, 2, 16), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lk.Delayed(plan, tt.today); got != tt.want {
				t.Errorf("Delayed(%s) = %v, want %v", tt.today, got, tt.want)
			}
		})
	}
}
