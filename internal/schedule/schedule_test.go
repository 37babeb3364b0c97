package schedule

import (
	"testing"

	"lifeplan/internal/core"
)

func plan(freq core.Frequency, from, to core.Date, interval int, cycleUnit string) core.Transaction {
	return core.Transaction{
		ProjectType: core.ProjectPlan,
		Frequency:   freq,
		DateFrom:    from,
		DateTo:      to,
		Interval:    interval,
		CycleUnit:   cycleUnit,
	}
}

func dateStrings(dates []core.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

func assertDates(t *testing.T, got []core.Date, want []string) {
	t.Helper()
	gotStr := dateStrings(got)
	if len(gotStr) != len(want) {
		t.Fatalf("Dates() = %v, want %v", gotStr, want)
	}
	for i := range want {
		if gotStr[i] != want[i] {
			t.Errorf("Dates()[%d] = %s, want %s", i, gotStr[i], want[i])
		}
	}
}

func TestDates_Day(t *testing.T) {
	p := plan(core.FreqDay, core.NewDate(2024, 1, 1), core.NewDate(2024, 3, 15), 0, "")
	assertDates(t, Dates(p), []string{"2024-03-15"})
}

func TestDates_UnknownFrequencyFallsBackToSingleDate(t *testing.T) {
	p := plan(core.Frequency("fortnightly"), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 10), 1, "")
	assertDates(t, Dates(p), []string{"2024-01-10"})
}

func TestDates_Daily(t *testing.T) {
	tests := []struct {
		name     string
		from, to core.Date
		interval int
		want     []string
	}{
		{
			name:     "every third day",
			from:     core.NewDate(2024, 1, 1),
			to:       core.NewDate(2024, 1, 10),
			interval: 3,
			want:     []string{"2024-01-01", "2024-01-04", "2024-01-07", "2024-01-10"},
		},
		{
			name:     "interval zero means single occurrence on start",
			from:     core.NewDate(2024, 1, 1),
			to:       core.NewDate(2024, 1, 10),
			interval: 0,
			want:     []string{"2024-01-01"},
		},
		{
			name:     "single day range",
			from:     core.NewDate(2024, 2, 29),
			to:       core.NewDate(2024, 2, 29),
			interval: 1,
			want:     []string{"2024-02-29"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDates(t, Dates(plan(core.FreqDaily, tt.from, tt.to, tt.interval, "")), tt.want)
		})
	}
}

func TestDates_Weekly(t *testing.T) {
	tests := []struct {
		name      string
		from, to  core.Date
		interval  int
		cycleUnit string
		want      []string
	}{
		{
			name:      "monday and friday weekly",
			from:      core.NewDate(2024, 1, 1), // a Monday
			to:        core.NewDate(2024, 1, 14),
			interval:  1,
			cycleUnit: "MO,FR",
			want:      []string{"2024-01-01", "2024-01-05", "2024-01-08", "2024-01-12"},
		},
		{
			name:      "every second week",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 1, 31),
			interval:  2,
			cycleUnit: "WE",
			want:      []string{"2024-01-03", "2024-01-17", "2024-01-31"},
		},
		{
			name:      "interval zero considers only the first week",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 1, 31),
			interval:  0,
			cycleUnit: "MO,FR",
			want:      []string{"2024-01-01", "2024-01-05"},
		},
		{
			name:      "empty cycle unit yields nothing",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 1, 31),
			interval:  1,
			cycleUnit: "",
			want:      nil,
		},
		{
			name:      "unknown weekday codes are skipped",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 1, 7),
			interval:  1,
			cycleUnit: "XX,FR",
			want:      []string{"2024-01-05"},
		},
		{
			name:      "weekday before start date excluded",
			from:      core.NewDate(2024, 1, 3), // a Wednesday
			to:        core.NewDate(2024, 1, 9),
			interval:  1,
			cycleUnit: "MO",
			want:      []string{"2024-01-08"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDates(t, Dates(plan(core.FreqWeekly, tt.from, tt.to, tt.interval, tt.cycleUnit)), tt.want)
		})
	}
}

func TestDates_Monthly(t *testing.T) {
	tests := []struct {
		name      string
		from, to  core.Date
		interval  int
		cycleUnit string
		want      []string
	}{
		{
			name:      "fifteenth of each month",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 3, 31),
			interval:  1,
			cycleUnit: "15",
			want:      []string{"2024-01-15", "2024-02-15", "2024-03-15"},
		},
		{
			name:      "last day of month tracks month length",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 3, 31),
			interval:  1,
			cycleUnit: "-1",
			want:      []string{"2024-01-31", "2024-02-29", "2024-03-31"},
		},
		{
			name:      "day 31 clamps to short months",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 4, 30),
			interval:  1,
			cycleUnit: "31",
			want:      []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"},
		},
		{
			name:      "quarterly interval",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 12, 31),
			interval:  3,
			cycleUnit: "1",
			want:      []string{"2024-01-01", "2024-04-01", "2024-07-01", "2024-10-01"},
		},
		{
			name:      "multiple day specs sort within month",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 2, 29),
			interval:  1,
			cycleUnit: "25,10",
			want:      []string{"2024-01-10", "2024-01-25", "2024-02-10", "2024-02-25"},
		},
		{
			name:      "interval zero stops after first month",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 6, 30),
			interval:  0,
			cycleUnit: "15",
			want:      []string{"2024-01-15"},
		},
		{
			name:      "invalid specs skipped",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 1, 31),
			interval:  1,
			cycleUnit: "0,99,-9,abc,20",
			want:      []string{"2024-01-20"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDates(t, Dates(plan(core.FreqMonthly, tt.from, tt.to, tt.interval, tt.cycleUnit)), tt.want)
		})
	}
}

func TestDates_Yearly(t *testing.T) {
	tests := []struct {
		name      string
		from, to  core.Date
		interval  int
		cycleUnit string
		want      []string
	}{
		{
			name:      "single yearly date",
			from:      core.NewDate(2023, 1, 1),
			to:        core.NewDate(2025, 12, 31),
			interval:  1,
			cycleUnit: "0415",
			want:      []string{"2023-04-15", "2024-04-15", "2025-04-15"},
		},
		{
			name:      "dashed form accepted",
			from:      core.NewDate(2024, 1, 1),
			to:        core.NewDate(2024, 12, 31),
			interval:  1,
			cycleUnit: "04-15,11-30",
			want:      []string{"2024-04-15", "2024-11-30"},
		},
		{
			name:      "feb 29 clamps in non-leap years",
			from:      core.NewDate(2023, 1, 1),
			to:        core.NewDate(2024, 12, 31),
			interval:  1,
			cycleUnit: "0229",
			want:      []string{"2023-02-28", "2024-02-29"},
		},
		{
			name:      "interval zero stops after first year",
			from:      core.NewDate(2023, 1, 1),
			to:        core.NewDate(2025, 12, 31),
			interval:  0,
			cycleUnit: "0601",
			want:      []string{"2023-06-01"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDates(t, Dates(plan(core.FreqYearly, tt.from, tt.to, tt.interval, tt.cycleUnit)), tt.want)
		})
	}
}
