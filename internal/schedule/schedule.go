// Package schedule expands a plan transaction into the concrete calendar
// dates it occurs on. Expansion is a pure function of the plan row: same
// input, same ordered date list. Each frequency has its own expansion
// strategy behind a registry, so adding a frequency never touches the others.
package schedule

import (
	"sort"
	"strconv"
	"strings"

	"lifeplan/internal/core"
)

type expander func(plan core.Transaction) []core.Date

var expanders = map[core.Frequency]expander{
	core.FreqDay:     expandDay,
	core.FreqDaily:   expandDaily,
	core.FreqWeekly:  expandWeekly,
	core.FreqMonthly: expandMonthly,
	core.FreqYearly:  expandYearly,
}

// Dates returns the ascending occurrence dates of a plan, all inside
// [DateFrom, DateTo]. An unknown frequency behaves as a single occurrence on
// DateTo. Malformed cycle-unit entries are skipped, never fatal.
func Dates(plan core.Transaction) []core.Date {
	expand, ok := expanders[plan.Frequency]
	if !ok {
		expand = expandDay
	}
	out := expand(plan)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j].Time) })
	return out
}

func expandDay(plan core.Transaction) []core.Date {
	return []core.Date{plan.DateTo}
}

func expandDaily(plan core.Transaction) []core.Date {
	if plan.Interval <= 0 {
		return []core.Date{plan.DateFrom}
	}
	var out []core.Date
	for d := plan.DateFrom; !d.After(plan.DateTo.Time); d = d.AddDays(plan.Interval) {
		out = append(out, d)
	}
	return out
}

var weekdayCodes = map[string]int{
	"SU": 0, "MO": 1, "TU": 2, "WE": 3, "TH": 4, "FR": 5, "SA": 6,
}

func expandWeekly(plan core.Transaction) []core.Date {
	days := parseWeekdays(plan.CycleUnit)
	if len(days) == 0 {
		return nil
	}

	// Align to the Sunday-starting week containing DateFrom.
	weekStart := plan.DateFrom.AddDays(-int(plan.DateFrom.Weekday()))
	step := plan.Interval * 7
	var out []core.Date
	for ws := weekStart; !ws.After(plan.DateTo.Time); ws = ws.AddDays(step) {
		for offset := 0; offset < 7; offset++ {
			if !days[offset] {
				continue
			}
			d := ws.AddDays(offset)
			if d.Between(plan.DateFrom, plan.DateTo) {
				out = append(out, d)
			}
		}
		if step == 0 {
			// Interval 0 considers only the first week.
			break
		}
	}
	return out
}

func parseWeekdays(cycleUnit string) map[int]bool {
	days := make(map[int]bool)
	for _, code := range splitCycle(cycleUnit) {
		if offset, ok := weekdayCodes[strings.ToUpper(code)]; ok {
			days[offset] = true
		}
	}
	return days
}

func expandMonthly(plan core.Transaction) []core.Date {
	specs := parseDaySpecs(plan.CycleUnit)
	if len(specs) == 0 {
		return nil
	}

	var out []core.Date
	month := plan.DateFrom.StartOfMonth()
	for !month.After(plan.DateTo.Time) {
		lastDay := core.DaysInMonth(month.Year(), month.Month())
		resolved := make([]int, 0, len(specs))
		for _, spec := range specs {
			resolved = append(resolved, resolveDaySpec(spec, lastDay))
		}
		sort.Ints(resolved)
		for _, day := range resolved {
			d := core.NewDate(month.Year(), month.Month(), day)
			if d.Between(plan.DateFrom, plan.DateTo) {
				out = append(out, d)
			}
		}
		if plan.Interval <= 0 {
			break
		}
		month = core.NewDate(month.Year(), month.Month()+plan.Interval, 1)
	}
	return out
}

// resolveDaySpec maps a day-of-month spec to a concrete day. Negative specs
// count back from the month's last day (-1 is the last day itself); positive
// specs clamp to the month's actual last day.
func resolveDaySpec(spec, lastDay int) int {
	if spec < 0 {
		day := lastDay + spec + 1
		if day < 1 {
			day = 1
		}
		return day
	}
	if spec > lastDay {
		return lastDay
	}
	return spec
}

func parseDaySpecs(cycleUnit string) []int {
	var out []int
	for _, part := range splitCycle(cycleUnit) {
		n, err := strconv.Atoi(part)
		if err != nil || n == 0 || n > 31 || n < -3 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func expandYearly(plan core.Transaction) []core.Date {
	specs := parseMonthDaySpecs(plan.CycleUnit)
	if len(specs) == 0 {
		return nil
	}

	step := plan.Interval
	var out []core.Date
	for year := plan.DateFrom.Year(); year <= plan.DateTo.Year(); year += step {
		for _, md := range specs {
			day := md.day
			if last := core.DaysInMonth(year, md.month); day > last {
				// Feb 29 in a non-leap year lands on Feb 28.
				day = last
			}
			d := core.NewDate(year, md.month, day)
			if d.Between(plan.DateFrom, plan.DateTo) {
				out = append(out, d)
			}
		}
		if step <= 0 {
			break
		}
	}
	return out
}

type monthDay struct {
	month, day int
}

// parseMonthDaySpecs accepts both MMDD and MM-DD forms.
func parseMonthDaySpecs(cycleUnit string) []monthDay {
	var out []monthDay
	for _, part := range splitCycle(cycleUnit) {
		part = strings.ReplaceAll(part, "-", "")
		if len(part) != 4 {
			continue
		}
		month, err1 := strconv.Atoi(part[:2])
		day, err2 := strconv.Atoi(part[2:])
		if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		out = append(out, monthDay{month: month, day: day})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].month != out[j].month {
			return out[i].month < out[j].month
		}
		return out[i].day < out[j].day
	})
	return out
}

func splitCycle(cycleUnit string) []string {
	var out []string
	for _, part := range strings.Split(cycleUnit, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
