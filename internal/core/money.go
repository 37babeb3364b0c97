// Package core holds the domain records shared by every component: plan and
// actual transactions, accounts, balance history, plan/actual links, monthly
// aggregates and the calendar/amount cell parsing used at the storage boundary.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal cell to an amount. Both dot and comma decimal
// separators are accepted. A blank or unparsable cell yields zero: malformed
// numeric fields are recovered silently rather than failing the whole load.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount the way it is stored in a table cell.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
