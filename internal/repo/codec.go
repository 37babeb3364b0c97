package repo

import (
	"strconv"
	"strings"
	"time"

	"lifeplan/internal/core"
	"lifeplan/internal/tables"
)

// The codec is the single place raw cells become domain records. Parsing is
// deliberately forgiving: a malformed numeric cell becomes zero, a malformed
// date cell becomes the zero date, a malformed completed-date entry is
// dropped. Algorithms above this layer never see raw untyped values.

func transactionFromRow(t *tables.Table, row []string) core.Transaction {
	return core.Transaction{
		ID:                 t.Get(row, "id"),
		Version:            core.NormalizeVersion(t.Get(row, "version")),
		ProjectType:        core.ProjectType(t.Get(row, "projectType")),
		Type:               core.TransactionType(t.Get(row, "transactionType")),
		DateFrom:           parseDateCell(t.Get(row, "dateFrom")),
		DateTo:             parseDateCell(t.Get(row, "dateTo")),
		Frequency:          core.Frequency(t.Get(row, "frequency")),
		Interval:           parseIntCell(t.Get(row, "interval")),
		CycleUnit:          t.Get(row, "cycleUnit"),
		PlanStatus:         core.PlanStatus(t.Get(row, "planStatus")),
		CompletedPlanDates: parseDateList(t.Get(row, "completedPlanDates")),
		Amount:             core.ParseAmount(t.Get(row, "amount")),
		AccountIn:          t.Get(row, "accountIdIn"),
		AccountOut:         t.Get(row, "accountIdOut"),
		Deleted:            parseBoolCell(t.Get(row, "deletedFlag")),
		UpdatedBy:          t.Get(row, "updatedBy"),
		UpdatedAt:          parseTimeCell(t.Get(row, "updatedAt")),
	}
}

func transactionCells(tx core.Transaction) map[string]string {
	return map[string]string{
		"id":                 tx.ID,
		"version":            core.NormalizeVersion(tx.Version),
		"projectType":        string(tx.ProjectType),
		"transactionType":    string(tx.Type),
		"dateFrom":           tx.DateFrom.String(),
		"dateTo":             tx.DateTo.String(),
		"frequency":          string(tx.Frequency),
		"interval":           strconv.Itoa(tx.Interval),
		"cycleUnit":          tx.CycleUnit,
		"planStatus":         string(tx.PlanStatus),
		"completedPlanDates": formatDateList(tx.CompletedPlanDates),
		"amount":             core.FormatAmount(tx.Amount),
		"accountIdIn":        tx.AccountIn,
		"accountIdOut":       tx.AccountOut,
		"deletedFlag":        formatBoolCell(tx.Deleted),
		"updatedBy":          tx.UpdatedBy,
		"updatedAt":          formatTimeCell(tx.UpdatedAt),
	}
}

func accountFromRow(t *tables.Table, row []string) core.Account {
	return core.Account{
		ID:          t.Get(row, "id"),
		Version:     core.NormalizeVersion(t.Get(row, "version")),
		OwnerUserID: t.Get(row, "ownerUserId"),
		Balance:     core.ParseAmount(t.Get(row, "balance")),
		SortOrder:   parseIntCell(t.Get(row, "sortOrder")),
		UpdatedBy:   t.Get(row, "updatedBy"),
		UpdatedAt:   parseTimeCell(t.Get(row, "updatedAt")),
	}
}

func accountCells(a core.Account) map[string]string {
	return map[string]string{
		"id":          a.ID,
		"version":     core.NormalizeVersion(a.Version),
		"ownerUserId": a.OwnerUserID,
		"balance":     core.FormatAmount(a.Balance),
		"sortOrder":   strconv.Itoa(a.SortOrder),
		"updatedBy":   a.UpdatedBy,
		"updatedAt":   formatTimeCell(a.UpdatedAt),
	}
}

func historyFromRow(t *tables.Table, row []string) core.AccountHistory {
	return core.AccountHistory{
		ID:            t.Get(row, "id"),
		AccountID:     t.Get(row, "accountId"),
		TransactionID: t.Get(row, "transactionId"),
		Balance:       core.ParseAmount(t.Get(row, "balance")),
		Status:        core.HistoryStatus(t.Get(row, "transactionStatus")),
		CreatedAt:     parseTimeCell(t.Get(row, "createdAt")),
	}
}

func historyCells(h core.AccountHistory) map[string]string {
	return map[string]string{
		"id":                h.ID,
		"accountId":         h.AccountID,
		"transactionId":     h.TransactionID,
		"balance":           core.FormatAmount(h.Balance),
		"transactionStatus": string(h.Status),
		"createdAt":         formatTimeCell(h.CreatedAt),
	}
}

func linkFromRow(t *tables.Table, row []string) core.PlanActualLink {
	return core.PlanActualLink{
		PlanTransactionID:   t.Get(row, "planTransactionId"),
		ActualTransactionID: t.Get(row, "actualTransactionId"),
	}
}

func linkCells(l core.PlanActualLink) map[string]string {
	return map[string]string{
		"planTransactionId":   l.PlanTransactionID,
		"actualTransactionId": l.ActualTransactionID,
	}
}

func aggregateFromRow(t *tables.Table, row []string) core.MonthlyAggregate {
	return core.MonthlyAggregate{
		AccountID:   t.Get(row, "accountId"),
		ProjectType: core.ProjectType(t.Get(row, "projectType")),
		Year:        parseIntCell(t.Get(row, "year")),
		Month:       parseIntCell(t.Get(row, "month")),
		Income:      core.ParseAmount(t.Get(row, "incomeTotal")),
		Expense:     core.ParseAmount(t.Get(row, "expenseTotal")),
		Balance:     core.ParseAmount(t.Get(row, "balanceTotal")),
	}
}

func aggregateCells(m core.MonthlyAggregate) map[string]string {
	return map[string]string{
		"accountId":    m.AccountID,
		"projectType":  string(m.ProjectType),
		"year":         strconv.Itoa(m.Year),
		"month":        strconv.Itoa(m.Month),
		"incomeTotal":  core.FormatAmount(m.Income),
		"expenseTotal": core.FormatAmount(m.Expense),
		"balanceTotal": core.FormatAmount(m.Balance),
	}
}

func permissionFromRow(t *tables.Table, row []string) core.AccountPermission {
	return core.AccountPermission{
		AccountID:  t.Get(row, "accountId"),
		UserID:     t.Get(row, "userId"),
		Permission: core.PermissionLevel(t.Get(row, "permission")),
	}
}

func parseDateCell(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

func parseDateList(s string) []core.Date {
	var out []core.Date
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := core.ParseDate(part)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

func formatDateList(dates []core.Date) string {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		parts = append(parts, d.String())
	}
	return strings.Join(parts, ",")
}

func parseIntCell(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseBoolCell(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func formatBoolCell(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func parseTimeCell(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTimeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
