// Package tables defines the storage port shared by every backend: a named
// table is read as a whole and replaced as a whole. There is no row-level
// patch at this boundary; every mutation reads the full table, computes the
// new row set in memory and writes it back wholesale.
package tables

import "context"

// Logical table names.
const (
	TableTransaction        = "TRANSACTION"
	TableAccount            = "ACCOUNT"
	TableAccountHistory     = "ACCOUNT_HISTORY"
	TablePlanActualLink     = "TRANSACTION_MANAGEMENT"
	TableMonthlyAggregate   = "TRANSACTION_MONTHLY"
	TableAccountPermission  = "ACCOUNT_PERMISSION"
)

// Table is an ordered row set with a column header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Store is the storage collaborator. WriteTable replaces the entire contents
// of the named table; the replace-all semantics are part of the contract, not
// an implementation detail.
type Store interface {
	ReadTable(ctx context.Context, name string) (*Table, error)
	WriteTable(ctx context.Context, name string, t *Table) error
}

// Names lists every table this core reads or writes.
func Names() []string {
	return []string{
		TableTransaction,
		TableAccount,
		TableAccountHistory,
		TablePlanActualLink,
		TableMonthlyAggregate,
		TableAccountPermission,
	}
}

// Header returns the canonical column header for a table name, or nil for an
// unknown table.
func Header(name string) []string {
	switch name {
	case TableTransaction:
		return []string{
			"id", "version", "projectType", "transactionType",
			"dateFrom", "dateTo", "frequency", "interval", "cycleUnit",
			"planStatus", "completedPlanDates", "amount",
			"accountIdIn", "accountIdOut", "deletedFlag",
			"updatedBy", "updatedAt",
		}
	case TableAccount:
		return []string{"id", "version", "ownerUserId", "balance", "sortOrder", "updatedBy", "updatedAt"}
	case TableAccountHistory:
		return []string{"id", "accountId", "transactionId", "balance", "transactionStatus", "createdAt"}
	case TablePlanActualLink:
		return []string{"planTransactionId", "actualTransactionId"}
	case TableMonthlyAggregate:
		return []string{"accountId", "projectType", "year", "month", "incomeTotal", "expenseTotal", "balanceTotal"}
	case TableAccountPermission:
		return []string{"accountId", "userId", "permission"}
	}
	return nil
}

// New returns an empty table carrying the canonical header for name.
func New(name string) *Table {
	return &Table{Header: Header(name)}
}

// ColumnIndex returns the position of a header column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Get returns the cell at (row, col), or "" when the row is ragged or the
// column does not exist. Tabular sources routinely drop trailing blanks.
func (t *Table) Get(row []string, col string) string {
	i := t.ColumnIndex(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Append adds a row built from a column-name to value map, laid out in
// header order.
func (t *Table) Append(cells map[string]string) {
	row := make([]string, len(t.Header))
	for i, h := range t.Header {
		row[i] = cells[h]
	}
	t.Rows = append(t.Rows, row)
}
