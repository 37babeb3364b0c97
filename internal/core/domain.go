package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProjectPlan   ProjectType = "plan"
	ProjectActual ProjectType = "actual"

	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"

	FreqDay     Frequency = "day"
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"

	StatusPlanning PlanStatus = "planning"
	StatusComplete PlanStatus = "complete"
	StatusCanceled PlanStatus = "canceled"

	HistoryRegist HistoryStatus = "regist"
	HistoryUpdate HistoryStatus = "update"
	HistoryDelete HistoryStatus = "delete"

	PermissionRead PermissionLevel = "read"
	PermissionEdit PermissionLevel = "edit"
)

type (
	ProjectType     string
	TransactionType string
	Frequency       string
	PlanStatus      string
	HistoryStatus   string
	PermissionLevel string

	// Transaction is either a plan template (recurring or one-off intended
	// movement) or a realized, dated movement that affects balances.
	Transaction struct {
		ID          string
		Version     string // decimal string, blank means "0"
		ProjectType ProjectType
		Type        TransactionType
		DateFrom    Date
		DateTo      Date
		Frequency   Frequency
		Interval    int    // 0 means single occurrence in the first period
		CycleUnit   string // frequency-specific spec, comma separated
		PlanStatus  PlanStatus
		// Occurrence dates reconciled by hand, without a linked actual.
		CompletedPlanDates []Date
		Amount             decimal.Decimal
		AccountIn          string // receiving account (income, transfer destination)
		AccountOut         string // paying account (expense, transfer source)
		Deleted            bool
		UpdatedBy          string
		UpdatedAt          time.Time
	}

	Account struct {
		ID          string
		Version     string
		OwnerUserID string
		Balance     decimal.Decimal
		SortOrder   int
		UpdatedBy   string
		UpdatedAt   time.Time
	}

	// AccountHistory rows are append-only; one per touched account per
	// realized-transaction register/update/delete.
	AccountHistory struct {
		ID        string
		AccountID string
		// TransactionID names the realized transaction that moved the
		// balance. Repair rows written by a full recalculation are not
		// caused by any single transaction and leave it blank.
		TransactionID string
		Balance       decimal.Decimal
		Status        HistoryStatus
		CreatedAt     time.Time
	}

	// PlanActualLink ties one realized transaction to the plan occurrence it
	// satisfies. Many actuals may link to one plan, one per occurrence date.
	PlanActualLink struct {
		PlanTransactionID   string
		ActualTransactionID string
	}

	MonthlyAggregate struct {
		AccountID   string
		ProjectType ProjectType
		Year        int
		Month       int // 1-12
		Income      decimal.Decimal
		Expense     decimal.Decimal
		Balance     decimal.Decimal // income - expense
	}

	// AccountPermission grants another user visibility into an account.
	AccountPermission struct {
		AccountID  string
		UserID     string
		Permission PermissionLevel
	}
)

var (
	ErrStaleVersionConflict = errors.New("row changed by another session, reload before editing")
	ErrNotFoundConflict     = errors.New("row no longer exists, reload before editing")
	ErrEmptyAccount         = errors.New("missing account id")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDateRange     = errors.New("end date must not precede start date")
)

// EffectiveDate is the date a transaction counts on: DateTo when set,
// otherwise DateFrom. Actuals prefer DateTo as the realized date.
func (t Transaction) EffectiveDate() Date {
	if !t.DateTo.IsZero() {
		return t.DateTo
	}
	return t.DateFrom
}

// Touches reports whether the transaction moves money in or out of accountID.
func (t Transaction) Touches(accountID string) bool {
	return t.AccountIn == accountID || t.AccountOut == accountID
}

func (t Transaction) Validate() error {
	switch t.Type {
	case TypeIncome:
		if strings.TrimSpace(t.AccountIn) == "" {
			return ErrEmptyAccount
		}
	case TypeExpense:
		if strings.TrimSpace(t.AccountOut) == "" {
			return ErrEmptyAccount
		}
	case TypeTransfer:
		if strings.TrimSpace(t.AccountIn) == "" || strings.TrimSpace(t.AccountOut) == "" {
			return ErrEmptyAccount
		}
	default:
		return errors.New("invalid transaction type")
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.DateFrom.IsZero() && !t.DateTo.IsZero() && t.DateTo.Before(t.DateFrom.Time) {
		return ErrInvalidDateRange
	}
	return nil
}

// HasCompletedDate reports whether d was already reconciled by hand.
func (t Transaction) HasCompletedDate(d Date) bool {
	for _, c := range t.CompletedPlanDates {
		if c.Equal(d.Time) {
			return true
		}
	}
	return false
}
