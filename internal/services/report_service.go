package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"lifeplan/internal/aggregate"
	"lifeplan/internal/core"
	"lifeplan/internal/ledger"
	"lifeplan/internal/linker"
	"lifeplan/internal/projection"
	"lifeplan/internal/repo"
	"lifeplan/internal/tables"
)

// ReportService drives the derived-data side: monthly aggregates, balance
// recalculation and the cash-flow projection. Reads share the same session
// cache; the two recompute operations write tables back wholesale.
type ReportService struct {
	store  tables.Store
	userID string
	now    func() time.Time
	// The source system disagreed with itself on transfers; the defaults
	// keep them in the completed-funds scalar and out of the overflow replay.
	CompletedOpts projection.Options
	OpenOpts      projection.Options
}

func NewReportService(store tables.Store, userID string) *ReportService {
	return &ReportService{
		store:         store,
		userID:        userID,
		now:           time.Now,
		CompletedOpts: projection.Options{IncludeTransfers: true},
		OpenOpts:      projection.Options{IncludeTransfers: false},
	}
}

// RecomputeMonthly rebuilds the monthly aggregate rows for every account
// visible to userID, replacing all prior rows of those accounts.
func (s *ReportService) RecomputeMonthly(ctx context.Context, userID string) error {
	sess := repo.NewSession(s.store)

	accounts, err := s.visibleAccounts(ctx, sess, userID)
	if err != nil {
		return err
	}
	accountIDs := make([]string, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
	}

	txs, err := sess.Transactions(ctx)
	if err != nil {
		return err
	}
	existing, err := sess.MonthlyAggregates(ctx)
	if err != nil {
		return err
	}

	fresh := aggregate.Recompute(accountIDs, txs)
	merged := aggregate.Replace(existing, accountIDs, fresh)
	if err := sess.SaveMonthlyAggregates(ctx, merged); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Recomputed monthly aggregates",
		"user_id", userID,
		"accounts", len(accountIDs),
		"rows", len(fresh))
	return nil
}

// RecalculateBalances replays all realized transactions against the user's
// own accounts from zero, repairing any drift between the stored balances
// and the transaction table.
func (s *ReportService) RecalculateBalances(ctx context.Context, userID string) error {
	sess := repo.NewSession(s.store)

	accounts, err := sess.Accounts(ctx)
	if err != nil {
		return err
	}
	var own []core.Account
	for _, a := range accounts {
		if a.OwnerUserID == userID {
			own = append(own, a)
		}
	}

	txs, err := sess.Transactions(ctx)
	if err != nil {
		return err
	}

	recalced, history := ledger.RecalculateAll(own, txs, s.userID, s.now())
	if len(history) == 0 {
		slog.InfoContext(ctx, "Balance recalculation found no drift", "user_id", userID)
		return nil
	}

	byID := make(map[string]core.Account, len(recalced))
	for _, a := range recalced {
		byID[a.ID] = a
	}
	for i, a := range accounts {
		if repaired, ok := byID[a.ID]; ok {
			accounts[i] = repaired
		}
	}
	if err := sess.SaveAccounts(ctx, accounts); err != nil {
		return err
	}
	if err := sess.AppendHistory(ctx, history); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Repaired account balances",
		"user_id", userID,
		"accounts_changed", len(history))
	return nil
}

// CashFlowReport is what the projection screens render.
type CashFlowReport struct {
	CompletedFunds decimal.Decimal
	Monthly        []projection.MonthRow
	Overflow       projection.OverflowReport
}

// CashFlow combines completed-plan funds with the open occurrence stream into
// the monthly cash-flow table and the funds-overflow report.
func (s *ReportService) CashFlow(ctx context.Context, today core.Date) (*CashFlowReport, error) {
	sess := repo.NewSession(s.store)
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	links, err := sess.Links(ctx)
	if err != nil {
		return nil, err
	}

	lk := linker.New(links, txs)
	funds := projection.CompletedFunds(projection.CompletedEvents(txs, lk, s.CompletedOpts))
	open := projection.OpenEvents(txs, lk, s.OpenOpts)

	return &CashFlowReport{
		CompletedFunds: funds,
		Monthly:        projection.MonthlyTable(funds, open),
		Overflow:       projection.Overflows(funds, open, today),
	}, nil
}

// Monthly returns the stored aggregate rows for every account visible to
// userID, in the deterministic order the recompute wrote them.
func (s *ReportService) Monthly(ctx context.Context, userID string) ([]core.MonthlyAggregate, error) {
	sess := repo.NewSession(s.store)
	accounts, err := s.visibleAccounts(ctx, sess, userID)
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		visible[a.ID] = true
	}

	rows, err := sess.MonthlyAggregates(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.MonthlyAggregate
	for _, row := range rows {
		if visible[row.AccountID] {
			out = append(out, row)
		}
	}
	return out, nil
}

// DelayedPlans lists the plans with an open occurrence already in the past.
func (s *ReportService) DelayedPlans(ctx context.Context, today core.Date) ([]core.Transaction, error) {
	sess := repo.NewSession(s.store)
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	links, err := sess.Links(ctx)
	if err != nil {
		return nil, err
	}

	lk := linker.New(links, txs)
	var out []core.Transaction
	for _, t := range txs {
		if t.ProjectType != core.ProjectPlan || t.Deleted || t.PlanStatus != core.StatusPlanning {
			continue
		}
		if lk.Delayed(t, today) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *ReportService) visibleAccounts(ctx context.Context, sess *repo.Session, userID string) ([]core.Account, error) {
	accounts, err := sess.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	permissions, err := sess.Permissions(ctx)
	if err != nil {
		return nil, err
	}
	granted := make(map[string]bool)
	for _, p := range permissions {
		if p.UserID == userID {
			granted[p.AccountID] = true
		}
	}
	var out []core.Account
	for _, a := range accounts {
		if a.OwnerUserID == userID || granted[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}
