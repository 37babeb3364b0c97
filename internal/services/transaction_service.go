// Package services orchestrates the mutating operations: every write runs
// through the concurrency guard, updates the whole-table row set in memory,
// writes it back wholesale and invalidates the session cache. Derived-data
// recomputes are queued to the worker over AMQP on a best-effort basis.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"lifeplan/internal/amqp"
	"lifeplan/internal/core"
	"lifeplan/internal/guard"
	"lifeplan/internal/ledger"
	"lifeplan/internal/repo"
	"lifeplan/internal/tables"
)

// TransactionService owns the write path for transactions, accounts and
// links. One service instance serves many requests; each operation opens its
// own repo.Session so no cached table outlives the request that loaded it.
type TransactionService struct {
	store      tables.Store
	guard      *guard.Guard
	amqpClient *amqp.Client // optional, nil disables job publication
	userID     string
	now        func() time.Time
}

func NewTransactionService(store tables.Store, amqpClient *amqp.Client, userID string) *TransactionService {
	return &TransactionService{
		store:      store,
		guard:      guard.New(store),
		amqpClient: amqpClient,
		userID:     userID,
		now:        time.Now,
	}
}

func (s *TransactionService) session() *repo.Session {
	return repo.NewSession(s.store)
}

// RegisterActual stores a newly realized transaction, applies its balance
// deltas and optionally links it to the plan occurrence it satisfies.
func (s *TransactionService) RegisterActual(ctx context.Context, t core.Transaction, planID string) (core.Transaction, error) {
	t.ProjectType = core.ProjectActual
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := s.now()
	t.Version = "1"
	t.UpdatedBy = s.userID
	t.UpdatedAt = now

	sess := s.session()
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := sess.SaveTransactions(ctx, append(txs, t)); err != nil {
		return core.Transaction{}, err
	}

	if err := s.applyLedger(ctx, sess, func(accounts []core.Account) ([]core.Account, []core.AccountHistory) {
		return ledger.Register(accounts, t, s.userID, now)
	}); err != nil {
		return core.Transaction{}, err
	}

	if planID != "" {
		links, err := sess.Links(ctx)
		if err != nil {
			return core.Transaction{}, err
		}
		links = append(links, core.PlanActualLink{PlanTransactionID: planID, ActualTransactionID: t.ID})
		if err := sess.SaveLinks(ctx, links); err != nil {
			return core.Transaction{}, err
		}
	}

	s.publishRecompute(ctx, amqp.JobMonthly)
	return t, nil
}

// UpdateActual replaces a realized transaction after the guard admits the
// caller's version. Balance deltas apply only for the amount change.
func (s *TransactionService) UpdateActual(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.guard.Check(ctx, tables.TableTransaction, t.ID, t.Version); err != nil {
		return core.Transaction{}, err
	}

	sess := s.session()
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	idx, previous, err := findTransaction(txs, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	t.ProjectType = core.ProjectActual
	t.Version = core.NextVersion(previous.Version)
	t.UpdatedBy = s.userID
	t.UpdatedAt = now
	txs[idx] = t
	if err := sess.SaveTransactions(ctx, txs); err != nil {
		return core.Transaction{}, err
	}

	if err := s.applyLedger(ctx, sess, func(accounts []core.Account) ([]core.Account, []core.AccountHistory) {
		return ledger.Update(accounts, t, previous.Amount, s.userID, now)
	}); err != nil {
		return core.Transaction{}, err
	}

	s.publishRecompute(ctx, amqp.JobMonthly)
	return t, nil
}

// DeleteActual tombstones a realized transaction and reverses its balance
// deltas. The row itself stays in the table with its deleted flag set.
func (s *TransactionService) DeleteActual(ctx context.Context, id, version string) error {
	if err := s.guard.Check(ctx, tables.TableTransaction, id, version); err != nil {
		return err
	}

	sess := s.session()
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return err
	}
	idx, t, err := findTransaction(txs, id)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.applyLedger(ctx, sess, func(accounts []core.Account) ([]core.Account, []core.AccountHistory) {
		return ledger.Delete(accounts, t, s.userID, now)
	}); err != nil {
		return err
	}

	t.Deleted = true
	t.Version = core.NextVersion(t.Version)
	t.UpdatedBy = s.userID
	t.UpdatedAt = now
	txs[idx] = t
	if err := sess.SaveTransactions(ctx, txs); err != nil {
		return err
	}

	s.publishRecompute(ctx, amqp.JobMonthly)
	return nil
}

// SavePlan creates or updates a plan transaction. The actual link set is
// replaced wholesale: all previous links of the plan are dropped and the
// given actual ids are linked fresh.
func (s *TransactionService) SavePlan(ctx context.Context, plan core.Transaction, actualIDs []string) (core.Transaction, error) {
	plan.ProjectType = core.ProjectPlan
	if err := plan.Validate(); err != nil {
		return core.Transaction{}, err
	}

	sess := s.session()
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	if plan.ID == "" {
		plan.ID = uuid.NewString()
		plan.Version = "1"
		plan.UpdatedBy = s.userID
		plan.UpdatedAt = now
		txs = append(txs, plan)
	} else {
		if err := s.guard.Check(ctx, tables.TableTransaction, plan.ID, plan.Version); err != nil {
			return core.Transaction{}, err
		}
		idx, previous, err := findTransaction(txs, plan.ID)
		if err != nil {
			return core.Transaction{}, err
		}
		// Reconciliation marks survive plan edits. CompletePlanDate is the
		// only operation that writes this set; an edit submitted without it
		// must not reopen occurrences already marked complete.
		if len(plan.CompletedPlanDates) == 0 {
			plan.CompletedPlanDates = previous.CompletedPlanDates
		}
		plan.Version = core.NextVersion(previous.Version)
		plan.UpdatedBy = s.userID
		plan.UpdatedAt = now
		txs[idx] = plan
	}
	if err := sess.SaveTransactions(ctx, txs); err != nil {
		return core.Transaction{}, err
	}

	if err := s.replaceLinks(ctx, sess, plan.ID, actualIDs); err != nil {
		return core.Transaction{}, err
	}

	s.publishRecompute(ctx, amqp.JobMonthly)
	return plan, nil
}

// DeletePlan tombstones a plan and removes every link it owned.
func (s *TransactionService) DeletePlan(ctx context.Context, id, version string) error {
	if err := s.guard.Check(ctx, tables.TableTransaction, id, version); err != nil {
		return err
	}

	sess := s.session()
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return err
	}
	idx, plan, err := findTransaction(txs, id)
	if err != nil {
		return err
	}

	plan.Deleted = true
	plan.Version = core.NextVersion(plan.Version)
	plan.UpdatedBy = s.userID
	plan.UpdatedAt = s.now()
	txs[idx] = plan
	if err := sess.SaveTransactions(ctx, txs); err != nil {
		return err
	}

	if err := s.replaceLinks(ctx, sess, id, nil); err != nil {
		return err
	}

	s.publishRecompute(ctx, amqp.JobMonthly)
	return nil
}

// CompletePlanDate marks one occurrence of a plan as reconciled without a
// linked actual.
func (s *TransactionService) CompletePlanDate(ctx context.Context, id, version string, date core.Date) (core.Transaction, error) {
	if err := s.guard.Check(ctx, tables.TableTransaction, id, version); err != nil {
		return core.Transaction{}, err
	}

	sess := s.session()
	txs, err := sess.Transactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	idx, plan, err := findTransaction(txs, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if !plan.HasCompletedDate(date) {
		plan.CompletedPlanDates = append(plan.CompletedPlanDates, date)
		sort.Slice(plan.CompletedPlanDates, func(i, j int) bool {
			return plan.CompletedPlanDates[i].Before(plan.CompletedPlanDates[j].Time)
		})
	}
	plan.Version = core.NextVersion(plan.Version)
	plan.UpdatedBy = s.userID
	plan.UpdatedAt = s.now()
	txs[idx] = plan
	if err := sess.SaveTransactions(ctx, txs); err != nil {
		return core.Transaction{}, err
	}

	s.publishRecompute(ctx, amqp.JobMonthly)
	return plan, nil
}

// VisibleAccounts resolves the account set a user may see: their own accounts
// plus accounts granted through the permission table, ordered by sortOrder.
func (s *TransactionService) VisibleAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	sess := s.session()
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
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *TransactionService) applyLedger(ctx context.Context, sess *repo.Session, op func([]core.Account) ([]core.Account, []core.AccountHistory)) error {
	accounts, err := sess.Accounts(ctx)
	if err != nil {
		return err
	}
	updated, history := op(accounts)
	if len(history) == 0 {
		return nil
	}
	if err := sess.SaveAccounts(ctx, updated); err != nil {
		return err
	}
	return sess.AppendHistory(ctx, history)
}

func (s *TransactionService) replaceLinks(ctx context.Context, sess *repo.Session, planID string, actualIDs []string) error {
	links, err := sess.Links(ctx)
	if err != nil {
		return err
	}
	out := make([]core.PlanActualLink, 0, len(links)+len(actualIDs))
	for _, l := range links {
		if l.PlanTransactionID != planID {
			out = append(out, l)
		}
	}
	for _, actualID := range actualIDs {
		out = append(out, core.PlanActualLink{PlanTransactionID: planID, ActualTransactionID: actualID})
	}
	return sess.SaveLinks(ctx, out)
}

func (s *TransactionService) publishRecompute(ctx context.Context, kind string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishRecompute(ctx, amqp.NewRecomputeJob(kind, s.userID)); err != nil {
		// The write already succeeded; a lost job only delays recomputation
		// until the worker's next periodic pass.
		slog.ErrorContext(ctx, "Failed to publish recompute job", "kind", kind, "error", err)
	}
}

// findTransaction locates a live row by id. Tombstoned rows are invisible
// here; the guard already rejects them, and mutating a tombstone through this
// path would bring the row back to life.
func findTransaction(txs []core.Transaction, id string) (int, core.Transaction, error) {
	for i, t := range txs {
		if t.ID == id && !t.Deleted {
			return i, t, nil
		}
	}
	return 0, core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFoundConflict)
}
