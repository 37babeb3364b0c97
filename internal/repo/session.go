// Package repo exposes the typed view over the tables port. A Session owns a
// per-request cache of the last-loaded tables; every successful write drops
// the cached copy so subsequent reads observe fresh data. Sessions are not
// shared between requests, so there is no hidden global state to go stale.
package repo

import (
	"context"
	"fmt"

	"lifeplan/internal/core"
	"lifeplan/internal/tables"
)

// Session is a request-scoped view over the storage collaborator. It is not
// safe for use from multiple goroutines; each request gets its own.
type Session struct {
	store tables.Store
	cache map[string]*tables.Table
}

func NewSession(store tables.Store) *Session {
	return &Session{store: store, cache: make(map[string]*tables.Table)}
}

// Store exposes the underlying port for callers that must bypass the cache,
// such as the concurrency guard's authoritative re-read.
func (s *Session) Store() tables.Store {
	return s.store
}

// Invalidate drops cached tables. With no arguments the whole cache is
// cleared.
func (s *Session) Invalidate(names ...string) {
	if len(names) == 0 {
		s.cache = make(map[string]*tables.Table)
		return
	}
	for _, n := range names {
		delete(s.cache, n)
	}
}

func (s *Session) table(ctx context.Context, name string) (*tables.Table, error) {
	if t, ok := s.cache[name]; ok {
		return t, nil
	}
	t, err := s.store.ReadTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	s.cache[name] = t
	return t, nil
}

func (s *Session) write(ctx context.Context, name string, t *tables.Table) error {
	if err := s.store.WriteTable(ctx, name, t); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	s.Invalidate(name)
	return nil
}

func (s *Session) Transactions(ctx context.Context) ([]core.Transaction, error) {
	t, err := s.table(ctx, tables.TableTransaction)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, transactionFromRow(t, row))
	}
	return out, nil
}

func (s *Session) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	t := tables.New(tables.TableTransaction)
	for _, tx := range txs {
		t.Append(transactionCells(tx))
	}
	return s.write(ctx, tables.TableTransaction, t)
}

func (s *Session) Accounts(ctx context.Context) ([]core.Account, error) {
	t, err := s.table(ctx, tables.TableAccount)
	if err != nil {
		return nil, err
	}
	out := make([]core.Account, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, accountFromRow(t, row))
	}
	return out, nil
}

func (s *Session) SaveAccounts(ctx context.Context, accounts []core.Account) error {
	t := tables.New(tables.TableAccount)
	for _, a := range accounts {
		t.Append(accountCells(a))
	}
	return s.write(ctx, tables.TableAccount, t)
}

// AppendHistory adds rows to the append-only balance history. Existing rows
// are never rewritten beyond being carried through the whole-table replace.
func (s *Session) AppendHistory(ctx context.Context, rows []core.AccountHistory) error {
	if len(rows) == 0 {
		return nil
	}
	t, err := s.table(ctx, tables.TableAccountHistory)
	if err != nil {
		return err
	}
	out := &tables.Table{Header: t.Header, Rows: t.Rows}
	if len(out.Header) == 0 {
		out.Header = tables.Header(tables.TableAccountHistory)
	}
	for _, h := range rows {
		out.Append(historyCells(h))
	}
	return s.write(ctx, tables.TableAccountHistory, out)
}

func (s *Session) History(ctx context.Context) ([]core.AccountHistory, error) {
	t, err := s.table(ctx, tables.TableAccountHistory)
	if err != nil {
		return nil, err
	}
	out := make([]core.AccountHistory, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, historyFromRow(t, row))
	}
	return out, nil
}

func (s *Session) Links(ctx context.Context) ([]core.PlanActualLink, error) {
	t, err := s.table(ctx, tables.TablePlanActualLink)
	if err != nil {
		return nil, err
	}
	out := make([]core.PlanActualLink, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, linkFromRow(t, row))
	}
	return out, nil
}

func (s *Session) SaveLinks(ctx context.Context, links []core.PlanActualLink) error {
	t := tables.New(tables.TablePlanActualLink)
	for _, l := range links {
		t.Append(linkCells(l))
	}
	return s.write(ctx, tables.TablePlanActualLink, t)
}

func (s *Session) MonthlyAggregates(ctx context.Context) ([]core.MonthlyAggregate, error) {
	t, err := s.table(ctx, tables.TableMonthlyAggregate)
	if err != nil {
		return nil, err
	}
	out := make([]core.MonthlyAggregate, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, aggregateFromRow(t, row))
	}
	return out, nil
}

func (s *Session) SaveMonthlyAggregates(ctx context.Context, rows []core.MonthlyAggregate) error {
	t := tables.New(tables.TableMonthlyAggregate)
	for _, m := range rows {
		t.Append(aggregateCells(m))
	}
	return s.write(ctx, tables.TableMonthlyAggregate, t)
}

func (s *Session) Permissions(ctx context.Context) ([]core.AccountPermission, error) {
	t, err := s.table(ctx, tables.TableAccountPermission)
	if err != nil {
		return nil, err
	}
	out := make([]core.AccountPermission, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, permissionFromRow(t, row))
	}
	return out, nil
}
