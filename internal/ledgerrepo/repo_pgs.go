// Package ledgerrepo runs ledger operations as postgres transactions spanning
// accounts, transactions and approvals.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/accountrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/accountservice"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/approvalrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactionrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactionservice"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/dbpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
)

// RepoPGS starts ledger transactions.
type RepoPGS struct {
	conn             *sql.DB
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

var (
	_ transactionservice.Store   = (*RepoPGS)(nil)
	_ accountservice.Maintenance = (*RepoPGS)(nil)
)

// NewRepoPGS returns ledger RepoPGS. Zero timeouts keep the server defaults.
func NewRepoPGS(db *sql.DB, lockTimeout, statementTimeout time.Duration) *RepoPGS {
	return &RepoPGS{
		conn:             db,
		lockTimeout:      lockTimeout,
		statementTimeout: statementTimeout,
	}
}

const setConfigQuery = `SELECT set_config($1, $2, true)`

// ExecTx runs fn within a read committed db transaction. Lock waits and statements are
// bounded by the configured timeouts; exceeding them rolls back and returns errorspkg.ErrPersistence.
func (r *RepoPGS) ExecTx(ctx context.Context, fn func(ctx context.Context, q transactionservice.LedgerQueries) error) error {
	return r.execTx(ctx, func(ctx context.Context, q *Queries) error {
		return fn(ctx, q)
	})
}

// ExecLocked runs fn within a db transaction holding the row lock of the account with the
// given id. It has the timeouts of ExecTx.
func (r *RepoPGS) ExecLocked(ctx context.Context, id int64,
	fn func(ctx context.Context, account domain.Account, q accountservice.LockedQueries) error,
) error {
	return r.execTx(ctx, func(ctx context.Context, q *Queries) error {
		account, err := q.LockAccount(ctx, id)
		if err != nil {
			return err
		}

		return fn(ctx, account, q)
	})
}

func (r *RepoPGS) execTx(ctx context.Context, fn func(ctx context.Context, q *Queries) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrPersistence
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	for name, d := range map[string]time.Duration{
		"lock_timeout":      r.lockTimeout,
		"statement_timeout": r.statementTimeout,
	} {
		if d <= 0 {
			continue
		}

		if _, err := tx.ExecContext(ctx, setConfigQuery, name, fmt.Sprintf("%dms", d.Milliseconds())); err != nil {
			l.Error().Err(err).Str("setting", name).Send()
			return errorspkg.ErrPersistence
		}
	}

	if err := fn(ctx, newQueries(tx)); err != nil {
		if dbpkg.IsTimeout(err) {
			l.Warn().Err(err).Msg("ledger transaction timed out")
			return errorspkg.ErrPersistence
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrPersistence
	}

	return nil
}

// Queries composes the repositories bound to one db transaction.
type Queries struct {
	accounts     *accountrepo.RepoPGS
	transactions *transactionrepo.RepoPGS
	approvals    *approvalrepo.RepoPGS
}

func newQueries(tx *sql.Tx) *Queries {
	return &Queries{
		accounts:     accountrepo.NewTxRepoPGS(tx),
		transactions: transactionrepo.NewRepoPGS(tx),
		approvals:    approvalrepo.NewRepoPGS(tx),
	}
}

// GetAccountByNumber returns the account without locking it.
func (q *Queries) GetAccountByNumber(ctx context.Context, number string) (domain.Account, error) {
	return q.accounts.GetByNumber(ctx, number)
}

// LockAccount returns the account and holds its row lock.
func (q *Queries) LockAccount(ctx context.Context, id int64) (domain.Account, error) {
	return q.accounts.Lock(ctx, id)
}

// UpdateType changes the account type.
func (q *Queries) UpdateType(ctx context.Context, id int64, typ domain.AccountType) (domain.Account, error) {
	return q.accounts.UpdateType(ctx, id, typ)
}

// UpdateStatus changes the account status.
func (q *Queries) UpdateStatus(ctx context.Context, id int64, status domain.AccountStatus) (domain.Account, error) {
	return q.accounts.UpdateStatus(ctx, id, status)
}

// DeleteAccount removes the account together with its entries.
func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	return q.accounts.Delete(ctx, id)
}

// CountByAccount returns the number of entries of the account.
func (q *Queries) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	return q.transactions.CountByAccount(ctx, accountID)
}

// UpdateBalance stores the new balance.
func (q *Queries) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error) {
	return q.accounts.UpdateBalance(ctx, id, balance)
}

// CreateTransaction appends a ledger entry.
func (q *Queries) CreateTransaction(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	return q.transactions.Create(ctx, arg)
}

// SumDailyDebits returns the daily aggregate of the account within [from, to).
func (q *Queries) SumDailyDebits(ctx context.Context, accountID int64, from, to time.Time) (decimal.Decimal, error) {
	return q.transactions.SumDailyDebits(ctx, accountID, from, to)
}

// ReferenceExists reports whether the reference number is taken.
func (q *Queries) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	return q.transactions.ReferenceExists(ctx, reference)
}

// ListByReference returns the entries of the reference number.
func (q *Queries) ListByReference(ctx context.Context, reference string) ([]domain.Transaction, error) {
	return q.transactions.ListByReference(ctx, reference)
}

// IsReversed reports whether the reference number was reversed.
func (q *Queries) IsReversed(ctx context.Context, reference string) (bool, error) {
	return q.transactions.IsReversed(ctx, reference)
}

// HasTransactionSince reports whether the account has an entry of the type since the given time.
func (q *Queries) HasTransactionSince(ctx context.Context, accountID int64, typ domain.TransactionType, since time.Time) (bool, error) {
	return q.transactions.HasTransactionSince(ctx, accountID, typ, since)
}

// DecideApproval moves a pending approval into a terminal status.
func (q *Queries) DecideApproval(ctx context.Context, arg domain.DecideApprovalParams) (domain.TransactionApproval, error) {
	return q.approvals.Decide(ctx, arg)
}
