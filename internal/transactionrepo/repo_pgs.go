// Package transactionrepo manages repository layer of ledger transactions.
package transactionrepo

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/dbpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
)

// typeIDs caches transaction_types ids by name. The table is seeded once by migrations.
var typeIDs sync.Map

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const typeIDQuery = `
SELECT id FROM transaction_types WHERE name = $1
`

// TypeID returns the id of the transaction type with the given name.
func (r *RepoPGS) TypeID(ctx context.Context, name domain.TransactionType) (int32, error) {
	if id, ok := typeIDs.Load(name); ok {
		return id.(int32), nil
	}

	l := zerolog.Ctx(ctx)

	var id int32

	err := r.db.QueryRowContext(ctx, typeIDQuery, string(name)).Scan(&id)
	if err != nil {
		l.Error().Err(err).Str("type", string(name)).Send()

		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrInvalidTransactionType
		}

		return 0, errorspkg.ErrPersistence
	}

	typeIDs.Store(name, id)

	return id, nil
}

const createQuery = `
INSERT INTO transactions (
    account_id,
    type_id,
    amount,
    balance_before,
    balance_after,
    description,
    reference_number,
    reversed_reference,
    created_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, 0)
) RETURNING id, status, created_at
`

// Create appends the ledger entry and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	typeID, err := r.TypeID(ctx, arg.Type)
	if err != nil {
		return domain.Transaction{}, err
	}

	t := domain.Transaction{
		AccountID:       arg.AccountID,
		Type:            arg.Type,
		Amount:          arg.Amount,
		BalanceBefore:   arg.BalanceBefore,
		BalanceAfter:    arg.BalanceAfter(),
		Description:     arg.Description,
		ReferenceNumber: arg.ReferenceNumber,
		ReversedRef:     arg.ReversedRef,
		CreatedBy:       arg.CreatedBy,
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.AccountID,
		typeID,
		arg.Amount,
		arg.BalanceBefore,
		t.BalanceAfter,
		arg.Description,
		arg.ReferenceNumber,
		arg.ReversedRef,
		arg.CreatedBy,
	)

	err = row.Scan(&t.ID, &t.Status, &t.CreatedAt)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		switch dbpkg.Constraint(err) {
		case "transactions_reference_account_key":
			return t, domain.ErrDuplicateReference
		case "transactions_reversed_reference_key":
			return t, domain.ErrAlreadyReversed
		case "transactions_account_id_fkey":
			return t, domain.ErrAccountNotFound
		case "transactions_created_by_fkey":
			return t, domain.ErrRequesterNotFound
		case "transactions_amount_check":
			return t, domain.ErrInvalidAmount
		}

		return t, errorspkg.ErrPersistence
	}

	return t, nil
}

const selectColumns = `
SELECT
    t.id, t.account_id, tt.name, t.amount, t.balance_before, t.balance_after,
    t.description, t.reference_number, COALESCE(t.reversed_reference, ''),
    COALESCE(t.created_by, 0), t.status, t.created_at
FROM transactions t
JOIN transaction_types tt ON tt.id = t.type_id
`

func (r *RepoPGS) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrPersistence
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.Type,
			&t.Amount,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&t.Description,
			&t.ReferenceNumber,
			&t.ReversedRef,
			&t.CreatedBy,
			&t.Status,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrPersistence
		}

		items = append(items, t)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrPersistence
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrPersistence
	}

	return items, nil
}

const listByReferenceQuery = selectColumns + `
WHERE t.reference_number = $1
ORDER BY t.id
`

// ListByReference returns every entry sharing the reference number.
func (r *RepoPGS) ListByReference(ctx context.Context, reference string) ([]domain.Transaction, error) {
	return r.list(ctx, listByReferenceQuery, reference)
}

const listByAccountAndDateQuery = selectColumns + `
WHERE t.account_id = $1 AND t.created_at >= $2 AND t.created_at < $3
ORDER BY t.id
`

// ListByAccountAndDate returns the entries of the account created within [from, to).
func (r *RepoPGS) ListByAccountAndDate(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error) {
	return r.list(ctx, listByAccountAndDateQuery, accountID, from, to)
}

const sumDailyDebitsQuery = `
SELECT COALESCE(SUM(-t.amount), 0)
FROM transactions t
JOIN transaction_types tt ON tt.id = t.type_id
WHERE t.account_id = $1
  AND t.amount < 0
  AND tt.name IN ('WITHDRAWAL', 'TRANSFER')
  AND t.created_at >= $2 AND t.created_at < $3
`

// SumDailyDebits returns the total of withdrawal and transfer debits of the account within [from, to).
func (r *RepoPGS) SumDailyDebits(ctx context.Context, accountID int64, from, to time.Time) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	var total decimal.Decimal

	err := r.db.QueryRowContext(ctx, sumDailyDebitsQuery, accountID, from, to).Scan(&total)
	if err != nil {
		l.Error().Err(err).Send()
		return decimal.Zero, errorspkg.ErrPersistence
	}

	return total, nil
}

const referenceExistsQuery = `
SELECT EXISTS (SELECT 1 FROM transactions WHERE reference_number = $1)
`

// ReferenceExists reports whether any entry carries the reference number.
func (r *RepoPGS) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	return r.exists(ctx, referenceExistsQuery, reference)
}

const isReversedQuery = `
SELECT EXISTS (SELECT 1 FROM transactions WHERE reversed_reference = $1)
`

// IsReversed reports whether a reversal of the reference number was recorded.
func (r *RepoPGS) IsReversed(ctx context.Context, reference string) (bool, error) {
	return r.exists(ctx, isReversedQuery, reference)
}

const hasSinceQuery = `
SELECT EXISTS (
    SELECT 1
    FROM transactions t
    JOIN transaction_types tt ON tt.id = t.type_id
    WHERE t.account_id = $1 AND tt.name = $2 AND t.created_at >= $3
)
`

// HasTransactionSince reports whether the account has an entry of the type created at or after since.
func (r *RepoPGS) HasTransactionSince(ctx context.Context, accountID int64, typ domain.TransactionType, since time.Time) (bool, error) {
	return r.exists(ctx, hasSinceQuery, accountID, string(typ), since)
}

func (r *RepoPGS) exists(ctx context.Context, query string, args ...any) (bool, error) {
	l := zerolog.Ctx(ctx)

	var ok bool

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		l.Error().Err(err).Send()
		return false, errorspkg.ErrPersistence
	}

	return ok, nil
}

const countByAccountQuery = `
SELECT COUNT(*) FROM transactions WHERE account_id = $1
`

// CountByAccount returns the number of entries of the account.
func (r *RepoPGS) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	l := zerolog.Ctx(ctx)

	var n int64

	if err := r.db.QueryRowContext(ctx, countByAccountQuery, accountID).Scan(&n); err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrPersistence
	}

	return n, nil
}
