// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactionrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/dbpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns account RepoPGS bound to an open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns account RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const accountColumns = `id, number, customer_id, type, balance, status, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Number,
		&a.CustomerID,
		&a.Type,
		&a.Balance,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (r *RepoPGS) one(ctx context.Context, query string, args ...any) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrPersistence
	}

	return a, nil
}

const createQuery = `
INSERT INTO
    accounts (number, customer_id, type, balance)
VALUES
    ($1, $2, $3, $4)
RETURNING ` + accountColumns

// Create creates the account holding the initial deposit as balance and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.Number, arg.CustomerID, arg.Type, arg.InitialDeposit)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		switch dbpkg.Constraint(err) {
		case "accounts_customer_id_fkey":
			return a, domain.ErrCustomerNotFound
		case "accounts_number_key":
			return a, domain.ErrAccountNumberTaken
		case "accounts_type_check":
			return a, domain.ErrInvalidAccountType
		}

		return a, errorspkg.ErrPersistence
	}

	return a, nil
}

// Open creates the account and its opening DEPOSIT entry within a single db transaction.
// A zero initial deposit writes no entry.
func (r *RepoPGS) Open(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, errorspkg.ErrPersistence
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	account, err := NewTxRepoPGS(tx).Create(ctx, arg)
	if err != nil {
		return account, err
	}

	if arg.InitialDeposit.IsPositive() {
		_, err = transactionrepo.NewRepoPGS(tx).Create(ctx, domain.CreateTransactionParams{
			AccountID:       account.ID,
			Type:            domain.TransactionTypeDeposit,
			Amount:          arg.InitialDeposit,
			BalanceBefore:   decimal.Zero,
			Description:     "Initial deposit",
			ReferenceNumber: arg.Reference,
			CreatedBy:       arg.CreatedBy,
		})
		if err != nil {
			return domain.Account{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, errorspkg.ErrPersistence
	}

	return account, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	return r.one(ctx, getQuery, id)
}

const getByNumberQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE number = $1
`

// GetByNumber returns the account with the given external number.
func (r *RepoPGS) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	return r.one(ctx, getByNumberQuery, number)
}

const lockQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
FOR UPDATE
`

// Lock reads the account and holds its row lock until the enclosing db transaction ends.
func (r *RepoPGS) Lock(ctx context.Context, id int64) (domain.Account, error) {
	return r.one(ctx, lockQuery, id)
}

const listQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE customer_id = $1
ORDER BY id
LIMIT $2 OFFSET $3
`

// List returns the specified number of accounts of the given customer.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListAccountsParams) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrPersistence
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrPersistence
		}

		items = append(items, a)
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

const listActiveQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE status = 'ACTIVE' AND balance > 0 AND id > $1
ORDER BY id
LIMIT $2
`

// ListInterestBearing returns up to limit active accounts with a positive balance and id above afterID.
func (r *RepoPGS) ListInterestBearing(ctx context.Context, afterID int64, limit int32) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listActiveQuery, afterID, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrPersistence
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrPersistence
		}

		if !a.Type.Rules().InterestRate.IsZero() {
			items = append(items, a)
		}
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrPersistence
	}

	return items, nil
}

const updateBalanceQuery = `
UPDATE accounts
SET balance = $2, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns

// UpdateBalance stores the new balance of the account and returns the changed account.
func (r *RepoPGS) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error) {
	return r.update(ctx, updateBalanceQuery, id, balance)
}

const updateTypeQuery = `
UPDATE accounts
SET type = $2, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns

// UpdateType changes the account type and returns the changed account.
func (r *RepoPGS) UpdateType(ctx context.Context, id int64, typ domain.AccountType) (domain.Account, error) {
	return r.update(ctx, updateTypeQuery, id, typ)
}

const updateStatusQuery = `
UPDATE accounts
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns

// UpdateStatus changes the account status and returns the changed account.
func (r *RepoPGS) UpdateStatus(ctx context.Context, id int64, status domain.AccountStatus) (domain.Account, error) {
	return r.update(ctx, updateStatusQuery, id, status)
}

func (r *RepoPGS) update(ctx context.Context, query string, id int64, value any) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Int64("account_id", id).Send()

		switch dbpkg.Constraint(err) {
		case "accounts_closed_zero_balance":
			return a, domain.ErrNonZeroBalanceOnClose
		case "accounts_type_check":
			return a, domain.ErrInvalidAccountType
		case "accounts_status_check":
			return a, domain.ErrInvalidAccountStatus
		}

		return a, errorspkg.ErrPersistence
	}

	return a, nil
}

const deleteQuery = `
DELETE FROM accounts
WHERE id = $1
`

// Delete removes the account with the given id together with its entries.
func (r *RepoPGS) Delete(ctx context.Context, id int64) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrPersistence
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrPersistence
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}
