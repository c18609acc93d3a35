// Package approvalrepo manages repository layer of transaction approvals.
package approvalrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/dbpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
)

// RepoPGS facilitates approval repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns approval RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const approvalColumns = `
    id, type, account_number, to_account_number, amount, description,
    requester_id, requester_role, status, approver_id, decided_at,
    comments, self_approved, reference_number, created_at`

func scanApproval(row interface{ Scan(...any) error }) (domain.TransactionApproval, error) {
	var (
		a          domain.TransactionApproval
		approverID sql.NullInt64
		decidedAt  sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.Type,
		&a.AccountNumber,
		&a.ToAccountNumber,
		&a.Amount,
		&a.Description,
		&a.RequesterID,
		&a.RequesterRole,
		&a.Status,
		&approverID,
		&decidedAt,
		&a.Comments,
		&a.SelfApproved,
		&a.ReferenceNumber,
		&a.CreatedAt,
	)
	if err != nil {
		return a, err
	}

	a.ApproverID = approverID.Int64

	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}

	return a, nil
}

const createQuery = `
INSERT INTO approvals (
    type, account_number, to_account_number, amount, description, requester_id, requester_role
) VALUES (
    $1, $2, $3, $4, $5, $6, $7
) RETURNING` + approvalColumns

// Create records a PENDING approval request and returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateApprovalParams) (domain.TransactionApproval, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Type,
		arg.AccountNumber,
		arg.ToAccountNumber,
		arg.Amount,
		arg.Description,
		arg.RequesterID,
		arg.RequesterRole,
	)

	a, err := scanApproval(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		switch dbpkg.Constraint(err) {
		case "approvals_requester_id_fkey":
			return a, domain.ErrRequesterNotFound
		case "approvals_type_check":
			return a, domain.ErrInvalidTransactionType
		case "approvals_amount_check":
			return a, domain.ErrInvalidAmount
		}

		return a, errorspkg.ErrPersistence
	}

	return a, nil
}

const getQuery = `
SELECT` + approvalColumns + `
FROM approvals
WHERE id = $1
`

// Get returns the approval with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.TransactionApproval, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanApproval(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrApprovalNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrPersistence
	}

	return a, nil
}

const listPendingQuery = `
SELECT` + approvalColumns + `
FROM approvals
WHERE status = 'PENDING'
ORDER BY id
`

// ListPending returns every PENDING approval, oldest first.
func (r *RepoPGS) ListPending(ctx context.Context) ([]domain.TransactionApproval, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listPendingQuery)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrPersistence
	}
	defer rows.Close()

	items := []domain.TransactionApproval{}

	for rows.Next() {
		a, err := scanApproval(rows)
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

const decideQuery = `
UPDATE approvals
SET
    status = $2,
    approver_id = $3,
    comments = $4,
    self_approved = $5,
    reference_number = $6,
    decided_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING` + approvalColumns

// Decide moves a PENDING approval into a terminal status exactly once.
// Deciding a non-pending approval returns *domain.InvalidApprovalStateError.
func (r *RepoPGS) Decide(ctx context.Context, arg domain.DecideApprovalParams) (domain.TransactionApproval, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, decideQuery,
		arg.ID,
		arg.Status,
		arg.ApproverID,
		arg.Comments,
		arg.SelfApproved,
		arg.ReferenceNumber,
	)

	a, err := scanApproval(row)
	if err == nil {
		return a, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		l.Error().Err(err).Msgf("Decide(ctx, %+v)", arg)

		if dbpkg.Constraint(err) == "approvals_approver_id_fkey" {
			return a, domain.ErrUnauthorized
		}

		return a, errorspkg.ErrPersistence
	}

	current, err := r.Get(ctx, arg.ID)
	if err != nil {
		return current, err
	}

	return current, &domain.InvalidApprovalStateError{
		ApprovalID: current.ID,
		Status:     current.Status,
		Reason:     "approval is already decided",
	}
}
