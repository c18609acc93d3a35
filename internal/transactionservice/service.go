// Package transactionservice is the funds-movement engine. It executes deposits,
// withdrawals, transfers, reversals and interest postings as atomic ledger units.
package transactionservice

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/roleauth"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/metricspkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/refpkg"
)

// LedgerQueries is the store as seen from inside one atomic unit.
// LockAccount holds the account row until the unit ends.
type LedgerQueries interface {
	GetAccountByNumber(ctx context.Context, number string) (domain.Account, error)
	LockAccount(ctx context.Context, id int64) (domain.Account, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error)
	CreateTransaction(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	SumDailyDebits(ctx context.Context, accountID int64, from, to time.Time) (decimal.Decimal, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	ListByReference(ctx context.Context, reference string) ([]domain.Transaction, error)
	IsReversed(ctx context.Context, reference string) (bool, error)
	HasTransactionSince(ctx context.Context, accountID int64, typ domain.TransactionType, since time.Time) (bool, error)
	DecideApproval(ctx context.Context, arg domain.DecideApprovalParams) (domain.TransactionApproval, error)
}

// Store runs fn as one atomic unit: everything fn wrote is committed when it returns nil
// and nothing is when it returns an error.
type Store interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context, q LedgerQueries) error) error
}

// UserLookup resolves the requester of an operation.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

// ReferenceGenerator produces transaction reference numbers.
type ReferenceGenerator interface {
	Reference() string
}

const maxReferenceAttempts = 100

// Engine facilitates execution of ledger operations.
type Engine struct {
	store Store
	users UserLookup
	refs  ReferenceGenerator
	loc   *time.Location
	now   func() time.Time
}

// New returns Engine. loc bounds the calendar day of the daily limits and the interest month.
func New(store Store, users UserLookup, refs ReferenceGenerator, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}

	return &Engine{
		store: store,
		users: users,
		refs:  refs,
		loc:   loc,
		now:   time.Now,
	}
}

// Requester returns the active user with the given id.
func (e *Engine) Requester(ctx context.Context, id int64) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	if id <= 0 {
		return domain.User{}, domain.ErrRequesterNotFound
	}

	u, err := e.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			l.Info().Int64("requester_id", id).Msg("requester not found")
			return u, domain.ErrRequesterNotFound
		}

		return u, err
	}

	if !u.IsActive {
		l.Info().Int64("requester_id", id).Msg("requester is inactive")
		return u, domain.ErrUnauthorized
	}

	return u, nil
}

// Deposit credits the account after checking the requester's authority.
func (e *Engine) Deposit(ctx context.Context, arg domain.DepositParams) (domain.Execution, error) {
	return e.Execute(ctx, domain.TransactionIntent{
		Type:          domain.TransactionTypeDeposit,
		AccountNumber: arg.AccountNumber,
		Amount:        arg.Amount,
		Description:   arg.Description,
		RequesterID:   arg.RequesterID,
	})
}

// Withdraw debits the account after checking the requester's authority.
func (e *Engine) Withdraw(ctx context.Context, arg domain.WithdrawalParams) (domain.Execution, error) {
	return e.Execute(ctx, domain.TransactionIntent{
		Type:          domain.TransactionTypeWithdrawal,
		AccountNumber: arg.AccountNumber,
		Amount:        arg.Amount,
		Description:   arg.Description,
		RequesterID:   arg.RequesterID,
	})
}

// Transfer moves money between two accounts after checking the requester's authority.
func (e *Engine) Transfer(ctx context.Context, req domain.TransferRequest) (domain.Execution, error) {
	return e.Execute(ctx, domain.TransactionIntent{
		Type:            domain.TransactionTypeTransfer,
		AccountNumber:   req.FromAccountNumber,
		ToAccountNumber: req.ToAccountNumber,
		Amount:          req.Amount,
		Description:     req.Description,
		RequesterID:     req.RequesterID,
	})
}

// Execute classifies the intent by the requester's role and executes it when no approval is needed.
// Above the approval threshold it returns *domain.ApprovalRequiredError, above the ceiling
// *domain.AuthorizationExceededError.
func (e *Engine) Execute(ctx context.Context, intent domain.TransactionIntent) (domain.Execution, error) {
	l := zerolog.Ctx(ctx)

	if err := ValidateIntent(intent); err != nil {
		e.record(intent.Type, err)
		return domain.Execution{}, err
	}

	requester, err := e.Requester(ctx, intent.RequesterID)
	if err != nil {
		e.record(intent.Type, err)
		return domain.Execution{}, err
	}

	if err := roleauth.Authorize(requester.Role, intent.Amount); err != nil {
		l.Info().Err(err).
			Str("type", string(intent.Type)).
			Str("role", string(requester.Role)).
			Str("amount", intent.Amount.StringFixed(2)).
			Msg("intent not executed directly")
		e.record(intent.Type, err)

		return domain.Execution{}, err
	}

	exec, _, err := e.run(ctx, intent, nil)

	return exec, err
}

// ExecuteApproved decides the approval as APPROVED and executes its recorded intent in one
// atomic unit. The requester's authority is not checked again. When execution fails the
// approval stays PENDING.
func (e *Engine) ExecuteApproved(ctx context.Context, arg domain.DecideApprovalParams, intent domain.TransactionIntent) (domain.TransactionApproval, domain.Execution, error) {
	if err := ValidateIntent(intent); err != nil {
		e.record(intent.Type, err)
		return domain.TransactionApproval{}, domain.Execution{}, err
	}

	arg.Status = domain.ApprovalStatusApproved

	exec, approval, err := e.run(ctx, intent, &arg)

	return approval, exec, err
}

// ValidateIntent checks the shape of an intent.
func ValidateIntent(intent domain.TransactionIntent) error {
	switch intent.Type {
	case domain.TransactionTypeDeposit, domain.TransactionTypeWithdrawal:
		if intent.AccountNumber == "" {
			return domain.ErrMissingAccountNumber
		}
	case domain.TransactionTypeTransfer:
		req := domain.TransferRequest{
			FromAccountNumber: intent.AccountNumber,
			ToAccountNumber:   intent.ToAccountNumber,
			Amount:            intent.Amount,
			RequesterID:       intent.RequesterID,
		}
		if err := req.Validate(); err != nil {
			return err
		}
	default:
		return domain.ErrInvalidTransactionType
	}

	if !intent.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	return nil
}

func (e *Engine) run(ctx context.Context, intent domain.TransactionIntent, decide *domain.DecideApprovalParams) (domain.Execution, domain.TransactionApproval, error) {
	l := zerolog.Ctx(ctx)
	start := time.Now()

	var (
		exec     domain.Execution
		approval domain.TransactionApproval
	)

	err := e.store.ExecTx(ctx, func(ctx context.Context, q LedgerQueries) error {
		ref, err := e.newReference(ctx, q)
		if err != nil {
			return err
		}

		if decide != nil {
			arg := *decide
			arg.ReferenceNumber = ref

			approval, err = q.DecideApproval(ctx, arg)
			if err != nil {
				return err
			}
		}

		var rows []domain.Transaction

		switch intent.Type {
		case domain.TransactionTypeDeposit:
			rows, err = e.deposit(ctx, q, intent, ref)
		case domain.TransactionTypeWithdrawal:
			rows, err = e.withdraw(ctx, q, intent, ref)
		case domain.TransactionTypeTransfer:
			rows, err = e.transfer(ctx, q, intent, ref)
		default:
			err = domain.ErrInvalidTransactionType
		}

		if err != nil {
			return err
		}

		exec = domain.Execution{ReferenceNumber: ref, Transactions: rows}

		return nil
	})

	metricspkg.TransactionDuration.WithLabelValues(typeLabel(intent.Type)).Observe(time.Since(start).Seconds())
	e.record(intent.Type, err)

	if err != nil {
		l.Info().Err(err).
			Str("type", string(intent.Type)).
			Str("account", intent.AccountNumber).
			Str("amount", intent.Amount.StringFixed(2)).
			Msg("transaction refused")

		return domain.Execution{}, domain.TransactionApproval{}, err
	}

	l.Info().
		Str("type", string(intent.Type)).
		Str("reference", exec.ReferenceNumber).
		Str("amount", intent.Amount.StringFixed(2)).
		Int64("requester_id", intent.RequesterID).
		Msg("transaction executed")

	return exec, approval, nil
}

func (e *Engine) record(typ domain.TransactionType, err error) {
	outcome := metricspkg.OutcomeSuccess

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrApprovalRequired):
		outcome = metricspkg.OutcomeApprovalRequired
	case domain.Retryable(err) || domain.Code(err) == domain.CodeInternal:
		outcome = metricspkg.OutcomeFailed
	default:
		outcome = metricspkg.OutcomeRejected
	}

	metricspkg.TransactionsTotal.WithLabelValues(typeLabel(typ), outcome).Inc()
}

// typeLabel bounds the type label to the known transaction types.
func typeLabel(typ domain.TransactionType) string {
	if !typ.Valid() {
		return metricspkg.TypeInvalid
	}

	return string(typ)
}

// newReference returns a reference number unused by any entry.
// Only generation is retried on a collision.
func (e *Engine) newReference(ctx context.Context, q LedgerQueries) (string, error) {
	l := zerolog.Ctx(ctx)

	for i := 0; i < maxReferenceAttempts; i++ {
		ref := e.refs.Reference()

		exists, err := q.ReferenceExists(ctx, ref)
		if err != nil {
			return "", err
		}

		if !exists {
			return ref, nil
		}

		l.Warn().Str("reference", ref).Int("attempt", i+1).Msg("reference number collision")
	}

	return "", domain.ErrReferenceExhausted
}

// account resolves the account number. It is not locked.
func account(ctx context.Context, q LedgerQueries, number string) (domain.Account, error) {
	if !refpkg.ValidAccountNumber(number) {
		return domain.Account{}, domain.ErrInvalidAccountNumber
	}

	return q.GetAccountByNumber(ctx, number)
}

// lockAccounts locks the accounts in ascending id order and returns them by id.
func lockAccounts(ctx context.Context, q LedgerQueries, ids ...int64) (map[int64]domain.Account, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	locked := make(map[int64]domain.Account, len(sorted))

	for _, id := range sorted {
		if _, ok := locked[id]; ok {
			continue
		}

		a, err := q.LockAccount(ctx, id)
		if err != nil {
			return nil, err
		}

		locked[id] = a
	}

	return locked, nil
}

func requireActive(a domain.Account) error {
	if a.Status != domain.AccountStatusActive {
		return &domain.AccountNotActiveError{AccountNumber: a.Number, Status: a.Status}
	}

	return nil
}

// dayBounds returns the calendar day of t in the ledger time zone.
func (e *Engine) dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(e.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)

	return start, start.AddDate(0, 0, 1)
}

// checkDebit applies the daily aggregate limit and the funds rule to a debit of amount.
// The account must be locked when the result is used to write.
func (e *Engine) checkDebit(ctx context.Context, q LedgerQueries, a domain.Account, amount decimal.Decimal, typ domain.TransactionType) error {
	if typ.CountsTowardsDailyLimit() {
		from, to := e.dayBounds(e.now())

		total, err := q.SumDailyDebits(ctx, a.ID, from, to)
		if err != nil {
			return err
		}

		limit := a.Type.Rules().DailyWithdrawalLimit
		if total.Add(amount).GreaterThan(limit) {
			return &domain.LimitExceededError{
				AccountNumber: a.Number,
				Transfer:      typ == domain.TransactionTypeTransfer,
				Requested:     amount,
				Limit:         limit,
				DailyTotal:    total,
			}
		}
	}

	if !a.CanWithdraw(amount) {
		return &domain.InsufficientFundsError{
			AccountNumber: a.Number,
			Available:     a.Type.Available(a.Balance),
			Requested:     amount,
		}
	}

	return nil
}

// post appends the entry and stores the balance it leaves.
func post(ctx context.Context, q LedgerQueries, a domain.Account, arg domain.CreateTransactionParams) (domain.Transaction, domain.Account, error) {
	arg.AccountID = a.ID
	arg.BalanceBefore = a.Balance

	t, err := q.CreateTransaction(ctx, arg)
	if err != nil {
		return t, a, err
	}

	updated, err := q.UpdateBalance(ctx, a.ID, arg.BalanceAfter())
	if err != nil {
		return t, a, err
	}

	return t, updated, nil
}

func (e *Engine) deposit(ctx context.Context, q LedgerQueries, intent domain.TransactionIntent, ref string) ([]domain.Transaction, error) {
	a, err := account(ctx, q, intent.AccountNumber)
	if err != nil {
		return nil, err
	}

	locked, err := lockAccounts(ctx, q, a.ID)
	if err != nil {
		return nil, err
	}

	a = locked[a.ID]

	if err := requireActive(a); err != nil {
		return nil, err
	}

	t, _, err := post(ctx, q, a, domain.CreateTransactionParams{
		Type:            domain.TransactionTypeDeposit,
		Amount:          intent.Amount,
		Description:     intent.Description,
		ReferenceNumber: ref,
		CreatedBy:       intent.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	return []domain.Transaction{t}, nil
}

func (e *Engine) withdraw(ctx context.Context, q LedgerQueries, intent domain.TransactionIntent, ref string) ([]domain.Transaction, error) {
	a, err := account(ctx, q, intent.AccountNumber)
	if err != nil {
		return nil, err
	}

	locked, err := lockAccounts(ctx, q, a.ID)
	if err != nil {
		return nil, err
	}

	a = locked[a.ID]

	if err := requireActive(a); err != nil {
		return nil, err
	}

	if err := e.checkDebit(ctx, q, a, intent.Amount, domain.TransactionTypeWithdrawal); err != nil {
		return nil, err
	}

	t, _, err := post(ctx, q, a, domain.CreateTransactionParams{
		Type:            domain.TransactionTypeWithdrawal,
		Amount:          intent.Amount.Neg(),
		Description:     intent.Description,
		ReferenceNumber: ref,
		CreatedBy:       intent.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	return []domain.Transaction{t}, nil
}

func (e *Engine) transfer(ctx context.Context, q LedgerQueries, intent domain.TransactionIntent, ref string) ([]domain.Transaction, error) {
	from, err := account(ctx, q, intent.AccountNumber)
	if err != nil {
		return nil, err
	}

	to, err := account(ctx, q, intent.ToAccountNumber)
	if err != nil {
		return nil, err
	}

	if from.ID == to.ID {
		return nil, domain.ErrSameAccount
	}

	locked, err := lockAccounts(ctx, q, from.ID, to.ID)
	if err != nil {
		return nil, err
	}

	from, to = locked[from.ID], locked[to.ID]

	if err := requireActive(from); err != nil {
		return nil, err
	}

	if err := requireActive(to); err != nil {
		return nil, err
	}

	if err := e.checkDebit(ctx, q, from, intent.Amount, domain.TransactionTypeTransfer); err != nil {
		return nil, err
	}

	debit, _, err := post(ctx, q, from, domain.CreateTransactionParams{
		Type:            domain.TransactionTypeTransfer,
		Amount:          intent.Amount.Neg(),
		Description:     intent.Description,
		ReferenceNumber: ref,
		CreatedBy:       intent.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	credit, _, err := post(ctx, q, to, domain.CreateTransactionParams{
		Type:            domain.TransactionTypeTransfer,
		Amount:          intent.Amount,
		Description:     intent.Description,
		ReferenceNumber: ref,
		CreatedBy:       intent.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	return []domain.Transaction{debit, credit}, nil
}

// CheckDebit is a read-only dry run of the daily limit and funds checks of a debit of amount.
// Nothing is locked; the executing operation checks again under lock.
func (e *Engine) CheckDebit(ctx context.Context, accountNumber string, amount decimal.Decimal, typ domain.TransactionType) error {
	return e.store.ExecTx(ctx, func(ctx context.Context, q LedgerQueries) error {
		a, err := account(ctx, q, accountNumber)
		if err != nil {
			return err
		}

		if err := requireActive(a); err != nil {
			return err
		}

		return e.checkDebit(ctx, q, a, amount, typ)
	})
}
