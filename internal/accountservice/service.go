// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
)

const maxNumberAttempts = 100

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Open(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	List(ctx context.Context, arg domain.ListAccountsParams) ([]domain.Account, error)
}

// Ledger provides read access to the entries of an account.
type Ledger interface {
	ListByAccountAndDate(ctx context.Context, accountID int64, from, to time.Time) ([]domain.Transaction, error)
}

// Maintenance runs fn in one db transaction holding the row lock of the account, so account
// changes are serialized with deposits, withdrawals and transfers on it.
type Maintenance interface {
	ExecLocked(ctx context.Context, id int64, fn func(ctx context.Context, account domain.Account, q LockedQueries) error) error
}

// LockedQueries changes an account inside a Maintenance unit.
type LockedQueries interface {
	UpdateType(ctx context.Context, id int64, typ domain.AccountType) (domain.Account, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AccountStatus) (domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	CountByAccount(ctx context.Context, accountID int64) (int64, error)
}

// UserLookup resolves customers and requesters.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

// InterestPoster posts monthly interest through the engine.
type InterestPoster interface {
	PostInterest(ctx context.Context, accountID, requesterID int64) (domain.Transaction, bool, error)
}

// NumberGenerator issues account and reference numbers.
type NumberGenerator interface {
	AccountNumber() string
	Reference() string
}

// Service facilitates account service layer logic.
type Service struct {
	repo     Repo
	ledger   Ledger
	locked   Maintenance
	users    UserLookup
	interest InterestPoster
	numbers  NumberGenerator
	loc      *time.Location
	now      func() time.Time
}

// New returns account service struct to manage account business logic.
// Ledger days are computed in loc.
func New(repo Repo, ledger Ledger, locked Maintenance, users UserLookup, interest InterestPoster,
	numbers NumberGenerator, loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}

	return &Service{
		repo:     repo,
		ledger:   ledger,
		locked:   locked,
		users:    users,
		interest: interest,
		numbers:  numbers,
		loc:      loc,
		now:      time.Now,
	}
}

// Create opens an account for an existing customer. The initial deposit must cover the
// minimum balance of the account type.
func (s *Service) Create(ctx context.Context, req domain.OpenAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if !req.Type.Valid() {
		return domain.Account{}, domain.ErrInvalidAccountType
	}

	if req.InitialDeposit.IsNegative() {
		return domain.Account{}, domain.ErrInvalidAmount
	}

	if req.InitialDeposit.LessThan(req.Type.Rules().MinimumBalance) {
		return domain.Account{}, fmt.Errorf("%w: %s requires at least %s",
			domain.ErrInitialDepositTooLow, req.Type, req.Type.Rules().MinimumBalance.StringFixed(2))
	}

	if _, err := s.users.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Account{}, domain.ErrCustomerNotFound
		}
		return domain.Account{}, err
	}

	for attempt := 1; ; attempt++ {
		account, err := s.repo.Open(ctx, domain.CreateAccountParams{
			Number:         s.numbers.AccountNumber(),
			CustomerID:     req.CustomerID,
			Type:           req.Type,
			InitialDeposit: req.InitialDeposit,
			Reference:      s.numbers.Reference(),
			CreatedBy:      req.RequesterID,
		})

		switch {
		case err == nil:
			l.Info().
				Int64("account_id", account.ID).
				Str("number", account.Number).
				Int64("customer_id", account.CustomerID).
				Msg("account opened")
			return account, nil
		case errors.Is(err, domain.ErrAccountNumberTaken), errors.Is(err, domain.ErrDuplicateReference):
			if attempt >= maxNumberAttempts {
				return domain.Account{}, err
			}
		default:
			return domain.Account{}, err
		}
	}
}

func (s *Service) requester(ctx context.Context, id int64) (domain.User, error) {
	requester, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrRequesterNotFound
		}
		return domain.User{}, err
	}

	if !requester.IsActive {
		return domain.User{}, fmt.Errorf("%w: user %d is inactive", domain.ErrUnauthorized, id)
	}

	return requester, nil
}

// RequireStaff returns domain.ErrUnauthorized unless the requester is an active staff member.
func (s *Service) RequireStaff(ctx context.Context, requesterID int64) error {
	requester, err := s.requester(ctx, requesterID)
	if err != nil {
		return err
	}

	if !requester.Role.Staff() {
		return fmt.Errorf("%w: %s may not manage accounts", domain.ErrUnauthorized, requester.Role)
	}

	return nil
}

// Visible returns domain.ErrUnauthorized unless the requester is staff or owns the customer's
// accounts.
func (s *Service) Visible(ctx context.Context, requesterID, customerID int64) error {
	requester, err := s.requester(ctx, requesterID)
	if err != nil {
		return err
	}

	if requester.Role.Staff() || requester.ID == customerID {
		return nil
	}

	return fmt.Errorf("%w: account belongs to another customer", domain.ErrUnauthorized)
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns account for the given external account number.
func (s *Service) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	return s.repo.GetByNumber(ctx, number)
}

// ListByCustomer returns accounts that are owned by the given customer.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, pageSize, pageID int32) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx, domain.ListAccountsParams{
		CustomerID: customerID,
		Limit:      pageSize,
		Offset:     (pageID - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// UpdateType moves the account to another product. The current balance must satisfy the
// new type's minimum balance.
func (s *Service) UpdateType(ctx context.Context, id int64, typ domain.AccountType) (domain.Account, error) {
	if !typ.Valid() {
		return domain.Account{}, domain.ErrInvalidAccountType
	}

	var updated domain.Account

	err := s.locked.ExecLocked(ctx, id, func(ctx context.Context, account domain.Account, q LockedQueries) error {
		if account.Status == domain.AccountStatusClosed {
			return &domain.AccountNotActiveError{AccountNumber: account.Number, Status: account.Status}
		}

		if account.Type == typ {
			updated = account
			return nil
		}

		if account.Balance.LessThan(typ.Rules().MinimumBalance) {
			return fmt.Errorf("%w: %s requires at least %s",
				domain.ErrMinimumBalance, typ, typ.Rules().MinimumBalance.StringFixed(2))
		}

		var err error
		updated, err = q.UpdateType(ctx, id, typ)

		return err
	})
	if err != nil {
		return domain.Account{}, err
	}

	return updated, nil
}

// ChangeStatus moves the account between ACTIVE and SUSPENDED, or closes it at zero balance.
// CLOSED is terminal.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status domain.AccountStatus) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if !status.Valid() {
		return domain.Account{}, domain.ErrInvalidAccountStatus
	}

	var (
		from    domain.AccountStatus
		updated domain.Account
	)

	err := s.locked.ExecLocked(ctx, id, func(ctx context.Context, account domain.Account, q LockedQueries) error {
		from = account.Status

		if account.Status == status {
			updated = account
			return nil
		}

		if account.Status == domain.AccountStatusClosed {
			return fmt.Errorf("%w: account %s is closed", domain.ErrInvalidAccountStatus, account.Number)
		}

		if status == domain.AccountStatusClosed && !account.Balance.IsZero() {
			return domain.ErrNonZeroBalanceOnClose
		}

		var err error
		updated, err = q.UpdateStatus(ctx, id, status)

		return err
	})
	if err != nil {
		return domain.Account{}, err
	}

	if from != status {
		l.Info().
			Int64("account_id", id).
			Str("from", string(from)).
			Str("to", string(status)).
			Msg("account status changed")
	}

	return updated, nil
}

// Delete permanently removes an account without transaction history. force removes it with
// its history and is reserved to ADMIN.
func (s *Service) Delete(ctx context.Context, id int64, force bool, requesterID int64) error {
	l := zerolog.Ctx(ctx)

	if force {
		requester, err := s.requester(ctx, requesterID)
		if err != nil {
			return err
		}

		if requester.Role != domain.RoleAdmin {
			return fmt.Errorf("%w: forced delete requires %s", domain.ErrUnauthorized, domain.RoleAdmin)
		}
	}

	var account domain.Account

	err := s.locked.ExecLocked(ctx, id, func(ctx context.Context, locked domain.Account, q LockedQueries) error {
		account = locked

		if !force {
			n, err := q.CountByAccount(ctx, id)
			if err != nil {
				return err
			}

			if n > 0 {
				return fmt.Errorf("%w: account %s has %d transactions", domain.ErrHasHistory, locked.Number, n)
			}
		}

		return q.DeleteAccount(ctx, id)
	})
	if err != nil {
		return err
	}

	if force {
		l.Warn().
			Int64("account_id", id).
			Str("number", account.Number).
			Str("balance", account.Balance.StringFixed(2)).
			Int64("requester_id", requesterID).
			Msg("account force deleted")
	} else {
		l.Info().Int64("account_id", id).Msg("account deleted")
	}

	return nil
}

// CalculateInterest returns one month of interest for the account's current balance.
func (s *Service) CalculateInterest(ctx context.Context, id int64) (decimal.Decimal, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Type.MonthlyInterest(account.Balance), nil
}

// PostInterest credits one month of interest to the account on behalf of a staff member.
// It reports false when nothing was due.
func (s *Service) PostInterest(ctx context.Context, id, requesterID int64) (domain.Transaction, bool, error) {
	if err := s.RequireStaff(ctx, requesterID); err != nil {
		return domain.Transaction{}, false, err
	}

	return s.interest.PostInterest(ctx, id, requesterID)
}

// DateLayout is the format of a ledger calendar date.
const DateLayout = "2006-01-02"

// Transactions returns the entries of the account dated on the ledger calendar day date,
// formatted as DateLayout. An empty date means today.
func (s *Service) Transactions(ctx context.Context, id int64, date string) ([]domain.Transaction, error) {
	var (
		from time.Time
		err  error
	)

	if date == "" {
		now := s.now().In(s.loc)
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	} else {
		from, err = time.ParseInLocation(DateLayout, date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be %s", domain.ErrInvalidDate, DateLayout)
		}
	}

	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	return s.ledger.ListByAccountAndDate(ctx, id, from, from.AddDate(0, 0, 1))
}
