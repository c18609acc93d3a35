package transactionservice

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
)

// fakeLedger is an in-memory Store. ExecTx serializes units and restores the
// previous state when fn fails.
type fakeLedger struct {
	mu        sync.Mutex
	accounts  map[int64]domain.Account
	rows      []domain.Transaction
	approvals map[int64]domain.TransactionApproval
	now       func() time.Time

	// failCreate makes the n-th CreateTransaction call of a unit fail.
	failCreate int
	creates    int
}

func newFakeLedger(now func() time.Time, accounts ...domain.Account) *fakeLedger {
	f := &fakeLedger{
		accounts:  make(map[int64]domain.Account),
		approvals: make(map[int64]domain.TransactionApproval),
		now:       now,
	}

	for _, a := range accounts {
		f.accounts[a.ID] = a
	}

	return f
}

func (f *fakeLedger) ExecTx(ctx context.Context, fn func(ctx context.Context, q LedgerQueries) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	accounts := maps.Clone(f.accounts)
	rows := slices.Clone(f.rows)
	approvals := maps.Clone(f.approvals)
	f.creates = 0

	if err := fn(ctx, f); err != nil {
		f.accounts, f.rows, f.approvals = accounts, rows, approvals
		return err
	}

	return nil
}

func (f *fakeLedger) account(id int64) domain.Account {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.accounts[id]
}

func (f *fakeLedger) entries() []domain.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.rows)
}

func (f *fakeLedger) GetAccountByNumber(_ context.Context, number string) (domain.Account, error) {
	for _, a := range f.accounts {
		if a.Number == number {
			return a, nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

func (f *fakeLedger) LockAccount(_ context.Context, id int64) (domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return a, domain.ErrAccountNotFound
	}

	return a, nil
}

func (f *fakeLedger) UpdateBalance(_ context.Context, id int64, balance decimal.Decimal) (domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return a, domain.ErrAccountNotFound
	}

	a.Balance = balance
	f.accounts[id] = a

	return a, nil
}

func (f *fakeLedger) CreateTransaction(_ context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	f.creates++
	if f.failCreate > 0 && f.creates == f.failCreate {
		return domain.Transaction{}, errorspkg.ErrPersistence
	}

	for _, r := range f.rows {
		if r.ReferenceNumber == arg.ReferenceNumber && r.AccountID == arg.AccountID {
			return domain.Transaction{}, domain.ErrDuplicateReference
		}
	}

	t := domain.Transaction{
		ID:              int64(len(f.rows) + 1),
		AccountID:       arg.AccountID,
		Type:            arg.Type,
		Amount:          arg.Amount,
		BalanceBefore:   arg.BalanceBefore,
		BalanceAfter:    arg.BalanceAfter(),
		Description:     arg.Description,
		ReferenceNumber: arg.ReferenceNumber,
		ReversedRef:     arg.ReversedRef,
		CreatedBy:       arg.CreatedBy,
		Status:          domain.TransactionStatusCompleted,
		CreatedAt:       f.now(),
	}

	f.rows = append(f.rows, t)

	return t, nil
}

func (f *fakeLedger) SumDailyDebits(_ context.Context, accountID int64, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero

	for _, r := range f.rows {
		if r.AccountID != accountID || !r.Amount.IsNegative() || !r.Type.CountsTowardsDailyLimit() {
			continue
		}

		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}

		total = total.Sub(r.Amount)
	}

	return total, nil
}

func (f *fakeLedger) ReferenceExists(_ context.Context, reference string) (bool, error) {
	for _, r := range f.rows {
		if r.ReferenceNumber == reference {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeLedger) ListByReference(_ context.Context, reference string) ([]domain.Transaction, error) {
	var items []domain.Transaction

	for _, r := range f.rows {
		if r.ReferenceNumber == reference {
			items = append(items, r)
		}
	}

	return items, nil
}

func (f *fakeLedger) IsReversed(_ context.Context, reference string) (bool, error) {
	for _, r := range f.rows {
		if r.ReversedRef == reference {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeLedger) HasTransactionSince(_ context.Context, accountID int64, typ domain.TransactionType, since time.Time) (bool, error) {
	for _, r := range f.rows {
		if r.AccountID == accountID && r.Type == typ && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeLedger) DecideApproval(_ context.Context, arg domain.DecideApprovalParams) (domain.TransactionApproval, error) {
	a, ok := f.approvals[arg.ID]
	if !ok {
		return a, domain.ErrApprovalNotFound
	}

	if !a.Pending() {
		return a, &domain.InvalidApprovalStateError{ApprovalID: a.ID, Status: a.Status, Reason: "approval is already decided"}
	}

	now := f.now()
	a.Status = arg.Status
	a.ApproverID = arg.ApproverID
	a.Comments = arg.Comments
	a.SelfApproved = arg.SelfApproved
	a.ReferenceNumber = arg.ReferenceNumber
	a.DecidedAt = &now
	f.approvals[a.ID] = a

	return a, nil
}

type fakeUsers map[int64]domain.User

func (u fakeUsers) GetByID(_ context.Context, id int64) (domain.User, error) {
	user, ok := u[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}

	return user, nil
}

// seqRefs hands out the listed references, repeating the last one.
// With an empty list it generates unique references.
type seqRefs struct {
	mu   sync.Mutex
	list []string
	n    int
}

func (s *seqRefs) Reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++

	if len(s.list) > 0 {
		ref := s.list[0]
		if len(s.list) > 1 {
			s.list = s.list[1:]
		}

		return ref
	}

	return "TXN" + decimal.NewFromInt(int64(s.n)).String()
}
