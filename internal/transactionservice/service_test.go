package transactionservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/randompkg"
)

const (
	tellerID   int64 = 1
	managerID  int64 = 2
	adminID    int64 = 3
	customerID int64 = 4
	inactiveID int64 = 5
)

var (
	testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	testUsers = fakeUsers{
		tellerID:   {ID: tellerID, Username: "teller", Role: domain.RoleTeller, IsActive: true},
		managerID:  {ID: managerID, Username: "manager", Role: domain.RoleManager, IsActive: true},
		adminID:    {ID: adminID, Username: "admin", Role: domain.RoleAdmin, IsActive: true},
		customerID: {ID: customerID, Username: "customer", Role: domain.RoleCustomer, IsActive: true},
		inactiveID: {ID: inactiveID, Username: "former", Role: domain.RoleManager, IsActive: false},
	}
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAccount(id int64, number string, typ domain.AccountType, balance string) domain.Account {
	return domain.Account{
		ID:         id,
		Number:     number,
		CustomerID: customerID,
		Type:       typ,
		Balance:    money(balance),
		Status:     domain.AccountStatusActive,
		CreatedAt:  testNow.Add(-24 * time.Hour),
	}
}

func newTestEngine(t *testing.T, accounts ...domain.Account) (*Engine, *fakeLedger) {
	t.Helper()

	clock := func() time.Time { return testNow }
	ledger := newFakeLedger(clock, accounts...)

	e := New(ledger, testUsers, &seqRefs{}, time.UTC)
	e.now = clock

	return e, ledger
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, money(want).Equal(got), "want %s, got %s", want, got)
}

func TestDeposit(t *testing.T) {
	suspended := testAccount(2, "2000000002", domain.AccountTypeChecking, "10.00")
	suspended.Status = domain.AccountStatusSuspended

	testCases := []struct {
		name        string
		arg         domain.DepositParams
		wantErr     error
		wantBalance string
	}{
		{
			name:        "OK",
			arg:         domain.DepositParams{AccountNumber: "1000000001", Amount: money("250.50"), RequesterID: tellerID},
			wantBalance: "1250.50",
		},
		{
			name:    "ZeroAmount",
			arg:     domain.DepositParams{AccountNumber: "1000000001", Amount: decimal.Zero, RequesterID: tellerID},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			arg:     domain.DepositParams{AccountNumber: "1000000001", Amount: money("-1"), RequesterID: tellerID},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "MalformedNumber",
			arg:     domain.DepositParams{AccountNumber: "12AB", Amount: money("10"), RequesterID: tellerID},
			wantErr: domain.ErrInvalidAccount,
		},
		{
			name:    "UnknownAccount",
			arg:     domain.DepositParams{AccountNumber: "9999999999", Amount: money("10"), RequesterID: tellerID},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "AccountNotActive",
			arg:     domain.DepositParams{AccountNumber: suspended.Number, Amount: money("10"), RequesterID: tellerID},
			wantErr: domain.ErrAccountNotActive,
		},
		{
			name:    "RequesterNotFound",
			arg:     domain.DepositParams{AccountNumber: "1000000001", Amount: money("10"), RequesterID: 404},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "RequesterInactive",
			arg:     domain.DepositParams{AccountNumber: "1000000001", Amount: money("10"), RequesterID: inactiveID},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "TellerAboveThreshold",
			arg:     domain.DepositParams{AccountNumber: "1000000001", Amount: money("1500"), RequesterID: tellerID},
			wantErr: domain.ErrApprovalRequired,
		},
		{
			name:    "CustomerCannotProcess",
			arg:     domain.DepositParams{AccountNumber: "1000000001", Amount: money("1"), RequesterID: customerID},
			wantErr: domain.ErrAuthorizationExceeded,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, ledger := newTestEngine(t,
				testAccount(1, "1000000001", domain.AccountTypeSavings, "1000.00"),
				suspended,
			)

			exec, err := e.Deposit(context.Background(), tc.arg)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, exec)
				require.Empty(t, ledger.entries())
				return
			}

			require.NoError(t, err)
			require.Len(t, exec.Transactions, 1)

			row := exec.Transactions[0]
			require.Equal(t, domain.TransactionTypeDeposit, row.Type)
			require.Equal(t, exec.ReferenceNumber, row.ReferenceNumber)
			requireMoney(t, "1000.00", row.BalanceBefore)
			requireMoney(t, tc.wantBalance, row.BalanceAfter)
			requireMoney(t, tc.wantBalance, ledger.account(1).Balance)
		})
	}
}

func TestWithdrawCheckingOverdraft(t *testing.T) {
	t.Parallel()

	checking := testAccount(1, "1000000001", domain.AccountTypeChecking, "100.00")

	t.Run("BeyondOverdraft", func(t *testing.T) {
		t.Parallel()

		e, ledger := newTestEngine(t, checking)

		_, err := e.Withdraw(context.Background(), domain.WithdrawalParams{
			AccountNumber: checking.Number,
			Amount:        money("650.00"),
			RequesterID:   tellerID,
		})

		var funds *domain.InsufficientFundsError
		require.True(t, errors.As(err, &funds))
		requireMoney(t, "600.00", funds.Available)
		requireMoney(t, "650.00", funds.Requested)
		require.Equal(t, domain.CodeInsufficientFunds, domain.Code(err))
		requireMoney(t, "100.00", ledger.account(1).Balance)
	})

	t.Run("WithinOverdraft", func(t *testing.T) {
		t.Parallel()

		e, ledger := newTestEngine(t, checking)

		exec, err := e.Withdraw(context.Background(), domain.WithdrawalParams{
			AccountNumber: checking.Number,
			Amount:        money("550.00"),
			RequesterID:   tellerID,
		})
		require.NoError(t, err)
		require.Len(t, exec.Transactions, 1)
		requireMoney(t, "-550.00", exec.Transactions[0].Amount)
		requireMoney(t, "-450.00", exec.Transactions[0].BalanceAfter)
		requireMoney(t, "-450.00", ledger.account(1).Balance)
	})

	t.Run("SavingsMinimumBalance", func(t *testing.T) {
		t.Parallel()

		e, _ := newTestEngine(t, testAccount(2, "2000000002", domain.AccountTypeSavings, "500.00"))

		_, err := e.Withdraw(context.Background(), domain.WithdrawalParams{
			AccountNumber: "2000000002",
			Amount:        money("400.01"),
			RequesterID:   tellerID,
		})
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)

		_, err = e.Withdraw(context.Background(), domain.WithdrawalParams{
			AccountNumber: "2000000002",
			Amount:        money("400.00"),
			RequesterID:   tellerID,
		})
		require.NoError(t, err)
	})
}

func TestDailyLimit(t *testing.T) {
	t.Parallel()

	savings := testAccount(1, "1000000001", domain.AccountTypeSavings, "20000.00")
	other := testAccount(2, "2000000002", domain.AccountTypeChecking, "0.00")

	e, ledger := newTestEngine(t, savings, other)

	// Debits of the previous day do not count.
	ledger.rows = append(ledger.rows, domain.Transaction{
		ID:              1,
		AccountID:       savings.ID,
		Type:            domain.TransactionTypeWithdrawal,
		Amount:          money("-4999.00"),
		ReferenceNumber: "TXNYESTERDAY",
		CreatedAt:       testNow.Add(-24 * time.Hour),
	})

	ctx := context.Background()

	_, err := e.Withdraw(ctx, domain.WithdrawalParams{AccountNumber: savings.Number, Amount: money("4000.00"), RequesterID: adminID})
	require.NoError(t, err)

	_, err = e.Transfer(ctx, domain.TransferRequest{
		FromAccountNumber: savings.Number,
		ToAccountNumber:   other.Number,
		Amount:            money("1000.00"),
		RequesterID:       adminID,
	})
	require.NoError(t, err)

	// Deposits never count towards the aggregate.
	_, err = e.Deposit(ctx, domain.DepositParams{AccountNumber: savings.Number, Amount: money("100.00"), RequesterID: adminID})
	require.NoError(t, err)

	_, err = e.Withdraw(ctx, domain.WithdrawalParams{AccountNumber: savings.Number, Amount: money("0.01"), RequesterID: adminID})

	var limitErr *domain.LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	require.False(t, limitErr.Transfer)
	requireMoney(t, "5000.00", limitErr.DailyTotal)
	requireMoney(t, "5000.00", limitErr.Limit)
	requireMoney(t, "0.01", limitErr.Requested)
	require.Equal(t, domain.CodeTransactionLimitExceeded, domain.Code(err))

	_, err = e.Transfer(ctx, domain.TransferRequest{
		FromAccountNumber: savings.Number,
		ToAccountNumber:   other.Number,
		Amount:            money("0.01"),
		RequesterID:       adminID,
	})
	require.ErrorIs(t, err, domain.ErrLimitExceeded)
	require.Equal(t, domain.CodeTransferLimitExceeded, domain.Code(err))

	// The next calendar day starts a new aggregate.
	e.now = func() time.Time { return testNow.Add(24 * time.Hour) }

	_, err = e.Withdraw(ctx, domain.WithdrawalParams{AccountNumber: savings.Number, Amount: money("5000.00"), RequesterID: adminID})
	require.NoError(t, err)
}

func TestDailyLimitBoundary(t *testing.T) {
	testCases := []struct {
		name    string
		prior   string
		amount  string
		wantErr bool
	}{
		{name: "BelowLimit", prior: "9000.00", amount: "999.99"},
		{name: "AtLimit", prior: "9000.00", amount: "1000.00"},
		{name: "AboveLimit", prior: "9000.00", amount: "1000.01", wantErr: true},
		{name: "NoPrior", prior: "0", amount: "10000.00"},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, ledger := newTestEngine(t, testAccount(1, "1000000001", domain.AccountTypeChecking, "50000.00"))

			if !money(tc.prior).IsZero() {
				ledger.rows = append(ledger.rows, domain.Transaction{
					ID:              1,
					AccountID:       1,
					Type:            domain.TransactionTypeWithdrawal,
					Amount:          money(tc.prior).Neg(),
					ReferenceNumber: "TXNPRIOR",
					CreatedAt:       testNow.Add(-time.Hour),
				})
			}

			_, err := e.Withdraw(context.Background(), domain.WithdrawalParams{
				AccountNumber: "1000000001",
				Amount:        money(tc.amount),
				RequesterID:   adminID,
			})
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrLimitExceeded)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	a := testAccount(1, "1000000001", domain.AccountTypeSavings, "1000.00")
	b := testAccount(2, "2000000002", domain.AccountTypeChecking, "50.00")

	e, ledger := newTestEngine(t, a, b)

	exec, err := e.Transfer(context.Background(), domain.TransferRequest{
		FromAccountNumber: a.Number,
		ToAccountNumber:   b.Number,
		Amount:            money("300.00"),
		Description:       "rent",
		RequesterID:       tellerID,
	})
	require.NoError(t, err)

	requireMoney(t, "700.00", ledger.account(a.ID).Balance)
	requireMoney(t, "350.00", ledger.account(b.ID).Balance)

	want := []domain.Transaction{
		{
			AccountID:       a.ID,
			Type:            domain.TransactionTypeTransfer,
			Amount:          money("-300.00"),
			BalanceBefore:   money("1000.00"),
			BalanceAfter:    money("700.00"),
			Description:     "rent",
			ReferenceNumber: exec.ReferenceNumber,
			CreatedBy:       tellerID,
			Status:          domain.TransactionStatusCompleted,
			CreatedAt:       testNow,
		},
		{
			AccountID:       b.ID,
			Type:            domain.TransactionTypeTransfer,
			Amount:          money("300.00"),
			BalanceBefore:   money("50.00"),
			BalanceAfter:    money("350.00"),
			Description:     "rent",
			ReferenceNumber: exec.ReferenceNumber,
			CreatedBy:       tellerID,
			Status:          domain.TransactionStatusCompleted,
			CreatedAt:       testNow,
		},
	}

	equateDecimal := cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) })
	ignoreID := cmpopts.IgnoreFields(domain.Transaction{}, "ID")

	if diff := cmp.Diff(want, exec.Transactions, equateDecimal, ignoreID); diff != "" {
		t.Errorf("e.Transfer returned unexpected difference (-want +got):\n%s", diff)
	}
}

func TestTransferRefusals(t *testing.T) {
	closed := testAccount(3, "3000000003", domain.AccountTypeChecking, "0.00")
	closed.Status = domain.AccountStatusClosed

	testCases := []struct {
		name    string
		req     domain.TransferRequest
		wantErr error
	}{
		{
			name:    "SameAccount",
			req:     domain.TransferRequest{FromAccountNumber: "1000000001", ToAccountNumber: "1000000001", Amount: money("10"), RequesterID: tellerID},
			wantErr: domain.ErrSameAccount,
		},
		{
			name:    "MissingDestination",
			req:     domain.TransferRequest{FromAccountNumber: "1000000001", Amount: money("10"), RequesterID: tellerID},
			wantErr: domain.ErrMissingAccountNumber,
		},
		{
			name:    "DestinationClosed",
			req:     domain.TransferRequest{FromAccountNumber: "1000000001", ToAccountNumber: closed.Number, Amount: money("10"), RequesterID: tellerID},
			wantErr: domain.ErrAccountNotActive,
		},
		{
			name:    "InsufficientFunds",
			req:     domain.TransferRequest{FromAccountNumber: "1000000001", ToAccountNumber: "2000000002", Amount: money("950.00"), RequesterID: tellerID},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "TellerAboveCeiling",
			req:     domain.TransferRequest{FromAccountNumber: "1000000001", ToAccountNumber: "2000000002", Amount: money("2500.00"), RequesterID: tellerID},
			wantErr: domain.ErrAuthorizationExceeded,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, ledger := newTestEngine(t,
				testAccount(1, "1000000001", domain.AccountTypeSavings, "1000.00"),
				testAccount(2, "2000000002", domain.AccountTypeChecking, "50.00"),
				closed,
			)

			_, err := e.Transfer(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.wantErr)
			require.Empty(t, ledger.entries())
			requireMoney(t, "1000.00", ledger.account(1).Balance)
		})
	}
}

func TestTransferAtomicity(t *testing.T) {
	t.Parallel()

	e, ledger := newTestEngine(t,
		testAccount(1, "1000000001", domain.AccountTypeSavings, "1000.00"),
		testAccount(2, "2000000002", domain.AccountTypeChecking, "50.00"),
	)

	// The credit leg fails after the debit leg was written.
	ledger.failCreate = 2

	_, err := e.Transfer(context.Background(), domain.TransferRequest{
		FromAccountNumber: "1000000001",
		ToAccountNumber:   "2000000002",
		Amount:            money("300.00"),
		RequesterID:       tellerID,
	})
	require.ErrorIs(t, err, errorspkg.ErrPersistence)
	require.True(t, domain.Retryable(err))

	require.Empty(t, ledger.entries())
	requireMoney(t, "1000.00", ledger.account(1).Balance)
	requireMoney(t, "50.00", ledger.account(2).Balance)
}

func TestReferenceCollision(t *testing.T) {
	t.Parallel()

	account := testAccount(1, "1000000001", domain.AccountTypeChecking, "0.00")

	t.Run("Regenerated", func(t *testing.T) {
		t.Parallel()

		e, ledger := newTestEngine(t, account)
		ledger.rows = append(ledger.rows, domain.Transaction{ID: 1, AccountID: 1, ReferenceNumber: "TXNTAKEN", Amount: money("1")})
		e.refs = &seqRefs{list: []string{"TXNTAKEN", "TXNTAKEN", "TXNFRESH"}}

		exec, err := e.Deposit(context.Background(), domain.DepositParams{AccountNumber: account.Number, Amount: money("10"), RequesterID: tellerID})
		require.NoError(t, err)
		require.Equal(t, "TXNFRESH", exec.ReferenceNumber)
	})

	t.Run("Exhausted", func(t *testing.T) {
		t.Parallel()

		e, ledger := newTestEngine(t, account)
		ledger.rows = append(ledger.rows, domain.Transaction{ID: 1, AccountID: 1, ReferenceNumber: "TXNTAKEN", Amount: money("1")})
		refs := &seqRefs{list: []string{"TXNTAKEN"}}
		e.refs = refs

		_, err := e.Deposit(context.Background(), domain.DepositParams{AccountNumber: account.Number, Amount: money("10"), RequesterID: tellerID})
		require.ErrorIs(t, err, domain.ErrReferenceExhausted)
		require.Equal(t, maxReferenceAttempts, refs.n)
		requireMoney(t, "0.00", ledger.account(1).Balance)
	})
}

func TestBalanceInvariant(t *testing.T) {
	t.Parallel()

	e, ledger := newTestEngine(t, testAccount(1, "1000000001", domain.AccountTypeChecking, "0.00"))
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		amount := randompkg.MoneyAmountBetween(1, 900)

		var err error
		if randompkg.Intn(2) == 0 {
			_, err = e.Deposit(ctx, domain.DepositParams{AccountNumber: "1000000001", Amount: amount, RequesterID: managerID})
		} else {
			_, err = e.Withdraw(ctx, domain.WithdrawalParams{AccountNumber: "1000000001", Amount: amount, RequesterID: managerID})
		}

		if err != nil {
			require.True(t, errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrLimitExceeded), err)
		}
	}

	sum := decimal.Zero

	for _, row := range ledger.entries() {
		require.True(t, row.BalanceAfter.Equal(row.BalanceBefore.Add(row.Amount)))
		require.True(t, row.BalanceBefore.Equal(sum), "entries must chain")
		sum = row.BalanceAfter
	}

	requireMoney(t, sum.String(), ledger.account(1).Balance)
	require.True(t, ledger.account(1).Balance.GreaterThanOrEqual(money("-500.00")))
}

func TestConcurrentTransfers(t *testing.T) {
	t.Parallel()

	e, ledger := newTestEngine(t,
		testAccount(1, "1000000001", domain.AccountTypeBusiness, "100000.00"),
		testAccount(2, "2000000002", domain.AccountTypeBusiness, "100000.00"),
	)

	const n = 40

	var wg sync.WaitGroup

	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		from, to := "1000000001", "2000000002"
		if i%2 == 0 {
			from, to = to, from
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := e.Transfer(context.Background(), domain.TransferRequest{
				FromAccountNumber: from,
				ToAccountNumber:   to,
				Amount:            money("10.00"),
				RequesterID:       managerID,
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	requireMoney(t, "100000.00", ledger.account(1).Balance)
	requireMoney(t, "100000.00", ledger.account(2).Balance)

	refs := map[string]int{}
	for _, row := range ledger.entries() {
		refs[row.ReferenceNumber]++
	}

	require.Len(t, refs, n)

	for ref, count := range refs {
		require.Equalf(t, 2, count, "reference %s", ref)
	}
}

func TestExecuteApproved(t *testing.T) {
	t.Parallel()

	e, ledger := newTestEngine(t,
		testAccount(1, "1000000001", domain.AccountTypeChecking, "100.00"),
	)

	ledger.approvals[7] = domain.TransactionApproval{
		ID:            7,
		Type:          domain.TransactionTypeWithdrawal,
		AccountNumber: "1000000001",
		Amount:        money("1500.00"),
		RequesterID:   tellerID,
		RequesterRole: domain.RoleTeller,
		Status:        domain.ApprovalStatusPending,
	}

	ctx := context.Background()
	decide := domain.DecideApprovalParams{ID: 7, ApproverID: managerID, Comments: "ok"}

	// Insufficient funds keeps the approval pending.
	_, _, err := e.ExecuteApproved(ctx, decide, ledger.approvals[7].Intent())
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, domain.ApprovalStatusPending, ledger.approvals[7].Status)

	_, err = e.Deposit(ctx, domain.DepositParams{AccountNumber: "1000000001", Amount: money("2000.00"), RequesterID: adminID})
	require.NoError(t, err)

	approval, exec, err := e.ExecuteApproved(ctx, decide, ledger.approvals[7].Intent())
	require.NoError(t, err)
	require.Equal(t, domain.ApprovalStatusApproved, approval.Status)
	require.Equal(t, exec.ReferenceNumber, approval.ReferenceNumber)
	require.Equal(t, managerID, approval.ApproverID)
	require.NotNil(t, approval.DecidedAt)
	require.Equal(t, tellerID, exec.Transactions[0].CreatedBy)
	requireMoney(t, "600.00", ledger.account(1).Balance)

	_, _, err = e.ExecuteApproved(ctx, decide, ledger.approvals[7].Intent())
	require.ErrorIs(t, err, domain.ErrInvalidApprovalState)
	requireMoney(t, "600.00", ledger.account(1).Balance)
}

func TestReverse(t *testing.T) {
	t.Parallel()

	e, ledger := newTestEngine(t,
		testAccount(1, "1000000001", domain.AccountTypeSavings, "1000.00"),
		testAccount(2, "2000000002", domain.AccountTypeChecking, "50.00"),
	)

	ctx := context.Background()

	transfer, err := e.Transfer(ctx, domain.TransferRequest{
		FromAccountNumber: "1000000001",
		ToAccountNumber:   "2000000002",
		Amount:            money("300.00"),
		RequesterID:       tellerID,
	})
	require.NoError(t, err)

	_, err = e.Reverse(ctx, domain.ReversalParams{ReferenceNumber: transfer.ReferenceNumber, Reason: "typo", RequesterID: customerID})
	require.ErrorIs(t, err, domain.ErrAuthorizationExceeded)

	reversal, err := e.Reverse(ctx, domain.ReversalParams{ReferenceNumber: transfer.ReferenceNumber, Reason: "typo", RequesterID: managerID})
	require.NoError(t, err)
	require.Len(t, reversal.Transactions, 2)
	require.NotEqual(t, transfer.ReferenceNumber, reversal.ReferenceNumber)

	for _, row := range reversal.Transactions {
		require.Equal(t, domain.TransactionTypeReversal, row.Type)
		require.Equal(t, transfer.ReferenceNumber, row.ReversedRef)
	}

	requireMoney(t, "1000.00", ledger.account(1).Balance)
	requireMoney(t, "50.00", ledger.account(2).Balance)

	_, err = e.Reverse(ctx, domain.ReversalParams{ReferenceNumber: transfer.ReferenceNumber, RequesterID: managerID})
	require.ErrorIs(t, err, domain.ErrAlreadyReversed)

	_, err = e.Reverse(ctx, domain.ReversalParams{ReferenceNumber: reversal.ReferenceNumber, RequesterID: managerID})
	require.ErrorIs(t, err, domain.ErrReversalOfReversal)

	_, err = e.Reverse(ctx, domain.ReversalParams{ReferenceNumber: "TXNUNKNOWN", RequesterID: managerID})
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestReverseInsufficientFunds(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t,
		testAccount(1, "1000000001", domain.AccountTypeSavings, "1000.00"),
		testAccount(2, "2000000002", domain.AccountTypeSavings, "100.00"),
	)

	ctx := context.Background()

	transfer, err := e.Transfer(ctx, domain.TransferRequest{
		FromAccountNumber: "1000000001",
		ToAccountNumber:   "2000000002",
		Amount:            money("500.00"),
		RequesterID:       tellerID,
	})
	require.NoError(t, err)

	_, err = e.Withdraw(ctx, domain.WithdrawalParams{AccountNumber: "2000000002", Amount: money("450.00"), RequesterID: tellerID})
	require.NoError(t, err)

	_, err = e.Reverse(ctx, domain.ReversalParams{ReferenceNumber: transfer.ReferenceNumber, RequesterID: adminID})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestPostInterest(t *testing.T) {
	t.Parallel()

	overdrawn := testAccount(3, "3000000003", domain.AccountTypeChecking, "-20.00")

	e, ledger := newTestEngine(t,
		testAccount(1, "1000000001", domain.AccountTypeSavings, "1200.00"),
		overdrawn,
	)

	ctx := context.Background()

	row, posted, err := e.PostInterest(ctx, 1, adminID)
	require.NoError(t, err)
	require.True(t, posted)
	require.Equal(t, domain.TransactionTypeInterest, row.Type)
	requireMoney(t, "2.50", row.Amount)
	requireMoney(t, "1202.50", ledger.account(1).Balance)

	_, _, err = e.PostInterest(ctx, 1, adminID)
	require.ErrorIs(t, err, domain.ErrInterestAlreadyPosted)

	_, posted, err = e.PostInterest(ctx, overdrawn.ID, adminID)
	require.NoError(t, err)
	require.False(t, posted)

	// A new month allows the next posting.
	e.now = func() time.Time { return time.Date(2026, 11, 1, 0, 30, 0, 0, time.UTC) }
	ledger.now = e.now

	_, posted, err = e.PostInterest(ctx, 1, adminID)
	require.NoError(t, err)
	require.True(t, posted)
}

func TestCheckDebit(t *testing.T) {
	t.Parallel()

	e, ledger := newTestEngine(t, testAccount(1, "1000000001", domain.AccountTypeSavings, "1000.00"))

	require.NoError(t, e.CheckDebit(context.Background(), "1000000001", money("900.00"), domain.TransactionTypeTransfer))
	require.ErrorIs(t,
		e.CheckDebit(context.Background(), "1000000001", money("900.01"), domain.TransactionTypeTransfer),
		domain.ErrInsufficientFunds)
	require.Empty(t, ledger.entries())
}
