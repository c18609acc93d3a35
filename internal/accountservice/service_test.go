package accountservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/randompkg"
)

type mocks struct {
	repo     *MockRepo
	ledger   *MockLedger
	maint    *MockMaintenance
	locked   *MockLockedQueries
	users    *MockUserLookup
	interest *MockInterestPoster
	numbers  *MockNumberGenerator
}

func newTestService(t *testing.T) (*Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := mocks{
		repo:     NewMockRepo(ctrl),
		ledger:   NewMockLedger(ctrl),
		maint:    NewMockMaintenance(ctrl),
		locked:   NewMockLockedQueries(ctrl),
		users:    NewMockUserLookup(ctrl),
		interest: NewMockInterestPoster(ctrl),
		numbers:  NewMockNumberGenerator(ctrl),
	}

	return New(m.repo, m.ledger, m.maint, m.users, m.interest, m.numbers, time.UTC), m
}

// lockAccount makes the next locked unit see account as the locked row.
func (m mocks) lockAccount(account domain.Account) {
	m.maint.EXPECT().
		ExecLocked(gomock.Any(), gomock.Eq(account.ID), gomock.Any()).
		Times(1).
		DoAndReturn(func(ctx context.Context, id int64, fn func(context.Context, domain.Account, LockedQueries) error) error {
			return fn(ctx, account, m.locked)
		})
}

func randomAccount(typ domain.AccountType, balance string) domain.Account {
	return domain.Account{
		ID:         randompkg.IntBetween(1, 1000),
		Number:     randompkg.Digits(10),
		CustomerID: randompkg.IntBetween(1, 1000),
		Type:       typ,
		Balance:    decimal.RequireFromString(balance),
		Status:     domain.AccountStatusActive,
	}
}

func TestCreate(t *testing.T) {
	customer := domain.User{ID: 10, Role: domain.RoleCustomer, IsActive: true}
	deposit := decimal.RequireFromString("500.00")

	testCases := []struct {
		name          string
		req           domain.OpenAccountParams
		buildStubs    func(m mocks)
		checkResponse func(t *testing.T, account domain.Account, err error)
	}{
		{
			name: "OK",
			req:  domain.OpenAccountParams{CustomerID: customer.ID, Type: domain.AccountTypeSavings, InitialDeposit: deposit, RequesterID: 1},
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(customer.ID)).Return(customer, nil)
				m.numbers.EXPECT().AccountNumber().Return("1234567890")
				m.numbers.EXPECT().Reference().Return("TXN20261019120000ABCDEF")

				arg := domain.CreateAccountParams{
					Number:         "1234567890",
					CustomerID:     customer.ID,
					Type:           domain.AccountTypeSavings,
					InitialDeposit: deposit,
					Reference:      "TXN20261019120000ABCDEF",
					CreatedBy:      1,
				}
				m.repo.EXPECT().Open(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(domain.Account{ID: 1, Number: arg.Number, CustomerID: customer.ID, Type: arg.Type, Balance: deposit}, nil)
			},
			checkResponse: func(t *testing.T, account domain.Account, err error) {
				require.NoError(t, err)
				require.Equal(t, "1234567890", account.Number)
				require.True(t, deposit.Equal(account.Balance))
			},
		},
		{
			name: "RetriesTakenNumber",
			req:  domain.OpenAccountParams{CustomerID: customer.ID, Type: domain.AccountTypeChecking, InitialDeposit: decimal.Zero, RequesterID: 1},
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(customer.ID)).Return(customer, nil)
				m.numbers.EXPECT().AccountNumber().Times(2).Return("1234567890")
				m.numbers.EXPECT().Reference().Times(2).Return("TXN20261019120000ABCDEF")
				gomock.InOrder(
					m.repo.EXPECT().Open(gomock.Any(), gomock.Any()).Return(domain.Account{}, domain.ErrAccountNumberTaken),
					m.repo.EXPECT().Open(gomock.Any(), gomock.Any()).Return(domain.Account{ID: 2}, nil),
				)
			},
			checkResponse: func(t *testing.T, account domain.Account, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(2), account.ID)
			},
		},
		{
			name: "DepositBelowMinimum",
			req:  domain.OpenAccountParams{CustomerID: customer.ID, Type: domain.AccountTypeBusiness, InitialDeposit: deposit},
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Any()).Times(0)
				m.repo.EXPECT().Open(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, account domain.Account, err error) {
				require.ErrorIs(t, err, domain.ErrInitialDepositTooLow)
			},
		},
		{
			name: "InvalidType",
			req:  domain.OpenAccountParams{CustomerID: customer.ID, Type: "GOLD", InitialDeposit: deposit},
			buildStubs: func(m mocks) {
				m.repo.EXPECT().Open(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, account domain.Account, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidAccountType)
			},
		},
		{
			name: "CustomerNotFound",
			req:  domain.OpenAccountParams{CustomerID: 404, Type: domain.AccountTypeSavings, InitialDeposit: deposit},
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(int64(404))).Return(domain.User{}, domain.ErrUserNotFound)
				m.repo.EXPECT().Open(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, account domain.Account, err error) {
				require.ErrorIs(t, err, domain.ErrCustomerNotFound)
			},
		},
		{
			name: "PersistenceFailure",
			req:  domain.OpenAccountParams{CustomerID: customer.ID, Type: domain.AccountTypeSavings, InitialDeposit: deposit},
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(customer, nil)
				m.numbers.EXPECT().AccountNumber().Return("1234567890")
				m.numbers.EXPECT().Reference().Return("TXN20261019120000ABCDEF")
				m.repo.EXPECT().Open(gomock.Any(), gomock.Any()).Times(1).Return(domain.Account{}, errorspkg.ErrPersistence)
			},
			checkResponse: func(t *testing.T, account domain.Account, err error) {
				require.ErrorIs(t, err, errorspkg.ErrPersistence)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, m := newTestService(t)
			tc.buildStubs(m)

			account, err := service.Create(context.Background(), tc.req)
			tc.checkResponse(t, account, err)
		})
	}
}

func TestListByCustomer(t *testing.T) {
	service, m := newTestService(t)

	accounts := []domain.Account{randomAccount(domain.AccountTypeSavings, "150.00")}

	m.repo.EXPECT().List(gomock.Any(), gomock.Eq(domain.ListAccountsParams{CustomerID: 7, Limit: 5, Offset: 10})).
		Times(1).
		Return(accounts, nil)

	got, err := service.ListByCustomer(context.Background(), 7, 5, 3)
	require.NoError(t, err)
	require.Equal(t, accounts, got)
}

func TestUpdateType(t *testing.T) {
	testCases := []struct {
		name       string
		account    domain.Account
		typ        domain.AccountType
		buildStubs func(m mocks, account domain.Account, typ domain.AccountType)
		wantErr    error
	}{
		{
			name:    "OK",
			account: randomAccount(domain.AccountTypeChecking, "1500.00"),
			typ:     domain.AccountTypeBusiness,
			buildStubs: func(m mocks, account domain.Account, typ domain.AccountType) {
				m.lockAccount(account)
				updated := account
				updated.Type = typ
				m.locked.EXPECT().UpdateType(gomock.Any(), gomock.Eq(account.ID), gomock.Eq(typ)).Times(1).Return(updated, nil)
			},
		},
		{
			name:    "BelowNewMinimum",
			account: randomAccount(domain.AccountTypeChecking, "50.00"),
			typ:     domain.AccountTypeSavings,
			buildStubs: func(m mocks, account domain.Account, typ domain.AccountType) {
				m.lockAccount(account)
				m.locked.EXPECT().UpdateType(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrMinimumBalance,
		},
		{
			// A withdrawal committed before the lock was granted drained the account.
			name:    "DrainedBeforeLock",
			account: randomAccount(domain.AccountTypeChecking, "0.00"),
			typ:     domain.AccountTypeSavings,
			buildStubs: func(m mocks, account domain.Account, typ domain.AccountType) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
				m.lockAccount(account)
				m.locked.EXPECT().UpdateType(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrMinimumBalance,
		},
		{
			name: "Closed",
			account: func() domain.Account {
				a := randomAccount(domain.AccountTypeChecking, "0.00")
				a.Status = domain.AccountStatusClosed
				return a
			}(),
			typ: domain.AccountTypeChecking,
			buildStubs: func(m mocks, account domain.Account, typ domain.AccountType) {
				m.lockAccount(account)
			},
			wantErr: domain.ErrAccountNotActive,
		},
		{
			name:    "InvalidType",
			account: randomAccount(domain.AccountTypeChecking, "50.00"),
			typ:     "GOLD",
			buildStubs: func(m mocks, account domain.Account, typ domain.AccountType) {
				m.maint.EXPECT().ExecLocked(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidAccountType,
		},
		{
			name:    "NotFound",
			account: randomAccount(domain.AccountTypeChecking, "50.00"),
			typ:     domain.AccountTypeSavings,
			buildStubs: func(m mocks, account domain.Account, typ domain.AccountType) {
				m.maint.EXPECT().ExecLocked(gomock.Any(), gomock.Eq(account.ID), gomock.Any()).Return(domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, m := newTestService(t)
			tc.buildStubs(m, tc.account, tc.typ)

			account, err := service.UpdateType(context.Background(), tc.account.ID, tc.typ)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.typ, account.Type)
		})
	}
}

func TestChangeStatus(t *testing.T) {
	withStatus := func(a domain.Account, s domain.AccountStatus) domain.Account {
		a.Status = s
		return a
	}

	testCases := []struct {
		name    string
		account domain.Account
		status  domain.AccountStatus
		update  bool
		wantErr error
	}{
		{
			name:    "Suspend",
			account: randomAccount(domain.AccountTypeSavings, "200.00"),
			status:  domain.AccountStatusSuspended,
			update:  true,
		},
		{
			name:    "Reactivate",
			account: withStatus(randomAccount(domain.AccountTypeSavings, "200.00"), domain.AccountStatusSuspended),
			status:  domain.AccountStatusActive,
			update:  true,
		},
		{
			name:    "CloseAtZero",
			account: randomAccount(domain.AccountTypeChecking, "0.00"),
			status:  domain.AccountStatusClosed,
			update:  true,
		},
		{
			name:    "CloseWithBalance",
			account: randomAccount(domain.AccountTypeChecking, "0.01"),
			status:  domain.AccountStatusClosed,
			wantErr: domain.ErrNonZeroBalanceOnClose,
		},
		{
			name:    "CloseOverdrawn",
			account: randomAccount(domain.AccountTypeChecking, "-10.00"),
			status:  domain.AccountStatusClosed,
			wantErr: domain.ErrNonZeroBalanceOnClose,
		},
		{
			name:    "ClosedIsTerminal",
			account: withStatus(randomAccount(domain.AccountTypeChecking, "0.00"), domain.AccountStatusClosed),
			status:  domain.AccountStatusActive,
			wantErr: domain.ErrInvalidAccountStatus,
		},
		{
			name:    "UnchangedStatus",
			account: randomAccount(domain.AccountTypeSavings, "200.00"),
			status:  domain.AccountStatusActive,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, m := newTestService(t)

			m.lockAccount(tc.account)

			if tc.update {
				m.locked.EXPECT().UpdateStatus(gomock.Any(), gomock.Eq(tc.account.ID), gomock.Eq(tc.status)).
					Times(1).
					Return(withStatus(tc.account, tc.status), nil)
			} else {
				m.locked.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			}

			account, err := service.ChangeStatus(context.Background(), tc.account.ID, tc.status)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.status, account.Status)
		})
	}
}

func TestDelete(t *testing.T) {
	account := randomAccount(domain.AccountTypeSavings, "0.00")
	admin := domain.User{ID: 1, Role: domain.RoleAdmin, IsActive: true}
	manager := domain.User{ID: 2, Role: domain.RoleManager, IsActive: true}

	testCases := []struct {
		name       string
		force      bool
		requester  domain.User
		buildStubs func(m mocks)
		wantErr    error
	}{
		{
			name:      "NoHistory",
			requester: manager,
			buildStubs: func(m mocks) {
				m.lockAccount(account)
				m.locked.EXPECT().CountByAccount(gomock.Any(), gomock.Eq(account.ID)).Return(int64(0), nil)
				m.locked.EXPECT().DeleteAccount(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(nil)
			},
		},
		{
			name:      "HasHistory",
			requester: manager,
			buildStubs: func(m mocks) {
				m.lockAccount(account)
				m.locked.EXPECT().CountByAccount(gomock.Any(), gomock.Eq(account.ID)).Return(int64(3), nil)
				m.locked.EXPECT().DeleteAccount(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrHasHistory,
		},
		{
			name:      "NotFound",
			requester: manager,
			buildStubs: func(m mocks) {
				m.maint.EXPECT().ExecLocked(gomock.Any(), gomock.Eq(account.ID), gomock.Any()).Return(domain.ErrAccountNotFound)
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:      "ForcedByAdmin",
			force:     true,
			requester: admin,
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(admin.ID)).Return(admin, nil)
				m.lockAccount(account)
				m.locked.EXPECT().CountByAccount(gomock.Any(), gomock.Any()).Times(0)
				m.locked.EXPECT().DeleteAccount(gomock.Any(), gomock.Eq(account.ID)).Times(1).Return(nil)
			},
		},
		{
			name:      "ForcedByManager",
			force:     true,
			requester: manager,
			buildStubs: func(m mocks) {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(manager.ID)).Return(manager, nil)
				m.maint.EXPECT().ExecLocked(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrUnauthorized,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, m := newTestService(t)
			tc.buildStubs(m)

			err := service.Delete(context.Background(), account.ID, tc.force, tc.requester.ID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestCalculateInterest(t *testing.T) {
	testCases := []struct {
		name    string
		account domain.Account
		want    string
	}{
		{name: "Savings", account: randomAccount(domain.AccountTypeSavings, "1200.00"), want: "2.50"},
		{name: "Checking", account: randomAccount(domain.AccountTypeChecking, "1200.00"), want: "0.10"},
		{name: "Business", account: randomAccount(domain.AccountTypeBusiness, "10000.00"), want: "12.50"},
		{name: "Overdrawn", account: randomAccount(domain.AccountTypeChecking, "-100.00"), want: "0.00"},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, m := newTestService(t)
			m.repo.EXPECT().Get(gomock.Any(), gomock.Eq(tc.account.ID)).Return(tc.account, nil)

			got, err := service.CalculateInterest(context.Background(), tc.account.ID)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestPostInterest(t *testing.T) {
	t.Run("Staff", func(t *testing.T) {
		service, m := newTestService(t)

		teller := domain.User{ID: 5, Role: domain.RoleTeller, IsActive: true}
		entry := domain.Transaction{ID: 1, AccountID: 9, Type: domain.TransactionTypeInterest}

		m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(teller.ID)).Return(teller, nil)
		m.interest.EXPECT().PostInterest(gomock.Any(), gomock.Eq(int64(9)), gomock.Eq(teller.ID)).
			Times(1).
			Return(entry, true, nil)

		got, ok, err := service.PostInterest(context.Background(), 9, teller.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, entry, got)
	})

	t.Run("Customer", func(t *testing.T) {
		service, m := newTestService(t)

		customer := domain.User{ID: 6, Role: domain.RoleCustomer, IsActive: true}

		m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(customer.ID)).Return(customer, nil)
		m.interest.EXPECT().PostInterest(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, _, err := service.PostInterest(context.Background(), 9, customer.ID)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestTransactions(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	testCases := []struct {
		name     string
		date     string
		wantFrom time.Time
		wantErr  error
	}{
		{
			name:     "GivenDate",
			date:     "2026-10-18",
			wantFrom: time.Date(2026, 10, 18, 0, 0, 0, 0, loc),
		},
		{
			name:     "Today",
			wantFrom: time.Date(2026, 10, 19, 0, 0, 0, 0, loc),
		},
		{
			name:    "Malformed",
			date:    "18/10/2026",
			wantErr: domain.ErrInvalidDate,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			ledger := NewMockLedger(ctrl)
			service := New(repo, ledger, NewMockMaintenance(ctrl), NewMockUserLookup(ctrl), NewMockInterestPoster(ctrl),
				NewMockNumberGenerator(ctrl), loc)
			service.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

			if tc.wantErr != nil {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)

				_, err := service.Transactions(context.Background(), 4, tc.date)
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			repo.EXPECT().Get(gomock.Any(), gomock.Eq(int64(4))).Return(domain.Account{ID: 4}, nil)
			ledger.EXPECT().ListByAccountAndDate(gomock.Any(), gomock.Eq(int64(4)), gomock.Eq(tc.wantFrom), gomock.Eq(tc.wantFrom.AddDate(0, 0, 1))).
				Times(1).
				Return([]domain.Transaction{{ID: 1}}, nil)

			got, err := service.Transactions(context.Background(), 4, tc.date)
			require.NoError(t, err)
			require.Len(t, got, 1)
		})
	}
}

func TestVisible(t *testing.T) {
	testCases := []struct {
		name       string
		requester  domain.User
		customerID int64
		lookupErr  error
		wantErr    error
	}{
		{name: "Owner", requester: domain.User{ID: 4, Role: domain.RoleCustomer, IsActive: true}, customerID: 4},
		{name: "Staff", requester: domain.User{ID: 1, Role: domain.RoleTeller, IsActive: true}, customerID: 4},
		{
			name:       "OtherCustomer",
			requester:  domain.User{ID: 5, Role: domain.RoleCustomer, IsActive: true},
			customerID: 4,
			wantErr:    domain.ErrUnauthorized,
		},
		{
			name:       "Inactive",
			requester:  domain.User{ID: 1, Role: domain.RoleManager, IsActive: false},
			customerID: 4,
			wantErr:    domain.ErrUnauthorized,
		},
		{
			name:       "Unknown",
			requester:  domain.User{ID: 9},
			customerID: 4,
			lookupErr:  domain.ErrUserNotFound,
			wantErr:    domain.ErrRequesterNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, m := newTestService(t)

			if tc.lookupErr != nil {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(tc.requester.ID)).Return(domain.User{}, tc.lookupErr)
			} else {
				m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(tc.requester.ID)).Return(tc.requester, nil)
			}

			err := service.Visible(context.Background(), tc.requester.ID, tc.customerID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestRequireStaff(t *testing.T) {
	service, m := newTestService(t)

	m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(int64(1))).Return(domain.User{ID: 1, Role: domain.RoleManager, IsActive: true}, nil)
	m.users.EXPECT().GetByID(gomock.Any(), gomock.Eq(int64(2))).Return(domain.User{ID: 2, Role: domain.RoleCustomer, IsActive: true}, nil)

	require.NoError(t, service.RequireStaff(context.Background(), 1))
	require.ErrorIs(t, service.RequireStaff(context.Background(), 2), domain.ErrUnauthorized)
}
