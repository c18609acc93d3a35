// Package helpers seeds the database used in integration tests.
package helpers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/accountrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/approvalrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactionrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/userrepo"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/dbpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/passpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/randompkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/refpkg"
)

var refs = refpkg.NewGenerator()

// SeedUser creates random user with the given role.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface, role domain.Role) domain.User {
	t.Helper()

	return SeedUserWithPassword(t, tx, role, randompkg.String(32))
}

// SeedUserWithPassword creates random user with the given role and password.
func SeedUserWithPassword(t *testing.T, tx dbpkg.SQLInterface, role domain.Role, password string) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		t.Fatalf("passpkg.Hash(%q) returned error: %v", password, err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Username(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
		Role:           role,
	}

	user, err := userrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedAccount creates active account of the customer holding balance. No ledger entry is written.
func SeedAccount(t *testing.T, tx dbpkg.SQLInterface, customerID int64, typ domain.AccountType, balance decimal.Decimal) domain.Account {
	t.Helper()

	arg := domain.CreateAccountParams{
		Number:         refs.AccountNumber(),
		CustomerID:     customerID,
		Type:           typ,
		InitialDeposit: balance,
	}

	account, err := accountrepo.NewTxRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return account
}

// SeedCheckingWith1000Balance creates a customer with a CHECKING account holding 1000.
func SeedCheckingWith1000Balance(t *testing.T, tx dbpkg.SQLInterface) (domain.User, domain.Account) {
	t.Helper()

	customer := SeedUser(t, tx, domain.RoleCustomer)
	account := SeedAccount(t, tx, customer.ID, domain.AccountTypeChecking, decimal.NewFromInt(1000))

	return customer, account
}

// SeedTransaction appends a ledger entry of the account under a fresh reference number.
func SeedTransaction(t *testing.T, tx dbpkg.SQLInterface, account domain.Account, typ domain.TransactionType, amount decimal.Decimal) domain.Transaction {
	t.Helper()

	arg := domain.CreateTransactionParams{
		AccountID:       account.ID,
		Type:            typ,
		Amount:          amount,
		BalanceBefore:   account.Balance,
		Description:     randompkg.String(12),
		ReferenceNumber: refs.Reference(),
		CreatedBy:       account.CustomerID,
	}

	transaction, err := transactionrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("transactionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return transaction
}

// SeedApproval parks a withdrawal of the account requested by the user.
func SeedApproval(t *testing.T, tx dbpkg.SQLInterface, requester domain.User, account domain.Account, amount decimal.Decimal) domain.TransactionApproval {
	t.Helper()

	arg := domain.CreateApprovalParams{
		Type:          domain.TransactionTypeWithdrawal,
		AccountNumber: account.Number,
		Amount:        amount,
		Description:   randompkg.String(12),
		RequesterID:   requester.ID,
		RequesterRole: requester.Role,
	}

	approval, err := approvalrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("approvalRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return approval
}
