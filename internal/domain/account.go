// Package domain provides defenitions of all entities.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the closed set of account products.
type AccountType string

// Account types.
const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeBusiness AccountType = "BUSINESS"
)

// AccountTypes holds all the supported account types.
var AccountTypes = []AccountType{
	AccountTypeSavings,
	AccountTypeChecking,
	AccountTypeBusiness,
}

// AccountRules holds the fixed per-type constants.
type AccountRules struct {
	MinimumBalance       decimal.Decimal `json:"minimum_balance"`
	OverdraftLimit       decimal.Decimal `json:"overdraft_limit"`
	OverdraftFee         decimal.Decimal `json:"overdraft_fee"`
	InterestRate         decimal.Decimal `json:"interest_rate"` // annual, 0.025 = 2.5%
	DailyWithdrawalLimit decimal.Decimal `json:"daily_withdrawal_limit"`
}

var accountRules = map[AccountType]AccountRules{
	AccountTypeSavings: {
		MinimumBalance:       decimal.RequireFromString("100.00"),
		OverdraftLimit:       decimal.Zero,
		OverdraftFee:         decimal.Zero,
		InterestRate:         decimal.RequireFromString("0.025"),
		DailyWithdrawalLimit: decimal.RequireFromString("5000.00"),
	},
	AccountTypeChecking: {
		MinimumBalance:       decimal.Zero,
		OverdraftLimit:       decimal.RequireFromString("500.00"),
		OverdraftFee:         decimal.RequireFromString("35.00"),
		InterestRate:         decimal.RequireFromString("0.001"),
		DailyWithdrawalLimit: decimal.RequireFromString("10000.00"),
	},
	AccountTypeBusiness: {
		MinimumBalance:       decimal.RequireFromString("1000.00"),
		OverdraftLimit:       decimal.Zero,
		OverdraftFee:         decimal.Zero,
		InterestRate:         decimal.RequireFromString("0.015"),
		DailyWithdrawalLimit: decimal.RequireFromString("50000.00"),
	},
}

// Valid reports whether t is one of the supported account types.
func (t AccountType) Valid() bool {
	_, ok := accountRules[t]
	return ok
}

// Rules returns the constants of the account type. Unknown types get zero rules.
func (t AccountType) Rules() AccountRules {
	return accountRules[t]
}

// Floor is the lowest balance a debit may leave: minimum balance minus overdraft limit.
func (t AccountType) Floor() decimal.Decimal {
	r := t.Rules()
	return r.MinimumBalance.Sub(r.OverdraftLimit)
}

// CanWithdraw reports whether amount may be debited from balance.
func (t AccountType) CanWithdraw(balance, amount decimal.Decimal) bool {
	if !t.Valid() {
		return false
	}

	return balance.Sub(amount).GreaterThanOrEqual(t.Floor())
}

// Available is the amount that can still be debited from balance.
func (t AccountType) Available(balance decimal.Decimal) decimal.Decimal {
	available := balance.Sub(t.Floor())
	if available.IsNegative() {
		return decimal.Zero
	}

	return available
}

const monthsPerYear = 12

// MonthlyInterest returns one month of interest on balance rounded half-even to cents.
// Zero for a zero rate or a non-positive balance.
func (t AccountType) MonthlyInterest(balance decimal.Decimal) decimal.Decimal {
	rate := t.Rules().InterestRate
	if rate.IsZero() || !balance.IsPositive() {
		return decimal.Zero
	}

	return balance.Mul(rate).Div(decimal.NewFromInt(monthsPerYear)).RoundBank(2)
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

// Account statuses.
const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
	AccountStatusClosed    AccountStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusSuspended, AccountStatusClosed:
		return true
	}

	return false
}

// Account holds customer funds of one account product.
type Account struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	CustomerID int64           `json:"customer_id"`
	Type       AccountType     `json:"type"`
	Balance    decimal.Decimal `json:"balance"`
	Status     AccountStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CanWithdraw reports whether amount may be debited from the account.
func (a Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Type.CanWithdraw(a.Balance, amount)
}

// CreateAccountParams is the input data to open an account.
type CreateAccountParams struct {
	Number         string          `json:"number"`
	CustomerID     int64           `json:"customer_id"`
	Type           AccountType     `json:"type"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	Reference      string          `json:"reference"`
	CreatedBy      int64           `json:"created_by"`
}

// OpenAccountParams is the request to open an account for a customer.
type OpenAccountParams struct {
	CustomerID     int64           `json:"customer_id"`
	Type           AccountType     `json:"type"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	RequesterID    int64           `json:"requester_id"`
}

// ListAccountsParams is the input data to list accounts of a customer.
type ListAccountsParams struct {
	CustomerID int64 `json:"customer_id"`
	Limit      int32 `json:"limit"`
	Offset     int32 `json:"offset"`
}
