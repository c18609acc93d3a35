package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies ledger entries.
type TransactionType string

// Transaction types.
const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeFee        TransactionType = "FEE"
	TransactionTypeInterest   TransactionType = "INTEREST"
	TransactionTypeReversal   TransactionType = "REVERSAL"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypeFee, TransactionTypeInterest, TransactionTypeReversal:
		return true
	}

	return false
}

// CountsTowardsDailyLimit reports whether debits of this type are part of the daily aggregate.
func (t TransactionType) CountsTowardsDailyLimit() bool {
	return t == TransactionTypeWithdrawal || t == TransactionTypeTransfer
}

// TransactionStatus is the status of a ledger entry.
type TransactionStatus string

// Transaction statuses.
const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is an immutable ledger entry. BalanceAfter = BalanceBefore + Amount.
type Transaction struct {
	ID              int64             `json:"id"`
	AccountID       int64             `json:"account_id"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"` // negative for debits
	BalanceBefore   decimal.Decimal   `json:"balance_before"`
	BalanceAfter    decimal.Decimal   `json:"balance_after"`
	Description     string            `json:"description"`
	ReferenceNumber string            `json:"reference_number"`
	ReversedRef     string            `json:"reversed_reference,omitempty"`
	CreatedBy       int64             `json:"created_by"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CreateTransactionParams is the input data to append a ledger entry.
type CreateTransactionParams struct {
	AccountID       int64
	Type            TransactionType
	Amount          decimal.Decimal
	BalanceBefore   decimal.Decimal
	Description     string
	ReferenceNumber string
	ReversedRef     string
	CreatedBy       int64
}

// BalanceAfter returns the balance the entry leaves.
func (p CreateTransactionParams) BalanceAfter() decimal.Decimal {
	return p.BalanceBefore.Add(p.Amount)
}

// DepositParams is the input data for a deposit.
type DepositParams struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	RequesterID   int64           `json:"requester_id"`
}

// WithdrawalParams is the input data for a withdrawal.
type WithdrawalParams struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	RequesterID   int64           `json:"requester_id"`
}

// ReversalParams is the input data to reverse every entry of a reference number.
type ReversalParams struct {
	ReferenceNumber string `json:"reference_number"`
	Reason          string `json:"reason"`
	RequesterID     int64  `json:"requester_id"`
}

// TransferRequest is the input data of a transfer between two accounts.
type TransferRequest struct {
	FromAccountNumber string          `json:"from_account_number"`
	ToAccountNumber   string          `json:"to_account_number"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	RequesterID       int64           `json:"requester_id"`
}

// Validate checks the request shape.
func (r TransferRequest) Validate() error {
	if strings.TrimSpace(r.FromAccountNumber) == "" || strings.TrimSpace(r.ToAccountNumber) == "" {
		return ErrMissingAccountNumber
	}

	if r.FromAccountNumber == r.ToAccountNumber {
		return ErrSameAccount
	}

	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if r.RequesterID <= 0 {
		return ErrRequesterNotFound
	}

	return nil
}

// TransferLegs is the pair of entries written by one transfer.
type TransferLegs struct {
	Debit  Transaction `json:"debit"`
	Credit Transaction `json:"credit"`
}

// TransferResult is the outcome of a transfer presented to callers.
type TransferResult struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	Legs            *TransferLegs `json:"legs,omitempty"`
	ErrorCode       string        `json:"error_code,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`
}

// TransactionIntent is a deposit, withdrawal or transfer submitted for execution.
type TransactionIntent struct {
	Type            TransactionType `json:"type"`
	AccountNumber   string          `json:"account_number"`
	ToAccountNumber string          `json:"to_account_number,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	RequesterID     int64           `json:"requester_id"`
}

// Execution is the ledger outcome of an executed intent.
type Execution struct {
	ReferenceNumber string        `json:"reference_number"`
	Transactions    []Transaction `json:"transactions"`
}
