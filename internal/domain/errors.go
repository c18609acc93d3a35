package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
)

var (
	// ErrInvalidAccount is the kind of every unknown or malformed account failure.
	ErrInvalidAccount = errors.New("invalid account")
	// ErrAccountNotFound indicates that the account does not exist.
	ErrAccountNotFound = fmt.Errorf("%w: account not found", ErrInvalidAccount)
	// ErrInvalidAccountNumber indicates a malformed account number.
	ErrInvalidAccountNumber = fmt.Errorf("%w: malformed account number", ErrInvalidAccount)
	// ErrInvalidAccountType indicates an unknown account type.
	ErrInvalidAccountType = errors.New("invalid account type")
	// ErrInvalidAccountStatus indicates an unknown status or a forbidden status transition.
	ErrInvalidAccountStatus = errors.New("invalid account status transition")
	// ErrAccountNumberTaken indicates a collision on the generated account number.
	ErrAccountNumberTaken = errors.New("account number already taken")
	// ErrCustomerNotFound indicates that the owner of a new account does not exist.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrInitialDepositTooLow indicates an opening deposit below the type minimum balance.
	ErrInitialDepositTooLow = errors.New("initial deposit is below the minimum balance")
	// ErrMinimumBalance indicates that the balance does not satisfy the minimum of the requested type.
	ErrMinimumBalance = errors.New("balance is below the minimum of the account type")
	// ErrNonZeroBalanceOnClose indicates an attempt to close an account holding funds.
	ErrNonZeroBalanceOnClose = errors.New("account balance must be zero to close")
	// ErrHasHistory indicates a delete of an account with ledger entries.
	ErrHasHistory = errors.New("account has transaction history")

	// ErrMissingAccountNumber indicates an empty account number in a request.
	ErrMissingAccountNumber = errors.New("account number is required")
	// ErrSameAccount indicates a transfer whose source and destination match.
	ErrSameAccount = errors.New("source and destination accounts must differ")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidDate indicates a malformed calendar date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidTransactionType indicates an intent type that cannot be submitted.
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	// ErrUnauthorized indicates a missing, inactive or under-privileged requester.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRequesterNotFound indicates that the requester could not be resolved.
	ErrRequesterNotFound = fmt.Errorf("%w: requester not found", ErrUnauthorized)
	// ErrDuplicateReference indicates a reference number collision. Retry with a fresh reference.
	ErrDuplicateReference = errors.New("duplicate reference number")
	// ErrReferenceExhausted indicates that no free reference number was generated in the bounded attempts.
	ErrReferenceExhausted = errors.New("could not generate a unique reference number")
	// ErrTransactionNotFound indicates that no entry carries the reference number.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrAlreadyReversed indicates a second reversal of the same reference.
	ErrAlreadyReversed = errors.New("transaction already reversed")
	// ErrReversalOfReversal indicates an attempt to reverse a reversal.
	ErrReversalOfReversal = errors.New("reversal cannot be reversed")
	// ErrInterestAlreadyPosted indicates that interest was already posted this month.
	ErrInterestAlreadyPosted = errors.New("interest already posted for this month")

	// ErrApprovalNotFound indicates that the approval request does not exist.
	ErrApprovalNotFound = errors.New("approval not found")

	// Kinds of the typed errors below, for errors.Is.
	ErrAccountNotActive      = errors.New("account not active")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrLimitExceeded         = errors.New("daily limit exceeded")
	ErrAuthorizationExceeded = errors.New("authorization exceeded")
	ErrApprovalRequired      = errors.New("approval required")
	ErrInvalidApprovalState  = errors.New("invalid approval state")
)

// AccountNotActiveError is returned when a mutating operation meets a non-active account.
type AccountNotActiveError struct {
	AccountNumber string        `json:"account_number"`
	Status        AccountStatus `json:"status"`
}

func (e *AccountNotActiveError) Error() string {
	return fmt.Sprintf("account %s is %s", e.AccountNumber, e.Status)
}

// Is matches ErrAccountNotActive.
func (e *AccountNotActiveError) Is(target error) bool { return target == ErrAccountNotActive }

// InsufficientFundsError carries the available balance and the requested amount.
type InsufficientFundsError struct {
	AccountNumber string          `json:"account_number"`
	Available     decimal.Decimal `json:"available"`
	Requested     decimal.Decimal `json:"requested"`
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s: available %s, requested %s",
		e.AccountNumber, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

// Is matches ErrInsufficientFunds.
func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// LimitExceededError is returned when the daily aggregate would be breached.
// Transfer distinguishes TransferLimitExceeded from TransactionLimitExceeded.
type LimitExceededError struct {
	AccountNumber string          `json:"account_number"`
	Transfer      bool            `json:"transfer"`
	Requested     decimal.Decimal `json:"requested"`
	Limit         decimal.Decimal `json:"limit"`
	DailyTotal    decimal.Decimal `json:"daily_total"`
}

func (e *LimitExceededError) Error() string {
	kind := "transaction"
	if e.Transfer {
		kind = "transfer"
	}

	return fmt.Sprintf("daily %s limit exceeded on account %s: requested %s, limit %s, daily total %s",
		kind, e.AccountNumber, e.Requested.StringFixed(2), e.Limit.StringFixed(2), e.DailyTotal.StringFixed(2))
}

// Is matches ErrLimitExceeded.
func (e *LimitExceededError) Is(target error) bool { return target == ErrLimitExceeded }

// AuthorizationExceededError is returned when the amount is above the role ceiling.
type AuthorizationExceededError struct {
	Role    Role            `json:"role"`
	Amount  decimal.Decimal `json:"amount"`
	Ceiling decimal.Decimal `json:"ceiling"`
}

func (e *AuthorizationExceededError) Error() string {
	return fmt.Sprintf("amount %s exceeds the %s ceiling of %s",
		e.Amount.StringFixed(2), e.Role, e.Ceiling.StringFixed(2))
}

// Is matches ErrAuthorizationExceeded.
func (e *AuthorizationExceededError) Is(target error) bool { return target == ErrAuthorizationExceeded }

// ApprovalRequiredError routes the intent into the approval workflow.
type ApprovalRequiredError struct {
	Role      Role            `json:"role"`
	Amount    decimal.Decimal `json:"amount"`
	Threshold decimal.Decimal `json:"threshold"`
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("amount %s exceeds the %s approval threshold of %s",
		e.Amount.StringFixed(2), e.Role, e.Threshold.StringFixed(2))
}

// Is matches ErrApprovalRequired.
func (e *ApprovalRequiredError) Is(target error) bool { return target == ErrApprovalRequired }

// InvalidApprovalStateError is returned on a decision of a non-pending request or without authority.
type InvalidApprovalStateError struct {
	ApprovalID int64          `json:"approval_id"`
	Status     ApprovalStatus `json:"status"`
	Reason     string         `json:"reason"`
}

func (e *InvalidApprovalStateError) Error() string {
	return fmt.Sprintf("approval %d (%s): %s", e.ApprovalID, e.Status, e.Reason)
}

// Is matches ErrInvalidApprovalState.
func (e *InvalidApprovalStateError) Is(target error) bool { return target == ErrInvalidApprovalState }

// Error codes exposed to callers.
const (
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeInvalidAccount           = "INVALID_ACCOUNT"
	CodeAccountNotActive         = "ACCOUNT_NOT_ACTIVE"
	CodeInsufficientFunds        = "INSUFFICIENT_FUNDS"
	CodeTransactionLimitExceeded = "TRANSACTION_LIMIT_EXCEEDED"
	CodeTransferLimitExceeded    = "TRANSFER_LIMIT_EXCEEDED"
	CodeAuthorizationExceeded    = "AUTHORIZATION_EXCEEDED"
	CodeApprovalRequired         = "APPROVAL_REQUIRED"
	CodeInvalidApprovalState     = "INVALID_APPROVAL_STATE"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeNotFound                 = "NOT_FOUND"
	CodeConflict                 = "CONFLICT"
	CodePersistenceFailure       = "PERSISTENCE_FAILURE"
	CodeInternal                 = "INTERNAL_ERROR"
)

// Code maps err to its caller-visible code.
func Code(err error) string {
	var limitErr *LimitExceededError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &limitErr):
		if limitErr.Transfer {
			return CodeTransferLimitExceeded
		}
		return CodeTransactionLimitExceeded
	case errors.Is(err, ErrInvalidAccount):
		return CodeInvalidAccount
	case errors.Is(err, ErrAccountNotActive):
		return CodeAccountNotActive
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrAuthorizationExceeded):
		return CodeAuthorizationExceeded
	case errors.Is(err, ErrApprovalRequired):
		return CodeApprovalRequired
	case errors.Is(err, ErrInvalidApprovalState):
		return CodeInvalidApprovalState
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrUserLocked), errors.Is(err, ErrUserInactive):
		return CodeUnauthorized
	case errors.Is(err, ErrMissingAccountNumber), errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidTransactionType),
		errors.Is(err, ErrInvalidAccountType), errors.Is(err, ErrInvalidAccountStatus),
		errors.Is(err, ErrInitialDepositTooLow), errors.Is(err, ErrMinimumBalance),
		errors.Is(err, ErrNonZeroBalanceOnClose), errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidDate):
		return CodeInvalidRequest
	case errors.Is(err, ErrApprovalNotFound), errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrUserNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyReversed), errors.Is(err, ErrReversalOfReversal),
		errors.Is(err, ErrHasHistory), errors.Is(err, ErrInterestAlreadyPosted),
		errors.Is(err, ErrUsernameAlreadyExists), errors.Is(err, ErrEmailAlreadyExists),
		errors.Is(err, ErrAccountNumberTaken):
		return CodeConflict
	case errors.Is(err, ErrDuplicateReference), errors.Is(err, errorspkg.ErrPersistence):
		return CodePersistenceFailure
	default:
		return CodeInternal
	}
}

// Retryable reports whether the caller may retry the same request unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrDuplicateReference) || errors.Is(err, errorspkg.ErrPersistence)
}
