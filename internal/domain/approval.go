package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalStatus is the state of an approval request.
type ApprovalStatus string

// Approval statuses. APPROVED and REJECTED are terminal.
const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// TransactionApproval is a request to execute a transaction above the requester's authority.
type TransactionApproval struct {
	ID              int64           `json:"id"`
	Type            TransactionType `json:"type"`
	AccountNumber   string          `json:"account_number"`
	ToAccountNumber string          `json:"to_account_number,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	RequesterID     int64           `json:"requester_id"`
	RequesterRole   Role            `json:"requester_role"`
	Status          ApprovalStatus  `json:"status"`
	ApproverID      int64           `json:"approver_id,omitempty"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty"`
	Comments        string          `json:"comments,omitempty"`
	SelfApproved    bool            `json:"self_approved"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Pending reports whether the request still awaits a decision.
func (a TransactionApproval) Pending() bool {
	return a.Status == ApprovalStatusPending
}

// Intent returns the transaction recorded by the request.
func (a TransactionApproval) Intent() TransactionIntent {
	return TransactionIntent{
		Type:            a.Type,
		AccountNumber:   a.AccountNumber,
		ToAccountNumber: a.ToAccountNumber,
		Amount:          a.Amount,
		Description:     a.Description,
		RequesterID:     a.RequesterID,
	}
}

// CreateApprovalParams is the input data to record a pending request.
type CreateApprovalParams struct {
	Type            TransactionType
	AccountNumber   string
	ToAccountNumber string
	Amount          decimal.Decimal
	Description     string
	RequesterID     int64
	RequesterRole   Role
}

// DecideApprovalParams moves a pending request into a terminal status.
type DecideApprovalParams struct {
	ID              int64
	Status          ApprovalStatus
	ApproverID      int64
	Comments        string
	SelfApproved    bool
	ReferenceNumber string
}

// SubmitResult is the outcome of a submitted intent: executed, or parked for approval.
type SubmitResult struct {
	Execution *Execution           `json:"execution,omitempty"`
	Approval  *TransactionApproval `json:"approval,omitempty"`
}
