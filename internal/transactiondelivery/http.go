// Package transactiondelivery manages delivery layer of deposits, withdrawals and reversals.
package transactiondelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/middleware"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/web"
)

// Submitter executes an intent or parks it for approval.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Submitter interface {
	Submit(ctx context.Context, intent domain.TransactionIntent) (domain.SubmitResult, error)
}

// Reverser reverses a posted reference number.
type Reverser interface {
	Reverse(ctx context.Context, arg domain.ReversalParams) (domain.Execution, error)
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	submitter Submitter
	reverser  Reverser
}

// NewHandler returns transaction handler.
func NewHandler(s Submitter, r Reverser) *Handler {
	return &Handler{
		submitter: s,
		reverser:  r,
	}
}

type movementRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	Amount        string `json:"amount" binding:"required,money"`
	Description   string `json:"description" binding:"max=255"`
}

type executionData struct {
	Execution domain.Execution `json:"execution"`
}

// Deposit handles http request to credit an account.
func (h *Handler) Deposit(gctx *gin.Context) {
	h.submit(gctx, domain.TransactionTypeDeposit)
}

// Withdraw handles http request to debit an account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	h.submit(gctx, domain.TransactionTypeWithdrawal)
}

// submit answers 200 with the execution or 202 with the pending approval.
func (h *Handler) submit(gctx *gin.Context, typ domain.TransactionType) {
	var req movementRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	result, err := h.submitter.Submit(gctx.Request.Context(), domain.TransactionIntent{
		Type:          typ,
		AccountNumber: req.AccountNumber,
		Amount:        decimal.RequireFromString(req.Amount),
		Description:   req.Description,
		RequesterID:   middleware.AuthUserID(gctx),
	})
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	status := http.StatusOK
	if result.Approval != nil {
		status = http.StatusAccepted
	}

	gctx.JSON(status, web.Response{Data: result})
}

type reversalRequest struct {
	ReferenceNumber string `json:"reference_number" binding:"required"`
	Reason          string `json:"reason" binding:"required,max=255"`
}

// Reverse handles http request to reverse every entry of a reference number.
func (h *Handler) Reverse(gctx *gin.Context) {
	var req reversalRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	exec, err := h.reverser.Reverse(gctx.Request.Context(), domain.ReversalParams{
		ReferenceNumber: req.ReferenceNumber,
		Reason:          req.Reason,
		RequesterID:     middleware.AuthUserID(gctx),
	})
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: executionData{Execution: exec}})
}
