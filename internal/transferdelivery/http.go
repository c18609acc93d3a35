// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/middleware"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/web"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error)
	CanPerformTransfer(ctx context.Context, req domain.TransferRequest) bool
}

// ApprovalService records transfers that need sign-off.
type ApprovalService interface {
	Request(ctx context.Context, intent domain.TransactionIntent) (domain.TransactionApproval, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service   Service
	approvals ApprovalService
}

// NewHandler returns transfer handler.
func NewHandler(ts Service, as ApprovalService) *Handler {
	return &Handler{
		service:   ts,
		approvals: as,
	}
}

type request struct {
	FromAccountNumber string `json:"from_account_number" binding:"required"`
	ToAccountNumber   string `json:"to_account_number" binding:"required"`
	Amount            string `json:"amount" binding:"required,money"`
	Description       string `json:"description" binding:"max=255"`
}

func (r request) transferRequest(requesterID int64) domain.TransferRequest {
	return domain.TransferRequest{
		FromAccountNumber: r.FromAccountNumber,
		ToAccountNumber:   r.ToAccountNumber,
		Amount:            decimal.RequireFromString(r.Amount),
		Description:       r.Description,
		RequesterID:       requesterID,
	}
}

type data struct {
	Transfer domain.TransferResult       `json:"transfer"`
	Approval *domain.TransactionApproval `json:"approval,omitempty"`
}

type checkData struct {
	Allowed bool `json:"allowed"`
}

// Create handles http request to transfer funds between two accounts. A transfer above the
// requester's approval threshold is recorded as a pending approval and answered with 202.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	arg := req.transferRequest(middleware.AuthUserID(gctx))

	result, err := h.service.Transfer(ctx, arg)
	if err == nil {
		gctx.JSON(http.StatusOK, web.Response{Data: data{Transfer: result}})
		return
	}

	if !errors.Is(err, domain.ErrApprovalRequired) {
		middleware.RespondErrorData(gctx, err, data{Transfer: result})
		return
	}

	approval, err := h.approvals.Request(ctx, domain.TransactionIntent{
		Type:            domain.TransactionTypeTransfer,
		AccountNumber:   arg.FromAccountNumber,
		ToAccountNumber: arg.ToAccountNumber,
		Amount:          arg.Amount,
		Description:     arg.Description,
		RequesterID:     arg.RequesterID,
	})
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusAccepted, web.Response{Data: data{Transfer: result, Approval: &approval}})
}

// Check handles http request to dry run a transfer without moving funds.
func (h *Handler) Check(gctx *gin.Context) {
	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	allowed := h.service.CanPerformTransfer(gctx.Request.Context(), req.transferRequest(middleware.AuthUserID(gctx)))

	gctx.JSON(http.StatusOK, web.Response{Data: checkData{Allowed: allowed}})
}
