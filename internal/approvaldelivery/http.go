// Package approvaldelivery manages delivery layer of the approval workflow.
package approvaldelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/middleware"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/web"
)

// Service provides service layer interface needed by approval delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package approvaldelivery
type Service interface {
	GetFor(ctx context.Context, id, userID int64) (domain.TransactionApproval, error)
	ListPendingFor(ctx context.Context, userID int64) ([]domain.TransactionApproval, error)
	Approve(ctx context.Context, id, approverID int64, comments string) (domain.TransactionApproval, domain.Execution, error)
	Reject(ctx context.Context, id, approverID int64, reason string) (domain.TransactionApproval, error)
}

// Handler facilitates approval delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns approval handler.
func NewHandler(as Service) *Handler {
	return &Handler{service: as}
}

type approvalData struct {
	Approval  domain.TransactionApproval `json:"approval"`
	Execution *domain.Execution          `json:"execution,omitempty"`
}

type approvalsData struct {
	Approvals []domain.TransactionApproval `json:"approvals"`
}

type idURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// ListPending handles http request to list the pending approvals the user may decide.
func (h *Handler) ListPending(gctx *gin.Context) {
	approvals, err := h.service.ListPendingFor(gctx.Request.Context(), middleware.AuthUserID(gctx))
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: approvalsData{approvals}})
}

// Get handles http request to get an approval.
func (h *Handler) Get(gctx *gin.Context) {
	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	approval, err := h.service.GetFor(gctx.Request.Context(), uri.ID, middleware.AuthUserID(gctx))
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: approvalData{Approval: approval}})
}

type approveRequest struct {
	Comments string `json:"comments" binding:"max=500"`
}

// Approve handles http request to approve a pending request and execute it.
func (h *Handler) Approve(gctx *gin.Context) {
	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req approveRequest
	if gctx.Request.ContentLength != 0 {
		if err := gctx.ShouldBindJSON(&req); err != nil {
			middleware.RespondBindError(gctx, err)
			return
		}
	}

	approval, exec, err := h.service.Approve(gctx.Request.Context(), uri.ID, middleware.AuthUserID(gctx), req.Comments)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: approvalData{Approval: approval, Execution: &exec}})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// Reject handles http request to reject a pending request.
func (h *Handler) Reject(gctx *gin.Context) {
	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req rejectRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	approval, err := h.service.Reject(gctx.Request.Context(), uri.ID, middleware.AuthUserID(gctx), req.Reason)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: approvalData{Approval: approval}})
}
