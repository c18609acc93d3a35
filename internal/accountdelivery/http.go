// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/middleware"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	RequireStaff(ctx context.Context, requesterID int64) error
	Visible(ctx context.Context, requesterID, customerID int64) error
	Create(ctx context.Context, req domain.OpenAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	ListByCustomer(ctx context.Context, customerID int64, pageSize, pageID int32) ([]domain.Account, error)
	UpdateType(ctx context.Context, id int64, typ domain.AccountType) (domain.Account, error)
	ChangeStatus(ctx context.Context, id int64, status domain.AccountStatus) (domain.Account, error)
	Delete(ctx context.Context, id int64, force bool, requesterID int64) error
	CalculateInterest(ctx context.Context, id int64) (decimal.Decimal, error)
	PostInterest(ctx context.Context, id, requesterID int64) (domain.Transaction, bool, error)
	Transactions(ctx context.Context, id int64, date string) ([]domain.Transaction, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

type accountData struct {
	Account domain.Account `json:"account"`
}

type accountsData struct {
	Accounts []domain.Account `json:"accounts"`
}

type interestData struct {
	AccountID   int64               `json:"account_id"`
	Interest    decimal.Decimal     `json:"interest"`
	Posted      bool                `json:"posted"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

type transactionsData struct {
	Date         string               `json:"date,omitempty"`
	Transactions []domain.Transaction `json:"transactions"`
}

type idURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// visible loads the account of the uri id and checks the requester may see it.
func (h *Handler) visible(gctx *gin.Context) (domain.Account, bool) {
	ctx := gctx.Request.Context()

	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return domain.Account{}, false
	}

	acc, err := h.service.Get(ctx, uri.ID)
	if err != nil {
		middleware.RespondError(gctx, err)
		return domain.Account{}, false
	}

	if err := h.service.Visible(ctx, middleware.AuthUserID(gctx), acc.CustomerID); err != nil {
		middleware.RespondError(gctx, err)
		return domain.Account{}, false
	}

	return acc, true
}

type createRequest struct {
	CustomerID     int64  `json:"customer_id" binding:"required,min=1"`
	Type           string `json:"type" binding:"required,account_type"`
	InitialDeposit string `json:"initial_deposit" binding:"required,money"`
}

// Create handles http request to open an account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	requester := middleware.AuthUserID(gctx)

	if err := h.service.RequireStaff(ctx, requester); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	createdAccount, err := h.service.Create(ctx, domain.OpenAccountParams{
		CustomerID:     req.CustomerID,
		Type:           domain.AccountType(req.Type),
		InitialDeposit: decimal.RequireFromString(req.InitialDeposit),
		RequesterID:    requester,
	})
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: accountData{createdAccount}})
}

// Get handles http request to get account.
func (h *Handler) Get(gctx *gin.Context) {
	acc, ok := h.visible(gctx)
	if !ok {
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountData{acc}})
}

type numberURI struct {
	Number string `uri:"number" binding:"required,account_number"`
}

// GetByNumber handles http request to get account by its external number.
func (h *Handler) GetByNumber(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri numberURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	acc, err := h.service.GetByNumber(ctx, uri.Number)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	if err := h.service.Visible(ctx, middleware.AuthUserID(gctx), acc.CustomerID); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountData{acc}})
}

type listRequest struct {
	CustomerID int64 `form:"customer_id" binding:"required,min=1"`
	PageID     int32 `form:"page_id" binding:"required,min=1"`
	PageSize   int32 `form:"page_size" binding:"required,min=1,max=100"`
}

// List handles http request to list accounts of a customer.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	if err := h.service.Visible(ctx, middleware.AuthUserID(gctx), req.CustomerID); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	accounts, err := h.service.ListByCustomer(ctx, req.CustomerID, req.PageSize, req.PageID)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountsData{accounts}})
}

type updateTypeRequest struct {
	Type string `json:"type" binding:"required,account_type"`
}

// UpdateType handles http request to change the account type.
func (h *Handler) UpdateType(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req updateTypeRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	if err := h.service.RequireStaff(ctx, middleware.AuthUserID(gctx)); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	acc, err := h.service.UpdateType(ctx, uri.ID, domain.AccountType(req.Type))
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountData{acc}})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required,account_status"`
}

// ChangeStatus handles http request to activate, suspend or close an account.
func (h *Handler) ChangeStatus(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req changeStatusRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	if err := h.service.RequireStaff(ctx, middleware.AuthUserID(gctx)); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	acc, err := h.service.ChangeStatus(ctx, uri.ID, domain.AccountStatus(req.Status))
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountData{acc}})
}

type deleteRequest struct {
	Force bool `form:"force"`
}

// Delete handles http request to permanently delete an account.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	var req deleteRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	requester := middleware.AuthUserID(gctx)

	if err := h.service.RequireStaff(ctx, requester); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	if err := h.service.Delete(ctx, uri.ID, req.Force, requester); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}

// CalculateInterest handles http request to preview one month of interest.
func (h *Handler) CalculateInterest(gctx *gin.Context) {
	acc, ok := h.visible(gctx)
	if !ok {
		return
	}

	interest, err := h.service.CalculateInterest(gctx.Request.Context(), acc.ID)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: interestData{AccountID: acc.ID, Interest: interest}})
}

// PostInterest handles http request to credit one month of interest.
func (h *Handler) PostInterest(gctx *gin.Context) {
	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	entry, posted, err := h.service.PostInterest(gctx.Request.Context(), uri.ID, middleware.AuthUserID(gctx))
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	res := interestData{AccountID: uri.ID, Interest: decimal.Zero, Posted: posted}
	if posted {
		res.Interest = entry.Amount
		res.Transaction = &entry
	}

	gctx.JSON(http.StatusOK, web.Response{Data: res})
}

type transactionsRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// Transactions handles http request to list the entries of an account on one ledger day.
func (h *Handler) Transactions(gctx *gin.Context) {
	var req transactionsRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	acc, ok := h.visible(gctx)
	if !ok {
		return
	}

	entries, err := h.service.Transactions(gctx.Request.Context(), acc.ID, req.Date)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionsData{
		Date:         req.Date,
		Transactions: entries,
	}})
}
