// Package userdelivery manages delivery layer of users.
package userdelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/middleware"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/web"
)

// Service provides service layer interface needed by user delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package userdelivery
type Service interface {
	Create(ctx context.Context, req domain.RegisterUserParams) (domain.UserWithoutPassword, error)
	CreateStaff(ctx context.Context, adminID int64, req domain.RegisterUserParams, role domain.Role) (domain.UserWithoutPassword, error)
	Login(ctx context.Context, username, password string) (domain.Session, error)
}

// Handler facilitates user delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns user handler.
func NewHandler(us Service) *Handler {
	return &Handler{
		service: us,
	}
}

type userData struct {
	User domain.UserWithoutPassword `json:"user"`
}

type createRequest struct {
	Username string `json:"username" binding:"required,alphanum"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

func (r createRequest) params() domain.RegisterUserParams {
	return domain.RegisterUserParams{
		Username: r.Username,
		Password: r.Password,
		FullName: r.FullName,
		Email:    r.Email,
	}
}

func sessionResponse(session domain.Session) web.Response {
	return web.Response{
		AccessToken:          session.AccessToken,
		AccessTokenExpiresAt: session.AccessTokenExpiresAt.Format(time.RFC3339),
		Data:                 userData{User: session.User},
	}
}

// Create handles http request to sign up a customer and logs them in.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	if _, err := h.service.Create(ctx, req.params()); err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	session, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		l.Warn().Err(err).Str("username", req.Username).Msg("login after sign-up failed")
		middleware.RespondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusCreated, sessionResponse(session))
}

type createStaffRequest struct {
	createRequest
	Role string `json:"role" binding:"required,role"`
}

// CreateStaff handles http request of an admin to add a teller, manager or admin.
func (h *Handler) CreateStaff(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createStaffRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	createdUser, err := h.service.CreateStaff(ctx, middleware.AuthUserID(gctx), req.params(), domain.Role(req.Role))
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: userData{User: createdUser}})
}

type loginRequest struct {
	Username string `json:"username" binding:"required,alphanum"`
	Password string `json:"password" binding:"required,min=6"`
}

// Login handles http login request and returns the access token and user data.
func (h *Handler) Login(gctx *gin.Context) {
	var req loginRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindError(gctx, err)
		return
	}

	session, err := h.service.Login(gctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, sessionResponse(session))
}
