package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/web"
)

// RetryAfterSeconds is sent with 503 responses of retryable failures.
const RetryAfterSeconds = "1"

var codeStatus = map[string]int{
	domain.CodeInvalidRequest:           http.StatusBadRequest,
	domain.CodeInvalidAccount:           http.StatusNotFound,
	domain.CodeAccountNotActive:         http.StatusConflict,
	domain.CodeInsufficientFunds:        http.StatusUnprocessableEntity,
	domain.CodeTransactionLimitExceeded: http.StatusUnprocessableEntity,
	domain.CodeTransferLimitExceeded:    http.StatusUnprocessableEntity,
	domain.CodeAuthorizationExceeded:    http.StatusForbidden,
	domain.CodeApprovalRequired:         http.StatusAccepted,
	domain.CodeInvalidApprovalState:     http.StatusConflict,
	domain.CodeUnauthorized:             http.StatusForbidden,
	domain.CodeNotFound:                 http.StatusNotFound,
	domain.CodeConflict:                 http.StatusConflict,
	domain.CodePersistenceFailure:       http.StatusServiceUnavailable,
	domain.CodeInternal:                 http.StatusInternalServerError,
}

// ErrorStatus returns the http status of err.
func ErrorStatus(err error) int {
	if errors.Is(err, domain.ErrWrongPassword) || errors.Is(err, domain.ErrUserLocked) ||
		errors.Is(err, domain.ErrUserInactive) {
		return http.StatusUnauthorized
	}

	if status, ok := codeStatus[domain.Code(err)]; ok {
		return status
	}

	return http.StatusInternalServerError
}

func errorDetails(err error) any {
	var (
		notActive    *domain.AccountNotActiveError
		insufficient *domain.InsufficientFundsError
		limit        *domain.LimitExceededError
		exceeded     *domain.AuthorizationExceededError
		approval     *domain.ApprovalRequiredError
		state        *domain.InvalidApprovalStateError
	)

	switch {
	case errors.As(err, &notActive):
		return notActive
	case errors.As(err, &insufficient):
		return insufficient
	case errors.As(err, &limit):
		return limit
	case errors.As(err, &exceeded):
		return exceeded
	case errors.As(err, &approval):
		return approval
	case errors.As(err, &state):
		return state
	}

	return nil
}

// RespondError writes err with its code, status and typed payload. Internal failures are
// logged and hidden behind errorspkg.ErrInternal.
func RespondError(gctx *gin.Context, err error) {
	RespondErrorData(gctx, err, nil)
}

// RespondErrorData is RespondError with data attached to the response of a non-internal failure.
func RespondErrorData(gctx *gin.Context, err error, data any) {
	l := zerolog.Ctx(gctx.Request.Context())

	status := ErrorStatus(err)

	switch status {
	case http.StatusInternalServerError:
		l.Error().Err(err).Send()
		gctx.JSON(status, web.CodedError(domain.CodeInternal, errorspkg.ErrInternal, nil))

		return
	case http.StatusServiceUnavailable:
		gctx.Header("Retry-After", RetryAfterSeconds)
	}

	res := web.CodedError(domain.Code(err), err, errorDetails(err))
	res.Data = data

	gctx.JSON(status, res)
}

// RespondBindError writes a 400 response for a request that failed binding or validation.
func RespondBindError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	errMsg := err.Error()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		errMsg = web.GetErrorMsg(ve)
	}

	l.Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.CodedError(domain.CodeInvalidRequest, errors.New(errMsg), nil))
}
