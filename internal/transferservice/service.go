// Package transferservice runs account-to-account transfers through a fixed
// validation pipeline before handing them to the engine.
package transferservice

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/roleauth"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/refpkg"
)

// Engine provides the engine operations needed by the transfer service.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Engine interface {
	Requester(ctx context.Context, id int64) (domain.User, error)
	CheckDebit(ctx context.Context, accountNumber string, amount decimal.Decimal, typ domain.TransactionType) error
	Transfer(ctx context.Context, req domain.TransferRequest) (domain.Execution, error)
}

// AccountService provides account lookups needed by the transfer service.
type AccountService interface {
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
}

// Stage is a step of the transfer pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageRequest    Stage = "request"
	StageAccounts   Stage = "accounts"
	StagePermission Stage = "permission"
	StageLimits     Stage = "limits"
	StageExecution  Stage = "execution"
)

var stageMessages = map[Stage]string{
	StageRequest:    "Transfer request is invalid",
	StageAccounts:   "Account validation failed",
	StagePermission: "Transfer is not permitted for the requester",
	StageLimits:     "Transfer exceeds available funds or limits",
	StageExecution:  "Transfer could not be executed",
}

// StageError reports the stage that refused a transfer. It unwraps to the typed cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Service facilitates transfer service layer logic.
type Service struct {
	engine   Engine
	accounts AccountService
}

// New returns transfer service struct to manage transfer business logic.
func New(engine Engine, accounts AccountService) *Service {
	return &Service{
		engine:   engine,
		accounts: accounts,
	}
}

func (s *Service) validRequest(req domain.TransferRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if !refpkg.ValidAccountNumber(req.FromAccountNumber) || !refpkg.ValidAccountNumber(req.ToAccountNumber) {
		return domain.ErrInvalidAccountNumber
	}

	return nil
}

func (s *Service) validAccounts(ctx context.Context, req domain.TransferRequest) error {
	for _, number := range []string{req.FromAccountNumber, req.ToAccountNumber} {
		a, err := s.accounts.GetByNumber(ctx, number)
		if err != nil {
			return err
		}

		if a.Status != domain.AccountStatusActive {
			return &domain.AccountNotActiveError{AccountNumber: a.Number, Status: a.Status}
		}
	}

	return nil
}

func (s *Service) validPermission(ctx context.Context, req domain.TransferRequest) error {
	requester, err := s.engine.Requester(ctx, req.RequesterID)
	if err != nil {
		return err
	}

	return roleauth.Authorize(requester.Role, req.Amount)
}

func (s *Service) validLimits(ctx context.Context, req domain.TransferRequest) error {
	return s.engine.CheckDebit(ctx, req.FromAccountNumber, req.Amount, domain.TransactionTypeTransfer)
}

// Validate runs the request, accounts, permission and limits stages in order and
// returns the first failure as *StageError.
func (s *Service) Validate(ctx context.Context, req domain.TransferRequest) error {
	l := zerolog.Ctx(ctx)

	stages := []struct {
		stage Stage
		check func() error
	}{
		{StageRequest, func() error { return s.validRequest(req) }},
		{StageAccounts, func() error { return s.validAccounts(ctx, req) }},
		{StagePermission, func() error { return s.validPermission(ctx, req) }},
		{StageLimits, func() error { return s.validLimits(ctx, req) }},
	}

	for _, st := range stages {
		if err := st.check(); err != nil {
			l.Info().Err(err).Str("stage", string(st.stage)).Msg("transfer refused")
			return &StageError{Stage: st.stage, Err: err}
		}
	}

	return nil
}

// CanPerformTransfer is a side-effect free dry run of Validate.
func (s *Service) CanPerformTransfer(ctx context.Context, req domain.TransferRequest) bool {
	return s.Validate(ctx, req) == nil
}

// Transfer validates the request and executes it. The result describes the outcome in
// both cases; the error carries the typed failure.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	if err := s.Validate(ctx, req); err != nil {
		return failed(err), err
	}

	exec, err := s.engine.Transfer(ctx, req)
	if err != nil {
		err = &StageError{Stage: StageExecution, Err: err}
		return failed(err), err
	}

	result := domain.TransferResult{
		Success:         true,
		Message:         "Transfer completed successfully",
		ReferenceNumber: exec.ReferenceNumber,
	}

	if len(exec.Transactions) == 2 {
		result.Legs = &domain.TransferLegs{
			Debit:  exec.Transactions[0],
			Credit: exec.Transactions[1],
		}
	}

	return result, nil
}

func failed(err error) domain.TransferResult {
	message := stageMessages[StageExecution]

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		message = stageMessages[stageErr.Stage]
	}

	if errors.Is(err, domain.ErrApprovalRequired) {
		message = "Transfer requires approval"
	}

	return domain.TransferResult{
		Success:      false,
		Message:      message,
		ErrorCode:    domain.Code(err),
		ErrorMessage: err.Error(),
	}
}
