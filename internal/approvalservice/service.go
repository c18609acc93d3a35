// Package approvalservice manages the approval workflow of transactions above a role's authority.
package approvalservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/roleauth"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/transactionservice"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/metricspkg"
)

// Repo provides data access layer interface needed by approval service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package approvalservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateApprovalParams) (domain.TransactionApproval, error)
	Get(ctx context.Context, id int64) (domain.TransactionApproval, error)
	ListPending(ctx context.Context) ([]domain.TransactionApproval, error)
	Decide(ctx context.Context, arg domain.DecideApprovalParams) (domain.TransactionApproval, error)
}

// Engine provides the engine operations needed by approval service layer.
type Engine interface {
	Requester(ctx context.Context, id int64) (domain.User, error)
	Execute(ctx context.Context, intent domain.TransactionIntent) (domain.Execution, error)
	ExecuteApproved(ctx context.Context, arg domain.DecideApprovalParams, intent domain.TransactionIntent) (domain.TransactionApproval, domain.Execution, error)
}

// Service facilitates approval service layer logic.
type Service struct {
	repo   Repo
	engine Engine
}

// New returns approval service struct to manage approval business logic.
func New(repo Repo, engine Engine) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
	}
}

// Request records a PENDING approval for the intent.
func (s *Service) Request(ctx context.Context, intent domain.TransactionIntent) (domain.TransactionApproval, error) {
	l := zerolog.Ctx(ctx)

	if err := transactionservice.ValidateIntent(intent); err != nil {
		return domain.TransactionApproval{}, err
	}

	requester, err := s.engine.Requester(ctx, intent.RequesterID)
	if err != nil {
		return domain.TransactionApproval{}, err
	}

	if !roleauth.WithinCeiling(requester.Role, intent.Amount) {
		return domain.TransactionApproval{}, &domain.AuthorizationExceededError{
			Role:    requester.Role,
			Amount:  intent.Amount,
			Ceiling: roleauth.PolicyOf(requester.Role).Ceiling,
		}
	}

	approval, err := s.repo.Create(ctx, domain.CreateApprovalParams{
		Type:            intent.Type,
		AccountNumber:   intent.AccountNumber,
		ToAccountNumber: intent.ToAccountNumber,
		Amount:          intent.Amount,
		Description:     intent.Description,
		RequesterID:     requester.ID,
		RequesterRole:   requester.Role,
	})
	if err != nil {
		return domain.TransactionApproval{}, err
	}

	metricspkg.ApprovalsTotal.WithLabelValues("requested").Inc()

	l.Info().
		Int64("approval_id", approval.ID).
		Int64("requester_id", requester.ID).
		Str("type", string(approval.Type)).
		Str("amount", approval.Amount.StringFixed(2)).
		Msg("approval requested")

	return approval, nil
}

// Submit executes the intent directly when the requester's authority allows it and records a
// PENDING approval when it needs sign-off.
func (s *Service) Submit(ctx context.Context, intent domain.TransactionIntent) (domain.SubmitResult, error) {
	exec, err := s.engine.Execute(ctx, intent)
	if err == nil {
		return domain.SubmitResult{Execution: &exec}, nil
	}

	if !errors.Is(err, domain.ErrApprovalRequired) {
		return domain.SubmitResult{}, err
	}

	approval, err := s.Request(ctx, intent)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	return domain.SubmitResult{Approval: &approval}, nil
}

// pending loads a request and the approver and checks that approver may decide it.
func (s *Service) pending(ctx context.Context, id, approverID int64) (domain.TransactionApproval, bool, error) {
	approval, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.TransactionApproval{}, false, err
	}

	if !approval.Pending() {
		return domain.TransactionApproval{}, false, &domain.InvalidApprovalStateError{
			ApprovalID: approval.ID,
			Status:     approval.Status,
			Reason:     "approval is already decided",
		}
	}

	approver, err := s.engine.Requester(ctx, approverID)
	if err != nil {
		return domain.TransactionApproval{}, false, err
	}

	self := approver.ID == approval.RequesterID

	if !roleauth.CanApprove(approver.Role, approval.RequesterRole, approval.Amount, self) {
		return domain.TransactionApproval{}, false, &domain.InvalidApprovalStateError{
			ApprovalID: approval.ID,
			Status:     approval.Status,
			Reason:     fmt.Sprintf("%s may not decide this request", approver.Role),
		}
	}

	return approval, self, nil
}

// Approve approves a PENDING request and executes its recorded intent. The execution is not
// checked against the approver's own limits.
func (s *Service) Approve(ctx context.Context, id, approverID int64, comments string) (domain.TransactionApproval, domain.Execution, error) {
	l := zerolog.Ctx(ctx)

	approval, self, err := s.pending(ctx, id, approverID)
	if err != nil {
		return domain.TransactionApproval{}, domain.Execution{}, err
	}

	if self {
		l.Warn().
			Int64("approval_id", approval.ID).
			Int64("approver_id", approverID).
			Str("amount", approval.Amount.StringFixed(2)).
			Msg("self-approval")
	}

	decided, exec, err := s.engine.ExecuteApproved(ctx, domain.DecideApprovalParams{
		ID:           approval.ID,
		ApproverID:   approverID,
		Comments:     comments,
		SelfApproved: self,
	}, approval.Intent())
	if err != nil {
		return domain.TransactionApproval{}, domain.Execution{}, err
	}

	metricspkg.ApprovalsTotal.WithLabelValues(string(domain.ApprovalStatusApproved)).Inc()

	l.Info().
		Int64("approval_id", decided.ID).
		Int64("approver_id", approverID).
		Str("reference", exec.ReferenceNumber).
		Msg("approval approved")

	return decided, exec, nil
}

// Reject rejects a PENDING request with the given reason.
func (s *Service) Reject(ctx context.Context, id, approverID int64, reason string) (domain.TransactionApproval, error) {
	l := zerolog.Ctx(ctx)

	approval, self, err := s.pending(ctx, id, approverID)
	if err != nil {
		return domain.TransactionApproval{}, err
	}

	decided, err := s.repo.Decide(ctx, domain.DecideApprovalParams{
		ID:           approval.ID,
		Status:       domain.ApprovalStatusRejected,
		ApproverID:   approverID,
		Comments:     reason,
		SelfApproved: self,
	})
	if err != nil {
		return domain.TransactionApproval{}, err
	}

	metricspkg.ApprovalsTotal.WithLabelValues(string(domain.ApprovalStatusRejected)).Inc()

	l.Info().
		Int64("approval_id", decided.ID).
		Int64("approver_id", approverID).
		Str("reason", reason).
		Msg("approval rejected")

	return decided, nil
}

// Get returns the approval with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.TransactionApproval, error) {
	return s.repo.Get(ctx, id)
}

// GetFor returns the approval when the user requested it or is staff.
func (s *Service) GetFor(ctx context.Context, id, userID int64) (domain.TransactionApproval, error) {
	approval, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.TransactionApproval{}, err
	}

	if approval.RequesterID == userID {
		return approval, nil
	}

	user, err := s.engine.Requester(ctx, userID)
	if err != nil {
		return domain.TransactionApproval{}, err
	}

	if !user.Role.Staff() {
		return domain.TransactionApproval{}, fmt.Errorf("%w: approval %d belongs to another user", domain.ErrUnauthorized, id)
	}

	return approval, nil
}

// ListPendingFor returns the PENDING requests the user may decide, oldest first.
func (s *Service) ListPendingFor(ctx context.Context, userID int64) ([]domain.TransactionApproval, error) {
	user, err := s.engine.Requester(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.TransactionApproval, 0, len(pending))

	for _, a := range pending {
		if roleauth.CanApprove(user.Role, a.RequesterRole, a.Amount, a.RequesterID == user.ID) {
			result = append(result, a)
		}
	}

	return result, nil
}
