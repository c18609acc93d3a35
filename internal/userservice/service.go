// Package userservice manages business logic layer of users.
package userservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/errorspkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/metricspkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/passpkg"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/tokenpkg"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

// Lockout tracks failed logins per username.
type Lockout interface {
	LockedFor(ctx context.Context, username string) (time.Duration, error)
	RecordFailure(ctx context.Context, username string) (bool, error)
	Reset(ctx context.Context, username string) error
}

// Service facilitates user service layer logic.
type Service struct {
	repo          Repo
	lockout       Lockout
	tokenMaker    tokenpkg.Maker
	tokenDuration time.Duration
}

// New return user service struct to manage user bussines logic.
func New(repo Repo, lockout Lockout, tokenMaker tokenpkg.Maker, tokenDuration time.Duration) *Service {
	return &Service{
		repo:          repo,
		lockout:       lockout,
		tokenMaker:    tokenMaker,
		tokenDuration: tokenDuration,
	}
}

// NewUserWithoutPassword returns user with removed sensitive data.
func NewUserWithoutPassword(u domain.User) domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Create registers a CUSTOMER user.
func (s *Service) Create(ctx context.Context, req domain.RegisterUserParams) (domain.UserWithoutPassword, error) {
	return s.create(ctx, req, domain.RoleCustomer)
}

// CreateStaff registers a TELLER, MANAGER or ADMIN user on behalf of an active ADMIN.
func (s *Service) CreateStaff(ctx context.Context, adminID int64, req domain.RegisterUserParams, role domain.Role) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	if !role.Staff() {
		return domain.UserWithoutPassword{}, domain.ErrInvalidRole
	}

	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.UserWithoutPassword{}, domain.ErrRequesterNotFound
		}
		return domain.UserWithoutPassword{}, err
	}

	if admin.Role != domain.RoleAdmin || !admin.IsActive {
		return domain.UserWithoutPassword{}, fmt.Errorf("%w: staff users are created by %s", domain.ErrUnauthorized, domain.RoleAdmin)
	}

	user, err := s.create(ctx, req, role)
	if err != nil {
		return user, err
	}

	l.Warn().
		Int64("admin_id", adminID).
		Int64("user_id", user.ID).
		Str("role", string(role)).
		Msg("staff user created")

	return user, nil
}

func (s *Service) create(ctx context.Context, req domain.RegisterUserParams, role domain.Role) (domain.UserWithoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var result domain.UserWithoutPassword

	hashedPassword, err := passpkg.Hash(req.Password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	arg := domain.CreateUserParams{
		Username:       req.Username,
		HashedPassword: hashedPassword,
		FullName:       req.FullName,
		Email:          req.Email,
		Role:           role,
	}

	gotUser, err := s.repo.Create(ctx, arg)
	if err != nil {
		return result, err
	}

	result = NewUserWithoutPassword(gotUser)

	return result, nil
}

// Login checks the password of username and issues an access token. Repeated failures lock
// the username for a while; unknown usernames count as failures.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Session, error) {
	l := zerolog.Ctx(ctx)

	left, err := s.lockout.LockedFor(ctx, username)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Session{}, errorspkg.ErrInternal
	}

	if left > 0 {
		return domain.Session{}, fmt.Errorf("%w: retry in %s", domain.ErrUserLocked, left.Round(time.Second))
	}

	gotUser, err := s.repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return domain.Session{}, err
	}

	if err != nil || passpkg.Check(password, gotUser.HashedPassword) != nil {
		return domain.Session{}, s.fail(ctx, username)
	}

	if !gotUser.IsActive {
		return domain.Session{}, domain.ErrUserInactive
	}

	if err := s.lockout.Reset(ctx, username); err != nil {
		l.Error().Err(err).Send()
	}

	token, payload, err := s.tokenMaker.CreateToken(gotUser.ID, gotUser.Username, s.tokenDuration)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Session{}, errorspkg.ErrInternal
	}

	return domain.Session{
		AccessToken:          token,
		AccessTokenExpiresAt: payload.ExpiredAt,
		User:                 NewUserWithoutPassword(gotUser),
	}, nil
}

func (s *Service) fail(ctx context.Context, username string) error {
	l := zerolog.Ctx(ctx)

	locked, err := s.lockout.RecordFailure(ctx, username)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.ErrWrongPassword
	}

	if locked {
		metricspkg.LoginLockoutsTotal.Inc()
		l.Warn().Str("username", username).Msg("username locked after failed logins")

		return fmt.Errorf("%w: too many failed attempts", domain.ErrUserLocked)
	}

	l.Info().Str("username", username).Msg("failed login")

	return domain.ErrWrongPassword
}

// GetByID returns the user with the given id.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.UserWithoutPassword, error) {
	gotUser, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.UserWithoutPassword{}, err
	}

	return NewUserWithoutPassword(gotUser), nil
}
