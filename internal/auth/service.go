package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/fruitshop-backend/internal/users"
	"github.com/angelmondragon/fruitshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/security"
)

// Service verifies credentials and resolves the signed-in user.
type Service interface {
	Authenticate(ctx context.Context, username, password string) (*users.UserDTO, error)
	CurrentUser(ctx context.Context, id uint) (*users.UserDTO, error)
}

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo userRepository
	Hasher   *security.Hasher
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	users  userRepository
	hasher *security.Hasher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{users: params.UserRepo, hasher: params.Hasher, logg: params.Logger, now: now}, nil
}

// Authenticate returns the account for a valid username/password pair.
// Every failure yields the same unauthorized error.
func (s *service) Authenticate(ctx context.Context, username, password string) (*users.UserDTO, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
		}
		s.hasher.VerifyDummy(password)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgInvalidCredentials)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgInvalidCredentials)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.warn(ctx, "failed to record last login", err)
	} else {
		user.LastLoginAt = &now
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		if hash, err := s.hasher.Hash(password); err == nil {
			if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				s.warn(ctx, "failed to upgrade password hash", err)
			}
		}
	}
	return users.FromModel(user), nil
}

// CurrentUser loads the active account bound to a session.
func (s *service) CurrentUser(ctx context.Context, id uint) (*users.UserDTO, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}
	return users.FromModel(user), nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
