package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/fruitshop-backend/internal/users"
	"github.com/angelmondragon/fruitshop-backend/pkg/db"
	"github.com/angelmondragon/fruitshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/security"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterService creates shopper accounts.
type RegisterService interface {
	Signup(ctx context.Context, req SignupRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the signup flow.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	Hasher          *security.Hasher
}

type registerService struct {
	tx       txRunner
	userRepo func(tx *gorm.DB) registerUserRepository
	hasher   *security.Hasher
}

// NewRegisterService builds a signup service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	factory := params.UserRepoFactory
	if factory == nil {
		factory = func(tx *gorm.DB) registerUserRepository { return users.NewRepository(tx) }
	}
	return &registerService{tx: params.TxRunner, userRepo: factory, hasher: params.Hasher}, nil
}

// Signup checks, in order, that the passwords match, the username is free
// and the email is free, then creates the account.
func (s *registerService) Signup(ctx context.Context, req SignupRequest) (*users.UserDTO, error) {
	if req.Password1 != req.Password2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgPasswordMismatch)
	}
	return createAccount(ctx, s.tx, s.userRepo, s.hasher, strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password1, false)
}

func createAccount(
	ctx context.Context,
	runner txRunner,
	repoFor func(tx *gorm.DB) registerUserRepository,
	hasher *security.Hasher,
	username, email, password string,
	superuser bool,
) (*users.UserDTO, error) {
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Username is required.")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email is required.")
	}
	if password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Password is required.")
	}

	var created *users.UserDTO
	err := runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := repoFor(tx)

		taken, err := repo.ExistsByUsername(ctx, username)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, MsgUsernameTaken)
		}

		taken, err = repo.ExistsByEmail(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, MsgEmailTaken)
		}

		hash, err := hasher.Hash(password)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsSuperuser:  superuser,
		})
		if err != nil {
			switch {
			case db.IsUniqueViolation(err, "username"):
				return pkgerrors.New(pkgerrors.CodeConflict, MsgUsernameTaken)
			case db.IsUniqueViolation(err, "email"):
				return pkgerrors.New(pkgerrors.CodeConflict, MsgEmailTaken)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
