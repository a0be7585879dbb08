package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/fruitshop-backend/internal/users"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/security"
	"gorm.io/gorm"
)

// AdminRegisterService creates superuser accounts from the CLI.
type AdminRegisterService interface {
	CreateSuperuser(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error)
}

type adminRegisterService struct {
	tx       txRunner
	userRepo func(tx *gorm.DB) registerUserRepository
	hasher   *security.Hasher
}

// NewAdminRegisterService reuses the signup dependencies.
func NewAdminRegisterService(params RegisterServiceParams) (AdminRegisterService, error) {
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
	return &adminRegisterService{tx: params.TxRunner, userRepo: factory, hasher: params.Hasher}, nil
}

func (s *adminRegisterService) CreateSuperuser(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error) {
	return createAccount(ctx, s.tx, s.userRepo, s.hasher, strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password, true)
}
