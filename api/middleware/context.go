package middleware

import (
	"context"

	"github.com/angelmondragon/fruitshop-backend/internal/users"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
)

type contextKey string

const (
	ctxSession contextKey = "session"
	ctxUser    contextKey = "user"
)

// SessionFromContext returns the visitor session attached by Session.
func SessionFromContext(ctx context.Context) *session.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*session.Session); ok {
		return v
	}
	return nil
}

// UserFromContext returns the signed-in user, or nil for anonymous visitors.
func UserFromContext(ctx context.Context) *users.UserDTO {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*users.UserDTO); ok {
		return v
	}
	return nil
}

// WithSession injects the visitor session into the context.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}

// WithUser injects the signed-in user into the context.
func WithUser(ctx context.Context, user *users.UserDTO) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
