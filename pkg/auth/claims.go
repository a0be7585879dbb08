package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload carried by the session cookie. The session id
// travels as the registered jti claim.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session identifier carried by the token.
func (c SessionClaims) SessionID() string {
	return c.ID
}
