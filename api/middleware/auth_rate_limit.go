package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/fruitshop-backend/api/responses"
	internalauth "github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/metrics"
)

// RateLimiter is a fixed-window counter such as the Redis client.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for one form.
type AuthRateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int
	accountLimit int
	accountField string
	trustProxy   bool
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
// accountField names the form field that identifies the targeted account.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, accountLimit int, accountField string) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:         strings.ToLower(strings.TrimSpace(name)),
		window:       window,
		ipLimit:      ipLimit,
		accountLimit: accountLimit,
		accountField: accountField,
	}
}

// TrustingProxy returns a copy of the policy that reads the client address
// from X-Forwarded-For / X-Real-IP instead of the connection.
func (p AuthRateLimitPolicy) TrustingProxy(trust bool) AuthRateLimitPolicy {
	p.trustProxy = trust
	return p
}

// LoginRateLimitPolicy throttles login attempts per IP and per username.
func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return NewAuthRateLimitPolicy("login", cfg.LoginWindow, cfg.LoginIPLimit, cfg.LoginAccountLimit, "username").
		TrustingProxy(cfg.TrustProxyHeaders)
}

// SignupRateLimitPolicy throttles signups per IP and per email.
func SignupRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return NewAuthRateLimitPolicy("signup", cfg.SignupWindow, cfg.SignupIPLimit, cfg.SignupAccountLimit, "email").
		TrustingProxy(cfg.TrustProxyHeaders)
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.accountLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

func (p AuthRateLimitPolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("%s:ip:%s", p.normalizedName(), ip)
}

func (p AuthRateLimitPolicy) accountScope(hash string) string {
	if hash == "" {
		return ""
	}
	return fmt.Sprintf("%s:account:%s", p.normalizedName(), hash)
}

// AuthRateLimit counts form submissions per IP and per account. Only POSTs
// are counted. A blocked visitor is sent back to the form with a flash.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter RateLimiter, authMetrics *metrics.AuthMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			ip := clientIP(r, policy.trustProxy)
			if policy.ipLimit > 0 {
				if scope := policy.ipScope(ip); scope != "" {
					allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						blockAttempt(ctx, logg, authMetrics, w, r, policy, "ip", ip, "", count, policy.ipLimit)
						return
					}
				}
			}

			if policy.accountLimit > 0 && policy.accountField != "" {
				if err := r.ParseForm(); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form submission"))
					return
				}
				if account := normalizeAccount(r.PostForm.Get(policy.accountField)); account != "" {
					hash := hashValue(account)
					allowed, count, err := limiter.FixedWindowAllow(ctx, policy.accountScope(hash), int64(policy.accountLimit), policy.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						blockAttempt(ctx, logg, authMetrics, w, r, policy, "account", "", hash, count, policy.accountLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func blockAttempt(ctx context.Context, logg *logger.Logger, authMetrics *metrics.AuthMetrics, w http.ResponseWriter, r *http.Request, policy AuthRateLimitPolicy, scope, ip, accountHash string, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		if ip != "" {
			fields["ip"] = ip
		}
		if accountHash != "" {
			fields["account_hash"] = accountHash
		}
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	authMetrics.Inc(policy.normalizedName(), "rate_limited")

	sess := SessionFromContext(ctx)
	if sess == nil {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, internalauth.MsgTooManyAttempts))
		return
	}
	_ = sess.AddFlash(session.LevelError, internalauth.MsgTooManyAttempts)
	responses.Redirect(w, r, r.URL.Path)
}

// clientIP returns the connection address, or the first forwarded address
// when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if r == nil {
		return ""
	}
	if trustProxy {
		if ip := forwardedIP(r); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func forwardedIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}

func normalizeAccount(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
