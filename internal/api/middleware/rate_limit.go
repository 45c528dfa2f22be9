package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/ratelimit"
)

const maxRateLimitBody = 1 << 20

// RateLimitPolicy throttles one group of endpoints by client IP and by the
// email or phone number found in the request body.
type RateLimitPolicy struct {
	name            string
	window          time.Duration
	ipLimit         int
	identifierLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit, identifierLimit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return RateLimitPolicy{
		name:            name,
		window:          window,
		ipLimit:         ipLimit,
		identifierLimit: identifierLimit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.identifierLimit > 0)
}

func RateLimit(policy RateLimitPolicy, store ratelimit.Store, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if !policy.check(ctx, w, store, logg, "ip", ip, policy.ipLimit) {
						return
					}
				}
			}

			if policy.identifierLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, domain.WrapError(domain.CodeValidation, err, "invalid request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if id := extractIdentifier(body); id != "" {
					if !policy.check(ctx, w, store, logg, "identifier", hashValue(id), policy.identifierLimit) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check returns false after writing a response when the request must stop.
func (p RateLimitPolicy) check(ctx context.Context, w http.ResponseWriter, store ratelimit.Store, logg *logger.Logger, scope, value string, limit int) bool {
	allowed, count, err := ratelimit.Allow(ctx, store, ratelimit.Key(p.name, scope, value), p.window, limit)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return false
	}
	if allowed {
		return true
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         p.name,
			"scope":          scope,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(p.window.Seconds()),
		}), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, logg, w, domain.ErrRateLimited)
	return false
}

// clientIP is the socket peer. Forwarding headers are only honoured when
// the router runs chi's RealIP in front, which rewrites RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func extractIdentifier(payload []byte) string {
	var body struct {
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if email := domain.NormalizeEmail(body.Email); email != "" {
		return email
	}
	return domain.NormalizePhone(body.PhoneNumber)
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
