package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"easydrive/internal/config"
	"easydrive/internal/identity"

	"golang.org/x/time/rate"
)

type contextKey int

const callerContextKey contextKey = iota

// CallerFrom returns the caller attached by the identity middleware. Requests
// that never went through the middleware read as anonymous.
func CallerFrom(ctx context.Context) identity.Caller {
	if c, ok := ctx.Value(callerContextKey).(identity.Caller); ok {
		return c
	}
	return identity.Caller{}
}

// Identity resolves the caller for each request and applies per-caller rate
// limiting. A bearer token makes the caller authenticated; anonymous callers
// may identify themselves as a guest via the X-Guest-Email header.
type Identity struct {
	cfg      config.APIConfig
	limiters sync.Map // map[string]*rate.Limiter
}

func NewIdentity(cfg config.APIConfig) *Identity {
	return &Identity{cfg: cfg}
}

func (a *Identity) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.resolveCaller(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		if err := a.checkRateLimit(caller, r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), callerContextKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Identity) resolveCaller(r *http.Request) (identity.Caller, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		email := strings.TrimSpace(r.Header.Get("X-Guest-Email"))
		return identity.Caller{Email: email}, nil
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == header || raw == "" {
		return identity.Caller{}, identity.ErrInvalidToken
	}

	return identity.ParseToken(a.cfg.Auth.JWTSecret, raw)
}

func (a *Identity) checkRateLimit(caller identity.Caller, r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	lim := a.getLimiter(a.limiterKey(caller, r))
	if !lim.Allow() {
		return errRateLimited
	}
	return nil
}

func (a *Identity) limiterKey(caller identity.Caller, r *http.Request) string {
	if caller.Authenticated {
		return "acct:" + strings.TrimSpace(r.Header.Get("Authorization"))
	}
	if caller.Email != "" {
		return "guest:" + strings.ToLower(caller.Email)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "ip:" + host
	}
	return "unknown"
}

func (a *Identity) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
