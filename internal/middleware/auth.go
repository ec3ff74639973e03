package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/auth"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/db"
	"github.com/ukydev/transportpro/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey   contextKey = "user"
	CallerContextKey contextKey = "caller"
)

// AuthMiddleware resolves the bearer token to a stored, active user.
type AuthMiddleware struct {
	authService *auth.Service
	users       db.UserCollection
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service, users db.UserCollection) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		users:       users,
	}
}

// Authenticate validates the token, loads its user and attaches both the
// user and the resolved caller to the request context. Role and permissions
// come from the stored user so admin changes apply to live tokens.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			deny(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		token, err := m.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			deny(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				deny(w, http.StatusUnauthorized, "Token expired")
				return
			}
			deny(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := m.users.FindUserByID(r.Context(), claims.UserID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				deny(w, http.StatusUnauthorized, "User no longer exists")
				return
			}
			log.WithError(err).Error("Failed to load user for token")
			deny(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !user.IsActive() {
			deny(w, http.StatusUnauthorized, auth.ErrUserInactive.Error())
			return
		}

		caller := authz.Caller{UserID: user.ID, Role: user.Role, Permissions: user.Permissions}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, CallerContextKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission rejects callers without module.action.
func RequirePermission(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "User context not found")
				return
			}
			if err := authz.Require(caller, module, action); err != nil {
				deny(w, http.StatusForbidden, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "User context not found")
			return
		}
		if !caller.IsAdmin() {
			deny(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// CallerFromContext extracts the resolved caller from request context
func CallerFromContext(ctx context.Context) (authz.Caller, bool) {
	caller, ok := ctx.Value(CallerContextKey).(authz.Caller)
	return caller, ok
}

// WithCaller attaches a caller to ctx.
func WithCaller(ctx context.Context, caller authz.Caller) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/api/auth/login",
		"/api/health",
	}

	for _, skipPath := range skipPaths {
		if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
			return true
		}
	}
	return false
}

// RateLimitMiddleware limits requests per client IP over a sliding window.
// Clients are keyed on the connection address; forwarding headers are read
// only when the connection comes from a trusted proxy.
type RateLimitMiddleware struct {
	requests  map[string][]time.Time // IP -> request times
	trusted   []netip.Prefix
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

// NewRateLimitMiddleware creates a limiter that trusts forwarding headers
// from the given proxy networks only.
func NewRateLimitMiddleware(trustedProxies ...netip.Prefix) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		trusted:  trustedProxies,
		now:      time.Now,
	}
}

// RateLimit allows maxRequests per client IP within a sliding window.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := m.clientIP(r)

			m.mu.Lock()
			now := m.now()
			windowStart := now.Add(-window)
			if now.Sub(m.lastSweep) >= window {
				m.sweep(windowStart)
				m.lastSweep = now
			}
			recent := within(m.requests[clientIP], windowStart)
			if len(recent) >= maxRequests {
				m.requests[clientIP] = recent
				m.mu.Unlock()
				log.WithField("client_ip", clientIP).Warn("Rate limit exceeded")
				deny(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			m.requests[clientIP] = append(recent, now)
			m.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// sweep drops clients with no request inside the window. Caller holds mu.
func (m *RateLimitMiddleware) sweep(windowStart time.Time) {
	for ip, times := range m.requests {
		if recent := within(times, windowStart); len(recent) > 0 {
			m.requests[ip] = recent
		} else {
			delete(m.requests, ip)
		}
	}
}

func within(times []time.Time, windowStart time.Time) []time.Time {
	var recent []time.Time
	for _, ts := range times {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}
	return recent
}

// clientIP returns the connection's IP, or for a trusted proxy the nearest
// untrusted hop of X-Forwarded-For, then X-Real-IP.
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	host := remoteHost(r.RemoteAddr)
	if !m.isTrusted(host) {
		return host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !m.isTrusted(hop) {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return host
}

func (m *RateLimitMiddleware) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
