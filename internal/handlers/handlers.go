package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/choncance/choncance-backend/internal/repository"
	"github.com/choncance/choncance-backend/internal/service"
	"github.com/choncance/choncance-backend/internal/storage"
	"github.com/choncance/choncance-backend/pkg/config"
	"github.com/choncance/choncance-backend/pkg/logger"
	mw "github.com/choncance/choncance-backend/pkg/middleware"
)

const maxJSONBody = 1 << 20

type ctxKey int

const userKey ctxKey = iota

type Handlers struct {
	authService   service.AuthService
	userService   service.UserService
	tagService    service.TagService
	resolver      service.Resolver
	rateLimitRepo repository.RateLimitRepository
	store         storage.Store
	metrics       *mw.Metrics
	config        *config.Config
}

func New(
	authService service.AuthService,
	userService service.UserService,
	tagService service.TagService,
	resolver service.Resolver,
	rateLimitRepo repository.RateLimitRepository,
	store storage.Store,
	metrics *mw.Metrics,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:   authService,
		userService:   userService,
		tagService:    tagService,
		resolver:      resolver,
		rateLimitRepo: rateLimitRepo,
		store:         store,
		metrics:       metrics,
		config:        config,
	}
}

// RequireAuth resolves the bearer token to an account and stores it in the
// request context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, apperr.Unauthorized(apperr.CodeInvalidToken, "Missing or invalid authorization header"))
			return
		}

		user, err := h.resolver.Resolve(r.Context(), strings.TrimSpace(token))
		if err != nil {
			if ae := apperr.From(err); ae.Kind == apperr.KindUnauthorized {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, user.ID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after RequireAuth.
func (h *Handlers) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil || user.Role != role {
				writeError(w, r, apperr.Forbidden("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit bounds requests per client IP for one flow. Store failures let
// the request through.
func (h *Handlers) RateLimit(flow string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl := h.config.RateLimit
			if !rl.Enabled || h.rateLimitRepo == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := flow + ":" + getClientIP(r)
			allowed, err := h.rateLimitRepo.CheckRateLimit(r.Context(), key, rl.Requests, rl.Window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
			} else if !allowed {
				h.metrics.ObserveAuth(flow, "rate_limited")
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.Window.Seconds())))
				writeError(w, r, apperr.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func currentUser(r *http.Request) *domain.User {
	if user, ok := r.Context().Value(userKey).(*domain.User); ok {
		return user
	}
	return nil
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.BadRequest(apperr.CodeInvalidJSON, "Invalid JSON format")
	}
	return nil
}

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError renders err from its apperr classification. Internal causes are
// logged and never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindInternal {
		logger.ErrorContext(r.Context(), "Request failed", "error", ae.Cause, "path", r.URL.Path)
	}
	writeJSON(w, ae.Status(), errorResponse{
		Error:   ae.Message,
		Code:    ae.Code,
		Details: ae.Details,
	})
}

// outcome labels an auth flow result for metrics.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return strings.ToLower(ae.Code)
	}
	return "error"
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
