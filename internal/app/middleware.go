package app

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/commerce-console/internal/observability"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

const (
	// APIKeyHeader carries the operator API key.
	APIKeyHeader = "X-API-Key"
	// OperatorHeader names the operator acting through the key.
	OperatorHeader = "X-Operator"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the console middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}
	limit := 120
	if cfg.Config != nil && cfg.Config.RateLimitPerMinute > 0 {
		limit = cfg.Config.RateLimitPerMinute
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}

// APIKeyAuth rejects requests without a key matching the configured bcrypt
// hash and stores the operator in the request context.
type APIKeyAuth struct {
	hash   []byte
	logger *slog.Logger

	// verified caches sha256 digests of keys that already passed bcrypt.
	verified sync.Map
}

// NewAPIKeyAuth constructs the middleware from a bcrypt hash.
func NewAPIKeyAuth(hash string, logger *slog.Logger) *APIKeyAuth {
	return &APIKeyAuth{hash: []byte(hash), logger: logger}
}

// Middleware returns the chi compatible handler.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := apiKeyFromRequest(r)
		if key == "" || !a.verify(key) {
			if a.logger != nil {
				a.logger.Warn("api key rejected", slog.String("path", r.URL.Path), slog.String("request_id", middleware.GetReqID(r.Context())))
			}
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		operator := strings.TrimSpace(r.Header.Get(OperatorHeader))
		if operator == "" {
			operator = "api"
		}
		ctx := shared.ContextWithActor(r.Context(), shared.Actor{Name: operator})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *APIKeyAuth) verify(key string) bool {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	if _, ok := a.verified.Load(digest); ok {
		return true
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(key)); err != nil {
		return false
	}
	a.verified.Store(digest, struct{}{})
	return true
}

func apiKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
