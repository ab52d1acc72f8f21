package middleware

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bitfitpro/bitfit/internal/auth"
	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const AuthTokenHeader = auth.TokenHeader

type sessionChecker interface {
	Session(ctx context.Context, token string) (*auth.Session, error)
}

type AuthMiddlewareHandler struct {
	sessionChecker       sessionChecker
	allowedPaths         map[string]bool
	allowedPathsPrefixes []string
}

func NewAuthMiddlewareHandler(sessionChecker sessionChecker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		sessionChecker: sessionChecker,
		allowedPaths: map[string]bool{
			"/":             true,
			"/version":      true,
			"/myip":         true,
			"/quote/random": true,

			// blog handler:
			"/blog/all":        true,
			"/blog/clap":       true,
			"/blog/categories": true,

			// reference data:
			"/benchmarks/cardio":   true,
			"/benchmarks/strength": true,
			"/guides":              true,

			// calculators work without an account, the session only prefills inputs
			"/calories/plan": true,

			// identity:
			"/a/signup": true,
			"/a/login":  true,
			"/a/logout": true,
		},
		allowedPathsPrefixes: []string{
			"/blog/page/",
			"/assess/",
			"/guides/",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(path string) bool {
	if h.allowedPaths[path] {
		return true
	}
	for _, prefix := range h.allowedPathsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthCheck resolves the session behind the token header and stores it in the
// request context. Public paths pass without a session, all other paths require one.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			isPublic := h.pathIsAlwaysAllowed(r.URL.Path)
			authToken := r.Header.Get(AuthTokenHeader)

			if authToken == "" {
				if isPublic {
					span.SetStatus(codes.Ok, "ok")
					next.ServeHTTP(w, r)
					return
				}
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			session, err := h.sessionChecker.Session(ctx, authToken)
			if err != nil {
				if isPublic {
					// stale token on a public path, serve it anonymously
					span.SetStatus(codes.Ok, "ok-anonymous")
					next.ServeHTTP(w, r)
					return
				}
				if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired) {
					log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
					span.SetStatus(codes.Error, "not-logged")
				} else {
					log.Errorf("[failed session check] => %s: %s", r.URL.Path, err)
					span.SetStatus(codes.Error, "check-session-err")
					span.RecordError(err)
				}
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}
