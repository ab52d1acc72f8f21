package auth

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bitfitpro/bitfit/internal/telemetry/metrics"
	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TokenHeader carries the session token. A non-standard header makes browsers
// send a preflight request, see
// https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS#preflighted_requests
const TokenHeader = "X-BITFIT-TOKEN"

type identityService interface {
	SignUp(ctx context.Context, email, password, name string) (*Account, error)
	Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
	Account(ctx context.Context, identityID string) (*Account, error)
}

type Handler struct {
	service        identityService
	metricsManager *metrics.Manager
}

func NewHandler(service identityService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// SetupRoutes registers /a/*; loginMiddlewares (rate limiting) wrap only this subrouter.
func (handler *Handler) SetupRoutes(mainRouter *mux.Router, loginMiddlewares ...mux.MiddlewareFunc) {
	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/signup", handler.handleSignUp).
		Methods("POST", "OPTIONS").Name("signup")
	loginSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")
	loginSubrouter.
		HandleFunc("/me", handler.handleMe).
		Methods("GET", "OPTIONS").Name("me")

	loginSubrouter.Use(loginMiddlewares...)
}

func (handler *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.signup")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var req signUpRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Errorf("signup, unmarshal json params: %s", err)
			http.Error(w, "signup failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("signup failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		req = signUpRequest{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
			Name:     r.Form.Get("name"),
		}
	}

	account, err := handler.service.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, ErrInvalidEmail):
			http.Error(w, "error, invalid email", http.StatusBadRequest)
		case errors.Is(err, ErrWeakPassword):
			http.Error(w, "error, password too short", http.StatusBadRequest)
		case errors.Is(err, ErrEmailTaken):
			http.Error(w, "error, email already registered", http.StatusConflict)
		default:
			log.Errorf("signup failed: %s", err)
			http.Error(w, "signup failed", http.StatusInternalServerError)
		}
		return
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterSignUps.Inc()
	}
	span.SetAttributes(attribute.String("identity.id", account.ID))
	log.Debugf("new account %s signed up", account.ID)

	resp, err := json.Marshal(account)
	if err != nil {
		log.Errorf("marshal account: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusCreated)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var creds Credentials
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		creds = Credentials{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	token, err := handler.service.Login(ctx, creds, time.Now())
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			log.Tracef("failed login attempt for: %s", creds.Email)
			span.SetStatus(codes.Error, "wrong-credentials")
			http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("login failed: %s", err)
		span.SetStatus(codes.Error, "login-error")
		span.RecordError(err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	log.Trace("new login success")
	resp, err := json.Marshal(tokenResponse{Token: token})
	if err != nil {
		log.Errorf("marshal token: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := r.Header.Get(TokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.service.Logout(ctx, authToken)
	if err != nil {
		log.Errorf("logout => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Trace("logout success")
	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.me")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	session, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	account, err := handler.service.Account(ctx, session.IdentityID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		log.Errorf("get account %s: %s", session.IdentityID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(account)
	if err != nil {
		log.Errorf("marshal account: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}
