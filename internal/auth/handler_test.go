package auth_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bitfitpro/bitfit/internal/auth"
	"github.com/bitfitpro/bitfit/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRouter(t *testing.T) (*mux.Router, *MockidentityService, *metrics.Manager) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := NewMockidentityService(ctrl)
	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	auth.NewHandler(service, metricsManager).SetupRoutes(r)
	return r, service, metricsManager
}

func TestHandler_SetupRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)

	for caseName, route := range map[string]struct {
		name   string
		path   string
		method string
	}{
		"signup":         {name: "signup", path: "/a/signup", method: "POST"},
		"signup-options": {name: "signup", path: "/a/signup", method: "OPTIONS"},
		"login":          {name: "login", path: "/a/login", method: "POST"},
		"logout":         {name: "logout", path: "/a/logout", method: "GET"},
		"me":             {name: "me", path: "/a/me", method: "GET"},
	} {
		t.Run(caseName, func(t *testing.T) {
			req, err := http.NewRequest(route.method, route.path, nil)
			require.NoError(t, err)

			routeMatch := &mux.RouteMatch{}
			muxRoute := r.Get(route.name)
			require.NotNil(t, muxRoute)
			assert.True(t, muxRoute.Match(req, routeMatch), caseName)
		})
	}
}

func TestHandler_SignUp(t *testing.T) {
	r, service, metricsManager := newTestRouter(t)

	service.EXPECT().
		SignUp(gomock.Any(), testEmail, testPassword, "Jane").
		Return(&auth.Account{ID: testIdentityID, Email: testEmail, Name: "Jane", PasswordHash: "secret"}, nil)

	req := httptest.NewRequest("POST", "/a/signup", strings.NewReader(
		`{"email":"jane@bitfit.test","password":"correct-horse","name":"Jane"}`,
	))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret")
	var account auth.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &account))
	assert.Equal(t, testIdentityID, account.ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSignUps))
}

func TestHandler_SignUp_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"EmailTaken", auth.ErrEmailTaken, http.StatusConflict},
		{"InvalidEmail", auth.ErrInvalidEmail, http.StatusBadRequest},
		{"WeakPassword", auth.ErrWeakPassword, http.StatusBadRequest},
		{"StoreError", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, service, metricsManager := newTestRouter(t)
			service.EXPECT().SignUp(gomock.Any(), "jane@bitfit.test", "pw", "").Return(nil, tc.err)

			form := url.Values{"email": {"jane@bitfit.test"}, "password": {"pw"}}
			req := httptest.NewRequest("POST", "/a/signup", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.CounterSignUps))
		})
	}
}

func TestHandler_Login(t *testing.T) {
	r, service, _ := newTestRouter(t)

	service.EXPECT().
		Login(gomock.Any(), auth.Credentials{Email: testEmail, Password: testPassword}, gomock.Any()).
		Return("new-token", nil)

	form := url.Values{"email": {testEmail}, "password": {testPassword}}
	req := httptest.NewRequest("POST", "/a/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"token":"new-token"}`, rr.Body.String())

	service.EXPECT().
		Login(gomock.Any(), auth.Credentials{Email: testEmail, Password: "nope"}, gomock.Any()).
		Return("", auth.ErrWrongCredentials)

	req = httptest.NewRequest("POST", "/a/login", strings.NewReader(`{"email":"jane@bitfit.test","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest("POST", "/a/login", strings.NewReader(`{"email":"jane@bitfit.test"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Logout(t *testing.T) {
	r, service, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/a/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	service.EXPECT().Logout(gomock.Any(), "tkn").Return(true, nil)
	req := httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set(auth.TokenHeader, "tkn")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "logged-out", rr.Body.String())

	service.EXPECT().Logout(gomock.Any(), "unknown").Return(false, nil)
	req = httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set(auth.TokenHeader, "unknown")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_Me(t *testing.T) {
	r, service, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/a/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	service.EXPECT().Account(gomock.Any(), testIdentityID).Return(&auth.Account{
		ID:        testIdentityID,
		Email:     testEmail,
		Name:      "Jane",
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, nil)

	req := httptest.NewRequest("GET", "/a/me", nil)
	req = req.WithContext(auth.WithSession(req.Context(), &auth.Session{Token: "tkn", IdentityID: testIdentityID}))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"id":"5b0c1a0e-4f3e-4a7e-8d7b-0a5d3c9e1f21","email":"jane@bitfit.test","name":"Jane","createdAt":"2024-01-02T00:00:00Z"}`,
		rr.Body.String(),
	)
}
