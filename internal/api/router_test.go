package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/glacierai/auth-service/internal/core/service"
	"github.com/glacierai/auth-service/internal/infrastructure/db/memory"
	"github.com/glacierai/auth-service/internal/infrastructure/security"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type authPayload struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func newTestServer(t *testing.T) (*echo.Echo, *memory.UserDirectory) {
	t.Helper()
	codec, err := security.NewJWTCodec(security.JWTConfig{
		Secret:     "router-test-secret",
		Issuer:     "auth-service",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	users := memory.NewUserDirectory()
	svc := service.NewAuthService(users, security.NewBcryptHasher(bcrypt.MinCost), codec, zerolog.Nop())

	e := NewRouter(Deps{
		AuthService: svc,
		CORSOrigins: []string{"http://localhost:5173"},
		Logger:      zerolog.Nop(),
		Registry:    prometheus.NewRegistry(),
	})
	return e, users
}

func do(t *testing.T, e *echo.Echo, method, path, body, bearer string) (int, apiResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

func authData(t *testing.T, resp apiResponse) authPayload {
	t.Helper()
	var p authPayload
	if err := json.Unmarshal(resp.Data, &p); err != nil {
		t.Fatalf("invalid auth payload: %v", err)
	}
	return p
}

func TestRouter_FullLifecycle(t *testing.T) {
	e, _ := newTestServer(t)

	code, resp := do(t, e, http.MethodPost, "/api/auth/register",
		`{"email":"Alice@Example.com","password":"s3cretpass","name":"Alice"}`, "")
	if code != http.StatusCreated || !resp.Success {
		t.Fatalf("register: %d %+v", code, resp)
	}
	registered := authData(t, resp)
	if registered.User.Email != "alice@example.com" || registered.User.Role != "CUSTOMER" {
		t.Fatalf("unexpected user: %+v", registered.User)
	}

	code, resp = do(t, e, http.MethodPost, "/api/auth/register",
		`{"email":"alice@example.com","password":"otherpass1","name":"Alice 2"}`, "")
	if code != http.StatusConflict || resp.Success || resp.Error == "" {
		t.Fatalf("duplicate register: %d %+v", code, resp)
	}

	code, resp = do(t, e, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"s3cretpass"}`, "")
	if code != http.StatusOK {
		t.Fatalf("login: %d %+v", code, resp)
	}
	login := authData(t, resp)

	code, resp = do(t, e, http.MethodGet, "/api/auth/validate", "", login.Token)
	if code != http.StatusOK || resp.Message != "Token is valid" {
		t.Fatalf("validate: %d %+v", code, resp)
	}

	code, _ = do(t, e, http.MethodGet, "/api/auth/me", "", login.Token)
	if code != http.StatusOK {
		t.Fatalf("me: %d", code)
	}

	code, resp = do(t, e, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+login.RefreshToken+`"}`, "")
	if code != http.StatusOK {
		t.Fatalf("refresh: %d %+v", code, resp)
	}

	code, _ = do(t, e, http.MethodGet, "/api/auth/user/"+registered.User.ID, "", "")
	if code != http.StatusOK {
		t.Fatalf("get user: %d", code)
	}
}

func TestRouter_ErrorStatuses(t *testing.T) {
	e, users := newTestServer(t)

	code, resp := do(t, e, http.MethodPost, "/api/auth/register",
		`{"email":"bob@example.com","password":"s3cretpass","name":"Bob"}`, "")
	if code != http.StatusCreated {
		t.Fatalf("register: %d %+v", code, resp)
	}
	bob := authData(t, resp)

	cases := []struct {
		name         string
		method, path string
		body, bearer string
		want         int
	}{
		{"bad register payload", http.MethodPost, "/api/auth/register", `{"email":"x"}`, "", http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"wrong-pass"}`, "", http.StatusUnauthorized},
		{"unknown email", http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"wrong-pass"}`, "", http.StatusUnauthorized},
		{"forged refresh", http.MethodPost, "/api/auth/refresh", `{"refreshToken":"a.b.c"}`, "", http.StatusUnauthorized},
		{"forged validate", http.MethodGet, "/api/auth/validate", "", "a.b.c", http.StatusUnauthorized},
		{"missing bearer", http.MethodGet, "/api/auth/validate", "", "", http.StatusUnauthorized},
		{"me without token", http.MethodGet, "/api/auth/me", "", "", http.StatusUnauthorized},
		{"unknown user id", http.MethodGet, "/api/auth/user/missing", "", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := do(t, e, tc.method, tc.path, tc.body, tc.bearer)
			if code != tc.want {
				t.Fatalf("expected %d, got %d (%+v)", tc.want, code, resp)
			}
			if resp.Success || resp.Error == "" {
				t.Fatalf("expected error envelope, got %+v", resp)
			}
		})
	}

	// Login failures must be indistinguishable.
	_, wrongPass := do(t, e, http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"wrong-pass"}`, "")
	_, unknown := do(t, e, http.MethodPost, "/api/auth/login", `{"email":"nobody@example.com","password":"wrong-pass"}`, "")
	if wrongPass.Error != unknown.Error {
		t.Fatalf("login failures differ: %q vs %q", wrongPass.Error, unknown.Error)
	}

	// A deactivated user's still-signed tokens resolve to 401, its id to 404.
	if err := users.SetActive(context.Background(), bob.User.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if code, _ := do(t, e, http.MethodGet, "/api/auth/validate", "", bob.Token); code != http.StatusUnauthorized {
		t.Fatalf("validate deactivated: expected 401, got %d", code)
	}
	if code, _ := do(t, e, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+bob.RefreshToken+`"}`, ""); code != http.StatusUnauthorized {
		t.Fatalf("refresh deactivated: expected 401, got %d", code)
	}
	if code, _ := do(t, e, http.MethodGet, "/api/auth/user/"+bob.User.ID, "", ""); code != http.StatusNotFound {
		t.Fatalf("get deactivated: expected 404, got %d", code)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	e, _ := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/api/auth/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	// Generate at least one observation before scraping.
	do(t, e, http.MethodGet, "/health", "", "")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "auth_http_requests_total") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}
