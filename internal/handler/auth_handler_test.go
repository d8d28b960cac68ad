package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linguaacademy/academia/internal/auth"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	registerFn func(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error)
	logoutFn   func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func learnerLoginResult() *auth.LoginResult {
	return &auth.LoginResult{
		Session: &model.Session{
			ID:          "session-abc",
			UserID:      "user-1",
			Role:        model.RoleLearner,
			DisplayName: "Ana García",
			ExpiresAt:   time.Now().Add(time.Hour),
		},
		User: &model.User{
			ID:        "user-1",
			FirstName: "Ana",
			LastName:  "García",
			Email:     "ana@example.com",
			Role:      model.RoleLearner,
			Status:    model.UserStatusActive,
		},
		Destination: "/dashboard/learner",
	}
}

// --- テスト ---

// TestAuthHandler_Login_Success はログイン成功時にCookieと遷移先が返ることを検証する。
func TestAuthHandler_Login_Success(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			if email != "ana@example.com" {
				t.Errorf("email = %q, want %q", email, "ana@example.com")
			}
			return learnerLoginResult(), nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{SessionMaxAge: 3600}, nil)

	body, _ := json.Marshal(loginRequest{Email: "ana@example.com", Password: "secreto1"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var cookieFound bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookieFound = true
			if c.Value != "session-abc" {
				t.Errorf("session cookie = %q, want %q", c.Value, "session-abc")
			}
			if !c.HttpOnly {
				t.Error("session cookie should be HttpOnly")
			}
		}
	}
	if !cookieFound {
		t.Error("expected session cookie to be set")
	}

	var resp loginResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Destination != "/dashboard/learner" {
		t.Errorf("destination = %q, want %q", resp.Destination, "/dashboard/learner")
	}
	if resp.User.DisplayName != "Ana García" {
		t.Errorf("displayName = %q, want %q", resp.User.DisplayName, "Ana García")
	}
}

// TestAuthHandler_Login_InvalidCredential はパスワード不一致が401になることを検証する。
func TestAuthHandler_Login_InvalidCredential(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, model.NewInvalidCredentialError()
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{}, nil)

	body, _ := json.Marshal(loginRequest{Email: "ana@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			t.Error("session cookie should not be set on failure")
		}
	}
}

// TestAuthHandler_Login_AccountDisabled は無効化アカウントが403になることを検証する。
func TestAuthHandler_Login_AccountDisabled(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, model.NewAccountDisabledError()
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{}, nil)

	body, _ := json.Marshal(loginRequest{Email: "ana@example.com", Password: "secreto1"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// TestAuthHandler_Login_InvalidBody は不正なJSONが400になることを検証する。
func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestAuthHandler_Register_Success は新規登録が201とセッションCookieを返すことを検証する。
func TestAuthHandler_Register_Success(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error) {
			if input.FirstName != "Ana" {
				t.Errorf("firstName = %q, want %q", input.FirstName, "Ana")
			}
			return learnerLoginResult(), nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{SessionMaxAge: 3600}, nil)

	body, _ := json.Marshal(registerRequest{
		FirstName:       "Ana",
		LastName:        "García",
		Email:           "ana@example.com",
		Password:        "secreto1",
		PasswordConfirm: "secreto1",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var cookieFound bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			cookieFound = true
		}
	}
	if !cookieFound {
		t.Error("expected session cookie after registration")
	}
}

// TestAuthHandler_Register_DuplicateEmail はメール重複が409になることを検証する。
func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error) {
			return nil, model.NewDuplicateEmailError()
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{}, nil)

	body, _ := json.Marshal(registerRequest{Email: "ana@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

// TestAuthHandler_Logout_ClearsCookie はログアウトでCookieが削除されることを検証する。
func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	var loggedOut string
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-abc"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if loggedOut != "session-abc" {
		t.Errorf("logged out session = %q, want %q", loggedOut, "session-abc")
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

// TestAuthHandler_Me_ReturnsSessionInfo はセッション情報の返却を検証する。
func TestAuthHandler_Me_ReturnsSessionInfo(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{}, nil)

	session := &model.Session{
		ID:          "session-abc",
		UserID:      "user-1",
		Role:        model.RoleInstructor,
		DisplayName: "Luis Pérez",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), session))
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp["displayName"] != "Luis Pérez" {
		t.Errorf("displayName = %v, want %q", resp["displayName"], "Luis Pérez")
	}
	if resp["destination"] != "/dashboard/instructor" {
		t.Errorf("destination = %v, want %q", resp["destination"], "/dashboard/instructor")
	}
}
