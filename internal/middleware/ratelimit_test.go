package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/linguaacademy/academia/internal/model"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    2,
		ChatSendRate:    rate.Limit(1000),
		ChatSendBurst:   1,
		CleanupInterval: time.Minute,
	}
}

func rateLimitRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat/messages", nil)
	session := &model.Session{
		ID:        "session-" + userID,
		UserID:    userID,
		Role:      model.RoleLearner,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(ContextWithSession(req.Context(), session))
}

// TestGeneralMiddleware_NoSession_Returns401 はセッションなしが401になることを検証する。
func TestGeneralMiddleware_NoSession_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestGeneralMiddleware_WithinBurst_Allows はバースト以内のリクエストが通ることを検証する。
func TestGeneralMiddleware_WithinBurst_Allows(t *testing.T) {
	config := testRateLimiterConfig()
	config.GeneralRate = rate.Limit(0.001)
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < config.GeneralBurst; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, rateLimitRequest("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	// バースト超過で429
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rateLimitRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

// TestChatSendMiddleware_IsPerUser はチャット送信制限がユーザーごとに独立であることを検証する。
func TestChatSendMiddleware_IsPerUser(t *testing.T) {
	config := testRateLimiterConfig()
	config.ChatSendRate = rate.Limit(0.001)
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.ChatSendMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rateLimitRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", w.Code, http.StatusOK)
	}

	// user-1はバースト1を使い切った
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, rateLimitRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// 別ユーザーは影響を受けない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, rateLimitRequest("user-2"))
	if w.Code != http.StatusOK {
		t.Errorf("user-2 request: status = %d, want %d", w.Code, http.StatusOK)
	}

	if got := rl.ChatSendLimiterCount(); got != 2 {
		t.Errorf("ChatSendLimiterCount = %d, want 2", got)
	}
}

// TestChatSendMiddleware_IndependentOfGeneral はチャット送信と全般の制限が
// 互いに独立であることを検証する。
func TestChatSendMiddleware_IndependentOfGeneral(t *testing.T) {
	config := testRateLimiterConfig()
	config.ChatSendRate = rate.Limit(0.001)
	rl := NewRateLimiter(config)
	defer rl.Stop()

	chatHandler := rl.ChatSendMiddleware()(okHandler())
	generalHandler := rl.GeneralMiddleware()(okHandler())

	// チャット送信バーストを使い切る
	w := httptest.NewRecorder()
	chatHandler.ServeHTTP(w, rateLimitRequest("user-1"))
	w = httptest.NewRecorder()
	chatHandler.ServeHTTP(w, rateLimitRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("chat send: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// 全般APIはまだ通る
	w = httptest.NewRecorder()
	generalHandler.ServeHTTP(w, rateLimitRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("general: status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestDefaultRateLimiterConfig は既定値の整合性を検証する。
func TestDefaultRateLimiterConfig(t *testing.T) {
	config := DefaultRateLimiterConfig()

	if config.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", config.GeneralBurst)
	}
	if config.ChatSendBurst != 30 {
		t.Errorf("ChatSendBurst = %d, want 30", config.ChatSendBurst)
	}
	if config.CleanupInterval <= 0 {
		t.Error("CleanupInterval should be positive")
	}
}
