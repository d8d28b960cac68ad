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
	"github.com/linguaacademy/academia/internal/chat"
	"github.com/linguaacademy/academia/internal/content"
	"github.com/linguaacademy/academia/internal/course"
	"github.com/linguaacademy/academia/internal/dashboard"
	"github.com/linguaacademy/academia/internal/middleware"
	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
	"github.com/linguaacademy/academia/internal/ticket"
)

// --- ルーターテスト用スタブ ---

type stubSessionFinder struct {
	sessions map[string]*model.Session
}

func (s *stubSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return s.sessions[id], nil
}

type stubCourseService struct{}

func (s *stubCourseService) Catalog(ctx context.Context) ([]course.LanguageGroup, error) {
	return []course.LanguageGroup{
		{Language: "Inglés", Courses: []*model.Course{
			{ID: "c-1", Name: "Inglés - A1", Level: model.CourseLevelA1, Modality: model.CourseModalitySync, Status: model.CourseStatusActive},
		}},
	}, nil
}

func (s *stubCourseService) Detail(ctx context.Context, courseID, viewerUserID string) (*course.CourseDetail, error) {
	return &course.CourseDetail{
		Course: &model.Course{ID: courseID, Name: "Inglés - A1"},
	}, nil
}

func (s *stubCourseService) Enroll(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	return &model.Enrollment{ID: "e-1", UserID: userID, CourseID: courseID, Status: model.EnrollmentStatusActive}, nil
}

func (s *stubCourseService) CreateCourse(ctx context.Context, name string, level model.CourseLevel, modality model.CourseModality) (*model.Course, error) {
	return &model.Course{ID: "c-new", Name: name, Level: level, Modality: modality, Status: model.CourseStatusActive}, nil
}

type stubContentService struct{}

func (s *stubContentService) AddContent(ctx context.Context, input content.AddContentInput) (*model.CourseContent, error) {
	return &model.CourseContent{ID: "ct-1", CourseID: input.CourseID, Title: input.Title}, nil
}

func (s *stubContentService) AddClassSession(ctx context.Context, input content.AddClassSessionInput) (*model.ClassSession, error) {
	return &model.ClassSession{ID: "cs-1", CourseID: input.CourseID}, nil
}

type stubAssessmentService struct{}

func (s *stubAssessmentService) CreateAssessment(ctx context.Context, courseID, name, description string, date time.Time) (*model.Assessment, error) {
	return &model.Assessment{ID: "a-1", CourseID: courseID, Name: name}, nil
}

func (s *stubAssessmentService) RecordResult(ctx context.Context, assessmentID, userID string, score float64, feedback string) (*model.AssessmentResult, error) {
	return &model.AssessmentResult{ID: "ar-1", AssessmentID: assessmentID, UserID: userID, Score: score}, nil
}

func (s *stubAssessmentService) ListMyResults(ctx context.Context, userID string) ([]repository.ResultWithAssessment, error) {
	return nil, nil
}

type stubBillingService struct{}

func (s *stubBillingService) IssueReceipt(ctx context.Context, userID string, amountCents int64, dueAt time.Time) (*model.Receipt, error) {
	return &model.Receipt{ID: "r-1", UserID: userID, AmountCents: amountCents, Status: model.ReceiptStatusPending}, nil
}

func (s *stubBillingService) MarkPaid(ctx context.Context, receiptID string) (*model.Receipt, error) {
	return &model.Receipt{ID: receiptID, Status: model.ReceiptStatusPaid}, nil
}

func (s *stubBillingService) ListForUser(ctx context.Context, userID string) ([]*model.Receipt, error) {
	return nil, nil
}

type stubTicketService struct{}

func (s *stubTicketService) Create(ctx context.Context, input ticket.CreateInput) (*model.SupportTicket, error) {
	return &model.SupportTicket{ID: "t-1", UserID: input.UserID, Subject: input.Subject, Status: model.TicketStatusOpen}, nil
}

func (s *stubTicketService) ListMine(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	return nil, nil
}

func (s *stubTicketService) Get(ctx context.Context, ticketID, viewerUserID string) (*model.SupportTicket, error) {
	return &model.SupportTicket{ID: ticketID, UserID: viewerUserID}, nil
}

type stubDashboardService struct{}

func (s *stubDashboardService) ForLearner(ctx context.Context, userID string) (*dashboard.LearnerDashboard, error) {
	return &dashboard.LearnerDashboard{}, nil
}

func (s *stubDashboardService) ForInstructor(ctx context.Context, userID string) (*dashboard.InstructorDashboard, error) {
	return &dashboard.InstructorDashboard{}, nil
}

func (s *stubDashboardService) ForAdmin(ctx context.Context) (*dashboard.AdminDashboard, error) {
	return &dashboard.AdminDashboard{UserCount: 3}, nil
}

type stubUserAdminService struct{}

func (s *stubUserAdminService) ProvisionUser(ctx context.Context, input auth.ProvisionInput) (*model.User, error) {
	return &model.User{ID: "u-new", Role: input.Role, Email: input.Email}, nil
}

func (s *stubUserAdminService) SetUserStatus(ctx context.Context, userID string, status model.UserStatus) (*model.User, error) {
	return &model.User{ID: userID, Status: status}, nil
}

// newTestRouter はスタブ一式を配線したルーターを返す。
func newTestRouter(t *testing.T, sessions map[string]*model.Session) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	chatService := &mockChatService{
		sendFn: func(ctx context.Context, viewer *model.Session, receiverID, text string) (*chat.MessageView, error) {
			return &chat.MessageView{ID: 1, Text: text, IsMine: true}, nil
		},
	}

	return NewRouter(&RouterDeps{
		SessionFinder:     &stubSessionFinder{sessions: sessions},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		AuthService:       &mockAuthService{},
		UserService:       &stubUserAdminService{},
		ChatService:       chatService,
		CourseService:     &stubCourseService{},
		ContentService:    &stubContentService{},
		AssessmentService: &stubAssessmentService{},
		BillingService:    &stubBillingService{},
		TicketService:     &stubTicketService{},
		DashboardService:  &stubDashboardService{},
	})
}

func sessionsFor(role model.Role) map[string]*model.Session {
	return map[string]*model.Session{
		"session-abc": {
			ID:        "session-abc",
			UserID:    "user-1",
			Role:      role,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

// withCSRF は状態変更リクエストにCSRFトークンを付与する。
func withCSRF(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-token"})
	req.Header.Set("X-CSRF-Token", "test-token")
	return req
}

// --- テスト ---

// TestRouter_Health_IsPublic はヘルスチェックが未認証で200を返すことを検証する。
func TestRouter_Health_IsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_Catalog_IsPublic はコースカタログが未認証で閲覧できることを検証する。
func TestRouter_Catalog_IsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if _, ok := body["languages"]; !ok {
		t.Error("expected languages key in catalog response")
	}
}

// TestRouter_Enroll_RequiresSession は受講登録が未認証で401になることを検証する。
func TestRouter_Enroll_RequiresSession(t *testing.T) {
	router := newTestRouter(t, nil)

	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/courses/c-1/enroll", nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestRouter_ChatFetch_Unauthenticated_ReturnsFixedPayload はチャットの
// 未認証契約をルーター越しに検証する。
func TestRouter_ChatFetch_Unauthenticated_ReturnsFixedPayload(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/messages/user-2?after=0", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Success || body.Error != "unauthorized" {
		t.Errorf("body = %+v, want success=false error=unauthorized", body)
	}
}

// TestRouter_ChatSend_Authenticated_Succeeds は認証済みチャット送信の成功経路を検証する。
func TestRouter_ChatSend_Authenticated_Succeeds(t *testing.T) {
	router := newTestRouter(t, sessionsFor(model.RoleLearner))

	payload, _ := json.Marshal(sendMessageRequest{ReceiverID: "user-2", Text: "Hola"})
	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/chat/messages", bytes.NewReader(payload)))
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-abc"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
	}

	env := decodeChatEnvelope(t, w)
	if !env.Success || env.Message == nil {
		t.Errorf("envelope = %+v, want success=true with message", env)
	}
}

// TestRouter_AdminRoutes_RejectLearner は管理者ルートが受講者に403を返すことを検証する。
func TestRouter_AdminRoutes_RejectLearner(t *testing.T) {
	router := newTestRouter(t, sessionsFor(model.RoleLearner))

	payload, _ := json.Marshal(createCourseRequest{Name: "Inglés - B2", Level: "B2", Modality: "synchronous"})
	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/admin/courses", bytes.NewReader(payload)))
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-abc"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// TestRouter_AdminRoutes_AllowAdministrator は管理者ルートが管理者に開放されることを検証する。
func TestRouter_AdminRoutes_AllowAdministrator(t *testing.T) {
	router := newTestRouter(t, sessionsFor(model.RoleAdministrator))

	payload, _ := json.Marshal(createCourseRequest{Name: "Inglés - B2", Level: "B2", Modality: "synchronous"})
	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/admin/courses", bytes.NewReader(payload)))
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-abc"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
}

// TestRouter_InstructorRoutes_RejectLearner は講師ルートが受講者に403を返すことを検証する。
func TestRouter_InstructorRoutes_RejectLearner(t *testing.T) {
	router := newTestRouter(t, sessionsFor(model.RoleLearner))

	payload, _ := json.Marshal(addContentRequest{Title: "Guía", Kind: "pdf", FileURL: "https://example.com/guia.pdf"})
	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/courses/c-1/contents", bytes.NewReader(payload)))
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-abc"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// TestRouter_AnonymousTicket_IsAccepted は未ログインの問い合わせが受け付けられることを検証する。
func TestRouter_AnonymousTicket_IsAccepted(t *testing.T) {
	router := newTestRouter(t, nil)

	payload, _ := json.Marshal(createTicketRequest{
		ContactName:  "Carlos Ruiz",
		ContactEmail: "carlos@example.com",
		Subject:      "Problema de acceso",
		Description:  "No puedo entrar a mi curso.",
	})
	req := withCSRF(httptest.NewRequest(http.MethodPost, "/api/tickets", bytes.NewReader(payload)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d, body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
}

// TestRouter_DashboardRoutes_EnforceRole はダッシュボードの役割ゲートを検証する。
func TestRouter_DashboardRoutes_EnforceRole(t *testing.T) {
	router := newTestRouter(t, sessionsFor(model.RoleLearner))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/learner", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-abc"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("learner dashboard: status = %d, want %d", w.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/admin", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "session-abc"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("admin dashboard as learner: status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
