package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
	updateStatusFn   func(ctx context.Context, id string, status model.UserStatus) error
	countFn          func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
	deleteExpiredFn  func(ctx context.Context) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

type mockActivityRepo struct {
	createFn func(ctx context.Context, log *model.ActivityLog) error
}

func (m *mockActivityRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	if m.createFn != nil {
		return m.createFn(ctx, log)
	}
	return nil
}

func (m *mockActivityRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)
var _ repository.ActivityLogRepository = (*mockActivityRepo)(nil)

func newTestService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, sessionRepo, &mockActivityRepo{}, ServiceConfig{SessionMaxAge: 86400})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

// --- テスト ---

func TestLogin_UnknownEmail_ReturnsUserNotFound(t *testing.T) {
	ctx := context.Background()
	sessionCreated := false

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			sessionCreated = true
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	_, err := svc.Login(ctx, "nobody@example.com", "password")

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
	if sessionCreated {
		t.Error("no session should be created on failed login")
	}
}

func TestLogin_InactiveAccount_ReturnsAccountDisabled(t *testing.T) {
	ctx := context.Background()

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: hashPassword(t, "correct-password"),
				Role:         model.RoleLearner,
				Status:       model.UserStatusInactive,
			}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	// パスワードが正しくても、無効化の判定が先に行われる
	_, err := svc.Login(ctx, "user@example.com", "correct-password")

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeAccountDisabled {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeAccountDisabled)
	}
}

func TestLogin_WrongPassword_ReturnsInvalidCredential(t *testing.T) {
	ctx := context.Background()

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: hashPassword(t, "correct-password"),
				Role:         model.RoleLearner,
				Status:       model.UserStatusActive,
			}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, err := svc.Login(ctx, "user@example.com", "wrong-password")

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCredential {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredential)
	}
}

func TestLogin_Success_IssuesSessionWithRoleAndDisplayName(t *testing.T) {
	ctx := context.Background()
	var createdSession *model.Session

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				FirstName:    "Ana",
				LastName:     "García",
				Email:        email,
				PasswordHash: hashPassword(t, "correct-password"),
				Role:         model.RoleInstructor,
				Status:       model.UserStatusActive,
			}, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	result, err := svc.Login(ctx, "ana@example.com", "correct-password")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if createdSession == nil {
		t.Fatal("expected session to be persisted")
	}
	if createdSession.UserID != "user-1" {
		t.Errorf("session.UserID = %q, want %q", createdSession.UserID, "user-1")
	}
	if createdSession.Role != model.RoleInstructor {
		t.Errorf("session.Role = %q, want %q", createdSession.Role, model.RoleInstructor)
	}
	if createdSession.DisplayName != "Ana García" {
		t.Errorf("session.DisplayName = %q, want %q", createdSession.DisplayName, "Ana García")
	}
	if len(createdSession.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(createdSession.ID))
	}
	if !createdSession.ExpiresAt.After(time.Now()) {
		t.Error("session should not be expired at issue time")
	}
	if result.Destination != "/dashboard/instructor" {
		t.Errorf("Destination = %q, want %q", result.Destination, "/dashboard/instructor")
	}
}

func TestRegister_ShortPassword_ReturnsPasswordTooShort(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName:       "Luis",
		LastName:        "Pérez",
		Email:           "luis@example.com",
		Password:        "abc",
		PasswordConfirm: "abc",
	})

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodePasswordTooShort {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodePasswordTooShort)
	}
}

func TestRegister_PasswordMismatch_ReturnsInvalidRequest(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName:       "Luis",
		LastName:        "Pérez",
		Email:           "luis@example.com",
		Password:        "password1",
		PasswordConfirm: "password2",
	})

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
	}
}

func TestRegister_DuplicateEmail_ReturnsDuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName:       "Luis",
		LastName:        "Pérez",
		Email:           "luis@example.com",
		Password:        "password1",
		PasswordConfirm: "password1",
	})

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateEmail)
	}
}

func TestRegister_Success_CreatesLearnerAndSession(t *testing.T) {
	var createdUser *model.User
	var createdSession *model.Session

	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	result, err := svc.Register(context.Background(), RegisterInput{
		FirstName:       "Luis",
		LastName:        "Pérez",
		Email:           "luis@example.com",
		Password:        "password1",
		PasswordConfirm: "password1",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if createdUser == nil {
		t.Fatal("expected user to be created")
	}
	// 自己登録の役割は常にlearner
	if createdUser.Role != model.RoleLearner {
		t.Errorf("Role = %q, want %q", createdUser.Role, model.RoleLearner)
	}
	if createdUser.PasswordHash == "password1" {
		t.Error("password must not be stored as plain text")
	}
	if createdSession == nil {
		t.Fatal("expected session to be issued on registration")
	}
	if result.Destination != "/dashboard/learner" {
		t.Errorf("Destination = %q, want %q", result.Destination, "/dashboard/learner")
	}
}

func TestProvisionUser_LearnerRole_Rejected(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, err := svc.ProvisionUser(context.Background(), ProvisionInput{
		FirstName: "Marta",
		LastName:  "Ruiz",
		Email:     "marta@example.com",
		Password:  "password1",
		Role:      model.RoleLearner,
	})

	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
	}
}

func TestSetUserStatus_Deactivate_RevokesSessions(t *testing.T) {
	revokedUserID := ""

	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Status: model.UserStatusActive}, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			revokedUserID = userID
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	user, err := svc.SetUserStatus(context.Background(), "user-1", model.UserStatusInactive)
	if err != nil {
		t.Fatalf("SetUserStatus returned error: %v", err)
	}

	if user.Status != model.UserStatusInactive {
		t.Errorf("Status = %q, want %q", user.Status, model.UserStatusInactive)
	}
	if revokedUserID != "user-1" {
		t.Errorf("revoked sessions for %q, want %q", revokedUserID, "user-1")
	}
}

func TestLogout_EmptySessionID_ReturnsError(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty session ID")
	}
}
