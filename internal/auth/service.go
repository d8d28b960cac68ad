// Package auth はパスワード認証、セッション管理、役割による認可を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
)

// minPasswordLength はパスワードの最低文字数。
const minPasswordLength = 6

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	activityRepo repository.ActivityLogRepository
	config       ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	activityRepo repository.ActivityLogRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		activityRepo: activityRepo,
		config:       config,
	}
}

// LoginResult はログイン成功時の結果を表す。
// Destinationは役割ごとのダッシュボードのパス。
type LoginResult struct {
	Session     *model.Session
	User        *model.User
	Destination string
}

// Login はメールアドレスとパスワードで認証し、セッションを発行する。
// 判定は (1)ユーザー存在 (2)アカウント有効 (3)パスワード一致 の順で行い、
// 失敗時には一切の副作用を残さない。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	// 1. メールアドレスでユーザーを検索
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	// 2. 無効化されたアカウントを拒否
	if !user.IsActive() {
		return nil, model.NewAccountDisabledError()
	}

	// 3. パスワードを検証
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialError()
	}

	// 4. セッションを発行
	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recordActivity(ctx, user.ID, model.ActivityLogin, "")

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &LoginResult{
		Session:     session,
		User:        user,
		Destination: RoleDestination(user.Role),
	}, nil
}

// RegisterInput は新規登録の入力を表す。
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	PasswordConfirm string
}

// Register は受講者アカウントを新規作成し、そのままセッションを発行する。
// 自己登録で作成されるアカウントの役割は常にlearner。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.Email)

	if firstName == "" || lastName == "" || email == "" {
		return nil, model.NewInvalidRequestError("氏名とメールアドレスは必須です")
	}
	if len(input.Password) < minPasswordLength {
		return nil, model.NewPasswordTooShortError(minPasswordLength)
	}
	if input.Password != input.PasswordConfirm {
		return nil, model.NewInvalidRequestError("パスワードが一致しません")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleLearner,
		Status:       model.UserStatusActive,
		RegisteredAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recordActivity(ctx, user.ID, model.ActivityRegister, "")

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &LoginResult{
		Session:     session,
		User:        user,
		Destination: RoleDestination(user.Role),
	}, nil
}

// ProvisionInput は管理者によるアカウント発行の入力を表す。
type ProvisionInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      model.Role
}

// ProvisionUser は管理者向けのアカウント発行を行う。
// 講師・管理者アカウントはこの経路でのみ作成される。
func (s *Service) ProvisionUser(ctx context.Context, input ProvisionInput) (*model.User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.Email)

	if firstName == "" || lastName == "" || email == "" {
		return nil, model.NewInvalidRequestError("氏名とメールアドレスは必須です")
	}
	if input.Role != model.RoleInstructor && input.Role != model.RoleAdministrator {
		return nil, model.NewInvalidRequestError("発行できる役割は instructor または administrator です")
	}
	if len(input.Password) < minPasswordLength {
		return nil, model.NewPasswordTooShortError(minPasswordLength)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         input.Role,
		Status:       model.UserStatusActive,
		RegisteredAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user provisioned",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// SetUserStatus はアカウントの有効状態を切り替える。
// 無効化時には該当ユーザーの全セッションを破棄する。物理削除は行わない。
func (s *Service) SetUserStatus(ctx context.Context, userID string, status model.UserStatus) (*model.User, error) {
	if status != model.UserStatusActive && status != model.UserStatusInactive {
		return nil, model.NewInvalidRequestError("status は active または inactive を指定してください")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	user.Status = status

	if status == model.UserStatusInactive {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to revoke user sessions: %w", err)
		}
	}

	slog.Info("user status updated",
		slog.String("user_id", userID),
		slog.String("status", string(status)),
	)

	return user, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetSession はセッションIDから有効なセッションを取得する。
// 存在しない、または期限切れの場合はnilを返す。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, user *model.User) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:          sessionID,
		UserID:      user.ID,
		Role:        user.Role,
		DisplayName: user.DisplayName(),
		ExpiresAt:   time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt:   time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// recordActivity は監査ログを追記する。
// 監査ログの失敗は本体の操作を失敗させない。
func (s *Service) recordActivity(ctx context.Context, userID, action, detail string) {
	entry := &model.ActivityLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		slog.Error("failed to record activity log",
			slog.String("user_id", userID),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
