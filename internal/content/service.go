package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
	"github.com/linguaacademy/academia/internal/security"
)

// Service は教材と授業回の登録に関するビジネスロジックを提供する。
type Service struct {
	courseRepo  repository.CourseRepository
	contentRepo repository.ContentRepository
	sessionRepo repository.ClassSessionRepository
	inspector   *LinkInspector
	sanitizer   security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	courseRepo repository.CourseRepository,
	contentRepo repository.ContentRepository,
	sessionRepo repository.ClassSessionRepository,
	inspector *LinkInspector,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		courseRepo:  courseRepo,
		contentRepo: contentRepo,
		sessionRepo: sessionRepo,
		inspector:   inspector,
		sanitizer:   sanitizer,
	}
}

// AddContentInput は教材登録の入力を表す。
type AddContentInput struct {
	CourseID   string
	Title      string
	Kind       model.ContentKind
	FileURL    string
	UploadedBy string
}

// AddContent は講師による教材登録を行う。
// URLはリンク検査を通過する必要がある。リンク教材でタイトルが空の場合は
// ページの<title>から自動補完を試みる（失敗しても登録は継続する）。
func (s *Service) AddContent(ctx context.Context, input AddContentInput) (*model.CourseContent, error) {
	course, err := s.courseRepo.FindByID(ctx, input.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find course: %w", err)
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(input.CourseID)
	}

	switch input.Kind {
	case model.ContentKindPDF, model.ContentKindVideo, model.ContentKindAudio, model.ContentKindLink:
	default:
		return nil, model.NewInvalidRequestError("kind は pdf / video / audio / link のいずれかを指定してください")
	}

	if err := s.inspector.Validate(input.FileURL); err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(input.Title))
	if title == "" && input.Kind == model.ContentKindLink {
		fetched, err := s.inspector.FetchTitle(ctx, input.FileURL)
		if err != nil {
			slog.Warn("failed to fetch link title",
				slog.String("url", input.FileURL),
				slog.String("error", err.Error()),
			)
		} else {
			title = strings.TrimSpace(s.sanitizer.Sanitize(fetched))
		}
	}
	if title == "" {
		return nil, model.NewInvalidRequestError("タイトルは必須です")
	}

	content := &model.CourseContent{
		ID:         uuid.New().String(),
		CourseID:   input.CourseID,
		Title:      title,
		Kind:       input.Kind,
		FileURL:    input.FileURL,
		UploadedBy: input.UploadedBy,
		CreatedAt:  time.Now(),
	}
	if err := s.contentRepo.Create(ctx, content); err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}

	slog.Info("content added",
		slog.String("content_id", content.ID),
		slog.String("course_id", content.CourseID),
		slog.String("kind", string(content.Kind)),
	)

	return content, nil
}

// AddClassSessionInput は授業回登録の入力を表す。
type AddClassSessionInput struct {
	CourseID    string
	StartsAt    time.Time
	MeetingURL  string
	Kind        model.ClassSessionKind
	MaterialURL string
}

// AddClassSession は講師による授業回の登録を行う。
// ミーティングURLは必須、資料URLは任意だが、指定された場合は
// どちらもリンク検査を通過する必要がある。
func (s *Service) AddClassSession(ctx context.Context, input AddClassSessionInput) (*model.ClassSession, error) {
	course, err := s.courseRepo.FindByID(ctx, input.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find course: %w", err)
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(input.CourseID)
	}

	if input.Kind != model.ClassSessionKindSync && input.Kind != model.ClassSessionKindAsync {
		return nil, model.NewInvalidRequestError("kind は synchronous または asynchronous を指定してください")
	}
	if input.StartsAt.IsZero() {
		return nil, model.NewInvalidRequestError("開始日時は必須です")
	}

	if err := s.inspector.Validate(input.MeetingURL); err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	if input.MaterialURL != "" {
		if err := s.inspector.Validate(input.MaterialURL); err != nil {
			return nil, model.NewInvalidURLError(err.Error())
		}
	}

	session := &model.ClassSession{
		ID:          uuid.New().String(),
		CourseID:    input.CourseID,
		StartsAt:    input.StartsAt,
		MeetingURL:  input.MeetingURL,
		Kind:        input.Kind,
		MaterialURL: input.MaterialURL,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create class session: %w", err)
	}

	slog.Info("class session added",
		slog.String("class_session_id", session.ID),
		slog.String("course_id", session.CourseID),
	)

	return session, nil
}
