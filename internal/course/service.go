// Package course はコースカタログと受講登録のドメインロジックを提供する。
package course

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
)

// LanguageGroup はカタログの言語別グループを表す。
type LanguageGroup struct {
	Language string          `json:"language"`
	Courses  []*model.Course `json:"courses"`
}

// CourseDetail はコース詳細の射影。
// Enrolledはセッションを伴うリクエストでのみ意味を持つ。
type CourseDetail struct {
	Course        *model.Course          `json:"course"`
	ClassSessions []*model.ClassSession  `json:"classSessions"`
	Contents      []*model.CourseContent `json:"contents"`
	Assessments   []*model.Assessment    `json:"assessments"`
	Enrolled      bool                   `json:"enrolled"`
}

// Service はコースに関するビジネスロジックを提供する。
type Service struct {
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	sessionRepo    repository.ClassSessionRepository
	contentRepo    repository.ContentRepository
	assessmentRepo repository.AssessmentRepository
	activityRepo   repository.ActivityLogRepository
}

// NewService はServiceを生成する。
func NewService(
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	sessionRepo repository.ClassSessionRepository,
	contentRepo repository.ContentRepository,
	assessmentRepo repository.AssessmentRepository,
	activityRepo repository.ActivityLogRepository,
) *Service {
	return &Service{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
		contentRepo:    contentRepo,
		assessmentRepo: assessmentRepo,
		activityRepo:   activityRepo,
	}
}

// Catalog は公開中のコースを言語別にグルーピングして返す。
// 言語はコース名の「言語 - レベル」形式の前半から導出し、
// グループは言語名昇順、グループ内はコース名昇順で明示的に並べ替える。
func (s *Service) Catalog(ctx context.Context) ([]LanguageGroup, error) {
	courses, err := s.courseRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	grouped := make(map[string][]*model.Course)
	for _, c := range courses {
		lang := c.Language()
		grouped[lang] = append(grouped[lang], c)
	}

	groups := make([]LanguageGroup, 0, len(grouped))
	for lang, cs := range grouped {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
		groups = append(groups, LanguageGroup{Language: lang, Courses: cs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Language < groups[j].Language })

	return groups, nil
}

// Detail はコース詳細（授業回・教材・評価）を返す。
// viewerUserIDが空でない場合、そのユーザーの受講状態をEnrolledに反映する。
func (s *Service) Detail(ctx context.Context, courseID, viewerUserID string) (*CourseDetail, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find course: %w", err)
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(courseID)
	}

	sessions, err := s.sessionRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list class sessions: %w", err)
	}
	contents, err := s.contentRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	assessments, err := s.assessmentRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	detail := &CourseDetail{
		Course:        course,
		ClassSessions: sessions,
		Contents:      contents,
		Assessments:   assessments,
	}

	if viewerUserID != "" {
		enrollment, err := s.enrollmentRepo.FindActiveByUserAndCourse(ctx, viewerUserID, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		detail.Enrolled = enrollment != nil
	}

	return detail, nil
}

// Enroll はユーザーをコースに受講登録する。
// コースが存在し公開中であること、同一コースへのactiveな登録が
// 存在しないことを検証する。
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find course: %w", err)
	}
	if course == nil || course.Status != model.CourseStatusActive {
		return nil, model.NewCourseNotFoundError(courseID)
	}

	existing, err := s.enrollmentRepo.FindActiveByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEnrollmentError(course.Name)
	}

	enrollment := &model.Enrollment{
		ID:         uuid.New().String(),
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
		Status:     model.EnrollmentStatusActive,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.recordActivity(ctx, userID, model.ActivityEnroll, course.Name)

	slog.Info("user enrolled",
		slog.String("user_id", userID),
		slog.String("course_id", courseID),
	)

	return enrollment, nil
}

// CreateCourse は管理者向けのコース作成を行う。
func (s *Service) CreateCourse(ctx context.Context, name string, level model.CourseLevel, modality model.CourseModality) (*model.Course, error) {
	if name == "" {
		return nil, model.NewInvalidRequestError("コース名は必須です")
	}
	switch level {
	case model.CourseLevelA1, model.CourseLevelA2, model.CourseLevelB1,
		model.CourseLevelB2, model.CourseLevelC1:
	default:
		return nil, model.NewInvalidRequestError("level は A1〜C1 を指定してください")
	}
	if modality != model.CourseModalitySync && modality != model.CourseModalityAsync {
		return nil, model.NewInvalidRequestError("modality は synchronous または asynchronous を指定してください")
	}

	course := &model.Course{
		ID:       uuid.New().String(),
		Name:     name,
		Level:    level,
		Modality: modality,
		Status:   model.CourseStatusActive,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	slog.Info("course created",
		slog.String("course_id", course.ID),
		slog.String("name", course.Name),
	)

	return course, nil
}

// recordActivity は監査ログを追記する。失敗しても本体の操作は成功のままにする。
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
