// Package assessment は評価（試験・課題）と評価結果のドメインロジックを提供する。
package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
)

// Service は評価に関するビジネスロジックを提供する。
type Service struct {
	assessmentRepo repository.AssessmentRepository
	courseRepo     repository.CourseRepository
	userRepo       repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(
	assessmentRepo repository.AssessmentRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{
		assessmentRepo: assessmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
	}
}

// CreateAssessment はコース配下に評価を作成する。
func (s *Service) CreateAssessment(ctx context.Context, courseID, name, description string, date time.Time) (*model.Assessment, error) {
	if name == "" {
		return nil, model.NewInvalidRequestError("評価名は必須です")
	}
	if date.IsZero() {
		return nil, model.NewInvalidRequestError("実施日は必須です")
	}

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find course: %w", err)
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(courseID)
	}

	assessment := &model.Assessment{
		ID:          uuid.New().String(),
		CourseID:    courseID,
		Name:        name,
		Description: description,
		Date:        date,
	}
	if err := s.assessmentRepo.Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	slog.Info("assessment created",
		slog.String("assessment_id", assessment.ID),
		slog.String("course_id", courseID),
	)

	return assessment, nil
}

// RecordResult は講師による評価結果の記録を行う。
// スコアは0〜100の範囲で、対象の受講者と評価が存在することを検証する。
func (s *Service) RecordResult(ctx context.Context, assessmentID, userID string, score float64, feedback string) (*model.AssessmentResult, error) {
	if score < 0 || score > 100 {
		return nil, model.NewInvalidRequestError("スコアは0〜100の範囲で指定してください")
	}

	assessment, err := s.assessmentRepo.FindByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find assessment: %w", err)
	}
	if assessment == nil {
		return nil, model.NewAssessmentNotFoundError(assessmentID)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	result := &model.AssessmentResult{
		ID:           uuid.New().String(),
		UserID:       userID,
		AssessmentID: assessmentID,
		Score:        score,
		Feedback:     feedback,
		RecordedAt:   time.Now(),
	}
	if err := s.assessmentRepo.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	slog.Info("assessment result recorded",
		slog.String("assessment_id", assessmentID),
		slog.String("user_id", userID),
	)

	return result, nil
}

// ListMyResults はユーザー自身の評価結果を記録日時降順で返す。
func (s *Service) ListMyResults(ctx context.Context, userID string) ([]repository.ResultWithAssessment, error) {
	results, err := s.assessmentRepo.ListResultsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}
