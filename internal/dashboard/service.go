// Package dashboard は役割ごとのダッシュボード集計を提供する。
// すべて読み取り専用の射影であり、状態を変更しない。
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/linguaacademy/academia/internal/model"
	"github.com/linguaacademy/academia/internal/repository"
)

// upcomingClassLimit は受講者ダッシュボードに表示する今後の授業数の上限。
const upcomingClassLimit = 5

// LearnerDashboard は受講者向けダッシュボードの射影。
type LearnerDashboard struct {
	Enrollments     []repository.EnrollmentWithCourse   `json:"enrollments"`
	UpcomingClasses []repository.ClassSessionWithCourse `json:"upcomingClasses"`
	RecentResults   []repository.ResultWithAssessment   `json:"recentResults"`
	PendingReceipts []*model.Receipt                    `json:"pendingReceipts"`
}

// InstructorDashboard は講師向けダッシュボードの射影。
// Coursesは講師が教材を登録したコースから導出され、コースIDで重複排除される。
type InstructorDashboard struct {
	Courses  []*model.Course                 `json:"courses"`
	Contents []repository.ContentWithCourse `json:"contents"`
}

// AdminDashboard は管理者向けダッシュボードの射影。
type AdminDashboard struct {
	UserCount             int `json:"userCount"`
	CourseCount           int `json:"courseCount"`
	ActiveEnrollmentCount int `json:"activeEnrollmentCount"`
}

// Service はダッシュボード集計を提供する。
type Service struct {
	enrollmentRepo repository.EnrollmentRepository
	sessionRepo    repository.ClassSessionRepository
	assessmentRepo repository.AssessmentRepository
	receiptRepo    repository.ReceiptRepository
	contentRepo    repository.ContentRepository
	userRepo       repository.UserRepository
	courseRepo     repository.CourseRepository
}

// NewService はServiceを生成する。
func NewService(
	enrollmentRepo repository.EnrollmentRepository,
	sessionRepo repository.ClassSessionRepository,
	assessmentRepo repository.AssessmentRepository,
	receiptRepo repository.ReceiptRepository,
	contentRepo repository.ContentRepository,
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
) *Service {
	return &Service{
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
		assessmentRepo: assessmentRepo,
		receiptRepo:    receiptRepo,
		contentRepo:    contentRepo,
		userRepo:       userRepo,
		courseRepo:     courseRepo,
	}
}

// ForLearner は受講者ダッシュボードを集計する。
func (s *Service) ForLearner(ctx context.Context, userID string) (*LearnerDashboard, error) {
	enrollments, err := s.enrollmentRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}

	upcoming, err := s.sessionRepo.ListUpcomingForUser(ctx, userID, time.Now(), upcomingClassLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming classes: %w", err)
	}

	results, err := s.assessmentRepo.ListResultsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	pending, err := s.receiptRepo.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending receipts: %w", err)
	}

	return &LearnerDashboard{
		Enrollments:     enrollments,
		UpcomingClasses: upcoming,
		RecentResults:   results,
		PendingReceipts: pending,
	}, nil
}

// ForInstructor は講師ダッシュボードを集計する。
// 担当コースは講師が登録した教材のコースをIDで重複排除して導出する。
func (s *Service) ForInstructor(ctx context.Context, userID string) (*InstructorDashboard, error) {
	courses, err := s.contentRepo.ListCoursesByUploader(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructor courses: %w", err)
	}

	contents, err := s.contentRepo.ListByUploader(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructor contents: %w", err)
	}

	return &InstructorDashboard{
		Courses:  courses,
		Contents: contents,
	}, nil
}

// ForAdmin は管理者ダッシュボードを集計する。
func (s *Service) ForAdmin(ctx context.Context) (*AdminDashboard, error) {
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	courseCount, err := s.courseRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	enrollmentCount, err := s.enrollmentRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active enrollments: %w", err)
	}

	return &AdminDashboard{
		UserCount:             userCount,
		CourseCount:           courseCount,
		ActiveEnrollmentCount: enrollmentCount,
	}, nil
}
