package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresEnrollmentRepo はPostgreSQLを使用した受講登録リポジトリ。
type PostgresEnrollmentRepo struct {
	db *sql.DB
}

// NewPostgresEnrollmentRepo はPostgresEnrollmentRepoを生成する。
func NewPostgresEnrollmentRepo(db *sql.DB) *PostgresEnrollmentRepo {
	return &PostgresEnrollmentRepo{db: db}
}

// FindActiveByUserAndCourse はユーザーとコースのactiveな受講登録を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresEnrollmentRepo) FindActiveByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	enrollment := &model.Enrollment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, course_id, enrolled_at, status
		 FROM enrollments
		 WHERE user_id = $1 AND course_id = $2 AND status = 'active'`,
		userID, courseID,
	).Scan(&enrollment.ID, &enrollment.UserID, &enrollment.CourseID,
		&enrollment.EnrolledAt, &enrollment.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find enrollment: %w", err)
	}

	return enrollment, nil
}

// Create は受講登録を作成する。
func (r *PostgresEnrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO enrollments (id, user_id, course_id, enrolled_at, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		enrollment.ID, enrollment.UserID, enrollment.CourseID,
		enrollment.EnrolledAt, enrollment.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}

// ListActiveByUser はユーザーのactiveな受講登録をコース情報付きで返す。
func (r *PostgresEnrollmentRepo) ListActiveByUser(ctx context.Context, userID string) ([]EnrollmentWithCourse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, e.course_id, e.enrolled_at, e.status,
		        c.name, c.level, c.modality
		 FROM enrollments e
		 JOIN courses c ON c.id = e.course_id
		 WHERE e.user_id = $1 AND e.status = 'active'
		 ORDER BY e.enrolled_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []EnrollmentWithCourse
	for rows.Next() {
		var e EnrollmentWithCourse
		err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt, &e.Status,
			&e.CourseName, &e.CourseLevel, &e.CourseModality)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enrollments: %w", err)
	}

	return enrollments, nil
}

// CountActive はactiveな受講登録の総数を返す。
func (r *PostgresEnrollmentRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE status = 'active'`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active enrollments: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ EnrollmentRepository = (*PostgresEnrollmentRepo)(nil)
