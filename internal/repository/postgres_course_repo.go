package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresCourseRepo はPostgreSQLを使用したコースリポジトリ。
type PostgresCourseRepo struct {
	db *sql.DB
}

// NewPostgresCourseRepo はPostgresCourseRepoを生成する。
func NewPostgresCourseRepo(db *sql.DB) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: db}
}

// FindByID は指定IDのコースを取得する。見つからない場合はnilを返す。
func (r *PostgresCourseRepo) FindByID(ctx context.Context, id string) (*model.Course, error) {
	course := &model.Course{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, level, modality, status FROM courses WHERE id = $1`,
		id,
	).Scan(&course.ID, &course.Name, &course.Level, &course.Modality, &course.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find course by ID: %w", err)
	}

	return course, nil
}

// ListActive は公開中のコースを名前昇順で返す。
func (r *PostgresCourseRepo) ListActive(ctx context.Context) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, level, modality, status
		 FROM courses
		 WHERE status = 'active'
		 ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active courses: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// Create はコースを作成する。
func (r *PostgresCourseRepo) Create(ctx context.Context, course *model.Course) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (id, name, level, modality, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		course.ID, course.Name, course.Level, course.Modality, course.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}

// Count は全コース数を返す。
func (r *PostgresCourseRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// scanCourses は複数行のコースをスキャンする。
func scanCourses(rows *sql.Rows) ([]*model.Course, error) {
	var courses []*model.Course
	for rows.Next() {
		course := &model.Course{}
		err := rows.Scan(&course.ID, &course.Name, &course.Level, &course.Modality, &course.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return courses, nil
}

// compile-time interface check
var _ CourseRepository = (*PostgresCourseRepo)(nil)
