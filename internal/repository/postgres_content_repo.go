package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresContentRepo はPostgreSQLを使用した教材リポジトリ。
type PostgresContentRepo struct {
	db *sql.DB
}

// NewPostgresContentRepo はPostgresContentRepoを生成する。
func NewPostgresContentRepo(db *sql.DB) *PostgresContentRepo {
	return &PostgresContentRepo{db: db}
}

// Create は教材を作成する。
func (r *PostgresContentRepo) Create(ctx context.Context, content *model.CourseContent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO course_contents (id, course_id, title, kind, file_url, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		content.ID, content.CourseID, content.Title, content.Kind,
		content.FileURL, content.UploadedBy, content.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert content: %w", err)
	}
	return nil
}

// ListByCourse はコースの教材を作成日時昇順で返す。
func (r *PostgresContentRepo) ListByCourse(ctx context.Context, courseID string) ([]*model.CourseContent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, title, kind, file_url, uploaded_by, created_at
		 FROM course_contents
		 WHERE course_id = $1
		 ORDER BY created_at ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	defer rows.Close()

	var contents []*model.CourseContent
	for rows.Next() {
		content := &model.CourseContent{}
		err := rows.Scan(&content.ID, &content.CourseID, &content.Title, &content.Kind,
			&content.FileURL, &content.UploadedBy, &content.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contents: %w", err)
	}

	return contents, nil
}

// ListByUploader は講師が登録した教材をコース名付きで作成日時降順で返す。
func (r *PostgresContentRepo) ListByUploader(ctx context.Context, uploaderID string) ([]ContentWithCourse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cc.id, cc.course_id, cc.title, cc.kind, cc.file_url, cc.uploaded_by, cc.created_at,
		        c.name
		 FROM course_contents cc
		 JOIN courses c ON c.id = cc.course_id
		 WHERE cc.uploaded_by = $1
		 ORDER BY cc.created_at DESC`,
		uploaderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents by uploader: %w", err)
	}
	defer rows.Close()

	var contents []ContentWithCourse
	for rows.Next() {
		var c ContentWithCourse
		err := rows.Scan(&c.ID, &c.CourseID, &c.Title, &c.Kind,
			&c.FileURL, &c.UploadedBy, &c.CreatedAt, &c.CourseName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contents: %w", err)
	}

	return contents, nil
}

// ListCoursesByUploader は講師が教材を登録したコースを重複なしで返す。
// 同一コースに複数の教材があっても1件として扱う。
func (r *PostgresContentRepo) ListCoursesByUploader(ctx context.Context, uploaderID string) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT c.id, c.name, c.level, c.modality, c.status
		 FROM courses c
		 JOIN course_contents cc ON cc.course_id = c.id
		 WHERE cc.uploaded_by = $1
		 ORDER BY c.name ASC`,
		uploaderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses by uploader: %w", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// compile-time interface check
var _ ContentRepository = (*PostgresContentRepo)(nil)
