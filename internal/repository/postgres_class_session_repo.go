package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresClassSessionRepo はPostgreSQLを使用した授業回リポジトリ。
type PostgresClassSessionRepo struct {
	db *sql.DB
}

// NewPostgresClassSessionRepo はPostgresClassSessionRepoを生成する。
func NewPostgresClassSessionRepo(db *sql.DB) *PostgresClassSessionRepo {
	return &PostgresClassSessionRepo{db: db}
}

// Create は授業回を作成する。
func (r *PostgresClassSessionRepo) Create(ctx context.Context, session *model.ClassSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO class_sessions (id, course_id, starts_at, meeting_url, kind, material_url)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.CourseID, session.StartsAt,
		session.MeetingURL, session.Kind, session.MaterialURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert class session: %w", err)
	}
	return nil
}

// ListByCourse はコースの授業回を開始日時昇順で返す。
func (r *PostgresClassSessionRepo) ListByCourse(ctx context.Context, courseID string) ([]*model.ClassSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, starts_at, meeting_url, kind, material_url
		 FROM class_sessions
		 WHERE course_id = $1
		 ORDER BY starts_at ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list class sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.ClassSession
	for rows.Next() {
		session := &model.ClassSession{}
		err := rows.Scan(&session.ID, &session.CourseID, &session.StartsAt,
			&session.MeetingURL, &session.Kind, &session.MaterialURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate class sessions: %w", err)
	}

	return sessions, nil
}

// ListUpcomingForUser はユーザーがactive受講中のコースの今後の授業回を
// コース名付きで開始日時昇順で返す。
func (r *PostgresClassSessionRepo) ListUpcomingForUser(ctx context.Context, userID string, after time.Time, limit int) ([]ClassSessionWithCourse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cs.id, cs.course_id, cs.starts_at, cs.meeting_url, cs.kind, cs.material_url,
		        c.name
		 FROM class_sessions cs
		 JOIN courses c ON c.id = cs.course_id
		 JOIN enrollments e ON e.course_id = cs.course_id
		 WHERE e.user_id = $1 AND e.status = 'active' AND cs.starts_at > $2
		 ORDER BY cs.starts_at ASC
		 LIMIT $3`,
		userID, after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming class sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ClassSessionWithCourse
	for rows.Next() {
		var s ClassSessionWithCourse
		err := rows.Scan(&s.ID, &s.CourseID, &s.StartsAt,
			&s.MeetingURL, &s.Kind, &s.MaterialURL, &s.CourseName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upcoming class session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upcoming class sessions: %w", err)
	}

	return sessions, nil
}

// compile-time interface check
var _ ClassSessionRepository = (*PostgresClassSessionRepo)(nil)
