package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresAssessmentRepo はPostgreSQLを使用した評価リポジトリ。
type PostgresAssessmentRepo struct {
	db *sql.DB
}

// NewPostgresAssessmentRepo はPostgresAssessmentRepoを生成する。
func NewPostgresAssessmentRepo(db *sql.DB) *PostgresAssessmentRepo {
	return &PostgresAssessmentRepo{db: db}
}

// FindByID は指定IDの評価を取得する。見つからない場合はnilを返す。
func (r *PostgresAssessmentRepo) FindByID(ctx context.Context, id string) (*model.Assessment, error) {
	assessment := &model.Assessment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, course_id, name, description, date FROM assessments WHERE id = $1`,
		id,
	).Scan(&assessment.ID, &assessment.CourseID, &assessment.Name,
		&assessment.Description, &assessment.Date)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assessment by ID: %w", err)
	}

	return assessment, nil
}

// Create は評価を作成する。
func (r *PostgresAssessmentRepo) Create(ctx context.Context, assessment *model.Assessment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assessments (id, course_id, name, description, date)
		 VALUES ($1, $2, $3, $4, $5)`,
		assessment.ID, assessment.CourseID, assessment.Name,
		assessment.Description, assessment.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// ListByCourse はコースの評価を実施日昇順で返す。
func (r *PostgresAssessmentRepo) ListByCourse(ctx context.Context, courseID string) ([]*model.Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, name, description, date
		 FROM assessments
		 WHERE course_id = $1
		 ORDER BY date ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*model.Assessment
	for rows.Next() {
		assessment := &model.Assessment{}
		err := rows.Scan(&assessment.ID, &assessment.CourseID, &assessment.Name,
			&assessment.Description, &assessment.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, assessment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	return assessments, nil
}

// CreateResult は評価結果を作成する。
func (r *PostgresAssessmentRepo) CreateResult(ctx context.Context, result *model.AssessmentResult) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assessment_results (id, user_id, assessment_id, score, feedback, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.UserID, result.AssessmentID,
		result.Score, result.Feedback, result.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment result: %w", err)
	}
	return nil
}

// ListResultsByUser はユーザーの評価結果を評価情報付きで記録日時降順で返す。
func (r *PostgresAssessmentRepo) ListResultsByUser(ctx context.Context, userID string) ([]ResultWithAssessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ar.id, ar.user_id, ar.assessment_id, ar.score, ar.feedback, ar.recorded_at,
		        a.name, a.date, c.name
		 FROM assessment_results ar
		 JOIN assessments a ON a.id = ar.assessment_id
		 JOIN courses c ON c.id = a.course_id
		 WHERE ar.user_id = $1
		 ORDER BY ar.recorded_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessment results: %w", err)
	}
	defer rows.Close()

	var results []ResultWithAssessment
	for rows.Next() {
		var res ResultWithAssessment
		err := rows.Scan(&res.ID, &res.UserID, &res.AssessmentID, &res.Score,
			&res.Feedback, &res.RecordedAt,
			&res.AssessmentName, &res.AssessmentDate, &res.CourseName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessment results: %w", err)
	}

	return results, nil
}

// compile-time interface check
var _ AssessmentRepository = (*PostgresAssessmentRepo)(nil)
