package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresTicketRepo はPostgreSQLを使用したサポートチケットリポジトリ。
type PostgresTicketRepo struct {
	db *sql.DB
}

// NewPostgresTicketRepo はPostgresTicketRepoを生成する。
func NewPostgresTicketRepo(db *sql.DB) *PostgresTicketRepo {
	return &PostgresTicketRepo{db: db}
}

// FindByID は指定IDのチケットを取得する。見つからない場合はnilを返す。
func (r *PostgresTicketRepo) FindByID(ctx context.Context, id string) (*model.SupportTicket, error) {
	ticket := &model.SupportTicket{}
	var userID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, contact_name, contact_email, created_at, status, subject, description
		 FROM support_tickets WHERE id = $1`,
		id,
	).Scan(&ticket.ID, &userID, &ticket.ContactName, &ticket.ContactEmail,
		&ticket.CreatedAt, &ticket.Status, &ticket.Subject, &ticket.Description)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket by ID: %w", err)
	}

	ticket.UserID = userID.String
	return ticket, nil
}

// Create はチケットを作成する。未認証の問い合わせ（UserIDが空）では
// user_idをNULLとして保存する。
func (r *PostgresTicketRepo) Create(ctx context.Context, ticket *model.SupportTicket) error {
	var userID sql.NullString
	if ticket.UserID != "" {
		userID = sql.NullString{String: ticket.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO support_tickets (id, user_id, contact_name, contact_email, created_at, status, subject, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ticket.ID, userID, ticket.ContactName, ticket.ContactEmail,
		ticket.CreatedAt, ticket.Status, ticket.Subject, ticket.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// ListByUser はユーザーのチケットを作成日時降順で返す。
func (r *PostgresTicketRepo) ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, contact_name, contact_email, created_at, status, subject, description
		 FROM support_tickets
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*model.SupportTicket
	for rows.Next() {
		ticket := &model.SupportTicket{}
		var owner sql.NullString
		err := rows.Scan(&ticket.ID, &owner, &ticket.ContactName, &ticket.ContactEmail,
			&ticket.CreatedAt, &ticket.Status, &ticket.Subject, &ticket.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		ticket.UserID = owner.String
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// compile-time interface check
var _ TicketRepository = (*PostgresTicketRepo)(nil)
