package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresReceiptRepo はPostgreSQLを使用したreceiptリポジトリ。
type PostgresReceiptRepo struct {
	db *sql.DB
}

// NewPostgresReceiptRepo はPostgresReceiptRepoを生成する。
func NewPostgresReceiptRepo(db *sql.DB) *PostgresReceiptRepo {
	return &PostgresReceiptRepo{db: db}
}

// FindByID は指定IDのreceiptを取得する。見つからない場合はnilを返す。
func (r *PostgresReceiptRepo) FindByID(ctx context.Context, id string) (*model.Receipt, error) {
	receipt := &model.Receipt{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, issued_at, due_at, amount_cents, status
		 FROM receipts WHERE id = $1`,
		id,
	).Scan(&receipt.ID, &receipt.UserID, &receipt.IssuedAt,
		&receipt.DueAt, &receipt.AmountCents, &receipt.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find receipt by ID: %w", err)
	}

	return receipt, nil
}

// Create はreceiptを作成する。
func (r *PostgresReceiptRepo) Create(ctx context.Context, receipt *model.Receipt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO receipts (id, user_id, issued_at, due_at, amount_cents, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		receipt.ID, receipt.UserID, receipt.IssuedAt,
		receipt.DueAt, receipt.AmountCents, receipt.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// ListByUser はユーザーのreceiptを発行日時降順で返す。
func (r *PostgresReceiptRepo) ListByUser(ctx context.Context, userID string) ([]*model.Receipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, issued_at, due_at, amount_cents, status
		 FROM receipts
		 WHERE user_id = $1
		 ORDER BY issued_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// ListPendingByUser はユーザーの未払い（pendingまたはoverdue）receiptを
// 支払期限昇順で返す。
func (r *PostgresReceiptRepo) ListPendingByUser(ctx context.Context, userID string) ([]*model.Receipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, issued_at, due_at, amount_cents, status
		 FROM receipts
		 WHERE user_id = $1 AND status IN ('pending', 'overdue')
		 ORDER BY due_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending receipts: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// UpdateStatus はreceiptの状態を更新する。
func (r *PostgresReceiptRepo) UpdateStatus(ctx context.Context, id string, status model.ReceiptStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update receipt status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("receipt not found: %s", id)
	}
	return nil
}

// MarkOverdueDueBefore は支払期限を過ぎたpendingのreceiptをoverdueに遷移させ、
// 遷移したreceiptを返す。単一のUPDATE文で完結するため冪等であり、
// 2回目以降の実行では空を返す。
func (r *PostgresReceiptRepo) MarkOverdueDueBefore(ctx context.Context, now time.Time) ([]*model.Receipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE receipts SET status = 'overdue'
		 WHERE status = 'pending' AND due_at < $1
		 RETURNING id, user_id, issued_at, due_at, amount_cents, status`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark receipts overdue: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// scanReceipts は複数行のreceiptをスキャンする。
func scanReceipts(rows *sql.Rows) ([]*model.Receipt, error) {
	var receipts []*model.Receipt
	for rows.Next() {
		receipt := &model.Receipt{}
		err := rows.Scan(&receipt.ID, &receipt.UserID, &receipt.IssuedAt,
			&receipt.DueAt, &receipt.AmountCents, &receipt.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return receipts, nil
}

// compile-time interface check
var _ ReceiptRepository = (*PostgresReceiptRepo)(nil)
