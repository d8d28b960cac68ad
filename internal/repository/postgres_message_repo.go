package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linguaacademy/academia/internal/model"
)

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
// メッセージIDはBIGSERIALで採番され、挿入順に単調増加する。
// ポーリングカーソル（id > afterID）はこの性質に依存する。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// Create はメッセージを追記する。IDと作成日時はDB側で採番・刻印される。
func (r *PostgresMessageRepo) Create(ctx context.Context, senderID, receiverID, body string) (*model.Message, error) {
	message := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, is_read`,
		senderID, receiverID, body,
	).Scan(&message.ID, &message.CreatedAt, &message.IsRead)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return message, nil
}

// ListBetween は2者間の全メッセージ（双方向）をcreated_at昇順・ID昇順で返す。
func (r *PostgresMessageRepo) ListBetween(ctx context.Context, userID, peerID string) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, body, created_at, is_read
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2)
		    OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC, id ASC`,
		userID, peerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListBetweenSince は2者間のメッセージ（双方向）のうち
// IDがafterIDより大きいものをID昇順で返す。
func (r *PostgresMessageRepo) ListBetweenSince(ctx context.Context, userID, peerID string, afterID int64) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, body, created_at, is_read
		 FROM messages
		 WHERE ((sender_id = $1 AND receiver_id = $2)
		     OR (sender_id = $2 AND receiver_id = $1))
		   AND id > $3
		 ORDER BY id ASC`,
		userID, peerID, afterID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages since cursor: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkRead はsenderからreceiverへの未読メッセージを一括で既読にする。
// 単一のUPDATE文で完結するため、並行実行しても二重遷移は起きない。
func (r *PostgresMessageRepo) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = true
		 WHERE sender_id = $1 AND receiver_id = $2 AND is_read = false`,
		senderID, receiverID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// ListConversations はviewerの会話一覧を返す。
// 対象はviewer以外の有効な非管理者ユーザー全員。最新メッセージの新しい順に
// 並び、一度も会話していない相手は末尾に名前順で並ぶ。
func (r *PostgresMessageRepo) ListConversations(ctx context.Context, viewerID string) ([]model.ConversationEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.first_name, u.last_name, u.role,
		        lm.id, lm.sender_id, lm.receiver_id, lm.body, lm.created_at, lm.is_read,
		        COALESCE(un.cnt, 0)
		 FROM users u
		 LEFT JOIN LATERAL (
		     SELECT m.id, m.sender_id, m.receiver_id, m.body, m.created_at, m.is_read
		     FROM messages m
		     WHERE (m.sender_id = $1 AND m.receiver_id = u.id)
		        OR (m.sender_id = u.id AND m.receiver_id = $1)
		     ORDER BY m.id DESC
		     LIMIT 1
		 ) lm ON true
		 LEFT JOIN LATERAL (
		     SELECT COUNT(*) AS cnt
		     FROM messages m
		     WHERE m.sender_id = u.id AND m.receiver_id = $1 AND m.is_read = false
		 ) un ON true
		 WHERE u.id <> $1
		   AND u.status = 'active'
		   AND u.role <> 'administrator'
		 ORDER BY lm.created_at DESC NULLS LAST, u.first_name ASC, u.last_name ASC`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var entries []model.ConversationEntry
	for rows.Next() {
		var (
			entry     model.ConversationEntry
			firstName string
			lastName  string
			msgID     sql.NullInt64
			sender    sql.NullString
			receiver  sql.NullString
			body      sql.NullString
			createdAt sql.NullTime
			isRead    sql.NullBool
		)
		err := rows.Scan(&entry.CounterpartID, &firstName, &lastName, &entry.CounterpartRole,
			&msgID, &sender, &receiver, &body, &createdAt, &isRead,
			&entry.UnreadCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		entry.CounterpartName = firstName + " " + lastName
		if msgID.Valid {
			entry.LastMessage = &model.Message{
				ID:         msgID.Int64,
				SenderID:   sender.String,
				ReceiverID: receiver.String,
				Body:       body.String,
				CreatedAt:  createdAt.Time,
				IsRead:     isRead.Bool,
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return entries, nil
}

// scanMessages は複数行のメッセージをスキャンする。
func scanMessages(rows *sql.Rows) ([]*model.Message, error) {
	var messages []*model.Message
	for rows.Next() {
		message := &model.Message{}
		err := rows.Scan(&message.ID, &message.SenderID, &message.ReceiverID,
			&message.Body, &message.CreatedAt, &message.IsRead)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
