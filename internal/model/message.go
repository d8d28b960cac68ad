package model

import "time"

// Message は2者間チャットの1メッセージを表す。
// 作成後は既読フラグ以外イミュータブル。既読フラグは false→true の
// 一方向にのみ遷移し、削除経路は存在しない。
type Message struct {
	ID         int64
	SenderID   string
	ReceiverID string
	Body       string
	CreatedAt  time.Time
	IsRead     bool
}

// ConversationEntry は会話一覧の1エントリを表す読み取り専用の射影。
// 会話相手ごとに最新メッセージと未読数を持つ。
// 一度も会話していない相手の場合、LastMessageはnilになる。
type ConversationEntry struct {
	CounterpartID   string
	CounterpartName string
	CounterpartRole Role
	LastMessage     *Message
	UnreadCount     int
}
