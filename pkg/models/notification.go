package models

import (
	"fmt"
	"time"
)

// NotificationType is the closed set of notification kinds. The router and
// fan-out handler switch over it exhaustively; adding a variant means
// extending those switches.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationFollow  NotificationType = "follow"
	NotificationMessage NotificationType = "message"
	NotificationComment NotificationType = "comment"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationFollow, NotificationMessage, NotificationComment:
		return true
	}
	return false
}

// Notification is a derived record fanned out from a source event. Created
// only by the engine, read only by the client, never mutated. SourceKey is
// derived from the source document so redelivery cannot duplicate a record.
type Notification struct {
	ID             string           `json:"id" db:"id"`
	Type           NotificationType `json:"type" db:"type"`
	UserID         string           `json:"user_id" db:"user_id"`
	SenderID       string           `json:"sender_id" db:"sender_id"`
	SenderUsername string           `json:"sender_username" db:"sender_username"`
	PostID         string           `json:"post_id,omitempty" db:"post_id"`
	ChatID         string           `json:"chat_id,omitempty" db:"chat_id"`
	MessageText    string           `json:"message_text,omitempty" db:"message_text"`
	SourceKey      string           `json:"-" db:"source_key"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// Source keys for the three fan-out triggers. A follow is keyed by the
// logical edge, not by either sub-document, so the followers-side and
// following-side events of one follow dedupe to a single record.

func LikeSourceKey(postID, userID string) string {
	return fmt.Sprintf("like:%s:%s", postID, userID)
}

func FollowSourceKey(senderID, targetID string) string {
	return fmt.Sprintf("follow:%s:%s", senderID, targetID)
}

func MessageSourceKey(messageID string) string {
	return fmt.Sprintf("message:%s", messageID)
}

// AdminInboxEntry is one row of the moderation inbox, the append-only
// replacement for the original single admin document. SourceKey makes the
// append idempotent under event redelivery.
type AdminInboxEntry struct {
	UserID      string    `json:"user_id" db:"user_id"`
	ReporterID  string    `json:"reporter_id,omitempty" db:"reporter_id"`
	Category    string    `json:"category,omitempty" db:"category"`
	Description string    `json:"description,omitempty" db:"description"`
	Message     string    `json:"message" db:"message"`
	SourceKey   string    `json:"-" db:"source_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
