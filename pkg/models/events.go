package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Operation is the kind of store mutation a change event describes.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ChangeEvent describes one mutation on a watched collection path. The store
// delivers it at least once; consumers must tolerate redelivery of the same
// event_id. Before/After are optional snapshots — either side may be absent
// (creation has no before, deletion has no after), and absent fields decode
// to zero values.
type ChangeEvent struct {
	EventID       string          `json:"event_id"`
	CorrelationID string          `json:"correlation_id"`
	Path          string          `json:"path"`
	Operation     Operation       `json:"operation"`
	Before        json.RawMessage `json:"before,omitempty"`
	After         json.RawMessage `json:"after,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// RoutingKey derives the AMQP routing key for the event, e.g.
// "store.posts.create" for a like under posts/{postId}/likes/{userId}.
func (e ChangeEvent) RoutingKey() string {
	root := e.Path
	if i := strings.IndexByte(root, '/'); i >= 0 {
		root = root[:i]
	}
	return fmt.Sprintf("store.%s.%s", root, e.Operation)
}

// UserSnapshot is the subset of a user document carried in change events on
// users/{userId}.
type UserSnapshot struct {
	FollowerCount int  `json:"follower_count"`
	Rewarded      bool `json:"rewarded"`
	Blocked       bool `json:"blocked"`
}

// DecodeUserSnapshot decodes one side of a user update event. A missing side
// yields the documented defaults: counter 0, flags false.
func DecodeUserSnapshot(raw json.RawMessage) (UserSnapshot, error) {
	var s UserSnapshot
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return UserSnapshot{}, fmt.Errorf("decode user snapshot: %w", err)
	}
	return s, nil
}

// MessageSnapshot is the subset of a chat message carried in change events.
type MessageSnapshot struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// DecodeMessageSnapshot decodes the after side of a message creation event.
func DecodeMessageSnapshot(raw json.RawMessage) (MessageSnapshot, error) {
	var s MessageSnapshot
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return MessageSnapshot{}, fmt.Errorf("decode message snapshot: %w", err)
	}
	return s, nil
}

// ReportSnapshot is the subset of a report document carried in change events.
type ReportSnapshot struct {
	ReportedUserID string `json:"reported_user_id"`
	ReporterID     string `json:"reporter_id"`
	Category       string `json:"category"`
	Description    string `json:"description"`
}

// DecodeReportSnapshot decodes the after side of a report creation event.
func DecodeReportSnapshot(raw json.RawMessage) (ReportSnapshot, error) {
	var s ReportSnapshot
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return ReportSnapshot{}, fmt.Errorf("decode report snapshot: %w", err)
	}
	return s, nil
}

// Concrete path builders for the watched collections.

func LikePath(postID, userID string) string {
	return fmt.Sprintf("posts/%s/likes/%s", postID, userID)
}

func FollowerPath(userID, followerID string) string {
	return fmt.Sprintf("users/%s/followers/%s", userID, followerID)
}

func FollowingPath(userID, followingID string) string {
	return fmt.Sprintf("users/%s/following/%s", userID, followingID)
}

func MessagePath(chatID, messageID string) string {
	return fmt.Sprintf("chats/%s/messages/%s", chatID, messageID)
}

func UserPath(userID string) string {
	return fmt.Sprintf("users/%s", userID)
}

func ReportPath(reportID string) string {
	return fmt.Sprintf("reports/%s", reportID)
}
