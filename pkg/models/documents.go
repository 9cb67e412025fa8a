package models

import "time"

// Post represents a feed post document.
type Post struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Caption   string    `json:"caption" db:"caption"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chat represents a conversation document. Members holds the participating
// user ids; direct chats have exactly two.
type Chat struct {
	ID        string    `json:"id" db:"id"`
	Members   []string  `json:"members" db:"members"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Recipient returns the member that is not the sender, or "" if the sender
// is not a member or the chat has no other member.
func (c Chat) Recipient(senderID string) string {
	for _, m := range c.Members {
		if m != senderID {
			return m
		}
	}
	return ""
}

// Message represents a chat message document.
type Message struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Report represents a moderation report document. Append-only: the engine
// never updates or deletes reports.
type Report struct {
	ID             string    `json:"id" db:"id"`
	ReportedUserID string    `json:"reported_user_id" db:"reported_user_id"`
	ReporterID     string    `json:"reporter_id" db:"reporter_id"`
	Category       string    `json:"category" db:"category"`
	Description    string    `json:"description" db:"description"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Snapshot returns the event-visible view of the report.
func (r Report) Snapshot() ReportSnapshot {
	return ReportSnapshot{
		ReportedUserID: r.ReportedUserID,
		ReporterID:     r.ReporterID,
		Category:       r.Category,
		Description:    r.Description,
	}
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	UserID   string `json:"user_id" binding:"required" example:"user-123"`
	Caption  string `json:"caption" binding:"omitempty" example:"sunset"`
	ImageURL string `json:"image_url" binding:"omitempty" example:"https://cdn.example.com/p.jpg"`
}

// LikeRequest is the request body for liking a post.
type LikeRequest struct {
	UserID string `json:"user_id" binding:"required" example:"user-456"`
}

// FollowRequest is the request body for following or unfollowing a user.
type FollowRequest struct {
	FollowerID string `json:"follower_id" binding:"required" example:"user-456"`
}

// CreateChatRequest is the request body for opening a chat.
type CreateChatRequest struct {
	Members []string `json:"members" binding:"required,min=2" example:"user-123,user-456"`
}

// SendMessageRequest is the request body for sending a chat message.
type SendMessageRequest struct {
	UserID string `json:"user_id" binding:"required" example:"user-123"`
	Text   string `json:"text" binding:"required" example:"hey!"`
}

// CreateReportRequest is the request body for filing a report.
type CreateReportRequest struct {
	ReportedUserID string `json:"reported_user_id" binding:"required" example:"user-789"`
	ReporterID     string `json:"reporter_id" binding:"required" example:"user-123"`
	Category       string `json:"category" binding:"required" example:"spam"`
	Description    string `json:"description" binding:"omitempty" example:"repeated spam comments"`
}
