package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/karansks78/RiseUp-App/pkg/models"

	"github.com/lib/pq"
)

// ErrNotFound is returned by point reads when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is the Postgres document store backing the engine. One table per
// collection; sub-collections are composite-key tables.
type Store struct {
	DB *sql.DB
}

// New creates a Store on top of an open database handle.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// GetUser point-reads a user profile.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, email, follower_count, rewarded, blocked, created_at, updated_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FollowerCount, &u.Rewarded, &u.Blocked, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// GetPost point-reads a post.
func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, caption, image_url, created_at FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Caption, &p.ImageURL, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return &p, nil
}

// GetChat point-reads a chat.
func (s *Store) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	var c models.Chat
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, members, created_at FROM chats WHERE id = $1`, id).
		Scan(&c.ID, pq.Array(&c.Members), &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat %s: %w", id, err)
	}
	return &c, nil
}

// CreateNotification inserts a notification keyed by its source. Returns
// false when a record for the same source already exists (redelivery).
func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO notifications (id, type, user_id, sender_id, sender_username, post_id, chat_id, message_text, source_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (source_key) DO NOTHING`,
		n.ID, string(n.Type), n.UserID, n.SenderID, n.SenderUsername, n.PostID, n.ChatID, n.MessageText, n.SourceKey,
	)
	if err != nil {
		return false, fmt.Errorf("create notification: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// IncrementFollowerCount applies delta to the user's follower counter as a
// single transactional read-modify-write. The event id is recorded in
// idempotency_keys inside the same transaction, so a redelivered event
// cannot apply twice: applied is false for duplicates. The result is floored
// at zero. A missing user row aborts the transaction with ErrNotFound.
func (s *Store) IncrementFollowerCount(ctx context.Context, eventID, userID string, delta int) (before, after models.UserSnapshot, applied bool, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return before, after, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO idempotency_keys (event_id) VALUES ($1) ON CONFLICT DO NOTHING`, eventID)
	if err != nil {
		return before, after, false, fmt.Errorf("record event %s: %w", eventID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return before, after, false, err
	}
	if rows == 0 {
		return before, after, false, nil
	}

	err = tx.QueryRowContext(ctx,
		`SELECT follower_count, rewarded, blocked FROM users WHERE id = $1 FOR UPDATE`, userID).
		Scan(&before.FollowerCount, &before.Rewarded, &before.Blocked)
	if err == sql.ErrNoRows {
		return before, after, false, ErrNotFound
	}
	if err != nil {
		return before, after, false, fmt.Errorf("read follower_count for %s: %w", userID, err)
	}

	after = before
	after.FollowerCount = before.FollowerCount + delta
	if after.FollowerCount < 0 {
		after.FollowerCount = 0
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET follower_count = $1, updated_at = NOW() WHERE id = $2`, after.FollowerCount, userID)
	if err != nil {
		return before, after, false, fmt.Errorf("write follower_count for %s: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return before, after, false, fmt.Errorf("commit: %w", err)
	}
	return before, after, true, nil
}

// MarkRewarded flips the monotonic rewarded flag. Returns true only when the
// flag actually changed.
func (s *Store) MarkRewarded(ctx context.Context, userID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET rewarded = TRUE, updated_at = NOW() WHERE id = $1 AND rewarded = FALSE`, userID)
	if err != nil {
		return false, fmt.Errorf("mark rewarded %s: %w", userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// BlockUser flips the blocked flag. Returns true only when the flag actually
// changed, so callers can append the auto-block inbox entry exactly once.
func (s *Store) BlockUser(ctx context.Context, userID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET blocked = TRUE, updated_at = NOW() WHERE id = $1 AND blocked = FALSE`, userID)
	if err != nil {
		return false, fmt.Errorf("block user %s: %w", userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// CountReports returns the number of reports filed against a user.
func (s *Store) CountReports(ctx context.Context, reportedUserID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE reported_user_id = $1`, reportedUserID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reports for %s: %w", reportedUserID, err)
	}
	return n, nil
}

// AppendAdminEntry appends one entry to the moderation inbox. The source key
// makes the append idempotent under redelivery; returns false for a
// duplicate.
func (s *Store) AppendAdminEntry(ctx context.Context, e models.AdminInboxEntry) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO admin_inbox (user_id, reporter_id, category, description, message, source_key)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (source_key) DO NOTHING`,
		e.UserID, e.ReporterID, e.Category, e.Description, e.Message, e.SourceKey,
	)
	if err != nil {
		return false, fmt.Errorf("append admin entry: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// SeenEvent reports whether an event id has already been processed.
func (s *Store) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM idempotency_keys WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check idempotency for %s: %w", eventID, err)
	}
	return exists, nil
}

// RecordEvent records an event id as processed.
func (s *Store) RecordEvent(ctx context.Context, eventID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO idempotency_keys (event_id) VALUES ($1) ON CONFLICT DO NOTHING`, eventID)
	if err != nil {
		return fmt.Errorf("record event %s: %w", eventID, err)
	}
	return nil
}
