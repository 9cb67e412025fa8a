package engine

import (
	"context"

	"github.com/karansks78/RiseUp-App/pkg/models"
)

// Store is the document-store capability set the engine consumes: point
// reads, keyed derived writes, one transactional counter update, monotonic
// flag flips, a count query and the idempotency ledger. The Postgres
// implementation lives in internal/store; tests use an in-memory fake.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetChat(ctx context.Context, id string) (*models.Chat, error)

	CreateNotification(ctx context.Context, n models.Notification) (bool, error)

	IncrementFollowerCount(ctx context.Context, eventID, userID string, delta int) (before, after models.UserSnapshot, applied bool, err error)
	MarkRewarded(ctx context.Context, userID string) (bool, error)
	BlockUser(ctx context.Context, userID string) (bool, error)

	CountReports(ctx context.Context, reportedUserID string) (int, error)
	AppendAdminEntry(ctx context.Context, e models.AdminInboxEntry) (bool, error)

	SeenEvent(ctx context.Context, eventID string) (bool, error)
	RecordEvent(ctx context.Context, eventID string) error
}

// EventPublisher publishes follow-on change events (counter updates feed the
// reward machine through the same exchange the store's triggers use).
type EventPublisher interface {
	Publish(routingKey string, body []byte, correlationID string) error
}
