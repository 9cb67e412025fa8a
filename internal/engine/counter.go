package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/karansks78/RiseUp-App/internal/store"
	"github.com/karansks78/RiseUp-App/pkg/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CounterManager maintains the denormalized follower counter. The increment
// is a single transactional read-modify-write — concurrent follows on a
// popular account would lose updates under a blind write. After a committed
// change it publishes the users/{id} update event the reward machine
// consumes.
type CounterManager struct {
	store     Store
	publisher EventPublisher
}

func NewCounterManager(st Store, pub EventPublisher) *CounterManager {
	return &CounterManager{store: st, publisher: pub}
}

// HandleFollowerCreated reacts to users/{userId}/followers/{followerId}
// creation with a +1 on the followed user's counter.
func (c *CounterManager) HandleFollowerCreated(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	return c.apply(ctx, ev, params["userId"], +1)
}

// HandleFollowerDeleted reacts to follower removal with the symmetric -1,
// floored at zero, so the counter tracks the followers sub-collection
// instead of drifting upward forever.
func (c *CounterManager) HandleFollowerDeleted(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	return c.apply(ctx, ev, params["userId"], -1)
}

func (c *CounterManager) apply(ctx context.Context, ev models.ChangeEvent, userID string, delta int) error {
	before, after, applied, err := c.store.IncrementFollowerCount(ctx, ev.EventID, userID, delta)
	if errors.Is(err, store.ErrNotFound) {
		// The source document referenced a deleted user. Hard input error:
		// logged, never retried.
		log.Errorf("[Counter] User does not exist, transaction aborted: user_id=%s event_id=%s correlation_id=%s",
			userID, ev.EventID, ev.CorrelationID)
		return nil
	}
	if err != nil {
		log.Errorf("[Counter] Transaction failure: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}
	if !applied {
		log.Infof("[Counter] Duplicate event ignored: event_id=%s correlation_id=%s", ev.EventID, ev.CorrelationID)
		return nil
	}

	log.Infof("[Counter] follower_count %d -> %d: user_id=%s correlation_id=%s",
		before.FollowerCount, after.FollowerCount, userID, ev.CorrelationID)

	c.publishUserUpdated(ev.CorrelationID, userID, before, after)
	return nil
}

// publishUserUpdated emits the follow-on users/{id} update event. The
// counter change is already committed, so a publish failure only costs the
// derived reward check; it is logged and not retried here.
func (c *CounterManager) publishUserUpdated(correlationID, userID string, before, after models.UserSnapshot) {
	beforeRaw, _ := json.Marshal(before)
	afterRaw, _ := json.Marshal(after)

	update := models.ChangeEvent{
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		Path:          models.UserPath(userID),
		Operation:     models.OpUpdate,
		Before:        beforeRaw,
		After:         afterRaw,
		Timestamp:     time.Now(),
	}

	body, _ := json.Marshal(update)
	if err := c.publisher.Publish(update.RoutingKey(), body, correlationID); err != nil {
		log.Errorf("[Counter] Error publishing user update event: %v correlation_id=%s", err, correlationID)
	}
}
