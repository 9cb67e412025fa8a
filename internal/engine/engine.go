package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/karansks78/RiseUp-App/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// handlerTimeout bounds one handler invocation; on expiry the message is
// nacked and the broker redelivers, which every handler tolerates.
const handlerTimeout = 30 * time.Second

// Engine wires the router to the handlers over one document store. Each
// delivery is handled by a fresh, stateless invocation; nothing is cached
// across events and the store is the only source of truth.
type Engine struct {
	router *Router
}

// New composes the engine: fan-out, counter, reward, moderation, guarded by
// the shared idempotency ledger, dispatched by collection-path pattern.
func New(st Store, pub EventPublisher) *Engine {
	guard := NewGuard(st)
	notifier := NewNotifier(st)
	counter := NewCounterManager(st, pub)
	reward := NewRewardMachine(st, guard)
	moderator := NewModerator(st, guard)

	r := NewRouter()
	r.Handle("posts/{postId}/likes/{userId}", models.OpCreate, notifier.HandleLikeCreated)
	r.Handle("users/{userId}/followers/{followerId}", models.OpCreate,
		func(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
			// Fan-out is best-effort and never fails the delivery; the
			// counter is the authoritative effect of a follow.
			_ = notifier.HandleFollowerCreated(ctx, ev, params)
			return counter.HandleFollowerCreated(ctx, ev, params)
		})
	r.Handle("users/{userId}/followers/{followerId}", models.OpDelete, counter.HandleFollowerDeleted)
	r.Handle("users/{userId}/following/{followingId}", models.OpCreate, notifier.HandleFollowingCreated)
	r.Handle("chats/{chatId}/messages/{messageId}", models.OpCreate, notifier.HandleMessageCreated)
	r.Handle("users/{userId}", models.OpUpdate, reward.HandleUserUpdated)
	r.Handle("reports/{reportId}", models.OpCreate, moderator.HandleReportCreated)

	return &Engine{router: r}
}

// HandleMessage processes one delivered change event.
func (e *Engine) HandleMessage(delivery amqp.Delivery) error {
	var ev models.ChangeEvent
	if err := json.Unmarshal(delivery.Body, &ev); err != nil {
		log.Errorf("[Engine] Failed to unmarshal event: %v correlation_id=%s", err, delivery.CorrelationId)
		return err
	}

	log.Infof("[Engine] Processing event: path=%s operation=%s event_id=%s correlation_id=%s",
		ev.Path, ev.Operation, ev.EventID, ev.CorrelationID)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	return e.router.Route(ctx, ev)
}
