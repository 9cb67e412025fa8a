package engine

import (
	"context"
	"errors"

	"github.com/karansks78/RiseUp-App/internal/store"
	"github.com/karansks78/RiseUp-App/pkg/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FallbackUsername is substituted when the acting user's profile cannot be
// resolved at fan-out time.
const FallbackUsername = "Unknown User"

// Notifier fans source events out into notification records. Delivery is
// best-effort: every failure is logged and the handler completes benignly,
// so a dropped notification never poisons the queue. Records are keyed by
// their source document, which makes redelivery a no-op.
type Notifier struct {
	store Store
}

func NewNotifier(st Store) *Notifier {
	return &Notifier{store: st}
}

// HandleLikeCreated reacts to posts/{postId}/likes/{userId} creation.
func (n *Notifier) HandleLikeCreated(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	postID := params["postId"]
	likerID := params["userId"]

	post, err := n.store.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warnf("[Notifier] Post does not exist: post_id=%s correlation_id=%s", postID, ev.CorrelationID)
		return nil
	}
	if err != nil {
		log.Errorf("[Notifier] Error reading post: %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}

	liker, err := n.store.GetUser(ctx, likerID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warnf("[Notifier] Liker does not exist: user_id=%s correlation_id=%s", likerID, ev.CorrelationID)
		return nil
	}
	if err != nil {
		log.Errorf("[Notifier] Error reading liker: %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}

	// Self-action suppression: liking your own post notifies nobody.
	if post.UserID == likerID {
		return nil
	}

	n.create(ctx, ev, models.Notification{
		ID:             uuid.New().String(),
		Type:           models.NotificationLike,
		UserID:         post.UserID,
		SenderID:       likerID,
		SenderUsername: liker.Username,
		PostID:         postID,
		SourceKey:      models.LikeSourceKey(postID, likerID),
	})
	return nil
}

// HandleFollowerCreated reacts to users/{userId}/followers/{followerId}
// creation: the followed user gets the notification.
func (n *Notifier) HandleFollowerCreated(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	return n.notifyFollow(ctx, ev, params["followerId"], params["userId"])
}

// HandleFollowingCreated reacts to users/{userId}/following/{followingId}
// creation, the other side of the same follow edge. The shared source key
// collapses the two sides into a single record.
func (n *Notifier) HandleFollowingCreated(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	return n.notifyFollow(ctx, ev, params["userId"], params["followingId"])
}

func (n *Notifier) notifyFollow(ctx context.Context, ev models.ChangeEvent, senderID, targetID string) error {
	// Self-action suppression.
	if senderID == targetID {
		return nil
	}

	_, err := n.store.GetUser(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warnf("[Notifier] Followed user does not exist: user_id=%s correlation_id=%s", targetID, ev.CorrelationID)
		return nil
	}
	if err != nil {
		log.Errorf("[Notifier] Error reading followed user: %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}

	username := FallbackUsername
	sender, err := n.store.GetUser(ctx, senderID)
	switch {
	case err == nil:
		username = sender.Username
	case errors.Is(err, store.ErrNotFound):
		log.Warnf("[Notifier] Follower profile missing, using fallback name: user_id=%s correlation_id=%s",
			senderID, ev.CorrelationID)
	default:
		log.Errorf("[Notifier] Error reading follower: %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}

	n.create(ctx, ev, models.Notification{
		ID:             uuid.New().String(),
		Type:           models.NotificationFollow,
		UserID:         targetID,
		SenderID:       senderID,
		SenderUsername: username,
		SourceKey:      models.FollowSourceKey(senderID, targetID),
	})
	return nil
}

// HandleMessageCreated reacts to chats/{chatId}/messages/{messageId}
// creation: the other chat member gets the notification.
func (n *Notifier) HandleMessageCreated(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	chatID := params["chatId"]
	messageID := params["messageId"]

	msg, err := models.DecodeMessageSnapshot(ev.After)
	if err != nil {
		log.Errorf("[Notifier] %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}
	if msg.UserID == "" {
		log.Warnf("[Notifier] Message event missing sender: message_id=%s correlation_id=%s", messageID, ev.CorrelationID)
		return nil
	}

	chat, err := n.store.GetChat(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warnf("[Notifier] Chat does not exist: chat_id=%s correlation_id=%s", chatID, ev.CorrelationID)
		return nil
	}
	if err != nil {
		log.Errorf("[Notifier] Error reading chat: %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}

	recipientID := chat.Recipient(msg.UserID)
	if recipientID == "" {
		log.Warnf("[Notifier] No recipient for message: chat_id=%s sender_id=%s correlation_id=%s",
			chatID, msg.UserID, ev.CorrelationID)
		return nil
	}

	username := FallbackUsername
	sender, err := n.store.GetUser(ctx, msg.UserID)
	switch {
	case err == nil:
		username = sender.Username
	case errors.Is(err, store.ErrNotFound):
		log.Warnf("[Notifier] Sender profile missing, using fallback name: user_id=%s correlation_id=%s",
			msg.UserID, ev.CorrelationID)
	default:
		log.Errorf("[Notifier] Error reading sender: %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}

	n.create(ctx, ev, models.Notification{
		ID:             uuid.New().String(),
		Type:           models.NotificationMessage,
		UserID:         recipientID,
		SenderID:       msg.UserID,
		SenderUsername: username,
		ChatID:         chatID,
		MessageText:    msg.Text,
		SourceKey:      models.MessageSourceKey(messageID),
	})
	return nil
}

func (n *Notifier) create(ctx context.Context, ev models.ChangeEvent, record models.Notification) {
	created, err := n.store.CreateNotification(ctx, record)
	if err != nil {
		log.Errorf("[Notifier] Error creating %s notification: %v correlation_id=%s",
			record.Type, err, ev.CorrelationID)
		return
	}
	if !created {
		log.Infof("[Notifier] Duplicate %s notification ignored: source_key=%s correlation_id=%s",
			record.Type, record.SourceKey, ev.CorrelationID)
		return
	}
	log.Infof("[Notifier] %s notification created: user_id=%s sender_id=%s correlation_id=%s",
		record.Type, record.UserID, record.SenderID, ev.CorrelationID)
}
