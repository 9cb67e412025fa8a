package engine

import (
	"context"

	"github.com/karansks78/RiseUp-App/pkg/models"

	log "github.com/sirupsen/logrus"
)

// RewardThreshold is the follower count at which a user is rewarded.
const RewardThreshold = 5000

// RewardMachine flips the one-way rewarded flag when the follower counter
// crosses the threshold. Edge-triggered on the crossing, not level-triggered
// on count >= threshold, so updates above the threshold stay write-free.
type RewardMachine struct {
	store Store
	guard *Guard
}

func NewRewardMachine(st Store, guard *Guard) *RewardMachine {
	return &RewardMachine{store: st, guard: guard}
}

// HandleUserUpdated reacts to users/{userId} update events.
func (r *RewardMachine) HandleUserUpdated(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	userID := params["userId"]

	before, err := models.DecodeUserSnapshot(ev.Before)
	if err != nil {
		log.Errorf("[Reward] %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}
	after, err := models.DecodeUserSnapshot(ev.After)
	if err != nil {
		log.Errorf("[Reward] %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}

	// A redelivered crossing event may show both sides at or above the
	// threshold; before.Rewarded keeps that from looking like a crossing.
	if after.FollowerCount < RewardThreshold || before.FollowerCount >= RewardThreshold || before.Rewarded {
		return nil
	}

	dup, err := r.guard.Duplicate(ctx, ev.EventID)
	if err != nil {
		log.Errorf("[Reward] Error checking idempotency: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}
	if dup {
		log.Infof("[Reward] Duplicate event ignored: event_id=%s correlation_id=%s", ev.EventID, ev.CorrelationID)
		return nil
	}

	changed, err := r.store.MarkRewarded(ctx, userID)
	if err != nil {
		log.Errorf("[Reward] Error rewarding user: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}
	if changed {
		log.Infof("[Reward] User rewarded: user_id=%s follower_count=%d correlation_id=%s",
			userID, after.FollowerCount, ev.CorrelationID)
	}

	if err := r.guard.Done(ctx, ev.EventID); err != nil {
		log.Errorf("[Reward] Error recording idempotency key: %v correlation_id=%s", err, ev.CorrelationID)
	}
	return nil
}
