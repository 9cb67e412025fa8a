package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/karansks78/RiseUp-App/pkg/models"

	log "github.com/sirupsen/logrus"
)

// BlockThreshold is the report count at which a user is auto-blocked.
const BlockThreshold = 10

// AutoBlockMessage is the inbox text for a threshold block.
const AutoBlockMessage = "User has been blocked due to multiple reports."

// NewReportMessage is the inbox text accompanying every report.
const NewReportMessage = "New user report received."

// Moderator runs the two independent report handlers: the unconditional
// admin-inbox append and the threshold block. The threshold check is
// read-then-act by design — two reports racing past the threshold may both
// decline to block. Under-blocking is accepted; over-blocking cannot happen
// because the block is monotonic and the inbox append is keyed.
type Moderator struct {
	store Store
	guard *Guard
}

func NewModerator(st Store, guard *Guard) *Moderator {
	return &Moderator{store: st, guard: guard}
}

// HandleReportCreated reacts to reports/{reportId} creation.
func (m *Moderator) HandleReportCreated(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
	reportID := params["reportId"]

	snap, err := models.DecodeReportSnapshot(ev.After)
	if err != nil {
		log.Errorf("[Moderation] %v correlation_id=%s", err, ev.CorrelationID)
		return nil
	}
	if snap.ReportedUserID == "" {
		log.Warnf("[Moderation] Report event missing reported user: report_id=%s correlation_id=%s",
			reportID, ev.CorrelationID)
		return nil
	}

	dup, err := m.guard.Duplicate(ctx, ev.EventID)
	if err != nil {
		log.Errorf("[Moderation] Error checking idempotency: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}
	if dup {
		log.Infof("[Moderation] Duplicate event ignored: event_id=%s correlation_id=%s", ev.EventID, ev.CorrelationID)
		return nil
	}

	// The two handlers are independent and order-insensitive; run both even
	// if one fails so a transient error in one does not starve the other.
	notifyErr := m.notifyAdmin(ctx, ev, reportID, snap)
	blockErr := m.checkThreshold(ctx, ev, snap)
	if err := errors.Join(notifyErr, blockErr); err != nil {
		return err
	}

	if err := m.guard.Done(ctx, ev.EventID); err != nil {
		log.Errorf("[Moderation] Error recording idempotency key: %v correlation_id=%s", err, ev.CorrelationID)
	}
	return nil
}

// notifyAdmin appends the full report detail to the moderation inbox,
// unconditionally for every report.
func (m *Moderator) notifyAdmin(ctx context.Context, ev models.ChangeEvent, reportID string, snap models.ReportSnapshot) error {
	appended, err := m.store.AppendAdminEntry(ctx, models.AdminInboxEntry{
		UserID:      snap.ReportedUserID,
		ReporterID:  snap.ReporterID,
		Category:    snap.Category,
		Description: snap.Description,
		Message:     NewReportMessage,
		SourceKey:   fmt.Sprintf("report:%s", reportID),
	})
	if err != nil {
		log.Errorf("[Moderation] Error notifying admin: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}
	if appended {
		log.Infof("[Moderation] Admin notified of report: report_id=%s reported_user_id=%s correlation_id=%s",
			reportID, snap.ReportedUserID, ev.CorrelationID)
	}
	return nil
}

// checkThreshold blocks the reported user once enough reports exist. The
// auto-block inbox entry is appended only when the flag actually flipped, so
// reports past the threshold do not repeat it.
func (m *Moderator) checkThreshold(ctx context.Context, ev models.ChangeEvent, snap models.ReportSnapshot) error {
	count, err := m.store.CountReports(ctx, snap.ReportedUserID)
	if err != nil {
		log.Errorf("[Moderation] Error counting reports: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}
	if count < BlockThreshold {
		log.Infof("[Moderation] Report count %d below threshold, not blocking: reported_user_id=%s correlation_id=%s",
			count, snap.ReportedUserID, ev.CorrelationID)
		return nil
	}

	blocked, err := m.store.BlockUser(ctx, snap.ReportedUserID)
	if err != nil {
		log.Errorf("[Moderation] Error blocking user: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}
	if !blocked {
		return nil
	}

	if _, err := m.store.AppendAdminEntry(ctx, models.AdminInboxEntry{
		UserID:    snap.ReportedUserID,
		Message:   AutoBlockMessage,
		SourceKey: fmt.Sprintf("autoblock:%s", snap.ReportedUserID),
	}); err != nil {
		log.Errorf("[Moderation] Error appending auto-block entry: %v correlation_id=%s", err, ev.CorrelationID)
		return err
	}

	log.Infof("[Moderation] User blocked and admin notified: reported_user_id=%s report_count=%d correlation_id=%s",
		snap.ReportedUserID, count, ev.CorrelationID)
	return nil
}
