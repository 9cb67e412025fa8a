package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/karansks78/RiseUp-App/pkg/models"
)

func reportEvent(id, reportID, reportedUserID, reporterID string) models.ChangeEvent {
	ev := changeEvent(id, models.ReportPath(reportID), models.OpCreate)
	ev.After, _ = json.Marshal(models.ReportSnapshot{
		ReportedUserID: reportedUserID,
		ReporterID:     reporterID,
		Category:       "spam",
		Description:    "repeated spam comments",
	})
	return ev
}

// fileReport bumps the stored report count the way the API write would, then
// runs the handler on the corresponding creation event.
func fileReport(t *testing.T, m *Moderator, st *fakeStore, n int, reportedUserID string) {
	t.Helper()
	st.mu.Lock()
	st.reportCounts[reportedUserID]++
	st.mu.Unlock()

	ev := reportEvent(fmt.Sprintf("evt-report-%d", n), fmt.Sprintf("report-%d", n), reportedUserID, "reporter-1")
	if err := m.HandleReportCreated(context.Background(), ev,
		map[string]string{"reportId": fmt.Sprintf("report-%d", n)}); err != nil {
		t.Fatalf("HandleReportCreated: %v", err)
	}
}

func TestModeration_BelowThresholdNoBlock(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	m := NewModerator(st, NewGuard(st))

	for i := 1; i <= BlockThreshold-1; i++ {
		fileReport(t, m, st, i, "user-a")
	}

	u, _ := st.GetUser(context.Background(), "user-a")
	if u.Blocked {
		t.Error("expected user not blocked below threshold")
	}
	if len(st.inbox) != BlockThreshold-1 {
		t.Errorf("expected %d inbox entries, got %d", BlockThreshold-1, len(st.inbox))
	}
}

func TestModeration_ThresholdBlocksOnce(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	m := NewModerator(st, NewGuard(st))

	for i := 1; i <= BlockThreshold; i++ {
		fileReport(t, m, st, i, "user-a")
	}

	u, _ := st.GetUser(context.Background(), "user-a")
	if !u.Blocked {
		t.Fatal("expected user blocked at threshold")
	}
	if st.blockWrites != 1 {
		t.Errorf("expected exactly 1 block write, got %d", st.blockWrites)
	}

	var autoBlocks int
	for _, e := range st.inbox {
		if e.Message == AutoBlockMessage {
			autoBlocks++
		}
	}
	if autoBlocks != 1 {
		t.Errorf("expected exactly 1 auto-block entry, got %d", autoBlocks)
	}
}

func TestModeration_ReportsPastThresholdNoSecondEntry(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	m := NewModerator(st, NewGuard(st))

	for i := 1; i <= BlockThreshold+3; i++ {
		fileReport(t, m, st, i, "user-a")
	}

	var autoBlocks, details int
	for _, e := range st.inbox {
		if e.Message == AutoBlockMessage {
			autoBlocks++
		} else {
			details++
		}
	}
	if autoBlocks != 1 {
		t.Errorf("expected 1 auto-block entry after reports past the threshold, got %d", autoBlocks)
	}
	if details != BlockThreshold+3 {
		t.Errorf("expected %d detail entries, got %d", BlockThreshold+3, details)
	}
	if st.blockWrites != 1 {
		t.Errorf("expected 1 block write, got %d", st.blockWrites)
	}
}

func TestModeration_EveryReportGetsDetailEntry(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	m := NewModerator(st, NewGuard(st))

	fileReport(t, m, st, 1, "user-a")

	if len(st.inbox) != 1 {
		t.Fatalf("expected 1 inbox entry, got %d", len(st.inbox))
	}
	e := st.inbox[0]
	if e.Message != NewReportMessage {
		t.Errorf("expected message %q, got %q", NewReportMessage, e.Message)
	}
	if e.UserID != "user-a" || e.ReporterID != "reporter-1" {
		t.Errorf("unexpected entry: user_id=%s reporter_id=%s", e.UserID, e.ReporterID)
	}
	if e.Category != "spam" || e.Description != "repeated spam comments" {
		t.Errorf("expected report detail carried, got category=%q description=%q", e.Category, e.Description)
	}
}

func TestModeration_RedeliveryAppendsOnce(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	m := NewModerator(st, NewGuard(st))

	st.reportCounts["user-a"] = 1
	ev := reportEvent("evt-dup", "report-1", "user-a", "reporter-1")
	params := map[string]string{"reportId": "report-1"}
	for i := 0; i < 3; i++ {
		if err := m.HandleReportCreated(context.Background(), ev, params); err != nil {
			t.Fatalf("HandleReportCreated: %v", err)
		}
	}

	if len(st.inbox) != 1 {
		t.Errorf("expected 1 inbox entry after redeliveries, got %d", len(st.inbox))
	}
}

func TestModeration_MissingReportedUserIgnored(t *testing.T) {
	st := newFakeStore()
	m := NewModerator(st, NewGuard(st))

	ev := changeEvent("evt-1", models.ReportPath("report-1"), models.OpCreate)
	ev.After = []byte(`{"reporter_id":"reporter-1"}`)
	if err := m.HandleReportCreated(context.Background(), ev,
		map[string]string{"reportId": "report-1"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(st.inbox) != 0 {
		t.Errorf("expected no inbox entries, got %d", len(st.inbox))
	}
}

// Two observers can both read a pre-threshold count before either write
// lands. The block is read-then-act, so both decline and the user stays
// unblocked until a later report re-observes the full count. Under-blocking
// is the accepted outcome; the monotonic flag rules out double-blocking.
func TestModeration_StaleCountDefersBlock(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	m := NewModerator(st, NewGuard(st))

	// The tenth report is handled while the count still reads nine.
	st.reportCounts["user-a"] = BlockThreshold - 1
	ev := reportEvent("evt-10", "report-10", "user-a", "reporter-1")
	if err := m.HandleReportCreated(context.Background(), ev,
		map[string]string{"reportId": "report-10"}); err != nil {
		t.Fatalf("HandleReportCreated: %v", err)
	}

	u, _ := st.GetUser(context.Background(), "user-a")
	if u.Blocked {
		t.Fatal("expected block deferred on stale count")
	}

	// The next report observes the settled count and blocks.
	st.reportCounts["user-a"] = BlockThreshold + 1
	ev = reportEvent("evt-11", "report-11", "user-a", "reporter-1")
	if err := m.HandleReportCreated(context.Background(), ev,
		map[string]string{"reportId": "report-11"}); err != nil {
		t.Fatalf("HandleReportCreated: %v", err)
	}
	u, _ = st.GetUser(context.Background(), "user-a")
	if !u.Blocked {
		t.Error("expected block once the count is observed past the threshold")
	}
	if st.blockWrites != 1 {
		t.Errorf("expected 1 block write, got %d", st.blockWrites)
	}
}
