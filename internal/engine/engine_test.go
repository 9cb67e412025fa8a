package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/karansks78/RiseUp-App/internal/store"
	"github.com/karansks78/RiseUp-App/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeStore is an in-memory Store with the same atomicity guarantees the
// Postgres implementation provides: the counter update and its idempotency
// key are applied under one lock, flag flips are monotonic, and keyed
// inserts are first-writer-wins.
type fakeStore struct {
	mu sync.Mutex

	users map[string]*models.User
	posts map[string]*models.Post
	chats map[string]*models.Chat

	notifications map[string]models.Notification // keyed by source key
	inbox         []models.AdminInboxEntry
	inboxKeys     map[string]bool
	reportCounts  map[string]int
	seen          map[string]bool

	rewardWrites int
	blockWrites  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]*models.User),
		posts:         make(map[string]*models.Post),
		chats:         make(map[string]*models.Chat),
		notifications: make(map[string]models.Notification),
		inboxKeys:     make(map[string]bool),
		reportCounts:  make(map[string]int),
		seen:          make(map[string]bool),
	}
}

func (f *fakeStore) addUser(id, username string, followerCount int) {
	f.users[id] = &models.User{ID: id, Username: username, FollowerCount: followerCount}
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetPost(_ context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetChat(_ context.Context, id string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) CreateNotification(_ context.Context, n models.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notifications[n.SourceKey]; ok {
		return false, nil
	}
	f.notifications[n.SourceKey] = n
	return true, nil
}

func (f *fakeStore) IncrementFollowerCount(_ context.Context, eventID, userID string, delta int) (models.UserSnapshot, models.UserSnapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[eventID] {
		return models.UserSnapshot{}, models.UserSnapshot{}, false, nil
	}
	u, ok := f.users[userID]
	if !ok {
		return models.UserSnapshot{}, models.UserSnapshot{}, false, store.ErrNotFound
	}
	f.seen[eventID] = true
	before := u.Snapshot()
	u.FollowerCount += delta
	if u.FollowerCount < 0 {
		u.FollowerCount = 0
	}
	return before, u.Snapshot(), true, nil
}

func (f *fakeStore) MarkRewarded(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.Rewarded {
		return false, nil
	}
	u.Rewarded = true
	f.rewardWrites++
	return true, nil
}

func (f *fakeStore) BlockUser(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.Blocked {
		return false, nil
	}
	u.Blocked = true
	f.blockWrites++
	return true, nil
}

func (f *fakeStore) CountReports(_ context.Context, reportedUserID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reportCounts[reportedUserID], nil
}

func (f *fakeStore) AppendAdminEntry(_ context.Context, e models.AdminInboxEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inboxKeys[e.SourceKey] {
		return false, nil
	}
	f.inboxKeys[e.SourceKey] = true
	f.inbox = append(f.inbox, e)
	return true, nil
}

func (f *fakeStore) SeenEvent(_ context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[eventID], nil
}

func (f *fakeStore) RecordEvent(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[eventID] = true
	return nil
}

func (f *fakeStore) notificationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notifications)
}

func (f *fakeStore) notificationsOfType(t models.NotificationType) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// fakePublisher records published events so tests can feed follow-on events
// back through the engine.
type fakePublisher struct {
	mu        sync.Mutex
	published []amqp.Delivery
}

func (p *fakePublisher) Publish(routingKey string, body []byte, correlationID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, amqp.Delivery{
		Body:          body,
		RoutingKey:    routingKey,
		CorrelationId: correlationID,
	})
	return nil
}

func (p *fakePublisher) drain() []amqp.Delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.published
	p.published = nil
	return out
}

func makeDelivery(ev models.ChangeEvent) amqp.Delivery {
	body, _ := json.Marshal(ev)
	return amqp.Delivery{
		Body:          body,
		CorrelationId: ev.CorrelationID,
		RoutingKey:    ev.RoutingKey(),
	}
}

func changeEvent(id, path string, op models.Operation) models.ChangeEvent {
	return models.ChangeEvent{
		EventID:       id,
		CorrelationID: "corr-" + id,
		Path:          path,
		Operation:     op,
		Timestamp:     time.Now(),
	}
}

// deliverAll runs the engine over the deliveries plus every follow-on event
// the engine publishes, until the stream drains.
func deliverAll(t *testing.T, eng *Engine, pub *fakePublisher, deliveries []amqp.Delivery) {
	t.Helper()
	queue := deliveries
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if err := eng.HandleMessage(d); err != nil {
			t.Fatalf("HandleMessage failed: %v", err)
		}
		queue = append(queue, pub.drain()...)
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	eng := New(newFakeStore(), &fakePublisher{})

	err := eng.HandleMessage(amqp.Delivery{Body: []byte("{invalid json"), CorrelationId: "corr-bad"})
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestScenario_FiveFollowsOnFreshUser(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	for _, id := range []string{"user-b", "user-c", "user-d", "user-e", "user-f"} {
		st.addUser(id, "follower-"+id, 0)
	}
	pub := &fakePublisher{}
	eng := New(st, pub)

	// Each follow writes both edges, so both creation events arrive.
	var deliveries []amqp.Delivery
	for i, follower := range []string{"user-b", "user-c", "user-d", "user-e", "user-f"} {
		deliveries = append(deliveries,
			makeDelivery(changeEvent(fmt.Sprintf("evt-follower-%d", i),
				models.FollowerPath("user-a", follower), models.OpCreate)),
			makeDelivery(changeEvent(fmt.Sprintf("evt-following-%d", i),
				models.FollowingPath(follower, "user-a"), models.OpCreate)),
		)
	}
	deliverAll(t, eng, pub, deliveries)

	u, err := st.GetUser(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.FollowerCount != 5 {
		t.Errorf("expected follower_count 5, got %d", u.FollowerCount)
	}
	follows := st.notificationsOfType(models.NotificationFollow)
	if len(follows) != 5 {
		t.Errorf("expected 5 follow notifications, got %d", len(follows))
	}
	for _, n := range follows {
		if n.UserID != "user-a" {
			t.Errorf("expected recipient user-a, got %s", n.UserID)
		}
	}
	if u.Rewarded {
		t.Error("expected no reward transition")
	}
	if st.rewardWrites != 0 {
		t.Errorf("expected 0 reward writes, got %d", st.rewardWrites)
	}
}

func TestScenario_RewardAtExactThreshold(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-x", "xenia", RewardThreshold-1)
	st.addUser("user-y", "yusuf", 0)
	pub := &fakePublisher{}
	eng := New(st, pub)

	deliverAll(t, eng, pub, []amqp.Delivery{
		makeDelivery(changeEvent("evt-5000", models.FollowerPath("user-x", "user-y"), models.OpCreate)),
	})

	u, _ := st.GetUser(context.Background(), "user-x")
	if u.FollowerCount != RewardThreshold {
		t.Fatalf("expected follower_count %d, got %d", RewardThreshold, u.FollowerCount)
	}
	if !u.Rewarded {
		t.Error("expected user to be rewarded")
	}
	if st.rewardWrites != 1 {
		t.Errorf("expected exactly 1 reward write, got %d", st.rewardWrites)
	}
}

func TestScenario_FollowRedeliveryDoesNotDoubleIncrement(t *testing.T) {
	st := newFakeStore()
	st.addUser("user-a", "alice", 0)
	st.addUser("user-b", "bob", 0)
	pub := &fakePublisher{}
	eng := New(st, pub)

	d := makeDelivery(changeEvent("evt-dup", models.FollowerPath("user-a", "user-b"), models.OpCreate))
	deliverAll(t, eng, pub, []amqp.Delivery{d, d})

	u, _ := st.GetUser(context.Background(), "user-a")
	if u.FollowerCount != 1 {
		t.Errorf("expected follower_count 1 after redelivery, got %d", u.FollowerCount)
	}
	if got := len(st.notificationsOfType(models.NotificationFollow)); got != 1 {
		t.Errorf("expected 1 follow notification after redelivery, got %d", got)
	}
}

func TestScenario_UnmatchedPathIsNoop(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	eng := New(st, pub)

	deliverAll(t, eng, pub, []amqp.Delivery{
		makeDelivery(changeEvent("evt-img", "images/img-1", models.OpCreate)),
	})

	if st.notificationCount() != 0 {
		t.Errorf("expected no notifications, got %d", st.notificationCount())
	}
}
