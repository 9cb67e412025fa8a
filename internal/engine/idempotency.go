package engine

import "context"

// Guard detects duplicate delivery of the same event id for handlers whose
// effects are not already keyed by a source document. The counter manager
// has its own transactional variant (the key is recorded inside the counter
// transaction); notification writes rely on their unique source keys instead,
// because a timeout between write and key record would otherwise drop them.
type Guard struct {
	store Store
}

func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Duplicate reports whether the event id has already been processed.
func (g *Guard) Duplicate(ctx context.Context, eventID string) (bool, error) {
	return g.store.SeenEvent(ctx, eventID)
}

// Done marks the event id as processed. Call only after all effects of the
// event have been applied.
func (g *Guard) Done(ctx context.Context, eventID string) error {
	return g.store.RecordEvent(ctx, eventID)
}
