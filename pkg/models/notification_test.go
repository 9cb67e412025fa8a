package models

import (
	"encoding/json"
	"testing"
)

func TestNotificationTypeValid(t *testing.T) {
	tests := []struct {
		name  string
		nt    NotificationType
		valid bool
	}{
		{"like", NotificationLike, true},
		{"follow", NotificationFollow, true},
		{"message", NotificationMessage, true},
		{"comment", NotificationComment, true},
		{"unknown", NotificationType("poke"), false},
		{"empty", NotificationType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.nt.Valid(); got != tt.valid {
				t.Errorf("Valid(%q) = %v, want %v", tt.nt, got, tt.valid)
			}
		})
	}
}

func TestSourceKeyFormats(t *testing.T) {
	if got := LikeSourceKey("post-1", "user-2"); got != "like:post-1:user-2" {
		t.Errorf("LikeSourceKey: got %q", got)
	}
	if got := FollowSourceKey("user-b", "user-a"); got != "follow:user-b:user-a" {
		t.Errorf("FollowSourceKey: got %q", got)
	}
	if got := MessageSourceKey("msg-1"); got != "message:msg-1" {
		t.Errorf("MessageSourceKey: got %q", got)
	}
}

func TestFollowSourceKey_SameEdgeBothSides(t *testing.T) {
	// The followers-side and following-side events of one follow must map to
	// the same key so the record dedupes.
	fromFollowerEvent := FollowSourceKey("user-b", "user-a")
	fromFollowingEvent := FollowSourceKey("user-b", "user-a")
	if fromFollowerEvent != fromFollowingEvent {
		t.Errorf("edge keys differ: %q vs %q", fromFollowerEvent, fromFollowingEvent)
	}
}

func TestNotificationJSON_SourceKeyHidden(t *testing.T) {
	n := Notification{
		ID:        "notif-1",
		Type:      NotificationLike,
		UserID:    "user-a",
		SourceKey: "like:post-1:user-b",
	}

	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("failed to marshal notification: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, ok := raw["source_key"]; ok {
		t.Error("source_key must not appear in the client-facing JSON")
	}
	if raw["type"] != "like" {
		t.Errorf("expected type like, got %v", raw["type"])
	}
}
