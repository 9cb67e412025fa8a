package engine

import (
	"context"
	"testing"

	"github.com/karansks78/RiseUp-App/pkg/models"
)

func TestMatchPath(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    map[string]string
		ok      bool
	}{
		{
			name:    "like path",
			pattern: "posts/{postId}/likes/{userId}",
			path:    "posts/post-1/likes/user-2",
			want:    map[string]string{"postId": "post-1", "userId": "user-2"},
			ok:      true,
		},
		{
			name:    "follower path",
			pattern: "users/{userId}/followers/{followerId}",
			path:    "users/user-a/followers/user-b",
			want:    map[string]string{"userId": "user-a", "followerId": "user-b"},
			ok:      true,
		},
		{
			name:    "user path",
			pattern: "users/{userId}",
			path:    "users/user-a",
			want:    map[string]string{"userId": "user-a"},
			ok:      true,
		},
		{
			name:    "length mismatch short",
			pattern: "posts/{postId}/likes/{userId}",
			path:    "posts/post-1/likes",
			ok:      false,
		},
		{
			name:    "length mismatch long",
			pattern: "users/{userId}",
			path:    "users/user-a/followers",
			ok:      false,
		},
		{
			name:    "literal mismatch",
			pattern: "users/{userId}/followers/{followerId}",
			path:    "users/user-a/following/user-b",
			ok:      false,
		},
		{
			name:    "empty placeholder segment",
			pattern: "users/{userId}",
			path:    "users/",
			ok:      false,
		},
		{
			name:    "different collection",
			pattern: "reports/{reportId}",
			path:    "images/img-1",
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, ok := matchPath(tt.pattern, tt.path)
			if ok != tt.ok {
				t.Fatalf("matchPath(%q, %q) ok = %v, want %v", tt.pattern, tt.path, ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if len(params) != len(tt.want) {
				t.Fatalf("expected %d params, got %d", len(tt.want), len(params))
			}
			for k, v := range tt.want {
				if params[k] != v {
					t.Errorf("param %s = %q, want %q", k, params[k], v)
				}
			}
		})
	}
}

func TestRouter_DispatchByOperation(t *testing.T) {
	r := NewRouter()

	var created, deleted int
	r.Handle("users/{userId}/followers/{followerId}", models.OpCreate,
		func(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
			created++
			return nil
		})
	r.Handle("users/{userId}/followers/{followerId}", models.OpDelete,
		func(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
			deleted++
			return nil
		})

	ctx := context.Background()
	if err := r.Route(ctx, changeEvent("evt-1", models.FollowerPath("a", "b"), models.OpCreate)); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if err := r.Route(ctx, changeEvent("evt-2", models.FollowerPath("a", "b"), models.OpDelete)); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if err := r.Route(ctx, changeEvent("evt-3", models.FollowerPath("a", "b"), models.OpUpdate)); err != nil {
		t.Fatalf("Route: %v", err)
	}

	if created != 1 {
		t.Errorf("expected create handler invoked once, got %d", created)
	}
	if deleted != 1 {
		t.Errorf("expected delete handler invoked once, got %d", deleted)
	}
}

func TestRouter_ParamsBound(t *testing.T) {
	r := NewRouter()

	var got map[string]string
	r.Handle("posts/{postId}/likes/{userId}", models.OpCreate,
		func(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
			got = params
			return nil
		})

	if err := r.Route(context.Background(),
		changeEvent("evt-1", models.LikePath("post-9", "user-3"), models.OpCreate)); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if got["postId"] != "post-9" || got["userId"] != "user-3" {
		t.Errorf("unexpected params: %v", got)
	}
}

func TestRouter_UnmatchedIsNoop(t *testing.T) {
	r := NewRouter()
	r.Handle("users/{userId}", models.OpUpdate,
		func(ctx context.Context, ev models.ChangeEvent, params map[string]string) error {
			t.Error("handler must not run for unmatched event")
			return nil
		})

	if err := r.Route(context.Background(),
		changeEvent("evt-1", "images/img-1", models.OpCreate)); err != nil {
		t.Fatalf("expected unmatched event to be a no-op, got %v", err)
	}
}
