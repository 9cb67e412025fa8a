package engine

import (
	"context"
	"strings"

	"github.com/karansks78/RiseUp-App/pkg/models"

	log "github.com/sirupsen/logrus"
)

// HandlerFunc processes one change event. Params holds the values bound to
// the {placeholder} segments of the matched pattern.
type HandlerFunc func(ctx context.Context, ev models.ChangeEvent, params map[string]string) error

type route struct {
	pattern string
	op      models.Operation
	handler HandlerFunc
}

// Router dispatches change events to handlers by (collection path pattern,
// operation). It holds no state beyond the fixed route table and is safe for
// concurrent use. An unmatched event is a no-op, not an error: the watched
// pattern set is a subset of everything the store emits.
type Router struct {
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

// Handle registers a handler for a path pattern and operation, e.g.
// Handle("posts/{postId}/likes/{userId}", models.OpCreate, h).
func (r *Router) Handle(pattern string, op models.Operation, h HandlerFunc) {
	r.routes = append(r.routes, route{pattern: pattern, op: op, handler: h})
}

// Route matches the event against the route table and invokes the handler.
func (r *Router) Route(ctx context.Context, ev models.ChangeEvent) error {
	for _, rt := range r.routes {
		if rt.op != ev.Operation {
			continue
		}
		params, ok := matchPath(rt.pattern, ev.Path)
		if !ok {
			continue
		}
		return rt.handler(ctx, ev, params)
	}
	log.Debugf("[Router] No handler for path=%s operation=%s event_id=%s",
		ev.Path, ev.Operation, ev.EventID)
	return nil
}

// matchPath matches a concrete path against a pattern segment by segment,
// binding {placeholder} segments. Placeholders never match empty segments.
func matchPath(pattern, path string) (map[string]string, bool) {
	pp := strings.Split(pattern, "/")
	ps := strings.Split(path, "/")
	if len(pp) != len(ps) {
		return nil, false
	}
	params := make(map[string]string, 2)
	for i, seg := range pp {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if ps[i] == "" {
				return nil, false
			}
			params[seg[1:len(seg)-1]] = ps[i]
			continue
		}
		if seg != ps[i] {
			return nil, false
		}
	}
	return params, true
}
