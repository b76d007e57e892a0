package throttle

import (
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DenyMessage is the response body sent with a 429.
const DenyMessage = "Too many Requests. Back-off and try again later."

// OperationResolver derives the operation identity for a request. The
// default uses the method and URL path; hosts whose routers expose route
// patterns should plug in a resolver that returns the pattern instead,
// so /things/123 and /things/456 share one quota.
type OperationResolver func(*http.Request) OperationID

// CallerResolver derives the caller identity for a request. The default
// is the remote address with the port stripped; deployments behind a
// proxy should resolve the forwarded client address before this runs, or
// supply their own resolver.
type CallerResolver func(*http.Request) string

// Throttle intercepts requests and rejects those whose caller has
// exceeded the operation's quota. Operations without a registered quota
// pass through with a single map read and no store call.
type Throttle struct {
	registry      *Registry
	store         CounterStore
	logger        *zap.Logger
	resolveOp     OperationResolver
	resolveCaller CallerResolver
	now           func() time.Time
}

// MiddlewareOption configures a Throttle.
type MiddlewareOption func(*Throttle)

// WithOperationResolver overrides how operation identity is derived.
func WithOperationResolver(r OperationResolver) MiddlewareOption {
	return func(t *Throttle) {
		if r != nil {
			t.resolveOp = r
		}
	}
}

// WithCallerResolver overrides how caller identity is derived.
func WithCallerResolver(r CallerResolver) MiddlewareOption {
	return func(t *Throttle) {
		if r != nil {
			t.resolveCaller = r
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MiddlewareOption {
	return func(t *Throttle) {
		if now != nil {
			t.now = now
		}
	}
}

// New builds a Throttle over a frozen registry and a counter store.
// A nil logger discards log output.
func New(registry *Registry, store CounterStore, logger *zap.Logger, opts ...MiddlewareOption) *Throttle {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Throttle{
		registry:      registry,
		store:         store,
		logger:        logger,
		resolveOp:     DefaultOperationResolver,
		resolveCaller: DefaultCallerResolver,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DefaultOperationResolver names an operation "METHOD path".
func DefaultOperationResolver(r *http.Request) OperationID {
	return OperationID(r.Method + " " + r.URL.Path)
}

// DefaultCallerResolver returns the remote host without the port.
func DefaultCallerResolver(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware wraps next with the throttle check. On deny it writes a 429
// and never invokes next. On a store failure it logs and lets the request
// through: quota enforcement is secondary to keeping the API available.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := t.resolveOp(r)
		quota, ok := t.registry.Lookup(op)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		caller := t.resolveCaller(r)
		key := caller + ":" + string(op)

		verdict, err := t.store.Evaluate(r.Context(), key, quota, t.now().Unix())
		if err != nil {
			// Fail open: a store outage must not take the API down with it.
			t.logger.Warn("quota evaluation failed, allowing request",
				zap.String("operation", string(op)),
				zap.String("caller", caller),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if verdict == VerdictDeny {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, DenyMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}
