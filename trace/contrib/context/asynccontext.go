package context

import (
	"context"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

// NewContextForAsyncTracing creates a ctx for async work tracing.
// A request-scoped ctx handed to a background goroutine is canceled when
// the request finishes, which cancels the async work with it. This keeps
// the tracing state while dropping the cancelation chain.
func NewContextForAsyncTracing(ctx context.Context) context.Context {
	detached := context.Background()
	if rc := xrayagent.RequestFromContext(ctx); rc != nil {
		detached = xrayagent.ContextWithRequest(detached, rc)
	}
	if sub := xrayagent.SubsegmentFromContext(ctx); sub != nil {
		detached = xrayagent.ContextWithSubsegment(detached, sub)
	}
	return detached
}
