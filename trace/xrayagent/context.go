package xrayagent

import "context"

// RequestContext is the per-request state threaded from begin to end. It
// is never shared across requests; concurrency only ever comes from the
// host serving many requests, each with its own context.
type RequestContext struct {
	header   TraceHeader
	sampling SamplingResponse
	entity   Entity
	opened   bool
	closed   bool
}

// Entity returns the open segment handle, nil before begin or when the
// recorder refused to open one.
func (rc *RequestContext) Entity() Entity {
	if rc == nil {
		return nil
	}
	return rc.entity
}

// TraceHeader returns the in-flight header derived at begin-request.
func (rc *RequestContext) TraceHeader() TraceHeader {
	return rc.header
}

type requestContextKey struct{}

var activeRequestContextKey requestContextKey

func ContextWithRequest(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, activeRequestContextKey, rc)
}

func RequestFromContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return nil
	}
	rc, _ := ctx.Value(activeRequestContextKey).(*RequestContext)
	return rc
}

// SegmentFromContext returns the current request's segment when the
// default recorder is in use. Client instrumentation uses it to hang
// subsegments off the active request.
func SegmentFromContext(ctx context.Context) *Segment {
	rc := RequestFromContext(ctx)
	if rc == nil || rc.entity == nil {
		return nil
	}
	seg, _ := rc.entity.(*Segment)
	return seg
}

type subsegmentKey struct{}

var activeSubsegmentKey subsegmentKey

// ContextWithSubsegment carries an open subsegment across hook-style
// instrumentation that splits begin and end into separate callbacks.
func ContextWithSubsegment(ctx context.Context, sub *Segment) context.Context {
	return context.WithValue(ctx, activeSubsegmentKey, sub)
}

func SubsegmentFromContext(ctx context.Context) *Segment {
	if ctx == nil {
		return nil
	}
	sub, _ := ctx.Value(activeSubsegmentKey).(*Segment)
	return sub
}
