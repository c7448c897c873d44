package xrayagent

import (
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
)

// lifecycleController moves one request's segment through
// Idle -> Open -> Closed. Open and close are each effective exactly once
// per RequestContext; everything that can fail in between is metadata and
// must never prevent the close.
type lifecycleController struct {
	recorder   Recorder
	logger     logger.Logger
	ctxMissing ContextMissingStrategy
}

// open begins the segment with the timestamp captured when the host
// reported the event. A second open on the same context is a no-op.
func (c *lifecycleController) open(rc *RequestContext, name string, startTime time.Time) {
	if rc.opened {
		c.logger.Info("segment already open for this request, ignoring second open")
		return
	}
	entity, err := c.recorder.BeginSegment(name, rc.header, rc.sampling, startTime)
	if err != nil {
		c.logger.Error("begin segment %q failed: %v", name, err)
		return
	}
	rc.entity = entity
	rc.opened = true

	// metadata only; a failed mark must not abort the request
	if err := entity.AddAutoInstrumentationMark(); err != nil {
		c.logger.Error("auto instrumentation mark failed: %v", err)
	}
}

// close resolves a still-undecided header from the open segment, then
// closes it. Recovery failures leave the header's prior decision in
// place.
func (c *lifecycleController) close(rc *RequestContext, header *TraceHeader, endTime time.Time) {
	if !header.Sampled.Resolved() {
		c.recoverDecision(rc, header)
	}
	if rc == nil || rc.entity == nil || rc.closed {
		return
	}
	rc.closed = true
	c.recorder.EndSegment(rc.entity, endTime)
}

// recoverDecision folds the decision the recorder actually applied (it
// may differ from the arbiter's, e.g. under rate limiting) back into the
// header.
func (c *lifecycleController) recoverDecision(rc *RequestContext, header *TraceHeader) {
	if rc == nil || rc.entity == nil {
		c.ctxMissing.ContextMissing("no active segment to recover the sampling decision from")
		return
	}
	seg, ok := rc.entity.(*Segment)
	if !ok {
		c.logger.Error("cannot recover sampling decision from entity of type %T", rc.entity)
		return
	}
	if d := seg.Decision(); d.Resolved() {
		header.Sampled = d
	}
}
