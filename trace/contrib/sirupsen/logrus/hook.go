package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

// NewHook returns a logrus.Hook that stamps entries logged under a
// traced context with the trace and segment ids, so application logs can
// be joined with the trace.
func NewHook(levels []logrus.Level) logrus.Hook {
	return &Hook{
		levels: levels,
	}
}

type Hook struct {
	levels []logrus.Level
}

func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

func (h *Hook) Fire(e *logrus.Entry) error {
	if e == nil || e.Context == nil {
		return nil
	}
	seg := xrayagent.SegmentFromContext(e.Context)
	if seg == nil {
		return nil
	}
	if e.Data == nil {
		e.Data = logrus.Fields{}
	}
	e.Data["trace_id"] = seg.TraceID()
	e.Data["segment_id"] = seg.ID()
	return nil
}
