package xrayagent

import (
	"errors"
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
)

var (
	// ErrEntityClosed is returned when metadata is added to a segment
	// that has already been closed.
	ErrEntityClosed = errors.New("segment already closed")
	// ErrNoSegment is returned by recorder operations that need an open
	// segment when none exists.
	ErrNoSegment = errors.New("no active segment")
)

// Entity is the handle for one open segment, owned by the recorder from
// begin to end. All methods are additive metadata; none of them affect
// request control flow.
type Entity interface {
	AddHTTPRequest(attrs map[string]interface{})
	AddHTTPResponse(attrs map[string]interface{})
	AddException(err error)
	// MarkFromStatus flags error (4xx), throttle (429) and fault (5xx)
	// state from the response status code.
	MarkFromStatus(status int)
	// AddAutoInstrumentationMark tags the segment as created by the
	// agent rather than by hand-written instrumentation. Cosmetic; a
	// failure is reported, logged by the caller and otherwise ignored.
	AddAutoInstrumentationMark() error
}

// Recorder owns segment storage, id generation and transmission to the
// collector. Implementations must be safe for concurrent use.
type Recorder interface {
	BeginSegment(name string, header TraceHeader, sampling SamplingResponse, startTime time.Time) (Entity, error)
	EndSegment(entity Entity, endTime time.Time)
	TracingDisabled() bool
	Strategy() SamplingStrategy
}

// ContextMissingStrategy is the policy hook invoked when the end of a
// request finds no segment to recover the sampling decision from.
type ContextMissingStrategy interface {
	ContextMissing(message string)
}

// LogErrorContextMissingStrategy logs and carries on; a missing segment
// means an untraced request, never a failed one.
type LogErrorContextMissingStrategy struct {
	Logger logger.Logger
}

func (s *LogErrorContextMissingStrategy) ContextMissing(message string) {
	if s.Logger != nil {
		s.Logger.Error("trace context missing: %s", message)
	}
}
