package xrayagent

import (
	"time"
)

type fakeStrategy struct {
	resp      SamplingResponse
	err       error
	calls     int
	lastInput SamplingInput
}

func (s *fakeStrategy) ShouldTrace(in SamplingInput) (SamplingResponse, error) {
	s.calls++
	s.lastInput = in
	return s.resp, s.err
}

// fakeEntity implements Entity without being a *Segment, which also makes
// it useful for decision-recovery mismatch tests.
type fakeEntity struct {
	reqAttrs  map[string]interface{}
	respAttrs map[string]interface{}
	excs      []error
	statuses  []int
	marked    bool
	markErr   error
}

func (e *fakeEntity) AddHTTPRequest(attrs map[string]interface{})  { e.reqAttrs = attrs }
func (e *fakeEntity) AddHTTPResponse(attrs map[string]interface{}) { e.respAttrs = attrs }
func (e *fakeEntity) AddException(err error)                       { e.excs = append(e.excs, err) }
func (e *fakeEntity) MarkFromStatus(status int)                    { e.statuses = append(e.statuses, status) }
func (e *fakeEntity) AddAutoInstrumentationMark() error {
	if e.markErr != nil {
		return e.markErr
	}
	e.marked = true
	return nil
}

type fakeRecorder struct {
	begins int
	ends   int

	lastName     string
	lastHeader   TraceHeader
	lastSampling SamplingResponse
	lastStart    time.Time
	lastEnd      time.Time

	entity   Entity
	beginErr error
	disabled bool
	strategy SamplingStrategy
}

func (r *fakeRecorder) BeginSegment(name string, header TraceHeader, sampling SamplingResponse, startTime time.Time) (Entity, error) {
	r.begins++
	r.lastName = name
	r.lastHeader = header
	r.lastSampling = sampling
	r.lastStart = startTime
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	if r.entity == nil {
		r.entity = &fakeEntity{}
	}
	return r.entity, nil
}

func (r *fakeRecorder) EndSegment(entity Entity, endTime time.Time) {
	r.ends++
	r.lastEnd = endTime
}

func (r *fakeRecorder) TracingDisabled() bool { return r.disabled }

func (r *fakeRecorder) Strategy() SamplingStrategy {
	if r.strategy == nil {
		r.strategy = &fakeStrategy{resp: SamplingResponse{Decision: SampleSampled}}
	}
	return r.strategy
}

type countingCtxMissing struct {
	calls    int
	messages []string
}

func (s *countingCtxMissing) ContextMissing(message string) {
	s.calls++
	s.messages = append(s.messages, message)
}
