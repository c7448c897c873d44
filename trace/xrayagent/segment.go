package xrayagent

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/id_generator"
)

// Segment is the recorded unit of work for one request. Root segments are
// created and closed by the recorder; subsegments describe downstream
// calls made while the request was in flight and are closed by the
// instrumentation that opened them.
type Segment struct {
	mu sync.Mutex

	name     string
	id       string
	traceID  string
	parentID string

	startTime time.Time
	endTime   time.Time

	decision SampleDecision
	ruleName string

	httpRequest  map[string]interface{}
	httpResponse map[string]interface{}

	exceptions []exceptionInfo

	errorFlag    bool
	throttleFlag bool
	faultFlag    bool

	annotations map[string]interface{}
	sql         map[string]string
	namespace   string

	autoInstrumented bool
	instanceID       string

	subsegments []*Segment

	ids *id_generator.IdGenerator

	closed int64
}

type exceptionInfo struct {
	Message string
	Type    string
}

func newSegment(ids *id_generator.IdGenerator, name string, header TraceHeader, sampling SamplingResponse, startTime time.Time) *Segment {
	return &Segment{
		name:      name,
		id:        ids.SegmentID(),
		traceID:   header.RootTraceID,
		parentID:  header.ParentID,
		startTime: startTime,
		decision:  sampling.Decision,
		ruleName:  sampling.RuleName,
		ids:       ids,
	}
}

func (s *Segment) ID() string      { return s.id }
func (s *Segment) Name() string    { return s.name }
func (s *Segment) TraceID() string { return s.traceID }

// Decision is the sampling decision recorded for this segment. The
// lifecycle controller reads it back when the in-flight header is still
// unresolved at the end of a request.
func (s *Segment) Decision() SampleDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decision
}

func (s *Segment) setDecision(d SampleDecision) {
	s.mu.Lock()
	s.decision = d
	s.mu.Unlock()
}

// DownstreamHeader is the trace header to propagate on calls made while
// this segment is open.
func (s *Segment) DownstreamHeader() TraceHeader {
	return TraceHeader{
		RootTraceID: s.traceID,
		ParentID:    s.id,
		Sampled:     s.Decision(),
	}
}

func (s *Segment) AddHTTPRequest(attrs map[string]interface{}) {
	s.mu.Lock()
	s.httpRequest = attrs
	s.mu.Unlock()
}

func (s *Segment) AddHTTPResponse(attrs map[string]interface{}) {
	s.mu.Lock()
	s.httpResponse = attrs
	s.mu.Unlock()
}

func (s *Segment) AddException(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.exceptions = append(s.exceptions, exceptionInfo{
		Message: err.Error(),
		Type:    errorType(err),
	})
	s.faultFlag = true
	s.mu.Unlock()
}

func (s *Segment) MarkFromStatus(status int) {
	s.mu.Lock()
	switch {
	case status == 429:
		s.throttleFlag = true
		s.errorFlag = true
	case status >= 400 && status < 500:
		s.errorFlag = true
	case status >= 500:
		s.faultFlag = true
	}
	s.mu.Unlock()
}

func (s *Segment) AddAutoInstrumentationMark() error {
	if s.isClosed() {
		return ErrEntityClosed
	}
	s.mu.Lock()
	s.autoInstrumented = true
	s.mu.Unlock()
	return nil
}

func (s *Segment) AddAnnotation(key string, value interface{}) {
	s.mu.Lock()
	if s.annotations == nil {
		s.annotations = map[string]interface{}{}
	}
	s.annotations[key] = value
	s.mu.Unlock()
}

// SetNamespace marks a subsegment as a remote call.
func (s *Segment) SetNamespace(namespace string) {
	s.mu.Lock()
	s.namespace = namespace
	s.mu.Unlock()
}

// SetSQL records query information on a database subsegment.
func (s *Segment) SetSQL(sql map[string]string) {
	s.mu.Lock()
	s.sql = sql
	s.mu.Unlock()
}

// BeginSubsegment opens a subsegment describing a downstream call. The
// caller closes it with Close.
func (s *Segment) BeginSubsegment(name string, startTime time.Time) *Segment {
	sub := &Segment{
		name:      name,
		id:        s.ids.SegmentID(),
		traceID:   s.traceID,
		parentID:  s.id,
		startTime: startTime,
		decision:  s.Decision(),
		ids:       s.ids,
	}
	s.mu.Lock()
	s.subsegments = append(s.subsegments, sub)
	s.mu.Unlock()
	return sub
}

// Close finishes a subsegment. A non-nil err sets the fault flag and is
// recorded as an exception. Closing twice is a no-op.
func (s *Segment) Close(err error) {
	if !atomic.CompareAndSwapInt64(&s.closed, 0, 1) {
		return
	}
	s.mu.Lock()
	s.endTime = time.Now()
	s.mu.Unlock()
	s.AddException(err)
}

func (s *Segment) close(endTime time.Time) bool {
	if !atomic.CompareAndSwapInt64(&s.closed, 0, 1) {
		return false
	}
	s.mu.Lock()
	s.endTime = endTime
	s.mu.Unlock()
	return true
}

func (s *Segment) isClosed() bool {
	return atomic.LoadInt64(&s.closed) == 1
}

// segmentDocument is the collector daemon's JSON shape.
type segmentDocument struct {
	Name        string                            `json:"name"`
	ID          string                            `json:"id"`
	TraceID     string                            `json:"trace_id,omitempty"`
	ParentID    string                            `json:"parent_id,omitempty"`
	StartTime   float64                           `json:"start_time"`
	EndTime     float64                           `json:"end_time,omitempty"`
	InProgress  bool                              `json:"in_progress,omitempty"`
	Type        string                            `json:"type,omitempty"`
	Namespace   string                            `json:"namespace,omitempty"`
	HTTP        map[string]map[string]interface{} `json:"http,omitempty"`
	SQL         map[string]string                 `json:"sql,omitempty"`
	Annotations map[string]interface{}            `json:"annotations,omitempty"`
	Cause       *causeDocument                    `json:"cause,omitempty"`
	Error       bool                              `json:"error,omitempty"`
	Throttle    bool                              `json:"throttle,omitempty"`
	Fault       bool                              `json:"fault,omitempty"`
	AWS         map[string]interface{}            `json:"aws,omitempty"`
	Subsegments []*segmentDocument                `json:"subsegments,omitempty"`
}

type causeDocument struct {
	Exceptions []exceptionDocument `json:"exceptions"`
}

type exceptionDocument struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// MarshalDocument renders the segment and its subsegments as one daemon
// document.
func (s *Segment) MarshalDocument() ([]byte, error) {
	return json.Marshal(s.document(true))
}

func (s *Segment) document(root bool) *segmentDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &segmentDocument{
		Name:      s.name,
		ID:        s.id,
		TraceID:   s.traceID,
		ParentID:  s.parentID,
		StartTime: toEpochSeconds(s.startTime),
		Namespace: s.namespace,
		SQL:       s.sql,
		Error:     s.errorFlag,
		Throttle:  s.throttleFlag,
		Fault:     s.faultFlag,
	}
	if !root {
		doc.Type = "subsegment"
	}
	if s.endTime.IsZero() {
		doc.InProgress = true
	} else {
		doc.EndTime = toEpochSeconds(s.endTime)
	}
	if s.httpRequest != nil || s.httpResponse != nil {
		doc.HTTP = map[string]map[string]interface{}{}
		if s.httpRequest != nil {
			doc.HTTP["request"] = s.httpRequest
		}
		if s.httpResponse != nil {
			doc.HTTP["response"] = s.httpResponse
		}
	}
	if len(s.exceptions) > 0 {
		cause := &causeDocument{}
		for _, e := range s.exceptions {
			cause.Exceptions = append(cause.Exceptions, exceptionDocument{Message: e.Message, Type: e.Type})
		}
		doc.Cause = cause
	}
	doc.Annotations = s.annotations
	if s.autoInstrumented || s.ruleName != "" || s.instanceID != "" {
		xray := map[string]interface{}{}
		if s.autoInstrumented {
			xray["auto_instrumentation"] = true
		}
		if s.ruleName != "" {
			xray["sample_rule_name"] = s.ruleName
		}
		doc.AWS = map[string]interface{}{"xray": xray}
		if s.instanceID != "" {
			doc.AWS["instance_id"] = s.instanceID
		}
	}
	for _, sub := range s.subsegments {
		doc.Subsegments = append(doc.Subsegments, sub.document(false))
	}
	return doc
}

func toEpochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func errorType(err interface{}) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return ""
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
}
