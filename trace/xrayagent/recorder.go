package xrayagent

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/2dmdigital/xray-go-agent/metrics"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/id_generator"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/segment_sender"
)

type recorderConfig struct {
	daemonAddress string
	logger        logger.Logger
	strategy      SamplingStrategy
	senderNumber  int
	chanSize      int
	disabled      bool
	metrics       *metrics.MetricsClient
}

type RecorderOption func(*recorderConfig)

func newDefaultRecorderConfig() recorderConfig {
	return recorderConfig{
		daemonAddress: "127.0.0.1:2000",
		logger:        &logger.NoopLogger{},
		senderNumber:  1,
		chanSize:      256,
	}
}

func WithDaemonAddress(addr string) RecorderOption {
	return func(c *recorderConfig) {
		if addr != "" {
			c.daemonAddress = addr
		}
	}
}

func WithRecorderLogger(l logger.Logger) RecorderOption {
	return func(c *recorderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithSamplingStrategy(s SamplingStrategy) RecorderOption {
	return func(c *recorderConfig) {
		if s != nil {
			c.strategy = s
		}
	}
}

func WithSenderNumber(n int) RecorderOption {
	return func(c *recorderConfig) {
		if n > 0 {
			c.senderNumber = n
		}
	}
}

func WithSenderChanSize(n int) RecorderOption {
	return func(c *recorderConfig) {
		if n > 0 {
			c.chanSize = n
		}
	}
}

// WithDisabled turns attribute collection off globally. Segments are
// still opened and closed so propagation stays intact.
func WithDisabled(disabled bool) RecorderOption {
	return func(c *recorderConfig) {
		c.disabled = disabled
	}
}

// WithMetricsClient reports recorder health counters to the given
// client.
func WithMetricsClient(mc *metrics.MetricsClient) RecorderOption {
	return func(c *recorderConfig) {
		c.metrics = mc
	}
}

var (
	instanceIDOnce sync.Once
	instanceID     string
)

// getInstanceID returns the unique id representing the current process.
func getInstanceID() string {
	instanceIDOnce.Do(func() {
		randUUID, _ := uuid.NewRandom()
		instanceID = strings.Replace(randUUID.String(), "-", "", -1)
	})
	return instanceID
}

// SegmentRecorder is the default Recorder. Finished sampled segments are
// marshaled and handed to background senders over a bounded channel;
// pushing never blocks the request path.
type SegmentRecorder struct {
	logger   logger.Logger
	ids      *id_generator.IdGenerator
	strategy SamplingStrategy
	disabled bool
	metrics  *metrics.MetricsClient

	out     chan []byte
	senders []*segment_sender.SegmentSender

	dropped int64
}

func NewSegmentRecorder(opts ...RecorderOption) *SegmentRecorder {
	config := newDefaultRecorderConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.strategy == nil {
		config.strategy = NewLocalSamplingStrategy()
	}
	r := &SegmentRecorder{
		logger:   config.logger,
		ids:      id_generator.New(),
		strategy: config.strategy,
		disabled: config.disabled,
		metrics:  config.metrics,
		out:      make(chan []byte, config.chanSize),
	}
	for i := 0; i < config.senderNumber; i++ {
		r.senders = append(r.senders, segment_sender.NewSegmentSender(config.daemonAddress, r.out, config.logger))
	}
	return r
}

func (r *SegmentRecorder) Start() {
	for _, s := range r.senders {
		s.Start()
	}
}

func (r *SegmentRecorder) Stop() {
	close(r.out)
	for _, s := range r.senders {
		s.WaitStop()
	}
}

// NewTraceID generates a fresh root trace id.
func (r *SegmentRecorder) NewTraceID() string {
	return r.ids.TraceID()
}

func (r *SegmentRecorder) BeginSegment(name string, header TraceHeader, sampling SamplingResponse, startTime time.Time) (Entity, error) {
	seg := newSegment(r.ids, name, header, sampling, startTime)
	seg.instanceID = getInstanceID()
	return seg, nil
}

func (r *SegmentRecorder) EndSegment(entity Entity, endTime time.Time) {
	seg, ok := entity.(*Segment)
	if !ok {
		r.logger.Error("unexpected entity type %T", entity)
		return
	}
	if !seg.close(endTime) {
		return
	}
	if seg.Decision() != SampleSampled {
		return
	}
	r.emit(seg)
}

func (r *SegmentRecorder) TracingDisabled() bool {
	return r.disabled
}

func (r *SegmentRecorder) Strategy() SamplingStrategy {
	return r.strategy
}

func (r *SegmentRecorder) emit(seg *Segment) {
	doc, err := seg.MarshalDocument()
	if err != nil {
		r.logger.Error("marshal segment %s failed: %v", seg.ID(), err)
		return
	}
	select {
	case r.out <- doc: // non-blocking, otherwise EndSegment could stall a request
		if r.metrics != nil {
			_ = r.metrics.EmitCounter("segments_emitted", 1, nil)
		}
	default:
		n := atomic.AddInt64(&r.dropped, 1)
		r.logger.Error("segment channel full, dropped %d segments so far", n)
		if r.metrics != nil {
			_ = r.metrics.EmitCounter("segments_dropped", 1, nil)
		}
	}
}
