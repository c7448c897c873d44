package xrayagent

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/id_generator"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
)

var (
	// ErrNilRecorder and ErrNilNamer are construction-time failures;
	// misconfiguration surfaces immediately, never at request time.
	ErrNilRecorder = errors.New("recorder must not be nil")
	ErrNilNamer    = errors.New("segment namer must not be nil")
)

type interceptorConfig struct {
	logger      logger.Logger
	serviceType string
	ctxMissing  ContextMissingStrategy
}

type InterceptorOption func(*interceptorConfig)

func newDefaultInterceptorConfig() interceptorConfig {
	return interceptorConfig{
		logger:      &logger.NoopLogger{},
		serviceType: Web,
	}
}

func WithLogger(l logger.Logger) InterceptorOption {
	return func(c *interceptorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithServiceType(serviceType string) InterceptorOption {
	return func(c *interceptorConfig) {
		if serviceType != "" {
			c.serviceType = serviceType
		}
	}
}

func WithContextMissingStrategy(s ContextMissingStrategy) InterceptorOption {
	return func(c *interceptorConfig) {
		if s != nil {
			c.ctxMissing = s
		}
	}
}

// Interceptor wires trace header parsing, sampling arbitration, segment
// lifecycle and attribute collection into the three lifecycle events a
// host HTTP pipeline exposes. It holds no host-framework dependency; the
// contrib packages adapt frameworks onto these three calls.
type Interceptor struct {
	recorder    Recorder
	namer       SegmentNamer
	logger      logger.Logger
	serviceType string

	lifecycle lifecycleController
	arbiter   samplingArbiter
	ids       *id_generator.IdGenerator
}

// NewInterceptor builds the orchestrator. The naming strategy is fixed
// for the interceptor's lifetime.
func NewInterceptor(recorder Recorder, namer SegmentNamer, opts ...InterceptorOption) (*Interceptor, error) {
	if recorder == nil {
		return nil, ErrNilRecorder
	}
	if namer == nil {
		return nil, ErrNilNamer
	}
	config := newDefaultInterceptorConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.ctxMissing == nil {
		config.ctxMissing = &LogErrorContextMissingStrategy{Logger: config.logger}
	}
	return &Interceptor{
		recorder:    recorder,
		namer:       namer,
		logger:      config.logger,
		serviceType: config.serviceType,
		lifecycle: lifecycleController{
			recorder:   recorder,
			logger:     config.logger,
			ctxMissing: config.ctxMissing,
		},
		arbiter: samplingArbiter{
			strategy: recorder.Strategy(),
			logger:   config.logger,
		},
		ids: id_generator.New(),
	}, nil
}

// BeginRequest derives the trace context, arbitrates sampling and opens
// the segment. The returned context carries the RequestContext and must
// be used for the rest of the request.
func (itc *Interceptor) BeginRequest(ctx context.Context, req *http.Request) context.Context {
	startTime := time.Now()

	rc := RequestFromContext(ctx)
	if rc == nil {
		rc = &RequestContext{}
		ctx = ContextWithRequest(ctx, rc)
	}
	if rc.opened {
		itc.logger.Info("begin fired twice for one request, keeping the open segment")
		return ctx
	}

	header := itc.parseOrSynthesize(req)
	name := itc.namer.Name(req.Host)

	sampling := SamplingResponse{Decision: header.Sampled}
	if !header.Sampled.Resolved() {
		sampling = itc.arbiter.Arbitrate(&header, SamplingInput{
			Host:        req.Host,
			URLPath:     urlPath(req),
			Method:      req.Method,
			SegmentName: name,
			ServiceType: itc.serviceType,
		})
	}

	rc.header = header
	rc.sampling = sampling

	itc.lifecycle.open(rc, name, startTime)

	if !itc.recorder.TracingDisabled() && rc.entity != nil {
		collectRequestAttributes(rc.entity, req)
	}
	return ctx
}

// EndRequest collects response attributes, resolves any still-undecided
// sampling state from the segment, closes it and, when the caller asked
// with Sampled=?, reports the resolved decision on the response. The
// inbound header is parsed fresh here; hosts may run begin and end as
// logically separate callbacks.
func (itc *Interceptor) EndRequest(ctx context.Context, req *http.Request, resp *Response) {
	endTime := time.Now()
	rc := RequestFromContext(ctx)

	if rc != nil && rc.entity != nil && !itc.recorder.TracingDisabled() {
		collectResponseAttributes(rc.entity, resp)
	}

	header := itc.parseOrSynthesize(req)
	requested := header.Sampled == SampleRequested

	itc.lifecycle.close(rc, &header, endTime)

	if requested && resp != nil && resp.Header != nil {
		resp.Header.Set(TraceHeaderKey, header.String())
	}
}

// HandleError attaches the error to the request's segment. Hosts may fire
// the error event before begin-request ever ran, so it is routed through
// the same begin handling first; opening is idempotent when both fire.
func (itc *Interceptor) HandleError(ctx context.Context, req *http.Request, err error) context.Context {
	ctx = itc.BeginRequest(ctx, req)
	if err == nil {
		return ctx
	}
	if rc := RequestFromContext(ctx); rc != nil && rc.entity != nil {
		rc.entity.AddException(err)
	}
	return ctx
}

// parseOrSynthesize falls back to a fresh header with a new root trace id
// when the inbound value is absent or malformed; a bad header is never an
// error.
func (itc *Interceptor) parseOrSynthesize(req *http.Request) TraceHeader {
	header, ok := ParseTraceHeader(req.Header.Get(TraceHeaderKey))
	if !ok {
		header = TraceHeader{RootTraceID: itc.ids.TraceID()}
	}
	return header
}

func urlPath(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	return req.URL.Path
}
