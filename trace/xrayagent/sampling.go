package xrayagent

import (
	"sync"
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/rule_fetcher"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/trace_sampler"
)

// SamplingInput is the per-request snapshot handed to the sampling
// strategy. It is derived fresh for every request and never cached.
type SamplingInput struct {
	Host        string
	URLPath     string
	Method      string
	SegmentName string
	ServiceType string
}

// SamplingResponse carries the decision and, when a strategy rule decided,
// the rule's name. The rule name is reported alongside the decision and
// never persisted beyond the current request.
type SamplingResponse struct {
	RuleName string
	Decision SampleDecision
}

// SamplingStrategy decides whether a request should be traced. The
// strategy is authoritative for undecided requests and must not block.
type SamplingStrategy interface {
	ShouldTrace(in SamplingInput) (SamplingResponse, error)
}

// samplingArbiter resolves a header's sampling state against the
// strategy. Decisions already made upstream pass through untouched.
type samplingArbiter struct {
	strategy SamplingStrategy
	logger   logger.Logger
}

func (a *samplingArbiter) Arbitrate(h *TraceHeader, in SamplingInput) SamplingResponse {
	if h.Sampled.Resolved() {
		return SamplingResponse{Decision: h.Sampled}
	}
	resp, err := a.strategy.ShouldTrace(in)
	if err != nil {
		a.logger.Error("sampling strategy failed, falling back to not sampled: %v", err)
		resp = SamplingResponse{Decision: SampleNotSampled}
	}
	if !resp.Decision.Resolved() {
		resp.Decision = SampleNotSampled
	}
	h.Sampled = resp.Decision
	return resp
}

type localStrategy struct {
	sampler *trace_sampler.Sampler
}

// NewLocalSamplingStrategy builds a strategy over the rule-based local
// sampler. With no rules, the default rule (one request per second plus
// five percent of the overflow) applies.
func NewLocalSamplingStrategy(rules ...trace_sampler.Rule) SamplingStrategy {
	return &localStrategy{sampler: trace_sampler.New(rules...)}
}

func (s *localStrategy) ShouldTrace(in SamplingInput) (SamplingResponse, error) {
	d := s.sampler.Sample(trace_sampler.Request{
		Host:    in.Host,
		Method:  in.Method,
		URLPath: in.URLPath,
	})
	resp := SamplingResponse{RuleName: d.RuleName, Decision: SampleNotSampled}
	if d.Sampled {
		resp.Decision = SampleSampled
	}
	return resp, nil
}

// RemoteSamplingStrategy samples with the rules configured centrally on
// the collector. It starts from the local defaults and swaps in a fresh
// sampler every time the daemon reports a rule change.
type RemoteSamplingStrategy struct {
	mu      sync.RWMutex
	sampler *trace_sampler.Sampler
	fetcher *rule_fetcher.Fetcher
}

type RemoteSamplingConfig struct {
	DaemonAddress string
	Logger        logger.Logger
	Interval      time.Duration
}

func NewRemoteSamplingStrategy(config RemoteSamplingConfig) *RemoteSamplingStrategy {
	s := &RemoteSamplingStrategy{
		sampler: trace_sampler.New(),
	}
	s.fetcher = rule_fetcher.NewRuleFetcher(rule_fetcher.Config{
		DaemonAddress: config.DaemonAddress,
		Logger:        config.Logger,
		Interval:      config.Interval,
		Notifier:      []func([]trace_sampler.Rule){s.setRules},
	})
	return s
}

func (s *RemoteSamplingStrategy) Start() { s.fetcher.Start() }
func (s *RemoteSamplingStrategy) Stop()  { s.fetcher.Stop() }

func (s *RemoteSamplingStrategy) setRules(rules []trace_sampler.Rule) {
	sampler := trace_sampler.New(rules...)
	s.mu.Lock()
	s.sampler = sampler
	s.mu.Unlock()
}

func (s *RemoteSamplingStrategy) ShouldTrace(in SamplingInput) (SamplingResponse, error) {
	s.mu.RLock()
	sampler := s.sampler
	s.mu.RUnlock()
	d := sampler.Sample(trace_sampler.Request{
		Host:    in.Host,
		Method:  in.Method,
		URLPath: in.URLPath,
	})
	resp := SamplingResponse{RuleName: d.RuleName, Decision: SampleNotSampled}
	if d.Sampled {
		resp.Decision = SampleSampled
	}
	return resp, nil
}
