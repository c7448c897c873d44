package trace_sampler

import (
	cryptorand "crypto/rand"
	"math"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/internal"
)

// Rule matches requests by host, method and url path wildcards. A matched
// request is sampled when the rule's per-second reservoir still has quota,
// otherwise with probability Rate.
type Rule struct {
	Description string
	Host        string
	HTTPMethod  string
	URLPath     string
	FixedTarget int64
	Rate        float64
}

// Request is the subset of request data rules match against.
type Request struct {
	Host    string
	Method  string
	URLPath string
}

// Decision is the outcome for one request.
type Decision struct {
	Sampled  bool
	RuleName string
}

type matchRule struct {
	Rule
	reservoir *reservoir
}

func (r *matchRule) match(req Request) bool {
	return internal.WildcardMatch(r.Host, req.Host) &&
		internal.WildcardMatch(r.HTTPMethod, req.Method) &&
		internal.WildcardMatch(r.URLPath, req.URLPath)
}

func (r *matchRule) name() string {
	if r.Description != "" {
		return r.Description
	}
	return "default"
}

// Sampler applies an ordered rule set; the first matching rule wins and
// the default rule always matches last.
type Sampler struct {
	mu          sync.Mutex
	rand        *rand.Rand
	rules       []*matchRule
	defaultRule *matchRule
}

// DefaultRule is used when no custom default is configured: one request
// per second plus five percent of the overflow.
var DefaultRule = Rule{Description: "default", Host: "*", HTTPMethod: "*", URLPath: "*", FixedTarget: 1, Rate: 0.05}

func New(rules ...Rule) *Sampler {
	var seed int64
	seedN, err := cryptorand.Int(cryptorand.Reader, big.NewInt(math.MaxInt64))
	if err == nil {
		seed = seedN.Int64()
	} else {
		seed = time.Now().UnixNano()
	}
	s := &Sampler{
		rand: rand.New(rand.NewSource(seed)),
	}
	for _, r := range rules {
		s.rules = append(s.rules, newMatchRule(r))
	}
	s.defaultRule = newMatchRule(DefaultRule)
	return s
}

// WithDefault replaces the trailing default rule.
func (s *Sampler) WithDefault(r Rule) *Sampler {
	r.Host, r.HTTPMethod, r.URLPath = "*", "*", "*"
	s.defaultRule = newMatchRule(r)
	return s
}

func newMatchRule(r Rule) *matchRule {
	return &matchRule{
		Rule:      r,
		reservoir: &reservoir{perSecond: r.FixedTarget},
	}
}

// Sample decides whether to record the request and names the rule that
// decided.
func (s *Sampler) Sample(req Request) Decision {
	now := time.Now()
	for _, r := range s.rules {
		if r.match(req) {
			return Decision{Sampled: s.apply(r, now), RuleName: r.name()}
		}
	}
	return Decision{Sampled: s.apply(s.defaultRule, now), RuleName: s.defaultRule.name()}
}

func (s *Sampler) apply(r *matchRule, now time.Time) bool {
	if r.reservoir.Take(now) {
		return true
	}
	if r.Rate <= 0 {
		return false
	}
	s.mu.Lock()
	v := s.rand.Float64()
	s.mu.Unlock()
	return v < r.Rate
}
