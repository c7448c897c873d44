package trace_sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservoirQuota(t *testing.T) {
	r := &reservoir{perSecond: 2}
	now := time.Unix(1000, 0)
	assert.True(t, r.Take(now))
	assert.True(t, r.Take(now))
	assert.False(t, r.Take(now))
	// quota refills next second
	assert.True(t, r.Take(now.Add(time.Second)))
}

func TestReservoirZeroTarget(t *testing.T) {
	r := &reservoir{}
	assert.False(t, r.Take(time.Now()))
}

func TestSamplerFirstMatchingRuleWins(t *testing.T) {
	s := New(
		Rule{Description: "health", Host: "*", HTTPMethod: "GET", URLPath: "/health", FixedTarget: 0, Rate: 0},
		Rule{Description: "catch-all", Host: "*", HTTPMethod: "*", URLPath: "*", FixedTarget: 1000, Rate: 1},
	)

	d := s.Sample(Request{Host: "api.example.com", Method: "GET", URLPath: "/health"})
	assert.False(t, d.Sampled)
	assert.Equal(t, "health", d.RuleName)

	d = s.Sample(Request{Host: "api.example.com", Method: "GET", URLPath: "/users"})
	assert.True(t, d.Sampled)
	assert.Equal(t, "catch-all", d.RuleName)
}

func TestSamplerDefaultRule(t *testing.T) {
	s := New()
	d := s.Sample(Request{Host: "any", Method: "GET", URLPath: "/"})
	// first request of the second always fits the default fixed target
	assert.True(t, d.Sampled)
	assert.Equal(t, "default", d.RuleName)
}

func TestSamplerCustomDefault(t *testing.T) {
	s := New().WithDefault(Rule{Description: "never", FixedTarget: 0, Rate: 0})
	for i := 0; i < 10; i++ {
		d := s.Sample(Request{Host: "any", Method: "GET", URLPath: "/"})
		assert.False(t, d.Sampled)
		assert.Equal(t, "never", d.RuleName)
	}
}

func TestSamplerRateOverflow(t *testing.T) {
	s := New(Rule{Description: "all", Host: "*", HTTPMethod: "*", URLPath: "*", FixedTarget: 0, Rate: 1})
	for i := 0; i < 10; i++ {
		assert.True(t, s.Sample(Request{Host: "h", Method: "GET", URLPath: "/"}).Sampled)
	}
}
