package rule_fetcher

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/trace_sampler"
)

const rulesBody = `{
	"SamplingRuleRecords": [
		{"SamplingRule": {"RuleName": "checkout", "Priority": 5, "Host": "*", "HTTPMethod": "POST", "URLPath": "/checkout/*", "ReservoirSize": 10, "FixedRate": 0.5}},
		{"SamplingRule": {"RuleName": "health", "Priority": 1, "Host": "*", "HTTPMethod": "GET", "URLPath": "/health", "ReservoirSize": 0, "FixedRate": 0}}
	]
}`

func TestFetcherParsesAndSortsRules(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, rulesPath, r.URL.Path)
		w.Write([]byte(rulesBody))
	}))
	defer srv.Close()

	var got []trace_sampler.Rule
	f := NewRuleFetcher(Config{
		DaemonAddress: srv.Listener.Addr().String(),
		Timeout:       time.Second,
		Notifier:      []func([]trace_sampler.Rule){func(rules []trace_sampler.Rule) { got = rules }},
	})
	f.refreshRules()

	require.Len(t, got, 2)
	assert.Equal(t, "health", got[0].Description, "low priority value sorts first")
	assert.Equal(t, "checkout", got[1].Description)
	assert.Equal(t, int64(10), got[1].FixedTarget)
	assert.Equal(t, 0.5, got[1].Rate)
	assert.Equal(t, 1, calls)
}

func TestFetcherSkipsUnchangedRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rulesBody))
	}))
	defer srv.Close()

	var notified int
	f := NewRuleFetcher(Config{
		DaemonAddress: srv.Listener.Addr().String(),
		Notifier:      []func([]trace_sampler.Rule){func([]trace_sampler.Rule) { notified++ }},
	})
	f.refreshRules()
	f.refreshRules()

	assert.Equal(t, 1, notified)
}

func TestFetcherDaemonUnreachable(t *testing.T) {
	var notified int
	f := NewRuleFetcher(Config{
		DaemonAddress: "127.0.0.1:1",
		Timeout:       100 * time.Millisecond,
		Notifier:      []func([]trace_sampler.Rule){func([]trace_sampler.Rule) { notified++ }},
	})
	f.refreshRules()
	assert.Zero(t, notified)
}
