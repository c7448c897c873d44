package example

import (
	"net/http"
	"testing"
	"time"

	"github.com/2dmdigital/xray-go-agent/metrics"
	xrayhttp "github.com/2dmdigital/xray-go-agent/trace/contrib/net/http"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/trace_sampler"
)

func TestTracedServer(t *testing.T) {
	if testing.Short() {
		t.Skip("example server")
	}

	rec := xrayagent.NewSegmentRecorder(
		xrayagent.WithDaemonAddress("127.0.0.1:2000"),
		xrayagent.WithSamplingStrategy(xrayagent.NewLocalSamplingStrategy(
			trace_sampler.Rule{Description: "no-health", Host: "*", HTTPMethod: "GET", URLPath: "/health", FixedTarget: 0, Rate: 0},
		)),
	)
	rec.Start()
	defer rec.Stop()

	itc, err := xrayagent.NewInterceptor(rec, xrayagent.NewFixedSegmentNamer("example-service"))
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: ":8080", Handler: xrayhttp.NewMiddleware(itc)(mux)}
	go srv.ListenAndServe()
	time.Sleep(100 * time.Millisecond)
	srv.Close()
}

func TestMetrics_WithNewClient(t *testing.T) {
	client := metrics.NewMetricClient(metrics.WithPrefix("xray"))
	client.Start()

	client.EmitCounter("example_counter_metric", 1, nil)
	client.EmitTimer("example_timer_metric", 1000, nil)
	client.EmitGauge("example_gauge_metric", 100, nil)

	tags := map[string]string{
		"tagKey": "tagValue",
	}
	client.EmitCounter("example_counter_metric", 1, tags)
	client.EmitTimer("example_timer_metric", 1000, tags)
	client.EmitGauge("example_gauge_metric", 100, tags)

	client.Close()
}

func TestMetrics_WithDefaultClient(t *testing.T) {
	metrics.Init(metrics.WithPrefix("xray"))

	metrics.EmitCounter("example_counter_metric", 1, nil)
	metrics.EmitTimer("example_timer_metric", 1000, nil)
	metrics.EmitGauge("example_gauge_metric", 100, nil)

	metrics.Close()
}
