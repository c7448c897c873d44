package logrus

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

func TestHookStampsTraceID(t *testing.T) {
	rec := xrayagent.NewSegmentRecorder()
	itc, err := xrayagent.NewInterceptor(rec, xrayagent.NewFixedSegmentNamer("svc"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "http://api.example.com/", nil)
	req.Header.Set(xrayagent.TraceHeaderKey, "Root=1-5759e988-bd862e3fe1be46a994272793;Sampled=1")
	ctx := itc.BeginRequest(context.Background(), req)
	seg := xrayagent.SegmentFromContext(ctx)
	require.NotNil(t, seg)

	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.AddHook(NewHook(logrus.AllLevels))

	log.WithContext(ctx).Info("handling request")

	assert.Contains(t, buf.String(), seg.TraceID())
	assert.Contains(t, buf.String(), seg.ID())
}

func TestHookNoContextIsNoop(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.AddHook(NewHook(logrus.AllLevels))

	log.Info("plain message")

	assert.NotContains(t, buf.String(), "trace_id")
}

func TestAgentLoggerForwards(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)

	al := NewAgentLogger(log)
	al.Error("dropped %d segments", 3)

	assert.Contains(t, buf.String(), "dropped 3 segments")
}
