package context

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

func TestAsyncContextKeepsSegment(t *testing.T) {
	rec := xrayagent.NewSegmentRecorder()
	itc, err := xrayagent.NewInterceptor(rec, xrayagent.NewFixedSegmentNamer("svc"))
	require.NoError(t, err)

	ctx := itc.BeginRequest(context.Background(), httptest.NewRequest("GET", "http://api.example.com/", nil))
	seg := xrayagent.SegmentFromContext(ctx)

	cancelable, cancel := context.WithCancel(ctx)
	detached := NewContextForAsyncTracing(cancelable)
	cancel()

	assert.NoError(t, detached.Err(), "detached ctx survives parent cancelation")
	assert.Equal(t, seg, xrayagent.SegmentFromContext(detached))
}

func TestAsyncContextWithoutTracing(t *testing.T) {
	detached := NewContextForAsyncTracing(context.Background())
	assert.Nil(t, xrayagent.SegmentFromContext(detached))
}
