package grpc_go

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

type alwaysSample struct{}

func (alwaysSample) ShouldTrace(xrayagent.SamplingInput) (xrayagent.SamplingResponse, error) {
	return xrayagent.SamplingResponse{RuleName: "default", Decision: xrayagent.SampleSampled}, nil
}

func newTestInterceptor(t *testing.T) *xrayagent.Interceptor {
	rec := xrayagent.NewSegmentRecorder(xrayagent.WithSamplingStrategy(alwaysSample{}))
	itc, err := xrayagent.NewInterceptor(rec, xrayagent.NewFixedSegmentNamer("rpc-svc"))
	require.NoError(t, err)
	return itc
}

func incomingCtx(header string) context.Context {
	meta := metadata.MD{":authority": []string{"rpc.example.com"}}
	if header != "" {
		meta.Set(xrayagent.TraceHeaderKey, header)
	}
	ctx := metadata.NewIncomingContext(context.Background(), meta)
	return peer.NewContext(ctx, &peer.Peer{
		Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 7), Port: 53124},
	})
}

func TestUnaryServerInterceptorOpensSegment(t *testing.T) {
	itf := NewUnaryServerInterceptor(newTestInterceptor(t))

	var seg *xrayagent.Segment
	resp, err := itf(incomingCtx("Root=1-5759e988-bd862e3fe1be46a994272793;Sampled=1"), "req",
		&grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Do"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			seg = xrayagent.SegmentFromContext(ctx)
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	require.NotNil(t, seg, "segment visible inside the handler")
	assert.Equal(t, "1-5759e988-bd862e3fe1be46a994272793", seg.TraceID())
}

func TestUnaryServerInterceptorHandlerError(t *testing.T) {
	itf := NewUnaryServerInterceptor(newTestInterceptor(t))

	rpcErr := status.Error(codes.ResourceExhausted, "slow down")
	_, err := itf(incomingCtx(""), "req",
		&grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Do"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, rpcErr
		})

	assert.Equal(t, rpcErr, err)
}
