package grpc_go

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

// currently only unary calls are instrumented

// NewUnaryServerInterceptor opens a segment per RPC. gRPC runs over
// HTTP/2, so the incoming metadata is presented to the interceptor as a
// standard request view with the method path as the URL.
func NewUnaryServerInterceptor(itc *xrayagent.Interceptor) grpc.UnaryServerInterceptor {
	if itc == nil {
		panic("interceptor is nil")
	}
	return func(ctx context.Context, req interface{},
		info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		stdReq := requestView(ctx, info.FullMethod)
		ctx = itc.BeginRequest(ctx, stdReq)

		resp, err = handler(ctx, req)

		httpStatus := http.StatusOK
		if err != nil {
			ctx = itc.HandleError(ctx, stdReq, err)
			httpStatus = httpStatusFromRPC(err)
		}
		itc.EndRequest(ctx, stdReq, &xrayagent.Response{
			StatusCode: httpStatus,
			Header:     http.Header{},
		})
		return resp, err
	}
}

// NewUnaryClientInterceptor records outgoing RPCs as remote subsegments
// and propagates the trace header in the call metadata.
func NewUnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		seg := xrayagent.SegmentFromContext(ctx)
		if seg == nil {
			return invoker(ctx, method, req, reply, cc, callOpts...)
		}

		sub := seg.BeginSubsegment(cc.Target(), time.Now())
		sub.SetNamespace("remote")
		sub.AddHTTPRequest(map[string]interface{}{
			xrayagent.AttrURL:    cc.Target() + method,
			xrayagent.AttrMethod: http.MethodPost,
		})

		meta, _ := metadata.FromOutgoingContext(ctx)
		metaCopy := meta.Copy()
		metaCopy.Set(xrayagent.TraceHeaderKey, sub.DownstreamHeader().String())
		ctx = metadata.NewOutgoingContext(ctx, metaCopy)

		err := invoker(ctx, method, req, reply, cc, callOpts...)
		sub.Close(err)
		return err
	}
}

func requestView(ctx context.Context, fullMethod string) *http.Request {
	header := http.Header{}
	host := ""
	if meta, ok := metadata.FromIncomingContext(ctx); ok {
		for k, vs := range meta {
			for _, v := range vs {
				header.Add(k, v)
			}
		}
		if authority := meta.Get(":authority"); len(authority) > 0 {
			host = authority[0]
		}
	}
	remoteAddr := ""
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remoteAddr = p.Addr.String()
	}
	return &http.Request{
		Method:     http.MethodPost,
		URL:        &url.URL{Path: fullMethod},
		Host:       host,
		Header:     header,
		RemoteAddr: remoteAddr,
	}
}

// httpStatusFromRPC maps the RPC code onto the status ranges the entity
// marker understands.
func httpStatusFromRPC(err error) int {
	s, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch s.Code() {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists,
		codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
