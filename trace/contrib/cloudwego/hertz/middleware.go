package hertz

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

// NewMiddleware binds the interceptor to a hertz handler chain. Hertz
// carries its own request types, so a standard request view is
// synthesized for the interceptor and the response headers are copied
// back afterwards.
func NewMiddleware(itc *xrayagent.Interceptor) app.HandlerFunc {
	if itc == nil {
		panic("interceptor is nil")
	}
	return func(ctx context.Context, reqCtx *app.RequestContext) {
		stdReq := requestView(reqCtx)
		ctx = itc.BeginRequest(ctx, stdReq)

		isPanic := true
		defer func() {
			status := reqCtx.Response.StatusCode()
			if isPanic {
				status = http.StatusInternalServerError
				ctx = itc.HandleError(ctx, stdReq, errors.New("unhandled panic"))
			}
			respHeader := http.Header{}
			itc.EndRequest(ctx, stdReq, &xrayagent.Response{
				StatusCode: status,
				Header:     respHeader,
			})
			for k, vs := range respHeader {
				for _, v := range vs {
					reqCtx.Response.Header.Set(k, v)
				}
			}
		}()

		reqCtx.Next(ctx)
		isPanic = false
	}
}

// requestView translates the hertz request into the standard shape the
// interceptor consumes.
func requestView(reqCtx *app.RequestContext) *http.Request {
	u := &url.URL{}
	host := ""
	if uri := reqCtx.Request.URI(); uri != nil {
		u.Scheme = string(uri.Scheme())
		u.Path = string(uri.Path())
		host = string(uri.Host())
		u.Host = host
	}
	return &http.Request{
		Method: string(reqCtx.Request.Method()),
		URL:    u,
		Host:   host,
		Header: hertzHeaderToHTTPHeader(&reqCtx.Request.Header),
	}
}

func hertzHeaderToHTTPHeader(hertzHeader *protocol.RequestHeader) http.Header {
	h := http.Header{}
	if hertzHeader == nil {
		return h
	}
	hertzHeader.VisitAll(func(key, value []byte) {
		h.Set(string(key), string(value))
	})
	return h
}
