package http

import (
	"net/http"
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

type roundTripper struct {
	base http.RoundTripper
}

// RoundTrip records the outbound call as a subsegment of the active
// request's segment and propagates the trace header downstream. Requests
// outside a traced context pass through untouched.
func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return rt.base.RoundTrip(req)
	}
	seg := xrayagent.SegmentFromContext(req.Context())
	if seg == nil {
		return rt.base.RoundTrip(req)
	}

	host := req.Host
	if host == "" && req.URL != nil {
		host = req.URL.Host
	}
	sub := seg.BeginSubsegment(host, time.Now())
	sub.SetNamespace("remote")
	sub.AddHTTPRequest(map[string]interface{}{
		xrayagent.AttrURL:    req.URL.String(),
		xrayagent.AttrMethod: req.Method,
	})

	req.Header.Set(xrayagent.TraceHeaderKey, sub.DownstreamHeader().String())

	res, err := rt.base.RoundTrip(req)
	if err != nil {
		sub.Close(err)
		return res, err
	}
	sub.AddHTTPResponse(map[string]interface{}{
		xrayagent.AttrStatus: res.StatusCode,
	})
	sub.MarkFromStatus(res.StatusCode)
	sub.Close(nil)
	return res, err
}

// WrapClient instruments an http.Client so calls made during a traced
// request show up as remote subsegments.
func WrapClient(c *http.Client) *http.Client {
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	c.Transport = &roundTripper{base: c.Transport}
	return c
}
