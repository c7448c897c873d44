package xrayagent

// TraceHeaderKey is the HTTP header carrying the trace context between
// caller and callee. Read on inbound requests, written on the outbound
// response only when the caller asked for the resolved decision.
const TraceHeaderKey = "X-Amzn-Trace-Id"

// attribute field names recorded on segments
const (
	AttrURL           = "url"
	AttrMethod        = "method"
	AttrUserAgent     = "user_agent"
	AttrClientIP      = "client_ip"
	AttrXForwardedFor = "x_forwarded_for"
	AttrStatus        = "status"
)

// service types reported in sampling inputs
const (
	Web  = "web"
	RPC  = "rpc"
	GRPC = "grpc"
)
