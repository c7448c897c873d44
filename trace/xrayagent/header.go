package xrayagent

import "strings"

// SampleDecision is the sampling state carried by a trace header.
type SampleDecision byte

const (
	// SampleUnknown means no decision has been made yet.
	SampleUnknown SampleDecision = iota
	// SampleRequested means the upstream caller left the decision to us
	// and wants it reported back on the response.
	SampleRequested
	// SampleSampled means the trace is recorded.
	SampleSampled
	// SampleNotSampled means the trace is not recorded.
	SampleNotSampled
)

// Resolved reports whether a definitive decision has been made.
func (d SampleDecision) Resolved() bool {
	return d == SampleSampled || d == SampleNotSampled
}

func (d SampleDecision) flag() string {
	switch d {
	case SampleSampled:
		return "1"
	case SampleNotSampled:
		return "0"
	case SampleRequested:
		return "?"
	}
	return ""
}

// TraceHeader is the parsed form of the propagation header. It is built
// once per request from the inbound header and mutated at most once, when
// the sampling decision is resolved.
type TraceHeader struct {
	RootTraceID string
	ParentID    string
	Sampled     SampleDecision
}

const (
	rootKey    = "root"
	parentKey  = "parent"
	sampledKey = "sampled"
)

// ParseTraceHeader parses the semicolon/equals delimited header value.
// ok is false for an empty value or one whose root or parent id does not
// match the expected grammar; callers then synthesize a fresh header with
// a new root trace id. An unrecognized sample flag is benign and maps to
// SampleUnknown.
func ParseTraceHeader(value string) (TraceHeader, bool) {
	h := TraceHeader{}
	if strings.TrimSpace(value) == "" {
		return h, false
	}
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return TraceHeader{}, false
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		switch key {
		case rootKey:
			if !validTraceID(val) {
				return TraceHeader{}, false
			}
			h.RootTraceID = val
		case parentKey:
			if !validSegmentID(val) {
				return TraceHeader{}, false
			}
			h.ParentID = val
		case sampledKey:
			switch val {
			case "1":
				h.Sampled = SampleSampled
			case "0":
				h.Sampled = SampleNotSampled
			case "?":
				h.Sampled = SampleRequested
			default:
				h.Sampled = SampleUnknown
			}
		}
	}
	if h.RootTraceID == "" {
		return TraceHeader{}, false
	}
	return h, true
}

// String serializes the header in canonical order. The sample flag is
// omitted while the decision is still unknown.
func (h TraceHeader) String() string {
	sb := strings.Builder{}
	sb.WriteString("Root=")
	sb.WriteString(h.RootTraceID)
	if h.ParentID != "" {
		sb.WriteString(";Parent=")
		sb.WriteString(h.ParentID)
	}
	if flag := h.Sampled.flag(); flag != "" {
		sb.WriteString(";Sampled=")
		sb.WriteString(flag)
	}
	return sb.String()
}

// validTraceID checks the 1-xxxxxxxx-xxxxxxxxxxxxxxxxxxxxxxxx shape.
func validTraceID(id string) bool {
	if len(id) != 35 || id[0] != '1' || id[1] != '-' || id[10] != '-' {
		return false
	}
	return isHex(id[2:10]) && isHex(id[11:])
}

func validSegmentID(id string) bool {
	return len(id) == 16 && isHex(id)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
