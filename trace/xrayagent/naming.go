package xrayagent

import "github.com/2dmdigital/xray-go-agent/trace/xrayagent/internal"

// SegmentNamer converts a request's host into the segment name. Configured
// once per interceptor for the process lifetime.
type SegmentNamer interface {
	Name(host string) string
}

type fixedSegmentNamer struct {
	name string
}

// NewFixedSegmentNamer names every segment the same, typically after the
// service.
func NewFixedSegmentNamer(name string) SegmentNamer {
	return &fixedSegmentNamer{name: name}
}

func (n *fixedSegmentNamer) Name(string) string {
	return n.name
}

type dynamicSegmentNamer struct {
	fallback string
	pattern  string
}

// NewDynamicSegmentNamer names segments after the request host when it
// matches the wildcard pattern, and falls back to a fixed name otherwise.
func NewDynamicSegmentNamer(fallback, pattern string) SegmentNamer {
	return &dynamicSegmentNamer{fallback: fallback, pattern: pattern}
}

func (n *dynamicSegmentNamer) Name(host string) string {
	if internal.WildcardMatch(n.pattern, host) {
		return host
	}
	return n.fallback
}
