package id_generator

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	traceIDPattern   = regexp.MustCompile(`^1-[0-9a-f]{8}-[0-9a-f]{24}$`)
	segmentIDPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)
)

func TestTraceIDFormat(t *testing.T) {
	g := New()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := g.TraceID()
		assert.Regexp(t, traceIDPattern, id)
		assert.False(t, seen[id], "duplicate trace id %s", id)
		seen[id] = true
	}
}

func TestSegmentIDFormat(t *testing.T) {
	g := New()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := g.SegmentID()
		assert.Regexp(t, segmentIDPattern, id)
		assert.False(t, seen[id], "duplicate segment id %s", id)
		seen[id] = true
	}
}
