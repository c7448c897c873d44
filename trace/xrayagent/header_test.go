package xrayagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testTraceID  = "1-5759e988-bd862e3fe1be46a994272793"
	testParentID = "53995c3f42cd8ad8"
)

func TestParseTraceHeader(t *testing.T) {
	h, ok := ParseTraceHeader("Root=" + testTraceID + ";Parent=" + testParentID + ";Sampled=1")
	assert.True(t, ok)
	assert.Equal(t, testTraceID, h.RootTraceID)
	assert.Equal(t, testParentID, h.ParentID)
	assert.Equal(t, SampleSampled, h.Sampled)
}

func TestParseTraceHeaderFlags(t *testing.T) {
	for flag, want := range map[string]SampleDecision{
		"0": SampleNotSampled,
		"1": SampleSampled,
		"?": SampleRequested,
		"x": SampleUnknown,
	} {
		h, ok := ParseTraceHeader("Root=" + testTraceID + ";Sampled=" + flag)
		assert.True(t, ok, "flag %q", flag)
		assert.Equal(t, want, h.Sampled, "flag %q", flag)
	}
}

func TestParseTraceHeaderNoParent(t *testing.T) {
	h, ok := ParseTraceHeader("Root=" + testTraceID)
	assert.True(t, ok)
	assert.Equal(t, "", h.ParentID)
	assert.Equal(t, SampleUnknown, h.Sampled)
}

func TestParseTraceHeaderInvalid(t *testing.T) {
	for _, value := range []string{
		"",
		"   ",
		"garbage",
		"Root=",
		"Root=not-a-trace-id",
		"Root=2-5759e988-bd862e3fe1be46a994272793", // wrong version
		"Root=" + testTraceID + ";Parent=tooshort",
		"Parent=" + testParentID + ";Sampled=1", // missing root
	} {
		_, ok := ParseTraceHeader(value)
		assert.False(t, ok, "value %q", value)
	}
}

func TestParseTraceHeaderIsCaseAndSpaceTolerant(t *testing.T) {
	h, ok := ParseTraceHeader(" root=" + testTraceID + " ; SAMPLED=? ")
	assert.True(t, ok)
	assert.Equal(t, testTraceID, h.RootTraceID)
	assert.Equal(t, SampleRequested, h.Sampled)
}

func TestTraceHeaderRoundTrip(t *testing.T) {
	for _, h := range []TraceHeader{
		{RootTraceID: testTraceID, ParentID: testParentID, Sampled: SampleSampled},
		{RootTraceID: testTraceID, ParentID: testParentID, Sampled: SampleNotSampled},
		{RootTraceID: testTraceID, Sampled: SampleSampled},
		{RootTraceID: testTraceID, Sampled: SampleNotSampled},
	} {
		parsed, ok := ParseTraceHeader(h.String())
		assert.True(t, ok)
		assert.Equal(t, h, parsed)
	}
}

func TestTraceHeaderStringOmitsUnknownFlag(t *testing.T) {
	h := TraceHeader{RootTraceID: testTraceID}
	assert.Equal(t, "Root="+testTraceID, h.String())
}
