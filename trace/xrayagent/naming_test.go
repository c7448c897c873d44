package xrayagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSegmentNamer(t *testing.T) {
	n := NewFixedSegmentNamer("checkout")
	assert.Equal(t, "checkout", n.Name("api.example.com"))
	assert.Equal(t, "checkout", n.Name(""))
}

func TestDynamicSegmentNamer(t *testing.T) {
	n := NewDynamicSegmentNamer("fallback", "*.example.com")
	assert.Equal(t, "api.example.com", n.Name("api.example.com"))
	assert.Equal(t, "fallback", n.Name("other.host"))
}
