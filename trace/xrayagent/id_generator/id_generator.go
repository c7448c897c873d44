package id_generator

import (
	cryptorand "crypto/rand"
	"math"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// IdGenerator produces wire-format trace and segment ids. Trace ids are
// 1-<8 hex epoch seconds>-<24 hex random>, segment ids are 16 hex.
type IdGenerator struct {
	lock sync.Mutex
	rand *rand.Rand
}

func New() *IdGenerator {
	var seed int64
	seedN, err := cryptorand.Int(cryptorand.Reader, big.NewInt(math.MaxInt64))
	if err == nil {
		seed = seedN.Int64()
	} else {
		seed = time.Now().UnixNano()
	}
	return &IdGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

var flags = "0123456789abcdef"

func (g *IdGenerator) genUint64() uint64 {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.rand.Uint64()
}

func (g *IdGenerator) genHex(n int) string {
	sb := strings.Builder{}
	sb.Grow(n)
	randv := g.genUint64()
	for i := 0; i < n; i++ {
		if i != 0 && i%16 == 0 {
			randv = g.genUint64()
		}
		sb.WriteByte(flags[randv&0xf])
		randv = randv >> 4
	}
	return sb.String()
}

// TraceID generates a new root trace id stamped with the current epoch
// second, e.g. 1-58406520-a006649127e371903a2de979.
func (g *IdGenerator) TraceID() string {
	sb := strings.Builder{}
	sb.WriteString("1-")
	epoch := uint32(time.Now().Unix())
	for i := 28; i >= 0; i -= 4 {
		sb.WriteByte(flags[(epoch>>i)&0xf])
	}
	sb.WriteByte('-')
	sb.WriteString(g.genHex(24))
	return sb.String()
}

// SegmentID generates a new 16 hex char segment id.
func (g *IdGenerator) SegmentID() string {
	return g.genHex(16)
}
