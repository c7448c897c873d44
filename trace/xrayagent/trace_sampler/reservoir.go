package trace_sampler

import (
	"sync"
	"time"
)

// reservoir grants up to perSecond takes each wall-clock second. It backs
// a rule's fixed target; requests beyond the target fall through to the
// rule's rate.
type reservoir struct {
	perSecond int64

	mu    sync.Mutex
	epoch int64
	taken int64
}

func (r *reservoir) Take(now time.Time) bool {
	if r.perSecond <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	second := now.Unix()
	if second != r.epoch {
		r.epoch = second
		r.taken = 0
	}
	if r.taken >= r.perSecond {
		return false
	}
	r.taken++
	return true
}
