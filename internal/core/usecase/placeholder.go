package usecase

import (
	"fmt"
	"sync"
	"time"
)

// placeholderIDs hands out "loading-<unix millis>" ids. Two asks within the
// same millisecond get consecutive values, so ids never repeat.
type placeholderIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func (p *placeholderIDs) next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	stamp := p.now().UnixMilli()
	if stamp <= p.last {
		stamp = p.last + 1
	}
	p.last = stamp
	return fmt.Sprintf("loading-%d", stamp)
}
