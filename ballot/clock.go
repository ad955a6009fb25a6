package ballot

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Clock supplies the current time in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() uint64
}

// MonotonicClock adapts a clockwork.Clock and never hands out a reading
// lower than one it already returned, even if the wall clock steps back.
type MonotonicClock struct {
	c clockwork.Clock

	mu   sync.Mutex
	last uint64
}

func NewMonotonicClock(c clockwork.Clock) *MonotonicClock {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &MonotonicClock{c: c}
}

func (m *MonotonicClock) NowMillis() uint64 {
	var now uint64
	if ms := m.c.Now().UnixMilli(); ms > 0 {
		now = uint64(ms)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if now < m.last {
		return m.last
	}
	m.last = now
	return now
}
