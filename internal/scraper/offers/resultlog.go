package offers

import "sync"

// DefaultResultCapacity bounds the in-memory result log.
const DefaultResultCapacity = 1000

// ResultLog is a bounded append-only log. Once full, each append evicts the
// oldest entry.
type ResultLog struct {
	mu    sync.Mutex
	buf   []Result
	start int
	size  int
}

// NewResultLog creates a log holding at most capacity results. A
// non-positive capacity falls back to DefaultResultCapacity.
func NewResultLog(capacity int) *ResultLog {
	if capacity <= 0 {
		capacity = DefaultResultCapacity
	}
	return &ResultLog{buf: make([]Result, capacity)}
}

// Append adds r and reports whether an older entry was evicted.
func (l *ResultLog) Append(r Result) (evicted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size < len(l.buf) {
		l.buf[(l.start+l.size)%len(l.buf)] = r
		l.size++
		return false
	}

	l.buf[l.start] = r
	l.start = (l.start + 1) % len(l.buf)
	return true
}

// Len returns the number of retained results.
func (l *ResultLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Cap returns the log capacity.
func (l *ResultLog) Cap() int {
	return len(l.buf)
}

// Snapshot returns the retained results, oldest first.
func (l *ResultLog) Snapshot() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Result, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}

// Reset drops every entry.
func (l *ResultLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.buf)
	l.start = 0
	l.size = 0
}
