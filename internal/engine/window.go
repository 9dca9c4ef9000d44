package engine

import "sync"

// DefaultWindow is the session aggregation window length.
const DefaultWindow = 60

// Window is a fixed-length sample ring with periodic flushing: every
// n-th recording publishes the window mean. Consumers of the published
// value therefore only see changes at flush boundaries.
type Window struct {
	mu     sync.Mutex
	buf    []float64
	head   int // next write slot
	filled int
	frames int // recordings since the last flush
}

func NewWindow(n int) *Window {
	if n < 1 {
		n = 1
	}
	return &Window{buf: make([]float64, n)}
}

// Record appends v, evicting the oldest sample once the ring is full.
// On every len-th recording it returns the current window mean and true,
// and resets the flush counter; otherwise it returns 0 and false.
func (w *Window) Record(v float64) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.filled < len(w.buf) {
		w.filled++
	}
	w.frames++
	if w.frames < len(w.buf) {
		return 0, false
	}
	w.frames = 0
	return w.mean(), true
}

func (w *Window) mean() float64 {
	if w.filled == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.filled; i++ {
		sum += w.buf[i]
	}
	return sum / float64(w.filled)
}

func (w *Window) Mean() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mean()
}

func (w *Window) Sum() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var sum float64
	for i := 0; i < w.filled; i++ {
		sum += w.buf[i]
	}
	return sum
}

func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filled
}

// Snapshot returns the window contents ordered oldest to newest.
func (w *Window) Snapshot() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]float64, w.filled)
	start := (w.head - w.filled + len(w.buf)) % len(w.buf)
	for i := 0; i < w.filled; i++ {
		out[i] = w.buf[(start+i)%len(w.buf)]
	}
	return out
}
