package notify

import (
	"io"
	"sync"
	"sync/atomic"
)

// Bell rings the terminal bell. It stays silent until Unlock is called, which
// the UI does on the first key press.
type Bell struct {
	mu       sync.Mutex
	w        io.Writer
	unlocked atomic.Bool
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Unlock() {
	b.unlocked.Store(true)
}

func (b *Bell) Unlocked() bool {
	return b.unlocked.Load()
}

func (b *Bell) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.w, "\a")
	return err
}
