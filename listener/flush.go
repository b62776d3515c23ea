package listener

import (
	"context"

	"github.com/kbukum/srag/transform"
)

// Flusher is implemented by listeners that hold state between enter and
// exit events.
type Flusher interface {
	Flush(ctx context.Context)
}

// FlushAll flushes every listener that supports it. Call it after a failed
// pipeline call so pending spans and timings are closed out.
func FlushAll(ctx context.Context, listeners ...transform.Listener) {
	for _, l := range listeners {
		if f, ok := l.(Flusher); ok {
			f.Flush(ctx)
		}
	}
}
