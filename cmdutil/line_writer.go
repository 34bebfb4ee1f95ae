package cmdutil

import (
	"bytes"
	"sync"
)

// lineWriter wraps an OutputLineHandler as an io.Writer.
// It buffers partial lines and calls the handler for each complete line.
type lineWriter struct {
	handler OutputLineHandler
	buf     []byte
	limit   int
	written int
	mu      sync.Mutex
}

func newLineWriter(handler OutputLineHandler) *lineWriter {
	return &lineWriter{
		handler: handler,
	}
}

func (lw *lineWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	lw.written += len(p)
	if lw.limit > 0 && lw.written > lw.limit {
		return 0, ErrOutputTooLarge
	}

	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(lw.buf[:idx])
		lw.buf = lw.buf[idx+1:]
		if lw.handler != nil {
			lw.handler(line)
		}
	}

	return len(p), nil
}

// Flush processes any remaining buffered data as a final line.
func (lw *lineWriter) Flush() {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if len(lw.buf) > 0 && lw.handler != nil {
		lw.handler(string(lw.buf))
		lw.buf = nil
	}
}
