package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter duplicates writes to all of its writers. Unlike io.MultiWriter
// it keeps going after a failing writer, so one broken sink (e.g. a full disk)
// does not silence the others.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		writers: append([]io.Writer(nil), writers...),
	}
}

func (cw *CombinedWriter) Len() int {
	return len(cw.writers)
}

// Write reports len(p) with the combined errors of all writers that failed or wrote short.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	for _, w := range cw.writers {
		written, werr := w.Write(p)
		if werr == nil && written < len(p) {
			werr = io.ErrShortWrite
		}
		err = multierr.Append(err, werr)
	}
	return len(p), err
}
