package log

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/thrasher-corp/venuesim/common"
)

var (
	errWriterAlreadyLoaded = errors.New("io.Writer already loaded")
	errWriterNotFound      = errors.New("io.Writer not found")
	errWriterIsNil         = errors.New("io.Writer is nil")
)

// NewMultiWriter returns a writer duplicating every log line to the supplied
// outputs in order
func NewMultiWriter(writers ...io.Writer) (*multiWriter, error) {
	mw := &multiWriter{writers: make([]io.Writer, 0, len(writers))}
	for i := range writers {
		if err := mw.Add(writers[i]); err != nil {
			return nil, err
		}
	}
	return mw, nil
}

// Add registers an output, each writer can only be held once
func (mw *multiWriter) Add(w io.Writer) error {
	if w == nil {
		return errWriterIsNil
	}
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if slices.Contains(mw.writers, w) {
		return fmt.Errorf("%w: %T", errWriterAlreadyLoaded, w)
	}
	mw.writers = append(mw.writers, w)
	return nil
}

// Remove drops an output keeping the order of the rest
func (mw *multiWriter) Remove(w io.Writer) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	i := slices.Index(mw.writers, w)
	if i < 0 {
		return fmt.Errorf("%w: %T", errWriterNotFound, w)
	}
	mw.writers = slices.Delete(mw.writers, i, i+1)
	return nil
}

// Write hands p to every output. A failing output does not stop the rest,
// all failures are returned together
func (mw *multiWriter) Write(p []byte) (int, error) {
	mw.mu.RLock()
	defer mw.mu.RUnlock()
	var errs error
	for _, w := range mw.writers {
		n, err := w.Write(p)
		switch {
		case err != nil:
			errs = common.AppendError(errs, fmt.Errorf("%T %w", w, err))
		case n < len(p):
			errs = common.AppendError(errs, fmt.Errorf("%T %w", w, io.ErrShortWrite))
		}
	}
	if errs != nil {
		return 0, errs
	}
	return len(p), nil
}
