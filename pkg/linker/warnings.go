package linker

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// WarningSink accumulates non-fatal problems raised concurrently while
// files are read and symbols resolved (multiple common definitions under
// --warn-common, PIC violations, undefined symbols), so the driver can report all of
// them at the end of a run rather than only the first one hit.
type WarningSink struct {
	mu  sync.Mutex
	err *multierror.Error
}

func NewWarningSink() *WarningSink {
	return &WarningSink{}
}

func (w *WarningSink) Add(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = multierror.Append(w.err, err)
}

// Err returns the accumulated warnings as a single error, or nil if none
// were recorded.
func (w *WarningSink) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		return nil
	}
	return w.err.ErrorOrNil()
}

func (w *WarningSink) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		return 0
	}
	return len(w.err.Errors)
}
