package linker

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Logger wraps a go-kit logfmt logger for the driver-facing diagnostics
// that are not part of resolving a single symbol (Out/Warn/Error/Fatal).
// Per-symbol warnings go through WarningSink instead, since those need to
// be collected from many goroutines before being reported.
type Logger struct {
	l log.Logger
}

func NewLogger() *Logger {
	return &Logger{l: log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))}
}

// Out logs driver-level progress information (-v output), not an error.
func (lg *Logger) Out(msg string, kv ...interface{}) {
	level.Info(lg.l).Log(append([]interface{}{"msg", msg}, kv...)...)
}

// Warn logs a recoverable problem with an input file that does not stop
// the link, such as a duplicate weak definition.
func (lg *Logger) Warn(msg string, kv ...interface{}) {
	level.Warn(lg.l).Log(append([]interface{}{"msg", msg}, kv...)...)
}

// Error logs a link-time error without recording it anywhere, and lets the
// caller decide whether to keep going or abort.
func (lg *Logger) Error(msg string, kv ...interface{}) {
	level.Error(lg.l).Log(append([]interface{}{"msg", msg}, kv...)...)
}

// Fatal logs msg and terminates the process immediately. Reserved for
// malformed input that makes it unsafe to continue, per the error
// taxonomy: NotElf, CorruptElf, UnsupportedFeature.
func (lg *Logger) Fatal(msg string) {
	level.Error(lg.l).Log("msg", msg, "fatal", true)
	os.Exit(1)
}

// Fatalf is Fatal with errors.Wrapf-style formatting, so call sites can
// attach underlying I/O errors without losing their stack.
func (lg *Logger) Fatalf(err error, format string, args ...interface{}) {
	wrapped := errors.Wrapf(err, format, args...)
	level.Error(lg.l).Log("msg", wrapped.Error(), "fatal", true)
	os.Exit(1)
}

// classified error kinds from the external-interfaces error taxonomy.
type ErrorKind int

const (
	ErrNotElf ErrorKind = iota
	ErrCorruptElf
	ErrUnsupportedFeature
	ErrDuplicateCommon
	ErrExecStack
	ErrPicViolation
	ErrShlibUndef
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotElf:
		return "not-elf"
	case ErrCorruptElf:
		return "corrupt-elf"
	case ErrUnsupportedFeature:
		return "unsupported-feature"
	case ErrDuplicateCommon:
		return "duplicate-common"
	case ErrExecStack:
		return "exec-stack"
	case ErrPicViolation:
		return "pic-violation"
	case ErrShlibUndef:
		return "shlib-undef"
	default:
		return "unknown"
	}
}

// LinkError carries enough context to explain which classified failure
// mode a fatal error belongs to, for callers (and tests) that need to
// branch on it instead of parsing a message string.
type LinkError struct {
	Kind ErrorKind
	File string
	Err  error
}

func (e *LinkError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.File, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

func NewLinkError(kind ErrorKind, file string, err error) *LinkError {
	return &LinkError{Kind: kind, File: file, Err: err}
}
