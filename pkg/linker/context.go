package linker

import (
	"sync"
	"sync/atomic"

	"github.com/golinker/rvld/pkg/utils"
)

// ContextArgs holds every option cmd/rvld parses. Output, Relocatable,
// Demangle, Trace, StripDebug, OformatBinary, GdbIndex, ZExecstack,
// ZExecstackIfNeeded and DefaultVersion are recorded here but read by no
// pass of this core.
type ContextArgs struct {
	Emulation       MachineType
	LibraryPaths    []string
	DiscardSections utils.MapSet[string]
	WrapSymbols     utils.MapSet[string]
	Trace           bool

	Output      string
	Relocatable bool // output is `ld -r`: keep more than a final link would
	Demangle    bool

	StripAll     bool
	StripDebug   bool
	DiscardAll   bool
	DiscardLocals bool

	RetainSymbolsFile string
	OformatBinary     bool
	GdbIndex          bool
	Pic               bool

	ZExecstack         bool
	ZExecstackIfNeeded bool

	AllowShlibUndefined bool
	WarnCommon          bool
	ExcludeLibs         bool
	DefaultVersion      string
}

// Context is the single piece of shared state every file-parsing goroutine
// touches concurrently. SymbolMap and ComdatGroups are sync.Map because
// input files are read in parallel and symbols/groups are interned
// globally the first time any file mentions them. FilePriority is read by
// every file's constructor and only ever incremented, so a plain
// atomic.Int64 counter avoids taking a lock for it.
type Context struct {
	Args ContextArgs

	Logger *Logger

	// SymbolMap interns every global symbol name seen across all input
	// files, keyed by name. Values are *Symbol.
	SymbolMap sync.Map

	// ComdatGroups interns one *ComdatGroup per signature, so that objects
	// sharing a COMDAT group all resolve to the same group leader.
	ComdatGroups sync.Map

	// MergedSectionsMu guards MergedSections, which is small enough (one
	// entry per distinct {name,flags,entsize} triple) that a mutex around
	// linear lookup is simpler than a concurrent map here.
	MergedSectionsMu sync.Mutex
	MergedSections   []*MergedSection

	filePriority atomic.Int64

	ObjsMu sync.Mutex
	Objs   []*ObjectFile

	DSOsMu sync.Mutex
	DSOs   []*SharedFile

	Warnings *WarningSink
}

func NewContext() *Context {
	return &Context{
		Args: ContextArgs{
			Emulation:       MachineTypeRISCV64,
			DiscardSections: utils.NewMapSet[string](),
			WrapSymbols:     utils.NewMapSet[string](),
		},
		Logger:   NewLogger(),
		Warnings: NewWarningSink(),
	}
}

// NextFilePriority hands out the next monotonically increasing priority
// value, used to break resolution ties between symbols of equal rank: the
// file the linker was told about first wins.
func (ctx *Context) NextFilePriority() int64 {
	return ctx.filePriority.Add(1)
}

func (ctx *Context) AddObject(obj *ObjectFile) {
	ctx.ObjsMu.Lock()
	defer ctx.ObjsMu.Unlock()
	ctx.Objs = append(ctx.Objs, obj)
}

func (ctx *Context) AddDSO(dso *SharedFile) {
	ctx.DSOsMu.Lock()
	defer ctx.DSOsMu.Unlock()
	ctx.DSOs = append(ctx.DSOs, dso)
}
