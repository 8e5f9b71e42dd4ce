// Command rvld is a thin driver around pkg/linker: it parses the subset of
// GNU ld-compatible flags spec.md's Config enumerates, resolves -l/-L and
// archive members through pkg/archive, and runs the core's ingestion and
// symbol-resolution phases in order. It does not lay out or write an
// output file — that stage is out of this linker core's scope.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/golinker/rvld/pkg/config"
	"github.com/golinker/rvld/pkg/linker"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	output         string
	libraryPaths   []string
	wrapSymbols    []string
	discardSection []string

	relocatable bool
	demangle    bool
	trace       bool

	stripAll      bool
	stripDebug    bool
	discardAll    bool
	discardLocals bool

	retainSymbolsFile string
	oformatBinary     bool
	gdbIndex          bool
	pic               bool

	zExecstack         bool
	zExecstackIfNeeded bool

	allowShlibUndefined bool
	warnCommon          bool
	excludeLibs         bool
	defaultVersion      string

	rcPath string
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "rvld [flags] objfile...",
		Short: "Link ELF object files and archives into a symbol-resolved set of live inputs",
		Long: `rvld ingests ELF relocatable objects, archives, and shared objects the way a
linker's front end does, and resolves every global symbol reference to a
single winning definition across the whole input set. It stops short of
writing an output file: the final, resolved Context is the product of a run.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(o, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "a.out", "output file name (recorded, not written)")
	f.StringArrayVarP(&o.libraryPaths, "library-path", "L", nil, "add dir to the library search path (repeatable)")
	f.StringArrayVar(&o.wrapSymbols, "wrap", nil, "use __wrap_SYMBOL for references to SYMBOL (repeatable)")
	f.StringArrayVar(&o.discardSection, "discard-section", nil, "skip the named input section when reading each object (repeatable)")

	f.BoolVarP(&o.relocatable, "relocatable", "r", false, "output is ld -r (recorded, not acted on)")
	f.BoolVar(&o.demangle, "demangle", false, "demangle C++ symbol names in diagnostics (recorded, not acted on)")
	f.BoolVar(&o.trace, "trace", false, "print each input file as it's read (recorded, not acted on)")

	f.BoolVar(&o.stripAll, "strip-all", false, "omit every local symbol from the output symtab")
	f.BoolVar(&o.stripDebug, "strip-debug", false, "omit debug sections from the output (recorded, not acted on)")
	f.BoolVar(&o.discardAll, "discard-all", false, "omit every local symbol (synonym of --strip-all for locals)")
	f.BoolVar(&o.discardLocals, "discard-locals", false, "omit locally-scoped (.L-prefixed) symbols")

	f.StringVar(&o.retainSymbolsFile, "retain-symbols-file", "", "when set, omit every local symbol from the symtab (the file itself is not read)")
	f.BoolVar(&o.oformatBinary, "oformat-binary", false, "output raw binary instead of ELF (recorded, not acted on)")
	f.BoolVar(&o.gdbIndex, "gdb-index", false, "generate a .gdb_index section (recorded, not acted on)")
	f.BoolVar(&o.pic, "pic", false, "reject absolute relocations in .eh_frame")

	f.BoolVarP(&o.zExecstack, "z-execstack", "", false, "mark the stack executable unconditionally (recorded, not acted on)")
	f.BoolVar(&o.zExecstackIfNeeded, "z-execstack-if-needed", false, "mark the stack executable only if any input needs it (recorded, not acted on)")

	f.BoolVar(&o.allowShlibUndefined, "allow-shlib-undefined", false, "don't fail on a DSO's own unresolved references")
	f.BoolVar(&o.warnCommon, "warn-common", false, "warn when a common symbol is defined in more than one file")
	f.BoolVar(&o.excludeLibs, "exclude-libs", false, "force definitions pulled from archives to hidden visibility")
	f.StringVar(&o.defaultVersion, "default-symver", "", "default symbol version string for exported definitions (recorded, not acted on)")

	f.StringVar(&o.rcPath, "rcfile", ".rvldrc", "config file providing site-wide option defaults")

	f.SetInterspersed(false)
	return cmd
}

// run applies .rvldrc defaults, then the flags (a boolean flag can only
// switch an option on, list flags append), and hands the result to
// pkg/linker.Link alongside the leftover
// command-line operands (object files, -lfoo references, archives).
func run(o options, remaining []string) error {
	ctx := linker.NewContext()

	if defaults, err := config.Load(o.rcPath); err == nil {
		applyDefaults(ctx, defaults)
	} else {
		return fmt.Errorf("rvld: %w", err)
	}

	applyFlags(ctx, o)

	if len(remaining) == 0 {
		return fmt.Errorf("rvld: no input files")
	}

	return linker.Link(ctx, remaining)
}

func applyDefaults(ctx *linker.Context, d config.Defaults) {
	ctx.Args.LibraryPaths = append(ctx.Args.LibraryPaths, d.LibraryPaths...)
	for _, s := range d.WrapSymbols {
		ctx.Args.WrapSymbols.Add(s)
	}
	ctx.Args.DiscardAll = d.DiscardAll
	ctx.Args.DiscardLocals = d.DiscardLocals
	ctx.Args.StripAll = d.StripAll
	ctx.Args.StripDebug = d.StripDebug
	ctx.Args.ZExecstackIfNeeded = d.ZExecstackIfNeeded
	ctx.Args.AllowShlibUndefined = d.AllowShlibUndef
	ctx.Args.WarnCommon = d.WarnCommon
	ctx.Args.ExcludeLibs = d.ExcludeLibs
	ctx.Args.DefaultVersion = d.DefaultVersion
}

func applyFlags(ctx *linker.Context, o options) {
	ctx.Args.Output = o.output
	ctx.Args.LibraryPaths = append(ctx.Args.LibraryPaths, o.libraryPaths...)
	for _, s := range o.wrapSymbols {
		ctx.Args.WrapSymbols.Add(s)
	}
	for _, s := range o.discardSection {
		ctx.Args.DiscardSections.Add(s)
	}

	ctx.Args.Relocatable = o.relocatable
	ctx.Args.Demangle = o.demangle
	ctx.Args.Trace = o.trace

	ctx.Args.StripAll = ctx.Args.StripAll || o.stripAll
	ctx.Args.StripDebug = ctx.Args.StripDebug || o.stripDebug
	ctx.Args.DiscardAll = ctx.Args.DiscardAll || o.discardAll
	ctx.Args.DiscardLocals = ctx.Args.DiscardLocals || o.discardLocals

	ctx.Args.RetainSymbolsFile = o.retainSymbolsFile
	ctx.Args.OformatBinary = o.oformatBinary
	ctx.Args.GdbIndex = o.gdbIndex
	ctx.Args.Pic = o.pic

	ctx.Args.ZExecstack = o.zExecstack
	ctx.Args.ZExecstackIfNeeded = ctx.Args.ZExecstackIfNeeded || o.zExecstackIfNeeded

	ctx.Args.AllowShlibUndefined = ctx.Args.AllowShlibUndefined || o.allowShlibUndefined
	ctx.Args.WarnCommon = ctx.Args.WarnCommon || o.warnCommon
	ctx.Args.ExcludeLibs = ctx.Args.ExcludeLibs || o.excludeLibs
	if o.defaultVersion != "" {
		ctx.Args.DefaultVersion = o.defaultVersion
	}
}
