package linker

import (
	"fmt"

	"github.com/golinker/rvld/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// ParseAll runs component C3/C6 concurrently across every input file: one
// goroutine per file, fanned out with errgroup, per §5's "per-file work
// runs concurrently across files with one task per file." Every goroutine
// returns nil; a fatal input error ends the process from inside that
// file's Parse, without waiting for the other files.
func ParseAll(ctx *Context) error {
	var g errgroup.Group
	for _, obj := range ctx.Objs {
		obj := obj
		g.Go(func() error {
			obj.Parse(ctx)
			return nil
		})
	}
	for _, dso := range ctx.DSOs {
		dso := dso
		g.Go(func() error {
			dso.Parse(ctx)
			return nil
		})
	}
	return g.Wait()
}

// RegisterSectionPieces runs C4's global interning step across every
// object, concurrently: each file only touches fragments it owns until
// MergedSection.Insert takes the lock, so fanning this out is safe.
func RegisterSectionPieces(ctx *Context) error {
	var g errgroup.Group
	for _, obj := range ctx.Objs {
		obj := obj
		g.Go(func() error {
			obj.RegisterSectionPieces(ctx)
			obj.RewriteMergeableRelocations(ctx)
			return nil
		})
	}
	return g.Wait()
}

// ParseEhFrame runs component C5 across every object concurrently, after
// RegisterSectionPieces so any relocation C5 inspects that targets a
// mergeable section already names the rewritten fragment symbol.
func ParseEhFrame(ctx *Context) error {
	var g errgroup.Group
	for _, obj := range ctx.Objs {
		obj := obj
		g.Go(func() error {
			obj.ParseEhFrame(ctx)
			obj.SortRelocations(ctx)
			return nil
		})
	}
	return g.Wait()
}

// ResolveSymbols runs component C7 across every file (objects, then
// DSOs; order between the two doesn't matter since rank comparison is
// total), then expands reachability to a fixed point (C8), then drops
// every archive member that C8 never marked reachable.
func ResolveSymbols(ctx *Context) error {
	var g errgroup.Group
	for _, obj := range ctx.Objs {
		obj := obj
		g.Go(func() error {
			obj.ResolveSymbols(ctx)
			return nil
		})
	}
	for _, dso := range ctx.DSOs {
		dso := dso
		g.Go(func() error {
			dso.ResolveSymbols(ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	MarkLiveObjects(ctx)

	for _, obj := range ctx.Objs {
		if !obj.IsAlive() {
			obj.ClearSymbols()
		}
	}
	ctx.Objs = utils.RemoveIf(ctx.Objs, func(o *ObjectFile) bool {
		return !o.IsAlive()
	})

	for _, obj := range ctx.Objs {
		obj.ConvertCommonSymbols(ctx)
	}
	return nil
}

// MarkLiveObjects implements component C8: a breadth-first worklist over
// every reachable object, feeding in any archive member that turns out to
// be needed to satisfy an undefined or common reference, until no file
// feeds in anything new.
func MarkLiveObjects(ctx *Context) {
	roots := make([]*ObjectFile, 0, len(ctx.Objs))
	for _, obj := range ctx.Objs {
		if obj.IsAlive() {
			roots = append(roots, obj)
		}
	}

	feeder := func(f *InputFile) {
		// Only ObjectFile members of an archive are fed in lazily; DSOs
		// are already alive from the moment they're named.
		for _, obj := range ctx.Objs {
			if &obj.InputFile == f {
				roots = append(roots, obj)
				return
			}
		}
	}

	for len(roots) > 0 {
		obj := roots[0]
		roots = roots[1:]
		obj.MarkLiveObjects(feeder)
	}
}

// CheckUndefinedSymbols implements the ShlibUndef error-taxonomy entry:
// once resolution and reachability have settled, every symbol that is
// still undefined and non-weak anywhere in the live object set is
// recorded unless it was satisfied by a DSO, and every non-weak symbol a
// live DSO itself leaves undefined is recorded unless
// AllowShlibUndefined is set.
func CheckUndefinedSymbols(ctx *Context) {
	for _, obj := range ctx.Objs {
		for i := obj.FirstGlobal; i < len(obj.ElfSyms); i++ {
			esym := &obj.ElfSyms[i]
			if !esym.IsUndef() || esym.IsWeak() {
				continue
			}
			sym := obj.Symbols[i]
			if sym.File == nil {
				ctx.Warnings.Add(fmt.Errorf("undefined symbol: %s: %s", obj, sym.Name))
			}
		}
	}

	if ctx.Args.AllowShlibUndefined {
		return
	}
	for _, dso := range ctx.DSOs {
		for _, name := range dso.UndefinedSymbols() {
			sym, ok := ctx.SymbolMap.Load(name)
			if !ok || sym.(*Symbol).File == nil {
				ctx.Warnings.Add(NewLinkError(ErrShlibUndef, dso.Name(), fmt.Errorf("%s", name)))
			}
		}
	}
}

// ComputeSymtabSize runs component C9's sizing step across every
// surviving object concurrently; each file only ever writes its own
// fields, so no locking is needed between goroutines.
func ComputeSymtabSize(ctx *Context) error {
	var g errgroup.Group
	for _, obj := range ctx.Objs {
		obj := obj
		g.Go(func() error {
			obj.ComputeSymtabSize(ctx)
			return nil
		})
	}
	return g.Wait()
}

// Link runs every in-scope phase of the core in the order §5's ordering
// guarantees require, leaving ctx populated with everything the
// out-of-scope output-layout/writer pass would need.
func Link(ctx *Context, remaining []string) error {
	ReadInputFiles(ctx, remaining)

	if err := ParseAll(ctx); err != nil {
		return err
	}

	ResolveComdatGroups(ctx)

	if err := RegisterSectionPieces(ctx); err != nil {
		return err
	}
	if err := ParseEhFrame(ctx); err != nil {
		return err
	}
	if err := ResolveSymbols(ctx); err != nil {
		return err
	}

	CheckUndefinedSymbols(ctx)

	if err := ComputeSymtabSize(ctx); err != nil {
		return err
	}

	return ctx.Warnings.Err()
}
