package linker

import "sync"

// ComdatGroup is the global leader election record for one COMDAT group
// signature. Every object that defines a group with the same signature
// points at the same ComdatGroup; only the file that wins Claim keeps its
// copy of the group's member sections alive.
type ComdatGroup struct {
	mu    sync.Mutex
	Owner *ObjectFile
}

// InsertComdatGroup interns the ComdatGroup for signature, creating it on
// first mention. Backed by sync.Map like the symbol table, since comdat
// groups are discovered while object files are parsed concurrently.
func InsertComdatGroup(ctx *Context, signature string) *ComdatGroup {
	if v, ok := ctx.ComdatGroups.Load(signature); ok {
		return v.(*ComdatGroup)
	}
	g := &ComdatGroup{}
	actual, _ := ctx.ComdatGroups.LoadOrStore(signature, g)
	return actual.(*ComdatGroup)
}

// Claim tries to make file the owner of this group, preferring whichever
// file has the lower (earlier) Priority if more than one file defines a
// group under the same signature. It reports whether file is now (or
// already was) the owner.
func (g *ComdatGroup) Claim(file *ObjectFile) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Owner == nil || file.Priority < g.Owner.Priority {
		g.Owner = file
	}
	return g.Owner == file
}

// ObjectComdat records one SHT_GROUP this object file contributes to a
// signature, pending the leader-election pass.
type ObjectComdat struct {
	Group   *ComdatGroup
	Shndx   uint32
	Members []uint32
}

// ResolveComdatGroups runs the leader election across every object that
// saw a COMDAT group, dropping the member sections of every file that
// lost its claim. Must run after all objects are parsed and before
// mergeable-section registration, since a dropped section must not
// contribute fragments to a MergedSection.
func ResolveComdatGroups(ctx *Context) {
	for _, obj := range ctx.Objs {
		for _, c := range obj.Comdats {
			c.Group.Claim(obj)
		}
	}
	for _, obj := range ctx.Objs {
		for _, c := range obj.Comdats {
			if c.Group.Owner == obj {
				continue
			}
			for _, m := range c.Members {
				if int(m) < len(obj.Sections) && obj.Sections[m] != nil {
					obj.Sections[m].IsAlive = false
				}
			}
		}
	}
}
