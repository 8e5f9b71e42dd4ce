package linker

import (
	"sort"
	"strings"
	"sync"

	"github.com/golinker/rvld/pkg/utils"
)

// canonicalSectionPrefixes lists the input-section name stems the linker
// folds together into one output section, the same grouping mold applies
// to .text.foo, .rodata.bar and friends.
var canonicalSectionPrefixes = []string{
	".text.", ".data.rel.ro.", ".data.", ".rodata.", ".bss.rel.ro.", ".bss.",
	".init_array.", ".fini_array.", ".tbss.", ".tdata.", ".gcc_except_table.",
	".ctors.", ".dtors.",
}

// CanonicalSectionName maps an input section's name to the name of the
// output section it would be folded into, grouping compiler-generated
// suffixed sections like .text.foo under a common stem.
func CanonicalSectionName(name string, flags uint64) string {
	if (name == ".rodata" || strings.HasPrefix(name, ".rodata.")) &&
		flags&SHF_MERGE != 0 {
		if flags&SHF_STRINGS != 0 {
			return ".rodata.str"
		}
		return ".rodata.cst"
	}

	for _, prefix := range canonicalSectionPrefixes {
		stem := prefix[:len(prefix)-1]
		if name == stem || strings.HasPrefix(name, prefix) {
			return stem
		}
	}
	return name
}

// MergedSection is the interning point for every SectionFragment sharing a
// {name,flags,entsize} triple across all input files. It plays the role
// the output-section layer would otherwise own, but without any notion of
// a final address: it only tracks identity and ordering of fragments.
type MergedSection struct {
	Name    string
	Flags   uint64
	Type    uint32
	EntSize uint64

	mapMu sync.Mutex
	Map   map[string]*SectionFragment

	Size    uint64
	P2Align uint32
}

func NewMergedSection(name string, flags uint64, typ uint32, entSize uint64) *MergedSection {
	return &MergedSection{
		Name:    name,
		Flags:   flags,
		Type:    typ,
		EntSize: entSize,
		Map:     make(map[string]*SectionFragment),
	}
}

// GetMergedSectionInstance interns the MergedSection for the given input
// section identity, creating it on first use. Guarded by
// ctx.MergedSectionsMu: distinct {name,flags,entsize} triples are rare
// enough per module that linear scan under a mutex beats a concurrent map.
func GetMergedSectionInstance(ctx *Context, name string, typ uint32, flags, entSize uint64) *MergedSection {
	name = CanonicalSectionName(name, flags)
	flags = flags &^ SHF_GROUP &^ SHF_MERGE &^ SHF_STRINGS &^ SHF_COMPRESSED

	ctx.MergedSectionsMu.Lock()
	defer ctx.MergedSectionsMu.Unlock()

	for _, m := range ctx.MergedSections {
		if name == m.Name && flags == m.Flags && typ == m.Type && entSize == m.EntSize {
			return m
		}
	}

	m := NewMergedSection(name, flags, typ, entSize)
	ctx.MergedSections = append(ctx.MergedSections, m)
	return m
}

// Insert interns key, returning the fragment representing it and bumping
// its alignment requirement up to p2align if this insertion demands more.
func (m *MergedSection) Insert(key string, p2align uint32) *SectionFragment {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()

	frag, ok := m.Map[key]
	if !ok {
		frag = NewSectionFragment(m)
		m.Map[key] = frag
	}
	if frag.P2Align < p2align {
		frag.P2Align = p2align
	}
	return frag
}

// AssignOffsets lays out every fragment within this merged section,
// smallest-alignment-first then shortest-key-first, matching the order a
// real output-section writer would use so fragment offsets are stable
// regardless of which object first interned a given string.
func (m *MergedSection) AssignOffsets() {
	type entry struct {
		key  string
		frag *SectionFragment
	}
	entries := make([]entry, 0, len(m.Map))
	for k, v := range m.Map {
		entries = append(entries, entry{k, v})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].frag.P2Align != entries[j].frag.P2Align {
			return entries[i].frag.P2Align < entries[j].frag.P2Align
		}
		if len(entries[i].key) != len(entries[j].key) {
			return len(entries[i].key) < len(entries[j].key)
		}
		return entries[i].key < entries[j].key
	})

	offset := uint64(0)
	p2align := uint32(0)
	for _, e := range entries {
		offset = utils.AlignTo(offset, 1<<e.frag.P2Align)
		e.frag.Offset = uint32(offset)
		offset += uint64(len(e.key))
		if p2align < e.frag.P2Align {
			p2align = e.frag.P2Align
		}
	}

	m.Size = utils.AlignTo(offset, 1<<p2align)
	m.P2Align = p2align
}
