package linker

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/golinker/rvld/pkg/utils"
)

// ObjectFile represents one relocatable (ET_REL) input: either a bare .o
// named on the command line or a member pulled out of a .a archive.
type ObjectFile struct {
	InputFile

	ArchiveName string

	SymtabSec      *Shdr
	SymtabShndxSec []uint32

	Sections          []*InputSection
	MergeableSections []*MergeableSection

	Comdats []ObjectComdat

	// FragSyms holds the synthetic hidden symbols created by
	// RewriteMergeableRelocations to give section-relative relocations a
	// single-space r_sym index even after their target section was split
	// into fragments. Their indices start at len(ElfSyms).
	FragSyms []*Symbol

	EhFrameSections []*InputSection
	Cies            []CieRecord
	Fdes            []FdeRecord

	GnuProperties map[uint32]uint32
	RiscvAttrs    RiscvAttributes

	HasCommonSymbol bool
	HasSymver       []bool

	// synthetic .common/.tls_common sections created to back leftover
	// tentative definitions, appended past the real ELF section table.
	syntheticSections []*Shdr

	OutputSymIndices []int32
	NumLocalSymtab   int32
	NumGlobalSymtab  int32
	StrtabSize       int64
}

func NewObjectFile(file *File, isAlive bool, archiveName string) *ObjectFile {
	o := &ObjectFile{InputFile: NewInputFile(file), ArchiveName: archiveName}
	o.SetAlive(isAlive)
	return o
}

func (o *ObjectFile) String() string {
	if o.ArchiveName == "" {
		return o.Name()
	}
	return fmt.Sprintf("%s(%s)", o.ArchiveName, o.Name())
}

// Parse runs every per-object pass described by component C3: section
// classification, symbol table construction, mergeable-section splitting,
// and collection of the .eh_frame sections that ParseEhFrame later splits
// into records, in the order later passes depend on.
func (o *ObjectFile) Parse(ctx *Context) {
	o.SymtabSec = o.FindSection(SHT_SYMTAB)
	if o.SymtabSec != nil {
		o.FirstGlobal = int(o.SymtabSec.Info)
		o.FillUpElfSyms(o.SymtabSec)
		o.SymbolStrtab = o.GetBytesFromIdx(int64(o.SymtabSec.Link))
	}

	o.InitializeSections(ctx)
	o.InitializeSymbols(ctx)
	o.InitializeMergeableSections(ctx)
	o.CollectEhFrameSections()
}

// InitializeSections dispatches on sh_type the way a real linker's section
// reader does: most types become an InputSection, but several carry
// linker-relevant metadata instead of output bytes and are consumed here.
func (o *ObjectFile) InitializeSections(ctx *Context) {
	o.Sections = make([]*InputSection, len(o.ElfSections))

	for i := range o.ElfSections {
		shdr := &o.ElfSections[i]
		name := ElfGetName(o.ShStrtab, shdr.Name)

		if shdr.Flags&SHF_EXCLUDE != 0 && shdr.Flags&SHF_ALLOC == 0 &&
			shdr.Type != SHT_LLVM_ADDRSIG {
			continue
		}

		if name == ".riscv.attributes" || shdr.Type == SHT_RISCV_ATTRIBUTES {
			if attrs, ok := ParseRiscvAttributes(o.GetBytesFromShdr(shdr)); ok {
				o.RiscvAttrs = attrs
			}
			continue
		}

		if ctx.Args.DiscardSections.Has(name) {
			continue
		}

		switch shdr.Type {
		case SHT_GROUP:
			o.readComdatGroup(ctx, shdr, uint32(i))
		case SHT_SYMTAB_SHNDX:
			o.FillUpSymtabShndxSec(shdr)
		case SHT_NOTE:
			if name == ".note.gnu.property" {
				o.GnuProperties = ParseGnuPropertyNote(o.GetBytesFromShdr(shdr))
			}
		case SHT_SYMTAB, SHT_STRTAB, SHT_REL, SHT_RELA, SHT_CREL, SHT_NULL:
			// consumed by whichever section references them, or already
			// handled above.
		default:
			if !isKnownSectionType(shdr) {
				ctx.Logger.Fatal(fmt.Sprintf("%s: %s: unsupported section type 0x%x", o, name, shdr.Type))
			}
			if name == ".note.GNU-stack" {
				continue
			}
			o.Sections[i] = NewInputSection(name, o, uint32(i))
		}
	}

	for i := range o.ElfSections {
		shdr := &o.ElfSections[i]
		if shdr.Type != SHT_RELA && shdr.Type != SHT_REL && shdr.Type != SHT_CREL {
			continue
		}
		utils.Assert(shdr.Info < uint32(len(o.Sections)))
		if target := o.Sections[shdr.Info]; target != nil {
			utils.Assert(target.RelsecIdx == math.MaxUint32)
			target.RelsecIdx = uint32(i)
		}
	}

	// Member sections of a SHT_GROUP may be defined at any index relative
	// to the group section itself, so tag them only once every section in
	// the file has its InputSection.
	for _, c := range o.Comdats {
		for _, m := range c.Members {
			if int(m) < len(o.Sections) && o.Sections[m] != nil {
				o.Sections[m].Group = c.Group
			}
		}
	}
}

// isKnownSectionType accepts the handful of section types a linker must
// tolerate even though it has no special handling for them: plain
// PROGBITS/NOBITS/array sections, the listed GNU/dynamic types, and every
// type from 0x60000000 up (OS, processor and user ranges). Section flags
// are not consulted: a vendor-range section is accepted whether or not it
// is SHF_ALLOC.
func isKnownSectionType(shdr *Shdr) bool {
	switch shdr.Type {
	case SHT_PROGBITS, SHT_NOTE, SHT_NOBITS, SHT_INIT_ARRAY, SHT_FINI_ARRAY,
		SHT_PREINIT_ARRAY, SHT_LLVM_ADDRSIG, SHT_GNU_ATTRIBUTES, SHT_GNU_HASH,
		SHT_GNU_VERDEF, SHT_GNU_VERNEED, SHT_GNU_VERSYM, SHT_X86_64_UNWIND,
		SHT_DYNAMIC, SHT_DYNSYM, SHT_HASH, SHT_SHLIB, SHT_RELR:
		return true
	}
	return shdr.Type >= 0x60000000
}

func (o *ObjectFile) readComdatGroup(ctx *Context, shdr *Shdr, shndx uint32) {
	if shdr.Info >= uint32(len(o.ElfSyms)) {
		ctx.Logger.Fatal(o.String() + ": invalid symbol index in SHT_GROUP")
	}
	esym := &o.ElfSyms[shdr.Info]

	var signature string
	if esym.Type() == STT_SECTION {
		shndx := o.GetShndx(esym, int(shdr.Info))
		signature = ElfGetName(o.ShStrtab, o.ElfSections[shndx].Name)
	} else {
		signature = ElfGetName(o.SymbolStrtab, esym.Name)
	}

	// Some GCC versions emit broken offload-LTO comdat groups tagged with
	// this prefix; skip them rather than let a bogus signature contend
	// for group leadership.
	if hasPrefix(signature, "wm4.") {
		return
	}

	entries := utils.ReadSlice[uint32](o.GetBytesFromShdr(shdr), 4)
	if len(entries) == 0 {
		ctx.Logger.Fatal(o.String() + ": empty SHT_GROUP")
	}
	if entries[0] == 0 {
		return
	}
	if entries[0] != GRP_COMDAT {
		ctx.Logger.Fatal(o.String() + ": unsupported SHT_GROUP format")
	}

	group := InsertComdatGroup(ctx, signature)
	o.Comdats = append(o.Comdats, ObjectComdat{
		Group:   group,
		Shndx:   shndx,
		Members: entries[1:],
	})
}

func (o *ObjectFile) FillUpSymtabShndxSec(s *Shdr) {
	bs := o.GetBytesFromShdr(s)
	o.SymtabShndxSec = utils.ReadSlice[uint32](bs, 4)
}

func (o *ObjectFile) GetShndx(esym *Sym, idx int) int64 {
	utils.Assert(idx >= 0 && idx < len(o.ElfSyms))
	if esym.Shndx == uint16(SHN_XINDEX) {
		return int64(o.SymtabShndxSec[idx])
	}
	return int64(esym.Shndx)
}

func (o *ObjectFile) GetSection(esym *Sym, idx int) *InputSection {
	shndx := o.GetShndx(esym, idx)
	if shndx < 0 || shndx >= int64(len(o.Sections)) {
		return nil
	}
	return o.Sections[shndx]
}

// InitializeSymbols builds the local-symbol array owned by this file and
// interns every global symbol name into ctx.SymbolMap, applying --wrap
// renaming and splitting off a trailing @version suffix as it goes.
func (o *ObjectFile) InitializeSymbols(ctx *Context) {
	if len(o.ElfSyms) == 0 {
		return
	}

	o.LocalSymbols = make([]Symbol, o.FirstGlobal)
	if o.FirstGlobal > 0 {
		o.LocalSymbols[0] = *NewSymbol("")
		o.LocalSymbols[0].File = &o.InputFile
	}

	for i := 1; i < o.FirstGlobal; i++ {
		esym := &o.ElfSyms[i]
		if esym.IsCommon() {
			ctx.Logger.Fatal(o.String() + ": common local symbol?")
		}

		var name string
		if esym.Type() == STT_SECTION {
			shndx := o.GetShndx(esym, i)
			name = ElfGetName(o.ShStrtab, o.ElfSections[shndx].Name)
		} else {
			name = ElfGetName(o.SymbolStrtab, esym.Name)
		}

		sym := &o.LocalSymbols[i]
		*sym = *NewSymbol(name)
		sym.File = &o.InputFile
		sym.Value = esym.Val
		sym.SymIdx = i

		if !esym.IsAbs() {
			sym.SetInputSection(o.GetSection(esym, i))
		}
	}

	o.Symbols = make([]*Symbol, len(o.ElfSyms))
	numGlobals := len(o.ElfSyms) - o.FirstGlobal
	o.HasSymver = make([]bool, numGlobals)

	for i := 0; i < o.FirstGlobal; i++ {
		o.Symbols[i] = &o.LocalSymbols[i]
	}

	for i := o.FirstGlobal; i < len(o.ElfSyms); i++ {
		esym := &o.ElfSyms[i]
		if esym.IsCommon() {
			o.HasCommonSymbol = true
		}

		key, name, isDefault := splitVersionSuffix(ElfGetName(o.SymbolStrtab, esym.Name))
		if name != key || isDefault {
			o.HasSymver[i-o.FirstGlobal] = true
		}

		var sym *Symbol
		if esym.IsUndef() && hasPrefix(name, "__real_") && ctx.Args.WrapSymbols.Has(name[7:]) {
			sym = GetSymbolByName(ctx, key[7:])
		} else {
			sym = GetSymbolByName(ctx, key)
			if esym.IsUndef() && sym.IsWrapped {
				sym = GetSymbolByName(ctx, "__wrap_"+key)
			}
		}
		o.Symbols[i] = sym
	}

	for _, name := range ctx.Args.WrapSymbols.Keys() {
		if sym, ok := ctx.SymbolMap.Load(name); ok {
			sym.(*Symbol).IsWrapped = true
		}
	}
}

// splitVersionSuffix separates a possible trailing @version or @@version
// from an ELF symbol name. key is what future lookups of this exact
// version should use; name is the plain (unversioned) symbol name.
func splitVersionSuffix(full string) (key, name string, isDefault bool) {
	idx := indexByte(full, '@')
	if idx < 0 {
		return full, full, false
	}
	name = full[:idx]
	ver := full[idx:]
	if ver == "@" || ver == "@@" {
		return full, name, false
	}
	isDefault = hasPrefix(ver, "@@")
	if isDefault {
		return name, name, true
	}
	return full, name, false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ResolveSymbols offers every global definition this file has to its
// interned Symbol, letting rank-based arbitration in Symbol.tryClaim pick
// a winner across every contending file.
func (o *ObjectFile) ResolveSymbols(ctx *Context) {
	isLazy := !o.IsAlive()
	for i := o.FirstGlobal; i < len(o.ElfSyms); i++ {
		esym := &o.ElfSyms[i]
		if esym.IsUndef() {
			continue
		}

		var isec *InputSection
		if !esym.IsAbs() && !esym.IsCommon() {
			isec = o.GetSection(esym, i)
			if isec == nil || !isec.IsAlive {
				continue
			}
		}

		sym := o.Symbols[i]
		if sym.tryClaim(&o.InputFile, esym, i, isLazy, ctx.Args.ExcludeLibs) {
			sym.SetInputSection(isec)
		}
	}
}

// MarkLiveObjects visits every global symbol this (now-live) file
// references or defines, pushing any file whose definition is needed
// onto feeder exactly once per file (test-and-set on InputFile.isAlive).
func (o *ObjectFile) MarkLiveObjects(feeder func(*InputFile)) {
	utils.Assert(o.IsAlive())

	for i := o.FirstGlobal; i < len(o.ElfSyms); i++ {
		esym := &o.ElfSyms[i]
		sym := o.Symbols[i]

		sym.mergeVisibility(esym.Visibility())

		if sym.File == nil {
			continue
		}

		undefRef := esym.IsUndef() && (!esym.IsWeak() || sym.File.IsDSO)
		commonRef := esym.IsCommon() && !sym.File.ElfSyms[sym.SymIdx].IsCommon()

		if (undefRef || commonRef) && sym.File.MarkAlive() {
			feeder(sym.File)
		}
	}
}

func (o *ObjectFile) ClearSymbols() {
	for _, sym := range o.Symbols[o.FirstGlobal:] {
		if sym.File == &o.InputFile {
			sym.Clear()
		}
	}
}

// InitializeMergeableSections splits every live SHF_MERGE section into
// fragments and retires the InputSection itself, matching the teacher's
// split/retire strategy. Each section's MergedSection is looked up here,
// but its fragments are interned later, by RegisterSectionPieces.
func (o *ObjectFile) InitializeMergeableSections(ctx *Context) {
	o.MergeableSections = make([]*MergeableSection, len(o.Sections))
	for i, isec := range o.Sections {
		if isec != nil && isec.IsAlive && isec.Shdr().Flags&SHF_MERGE != 0 {
			o.MergeableSections[i] = splitSection(ctx, isec)
			isec.IsAlive = false
		}
	}
}

func findNull(data []byte, entSize int) int {
	if entSize == 1 {
		return bytes.IndexByte(data, 0)
	}
	for i := 0; i <= len(data)-entSize; i += entSize {
		if utils.AllZeros(data[i : i+entSize]) {
			return i
		}
	}
	return -1
}

func splitSection(ctx *Context, isec *InputSection) *MergeableSection {
	m := &MergeableSection{}
	shdr := isec.Shdr()

	m.Parent = GetMergedSectionInstance(ctx, isec.Name(), shdr.Type, shdr.Flags, shdr.EntSize)
	m.P2Align = isec.P2Align

	data := isec.Contents
	offset := uint64(0)
	if shdr.Flags&SHF_STRINGS != 0 {
		for len(data) > 0 {
			end := findNull(data, int(shdr.EntSize))
			if end == -1 {
				ctx.Logger.Fatal(isec.Name() + ": string is not null terminated")
			}
			sz := uint64(end) + shdr.EntSize
			m.Strs = append(m.Strs, string(data[:sz]))
			m.FragOffsets = append(m.FragOffsets, uint32(offset))
			data = data[sz:]
			offset += sz
		}
	} else {
		if shdr.EntSize == 0 || uint64(len(data))%shdr.EntSize != 0 {
			ctx.Logger.Fatal(isec.Name() + ": section size is not a multiple of entsize")
		}
		for len(data) > 0 {
			m.Strs = append(m.Strs, string(data[:shdr.EntSize]))
			m.FragOffsets = append(m.FragOffsets, uint32(offset))
			data = data[shdr.EntSize:]
			offset += shdr.EntSize
		}
	}
	return m
}

// RegisterSectionPieces interns every fragment this file's mergeable
// sections produced and repoints any symbol that pointed into one of
// those sections at its fragment instead.
func (o *ObjectFile) RegisterSectionPieces(ctx *Context) {
	for i, m := range o.MergeableSections {
		if m == nil {
			continue
		}
		// A mergeable section that sat in a COMDAT group that lost the
		// leader election must not contribute its strings to the global
		// table: another copy, kept alive by the winning file, already
		// will (or already did).
		if isec := o.Sections[i]; isec != nil && isec.Group != nil && isec.Group.Owner != o {
			continue
		}
		m.Fragments = make([]*SectionFragment, 0, len(m.Strs))
		for _, s := range m.Strs {
			m.Fragments = append(m.Fragments, m.Parent.Insert(s, uint32(m.P2Align)))
		}
	}

	for i := 1; i < len(o.ElfSyms); i++ {
		esym := &o.ElfSyms[i]
		if esym.IsAbs() || esym.IsUndef() || esym.IsCommon() {
			continue
		}

		shndx := o.GetShndx(esym, i)
		if shndx < 0 || shndx >= int64(len(o.MergeableSections)) {
			continue
		}
		m := o.MergeableSections[shndx]
		if m == nil {
			continue
		}
		if isec := o.Sections[shndx]; isec != nil && isec.Group != nil && isec.Group.Owner != o {
			continue
		}

		frag, fragOffset := m.GetFragment(uint32(esym.Val))
		if frag == nil {
			ctx.Logger.Fatal(o.String() + ": bad symbol value")
		}

		sym := o.Symbols[i]
		if sym.File == &o.InputFile {
			sym.SetSectionFragment(frag)
			sym.Value = uint64(fragOffset)
		}
	}
}

// RewriteMergeableRelocations gives every relocation that names an
// STT_SECTION symbol pointing into a (now-split) mergeable section a
// synthetic per-file hidden symbol instead, so r_sym stays a single-space
// integer no matter how many pieces the target section was split into.
// The synthetic symbol's value is chosen so that value+addend still
// equals the fragment-relative offset the relocation originally named.
func (o *ObjectFile) RewriteMergeableRelocations(ctx *Context) {
	for _, isec := range o.Sections {
		if isec == nil || !isec.IsAlive || isec.Shdr().Flags&SHF_ALLOC == 0 {
			continue
		}

		rels := isec.GetRels()
		for i := range rels {
			r := &rels[i]
			symIdx := int(r.Sym())
			if symIdx == 0 || symIdx >= len(o.ElfSyms) {
				continue
			}
			esym := &o.ElfSyms[symIdx]
			if esym.Type() != STT_SECTION {
				continue
			}

			shndx := o.GetShndx(esym, symIdx)
			if shndx < 0 || shndx >= int64(len(o.MergeableSections)) {
				continue
			}
			m := o.MergeableSections[shndx]
			if m == nil {
				continue
			}

			at := uint32(int64(esym.Val) + r.Addend)
			frag, inFragOffset := m.GetFragment(at)
			if frag == nil {
				ctx.Logger.Fatal(fmt.Sprintf("%s: bad relocation at r_sym %d", o, symIdx))
			}

			fragSym := NewSymbol("")
			fragSym.File = &o.InputFile
			fragSym.Visibility = STV_HIDDEN
			fragSym.SetSectionFragment(frag)
			fragSym.Value = uint64(int64(inFragOffset) - r.Addend)

			newIdx := len(o.ElfSyms) + len(o.FragSyms)
			fragSym.SymIdx = newIdx
			o.FragSyms = append(o.FragSyms, fragSym)
			o.Symbols = append(o.Symbols, fragSym)

			rels[i] = Rela{
				Offset: r.Offset,
				Info:   (uint64(uint32(newIdx)) << 32) | uint64(r.Type()),
				Addend: r.Addend,
			}
		}
	}
}

// SortRelocations stable-sorts the relocation list of every live,
// allocated section by r_offset. Only architectures whose assemblers
// don't guarantee offset order need this; calling it unconditionally
// would be harmless but wasted work on every other target.
func (o *ObjectFile) SortRelocations(ctx *Context) {
	if !ctx.Args.Emulation.NeedsRelocationSort() {
		return
	}
	for _, isec := range o.Sections {
		if isec == nil || !isec.IsAlive || isec.Shdr().Flags&SHF_ALLOC == 0 {
			continue
		}
		rels := isec.GetRels()
		sort.SliceStable(rels, func(i, j int) bool {
			return rels[i].Offset < rels[j].Offset
		})
	}
}

func (o *ObjectFile) CollectEhFrameSections() {
	for _, isec := range o.Sections {
		if isec != nil && isec.IsAlive && isec.Name() == ".eh_frame" {
			o.EhFrameSections = append(o.EhFrameSections, isec)
		}
	}
}

// ConvertCommonSymbols backs every tentative (common) definition that
// still belongs to this file after resolution with a synthetic
// SHT_NOBITS section, the way a real .bss/.tls_common allocation would.
func (o *ObjectFile) ConvertCommonSymbols(ctx *Context) {
	if !o.HasCommonSymbol {
		return
	}

	for i := o.FirstGlobal; i < len(o.ElfSyms); i++ {
		esym := &o.ElfSyms[i]
		if !esym.IsCommon() {
			continue
		}

		sym := o.Symbols[i]
		if sym.File != &o.InputFile {
			if ctx.Args.WarnCommon {
				ctx.Warnings.Add(fmt.Errorf("%s: multiple common symbols: %s", o, sym.Name))
			}
			continue
		}

		shdr := &Shdr{Type: SHT_NOBITS, Size: esym.Size, AddrAlign: esym.Val}
		if esym.Type() == STT_TLS {
			shdr.Flags = SHF_ALLOC | SHF_WRITE | SHF_TLS
		} else {
			shdr.Flags = SHF_ALLOC | SHF_WRITE
		}

		idx := uint32(len(o.ElfSections) + len(o.syntheticSections))
		o.syntheticSections = append(o.syntheticSections, shdr)
		o.ElfSections = append(o.ElfSections, *shdr)

		isec := &InputSection{File: o, Shndx: idx, IsAlive: true, ShSize: uint32(shdr.Size)}
		o.Sections = append(o.Sections, isec)

		sym.SetInputSection(isec)
		sym.Value = 0
	}
}

// ComputeSymtabSize assigns every surviving symbol a dense output index
// (locals first, then globals) and totals the bytes its name will need in
// the output string table, mirroring should_write_to_local_symtab's
// exclusion of .L-prefixed locals in mergeable sections.
func (o *ObjectFile) ComputeSymtabSize(ctx *Context) {
	o.OutputSymIndices = make([]int32, len(o.ElfSyms))
	for i := range o.OutputSymIndices {
		o.OutputSymIndices[i] = -1
	}

	isAlive := func(sym *Symbol) bool {
		if sym.SectionFragment != nil {
			return sym.SectionFragment.IsAlive
		}
		if sym.InputSection != nil {
			return sym.InputSection.IsAlive
		}
		return true
	}

	// Per §4.9's surviving-local policy: unless discard_all, strip_all, or
	// retain_symbols_file is set, keep locals that pass is_alive and
	// shouldWriteToLocalSymtab; any of those three flags drops every local.
	keepLocals := !ctx.Args.DiscardAll && !ctx.Args.StripAll && ctx.Args.RetainSymbolsFile == ""
	if keepLocals {
		for i := 1; i < o.FirstGlobal; i++ {
			sym := o.Symbols[i]
			if isAlive(sym) && shouldWriteToLocalSymtab(sym, ctx.Args.DiscardLocals) {
				o.StrtabSize += int64(len(sym.Name)) + 1
				o.OutputSymIndices[i] = o.NumLocalSymtab
				o.NumLocalSymtab++
			}
		}
	}

	for i := o.FirstGlobal; i < len(o.ElfSyms); i++ {
		sym := o.Symbols[i]
		if sym.File == &o.InputFile && isAlive(sym) {
			o.StrtabSize += int64(len(sym.Name)) + 1
			if sym.Visibility == STV_HIDDEN {
				o.OutputSymIndices[i] = o.NumLocalSymtab
				o.NumLocalSymtab++
			} else {
				o.OutputSymIndices[i] = o.NumGlobalSymtab
				o.NumGlobalSymtab++
			}
		}
	}
}

func shouldWriteToLocalSymtab(sym *Symbol, discardLocals bool) bool {
	if sym.SymIdx >= 0 && sym.File != nil && sym.SymIdx < len(sym.File.ElfSyms) &&
		sym.File.ElfSyms[sym.SymIdx].Type() == STT_SECTION {
		return false
	}
	if hasPrefix(sym.Name, ".L") || sym.Name == "L0\x01" {
		if discardLocals {
			return false
		}
		if sym.InputSection != nil && sym.InputSection.Shdr().Flags&SHF_MERGE != 0 {
			return false
		}
	}
	return true
}

// SymtabEntry is one record this file contributes to the final .symtab,
// carrying the output-relative string-table offset for its name.
type SymtabEntry struct {
	Sym      Sym
	Name     string
	LocalIdx bool
}

// PopulateSymtab renders every symbol ComputeSymtabSize marked for output
// into SymtabEntry records, sorted local-then-global the way the real
// .symtab layout requires. Names are returned rather than written into a
// shared string table buffer, since no output file is laid out by this
// linker core.
func (o *ObjectFile) PopulateSymtab() []SymtabEntry {
	entries := make([]SymtabEntry, 0, o.NumLocalSymtab+o.NumGlobalSymtab)

	emit := func(i int) {
		sym := o.Symbols[i]
		esym := o.ElfSyms[i]
		esym.Val = sym.Value
		esym.SetVisibility(sym.Visibility)
		entries = append(entries, SymtabEntry{
			Sym:      esym,
			Name:     sym.Name,
			LocalIdx: o.OutputSymIndices[i] < o.NumLocalSymtab && sym.Visibility == STV_HIDDEN || esym.Bind() == STB_LOCAL,
		})
	}

	for i := 1; i < o.FirstGlobal; i++ {
		if o.OutputSymIndices[i] >= 0 {
			emit(i)
		}
	}
	for i := o.FirstGlobal; i < len(o.ElfSyms); i++ {
		if o.Symbols[i].File == &o.InputFile && o.OutputSymIndices[i] >= 0 {
			emit(i)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LocalIdx && !entries[j].LocalIdx
	})
	return entries
}
