package linker

import (
	"fmt"
	"sync/atomic"

	"github.com/golinker/rvld/pkg/utils"
)

// InputFile is the common base embedded by both ObjectFile and SharedFile.
// Everything that both a relocatable object and a shared object need in
// order to take part in symbol resolution lives here; the two concrete
// types add what's specific to their own ELF type on top.
type InputFile struct {
	File        *File
	ElfSections []Shdr
	ShStrtab    []byte

	ElfSyms     []Sym
	FirstGlobal int
	SymbolStrtab []byte

	// Symbols holds one *Symbol per entry in ElfSyms: indices below
	// FirstGlobal point into LocalSymbols, the rest are interned in
	// ctx.SymbolMap.
	Symbols      []*Symbol
	LocalSymbols []Symbol

	// Priority breaks resolution ties between equally-ranked definitions:
	// lower values were named earlier on the command line and win.
	Priority int64

	// IsDSO distinguishes a SharedFile from an ObjectFile when only the
	// common InputFile is in hand, e.g. while computing a symbol's rank.
	IsDSO bool

	// InArchive marks a file pulled out of a static library member, for
	// the --exclude-libs visibility rule.
	InArchive bool

	isAlive atomic.Bool
}

func (f *InputFile) IsAlive() bool   { return f.isAlive.Load() }
func (f *InputFile) SetAlive(v bool) { f.isAlive.Store(v) }

// MarkAlive sets IsAlive to true and reports whether this call was the one
// that did so, for callers that need to feed newly-discovered files into a
// worklist exactly once.
func (f *InputFile) MarkAlive() bool {
	return f.isAlive.CompareAndSwap(false, true)
}

func (f *InputFile) Name() string {
	if f.File == nil {
		return "<internal>"
	}
	return f.File.Name
}

// NewInputFile parses just enough of an ELF file (header plus section
// header table and the section-header string table) to let callers look
// sections up by name or type before deciding what kind of file this is.
func NewInputFile(file *File) InputFile {
	f := InputFile{File: file}

	if len(file.Contents) < EhdrSize {
		utils.Fatal("file too small: " + file.Name)
	}
	if !CheckMagic(file.Contents) {
		utils.Fatal("not an ELF file: " + file.Name)
	}

	ehdr := utils.Read[Ehdr](file.Contents)
	rest := file.Contents[ehdr.ShOff:]
	shdr := utils.Read[Shdr](rest)

	numSections := int64(ehdr.ShNum)
	if numSections == 0 {
		numSections = int64(shdr.Size)
	}

	f.ElfSections = make([]Shdr, 0, numSections)
	f.ElfSections = append(f.ElfSections, shdr)
	for numSections > 1 {
		rest = rest[ShdrSize:]
		f.ElfSections = append(f.ElfSections, utils.Read[Shdr](rest))
		numSections--
	}

	shstrndx := int64(ehdr.ShStrNdx)
	if ehdr.ShStrNdx == uint16(SHN_XINDEX) {
		shstrndx = int64(shdr.Link)
	}
	f.ShStrtab = f.GetBytesFromIdx(shstrndx)
	return f
}

func (f *InputFile) GetBytesFromShdr(s *Shdr) []byte {
	end := s.Offset + s.Size
	if uint64(len(f.File.Contents)) < end {
		utils.Fatal(fmt.Sprintf("%s: section out of range at offset %d", f.Name(), s.Offset))
	}
	return f.File.Contents[s.Offset:end]
}

func (f *InputFile) GetBytesFromIdx(idx int64) []byte {
	return f.GetBytesFromShdr(&f.ElfSections[idx])
}

func (f *InputFile) FillUpElfSyms(s *Shdr) {
	bs := f.GetBytesFromShdr(s)
	f.ElfSyms = utils.ReadSlice[Sym](bs, SymSize)
}

func (f *InputFile) FindSection(ty uint32) *Shdr {
	for i := range f.ElfSections {
		if f.ElfSections[i].Type == ty {
			return &f.ElfSections[i]
		}
	}
	return nil
}

func (f *InputFile) GetEhdr() Ehdr {
	return utils.Read[Ehdr](f.File.Contents)
}

// SymbolName resolves the name of the i'th ELF symbol through the symbol
// string table, splitting off a trailing @version or @@version suffix the
// way the version script driven build systems emit.
func (f *InputFile) SymbolName(i int) (name string, verName string, isDefault bool) {
	full := ElfGetName(f.SymbolStrtab, f.ElfSyms[i].Name)
	if idx := indexByte(full, '@'); idx >= 0 {
		isDefault = idx+1 < len(full) && full[idx+1] == '@'
		if isDefault {
			return full[:idx], full[idx+2:], true
		}
		return full[:idx], full[idx+1:], false
	}
	return full, "", false
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
