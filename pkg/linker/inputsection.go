package linker

import (
	"math"
	"math/bits"

	"github.com/golinker/rvld/pkg/utils"
)

// InputSection mirrors one ELF section of an ObjectFile. Not every ELF
// section gets one: symbol tables, string tables, relocation tables and
// group sections are consumed directly by ObjectFile.InitializeSections
// instead.
type InputSection struct {
	File     *ObjectFile
	Contents []byte
	Shndx    uint32
	ShSize   uint32
	IsAlive  bool
	P2Align  uint8

	RelsecIdx uint32
	Rels      []Rela

	// Group is non-nil if this section is a member of a COMDAT group.
	// Once ResolveComdatGroups has run, Group.Owner tells callers whether
	// this particular copy of the section survived the leader election.
	Group *ComdatGroup
}

func NewInputSection(name string, file *ObjectFile, shndx uint32) *InputSection {
	s := &InputSection{
		File:      file,
		Shndx:     shndx,
		IsAlive:   true,
		RelsecIdx: math.MaxUint32,
		ShSize:    math.MaxUint32,
	}

	shdr := s.Shdr()
	s.Contents = file.File.Contents[shdr.Offset : shdr.Offset+shdr.Size]
	utils.Assert(shdr.Flags&SHF_COMPRESSED == 0)
	s.ShSize = uint32(shdr.Size)

	if shdr.AddrAlign == 0 {
		s.P2Align = 0
	} else {
		s.P2Align = uint8(bits.TrailingZeros64(shdr.AddrAlign))
	}

	if shdr.Flags&SHF_EXCLUDE != 0 {
		s.IsAlive = false
	}

	_ = name
	return s
}

func (i *InputSection) Shdr() *Shdr {
	utils.Assert(i.Shndx < uint32(len(i.File.ElfSections)))
	return &i.File.ElfSections[i.Shndx]
}

func (i *InputSection) Name() string {
	return ElfGetName(i.File.ShStrtab, i.Shdr().Name)
}

// GetRels decodes this section's relocations on first use, transparently
// handling both the classic SHT_RELA layout and the compact SHT_CREL
// encoding.
func (i *InputSection) GetRels() []Rela {
	if i.RelsecIdx == math.MaxUint32 || i.Rels != nil {
		return i.Rels
	}

	relShdr := &i.File.InputFile.ElfSections[i.RelsecIdx]
	if relShdr.Type == SHT_CREL {
		bs := i.File.GetBytesFromShdr(relShdr)
		i.Rels = DecodeCrel(bs)
		return i.Rels
	}

	bs := i.File.GetBytesFromShdr(relShdr)
	i.Rels = utils.ReadSlice[Rela](bs, RelaSize)
	return i.Rels
}

// GetAddr is unavailable without an output-layout pass: callers that need
// a concrete address (mergeable-fragment resolution aside) operate only on
// alive, not-yet-laid-out sections.
func (i *InputSection) GetAddr() uint64 {
	return 0
}
