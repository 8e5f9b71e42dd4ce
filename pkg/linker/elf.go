package linker

import "github.com/golinker/rvld/pkg/utils"

// File header and section/program header layout for 64-bit little-endian
// ELF, the only class this linker core understands. Field names and sizes
// mirror the on-disk layout so utils.Read can overlay them directly onto
// mapped file bytes.

const (
	EhdrSize  = 64
	ShdrSize  = 64
	PhdrSize  = 56
	SymSize   = 24
	RelaSize  = 24
	DynSize   = 16
	ChdrSize  = 24
	VerdefSize  = 20
	VerdauxSize = 8
	VerneedSize = 16
	VernauxSize = 16
)

type Ehdr struct {
	Ident     [16]uint8
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

type Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

type Phdr struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

type Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Val   uint64
	Size  uint64
}

type Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

func (r Rela) Sym() uint32  { return uint32(r.Info >> 32) }
func (r Rela) Type() uint32 { return uint32(r.Info) }

type Dyn struct {
	Tag uint64
	Val uint64
}

// Chdr is the ELF compressed-section header (SHF_COMPRESSED), unused by the
// in-scope components but kept for section classification completeness.
type Chdr struct {
	Type      uint32
	Reserved  uint32
	Size      uint64
	AddrAlign uint64
}

type Verdef struct {
	Version uint16
	Flags   uint16
	Ndx     uint16
	Cnt     uint16
	Hash    uint32
	Aux     uint32
	Next    uint32
}

type Verdaux struct {
	Name uint32
	Next uint32
}

type Verneed struct {
	Version uint16
	Cnt     uint16
	File    uint32
	Aux     uint32
	Next    uint32
}

type Vernaux struct {
	Hash  uint32
	Flags uint16
	Other uint16
	Name  uint32
	Next  uint32
}

// Sym.Info accessors. The high 4 bits hold the binding, the low 4 bits the
// type, per the standard ELF st_info packing.
func (s Sym) Bind() uint8 { return s.Info >> 4 }
func (s Sym) Type() uint8 { return s.Info & 0xf }

func (s *Sym) SetBind(bind uint8) { s.Info = (bind << 4) | s.Type() }
func (s *Sym) SetType(typ uint8)  { s.Info = (s.Bind() << 4) | (typ & 0xf) }

func (s Sym) IsUndef() bool     { return s.Shndx == uint16(SHN_UNDEF) }
func (s Sym) IsAbs() bool       { return s.Shndx == uint16(SHN_ABS) }
func (s Sym) IsCommon() bool    { return s.Shndx == uint16(SHN_COMMON) }
func (s Sym) IsWeak() bool      { return s.Bind() == STB_WEAK }
func (s Sym) IsUndefWeak() bool { return s.IsUndef() && s.IsWeak() }
func (s Sym) IsLocal() bool     { return s.Bind() == STB_LOCAL }

// st_other packs the visibility in its low two bits.
func (s Sym) Visibility() uint8     { return s.Other & 0x3 }
func (s *Sym) SetVisibility(v uint8) { s.Other = v & 0x3 }

// Symbol bindings.
const (
	STB_LOCAL  = 0
	STB_GLOBAL = 1
	STB_WEAK   = 2
)

// Symbol types.
const (
	STT_NOTYPE  = 0
	STT_OBJECT  = 1
	STT_FUNC    = 2
	STT_SECTION = 3
	STT_FILE    = 4
	STT_COMMON  = 5
	STT_TLS     = 6
	STT_GNU_IFUNC = 10
)

// Symbol visibilities (st_other values). Their numeric order is not their
// restrictiveness order; Symbol.mergeVisibility ranks them itself.
const (
	STV_DEFAULT   = 0
	STV_INTERNAL  = 1
	STV_HIDDEN    = 2
	STV_PROTECTED = 3
)

// Special section indexes.
const (
	SHN_UNDEF  = 0
	SHN_ABS    = 0xfff1
	SHN_COMMON = 0xfff2
	SHN_XINDEX = 0xffff
)

// Section types (sh_type) relevant to object-file parsing.
const (
	SHT_NULL          = 0
	SHT_PROGBITS      = 1
	SHT_SYMTAB        = 2
	SHT_STRTAB        = 3
	SHT_RELA          = 4
	SHT_HASH          = 5
	SHT_DYNAMIC       = 6
	SHT_NOTE          = 7
	SHT_NOBITS        = 8
	SHT_REL           = 9
	SHT_SHLIB         = 10
	SHT_DYNSYM        = 11
	SHT_INIT_ARRAY    = 14
	SHT_FINI_ARRAY    = 15
	SHT_PREINIT_ARRAY = 16
	SHT_GROUP         = 17
	SHT_SYMTAB_SHNDX  = 18
	SHT_RELR          = 19
	SHT_LLVM_ADDRSIG  = 0x6fff4c03
	SHT_GNU_ATTRIBUTES = 0x6ffffff5
	SHT_GNU_HASH      = 0x6ffffff6
	SHT_GNU_VERDEF    = 0x6ffffffd
	SHT_GNU_VERNEED   = 0x6ffffffe
	SHT_GNU_VERSYM    = 0x6fffffff
	SHT_X86_64_UNWIND = 0x70000001
	SHT_RISCV_ATTRIBUTES = 0x70000003
	SHT_CREL          = 0x40000014
)

// Section flags (sh_flags).
const (
	SHF_WRITE     = 0x1
	SHF_ALLOC     = 0x2
	SHF_EXECINSTR = 0x4
	SHF_MERGE     = 0x10
	SHF_STRINGS   = 0x20
	SHF_INFO_LINK = 0x40
	SHF_GROUP     = 0x200
	SHF_TLS       = 0x400
	SHF_COMPRESSED = 0x800
	SHF_EXCLUDE   = 0x80000000
)

// Group flags (used by SHT_GROUP's first word).
const (
	GRP_COMDAT = 0x1
)

// Dynamic tags (d_tag).
const (
	DT_NULL     = 0
	DT_NEEDED   = 1
	DT_STRTAB   = 5
	DT_SYMTAB   = 6
	DT_SONAME   = 14
	DT_AUDIT    = 0x6ffffefc
	DT_VERSYM   = 0x6ffffff0
	DT_VERDEF   = 0x6ffffffc
	DT_VERDEFNUM = 0x6ffffffd
)

// Version symbol table indexes and flags (SHT_GNU_VERSYM entries).
const (
	VER_NDX_LOCAL  = 0
	VER_NDX_GLOBAL = 1
	VERSYM_VERSION = 0x7fff
	VERSYM_HIDDEN  = 0x8000
)

// Version definition flags (Verdef.Flags).
const (
	VER_FLG_BASE = 0x1
)

// GNU property note types (NT_GNU_PROPERTY_TYPE_0 notes).
const (
	NT_GNU_PROPERTY_TYPE_0       = 5
	GNU_PROPERTY_X86_FEATURE_1_AND = 0xc0000002
	GNU_PROPERTY_AARCH64_FEATURE_1_AND = 0xc0000000
	GNU_PROPERTY_RISCV_FEATURE_1_AND = 0xc0000000
)

// RISC-V attribute tags, as encoded in SHT_RISCV_ATTRIBUTES / .riscv.attributes.
const (
	ELF_TAG_FILE               = 1
	ELF_TAG_RISCV_STACK_ALIGN  = 4
	ELF_TAG_RISCV_ARCH         = 5
	ELF_TAG_RISCV_UNALIGNED_ACCESS = 6
	ELF_TAG_RISCV_PRIORITY     = 8
)

// Object file type (e_type).
const (
	ET_NONE = 0
	ET_REL  = 1
	ET_EXEC = 2
	ET_DYN  = 3
	ET_CORE = 4
)

// MachineType identifies e_machine. This linker only targets RISC-V64, but
// the constant mirrors the other values so CheckFileCompatibility can report
// a clear "incompatible file type" diagnostic instead of silently misparsing.
type MachineType uint16

const (
	MachineTypeNone    MachineType = 0
	MachineTypeX86_64  MachineType = 62
	MachineTypeARM     MachineType = 40
	MachineTypeAARCH64 MachineType = 183
	MachineTypePPC32   MachineType = 20
	MachineTypeRISCV64 MachineType = 243
	MachineTypeLoongArch MachineType = 258
)

// NeedsRelocationSort reports whether this architecture's assembler is
// permitted to emit a section's relocations out of r_offset order, which
// RISC-V and LoongArch both do to make linker relaxation cheaper to patch
// in afterward.
func (m MachineType) NeedsRelocationSort() bool {
	return m == MachineTypeRISCV64 || m == MachineTypeLoongArch
}

// Absolute (load-address-valued) relocation types, one per architecture
// this linker's emulation field can name. Used by scanEhFrameRelocations
// to flag a --pic build that still carries an absolute .eh_frame
// relocation, which a position-independent output cannot satisfy.
const (
	R_X86_64_64   = 1
	R_AARCH64_ABS64 = 257
	R_PPC32_ADDR32 = 1
	R_RISCV_64    = 2
	R_LARCH_64    = 2
)

// AbsRelocType reports the relocation type this architecture uses for a
// plain 64-bit (or word-sized, on 32-bit targets) absolute reference.
func (m MachineType) AbsRelocType() uint32 {
	switch m {
	case MachineTypeX86_64:
		return R_X86_64_64
	case MachineTypeAARCH64:
		return R_AARCH64_ABS64
	case MachineTypePPC32:
		return R_PPC32_ADDR32
	case MachineTypeRISCV64:
		return R_RISCV_64
	case MachineTypeLoongArch:
		return R_LARCH_64
	default:
		return 0
	}
}

// FileType distinguishes the handful of inputs ReadInputFiles accepts.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeObject
	FileTypeArchive
	FileTypeSharedObject
)

var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

// CheckMagic reports whether contents begin with the ELF magic number.
func CheckMagic(contents []byte) bool {
	if len(contents) < 4 {
		return false
	}
	return contents[0] == elfMagic[0] && contents[1] == elfMagic[1] &&
		contents[2] == elfMagic[2] && contents[3] == elfMagic[3]
}

// GetFileType classifies contents as an ELF object/shared-object, a System V
// archive, or unknown, without fully parsing it.
func GetFileType(contents []byte) FileType {
	if CheckMagic(contents) {
		ehdr := utils.Read[Ehdr](contents)
		switch ehdr.Type {
		case ET_REL:
			return FileTypeObject
		case ET_DYN:
			return FileTypeSharedObject
		}
		return FileTypeUnknown
	}
	if len(contents) >= 8 && string(contents[:8]) == "!<arch>\n" {
		return FileTypeArchive
	}
	return FileTypeUnknown
}

// ElfGetName reads a NUL-terminated string out of a string table section at
// the given byte offset.
func ElfGetName(strtab []byte, offset uint32) string {
	if int(offset) >= len(strtab) {
		return ""
	}
	end := offset
	for end < uint32(len(strtab)) && strtab[end] != 0 {
		end++
	}
	return string(strtab[offset:end])
}
