package linker

import (
	"sync"

	"github.com/golinker/rvld/pkg/utils"
)

// Symbol is the linker's internal handle for one global name. A Symbol
// outlives any single file: ObjectFile/SharedFile instances hand candidate
// definitions to it during resolution, and only the highest-ranked
// candidate survives as File/InputSection/Value.
//
// mu guards File, InputSection, SectionFragment, Value, SymIdx, Visibility
// and VerIdx, since multiple file-parsing goroutines may try to claim the
// same Symbol concurrently.
type Symbol struct {
	mu sync.Mutex

	Name string

	File            *InputFile
	InputSection    *InputSection
	SectionFragment *SectionFragment

	Value  uint64
	SymIdx int

	rankKey int64

	// commonSize/commonAlign cache the st_size/st_value of the common
	// candidate currently backing rankKey, so a later common candidate of
	// equal rank can be compared by size rather than file priority.
	commonSize, commonAlign uint64

	Visibility uint8

	// VerIdx/VerName hold the .gnu.version information for a versioned
	// DSO definition (name@version).
	VerIdx  uint16
	VerName string

	IsWeak     bool
	IsImported bool // defined by a DSO, not a regular object
	IsExported bool // visible to DSOs that may look this symbol up
	IsWrapped  bool // --wrap target: real definition is reachable via __real_
	IsTraced   bool // named by --trace-symbol; resolution logs it

	// IsVersionedDefault and Origin describe a DSO's foo@@version shadow:
	// Origin points at the plain-name Symbol the shadow should be treated
	// as an alias of, once both have finished resolving.
	IsVersionedDefault bool
	Origin             *Symbol

	Flags uint32
}

func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name, SymIdx: -1, rankKey: RankKey(7, 1<<62)}
}

// GetSymbolByName interns the global symbol named name into ctx.SymbolMap,
// creating it on first mention. Backed by sync.Map so concurrent
// ObjectFile/SharedFile goroutines parsing different input files can
// safely race to create the same symbol.
func GetSymbolByName(ctx *Context, name string) *Symbol {
	if v, ok := ctx.SymbolMap.Load(name); ok {
		return v.(*Symbol)
	}
	sym := NewSymbol(name)
	actual, _ := ctx.SymbolMap.LoadOrStore(name, sym)
	return actual.(*Symbol)
}

func (s *Symbol) SetInputSection(isec *InputSection) {
	s.InputSection = isec
	s.SectionFragment = nil
}

func (s *Symbol) SetSectionFragment(frag *SectionFragment) {
	s.InputSection = nil
	s.SectionFragment = frag
}

func (s *Symbol) ElfSym() *Sym {
	utils.Assert(s.SymIdx >= 0 && s.SymIdx < len(s.File.ElfSyms))
	return &s.File.ElfSyms[s.SymIdx]
}

func (s *Symbol) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.File = nil
	s.InputSection = nil
	s.SectionFragment = nil
	s.SymIdx = -1
	s.rankKey = RankKey(7, 1<<62)
}

func (s *Symbol) GetAddr() uint64 {
	if s.SectionFragment != nil {
		return s.SectionFragment.GetAddr() + s.Value
	}
	if s.InputSection != nil {
		return s.InputSection.GetAddr() + s.Value
	}
	return s.Value
}

// mergeVisibility restricts s.Visibility to the more conservative of its
// current value and candidate, per the monotonic rule: HIDDEN and
// INTERNAL always win over PROTECTED and DEFAULT, and once a symbol has
// been hidden it can never become visible again through a later
// definition.
func (s *Symbol) mergeVisibility(candidate uint8) {
	rank := func(v uint8) int {
		switch v {
		case STV_HIDDEN, STV_INTERNAL:
			return 0
		case STV_PROTECTED:
			return 1
		default:
			return 2
		}
	}
	if rank(candidate) < rank(s.Visibility) {
		s.Visibility = candidate
	}
}

// tryClaim attempts to make file/esym/idx the winning definition of s. It
// is safe to call concurrently from many ObjectFile/SharedFile goroutines:
// only the call whose rank strictly improves on the incumbent wins, ties
// broken by file priority (the earliest-named file on the command line
// keeps its claim) — except when both the incumbent and the candidate are
// common symbols of equal rank, where the larger size wins regardless of
// which file was named first (ties on size broken by larger alignment,
// then by priority as usual).
func (s *Symbol) tryClaim(file *InputFile, esym *Sym, idx int, isLazy bool, excludeLibs bool) bool {
	rank := GetRank(file, esym, isLazy)
	key := RankKey(rank, file.Priority)

	s.mu.Lock()
	defer s.mu.Unlock()

	visibility := esym.Visibility()
	if excludeLibs && file.InArchive && !esym.IsUndef() {
		visibility = STV_HIDDEN
	}
	s.mergeVisibility(visibility)

	if esym.IsCommon() && int32(s.rankKey>>24) == rank {
		if esym.Size < s.commonSize ||
			(esym.Size == s.commonSize && (esym.Val < s.commonAlign ||
				(esym.Val == s.commonAlign && key >= s.rankKey))) {
			return false
		}
	} else if key >= s.rankKey {
		return false
	}

	s.rankKey = key
	s.File = file
	s.Value = esym.Val
	s.SymIdx = idx
	s.IsWeak = esym.IsWeak()
	s.IsImported = file.IsDSO
	if esym.IsCommon() {
		s.commonSize = esym.Size
		s.commonAlign = esym.Val
	}
	return true
}

// MarkVersionedDefault records that s is the foo@version shadow handle of
// a DSO's default-versioned symbol, pointing at the plain-name Symbol it
// shadows. Called after s has already won tryClaim against the same
// definition its primary claimed.
func (s *Symbol) MarkVersionedDefault(origin *Symbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Origin = origin
	s.IsVersionedDefault = true
}
