package linker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func commonSym(weak bool) *Sym {
	s := &Sym{Shndx: uint16(SHN_COMMON)}
	if weak {
		s.SetBind(STB_WEAK)
	} else {
		s.SetBind(STB_GLOBAL)
	}
	return s
}

func definedSym(weak bool) *Sym {
	s := &Sym{Shndx: 1}
	if weak {
		s.SetBind(STB_WEAK)
	} else {
		s.SetBind(STB_GLOBAL)
	}
	return s
}

func undefSym() *Sym {
	return &Sym{Shndx: uint16(SHN_UNDEF)}
}

// TestGetRank matches the precedence table in spec.md §4.7 exactly: strong
// defined symbols on the command line rank highest, undefined ranks
// lowest, and common symbols sit below every defined symbol.
func TestGetRank(t *testing.T) {
	cmdline := &InputFile{}
	dso := &InputFile{IsDSO: true}

	require.EqualValues(t, 1, GetRank(cmdline, definedSym(false), false))
	require.EqualValues(t, 2, GetRank(cmdline, definedSym(true), false))
	require.EqualValues(t, 3, GetRank(dso, definedSym(false), false))
	require.EqualValues(t, 3, GetRank(cmdline, definedSym(false), true))
	require.EqualValues(t, 4, GetRank(dso, definedSym(true), false))
	require.EqualValues(t, 4, GetRank(cmdline, definedSym(true), true))
	require.EqualValues(t, 5, GetRank(cmdline, commonSym(false), false))
	require.EqualValues(t, 6, GetRank(cmdline, commonSym(false), true))
	require.EqualValues(t, 7, GetRank(cmdline, undefSym(), false))
}

func TestRankKeyOrdersByRankThenPriority(t *testing.T) {
	lowPriorityStrong := RankKey(1, 1)
	highPriorityStrong := RankKey(1, 2)
	weak := RankKey(2, 1)

	require.Less(t, lowPriorityStrong, highPriorityStrong)
	require.Less(t, lowPriorityStrong, weak)
}
