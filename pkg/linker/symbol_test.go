package linker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTryClaimPrefersLowerRankThenPriority(t *testing.T) {
	sym := NewSymbol("foo")

	archive := &InputFile{Priority: 2}
	cmdline := &InputFile{Priority: 1}

	require.True(t, sym.tryClaim(archive, definedSym(true), 5, true, false))
	require.Equal(t, archive, sym.File)

	// A strong command-line definition outranks the weak definition of a
	// not-yet-reachable archive member.
	require.True(t, sym.tryClaim(cmdline, definedSym(false), 7, false, false))
	require.Equal(t, cmdline, sym.File)

	// A second, later strong definition never displaces the first winner.
	later := &InputFile{Priority: 3}
	require.False(t, sym.tryClaim(later, definedSym(false), 9, false, false))
	require.Equal(t, cmdline, sym.File)
}

func TestTryClaimCommonMergeKeepsLargerSize(t *testing.T) {
	sym := NewSymbol("buf")

	small := &InputFile{Priority: 1}
	big := &InputFile{Priority: 2}

	smallSym := commonSym(false)
	smallSym.Size = 16
	smallSym.Val = 8

	bigSym := commonSym(false)
	bigSym.Size = 32
	bigSym.Val = 16

	require.True(t, sym.tryClaim(small, smallSym, 1, false, false))
	require.True(t, sym.tryClaim(big, bigSym, 2, false, false))
	require.Equal(t, big, sym.File)
	require.EqualValues(t, 32, sym.commonSize)
	require.EqualValues(t, 16, sym.commonAlign)

	// A later, smaller common candidate must not take back the claim.
	require.False(t, sym.tryClaim(small, smallSym, 1, false, false))
	require.Equal(t, big, sym.File)
}

func TestMergeVisibilityIsMonotonicallyRestrictive(t *testing.T) {
	sym := NewSymbol("v")
	sym.Visibility = STV_DEFAULT

	sym.mergeVisibility(STV_HIDDEN)
	require.Equal(t, uint8(STV_HIDDEN), sym.Visibility)

	// Once hidden, a later DEFAULT observation must not re-widen it.
	sym.mergeVisibility(STV_DEFAULT)
	require.Equal(t, uint8(STV_HIDDEN), sym.Visibility)
}

func TestTryClaimExcludeLibsForcesHiddenOnArchiveDefinitions(t *testing.T) {
	sym := NewSymbol("foo")
	sym.Visibility = STV_DEFAULT

	archived := &InputFile{Priority: 1, InArchive: true}
	esym := definedSym(false)
	esym.SetVisibility(STV_DEFAULT)

	require.True(t, sym.tryClaim(archived, esym, 1, false, true))
	require.Equal(t, uint8(STV_HIDDEN), sym.Visibility)
}
