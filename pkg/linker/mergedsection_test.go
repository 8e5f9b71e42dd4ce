package linker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalSectionNameFoldsSuffixedSections(t *testing.T) {
	require.Equal(t, ".text", CanonicalSectionName(".text.foo", 0))
	require.Equal(t, ".data", CanonicalSectionName(".data.bar", 0))
	require.Equal(t, ".rodata.str", CanonicalSectionName(".rodata.str1.1", SHF_MERGE|SHF_STRINGS))
	require.Equal(t, ".rodata.cst", CanonicalSectionName(".rodata.cst8", SHF_MERGE))
	require.Equal(t, ".bss", CanonicalSectionName(".bss.x", 0))
	require.Equal(t, ".unrelated", CanonicalSectionName(".unrelated", 0))
}

func TestMergedSectionInsertDedupesByKey(t *testing.T) {
	m := NewMergedSection(".rodata.str", 0, uint32(SHT_PROGBITS), 1)

	a := m.Insert("hello\x00", 0)
	b := m.Insert("hello\x00", 2)
	c := m.Insert("world\x00", 0)

	require.Same(t, a, b, "identical keys must intern to the same fragment")
	require.NotSame(t, a, c)
	require.EqualValues(t, 2, a.P2Align, "a later, stricter alignment request must win")
}

func TestGetMergedSectionInstanceInternsByIdentityTriple(t *testing.T) {
	ctx := NewContext()

	m1 := GetMergedSectionInstance(ctx, ".rodata.str1.1", uint32(SHT_PROGBITS), SHF_MERGE|SHF_STRINGS, 1)
	m2 := GetMergedSectionInstance(ctx, ".rodata.str1.8", uint32(SHT_PROGBITS), SHF_MERGE|SHF_STRINGS, 1)
	m3 := GetMergedSectionInstance(ctx, ".rodata.cst8", uint32(SHT_PROGBITS), SHF_MERGE, 8)

	require.Same(t, m1, m2, "both fold to .rodata.str with the same flags/entsize")
	require.NotSame(t, m1, m3)
	require.Len(t, ctx.MergedSections, 2)
}

func TestMergedSectionAssignOffsetsOrdersByAlignThenKey(t *testing.T) {
	m := NewMergedSection(".rodata.cst", 0, uint32(SHT_PROGBITS), 0)
	short := m.Insert("ab", 0)
	aligned := m.Insert("cdef", 2)

	m.AssignOffsets()

	require.EqualValues(t, 0, short.Offset)
	require.EqualValues(t, 4, aligned.Offset, "4-byte alignment must round up past the 2-byte entry")
	require.EqualValues(t, 2, m.P2Align)
}
