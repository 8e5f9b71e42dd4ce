package linker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildStrtab(names ...string) (tab []byte, offsets []uint32) {
	tab = append(tab, 0) // offset 0 is conventionally the empty string
	for _, n := range names {
		offsets = append(offsets, uint32(len(tab)))
		tab = append(tab, []byte(n)...)
		tab = append(tab, 0)
	}
	return tab, offsets
}

// TestSharedFileInitSymbolsClassifiesVersionedDefinitions exercises §4.6's
// three dynamic-symbol cases: an unversioned export, a hidden
// (non-default) versioned export, and a default-versioned export that
// must also intern a foo@version shadow handle.
func TestSharedFileInitSymbolsClassifiesVersionedDefinitions(t *testing.T) {
	ctx := NewContext()
	strtab, offs := buildStrtab("plain", "hiddenver", "defver")

	s := NewSharedFile(&File{Name: "libfoo.so"})
	s.FirstGlobal = 1
	s.SymbolStrtab = strtab
	s.VersionStrings = []string{"", "", "V1", "V2"}
	s.ElfSyms = []Sym{
		{}, // index 0, unused (local/null entry)
		{Name: offs[0], Shndx: 1},
		{Name: offs[1], Shndx: 1},
		{Name: offs[2], Shndx: 1},
	}
	s.Versyms = []uint16{
		0,
		VER_NDX_GLOBAL,
		2 | VERSYM_HIDDEN,
		3,
	}

	s.initSymbols(ctx)

	require.NotNil(t, s.Symbols[1])
	require.Equal(t, "plain", s.Symbols[1].Name)
	require.Nil(t, s.Symbols2[1])

	require.NotNil(t, s.Symbols[2])
	require.Equal(t, "hiddenver@V1", s.Symbols[2].Name)
	require.Nil(t, s.Symbols2[2])

	require.NotNil(t, s.Symbols[3])
	require.Equal(t, "defver", s.Symbols[3].Name)
	require.NotNil(t, s.Symbols2[3])
	require.Equal(t, "defver@V2", s.Symbols2[3].Name)
}

// TestSharedFileResolveSymbolsClaimsShadowAsVersionedDefault checks that
// resolving a default-versioned definition also claims its foo@version
// shadow and marks it as an alias of the primary.
func TestSharedFileResolveSymbolsClaimsShadowAsVersionedDefault(t *testing.T) {
	ctx := NewContext()
	strtab, offs := buildStrtab("defver")

	s := NewSharedFile(&File{Name: "libfoo.so"})
	s.FirstGlobal = 1
	s.SymbolStrtab = strtab
	s.VersionStrings = []string{"", "", "V2"}
	s.ElfSyms = []Sym{
		{},
		{Name: offs[0], Shndx: 1},
	}
	s.Versyms = []uint16{0, 2}

	s.initSymbols(ctx)
	s.ResolveSymbols(ctx)

	primary := s.Symbols[1]
	shadow := s.Symbols2[1]
	require.Equal(t, &s.InputFile, primary.File)
	require.Equal(t, &s.InputFile, shadow.File)
	require.True(t, shadow.IsVersionedDefault)
	require.Same(t, primary, shadow.Origin)
}
