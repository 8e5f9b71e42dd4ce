package linker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDecodeCrelThreeRecordsNoAddends exercises spec.md §8 scenario 6: a
// 3-relocation CREL section with no explicit addends and scale 0, whose
// flags bytes carry only an offset delta.
func TestDecodeCrelThreeRecordsNoAddends(t *testing.T) {
	data := []byte{
		0b00011000, // header: nrels=3, no addends, scale=0
		0x00,       // delta 0
		0x04,       // delta 1
		0x08,       // delta 2
	}

	rels := DecodeCrel(data)
	require.Len(t, rels, 3)

	wantOffsets := []uint64{0, 1, 3}
	for i, r := range rels {
		require.Equal(t, wantOffsets[i], r.Offset)
		require.EqualValues(t, 0, r.Sym())
		require.EqualValues(t, 0, r.Type())
	}
}

// TestDecodeCrelWithAddendDelta checks that a flags byte's addend bit
// accumulates an SLEB128 addend delta on top of the running total.
func TestDecodeCrelWithAddendDelta(t *testing.T) {
	data := []byte{
		0b00001100, // header: nrels=1, has-addends, scale=0
		0b00000100, // flags: delta=0, addend-changed bit set
		0x05,       // SLEB128 addend delta: +5
	}

	rels := DecodeCrel(data)
	require.Len(t, rels, 1)
	require.EqualValues(t, 5, rels[0].Addend)
}
