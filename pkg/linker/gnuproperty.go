package linker

import "github.com/golinker/rvld/pkg/utils"

const noteHdrSize = 12 // Nhdr: n_namesz, n_descsz, n_type, all uint32

// ParseGnuPropertyNote walks a .note.gnu.property section and folds every
// 4-byte GNU_PROPERTY_* value it finds into a per-type bitwise-OR map.
// Properties with a size other than 4 bytes (GNU_PROPERTY_STACK_SIZE and
// friends) are skipped: this linker doesn't act on them.
func ParseGnuPropertyNote(data []byte) map[uint32]uint32 {
	props := make(map[uint32]uint32)

	for len(data) >= noteHdrSize {
		nameSz := utils.Read[uint32](data[0:])
		descSz := utils.Read[uint32](data[4:])
		typ := utils.Read[uint32](data[8:])
		data = data[noteHdrSize:]

		if len(data) < int(nameSz) {
			return props
		}
		name := data[:nameSz]
		data = advance(data, utils.AlignTo(uint64(nameSz), 4))

		if len(data) < int(descSz) {
			return props
		}
		desc := data[:descSz]
		data = advance(data, utils.AlignTo(uint64(descSz), 4))

		if typ != NT_GNU_PROPERTY_TYPE_0 || !isGNU(name) {
			continue
		}

		for len(desc) >= 8 {
			ptype := utils.Read[uint32](desc[0:])
			psize := utils.Read[uint32](desc[4:])
			desc = desc[8:]
			if psize == 4 && len(desc) >= 4 {
				props[ptype] |= utils.Read[uint32](desc)
			}
			desc = advance(desc, utils.AlignTo(uint64(psize), 4))
		}
	}
	return props
}

func advance(b []byte, n uint64) []byte {
	if n >= uint64(len(b)) {
		return nil
	}
	return b[n:]
}

func isGNU(name []byte) bool {
	return len(name) >= 3 && name[0] == 'G' && name[1] == 'N' && name[2] == 'U'
}
