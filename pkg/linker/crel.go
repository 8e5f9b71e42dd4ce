package linker

// DecodeCrel decodes a SHT_CREL compact relocation section into the same
// Rela slice a classic SHT_RELA section would produce. CREL packs each
// relocation as a delta against the previous one, ULEB/SLEB encoded, so
// unlike SHT_RELA it cannot be overlaid directly onto memory.
//
// The section begins with a ULEB128 header whose low 3 bits are flags
// (bit 2: has explicit addends, bits 0-1: an extra left-shift applied to
// every offset delta, letting 4/8-aligned relocations pack a smaller delta
// per entry) and whose remaining bits (hdr >> 3) are the relocation count.
//
// Each relocation record starts with one flags byte. Its low bits select
// which of symidx/type/addend changed since the previous record; the
// offset delta is folded into the same leading ULEB128 as the flags byte
// to avoid a second byte for the common case of a small forward offset.
func DecodeCrel(data []byte) []Rela {
	p := 0
	hdr := readUleb(data, &p)
	nrels := hdr >> 3
	isRela := hdr&0b100 != 0
	scale := hdr & 0b11

	var offset, addend uint64
	var typ, symidx int64

	out := make([]Rela, 0, nrels)
	for uint64(len(out)) < nrels {
		flags := data[p]
		p++

		nflags := int64(2)
		if isRela {
			nflags = 3
		}

		var delta uint64
		if flags&0x80 != 0 {
			delta = (readUleb(data, &p) << (7 - nflags)) | uint64(flags&0x7f)>>uint64(nflags)
		} else {
			delta = uint64(flags) >> uint64(nflags)
		}
		offset += delta << scale

		if flags&1 != 0 {
			symidx += readSleb(data, &p)
		}
		if flags&2 != 0 {
			typ += readSleb(data, &p)
		}
		if isRela && flags&4 != 0 {
			addend += uint64(readSleb(data, &p))
		}

		out = append(out, Rela{
			Offset: offset,
			Info:   (uint64(symidx) << 32) | uint64(uint32(typ)),
			Addend: int64(addend),
		})
	}
	return out
}

func readUleb(data []byte, p *int) uint64 {
	var result uint64
	var shift uint
	for {
		b := data[*p]
		*p++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result
}

func readSleb(data []byte, p *int) int64 {
	var result int64
	var shift uint
	var b byte
	for {
		b = data[*p]
		*p++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result
}
