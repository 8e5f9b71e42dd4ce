package linker

import "strings"

// RiscvAttributes holds the object-wide build attributes this linker
// cares about out of a .riscv.attributes / SHT_RISCV_ATTRIBUTES section.
type RiscvAttributes struct {
	StackAlign      int64
	Arch            string
	UnalignedAccess int64
}

// ParseRiscvAttributes walks one .riscv.attributes section's "riscv\0"
// sub-subsection and extracts the tags the linker inspects. Parsing stops
// at the first tag it doesn't recognize; the attributes read up to that
// point are returned.
func ParseRiscvAttributes(data []byte) (RiscvAttributes, bool) {
	var attrs RiscvAttributes
	if len(data) == 0 {
		return attrs, false
	}
	if data[0] != 'A' {
		return attrs, false
	}
	data = data[1:]

	for len(data) > 0 {
		if len(data) < 4 {
			return attrs, false
		}
		sz := int(uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24)
		if sz < 4 || sz > len(data) {
			return attrs, false
		}

		sub := data[4:sz]
		data = data[sz:]

		if !strings.HasPrefix(string(sub), "riscv\x00") {
			continue
		}
		sub = sub[6:]

		if len(sub) < 1 || sub[0] != ELF_TAG_FILE {
			return attrs, false
		}
		sub = sub[5:] // tag byte plus 4-byte sub-subsection size

		p := 0
		for p < len(sub) {
			tag := readUleb(sub, &p)
			switch tag {
			case ELF_TAG_RISCV_STACK_ALIGN:
				attrs.StackAlign = int64(readUleb(sub, &p))
			case ELF_TAG_RISCV_ARCH:
				end := p
				for end < len(sub) && sub[end] != 0 {
					end++
				}
				attrs.Arch = string(sub[p:end])
				p = end + 1
			case ELF_TAG_RISCV_UNALIGNED_ACCESS:
				attrs.UnalignedAccess = int64(readUleb(sub, &p))
			default:
				// unknown tags are opaque ULEB-prefixed values we don't
				// need; without a length we can't safely skip them, so
				// stop processing the whole section here.
				return attrs, true
			}
		}
	}

	return attrs, true
}
