package linker

import (
	"fmt"
	"sort"

	"github.com/golinker/rvld/pkg/utils"
)

// CieRecord is one Common Information Entry out of a .eh_frame section.
type CieRecord struct {
	Section     *InputSection
	InputOffset int64
}

// FdeRecord is one Frame Description Entry, linked back to the CIE it was
// generated against and to the relocation that names the function it
// describes.
type FdeRecord struct {
	Section     *InputSection
	InputOffset int64
	RelBegin    int
	CieIdx      int
}

func (fde *FdeRecord) firstRel() Rela {
	rels := fde.Section.GetRels()
	return rels[fde.RelBegin]
}

// ParseEhFrame walks every live .eh_frame section this object contributes,
// splitting it into CIE/FDE records the same way the unwinder would. Each
// record is associated with the relocations falling inside its byte
// range; an FDE with no usable relocation (possible after `ld -r`) is
// dropped rather than kept dangling. The source .eh_frame InputSections
// are marked dead once their records have been extracted, since their
// bytes don't get copied into the output verbatim.
func (o *ObjectFile) ParseEhFrame(ctx *Context) {
	for _, isec := range o.EhFrameSections {
		rels := isec.GetRels()
		sort.SliceStable(rels, func(i, j int) bool { return rels[i].Offset < rels[j].Offset })
		contents := isec.Contents

		ciesBegin := len(o.Cies)
		fdesBegin := len(o.Fdes)

		relIdx := 0
		offset := int64(0)
		for offset < int64(len(contents)) {
			if int(offset)+4 > len(contents) {
				break
			}
			size := int64(utils.Read[uint32](contents[offset:]))
			if size == 0 {
				break
			}

			beginOffset := offset
			endOffset := beginOffset + size + 4
			id := utils.Read[uint32](contents[offset+4:])
			offset += size + 4

			relBegin := relIdx
			for relIdx < len(rels) && int64(rels[relIdx].Offset) < endOffset {
				relIdx++
			}

			if id == 0 {
				o.Cies = append(o.Cies, CieRecord{Section: isec, InputOffset: beginOffset})
				o.scanEhFrameRelocations(ctx, isec, rels[relBegin:relIdx])
			} else {
				if relBegin == relIdx || rels[relBegin].Sym() == 0 {
					continue
				}
				if int64(rels[relBegin].Offset)-beginOffset != 8 {
					ctx.Logger.Fatal(isec.Name() + ": FDE's first relocation should have offset 8")
				}
				o.Fdes = append(o.Fdes, FdeRecord{Section: isec, InputOffset: beginOffset, RelBegin: relBegin})
			}
		}

		findCie := func(off int64) int {
			for i := ciesBegin; i < len(o.Cies); i++ {
				if o.Cies[i].Section == isec && o.Cies[i].InputOffset == off {
					return i
				}
			}
			ctx.Logger.Fatal(isec.Name() + ": bad FDE pointer")
			return -1
		}

		for i := fdesBegin; i < len(o.Fdes); i++ {
			cieOffset := int32(utils.Read[uint32](contents[o.Fdes[i].InputOffset+4:]))
			o.Fdes[i].CieIdx = findCie(o.Fdes[i].InputOffset + 4 - int64(cieOffset))
		}

		isec.IsAlive = false
	}

	// FDEs group by the section their described function lives in, and
	// within a group must stay in file order, so the output .eh_frame can
	// be laid out per live input section later.
	getIsec := func(fde FdeRecord) *InputSection {
		sym := o.Symbols[fde.firstRel().Sym()]
		return sym.InputSection
	}

	sort.SliceStable(o.Fdes, func(i, j int) bool {
		a, b := getIsec(o.Fdes[i]), getIsec(o.Fdes[j])
		return fdeSectionPriority(a) < fdeSectionPriority(b)
	})
}

// scanEhFrameRelocations checks a CIE's relocations for an absolute
// reference, which a position-independent output can't carry: the
// loader has no relocation entry for .eh_frame contents, so an absolute
// address baked in at link time would be wrong once the image is
// loaded somewhere other than its link-time base. Not fatal — mold
// itself only errors the final link, so here it's recorded and the
// link continues, leaving the call site to decide whether to promote
// it to a hard failure.
func (o *ObjectFile) scanEhFrameRelocations(ctx *Context, isec *InputSection, rels []Rela) {
	if !ctx.Args.Pic {
		return
	}
	abs := ctx.Args.Emulation.AbsRelocType()
	if abs == 0 {
		return
	}
	for _, rel := range rels {
		if rel.Type() != abs {
			continue
		}
		sym := o.Symbols[rel.Sym()]
		name := ""
		if sym != nil {
			name = sym.Name
		}
		ctx.Warnings.Add(NewLinkError(ErrPicViolation, o.Name(),
			fmt.Errorf("relocation against %q in %s can not be used when making a position-independent output; recompile with -fPIE or -fPIC", name, isec.Name())))
	}
}

func fdeSectionPriority(isec *InputSection) uint32 {
	if isec == nil {
		return ^uint32(0)
	}
	return isec.Shndx
}
