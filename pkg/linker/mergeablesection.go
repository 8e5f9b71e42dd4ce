package linker

import "sort"

// MergeableSection holds the fragments an SHF_MERGE InputSection was split
// into. Strs/FragOffsets are parallel arrays produced by splitSection;
// Fragments is filled in later, once every object file has registered its
// pieces with the MergedSection and deduplication has happened globally.
type MergeableSection struct {
	Parent      *MergedSection
	P2Align     uint8
	Strs        []string
	FragOffsets []uint32
	Fragments   []*SectionFragment
}

// GetFragment maps a byte offset within the original section back to the
// fragment that now owns it, and the offset within that fragment.
func (m *MergeableSection) GetFragment(offset uint32) (*SectionFragment, uint32) {
	pos := sort.Search(len(m.FragOffsets), func(i int) bool {
		return offset < m.FragOffsets[i]
	})
	if pos == 0 {
		return nil, 0
	}
	idx := pos - 1
	return m.Fragments[idx], offset - m.FragOffsets[idx]
}
