package linker

import "math"

// SectionFragment is one deduplicated piece of a MergedSection: one string
// from a SHF_MERGE|SHF_STRINGS section, or one fixed-size record from a
// plain SHF_MERGE section.
type SectionFragment struct {
	Parent  *MergedSection
	Offset  uint32
	P2Align uint32
	IsAlive bool
}

func NewSectionFragment(m *MergedSection) *SectionFragment {
	return &SectionFragment{Parent: m, Offset: math.MaxUint32}
}

func (s *SectionFragment) GetAddr() uint64 {
	return uint64(s.Offset)
}
