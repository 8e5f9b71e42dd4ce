package linker

// GetRank assigns a precedence rank to a symbol definition candidate. Lower
// values win. The table mirrors the priority mold gives each kind of
// definition when the same name is defined more than once: a strong
// definition always beats a weak one, a definition in an already-live file
// beats one still sitting unclaimed in an archive or in a DSO, and any
// real definition beats a common symbol.
//
//	1 strong definition in a live regular file
//	2 weak definition in a live regular file
//	3 strong definition in a DSO or a not-yet-pulled-in archive member
//	4 weak definition in a DSO or a not-yet-pulled-in archive member
//	5 common symbol in a live regular file
//	6 common symbol in a not-yet-pulled-in archive member (lazy)
//	7 unclaimed (undefined)
func GetRank(file *InputFile, esym *Sym, isLazy bool) int32 {
	if esym.IsUndef() {
		return 7
	}
	if esym.IsCommon() {
		if isLazy {
			return 6
		}
		return 5
	}
	if isLazy || file.IsDSO {
		if esym.IsWeak() {
			return 4
		}
		return 3
	}
	if esym.IsWeak() {
		return 2
	}
	return 1
}

// RankKey packs rank and file priority into a single comparable value so
// resolution can pick the numerically smallest candidate instead of
// comparing two fields by hand. File priority is capped well under 1<<24,
// so it never bleeds into the rank bits.
func RankKey(rank int32, priority int64) int64 {
	return int64(rank)<<24 + priority
}
