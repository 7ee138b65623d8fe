package ot

// Myanmar shaping. Myanmar reuses the Indic category table but applies its
// own syllable model: Kinzi (Ra+Asat+Halant) is hoisted to just after the
// base consonant, medial consonants get distinct pre/below/after-main
// slots, and a left-matra run gets reversed once sorted into position.
// HarfBuzz equivalent: hb-ot-shaper-myanmar.cc.

// MyanmarCategory classifies a glyph for the Ragel-generated syllable
// machine in myanmar_machine.go and is stored on GlyphInfo — these
// constant values are load-bearing, matching what that generated table
// and the machine.rl source it compiles from expect.
type MyanmarCategory uint8

const (
	M_Other        MyanmarCategory = 0
	M_C            MyanmarCategory = 1
	M_IV           MyanmarCategory = 2
	M_DB           MyanmarCategory = 3
	M_H            MyanmarCategory = 4
	M_ZWNJ         MyanmarCategory = 5
	M_ZWJ          MyanmarCategory = 6
	M_SM           MyanmarCategory = 8
	M_A            MyanmarCategory = 9
	M_GB           MyanmarCategory = 10
	M_DottedCircle MyanmarCategory = 11
	M_Ra           MyanmarCategory = 15
	M_CS           MyanmarCategory = 18
	M_VAbv         MyanmarCategory = 20
	M_VBlw         MyanmarCategory = 21
	M_VPre         MyanmarCategory = 22
	M_VPst         MyanmarCategory = 23
	M_As           MyanmarCategory = 32
	M_MH           MyanmarCategory = 35
	M_MR           MyanmarCategory = 36
	M_MW           MyanmarCategory = 37
	M_MY           MyanmarCategory = 38
	M_PT           MyanmarCategory = 39
	M_VS           MyanmarCategory = 40
	M_ML           MyanmarCategory = 41
	M_SMPst        MyanmarCategory = 57
)

// MyanmarSyllableType is the classification FindSyllablesMyanmar
// (myanmar_machine.go) writes into the low nibble of each glyph's syllable
// id.
type MyanmarSyllableType uint8

const (
	MyanmarConsonantSyllable MyanmarSyllableType = 0
	MyanmarBrokenCluster     MyanmarSyllableType = 1
	MyanmarNonMyanmarCluster MyanmarSyllableType = 2
)

// MyanmarPosition is the visual slot a glyph is sorted into within its
// syllable, stored on GlyphInfo for compareMyanmarOrder to read back.
type MyanmarPosition uint8

const (
	M_POS_START             MyanmarPosition = 0
	M_POS_RA_TO_BECOME_REPH MyanmarPosition = 1
	M_POS_PRE_M             MyanmarPosition = 2
	M_POS_PRE_C             MyanmarPosition = 3
	M_POS_BASE_C            MyanmarPosition = 4
	M_POS_AFTER_MAIN        MyanmarPosition = 5
	M_POS_ABOVE_C           MyanmarPosition = 6
	M_POS_BEFORE_SUB        MyanmarPosition = 7
	M_POS_BELOW_C           MyanmarPosition = 8
	M_POS_AFTER_SUB         MyanmarPosition = 9
	M_POS_BEFORE_POST       MyanmarPosition = 10
	M_POS_POST_C            MyanmarPosition = 11
	M_POS_AFTER_POST        MyanmarPosition = 12
	M_POS_SMVD              MyanmarPosition = 13
	M_POS_END               MyanmarPosition = 14
)

// myanmarMedialCategory maps the handful of Myanmar medial-consonant
// codepoints that don't fall out of the shared Indic category table.
var myanmarMedialCategory = map[Codepoint]MyanmarCategory{
	0x103B: M_MY, 0x105E: M_MY, 0x105F: M_MY,
	0x103C: M_MR,
	0x103D: M_MW, 0x1082: M_MW,
	0x103E: M_MH,
	0x1060: M_ML,
	0x103A: M_As,
	0x1063: M_PT, 0x1064: M_PT, 0x1069: M_PT, 0x106A: M_PT, 0x106B: M_PT,
	0x106C: M_PT, 0x106D: M_PT, 0x1087: M_PT, 0x1088: M_PT, 0x1089: M_PT,
	0x108A: M_PT, 0x108B: M_PT, 0x108C: M_PT, 0x108D: M_PT, 0x108F: M_PT,
	0x109A: M_PT, 0x109B: M_PT, 0x109C: M_PT,
}

// myanmarCategory classifies cp, first checking variation selectors and
// myanmarMedialCategory, then delegating to the Indic category table and remapping its result onto
// Myanmar's own category space.
// HarfBuzz equivalent: set_myanmar_properties() via hb_indic_get_categories().
func myanmarCategory(cp Codepoint) MyanmarCategory {
	if IsVariationSelector(cp) {
		return M_VS
	}
	if m, ok := myanmarMedialCategory[cp]; ok {
		return m
	}

	cat, pos := GetIndicCategories(cp)
	switch cat {
	case ICatC:
		if cp == 0x101B { // Myanmar Letter Ra
			return M_Ra
		}
		return M_C
	case ICatV:
		return M_IV
	case ICatN:
		return M_DB
	case ICatH:
		return M_H
	case ICatZWNJ:
		return M_ZWNJ
	case ICatZWJ:
		return M_ZWJ
	case ICatM:
		return myanmarMatraCategory(pos)
	case ICatSM:
		return M_SM
	case ICatSMPst:
		return M_SMPst
	case ICatA:
		return M_A
	case ICatPLACEHOLDER, ICatSymbol:
		return M_GB
	case ICatDOTTEDCIRCLE:
		return M_DottedCircle
	case ICatRa:
		return M_Ra
	case ICatCS:
		return M_CS
	case ICatCM:
		if m, ok := myanmarMedialCategory[cp]; ok {
			return m
		}
		return M_C
	default:
		return M_Other
	}
}

// myanmarMatraCategory derives VPre/VAbv/VBlw/VPst for a dependent vowel
// from the shared Indic position table.
func myanmarMatraCategory(pos IndicPosition) MyanmarCategory {
	switch pos {
	case IPosPreM:
		return M_VPre
	case IPosAboveC:
		return M_VAbv
	case IPosBelowC:
		return M_VBlw
	default:
		return M_VPst
	}
}

const myanmarConsonantFlags = (1 << M_C) | (1 << M_CS) | (1 << M_Ra) | (1 << M_IV) | (1 << M_GB) | (1 << M_DottedCircle)

// myanmarIsConsonant reports whether info's category counts as a
// consonant-like base for syllable reordering; a glyph that has already
// ligated is excluded since its category no longer reflects its source.
func myanmarIsConsonant(info *GlyphInfo) bool {
	if info.GlyphProps&GlyphPropsLigated != 0 {
		return false
	}
	return (1<<MyanmarCategory(info.MyanmarCategory))&myanmarConsonantFlags != 0
}

// classifyMyanmar stamps every glyph's MyanmarCategory field and returns
// the same classification as a parallel slice for convenience.
func (s *Shaper) classifyMyanmar(buf *Buffer) []MyanmarCategory {
	cats := make([]MyanmarCategory, len(buf.Info))
	for i := range buf.Info {
		buf.Info[i].MyanmarCategory = uint8(myanmarCategory(buf.Info[i].Codepoint))
		cats[i] = MyanmarCategory(buf.Info[i].MyanmarCategory)
	}
	return cats
}

// segmentMyanmarSyllables runs the Ragel syllable machine and merges each
// syllable's clusters (multi-glyph syllables are unsafe to split).
// HarfBuzz equivalent: setup_syllables_myanmar() in hb-ot-shaper-myanmar.cc.
func (s *Shaper) segmentMyanmarSyllables(buf *Buffer, cats []MyanmarCategory) bool {
	hasBroken := FindSyllablesMyanmar(buf, cats)

	eachMyanmarSyllable(buf, func(start, end int) {
		if end > start+1 {
			buf.MergeClusters(start, end)
		}
	})
	return hasBroken
}

// eachMyanmarSyllable calls fn once per contiguous run of equal syllable
// ids in buf.Info.
func eachMyanmarSyllable(buf *Buffer, fn func(start, end int)) {
	n := len(buf.Info)
	for i := 0; i < n; {
		id := buf.Info[i].Syllable
		end := i + 1
		for end < n && buf.Info[end].Syllable == id {
			end++
		}
		fn(i, end)
		i = end
	}
}

func compareMyanmarOrder(a, b *GlyphInfo) int {
	return int(a.MyanmarPosition) - int(b.MyanmarPosition)
}

// findKinziAndBase looks for a Kinzi prefix (Ra+Asat+Halant) at the
// syllable's start, then scans for the first consonant-like glyph to serve
// as the base. Returns the end of any Kinzi run (0 if none) and the base
// index (end, i.e. no base, if none found).
func findKinziAndBase(info []GlyphInfo, start, end int) (kinziEnd, base int) {
	if start+3 <= end &&
		MyanmarCategory(info[start].MyanmarCategory) == M_Ra &&
		MyanmarCategory(info[start+1].MyanmarCategory) == M_As &&
		MyanmarCategory(info[start+2].MyanmarCategory) == M_H {
		kinziEnd = start + 3
	}

	base = end
	for i := max(start, kinziEnd); i < end; i++ {
		if myanmarIsConsonant(&info[i]) {
			return kinziEnd, i
		}
	}
	return kinziEnd, end
}

// assignMyanmarPositions walks a syllable once, giving the Kinzi run
// after-main position, everything before the base consonant pre-base
// position, the base consonant its own slot, and classifying everything
// after the base into above/below/pre-matra/post-base slots by category.
func assignMyanmarPositions(info []GlyphInfo, start, end, kinziEnd, base int) {
	i := start
	for ; i < kinziEnd; i++ {
		info[i].MyanmarPosition = uint8(M_POS_AFTER_MAIN)
	}
	for ; i < base; i++ {
		info[i].MyanmarPosition = uint8(M_POS_PRE_C)
	}
	if i < end {
		info[i].MyanmarPosition = uint8(M_POS_BASE_C)
		i++
	}

	pos := M_POS_AFTER_MAIN
	for ; i < end; i++ {
		cat := MyanmarCategory(info[i].MyanmarCategory)

		switch {
		case cat == M_MR:
			info[i].MyanmarPosition = uint8(M_POS_PRE_C)
		case cat == M_VPre:
			info[i].MyanmarPosition = uint8(M_POS_PRE_M)
		case cat == M_VS:
			if i > start {
				info[i].MyanmarPosition = info[i-1].MyanmarPosition
			}
		case pos == M_POS_AFTER_MAIN && cat == M_VBlw:
			pos = M_POS_BELOW_C
			info[i].MyanmarPosition = uint8(pos)
		case pos == M_POS_BELOW_C && cat == M_A:
			info[i].MyanmarPosition = uint8(M_POS_BEFORE_SUB)
		case pos == M_POS_BELOW_C && cat == M_VBlw:
			info[i].MyanmarPosition = uint8(pos)
		case pos == M_POS_BELOW_C:
			pos = M_POS_AFTER_SUB
			info[i].MyanmarPosition = uint8(pos)
		default:
			info[i].MyanmarPosition = uint8(pos)
		}
	}
}

// flipLeftMatraRun reverses the contiguous run of PRE_M-positioned glyphs
// (left matras, already sorted to the syllable front), then reverses back
// any VPre-category boundary within that run so multi-part left matras
// keep their own internal order.
// https://github.com/harfbuzz/harfbuzz/issues/3863
func flipLeftMatraRun(buf *Buffer, start, end int) {
	info := buf.Info
	first, last := end, end
	for i := start; i < end; i++ {
		if MyanmarPosition(info[i].MyanmarPosition) == M_POS_PRE_M {
			if first == end {
				first = i
			}
			last = i
		}
	}
	if first >= last {
		return
	}

	buf.ReverseRange(first, last+1)
	i := first
	for j := i; j <= last; j++ {
		if MyanmarCategory(info[j].MyanmarCategory) == M_VPre {
			buf.ReverseRange(i, j+1)
			i = j + 1
		}
	}
}

// reorderConsonantSyllable performs Myanmar's initial syllable reordering:
// locate Kinzi and the base consonant, assign each glyph a visual
// position, stable-sort the syllable by position, then fix up the
// left-matra run the sort produces.
// HarfBuzz equivalent: initial_reordering_consonant_syllable() in
// hb-ot-shaper-myanmar.cc.
func (s *Shaper) reorderConsonantSyllable(buf *Buffer, start, end int) {
	kinziEnd, base := findKinziAndBase(buf.Info, start, end)
	assignMyanmarPositions(buf.Info, start, end, kinziEnd, base)
	stableSortByPosition(buf, start, end)
	flipLeftMatraRun(buf, start, end)
}

// stableSortByPosition insertion-sorts [start, end) by MyanmarPosition;
// syllables are always small, so insertion sort's stability matters more
// than its asymptotic cost.
func stableSortByPosition(buf *Buffer, start, end int) {
	for i := start + 1; i < end; i++ {
		for j := i; j > start && compareMyanmarOrder(&buf.Info[j-1], &buf.Info[j]) > 0; j-- {
			buf.Info[j-1], buf.Info[j] = buf.Info[j], buf.Info[j-1]
			buf.Pos[j-1], buf.Pos[j] = buf.Pos[j], buf.Pos[j-1]
		}
	}
}

func (s *Shaper) reorderSyllableMyanmar(buf *Buffer, start, end int) {
	switch MyanmarSyllableType(buf.Info[start].Syllable & 0x0F) {
	case MyanmarBrokenCluster, MyanmarConsonantSyllable:
		s.reorderConsonantSyllable(buf, start, end)
	}
}

// insertMyanmarDottedCircles inserts a dotted-circle glyph before every
// broken-cluster syllable, mirroring the cats slice so callers keep a
// consistent classification after the splice.
// HarfBuzz equivalent: hb_syllabic_insert_dotted_circles() called from
// reorder_myanmar() in hb-ot-shaper-myanmar.cc.
func (s *Shaper) insertMyanmarDottedCircles(buf *Buffer, cats *[]MyanmarCategory) {
	if s.cmap == nil {
		return
	}
	dotted, ok := s.cmap.Lookup(0x25CC)
	if !ok || dotted == 0 {
		return
	}

	info := make([]GlyphInfo, 0, len(buf.Info)+8)
	pos := make([]GlyphPos, 0, len(buf.Pos)+8)
	newCats := make([]MyanmarCategory, 0, len(*cats)+8)

	var prevSyllable uint8
	for i := range buf.Info {
		syllable := buf.Info[i].Syllable
		if prevSyllable != syllable && MyanmarSyllableType(syllable&0x0F) == MyanmarBrokenCluster {
			info = append(info, GlyphInfo{
				GlyphID:         dotted,
				Codepoint:       0x25CC,
				Cluster:         buf.Info[i].Cluster,
				Syllable:        syllable,
				MyanmarCategory: uint8(M_DottedCircle),
				MyanmarPosition: uint8(M_POS_BASE_C),
				GlyphClass:      1,
			})
			pos = append(pos, GlyphPos{})
			newCats = append(newCats, M_DottedCircle)
		}
		prevSyllable = syllable

		info = append(info, buf.Info[i])
		pos = append(pos, buf.Pos[i])
		newCats = append(newCats, (*cats)[i])
	}

	buf.Info, buf.Pos, *cats = info, pos, newCats
}

// reorderMyanmar inserts dotted circles for any broken cluster and then
// reorders every syllable; reports whether any broken cluster was found.
// HarfBuzz equivalent: reorder_myanmar() in hb-ot-shaper-myanmar.cc.
func (s *Shaper) reorderMyanmar(buf *Buffer, cats *[]MyanmarCategory) bool {
	hasBroken := false
	for _, info := range buf.Info {
		if MyanmarSyllableType(info.Syllable&0x0F) == MyanmarBrokenCluster {
			hasBroken = true
			break
		}
	}
	if hasBroken {
		s.insertMyanmarDottedCircles(buf, cats)
	}

	eachMyanmarSyllable(buf, func(start, end int) { s.reorderSyllableMyanmar(buf, start, end) })
	return hasBroken
}

var (
	myanmarPreFeatures = []Tag{
		MakeTag('l', 'o', 'c', 'l'),
		MakeTag('c', 'c', 'm', 'p'),
	}
	myanmarBasicFeatures = []Tag{
		MakeTag('r', 'p', 'h', 'f'),
		MakeTag('p', 'r', 'e', 'f'),
		MakeTag('b', 'l', 'w', 'f'),
		MakeTag('p', 's', 't', 'f'),
	}
	myanmarOtherFeatures = []Tag{
		MakeTag('p', 'r', 'e', 's'),
		MakeTag('a', 'b', 'v', 's'),
		MakeTag('b', 'l', 'w', 's'),
		MakeTag('p', 's', 't', 's'),
	}
)

var myanmarGPOSFeatures = []Feature{
	{Tag: MakeTag('d', 'i', 's', 't'), Value: 1},
	{Tag: MakeTag('a', 'b', 'v', 'm'), Value: 1},
	{Tag: MakeTag('b', 'l', 'w', 'm'), Value: 1},
	{Tag: MakeTag('m', 'a', 'r', 'k'), Value: 1},
	{Tag: MakeTag('m', 'k', 'm', 'k'), Value: 1},
}

func (s *Shaper) applyMyanmarTagSet(buf *Buffer, tags []Tag) {
	if s.gsub == nil {
		return
	}
	for _, tag := range tags {
		s.gsub.ApplyFeatureToBuffer(tag, buf, s.gdef, s.font)
	}
}

// shapeMyanmar runs the Myanmar pipeline: diacritic-composing
// normalization, glyph mapping, syllable classification and segmentation
// via the Ragel machine, pre-reordering locl/ccmp, Kinzi/base reordering,
// the basic and other feature groups (clearing syllable ids between them,
// matching HarfBuzz's hb_syllabic_clear_var), default GSUB features, and
// GPOS with early GDEF-driven mark-width zeroing.
// HarfBuzz equivalent: _hb_ot_shaper_myanmar in hb-ot-shaper-myanmar.cc.
func (s *Shaper) shapeMyanmar(buf *Buffer, features []Feature) {
	if buf.Direction == 0 {
		buf.Direction = DirectionLTR
	}

	s.normalizeBuffer(buf, NormalizationModeComposedDiacritics)
	buf.ResetMasks(MaskGlobal)
	s.mapCodepointsToGlyphs(buf)
	s.setGlyphClasses(buf)

	cats := s.classifyMyanmar(buf)
	s.segmentMyanmarSyllables(buf, cats)

	s.applyMyanmarTagSet(buf, myanmarPreFeatures)
	s.reorderMyanmar(buf, &cats)
	s.applyMyanmarTagSet(buf, myanmarBasicFeatures)

	for i := range buf.Info {
		buf.Info[i].Syllable = 0
	}

	s.applyMyanmarTagSet(buf, myanmarOtherFeatures)
	if s.gsub != nil {
		for _, f := range s.getDefaultGSUBFeatures(buf.Direction) {
			s.gsub.ApplyFeatureToBuffer(f.Tag, buf, s.gdef, s.font)
		}
	}

	s.setBaseAdvances(buf)

	_, gposFeatures := s.categorizeFeatures(features)
	gposFeatures = append(gposFeatures, myanmarGPOSFeatures...)
	s.applyGPOSWithZeroWidthMarks(buf, gposFeatures, ZeroWidthMarksByGDEFEarly)
}
