package ot

// Khmer shaping. Khmer reuses the Indic category vocabulary but has its own
// syllable grammar and reordering rules: Coeng (U+17D2) plays halant's role
// as the subscript-forming character, there is no repha, and pre-base vowel
// movement is driven by a single pass rather than Indic's multi-stage one.
// HarfBuzz equivalent: hb-ot-shaper-khmer.cc.

// KhmerCategory classifies a codepoint for the Ragel-generated syllable
// machine in khmer_machine.go; the constant values here are load-bearing —
// they must match what that generated table expects.
type KhmerCategory uint8

const (
	K_Other        KhmerCategory = 0
	K_C            KhmerCategory = 1
	K_V            KhmerCategory = 2
	K_N            KhmerCategory = 3
	K_H            KhmerCategory = 4
	K_ZWNJ         KhmerCategory = 5
	K_ZWJ          KhmerCategory = 6
	K_Placeholder  KhmerCategory = 10
	K_DottedCircle KhmerCategory = 11
	K_Ra           KhmerCategory = 15
	K_VAbv         KhmerCategory = 20
	K_VBlw         KhmerCategory = 21
	K_VPre         KhmerCategory = 22
	K_VPst         KhmerCategory = 23
	K_Robatic      KhmerCategory = 25
	K_Xgroup       KhmerCategory = 26
	K_Ygroup       KhmerCategory = 27
)

// KhmerSyllableType is the syllable classification FindSyllablesKhmer
// (khmer_machine.go) writes into the low nibble of each glyph's mask.
type KhmerSyllableType uint8

const (
	KhmerConsonantSyllable KhmerSyllableType = iota
	KhmerBrokenCluster
	KhmerNonKhmerCluster
)

// khmerRange is an inclusive [first, last] codepoint run sharing one category.
type khmerRange struct {
	first, last Codepoint
	cat         KhmerCategory
}

// khmerSingle pairs are codepoints whose category can't be expressed as a
// contiguous run (interleaved with other categories in the same block).
var khmerSingles = map[Codepoint]KhmerCategory{
	0x179A: K_Ra, // Khmer Letter Ro takes Robatic treatment as Coeng+Ra
	0x17B6: K_VPst,
	0x17BE: K_VAbv, // decomposes to U+17C1+U+17BE, not a true VPre
	0x17BF: K_VPst,
	0x17C0: K_VPst,
	0x17C4: K_VPst,
	0x17C5: K_VPst,
	0x17C6: K_Xgroup, // Nikahit
	0x17C7: K_Ygroup, // Reahmuk
	0x17C8: K_Ygroup, // Yuukaleapintu
	0x17C9: K_Robatic,
	0x17CA: K_Robatic,
	0x17CB: K_Xgroup,
	0x17CC: K_Robatic,
	0x17D2: K_H, // Coeng
	0x17D3: K_Ygroup,
	0x17D9: K_Placeholder,
	0x17DD: K_Ygroup,
	0x200C: K_ZWNJ,
	0x200D: K_ZWJ,
}

var khmerRanges = []khmerRange{
	{0x17A3, 0x17B3, K_V},
	{0x17B7, 0x17BA, K_VAbv},
	{0x17BB, 0x17BD, K_VBlw},
	{0x17C1, 0x17C3, K_VPre},
	{0x17CD, 0x17D1, K_Xgroup},
	{0x17E0, 0x17E9, K_N},
	{0x17F0, 0x17F9, K_N},
}

// khmerScript reports whether cp falls in the Khmer Unicode block.
func khmerScript(cp Codepoint) bool {
	return cp >= 0x1780 && cp <= 0x17FF
}

func (s *Shaper) bufferHasKhmer(buf *Buffer) bool {
	for _, info := range buf.Info {
		if khmerScript(info.Codepoint) {
			return true
		}
	}
	return false
}

// khmerCategory classifies a single codepoint, consulting consonants first
// (the bulk of the block), then the single-codepoint exceptions, then the
// contiguous category ranges.
// HarfBuzz equivalent: set_khmer_properties() via hb_indic_get_categories().
func khmerCategory(cp Codepoint) KhmerCategory {
	if cp >= 0x1780 && cp <= 0x17A2 {
		if cat, ok := khmerSingles[cp]; ok {
			return cat
		}
		return K_C
	}
	if cat, ok := khmerSingles[cp]; ok {
		return cat
	}
	for _, r := range khmerRanges {
		if cp >= r.first && cp <= r.last {
			return r.cat
		}
	}
	return K_Other
}

func khmerCategorize(buf *Buffer) []KhmerCategory {
	cats := make([]KhmerCategory, len(buf.Info))
	for i := range buf.Info {
		cats[i] = khmerCategory(buf.Info[i].Codepoint)
	}
	return cats
}

// insertBrokenClusterCircles inserts a dotted-circle glyph before every
// broken-cluster syllable FindSyllablesKhmer flagged, provided the font has
// one; a font without the glyph leaves broken clusters unmarked.
// HarfBuzz equivalent: hb_syllabic_insert_dotted_circles() in
// hb-ot-shaper-syllabic.cc.
func (s *Shaper) insertBrokenClusterCircles(buf *Buffer, cats *[]KhmerCategory) {
	if s.cmap == nil {
		return
	}
	dotted, ok := s.cmap.Lookup(0x25CC)
	if !ok || dotted == 0 {
		return
	}

	info := make([]GlyphInfo, 0, len(buf.Info)+8)
	pos := make([]GlyphPos, 0, len(buf.Pos)+8)
	newCats := make([]KhmerCategory, 0, len(*cats)+8)

	var prevSyllable uint32
	for i := range buf.Info {
		syllable := buf.Info[i].Mask & 0xFFFF
		if syllable != prevSyllable && KhmerSyllableType(syllable&0x0F) == KhmerBrokenCluster {
			info = append(info, GlyphInfo{
				GlyphID:    dotted,
				Codepoint:  0x25CC,
				Cluster:    buf.Info[i].Cluster,
				Mask:       buf.Info[i].Mask,
				GlyphClass: 1,
			})
			pos = append(pos, GlyphPos{})
			newCats = append(newCats, K_DottedCircle)
		}
		prevSyllable = syllable

		info = append(info, buf.Info[i])
		pos = append(pos, buf.Pos[i])
		newCats = append(newCats, (*cats)[i])
	}

	buf.Info, buf.Pos, *cats = info, pos, newCats
}

// reorderByCoengRa scans [start, end) for a Coeng immediately followed by
// Ra and, when found, splices the Coeng+Ra pair to the front of the
// syllable (Khmer's equivalent of Indic reph reordering). It reports
// whether a splice happened so the caller can stop scanning for more than
// two coengs deep, matching the teacher's cap.
func reorderByCoengRa(buf *Buffer, cats []KhmerCategory, start, i int) bool {
	if cats[i+1] != K_Ra {
		return false
	}
	buf.MergeClusters(start, i+2)

	saved := [2]GlyphInfo{buf.Info[i], buf.Info[i+1]}
	savedCat := [2]KhmerCategory{cats[i], cats[i+1]}

	copy(buf.Info[start+2:i+2], buf.Info[start:i])
	copy(cats[start+2:i+2], cats[start:i])

	buf.Info[start], buf.Info[start+1] = saved[0], saved[1]
	cats[start], cats[start+1] = savedCat[0], savedCat[1]
	return true
}

// reorderByPreVowel splices a single pre-base vowel (VPre) at i to the
// front of the syllable.
func reorderByPreVowel(buf *Buffer, cats []KhmerCategory, start, i int) {
	buf.MergeClusters(start, i+1)

	saved, savedCat := buf.Info[i], cats[i]
	copy(buf.Info[start+1:i+1], buf.Info[start:i])
	copy(cats[start+1:i+1], cats[start:i])
	buf.Info[start], cats[start] = saved, savedCat
}

// reorderSyllable applies Coeng+Ra and pre-base-vowel reordering to one
// syllable's glyph range. Both checks run in the same left-to-right pass
// (not two separate passes) so a Coeng+Ra splice and a following VPre
// splice compose correctly when a syllable has both.
// HarfBuzz equivalent: reorder_consonant_syllable() in hb-ot-shaper-khmer.cc.
// Only info is moved, not pos — positions are assigned later by
// setBaseAdvances/GPOS.
func reorderSyllable(buf *Buffer, cats []KhmerCategory, start, end int) {
	coengsSeen := 0
	for i := start + 1; i < end; i++ {
		switch {
		case cats[i] == K_H && coengsSeen <= 2 && i+1 < end:
			coengsSeen++
			if reorderByCoengRa(buf, cats, start, i) {
				coengsSeen = 2
			}
		case cats[i] == K_VPre:
			reorderByPreVowel(buf, cats, start, i)
		}
	}
}

func reorderAllSyllables(buf *Buffer, cats []KhmerCategory) {
	n := len(buf.Info)
	for i := 0; i < n; {
		syllable := buf.Info[i].Mask & 0xFFFF
		end := i + 1
		for end < n && buf.Info[end].Mask&0xFFFF == syllable {
			end++
		}
		reorderSyllable(buf, cats, i, end)
		i = end
	}
}

var khmerGSUBFeatures = []Tag{
	MakeTag('l', 'o', 'c', 'l'),
	MakeTag('c', 'c', 'm', 'p'),
	MakeTag('p', 'r', 'e', 'f'),
	MakeTag('b', 'l', 'w', 'f'),
	MakeTag('a', 'b', 'v', 'f'),
	MakeTag('p', 's', 't', 'f'),
	MakeTag('c', 'f', 'a', 'r'),
	MakeTag('p', 'r', 'e', 's'),
	MakeTag('a', 'b', 'v', 's'),
	MakeTag('b', 'l', 'w', 's'),
	MakeTag('p', 's', 't', 's'),
	MakeTag('c', 'l', 'i', 'g'),
}

var khmerGPOSFeatures = []Feature{
	{Tag: MakeTag('d', 'i', 's', 't'), Value: 1},
	{Tag: MakeTag('a', 'b', 'v', 'm'), Value: 1},
	{Tag: MakeTag('b', 'l', 'w', 'm'), Value: 1},
	{Tag: MakeTag('m', 'a', 'r', 'k'), Value: 1},
	{Tag: MakeTag('m', 'k', 'm', 'k'), Value: 1},
}

// applyKhmerFeatures applies all Khmer GSUB features in one pass per
// feature; unlike HarfBuzz this module applies each feature across the
// whole buffer rather than per-syllable, which is equivalent since Buffer's
// substitution preserves cluster boundaries either way.
func (s *Shaper) applyKhmerFeatures(buf *Buffer) {
	if s.gsub == nil {
		return
	}
	for _, tag := range khmerGSUBFeatures {
		s.gsub.ApplyFeatureToBuffer(tag, buf, s.gdef, s.font)
	}
}

// shapeKhmer runs the Khmer pipeline: diacritic-composing normalization,
// glyph mapping, syllable classification via the Ragel machine, dotted-
// circle insertion for broken clusters, Coeng+Ra/pre-vowel reordering,
// GSUB, and GPOS with no zero-width mark pass (Khmer positions marks via
// dist/abvm/blwm/mark/mkmk directly).
// HarfBuzz equivalent: _hb_ot_shaper_khmer in hb-ot-shaper-khmer.cc.
func (s *Shaper) shapeKhmer(buf *Buffer, features []Feature) {
	if buf.Direction == 0 {
		buf.Direction = DirectionLTR
	}

	s.normalizeBuffer(buf, NormalizationModeComposedDiacritics)
	s.mapCodepointsToGlyphs(buf)
	s.setGlyphClasses(buf)

	cats := khmerCategorize(buf)
	if FindSyllablesKhmer(buf, cats) {
		s.insertBrokenClusterCircles(buf, &cats)
	}
	reorderAllSyllables(buf, cats)

	s.applyKhmerFeatures(buf)
	s.setBaseAdvances(buf)

	_, gposFeatures := s.categorizeFeatures(features)
	gposFeatures = append(gposFeatures, khmerGPOSFeatures...)
	s.applyGPOS(buf, gposFeatures)
}
