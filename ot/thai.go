package ot

// Thai/Lao shaping: Sara Am is split into a spacing vowel plus a combining
// Nikhahit, and the Nikhahit is walked back over any above-base tone marks
// that already preceded it so stacking order stays correct.
// HarfBuzz equivalent: hb-ot-shaper-thai.cc.
// PUA fallback shaping (legacy font encodings with glyphs in the private
// use area) is not implemented.

// thaiLaoSaraAm reports whether cp is Thai (U+0E33) or Lao (U+0EB3) Sara Am;
// the two scripts share this encoding trick 0x80 codepoints apart.
func thaiLaoSaraAm(cp Codepoint) bool {
	return (cp &^ 0x0080) == 0x0E33
}

// saraAmToNikhahit returns the combining Nikhahit/Niggahita a Sara Am
// decomposes into: U+0E33->U+0E4D (Thai), U+0EB3->U+0ECD (Lao).
func saraAmToNikhahit(cp Codepoint) Codepoint {
	return cp - 0x0E33 + 0x0E4D
}

// saraAmToSaraAa returns the spacing vowel a Sara Am decomposes into:
// U+0E33->U+0E32 (Thai), U+0EB3->U+0EB2 (Lao) — always one codepoint back.
func saraAmToSaraAa(cp Codepoint) Codepoint {
	return cp - 1
}

// aboveBaseToneMark reports whether cp sits in one of the Thai/Lao
// above-base combining ranges that a reordered Nikhahit must hop over:
// Thai <0E31, 0E34..0E37, 0E47..0E4E>, Lao <0EB1, 0EB4..0EB7, 0EBB, 0EC8..0ECD>.
func aboveBaseToneMark(cp Codepoint) bool {
	normalized := cp &^ 0x0080
	switch {
	case normalized >= 0x0E34 && normalized <= 0x0E37:
		return true
	case normalized >= 0x0E47 && normalized <= 0x0E4E:
		return true
	case normalized == 0x0E31, normalized == 0x0E3B:
		return true
	default:
		return false
	}
}

// splitSaraAm rewrites one Sara Am codepoint at buf.Idx into the output
// buffer as Nikhahit followed by Sara Aa, advancing past the one input
// codepoint (Sara Am is a single input codepoint producing two outputs).
func splitSaraAm(buf *Buffer) {
	u := buf.Info[buf.Idx].Codepoint

	nikhahit := buf.Info[buf.Idx]
	nikhahit.Codepoint = saraAmToNikhahit(u)
	nikhahit.GlyphID = GlyphID(nikhahit.Codepoint)
	buf.outputInfo(nikhahit)

	saraAa := saraAmToSaraAa(u)
	buf.Info[buf.Idx].Codepoint = saraAa
	buf.Info[buf.Idx].GlyphID = GlyphID(saraAa)
	buf.nextGlyph()
}

// reorderTrailingNikhahit moves the Nikhahit just emitted by splitSaraAm
// (the glyph at outLen-2) back over any contiguous run of above-base tone
// marks that precede it in the output, so visual stacking order matches
// what a font's mark-positioning lookups expect.
func reorderTrailingNikhahit(buf *Buffer) {
	end := buf.outLen
	if end < 2 {
		return
	}

	start := end - 2
	for start > 0 && aboveBaseToneMark(buf.outInfo[start-1].Codepoint) {
		start--
	}

	if start+2 >= end {
		// Nothing to hop over; still a combining mark, so fold its cluster
		// into whatever glyph now precedes it.
		if start > 0 {
			mergeClusterRun(buf, start-1, end)
		}
		return
	}

	mergeClusterRun(buf, start, end)
	nikhahit := buf.outInfo[end-2]
	copy(buf.outInfo[start+1:end-1], buf.outInfo[start:end-2])
	buf.outInfo[start] = nikhahit
}

// decomposeSaraAm walks the buffer once, splitting every Sara Am into
// Nikhahit+Sara Aa and reordering the Nikhahit over preceding tone marks.
// Must run before normalization, since recomposition would otherwise
// collapse the pair straight back into Sara Am.
// HarfBuzz equivalent: preprocess_text_thai() in hb-ot-shaper-thai.cc.
func (s *Shaper) decomposeSaraAm(buf *Buffer) {
	if buf.Len() == 0 {
		return
	}

	buf.clearOutput()
	count := buf.Len()

	for buf.Idx = 0; buf.Idx < count; {
		if !thaiLaoSaraAm(buf.Info[buf.Idx].Codepoint) {
			buf.nextGlyph()
			continue
		}
		splitSaraAm(buf)
		reorderTrailingNikhahit(buf)
	}

	buf.sync()
}

// shapeThai runs the Thai/Lao pipeline: Sara Am splitting, normalization,
// glyph mapping, and GSUB/GPOS with late GDEF-driven mark-width zeroing.
// Thai does not fall back to kern-table or heuristic mark positioning.
// HarfBuzz equivalent: _hb_ot_shaper_thai in hb-ot-shaper-thai.cc.
func (s *Shaper) shapeThai(buf *Buffer, features []Feature) {
	s.decomposeSaraAm(buf)
	s.normalizeBuffer(buf, NormalizationModeAuto)

	buf.ResetMasks(MaskGlobal)
	s.mapCodepointsToGlyphs(buf)
	s.setGlyphClasses(buf)

	gsubFeatures, gposFeatures := s.categorizeFeatures(features)
	gsubFeatures = append(gsubFeatures,
		Feature{Tag: MakeTag('l', 't', 'r', 'a'), Value: 1},
		Feature{Tag: MakeTag('l', 't', 'r', 'm'), Value: 1},
	)

	s.applyGSUB(buf, gsubFeatures)
	s.setBaseAdvances(buf)
	s.applyGPOSWithZeroWidthMarks(buf, gposFeatures, ZeroWidthMarksByGDEFLate)
}
