package ot

// Hangul Jamo shaping: compose a Leading+Vowel(+Trailing) Jamo triple into
// a precomposed syllable when the font carries that glyph, decompose a
// precomposed syllable back into Jamo when it doesn't, and tag whichever
// Jamo end up ungrouped with ljmo/vjmo/tjmo feature masks so GSUB can still
// apply the right positional variant to each one individually.
// HarfBuzz equivalent: hb-ot-shaper-hangul.cc.

// jamoRange describes a Unicode Hangul Jamo block.
// HarfBuzz equivalent: the *_FIRST/*_LAST pairs in hb-ot-shaper-hangul.cc.
type jamoRange struct {
	first, last Codepoint
}

func (r jamoRange) contains(u Codepoint) bool { return u >= r.first && u <= r.last }

// Precomposed-syllable algebra constants (Unicode 3.12, "Hangul Syllable
// Decomposition Algorithm").
const (
	jamoLBase Codepoint = 0x1100
	jamoVBase Codepoint = 0x1161
	jamoTBase Codepoint = 0x11A7
	syllBase  Codepoint = 0xAC00
	jamoLCnt            = 19
	jamoVCnt             = 21
	jamoTCnt             = 28
	syllNCnt             = jamoVCnt * jamoTCnt // 588 V+T combinations per L
	syllCnt              = jamoLCnt * syllNCnt // 11172 precomposed syllables
)

// Composable ranges (narrower: only the Jamo that combine into a modern
// precomposed syllable) versus tagging ranges (wider: includes historical
// Jamo that still get ljmo/vjmo/tjmo feature masks even though they never
// compose).
var (
	composableL = jamoRange{0x1100, 0x1112}
	composableV = jamoRange{0x1161, 0x1175}
	composableT = jamoRange{0x11A8, 0x11C2}

	taggableL = []jamoRange{{0x1100, 0x115F}, {0xA960, 0xA97C}}
	taggableV = []jamoRange{{0x1160, 0x11A7}, {0xD7B0, 0xD7C6}}
	taggableT = []jamoRange{{0x11A8, 0x11FF}, {0xD7CB, 0xD7FB}}
)

func inAnyRange(u Codepoint, ranges []jamoRange) bool {
	for _, r := range ranges {
		if r.contains(u) {
			return true
		}
	}
	return false
}

func isLeadingJamo(u Codepoint) bool    { return inAnyRange(u, taggableL) }
func isVowelJamo(u Codepoint) bool      { return inAnyRange(u, taggableV) }
func isTrailingJamo(u Codepoint) bool   { return inAnyRange(u, taggableT) }
func isPrecomposed(u Codepoint) bool    { return u >= syllBase && u < syllBase+Codepoint(syllCnt) }
func isHangulToneMark(u Codepoint) bool { return u >= 0x302E && u <= 0x302F }

// HangulFeature tags on GlyphInfo classify a Jamo glyph that composition
// left standing alone, so collect_features_hangul's mask pass (in
// shapeHangul below) knows which of ljmo/vjmo/tjmo to apply to it.
const (
	hangulNoFeature uint8 = 0
	hangulLeading   uint8 = 1
	hangulVowel     uint8 = 2
	hangulTrailing  uint8 = 3
)

// hasZeroWidthGlyph reports whether the font maps u to a glyph with a zero
// horizontal advance — used to decide whether a tone mark needs to move
// before its syllable (spacing marks do; zero-width combining marks don't).
// HarfBuzz equivalent: is_zero_width_char() in hb-ot-shaper-hangul.cc.
func (s *Shaper) hasZeroWidthGlyph(u Codepoint) bool {
	if s.cmap == nil || s.hmtx == nil {
		return false
	}
	glyph, ok := s.cmap.Lookup(u)
	if !ok {
		return false
	}
	return s.hmtx.GetAdvanceWidth(glyph) == 0
}

// hangulComposer walks the input buffer once, composing/decomposing/tagging
// Jamo runs into the output buffer. It tracks [start, end) of the most
// recently emitted syllable so a following tone mark can be spliced before
// it rather than after.
type hangulComposer struct {
	s          *Shaper
	buf        *Buffer
	count      int
	syllStart  int
	syllEnd    int
}

func (h *hangulComposer) run() {
	h.buf.clearOutput()
	for h.buf.Idx = 0; h.buf.Idx < h.count; {
		u := h.buf.Info[h.buf.Idx].Codepoint
		switch {
		case isHangulToneMark(u):
			h.handleToneMark(u)
		default:
			h.handleSyllable(u)
		}
	}
	h.buf.sync()
}

// handleToneMark splices a combining tone mark before the syllable it was
// written after (editors type the tone mark second; the glyph order needs
// it first), or inserts a dotted circle if there is no syllable to attach
// to and the font can render one.
func (h *hangulComposer) handleToneMark(u Codepoint) {
	buf := h.buf
	if h.syllStart < h.syllEnd && h.syllEnd == buf.outLen {
		buf.nextGlyph()
		if !h.s.hasZeroWidthGlyph(u) {
			mergeClusterRun(buf, h.syllStart, h.syllEnd+1)
			tone := buf.outInfo[h.syllEnd]
			copy(buf.outInfo[h.syllStart+1:h.syllEnd+1], buf.outInfo[h.syllStart:h.syllEnd])
			buf.outInfo[h.syllStart] = tone
		}
	} else if h.s.font.HasGlyph(0x25CC) {
		chars := [2]Codepoint{u, 0x25CC}
		if h.s.hasZeroWidthGlyph(u) {
			chars = [2]Codepoint{0x25CC, u}
		}
		buf.replaceGlyphs(1, 2, chars[:])
	} else {
		buf.nextGlyph()
	}
	h.syllStart, h.syllEnd = buf.outLen, buf.outLen
}

// handleSyllable dispatches a non-tone-mark codepoint to LVT composition
// (leading Jamo followed by a vowel) or precomposed-syllable handling,
// falling back to copying the glyph through untouched.
func (h *hangulComposer) handleSyllable(u Codepoint) {
	buf := h.buf
	h.syllStart = buf.outLen

	switch {
	case isLeadingJamo(u) && buf.Idx+1 < h.count && isVowelJamo(buf.Info[buf.Idx+1].Codepoint):
		if h.composeLVT(u, buf.Info[buf.Idx+1].Codepoint) {
			return
		}
	case isPrecomposed(u):
		if h.handlePrecomposed(u) {
			return
		}
	}
	buf.nextGlyph()
}

// composeLVT tries to fuse a Leading+Vowel(+Trailing) Jamo run into one
// precomposed syllable glyph; failing that, it tags each surviving Jamo
// with its ljmo/vjmo/tjmo role. Returns true once it has fully advanced
// buf.Idx and h.syllEnd for this run (the caller must not fall through to
// its own buf.nextGlyph()).
func (h *hangulComposer) composeLVT(l, v Codepoint) bool {
	buf := h.buf
	var t, tIndex Codepoint
	if buf.Idx+2 < h.count {
		if c := buf.Info[buf.Idx+2].Codepoint; isTrailingJamo(c) {
			t, tIndex = c, c-jamoTBase
		}
	}

	if composableL.contains(l) && composableV.contains(v) && (t == 0 || composableT.contains(t)) {
		composed := syllBase + (l-jamoLBase)*Codepoint(syllNCnt) + (v-jamoVBase)*Codepoint(jamoTCnt) + tIndex
		if h.s.font.HasGlyph(composed) {
			numIn := 2
			if t != 0 {
				numIn = 3
			}
			buf.replaceGlyphs(numIn, 1, []Codepoint{composed})
			h.syllEnd = h.syllStart + 1
			return true
		}
	}

	buf.Info[buf.Idx].HangulFeature = hangulLeading
	buf.nextGlyph()
	buf.Info[buf.Idx].HangulFeature = hangulVowel
	buf.nextGlyph()
	if t != 0 {
		buf.Info[buf.Idx].HangulFeature = hangulTrailing
		buf.nextGlyph()
		h.syllEnd = h.syllStart + 3
	} else {
		h.syllEnd = h.syllStart + 2
	}
	mergeClusterRun(buf, h.syllStart, h.syllEnd)
	return true
}

// handlePrecomposed tries to extend a precomposed LV syllable with a
// following combining trailing Jamo, or decomposes the syllable back to
// Jamo when the font lacks a glyph for it (or a following plain trailing
// Jamo forces decomposition so the two can recombine visually). Returns
// false to let the caller fall through to a plain copy when neither applies.
func (h *hangulComposer) handlePrecomposed(u Codepoint) bool {
	buf := h.buf
	hasGlyph := h.s.font.HasGlyph(u)
	lIndex := (u - syllBase) / Codepoint(syllNCnt)
	nIndex := (u - syllBase) % Codepoint(syllNCnt)
	vIndex := nIndex / Codepoint(jamoTCnt)
	tIndex := nIndex % Codepoint(jamoTCnt)

	if tIndex == 0 && buf.Idx+1 < h.count && composableT.contains(buf.Info[buf.Idx+1].Codepoint) {
		newTIndex := buf.Info[buf.Idx+1].Codepoint - jamoTBase
		if extended := u + newTIndex; h.s.font.HasGlyph(extended) {
			buf.replaceGlyphs(2, 1, []Codepoint{extended})
			h.syllEnd = h.syllStart + 1
			return true
		}
	}

	needsDecompose := !hasGlyph ||
		(tIndex == 0 && buf.Idx+1 < h.count && isTrailingJamo(buf.Info[buf.Idx+1].Codepoint))
	if needsDecompose {
		jamo := [3]Codepoint{jamoLBase + lIndex, jamoVBase + vIndex, jamoTBase + tIndex}
		haveAll := h.s.font.HasGlyph(jamo[0]) && h.s.font.HasGlyph(jamo[1]) &&
			(tIndex == 0 || h.s.font.HasGlyph(jamo[2]))
		if haveAll {
			n := 2
			if tIndex != 0 {
				n = 3
			}
			buf.replaceGlyphs(1, n, jamo[:n])
			if hasGlyph && tIndex == 0 {
				// Original syllable had a glyph; we're only decomposing
				// because a plain trailing Jamo follows it, so keep that
				// input codepoint too rather than dropping it.
				buf.nextGlyph()
				n++
			}
			h.syllEnd = h.syllStart + n
			roles := [3]uint8{hangulLeading, hangulVowel, hangulTrailing}
			for i := h.syllStart; i < h.syllEnd; i++ {
				role := roles[2]
				if i-h.syllStart < 2 {
					role = roles[i-h.syllStart]
				}
				buf.outInfo[i].HangulFeature = role
			}
			mergeClusterRun(buf, h.syllStart, h.syllEnd)
			return true
		}
	}

	if hasGlyph {
		h.syllEnd = h.syllStart + 1
	}
	return false
}

// composeHangul runs Jamo composition/decomposition before normalization
// (HarfBuzz applies this preprocess step ahead of its Unicode-normalize
// stage, not after it).
// HarfBuzz equivalent: preprocess_text_hangul() in hb-ot-shaper-hangul.cc.
func (s *Shaper) composeHangul(buf *Buffer) {
	count := buf.Len()
	if count == 0 {
		return
	}
	(&hangulComposer{s: s, buf: buf, count: count}).run()
}

var (
	tagLjmo = MakeTag('l', 'j', 'm', 'o')
	tagVjmo = MakeTag('v', 'j', 'm', 'o')
	tagTjmo = MakeTag('t', 'j', 'm', 'o')
)

// hangulJamoMaskBits assigns the per-syllable mask bits that gate the
// ljmo/vjmo/tjmo feature applications below; any free global mask bits
// would do; these just need to not collide with the map builder's own
// allocation (see feature_map.go).
const (
	ljmoMask uint32 = 1 << 8
	vjmoMask uint32 = 1 << 9
	tjmoMask uint32 = 1 << 10
)

// shapeHangul runs the Hangul pipeline: Jamo composition/decomposition (no
// Unicode normalization pass — Hangul supplies its own), glyph mapping,
// ljmo/vjmo/tjmo mask assignment, GSUB (including the three masked
// Jamo-role features applied after the main pass), and GPOS with no
// zero-width mark handling.
// HarfBuzz equivalent: _hb_ot_shaper_hangul in hb-ot-shaper-hangul.cc.
func (s *Shaper) shapeHangul(buf *Buffer, features []Feature) {
	s.composeHangul(buf)

	buf.ResetMasks(MaskGlobal)
	s.mapCodepointsToGlyphs(buf)
	s.setGlyphClasses(buf)

	gsubFeatures, gposFeatures := s.categorizeFeatures(features)
	gsubFeatures = append(gsubFeatures,
		Feature{Tag: MakeTag('l', 't', 'r', 'a'), Value: 1},
		Feature{Tag: MakeTag('l', 't', 'r', 'm'), Value: 1},
	)

	for i := range buf.Info {
		switch buf.Info[i].HangulFeature {
		case hangulLeading:
			buf.Info[i].Mask |= ljmoMask
		case hangulVowel:
			buf.Info[i].Mask |= vjmoMask
		case hangulTrailing:
			buf.Info[i].Mask |= tjmoMask
		}
	}

	// calt is disabled for Hangul; appended last so it overrides any
	// earlier default entry for the same tag when the map is compiled.
	gsubFeatures = append(gsubFeatures, Feature{Tag: MakeTag('c', 'a', 'l', 't'), Value: 0})

	s.applyGSUB(buf, gsubFeatures)
	if s.gsub != nil {
		s.gsub.ApplyFeatureToBufferWithMask(tagLjmo, buf, s.gdef, ljmoMask, s.font)
		s.gsub.ApplyFeatureToBufferWithMask(tagVjmo, buf, s.gdef, vjmoMask, s.font)
		s.gsub.ApplyFeatureToBufferWithMask(tagTjmo, buf, s.gdef, tjmoMask, s.font)
	}
	s.setBaseAdvances(buf)
	s.applyGPOSWithZeroWidthMarks(buf, gposFeatures, ZeroWidthMarksNone)

	if buf.Direction == DirectionRTL {
		s.reverseClusters(buf)
	}
}
