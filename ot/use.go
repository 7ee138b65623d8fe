package ot

// Universal Shaping Engine (USE): Microsoft's script-agnostic shaping
// recipe for complex scripts without a dedicated shaper of their own
// (Tibetan, Javanese, Balinese, and others). Syllable boundaries come from
// the Ragel machine in use_machine.go; this file classifies glyphs for it
// and drives feature application and glyph reordering around that.
// HarfBuzz equivalent: hb-ot-shaper-use.cc.
// Reference: https://docs.microsoft.com/en-us/typography/script-development/use

// useCategoryAccessor adapts a []USESyllableInfo slice to the generic
// SyllableAccessor interface dotted-circle insertion needs.
type useCategoryAccessor struct {
	syllables []USESyllableInfo
}

func (a *useCategoryAccessor) GetSyllable(i int) uint8   { return a.syllables[i].Syllable }
func (a *useCategoryAccessor) GetCategory(i int) uint8   { return uint8(a.syllables[i].Category) }
func (a *useCategoryAccessor) SetCategory(i int, cat uint8) {
	a.syllables[i].Category = USECategory(cat)
}
func (a *useCategoryAccessor) Len() int { return len(a.syllables) }

// Feature tag groups, applied at distinct points in the USE pipeline.
// HarfBuzz equivalent: use_basic_features[], use_topographical_features[],
// use_other_features[], and horizontal_features[] in hb-ot-shape.cc.
var (
	useBasicTags = []Tag{
		MakeTag('r', 'k', 'r', 'f'),
		MakeTag('a', 'b', 'v', 'f'),
		MakeTag('b', 'l', 'w', 'f'),
		MakeTag('h', 'a', 'l', 'f'),
		MakeTag('p', 's', 't', 'f'),
		MakeTag('v', 'a', 't', 'u'),
		MakeTag('c', 'j', 'c', 't'),
	}
	useTopographicalTags = []Tag{
		MakeTag('i', 's', 'o', 'l'),
		MakeTag('i', 'n', 'i', 't'),
		MakeTag('m', 'e', 'd', 'i'),
		MakeTag('f', 'i', 'n', 'a'),
	}
	useOtherTags = []Tag{
		MakeTag('a', 'b', 'v', 's'),
		MakeTag('b', 'l', 'w', 's'),
		MakeTag('h', 'a', 'l', 'n'),
		MakeTag('p', 'r', 'e', 's'),
		MakeTag('p', 's', 't', 's'),
	}
	useHorizontalTags = []Tag{
		MakeTag('c', 'a', 'l', 't'),
		MakeTag('c', 'l', 'i', 'g'),
		MakeTag('l', 'i', 'g', 'a'),
		MakeTag('r', 'c', 'l', 't'),
	}
	usePreprocessTags = []Tag{
		MakeTag('l', 'o', 'c', 'l'),
		MakeTag('c', 'c', 'm', 'p'),
		MakeTag('n', 'u', 'k', 't'),
		MakeTag('a', 'k', 'h', 'n'),
	}

	useRphfFeature = MakeTag('r', 'p', 'h', 'f')
	usePrefFeature = MakeTag('p', 'r', 'e', 'f')
)

// JoiningForm is the positional form (isol/init/medi/fina) a syllable is
// assigned when USE-script joining behaves like Arabic's.
type JoiningForm uint8

const (
	JoiningFormIsol JoiningForm = iota
	JoiningFormInit
	JoiningFormMedi
	JoiningFormFina
	JoiningFormNone
)

// eachSyllable calls fn once per contiguous run of equal syllable ids in
// syllables, passing the run's [start, end) bounds. Nearly every USE pass
// (rphf masking, pref masking, reordering, topographical masks) walks
// syllables this same way.
func eachSyllable(syllables []USESyllableInfo, fn func(start, end int)) {
	n := len(syllables)
	for i := 0; i < n; {
		id := syllables[i].Syllable
		end := i + 1
		for end < n && syllables[end].Syllable == id {
			end++
		}
		fn(i, end)
		i = end
	}
}

// classifyUSE assigns a USECategory to every glyph from its codepoint.
// HarfBuzz equivalent: setup_masks_use() category assignment in
// hb-ot-shaper-use.cc.
func classifyUSE(buf *Buffer) []USESyllableInfo {
	syllables := make([]USESyllableInfo, len(buf.Info))
	for i := range buf.Info {
		syllables[i].Category = getUSECategory(buf.Info[i].Codepoint)
	}
	return syllables
}

// applyFeatureSet compiles tags into a feature set for the buffer's
// script/language and applies the resulting GSUB lookups in index order,
// matching how HarfBuzz's map.compile() applies a whole feature group as
// one sorted lookup list rather than one feature at a time.
func (s *Shaper) applyFeatureSet(buf *Buffer, tags []Tag) {
	if s.gsub == nil {
		return
	}
	features := make([]Feature, len(tags))
	for i, tag := range tags {
		features[i] = Feature{Tag: tag, Value: 1}
	}
	otMap := CompileMap(s.gsub, nil, features, buf.Script, buf.Language)
	otMap.ApplyGSUB(s.gsub, buf, s.font, s.gdef)
}

const rphfMaskBit = 1 << 0

// maskRphfCandidates flags the leading 1-3 glyphs of every syllable as
// rphf candidates: just the first glyph if it's already classified as
// repha, otherwise up to three glyphs (a potential Ra+Halant pair plus one
// more).
// HarfBuzz equivalent: setup_rphf_mask() in hb-ot-shaper-use.cc.
func maskRphfCandidates(buf *Buffer, syllables []USESyllableInfo) {
	eachSyllable(syllables, func(start, end int) {
		limit := min(3, end-start)
		if syllables[start].Category == USE_R {
			limit = 1
		}
		for j := start; j < start+limit; j++ {
			buf.Info[j].Mask |= rphfMaskBit
		}
	})
}

// recordSubstitutedCategory applies featureTag with the given mask, then
// re-walks each syllable looking for the first glyph whose GlyphID the
// feature actually changed, tagging it with replacementCat. Used by both
// rphf (tag substituted repha) and pref (tag substituted pre-base forms)
// since both follow the same substitute-then-detect pattern.
func (s *Shaper) recordSubstitutedCategory(buf *Buffer, syllables []USESyllableInfo, featureTag Tag, mask uint32, replacementCat USECategory, stopAtMaskEdge bool) {
	if s.gsub == nil {
		return
	}

	before := make([]GlyphID, len(buf.Info))
	for i := range buf.Info {
		before[i] = buf.Info[i].GlyphID
	}

	variationsIndex := s.gsub.FindVariationsIndex(s.normalizedCoordsI)
	s.gsub.ApplyFeatureToBufferWithMaskAndVariations(featureTag, buf, s.gdef, mask, s.font, variationsIndex)

	eachSyllable(syllables, func(start, end int) {
		for j := start; j < end; j++ {
			if stopAtMaskEdge && buf.Info[j].Mask&rphfMaskBit == 0 {
				break
			}
			if buf.Info[j].GlyphID != before[j] {
				syllables[j].Category = replacementCat
				break
			}
		}
	})
}

// reorderSyllableUSE moves a syllable's repha forward past post-base
// glyphs and its pre-base vowels backward past the halant, the two
// positional corrections USE reordering performs; syllable types outside
// the five that carry a base consonant (viramaTerminated/sakotTerminated/
// standard/symbol/broken) are left untouched.
// HarfBuzz equivalent: reorder_syllable_use() in hb-ot-shaper-use.cc.
func reorderSyllableUSE(buf *Buffer, syllables []USESyllableInfo, start, end int) {
	switch syllables[start].SyllableType {
	case USE_ViramaTerminatedCluster, USE_SakotTerminatedCluster,
		USE_StandardCluster, USE_SymbolCluster, USE_BrokenCluster:
	default:
		return
	}

	if syllables[start].Category == USE_R && end-start > 1 {
		moveRephaForward(buf, syllables, start, end)
	}
	movePreBaseVowelsBackward(buf, syllables, start, end)
}

// moveRephaForward splices the syllable-initial repha to just before the
// first post-base or halant glyph in the syllable.
func moveRephaForward(buf *Buffer, syllables []USESyllableInfo, start, end int) {
	insertPos := end - 1
	for i := start + 1; i < end; i++ {
		if isUSEPostBase(syllables[i].Category) || isUSEHalant(syllables[i].Category, &buf.Info[i]) {
			insertPos = i - 1
			break
		}
	}
	if insertPos <= start {
		return
	}

	buf.MergeClusters(start, insertPos+1)
	spliceInfoForward(buf, syllables, start, insertPos)
}

// movePreBaseVowelsBackward walks the syllable left to right tracking the
// position just after the most recent halant, and splices any VPre/VMPre
// vowel found ahead of it back to just after that halant.
func movePreBaseVowelsBackward(buf *Buffer, syllables []USESyllableInfo, start, end int) {
	afterHalant := start
	for i := start; i < end; i++ {
		cat := syllables[i].Category
		switch {
		case isUSEHalant(cat, &buf.Info[i]):
			afterHalant = i + 1
		case (cat == USE_VPre || cat == USE_VMPre) && afterHalant < i:
			buf.MergeClusters(afterHalant, i+1)
			spliceInfoBackward(buf, syllables, afterHalant, i)
		}
	}
}

// spliceInfoForward moves the glyph at `from` to `to` (from < to),
// shifting the glyphs in between left by one, in both buf.Info/buf.Pos and
// the parallel syllables slice.
func spliceInfoForward(buf *Buffer, syllables []USESyllableInfo, from, to int) {
	savedInfo, savedSyl := buf.Info[from], syllables[from]
	copy(buf.Info[from:to], buf.Info[from+1:to+1])
	copy(syllables[from:to], syllables[from+1:to+1])
	buf.Info[to], syllables[to] = savedInfo, savedSyl

	if len(buf.Pos) > to {
		savedPos := buf.Pos[from]
		copy(buf.Pos[from:to], buf.Pos[from+1:to+1])
		buf.Pos[to] = savedPos
	}
}

// spliceInfoBackward moves the glyph at `from` to `to` (to < from),
// shifting the glyphs in between right by one.
func spliceInfoBackward(buf *Buffer, syllables []USESyllableInfo, to, from int) {
	savedInfo, savedSyl := buf.Info[from], syllables[from]
	copy(buf.Info[to+1:from+1], buf.Info[to:from])
	copy(syllables[to+1:from+1], syllables[to:from])
	buf.Info[to], syllables[to] = savedInfo, savedSyl

	if len(buf.Pos) > from {
		savedPos := buf.Pos[from]
		copy(buf.Pos[to+1:from+1], buf.Pos[to:from])
		buf.Pos[to] = savedPos
	}
}

// assignTopographicalMasks tags each syllable's glyphs with a joining form
// mask (isol/init/medi/fina) for scripts whose topographical features are
// driven by syllable adjacency rather than an Arabic-style joining plan —
// when a syllable directly follows a fina/isol-tagged one, that earlier
// syllable is retagged medi/init respectively and the new one becomes fina;
// hieroglyph and non-cluster syllables never join.
// HarfBuzz equivalent: setup_topographical_masks() in hb-ot-shaper-use.cc.
func assignTopographicalMasks(buf *Buffer, syllables []USESyllableInfo) {
	lastForm := JoiningFormNone
	lastStart := 0

	eachSyllable(syllables, func(start, end int) {
		switch syllables[start].SyllableType {
		case USE_HieroglyphCluster, USE_NonCluster:
			lastForm = JoiningFormNone
			return
		}

		join := lastForm == JoiningFormFina || lastForm == JoiningFormIsol
		if join {
			newForm := JoiningFormInit
			if lastForm == JoiningFormFina {
				newForm = JoiningFormMedi
			}
			for j := lastStart; j < start; j++ {
				buf.Info[j].Mask = buf.Info[j].Mask&^(3<<1) | uint32(newForm)<<1
			}
		}

		thisForm := JoiningFormIsol
		if join {
			thisForm = JoiningFormFina
		}
		for j := start; j < end; j++ {
			buf.Info[j].Mask |= uint32(thisForm) << 1
		}

		lastStart, lastForm = start, thisForm
	})
}

var useGPOSFeatures = []Feature{
	{Tag: MakeTag('d', 'i', 's', 't'), Value: 1},
	{Tag: MakeTag('a', 'b', 'v', 'm'), Value: 1},
	{Tag: MakeTag('b', 'l', 'w', 'm'), Value: 1},
	{Tag: MakeTag('m', 'a', 'r', 'k'), Value: 1},
	{Tag: MakeTag('m', 'k', 'm', 'k'), Value: 1},
}

// isUSEPostBase reports whether cat is one of the post-base placements
// (above/below/post-base forms, matras, and their multi-part variants).
func isUSEPostBase(cat USECategory) bool {
	switch cat {
	case USE_FAbv, USE_FBlw, USE_FPst, USE_FMAbv, USE_FMBlw, USE_FMPst,
		USE_MAbv, USE_MBlw, USE_MPst, USE_MPre,
		USE_VAbv, USE_VBlw, USE_VPst, USE_VPre,
		USE_VMAbv, USE_VMBlw, USE_VMPst, USE_VMPre:
		return true
	}
	return false
}

// mergeZWNJAwareSyllableClusters merges every syllable's glyphs to its
// minimum cluster value, except that a ZWNJ (U+200C) inside the syllable
// starts a new cluster boundary: everything before it merges to its own
// minimum, everything from the ZWNJ onward inherits the ZWNJ's cluster.
// HarfBuzz equivalent: the unsafe_to_break bookkeeping in
// setup_syllables_use() — reused here purely as cluster hygiene since
// line-breaking is out of scope.
func mergeZWNJAwareSyllableClusters(buf *Buffer, syllables []USESyllableInfo) {
	eachSyllable(syllables, func(start, end int) {
		zwnj := -1
		for j := start; j < end; j++ {
			if buf.Info[j].Codepoint == 0x200C {
				zwnj = j
				break
			}
		}

		if zwnj < 0 {
			if end > start {
				buf.MergeClusters(start, end)
			}
			return
		}
		if zwnj > start {
			buf.MergeClusters(start, zwnj)
		}
		zwnjCluster := buf.Info[zwnj].Cluster
		for j := zwnj; j < end; j++ {
			buf.Info[j].Cluster = zwnjCluster
		}
	})
}

// shapeUSE runs the Universal Shaping Engine pipeline: vowel-constraint
// preprocessing, diacritic-composing normalization, Arabic-style joining
// masks for scripts that need them, classification and syllable
// segmentation via the Ragel machine, dotted-circle insertion for broken
// clusters, the rphf/pref substitution-and-record passes, basic features,
// syllable reordering, topographical masks, the remaining feature groups,
// and GPOS with early GDEF-driven mark-width zeroing.
// HarfBuzz equivalent: _hb_ot_shaper_use in hb-ot-shaper-use.cc.
func (s *Shaper) shapeUSE(buf *Buffer, features []Feature) {
	if buf.Direction == 0 {
		buf.Direction = DirectionLTR
	}

	PreprocessVowelConstraints(buf)
	s.normalizeBuffer(buf, NormalizationModeComposedDiacritics)
	buf.ResetMasks(MaskGlobal)

	arabicJoining := hasArabicJoining(buf.Script)
	if arabicJoining {
		s.setupMasksArabicPlan(buf)
	}

	s.mapCodepointsToGlyphs(buf)
	syllables := classifyUSE(buf)

	if FindSyllablesUSE(syllables) {
		accessor := &useCategoryAccessor{syllables: syllables}
		s.insertSyllabicDottedCircles(buf, accessor, uint8(USE_BrokenCluster), uint8(USE_B), int(USE_R))
		syllables = classifyUSE(buf)
		FindSyllablesUSE(syllables)
	}

	mergeZWNJAwareSyllableClusters(buf, syllables)
	s.applyFeatureSet(buf, usePreprocessTags)

	maskRphfCandidates(buf, syllables)
	s.recordSubstitutedCategory(buf, syllables, useRphfFeature, MaskGlobal, USE_R, true)
	s.recordSubstitutedCategory(buf, syllables, usePrefFeature, MaskGlobal, USE_VPre, false)

	s.applyFeatureSet(buf, useBasicTags)

	eachSyllable(syllables, func(start, end int) { reorderSyllableUSE(buf, syllables, start, end) })

	if !arabicJoining {
		assignTopographicalMasks(buf, syllables)
	}

	otherAndHorizontal := make([]Tag, 0, len(useTopographicalTags)+len(useOtherTags)+len(useHorizontalTags))
	otherAndHorizontal = append(otherAndHorizontal, useTopographicalTags...)
	otherAndHorizontal = append(otherAndHorizontal, useOtherTags...)
	otherAndHorizontal = append(otherAndHorizontal, useHorizontalTags...)
	s.applyFeatureSet(buf, otherAndHorizontal)

	s.setBaseAdvances(buf)
	s.zeroMarkWidthsByGDEF(buf)

	_, gposFeatures := s.categorizeFeatures(features)
	gposFeatures = append(gposFeatures, useGPOSFeatures...)
	s.applyGPOS(buf, gposFeatures)

	if buf.Direction == DirectionRTL {
		s.reverseBuffer(buf)
	}
}
