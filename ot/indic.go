package ot

import "sort"

// Indic shaping for the nine Brahmic scripts that use the classic
// consonant/virama/matra model (Devanagari, Bengali, Gurmukhi, Gujarati,
// Oriya, Tamil, Telugu, Kannada, Malayalam) plus Sinhala. Syllable
// boundaries come from the Ragel-generated machine in indic_machine.go;
// this file classifies glyphs for that machine, reorders each syllable
// around its base consonant (twice — once before GSUB, once after), and
// drives the feature application order the OpenType Indic spec requires.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc.

var (
	scriptMalayalam = MakeTag('M', 'l', 'y', 'm')
	scriptTamil     = MakeTag('T', 'a', 'm', 'l')
)

// isUnligatedHalant reports whether glyph i is still an unligated Halant/
// Virama category glyph. A ligated glyph no longer counts, mirroring
// HarfBuzz's is_one_of() as used by is_halant().
func isUnligatedHalant(buf *Buffer, i int) bool {
	if buf.Info[i].GlyphProps&GlyphPropsLigated != 0 {
		return false
	}
	return IndicCategory(buf.Info[i].IndicCategory) == ICatH
}

// indicFeatureSlot indexes indicFeatureTable and IndicPlan.maskArray.
// HarfBuzz equivalent: enum in hb-ot-shaper-indic.cc.
type indicFeatureSlot int

const (
	slotNukt indicFeatureSlot = iota
	slotAkhn
	slotRphf
	slotRkrf
	slotPref
	slotBlwf
	slotAbvf
	slotHalf
	slotPstf
	slotVatu
	slotCjct

	slotInit
	slotPres
	slotAbvs
	slotBlws
	slotPsts
	slotHaln

	numIndicSlots
)

// featureApplyFlags controls how a feature in indicFeatureTable is matched
// against context and masks.
// HarfBuzz equivalent: F_GLOBAL, F_MANUAL_ZWNJ, F_MANUAL_ZWJ, F_PER_SYLLABLE.
type featureApplyFlags uint8

const (
	flagGlobal      featureApplyFlags = 1 << 0 // mask is 0: always matches
	flagManualZWNJ  featureApplyFlags = 1 << 1 // don't auto-skip ZWNJ in context
	flagManualZWJ   featureApplyFlags = 1 << 2 // don't auto-skip ZWJ in context
	flagPerSyllable featureApplyFlags = 1 << 3

	flagManualJoiner = flagManualZWNJ | flagManualZWJ
)

// featureSpec names one Indic GSUB feature and how it is matched.
type featureSpec struct {
	tag   Tag
	flags featureApplyFlags
}

// indicFeatureTable lists Indic features in application order: basic
// features (applied one at a time, per syllable, before initial reordering
// settles) first, then the "other" features applied after final reordering.
// HarfBuzz equivalent: indic_features[] in hb-ot-shaper-indic.cc.
var indicFeatureTable = [numIndicSlots]featureSpec{
	{MakeTag('n', 'u', 'k', 't'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('a', 'k', 'h', 'n'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('r', 'p', 'h', 'f'), flagManualJoiner | flagPerSyllable},
	{MakeTag('r', 'k', 'r', 'f'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('p', 'r', 'e', 'f'), flagManualJoiner | flagPerSyllable},
	{MakeTag('b', 'l', 'w', 'f'), flagManualJoiner | flagPerSyllable},
	{MakeTag('a', 'b', 'v', 'f'), flagManualJoiner | flagPerSyllable},
	{MakeTag('h', 'a', 'l', 'f'), flagManualJoiner | flagPerSyllable},
	{MakeTag('p', 's', 't', 'f'), flagManualJoiner | flagPerSyllable},
	{MakeTag('v', 'a', 't', 'u'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('c', 'j', 'c', 't'), flagGlobal | flagManualJoiner | flagPerSyllable},

	{MakeTag('i', 'n', 'i', 't'), flagManualJoiner | flagPerSyllable},
	{MakeTag('p', 'r', 'e', 's'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('a', 'b', 'v', 's'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('b', 'l', 'w', 's'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('p', 's', 't', 's'), flagGlobal | flagManualJoiner | flagPerSyllable},
	{MakeTag('h', 'a', 'l', 'n'), flagGlobal | flagManualJoiner | flagPerSyllable},
}

// Indic feature tags referenced individually outside indicFeatureTable
// (would-substitute probes, GPOS, and the user-feature passthrough filter).
var (
	tagNukt = MakeTag('n', 'u', 'k', 't')
	tagAkhn = MakeTag('a', 'k', 'h', 'n')
	tagRphf = MakeTag('r', 'p', 'h', 'f')
	tagRkrf = MakeTag('r', 'k', 'r', 'f')
	tagPref = MakeTag('p', 'r', 'e', 'f')
	tagBlwf = MakeTag('b', 'l', 'w', 'f')
	tagAbvf = MakeTag('a', 'b', 'v', 'f')
	tagHalf = MakeTag('h', 'a', 'l', 'f')
	tagPstf = MakeTag('p', 's', 't', 'f')
	tagVatu = MakeTag('v', 'a', 't', 'u')
	tagCjct = MakeTag('c', 'j', 'c', 't')
	tagPres = MakeTag('p', 'r', 'e', 's')
	tagAbvs = MakeTag('a', 'b', 'v', 's')
	tagBlws = MakeTag('b', 'l', 'w', 's')
	tagPsts = MakeTag('p', 's', 't', 's')
	tagHaln = MakeTag('h', 'a', 'l', 'n')
	tagClig = MakeTag('c', 'l', 'i', 'g')
	tagDist = MakeTag('d', 'i', 's', 't')
	tagAbvm = MakeTag('a', 'b', 'v', 'm')
	tagBlwm = MakeTag('b', 'l', 'w', 'm')
)

// IndicPlan caches per-script feature masks and would-substitute testers so
// repeated Shape() calls for the same script don't redo this setup.
// HarfBuzz equivalent: indic_shape_plan_t in hb-ot-shaper-indic.cc.
type IndicPlan struct {
	config    *IndicConfig
	isOldSpec bool
	viramaGID GlyphID

	maskArray [numIndicSlots]uint32

	rphf, pref, blwf, pstf, vatu wouldSubstituteTester
}

// wouldSubstituteTester probes whether a GSUB feature would substitute a
// short glyph sequence, without actually applying it.
// HarfBuzz equivalent: hb_indic_would_substitute_feature_t.
type wouldSubstituteTester struct {
	gsub        *GSUB
	tag         Tag
	zeroContext bool
}

func (w *wouldSubstituteTester) test(glyphs []GlyphID) bool {
	if w.gsub == nil {
		return false
	}
	return w.gsub.WouldSubstituteFeature(w.tag, glyphs, w.zeroContext)
}

// buildIndicPlan computes an IndicPlan for script, allocating one mask bit
// per non-global feature starting after the bits Arabic positional shaping
// reserves.
// HarfBuzz equivalent: data_create_indic() in hb-ot-shaper-indic.cc.
func buildIndicPlan(gsub *GSUB, script Tag, config *IndicConfig) *IndicPlan {
	plan := &IndicPlan{config: config}

	var chosenTag Tag
	if gsub != nil {
		chosenTag = gsub.FindChosenScriptTag(script)
	}
	plan.isOldSpec = config.HasOldSpec && byte(chosenTag&0xFF) != '2'

	// Zero-context would_substitute() matching is used for new-spec main
	// Indic scripts and single-spec scripts, but not old-spec or Malayalam.
	zeroContext := !plan.isOldSpec && script != scriptMalayalam
	plan.rphf = wouldSubstituteTester{gsub, tagRphf, zeroContext}
	plan.pref = wouldSubstituteTester{gsub, tagPref, zeroContext}
	plan.blwf = wouldSubstituteTester{gsub, tagBlwf, zeroContext}
	plan.pstf = wouldSubstituteTester{gsub, tagPstf, zeroContext}
	plan.vatu = wouldSubstituteTester{gsub, tagVatu, zeroContext}

	nextBit := uint(8) // bits 1-7 are reserved for Arabic positional masks
	for i := indicFeatureSlot(0); i < numIndicSlots; i++ {
		if indicFeatureTable[i].flags&flagGlobal != 0 {
			plan.maskArray[i] = 0
		} else {
			plan.maskArray[i] = 1 << nextBit
			nextBit++
		}
	}
	return plan
}

// indicPlanFor returns the cached IndicPlan for script, building and
// caching one (plus looking up the script's virama glyph) on first use.
func (s *Shaper) indicPlanFor(script Tag, config *IndicConfig) *IndicPlan {
	if s.indicPlans == nil {
		s.indicPlans = make(map[Tag]*IndicPlan)
	}
	plan, ok := s.indicPlans[script]
	if !ok {
		plan = buildIndicPlan(s.gsub, script, config)
		if s.cmap != nil && config.Virama != 0 {
			plan.viramaGID, _ = s.cmap.Lookup(config.Virama)
		}
		s.indicPlans[script] = plan
	}
	return plan
}

// indicAccessor adapts a []IndicInfo scratch slice to the SyllableAccessor
// interface insertSyllabicDottedCircles (shape_driver.go) needs.
type indicAccessor struct {
	info []IndicInfo
}

func (a *indicAccessor) GetSyllable(i int) uint8   { return a.info[i].Syllable }
func (a *indicAccessor) GetCategory(i int) uint8   { return uint8(a.info[i].Category) }
func (a *indicAccessor) SetCategory(i int, c uint8) { a.info[i].Category = IndicCategory(c) }
func (a *indicAccessor) Len() int                  { return len(a.info) }

// IndicConfig holds the per-script constants the Indic shaper consults:
// where the virama lives, whether the script still needs old-spec
// (pre-OpenType-1.8) behavior, and how reph/below-forms/base-finding work.
// HarfBuzz equivalent: indic_config_t in hb-ot-shaper-indic.hh.
type IndicConfig struct {
	Script     Tag
	Virama     Codepoint
	HasOldSpec bool
	RephPos    IndicPosition
	RephMode   RephMode
	BlwfMode   BlwfMode
	BasePos    BasePos
}

// RephMode describes how a script forms reph (the Ra-to-be-reph glyph).
type RephMode uint8

const (
	RephModeImplicit RephMode = iota // formed implicitly from Ra+Halant
	RephModeExplicit                 // formed from Ra+Halant+ZWJ
	RephModeLogRepha                 // encoded directly as a logical repha codepoint
)

// BlwfMode describes where below-base forms are permitted.
type BlwfMode uint8

const (
	BlwfModePreAndPost BlwfMode = iota
	BlwfModePostOnly
)

// BasePos describes how the base consonant of a syllable is found.
type BasePos uint8

const (
	BasePosLastSinhala BasePos = iota
	BasePosLast
	BasePosFirst
)

// indicConfigs holds the ten scripts' constants.
// HarfBuzz equivalent: indic_configs[] in hb-ot-shaper-indic.cc.
var indicConfigs = map[Tag]IndicConfig{
	MakeTag('D', 'e', 'v', 'a'): {MakeTag('D', 'e', 'v', 'a'), 0x094D, true, IPosBeforePost, RephModeImplicit, BlwfModePreAndPost, BasePosLast},
	MakeTag('B', 'e', 'n', 'g'): {MakeTag('B', 'e', 'n', 'g'), 0x09CD, true, IPosAfterSub, RephModeImplicit, BlwfModePreAndPost, BasePosLast},
	MakeTag('G', 'u', 'r', 'u'): {MakeTag('G', 'u', 'r', 'u'), 0x0A4D, true, IPosBeforeSub, RephModeImplicit, BlwfModePreAndPost, BasePosLast},
	MakeTag('G', 'u', 'j', 'r'): {MakeTag('G', 'u', 'j', 'r'), 0x0ACD, true, IPosBeforePost, RephModeImplicit, BlwfModePreAndPost, BasePosLast},
	MakeTag('O', 'r', 'y', 'a'): {MakeTag('O', 'r', 'y', 'a'), 0x0B4D, true, IPosAfterMain, RephModeImplicit, BlwfModePreAndPost, BasePosLast},
	MakeTag('T', 'a', 'm', 'l'): {MakeTag('T', 'a', 'm', 'l'), 0x0BCD, true, IPosAfterPost, RephModeImplicit, BlwfModePreAndPost, BasePosLast},
	MakeTag('T', 'e', 'l', 'u'): {MakeTag('T', 'e', 'l', 'u'), 0x0C4D, true, IPosAfterPost, RephModeExplicit, BlwfModePostOnly, BasePosLast},
	MakeTag('K', 'n', 'd', 'a'): {MakeTag('K', 'n', 'd', 'a'), 0x0CCD, true, IPosAfterPost, RephModeImplicit, BlwfModePostOnly, BasePosLast},
	MakeTag('M', 'l', 'y', 'm'): {MakeTag('M', 'l', 'y', 'm'), 0x0D4D, true, IPosAfterMain, RephModeLogRepha, BlwfModePreAndPost, BasePosLast},
	MakeTag('S', 'i', 'n', 'h'): {MakeTag('S', 'i', 'n', 'h'), 0x0DCA, false, IPosAfterPost, RephModeExplicit, BlwfModePreAndPost, BasePosLastSinhala},
}

// indicConfigFor returns script's configuration, or a generic fallback for
// any script this map doesn't name.
func indicConfigFor(script Tag) *IndicConfig {
	if config, ok := indicConfigs[script]; ok {
		return &config
	}
	return &IndicConfig{Script: script, RephPos: IPosBeforePost, BlwfMode: BlwfModePreAndPost, BasePos: BasePosLast}
}

// indicScriptBlocks pairs each of the ten Brahmic blocks this shaper serves
// with its OpenType script tag.
var indicScriptBlocks = []struct {
	first, last Codepoint
	tag         Tag
}{
	{0x0900, 0x097F, MakeTag('D', 'e', 'v', 'a')},
	{0x0980, 0x09FF, MakeTag('B', 'e', 'n', 'g')},
	{0x0A00, 0x0A7F, MakeTag('G', 'u', 'r', 'u')},
	{0x0A80, 0x0AFF, MakeTag('G', 'u', 'j', 'r')},
	{0x0B00, 0x0B7F, MakeTag('O', 'r', 'y', 'a')},
	{0x0B80, 0x0BFF, MakeTag('T', 'a', 'm', 'l')},
	{0x0C00, 0x0C7F, MakeTag('T', 'e', 'l', 'u')},
	{0x0C80, 0x0CFF, MakeTag('K', 'n', 'd', 'a')},
	{0x0D00, 0x0D7F, MakeTag('M', 'l', 'y', 'm')},
	{0x0D80, 0x0DFF, MakeTag('S', 'i', 'n', 'h')},
}

// indicScriptTagFor returns the OpenType script tag for cp, or 0 if cp
// falls outside all ten blocks.
func indicScriptTagFor(cp Codepoint) Tag {
	for _, b := range indicScriptBlocks {
		if cp >= b.first && cp <= b.last {
			return b.tag
		}
	}
	return 0
}

// detectIndicScript returns the script tag of the first Indic-block
// codepoint found in buf, or 0 if none is present.
func (s *Shaper) detectIndicScript(buf *Buffer) Tag {
	for _, info := range buf.Info {
		if tag := indicScriptTagFor(info.Codepoint); tag != 0 {
			return tag
		}
	}
	return 0
}

// raConsonant maps each script to the codepoint of its Ra consonant, which
// takes special treatment in reph formation.
var raConsonant = map[Tag]Codepoint{
	MakeTag('D', 'e', 'v', 'a'): 0x0930,
	MakeTag('B', 'e', 'n', 'g'): 0x09B0,
	MakeTag('G', 'u', 'r', 'u'): 0x0A30,
	MakeTag('G', 'u', 'j', 'r'): 0x0AB0,
	MakeTag('O', 'r', 'y', 'a'): 0x0B30,
	MakeTag('T', 'a', 'm', 'l'): 0x0BB0,
	MakeTag('T', 'e', 'l', 'u'): 0x0C30,
	MakeTag('K', 'n', 'd', 'a'): 0x0CB0,
	MakeTag('M', 'l', 'y', 'm'): 0x0D30,
	MakeTag('S', 'i', 'n', 'h'): 0x0DBB,
}

func isRaConsonant(cp Codepoint, script Tag) bool {
	ra, ok := raConsonant[script]
	return ok && cp == ra
}

// classifyIndicGlyphs derives each glyph's Indic category/position from its
// codepoint and stamps both into GlyphInfo (so they survive GSUB
// substitutions) and into the returned []IndicInfo (the syllable machine's
// working set).
// HarfBuzz equivalent: set_indic_properties() in hb-ot-shaper-indic.cc.
func (s *Shaper) classifyIndicGlyphs(buf *Buffer, config *IndicConfig) []IndicInfo {
	indicInfo := make([]IndicInfo, len(buf.Info))

	var viramaGlyph GlyphID
	if s.cmap != nil {
		viramaGlyph, _ = s.cmap.Lookup(config.Virama)
	}

	for i := range buf.Info {
		cp := buf.Info[i].Codepoint
		cat, pos := GetIndicCategories(cp)

		switch cp {
		case 0x0D4E: // Malayalam Dot Reph: a logical Repha
			cat, pos = ICatRepha, IPosRaToBeReph
		}

		if cat == ICatC && isRaConsonant(cp, config.Script) {
			cat = ICatRa
		}
		if cat == ICatC || cat == ICatRa {
			pos = s.consonantPositionFromFace(buf.Info[i].GlyphID, viramaGlyph, config)
		}

		indicInfo[i] = IndicInfo{Category: cat, Position: pos}
		buf.Info[i].IndicCategory = uint8(cat)
		buf.Info[i].IndicPosition = uint8(pos)
	}
	return indicInfo
}

// consonantPositionFromFace probes the font's blwf/vatu/pstf/pref lookups
// against [virama, consonant, virama] to guess where a half-form consonant
// visually belongs, before any syllable has been reordered.
// HarfBuzz equivalent: consonant_position_from_face() in hb-ot-shaper-indic.cc.
func (s *Shaper) consonantPositionFromFace(consonant, virama GlyphID, config *IndicConfig) IndicPosition {
	if s.gsub == nil || virama == 0 {
		return IPosBaseC
	}

	glyphs := []GlyphID{virama, consonant, virama}
	before, after := glyphs[0:2], glyphs[1:3]

	if s.gsub.WouldSubstituteFeature(tagBlwf, before, true) || s.gsub.WouldSubstituteFeature(tagBlwf, after, true) ||
		s.gsub.WouldSubstituteFeature(tagVatu, before, true) || s.gsub.WouldSubstituteFeature(tagVatu, after, true) {
		return IPosBelowC
	}
	if s.gsub.WouldSubstituteFeature(tagPstf, before, true) || s.gsub.WouldSubstituteFeature(tagPstf, after, true) {
		return IPosPostC
	}
	if s.gsub.WouldSubstituteFeature(tagPref, before, true) || s.gsub.WouldSubstituteFeature(tagPref, after, true) {
		return IPosPostC
	}
	return IPosBaseC
}

func isJoinerCategory(cat IndicCategory) bool {
	return cat == ICatZWJ || cat == ICatZWNJ
}

// eachSyllableRun walks [0, n) grouping consecutive indices that share the
// same syllable tag (as reported by syllableAt) and invokes fn once per
// run. Used for both the initial-reordering pass (reads []IndicInfo, which
// is still fresh) and the GSUB-application passes (reads buf.Info, since
// indicInfo goes stale once substitutions change the buffer).
func eachSyllableRun(n int, syllableAt func(i int) uint8, fn func(start, end int)) {
	start := 0
	for start < n {
		tag := syllableAt(start)
		end := start + 1
		for end < n && syllableAt(end) == tag {
			end++
		}
		fn(start, end)
		start = end
	}
}

// reorderInitial walks every syllable and applies the pre-GSUB reordering
// pass appropriate to its syllable type.
// HarfBuzz equivalent: initial_reordering_indic() in hb-ot-shaper-indic.cc.
func (s *Shaper) reorderInitial(buf *Buffer, indicInfo []IndicInfo, config *IndicConfig, plan *IndicPlan) {
	eachSyllableRun(len(buf.Info), func(i int) uint8 { return indicInfo[i].Syllable }, func(start, end int) {
		switch IndicSyllableType(indicInfo[start].Syllable & 0x0F) {
		case IndicConsonantSyllable, IndicStandaloneCluster:
			s.reorderInitialConsonantSyllable(buf, indicInfo, start, end, config, plan)
		case IndicVowelSyllable:
			reorderVowelSyllable(indicInfo, start, end)
		}
	})
}

// reorderVowelSyllable tags syllable-modifier and Vedic-accent glyphs with
// their fixed final position; there is no base consonant to reorder around.
func reorderVowelSyllable(indicInfo []IndicInfo, start, end int) {
	for i := start; i < end; i++ {
		switch indicInfo[i].Category {
		case ICatSM, ICatSMPst, ICatA:
			indicInfo[i].Position = IPosSMVD
		}
	}
}

// reorderInitialConsonantSyllable is the core per-syllable pass: find the
// base consonant, clamp pre-base consonant positions, mark reph and misc
// marks, stable-sort by position, apply old-spec halant relocation, merge
// clusters, and stamp feature masks by position.
// HarfBuzz equivalent: initial_reordering_consonant_syllable().
func (s *Shaper) reorderInitialConsonantSyllable(buf *Buffer, indicInfo []IndicInfo, start, end int, config *IndicConfig, plan *IndicPlan) {
	// Kannada compatibility: Ra+H+ZWJ -> Ra+ZWJ+H
	if config.Script == MakeTag('K', 'n', 'd', 'a') && start+3 <= end &&
		indicInfo[start].Category == ICatRa && indicInfo[start+1].Category == ICatH && indicInfo[start+2].Category == ICatZWJ {
		buf.MergeClusters(start+1, start+3)
		buf.Info[start+1], buf.Info[start+2] = buf.Info[start+2], buf.Info[start+1]
		indicInfo[start+1], indicInfo[start+2] = indicInfo[start+2], indicInfo[start+1]
	}

	base := s.findBaseConsonant(buf, indicInfo, start, end, config, plan)
	if base == start && indicInfo[start].Category == ICatRepha {
		for base = start + 1; base < end; base++ {
			if IsIndicConsonant(indicInfo[base].Category) {
				break
			}
		}
	}
	if base < end {
		indicInfo[base].Position = IPosBaseC
		buf.Info[base].IndicPosition = uint8(IPosBaseC)
	}

	clampPreBasePositions(indicInfo, start, base)
	markRephaCandidate(indicInfo, start, end, config)
	attachMiscMarks(indicInfo, start, end, base)

	// Pre-base matras are NOT physically moved here: the stable sort below
	// only orders them, since moving them now would break pref-blocking
	// detection in the final reordering pass.

	syllable := buf.Info[start].Syllable
	base = sortSyllableByPosition(buf, indicInfo, start, end)

	if plan.isOldSpec {
		relocateOldSpecHalant(buf, indicInfo, base, end, config.Script == MakeTag('K', 'n', 'd', 'a'))
	}
	mergeInitialReorderingClusters(buf, base, start, end, plan.isOldSpec)

	for i := start; i < end; i++ {
		buf.Info[i].Syllable = syllable
	}

	stampInitialFeatureMasks(buf, indicInfo, start, end, base, config, plan)

	for i := start; i < end; i++ {
		buf.Info[i].IndicCategory = uint8(indicInfo[i].Category)
		buf.Info[i].IndicPosition = uint8(indicInfo[i].Position)
	}
}

// clampPreBasePositions limits every consonant before base to at most
// IPosPreC, and tags any matra before base as a pre-base matra.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:626-627.
func clampPreBasePositions(indicInfo []IndicInfo, start, base int) {
	for i := start; i < base; i++ {
		switch cat := indicInfo[i].Category; {
		case IsIndicConsonant(cat):
			if indicInfo[i].Position > IPosPreC {
				indicInfo[i].Position = IPosPreC
			}
		case cat == ICatM:
			indicInfo[i].Position = IPosPreM
		}
	}
}

// attachMiscMarks gives joiners/nukta/RS/CM/halant the position of the
// previous significant character (so they travel together in the stable
// sort), then lets post-base consonants claim the marks between themselves.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:685-728.
func attachMiscMarks(indicInfo []IndicInfo, start, end, base int) {
	lastPos := IPosStart
	for i := start; i < end; i++ {
		cat, pos := indicInfo[i].Category, indicInfo[i].Position
		switch cat {
		case ICatZWJ, ICatZWNJ, ICatN, ICatRS, ICatCM, ICatH:
			indicInfo[i].Position = lastPos
			if cat == ICatH && indicInfo[i].Position == IPosPreM {
				// Uniscribe doesn't move the Halant along with a left matra.
				for j := i; j > start; j-- {
					if indicInfo[j-1].Position != IPosPreM {
						indicInfo[i].Position = indicInfo[j-1].Position
						break
					}
				}
			}
		default:
			if pos != IPosSMVD {
				if cat == ICatMPst && i > start && indicInfo[i-1].Category == ICatSM {
					indicInfo[i-1].Position = pos
				}
				lastPos = pos
			}
		}
	}

	last := base
	for i := base + 1; i < end; i++ {
		switch cat := indicInfo[i].Category; {
		case IsIndicConsonant(cat):
			for j := last + 1; j < i; j++ {
				if indicInfo[j].Position < IPosSMVD {
					indicInfo[j].Position = indicInfo[i].Position
				}
			}
			last = i
		case cat == ICatM || cat == ICatMPst:
			last = i
		}
	}
}

// sortSyllableByPosition stable-sorts one syllable's glyphs by Indic
// position (using original left-to-right order as the tie-break, matching
// HarfBuzz's syllable()-keyed stable sort), then flips any run of more than
// one pre-base (left) matra so they read in visual order. It returns the
// base consonant's index after sorting, or end if none was tagged.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:731-771.
func sortSyllableByPosition(buf *Buffer, indicInfo []IndicInfo, start, end int) int {
	if end-start <= 1 {
		for i := start; i < end; i++ {
			buf.Info[i].Syllable = uint8(i - start)
			if indicInfo[i].Position == IPosBaseC {
				return i
			}
		}
		return end
	}

	n := end - start
	for i := start; i < end; i++ {
		buf.Info[i].Syllable = uint8(i - start)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return indicInfo[start+order[i]].Position < indicInfo[start+order[j]].Position
	})

	permInfo := make([]GlyphInfo, n)
	permIndic := make([]IndicInfo, n)
	for i := 0; i < n; i++ {
		permInfo[i] = buf.Info[start+i]
		permIndic[i] = indicInfo[start+i]
	}
	for i := 0; i < n; i++ {
		buf.Info[start+i] = permInfo[order[i]]
		indicInfo[start+i] = permIndic[order[i]]
	}
	if len(buf.Pos) >= end {
		permPos := make([]GlyphPos, n)
		for i := 0; i < n; i++ {
			permPos[i] = buf.Pos[start+i]
		}
		for i := 0; i < n; i++ {
			buf.Pos[start+i] = permPos[order[i]]
		}
	}

	base := end
	for i := start; i < end; i++ {
		if indicInfo[i].Position == IPosBaseC {
			base = i
			break
		}
	}

	flipLeftMatraRun(buf, indicInfo, start, end)
	return base
}

// flipLeftMatraRun reverses a syllable's pre-base-matra span if it holds
// more than one matra, then re-reverses any Nukta/post-matra glyphs within
// it so they stay attached to the matra they modify.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:758-771, see also
// https://github.com/harfbuzz/harfbuzz/issues/3863.
func flipLeftMatraRun(buf *Buffer, indicInfo []IndicInfo, start, end int) {
	first, last := end, end
	for i := start; i < end; i++ {
		if indicInfo[i].Position == IPosPreM {
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
	for i, j := first, last; i < j; i, j = i+1, j-1 {
		indicInfo[i], indicInfo[j] = indicInfo[j], indicInfo[i]
	}

	i := first
	for j := i; j <= last; j++ {
		if cat := indicInfo[j].Category; cat == ICatM || cat == ICatMPst {
			if j > i {
				buf.ReverseRange(i, j+1)
				for ii, jj := i, j; ii < jj; ii, jj = ii+1, jj-1 {
					indicInfo[ii], indicInfo[jj] = indicInfo[jj], indicInfo[ii]
				}
			}
			i = j + 1
		}
	}
}

// relocateOldSpecHalant moves the first Halant after base to just after
// the last consonant in the syllable (or, for Kannada, the last
// consonant-or-halant), shifting the glyphs in between one slot left;
// old-spec fonts need the halant adjacent to its
// ligating partner for cjct to fire.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:664-683.
func relocateOldSpecHalant(buf *Buffer, indicInfo []IndicInfo, base, end int, disallowDoubleHalants bool) {
	for i := base + 1; i < end; i++ {
		if indicInfo[i].Category != ICatH {
			continue
		}
		j := end - 1
		for j > i {
			if IsIndicConsonant(indicInfo[j].Category) || (disallowDoubleHalants && indicInfo[j].Category == ICatH) {
				break
			}
			j--
		}
		if indicInfo[j].Category != ICatH && j > i {
			tmpInfo, tmpIndic := buf.Info[i], indicInfo[i]
			copy(buf.Info[i:j], buf.Info[i+1:j+1])
			copy(indicInfo[i:j], indicInfo[i+1:j+1])
			buf.Info[j], indicInfo[j] = tmpInfo, tmpIndic
		}
		break
	}
}

// mergeInitialReorderingClusters merges glyph clusters after initial
// reordering. Old-spec fonts (and pathologically long syllables) simply
// merge the whole base..end span; new-spec fonts instead replay each
// glyph's pre-sort position (stashed in Info.Syllable) to merge only the
// spans that actually moved.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:805-826.
func mergeInitialReorderingClusters(buf *Buffer, base, start, end int, isOldSpec bool) {
	if isOldSpec || (end-start) > 127 {
		if base < end {
			buf.MergeClusters(base, end)
		}
		return
	}

	for i := base; i < end; i++ {
		if buf.Info[i].Syllable == 255 {
			continue
		}
		minPos, maxPos := i, i
		j := start + int(buf.Info[i].Syllable)
		for j != i {
			if j < minPos {
				minPos = j
			}
			if j > maxPos {
				maxPos = j
			}
			next := start + int(buf.Info[j].Syllable)
			buf.Info[j].Syllable = 255
			j = next
		}
		mergeStart := base
		if minPos > base {
			mergeStart = minPos
		}
		buf.MergeClusters(mergeStart, maxPos+1)
	}
}

// stampInitialFeatureMasks sets the rphf/half/blwf/abvf/pstf/pref masks
// every glyph in the syllable needs based on its position relative to base,
// now that the syllable has settled into its reordered shape.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:838-908.
func stampInitialFeatureMasks(buf *Buffer, indicInfo []IndicInfo, start, end, base int, config *IndicConfig, plan *IndicPlan) {
	for i := start; i < end && indicInfo[i].Position == IPosRaToBeReph; i++ {
		buf.Info[i].Mask |= plan.maskArray[slotRphf]
	}

	preBaseMask := plan.maskArray[slotHalf]
	if !plan.isOldSpec && config.BlwfMode == BlwfModePreAndPost {
		preBaseMask |= plan.maskArray[slotBlwf]
	}
	for i := start; i < base; i++ {
		buf.Info[i].Mask |= preBaseMask
	}

	postBaseMask := plan.maskArray[slotBlwf] | plan.maskArray[slotAbvf] | plan.maskArray[slotPstf]
	for i := base + 1; i < end; i++ {
		buf.Info[i].Mask |= postBaseMask
	}

	// A syllable-initial Ra+Halant with more than one consonant is treated
	// as a below-base consonant, unless ZWJ follows (requesting an explicit
	// half form instead).
	if !plan.isOldSpec && config.BlwfMode == BlwfModePreAndPost {
		for i := start; i+1 < base; i++ {
			if indicInfo[i].Category == ICatRa && indicInfo[i+1].Category == ICatH &&
				(i+2 == base || indicInfo[i+2].Category != ICatZWJ) {
				buf.Info[i].Mask |= plan.maskArray[slotBlwf]
				buf.Info[i+1].Mask |= plan.maskArray[slotBlwf]
			}
		}
	}

	// Mark a post-base Halant,Ra sequence as a pref candidate.
	const prefLen = 2
	if plan.maskArray[slotPref] != 0 && base+prefLen < end {
		for i := base + 1; i+prefLen-1 < end; i++ {
			glyphs := []GlyphID{buf.Info[i].GlyphID, buf.Info[i+1].GlyphID}
			if plan.pref.test(glyphs) {
				for j := 0; j < prefLen; j++ {
					buf.Info[i+j].Mask |= plan.maskArray[slotPref]
				}
				break
			}
		}
	}
}

// findBaseConsonant locates the base consonant of one syllable: the last
// consonant lacking a below-/post-base form, skipping past any reph
// candidate at the start.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:480-589.
func (s *Shaper) findBaseConsonant(buf *Buffer, indicInfo []IndicInfo, start, end int, config *IndicConfig, plan *IndicPlan) int {
	if config.BasePos == BasePosFirst {
		for i := start; i < end; i++ {
			if IsIndicConsonant(indicInfo[i].Category) && indicInfo[i].Category != ICatRepha {
				return i
			}
		}
		return end
	}

	limit, hasReph := start, false
	switch {
	case config.RephMode == RephModeLogRepha && indicInfo[start].Category == ICatRepha:
		limit = start + 1
		for limit < end && isJoinerCategory(indicInfo[limit].Category) {
			limit++
		}
		hasReph = true
	case plan.maskArray[slotRphf] != 0 && start+2 < end &&
		indicInfo[start].Category == ICatRa && indicInfo[start+1].Category == ICatH &&
		((config.RephMode == RephModeImplicit && !isJoinerCategory(indicInfo[start+2].Category)) ||
			(config.RephMode == RephModeExplicit && indicInfo[start+2].Category == ICatZWJ)):
		glyphs := []GlyphID{buf.Info[start].GlyphID, buf.Info[start+1].GlyphID}
		explicitMatch := config.RephMode == RephModeExplicit &&
			plan.rphf.test([]GlyphID{buf.Info[start].GlyphID, buf.Info[start+1].GlyphID, buf.Info[start+2].GlyphID})
		if plan.rphf.test(glyphs) || explicitMatch {
			limit = start + 2
			if config.RephMode == RephModeExplicit {
				limit = start + 3
			}
			for limit < end && isJoinerCategory(indicInfo[limit].Category) {
				limit++
			}
			hasReph = true
		}
	}

	base, seenBelow := end, false
	for i := end - 1; i >= limit; i-- {
		cat := indicInfo[i].Category
		if IsIndicConsonant(cat) {
			pos := indicInfo[i].Position
			if pos != IPosBelowC && (pos != IPosPostC || seenBelow) {
				base = i
				break
			}
			if pos == IPosBelowC {
				seenBelow = true
			}
			base = i
		} else if i > start && cat == ICatZWJ && indicInfo[i-1].Category == ICatH {
			// A ZWJ after a Halant stops the search and requests an
			// explicit half form.
			break
		}
	}

	if hasReph && base == end {
		for i := start; i < end; i++ {
			if IsIndicConsonant(indicInfo[i].Category) {
				return i
			}
		}
	}
	if base == end {
		for i := start; i < end; i++ {
			if IsIndicConsonant(indicInfo[i].Category) && indicInfo[i].Category != ICatRepha {
				return i
			}
		}
	}
	return base
}

// markRephaCandidate tags a syllable-start Ra+Halant (or, for Malayalam's
// logical-repha scripts, an encoded Repha glyph) with IPosRaToBeReph so it
// gets the rphf mask and later reph-relocation handling.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:632-634, 524-530.
func markRephaCandidate(indicInfo []IndicInfo, start, end int, config *IndicConfig) {
	if start >= end {
		return
	}
	if config.RephMode == RephModeLogRepha {
		if indicInfo[start].Category == ICatRepha {
			indicInfo[start].Position = IPosRaToBeReph
		}
		return
	}
	if indicInfo[start].Category != ICatRa || start+1 >= end || indicInfo[start+1].Category != ICatH {
		return
	}
	switch config.RephMode {
	case RephModeExplicit:
		if start+2 >= end || indicInfo[start+2].Category != ICatZWJ {
			return
		}
	case RephModeImplicit:
		if start+2 < end && isJoinerCategory(indicInfo[start+2].Category) {
			return
		}
	}
	indicInfo[start].Position = IPosRaToBeReph
}

// reorderFinal re-walks every consonant/standalone syllable after GSUB has
// run, undoing rphf/pref candidates that didn't actually form and moving
// reph and pre-base matras to their true final positions.
// HarfBuzz equivalent: final_reordering_indic() in hb-ot-shaper-indic.cc.
func (s *Shaper) reorderFinal(buf *Buffer, indicInfo []IndicInfo, config *IndicConfig, plan *IndicPlan) {
	eachSyllableRun(len(buf.Info), func(i int) uint8 { return buf.Info[i].Syllable }, func(start, end int) {
		switch IndicSyllableType(buf.Info[start].Syllable & 0x0F) {
		case IndicConsonantSyllable, IndicStandaloneCluster:
			s.reorderFinalSyllable(buf, indicInfo, start, end, config, plan)
		}
	})
}

// reorderFinalSyllable is the post-GSUB counterpart of
// reorderInitialConsonantSyllable: it recovers the base consonant (now
// possibly ligated), relocates pre-base matras and reph, and reorders any
// pref consonant that actually ligated.
// HarfBuzz equivalent: final_reordering_syllable_indic() in
// hb-ot-shaper-indic.cc:994-1435.
func (s *Shaper) reorderFinalSyllable(buf *Buffer, indicInfo []IndicInfo, start, end int, config *IndicConfig, plan *IndicPlan) {
	recoverLigatedVirama(buf, start, end, plan.viramaGID)

	tryPref := plan.maskArray[slotPref] != 0
	base := findFinalBase(buf, start, end, plan, &tryPref)

	if base == end && start < base {
		if buf.Info[base-1].GlyphProps&GlyphPropsZWJ != 0 {
			base--
		}
	}
	if base < end {
		for start < base {
			cat := IndicCategory(buf.Info[base].IndicCategory)
			if cat != ICatN && !isUnligatedHalant(buf, base) {
				break
			}
			base--
		}
	}

	relocatePreBaseMatras(buf, start, end, base)
	base = relocateRepha(buf, indicInfo, start, end, base, config)
	relocatePrefConsonant(buf, start, end, base, plan, tryPref)

	mergeJoinerClusters(buf, start, end)
}

// recoverLigatedVirama restores the Halant category on a virama glyph that
// ligated and then was multiplied back out (e.g. a conjunct that GSUB
// decomposed again), so isUnligatedHalant recognizes it downstream.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:1002-1021.
func recoverLigatedVirama(buf *Buffer, start, end int, viramaGlyph GlyphID) {
	if viramaGlyph == 0 {
		return
	}
	for i := start; i < end; i++ {
		if buf.Info[i].GlyphID == viramaGlyph && buf.Info[i].IsLigated() && buf.Info[i].IsMultiplied() {
			buf.Info[i].IndicCategory = uint8(ICatH)
			buf.Info[i].GlyphProps &^= GlyphPropsLigated | GlyphPropsMultiplied
		}
	}
}

// ligatedAndDidntMultiply reports whether glyph i resulted from a
// ligature that did not subsequently get split back into multiple glyphs —
// HarfBuzz's test for "this pref/rephf candidate really did form".
func ligatedAndDidntMultiply(buf *Buffer, i int) bool {
	return buf.Info[i].GlyphProps&GlyphPropsLigated != 0 && buf.Info[i].GlyphProps&GlyphPropsMultiplied == 0
}

// findFinalBase finds the base consonant post-GSUB: the first glyph at or
// above IPosBaseC, adjusted for pref-blocking (a pref candidate that didn't
// actually ligature pushes the base forward) and, for Malayalam, for
// below-form consonants that never got their below form applied.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:1032-1085.
func findFinalBase(buf *Buffer, start, end int, plan *IndicPlan, tryPref *bool) int {
	for i := start; i < end; i++ {
		if buf.Info[i].IndicPosition < uint8(IPosBaseC) {
			continue
		}
		base := i

		if *tryPref && base+1 < end {
			for j := base + 1; j < end; j++ {
				if buf.Info[j].Mask&plan.maskArray[slotPref] == 0 {
					continue
				}
				substituted := buf.Info[j].GlyphProps&GlyphPropsSubstituted != 0
				if !(substituted && ligatedAndDidntMultiply(buf, j)) {
					base = j
					for base < end && isUnligatedHalant(buf, base) {
						base++
					}
					if base < end {
						buf.Info[base].IndicPosition = uint8(IPosBaseC)
					}
					*tryPref = false
				}
				break
			}
			if base == end {
				return base
			}
		}

		if buf.Script == scriptMalayalam {
			for i := base + 1; i < end; {
				for i < end && isJoinerCategory(IndicCategory(buf.Info[i].IndicCategory)) {
					i++
				}
				if i == end || !isUnligatedHalant(buf, i) {
					break
				}
				i++
				for i < end && isJoinerCategory(IndicCategory(buf.Info[i].IndicCategory)) {
					i++
				}
				if i < end && IsIndicConsonant(IndicCategory(buf.Info[i].IndicCategory)) &&
					buf.Info[i].IndicPosition == uint8(IPosBelowC) {
					base = i
					buf.Info[base].IndicPosition = uint8(IPosBaseC)
				}
			}
		}

		if start < base && buf.Info[base].IndicPosition > uint8(IPosBaseC) {
			base--
		}
		return base
	}
	return end
}

// relocatePrefConsonant moves a pref-masked consonant that actually
// ligated to just after the base (before any trailing half-form halant or
// matra run it should attach to).
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:1359-1422.
func relocatePrefConsonant(buf *Buffer, start, end, base int, plan *IndicPlan, tryPref bool) {
	if !tryPref || base+1 >= end {
		return
	}
	for i := base + 1; i < end; i++ {
		if buf.Info[i].Mask&plan.maskArray[slotPref] == 0 {
			continue
		}
		if ligatedAndDidntMultiply(buf, i) {
			newPos := base
			if buf.Script != scriptMalayalam && buf.Script != scriptTamil {
				for newPos > start {
					prevCat := IndicCategory(buf.Info[newPos-1].IndicCategory)
					if prevCat != ICatM && prevCat != ICatMPst && !isUnligatedHalant(buf, newPos-1) {
						break
					}
					newPos--
				}
			}
			if newPos > start && isUnligatedHalant(buf, newPos-1) &&
				newPos < end && isJoinerCategory(IndicCategory(buf.Info[newPos].IndicCategory)) {
				newPos++
			}
			if newPos < i {
				spliceGlyphBackward(buf, newPos, i)
			}
		}
		break
	}
}

func hasZWJFlag(buf *Buffer, start, end int) bool {
	for i := start; i < end; i++ {
		if buf.Info[i].GlyphProps&GlyphPropsZWJ != 0 {
			return true
		}
	}
	return false
}

// mergeJoinerClusters merges a syllable's clusters according to its ZWJ/
// ZWNJ content: no joiners means no automatic merge; a ZWJ with no ZWNJ
// merges the whole syllable; mixed joiners split the syllable into
// ZWJ-terminated segments (each merged) and ZWNJ-terminated segments (left
// alone), since ZWNJ explicitly requests a cluster boundary.
// HarfBuzz equivalent: cluster-merging logic in hb-ot-shaper-indic.cc.
// Flags are read from GlyphProps (not Codepoint, which substitution may
// have already changed) so this still works post-GSUB.
func mergeJoinerClusters(buf *Buffer, start, end int) {
	hasZWNJ := false
	for i := start; i < end; i++ {
		if buf.Info[i].GlyphProps&GlyphPropsZWNJ != 0 {
			hasZWNJ = true
			break
		}
	}
	if !hasZWNJ {
		if hasZWJFlag(buf, start, end) {
			buf.MergeClusters(start, end)
		}
		return
	}

	segStart := start
	lastWasZWJ := false
	for i := start; i < end; i++ {
		switch {
		case buf.Info[i].GlyphProps&GlyphPropsZWJ != 0:
			buf.MergeClusters(segStart, i+1)
			segStart = i + 1
			lastWasZWJ = true
		case buf.Info[i].GlyphProps&GlyphPropsZWNJ != 0:
			segStart = i + 1
			lastWasZWJ = false
		}
	}
	if lastWasZWJ && segStart < end {
		buf.MergeClusters(segStart-1, end)
	}
}

// spliceGlyphBackward moves the glyph at src to dst (dst < src), shifting
// the glyphs in between forward by one. Used by both reph and pref
// relocation once the decision of *where* to move to has been made.
func spliceGlyphBackward(buf *Buffer, dst, src int) {
	buf.MergeClusters(dst, src+1)
	tmpInfo, tmpPos := buf.Info[src], buf.Pos[src]
	copy(buf.Info[dst+1:src+1], buf.Info[dst:src])
	copy(buf.Pos[dst+1:src+1], buf.Pos[dst:src])
	buf.Info[dst], buf.Pos[dst] = tmpInfo, tmpPos
}

// relocatePreBaseMatras hunts backward from just before base for a run of
// pre-base matras and shifts each one forward to sit immediately before
// base (after skipping past any half-form halant/matra run base already
// owns). This is deliberately O(n^2); syllables rarely carry more than one
// or two matras.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:1123-1202.
func relocatePreBaseMatras(buf *Buffer, start, end, base int) {
	if !(start+1 < end && start < base) {
		return
	}

	newPos := base - 1
	if base == end {
		newPos = base - 2
	}

	if buf.Script != scriptMalayalam && buf.Script != scriptTamil {
		for newPos > start {
			cat := IndicCategory(buf.Info[newPos].IndicCategory)
			if cat != ICatM && cat != ICatMPst && !isUnligatedHalant(buf, newPos) {
				break
			}
			newPos--
		}
		if isUnligatedHalant(buf, newPos) && buf.Info[newPos].IndicPosition != uint8(IPosPreM) {
			if newPos+1 < end && IndicCategory(buf.Info[newPos+1].IndicCategory) == ICatZWJ && newPos > start {
				newPos--
				for newPos > start {
					cat := IndicCategory(buf.Info[newPos].IndicCategory)
					if cat != ICatM && cat != ICatMPst && !isUnligatedHalant(buf, newPos) {
						break
					}
					newPos--
				}
			}
			// A ZWNJ here is already a syllable boundary (enforced by the
			// syllable machine), so any matra after it belongs to the next
			// syllable and needs no special handling.
		} else if !isUnligatedHalant(buf, newPos) {
			newPos = start
		}
	}

	if start < newPos && buf.Info[newPos].IndicPosition != uint8(IPosPreM) {
		for i := newPos; i > start; i-- {
			if buf.Info[i-1].IndicPosition != uint8(IPosPreM) {
				continue
			}
			oldPos := i - 1
			if oldPos < base && base <= newPos {
				base--
			}
			tmpInfo, tmpPos := buf.Info[oldPos], buf.Pos[oldPos]
			copy(buf.Info[oldPos:newPos], buf.Info[oldPos+1:newPos+1])
			copy(buf.Pos[oldPos:newPos], buf.Pos[oldPos+1:newPos+1])
			buf.Info[newPos], buf.Pos[newPos] = tmpInfo, tmpPos

			// Merging here, after the move, is deliberate: Indic matra
			// reordering interacts with clustering in a way that would
			// break if the merge preceded the shift.
			buf.MergeClusters(newPos, min(end, base+1))
			newPos--
		}
		return
	}

	for i := start; i < base; i++ {
		if buf.Info[i].IndicPosition == uint8(IPosPreM) {
			buf.MergeClusters(i, min(end, base+1))
			break
		}
	}
}

// relocateRepha moves a syllable-initial Ra tagged IPosRaToBeReph to its
// script-configured final position (after the first explicit halant, after
// the main consonant, after the last sub-joined consonant, or — failing
// all of those — to the end of the syllable). Returns the possibly-shifted
// base index.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:1223-1373.
func relocateRepha(buf *Buffer, indicInfo []IndicInfo, start, end, base int, config *IndicConfig) int {
	info := buf.Info
	if start+1 >= end || IndicPosition(info[start].IndicPosition) != IPosRaToBeReph {
		return base
	}
	isRepha := IndicCategory(info[start].IndicCategory) == ICatRepha
	if isRepha == ligatedAndDidntMultiply(buf, start) {
		// XOR: reph only actually formed if exactly one of these holds.
		return base
	}

	newPos, found := findRephTarget(buf, indicInfo, start, end, base, config)
	if !found {
		return base
	}

	buf.MergeClusters(start, newPos+1)
	reph, rephInd, rephPos := info[start], indicInfo[start], buf.Pos[start]
	copy(info[start:newPos], info[start+1:newPos+1])
	copy(indicInfo[start:newPos], indicInfo[start+1:newPos+1])
	copy(buf.Pos[start:newPos], buf.Pos[start+1:newPos+1])
	info[newPos], indicInfo[newPos], buf.Pos[newPos] = reph, rephInd, rephPos

	if start < base && base <= newPos {
		base--
	}
	return base
}

// findRephTarget implements the six-step search HarfBuzz's reph relocation
// runs through in order, stopping at the first step that finds a home for
// the reph glyph.
func findRephTarget(buf *Buffer, indicInfo []IndicInfo, start, end, base int, config *IndicConfig) (int, bool) {
	info := buf.Info

	firstExplicitHalant := func(limit int) (int, bool) {
		pos := start + 1
		for pos < limit && !isUnligatedHalant(buf, pos) {
			pos++
		}
		if pos < limit && isUnligatedHalant(buf, pos) {
			if pos+1 < limit && isJoinerCategory(IndicCategory(info[pos+1].IndicCategory)) {
				pos++
			}
			return pos, true
		}
		return 0, false
	}

	if config.RephPos != IPosAfterPost {
		if pos, ok := firstExplicitHalant(base); ok {
			return pos, true
		}
		if config.RephPos == IPosAfterMain {
			pos := base
			for pos+1 < end && IndicPosition(info[pos+1].IndicPosition) <= IPosAfterMain {
				pos++
			}
			if pos < end {
				return pos, true
			}
		}
		if config.RephPos == IPosAfterSub {
			pos := base
			for pos+1 < end {
				p := IndicPosition(info[pos+1].IndicPosition)
				if p == IPosPostC || p == IPosAfterPost || p == IPosSMVD {
					break
				}
				pos++
			}
			if pos < end {
				return pos, true
			}
		}
	}

	if pos, ok := firstExplicitHalant(base); ok {
		return pos, true
	}

	newPos := end - 1
	for newPos > start && IndicPosition(info[newPos].IndicPosition) == IPosSMVD {
		newPos--
	}
	if isUnligatedHalant(buf, newPos) {
		for i := base + 1; i < newPos; i++ {
			if cat := indicInfo[i].Category; cat == ICatM || cat == ICatMPst {
				newPos--
			}
		}
	}
	return newPos, true
}

// GetIndicCategory returns just the category half of GetIndicCategories,
// for the one caller (applyJoinerMaskEffects) that doesn't need position.
func GetIndicCategory(cp Codepoint) IndicCategory {
	cat, _ := GetIndicCategories(cp)
	return cat
}

// shapeIndic runs the full Indic pipeline: vowel-constraint preprocessing,
// normalization, glyph mapping, classification, syllable detection, broken-
// cluster dotted circles, initial reordering, basic GSUB features, final
// reordering, other GSUB features, and GPOS.
// HarfBuzz equivalent: _hb_ot_shaper_indic in hb-ot-shaper-indic.cc.
func (s *Shaper) shapeIndic(buf *Buffer, features []Feature) {
	if buf.Direction == 0 {
		buf.Direction = DirectionLTR
	}

	// Runs before normalization, like HarfBuzz's preprocess_text hook.
	PreprocessVowelConstraints(buf)

	script := s.detectIndicScript(buf)
	config := indicConfigFor(script)
	plan := s.indicPlanFor(script, config)

	s.normalizeBuffer(buf, NormalizationModeComposedDiacritics)
	buf.ResetMasks(MaskGlobal)
	s.mapCodepointsToGlyphs(buf)

	indicInfo := s.classifyIndicGlyphs(buf, config)
	hasBroken := FindSyllablesIndic(indicInfo)
	if hasBroken {
		s.insertSyllabicDottedCircles(buf, &indicAccessor{info: indicInfo},
			uint8(IndicBrokenCluster), uint8(ICatDOTTEDCIRCLE), int(ICatRepha))
		// Buffer length changed; reclassify and re-segment from scratch.
		indicInfo = s.classifyIndicGlyphs(buf, config)
		FindSyllablesIndic(indicInfo)
	}

	for i := range buf.Info {
		buf.Info[i].Syllable = indicInfo[i].Syllable
	}

	initFeatureMasks(buf, plan)
	s.reorderInitial(buf, indicInfo, config, plan)
	s.applyBasicFeatures(buf, plan)

	// GSUB may have changed the glyph count (e.g. rphf's Ra+Halant ->
	// rephdeva ligature), so indicInfo must be rebuilt from buf.Info before
	// final reordering runs.
	indicInfo = make([]IndicInfo, len(buf.Info))
	for i, info := range buf.Info {
		indicInfo[i] = IndicInfo{Category: IndicCategory(info.IndicCategory), Position: IndicPosition(info.IndicPosition), Syllable: info.Syllable}
	}
	s.reorderFinal(buf, indicInfo, config, plan)

	// 'init' only ever applies to the buffer-initial glyph, so it's set
	// after reordering rather than folded into stampInitialFeatureMasks.
	if len(buf.Info) > 0 {
		buf.Info[0].Mask |= plan.maskArray[slotInit]
	}

	// User-requested features (ss03, salt, ...) are applied before the
	// "other" standard features: lookups are applied in index order, and
	// user features often sort lower than psts/haln/etc.
	userGSUB, _ := s.categorizeFeatures(features)
	s.applyUserFeatures(buf, userGSUB)
	s.applyOtherFeatures(buf, plan)

	if len(buf.Pos) != len(buf.Info) {
		buf.Pos = make([]GlyphPos, len(buf.Info))
	}
	s.setBaseAdvances(buf)
	s.applyGPOS(buf, s.indicGPOSFeatures(features))
	// Indic has no zero-width-marks pass: dist/abvm/blwm position marks
	// directly, unlike the generic zeroMarkWidthsByGDEF path.
}

// indicGPOSFeatures returns the GPOS feature list for Indic shaping:
// dist/abvm/blwm are Indic-specific and always required; kern/mark/mkmk
// are the usual standard set; anything else the caller asked for is
// appended if not already present.
func (s *Shaper) indicGPOSFeatures(features []Feature) []Feature {
	result := []Feature{
		{Tag: tagDist, Value: 1},
		{Tag: tagAbvm, Value: 1},
		{Tag: tagBlwm, Value: 1},
		{Tag: MakeTag('k', 'e', 'r', 'n'), Value: 1},
		{Tag: MakeTag('m', 'a', 'r', 'k'), Value: 1},
		{Tag: MakeTag('m', 'k', 'm', 'k'), Value: 1},
	}

	_, userGPOS := s.categorizeFeatures(features)
nextUser:
	for _, f := range userGPOS {
		for _, existing := range result {
			if existing.Tag == f.Tag {
				continue nextUser
			}
		}
		result = append(result, f)
	}
	return result
}

// initFeatureMasks resets every glyph's mask to the global default plus
// the (global, so zero-valued unless unusual) cjct mask, then applies
// ZWJ/ZWNJ's effect on the half/cjct masks of the glyphs before them.
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:843-848, 910-928.
func initFeatureMasks(buf *Buffer, plan *IndicPlan) {
	for i := range buf.Info {
		buf.Info[i].Mask = MaskGlobal | plan.maskArray[slotCjct]
	}
	applyJoinerMaskEffects(buf, plan)
}

// applyJoinerMaskEffects walks backward from every ZWJ/ZWNJ to the
// preceding consonant, clearing the cjct mask along the way (joiners
// always suppress conjunct formation) and clearing the half mask too when
// the joiner is a ZWNJ specifically (which requests an explicit virama
// form; ZWJ instead requests an explicit half form and leaves half alone).
// HarfBuzz equivalent: hb-ot-shaper-indic.cc:910-928.
func applyJoinerMaskEffects(buf *Buffer, plan *IndicPlan) {
	for i := 1; i < len(buf.Info); i++ {
		cp := buf.Info[i].Codepoint
		isZWNJ, isZWJ := cp == 0x200C, cp == 0x200D
		if !isZWNJ && !isZWJ {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if isZWNJ {
				buf.Info[j].Mask &^= plan.maskArray[slotHalf]
			}
			buf.Info[j].Mask &^= plan.maskArray[slotCjct]

			if cat := GetIndicCategory(buf.Info[j].Codepoint); cat == ICatC || cat == ICatRa {
				break
			}
		}
	}
}

// indicBasicSlots lists, in application order, every slot applied as a
// basic (per-syllable, manual-joiner) feature before final reordering.
var indicBasicSlots = []indicFeatureSlot{
	slotNukt, slotAkhn, slotRphf, slotRkrf, slotPref,
	slotBlwf, slotAbvf, slotHalf, slotPstf, slotVatu, slotCjct,
}

// applyBasicFeatures applies each basic Indic GSUB feature across the
// buffer respecting syllable boundaries, in indicBasicSlots order.
// HarfBuzz equivalent: basic_features[] in hb-ot-shaper-indic.cc.
func (s *Shaper) applyBasicFeatures(buf *Buffer, plan *IndicPlan) {
	if s.gsub == nil {
		return
	}
	for _, slot := range indicBasicSlots {
		spec := indicFeatureTable[slot]
		autoZWNJ := spec.flags&flagManualZWNJ == 0
		autoZWJ := spec.flags&flagManualZWJ == 0
		s.applyPerSyllable(buf, spec.tag, plan.maskArray[slot], autoZWNJ, autoZWJ)
	}
}

// indicOtherFeatures lists, in order, the per-syllable "other" features
// applied with F_MANUAL_JOINERS after final reordering (init is handled
// separately since it only ever targets the buffer-initial glyph).
var indicOtherFeatures = []Tag{tagPres, tagAbvs, tagBlws, tagPsts, tagHaln}

// indicCommonFeatures lists the two standard horizontal features Indic
// applies per-syllable with default (auto) joiner handling.
var indicCommonFeatures = []Tag{TagCalt, tagClig}

// applyOtherFeatures applies 'init' (buffer-initial glyph only), the other
// per-syllable Indic features, and the common calt/clig pair.
// HarfBuzz equivalent: other_features[] in hb-ot-shaper-indic.cc.
func (s *Shaper) applyOtherFeatures(buf *Buffer, plan *IndicPlan) {
	if s.gsub == nil {
		return
	}
	s.applyPerSyllable(buf, MakeTag('i', 'n', 'i', 't'), plan.maskArray[slotInit], false, false)
	for _, tag := range indicOtherFeatures {
		s.applyPerSyllable(buf, tag, MaskGlobal, false, false)
	}
	for _, tag := range indicCommonFeatures {
		s.applyPerSyllable(buf, tag, MaskGlobal, true, true)
	}
}

// applyPerSyllable applies one GSUB feature one syllable at a time, so
// context-based lookups (ligatures, conjuncts) never match across a
// syllable boundary.
// HarfBuzz equivalent: F_PER_SYLLABLE in hb-ot-map.hh; auto_zwnj/auto_zwj
// come from !F_MANUAL_ZWNJ / !F_MANUAL_ZWJ (hb-ot-map.cc:308-309).
func (s *Shaper) applyPerSyllable(buf *Buffer, tag Tag, featureMask uint32, autoZWNJ, autoZWJ bool) {
	if s.gsub == nil || len(buf.Info) == 0 {
		return
	}
	start := 0
	for start < len(buf.Info) {
		syllable := buf.Info[start].Syllable
		end := start + 1
		for end < len(buf.Info) && buf.Info[end].Syllable == syllable {
			end++
		}
		s.gsub.ApplyFeatureToBufferRangeWithOpts(tag, buf, s.gdef, featureMask, s.font, start, end, autoZWNJ, autoZWJ)

		next := start
		for next < len(buf.Info) && buf.Info[next].Syllable == syllable {
			next++
		}
		start = next
	}
}

// standardIndicGSUBFeatures is the set of tags already applied by
// applyBasicFeatures/applyOtherFeatures (or common to every shaper's
// GSUB pass), so applyUserFeatures can skip re-applying them.
var standardIndicGSUBFeatures = map[Tag]bool{
	tagNukt: true, tagAkhn: true, tagRphf: true, tagRkrf: true, tagPref: true,
	tagBlwf: true, tagAbvf: true, tagHalf: true, tagPstf: true, tagVatu: true,
	tagCjct: true, MakeTag('c', 'f', 'a', 'r'): true,
	MakeTag('i', 'n', 'i', 't'): true, tagPres: true, tagAbvs: true, tagBlws: true,
	tagPsts: true, tagHaln: true, TagCalt: true, tagClig: true,
	MakeTag('l', 'o', 'c', 'l'): true, MakeTag('c', 'c', 'm', 'p'): true,
	MakeTag('r', 'l', 'i', 'g'): true, MakeTag('l', 'i', 'g', 'a'): true,
}

// applyUserFeatures applies any user-requested GSUB feature not already
// covered by the standard Indic feature passes.
// HarfBuzz equivalent: user features ride the same map, applied after the
// standard ones.
func (s *Shaper) applyUserFeatures(buf *Buffer, userFeatures []Feature) {
	if s.gsub == nil || len(userFeatures) == 0 {
		return
	}
	for _, f := range userFeatures {
		if f.Value == 0 || standardIndicGSUBFeatures[f.Tag] {
			continue
		}
		s.gsub.ApplyFeatureToBufferWithMask(f.Tag, buf, s.gdef, MaskGlobal, s.font)
	}
}
