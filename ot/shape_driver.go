package ot

// Shape driver
//
// HarfBuzz equivalent: hb_shape_plan_t / hb_shape() in hb-shape.cc and
// hb-ot-shape.cc. This file owns the Shaper type (the parsed-font handle
// shaping runs against) and the top-level Shape() entry point that strings
// together segment-property guessing, normalization, mask setup, GSUB,
// positioning (GPOS or the legacy kern/fallback-mark path), and
// script-specific reordering.

// Shaper holds a parsed font's layout tables and drives text shaping
// against them.
type Shaper struct {
	font *Font
	face *Font // same instance as font; kept as a separate field because
	// fallback positioning (fallback_mark_position.go) addresses it by
	// this name when asking for the font's units-per-em.

	cmap *Cmap
	hmtx *Hmtx
	glyf *Glyf
	post *PostTable

	gdef *GDEF
	gsub *GSUB
	gpos *GPOS
	kern *Kern

	// normalizedCoordsI holds normalized variable-font design-space
	// coordinates; always nil, since this port only ever shapes at a
	// font's default instance (see ParseFeatureVariations in
	// feature_variations.go). Kept as a field, rather than passing nil
	// at each call site, because it mirrors where HarfBuzz hangs instance
	// coordinates off the shaping plan.
	normalizedCoordsI []int

	indicPlans map[Tag]*IndicPlan

	// reorderMarksCallback lets a script-specific shaper adjust mark order
	// after normalize.go's combining-class sort (e.g. Arabic's treatment of
	// the Syriac abbreviation mark). Left nil outside the shapers that need
	// it, matching HarfBuzz's per-shaper reorder_marks() being a no-op by
	// default.
	// HarfBuzz equivalent: hb_ot_complex_shaper_t::reorder_marks in
	// hb-ot-shaper.hh.
	reorderMarksCallback func(info []GlyphInfo, start, end int)

	// composeFilter lets a script-specific shaper veto a recomposition
	// normalize.go would otherwise perform (e.g. USE's compose_use blocking
	// recomposition of certain base+mark pairs).
	// HarfBuzz equivalent: hb_ot_complex_shaper_t::compose in hb-ot-shaper.hh.
	composeFilter func(a, b Codepoint) bool
}

// NewShaper parses a font's layout tables and returns a Shaper ready to
// shape text against it.
func NewShaper(f *Font) (*Shaper, error) {
	if f == nil {
		return nil, ErrInvalidFont
	}
	s := &Shaper{font: f, face: f, cmap: f.cmap, hmtx: f.hmtx, glyf: f.glyf, post: f.post}

	if raw, err := f.TableData(TagGDEF); err == nil {
		s.gdef, _ = ParseGDEF(raw)
	}

	gsubLen, gposLen, gdefLen := 0, 0, 0
	if raw, err := f.TableData(TagGSUB); err == nil {
		gsubLen = len(raw)
		if gsub, err := ParseGSUB(raw); err == nil {
			s.gsub = gsub
		}
	}
	if raw, err := f.TableData(TagGPOS); err == nil {
		gposLen = len(raw)
		if gpos, err := ParseGPOS(raw); err == nil {
			s.gpos = gpos
		}
	}
	if raw, err := f.TableData(TagGDEF); err == nil {
		gdefLen = len(raw)
	}

	if isGDEFBlocklisted(gdefLen, gsubLen, gposLen) {
		s.gdef = nil
	}

	if raw, err := f.TableData(TagKernTable); err == nil {
		if kern, err := ParseKern(raw, f.NumGlyphs()); err == nil {
			s.kern = kern
		}
	}
	if s.kern == nil {
		if raw, err := f.TableData(TagKerxTable); err == nil {
			if kerx, err := ParseKerx(raw, f.NumGlyphs()); err == nil {
				s.kern = kerx
			}
		}
	}

	return s, nil
}

// NewShaperFromFace parses the font held by data (faceIndex 0 only; see
// Font.ParseFont) and returns a ready Shaper.
func NewShaperFromFace(data []byte) (*Shaper, error) {
	f, err := ParseFont(data, 0)
	if err != nil {
		return nil, err
	}
	return NewShaper(f)
}

// Shape runs the full shaping pipeline on buf: segment-property guessing,
// Unicode normalization, script-specific preprocessing and mask setup,
// GSUB substitution, and positioning (GPOS when present, otherwise legacy
// kern table or fallback mark positioning).
// HarfBuzz equivalent: hb_shape() / hb_ot_shape_execute() in hb-ot-shape.cc.
func (s *Shaper) Shape(buf *Buffer, features []Feature) {
	if buf == nil || len(buf.Info) == 0 {
		return
	}

	buf.GuessSegmentProperties()
	if buf.Language == 0 {
		buf.Language = MakeTag('d', 'f', 'l', 't')
	}

	otShaper := SelectShaperWithFont(buf.Script, buf.Direction, s.chosenGSUBScriptTag(buf.Script))

	allFeatures := append(append([]Feature{}, DefaultFeatures()...), features...)

	if otShaper.PreprocessText != nil {
		otShaper.PreprocessText(nil, buf, s.font)
	} else {
		s.preprocessText(buf)
	}

	mode := otShaper.NormalizationPreference
	if mode == NormalizationModeAuto {
		mode = NormalizationModeComposedDiacritics
	}
	s.normalizeBuffer(buf, mode)

	s.setupMasksForScript(buf, otShaper, allFeatures)

	switch buf.Script {
	case MakeTag('H', 'a', 'n', 'g'):
		s.shapeHangul(buf, allFeatures)
	case MakeTag('T', 'h', 'a', 'i'), MakeTag('L', 'a', 'o', ' '):
		s.shapeThai(buf, allFeatures)
	case MakeTag('K', 'h', 'm', 'r'):
		s.shapeKhmer(buf, allFeatures)
	case MakeTag('M', 'y', 'm', 'r'):
		s.shapeMyanmar(buf, allFeatures)
	case MakeTag('D', 'e', 'v', 'a'), MakeTag('B', 'e', 'n', 'g'), MakeTag('G', 'u', 'r', 'u'),
		MakeTag('G', 'u', 'j', 'r'), MakeTag('O', 'r', 'y', 'a'), MakeTag('T', 'a', 'm', 'l'),
		MakeTag('T', 'e', 'l', 'u'), MakeTag('K', 'n', 'd', 'a'), MakeTag('M', 'l', 'y', 'm'):
		if otShaper == USEShaper {
			s.shapeUSE(buf, allFeatures)
		} else {
			s.shapeIndic(buf, allFeatures)
		}
	case MakeTag('A', 'r', 'a', 'b'), MakeTag('S', 'y', 'r', 'c'), MakeTag('M', 'o', 'n', 'g'), MakeTag('P', 'h', 'a', 'g'):
		s.normalizeArabic(buf)
		s.applyArabicFeatures(buf, features)
	default:
		if otShaper == USEShaper {
			s.shapeUSE(buf, allFeatures)
		} else {
			s.applyGenericGSUB(buf, allFeatures)
		}
	}

	if otShaper.ReorderMarks != nil {
		otShaper.ReorderMarks(nil, buf, 0, len(buf.Info))
	}

	s.Position(buf, allFeatures, otShaper)

	buf.sync()
}

// Position applies GPOS positioning when the font has it. Otherwise it
// applies the legacy 'kern' table when present and then, if the shaper
// enables it, Unicode-combining-class-driven fallback mark positioning.
// HarfBuzz equivalent: hb_ot_position() in hb-ot-shape.cc.
func (s *Shaper) Position(buf *Buffer, features []Feature, otShaper *OTShaper) {
	s.setBaseAdvances(buf)

	if s.gpos != nil && (otShaper.GPOSTag == 0 || s.chosenGPOSScriptTag(buf.Script) == otShaper.GPOSTag) {
		s.applyGPOS(buf, features)
		return
	}

	if s.kern != nil && s.kern.HasKerning() {
		s.applyLegacyKerning(buf)
	}

	if otShaper.FallbackPosition {
		s.fallbackMarkPosition(buf)
	}
}

func (s *Shaper) applyLegacyKerning(buf *Buffer) {
	for i := 0; i+1 < len(buf.Info); i++ {
		if v := s.kern.KernPair(buf.Info[i].GlyphID, buf.Info[i+1].GlyphID); v != 0 {
			buf.Pos[i].XAdvance += v
		}
	}
}

// applyGenericGSUB runs the compiled GSUB lookup map for scripts without a
// dedicated shaper (Hebrew, Latin, and everything else using DefaultShaper).
func (s *Shaper) applyGenericGSUB(buf *Buffer, features []Feature) {
	s.applyGSUB(buf, features)
}

// preprocessText is the default PreprocessText behavior: map codepoints to
// glyph ids that haven't been mapped yet by a script-specific pass.
func (s *Shaper) preprocessText(buf *Buffer) {
	s.mapCodepointsToGlyphs(buf)
}

// mapCodepointsToGlyphs maps each glyph's original codepoint to a glyph id
// via cmap, skipping glyphs a script-specific preprocessing pass already
// mapped (e.g. Hangul jamo decomposition, Thai Sara Am expansion).
// HarfBuzz equivalent: hb_set_unicode_props() + hb_ot_shape_plan_t's
// map-to-glyphs pass over hb_buffer_t in hb-ot-shape.cc.
func (s *Shaper) mapCodepointsToGlyphs(buf *Buffer) {
	if s.cmap == nil {
		return
	}
	for i := range buf.Info {
		if buf.Info[i].GlyphID != 0 {
			continue
		}
		if gid, ok := s.cmap.Lookup(buf.Info[i].Codepoint); ok {
			buf.Info[i].GlyphID = gid
		}
	}
}

// setGlyphClasses stamps each glyph's GDEF glyph class onto GlyphInfo, both
// as GlyphClass and as the corresponding GlyphProps bit, so that lookup
// application (mark filtering, mark-to-base attachment) can see them without
// re-querying GDEF.
// HarfBuzz equivalent: hb_ot_layout_set_glyph_props() / _hb_glyph_info_set_glyph_props()
// in hb-ot-layout.cc.
func (s *Shaper) setGlyphClasses(buf *Buffer) {
	if s.gdef == nil {
		return
	}
	for i := range buf.Info {
		class := s.gdef.GetGlyphClass(buf.Info[i].GlyphID)
		buf.Info[i].GlyphClass = class
		switch class {
		case GlyphClassBase:
			buf.Info[i].GlyphProps |= GlyphPropsBaseGlyph
		case GlyphClassLigature:
			buf.Info[i].GlyphProps |= GlyphPropsLigature
		case GlyphClassMark:
			buf.Info[i].GlyphProps |= GlyphPropsMark
		}
	}
}

// categorizeFeatures splits a flat feature request list into the subset
// carried by the font's GSUB feature list and the subset carried by its
// GPOS feature list (a feature tag like 'kern' may appear in either, both,
// or neither, depending on the font). Complex shapers apply their GSUB and
// GPOS passes separately rather than through one combined OTMap, so each
// pass needs only the features its own table actually declares.
// HarfBuzz equivalent: hb_ot_map_builder_t::add_feature() routing features
// to table_index TableGSUB/TableGPOS in hb-ot-map.cc.
func (s *Shaper) categorizeFeatures(features []Feature) (gsubFeatures, gposFeatures []Feature) {
	var gsubList, gposList *FeatureList
	if s.gsub != nil {
		gsubList, _ = s.gsub.ParseFeatureList()
	}
	if s.gpos != nil {
		gposList, _ = s.gpos.ParseFeatureList()
	}
	for _, f := range features {
		if gsubList != nil && gsubList.FindFeature(f.Tag) != nil {
			gsubFeatures = append(gsubFeatures, f)
		}
		if gposList != nil && gposList.FindFeature(f.Tag) != nil {
			gposFeatures = append(gposFeatures, f)
		}
	}
	return gsubFeatures, gposFeatures
}

// applyGSUB compiles features against the font's GSUB table and applies the
// resulting lookups to buf.
// HarfBuzz equivalent: hb_ot_map_t::apply() with the GSUB proxy in
// hb-ot-layout.cc, as driven by hb_ot_shape_execute().
func (s *Shaper) applyGSUB(buf *Buffer, features []Feature) {
	if s.gsub == nil {
		return
	}
	m := CompileMap(s.gsub, nil, features, buf.Script, buf.Language)
	m.ApplyGSUB(s.gsub, buf, s.font, s.gdef)
}

// applyGPOS compiles features against the font's GPOS table and applies the
// resulting lookups to buf.
// HarfBuzz equivalent: hb_ot_map_t::apply() with the GPOS proxy in
// hb-ot-layout.cc.
func (s *Shaper) applyGPOS(buf *Buffer, features []Feature) {
	if s.gpos == nil {
		return
	}
	m := CompileMap(nil, s.gpos, features, buf.Script, buf.Language)
	m.ApplyGPOS(s.gpos, buf, s.font, s.gdef)
}

// applyGPOSWithZeroWidthMarks applies GPOS, zeroing the horizontal and
// vertical advances of GDEF-classified mark glyphs either before or after
// the GPOS pass according to mode. Early zeroing matters for scripts whose
// GPOS mark-attachment math (and any fallback path) expects marks to start
// at zero advance; late zeroing instead corrects whatever base advances the
// marks picked up from hmtx once GPOS has placed them.
// HarfBuzz equivalent: hb_ot_shape_plan_t::zero_width_marks in hb-ot-shape.cc,
// applied by zero_mark_widths_by_gdef() in hb-ot-shape-normalize.cc.
func (s *Shaper) applyGPOSWithZeroWidthMarks(buf *Buffer, features []Feature, mode ZeroWidthMarksType) {
	if mode == ZeroWidthMarksByGDEFEarly {
		s.zeroMarkWidthsByGDEF(buf)
	}
	s.applyGPOS(buf, features)
	if mode == ZeroWidthMarksByGDEFLate {
		s.zeroMarkWidthsByGDEF(buf)
	}
}

// setBaseAdvances seeds every glyph's horizontal advance from the font's
// hmtx table, ahead of any GPOS adjustment.
// HarfBuzz equivalent: hb_ot_layout_position_start() / base advance setup in
// hb-ot-metrics.cc.
func (s *Shaper) setBaseAdvances(buf *Buffer) {
	if s.hmtx == nil {
		return
	}
	for i := range buf.Pos {
		buf.Pos[i].XAdvance = int16(s.hmtx.GetAdvanceWidth(buf.Info[i].GlyphID))
	}
}

// zeroMarkWidthsByGDEF zeros the advance of every glyph GDEF classifies as a
// mark, so mark glyphs stack on their base rather than pushing the cursor
// forward.
// HarfBuzz equivalent: zero_mark_widths_by_gdef() in hb-ot-shape-normalize.cc.
func (s *Shaper) zeroMarkWidthsByGDEF(buf *Buffer) {
	if s.gdef == nil {
		return
	}
	for i := range buf.Info {
		if s.gdef.GetGlyphClass(buf.Info[i].GlyphID) == GlyphClassMark {
			buf.Pos[i].XAdvance = 0
			buf.Pos[i].YAdvance = 0
		}
	}
}

// reverseClusters reverses glyph order for right-to-left output while
// preserving the relative order of glyphs within each cluster (reversing the
// whole buffer inverts cluster-internal order too, so each cluster's run is
// reversed a second time to restore it).
// HarfBuzz equivalent: hb_buffer_t::reverse_clusters() in hb-buffer.cc.
func (s *Shaper) reverseClusters(buf *Buffer) {
	buf.Reverse()
	start := 0
	for start < len(buf.Info) {
		end := start + 1
		for end < len(buf.Info) && buf.Info[end].Cluster == buf.Info[start].Cluster {
			end++
		}
		buf.ReverseRange(start, end)
		start = end
	}
}

// reverseBuffer reverses the entire glyph sequence for right-to-left output,
// with no cluster-boundary preservation.
// HarfBuzz equivalent: hb_buffer_t::reverse() in hb-buffer.cc.
func (s *Shaper) reverseBuffer(buf *Buffer) {
	buf.Reverse()
}

// setupMasksForScript assigns the global mask and any shaper-provided mask
// setup; Arabic and Hebrew install their own via the OTShaper struct
// (wired in ot_shaper_arabic.go / ot_shaper_hebrew.go's init()), Indic-
// family shapers do their own mask bookkeeping as part of shapeXxx.
func (s *Shaper) setupMasksForScript(buf *Buffer, otShaper *OTShaper, features []Feature) {
	buf.ResetMasks(MaskGlobal)
	if otShaper.SetupMasks != nil {
		otShaper.SetupMasks(nil, buf, s.font)
	}
}

// chosenGSUBScriptTag returns the script tag actually present in the
// font's GSUB ScriptList for the buffer's script, falling back to the
// buffer's script itself when GSUB is absent or has no matching entry.
func (s *Shaper) chosenGSUBScriptTag(script Tag) Tag {
	if s.gsub == nil {
		return script
	}
	scriptList, err := s.gsub.ParseScriptList()
	if err != nil || scriptList == nil {
		return script
	}
	tag, ok := scriptList.FindChosenScriptTag(script)
	if !ok {
		return script
	}
	return tag
}

// hasMongolianScript reports whether buf is carrying Mongolian text, used to
// decide whether Arabic-family mask setup needs to propagate the joining
// action from a base letter onto any following Mongolian free variation
// selector so ligature lookups can match the Base+FVS sequence as a unit.
// HarfBuzz equivalent: the script == HB_SCRIPT_MONGOLIAN check guarding
// mongolian_variation_selectors() in hb-ot-shaper-arabic.cc.
func (s *Shaper) hasMongolianScript(buf *Buffer) bool {
	return buf.Script == MakeTag('M', 'o', 'n', 'g')
}

// getDefaultGSUBFeatures returns the common and horizontal-direction GSUB
// features applied after a script's own basic/other feature passes.
// HarfBuzz equivalent: common_features[] and horizontal_features[] arrays
// added to the map in hb-ot-shape.cc:295-318.
func (s *Shaper) getDefaultGSUBFeatures(dir Direction) []Feature {
	features := []Feature{
		NewFeatureOn(TagCcmp),
		NewFeatureOn(TagRlig),
		NewFeatureOn(TagCalt),
		NewFeatureOn(TagLiga),
		NewFeatureOn(TagClig),
		NewFeatureOn(MakeTag('r', 'c', 'l', 't')),
	}
	if dir == DirectionRTL {
		features = append(features,
			Feature{Tag: MakeTag('r', 't', 'l', 'a'), Value: 1},
			Feature{Tag: MakeTag('r', 't', 'l', 'm'), Value: 1})
	} else {
		features = append(features,
			Feature{Tag: MakeTag('l', 't', 'r', 'a'), Value: 1},
			Feature{Tag: MakeTag('l', 't', 'r', 'm'), Value: 1})
	}
	return features
}

// SyllableAccessor lets insertSyllabicDottedCircles read and patch the
// syllable/category scratch arrays of whichever script-specific shaper
// (Indic, USE) is calling it, without depending on their concrete
// per-glyph info types.
type SyllableAccessor interface {
	GetSyllable(i int) uint8
	GetCategory(i int) uint8
	SetCategory(i int, cat uint8)
	Len() int
}

// insertSyllabicDottedCircles inserts a U+25CC dotted-circle glyph at the
// start of every syllable classified as brokenType (immediately after any
// leading repha-category glyphs), so that combining marks left without a
// base by malformed input still have something to attach to.
// HarfBuzz equivalent: hb_syllabic_insert_dotted_circles() in
// hb-ot-shaper-syllabic.cc.
//
// dottedCircleCategory is accepted for signature parity with HarfBuzz (which
// stamps it directly onto the inserted glyph's use_category()) but isn't
// applied here: callers re-derive every glyph's script-specific category
// from its codepoint right after insertion (classifyIndicGlyphs /
// classifyUSE), which naturally classifies U+25CC correctly.
func (s *Shaper) insertSyllabicDottedCircles(buf *Buffer, accessor SyllableAccessor, brokenType, dottedCircleCategory uint8, rephaCategory int) {
	if s.cmap == nil {
		return
	}
	dottedCircleGlyph, ok := s.cmap.Lookup(Codepoint(0x25CC))
	if !ok {
		return
	}

	buf.clearOutput()
	buf.Idx = 0
	lastSyllable := uint8(0)
	for buf.Idx < len(buf.Info) {
		syllable := accessor.GetSyllable(buf.Idx)
		syllableType := syllable & 0x0F
		if lastSyllable != syllable && syllableType == brokenType {
			lastSyllable = syllable

			template := buf.Info[buf.Idx]
			template.Codepoint = 0x25CC
			template.GlyphID = dottedCircleGlyph
			template.GlyphClass = GlyphClassUnclassified
			template.GlyphProps = 0

			numRepha := 0
			for buf.Idx+numRepha < accessor.Len() &&
				accessor.GetSyllable(buf.Idx+numRepha) == lastSyllable &&
				int(accessor.GetCategory(buf.Idx+numRepha)) == rephaCategory {
				numRepha++
			}

			for ; numRepha > 0; numRepha-- {
				buf.nextGlyph()
			}
			buf.outputInfo(template)
		} else {
			buf.nextGlyph()
		}
	}
	buf.sync()
}

func (s *Shaper) chosenGPOSScriptTag(script Tag) Tag {
	if s.gpos == nil {
		return script
	}
	scriptList, err := s.gpos.ParseScriptList()
	if err != nil || scriptList == nil {
		return script
	}
	tag, ok := scriptList.FindChosenScriptTag(script)
	if !ok {
		return script
	}
	return tag
}
