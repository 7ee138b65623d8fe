package ot

// Shaper and Buffer Implementation
//
// This file implements the text shaping pipeline and buffer management.
// HarfBuzz equivalent files:
//   - hb-buffer.cc / hb-buffer.hh (Buffer operations, Lines 60-400)
//   - hb-ot-shape.cc (Shaping pipeline, Lines 600-1200)
//   - hb-ot-shaper.hh (Shaper selection and hooks)
//
// Key structures:
//   - Buffer: Holds glyphs being shaped, implements two-buffer pattern
//
// Buffer operations (HarfBuzz hb-buffer.cc):
//   - clearOutput: Initialize output buffer
//   - moveTo: Move to position, copying glyphs
//   - nextGlyph: Copy current glyph to output
//   - outputGlyph: Copy with new GlyphID
//   - sync: Replace input with output
//
// Shaping pipeline (HarfBuzz hb-ot-shape.cc):
//   - Shape: Main entry point, and the Shaper struct it hangs off of, live
//     in shape_driver.go alongside the Face-backed font plumbing.

import (
	"unicode"
)

// Note: Direction, DirectionLTR, DirectionRTL are defined in tag.go

// GlyphInfo holds information about a shaped glyph.
// HarfBuzz equivalent: hb_glyph_info_t in hb-buffer.h
type GlyphInfo struct {
	Codepoint  Codepoint // Original Unicode codepoint (0 if synthetic)
	GlyphID    GlyphID   // Glyph index in the font
	Cluster    int       // Cluster index (maps back to original text position)
	GlyphClass int       // GDEF glyph class (if available)
	Mask       uint32    // Feature mask - determines which features apply to this glyph
	// HarfBuzz equivalent: hb_glyph_info_t.mask in hb-buffer.h
	// Each feature has a unique mask bit. Lookups only apply to glyphs
	// where (glyph.mask & lookup.mask) != 0.

	// GlyphProps holds glyph properties for GSUB/GPOS processing.
	// HarfBuzz equivalent: glyph_props() in hb-ot-layout.hh
	// Flags:
	//   0x02 = BASE_GLYPH (from GDEF class 1)
	//   0x04 = LIGATURE (from GDEF class 2)
	//   0x08 = MARK (from GDEF class 3)
	//   0x10 = SUBSTITUTED (glyph was substituted by GSUB)
	//   0x20 = LIGATED (glyph is result of ligature substitution)
	//   0x40 = MULTIPLIED (glyph is component of multiple substitution)
	GlyphProps uint16

	// LigProps holds ligature properties (lig_id and lig_comp).
	// HarfBuzz equivalent: lig_props() in hb-ot-layout.hh
	// Upper 3 bits: lig_id (identifies which ligature this belongs to)
	// Bit 4: IS_LIG_BASE; lower 4 bits: lig_comp (component index within ligature)
	// or, on the ligature itself, its component count
	LigProps uint8

	// Syllable holds the syllable index for complex script shaping.
	// HarfBuzz equivalent: syllable() in hb-buffer.hh
	// Used by Indic, Khmer, Myanmar, USE shapers to constrain GSUB lookups
	// to operate only within syllable boundaries (F_PER_SYLLABLE flag).
	Syllable uint8

	// ModifiedCCC holds an overridden combining class, used by Arabic reorder_marks.
	// HarfBuzz equivalent: _hb_glyph_info_set_modified_combining_class()
	// When non-zero, this value is used instead of the standard Unicode CCC.
	// Arabic MCMs (modifier combining marks) get their CCC changed to 25/26
	// after being reordered to the beginning of the mark sequence.
	ModifiedCCC uint8

	// IndicCategory holds the Indic character category for Indic shaping.
	// HarfBuzz equivalent: indic_category() stored in var1 via HB_BUFFER_ALLOCATE_VAR
	// This is preserved through GSUB substitutions because GlyphInfo is copied as a whole.
	IndicCategory uint8

	// IndicPosition holds the Indic character position for Indic shaping.
	// HarfBuzz equivalent: indic_position() stored in var1 via HB_BUFFER_ALLOCATE_VAR
	// This is preserved through GSUB substitutions because GlyphInfo is copied as a whole.
	IndicPosition uint8

	// ArabicShapingAction holds the Arabic shaping action for STCH (stretching) feature.
	// HarfBuzz equivalent: arabic_shaping_action() stored via ot_shaper_var_u8_auxiliary()
	// Values: arabicActionSTCH_FIXED, arabicActionSTCH_REPEATING (set by recordStch)
	ArabicShapingAction uint8

	// MyanmarCategory holds the Myanmar character category for Myanmar shaping.
	// HarfBuzz equivalent: myanmar_category() stored via ot_shaper_var_u8_category()
	MyanmarCategory uint8

	// MyanmarPosition holds the Myanmar character position for Myanmar shaping.
	// HarfBuzz equivalent: myanmar_position() stored via ot_shaper_var_u8_auxiliary()
	MyanmarPosition uint8

	// USECategory holds the USE character category for USE shaping.
	// HarfBuzz equivalent: use_category() stored in var2.u8[3] via HB_BUFFER_ALLOCATE_VAR
	// Stored directly on GlyphInfo so it survives GSUB operations.
	USECategory uint8

	// HangulFeature holds the Hangul Jamo feature type for Hangul shaping.
	// HarfBuzz equivalent: hangul_shaping_feature() stored via ot_shaper_var_u8_auxiliary()
	// Values: 0=none, 1=LJMO, 2=VJMO, 3=TJMO
	HangulFeature uint8
}

// Glyph property constants.
// HarfBuzz equivalent: HB_OT_LAYOUT_GLYPH_PROPS_* in hb-ot-layout.hh
const (
	GlyphPropsBaseGlyph        uint16 = 0x02 // GDEF class 1: Base glyph
	GlyphPropsLigature         uint16 = 0x04 // GDEF class 2: Ligature glyph
	GlyphPropsMark             uint16 = 0x08 // GDEF class 3: Mark glyph
	GlyphPropsSubstituted      uint16 = 0x10 // Glyph was substituted by GSUB
	GlyphPropsLigated          uint16 = 0x20 // Glyph is result of ligature substitution
	GlyphPropsMultiplied       uint16 = 0x40 // Glyph is component of multiple substitution
	GlyphPropsDefaultIgnorable uint16 = 0x80 // Unicode default ignorable character
	// HarfBuzz UPROPS_MASK_Cf_ZWNJ and UPROPS_MASK_Cf_ZWJ in hb-ot-layout.hh
	GlyphPropsZWNJ uint16 = 0x100 // Zero-Width Non-Joiner (U+200C)
	GlyphPropsZWJ  uint16 = 0x200 // Zero-Width Joiner (U+200D)
	// HarfBuzz UPROPS_MASK_HIDDEN in hb-ot-layout.hh:199
	// Set for: CGJ (U+034F), Mongolian FVS (U+180B-U+180D, U+180F), TAG chars (U+E0020-U+E007F)
	// These should NOT be skipped during GSUB context matching (ignore_hidden=false for GSUB)
	GlyphPropsHidden uint16 = 0x400

	// GlyphPropsPreserve are the flags preserved across substitutions
	GlyphPropsPreserve uint16 = GlyphPropsSubstituted | GlyphPropsLigated | GlyphPropsMultiplied | GlyphPropsDefaultIgnorable | GlyphPropsZWNJ | GlyphPropsZWJ | GlyphPropsHidden
)

// IsMultiplied returns true if this glyph is a component of a multiple substitution.
// HarfBuzz equivalent: _hb_glyph_info_multiplied() in hb-ot-layout.hh:565
func (g *GlyphInfo) IsMultiplied() bool {
	return g.GlyphProps&GlyphPropsMultiplied != 0
}

// IsLigated returns true if this glyph is the result of a ligature substitution.
// HarfBuzz equivalent: _hb_glyph_info_ligated() in hb-ot-layout.hh:561
func (g *GlyphInfo) IsLigated() bool {
	return g.GlyphProps&GlyphPropsLigated != 0
}

// IsMark returns true if this glyph is a mark (GDEF class 3).
// HarfBuzz equivalent: _hb_glyph_info_is_mark() in hb-ot-layout.hh:549
func (g *GlyphInfo) IsMark() bool {
	return g.GlyphProps&GlyphPropsMark != 0
}

// IsBaseGlyph returns true if this glyph is a base glyph (GDEF class 1).
// HarfBuzz equivalent: _hb_glyph_info_is_base_glyph() in hb-ot-layout.hh:537
func (g *GlyphInfo) IsBaseGlyph() bool {
	return g.GlyphProps&GlyphPropsBaseGlyph != 0
}

// IsLigature returns true if this glyph is a ligature (GDEF class 2).
// HarfBuzz equivalent: _hb_glyph_info_is_ligature() in hb-ot-layout.hh:543
func (g *GlyphInfo) IsLigature() bool {
	return g.GlyphProps&GlyphPropsLigature != 0
}

// GetLigID returns the ligature ID for this glyph.
// HarfBuzz equivalent: _hb_glyph_info_get_lig_id() in hb-ot-layout.hh:481
func (g *GlyphInfo) GetLigID() uint8 {
	return g.LigProps >> 5
}

// LigProps bit layout (HarfBuzz equivalent in hb-ot-layout.hh:425-448):
//
//	Bits 7-5: lig_id (3 bits, values 0-7)
//	Bit 4:    IS_LIG_BASE (set for ligature glyphs, unset for marks/components)
//	Bits 3-0: lig_comp or lig_num_comps (4 bits, values 0-15)
const isLigBase uint8 = 0x10 // HarfBuzz: IS_LIG_BASE

// GetLigComp returns the ligature component index for this glyph.
// Returns 0 if this is the ligature itself (IS_LIG_BASE set).
// HarfBuzz equivalent: _hb_glyph_info_get_lig_comp() in hb-ot-layout.hh:493
func (g *GlyphInfo) GetLigComp() uint8 {
	// If IS_LIG_BASE is set, this is a ligature glyph, not a component
	// HarfBuzz: if (_hb_glyph_info_ligated_internal(info)) return 0;
	if g.LigProps&isLigBase != 0 {
		return 0
	}
	return g.LigProps & 0x0F
}

// SetLigPropsForComponent sets lig_props for a component of a multiple substitution.
// HarfBuzz equivalent: _hb_glyph_info_set_lig_props_for_component() in hb-ot-layout.hh:475
// which calls _hb_glyph_info_set_lig_props_for_mark(info, 0, comp)
func (g *GlyphInfo) SetLigPropsForComponent(compIdx int) {
	// lig_id = 0, lig_comp = compIdx (0-based)
	// HarfBuzz: info->lig_props() = (lig_id << 5) | (lig_comp & 0x0F)
	g.LigProps = uint8(compIdx & 0x0F)
}

// SetLigPropsForLigature sets lig_props for a ligature glyph.
// HarfBuzz equivalent: _hb_glyph_info_set_lig_props_for_ligature() in hb-ot-layout.hh:459
func (g *GlyphInfo) SetLigPropsForLigature(ligID uint8, numComps int) {
	// HarfBuzz: info->lig_props() = (lig_id << 5) | IS_LIG_BASE | (lig_num_comps & 0x0F)
	g.LigProps = (ligID << 5) | isLigBase | uint8(numComps&0x0F)
}

// SetLigPropsForMark sets lig_props for a mark glyph attached to a ligature.
// HarfBuzz equivalent: _hb_glyph_info_set_lig_props_for_mark() in hb-ot-layout.hh:467
func (g *GlyphInfo) SetLigPropsForMark(ligID uint8, ligComp int) {
	// HarfBuzz: info->lig_props() = (lig_id << 5) | (lig_comp & 0x0F)
	g.LigProps = (ligID << 5) | uint8(ligComp&0x0F)
}

// GetLigNumComps returns the number of components in a ligature.
// HarfBuzz equivalent: _hb_glyph_info_get_lig_num_comps() in hb-ot-layout.hh:501
func (g *GlyphInfo) GetLigNumComps() int {
	// For ligatures (GDEF class 2 + IS_LIG_BASE), return lig_num_comps from lower 4 bits
	// HarfBuzz: if ((glyph_props & LIGATURE) && ligated_internal) return lig_props & 0x0F
	if (g.GlyphProps&GlyphPropsLigature) != 0 && (g.LigProps&isLigBase) != 0 {
		return int(g.LigProps & 0x0F)
	}
	return 1
}

// GlyphPos holds positioning information for a shaped glyph.
// HarfBuzz equivalent: hb_glyph_position_t in hb-buffer.h
type GlyphPos struct {
	XAdvance int16 // Horizontal advance
	YAdvance int16 // Vertical advance
	XOffset  int16 // Horizontal offset
	YOffset  int16 // Vertical offset

	// Attachment chain for mark/cursive positioning.
	// HarfBuzz: var.i16[0] via attach_chain() macro in OT/Layout/GPOS/Common.hh
	// Relative offset to attached glyph: negative = backwards, positive = forward.
	// Zero means no attachment.
	AttachChain int16

	// Attachment type for mark/cursive positioning.
	// HarfBuzz: var.u8[2] via attach_type() macro in OT/Layout/GPOS/Common.hh
	AttachType uint8
}

// BufferFlags controls buffer behavior during shaping.
// These match HarfBuzz's hb_buffer_flags_t.
type BufferFlags uint32

const (
	// BufferFlagDefault is the default buffer flag.
	BufferFlagDefault BufferFlags = 0
	// BufferFlagBOT indicates beginning of text paragraph.
	BufferFlagBOT BufferFlags = 1 << iota
	// BufferFlagEOT indicates end of text paragraph.
	BufferFlagEOT
	// BufferFlagPreserveDefaultIgnorables keeps default ignorable characters visible.
	BufferFlagPreserveDefaultIgnorables
	// BufferFlagRemoveDefaultIgnorables removes default ignorable characters from output.
	BufferFlagRemoveDefaultIgnorables
	// BufferFlagDoNotInsertDottedCircle prevents dotted circle insertion for invalid sequences.
	BufferFlagDoNotInsertDottedCircle
)

// Buffer holds a sequence of glyphs being shaped.
type Buffer struct {
	Info      []GlyphInfo
	Pos       []GlyphPos
	Direction Direction
	Flags     BufferFlags

	// Idx is the cursor into Info and Pos arrays.
	// HarfBuzz: hb_buffer_t::idx (hb-buffer.hh line 97)
	Idx int

	// Output buffer for in-place modifications
	// HarfBuzz: hb_buffer_t::out_info, out_len, have_output (hb-buffer.hh lines 93-102)
	outInfo    []GlyphInfo
	outLen     int
	haveOutput bool

	// Serial counter for ligature IDs
	// HarfBuzz: hb_buffer_t::serial (hb-buffer.hh line 109)
	serial uint8

	// Script and Language for shaping (optional, can be auto-detected)
	Script             Tag
	Language           Tag
	LanguageCandidates []Tag // Multiple language candidates in priority order (BCP47→OT may produce multiple)

	// PreContext and PostContext hold Unicode codepoints that surround the text being shaped.
	// Used for Arabic joining: context characters affect the joining form of the first/last glyphs.
	// HarfBuzz equivalent: context[2][CONTEXT_LENGTH] and context_len[2] in hb-buffer.hh:110-111
	PreContext  []Codepoint
	PostContext []Codepoint

	// ScratchFlags holds temporary flags used during shaping.
	// HarfBuzz equivalent: scratch_flags in hb-buffer.hh
	ScratchFlags ScratchFlags

	// RandomState for the 'rand' feature's pseudo-random number generator.
	// HarfBuzz equivalent: random_state in hb-buffer.hh
	// Uses minstd_rand: state = state * 48271 % 2147483647
	// Initial value 1 (set in NewBuffer/reset).
	RandomState uint32

	// ClusterLevel controls cluster merging behavior.
	// HarfBuzz equivalent: cluster_level in hb-buffer.hh
	// 0 = MONOTONE_GRAPHEMES (default): merge marks into base, monotone order
	// 1 = MONOTONE_CHARACTERS: keep marks separate, monotone order
	// 2 = CHARACTERS: keep marks separate, no monotone enforcement
	// 3 = GRAPHEMES: merge marks into base, no monotone enforcement
	ClusterLevel int

	// NotFoundVSGlyph is the glyph ID to use for variation selectors that are
	// not found in the font. -1 means not set (VS will be removed from buffer).
	// HarfBuzz equivalent: not_found_variation_selector in hb-buffer.hh
	NotFoundVSGlyph int
}

// ScratchFlags are temporary flags used during shaping.
type ScratchFlags uint32

const (
	// ScratchFlagArabicHasStch indicates buffer has STCH glyphs that need post-processing.
	ScratchFlagArabicHasStch ScratchFlags = 1 << 0
)

// NewBuffer creates a new empty buffer.
// Direction is initially unset (0) and should be set explicitly or via GuessSegmentProperties.
func NewBuffer() *Buffer {
	return &Buffer{
		// Direction is 0 (unset) - will be determined by GuessSegmentProperties or shaper
		RandomState:     1,  // HarfBuzz: random_state initialized to 1
		NotFoundVSGlyph: -1, // HarfBuzz: HB_CODEPOINT_INVALID
	}
}

// AddCodepoints adds Unicode codepoints to the buffer.
// Each codepoint's cluster is its index in codepoints; marks are merged into
// their base's cluster later, during shaping.
func (b *Buffer) AddCodepoints(codepoints []Codepoint) {
	// HarfBuzz: cluster = index into input text (hb-buffer.cc:1858)
	// No mark grouping here - clusters are merged during shaping (ligatures, etc.)
	for i, cp := range codepoints {
		info := GlyphInfo{
			Codepoint: cp,
			Cluster:   i,
			Mask:      MaskGlobal, // HarfBuzz: glyphs start with global_mask
		}
		// HarfBuzz: _hb_glyph_info_set_unicode_props() sets UPROPS_MASK_IGNORABLE and Cf flags
		if IsDefaultIgnorable(cp) {
			info.GlyphProps |= GlyphPropsDefaultIgnorable
		}
		if cp == 0x200C { // ZWNJ
			info.GlyphProps |= GlyphPropsZWNJ
		}
		if cp == 0x200D { // ZWJ
			info.GlyphProps |= GlyphPropsZWJ
		}
		// HarfBuzz: UPROPS_MASK_HIDDEN for CGJ, Mongolian FVS, TAG chars
		// These should NOT be skipped during GSUB context matching
		if isHiddenDefaultIgnorable(cp) {
			info.GlyphProps |= GlyphPropsHidden
		}
		b.Info = append(b.Info, info)
	}
	b.Pos = make([]GlyphPos, len(b.Info))
}

// AddString adds a string to the buffer.
// Each rune's cluster is its rune index in s; marks are merged into their
// base's cluster later, during shaping.
func (b *Buffer) AddString(s string) {
	// HarfBuzz: cluster = index into input text (hb-buffer.cc:1858)
	// No mark grouping here - clusters are merged during shaping (ligatures, etc.)
	runes := []rune(s)
	for i, r := range runes {
		cp := Codepoint(r)
		info := GlyphInfo{
			Codepoint: cp,
			Cluster:   i,
			Mask:      MaskGlobal, // HarfBuzz: glyphs start with global_mask
		}
		// HarfBuzz: _hb_glyph_info_set_unicode_props() sets UPROPS_MASK_IGNORABLE and Cf flags
		if IsDefaultIgnorable(cp) {
			info.GlyphProps |= GlyphPropsDefaultIgnorable
		}
		if cp == 0x200C { // ZWNJ
			info.GlyphProps |= GlyphPropsZWNJ
		}
		if cp == 0x200D { // ZWJ
			info.GlyphProps |= GlyphPropsZWJ
		}
		// HarfBuzz: UPROPS_MASK_HIDDEN for CGJ, Mongolian FVS, TAG chars
		// These should NOT be skipped during GSUB context matching
		if isHiddenDefaultIgnorable(cp) {
			info.GlyphProps |= GlyphPropsHidden
		}
		b.Info = append(b.Info, info)
	}
	b.Pos = make([]GlyphPos, len(b.Info))
}

// SetDirection sets the text direction.
func (b *Buffer) SetDirection(dir Direction) {
	b.Direction = dir
}

// Len returns the number of glyphs in the buffer.
func (b *Buffer) Len() int {
	return len(b.Info)
}

// Clear removes all glyphs from the buffer.
func (b *Buffer) Clear() {
	b.Info = b.Info[:0]
	b.Pos = b.Pos[:0]
}

// Reset clears the buffer and resets all properties to defaults.
func (b *Buffer) Reset() {
	b.Info = b.Info[:0]
	b.Pos = b.Pos[:0]
	b.Direction = 0 // Unset - will be determined by GuessSegmentProperties or shaper
	b.Flags = BufferFlagDefault
	b.Script = 0
	b.Language = 0
	b.serial = 0
	b.ScratchFlags = 0
	b.LanguageCandidates = nil
	b.PreContext = nil
	b.PostContext = nil
	b.RandomState = 1
	b.ClusterLevel = 0
	b.NotFoundVSGlyph = -1
}

// Reverse reverses the order of glyphs in the buffer.
// HarfBuzz equivalent: hb_buffer_reverse() in hb-buffer.cc:387
func (b *Buffer) Reverse() {
	for i, j := 0, len(b.Info)-1; i < j; i, j = i+1, j-1 {
		b.Info[i], b.Info[j] = b.Info[j], b.Info[i]
		b.Pos[i], b.Pos[j] = b.Pos[j], b.Pos[i]
	}
}

// ReverseRange reverses the order of glyphs in the range [start, end).
// HarfBuzz equivalent: buffer->reverse_range() in hb-buffer.hh:242-247
func (b *Buffer) ReverseRange(start, end int) {
	if start >= end || start < 0 || end > len(b.Info) {
		return
	}
	for i, j := start, end-1; i < j; i, j = i+1, j-1 {
		b.Info[i], b.Info[j] = b.Info[j], b.Info[i]
	}
	if len(b.Pos) >= end {
		for i, j := start, end-1; i < j; i, j = i+1, j-1 {
			b.Pos[i], b.Pos[j] = b.Pos[j], b.Pos[i]
		}
	}
}

// AllocateLigID allocates a new ligature ID.
// HarfBuzz equivalent: _hb_allocate_lig_id() in hb-ot-layout.hh:512
func (b *Buffer) AllocateLigID() uint8 {
	b.serial++
	ligID := b.serial & 0x07 // Only 3 bits for lig_id
	if ligID == 0 {
		// Zero is reserved for "no ligature", try again
		return b.AllocateLigID()
	}
	return ligID
}

// MergeClusters merges clusters in the range [start, end).
// All glyphs in the range are assigned the minimum cluster value found in the range.
// HarfBuzz equivalent: hb_buffer_t::merge_clusters_impl() in hb-buffer.cc:547-582
func (b *Buffer) MergeClusters(start, end int) {
	if end-start < 2 {
		return
	}
	if start < 0 || end > len(b.Info) {
		return
	}

	// HarfBuzz: merge_clusters_impl() in hb-buffer.cc:550-554
	// If cluster level is NOT monotone (level 2 or 3), skip actual merging.
	// HB_BUFFER_CLUSTER_LEVEL_IS_MONOTONE = level 0 or 1
	if b.ClusterLevel != 0 && b.ClusterLevel != 1 {
		return
	}

	// Find minimum cluster in range
	minCluster := b.Info[start].Cluster
	for i := start + 1; i < end; i++ {
		if b.Info[i].Cluster < minCluster {
			minCluster = b.Info[i].Cluster
		}
	}

	// Extend end: If the last glyph in range has a different cluster than the minimum,
	// extend the range to include following glyphs with the same cluster.
	// HarfBuzz: hb-buffer.cc:565-568
	if minCluster != b.Info[end-1].Cluster {
		for end < len(b.Info) && b.Info[end-1].Cluster == b.Info[end].Cluster {
			end++
		}
	}

	// Set all glyphs in extended range to the minimum cluster
	for i := start; i < end; i++ {
		b.Info[i].Cluster = minCluster
	}
}

// mergeClustersSlice merges cluster values in a range of GlyphInfo.
// HarfBuzz equivalent: hb_buffer_t::merge_clusters_impl() in hb-buffer.cc:547-582
// Finds the minimum cluster in [start, end), extends the range to include
// adjacent glyphs with the same cluster values, then sets all to the minimum.
func mergeClustersSlice(info []GlyphInfo, start, end int) {
	if end-start < 2 {
		return
	}
	if start < 0 || end > len(info) {
		return
	}

	// Find minimum cluster in range
	minCluster := info[start].Cluster
	for i := start + 1; i < end; i++ {
		if info[i].Cluster < minCluster {
			minCluster = info[i].Cluster
		}
	}

	// Extend end: include following glyphs with the same cluster as the last glyph
	// HarfBuzz: hb-buffer.cc:567-568
	if minCluster != info[end-1].Cluster {
		for end < len(info) && info[end-1].Cluster == info[end].Cluster {
			end++
		}
	}

	// Extend start: include preceding glyphs with the same cluster as the first glyph
	// HarfBuzz: hb-buffer.cc:571-573
	if minCluster != info[start].Cluster {
		for start > 0 && info[start-1].Cluster == info[start].Cluster {
			start--
		}
	}

	// Set all glyphs in extended range to the minimum cluster
	for i := start; i < end; i++ {
		info[i].Cluster = minCluster
	}
}

// isContinuation checks if a codepoint is a grapheme continuation character.
// HarfBuzz equivalent: hb_set_unicode_props() in hb-ot-shape.cc:470-546
// HarfBuzz marks these as CONTINUATION (merged into previous grapheme cluster):
// - Marks (Mn, Mc, Me) - always continuations
// - ZWJ (U+200D) - Zeile 515-517
// - Emoji_Modifiers (U+1F3FB-U+1F3FF) - Zeile 501-505
// - Tags (U+E0020-U+E007F) and Katakana voiced (U+FF9E-U+FF9F) - Zeile 541-542
// Note: Regional Indicators and Extended_Pictographic after ZWJ are handled
// separately but we skip that for now as it's mainly for emoji sequences.
func isContinuation(cp Codepoint) bool {
	// Marks (Mn, Mc, Me)
	if unicode.Is(unicode.M, rune(cp)) {
		return true
	}
	// ZWJ (Zero Width Joiner)
	if cp == 0x200D {
		return true
	}
	// Emoji_Modifiers (skin tone modifiers)
	if cp >= 0x1F3FB && cp <= 0x1F3FF {
		return true
	}
	// Tags (for emoji sub-region flags)
	if cp >= 0xE0020 && cp <= 0xE007F {
		return true
	}
	// Katakana voiced/semi-voiced marks
	if cp == 0xFF9E || cp == 0xFF9F {
		return true
	}
	return false
}

// isRegionalIndicator returns true if the codepoint is a Regional Indicator Symbol (U+1F1E6-U+1F1FF).
// Pairs of Regional Indicators form flag emoji and should be merged into one cluster.
func isRegionalIndicator(cp Codepoint) bool {
	return cp >= 0x1F1E6 && cp <= 0x1F1FF
}

// formClusters merges clusters for grapheme groups (base + continuations).
// HarfBuzz equivalent: hb_form_clusters() in hb-ot-shape.cc:577-589
// This ensures that a base character and its continuations share the same cluster.
func formClusters(buf *Buffer) {
	if len(buf.Info) < 2 {
		return
	}

	// First pass: determine continuation flags for each glyph.
	// HarfBuzz equivalent: hb_set_unicode_props() in hb-ot-shape.cc:470-546
	// This handles context-dependent continuations:
	// - ZWJ (U+200D) is a continuation
	// - Extended_Pictographic character after ZWJ is also a continuation
	// - Second Regional Indicator in a pair is a continuation (flag emoji)
	n := len(buf.Info)
	isCont := make([]bool, n)
	for i := 0; i < n; i++ {
		cp := buf.Info[i].Codepoint
		if isContinuation(cp) {
			isCont[i] = true
			// HarfBuzz: if ZWJ and next char is Extended_Pictographic, mark it as continuation too
			if cp == 0x200D && i+1 < n && isExtendedPictographic(buf.Info[i+1].Codepoint) {
				i++
				isCont[i] = true
			}
		} else if i > 0 && isRegionalIndicator(cp) && isRegionalIndicator(buf.Info[i-1].Codepoint) {
			// HarfBuzz: RI + RI → second RI is continuation (flag emoji pair)
			isCont[i] = true
		}
	}

	// Second pass: merge or mark clusters for grapheme groups (base + continuations)
	// HarfBuzz: hb-ot-shape.cc:583-588
	// IS_GRAPHEMES (level 0,3): merge marks into base cluster
	// !IS_GRAPHEMES (level 1,2): just mark unsafe_to_break, keep marks separate
	isGraphemes := buf.ClusterLevel == 0 || buf.ClusterLevel == 3
	start := 0
	for i := 1; i < n; i++ {
		if isCont[i] {
			continue
		}
		// This is a new base - process the previous grapheme
		if i > start+1 {
			if isGraphemes {
				buf.MergeClusters(start, i)
			}
		}
		start = i
	}
	// Process the last grapheme
	if n > start+1 {
		if isGraphemes {
			buf.MergeClusters(start, n)
		}
	}
}

// GuessSegmentProperties guesses script and direction from buffer content.
// The language is not guessed; it is left as set.
// This is similar to HarfBuzz's hb_buffer_guess_segment_properties().
func (b *Buffer) GuessSegmentProperties() {
	if len(b.Info) == 0 {
		return
	}

	// Guess script from buffer contents
	// HarfBuzz equivalent: hb_buffer_t::guess_segment_properties() in hb-buffer.cc:703-732
	if b.Script == 0 {
		for _, info := range b.Info {
			script := GetScriptTag(info.Codepoint)
			// Skip Common (0) and Inherited scripts - they don't determine the script
			if script != 0 {
				b.Script = script
				break
			}
		}
	}

	// Guess direction from script
	// HarfBuzz: props.direction = hb_script_get_horizontal_direction(props.script)
	if b.Direction == 0 {
		b.Direction = GetHorizontalDirection(b.Script)
		// If direction is still 0 (invalid), default to LTR
		if b.Direction == 0 {
			b.Direction = DirectionLTR
		}
	}
}

// GlyphIDs returns just the glyph IDs.
func (b *Buffer) GlyphIDs() []GlyphID {
	ids := make([]GlyphID, len(b.Info))
	for i, info := range b.Info {
		ids[i] = info.GlyphID
	}
	return ids
}

// Codepoints returns a slice of codepoints from the buffer.
func (b *Buffer) Codepoints() []Codepoint {
	cps := make([]Codepoint, len(b.Info))
	for i, info := range b.Info {
		cps[i] = info.Codepoint
	}
	return cps
}

// clearOutput initializes the output buffer for in-place modifications.
// HarfBuzz equivalent: hb_buffer_t::clear_output() in hb-buffer.cc:393
func (b *Buffer) clearOutput() {
	b.haveOutput = true
	b.Idx = 0
	b.outLen = 0
	// In HarfBuzz, out_info initially points to info (in-place)
	// We use a separate slice but will sync it back later
	if cap(b.outInfo) < len(b.Info) {
		b.outInfo = make([]GlyphInfo, 0, len(b.Info)+10)
	}
	b.outInfo = b.outInfo[:0]
}

// BacktrackLen returns the number of glyphs available for backtrack matching.
// HarfBuzz equivalent: hb_buffer_t::backtrack_len() in hb-buffer.hh:232
// When have_output is true, this returns out_len (output buffer size).
// When have_output is false, this returns idx (current position in input).
func (b *Buffer) BacktrackLen() int {
	if b.haveOutput {
		return b.outLen
	}
	return b.Idx
}

// BacktrackInfo returns the GlyphInfo at the given backtrack position.
// HarfBuzz: prev() uses out_info when have_output is true.
// This is needed because backtrack matching uses the output buffer, not input!
func (b *Buffer) BacktrackInfo(pos int) *GlyphInfo {
	if b.haveOutput {
		if pos < 0 || pos >= b.outLen {
			return nil
		}
		return &b.outInfo[pos]
	}
	// No output buffer, use input buffer
	if pos < 0 || pos >= len(b.Info) {
		return nil
	}
	return &b.Info[pos]
}

// HaveOutput returns whether the buffer is in output mode.
func (b *Buffer) HaveOutput() bool {
	return b.haveOutput
}

// nextGlyph copies the current glyph (at Idx) to output and advances Idx.
// HarfBuzz equivalent: hb_buffer_t::next_glyph() in hb-buffer.hh:350-364
func (b *Buffer) nextGlyph() {
	if b.haveOutput {
		// Copy current glyph info to output (preserves cluster!)
		b.outInfo = append(b.outInfo, b.Info[b.Idx])
		b.outLen++
	}
	b.Idx++
}

// outputGlyph inserts a glyph into output without advancing Idx.
// The new glyph inherits properties from the current glyph (Idx).
// HarfBuzz equivalent: hb_buffer_t::output_glyph() in hb-buffer.hh:328-329
//
// This is equivalent to replace_glyphs(0, 1, &glyph) in HarfBuzz:
// - Copies all properties (cluster, mask, etc.) from current glyph
// - Sets the new GlyphID
// - Adds to output buffer
// - Does NOT advance Idx (caller must do that)
func (b *Buffer) outputGlyph(glyphID GlyphID) {
	// Copy current glyph's properties (preserves cluster!)
	// HarfBuzz: *pinfo = orig_info (hb-buffer.hh:314)
	info := b.Info[b.Idx]
	info.GlyphID = glyphID
	b.outInfo = append(b.outInfo, info)
	b.outLen++
}

// replaceGlyphs replaces numIn input glyphs with numOut output glyphs.
// HarfBuzz equivalent: hb_buffer_t::replace_glyphs() in hb-buffer.hh:319-327
func (b *Buffer) replaceGlyphs(numIn, numOut int, codepoints []Codepoint) {
	for i := 0; i < numOut; i++ {
		info := b.Info[b.Idx]
		info.Codepoint = codepoints[i]
		info.GlyphID = 0
		b.outInfo = append(b.outInfo, info)
		b.outLen++
	}
	b.Idx += numIn
}

// outputInfo appends a GlyphInfo directly to the output buffer.
// Unlike outputGlyph(), this does NOT copy from current glyph.
// HarfBuzz equivalent: hb_buffer_t::output_info() in hb-buffer.hh:331
func (b *Buffer) outputInfo(info GlyphInfo) {
	b.outInfo = append(b.outInfo, info)
	b.outLen++
}

// sync finalizes the output buffer and replaces Info with the output.
// HarfBuzz equivalent: hb_buffer_t::sync() in hb-buffer.cc:416
func (b *Buffer) sync() {
	if !b.haveOutput {
		return
	}

	// Copy any remaining glyphs from input to output
	for b.Idx < len(b.Info) {
		b.nextGlyph()
	}

	// Replace Info with output
	b.Info = make([]GlyphInfo, len(b.outInfo))
	copy(b.Info, b.outInfo)

	// Reset output state
	b.haveOutput = false
	b.outLen = 0
	b.Idx = 0

	// Recreate Pos array with correct length
	b.Pos = make([]GlyphPos, len(b.Info))
}

// deleteGlyphsInplace removes glyphs from the buffer that match the filter.
// This is used for removing default ignorables after shaping.
// HarfBuzz equivalent: hb_buffer_t::delete_glyphs_inplace() in hb-buffer.cc:656-700
func (b *Buffer) deleteGlyphsInplace(filter func(*GlyphInfo) bool) {
	// Merge clusters and delete filtered glyphs.
	// NOTE: We can't use out-buffer as we have positioning data.
	j := 0
	count := len(b.Info)
	for i := 0; i < count; i++ {
		if filter(&b.Info[i]) {
			// Merge clusters.
			// Same logic as delete_glyph(), but for in-place removal.
			cluster := b.Info[i].Cluster
			if i+1 < count && cluster == b.Info[i+1].Cluster {
				continue // Cluster survives; do nothing.
			}

			if j > 0 {
				// Merge cluster backward.
				if cluster < b.Info[j-1].Cluster {
					mask := b.Info[i].Mask
					oldCluster := b.Info[j-1].Cluster
					for k := j; k > 0 && b.Info[k-1].Cluster == oldCluster; k-- {
						b.Info[k-1].Cluster = cluster
						b.Info[k-1].Mask = mask
					}
				}
				continue
			}

			if i+1 < count {
				// Merge cluster forward.
				b.MergeClusters(i, i+2)
			}
			continue
		}

		if j != i {
			b.Info[j] = b.Info[i]
			b.Pos[j] = b.Pos[i]
		}
		j++
	}
	b.Info = b.Info[:j]
	b.Pos = b.Pos[:j]
}

// shiftForward shifts glyphs in the Info array forward by count positions.
// This is used during buffer rewinding when idx < count.
// HarfBuzz equivalent: hb_buffer_t::shift_forward() in hb-buffer.cc:225-252
func (b *Buffer) shiftForward(count int) bool {
	if !b.haveOutput {
		return false
	}

	// Calculate new length
	oldLen := len(b.Info)
	newLen := oldLen + count

	// Extend Info slice to accommodate shifted elements
	if cap(b.Info) < newLen {
		// Need to allocate more space
		newInfo := make([]GlyphInfo, newLen)
		copy(newInfo, b.Info[:b.Idx])
		copy(newInfo[b.Idx+count:], b.Info[b.Idx:])
		b.Info = newInfo
	} else {
		// Have enough capacity, just extend and shift
		b.Info = b.Info[:newLen]
		// Shift Info[Idx:oldLen] to Info[Idx+count:]
		copy(b.Info[b.Idx+count:], b.Info[b.Idx:oldLen])
	}

	// Clear the gap if idx + count > oldLen
	// HarfBuzz: hb_memset (info + len, 0, (idx + count - len) * sizeof (info[0]));
	if b.Idx+count > oldLen {
		for j := oldLen; j < b.Idx+count; j++ {
			b.Info[j] = GlyphInfo{}
		}
	}

	// Advance idx
	b.Idx += count

	return true
}

// moveTo moves the buffer position to output index i.
// If i > outLen, this copies glyphs from input to output to reach position i.
// If i < outLen, this rewinds by moving glyphs from output back to input.
// HarfBuzz equivalent: hb_buffer_t::move_to() in hb-buffer.cc:469-513
//
// The parameter i is an output-buffer index (distance from beginning of output).
// This function ensures that outLen reaches i by copying glyphs from input.
func (b *Buffer) moveTo(i int) bool {
	if !b.haveOutput {
		// No output buffer active, just set index
		if i > len(b.Info) {
			return false
		}
		b.Idx = i
		return true
	}

	if b.outLen < i {
		// Need to move forward: copy glyphs from input to output
		count := i - b.outLen
		if b.Idx+count > len(b.Info) {
			return false
		}

		// Copy 'count' glyphs from input[Idx:] to output
		for j := 0; j < count; j++ {
			b.outInfo = append(b.outInfo, b.Info[b.Idx])
			b.Idx++
			b.outLen++
		}
	} else if b.outLen > i {
		// Tricky part: rewinding...
		// HarfBuzz: hb-buffer.cc:491-509
		count := b.outLen - i

		// If we don't have enough space before Idx, shift forward to make room
		// HarfBuzz: if (unlikely (idx < count && !shift_forward (count - idx))) return false;
		if b.Idx < count {
			if !b.shiftForward(count - b.Idx) {
				return false
			}
		}

		// Now we have enough space: idx >= count
		b.Idx -= count
		b.outLen -= count

		// Copy glyphs from output back to input
		// HarfBuzz: memmove (info + idx, out_info + out_len, count * sizeof (out_info[0]));
		copy(b.Info[b.Idx:b.Idx+count], b.outInfo[b.outLen:b.outLen+count])

		// Truncate outInfo to outLen so subsequent append() works correctly
		// In Go, append() adds to the slice end, not to a specific index.
		// Without truncation, appended glyphs would appear after the "ghost" entries.
		b.outInfo = b.outInfo[:b.outLen]
	}
	// If outLen == i, we're already at the right position

	return true
}

// ReorderMarksCallback is a function that performs script-specific mark reordering.
// HarfBuzz equivalent: hb_ot_shaper_t::reorder_marks callback
// Parameters:
//   - info: The slice of glyph info to reorder
//   - start: Start index of the mark sequence
//   - end: End index of the mark sequence (exclusive)
type ReorderMarksCallback func(info []GlyphInfo, start, end int)

// isGDEFBlocklisted checks if a font's GDEF table is known to be broken.
// HarfBuzz equivalent: hb-ot-layout.cc:152-266 (GDEF::is_blocklisted)
// Fonts like certain versions of Times New Roman, Tahoma, Courier New, etc.
// have GDEF tables that incorrectly classify base glyphs as marks, causing
// their advances to be zeroed by zeroMarkWidthsByGDEF.
func isGDEFBlocklisted(gdefLen, gsubLen, gposLen int) bool {
	// HarfBuzz uses HB_CODEPOINT_ENCODE3(x,y,z) = (x<<42)|(y<<21)|z
	key := (uint64(gdefLen) << 42) | (uint64(gsubLen) << 21) | uint64(gposLen)
	switch key {
	case (442 << 42) | (2874 << 21) | 42038, // timesi.ttf Windows 7
		(430 << 42) | (2874 << 21) | 40662,    // timesbi.ttf Windows 7
		(442 << 42) | (2874 << 21) | 39116,    // timesi.ttf Windows 7
		(430 << 42) | (2874 << 21) | 39374,    // timesbi.ttf Windows 7
		(490 << 42) | (3046 << 21) | 41638,    // Times New Roman Italic OS X 10.11.3
		(478 << 42) | (3046 << 21) | 41902,    // Times New Roman Bold Italic OS X 10.11.3
		(898 << 42) | (12554 << 21) | 46470,   // tahoma.ttf Windows 8
		(910 << 42) | (12566 << 21) | 47732,   // tahomabd.ttf Windows 8
		(928 << 42) | (23298 << 21) | 59332,   // tahoma.ttf Windows 8.1
		(940 << 42) | (23310 << 21) | 60732,   // tahomabd.ttf Windows 8.1
		(964 << 42) | (23836 << 21) | 60072,   // tahoma.ttf v6.04 Windows 8.1 x64
		(976 << 42) | (23832 << 21) | 61456,   // tahomabd.ttf v6.04 Windows 8.1 x64
		(994 << 42) | (24474 << 21) | 60336,   // tahoma.ttf Windows 10
		(1006 << 42) | (24470 << 21) | 61740,  // tahomabd.ttf Windows 10
		(1006 << 42) | (24576 << 21) | 61346,  // tahoma.ttf v6.91 Windows 10 x64
		(1018 << 42) | (24572 << 21) | 62828,  // tahomabd.ttf v6.91 Windows 10 x64
		(1006 << 42) | (24576 << 21) | 61352,  // tahoma.ttf Windows 10 AU
		(1018 << 42) | (24572 << 21) | 62834,  // tahomabd.ttf Windows 10 AU
		(832 << 42) | (7324 << 21) | 47162,    // Tahoma.ttf Mac OS X 10.9
		(844 << 42) | (7302 << 21) | 45474,    // Tahoma Bold.ttf Mac OS X 10.9
		(180 << 42) | (13054 << 21) | 7254,    // himalaya.ttf Windows 7
		(192 << 42) | (12638 << 21) | 7254,    // himalaya.ttf Windows 8
		(192 << 42) | (12690 << 21) | 7254,    // himalaya.ttf Windows 8.1
		(188 << 42) | (248 << 21) | 3852,      // Cantarell-Regular/Oblique 0.0.21
		(188 << 42) | (264 << 21) | 3426,      // Cantarell-Bold/Bold-Oblique 0.0.21
		(1058 << 42) | (47032 << 21) | 11818,  // Padauk.ttf RHEL 7.2
		(1046 << 42) | (47030 << 21) | 12600,  // Padauk-Bold.ttf RHEL 7.2
		(1058 << 42) | (71796 << 21) | 16770,  // Padauk.ttf Ubuntu 16.04
		(1046 << 42) | (71790 << 21) | 17862,  // Padauk-Bold.ttf Ubuntu 16.04
		(1046 << 42) | (71788 << 21) | 17112,  // Padauk-book.ttf 2.80
		(1058 << 42) | (71794 << 21) | 17514,  // Padauk-bookbold.ttf 2.80
		(1330 << 42) | (109904 << 21) | 57938, // Padauk-book.ttf 3.0
		(1330 << 42) | (109904 << 21) | 58972, // Padauk-bookbold.ttf 3.0
		(1004 << 42) | (59092 << 21) | 14836,  // Padauk.ttf v2.5
		(588 << 42) | (5078 << 21) | 14418,    // Courier New.ttf macOS 15
		(588 << 42) | (5078 << 21) | 14238,    // Courier New Bold.ttf macOS 15
		(894 << 42) | (17162 << 21) | 33960,   // cour.ttf Windows 10
		(894 << 42) | (17154 << 21) | 34472,   // courbd.ttf Windows 10
		(816 << 42) | (7868 << 21) | 17052,    // cour.ttf Windows 8.1
		(816 << 42) | (7868 << 21) | 17138:    // courbd.ttf Windows 8.1
		return true
	}
	return false
}
