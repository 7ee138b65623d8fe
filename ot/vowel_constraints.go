package ot

// PreprocessVowelConstraints inserts a U+25CC dotted circle before any
// Brahmic dependent vowel sign (matra) that appears without a consonant,
// independent vowel, or placeholder base earlier in its cluster. It runs
// before cmap mapping, ahead of both the Indic and USE shaping pipelines.
//
// HarfBuzz equivalent: hb_preprocess_text_vowel_constraints() in
// hb-ot-shaper-vowel-constraints.cc, which consults a generated per-script
// table (derived from Unicode's documented disallowed vowel sequences, e.g.
// Bengali/Oriya/Khmer two-part dependent vowels and Malayalam's virama-led
// reordering) to flag specific invalid codepoint bigrams. This is a
// documented simplification: rather than carrying that generated table,
// the same "a combining vowel sign needs a base" invariant the table
// ultimately encodes is applied directly from GetIndicCategories, so any
// base-less matra gets a recovery dotted circle even though the exact
// codepoint pairs flagged won't match HarfBuzz's table one for one.
func PreprocessVowelConstraints(buf *Buffer) {
	if len(buf.Info) == 0 {
		return
	}

	needsBase := make([]bool, len(buf.Info))
	hasBase := false
	any := false
	for i, info := range buf.Info {
		cat, _ := GetIndicCategories(info.Codepoint)
		switch cat {
		case ICatM, ICatMPst:
			if !hasBase {
				needsBase[i] = true
				any = true
			}
			hasBase = true
		case ICatH, ICatN, ICatZWJ, ICatZWNJ, ICatSM, ICatSMPst, ICatA, ICatRS, ICatCM, ICatDOTTEDCIRCLE:
			// Transparent to base tracking: neither a base nor a
			// constraint-triggering vowel sign.
		case ICatC, ICatRa, ICatCS, ICatV, ICatPLACEHOLDER:
			hasBase = true
		default:
			hasBase = false
		}
	}
	if !any {
		return
	}

	out := make([]GlyphInfo, 0, len(buf.Info)+1)
	for i, info := range buf.Info {
		if needsBase[i] {
			dottedCircle := info
			dottedCircle.Codepoint = 0x25CC
			dottedCircle.GlyphID = 0
			dottedCircle.GlyphClass = GlyphClassUnclassified
			dottedCircle.GlyphProps = 0
			out = append(out, dottedCircle)
		}
		out = append(out, info)
	}
	buf.Info = out
	if len(buf.Pos) != 0 {
		buf.Pos = make([]GlyphPos, len(buf.Info))
	}
}
