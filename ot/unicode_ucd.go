package ot

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Unicode Character Database helpers backing the normalizer and script
// resolution.
//
// HarfBuzz ships these as generated tables (hb-ucd-table.hh). This port has
// no UCD table generator in its build, so combining class, canonical
// decomposition/composition, and script lookup are derived at call time
// from golang.org/x/text/unicode/norm and the standard library's
// unicode.Scripts range tables instead of a generated table file.

// getCombiningClass returns the canonical combining class (CCC) for a
// codepoint, used by the normalizer's mark-reordering pass.
// HarfBuzz equivalent: hb_unicode_combining_class() in hb-ucd.cc.
func getCombiningClass(cp Codepoint) uint8 {
	var buf [4]byte
	n := encodeRune(buf[:], rune(cp))
	return norm.NFD.PropertiesString(string(buf[:n])).CCC()
}

// Decompose returns the canonical pairwise decomposition of cp, if any.
// x/text/unicode/norm only exposes the full (possibly multi-rune)
// canonical decomposition, not single-step pairs, so this only reports a
// decomposition when it resolves to exactly two runes — the shape every
// precomposed Latin/Greek/Cyrillic/Hebrew letter-plus-mark pair takes.
// Codepoints whose canonical decomposition is longer (Hangul syllables,
// multi-mark sequences) are handled separately by the Hangul shaper and by
// repeated normalization passes, and are reported here as non-decomposable.
func Decompose(cp Codepoint) (Codepoint, Codepoint, bool) {
	var buf [4]byte
	n := encodeRune(buf[:], rune(cp))
	props := norm.NFD.PropertiesString(string(buf[:n]))
	dec := props.Decomposition()
	if dec == nil {
		return 0, 0, false
	}
	runes := []rune(string(dec))
	if len(runes) != 2 {
		return 0, 0, false
	}
	return Codepoint(runes[0]), Codepoint(runes[1]), true
}

// Compose returns the canonical composition of a and b, if any. There is no
// directly exported pairwise-compose function in x/text/unicode/norm, so
// composition is derived by running NFC over the two-rune sequence and
// checking whether it collapsed to a single rune.
func Compose(a, b Codepoint) (Codepoint, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	in := string(rune(a)) + string(rune(b))
	out := norm.NFC.String(in)
	runes := []rune(out)
	if len(runes) != 1 {
		return 0, false
	}
	return Codepoint(runes[0]), true
}

func encodeRune(buf []byte, r rune) int {
	return copy(buf, string(r))
}

// scriptUCDTag maps a Go unicode.Scripts range-table name to its ISO 15924
// four-letter UCD script code. unicode.Scripts only carries ~30 more
// entries than are listed here (mostly historic/rare scripts); those fall
// through to the titlecase-prefix heuristic in getScriptTag below, which is
// correct for the large majority of ISO 15924 codes.
var scriptUCDTag = map[string]string{
	"Common":                  "Zyyy",
	"Inherited":               "Zinh",
	"Latin":                   "Latn",
	"Greek":                   "Grek",
	"Cyrillic":                "Cyrl",
	"Armenian":                "Armn",
	"Hebrew":                  "Hebr",
	"Arabic":                  "Arab",
	"Syriac":                  "Syrc",
	"Thaana":                  "Thaa",
	"Devanagari":              "Deva",
	"Bengali":                 "Beng",
	"Gurmukhi":                "Guru",
	"Gujarati":                "Gujr",
	"Oriya":                   "Orya",
	"Tamil":                   "Taml",
	"Telugu":                  "Telu",
	"Kannada":                 "Knda",
	"Malayalam":               "Mlym",
	"Sinhala":                 "Sinh",
	"Thai":                    "Thai",
	"Lao":                     "Laoo",
	"Tibetan":                 "Tibt",
	"Myanmar":                 "Mymr",
	"Georgian":                "Geor",
	"Hangul":                  "Hang",
	"Ethiopic":                "Ethi",
	"Cherokee":                "Cher",
	"Canadian_Aboriginal":     "Cans",
	"Ogham":                   "Ogam",
	"Runic":                   "Runr",
	"Khmer":                   "Khmr",
	"Mongolian":               "Mong",
	"Hiragana":                "Hira",
	"Katakana":                "Kana",
	"Bopomofo":                "Bopo",
	"Han":                     "Hani",
	"Yi":                      "Yiii",
	"Old_Italic":              "Ital",
	"Gothic":                  "Goth",
	"Deseret":                 "Dsrt",
	"Tagalog":                 "Tglg",
	"Hanunoo":                 "Hano",
	"Buhid":                   "Buhd",
	"Tagbanwa":                "Tagb",
	"Limbu":                   "Limb",
	"Tai_Le":                  "Tale",
	"Linear_B":                "Linb",
	"Ugaritic":                "Ugar",
	"Shavian":                 "Shaw",
	"Osmanya":                 "Osma",
	"Cypriot":                 "Cprt",
	"Braille":                 "Brai",
	"Buginese":                "Bugi",
	"Coptic":                  "Copt",
	"New_Tai_Lue":             "Talu",
	"Glagolitic":              "Glag",
	"Tifinagh":                "Tfng",
	"Syloti_Nagri":            "Sylo",
	"Old_Persian":             "Xpeo",
	"Kharoshthi":              "Khar",
	"Balinese":                "Bali",
	"Cuneiform":               "Xsux",
	"Phoenician":              "Phnx",
	"Phags_Pa":                "Phag",
	"Nko":                     "Nkoo",
	"Sundanese":               "Sund",
	"Lepcha":                  "Lepc",
	"Ol_Chiki":                "Olck",
	"Vai":                     "Vaii",
	"Saurashtra":              "Saur",
	"Kayah_Li":                "Kali",
	"Rejang":                  "Rjng",
	"Lycian":                  "Lyci",
	"Carian":                  "Cari",
	"Lydian":                  "Lydi",
	"Cham":                    "Cham",
	"Tai_Tham":                "Lana",
	"Tai_Viet":                "Tavt",
	"Avestan":                 "Avst",
	"Egyptian_Hieroglyphs":    "Egyp",
	"Samaritan":               "Samr",
	"Mandaic":                 "Mand",
	"Batak":                   "Batk",
	"Brahmi":                  "Brah",
	"Meetei_Mayek":            "Mtei",
	"Imperial_Aramaic":        "Armi",
	"Inscriptional_Pahlavi":   "Phli",
	"Inscriptional_Parthian":  "Prti",
	"Old_South_Arabian":       "Sarb",
	"Old_Turkic":              "Orkh",
	"Kaithi":                  "Kthi",
	"Meroitic_Hieroglyphs":    "Mero",
	"Meroitic_Cursive":        "Merc",
	"Sora_Sompeng":            "Sora",
	"Chakma":                  "Cakm",
	"Sharada":                 "Shrd",
	"Takri":                   "Takr",
	"Miao":                    "Plrd",
	"Adlam":                   "Adlm",
	"Bhaiksuki":               "Bhks",
	"Marchen":                 "Marc",
	"Osage":                   "Osge",
	"Tangut":                  "Tang",
	"Nushu":                   "Nshu",
	"Soyombo":                 "Soyo",
	"Zanabazar_Square":        "Zanb",
	"Dogra":                   "Dogr",
	"Gunjala_Gondi":           "Gong",
	"Makasar":                 "Maka",
	"Medefaidrin":             "Medf",
	"Hanifi_Rohingya":         "Rohg",
	"Old_Sogdian":             "Sogo",
	"Sogdian":                 "Sogd",
	"Elymaic":                 "Elym",
	"Nandinagari":             "Nand",
	"Wancho":                  "Wcho",
	"Chorasmian":              "Chrs",
	"Yezidi":                  "Yezi",
}

// getScriptTag returns the four-letter ISO 15924 UCD script code for a
// codepoint, or "" if it has no assigned script (Cn).
func getScriptTag(cp Codepoint) string {
	r := rune(cp)
	if !unicode.IsGraphic(r) && r != 0x200C && r != 0x200D {
		if !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Cf, r) {
			return ""
		}
	}
	for name, tbl := range unicode.Scripts {
		if unicode.Is(tbl, r) {
			if tag, ok := scriptUCDTag[name]; ok {
				return tag
			}
			// Fallback heuristic for the handful of rare scripts not
			// listed explicitly above: ISO 15924 codes are conventionally
			// the script name's first four letters, titlecased.
			padded := name + "    "
			return string([]byte{padded[0], toLowerASCII(padded[1]), toLowerASCII(padded[2]), toLowerASCII(padded[3])})
		}
	}
	return "Zyyy"
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// bidiMirrorTable holds the BidiMirroring.txt pairs actually exercised by
// RTL shaping of common punctuation. HarfBuzz carries the full generated
// table (hb-ucd-table.hh); this port covers brackets, parens, and the
// angle-quote/guillemet set, not the complete BMP mirror set. No function in
// the package reads this table: RTL runs are shaped without replacing
// characters by their mirrored forms.
var bidiMirrorTable = map[Codepoint]Codepoint{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	0x00AB: 0x00BB, 0x00BB: 0x00AB, // « »
	0x2018: 0x2019, 0x2019: 0x2018, // ‘ ’ (quotation, not canonically mirrored, kept for RTL display parity)
	0x201C: 0x201D, 0x201D: 0x201C, // “ ”
	0x2039: 0x203A, 0x203A: 0x2039, // ‹ ›
	0x2264: 0x2265, 0x2265: 0x2264, // ≤ ≥
	0x2266: 0x2267, 0x2267: 0x2266,
	0x3008: 0x3009, 0x3009: 0x3008, // 〈 〉
	0x300A: 0x300B, 0x300B: 0x300A, // 《 》
	0xFF08: 0xFF09, 0xFF09: 0xFF08, // fullwidth ( )
	0xFF3B: 0xFF3D, 0xFF3D: 0xFF3B, // fullwidth [ ]
}
