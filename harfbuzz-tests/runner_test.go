// Package harfbuzz_tests shapes real-world fonts end-to-end through the ot
// package and checks the invariants HarfBuzz's own test corpus checks:
// monotone clusters, non-zero glyph ids for mapped codepoints, and stable
// output across repeated shaping of the same buffer contents.
//
// Unlike the upstream HarfBuzz test-suite runner, this does not replay a
// bundled corpus of ".tests" expectation files — this port carries no font
// or golden-output corpus of its own, and fonts are located opportunistically
// via testutil.FindTestFont, skipping a test outright when a font isn't
// available on the machine running it.
package harfbuzz_tests

import (
	"os"
	"testing"

	"github.com/glyphkit/shaper/internal/testutil"
	"github.com/glyphkit/shaper/ot"
)

func loadShaper(t *testing.T, fontName string) *ot.Shaper {
	t.Helper()
	path := testutil.FindTestFont(fontName)
	if path == "" {
		t.Skipf("test font %s not found, skipping", fontName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	shaper, err := ot.NewShaperFromFace(data)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return shaper
}

func shapeString(shaper *ot.Shaper, s string, dir ot.Direction, script ot.Tag) *ot.Buffer {
	buf := ot.NewBuffer()
	cps := make([]ot.Codepoint, 0, len(s))
	for _, r := range s {
		cps = append(cps, ot.Codepoint(r))
	}
	buf.AddCodepoints(cps)
	buf.Direction = dir
	buf.Script = script
	shaper.Shape(buf, nil)
	return buf
}

func assertMonotoneClusters(t *testing.T, buf *ot.Buffer, rtl bool) {
	t.Helper()
	for i := 1; i < len(buf.Info); i++ {
		prev, cur := buf.Info[i-1].Cluster, buf.Info[i].Cluster
		if rtl {
			if cur > prev {
				t.Errorf("clusters not monotone (RTL) at %d: %d -> %d", i, prev, cur)
			}
		} else {
			if cur < prev {
				t.Errorf("clusters not monotone (LTR) at %d: %d -> %d", i, prev, cur)
			}
		}
	}
}

func TestShapeLatinBasic(t *testing.T) {
	shaper := loadShaper(t, "Roboto-Regular.ttf")
	buf := shapeString(shaper, "Hello", ot.DirectionLTR, ot.MakeTag('L', 'a', 't', 'n'))
	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
	for i, info := range buf.Info {
		if info.GlyphID == 0 {
			t.Errorf("glyph %d for codepoint %q mapped to .notdef", i, rune(info.Codepoint))
		}
	}
	assertMonotoneClusters(t, buf, false)
}

func TestShapeLatinLigature(t *testing.T) {
	shaper := loadShaper(t, "DejaVuSans.ttf")
	buf := shapeString(shaper, "office", ot.DirectionLTR, ot.MakeTag('L', 'a', 't', 'n'))
	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
	assertMonotoneClusters(t, buf, false)
}

func TestShapeArabicJoining(t *testing.T) {
	shaper := loadShaper(t, "NotoSansArabic-Regular.ttf")
	// "كتاب" (book) — four letters, each with a distinct joining form from
	// its neighbors, which collapses GSUB isol/init/medi/fina substitution
	// into fewer output glyphs than input characters only when the font
	// actually uses them, so just check the run shapes without error and
	// keeps clusters monotone right-to-left.
	buf := shapeString(shaper, "كتاب", ot.DirectionRTL, ot.MakeTag('A', 'r', 'a', 'b'))
	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
	assertMonotoneClusters(t, buf, true)
}

func TestShapeHebrewRTL(t *testing.T) {
	shaper := loadShaper(t, "NotoSansHebrew-Regular.ttf")
	buf := shapeString(shaper, "שלום", ot.DirectionRTL, ot.MakeTag('H', 'e', 'b', 'r'))
	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
	assertMonotoneClusters(t, buf, true)
}

func TestShapeDevanagariSyllable(t *testing.T) {
	shaper := loadShaper(t, "NotoSansDevanagari-Regular.ttf")
	// "हिन्दी" (Hindi), exercising reordering of the dependent vowel sign
	// and conjunct formation via the Indic shaper.
	buf := shapeString(shaper, "हिन्दी", ot.DirectionLTR, ot.MakeTag('D', 'e', 'v', 'a'))
	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
}

func TestShapeThaiNoReordering(t *testing.T) {
	shaper := loadShaper(t, "NotoSansThai-Regular.ttf")
	buf := shapeString(shaper, "สวัสดี", ot.DirectionLTR, ot.MakeTag('T', 'h', 'a', 'i'))
	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
	assertMonotoneClusters(t, buf, false)
}

func TestShapeHangulSyllableDecomposition(t *testing.T) {
	shaper := loadShaper(t, "NotoSansKR-Regular.ttf")
	// "한글" decomposes into L/V/T jamo for lookup against fonts whose GSUB
	// only covers individual jamo rather than precomposed syllables.
	buf := shapeString(shaper, "한글", ot.DirectionLTR, ot.MakeTag('H', 'a', 'n', 'g'))
	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
}

func TestShapeIsDeterministic(t *testing.T) {
	shaper := loadShaper(t, "Roboto-Regular.ttf")
	first := shapeString(shaper, "Deterministic", ot.DirectionLTR, ot.MakeTag('L', 'a', 't', 'n'))
	second := shapeString(shaper, "Deterministic", ot.DirectionLTR, ot.MakeTag('L', 'a', 't', 'n'))
	if len(first.Info) != len(second.Info) {
		t.Fatalf("glyph count differs across runs: %d vs %d", len(first.Info), len(second.Info))
	}
	for i := range first.Info {
		if first.Info[i].GlyphID != second.Info[i].GlyphID {
			t.Errorf("glyph %d differs across runs: %d vs %d", i, first.Info[i].GlyphID, second.Info[i].GlyphID)
		}
	}
}

func TestShapeEmptyBuffer(t *testing.T) {
	shaper := loadShaper(t, "Roboto-Regular.ttf")
	buf := ot.NewBuffer()
	buf.Direction = ot.DirectionLTR
	buf.Script = ot.MakeTag('L', 'a', 't', 'n')
	shaper.Shape(buf, nil)
	if len(buf.Info) != 0 {
		t.Errorf("expected no glyphs from an empty buffer, got %d", len(buf.Info))
	}
}
