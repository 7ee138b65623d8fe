package ot

import (
	"os"
	"testing"

	"github.com/glyphkit/shaper/internal/testutil"
)

func TestReverseBuffer(t *testing.T) {
	buf := NewBuffer()
	buf.AddCodepoints([]Codepoint{'a', 'b', 'c'})
	buf.Pos = make([]GlyphPos, len(buf.Info))
	for i := range buf.Info {
		buf.Info[i].Cluster = i
	}

	s := &Shaper{}
	s.reverseBuffer(buf)

	want := []int{2, 1, 0}
	for i, w := range want {
		if buf.Info[i].Cluster != w {
			t.Errorf("Info[%d].Cluster = %d, want %d", i, buf.Info[i].Cluster, w)
		}
	}
}

func TestReverseClustersPreservesClusterOrder(t *testing.T) {
	buf := NewBuffer()
	// Two clusters, the first spanning two glyphs (e.g. a base + mark) and
	// the second a single glyph.
	buf.Info = []GlyphInfo{
		{Codepoint: 'a', Cluster: 0},
		{Codepoint: 'b', Cluster: 0},
		{Codepoint: 'c', Cluster: 1},
	}
	buf.Pos = make([]GlyphPos, len(buf.Info))

	s := &Shaper{}
	s.reverseClusters(buf)

	if len(buf.Info) != 3 {
		t.Fatalf("expected 3 glyphs, got %d", len(buf.Info))
	}
	// Clusters reverse order (1 before 0), but glyph order *within* cluster 0
	// ('a' then 'b') must survive intact.
	if buf.Info[0].Cluster != 1 || buf.Info[0].Codepoint != 'c' {
		t.Errorf("Info[0] = %+v, want cluster 1 codepoint 'c'", buf.Info[0])
	}
	if buf.Info[1].Cluster != 0 || buf.Info[1].Codepoint != 'a' {
		t.Errorf("Info[1] = %+v, want cluster 0 codepoint 'a'", buf.Info[1])
	}
	if buf.Info[2].Cluster != 0 || buf.Info[2].Codepoint != 'b' {
		t.Errorf("Info[2] = %+v, want cluster 0 codepoint 'b'", buf.Info[2])
	}
}

func TestHasMongolianScript(t *testing.T) {
	s := &Shaper{}
	buf := NewBuffer()
	buf.Script = MakeTag('M', 'o', 'n', 'g')
	if !s.hasMongolianScript(buf) {
		t.Error("expected Mongolian script to be detected")
	}
	buf.Script = MakeTag('A', 'r', 'a', 'b')
	if s.hasMongolianScript(buf) {
		t.Error("expected Arabic script not to be detected as Mongolian")
	}
}

func TestGetDefaultGSUBFeaturesDirection(t *testing.T) {
	s := &Shaper{}

	ltr := s.getDefaultGSUBFeatures(DirectionLTR)
	rtl := s.getDefaultGSUBFeatures(DirectionRTL)

	hasTag := func(features []Feature, tag Tag) bool {
		for _, f := range features {
			if f.Tag == tag {
				return true
			}
		}
		return false
	}

	if !hasTag(ltr, MakeTag('l', 't', 'r', 'a')) {
		t.Error("LTR default features should include ltra")
	}
	if hasTag(ltr, MakeTag('r', 't', 'l', 'a')) {
		t.Error("LTR default features should not include rtla")
	}
	if !hasTag(rtl, MakeTag('r', 't', 'l', 'a')) {
		t.Error("RTL default features should include rtla")
	}
	if hasTag(rtl, MakeTag('l', 't', 'r', 'a')) {
		t.Error("RTL default features should not include ltra")
	}
}

func TestZeroMarkWidthsByGDEF(t *testing.T) {
	gdef := &GDEF{glyphClassDef: &ClassDef{format: 1, startGlyph: 3, classValues: []uint16{GlyphClassMark}}}
	s := &Shaper{gdef: gdef}

	buf := NewBuffer()
	buf.Info = []GlyphInfo{{GlyphID: 1}, {GlyphID: 3}}
	buf.Pos = []GlyphPos{{XAdvance: 500}, {XAdvance: 500}}

	s.zeroMarkWidthsByGDEF(buf)

	if buf.Pos[0].XAdvance != 500 {
		t.Errorf("non-mark glyph advance changed: got %d", buf.Pos[0].XAdvance)
	}
	if buf.Pos[1].XAdvance != 0 {
		t.Errorf("mark glyph advance not zeroed: got %d", buf.Pos[1].XAdvance)
	}
}

func TestShapeEndToEnd(t *testing.T) {
	path := testutil.FindTestFont("Roboto-Regular.ttf")
	if path == "" {
		t.Skip("Roboto-Regular.ttf not found")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading font: %v", err)
	}
	shaper, err := NewShaperFromFace(data)
	if err != nil {
		t.Fatalf("parsing font: %v", err)
	}

	buf := NewBuffer()
	buf.AddCodepoints([]Codepoint{'H', 'i'})
	buf.Direction = DirectionLTR
	buf.Script = MakeTag('L', 'a', 't', 'n')

	shaper.Shape(buf, nil)

	if len(buf.Info) == 0 {
		t.Fatal("expected at least one glyph")
	}
	if len(buf.Pos) != len(buf.Info) {
		t.Fatalf("Pos/Info length mismatch: %d vs %d", len(buf.Pos), len(buf.Info))
	}
}
