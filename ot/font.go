package ot

import (
	"encoding/binary"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// GlyphID is a font-local glyph index.
// HarfBuzz equivalent: hb_codepoint_t used as a glyph id in hb-common.h.
type GlyphID uint16

// Codepoint is a Unicode scalar value as it flows through the shaping
// pipeline (buffer text, cmap lookups, decomposition).
// HarfBuzz equivalent: hb_codepoint_t used as a Unicode codepoint in hb-common.h.
type Codepoint uint32

// Font wraps a parsed sfnt binary. Table bytes this package parses itself
// (GDEF/GSUB/GPOS/cmap/post/kern/kerx) are located with a small hand-rolled
// table-directory scan, since golang.org/x/image/font/sfnt keeps its
// directory private; glyph metrics and ink extents, which would otherwise
// require reimplementing glyf/CFF outline interpretation, are delegated to
// sfnt's GlyphAdvance/LoadGlyph.
//
// This replaces the original font layer's from-scratch TTC/DFONT container
// parsing and CFF charstring interpreter: outline extraction, font
// subsetting, and variable-font tables are not goals of this engine (see
// DESIGN.md), so sfnt's metrics/outline reader covers everything this
// port still needs beyond the tables parsed directly.
type Font struct {
	data []byte
	sf   *sfnt.Font
	buf  sfnt.Buffer

	cmap *Cmap
	hmtx *Hmtx
	glyf *Glyf
	post *PostTable
}

// ParseFont parses an sfnt binary (OpenType/TrueType; CFF- or glyf-outlined).
// faceIndex must be 0: TrueType Collection (.ttc) and Mac dfont containers,
// carried by the original multi-face font reader, are not supported by this
// port (see DESIGN.md).
func ParseFont(data []byte, faceIndex int) (*Font, error) {
	if faceIndex != 0 {
		return nil, ErrInvalidFont
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, ErrInvalidFont
	}
	f := &Font{data: data, sf: sf}

	if raw, err := f.scanTableDirectory(TagCmap); err == nil {
		f.cmap, _ = ParseCmap(raw)
	}
	f.hmtx = &Hmtx{font: f}
	f.glyf = &Glyf{font: f}
	if raw, err := f.scanTableDirectory(TagPost); err == nil {
		f.post, _ = ParsePostTable(raw)
	}

	return f, nil
}

// HasTable reports whether the font carries a table with the given tag.
func (f *Font) HasTable(tag Tag) bool {
	_, err := f.TableData(tag)
	return err == nil
}

// TableData returns the raw bytes of the table with the given tag.
func (f *Font) TableData(tag Tag) ([]byte, error) {
	return f.scanTableDirectory(tag)
}

// scanTableDirectory walks the sfnt table directory by hand; every raw
// table this package needs (GDEF/GSUB/GPOS/cmap/post/kern/kerx) is found
// this way, since sfnt.Font does not expose its directory publicly.
func (f *Font) scanTableDirectory(tag Tag) ([]byte, error) {
	data := f.data
	if len(data) < 12 {
		return nil, ErrInvalidFont
	}
	numTables := int(binary.BigEndian.Uint16(data[4:]))
	recBase := 12
	if recBase+numTables*16 > len(data) {
		return nil, ErrInvalidFont
	}
	for i := 0; i < numTables; i++ {
		rec := data[recBase+i*16:]
		recTag := Tag(binary.BigEndian.Uint32(rec))
		if recTag != tag {
			continue
		}
		off := binary.BigEndian.Uint32(rec[8:])
		length := binary.BigEndian.Uint32(rec[12:])
		end := uint64(off) + uint64(length)
		if end > uint64(len(data)) {
			return nil, ErrInvalidOffset
		}
		return data[off:end], nil
	}
	return nil, ErrTableNotFound
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	return f.sf.NumGlyphs()
}

// Upem returns the font's units-per-em, used to scale fallback-positioning
// gaps that are defined as a fraction of the em square.
func (f *Font) Upem() int {
	return int(f.sf.UnitsPerEm())
}

// HasGlyph reports whether the font's cmap maps cp to a non-notdef glyph.
func (f *Font) HasGlyph(cp Codepoint) bool {
	if f.cmap == nil {
		return false
	}
	gid, ok := f.cmap.Lookup(cp)
	return ok && gid != 0
}

// HasGlyphNames reports whether the font carries a 'post' table format
// that stores glyph names.
func (f *Font) HasGlyphNames() bool {
	return f.post != nil && f.post.HasGlyphNames()
}

// GetGlyphName returns the PostScript name of a glyph, if known.
func (f *Font) GetGlyphName(glyph GlyphID) string {
	if f.post == nil {
		return ""
	}
	return f.post.GetGlyphName(glyph)
}

// GetGlyphFromName resolves a PostScript glyph name back to a glyph id.
func (f *Font) GetGlyphFromName(name string) (GlyphID, bool) {
	if f.post == nil {
		return 0, false
	}
	return f.post.GetGlyphFromName(name)
}

// Cmap supports codepoint-to-glyph lookup. It walks 'cmap' subtable bytes
// directly (format 0/4/6/12), so it works identically whether produced by
// ParseFont (reading the font's own cmap table) or ParseCmap (parsing
// table bytes obtained independently, e.g. from a Font's TableData).
// HarfBuzz equivalent: OT::cmap in hb-ot-cmap-table.hh.
type Cmap struct {
	data []byte
}

// ParseCmap parses a standalone 'cmap' table.
func ParseCmap(data []byte) (*Cmap, error) {
	if len(data) < 4 {
		return nil, ErrInvalidTable
	}
	return &Cmap{data: data}, nil
}

// Lookup maps a Unicode codepoint to a glyph id, or ok=false if unmapped.
func (c *Cmap) Lookup(cp Codepoint) (GlyphID, bool) {
	if c == nil {
		return 0, false
	}
	return lookupCmapBytes(c.data, cp)
}

// Hmtx exposes horizontal advance widths via sfnt's metrics reader.
type Hmtx struct {
	font *Font
}

// GetAdvanceWidth returns the horizontal advance of a glyph, in font units.
func (h *Hmtx) GetAdvanceWidth(glyph GlyphID) int {
	if h == nil || h.font == nil {
		return 0
	}
	upem := fixed.Int26_6(h.font.Upem()) << 6
	adv, err := h.font.sf.GlyphAdvance(&h.font.buf, sfntGlyphIndex(glyph), upem, font.HintingNone)
	if err != nil {
		return 0
	}
	return int(adv) >> 6
}

// GlyphExtents describes a glyph's ink bounding box, in font units, matching
// HarfBuzz's hb_glyph_extents_t layout (y_bearing positive upward).
type GlyphExtents struct {
	XBearing int16
	YBearing int16
	Width    int16
	Height   int16
}

// Glyf exposes glyph ink extents via sfnt's outline reader (works for both
// glyf- and CFF-outlined fonts).
type Glyf struct {
	font *Font
}

// GetGlyphExtents returns the ink bounding box of a glyph, or ok=false if
// the glyph has no outline (e.g. space) or extents could not be computed.
func (g *Glyf) GetGlyphExtents(glyph GlyphID) (GlyphExtents, bool) {
	if g == nil || g.font == nil {
		return GlyphExtents{}, false
	}
	upem := fixed.Int26_6(g.font.Upem()) << 6
	segs, err := g.font.sf.LoadGlyph(&g.font.buf, sfntGlyphIndex(glyph), upem, nil)
	if err != nil || len(segs) == 0 {
		return GlyphExtents{}, false
	}
	const inf = fixed.Int26_6(1 << 30)
	minX, minY := inf, inf
	maxX, maxY := -inf, -inf
	seen := false
	note := func(p fixed.Point26_6) {
		seen = true
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	for _, seg := range segs {
		note(seg.Args[0])
		if seg.Op != sfnt.SegmentOpMoveTo {
			note(seg.Args[1])
		}
		if seg.Op == sfnt.SegmentOpCubeTo {
			note(seg.Args[2])
		}
	}
	if !seen {
		return GlyphExtents{}, false
	}
	// sfnt segments are in font units here (ppem == upem above) but with
	// the Y axis pointing down, so the top edge is -minY, and the height,
	// negative in hb's y-up convention, is minY - maxY.
	return GlyphExtents{
		XBearing: int16(minX >> 6),
		YBearing: int16(-minY >> 6),
		Width:    int16((maxX - minX) >> 6),
		Height:   int16((minY - maxY) >> 6),
	}, true
}

func sfntGlyphIndex(g GlyphID) sfnt.GlyphIndex {
	return sfnt.GlyphIndex(g)
}
