package ot

import "encoding/binary"

// lookupCmapBytes resolves a codepoint to a glyph id by walking a raw
// 'cmap' table directly. Every Cmap lookup goes through it, whether the
// Cmap came from ParseFont or from ParseCmap. It supports the common subtable formats: 0 (byte encoding), 4
// (segment mapping, BMP), 6 (trimmed table), and 12 (segmented coverage,
// full Unicode) — the formats every test and production font in practice
// uses for Unicode cmaps.
// HarfBuzz equivalent: OT::cmap::get_glyph() in hb-ot-cmap-table.hh.
func lookupCmapBytes(data []byte, cp Codepoint) (GlyphID, bool) {
	if len(data) < 4 {
		return 0, false
	}
	numTables := int(binary.BigEndian.Uint16(data[2:]))
	if 4+numTables*8 > len(data) {
		return 0, false
	}

	bestOffset := -1
	bestScore := -1
	for i := 0; i < numTables; i++ {
		rec := data[4+i*8:]
		platformID := binary.BigEndian.Uint16(rec)
		encodingID := binary.BigEndian.Uint16(rec[2:])
		offset := int(binary.BigEndian.Uint32(rec[4:]))
		if offset <= 0 || offset >= len(data) {
			continue
		}
		score := cmapSubtableScore(platformID, encodingID)
		if score > bestScore {
			bestScore = score
			bestOffset = offset
		}
	}
	if bestOffset < 0 {
		return 0, false
	}
	return lookupCmapSubtable(data[bestOffset:], cp)
}

func cmapSubtableScore(platformID, encodingID uint16) int {
	switch {
	case platformID == 3 && encodingID == 10: // Windows, UCS-4
		return 5
	case platformID == 0 && encodingID >= 4: // Unicode, full repertoire
		return 4
	case platformID == 3 && encodingID == 1: // Windows, BMP
		return 3
	case platformID == 0: // Unicode, BMP-ish
		return 2
	case platformID == 1 && encodingID == 0: // Mac Roman
		return 1
	}
	return 0
}

func lookupCmapSubtable(data []byte, cp Codepoint) (GlyphID, bool) {
	if len(data) < 2 {
		return 0, false
	}
	format := binary.BigEndian.Uint16(data)
	switch format {
	case 0:
		return lookupCmapFormat0(data, cp)
	case 4:
		return lookupCmapFormat4(data, cp)
	case 6:
		return lookupCmapFormat6(data, cp)
	case 12:
		return lookupCmapFormat12(data, cp)
	}
	return 0, false
}

func lookupCmapFormat0(data []byte, cp Codepoint) (GlyphID, bool) {
	if cp > 255 || len(data) < 262 {
		return 0, false
	}
	g := data[6+int(cp)]
	if g == 0 {
		return 0, false
	}
	return GlyphID(g), true
}

func lookupCmapFormat4(data []byte, cp Codepoint) (GlyphID, bool) {
	if cp > 0xFFFF || len(data) < 14 {
		return 0, false
	}
	segCountX2 := int(binary.BigEndian.Uint16(data[6:]))
	segCount := segCountX2 / 2
	endCodesOff := 14
	startCodesOff := endCodesOff + segCountX2 + 2
	idDeltaOff := startCodesOff + segCountX2
	idRangeOff := idDeltaOff + segCountX2
	if idRangeOff+segCountX2 > len(data) {
		return 0, false
	}
	c := uint16(cp)
	for i := 0; i < segCount; i++ {
		end := binary.BigEndian.Uint16(data[endCodesOff+i*2:])
		if c > end {
			continue
		}
		start := binary.BigEndian.Uint16(data[startCodesOff+i*2:])
		if c < start {
			return 0, false
		}
		delta := int16(binary.BigEndian.Uint16(data[idDeltaOff+i*2:]))
		rangeOffset := int(binary.BigEndian.Uint16(data[idRangeOff+i*2:]))
		if rangeOffset == 0 {
			return GlyphID(uint16(int32(c) + int32(delta))), true
		}
		glyphOff := idRangeOff + i*2 + rangeOffset + int(c-start)*2
		if glyphOff+2 > len(data) {
			return 0, false
		}
		g := binary.BigEndian.Uint16(data[glyphOff:])
		if g == 0 {
			return 0, false
		}
		return GlyphID(uint16(int32(g) + int32(delta))), true
	}
	return 0, false
}

func lookupCmapFormat6(data []byte, cp Codepoint) (GlyphID, bool) {
	if len(data) < 10 {
		return 0, false
	}
	first := int(binary.BigEndian.Uint16(data[6:]))
	count := int(binary.BigEndian.Uint16(data[8:]))
	idx := int(cp) - first
	if idx < 0 || idx >= count {
		return 0, false
	}
	off := 10 + idx*2
	if off+2 > len(data) {
		return 0, false
	}
	g := binary.BigEndian.Uint16(data[off:])
	if g == 0 {
		return 0, false
	}
	return GlyphID(g), true
}

func lookupCmapFormat12(data []byte, cp Codepoint) (GlyphID, bool) {
	if len(data) < 16 {
		return 0, false
	}
	numGroups := int(binary.BigEndian.Uint32(data[12:]))
	base := 16
	if base+numGroups*12 > len(data) {
		return 0, false
	}
	u := uint32(cp)
	for i := 0; i < numGroups; i++ {
		g := data[base+i*12:]
		startChar := binary.BigEndian.Uint32(g)
		endChar := binary.BigEndian.Uint32(g[4:])
		startGlyph := binary.BigEndian.Uint32(g[8:])
		if u < startChar || u > endChar {
			continue
		}
		return GlyphID(startGlyph + (u - startChar)), true
	}
	return 0, false
}
