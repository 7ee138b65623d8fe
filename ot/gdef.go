package ot

import "encoding/binary"

// GDEF represents a parsed Glyph Definition table: glyph class
// assignments, mark-attachment classes, and mark glyph sets used by
// lookup-flag filtering during GSUB/GPOS application.
// HarfBuzz equivalent: OT::GDEF in hb-ot-layout-gdef-table.hh.
type GDEF struct {
	majorVersion       uint16
	minorVersion       uint16
	glyphClassDef      *ClassDef
	markAttachClassDef *ClassDef
	markGlyphSets      []*Coverage
	hasAttachList      bool
	hasLigCaretList    bool
}

// GDEF glyph class values, as stored in the GlyphClassDef ClassDef table.
// These double as the GlyphClass* constants consulted throughout GSUB/GPOS
// lookup-flag filtering (shouldSkipGlyph in gpos.go).
const (
	GlyphClassUnclassified = 0
	GlyphClassBase         = 1
	GlyphClassLigature     = 2
	GlyphClassMark         = 3
	GlyphClassComponent    = 4

	GDEFClassBase      = GlyphClassBase
	GDEFClassLigature  = GlyphClassLigature
	GDEFClassMark      = GlyphClassMark
	GDEFClassComponent = GlyphClassComponent
)

// ParseGDEF parses a GDEF table.
func ParseGDEF(data []byte) (*GDEF, error) {
	if len(data) < 12 {
		return nil, ErrInvalidTable
	}
	majorVersion := binary.BigEndian.Uint16(data[0:])
	minorVersion := binary.BigEndian.Uint16(data[2:])
	if majorVersion != 1 {
		return nil, ErrInvalidFormat
	}

	attachListOff := binary.BigEndian.Uint16(data[6:])
	ligCaretListOff := binary.BigEndian.Uint16(data[8:])
	glyphClassOff := binary.BigEndian.Uint16(data[4:])
	markAttachOff := binary.BigEndian.Uint16(data[10:])

	g := &GDEF{
		majorVersion:    majorVersion,
		minorVersion:    minorVersion,
		hasAttachList:   attachListOff != 0,
		hasLigCaretList: ligCaretListOff != 0,
	}

	if glyphClassOff != 0 && int(glyphClassOff) < len(data) {
		cd, err := ParseClassDef(data, int(glyphClassOff))
		if err == nil {
			g.glyphClassDef = cd
		}
	}

	if markAttachOff != 0 && int(markAttachOff) < len(data) {
		cd, err := ParseClassDef(data, int(markAttachOff))
		if err == nil {
			g.markAttachClassDef = cd
		}
	}

	// MarkGlyphSetsDef was added in GDEF 1.2.
	if minorVersion >= 2 && len(data) >= 14 {
		markGlyphSetsOff := binary.BigEndian.Uint16(data[12:])
		if markGlyphSetsOff != 0 && int(markGlyphSetsOff)+4 <= len(data) {
			base := int(markGlyphSetsOff)
			count := int(binary.BigEndian.Uint16(data[base+2:]))
			sets := make([]*Coverage, 0, count)
			for i := 0; i < count; i++ {
				entryOff := base + 4 + i*4
				if entryOff+4 > len(data) {
					break
				}
				covOff := binary.BigEndian.Uint32(data[entryOff:])
				if covOff == 0 {
					sets = append(sets, nil)
					continue
				}
				cov, err := ParseCoverage(data, base+int(covOff))
				if err != nil {
					sets = append(sets, nil)
					continue
				}
				sets = append(sets, cov)
			}
			g.markGlyphSets = sets
		}
	}

	return g, nil
}

// HasGlyphClasses reports whether the table assigns glyph classes.
func (g *GDEF) HasGlyphClasses() bool {
	return g != nil && g.glyphClassDef != nil
}

// GetGlyphClass returns the glyph's GDEF class (GlyphClassUnclassified if none).
func (g *GDEF) GetGlyphClass(glyph GlyphID) int {
	if g == nil || g.glyphClassDef == nil {
		return GlyphClassUnclassified
	}
	return int(g.glyphClassDef.GetClass(glyph))
}

// GetMarkAttachClass returns the glyph's mark attachment class (0 if none).
func (g *GDEF) GetMarkAttachClass(glyph GlyphID) int {
	if g == nil || g.markAttachClassDef == nil {
		return 0
	}
	return int(g.markAttachClassDef.GetClass(glyph))
}

// Version returns the GDEF table's major and minor version numbers.
func (g *GDEF) Version() (int, int) {
	if g == nil {
		return 0, 0
	}
	return int(g.majorVersion), int(g.minorVersion)
}

// HasAttachList reports whether the table carries an AttachList (cursor
// attachment points); this port does not parse its contents.
func (g *GDEF) HasAttachList() bool {
	return g != nil && g.hasAttachList
}

// HasLigCaretList reports whether the table carries a LigCaretList
// (ligature caret positions); this port does not parse its contents.
func (g *GDEF) HasLigCaretList() bool {
	return g != nil && g.hasLigCaretList
}

// HasMarkAttachClasses reports whether the table assigns mark attachment classes.
func (g *GDEF) HasMarkAttachClasses() bool {
	return g != nil && g.markAttachClassDef != nil
}

// HasMarkGlyphSets reports whether the table defines mark glyph sets.
func (g *GDEF) HasMarkGlyphSets() bool {
	return g != nil && len(g.markGlyphSets) > 0
}

// MarkGlyphSetCount returns the number of mark glyph sets defined.
func (g *GDEF) MarkGlyphSetCount() int {
	if g == nil {
		return 0
	}
	return len(g.markGlyphSets)
}

// IsInMarkGlyphSet reports whether glyph is a member of the mark glyph set
// at the given index, used by lookup-flag mark-filtering-set matching.
func (g *GDEF) IsInMarkGlyphSet(glyph GlyphID, set int) bool {
	if g == nil || set < 0 || set >= len(g.markGlyphSets) {
		return false
	}
	cov := g.markGlyphSets[set]
	if cov == nil {
		return false
	}
	return cov.GetCoverage(glyph) != NotCovered
}
