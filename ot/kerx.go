package ot

import "encoding/binary"

// TagKerxTable is the tag for the AAT 'kerx' (extended kerning) table, the
// successor to 'kern' used by many macOS/AAT-oriented fonts that ship no
// 'kern' table at all.
var TagKerxTable = MakeTag('k', 'e', 'r', 'x')

// kerx subtable coverage bits (top byte of the 32-bit coverage field).
// HarfBuzz equivalent: coverage flags in hb-aat-layout-kerx-table.hh.
const (
	kerxCoverageVertical    = 0x80000000
	kerxCoverageCrossStream = 0x40000000
	kerxCoverageVariation   = 0x20000000
)

// ParseKerx parses an AAT 'kerx' table, returning horizontal, non-cross-
// stream pair kerning in the same Kern container the legacy 'kern' reader
// produces, so callers don't need to know which table a font actually
// shipped.
// HarfBuzz equivalent: AAT::kerx::accelerator_t in hb-aat-layout-kerx-table.hh;
// this covers subtable formats 0 (ordered glyph pairs) and 2 (class pairs),
// which the legacy 'kern' reader also supports, so a font using either
// table gets identical fallback-kerning behavior for them.
func ParseKerx(data []byte, numGlyphs int) (*Kern, error) {
	if len(data) < 8 {
		return nil, ErrInvalidTable
	}

	version := binary.BigEndian.Uint16(data)
	if version != 2 && version != 3 && version != 4 {
		return nil, ErrInvalidFormat
	}
	nTables := binary.BigEndian.Uint32(data[4:])

	offset := 8
	var subtables []kernSubtable
	for i := uint32(0); i < nTables; i++ {
		if offset+12 > len(data) {
			break
		}

		length := int(binary.BigEndian.Uint32(data[offset:]))
		coverage := binary.BigEndian.Uint32(data[offset+4:])
		format := coverage & 0xFF
		isVertical := coverage&kerxCoverageVertical != 0
		isCrossStream := coverage&kerxCoverageCrossStream != 0

		if !isVertical && !isCrossStream {
			subtableData := data[offset:]
			if length > 0 && length < len(subtableData) {
				subtableData = subtableData[:length]
			}

			var st kernSubtable
			var err error
			switch format {
			case 0:
				st, err = parseKerxFormat0(subtableData)
			case 2:
				st, err = parseKerxFormat2(subtableData, numGlyphs)
			}
			if err == nil && st != nil {
				subtables = append(subtables, st)
			}
		}

		if length <= 0 {
			break
		}
		offset += length
	}

	return &Kern{subtables: subtables}, nil
}

// kerxFormat0 is the 'kerx' ordered-pair format: a 32-bit-header analog of
// the legacy kern format 0.
// Header (after the 12-byte subtable header): nPairs(4), searchRange(4),
// entrySelector(4), rangeShift(4), then nPairs * {left(2), right(2), value(2)}.
type kerxFormat0 struct {
	pairs map[uint32]int16
}

func parseKerxFormat0(data []byte) (*kerxFormat0, error) {
	const subtableHeader = 12
	const pairHeader = 16
	if len(data) < subtableHeader+pairHeader {
		return nil, ErrInvalidTable
	}
	nPairs := int(binary.BigEndian.Uint32(data[subtableHeader:]))
	offset := subtableHeader + pairHeader

	if offset+nPairs*6 > len(data) {
		return nil, ErrInvalidTable
	}

	pairs := make(map[uint32]int16, nPairs)
	for i := 0; i < nPairs; i++ {
		left := binary.BigEndian.Uint16(data[offset:])
		right := binary.BigEndian.Uint16(data[offset+2:])
		value := int16(binary.BigEndian.Uint16(data[offset+4:]))
		pairs[uint32(left)<<16|uint32(right)] = value
		offset += 6
	}

	return &kerxFormat0{pairs: pairs}, nil
}

func (k *kerxFormat0) KernPair(left, right GlyphID) int16 {
	return k.pairs[uint32(left)<<16|uint32(right)]
}

// kerxFormat2 is the 'kerx' class-pair format, a 32-bit-offset analog of the
// legacy kern format 2: each glyph maps through a class lookup table to a
// pre-multiplied byte offset (row address for the left glyph, column
// address for the right glyph) into a 2D array of kerning values.
type kerxFormat2 struct {
	leftClasses  map[GlyphID]uint16
	rightClasses map[GlyphID]uint16
	rowWidth     int
	kernArray    []byte
	arrayOffset  int
}

func parseKerxFormat2(data []byte, numGlyphs int) (*kerxFormat2, error) {
	const subtableHeader = 12
	const fields = 16
	if len(data) < subtableHeader+fields {
		return nil, ErrInvalidTable
	}
	offset := subtableHeader
	rowWidth := int(binary.BigEndian.Uint32(data[offset:]))
	leftClassOffset := int(binary.BigEndian.Uint32(data[offset+4:]))
	rightClassOffset := int(binary.BigEndian.Uint32(data[offset+8:]))
	kernArrayOffset := int(binary.BigEndian.Uint32(data[offset+12:]))

	leftClasses, err := parseAATLookupFormat6(data, leftClassOffset)
	if err != nil {
		return nil, err
	}
	rightClasses, err := parseAATLookupFormat6(data, rightClassOffset)
	if err != nil {
		return nil, err
	}

	k := &kerxFormat2{
		leftClasses:  leftClasses,
		rightClasses: rightClasses,
		rowWidth:     rowWidth,
		arrayOffset:  kernArrayOffset,
	}
	if kernArrayOffset < len(data) {
		k.kernArray = data[kernArrayOffset:]
	}
	return k, nil
}

// parseAATLookupFormat6 reads an AAT binary-searchable lookup table (format
// 6): a small binary-search header followed by glyph-to-value pairs, sorted
// by glyph id. This is the format kerx's class subtables almost always use
// in practice.
// HarfBuzz equivalent: AAT::Lookup<T>::get_class() with format 6 in
// hb-aat-layout-common.hh.
func parseAATLookupFormat6(data []byte, offset int) (map[GlyphID]uint16, error) {
	const binSrchHeader = 10
	if offset <= 0 || offset+2 > len(data) {
		return nil, ErrInvalidTable
	}
	format := binary.BigEndian.Uint16(data[offset:])
	if format != 6 {
		// Unsupported lookup format for this scope; treat as "no classes"
		// rather than failing the whole subtable.
		return nil, nil
	}
	if offset+binSrchHeader > len(data) {
		return nil, ErrInvalidTable
	}
	unitSize := int(binary.BigEndian.Uint16(data[offset+2:]))
	nUnits := int(binary.BigEndian.Uint16(data[offset+4:]))

	classes := make(map[GlyphID]uint16, nUnits)
	base := offset + binSrchHeader
	for i := 0; i < nUnits; i++ {
		entryOff := base + i*unitSize
		if entryOff+4 > len(data) {
			break
		}
		glyph := GlyphID(binary.BigEndian.Uint16(data[entryOff:]))
		value := binary.BigEndian.Uint16(data[entryOff+2:])
		classes[glyph] = value
	}
	return classes, nil
}

// KernPair mirrors the legacy 'kern' format-2 class-table convention (see
// kernFormat2.KernPair in kern.go): class lookup values are pre-multiplied
// byte offsets from the subtable start, not small row/column indices, so
// the two values are simply summed and then rebased onto the kerning
// array. A glyph with no left-class entry defaults to row 0 (arrayOffset
// itself); one with no right-class entry defaults to column 0.
func (k *kerxFormat2) KernPair(left, right GlyphID) int16 {
	leftClass, ok := k.leftClasses[left]
	if !ok {
		leftClass = uint16(k.arrayOffset)
	}
	rightClass := k.rightClasses[right]

	address := int(leftClass) + int(rightClass)
	idx := address - k.arrayOffset
	if idx < 0 || idx+2 > len(k.kernArray) {
		return 0
	}
	return int16(binary.BigEndian.Uint16(k.kernArray[idx:]))
}
