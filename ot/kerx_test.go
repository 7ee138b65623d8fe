package ot

import (
	"encoding/binary"
	"testing"
)

func putU32(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:], v)
}

func putU16(b []byte, off int, v uint16) {
	binary.BigEndian.PutUint16(b[off:], v)
}

func buildKerxFormat0Table(pairs [][3]uint16) []byte {
	const subtableHeader = 12
	const pairHeader = 16
	length := subtableHeader + pairHeader + len(pairs)*6
	data := make([]byte, 8+length)

	putU16(data, 0, 2) // version
	putU32(data, 4, 1) // nTables

	putU32(data, 8, uint32(length))
	putU32(data, 12, 0) // coverage: horizontal, format 0

	putU32(data, 8+subtableHeader, uint32(len(pairs)))
	off := 8 + subtableHeader + pairHeader
	for _, p := range pairs {
		putU16(data, off, p[0])
		putU16(data, off+2, p[1])
		putU16(data, off+4, p[2])
		off += 6
	}
	return data
}

func TestParseKerxFormat0(t *testing.T) {
	data := buildKerxFormat0Table([][3]uint16{
		{5, 9, 0xFFE0}, // -32
		{10, 20, 100},
	})

	kern, err := ParseKerx(data, 256)
	if err != nil {
		t.Fatalf("ParseKerx: %v", err)
	}
	if len(kern.subtables) != 1 {
		t.Fatalf("expected 1 subtable, got %d", len(kern.subtables))
	}

	if v := kern.subtables[0].KernPair(5, 9); v != -32 {
		t.Errorf("KernPair(5,9) = %d, want -32", v)
	}
	if v := kern.subtables[0].KernPair(10, 20); v != 100 {
		t.Errorf("KernPair(10,20) = %d, want 100", v)
	}
	if v := kern.subtables[0].KernPair(1, 2); v != 0 {
		t.Errorf("KernPair(1,2) = %d, want 0 for unlisted pair", v)
	}
}

func buildKerxFormat2Table() []byte {
	const subtableHeader = 12
	const fields = 16

	// Two glyph classes each side, row width covers 2 columns of int16.
	// Class lookup values are pre-multiplied byte offsets from the subtable
	// start (mirroring the legacy 'kern' format-2 convention), so they are
	// filled in below once arrayOff is known.
	rowWidth := 4

	header := make([]byte, subtableHeader+fields)
	leftOff := len(header)
	leftLookup := make([]byte, 18)
	rightOff := leftOff + len(leftLookup)
	rightLookup := make([]byte, 18)
	arrayOff := rightOff + len(rightLookup)

	// row 0 address = 0*rowWidth + arrayOff; row 1 address = 1*rowWidth + arrayOff.
	row0 := uint16(arrayOff)
	row1 := uint16(arrayOff + rowWidth)
	copy(leftLookup, []byte{
		0, 6, // format 6
		0, 4, // unitSize = 4
		0, 2, // nUnits
		0, 0, 0, 0, // binSrch header padding
		0, 3, byte(row0 >> 8), byte(row0), // glyph 3 -> row 0
		0, 4, byte(row1 >> 8), byte(row1), // glyph 4 -> row 1
	})
	copy(rightLookup, []byte{
		0, 6,
		0, 4,
		0, 2,
		0, 0, 0, 0,
		0, 7, 0, 0, // glyph 7 -> column 0
		0, 8, 0, 2, // glyph 8 -> column 1 (byte offset 2 within row)
	})

	// rowWidth is 4 bytes (2 columns of int16 each): row 0 = (0,0),(0,1);
	// row 1 = (1,0),(1,1).
	kernArray := []byte{
		0, 10, 0, 20, // class(0,0) = 10, class(0,1) = 20
		0, 30, 0, 40, // class(1,0) = 30, class(1,1) = 40
	}

	putU32(header, subtableHeader, uint32(rowWidth))
	putU32(header, subtableHeader+4, uint32(leftOff))
	putU32(header, subtableHeader+8, uint32(rightOff))
	putU32(header, subtableHeader+12, uint32(arrayOff))

	body := append(header, leftLookup...)
	body = append(body, rightLookup...)
	body = append(body, kernArray...)

	length := len(body)
	data := make([]byte, 8+length)
	putU16(data, 0, 2)
	putU32(data, 4, 1)
	putU32(data, 8, uint32(length))
	putU32(data, 12, 2) // coverage: horizontal, format 2
	copy(data[8:], body)
	return data
}

func TestParseKerxFormat2(t *testing.T) {
	data := buildKerxFormat2Table()

	kern, err := ParseKerx(data, 256)
	if err != nil {
		t.Fatalf("ParseKerx: %v", err)
	}
	if len(kern.subtables) != 1 {
		t.Fatalf("expected 1 subtable, got %d", len(kern.subtables))
	}

	sub := kern.subtables[0]
	if v := sub.KernPair(3, 7); v != 10 {
		t.Errorf("KernPair(3,7) = %d, want 10", v)
	}
	if v := sub.KernPair(4, 8); v != 40 {
		t.Errorf("KernPair(4,8) = %d, want 40", v)
	}
	if v := sub.KernPair(3, 8); v != 20 {
		t.Errorf("KernPair(3,8) = %d, want 20", v)
	}
}

func TestParseKerxSkipsVerticalAndCrossStream(t *testing.T) {
	const subtableHeader = 12
	length := subtableHeader
	data := make([]byte, 8+length)
	putU16(data, 0, 2)
	putU32(data, 4, 1)
	putU32(data, 8, uint32(length))
	putU32(data, 12, uint32(kerxCoverageVertical)) // vertical, format 0

	kern, err := ParseKerx(data, 256)
	if err != nil {
		t.Fatalf("ParseKerx: %v", err)
	}
	if len(kern.subtables) != 0 {
		t.Errorf("expected vertical subtable to be skipped, got %d subtables", len(kern.subtables))
	}
}

func TestParseKerxRejectsBadVersion(t *testing.T) {
	data := make([]byte, 8)
	putU16(data, 0, 99)
	if _, err := ParseKerx(data, 256); err == nil {
		t.Error("expected error for unsupported kerx version")
	}
}
