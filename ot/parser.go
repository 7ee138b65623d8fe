package ot

import (
	"encoding/binary"
	"errors"
)

// Shared sentinel errors returned while parsing sfnt/OpenType table bytes.
var (
	ErrInvalidFont   = errors.New("ot: invalid font data")
	ErrInvalidTable  = errors.New("ot: invalid table data")
	ErrInvalidFormat = errors.New("ot: unsupported table format")
	ErrInvalidOffset = errors.New("ot: offset out of range")
	ErrTableNotFound = errors.New("ot: table not found")
)

// Parser is a small sequential big-endian cursor over table bytes, used by
// the table headers that are easier to read field-by-field than via direct
// binary.BigEndian offsets (the GSUB/GPOS version headers).
type Parser struct {
	data []byte
	pos  int
}

// NewParser wraps data for sequential reads starting at offset 0.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Pos returns the current read cursor.
func (p *Parser) Pos() int { return p.pos }

// Len returns the number of unread bytes remaining.
func (p *Parser) Len() int { return len(p.data) - p.pos }

// Skip advances the cursor by n bytes.
func (p *Parser) Skip(n int) {
	p.pos += n
}

// SeekTo moves the cursor to an absolute offset.
func (p *Parser) SeekTo(off int) {
	p.pos = off
}

// U8 reads one byte.
func (p *Parser) U8() (uint8, error) {
	if p.pos+1 > len(p.data) {
		return 0, ErrInvalidOffset
	}
	v := p.data[p.pos]
	p.pos++
	return v, nil
}

// U16 reads a big-endian uint16.
func (p *Parser) U16() (uint16, error) {
	if p.pos+2 > len(p.data) {
		return 0, ErrInvalidOffset
	}
	v := binary.BigEndian.Uint16(p.data[p.pos:])
	p.pos += 2
	return v, nil
}

// I16 reads a big-endian int16.
func (p *Parser) I16() (int16, error) {
	v, err := p.U16()
	return int16(v), err
}

// U32 reads a big-endian uint32.
func (p *Parser) U32() (uint32, error) {
	if p.pos+4 > len(p.data) {
		return 0, ErrInvalidOffset
	}
	v := binary.BigEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return v, nil
}

// Tag reads a four-byte Tag.
func (p *Parser) Tag() (Tag, error) {
	v, err := p.U32()
	return Tag(v), err
}

// Bytes returns the next n bytes without copying.
func (p *Parser) Bytes(n int) ([]byte, error) {
	if p.pos+n > len(p.data) {
		return nil, ErrInvalidOffset
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}
