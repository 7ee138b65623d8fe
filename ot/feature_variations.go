package ot

import "encoding/binary"

// VariationsNotFoundIndex marks the absence of a matching FeatureVariations
// record, or the absence of a FeatureVariations table altogether.
// HarfBuzz equivalent: HB_OT_LAYOUT_NO_VARIATIONS_INDEX in hb-ot-layout.h.
const VariationsNotFoundIndex uint32 = 0xFFFFFFFF

// FeatureVariations holds a GSUB/GPOS FeatureVariations table: a list of
// condition sets paired with feature-substitution tables, used to swap in
// alternate lookups for a feature at particular variable-font design
// coordinates.
// HarfBuzz equivalent: OT::FeatureVariations in hb-ot-layout-common.hh.
//
// This port does not parse fvar/avar/gvar and never resolves non-default
// variation-space coordinates, so FindIndex always reports no match; the
// table is still parsed faithfully so that fonts carrying a FeatureVariations
// block (even unused) are read without error.
type FeatureVariations struct {
	data    []byte
	base    int
	records []featureVariationRecord
}

type featureVariationRecord struct {
	conditionSetOffset         uint32
	featureTableSubstOffset    uint32
}

// ParseFeatureVariations parses a FeatureVariations table at the given
// offset into data.
func ParseFeatureVariations(data []byte, offset int) (*FeatureVariations, error) {
	if offset < 0 || offset+8 > len(data) {
		return nil, ErrInvalidOffset
	}
	major := binary.BigEndian.Uint16(data[offset:])
	minor := binary.BigEndian.Uint16(data[offset+2:])
	if major != 1 || minor != 0 {
		return nil, ErrInvalidFormat
	}
	count := int(binary.BigEndian.Uint32(data[offset+4:]))
	recordsOff := offset + 8
	if recordsOff+count*8 > len(data) {
		return nil, ErrInvalidOffset
	}

	fv := &FeatureVariations{data: data, base: offset}
	fv.records = make([]featureVariationRecord, count)
	for i := 0; i < count; i++ {
		p := recordsOff + i*8
		fv.records[i] = featureVariationRecord{
			conditionSetOffset:      binary.BigEndian.Uint32(data[p:]),
			featureTableSubstOffset: binary.BigEndian.Uint32(data[p+4:]),
		}
	}
	return fv, nil
}

// FindIndex returns the index of the first FeatureVariationRecord whose
// condition set is satisfied by coords, or VariationsNotFoundIndex if none
// matches (always the case here, since variable-font coordinates are never
// non-default in this port).
func (fv *FeatureVariations) FindIndex(coords []int) uint32 {
	if fv == nil {
		return VariationsNotFoundIndex
	}
	return VariationsNotFoundIndex
}

// GetSubstituteLookups returns the replacement lookup indices for
// featureIndex under the FeatureVariationRecord at variationsIndex, or nil
// if that record carries no substitution for the feature.
func (fv *FeatureVariations) GetSubstituteLookups(variationsIndex uint32, featureIndex uint16) []uint16 {
	if fv == nil || int(variationsIndex) >= len(fv.records) {
		return nil
	}
	rec := fv.records[variationsIndex]
	if rec.featureTableSubstOffset == 0 {
		return nil
	}
	substBase := fv.base + int(rec.featureTableSubstOffset)
	if substBase+6 > len(fv.data) {
		return nil
	}
	major := binary.BigEndian.Uint16(fv.data[substBase:])
	minor := binary.BigEndian.Uint16(fv.data[substBase+2:])
	if major != 1 || minor != 0 {
		return nil
	}
	count := int(binary.BigEndian.Uint16(fv.data[substBase+4:]))
	recOff := substBase + 6
	for i := 0; i < count; i++ {
		p := recOff + i*6
		if p+6 > len(fv.data) {
			break
		}
		featIdx := binary.BigEndian.Uint16(fv.data[p:])
		if uint16(featIdx) != featureIndex {
			continue
		}
		altFeatOff := binary.BigEndian.Uint32(fv.data[p+2:])
		if altFeatOff == 0 {
			return nil
		}
		altBase := substBase + int(altFeatOff)
		if altBase+4 > len(fv.data) {
			return nil
		}
		lookupCount := int(binary.BigEndian.Uint16(fv.data[altBase+2:]))
		if altBase+4+lookupCount*2 > len(fv.data) {
			return nil
		}
		lookups := make([]uint16, lookupCount)
		for j := 0; j < lookupCount; j++ {
			lookups[j] = binary.BigEndian.Uint16(fv.data[altBase+4+j*2:])
		}
		return lookups
	}
	return nil
}
