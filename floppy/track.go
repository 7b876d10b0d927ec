// Floppytool - floppy disk image utility
// track.go - Track record decoding and encoding
// Dual-licensed under MIT and Apache 2.0

package floppy

import "fmt"

// DecodeTrack decodes the track record starting at data[offset:] and returns
// it together with the offset of the next record.
func DecodeTrack(data []byte, offset int) (*TrackRecord, int, error) {
	if offset < 0 || offset > len(data) {
		return nil, offset, &MalformedContainerError{Offset: offset, Cylinder: -1, Head: -1,
			Reason: fmt.Sprintf("track offset outside container of %d bytes", len(data))}
	}
	c := newCursor(data[offset:], offset)
	t, err := decodeTrack(c)
	if err != nil {
		return nil, offset, err
	}
	return t, c.Offset(), nil
}

func decodeTrack(c *cursor) (*TrackRecord, error) {
	start := c.Offset()
	hdr, err := c.Bytes(TrackHeaderSize, "track header", -1, -1)
	if err != nil {
		return nil, err
	}

	t := &TrackRecord{
		Mode:       hdr[0],
		Cylinder:   hdr[1],
		Head:       hdr[2] & headMask,
		HasCylMap:  hdr[2]&headCylinderMap != 0,
		HasHeadMap: hdr[2]&headHeadMap != 0,
		Offset:     start,
	}
	count := int(hdr[3])
	code := hdr[4]
	cyl, head := int(t.Cylinder), int(t.Head)

	if code > MaxSectorSizeCode {
		return nil, &InvalidSectorSizeError{Code: code, Size: -1, Cylinder: t.Cylinder, Head: t.Head, Offset: start + 4}
	}
	t.SectorSize = 128 << code

	mapOffset := c.Offset()
	if t.SectorIDs, err = c.Bytes(count, "sector-id map", cyl, head); err != nil {
		return nil, err
	}
	if err := checkSectorIDs(t.SectorIDs); err != nil {
		return nil, &MalformedContainerError{Offset: mapOffset, Cylinder: cyl, Head: head, Reason: err.Error()}
	}

	// The cylinder and head maps are consumed but not interpreted.
	if t.HasCylMap {
		if err := c.Skip(count, "cylinder map", cyl, head); err != nil {
			return nil, err
		}
	}
	if t.HasHeadMap {
		if err := c.Skip(count, "head map", cyl, head); err != nil {
			return nil, err
		}
	}

	size := int(t.SectorSize)
	t.Sectors = make([]SectorRecord, count)
	for i := 0; i < count; i++ {
		typeOffset := c.Offset()
		typ, err := c.Byte("sector type", cyl, head)
		if err != nil {
			return nil, err
		}

		switch SectorType(typ) {
		case SectorNormal:
			payload, err := c.Bytes(size, fmt.Sprintf("sector %d data", t.SectorIDs[i]), cyl, head)
			if err != nil {
				return nil, err
			}
			t.Sectors[i] = SectorRecord{Type: SectorNormal, Data: payload}
		case SectorCompressed:
			fill, err := c.Byte(fmt.Sprintf("sector %d fill byte", t.SectorIDs[i]), cyl, head)
			if err != nil {
				return nil, err
			}
			t.Sectors[i] = SectorRecord{Type: SectorCompressed, Fill: fill, Data: filled(fill, size)}
		default:
			// Payload length of other types is undefined, so the stream cannot be resynchronized.
			return nil, &UnsupportedSectorTypeError{Type: typ, Cylinder: t.Cylinder, Head: t.Head, Slot: i, Offset: typeOffset}
		}
	}

	t.EncodedBytes = c.Offset() - start
	return t, nil
}

// TrackSpec describes a track to encode.
// A nil SectorIDs encodes the canonical ordering 1..SectorsPerTrack.
type TrackSpec struct {
	Mode            uint8
	Cylinder        uint8
	Head            uint8
	SectorsPerTrack uint8
	SectorSize      uint16
	SectorIDs       []byte
}

// EncodeTrack encodes one track's raw bytes, given in physical sector order,
// and returns the record together with the number of sectors stored compressed.
func EncodeTrack(spec TrackSpec, data []byte) ([]byte, int, error) {
	size := int(spec.SectorSize)
	code, err := SectorSizeCode(size)
	if err != nil {
		return nil, 0, err
	}
	count := int(spec.SectorsPerTrack)
	if len(data) != count*size {
		return nil, 0, fmt.Errorf("track cyl %d, head %d: have %d bytes, need %d for %d sectors of %d bytes",
			spec.Cylinder, spec.Head, len(data), count*size, count, size)
	}

	ids := spec.SectorIDs
	if ids == nil {
		ids = canonicalIDs(count)
	}
	if len(ids) != count {
		return nil, 0, fmt.Errorf("track cyl %d, head %d: sector-id map has %d entries, geometry has %d sectors",
			spec.Cylinder, spec.Head, len(ids), count)
	}
	if err := checkSectorIDs(ids); err != nil {
		return nil, 0, fmt.Errorf("track cyl %d, head %d: %w", spec.Cylinder, spec.Head, err)
	}

	out := make([]byte, 0, TrackHeaderSize+count+count*(size+1))
	out = append(out, spec.Mode, spec.Cylinder, spec.Head&headMask, byte(count), code)
	out = append(out, ids...)

	compressed := 0
	for _, id := range ids {
		chunk := data[(int(id)-1)*size : int(id)*size]
		if isUniform(chunk) {
			out = append(out, byte(SectorCompressed), chunk[0])
			compressed++
		} else {
			out = append(out, byte(SectorNormal))
			out = append(out, chunk...)
		}
	}
	return out, compressed, nil
}

// checkSectorIDs requires ids to be a permutation of 1..len(ids), which is
// what placing slot i at physical index ids[i]-1 needs.
func checkSectorIDs(ids []byte) error {
	seen := make([]bool, len(ids))
	for i, id := range ids {
		if id == 0 || int(id) > len(ids) {
			return fmt.Errorf("sector id %d in slot %d outside 1..%d; only maps numbered 1..%d can be placed in a linear image",
				id, i, len(ids), len(ids))
		}
		if seen[id-1] {
			return fmt.Errorf("duplicate sector id %d in slot %d", id, i)
		}
		seen[id-1] = true
	}
	return nil
}

func canonicalIDs(n int) []byte {
	ids := make([]byte, n)
	for i := range ids {
		ids[i] = byte(i + 1)
	}
	return ids
}

func isUniform(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, b := range data[1:] {
		if b != data[0] {
			return false
		}
	}
	return true
}

func filled(b byte, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}
