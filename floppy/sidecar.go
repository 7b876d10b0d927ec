// Floppytool - floppy disk image utility
// sidecar.go - Sidecar metadata encoding
// Dual-licensed under MIT and Apache 2.0

package floppy

import "fmt"

// MarshalBinary encodes the sidecar as
//
//	<header bytes including 0x1A> {cylinder(1) head(1) id_count(1) ids(id_count)} x N
func (s *Sidecar) MarshalBinary() ([]byte, error) {
	if len(s.Header) == 0 || s.Header[len(s.Header)-1] != HeaderTerminator {
		return nil, fmt.Errorf("sidecar header must end with the 0x1A terminator")
	}
	out := append([]byte(nil), s.Header...)
	for _, t := range s.Tracks {
		if len(t.IDs) > 0xFF {
			return nil, fmt.Errorf("sidecar track cyl %d, head %d: %d sector ids do not fit a count byte",
				t.Cylinder, t.Head, len(t.IDs))
		}
		out = append(out, t.Cylinder, t.Head, byte(len(t.IDs)))
		out = append(out, t.IDs...)
	}
	return out, nil
}

// UnmarshalBinary decodes a buffer written by MarshalBinary.
func (s *Sidecar) UnmarshalBinary(data []byte) error {
	end, err := HeaderEnd(data)
	if err != nil {
		return fmt.Errorf("sidecar: %w", err)
	}

	parsed := Sidecar{Header: append([]byte(nil), data[:end+1]...)}
	c := newCursor(data[end+1:], end+1)
	for c.Remaining() > 0 {
		hdr, err := c.Bytes(3, "sidecar track entry", -1, -1)
		if err != nil {
			return fmt.Errorf("sidecar: %w", err)
		}
		ids, err := c.Bytes(int(hdr[2]), "sidecar sector ids", int(hdr[0]), int(hdr[1]))
		if err != nil {
			return fmt.Errorf("sidecar: %w", err)
		}
		parsed.Tracks = append(parsed.Tracks, TrackSectorIDs{Cylinder: hdr[0], Head: hdr[1], IDs: ids})
	}

	*s = parsed
	return nil
}

// ParseSidecar decodes a sidecar buffer.
func ParseSidecar(data []byte) (*Sidecar, error) {
	s := &Sidecar{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}
