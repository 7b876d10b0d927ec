// Floppytool - floppy disk image utility
// imd.go - Track-structured container images
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"fmt"
	"strings"
)

// StructuredImage is a container of a free-text header followed by track records.
type StructuredImage struct {
	data []byte
}

// NewStructuredImage wraps a structured container.
func NewStructuredImage(data []byte) *StructuredImage {
	return &StructuredImage{data: data}
}

func (s *StructuredImage) Kind() Kind   { return KindStructured }
func (s *StructuredImage) Data() []byte { return s.data }

// Geometry is the layout implied by the container's tracks.
func (s *StructuredImage) Geometry() (Geometry, error) {
	return AnalyzeContainer(s.data)
}

// Sectors decodes every track.
func (s *StructuredImage) Sectors(opts Options) (*Decoded, error) {
	return DecodeContainer(s.data, opts)
}

// HeaderText is the container header without its terminator.
func (s *StructuredImage) HeaderText() (string, error) {
	end, err := HeaderEnd(s.data)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(s.data[:end]), "\r\n"), nil
}

func (s *StructuredImage) Display(ascii bool) (string, error) {
	dec, err := s.Sectors(Options{})
	if err != nil {
		return "", err
	}
	header, err := s.HeaderText()
	if err != nil {
		return "", err
	}

	lines := []string{fmt.Sprintf("Header: %s", header)}
	if !ascii {
		g, err := s.Geometry()
		if err != nil {
			return "", err
		}
		lines = append(lines, GeometryReport(g))
		for _, t := range dec.Tracks {
			compressed := t.Compressed()
			lines = append(lines, fmt.Sprintf("Cyl %d, Head %d: %d sectors (%d normal, %d compressed), size %d bytes, mode %d (%s), ids %s, %d bytes at offset %d",
				t.Cylinder, t.Head, t.SectorCount(), t.SectorCount()-compressed, compressed, t.SectorSize, t.Mode, ModeName(t.Mode),
				idList(t.SectorIDs), t.EncodedBytes, t.Offset))
		}
		lines = append(lines, fmt.Sprintf("Total sectors: %d, Compressed sectors: %d, Normal sectors: %d",
			dec.Stats.TotalSectors, dec.Stats.CompressedSectors, dec.Stats.NormalSectors()))
		return strings.Join(lines, "\n"), nil
	}

	for _, t := range dec.Tracks {
		linear := t.Linear()
		size := int(t.SectorSize)
		for n := 1; n <= t.SectorCount(); n++ {
			lines = append(lines, SectorLine(int(t.Cylinder), int(t.Head), n, size, t.Mode, linear[(n-1)*size:n*size]))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func idList(ids []byte) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
