// Floppytool - floppy disk image utility
// types.go - Type definitions for sector images and track containers
// Dual-licensed under MIT and Apache 2.0

package floppy

import "fmt"

// Constants
const (
	HeaderTerminator = 0x1A // ends the free-text header of a structured container
	TrackHeaderSize  = 5    // mode, cylinder, head, sector count, sector size code

	headCylinderMap = 0x80 // head byte flag: cylinder map follows the sector-id map
	headHeadMap     = 0x40 // head byte flag: head map follows the cylinder map
	headMask        = 0x3F
)

// Geometry describes the addressable layout of a disk.
// Mode is the data rate/encoding tag of the structured container; the codec
// only carries it through.
type Geometry struct {
	Name            string
	Cylinders       uint8
	Heads           uint8
	SectorsPerTrack uint8
	SectorSize      uint16
	Mode            uint8
}

// TotalSize is the byte length of a raw image with this geometry.
func (g Geometry) TotalSize() int {
	return int(g.Cylinders) * int(g.Heads) * int(g.SectorsPerTrack) * int(g.SectorSize)
}

// TrackSize is the byte length of one track of a raw image.
func (g Geometry) TrackSize() int {
	return int(g.SectorsPerTrack) * int(g.SectorSize)
}

// String renders the geometry in the same C,H,S,SIZE,MODE form --geometry accepts.
func (g Geometry) String() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d", g.Cylinders, g.Heads, g.SectorsPerTrack, g.SectorSize, g.Mode)
}

// SectorType is the type byte preceding each sector payload in a track record.
type SectorType uint8

const (
	SectorUnavailable SectorType = 0 // no data; not accepted by this codec
	SectorNormal      SectorType = 1 // sector_size verbatim bytes
	SectorCompressed  SectorType = 2 // one fill byte repeated sector_size times
)

func (t SectorType) String() string {
	switch t {
	case SectorUnavailable:
		return "unavailable"
	case SectorNormal:
		return "normal"
	case SectorCompressed:
		return "compressed"
	default:
		return fmt.Sprintf("type %d", uint8(t))
	}
}

// SectorRecord is one decoded sector slot.
// Data always holds the full sector; Fill is only meaningful for compressed sectors.
type SectorRecord struct {
	Type SectorType
	Fill byte
	Data []byte
}

// TrackRecord represents one physical track of a structured container
// Layout:
//
//	mode(1) cylinder(1) head(1) sector_count(1) sector_size_code(1)
//	sector_ids(sector_count) [cyl_map(sector_count)] [head_map(sector_count)]
//	{type(1) payload(1 or sector_size)} x sector_count
//
// SectorIDs[i] is the physical (1-based) sector number of the i-th slot in
// on-disk order; Sectors is indexed the same way.
type TrackRecord struct {
	Mode         uint8
	Cylinder     uint8
	Head         uint8 // physical head, flag bits removed
	SectorSize   uint16
	SectorIDs    []byte
	HasCylMap    bool
	HasHeadMap   bool
	Sectors      []SectorRecord
	Offset       int // byte offset of the track record within the container
	EncodedBytes int // length of the track record on disk
}

// SectorCount is the number of sector slots in the track.
func (t *TrackRecord) SectorCount() int {
	return len(t.SectorIDs)
}

// Linear returns the track's sectors concatenated in physical sector order.
func (t *TrackRecord) Linear() []byte {
	out := make([]byte, len(t.SectorIDs)*int(t.SectorSize))
	for i, id := range t.SectorIDs {
		copy(out[(int(id)-1)*int(t.SectorSize):], t.Sectors[i].Data)
	}
	return out
}

// Compressed counts the track's compressed sectors.
func (t *TrackRecord) Compressed() int {
	n := 0
	for _, s := range t.Sectors {
		if s.Type == SectorCompressed {
			n++
		}
	}
	return n
}

// TrackSectorIDs records the physical sector ordering of one track.
type TrackSectorIDs struct {
	Cylinder uint8
	Head     uint8
	IDs      []byte
}

// Sidecar holds the framing a raw image cannot represent: the original
// container header (terminator included) and each track's sector ordering.
type Sidecar struct {
	Header []byte
	Tracks []TrackSectorIDs
}

// IDs returns the sector ordering recorded for a track, or nil.
func (s *Sidecar) IDs(cylinder, head uint8) []byte {
	if s == nil {
		return nil
	}
	for _, t := range s.Tracks {
		if t.Cylinder == cylinder && t.Head == head {
			return t.IDs
		}
	}
	return nil
}

// Stats are the aggregate counters of one conversion.
type Stats struct {
	Tracks            int
	TotalSectors      int
	CompressedSectors int
}

// NormalSectors is the number of sectors stored verbatim.
func (s Stats) NormalSectors() int {
	return s.TotalSectors - s.CompressedSectors
}
