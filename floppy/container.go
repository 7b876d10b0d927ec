// Floppytool - floppy disk image utility
// container.go - Structured container decoding and encoding
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"bytes"

	"github.com/go-logr/logr"
)

// DefaultHeader is written when no sidecar supplies the original header.
var DefaultHeader = []byte("IMD 1.18: floppytool\r\n\x1A")

// Options carries the ambient settings of a codec run.
type Options struct {
	Logger logr.Logger
}

func (o Options) logger() logr.Logger {
	if o.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return o.Logger
}

// Decoded is the result of decoding a structured container.
type Decoded struct {
	Raw     []byte
	Sidecar *Sidecar
	Stats   Stats
	Tracks  []*TrackRecord
}

// HeaderEnd returns the index of the header terminator.
func HeaderEnd(data []byte) (int, error) {
	end := bytes.IndexByte(data, HeaderTerminator)
	if end < 0 {
		return 0, &MalformedContainerError{Offset: len(data), Cylinder: -1, Head: -1,
			Reason: "no header terminator (0x1A) found"}
	}
	return end, nil
}

// DecodeContainer decodes every track of a structured container into a raw
// buffer, appending each track's sectors in physical sector order.
func DecodeContainer(data []byte, opts Options) (*Decoded, error) {
	log := opts.logger()

	end, err := HeaderEnd(data)
	if err != nil {
		return nil, err
	}

	header := make([]byte, end+1)
	copy(header, data[:end+1])
	d := &Decoded{Sidecar: &Sidecar{Header: header}}

	c := newCursor(data[end+1:], end+1)
	for c.Remaining() > 0 {
		t, err := decodeTrack(c)
		if err != nil {
			return nil, err
		}

		d.Raw = append(d.Raw, t.Linear()...)
		d.Tracks = append(d.Tracks, t)
		d.Sidecar.Tracks = append(d.Sidecar.Tracks, TrackSectorIDs{
			Cylinder: t.Cylinder,
			Head:     t.Head,
			IDs:      append([]byte(nil), t.SectorIDs...),
		})

		compressed := t.Compressed()
		d.Stats.Tracks++
		d.Stats.TotalSectors += t.SectorCount()
		d.Stats.CompressedSectors += compressed

		log.V(1).Info("decoded track", "cylinder", t.Cylinder, "head", t.Head,
			"sectors", t.SectorCount(), "normal", t.SectorCount()-compressed, "compressed", compressed,
			"sectorSize", t.SectorSize, "mode", t.Mode)
	}

	log.Info("decoded container", "tracks", d.Stats.Tracks, "sectors", d.Stats.TotalSectors,
		"compressed", d.Stats.CompressedSectors, "bytes", len(d.Raw))
	return d, nil
}

// EncodeContainer encodes a raw buffer laid out by g into a structured
// container, cylinder-major and head-minor. A sidecar, when given, supplies
// the header and each track's sector-id ordering.
func EncodeContainer(raw []byte, g Geometry, meta *Sidecar, opts Options) ([]byte, Stats, error) {
	log := opts.logger()
	var stats Stats

	if len(raw) != g.TotalSize() {
		return nil, stats, &GeometryMismatchError{Geometry: g, Expected: g.TotalSize(), Actual: len(raw)}
	}
	if err := g.Validate(); err != nil {
		return nil, stats, err
	}

	header := DefaultHeader
	if meta != nil && len(meta.Header) > 0 {
		header = meta.Header
	}
	out := make([]byte, 0, len(header)+len(raw)+int(g.Cylinders)*int(g.Heads)*(TrackHeaderSize+2*int(g.SectorsPerTrack)))
	out = append(out, header...)

	trackSize := g.TrackSize()
	pos := 0
	for cyl := 0; cyl < int(g.Cylinders); cyl++ {
		for head := 0; head < int(g.Heads); head++ {
			spec := TrackSpec{
				Mode:            g.Mode,
				Cylinder:        uint8(cyl),
				Head:            uint8(head),
				SectorsPerTrack: g.SectorsPerTrack,
				SectorSize:      g.SectorSize,
				SectorIDs:       meta.IDs(uint8(cyl), uint8(head)),
			}
			rec, compressed, err := EncodeTrack(spec, raw[pos:pos+trackSize])
			if err != nil {
				return nil, stats, err
			}
			out = append(out, rec...)
			pos += trackSize

			stats.Tracks++
			stats.TotalSectors += int(g.SectorsPerTrack)
			stats.CompressedSectors += compressed

			log.V(1).Info("encoded track", "cylinder", cyl, "head", head,
				"sectors", g.SectorsPerTrack, "normal", int(g.SectorsPerTrack)-compressed, "compressed", compressed,
				"sectorSize", g.SectorSize, "mode", g.Mode)
		}
	}

	log.Info("encoded container", "tracks", stats.Tracks, "sectors", stats.TotalSectors,
		"compressed", stats.CompressedSectors, "bytes", len(out))
	return out, stats, nil
}

// AnalyzeContainer walks a structured container and returns the geometry it
// implies: cylinder and head counts from the highest coordinates seen,
// sectors per track, sector size and mode from the first track.
func AnalyzeContainer(data []byte) (Geometry, error) {
	end, err := HeaderEnd(data)
	if err != nil {
		return Geometry{}, err
	}

	g := Geometry{Name: "IMD Custom"}
	first := true
	c := newCursor(data[end+1:], end+1)
	for c.Remaining() > 0 {
		t, err := decodeTrack(c)
		if err != nil {
			return Geometry{}, err
		}
		if t.Cylinder+1 > g.Cylinders {
			g.Cylinders = t.Cylinder + 1
		}
		if t.Head+1 > g.Heads {
			g.Heads = t.Head + 1
		}
		if first {
			g.SectorsPerTrack = uint8(t.SectorCount())
			g.SectorSize = t.SectorSize
			g.Mode = t.Mode
			first = false
		}
	}
	if known, ok := LookupGeometry(g.TotalSize()); ok && known.Cylinders == g.Cylinders &&
		known.Heads == g.Heads && known.SectorsPerTrack == g.SectorsPerTrack && known.SectorSize == g.SectorSize {
		g.Name = known.Name
	}
	return g, nil
}
