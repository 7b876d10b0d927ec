// Floppytool - floppy disk image utility
// scp.go - Flux capture (SCP) metadata
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-restruct/restruct"
)

const (
	scpHeaderSize      = 0x10
	scpMaxTracks       = 168
	scpTrackHeaderSize = 4
	scpRevolutionSize  = 12
	scpTick            = 25 * time.Nanosecond
)

// scpHeader is the 16-byte file header
// Layout:
//
//	0x00-0x02: "SCP"
//	0x03: version (major << 4 | minor)
//	0x04: disk type (manufacturer class | subtype)
//	0x05: revolutions captured per track
//	0x06-0x07: start and end track
//	0x08: flags
//	0x09: bit cell width (0 = 16 bits)
//	0x0A: heads (0 = both, 1 = side 0, 2 = side 1)
//	0x0B: resolution (25ns * (n+1))
//	0x0C-0x0F: checksum (little endian)
type scpHeader struct {
	Magic        [3]byte
	Version      uint8
	DiskType     uint8
	Revolutions  uint8
	StartTrack   uint8
	EndTrack     uint8
	Flags        uint8
	BitCellWidth uint8
	Heads        uint8
	Resolution   uint8
	Checksum     uint32
}

// scpTrackTable follows the header; a zero offset marks an absent track.
type scpTrackTable struct {
	Offsets [scpMaxTracks]uint32
}

// scpTrackHeader starts each track data block ("TRK" + track number),
// followed by one scpRevolution per captured revolution.
type scpTrackHeader struct {
	Magic  [3]byte
	Number uint8
}

type scpRevolution struct {
	IndexTime  uint32 // 25ns ticks
	FluxCount  uint32
	DataOffset uint32 // relative to the track header
}

// FluxHeader holds the header fields of a flux capture.
type FluxHeader struct {
	Version      uint8
	DiskType     uint8
	Revolutions  uint8
	StartTrack   uint8
	EndTrack     uint8
	Flags        uint8
	BitCellWidth uint8
	Heads        uint8
	Resolution   uint8
	Checksum     uint32 // reported, not verified
}

// FluxRevolution describes one captured revolution of a track.
type FluxRevolution struct {
	Duration   time.Duration
	FluxCount  int
	DataOffset int
	DataBytes  int
}

// RPM is the rotation speed implied by the revolution's index-to-index time.
func (r FluxRevolution) RPM() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(time.Minute) / float64(r.Duration)
}

// FluxTrack is the metadata of one captured track.
type FluxTrack struct {
	Number      int
	Offset      int
	Revolutions []FluxRevolution
}

// FluxInfo is everything read from a flux capture.
type FluxInfo struct {
	Header FluxHeader
	Tracks []FluxTrack
}

// ParseFlux reads the header and per-track metadata of a flux capture.
// Flux transitions themselves are not decoded.
func ParseFlux(data []byte) (*FluxInfo, error) {
	if len(data) < scpHeaderSize {
		return nil, &MalformedContainerError{Offset: len(data), Cylinder: -1, Head: -1,
			Reason: fmt.Sprintf("file too short: %d bytes, need at least %d for the header", len(data), scpHeaderSize)}
	}

	var h scpHeader
	if err := restruct.Unpack(data[:scpHeaderSize], binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read flux header: %w", err)
	}
	if string(h.Magic[:]) != "SCP" {
		return nil, &MalformedContainerError{Offset: 0, Cylinder: -1, Head: -1,
			Reason: fmt.Sprintf("magic bytes %q are not \"SCP\"", h.Magic[:])}
	}

	info := &FluxInfo{Header: FluxHeader{
		Version:      h.Version,
		DiskType:     h.DiskType,
		Revolutions:  h.Revolutions,
		StartTrack:   h.StartTrack,
		EndTrack:     h.EndTrack,
		Flags:        h.Flags,
		BitCellWidth: h.BitCellWidth,
		Heads:        h.Heads,
		Resolution:   h.Resolution,
		Checksum:     h.Checksum,
	}}

	// Short files may carry a truncated offset table; missing entries read as absent.
	table := make([]byte, scpMaxTracks*4)
	copy(table, data[scpHeaderSize:])
	var offsets scpTrackTable
	if err := restruct.Unpack(table, binary.LittleEndian, &offsets); err != nil {
		return nil, fmt.Errorf("failed to read flux track table: %w", err)
	}

	cellBytes := 2
	if h.BitCellWidth != 0 {
		cellBytes = (int(h.BitCellWidth) + 7) / 8
	}

	for n, off := range offsets.Offsets {
		if off == 0 {
			continue
		}
		t, err := parseFluxTrack(data, n, int(off), int(h.Revolutions), cellBytes)
		if err != nil {
			return nil, err
		}
		info.Tracks = append(info.Tracks, t)
	}
	return info, nil
}

func parseFluxTrack(data []byte, n, off, revs, cellBytes int) (FluxTrack, error) {
	need := scpTrackHeaderSize + revs*scpRevolutionSize
	if off < 0 || off+need > len(data) {
		return FluxTrack{}, &MalformedContainerError{Offset: off, Cylinder: n / 2, Head: n % 2,
			Reason: fmt.Sprintf("track %d header needs %d bytes at offset %d, file has %d", n, need, off, len(data))}
	}

	var th scpTrackHeader
	if err := restruct.Unpack(data[off:off+scpTrackHeaderSize], binary.LittleEndian, &th); err != nil {
		return FluxTrack{}, fmt.Errorf("failed to read flux track %d header: %w", n, err)
	}
	if string(th.Magic[:]) != "TRK" {
		return FluxTrack{}, &MalformedContainerError{Offset: off, Cylinder: n / 2, Head: n % 2,
			Reason: fmt.Sprintf("track %d magic bytes %q are not \"TRK\"", n, th.Magic[:])}
	}

	t := FluxTrack{Number: int(th.Number), Offset: off}
	pos := off + scpTrackHeaderSize
	for i := 0; i < revs; i++ {
		var r scpRevolution
		if err := restruct.Unpack(data[pos:pos+scpRevolutionSize], binary.LittleEndian, &r); err != nil {
			return FluxTrack{}, fmt.Errorf("failed to read flux track %d revolution %d: %w", n, i, err)
		}
		t.Revolutions = append(t.Revolutions, FluxRevolution{
			Duration:   time.Duration(r.IndexTime) * scpTick,
			FluxCount:  int(r.FluxCount),
			DataOffset: int(r.DataOffset),
			DataBytes:  int(r.FluxCount) * cellBytes,
		})
		pos += scpRevolutionSize
	}
	return t, nil
}

// fluxGeometries maps IBM PC disk types to their sector layout.
var fluxGeometries = map[uint8]Geometry{
	0x30: IBM360K,
	0x31: IBM720K,
	0x32: IBM1200K,
	0x33: IBM1440K,
	// 0x35 and 0x80 are written by capture tools for 3.5" HD media
	0x35: IBM1440K,
	0x80: IBM1440K,
}

// FluxImage is a flux capture. It reports metadata only and yields no sectors.
type FluxImage struct {
	data []byte
}

// NewFluxImage wraps a flux capture.
func NewFluxImage(data []byte) *FluxImage {
	return &FluxImage{data: data}
}

func (f *FluxImage) Kind() Kind   { return KindFlux }
func (f *FluxImage) Data() []byte { return f.data }

// Geometry is the sector layout the header's disk type stands for.
func (f *FluxImage) Geometry() (Geometry, error) {
	info, err := ParseFlux(f.data)
	if err != nil {
		return Geometry{}, err
	}
	g, ok := fluxGeometries[info.Header.DiskType]
	if !ok {
		return Geometry{}, fmt.Errorf("%w: SCP disk type 0x%02X (only PC 360K/720K/1.2M/1.44M, 0x30-0x33, 0x35 and 0x80, are known)",
			ErrUnsupportedFormat, info.Header.DiskType)
	}
	return g, nil
}

func (f *FluxImage) Sectors(Options) (*Decoded, error) {
	return nil, ErrNoSectorData
}

// Display lists the header fields and each track's revolutions. Flux images
// have no sector payloads, so ascii mode renders the same report.
func (f *FluxImage) Display(bool) (string, error) {
	info, err := ParseFlux(f.data)
	if err != nil {
		return "", err
	}
	h := info.Header

	lines := []string{
		fmt.Sprintf("SCP flux image: %d bytes, version %d.%d", len(f.data), h.Version>>4, h.Version&0x0F),
	}
	if g, ok := fluxGeometries[h.DiskType]; ok {
		lines = append(lines, fmt.Sprintf("Disk type: 0x%02X (%s)", h.DiskType, g.Name))
	} else {
		lines = append(lines, fmt.Sprintf("Disk type: 0x%02X", h.DiskType))
	}
	lines = append(lines, fmt.Sprintf("Revolutions: %d, tracks %d-%d, heads %s, resolution %s, flags 0x%02X, checksum 0x%08X",
		h.Revolutions, h.StartTrack, h.EndTrack, fluxHeads(h.Heads), (time.Duration(h.Resolution)+1)*scpTick, h.Flags, h.Checksum))

	for _, t := range info.Tracks {
		var total time.Duration
		flux := 0
		for _, r := range t.Revolutions {
			total += r.Duration
			flux += r.FluxCount
		}
		line := fmt.Sprintf("Track %d: %d revolutions, %d flux transitions", t.Number, len(t.Revolutions), flux)
		if n := len(t.Revolutions); n > 0 {
			avg := FluxRevolution{Duration: total / time.Duration(n)}
			line += fmt.Sprintf(", index %s (%.1f RPM)", avg.Duration, avg.RPM())
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func fluxHeads(h uint8) string {
	switch h {
	case 0:
		return "both"
	case 1:
		return "side 0"
	case 2:
		return "side 1"
	default:
		return fmt.Sprintf("0x%02X", h)
	}
}
