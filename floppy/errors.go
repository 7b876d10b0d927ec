// Floppytool - floppy disk image utility
// errors.go - Conversion error types
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSectorData is returned by images that only carry flux-level metadata.
	ErrNoSectorData = errors.New("image carries no decodable sector data")
	// ErrUnsupportedFormat is returned for unknown file extensions and targets.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// MalformedContainerError reports framing that cannot be walked: a missing
// header terminator, a truncated track, or an unusable sector-id map.
// Cylinder and Head are -1 when the fault precedes any track header.
type MalformedContainerError struct {
	Offset   int
	Cylinder int
	Head     int
	Reason   string
}

func (e *MalformedContainerError) Error() string {
	if e.Cylinder < 0 {
		return fmt.Sprintf("malformed container at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed container at offset %d (cyl %d, head %d): %s", e.Offset, e.Cylinder, e.Head, e.Reason)
}

// UnsupportedSectorTypeError reports a sector type byte other than normal or compressed.
type UnsupportedSectorTypeError struct {
	Type     byte
	Cylinder uint8
	Head     uint8
	Slot     int
	Offset   int
}

func (e *UnsupportedSectorTypeError) Error() string {
	return fmt.Sprintf("unsupported sector type %d at offset %d (cyl %d, head %d, slot %d)",
		e.Type, e.Offset, e.Cylinder, e.Head, e.Slot)
}

// InvalidSectorSizeError reports a sector size code outside 0..5 on decode
// (Size is -1), or a sector size that has no code on encode.
type InvalidSectorSizeError struct {
	Code     byte
	Size     int
	Cylinder uint8
	Head     uint8
	Offset   int
}

func (e *InvalidSectorSizeError) Error() string {
	if e.Size >= 0 {
		return fmt.Sprintf("invalid sector size %d bytes (must be 128 << 0..%d)", e.Size, MaxSectorSizeCode)
	}
	return fmt.Sprintf("invalid sector size code %d at offset %d (cyl %d, head %d)", e.Code, e.Offset, e.Cylinder, e.Head)
}

// GeometryMismatchError reports a raw buffer whose length disagrees with a geometry.
type GeometryMismatchError struct {
	Geometry Geometry
	Expected int
	Actual   int
}

func (e *GeometryMismatchError) Error() string {
	g := e.Geometry
	return fmt.Sprintf("geometry %dx%dx%dx%d (%d bytes) does not match data size (%d bytes)",
		g.Cylinders, g.Heads, g.SectorsPerTrack, g.SectorSize, e.Expected, e.Actual)
}

// AmbiguousGeometryError reports a size for which no geometry could be inferred.
type AmbiguousGeometryError struct {
	Size int
}

func (e *AmbiguousGeometryError) Error() string {
	return fmt.Sprintf("no suitable geometry found for %d bytes; specify one with --geometry (e.g. '40,2,9,512,5' for 360KB)", e.Size)
}
