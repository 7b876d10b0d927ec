// Floppytool - floppy disk image utility
// geometry.go - Known disk geometries and size-based inference
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxSectorSizeCode is the largest sector size code accepted (128 << 5 = 4096 bytes).
	MaxSectorSizeCode = 5

	// DefaultMode is the mode tag given to geometries found by divisor search.
	DefaultMode = 5

	searchSectorSize = 512
	searchMinCyl     = 40
	searchMaxCyl     = 80
	searchMaxSPT     = 36
)

// Mode tags: data rate and encoding of a structured container track.
const (
	Mode500FM  = 0
	Mode300FM  = 1
	Mode250FM  = 2
	Mode500MFM = 3
	Mode300MFM = 4
	Mode250MFM = 5
)

var modeNames = map[uint8]string{
	Mode500FM:  "500 kbps FM",
	Mode300FM:  "300 kbps FM",
	Mode250FM:  "250 kbps FM",
	Mode500MFM: "500 kbps MFM",
	Mode300MFM: "300 kbps MFM",
	Mode250MFM: "250 kbps MFM",
}

// ModeName describes a mode tag, or returns "unknown" for tags outside 0..5.
func ModeName(mode uint8) string {
	if name, ok := modeNames[mode]; ok {
		return name
	}
	return "unknown"
}

// Standard IBM PC geometries, keyed by raw image size.
var (
	IBM160K  = Geometry{Name: "160K 5.25\" SS DD", Cylinders: 40, Heads: 1, SectorsPerTrack: 8, SectorSize: 512, Mode: Mode250MFM}
	IBM180K  = Geometry{Name: "180K 5.25\" SS DD", Cylinders: 40, Heads: 1, SectorsPerTrack: 9, SectorSize: 512, Mode: Mode250MFM}
	IBM320K  = Geometry{Name: "320K 5.25\" DS DD", Cylinders: 40, Heads: 2, SectorsPerTrack: 8, SectorSize: 512, Mode: Mode250MFM}
	IBM360K  = Geometry{Name: "360K 5.25\" DS DD", Cylinders: 40, Heads: 2, SectorsPerTrack: 9, SectorSize: 512, Mode: Mode250MFM}
	IBM720K  = Geometry{Name: "720K 3.5\" DD", Cylinders: 80, Heads: 2, SectorsPerTrack: 9, SectorSize: 512, Mode: Mode250MFM}
	IBM1200K = Geometry{Name: "1.2M 5.25\" HD", Cylinders: 80, Heads: 2, SectorsPerTrack: 15, SectorSize: 512, Mode: Mode500MFM}
	IBM1440K = Geometry{Name: "1.44M 3.5\" HD", Cylinders: 80, Heads: 2, SectorsPerTrack: 18, SectorSize: 512, Mode: Mode500MFM}
	IBM2880K = Geometry{Name: "2.88M 3.5\" ED", Cylinders: 80, Heads: 2, SectorsPerTrack: 36, SectorSize: 512, Mode: Mode500MFM}
)

// StandardGeometries is the exact-size lookup table, consulted before divisor search.
var StandardGeometries = []Geometry{
	IBM160K, IBM180K, IBM320K, IBM360K, IBM720K, IBM1200K, IBM1440K, IBM2880K,
}

// LookupGeometry returns the table entry whose total size equals size.
func LookupGeometry(size int) (Geometry, bool) {
	for _, g := range StandardGeometries {
		if g.TotalSize() == size {
			return g, true
		}
	}
	return Geometry{}, false
}

// SearchGeometry finds a 512-byte-sector geometry for size by trying
// cylinders 40..80, then heads 1..2, and returning the first exact fit
// with at most 36 sectors per track.
func SearchGeometry(size int) (Geometry, bool) {
	if size <= 0 || size%searchSectorSize != 0 {
		return Geometry{}, false
	}
	total := size / searchSectorSize
	for cyl := searchMinCyl; cyl <= searchMaxCyl; cyl++ {
		for heads := 1; heads <= 2; heads++ {
			if total%(cyl*heads) != 0 {
				continue
			}
			spt := total / (cyl * heads)
			if spt >= 1 && spt <= searchMaxSPT {
				return Geometry{
					Name:            "Custom",
					Cylinders:       uint8(cyl),
					Heads:           uint8(heads),
					SectorsPerTrack: uint8(spt),
					SectorSize:      searchSectorSize,
					Mode:            DefaultMode,
				}, true
			}
		}
	}
	return Geometry{}, false
}

// InferGeometry returns the table entry for size, falling back to divisor search.
func InferGeometry(size int) (Geometry, bool) {
	if g, ok := LookupGeometry(size); ok {
		return g, true
	}
	return SearchGeometry(size)
}

// SectorSizeCode returns the code n for which 128 << n == size.
func SectorSizeCode(size int) (byte, error) {
	for code := byte(0); code <= MaxSectorSizeCode; code++ {
		if 128<<code == size {
			return code, nil
		}
	}
	return 0, &InvalidSectorSizeError{Size: size}
}

// Validate checks that a geometry can be encoded into a structured container.
func (g Geometry) Validate() error {
	if g.Cylinders == 0 || g.Heads == 0 || g.SectorsPerTrack == 0 {
		return fmt.Errorf("invalid geometry %s: cylinders, heads and sectors must be non-zero", g)
	}
	if _, err := SectorSizeCode(int(g.SectorSize)); err != nil {
		return err
	}
	return nil
}

// ParseGeometry parses the C,H,S,SIZE,MODE form, e.g. "40,2,9,512,5".
func ParseGeometry(s string) (Geometry, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return Geometry{}, fmt.Errorf("geometry must be 'cylinders,heads,sectors,size,mode' (e.g. '40,2,9,512,5'), got %q", s)
	}

	fields := []struct {
		name string
		bits int
	}{
		{"cylinders", 8}, {"heads", 8}, {"sectors", 8}, {"sector size", 16}, {"mode", 8},
	}
	values := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, fields[i].bits)
		if err != nil {
			return Geometry{}, fmt.Errorf("invalid %s %q: %v", fields[i].name, p, err)
		}
		values[i] = v
	}

	g := Geometry{
		Name:            "Custom",
		Cylinders:       uint8(values[0]),
		Heads:           uint8(values[1]),
		SectorsPerTrack: uint8(values[2]),
		SectorSize:      uint16(values[3]),
		Mode:            uint8(values[4]),
	}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}
