// Floppytool - floppy disk image utility
// report.go - Human-readable image reports
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"fmt"
	"strings"
)

// previewLen is the number of bytes of each sector shown in ASCII reports.
const previewLen = 32

// GeometryReport renders the one-line-per-field geometry summary.
func GeometryReport(g Geometry) string {
	name := g.Name
	if name == "" {
		name = "Custom"
	}
	return fmt.Sprintf("Detected Format: %s\nGeometry: %d cylinders, %d heads, %d sectors/track, %d bytes/sector, mode %d",
		name, g.Cylinders, g.Heads, g.SectorsPerTrack, g.SectorSize, g.Mode)
}

// SectorLine renders one sector of an ASCII report.
func SectorLine(cyl, head, sector int, size int, mode uint8, data []byte) string {
	return fmt.Sprintf("Cyl %d, Head %d, Sector %d, Size %d bytes, Mode %d: %s",
		cyl, head, sector, size, mode, PrintableASCII(data, previewLen))
}

// PrintableASCII renders up to n bytes with non-printable bytes shown as '.'.
func PrintableASCII(data []byte, n int) string {
	if len(data) > n {
		data = data[:n]
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Report renders a raw image laid out by g: the geometry summary, or in
// ascii mode a line per sector in (cylinder, head, sector) order. Sectors
// beyond the end of data are not listed.
func Report(g Geometry, data []byte, ascii bool) string {
	lines := []string{fmt.Sprintf("Raw IMG: %d bytes", len(data))}
	if !ascii {
		lines = append(lines, GeometryReport(g))
		return strings.Join(lines, "\n")
	}

	size := int(g.SectorSize)
	pos := 0
	for cyl := 0; cyl < int(g.Cylinders); cyl++ {
		for head := 0; head < int(g.Heads); head++ {
			for sector := 1; sector <= int(g.SectorsPerTrack); sector++ {
				if size == 0 || pos+size > len(data) {
					return strings.Join(lines, "\n")
				}
				lines = append(lines, SectorLine(cyl, head, sector, size, g.Mode, data[pos:pos+size]))
				pos += size
			}
		}
	}
	return strings.Join(lines, "\n")
}
