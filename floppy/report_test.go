// Floppytool - floppy disk image utility
// report_test.go - Unit tests for image reports
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"strings"
	"testing"
)

func TestPrintableASCII(t *testing.T) {
	tests := []struct {
		data []byte
		n    int
		want string
	}{
		{data: []byte("HELLO"), n: 32, want: "HELLO"},
		{data: []byte{0x00, 'A', 0x7F, '~', ' ', 0xE5}, n: 32, want: ".A.~ ."},
		{data: []byte("0123456789"), n: 4, want: "0123"},
		{data: nil, n: 32, want: ""},
	}
	for _, tt := range tests {
		if got := PrintableASCII(tt.data, tt.n); got != tt.want {
			t.Errorf("PrintableASCII(%q, %d) = %q, want %q", tt.data, tt.n, got, tt.want)
		}
	}
}

func TestGeometryReport(t *testing.T) {
	want := "Detected Format: 720K 3.5\" DD\nGeometry: 80 cylinders, 2 heads, 9 sectors/track, 512 bytes/sector, mode 5"
	if got := GeometryReport(IBM720K); got != want {
		t.Errorf("GeometryReport = %q\nwant %q", got, want)
	}
}

func TestReportASCII(t *testing.T) {
	g := Geometry{Cylinders: 2, Heads: 1, SectorsPerTrack: 2, SectorSize: 128, Mode: 2}
	data := make([]byte, g.TotalSize())
	copy(data[128:], "BOOT SECTOR\x00\x01")

	lines := strings.Split(Report(g, data, true), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if lines[0] != "Raw IMG: 512 bytes" {
		t.Errorf("first line = %q", lines[0])
	}
	want := "Cyl 0, Head 0, Sector 2, Size 128 bytes, Mode 2: BOOT SECTOR....................."
	if lines[2] != want {
		t.Errorf("sector line = %q\nwant %q", lines[2], want)
	}
	if !strings.HasPrefix(lines[4], "Cyl 1, Head 0, Sector 2,") {
		t.Errorf("last line = %q", lines[4])
	}

	// sectors past the end of the data are not listed
	short := strings.Split(Report(g, data[:300], true), "\n")
	if len(short) != 3 {
		t.Errorf("short data listed %d lines", len(short))
	}

	summary := Report(g, data, false)
	if !strings.Contains(summary, "Geometry: 2 cylinders, 1 heads, 2 sectors/track, 128 bytes/sector, mode 2") {
		t.Errorf("summary = %q", summary)
	}
}
