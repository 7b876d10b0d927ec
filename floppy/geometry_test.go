// Floppytool - floppy disk image utility
// geometry_test.go - Unit tests for geometry lookup and parsing
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"errors"
	"testing"
)

func TestInferGeometry(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		want   Geometry
		wantOK bool
	}{
		{name: "720K table entry", size: 737280, want: IBM720K, wantOK: true},
		{name: "360K table entry", size: 368640, want: IBM360K, wantOK: true},
		{name: "1.44M table entry", size: 1474560, want: IBM1440K, wantOK: true},
		{name: "2.88M table entry", size: 2949120, want: IBM2880K, wantOK: true},
		{
			name:   "single sided search",
			size:   409600,
			want:   Geometry{Name: "Custom", Cylinders: 40, Heads: 1, SectorsPerTrack: 20, SectorSize: 512, Mode: DefaultMode},
			wantOK: true,
		},
		{
			name:   "double sided search",
			size:   819200,
			want:   Geometry{Name: "Custom", Cylinders: 40, Heads: 2, SectorsPerTrack: 20, SectorSize: 512, Mode: DefaultMode},
			wantOK: true,
		},
		{name: "not sector aligned", size: 1000, wantOK: false},
		{name: "too few sectors", size: 7 * 512, wantOK: false},
		{name: "empty", size: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferGeometry(tt.size)
			if ok != tt.wantOK {
				t.Fatalf("InferGeometry(%d) ok = %v, want %v", tt.size, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("InferGeometry(%d) = %+v, want %+v", tt.size, got, tt.want)
			}
		})
	}
}

func TestInferGeometryPrefersTable(t *testing.T) {
	// 737280 bytes also factor as 40x1x36, which the search would find first.
	searched, ok := SearchGeometry(737280)
	if !ok || searched.Cylinders != 40 || searched.Heads != 1 || searched.SectorsPerTrack != 36 {
		t.Fatalf("SearchGeometry(737280) = %+v, %v; want 40x1x36", searched, ok)
	}
	got, _ := InferGeometry(737280)
	if got != IBM720K {
		t.Errorf("InferGeometry(737280) = %+v, want the 720K table entry", got)
	}
}

func TestSearchGeometryDeterministic(t *testing.T) {
	for _, size := range []int{409600, 819200, 655360, 1638400} {
		first, ok := SearchGeometry(size)
		if !ok {
			t.Fatalf("SearchGeometry(%d) found nothing", size)
		}
		for i := 0; i < 10; i++ {
			if again, _ := SearchGeometry(size); again != first {
				t.Fatalf("SearchGeometry(%d) = %+v, then %+v", size, first, again)
			}
		}
		if first.TotalSize() != size {
			t.Errorf("SearchGeometry(%d) total size %d", size, first.TotalSize())
		}
	}
}

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    Geometry
		expectError bool
	}{
		{
			name:     "360K",
			input:    "40,2,9,512,5",
			expected: Geometry{Name: "Custom", Cylinders: 40, Heads: 2, SectorsPerTrack: 9, SectorSize: 512, Mode: 5},
		},
		{
			name:     "spaces around fields",
			input:    " 80, 2, 18, 512, 3",
			expected: Geometry{Name: "Custom", Cylinders: 80, Heads: 2, SectorsPerTrack: 18, SectorSize: 512, Mode: 3},
		},
		{
			name:     "128 byte sectors",
			input:    "77,1,26,128,0",
			expected: Geometry{Name: "Custom", Cylinders: 77, Heads: 1, SectorsPerTrack: 26, SectorSize: 128, Mode: 0},
		},
		{name: "too few fields", input: "40,2,9", expectError: true},
		{name: "not a number", input: "40,two,9,512,5", expectError: true},
		{name: "cylinders overflow", input: "300,2,9,512,5", expectError: true},
		{name: "zero heads", input: "40,0,9,512,5", expectError: true},
		{name: "sector size without code", input: "40,2,9,500,5", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGeometry(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestSectorSizeCode(t *testing.T) {
	for code, size := range []int{128, 256, 512, 1024, 2048, 4096} {
		got, err := SectorSizeCode(size)
		if err != nil || int(got) != code {
			t.Errorf("SectorSizeCode(%d) = %d, %v; want %d", size, got, err, code)
		}
	}

	_, err := SectorSizeCode(8192)
	var sizeErr *InvalidSectorSizeError
	if !errors.As(err, &sizeErr) || sizeErr.Size != 8192 {
		t.Errorf("SectorSizeCode(8192) error = %v, want InvalidSectorSizeError for 8192", err)
	}
}

func TestModeName(t *testing.T) {
	tests := []struct {
		mode uint8
		want string
	}{
		{Mode500FM, "500 kbps FM"},
		{Mode300FM, "300 kbps FM"},
		{Mode250FM, "250 kbps FM"},
		{Mode500MFM, "500 kbps MFM"},
		{Mode300MFM, "300 kbps MFM"},
		{Mode250MFM, "250 kbps MFM"},
		{6, "unknown"},
	}
	for _, tt := range tests {
		if got := ModeName(tt.mode); got != tt.want {
			t.Errorf("ModeName(%d) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestGeometryString(t *testing.T) {
	if got := IBM360K.String(); got != "40,2,9,512,5" {
		t.Errorf("IBM360K.String() = %q", got)
	}
	parsed, err := ParseGeometry(IBM1440K.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.TotalSize() != IBM1440K.TotalSize() || parsed.Mode != IBM1440K.Mode {
		t.Errorf("ParseGeometry(String()) = %+v, want layout of %+v", parsed, IBM1440K)
	}
}
