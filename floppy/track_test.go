// Floppytool - floppy disk image utility
// track_test.go - Unit tests for the track record codec
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncodeTrackCompression(t *testing.T) {
	uniform := bytes.Repeat([]byte{0xFF}, 512)
	varied := bytes.Repeat([]byte{0xFF}, 512)
	varied[300] = 0xFE

	tests := []struct {
		name        string
		data        []byte
		wantPayload int
		wantType    SectorType
		compressed  int
	}{
		{name: "uniform sector", data: uniform, wantPayload: 2, wantType: SectorCompressed, compressed: 1},
		{name: "one differing byte", data: varied, wantPayload: 513, wantType: SectorNormal, compressed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := TrackSpec{Mode: 5, SectorsPerTrack: 1, SectorSize: 512}
			rec, compressed, err := EncodeTrack(spec, tt.data)
			if err != nil {
				t.Fatalf("EncodeTrack: %v", err)
			}
			if compressed != tt.compressed {
				t.Errorf("compressed = %d, want %d", compressed, tt.compressed)
			}

			// header + one sector id, then the sector payload
			payload := rec[TrackHeaderSize+1:]
			if len(payload) != tt.wantPayload {
				t.Errorf("payload is %d bytes, want %d", len(payload), tt.wantPayload)
			}
			if SectorType(payload[0]) != tt.wantType {
				t.Errorf("sector type = %v, want %v", SectorType(payload[0]), tt.wantType)
			}

			track, next, err := DecodeTrack(rec, 0)
			if err != nil {
				t.Fatalf("DecodeTrack: %v", err)
			}
			if next != len(rec) {
				t.Errorf("next offset = %d, want %d", next, len(rec))
			}
			if !bytes.Equal(track.Linear(), tt.data) {
				t.Errorf("decoded sector differs from the original")
			}
		})
	}
}

func TestTrackPhysicalOrder(t *testing.T) {
	size := 128
	data := make([]byte, 4*size)
	for s := 0; s < 4; s++ {
		for i := 0; i < size; i++ {
			data[s*size+i] = byte(s*16 + i%5)
		}
	}

	spec := TrackSpec{Mode: 2, Cylinder: 7, Head: 1, SectorsPerTrack: 4, SectorSize: 128, SectorIDs: []byte{3, 1, 4, 2}}
	rec, _, err := EncodeTrack(spec, data)
	if err != nil {
		t.Fatalf("EncodeTrack: %v", err)
	}
	if !bytes.Equal(rec[:TrackHeaderSize], []byte{2, 7, 1, 4, 0}) {
		t.Errorf("track header = % X", rec[:TrackHeaderSize])
	}

	// the first slot holds physical sector 3
	first := rec[TrackHeaderSize+4:]
	if first[0] != byte(SectorNormal) || !bytes.Equal(first[1:1+size], data[2*size:3*size]) {
		t.Errorf("first slot does not hold physical sector 3")
	}

	track, _, err := DecodeTrack(rec, 0)
	if err != nil {
		t.Fatalf("DecodeTrack: %v", err)
	}
	if !bytes.Equal(track.SectorIDs, spec.SectorIDs) {
		t.Errorf("sector ids = %v, want %v", track.SectorIDs, spec.SectorIDs)
	}
	if !bytes.Equal(track.Linear(), data) {
		t.Errorf("decoded track is not in physical sector order")
	}
}

func TestDecodeTrackSkipsMaps(t *testing.T) {
	rec := []byte{
		5, 3, 0x01 | headCylinderMap | headHeadMap, 2, 0, // two 128 byte sectors on head 1
		2, 1, // sector ids
		3, 3, // cylinder map
		1, 1, // head map
		byte(SectorCompressed), 0xAA,
		byte(SectorCompressed), 0xBB,
	}

	track, next, err := DecodeTrack(rec, 0)
	if err != nil {
		t.Fatalf("DecodeTrack: %v", err)
	}
	if next != len(rec) {
		t.Errorf("next offset = %d, want %d", next, len(rec))
	}
	if track.Head != 1 || !track.HasCylMap || !track.HasHeadMap {
		t.Errorf("head = %d, cylinder map %v, head map %v", track.Head, track.HasCylMap, track.HasHeadMap)
	}
	want := append(bytes.Repeat([]byte{0xBB}, 128), bytes.Repeat([]byte{0xAA}, 128)...)
	if !bytes.Equal(track.Linear(), want) {
		t.Errorf("maps were not skipped or sectors were misplaced")
	}
}

func TestDecodeTrackErrors(t *testing.T) {
	tests := []struct {
		name  string
		rec   []byte
		check func(error) bool
	}{
		{
			name: "sector type 3",
			rec:  []byte{5, 1, 0, 1, 0, 1, 3, 0x00},
			check: func(err error) bool {
				var e *UnsupportedSectorTypeError
				return errors.As(err, &e) && e.Type == 3 && e.Cylinder == 1 && e.Offset == 6
			},
		},
		{
			name: "sector type 0",
			rec:  []byte{5, 0, 0, 1, 0, 1, 0},
			check: func(err error) bool {
				var e *UnsupportedSectorTypeError
				return errors.As(err, &e) && e.Type == 0
			},
		},
		{
			name: "size code 6",
			rec:  []byte{5, 2, 1, 1, 6, 1, 2, 0},
			check: func(err error) bool {
				var e *InvalidSectorSizeError
				return errors.As(err, &e) && e.Code == 6 && e.Size == -1 && e.Offset == 4
			},
		},
		{
			name: "duplicate sector id",
			rec:  []byte{5, 0, 0, 2, 0, 1, 1, 2, 0, 2, 0},
			check: func(err error) bool {
				var e *MalformedContainerError
				return errors.As(err, &e) && e.Offset == 5
			},
		},
		{
			name: "sector id zero",
			rec:  []byte{5, 0, 0, 1, 0, 0, 2, 0},
			check: func(err error) bool {
				var e *MalformedContainerError
				return errors.As(err, &e)
			},
		},
		{
			name: "zero based sector ids",
			rec:  []byte{5, 0, 0, 2, 0, 0, 1, 2, 0, 2, 0},
			check: func(err error) bool {
				var e *MalformedContainerError
				return errors.As(err, &e) && e.Offset == 5 &&
					strings.Contains(e.Reason, "only maps numbered 1..2 can be placed in a linear image")
			},
		},
		{
			name: "truncated header",
			rec:  []byte{5, 0, 0},
			check: func(err error) bool {
				var e *MalformedContainerError
				return errors.As(err, &e) && e.Cylinder == -1
			},
		},
		{
			name: "truncated sector data",
			rec:  append([]byte{5, 4, 0, 1, 0, 1, 1}, make([]byte, 100)...),
			check: func(err error) bool {
				var e *MalformedContainerError
				return errors.As(err, &e) && e.Cylinder == 4 && e.Offset == 7
			},
		},
		{
			name: "missing fill byte",
			rec:  []byte{5, 0, 0, 1, 0, 1, 2},
			check: func(err error) bool {
				var e *MalformedContainerError
				return errors.As(err, &e)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, _, err := DecodeTrack(tt.rec, 0)
			if err == nil {
				t.Fatalf("expected error, got track %+v", track)
			}
			if track != nil {
				t.Errorf("partial track returned with error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEncodeTrackErrors(t *testing.T) {
	tests := []struct {
		name string
		spec TrackSpec
		size int
	}{
		{name: "sector size without code", spec: TrackSpec{SectorsPerTrack: 2, SectorSize: 500}, size: 1000},
		{name: "short data", spec: TrackSpec{SectorsPerTrack: 2, SectorSize: 512}, size: 1000},
		{name: "id count mismatch", spec: TrackSpec{SectorsPerTrack: 2, SectorSize: 128, SectorIDs: []byte{1}}, size: 256},
		{name: "duplicate ids", spec: TrackSpec{SectorsPerTrack: 2, SectorSize: 128, SectorIDs: []byte{2, 2}}, size: 256},
		{name: "id out of range", spec: TrackSpec{SectorsPerTrack: 2, SectorSize: 128, SectorIDs: []byte{1, 3}}, size: 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, err := EncodeTrack(tt.spec, make([]byte, tt.size))
			if err == nil {
				t.Errorf("expected error, got %d bytes", len(rec))
			}
			if rec != nil {
				t.Errorf("bytes emitted alongside error")
			}
		})
	}
}
