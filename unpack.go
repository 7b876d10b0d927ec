// Floppytool - floppy disk image utility
// unpack.go - Unpack an IMD image to a directory tree
// Dual-licensed under MIT and Apache 2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"floppytool/floppy"
)

const diskMetaFile = "disk-image.meta"
const trackMetaFile = "track.meta"

// DiskMeta is the content of disk-image.meta
type DiskMeta struct {
	// Header bytes without the 0x1A terminator. Ints keep 8-bit codepage
	// text exact, a JSON string would not.
	Header          []int  `json:"header"`
	Tracks          int    `json:"tracks"`
	Format          string `json:"format"`
	Cylinders       uint8  `json:"cylinders"`
	Heads           uint8  `json:"heads"`
	SectorsPerTrack uint8  `json:"sectors_per_track"`
	SectorSize      uint16 `json:"sector_size"`
	Mode            uint8  `json:"mode"`
}

// TrackMeta is the content of a track directory's track.meta
type TrackMeta struct {
	Index      int    `json:"index"` // position of the track in the container
	Mode       uint8  `json:"mode"`
	Cylinder   uint8  `json:"cylinder"`
	Head       uint8  `json:"head"`
	SectorSize uint16 `json:"sector_size"`
	// Ints rather than []byte, which would be base64 encoded
	SectorIDs  []int `json:"sector_ids"`
	Compressed int   `json:"compressed"`
}

func trackDirName(cylinder, head uint8) string {
	return fmt.Sprintf("track-%02d-side-%d", cylinder, head)
}

// Unpack extracts an IMD image to a directory structure and returns its root.
// If outputDir is empty, the folder matching the image filename (minus
// extension) is created in the current directory, else inside outputDir.
func Unpack(img *floppy.StructuredImage, imdFilename, outputDir string, format dataFormat, opts floppy.Options) (string, error) {
	dec, err := img.Sectors(opts)
	if err != nil {
		return "", err
	}
	g, err := img.Geometry()
	if err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(imdFilename), filepath.Ext(imdFilename))
	rootDir := baseName
	if outputDir != "" {
		rootDir = filepath.Join(outputDir, baseName)
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create root directory: %v", err)
	}

	header := dec.Sidecar.Header[:len(dec.Sidecar.Header)-1]
	diskMeta := DiskMeta{
		Header:          make([]int, len(header)),
		Tracks:          len(dec.Tracks),
		Format:          string(floppy.KindStructured),
		Cylinders:       g.Cylinders,
		Heads:           g.Heads,
		SectorsPerTrack: g.SectorsPerTrack,
		SectorSize:      g.SectorSize,
		Mode:            g.Mode,
	}
	for i, b := range header {
		diskMeta.Header[i] = int(b)
	}
	if err := writeMeta(filepath.Join(rootDir, diskMetaFile), diskMeta); err != nil {
		return "", fmt.Errorf("failed to write disk metadata: %v", err)
	}

	log := opts.Logger
	seen := make(map[string]bool, len(dec.Tracks))
	for i, t := range dec.Tracks {
		name := trackDirName(t.Cylinder, t.Head)
		if seen[name] {
			return "", fmt.Errorf("track %d repeats cylinder %d, head %d; it cannot be unpacked to its own directory", i, t.Cylinder, t.Head)
		}
		seen[name] = true

		trackDir := filepath.Join(rootDir, name)
		if err := os.MkdirAll(trackDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create track directory: %v", err)
		}

		trackMeta := TrackMeta{
			Index:      i,
			Mode:       t.Mode,
			Cylinder:   t.Cylinder,
			Head:       t.Head,
			SectorSize: t.SectorSize,
			SectorIDs:  make([]int, len(t.SectorIDs)),
			Compressed: t.Compressed(),
		}
		for j, id := range t.SectorIDs {
			trackMeta.SectorIDs[j] = int(id)
		}
		if err := writeMeta(filepath.Join(trackDir, trackMetaFile), trackMeta); err != nil {
			return "", fmt.Errorf("failed to write track metadata: %v", err)
		}

		for j, s := range t.Sectors {
			if err := format.write(format.sectorFile(trackDir, t.SectorIDs[j]), s.Data); err != nil {
				return "", fmt.Errorf("failed to write sector data: %v", err)
			}
		}
		log.V(1).Info("unpacked track", "cylinder", t.Cylinder, "head", t.Head, "sectors", t.SectorCount(), "dir", trackDir)
	}
	return rootDir, nil
}

func writeMeta(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readMeta(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
