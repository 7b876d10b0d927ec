// Floppytool - floppy disk image utility
// pack.go - Pack an unpacked directory tree back into an IMD image
// Dual-licensed under MIT and Apache 2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"floppytool/floppy"
)

type packedTrack struct {
	dir  string
	meta TrackMeta
}

// Pack reconstructs an IMD file from an unpacked directory structure.
// Tracks are written in their recorded container order with their recorded
// sector-id ordering.
func Pack(unpackedDir string, outputFilename string, opts floppy.Options) (floppy.Stats, error) {
	var stats floppy.Stats
	log := opts.Logger

	var diskMeta DiskMeta
	if err := readMeta(filepath.Join(unpackedDir, diskMetaFile), &diskMeta); err != nil {
		return stats, fmt.Errorf("failed to read disk metadata: %v", err)
	}

	tracks, err := readTrackDirs(unpackedDir)
	if err != nil {
		return stats, err
	}
	if len(tracks) != diskMeta.Tracks {
		return stats, fmt.Errorf("disk metadata lists %d tracks but %d track directories were found", diskMeta.Tracks, len(tracks))
	}

	out := make([]byte, 0, len(diskMeta.Header)+1)
	for i, b := range diskMeta.Header {
		if b < 0 || b > 0xFF || b == floppy.HeaderTerminator {
			return stats, fmt.Errorf("disk metadata header byte %d is %d, not a header byte", i, b)
		}
		out = append(out, byte(b))
	}
	out = append(out, floppy.HeaderTerminator)
	for _, pt := range tracks {
		rec, compressed, err := packTrack(pt)
		if err != nil {
			return stats, err
		}
		out = append(out, rec...)

		stats.Tracks++
		stats.TotalSectors += len(pt.meta.SectorIDs)
		stats.CompressedSectors += compressed
		log.V(1).Info("packed track", "cylinder", pt.meta.Cylinder, "head", pt.meta.Head,
			"sectors", len(pt.meta.SectorIDs), "compressed", compressed)
	}

	if err := os.WriteFile(outputFilename, out, 0644); err != nil {
		return stats, fmt.Errorf("failed to write output file: %v", err)
	}
	log.Info("packed container", "tracks", stats.Tracks, "sectors", stats.TotalSectors,
		"compressed", stats.CompressedSectors, "bytes", len(out))
	return stats, nil
}

// readTrackDirs loads every track-CC-side-H/track.meta, ordered by container position
func readTrackDirs(unpackedDir string) ([]packedTrack, error) {
	entries, err := os.ReadDir(unpackedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read unpacked directory: %v", err)
	}

	var tracks []packedTrack
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var cyl, head uint8
		if _, err := fmt.Sscanf(entry.Name(), "track-%d-side-%d", &cyl, &head); err != nil {
			continue
		}

		dir := filepath.Join(unpackedDir, entry.Name())
		var meta TrackMeta
		if err := readMeta(filepath.Join(dir, trackMetaFile), &meta); err != nil {
			return nil, fmt.Errorf("failed to read track metadata for %s: %v", entry.Name(), err)
		}
		if meta.Cylinder != cyl || meta.Head != head {
			return nil, fmt.Errorf("%s holds metadata for cylinder %d, head %d", entry.Name(), meta.Cylinder, meta.Head)
		}
		tracks = append(tracks, packedTrack{dir: dir, meta: meta})
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].meta.Index < tracks[j].meta.Index
	})
	return tracks, nil
}

// packTrack reads a track's sector files and encodes its record
func packTrack(pt packedTrack) ([]byte, int, error) {
	m := pt.meta
	if len(m.SectorIDs) > 0xFF {
		return nil, 0, fmt.Errorf("track cyl %d, head %d: %d sectors do not fit a count byte", m.Cylinder, m.Head, len(m.SectorIDs))
	}

	size := int(m.SectorSize)
	ids := make([]byte, len(m.SectorIDs))
	physical := make([]byte, len(m.SectorIDs)*size)
	for i, id := range m.SectorIDs {
		if id < 1 || id > len(m.SectorIDs) {
			return nil, 0, fmt.Errorf("track cyl %d, head %d: sector id %d outside 1..%d", m.Cylinder, m.Head, id, len(m.SectorIDs))
		}
		ids[i] = byte(id)

		format, path, err := detectSectorFile(pt.dir, ids[i])
		if err != nil {
			return nil, 0, err
		}
		data, err := format.read(path)
		if err != nil {
			return nil, 0, err
		}
		if len(data) != size {
			return nil, 0, fmt.Errorf("%s holds %d bytes, track sector size is %d", path, len(data), size)
		}
		copy(physical[(id-1)*size:], data)
	}

	return floppy.EncodeTrack(floppy.TrackSpec{
		Mode:            m.Mode,
		Cylinder:        m.Cylinder,
		Head:            m.Head,
		SectorsPerTrack: uint8(len(ids)),
		SectorSize:      m.SectorSize,
		SectorIDs:       ids,
	}, physical)
}
