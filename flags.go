// Floppytool - floppy disk image utility
// flags.go - Flag value parsing and default paths
// Dual-licensed under MIT and Apache 2.0

package main

import (
	"os"
	"strings"

	"floppytool/floppy"
)

const autoGeometry = "auto"

// parseGeometryFlag returns nil for "auto", leaving inference to the converter.
func parseGeometryFlag(s string) (*floppy.Geometry, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, autoGeometry) {
		return nil, nil
	}
	g, err := floppy.ParseGeometry(s)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// sidecarWritePath is where the sidecar of a decoded container is saved.
func sidecarWritePath(meta, input string) string {
	if meta != "" {
		return meta
	}
	return input + ".meta"
}

// sidecarReadPath is the sidecar consulted when encoding output: an explicit
// --meta, or <output>.meta when it exists.
func sidecarReadPath(meta, output string) (string, bool) {
	if meta != "" {
		return meta, true
	}
	p := output + ".meta"
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return "", false
}
