// Floppytool - floppy disk image utility
// image.go - Image interface, loading and conversion between kinds
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies an image container format.
type Kind string

const (
	KindRaw        Kind = "img" // raw sector dump
	KindStructured Kind = "imd" // track-structured container
	KindFlux       Kind = "scp" // flux capture, metadata only
)

// ParseKind maps a format name or file extension (with or without the dot) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimPrefix(s, "."))); k {
	case KindRaw, KindStructured, KindFlux:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Image is a loaded disk image of any kind.
type Image interface {
	Kind() Kind
	// Data is the image file as loaded.
	Data() []byte
	// Geometry is the layout the image implies.
	Geometry() (Geometry, error)
	// Display renders a report; ascii lists every sector with a printable preview.
	Display(ascii bool) (string, error)
	// Sectors returns the image's sectors as a linear raw buffer.
	Sectors(opts Options) (*Decoded, error)
}

// Load wraps file data in the Image variant selected by the file extension.
// The catalog, which may be nil, is consulted when raw image geometry is inferred.
func Load(filename string, data []byte, catalog *Catalog) (Image, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no file extension", ErrUnsupportedFormat, filename)
	}
	kind, err := ParseKind(ext)
	if err != nil {
		return nil, err
	}
	return New(kind, data, catalog)
}

// New wraps data in the Image variant for kind.
func New(kind Kind, data []byte, catalog *Catalog) (Image, error) {
	switch kind {
	case KindRaw:
		return NewRawImage(data, catalog), nil
	case KindStructured:
		return NewStructuredImage(data), nil
	case KindFlux:
		return NewFluxImage(data), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
}

// ConvertOptions controls Convert.
type ConvertOptions struct {
	Options
	// Geometry overrides inference when non-nil.
	Geometry *Geometry
	// Sidecar restores the original framing when encoding a structured container.
	Sidecar *Sidecar
	// Catalog is consulted before the built-in geometry table.
	Catalog *Catalog
}

// Conversion is the output of Convert.
type Conversion struct {
	Kind     Kind
	Data     []byte
	Geometry Geometry
	Stats    Stats
	// Sidecar is set when a structured container was decoded to raw sectors.
	Sidecar *Sidecar
	// Notes are informational messages, never failures.
	Notes []string
}

// Convert translates src into the target kind.
func Convert(src Image, target Kind, opts ConvertOptions) (*Conversion, error) {
	if src.Kind() == KindFlux {
		return nil, fmt.Errorf("conversion from .%s: %w", KindFlux, ErrNoSectorData)
	}

	var (
		conv *Conversion
		err  error
	)
	switch target {
	case KindRaw:
		conv, err = toRaw(src, opts)
	case KindStructured:
		conv, err = toStructured(src, opts)
	default:
		return nil, fmt.Errorf("conversion to %q: %w", target, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	if in, out := len(src.Data()), len(conv.Data); in != out {
		conv.Notes = append(conv.Notes, fmt.Sprintf("Output size %d bytes differs from input size %d bytes (%d of %d sectors stored compressed)",
			out, in, conv.Stats.CompressedSectors, conv.Stats.TotalSectors))
	}
	return conv, nil
}

func toRaw(src Image, opts ConvertOptions) (*Conversion, error) {
	dec, err := src.Sectors(opts.Options)
	if err != nil {
		return nil, err
	}
	conv := &Conversion{Kind: KindRaw, Data: dec.Raw, Stats: dec.Stats, Sidecar: dec.Sidecar}

	if opts.Geometry != nil {
		if opts.Geometry.TotalSize() != len(dec.Raw) {
			return nil, &GeometryMismatchError{Geometry: *opts.Geometry, Expected: opts.Geometry.TotalSize(), Actual: len(dec.Raw)}
		}
		conv.Geometry = *opts.Geometry
		return conv, nil
	}

	g, err := src.Geometry()
	if err != nil {
		return nil, err
	}
	conv.Geometry = g
	if g.TotalSize() != len(dec.Raw) {
		conv.Notes = append(conv.Notes, fmt.Sprintf("Decoded %d bytes; geometry %s implies %d bytes (tracks differ in layout)",
			len(dec.Raw), g, g.TotalSize()))
	}
	return conv, nil
}

func toStructured(src Image, opts ConvertOptions) (*Conversion, error) {
	dec, err := src.Sectors(opts.Options)
	if err != nil {
		return nil, err
	}

	var g Geometry
	switch {
	case opts.Geometry != nil:
		g = *opts.Geometry
	case src.Kind() == KindStructured:
		if g, err = src.Geometry(); err != nil {
			return nil, err
		}
	default:
		var ok bool
		if g, ok = opts.Catalog.Infer(len(dec.Raw)); !ok {
			return nil, &AmbiguousGeometryError{Size: len(dec.Raw)}
		}
	}

	meta := opts.Sidecar
	if meta == nil {
		meta = dec.Sidecar
	}
	out, stats, err := EncodeContainer(dec.Raw, g, meta, opts.Options)
	if err != nil {
		return nil, err
	}
	return &Conversion{Kind: KindStructured, Data: out, Geometry: g, Stats: stats}, nil
}

// Verify decodes the conversion output again and checks it holds want,
// the raw sectors of the conversion source.
func (c *Conversion) Verify(want []byte) error {
	switch c.Kind {
	case KindStructured:
		dec, err := DecodeContainer(c.Data, Options{})
		if err != nil {
			return fmt.Errorf("validation failed: output does not decode: %w", err)
		}
		if !bytes.Equal(dec.Raw, want) {
			return fmt.Errorf("validation failed: output decodes to %d bytes that differ from the %d source bytes", len(dec.Raw), len(want))
		}
	case KindRaw:
		if !bytes.Equal(c.Data, want) {
			return fmt.Errorf("validation failed: output of %d bytes differs from the %d decoded bytes", len(c.Data), len(want))
		}
		if c.Geometry.TotalSize() != len(c.Data) {
			return fmt.Errorf("validation failed: %w",
				&GeometryMismatchError{Geometry: c.Geometry, Expected: c.Geometry.TotalSize(), Actual: len(c.Data)})
		}
	}
	return nil
}
