// Floppytool - floppy disk image utility
// raw.go - Raw sector dump images
// Dual-licensed under MIT and Apache 2.0

package floppy

// RawImage is a headerless sector dump in (cylinder, head, sector) order.
type RawImage struct {
	data    []byte
	catalog *Catalog
}

// NewRawImage wraps a raw sector dump.
func NewRawImage(data []byte, catalog *Catalog) *RawImage {
	return &RawImage{data: data, catalog: catalog}
}

func (r *RawImage) Kind() Kind   { return KindRaw }
func (r *RawImage) Data() []byte { return r.data }

// Geometry infers the layout from the image size.
func (r *RawImage) Geometry() (Geometry, error) {
	g, ok := r.catalog.Infer(len(r.data))
	if !ok {
		return Geometry{}, &AmbiguousGeometryError{Size: len(r.data)}
	}
	return g, nil
}

func (r *RawImage) Display(ascii bool) (string, error) {
	g, err := r.Geometry()
	if err != nil {
		return "", err
	}
	return Report(g, r.data, ascii), nil
}

// Sectors returns the image itself; a raw image has no framing to record.
func (r *RawImage) Sectors(Options) (*Decoded, error) {
	d := &Decoded{Raw: r.data}
	if g, err := r.Geometry(); err == nil {
		d.Stats = Stats{
			Tracks:       int(g.Cylinders) * int(g.Heads),
			TotalSectors: int(g.Cylinders) * int(g.Heads) * int(g.SectorsPerTrack),
		}
	}
	return d, nil
}
