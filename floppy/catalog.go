// Floppytool - floppy disk image utility
// catalog.go - User-supplied geometry catalogs
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// CatalogEntry is one geometry in a catalog file.
// Size may be omitted; it is then computed from the geometry.
type CatalogEntry struct {
	Name       string `yaml:"name" toml:"name" validate:"required"`
	Size       int    `yaml:"size,omitempty" toml:"size,omitempty" validate:"gte=0"`
	Cylinders  uint8  `yaml:"cylinders" toml:"cylinders" validate:"required"`
	Heads      uint8  `yaml:"heads" toml:"heads" validate:"required"`
	Sectors    uint8  `yaml:"sectors" toml:"sectors" validate:"required"`
	SectorSize uint16 `yaml:"sector_size" toml:"sector_size" validate:"oneof=128 256 512 1024 2048 4096"`
	Mode       uint8  `yaml:"mode" toml:"mode" validate:"lte=5"`
}

// Geometry returns the entry as a Geometry.
func (e CatalogEntry) Geometry() Geometry {
	return Geometry{
		Name:            e.Name,
		Cylinders:       e.Cylinders,
		Heads:           e.Heads,
		SectorsPerTrack: e.Sectors,
		SectorSize:      e.SectorSize,
		Mode:            e.Mode,
	}
}

// Catalog is an ordered list of geometries consulted before the built-in table.
// A nil Catalog behaves like InferGeometry.
type Catalog struct {
	Entries []CatalogEntry `yaml:"geometries" toml:"geometries" validate:"dive"`
}

var catalogValidator = validator.New()

// ParseCatalog decodes a YAML catalog document:
//
//	geometries:
//	  - name: "Kaypro II"
//	    cylinders: 40
//	    heads: 1
//	    sectors: 10
//	    sector_size: 512
//	    mode: 5
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse geometry catalog: %w", err)
	}
	return checkCatalog(&c)
}

// ParseTOMLCatalog decodes the TOML form of a catalog, one [[geometries]] table per entry.
func ParseTOMLCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse geometry catalog: %w", err)
	}
	return checkCatalog(&c)
}

func checkCatalog(c *Catalog) (*Catalog, error) {
	if err := catalogValidator.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid geometry catalog: %w", err)
	}
	for i, e := range c.Entries {
		g := e.Geometry()
		if e.Size != 0 && e.Size != g.TotalSize() {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, e.Name,
				&GeometryMismatchError{Geometry: g, Expected: g.TotalSize(), Actual: e.Size})
		}
	}
	return c, nil
}

// LoadCatalog reads and parses a catalog file; .toml files are read as TOML,
// anything else as YAML.
func LoadCatalog(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry catalog: %w", err)
	}
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		return ParseTOMLCatalog(data)
	}
	return ParseCatalog(data)
}

// Infer returns the first catalog entry matching size, then falls back to InferGeometry.
func (c *Catalog) Infer(size int) (Geometry, bool) {
	if c != nil {
		for _, e := range c.Entries {
			g := e.Geometry()
			if g.TotalSize() == size {
				return g, true
			}
		}
	}
	return InferGeometry(size)
}
