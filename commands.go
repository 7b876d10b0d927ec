// Floppytool - floppy disk image utility
// commands.go - display, convert, unpack and pack commands
// Dual-licensed under MIT and Apache 2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"floppytool/floppy"
)

func (a *app) displayCommand() *cobra.Command {
	var ascii bool

	cmd := &cobra.Command{
		Use:   "display",
		Short: "Show the geometry and track layout of an image",
		RunE: func(cmd *cobra.Command, _ []string) error {
			img, err := a.load()
			if err != nil {
				return err
			}
			report, err := img.Display(ascii)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ascii, "ascii", false, "list every sector with its first 32 bytes as printable ASCII")
	return cmd
}

func (a *app) convertCommand() *cobra.Command {
	var (
		format, output, geometry, meta string
		validate                       bool
	)

	cmd := &cobra.Command{
		Use:   "convert --format img|imd --output <file>",
		Short: "Convert an image to another container format",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				return fmt.Errorf("--format is required (img or imd)")
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			target, err := floppy.ParseKind(format)
			if err != nil {
				return err
			}
			explicit, err := parseGeometryFlag(geometry)
			if err != nil {
				return err
			}

			src, err := a.load()
			if err != nil {
				return err
			}
			catalog, err := a.catalog()
			if err != nil {
				return err
			}

			opts := floppy.ConvertOptions{
				Options:  floppy.Options{Logger: a.log},
				Geometry: explicit,
				Catalog:  catalog,
			}
			if target == floppy.KindStructured {
				if path, ok := sidecarReadPath(meta, output); ok {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read sidecar metadata: %v", err)
					}
					if opts.Sidecar, err = floppy.ParseSidecar(data); err != nil {
						return err
					}
					a.log.Info("using sidecar metadata", "path", path, "tracks", len(opts.Sidecar.Tracks))
				}
			}

			conv, err := floppy.Convert(src, target, opts)
			if err != nil {
				return err
			}

			if validate {
				dec, err := src.Sectors(floppy.Options{})
				if err != nil {
					return err
				}
				if err := conv.Verify(dec.Raw); err != nil {
					return err
				}
				a.log.Info("validated output", "bytes", len(conv.Data))
			}

			if err := os.WriteFile(output, conv.Data, 0644); err != nil {
				return fmt.Errorf("failed to write output file: %v", err)
			}

			out := cmd.OutOrStdout()
			if target == floppy.KindRaw {
				if conv.Sidecar != nil {
					path := sidecarWritePath(meta, a.input)
					data, err := conv.Sidecar.MarshalBinary()
					if err != nil {
						return err
					}
					if err := os.WriteFile(path, data, 0644); err != nil {
						return fmt.Errorf("failed to write sidecar metadata: %v", err)
					}
					fmt.Fprintf(out, "Sidecar metadata written to %s\n", path)
				}
				fmt.Fprintf(out, "Geometry for reverse conversion: %s\n", conv.Geometry)
			}
			for _, note := range conv.Notes {
				fmt.Fprintf(out, "Note: %s\n", note)
			}
			fmt.Fprintf(out, "Converted to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "target format: img or imd")
	cmd.Flags().StringVar(&output, "output", "", "output file path")
	cmd.Flags().StringVar(&geometry, "geometry", autoGeometry, "auto or cylinders,heads,sectors,size,mode (e.g. 40,2,9,512,5)")
	cmd.Flags().StringVar(&meta, "meta", "", "sidecar metadata file (default <input>.meta when writing img, <output>.meta when writing imd)")
	cmd.Flags().BoolVar(&validate, "validate", false, "decode the output again and check it reproduces the source sectors")
	return cmd
}

func (a *app) unpackCommand() *cobra.Command {
	var output, dataFormat string

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Extract an IMD image to a directory of tracks and sectors",
		Long: "Extract an IMD image to <output>/<name>/ (or ./<name>/ when --output is omitted),\n" +
			"one track-CC-side-H directory per track holding track.meta and sector-N files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := lookupDataFormat(dataFormat)
			if err != nil {
				return err
			}
			img, err := a.load()
			if err != nil {
				return err
			}
			imd, ok := img.(*floppy.StructuredImage)
			if !ok {
				if img.Kind() == floppy.KindFlux {
					return fmt.Errorf("unpack .%s: %w", img.Kind(), floppy.ErrNoSectorData)
				}
				return fmt.Errorf("%w: unpack needs an .imd input, got .%s (convert it first)", floppy.ErrUnsupportedFormat, img.Kind())
			}

			rootDir, err := Unpack(imd, a.input, output, format, floppy.Options{Logger: a.log})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully unpacked IMD to: %s\n", rootDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "directory to create the unpacked folder in")
	cmd.Flags().StringVar(&dataFormat, "data-format", "binary", "sector data format: binary, hex, quoted or asciihex")
	return cmd
}

func (a *app) packCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pack --input <unpacked_directory> --output <file.imd>",
		Short: "Rebuild an IMD image from an unpacked directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireInput(); err != nil {
				return err
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			stats, err := Pack(a.input, output, floppy.Options{Logger: a.log})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully packed IMD to: %s (%d tracks, %d sectors, %d compressed)\n",
				output, stats.Tracks, stats.TotalSectors, stats.CompressedSectors)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "output .imd file")
	return cmd
}
