// Floppytool - floppy disk image utility
// main.go - Main entry point and command setup
// Dual-licensed under MIT and Apache 2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"floppytool/floppy"
)

// app holds the global flags shared by every command
type app struct {
	input       string
	catalogPath string
	verbose     bool
	log         logr.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{log: logr.Discard()}

	root := &cobra.Command{
		Use:           "floppytool",
		Short:         "Floppy disk image utility",
		Long:          "Display, convert, unpack and pack raw (.img), IMD (.imd) and SCP flux (.scp) floppy disk images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.log = newLogger(cmd.ErrOrStderr(), a.verbose)
		},
	}
	root.PersistentFlags().StringVarP(&a.input, "input", "i", "", "input image file (unpacked directory for pack)")
	root.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "YAML geometry catalog consulted before the built-in table")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log per-track progress to stderr")

	root.AddCommand(a.displayCommand(), a.convertCommand(), a.unpackCommand(), a.packCommand())
	return root
}

// newLogger logs to w; verbose enables the per-track V(1) messages.
func newLogger(w io.Writer, verbose bool) logr.Logger {
	opts := funcr.Options{}
	if verbose {
		opts.Verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, opts)
}

func (a *app) requireInput() error {
	if a.input == "" {
		return fmt.Errorf("--input is required")
	}
	return nil
}

func (a *app) catalog() (*floppy.Catalog, error) {
	if a.catalogPath == "" {
		return nil, nil
	}
	return floppy.LoadCatalog(a.catalogPath)
}

// load reads --input and wraps it in the image variant its extension selects.
func (a *app) load() (floppy.Image, error) {
	if err := a.requireInput(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %v", err)
	}
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}
	return floppy.Load(a.input, data, catalog)
}
