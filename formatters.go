// Floppytool - floppy disk image utility
// formatters.go - Sector data file formats and format detection
// Dual-licensed under MIT and Apache 2.0

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"mime/quotedprintable"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// minRLE is the shortest run asciihex stores as a repeat token.
const minRLE = 4

// dataFormat is one on-disk representation of a sector payload
type dataFormat struct {
	name   string
	ext    string
	encode func([]byte) ([]byte, error)
	decode func([]byte) ([]byte, error)
}

var dataFormats = []dataFormat{
	{name: "binary", ext: "bin", encode: identity, decode: identity},
	{name: "hex", ext: "hex", encode: encodeHex, decode: decodeHex},
	{name: "quoted", ext: "quoted", encode: encodeQuoted, decode: decodeQuoted},
	{name: "asciihex", ext: "asciihex", encode: encodeASCIIHexBytes, decode: decodeASCIIHexBytes},
}

func dataFormatNames() string {
	names := make([]string, len(dataFormats))
	for i, f := range dataFormats {
		names[i] = f.name
	}
	return strings.Join(names, ", ")
}

// lookupDataFormat returns the format registered under name
func lookupDataFormat(name string) (dataFormat, error) {
	for _, f := range dataFormats {
		if f.name == name {
			return f, nil
		}
	}
	return dataFormat{}, fmt.Errorf("invalid data format '%s'. Must be one of: %s", name, dataFormatNames())
}

// sectorFile is the path of a sector payload in this format
func (f dataFormat) sectorFile(trackDir string, id byte) string {
	return filepath.Join(trackDir, fmt.Sprintf("sector-%d.%s", id, f.ext))
}

func (f dataFormat) write(filename string, data []byte) error {
	encoded, err := f.encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s data: %v", f.name, err)
	}
	if err := os.WriteFile(filename, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %v", f.name, err)
	}
	return nil
}

func (f dataFormat) read(filename string) ([]byte, error) {
	encoded, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %v", f.name, err)
	}
	data, err := f.decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s data in %s: %v", f.name, filename, err)
	}
	return data, nil
}

// detectSectorFile finds the single payload file stored for a sector.
// Finding none, or more than one format, is an error.
func detectSectorFile(trackDir string, id byte) (dataFormat, string, error) {
	var (
		found []dataFormat
		names []string
	)
	for _, f := range dataFormats {
		if _, err := os.Stat(f.sectorFile(trackDir, id)); err == nil {
			found = append(found, f)
			names = append(names, f.name)
		}
	}

	switch len(found) {
	case 0:
		exts := make([]string, len(dataFormats))
		for i, f := range dataFormats {
			exts[i] = fmt.Sprintf("sector-%d.%s", id, f.ext)
		}
		return dataFormat{}, "", fmt.Errorf("no sector data file found for sector %d in %s (expected one of %s)",
			id, trackDir, strings.Join(exts, ", "))
	case 1:
		return found[0], found[0].sectorFile(trackDir, id), nil
	default:
		return dataFormat{}, "", fmt.Errorf("multiple sector data files found for sector %d in %s: %v (only one format should exist)",
			id, trackDir, names)
	}
}

func identity(data []byte) ([]byte, error) {
	return data, nil
}

func encodeHex(data []byte) ([]byte, error) {
	return []byte(hex.EncodeToString(data)), nil
}

func decodeHex(encoded []byte) ([]byte, error) {
	return hex.DecodeString(strings.TrimSpace(string(encoded)))
}

func encodeQuoted(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := quotedprintable.NewWriter(&buf)
	w.Binary = true
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeQuoted(encoded []byte) ([]byte, error) {
	return io.ReadAll(quotedprintable.NewReader(bytes.NewReader(encoded)))
}

// ASCII/hex hybrid
//
// Printable bytes are stored as themselves and everything else as hex pairs.
// A toggle character switches between the two modes and is repeated as the
// final character so the decoder can learn it. In hex mode a run of at least
// minRLE equal bytes is written XX*N; with N the run length in hex.

func encodeASCIIHexBytes(data []byte) ([]byte, error) {
	return []byte(encodeASCIIHex(data)), nil
}

func decodeASCIIHexBytes(encoded []byte) ([]byte, error) {
	return decodeASCIIHex(string(encoded))
}

func encodeASCIIHex(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	toggle := chooseToggle(data)
	var b strings.Builder
	inHex := false
	setHex := func(on bool) {
		if inHex != on {
			b.WriteByte(toggle)
			inHex = on
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		if run := countRepeats(data[i:]); run >= minRLE {
			setHex(true)
			fmt.Fprintf(&b, "%02X*%X;", c, run)
			i += run
			continue
		}
		if isPrintable(c) && c != toggle {
			setHex(false)
			b.WriteByte(c)
		} else {
			setHex(true)
			fmt.Fprintf(&b, "%02X", c)
		}
		i++
	}

	b.WriteByte(toggle)
	return b.String()
}

func decodeASCIIHex(encoded string) ([]byte, error) {
	if len(encoded) == 0 {
		return []byte{}, nil
	}

	toggle := encoded[len(encoded)-1]
	body := encoded[:len(encoded)-1]

	var out bytes.Buffer
	inHex := false
	for i := 0; i < len(body); {
		if body[i] == toggle {
			inHex = !inHex
			i++
			continue
		}
		if !inHex {
			out.WriteByte(body[i])
			i++
			continue
		}

		if i+2 > len(body) {
			return nil, fmt.Errorf("incomplete hex at position %d", i)
		}
		v, err := strconv.ParseUint(body[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex at position %d: %v", i, err)
		}
		i += 2

		if i < len(body) && body[i] == '*' {
			end := strings.IndexByte(body[i:], ';')
			if end < 0 {
				return nil, fmt.Errorf("unterminated repeat count at position %d", i)
			}
			count, err := strconv.ParseUint(body[i+1:i+end], 16, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid repeat count at position %d: %v", i, err)
			}
			out.Write(bytes.Repeat([]byte{byte(v)}, int(count)))
			i += end + 1
			continue
		}
		out.WriteByte(byte(v))
	}
	return out.Bytes(), nil
}

// chooseToggle picks the least used printable character that cannot be
// confused with hex mode content.
func chooseToggle(data []byte) byte {
	var freq [256]int
	for _, c := range data {
		freq[c]++
	}

	best, bestFreq := byte('~'), len(data)+1
	for c := byte(32); c <= 126; c++ {
		if isHexDigit(c) || c == '*' || c == ';' {
			continue
		}
		if freq[c] < bestFreq {
			best, bestFreq = c, freq[c]
			if bestFreq == 0 {
				break
			}
		}
	}
	return best
}

func countRepeats(data []byte) int {
	n := 0
	for n < len(data) && data[n] == data[0] {
		n++
	}
	return n
}

func isPrintable(c byte) bool {
	return c >= 32 && c <= 126
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}
