// Floppytool - floppy disk image utility
// formatters_test.go - Unit tests for sector data formats
// Dual-licensed under MIT and Apache 2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeASCIIHex(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{name: "plain text", data: []byte("HELLO"), expected: "HELLO "},
		{name: "text with spaces", data: []byte("A B"), expected: "A B!"},
		{name: "run then text", data: []byte{0, 0, 0, 0, 'A'}, expected: " 00*4; A "},
		{name: "run then hex byte", data: []byte{0xE5, 0xE5, 0xE5, 0xE5, 0xE5, 0x01}, expected: " E5*5;01 "},
		{name: "short run stays literal", data: []byte("AAAB"), expected: "AAAB "},
		{name: "empty", data: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeASCIIHex(tt.data)
			if got != tt.expected {
				t.Errorf("encodeASCIIHex(% X) = %q, expected %q", tt.data, got, tt.expected)
			}
			decoded, err := decodeASCIIHex(got)
			if err != nil {
				t.Fatalf("decodeASCIIHex(%q): %v", got, err)
			}
			if !bytes.Equal(decoded, tt.data) && !(len(decoded) == 0 && len(tt.data) == 0) {
				t.Errorf("decodeASCIIHex(%q) = % X, expected % X", got, decoded, tt.data)
			}
		})
	}
}

func TestDecodeASCIIHexErrors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		errMsg  string
	}{
		{name: "odd hex digits", encoded: " 0 ", errMsg: "incomplete hex"},
		{name: "not hex", encoded: " ZZ ", errMsg: "invalid hex"},
		{name: "unterminated run", encoded: " 00*4 ", errMsg: "unterminated repeat count"},
		{name: "bad run count", encoded: " 00*G; ", errMsg: "invalid repeat count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeASCIIHex(tt.encoded)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("decodeASCIIHex(%q) error = %v, expected %q", tt.encoded, err, tt.errMsg)
			}
		})
	}
}

func TestDataFormatsRoundTrip(t *testing.T) {
	binary := make([]byte, 512)
	for i := range binary {
		binary[i] = byte(i * 7)
	}
	mixed := append([]byte("CP/M 2.2 SYSTEM\r\n"), bytes.Repeat([]byte{0xE5}, 200)...)
	mixed = append(mixed, 0x00, '*', ';', ' ', '!', 0x1A)

	payloads := map[string][]byte{
		"binary":  binary,
		"fill":    bytes.Repeat([]byte{0xF6}, 512),
		"mixed":   mixed,
		"all hex": []byte("0123456789ABCDEFabcdef"),
	}

	dir := t.TempDir()
	for _, f := range dataFormats {
		for name, data := range payloads {
			t.Run(f.name+"/"+name, func(t *testing.T) {
				path := filepath.Join(dir, f.name+"-"+strings.ReplaceAll(name, " ", "-")+"."+f.ext)
				if err := f.write(path, data); err != nil {
					t.Fatalf("write: %v", err)
				}
				got, err := f.read(path)
				if err != nil {
					t.Fatalf("read: %v", err)
				}
				if !bytes.Equal(got, data) {
					t.Errorf("round trip changed the data:\n got % X\nwant % X", got, data)
				}
			})
		}
	}
}

func TestLookupDataFormat(t *testing.T) {
	for _, name := range []string{"binary", "hex", "quoted", "asciihex"} {
		if f, err := lookupDataFormat(name); err != nil || f.name != name {
			t.Errorf("lookupDataFormat(%q) = %q, %v", name, f.name, err)
		}
	}
	if _, err := lookupDataFormat("invalid"); err == nil || !strings.Contains(err.Error(), "invalid data format") {
		t.Errorf("lookupDataFormat(invalid) error = %v", err)
	}
}

func TestDetectSectorFile(t *testing.T) {
	dir := t.TempDir()

	if _, _, err := detectSectorFile(dir, 1); err == nil || !strings.Contains(err.Error(), "no sector data file") {
		t.Errorf("empty directory error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "sector-1.hex"), []byte("00"), 0644); err != nil {
		t.Fatal(err)
	}
	f, path, err := detectSectorFile(dir, 1)
	if err != nil || f.name != "hex" || filepath.Base(path) != "sector-1.hex" {
		t.Errorf("detectSectorFile = %q, %q, %v", f.name, path, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "sector-1.bin"), []byte{0}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := detectSectorFile(dir, 1); err == nil || !strings.Contains(err.Error(), "multiple sector data files") {
		t.Errorf("two formats error = %v", err)
	}
}
