// Floppytool - floppy disk image utility
// cursor.go - Offset-aware reader over an in-memory container
// Dual-licensed under MIT and Apache 2.0

package floppy

import (
	"bytes"
	"fmt"
	"io"
)

// cursor reads a container that is fully in memory, reporting short reads as
// MalformedContainerError with the offset (relative to base) they happened at.
type cursor struct {
	r    *bytes.Reader
	base int
}

func newCursor(data []byte, base int) *cursor {
	return &cursor{r: bytes.NewReader(data), base: base}
}

// Offset is the absolute position of the next byte.
func (c *cursor) Offset() int {
	return c.base + int(c.r.Size()) - c.r.Len()
}

// Remaining is the number of unread bytes.
func (c *cursor) Remaining() int {
	return c.r.Len()
}

func (c *cursor) short(what string, want, cyl, head int) error {
	return &MalformedContainerError{
		Offset:   c.Offset(),
		Cylinder: cyl,
		Head:     head,
		Reason:   fmt.Sprintf("truncated %s: need %d bytes, have %d", what, want, c.Remaining()),
	}
}

// Bytes returns the next n bytes as a new slice.
func (c *cursor) Bytes(n int, what string, cyl, head int) ([]byte, error) {
	if c.Remaining() < n {
		return nil, c.short(what, n, cyl, head)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, c.short(what, n, cyl, head)
	}
	return buf, nil
}

// Byte returns the next byte.
func (c *cursor) Byte(what string, cyl, head int) (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		return 0, c.short(what, 1, cyl, head)
	}
	return b, nil
}

// Skip discards the next n bytes.
func (c *cursor) Skip(n int, what string, cyl, head int) error {
	if c.Remaining() < n {
		return c.short(what, n, cyl, head)
	}
	_, err := c.r.Seek(int64(n), io.SeekCurrent)
	return err
}
