package lms

import (
	"encoding/binary"
	"fmt"
)

// Cursor reads sequential values from an immutable byte buffer.
// A Cursor is owned by a single decode pass and must not be shared.
type Cursor struct {
	buf   []byte
	pos   int
	order binary.ByteOrder

	chars *charDecoder
}

// NewCursor creates a cursor positioned at the start of buf.
func NewCursor(buf []byte, order binary.ByteOrder) *Cursor {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Cursor{buf: buf, order: order}
}

func (c *Cursor) Pos() int { return c.pos }
func (c *Cursor) Len() int { return len(c.buf) }
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }
func (c *Cursor) Order() binary.ByteOrder { return c.order }

// Seek moves the cursor to an absolute offset within the buffer.
func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.buf) {
		return fmt.Errorf("%w: seek to %d outside %d bytes", ErrTruncatedSection, offset, len(c.buf))
	}
	c.pos = offset
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Bytes returns the next n bytes. The returned slice aliases the buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *Cursor) Uint8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

// Char reads one character at the given encoding and returns its code point.
func (c *Cursor) Char(enc Encoding) (rune, error) {
	if c.chars == nil || c.chars.enc != enc {
		d, err := newCharDecoder(enc, c.order)
		if err != nil {
			return 0, err
		}
		c.chars = d
	}
	return c.chars.next(c)
}

func (c *Cursor) need(n int) error {
	if n < 0 || c.pos+n > len(c.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedSection, n, c.pos, len(c.buf)-c.pos)
	}
	return nil
}
