package lms

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Encoding is the text encoding declared in an LMS header.
type Encoding uint8

const (
	EncodingUTF8  Encoding = 0
	EncodingUTF16 Encoding = 1
	EncodingUTF32 Encoding = 2
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "UTF-8"
	case EncodingUTF16:
		return "UTF-16"
	case EncodingUTF32:
		return "UTF-32"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// Valid reports whether e is one of the encodings LMS files declare.
func (e Encoding) Valid() bool {
	return e <= EncodingUTF32
}

// Width returns the code unit size in bytes.
func (e Encoding) Width() int {
	switch e {
	case EncodingUTF16:
		return 2
	case EncodingUTF32:
		return 4
	default:
		return 1
	}
}

// charDecoder turns raw code units into code points for one cursor.
type charDecoder struct {
	enc Encoding
	dec *encoding.Decoder
}

func newCharDecoder(enc Encoding, order binary.ByteOrder) (*charDecoder, error) {
	d := &charDecoder{enc: enc}
	big := order == binary.BigEndian

	switch enc {
	case EncodingUTF8:
		// utf8.DecodeRune handles this directly.
	case EncodingUTF16:
		endian := unicode.LittleEndian
		if big {
			endian = unicode.BigEndian
		}
		d.dec = unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder()
	case EncodingUTF32:
		endian := utf32.LittleEndian
		if big {
			endian = utf32.BigEndian
		}
		d.dec = utf32.UTF32(endian, utf32.IgnoreBOM).NewDecoder()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, uint8(enc))
	}

	return d, nil
}

func (d *charDecoder) next(c *Cursor) (rune, error) {
	switch d.enc {
	case EncodingUTF16:
		raw, err := c.Bytes(2)
		if err != nil {
			return 0, err
		}
		// A high surrogate joins the next unit only if that unit is a low
		// surrogate. Otherwise it decodes alone and the next unit is left unread.
		if unit := c.order.Uint16(raw); unit >= 0xD800 && unit < 0xDC00 {
			if c.Remaining() < 2 {
				return utf8.RuneError, nil
			}
			low := c.order.Uint16(c.buf[c.pos:])
			if low < 0xDC00 || low > 0xDFFF {
				return utf8.RuneError, nil
			}
			raw = append(raw[:2:2], c.buf[c.pos:c.pos+2]...)
			c.pos += 2
		}
		return d.decode(raw)

	case EncodingUTF32:
		raw, err := c.Bytes(4)
		if err != nil {
			return 0, err
		}
		return d.decode(raw)

	default:
		if err := c.need(1); err != nil {
			return 0, err
		}
		end := min(c.pos+utf8.UTFMax, len(c.buf))
		r, size := utf8.DecodeRune(c.buf[c.pos:end])
		c.pos += size
		return r, nil
	}
}

func (d *charDecoder) decode(raw []byte) (rune, error) {
	out, err := d.dec.Bytes(raw)
	if err != nil {
		return 0, fmt.Errorf("decode %s character: %w", d.enc, err)
	}
	r, _ := utf8.DecodeRune(out)
	return r, nil
}
