// Package lmstest builds LMS containers in memory for tests.
package lmstest

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"msgstudio/internal/lms"
)

type section struct {
	name string
	data []byte
}

// Builder assembles a container. The zero value is not usable; call New.
type Builder struct {
	Magic    string
	Order    binary.ByteOrder
	Encoding lms.Encoding
	Version  uint8

	sections []section
}

// New returns a little-endian UTF-16 version 3 builder.
func New(magic string) *Builder {
	return &Builder{
		Magic:    magic,
		Order:    binary.LittleEndian,
		Encoding: lms.EncodingUTF16,
		Version:  3,
	}
}

// Section appends a raw section.
func (b *Builder) Section(name string, data []byte) *Builder {
	b.sections = append(b.sections, section{name: name, data: data})
	return b
}

// Bytes serializes the header and sections.
func (b *Builder) Bytes() []byte {
	var body bytes.Buffer
	for _, s := range b.sections {
		body.WriteString(s.name)
		body.Write(b.u32(uint32(len(s.data))))
		body.Write(make([]byte, 8))
		body.Write(s.data)
		for body.Len()%16 != 0 {
			body.WriteByte(0xAB)
		}
	}

	var out bytes.Buffer
	out.WriteString(b.Magic)
	if b.Order == binary.BigEndian {
		out.Write([]byte{0xFE, 0xFF})
	} else {
		out.Write([]byte{0xFF, 0xFE})
	}
	out.Write([]byte{0, 0})
	out.WriteByte(byte(b.Encoding))
	out.WriteByte(b.Version)
	out.Write(b.u16(uint16(len(b.sections))))
	out.Write([]byte{0, 0})
	out.Write(b.u32(uint32(0x20 + body.Len())))
	out.Write(make([]byte, 10))
	out.Write(body.Bytes())
	return out.Bytes()
}

// Text encodes s at the builder's encoding without a terminator.
func (b *Builder) Text(s string) []byte {
	big := b.Order == binary.BigEndian
	switch b.Encoding {
	case lms.EncodingUTF16:
		endian := unicode.LittleEndian
		if big {
			endian = unicode.BigEndian
		}
		out, _ := unicode.UTF16(endian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
		return out
	case lms.EncodingUTF32:
		endian := utf32.LittleEndian
		if big {
			endian = utf32.BigEndian
		}
		out, _ := utf32.UTF32(endian, utf32.IgnoreBOM).NewEncoder().Bytes([]byte(s))
		return out
	default:
		return []byte(s)
	}
}

// End is the NUL terminator at the builder's encoding.
func (b *Builder) End() []byte {
	return b.Text("\x00")
}

// Control encodes a shift code with its group, code and parameters.
func (b *Builder) Control(shift rune, group, code uint16, params []byte) []byte {
	return Join(
		b.Text(string(shift)),
		b.u16(group),
		b.u16(code),
		b.u16(uint16(len(params))),
		params,
	)
}

// Message joins parts and appends the terminator.
func (b *Builder) Message(parts ...[]byte) []byte {
	return append(Join(parts...), b.End()...)
}

// Messages builds a TXT2 body: count, offsets, then the message streams.
func (b *Builder) Messages(bodies ...[]byte) []byte {
	var out bytes.Buffer
	out.Write(b.u32(uint32(len(bodies))))

	offset := 4 + 4*len(bodies)
	for _, body := range bodies {
		out.Write(b.u32(uint32(offset)))
		offset += len(body)
	}
	for _, body := range bodies {
		out.Write(body)
	}
	return out.Bytes()
}

// Labels builds an LBL1 body with one bucket per label. Buckets are written
// in reverse so decoders must order by index.
func (b *Builder) Labels(names ...string) []byte {
	var table, data bytes.Buffer
	table.Write(b.u32(uint32(len(names))))

	offset := 4 + 8*len(names)
	for i := len(names) - 1; i >= 0; i-- {
		table.Write(b.u32(1))
		table.Write(b.u32(uint32(offset + data.Len())))

		data.WriteByte(byte(len(names[i])))
		data.WriteString(names[i])
		data.Write(b.u32(uint32(i)))
	}

	return append(table.Bytes(), data.Bytes()...)
}

// Scalars builds a packed uint32 array.
func (b *Builder) Scalars(values ...uint32) []byte {
	var out []byte
	for _, v := range values {
		out = append(out, b.u32(v)...)
	}
	return out
}

// Join concatenates byte slices.
func Join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func (b *Builder) u16(v uint16) []byte {
	out := make([]byte, 2)
	b.Order.PutUint16(out, v)
	return out
}

func (b *Builder) u32(v uint32) []byte {
	out := make([]byte, 4)
	b.Order.PutUint32(out, v)
	return out
}
