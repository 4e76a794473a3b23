package lms

import (
	"encoding/binary"
	"fmt"
)

const (
	headerSize       = 0x20
	sectionAlignment = 16
)

// SectionTag identifies a known LMS section kind.
type SectionTag int

const (
	TagUnknown SectionTag = iota
	TagLBL1
	TagATR1
	TagTSY1
	TagTXT2
	TagNLI1
	TagATO1
	TagTXTW
)

var sectionTags = map[string]SectionTag{
	"LBL1": TagLBL1,
	"ATR1": TagATR1,
	"TSY1": TagTSY1,
	"TXT2": TagTXT2,
	"NLI1": TagNLI1,
	"ATO1": TagATO1,
	"TXTW": TagTXTW,
}

// ParseTag maps a 4-byte section name to its tag. Unrecognized names map to TagUnknown.
func ParseTag(name string) SectionTag {
	return sectionTags[name]
}

func (t SectionTag) String() string {
	for name, tag := range sectionTags {
		if tag == t {
			return name
		}
	}
	return "unknown"
}

// Header holds the fixed-size LMS file header.
type Header struct {
	Magic        string
	Order        binary.ByteOrder
	Encoding     Encoding
	Version      uint8
	SectionCount uint16
	FileSize     uint32
}

// Section is one tagged region of the container.
type Section struct {
	Tag    SectionTag
	Name   string
	Offset int
	Data   []byte
}

// File is a validated LMS container split into sections.
type File struct {
	Header
	Sections []Section
}

// Cursor returns a new cursor scoped to the section's content.
func (f *File) Cursor(s Section) *Cursor {
	return NewCursor(s.Data, f.Order)
}

// Parse validates the LMS header of data and splits the remainder into sections.
// Section contents are not decoded; callers switch on Section.Tag.
func Parse(data []byte, magic string, versions []uint8) (*File, error) {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: want %q", ErrBadMagic, magic)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncatedSection, headerSize, len(data))
	}

	var order binary.ByteOrder
	switch {
	case data[8] == 0xFE && data[9] == 0xFF:
		order = binary.BigEndian
	case data[8] == 0xFF && data[9] == 0xFE:
		order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("%w: % X", ErrBadByteOrder, data[8:10])
	}

	c := NewCursor(data, order)
	if err := c.Seek(0x0C); err != nil {
		return nil, err
	}

	f := &File{Header: Header{Magic: magic, Order: order}}

	enc, _ := c.Uint8()
	f.Encoding = Encoding(enc)
	f.Version, _ = c.Uint8()

	if !versionAllowed(f.Version, versions) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if !f.Encoding.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, enc)
	}

	f.SectionCount, _ = c.Uint16()
	_ = c.Skip(2)
	f.FileSize, _ = c.Uint32()

	if err := c.Seek(headerSize); err != nil {
		return nil, err
	}

	for i := 0; i < int(f.SectionCount); i++ {
		s, err := readSection(c)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		f.Sections = append(f.Sections, s)
	}

	return f, nil
}

func readSection(c *Cursor) (Section, error) {
	name, err := c.Bytes(4)
	if err != nil {
		return Section{}, err
	}
	size, err := c.Uint32()
	if err != nil {
		return Section{}, err
	}
	if err := c.Skip(8); err != nil {
		return Section{}, err
	}

	s := Section{
		Tag:    ParseTag(string(name)),
		Name:   string(name),
		Offset: c.Pos(),
	}
	if s.Data, err = c.Bytes(int(size)); err != nil {
		return Section{}, fmt.Errorf("%s: %w", s.Name, err)
	}

	// Trailing padding may be omitted after the last section.
	pad := (sectionAlignment - c.Pos()%sectionAlignment) % sectionAlignment
	_ = c.Skip(min(pad, c.Remaining()))

	return s, nil
}

func versionAllowed(v uint8, versions []uint8) bool {
	for _, allowed := range versions {
		if v == allowed {
			return true
		}
	}
	return false
}
