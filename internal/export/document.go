package export

import (
	"msgstudio/internal/msbt"
	"msgstudio/internal/textutil"
)

// Document is one decoded message file ready for export or storage.
type Document struct {
	File    string       `json:"file"`
	Hash    string       `json:"hash"`
	Entries []msbt.Entry `json:"entries"`
	// Markup is index-aligned with Entries.
	Markup []string `json:"markup,omitempty"`
	// Styles is empty when the file has no TSY1 section.
	Styles []uint32 `json:"styles,omitempty"`
	// Tags lists the control tag names used per entry, index-aligned with Entries.
	Tags [][]string `json:"-"`
}

// NewDocument builds a Document from a parsed file. data is the raw source used for Hash.
func NewDocument(file string, data []byte, m *msbt.MSBT) Document {
	blocks := m.Blocks()

	doc := Document{
		File:    file,
		Hash:    textutil.Hash(data),
		Entries: m.EntryList(),
		Markup:  make([]string, m.Len()),
		Tags:    make([][]string, m.Len()),
	}
	if len(blocks.Styles) == m.Len() {
		doc.Styles = blocks.Styles
	}
	for i, msg := range blocks.Messages {
		doc.Markup[i] = m.Markup(i)
		doc.Tags[i] = msg.Tags()
	}
	return doc
}

// Style returns the TSY1 style index for entry i, or -1 if the file has none.
func (d Document) Style(i int) int64 {
	if i < len(d.Styles) {
		return int64(d.Styles[i])
	}
	return -1
}
