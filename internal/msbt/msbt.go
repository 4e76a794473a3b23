package msbt

import (
	"errors"
	"fmt"
	"slices"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/rs/zerolog/log"

	"msgstudio/internal/lms"
)

// Magic identifies an MSBT container.
const Magic = "MsgStdBn"

// SupportedVersions lists the header version bytes Parse accepts.
var SupportedVersions = []uint8{3}

var (
	ErrLabelMessageCountMismatch = errors.New("label and message counts differ")
	ErrUnbalancedMarkup          = errors.New("unbalanced markup")
)

// Blocks holds the decoded sections of one MSBT file.
type Blocks struct {
	Labels   []string
	Styles   []uint32
	Messages []Message
}

// Entry is a label with the plain text of its message.
type Entry struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type options struct {
	tags      FormatTree
	transform func(rune) string
}

// Option configures Parse.
type Option func(*options)

// WithTagFormats sets the registry used to classify and render control tags.
// The default registry is empty, so every tag decodes as inline.
func WithTagFormats(tags FormatTree) Option {
	return func(o *options) { o.tags = tags }
}

// WithLiteralTransform replaces the per-character transform applied to literal text.
// The default is EscapeHTML.
func WithLiteralTransform(fn func(rune) string) Option {
	return func(o *options) {
		if fn != nil {
			o.transform = fn
		}
	}
}

// MSBT is a parsed message file. It is immutable after Parse returns.
type MSBT struct {
	header  lms.Header
	blocks  Blocks
	tags    FormatTree
	entries *orderedmap.OrderedMap[string, string]
}

// Parse decodes an MSBT container. Structural problems abort the parse and
// return no result; markup problems are recorded on the affected Message.
func Parse(source []byte, opts ...Option) (*MSBT, error) {
	o := options{tags: FormatTree{}, transform: EscapeHTML}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := lms.Parse(source, Magic, SupportedVersions)
	if err != nil {
		return nil, fmt.Errorf("parse msbt: %w", err)
	}

	m := &MSBT{header: f.Header, tags: o.tags}
	dec := &messageDecoder{enc: f.Encoding, tags: o.tags, transform: o.transform}

	for _, s := range f.Sections {
		c := f.Cursor(s)

		switch s.Tag {
		case lms.TagLBL1:
			m.blocks.Labels, err = lms.DecodeLabels(c)
		case lms.TagTSY1:
			m.blocks.Styles, err = decodeScalars(c)
		case lms.TagTXT2:
			m.blocks.Messages, err = dec.decodeBlock(c)
		case lms.TagATR1, lms.TagNLI1, lms.TagATO1, lms.TagTXTW, lms.TagUnknown:
			log.Debug().Str("section", s.Name).Int("size", len(s.Data)).Msg("Skipping section")
		default:
			log.Debug().Str("section", s.Name).Msg("Skipping section")
		}

		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.Name, err)
		}
	}

	if m.entries, err = Project(m.blocks.Labels, m.blocks.Messages); err != nil {
		return nil, err
	}

	for i, msg := range m.blocks.Messages {
		for _, issue := range msg.Issues {
			log.Warn().Err(issue).Str("label", m.blocks.Labels[i]).Msg("Markup issue")
		}
	}

	return m, nil
}

// Project pairs labels with the plain text of the message at the same index.
func Project(labels []string, messages []Message) (*orderedmap.OrderedMap[string, string], error) {
	if len(labels) != len(messages) {
		return nil, fmt.Errorf("%w: %d labels, %d messages", ErrLabelMessageCountMismatch, len(labels), len(messages))
	}

	entries := orderedmap.NewOrderedMap[string, string]()
	for i, label := range labels {
		entries.Set(label, messages[i].Text())
	}
	return entries, nil
}

// decodeScalars reads a section as packed uint32 values.
func decodeScalars(c *lms.Cursor) ([]uint32, error) {
	if c.Len()%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of 4", lms.ErrTruncatedSection, c.Len())
	}

	values := make([]uint32, c.Len()/4)
	for i := range values {
		values[i], _ = c.Uint32()
	}
	return values, nil
}

// Header returns the container header of the parsed file.
func (m *MSBT) Header() lms.Header { return m.header }

// Len returns the number of messages.
func (m *MSBT) Len() int { return len(m.blocks.Messages) }

// Blocks returns a deep copy of the decoded sections.
func (m *MSBT) Blocks() Blocks {
	messages := make([]Message, len(m.blocks.Messages))
	for i, msg := range m.blocks.Messages {
		messages[i] = msg.clone()
	}
	return Blocks{
		Labels:   slices.Clone(m.blocks.Labels),
		Styles:   slices.Clone(m.blocks.Styles),
		Messages: messages,
	}
}

// Message returns a copy of message i. It panics if i is out of range.
func (m *MSBT) Message(i int) Message { return m.blocks.Messages[i].clone() }

// Entries returns label -> plain text in label-table order.
func (m *MSBT) Entries() *orderedmap.OrderedMap[string, string] {
	entries := orderedmap.NewOrderedMap[string, string]()
	for el := m.entries.Front(); el != nil; el = el.Next() {
		entries.Set(el.Key, el.Value)
	}
	return entries
}

// EntryList returns the entries as a slice in label-table order.
func (m *MSBT) EntryList() []Entry {
	entries := make([]Entry, len(m.blocks.Labels))
	for i, label := range m.blocks.Labels {
		entries[i] = Entry{Label: label, Text: m.blocks.Messages[i].Text()}
	}
	return entries
}

// Markup renders message i with its control events as tags.
func (m *MSBT) Markup(i int) string {
	return render(m.blocks.Messages[i], m.tags, m.header)
}
