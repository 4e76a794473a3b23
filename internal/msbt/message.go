package msbt

import (
	"bytes"
	"slices"
	"strings"
)

// ControlKind classifies a control sequence by its effect on open markup.
type ControlKind int

const (
	Inline ControlKind = iota
	Open
	Close
)

func (k ControlKind) String() string {
	switch k {
	case Open:
		return "open"
	case Close:
		return "close"
	default:
		return "inline"
	}
}

// ControlEvent is one decoded control sequence.
type ControlEvent struct {
	Kind   ControlKind
	Group  uint16
	Code   uint16
	Name   string
	Params []byte
	// Synthesized is set on closes emitted for markup left open at the end of a message.
	Synthesized bool
}

// Segment is either literal text or a control event. Control is nil for literals.
type Segment struct {
	Literal string
	Control *ControlEvent
}

func (s Segment) IsLiteral() bool { return s.Control == nil }

// Message is a decoded TXT2 entry in reading order.
type Message struct {
	Segments []Segment
	// Issues lists markup problems found while decoding. They never fail the parse.
	Issues []error
}

// Text concatenates the literal segments, dropping all control events.
func (m Message) Text() string {
	var sb strings.Builder
	for _, s := range m.Segments {
		if s.IsLiteral() {
			sb.WriteString(s.Literal)
		}
	}
	return sb.String()
}

// Tags returns the distinct control names used by the message, in first-use order.
func (m Message) Tags() []string {
	var names []string
	seen := make(map[string]bool)
	for _, s := range m.Segments {
		if s.IsLiteral() || seen[s.Control.Name] {
			continue
		}
		seen[s.Control.Name] = true
		names = append(names, s.Control.Name)
	}
	return names
}

// clone returns a copy of m that shares no memory with it.
func (m Message) clone() Message {
	out := Message{
		Segments: make([]Segment, len(m.Segments)),
		Issues:   slices.Clone(m.Issues),
	}
	for i, s := range m.Segments {
		if s.Control != nil {
			ev := *s.Control
			ev.Params = bytes.Clone(ev.Params)
			s.Control = &ev
		}
		out.Segments[i] = s
	}
	return out
}
