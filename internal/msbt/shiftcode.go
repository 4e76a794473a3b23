package msbt

import (
	"bytes"
	"fmt"
	"strings"

	"msgstudio/internal/lms"
)

// openTag is one entry on the open-markup stack.
type openTag struct {
	name  string
	group uint16
	code  uint16
}

// messageDecoder turns TXT2 character streams into Messages.
type messageDecoder struct {
	enc       lms.Encoding
	tags      FormatTree
	transform func(rune) string
}

// decodeBlock reads the TXT2 offset table and decodes every message it points at.
func (d *messageDecoder) decodeBlock(c *lms.Cursor) ([]Message, error) {
	count, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read message count: %w", err)
	}
	if int64(count)*4 > int64(c.Remaining()) {
		return nil, fmt.Errorf("%w: %d offsets do not fit in %d bytes", lms.ErrTruncatedSection, count, c.Remaining())
	}

	offsets := make([]uint32, count)
	for i := range offsets {
		offsets[i], _ = c.Uint32()
	}

	// Slots sharing an offset still get their own pass.
	messages := make([]Message, count)
	for i, off := range offsets {
		if err := c.Seek(int(off)); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if messages[i], err = d.decode(c); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}

	return messages, nil
}

// decode reads characters up to and including the NUL terminator.
func (d *messageDecoder) decode(c *lms.Cursor) (Message, error) {
	var (
		msg  Message
		text strings.Builder
		open []openTag
	)

	flush := func() {
		if text.Len() > 0 {
			msg.Segments = append(msg.Segments, Segment{Literal: text.String()})
			text.Reset()
		}
	}

	for {
		r, err := c.Char(d.enc)
		if err != nil {
			return Message{}, err
		}
		if r == 0 {
			break
		}
		if !isShiftCode(r) {
			text.WriteString(d.transform(r))
			continue
		}

		flush()

		ev, err := d.readControl(r, c)
		if err != nil {
			return Message{}, err
		}

		switch ev.Kind {
		case Open:
			open = append(open, openTag{name: ev.Name, group: ev.Group, code: ev.Code})
		case Close:
			if len(open) == 0 {
				msg.Issues = append(msg.Issues, fmt.Errorf("%w: </%s> with no open tag", ErrUnbalancedMarkup, ev.Name))
				break
			}
			top := open[len(open)-1]
			open = open[:len(open)-1]
			if top.name != ev.Name {
				msg.Issues = append(msg.Issues, fmt.Errorf("%w: </%s> closes <%s>", ErrUnbalancedMarkup, ev.Name, top.name))
			}
		}

		msg.Segments = append(msg.Segments, Segment{Control: ev})
	}

	flush()

	for i := len(open) - 1; i >= 0; i-- {
		msg.Segments = append(msg.Segments, Segment{Control: &ControlEvent{
			Kind:        Close,
			Group:       open[i].group,
			Code:        open[i].code,
			Name:        open[i].name,
			Synthesized: true,
		}})
	}

	return msg, nil
}

// readControl reads the payload following a shift code: group, code, parameter size, parameters.
func (d *messageDecoder) readControl(shift rune, c *lms.Cursor) (*ControlEvent, error) {
	group, err := c.Uint16()
	if err != nil {
		return nil, fmt.Errorf("read tag group: %w", err)
	}
	code, err := c.Uint16()
	if err != nil {
		return nil, fmt.Errorf("read tag code: %w", err)
	}
	size, err := c.Uint16()
	if err != nil {
		return nil, fmt.Errorf("read tag %d.%d parameter size: %w", group, code, err)
	}
	params, err := c.Bytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("read tag %d.%d parameters: %w", group, code, err)
	}

	ev := &ControlEvent{
		Kind:   Inline,
		Group:  group,
		Code:   code,
		Name:   d.tags.name(group, code),
		Params: bytes.Clone(params),
	}

	if f, ok := d.tags.lookup(group, code); ok && f.Paired {
		if shift == shiftOpen {
			ev.Kind = Open
		} else {
			ev.Kind = Close
		}
	}

	return ev, nil
}
