package msbt

import (
	"encoding/hex"
	"strings"

	"msgstudio/internal/lms"
)

// render writes a message as escaped text with control events expressed as
// <tag attrs>, </tag> and <tag attrs/>.
func render(m Message, tags FormatTree, h lms.Header) string {
	var sb strings.Builder

	for _, s := range m.Segments {
		if s.IsLiteral() {
			sb.WriteString(s.Literal)
			continue
		}

		ev := s.Control
		if ev.Kind == Close {
			sb.WriteString("</" + ev.Name + ">")
			continue
		}

		sb.WriteString("<" + ev.Name)
		if attrs := renderAttrs(ev, tags, h); attrs != "" {
			sb.WriteString(" " + attrs)
		}
		if ev.Kind == Inline {
			sb.WriteString("/")
		}
		sb.WriteString(">")
	}

	return sb.String()
}

func renderAttrs(ev *ControlEvent, tags FormatTree, h lms.Header) string {
	if f, ok := tags.lookup(ev.Group, ev.Code); ok && f.Attrs != nil {
		return f.Attrs(lms.NewCursor(ev.Params, h.Order), h.Encoding)
	}
	if len(ev.Params) == 0 {
		return ""
	}
	return `params="` + hex.EncodeToString(ev.Params) + `"`
}
