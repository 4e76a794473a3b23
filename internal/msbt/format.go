package msbt

import (
	"fmt"
	"strings"

	"msgstudio/internal/lms"
)

// Reserved code points that introduce a control sequence instead of text.
const (
	shiftOpen  = 0x0E
	shiftClose = 0x0F
)

func isShiftCode(r rune) bool {
	return r == shiftOpen || r == shiftClose
}

// AttrFunc renders a tag's raw parameters as markup attributes.
// params is scoped to the parameter bytes and uses the file's byte order.
type AttrFunc func(params *lms.Cursor, enc lms.Encoding) string

// TagFormat describes how one (group, code) pair is classified and rendered.
type TagFormat struct {
	Name string
	// Paired tags open on the open sentinel and close on the close sentinel.
	// Unpaired tags are always inline.
	Paired bool
	Attrs  AttrFunc
}

// FormatTree maps group -> code -> format.
type FormatTree map[uint16]map[uint16]TagFormat

func (t FormatTree) lookup(group, code uint16) (TagFormat, bool) {
	f, ok := t[group][code]
	return f, ok
}

func (t FormatTree) name(group, code uint16) string {
	if f, ok := t.lookup(group, code); ok && f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("tag%d.%d", group, code)
}

var htmlEntities = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeHTML is the default literal transform. Quotes use the named
// entities &quot; and &apos;.
func EscapeHTML(r rune) string {
	return htmlEntities.Replace(string(r))
}

// SystemTags returns formats for the group 0 tags most Message Studio titles share.
func SystemTags() FormatTree {
	return FormatTree{
		0: {
			0: {Name: "ruby", Paired: true, Attrs: rubyAttrs},
			1: {Name: "font", Paired: true, Attrs: uint16Attr("face")},
			2: {Name: "size", Paired: true, Attrs: uint16Attr("percent")},
			3: {Name: "color", Paired: true, Attrs: colorAttrs},
			4: {Name: "pagebreak"},
		},
	}
}

func uint16Attr(key string) AttrFunc {
	return func(params *lms.Cursor, _ lms.Encoding) string {
		v, err := params.Uint16()
		if err != nil {
			return ""
		}
		return fmt.Sprintf(`%s="%d"`, key, v)
	}
}

func colorAttrs(params *lms.Cursor, _ lms.Encoding) string {
	switch params.Len() {
	case 4:
		rgba, _ := params.Bytes(4)
		return fmt.Sprintf(`value="#%02X%02X%02X%02X"`, rgba[0], rgba[1], rgba[2], rgba[3])
	case 2:
		idx, _ := params.Uint16()
		return fmt.Sprintf(`index="%d"`, idx)
	default:
		return ""
	}
}

// rubyAttrs reads a byte length followed by the ruby text.
func rubyAttrs(params *lms.Cursor, enc lms.Encoding) string {
	size, err := params.Uint16()
	if err != nil {
		return ""
	}
	end := params.Pos() + int(size)

	var rt strings.Builder
	for params.Pos() < end {
		r, err := params.Char(enc)
		if err != nil {
			break
		}
		rt.WriteRune(r)
	}
	return fmt.Sprintf(`rt="%s"`, htmlEntities.Replace(rt.String()))
}
