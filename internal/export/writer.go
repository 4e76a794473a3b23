package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"msgstudio/internal/textutil"
)

// Format names an output layout.
type Format string

const (
	FormatJSON   Format = "json"
	FormatTSV    Format = "tsv"
	FormatMarkup Format = "markup"
)

// Write encodes docs in the given format.
func Write(w io.Writer, format Format, docs []Document) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, docs)
	case FormatTSV:
		return WriteTSV(w, docs)
	case FormatMarkup:
		return WriteMarkup(w, docs)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSON writes docs as an indented JSON array.
func WriteJSON(w io.Writer, docs []Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if docs == nil {
		docs = []Document{}
	}
	if err := encoder.Encode(docs); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// WriteTSV writes one row per entry: file, label, text.
func WriteTSV(w io.Writer, docs []Document) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "file\tlabel\ttext")

	for _, d := range docs {
		for _, e := range d.Entries {
			fmt.Fprintf(bw, "%s\t%s\t%s\n",
				textutil.EscapeTSV(d.File),
				textutil.EscapeTSV(e.Label),
				textutil.EscapeTSV(e.Text),
			)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write TSV: %w", err)
	}
	return nil
}

// WriteMarkup writes a "# file" header per document followed by label<TAB>markup lines.
func WriteMarkup(w io.Writer, docs []Document) error {
	bw := bufio.NewWriter(w)

	for _, d := range docs {
		fmt.Fprintf(bw, "# %s\n", d.File)
		for i, e := range d.Entries {
			fmt.Fprintf(bw, "%s\t%s\n", e.Label, textutil.EscapeTSV(d.Markup[i]))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write markup: %w", err)
	}
	return nil
}
