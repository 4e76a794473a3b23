package graph

import (
	"testing"

	"msgstudio/internal/export"
	"msgstudio/internal/msbt"
)

func TestEntryTags(t *testing.T) {
	doc := export.Document{
		Entries: []msbt.Entry{{Label: "a"}, {Label: "b"}, {Label: "c"}},
		Tags:    [][]string{{"color", "ruby"}, nil},
	}

	if got := entryTags(doc, 0); len(got) != 2 || got[0] != "color" {
		t.Errorf("entry 0 tags = %v", got)
	}
	// Neo4j parameters must be a list, never null.
	for _, i := range []int{1, 2} {
		if got := entryTags(doc, i); got == nil || len(got) != 0 {
			t.Errorf("entry %d tags = %#v, want empty list", i, got)
		}
	}
}
