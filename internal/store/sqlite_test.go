package store

import (
	"context"
	"path/filepath"
	"testing"

	"msgstudio/internal/export"
	"msgstudio/internal/msbt"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close(ctx)

	doc := export.Document{
		File:    "Common.msbt",
		Hash:    "abc123",
		Entries: []msbt.Entry{{Label: "b_second", Text: "Two"}, {Label: "a_first", Text: "One"}},
		Markup:  []string{"Two", "<b>One</b>"},
		Styles:  []uint32{1, 2},
	}
	if err := s.Write(ctx, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Rewriting the same file replaces its entries.
	doc.Entries = doc.Entries[:1]
	doc.Markup = doc.Markup[:1]
	if err := s.Write(ctx, doc); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	got, err := s.Entries(ctx, "abc123")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(got) != 1 || got[0] != (msbt.Entry{Label: "b_second", Text: "Two"}) {
		t.Errorf("entries = %+v", got)
	}
}

func TestSQLiteStoreKeepsFileOrder(t *testing.T) {
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close(ctx)

	doc := export.Document{
		File:    "Talk.msbt",
		Hash:    "def456",
		Entries: []msbt.Entry{{Label: "z", Text: "1"}, {Label: "m", Text: "2"}, {Label: "a", Text: "3"}},
		Markup:  []string{"1", "2", "3"},
	}
	if err := s.Write(ctx, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.Entries(ctx, "def456")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	for i, e := range got {
		if e != doc.Entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, doc.Entries[i])
		}
	}
}

func TestSQLiteStoreRepeatedLabelTakesLastText(t *testing.T) {
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close(ctx)

	doc := export.Document{
		File:    "Dup.msbt",
		Hash:    "dup789",
		Entries: []msbt.Entry{{Label: "same", Text: "first"}, {Label: "other", Text: "x"}, {Label: "same", Text: "last"}},
		Markup:  []string{"first", "x", "last"},
	}
	if err := s.Write(ctx, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.Entries(ctx, "dup789")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	want := []msbt.Entry{{Label: "same", Text: "last"}, {Label: "other", Text: "x"}}
	if len(got) != len(want) {
		t.Fatalf("entries = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
