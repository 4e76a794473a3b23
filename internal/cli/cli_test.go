package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"msgstudio/internal/export"
	"msgstudio/internal/lms/lmstest"
	"msgstudio/internal/msbt"
)

func writeFixture(t *testing.T, dir, name string, labels []string, texts ...string) string {
	t.Helper()

	b := lmstest.New(msbt.Magic)
	bodies := make([][]byte, len(texts))
	for i, text := range texts {
		bodies[i] = b.Message(b.Text(text))
	}
	data := b.Section("LBL1", b.Labels(labels...)).Section("TXT2", b.Messages(bodies...)).Bytes()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractTSV(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "Common.msbt", []string{"greeting"}, "AB")

	out, err := run(t, "extract", path, "--format", "tsv")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if want := "file\tlabel\ttext\nCommon.msbt\tgreeting\tAB\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestExtractRejectsUnknownPreset(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "Common.msbt", []string{"a"}, "x")
	if _, err := run(t, "extract", path, "--tags", "bogus"); err == nil {
		t.Errorf("expected error for unknown preset")
	}
}

func TestIngestJSONReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "A.msbt", []string{"one", "two"}, "1", "2")
	writeFixture(t, dir, "sub/B.msbt", []string{"three"}, "3")
	if err := os.WriteFile(filepath.Join(dir, "broken.msbt"), []byte("MsgStdBn"), 0644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(t.TempDir(), "out.json")
	_, err := run(t, "ingest", dir, "--sink", "json", "-o", outPath, "--workers", "2")
	if err == nil || !strings.Contains(err.Error(), "broken.msbt") {
		t.Errorf("err = %v, want failure naming broken.msbt", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var docs []export.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].File != "A.msbt" || len(docs[0].Entries) != 2 || docs[1].File != "sub/B.msbt" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestIngestSQLite(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "A.msbt", []string{"one"}, "1")

	dbPath := filepath.Join(t.TempDir(), "entries.db")
	if _, err := run(t, "ingest", dir, "--sink", "sqlite", "-o", dbPath); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestIngestUnknownSink(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "A.msbt", []string{"one"}, "1")
	if _, err := run(t, "ingest", dir, "--sink", "kafka"); err == nil {
		t.Errorf("expected error for unknown sink")
	}
}

func TestInspect(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "Common.msbt", []string{"greeting"}, "AB")

	out, err := run(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"magic\tMsgStdBn\n", "endian\tlittle\n", "encoding\tUTF-16\n", "version\t3\n", "LBL1\t0x30\t", "TXT2\t"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
