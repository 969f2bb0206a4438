package markdown

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNoteRoundTrip(t *testing.T) {
	t.Parallel()
	note := Note{Meta: map[string]any{"date": "2026-03-02", "energy_level": 42}, Body: "# Day\n"}
	rendered, err := note.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(rendered, "---\n") {
		t.Fatalf("missing frontmatter: %q", rendered)
	}
	parsed, err := ParseNote(rendered)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Meta["date"] != "2026-03-02" || parsed.Meta["energy_level"] != 42 || parsed.Body != "# Day\n" {
		t.Fatalf("unexpected parsed note: %+v", parsed)
	}
	if _, err := ParseNote("---\nbroken: [\n"); err == nil {
		t.Fatalf("unterminated frontmatter must fail")
	}
	plain, err := ParseNote("just text")
	if err != nil || plain.Body != "just text" || len(plain.Meta) != 0 {
		t.Fatalf("plain body should parse without meta: %+v %v", plain, err)
	}
}

func TestBlockReplaceKeepsSurroundingText(t *testing.T) {
	t.Parallel()
	block := Block{Start: "<!-- s -->", End: "<!-- e -->"}
	body := block.Replace("", "first")
	body = "my own words\n\n" + body + "\nafter\n"
	body = block.Replace(body, "second")
	if !strings.Contains(body, "my own words") || !strings.Contains(body, "after") {
		t.Fatalf("user text lost: %q", body)
	}
	if !strings.Contains(body, "<!-- s -->\nsecond\n<!-- e -->") || strings.Contains(body, "first") {
		t.Fatalf("expected replaced block, got %q", body)
	}
	if strings.Count(body, "<!-- s -->") != 1 {
		t.Fatalf("block duplicated: %q", body)
	}
}

func TestReadWriteNote(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "note.md")
	if _, found, err := ReadNote(path); err != nil || found {
		t.Fatalf("expected missing note, found=%t err=%v", found, err)
	}
	if err := WriteNote(path, Note{Meta: map[string]any{"type": "day"}, Body: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	note, found, err := ReadNote(path)
	if err != nil || !found || note.Meta["type"] != "day" || note.Body != "hello\n" {
		t.Fatalf("unexpected note: %+v found=%t err=%v", note, found, err)
	}
}
