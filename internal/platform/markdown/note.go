// Package markdown reads and writes the notes flux leaves on disk: a YAML
// frontmatter header followed by a markdown body that may hold generated
// blocks between marker comments.
package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---\n"

type Note struct {
	Meta map[string]any
	Body string
}

func ParseNote(content string) (Note, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, separator) {
		return Note{Meta: map[string]any{}, Body: content}, nil
	}
	rest := strings.TrimPrefix(content, separator)
	idx := strings.Index(rest, "\n"+separator)
	if idx < 0 {
		return Note{}, fmt.Errorf("invalid frontmatter: missing closing separator")
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &meta); err != nil {
		return Note{}, fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return Note{Meta: meta, Body: strings.TrimPrefix(rest[idx+1+len(separator):], "\n")}, nil
}

func (n Note) Render() (string, error) {
	meta := n.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(separator)
	buf.Write(raw)
	buf.WriteString(separator)
	buf.WriteString("\n")
	buf.WriteString(n.Body)
	if !strings.HasSuffix(n.Body, "\n") {
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// ReadNote loads path; found is false when the file does not exist.
func ReadNote(path string) (Note, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Note{Meta: map[string]any{}}, false, nil
		}
		return Note{}, false, fmt.Errorf("read note %s: %w", path, err)
	}
	note, err := ParseNote(string(raw))
	if err != nil {
		return Note{}, true, fmt.Errorf("parse note %s: %w", path, err)
	}
	return note, true, nil
}

func WriteNote(path string, note Note) error {
	rendered, err := note.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create note dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write note %s: %w", path, err)
	}
	return nil
}
