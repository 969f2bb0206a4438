package markdown

import "strings"

// Block is a generated region of a note body delimited by two marker lines.
type Block struct {
	Start string
	End   string
}

// Replace swaps the region for generated, or appends it when body has none.
// Everything outside the markers is left as is.
func (b Block) Replace(body, generated string) string {
	block := b.Start + "\n" + strings.TrimRight(generated, "\n") + "\n" + b.End
	start := strings.Index(body, b.Start)
	end := strings.Index(body, b.End)
	if start >= 0 && end > start {
		return body[:start] + block + body[end+len(b.End):]
	}
	switch {
	case strings.TrimSpace(body) == "":
		return block + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + block + "\n"
	default:
		return body + "\n\n" + block + "\n"
	}
}
