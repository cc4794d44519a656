package loader

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"ai-legal-engine/pkg/rag/chunker"
)

// TextLoader reads UTF-8 text. Form feeds separate pages; a file without
// them is a single page.
type TextLoader struct{}

func (TextLoader) Load(_ context.Context, r io.ReaderAt, size int64) ([]chunker.Page, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text is not valid UTF-8")
	}

	parts := strings.Split(string(data), "\f")
	pages := make([]chunker.Page, len(parts))
	for i, p := range parts {
		pages[i] = chunker.Page{Number: i + 1, Text: p}
	}
	return pages, nil
}
