package loader

import (
	"context"
	"fmt"
	"io"

	"ai-legal-engine/pkg/rag/chunker"

	"github.com/ledongthuc/pdf"
)

// PDFLoader extracts the plain text of every page.
type PDFLoader struct{}

func (PDFLoader) Load(ctx context.Context, r io.ReaderAt, size int64) (pages []chunker.Page, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages = make([]chunker.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, chunker.Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		pages = append(pages, chunker.Page{Number: i, Text: text})
	}
	return pages, nil
}
