package loader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/rag/chunker"
)

// Loader extracts per-page text from a document.
type Loader interface {
	Load(ctx context.Context, r io.ReaderAt, size int64) ([]chunker.Page, error)
}

// Registry picks a Loader by file extension.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry returns a registry that understands PDF and plain text.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(".pdf", PDFLoader{})
	r.Register(".txt", TextLoader{})
	return r
}

func (r *Registry) Register(ext string, l Loader) {
	r.loaders[strings.ToLower(ext)] = l
}

// For returns the loader for a file name or rag.ErrUnsupportedFormat.
func (r *Registry) For(name string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(name))
	l, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", rag.ErrUnsupportedFormat, ext)
	}
	return l, nil
}

// Supports reports whether name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, err := r.For(name)
	return err == nil
}
