package loader

import (
	"bytes"
	"context"
	"testing"

	"ai-legal-engine/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFor(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "pdf", file: "ipc.pdf"},
		{name: "upper case extension", file: "IPC.PDF"},
		{name: "text", file: "notes.txt"},
		{name: "word document", file: "brief.docx", wantErr: true},
		{name: "no extension", file: "README", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := r.For(tt.file)
			if tt.wantErr {
				assert.ErrorIs(t, err, rag.ErrUnsupportedFormat)
				assert.False(t, r.Supports(tt.file))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
			assert.True(t, r.Supports(tt.file))
		})
	}
}

func TestTextLoaderSplitsOnFormFeed(t *testing.T) {
	data := []byte("Section 378. Theft.\fSection 379. Punishment for theft.\fSection 380.")

	pages, err := TextLoader{}.Load(context.Background(), bytes.NewReader(data), int64(len(data)))

	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Section 378. Theft.", pages[0].Text)
	assert.Equal(t, 3, pages[2].Number)
}

func TestTextLoaderSinglePage(t *testing.T) {
	data := []byte("just one page")

	pages, err := TextLoader{}.Load(context.Background(), bytes.NewReader(data), int64(len(data)))

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "just one page", pages[0].Text)
}

func TestTextLoaderRejectsBinary(t *testing.T) {
	data := []byte{0xff, 0xfe, 0xfd}

	_, err := TextLoader{}.Load(context.Background(), bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestPDFLoaderRejectsGarbage(t *testing.T) {
	data := []byte("this is not a pdf")

	_, err := PDFLoader{}.Load(context.Background(), bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}
