package chunker

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Page is one page of extracted document text. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Chunk is a slice of a page that will be embedded and stored as one vector.
type Chunk struct {
	Text   string
	Page   int
	Source string
	Index  int // position across the whole document
}

// Splitter cuts text into fixed-size, overlapping windows measured in runes.
// It has no notion of sentences or sections.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// SplitText splits a string into chunks of at most ChunkSize runes, each one
// starting ChunkSize-Overlap runes after the previous.
func (s *Splitter) SplitText(text string) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if totalLen == 0 {
		return nil
	}
	if totalLen <= s.ChunkSize {
		return []string{text}
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize // overlap >= chunk size would never advance
	}

	var chunks []string
	for i := 0; i < totalLen; i += step {
		end := i + s.ChunkSize
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == totalLen {
			break
		}
	}
	return chunks
}

// SplitPages splits every page independently so each chunk keeps the page it
// came from. Blank pages produce no chunks.
func (s *Splitter) SplitPages(source string, pages []Page) []Chunk {
	var out []Chunk
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		for _, text := range s.SplitText(p.Text) {
			out = append(out, Chunk{
				Text:   text,
				Page:   p.Number,
				Source: source,
				Index:  len(out),
			})
		}
	}
	return out
}
