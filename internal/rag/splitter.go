package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Splitter breaks text into overlapping chunks, trying coarse separators
// (paragraphs) before finer ones (lines, words, characters).
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter creates a splitter; overlap must be smaller than size.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   []string{"\n\n", "\n", " ", ""},
	}, nil
}

// DefaultSplitter returns the 500/50 splitter the medical index is built with.
func DefaultSplitter() *Splitter {
	s, _ := NewSplitter(500, 50)
	return s
}

// Split returns the non-empty chunks of text.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var finer []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks, fitting []string
	for _, piece := range pieces {
		if piece == "" || (sep != "" && strings.TrimSpace(piece) == "") {
			continue
		}
		if utf8.RuneCountInString(piece) <= s.ChunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, sep)...)
			fitting = nil
		}
		if len(finer) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, finer)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, sep)...)
	}
	return chunks
}

// merge packs pieces into chunks of at most ChunkSize runes, carrying up to
// ChunkOverlap runes of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)

	var chunks, window []string
	total := 0

	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	joined := func(n int) int {
		if len(window) > 0 {
			return total + sepLen + n
		}
		return n
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if joined(n) > s.ChunkSize && len(window) > 0 {
			emit()
			for len(window) > 0 && (total > s.ChunkOverlap || joined(n) > s.ChunkSize) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		total = joined(n)
		window = append(window, piece)
	}
	if len(window) > 0 {
		emit()
	}
	return chunks
}
