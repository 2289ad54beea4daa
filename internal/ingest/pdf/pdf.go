// Package pdf loads medical reference PDFs into page-level documents ready
// for chunking and indexing.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	dspdf "github.com/dslipak/pdf"
	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/logging"
	"github.com/Yates-Labs/medrag/internal/rag"
)

var ErrNoDocuments = errors.New("no PDF documents found")

// LoadDirectory walks root and returns one document per non-empty page of
// every PDF below it. Other files are ignored. A PDF that cannot be parsed is
// logged and skipped so one damaged file does not abort the whole load.
func LoadDirectory(ctx context.Context, root string, logger *zap.Logger) ([]rag.Document, error) {
	logger = logging.OrNop(logger)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open data path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path %s is not a directory", root)
	}

	var docs []rag.Document
	files := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isPDF(path) {
			return nil
		}

		source, err := filepath.Rel(root, path)
		if err != nil {
			source = filepath.Base(path)
		}
		source = filepath.ToSlash(source)

		pages, err := LoadFile(path, source)
		if err != nil {
			logger.Warn("Skipping unreadable PDF", zap.String("path", path), zap.Error(err))
			return nil
		}

		files++
		docs = append(docs, pages...)
		logger.Debug("Loaded PDF", zap.String("source", source), zap.Int("pages", len(pages)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, root)
	}

	logger.Info("Loaded PDF documents", zap.Int("files", files), zap.Int("pages", len(docs)))
	return docs, nil
}

// LoadFile extracts the text of each page of the PDF at path. Pages without
// text are dropped; page numbers are 1-based.
func LoadFile(path, source string) (docs []rag.Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("malformed PDF %s: %v", source, r)
		}
	}()

	reader, err := dspdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		text = strings.TrimSpace(SanitizeUTF8(text))
		if text == "" {
			continue
		}

		docs = append(docs, rag.Document{
			ID:      DocumentID(source, i),
			Content: text,
			Source:  source,
			Page:    i,
		})
	}

	return docs, nil
}

// DocumentID names a page: the source path without extension plus the page number.
func DocumentID(source string, page int) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	return fmt.Sprintf("%s-p%d", base, page)
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
