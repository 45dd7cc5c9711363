package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shelf-reader/internal/domain"
	"shelf-reader/internal/render"
	apperrors "shelf-reader/pkg/errors"
)

// ImportService turns a source file into a library document: it detects the
// format from the extension, extracts text and metadata, and persists the
// document with its raw bytes.
type ImportService struct {
	library domain.LibraryStore
	logger  domain.Logger
	pdf     *PDFProcessor
}

func NewImportService(library domain.LibraryStore, logger domain.Logger) *ImportService {
	return &ImportService{
		library: library,
		logger:  logger,
		pdf:     NewPDFProcessor(logger),
	}
}

// ImportFile imports the file at path.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.Import(ctx, filepath.Base(path), data)
}

// Import creates one document per imported file. The raw bytes become the
// document's immutable owned source.
func (s *ImportService) Import(ctx context.Context, originalName string, data []byte) (*domain.Document, error) {
	if len(data) == 0 {
		appErr := apperrors.NewValidationError("imported file is empty", originalName)
		appErr.Cause = domain.ErrInvalidFile
		return nil, appErr
	}

	format, err := FormatForFile(originalName)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		Format:  format,
		Data:    data,
		AddedAt: time.Now(),
	}

	ext := filepath.Ext(originalName)
	fallbackTitle := strings.TrimSpace(strings.TrimSuffix(originalName, ext))

	switch format {
	case domain.FormatPaginated:
		text, meta, err := s.pdf.ProcessPDF(data)
		if err != nil {
			return nil, apperrors.NewProcessingError("failed to process PDF", err)
		}
		doc.Title = meta.Title
		if meta.Author != "" {
			author := meta.Author
			doc.Author = &author
		}
		doc.PageCount = meta.PageCount
		doc.ExtractedText = text

	case domain.FormatFlowed:
		engine := render.NewEPUBEngine(s.logger, 0)
		if err := engine.Load(data); err != nil {
			return nil, apperrors.NewProcessingError("failed to parse EPUB",
				fmt.Errorf("%w: %v", domain.ErrInvalidFile, err))
		}
		doc.Title = engine.Title()
		if a := engine.Author(); a != "" {
			author := a
			doc.Author = &author
		}
		doc.ExtractedText = engine.FullText()

	case domain.FormatPlainText:
		doc.ExtractedText = strings.TrimSpace(string(bytes.ToValidUTF8(data, []byte{})))
	}

	if doc.Title == "" {
		doc.Title = fallbackTitle
	}
	doc.WordCount = countWords(doc.ExtractedText)

	if err := s.library.CreateDocument(doc); err != nil {
		return nil, apperrors.NewStorageError("failed to save imported document", err)
	}
	s.logger.Info("document imported",
		"document_id", doc.ID, "title", doc.Title, "format", format, "words", doc.WordCount)
	return doc, nil
}

// FormatForFile maps a file extension to the document format that renders it.
func FormatForFile(name string) (domain.DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return domain.FormatPaginated, nil
	case ".epub":
		return domain.FormatFlowed, nil
	case ".txt", ".md":
		return domain.FormatPlainText, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(name))
	}
}
