package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"shelf-reader/internal/domain"
)

// PDFProcessor handles import-time PDF text and metadata extraction.
type PDFProcessor struct {
	logger domain.Logger
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(logger domain.Logger) *PDFProcessor {
	return &PDFProcessor{logger: logger}
}

// PDFMetadata contains extracted PDF metadata
type PDFMetadata struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	PageCount int    `json:"page_count"`
}

// ProcessPDF extracts the full text and metadata from a PDF file. Individual
// pages that fail or time out are skipped with a warning; a document that
// cannot be opened at all is invalid.
func (p *PDFProcessor) ProcessPDF(pdfBytes []byte) (string, PDFMetadata, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return "", PDFMetadata{}, fmt.Errorf("%w: %v", domain.ErrInvalidFile, err)
	}
	defer doc.Close()

	docMetadata := doc.Metadata()
	metadata := PDFMetadata{
		PageCount: doc.NumPage(),
	}
	if title, ok := docMetadata["title"]; ok && title != "" {
		metadata.Title = title
	}
	if author, ok := docMetadata["author"]; ok && author != "" {
		metadata.Author = author
	}

	const pageTimeout = 90 * time.Second

	type pageResult struct {
		text string
		err  error
	}

	var sb strings.Builder
	numPages := doc.NumPage()
	for pageNum := 0; pageNum < numPages; pageNum++ {
		p.logger.Debug("extracting PDF page", "page", pageNum+1, "total", numPages)
		resultCh := make(chan pageResult, 1)
		go func(idx int) {
			t, e := doc.Text(idx)
			resultCh <- pageResult{text: t, err: e}
		}(pageNum)

		var text string
		select {
		case res := <-resultCh:
			if res.err != nil {
				p.logger.Warn("PDF page extraction failed; skipping page",
					"page", pageNum+1, "total", numPages, "error", res.err)
				continue
			}
			text = res.text
		case <-time.After(pageTimeout):
			p.logger.Warn("PDF page extraction timeout; skipping page",
				"page", pageNum+1, "total", numPages, "timeout_sec", int(pageTimeout.Seconds()))
			go func() { <-resultCh }() // drain so the goroutine can exit
			continue
		}

		text = sanitizeText(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(text))
	}

	return sb.String(), metadata, nil
}

// sanitizeText removes NULL characters, stray control characters, and invalid
// surrogates so the text is safe to store and JSON-encode.
func sanitizeText(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		if r == 0x00 {
			continue
		}
		if r == 0x09 || r == 0x0A || r == 0x0D {
			result.WriteRune(r)
		} else if r >= 0x20 && r < 0x7F {
			result.WriteRune(r)
		} else if r >= 0x7F && r <= 0x10FFFF {
			if r < 0xD800 || r > 0xDFFF {
				result.WriteRune(r)
			}
		}
	}

	return result.String()
}

// countWords returns a whitespace-separated word count.
func countWords(text string) int {
	return len(strings.Fields(text))
}
