package service

import (
	"fmt"

	"shelf-reader/internal/domain"
)

// DocumentService exposes the library's document-level use cases: listing,
// retrieval, deletion, and the quotes (highlights) view.
type DocumentService struct {
	library     domain.LibraryStore
	annotations domain.AnnotationStore
	logger      domain.Logger
}

func NewDocumentService(library domain.LibraryStore, annotations domain.AnnotationStore, logger domain.Logger) *DocumentService {
	return &DocumentService{
		library:     library,
		annotations: annotations,
		logger:      logger,
	}
}

// ListDocuments returns the library ordered by last access, newest first.
func (s *DocumentService) ListDocuments() ([]*domain.Document, error) {
	return s.library.ListDocuments()
}

// GetDocument returns one document by id.
func (s *DocumentService) GetDocument(documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document_id is required")
	}
	return s.library.GetDocument(documentID)
}

// DeleteDocument removes a document; highlights, bookmarks, and sessions go
// with it.
func (s *DocumentService) DeleteDocument(documentID string) error {
	if documentID == "" {
		return fmt.Errorf("document_id is required")
	}
	if err := s.library.DeleteDocument(documentID); err != nil {
		return err
	}
	s.logger.Info("document deleted", "document_id", documentID)
	return nil
}

// Quote pairs a highlight with its document title for the quotes/export view.
type Quote struct {
	Highlight *domain.Highlight `json:"highlight"`
	Document  *domain.Document  `json:"-"`
	Title     string            `json:"title"`
}

// Quotes returns all highlights for one document, or for the whole library
// when documentID is empty, in creation order per document.
func (s *DocumentService) Quotes(documentID string) ([]Quote, error) {
	var docs []*domain.Document
	if documentID != "" {
		doc, err := s.library.GetDocument(documentID)
		if err != nil {
			return nil, err
		}
		docs = []*domain.Document{doc}
	} else {
		all, err := s.library.ListDocuments()
		if err != nil {
			return nil, err
		}
		docs = all
	}

	var quotes []Quote
	for _, doc := range docs {
		highlights, err := s.annotations.GetHighlightsForDocument(doc.ID)
		if err != nil {
			return nil, err
		}
		for _, h := range highlights {
			quotes = append(quotes, Quote{Highlight: h, Document: doc, Title: doc.Title})
		}
	}
	return quotes, nil
}
