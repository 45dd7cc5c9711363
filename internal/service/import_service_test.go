package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shelf-reader/internal/domain"
	"shelf-reader/pkg/logger"
)

// mockLibrary is an in-memory LibraryStore for the service tests.
type mockLibrary struct {
	docs     []*domain.Document
	sessions []*domain.ReadingSession
	failNext error
}

func (m *mockLibrary) CreateDocument(d *domain.Document) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	if d.ID == "" {
		d.ID = "doc-1"
	}
	m.docs = append(m.docs, d)
	return nil
}

func (m *mockLibrary) GetDocument(id string) (*domain.Document, error) {
	for _, d := range m.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *mockLibrary) ListDocuments() ([]*domain.Document, error) { return m.docs, nil }

func (m *mockLibrary) DeleteDocument(id string) error {
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrDocumentNotFound
}

func (m *mockLibrary) TouchDocument(id string, at time.Time) error { return nil }

func (m *mockLibrary) GetSessionsForDocument(documentID string) ([]*domain.ReadingSession, error) {
	var out []*domain.ReadingSession
	for _, s := range m.sessions {
		if s.DocumentID == documentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockLibrary) ListSessions() ([]*domain.ReadingSession, error) { return m.sessions, nil }

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		name   string
		want   domain.DocumentFormat
		wantOK bool
	}{
		{"book.pdf", domain.FormatPaginated, true},
		{"Book.PDF", domain.FormatPaginated, true},
		{"novel.epub", domain.FormatFlowed, true},
		{"notes.txt", domain.FormatPlainText, true},
		{"readme.md", domain.FormatPlainText, true},
		{"image.png", "", false},
		{"noextension", "", false},
	}
	for _, tt := range tests {
		got, err := FormatForFile(tt.name)
		if tt.wantOK {
			if err != nil {
				t.Errorf("FormatForFile(%q) returned error: %v", tt.name, err)
				continue
			}
			if got != tt.want {
				t.Errorf("FormatForFile(%q) = %s, want %s", tt.name, got, tt.want)
			}
		} else if !errors.Is(err, domain.ErrUnsupportedFormat) {
			t.Errorf("FormatForFile(%q) expected ErrUnsupportedFormat, got %v", tt.name, err)
		}
	}
}

func TestImportPlainText(t *testing.T) {
	library := &mockLibrary{}
	svc := NewImportService(library, logger.NewNop())

	doc, err := svc.Import(context.Background(), "meditations.txt", []byte("You have power over your mind, not outside events.\n"))
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if doc.Format != domain.FormatPlainText {
		t.Errorf("expected plain text format, got %s", doc.Format)
	}
	if doc.Title != "meditations" {
		t.Errorf("expected the filename as fallback title, got %q", doc.Title)
	}
	if doc.WordCount != 9 {
		t.Errorf("expected 9 words, got %d", doc.WordCount)
	}
	if len(library.docs) != 1 {
		t.Fatalf("expected the document persisted, got %d", len(library.docs))
	}
	if len(doc.Data) == 0 {
		t.Error("imported document must own its source bytes")
	}
}

func TestImportRejectsEmptyFile(t *testing.T) {
	svc := NewImportService(&mockLibrary{}, logger.NewNop())
	if _, err := svc.Import(context.Background(), "empty.txt", nil); !errors.Is(err, domain.ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile, got %v", err)
	}
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	svc := NewImportService(&mockLibrary{}, logger.NewNop())
	if _, err := svc.Import(context.Background(), "photo.png", []byte{1}); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestImportSanitizesInvalidUTF8(t *testing.T) {
	library := &mockLibrary{}
	svc := NewImportService(library, logger.NewNop())

	doc, err := svc.Import(context.Background(), "notes.txt", []byte{'h', 'i', 0xFF, 0xFE, ' ', 't', 'h', 'e', 'r', 'e'})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if doc.ExtractedText != "hi there" {
		t.Errorf("expected invalid bytes stripped, got %q", doc.ExtractedText)
	}
}
