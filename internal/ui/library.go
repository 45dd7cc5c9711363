package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"shelf-reader/internal/domain"
	"shelf-reader/internal/service"
)

// LibraryView displays the imported documents with reading progress.
type LibraryView struct {
	docSvc *service.DocumentService
	styles Styles
	keys   KeyMap

	docs   []*domain.Document
	cursor int
	offset int

	loading bool
	err     error
	status  string

	width  int
	height int
}

func NewLibraryView(docSvc *service.DocumentService, styles Styles, keys KeyMap) *LibraryView {
	return &LibraryView{
		docSvc: docSvc,
		styles: styles,
		keys:   keys,
		width:  80,
		height: 24,
	}
}

// Message types
type libraryLoadedMsg struct {
	docs []*domain.Document
	err  error
}

// openBookMsg asks the app to open a document in the reader.
type openBookMsg struct {
	doc *domain.Document
}

func (v *LibraryView) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *LibraryView) load() tea.Cmd {
	return func() tea.Msg {
		docs, err := v.docSvc.ListDocuments()
		return libraryLoadedMsg{docs: docs, err: err}
	}
}

func (v *LibraryView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *LibraryView) Update(msg tea.Msg) (*LibraryView, tea.Cmd) {
	switch msg := msg.(type) {
	case libraryLoadedMsg:
		v.loading = false
		v.err = msg.err
		if msg.err == nil {
			v.docs = msg.docs
		}
		if v.cursor >= len(v.docs) {
			v.cursor = len(v.docs) - 1
		}
		if v.cursor < 0 {
			v.cursor = 0
		}
		return v, nil

	case tea.KeyMsg:
		v.status = ""
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
				v.scrollToCursor()
			}
		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(v.docs)-1 {
				v.cursor++
				v.scrollToCursor()
			}
		case key.Matches(msg, v.keys.Enter):
			if doc := v.selected(); doc != nil {
				docID := doc.ID
				return v, func() tea.Msg {
					// Re-read to get the freshest resume position.
					fresh, err := v.docSvc.GetDocument(docID)
					if err != nil {
						return libraryLoadedMsg{err: err}
					}
					return openBookMsg{doc: fresh}
				}
			}
		case key.Matches(msg, v.keys.Delete):
			if doc := v.selected(); doc != nil {
				if err := v.docSvc.DeleteDocument(doc.ID); err != nil {
					v.err = err
					return v, nil
				}
				v.status = fmt.Sprintf("Deleted %q", doc.Title)
				return v, v.load()
			}
		}
	}
	return v, nil
}

func (v *LibraryView) selected() *domain.Document {
	if v.cursor < 0 || v.cursor >= len(v.docs) {
		return nil
	}
	return v.docs[v.cursor]
}

func (v *LibraryView) scrollToCursor() {
	visible := v.visibleRows()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}
}

func (v *LibraryView) visibleRows() int {
	rows := v.height - 4 // title bar, header, status bar
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (v *LibraryView) View() string {
	var b strings.Builder
	b.WriteString(v.styles.TitleBar.Width(v.width).Render("Library"))
	b.WriteString("\n")

	if v.err != nil {
		b.WriteString(v.styles.ErrorText.Render(v.err.Error()))
		b.WriteString("\n")
	}
	if v.loading {
		b.WriteString(v.styles.MutedText.Render("  Loading…"))
		return b.String()
	}
	if len(v.docs) == 0 {
		b.WriteString(v.styles.MutedText.Render("  No books yet. Import one with: shelf-reader import <file>"))
		return b.String()
	}

	visible := v.visibleRows()
	end := v.offset + visible
	if end > len(v.docs) {
		end = len(v.docs)
	}
	for i := v.offset; i < end; i++ {
		doc := v.docs[i]
		line := v.formatRow(doc)
		if i == v.cursor {
			b.WriteString(v.styles.ListItemSelected.Width(v.width).Render(line))
		} else {
			b.WriteString(v.styles.ListItem.Render(line))
		}
		b.WriteString("\n")
	}

	help := fmt.Sprintf("%s read  %s delete  %s quit",
		v.styles.Help.Render("enter"), v.styles.Help.Render("d"), v.styles.Help.Render("q"))
	status := v.status
	if status == "" {
		status = fmt.Sprintf("%d book(s)", len(v.docs))
	}
	b.WriteString(v.styles.StatusBar.Render(status + "  " + help))
	return b.String()
}

func (v *LibraryView) formatRow(doc *domain.Document) string {
	author := ""
	if doc.Author != nil {
		author = " - " + *doc.Author
	}
	title := doc.Title + author
	maxTitle := v.width - 24
	if maxTitle > 0 && len(title) > maxTitle {
		title = title[:maxTitle-1] + "…"
	}
	return fmt.Sprintf("%-*s %6.1f%%  [%s]", v.width-20, title, doc.Progress, doc.Format)
}
