// Package ui is the terminal shell: a library browser and the reading view,
// driven by the reader controller.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"shelf-reader/internal/config"
	"shelf-reader/internal/domain"
	"shelf-reader/internal/reader"
)

type appState int

const (
	stateLibrary appState = iota
	stateReading
)

// sessionTickMsg drives the once-per-second session accumulation.
type sessionTickMsg time.Time

// App is the root model. It owns view switching, forwards every user input
// as an activity signal to the open reading session, and runs the session
// tick.
type App struct {
	ctx       context.Context
	container *config.Container
	styles    Styles
	keys      KeyMap

	state   appState
	library *LibraryView
	reading *ReaderView
	ctrl    *reader.Controller

	// initialDoc, when set, opens straight into the reader on startup,
	// optionally positioned at a highlight.
	initialDoc *domain.Document
	initialHL  *domain.Highlight

	// pendingHL is set synchronously by the highlight-activation callback
	// and drained into a message after the triggering update.
	pendingHL *domain.Highlight

	width  int
	height int
}

func NewApp(ctx context.Context, c *config.Container) *App {
	styles := NewStyles(ThemeFor(c.Settings))
	keys := DefaultKeyMap()
	return &App{
		ctx:       ctx,
		container: c,
		styles:    styles,
		keys:      keys,
		state:     stateLibrary,
		library:   NewLibraryView(c.DocumentService, styles, keys),
		width:     80,
		height:    24,
	}
}

// OpenAt makes the app start in the reader on the given document, positioned
// at the highlight when non-nil.
func (a *App) OpenAt(doc *domain.Document, h *domain.Highlight) {
	a.initialDoc = doc
	a.initialHL = h
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.library.Init(), tickCmd()}
	if a.initialDoc != nil {
		doc, hl := a.initialDoc, a.initialHL
		cmds = append(cmds, func() tea.Msg {
			if hl != nil {
				return openAtHighlightMsg{doc: doc, highlight: hl}
			}
			return openBookMsg{doc: doc}
		})
	}
	return tea.Batch(cmds...)
}

type openAtHighlightMsg struct {
	doc       *domain.Document
	highlight *domain.Highlight
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return sessionTickMsg(t)
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.library.SetSize(msg.Width, msg.Height)
		if a.reading != nil {
			a.reading.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case sessionTickMsg:
		if a.ctrl != nil {
			a.ctrl.Tick()
		}
		return a, tickCmd()

	case openBookMsg:
		return a, a.openDocument(msg.doc, nil)

	case openAtHighlightMsg:
		return a, a.openDocument(msg.doc, msg.highlight)

	case backToLibraryMsg:
		a.closeReader()
		return a, a.library.Init()

	case tea.KeyMsg:
		// Any keystroke is reading activity.
		if a.ctrl != nil {
			a.ctrl.Activity()
		}
		if a.state == stateLibrary && key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}

	case tea.MouseMsg:
		if a.ctrl != nil {
			a.ctrl.Activity()
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateReading:
		a.reading, cmd = a.reading.Update(msg)
	default:
		a.library, cmd = a.library.Update(msg)
	}

	if a.pendingHL != nil {
		hl := a.pendingHL
		a.pendingHL = nil
		menu := func() tea.Msg { return highlightMenuMsg{highlight: hl} }
		if cmd != nil {
			return a, tea.Batch(cmd, menu)
		}
		return a, menu
	}
	return a, cmd
}

func (a *App) openDocument(doc *domain.Document, h *domain.Highlight) tea.Cmd {
	ctrl := reader.NewController(a.container.Store, a.container.Logger, a.container.Settings).
		WithIdleTimeout(a.container.Config.GetIdleTimeout()).
		WithFlowedBlockChars(a.container.Config.GetFlowedPageChars())
	ctrl.OnHighlightMenu(func(hl *domain.Highlight) {
		a.pendingHL = hl
	})

	var err error
	if h != nil {
		err = ctrl.OpenAtHighlight(a.ctx, doc, h)
	} else {
		err = ctrl.Open(a.ctx, doc, nil)
	}
	if err != nil {
		a.container.Logger.Error("failed to open document", err, "document_id", doc.ID)
		return func() tea.Msg { return libraryLoadedMsg{err: err} }
	}

	a.ctrl = ctrl
	a.reading = NewReaderView(a.ctx, ctrl, a.styles, a.keys)
	a.reading.SetSize(a.width, a.height)
	a.state = stateReading
	return a.reading.Init()
}

func (a *App) closeReader() {
	if a.ctrl != nil {
		if err := a.ctrl.Close(); err != nil {
			a.container.Logger.Error("failed to close reader", err)
		}
		a.ctrl = nil
	}
	a.reading = nil
	a.state = stateLibrary
}

// Shutdown finalizes an open reading session before the program exits.
func (a *App) Shutdown() {
	a.closeReader()
}

func (a *App) View() string {
	if a.state == stateReading && a.reading != nil {
		return a.reading.View()
	}
	return a.library.View()
}
