package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"shelf-reader/internal/domain"
	"shelf-reader/internal/reader"
	"shelf-reader/internal/render"
)

type readerMode int

const (
	readerModeNormal readerMode = iota
	readerModeSelect
	readerModeColor
	readerModeMarks
	readerModeTOC
	readerModeHLMenu
	readerModeNote
)

// colorOrder maps the 1-5 digit keys to the highlight palette.
var colorOrder = []domain.HighlightColor{
	domain.ColorYellow,
	domain.ColorGreen,
	domain.ColorBlue,
	domain.ColorPink,
	domain.ColorOrange,
}

// ReaderView hosts one open document: it drives the format renderer through
// the controller, draws the text layer with inline highlights, and handles
// selection, bookmarking, and the overlay panels.
type ReaderView struct {
	ctx    context.Context
	ctrl   *reader.Controller
	styles Styles
	keys   KeyMap

	width  int
	height int

	mode   readerMode
	err    error
	status string

	// Select mode tracks a line range over the current text layer.
	selAnchor int
	selCursor int

	// Paginated text layer for the current page, re-derived per relocation.
	pageLines []render.LineSpan

	// Flowed view scroll within the current block.
	flowScroll int

	listCursor int
	activeHL   *domain.Highlight
	noteInput  textinput.Model
}

// Messages

// backToLibraryMsg asks the app to close the reader and show the library.
type backToLibraryMsg struct{}

// pageRenderedMsg reports completion of an async paginated page render.
type pageRenderedMsg struct{ err error }

// highlightMenuMsg opens the action menu for an activated highlight.
type highlightMenuMsg struct{ highlight *domain.Highlight }

func NewReaderView(ctx context.Context, ctrl *reader.Controller, styles Styles, keys KeyMap) *ReaderView {
	ti := textinput.New()
	ti.Placeholder = "note"
	ti.CharLimit = 500
	return &ReaderView{
		ctx:       ctx,
		ctrl:      ctrl,
		styles:    styles,
		keys:      keys,
		width:     80,
		height:    24,
		noteInput: ti,
	}
}

func (v *ReaderView) Init() tea.Cmd {
	v.syncTextLayer()
	return v.renderPageCmd()
}

func (v *ReaderView) SetSize(width, height int) {
	v.width = width
	v.height = height
	if plain, ok := v.ctrl.Renderer().(*render.PlainTextRenderer); ok {
		plain.SetViewport(v.textWidth(), v.textHeight())
	}
	v.syncTextLayer()
}

func (v *ReaderView) textWidth() int {
	w := v.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (v *ReaderView) textHeight() int {
	h := v.height - 2 // title and status rows
	if h < 5 {
		h = 5
	}
	return h
}

// renderPageCmd kicks off the page raster for the paginated format. The
// raster keeps the surface fresh for bookmark thumbnails; a superseded render
// is not an error.
func (v *ReaderView) renderPageCmd() tea.Cmd {
	paginated, ok := v.ctrl.Renderer().(*render.PaginatedRenderer)
	if !ok {
		return nil
	}
	ctx := v.ctx
	return func() tea.Msg {
		_, err := paginated.RenderCurrent(ctx)
		if render.IsCancel(err) {
			err = nil
		}
		return pageRenderedMsg{err: err}
	}
}

// syncTextLayer refreshes the wrapped text layer after navigation.
func (v *ReaderView) syncTextLayer() {
	switch r := v.ctrl.Renderer().(type) {
	case *render.PaginatedRenderer:
		text, err := r.PageText(r.Location().Page)
		if err != nil {
			v.pageLines = nil
			return
		}
		v.pageLines = render.WrapText(text, v.textWidth())
	case *render.FlowedRenderer:
		v.flowScroll = 0
	}
}

func (v *ReaderView) Update(msg tea.Msg) (*ReaderView, tea.Cmd) {
	switch msg := msg.(type) {
	case pageRenderedMsg:
		if msg.err != nil {
			v.err = msg.err
		}
		return v, nil

	case highlightMenuMsg:
		v.activeHL = msg.highlight
		v.mode = readerModeHLMenu
		return v, nil

	case tea.MouseMsg:
		return v.handleMouse(msg)

	case tea.KeyMsg:
		v.status = ""
		switch v.mode {
		case readerModeNote:
			return v.updateNote(msg)
		case readerModeHLMenu:
			return v.updateHLMenu(msg)
		case readerModeColor:
			return v.updateColorPick(msg)
		case readerModeMarks:
			return v.updateMarks(msg)
		case readerModeTOC:
			return v.updateTOC(msg)
		case readerModeSelect:
			return v.updateSelect(msg)
		default:
			return v.updateNormal(msg)
		}
	}
	return v, nil
}

func (v *ReaderView) updateNormal(msg tea.KeyMsg) (*ReaderView, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Escape), key.Matches(msg, v.keys.Quit):
		return v, func() tea.Msg { return backToLibraryMsg{} }

	case key.Matches(msg, v.keys.PageDown):
		return v.navigate(1)
	case key.Matches(msg, v.keys.PageUp):
		return v.navigate(-1)

	case key.Matches(msg, v.keys.Down):
		v.scroll(1)
	case key.Matches(msg, v.keys.Up):
		v.scroll(-1)

	case key.Matches(msg, v.keys.Bookmark):
		return v.toggleBookmark(domain.BookmarkStandard)
	case key.Matches(msg, v.keys.Favorite):
		return v.toggleBookmark(domain.BookmarkFavorite)

	case key.Matches(msg, v.keys.Select):
		v.mode = readerModeSelect
		v.selAnchor = v.cursorStartLine()
		v.selCursor = v.selAnchor

	case key.Matches(msg, v.keys.Marks):
		v.mode = readerModeMarks
		v.listCursor = 0
	case key.Matches(msg, v.keys.TOC):
		if flowed, ok := v.ctrl.Renderer().(*render.FlowedRenderer); ok && flowed.Ready() {
			v.mode = readerModeTOC
			v.listCursor = 0
		}

	case key.Matches(msg, v.keys.ZoomIn):
		return v.adjustZoom(0.1)
	case key.Matches(msg, v.keys.ZoomOut):
		return v.adjustZoom(-0.1)

	case key.Matches(msg, v.keys.Controls):
		v.ctrl.ToggleControls()
	}
	return v, nil
}

func (v *ReaderView) navigate(delta int) (*ReaderView, tea.Cmd) {
	if err := v.ctrl.Renderer().NavigateDelta(v.ctx, delta); err != nil && !render.IsCancel(err) {
		v.err = err
		return v, nil
	}
	v.syncTextLayer()
	return v, v.renderPageCmd()
}

// scroll moves within the current page or block without changing location.
func (v *ReaderView) scroll(delta int) {
	switch r := v.ctrl.Renderer().(type) {
	case *render.PlainTextRenderer:
		r.ScrollLines(delta)
	case *render.FlowedRenderer:
		max := len(v.flowedLines()) - v.textHeight()
		if max < 0 {
			max = 0
		}
		v.flowScroll += delta
		if v.flowScroll < 0 {
			v.flowScroll = 0
		}
		if v.flowScroll > max {
			v.flowScroll = max
		}
	}
}

func (v *ReaderView) toggleBookmark(typ domain.BookmarkType) (*ReaderView, tea.Cmd) {
	b, err := v.ctrl.ToggleBookmark(v.ctx, typ)
	if err != nil {
		v.err = err
		return v, nil
	}
	if b == nil {
		v.status = "Bookmark removed"
	} else {
		v.status = "Bookmarked"
	}
	return v, nil
}

func (v *ReaderView) adjustZoom(delta float64) (*ReaderView, tea.Cmd) {
	if _, ok := v.ctrl.Renderer().(*render.PaginatedRenderer); !ok {
		return v, nil
	}
	s := *v.ctrl.Settings()
	s.Zoom += delta
	if s.Zoom < 0.5 {
		s.Zoom = 0.5
	}
	if s.Zoom > 3.0 {
		s.Zoom = 3.0
	}
	if err := v.ctrl.ApplySettings(&s); err != nil {
		v.err = err
		return v, nil
	}
	v.status = fmt.Sprintf("Zoom %.0f%%", s.Zoom*100)
	return v, v.renderPageCmd()
}

// Select mode

func (v *ReaderView) updateSelect(msg tea.KeyMsg) (*ReaderView, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Escape):
		v.mode = readerModeNormal
		v.ctrl.ClearSelection()
	case key.Matches(msg, v.keys.Down):
		if v.selCursor < v.lineCount()-1 {
			v.selCursor++
		}
	case key.Matches(msg, v.keys.Up):
		if v.selCursor > 0 {
			v.selCursor--
		}
	case key.Matches(msg, v.keys.Enter):
		raw, ok := v.buildRawSelection()
		if !ok {
			v.mode = readerModeNormal
			return v, nil
		}
		if sel := v.ctrl.HandleSelection(raw); sel == nil {
			v.mode = readerModeNormal
			return v, nil
		}
		v.mode = readerModeColor
	}
	return v, nil
}

func (v *ReaderView) updateColorPick(msg tea.KeyMsg) (*ReaderView, tea.Cmd) {
	if key.Matches(msg, v.keys.Escape) {
		v.mode = readerModeNormal
		v.ctrl.ClearSelection()
		return v, nil
	}
	if c, ok := colorForDigit(msg.String()); ok {
		if _, err := v.ctrl.CommitHighlight(c); err != nil {
			v.err = err
		} else {
			v.status = "Highlighted"
		}
		v.mode = readerModeNormal
	}
	return v, nil
}

func colorForDigit(s string) (domain.HighlightColor, bool) {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '5' {
		return colorOrder[s[0]-'1'], true
	}
	return "", false
}

// cursorStartLine is where select mode begins: the top visible line.
func (v *ReaderView) cursorStartLine() int {
	if plain, ok := v.ctrl.Renderer().(*render.PlainTextRenderer); ok {
		visible := plain.VisibleLines()
		if len(visible) > 0 {
			all := render.WrapText(plain.Text(), v.textWidth())
			for i, l := range all {
				if l.Start == visible[0].Start {
					return i
				}
			}
		}
		return 0
	}
	return 0
}

func (v *ReaderView) lineCount() int {
	switch v.ctrl.Renderer().(type) {
	case *render.PlainTextRenderer:
		plain := v.ctrl.Renderer().(*render.PlainTextRenderer)
		return len(render.WrapText(plain.Text(), v.textWidth()))
	case *render.PaginatedRenderer:
		return len(v.pageLines)
	case *render.FlowedRenderer:
		return len(v.flowedLines())
	}
	return 0
}

// buildRawSelection turns the line-range selection into the format's raw
// selection payload.
func (v *ReaderView) buildRawSelection() (reader.RawSelection, bool) {
	lo, hi := v.selAnchor, v.selCursor
	if lo > hi {
		lo, hi = hi, lo
	}

	switch r := v.ctrl.Renderer().(type) {
	case *render.PlainTextRenderer:
		all := render.WrapText(r.Text(), v.textWidth())
		if lo >= len(all) {
			return reader.RawSelection{}, false
		}
		if hi >= len(all) {
			hi = len(all) - 1
		}
		start, end := all[lo].Start, all[hi].End
		return reader.RawSelection{
			Text:      r.Text()[start:end],
			InContent: true,
			Point:     domain.Point{X: 0, Y: hi},
			StartChar: start,
			EndChar:   end,
		}, true

	case *render.PaginatedRenderer:
		if lo >= len(v.pageLines) {
			return reader.RawSelection{}, false
		}
		if hi >= len(v.pageLines) {
			hi = len(v.pageLines) - 1
		}
		var parts []string
		rects := make([]reader.ClientRect, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			parts = append(parts, v.pageLines[i].Text)
			rects = append(rects, reader.ClientRect{
				X: 0, Y: float64(i),
				W: float64(len([]rune(v.pageLines[i].Text))), H: 1,
			})
		}
		surface := reader.ClientRect{W: float64(v.textWidth()), H: float64(len(v.pageLines))}
		return reader.RawSelection{
			Text:        strings.Join(parts, " "),
			InContent:   true,
			Point:       domain.Point{X: 0, Y: hi},
			ClientRects: rects,
			Surface:     surface,
			Page:        r.Location().Page,
		}, true

	case *render.FlowedRenderer:
		if !r.Ready() {
			return reader.RawSelection{}, false
		}
		lines := v.flowedLines()
		if lo >= len(lines) {
			return reader.RawSelection{}, false
		}
		if hi >= len(lines) {
			hi = len(lines) - 1
		}
		var parts []string
		for i := lo; i <= hi; i++ {
			parts = append(parts, lines[i].Text)
		}
		return reader.RawSelection{
			Text:      strings.Join(parts, " "),
			InContent: true,
			Point:     domain.Point{X: 0, Y: hi},
			Anchor:    r.Engine().Capture(),
		}, true
	}
	return reader.RawSelection{}, false
}

// Bookmarks overlay

func (v *ReaderView) updateMarks(msg tea.KeyMsg) (*ReaderView, tea.Cmd) {
	marks := v.ctrl.Bookmarks().List()
	switch {
	case key.Matches(msg, v.keys.Escape), key.Matches(msg, v.keys.Marks):
		v.mode = readerModeNormal
	case key.Matches(msg, v.keys.Down):
		if v.listCursor < len(marks)-1 {
			v.listCursor++
		}
	case key.Matches(msg, v.keys.Up):
		if v.listCursor > 0 {
			v.listCursor--
		}
	case key.Matches(msg, v.keys.Enter):
		if v.listCursor < len(marks) {
			if err := v.ctrl.Bookmarks().Jump(v.ctx, marks[v.listCursor]); err != nil && !render.IsCancel(err) {
				v.err = err
			}
			v.mode = readerModeNormal
			v.syncTextLayer()
			return v, v.renderPageCmd()
		}
	case key.Matches(msg, v.keys.Delete):
		if v.listCursor < len(marks) {
			if err := v.ctrl.Bookmarks().Delete(marks[v.listCursor].ID); err != nil {
				v.err = err
			}
			if v.listCursor > 0 {
				v.listCursor--
			}
		}
	}
	return v, nil
}

// Table of contents overlay (flowed format only)

func (v *ReaderView) updateTOC(msg tea.KeyMsg) (*ReaderView, tea.Cmd) {
	flowed, ok := v.ctrl.Renderer().(*render.FlowedRenderer)
	if !ok || !flowed.Ready() {
		v.mode = readerModeNormal
		return v, nil
	}
	entries := flowed.Engine().TOC()
	switch {
	case key.Matches(msg, v.keys.Escape), key.Matches(msg, v.keys.TOC):
		v.mode = readerModeNormal
	case key.Matches(msg, v.keys.Down):
		if v.listCursor < len(entries)-1 {
			v.listCursor++
		}
	case key.Matches(msg, v.keys.Up):
		if v.listCursor > 0 {
			v.listCursor--
		}
	case key.Matches(msg, v.keys.Enter):
		if v.listCursor < len(entries) {
			loc := domain.Location{Format: domain.FormatFlowed, Anchor: entries[v.listCursor].Anchor}
			if err := flowed.NavigateTo(v.ctx, loc); err != nil {
				v.err = err
			}
			v.mode = readerModeNormal
			v.syncTextLayer()
		}
	}
	return v, nil
}

// Highlight action menu

func (v *ReaderView) updateHLMenu(msg tea.KeyMsg) (*ReaderView, tea.Cmd) {
	if v.activeHL == nil {
		v.mode = readerModeNormal
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Escape):
		v.mode = readerModeNormal
		v.activeHL = nil
	case key.Matches(msg, v.keys.Delete):
		if err := v.ctrl.Highlights().Delete(v.activeHL.ID); err != nil {
			v.err = err
		} else {
			v.status = "Highlight deleted"
		}
		v.mode = readerModeNormal
		v.activeHL = nil
	case msg.String() == "n":
		v.noteInput.SetValue(v.activeHL.Note)
		v.noteInput.Focus()
		v.mode = readerModeNote
	default:
		if c, ok := colorForDigit(msg.String()); ok {
			if err := v.ctrl.Highlights().SetColor(v.activeHL.ID, c); err != nil {
				v.err = err
			}
			v.mode = readerModeNormal
			v.activeHL = nil
		}
	}
	return v, nil
}

func (v *ReaderView) updateNote(msg tea.KeyMsg) (*ReaderView, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Escape):
		v.mode = readerModeHLMenu
		v.noteInput.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		if v.activeHL != nil {
			if err := v.ctrl.Highlights().SetNote(v.activeHL.ID, v.noteInput.Value()); err != nil {
				v.err = err
			} else {
				v.status = "Note saved"
			}
		}
		v.noteInput.Blur()
		v.mode = readerModeNormal
		v.activeHL = nil
		return v, nil
	}
	var cmd tea.Cmd
	v.noteInput, cmd = v.noteInput.Update(msg)
	return v, cmd
}

// handleMouse hit-tests clicks against rendered paginated highlights; a hit
// opens the action menu instead of starting a selection.
func (v *ReaderView) handleMouse(msg tea.MouseMsg) (*ReaderView, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return v, nil
	}
	paginated, ok := v.ctrl.Renderer().(*render.PaginatedRenderer)
	if !ok || len(v.pageLines) == 0 {
		return v, nil
	}
	y := msg.Y - 1 // below the title bar
	hl := v.ctrl.Highlights().HitTest(
		paginated.Location().Page,
		float64(v.textWidth()), float64(len(v.pageLines)),
		domain.Point{X: msg.X, Y: y},
	)
	if hl != nil {
		return v, func() tea.Msg { return highlightMenuMsg{highlight: hl} }
	}
	return v, nil
}

// Rendering

func (v *ReaderView) View() string {
	var b strings.Builder

	doc := v.ctrl.Document()
	if doc == nil {
		return v.styles.MutedText.Render("No document open")
	}

	if v.ctrl.ControlsVisible() {
		b.WriteString(v.styles.TitleBar.Width(v.width).Render(doc.Title))
		b.WriteString("\n")
	}

	switch v.mode {
	case readerModeMarks:
		b.WriteString(v.viewMarks())
	case readerModeTOC:
		b.WriteString(v.viewTOC())
	case readerModeHLMenu:
		b.WriteString(v.viewHLMenu())
	case readerModeNote:
		b.WriteString(v.viewHLMenu())
		b.WriteString("\n  Note: " + v.noteInput.View())
	default:
		b.WriteString(v.viewContent())
	}

	b.WriteString("\n")
	b.WriteString(v.statusLine())
	return b.String()
}

func (v *ReaderView) viewContent() string {
	switch r := v.ctrl.Renderer().(type) {
	case *render.PlainTextRenderer:
		return v.viewPlainText(r)
	case *render.PaginatedRenderer:
		return v.viewPaginated(r)
	case *render.FlowedRenderer:
		return v.viewFlowed(r)
	}
	return ""
}

func (v *ReaderView) viewPlainText(r *render.PlainTextRenderer) string {
	visible := r.VisibleLines()
	all := render.WrapText(r.Text(), v.textWidth())

	// Absolute index of the first visible line, for select-mode marking.
	base := 0
	if len(visible) > 0 {
		for i, l := range all {
			if l.Start == visible[0].Start {
				base = i
				break
			}
		}
	}

	var lines []string
	for i, line := range visible {
		abs := base + i
		rendered := v.styleTextLine(line)
		if v.mode == readerModeSelect && v.inSelection(abs) {
			rendered = v.styles.SelectionMark.Render(line.Text)
		}
		lines = append(lines, "  "+rendered)
	}
	return strings.Join(lines, "\n")
}

// styleTextLine applies inline highlight styling to the byte ranges of stored
// plain-text highlights overlapping this line.
func (v *ReaderView) styleTextLine(line render.LineSpan) string {
	overlapping := v.ctrl.Highlights().RangesIn(line.Start, line.End)
	if len(overlapping) == 0 {
		return v.styles.ReaderText.Render(line.Text)
	}

	// Segment boundaries relative to the line text. Later highlights win on
	// overlap, matching draw order elsewhere.
	type seg struct {
		color *domain.HighlightColor
	}
	segs := make([]seg, len(line.Text))
	for _, h := range overlapping {
		start := *h.StartChar - line.Start
		end := *h.EndChar - line.Start
		if start < 0 {
			start = 0
		}
		if end > len(line.Text) {
			end = len(line.Text)
		}
		c := h.Color
		for i := start; i < end; i++ {
			segs[i] = seg{color: &c}
		}
	}

	var b strings.Builder
	i := 0
	for i < len(line.Text) {
		j := i
		for j < len(line.Text) && sameColor(segs[i].color, segs[j].color) {
			j++
		}
		chunk := line.Text[i:j]
		if segs[i].color != nil {
			b.WriteString(v.styles.Highlight(*segs[i].color).Render(chunk))
		} else {
			b.WriteString(v.styles.ReaderText.Render(chunk))
		}
		i = j
	}
	return b.String()
}

func sameColor(a, b *domain.HighlightColor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (v *ReaderView) inSelection(line int) bool {
	lo, hi := v.selAnchor, v.selCursor
	if lo > hi {
		lo, hi = hi, lo
	}
	return line >= lo && line <= hi
}

func (v *ReaderView) viewPaginated(r *render.PaginatedRenderer) string {
	if len(v.pageLines) == 0 {
		return v.styles.MutedText.Render("  (no text on this page)")
	}
	page := r.Location().Page
	overlays := v.ctrl.Highlights().OverlaysForPage(page, float64(v.textWidth()), float64(len(v.pageLines)))

	var lines []string
	max := v.textHeight()
	for i, line := range v.pageLines {
		if i >= max {
			break
		}
		rendered := v.stylePageLine(i, line.Text, overlays)
		if v.mode == readerModeSelect && v.inSelection(i) {
			rendered = v.styles.SelectionMark.Render(line.Text)
		}
		lines = append(lines, "  "+rendered)
	}
	return strings.Join(lines, "\n")
}

// stylePageLine styles a page text line using the overlay rects that cover
// its row. Overlays arrive in creation order, so later ones draw on top.
func (v *ReaderView) stylePageLine(row int, text string, overlays []reader.Overlay) string {
	var color *domain.HighlightColor
	for _, ov := range overlays {
		for _, rect := range ov.Rects {
			if float64(row) >= rect.Y && float64(row) < rect.Y+rect.H {
				c := ov.Highlight.Color
				color = &c
			}
		}
	}
	if color != nil {
		return v.styles.Highlight(*color).Render(text)
	}
	return v.styles.ReaderText.Render(text)
}

func (v *ReaderView) viewFlowed(r *render.FlowedRenderer) string {
	if !r.Ready() {
		return v.styles.MutedText.Render("  Loading…")
	}
	lines := v.flowedLines()
	end := v.flowScroll + v.textHeight()
	if end > len(lines) {
		end = len(lines)
	}
	anns := r.Engine().AnnotationsAt(r.Engine().Capture())

	var out []string
	for i := v.flowScroll; i < end; i++ {
		rendered := v.styleFlowedLine(lines[i].Text, anns)
		if v.mode == readerModeSelect && v.inSelection(i) {
			rendered = v.styles.SelectionMark.Render(lines[i].Text)
		}
		out = append(out, "  "+rendered)
	}
	return strings.Join(out, "\n")
}

func (v *ReaderView) flowedLines() []render.LineSpan {
	flowed, ok := v.ctrl.Renderer().(*render.FlowedRenderer)
	if !ok || !flowed.Ready() {
		return nil
	}
	return render.WrapText(flowed.ViewText(), v.textWidth())
}

// styleFlowedLine styles occurrences of annotated highlight text within one
// display line. Highlights spanning a wrap boundary style only the portion
// that fits on a single line.
func (v *ReaderView) styleFlowedLine(text string, anns []render.Annotation) string {
	if len(anns) == 0 {
		return v.styles.ReaderText.Render(text)
	}
	current := ""
	if flowed, ok := v.ctrl.Renderer().(*render.FlowedRenderer); ok {
		current = flowed.Engine().Capture()
	}
	for _, h := range v.ctrl.Highlights().List() {
		if h.Anchor == nil || *h.Anchor != current || h.Text == "" {
			continue
		}
		if idx := strings.Index(text, h.Text); idx >= 0 {
			return v.styles.ReaderText.Render(text[:idx]) +
				v.styles.Highlight(h.Color).Render(h.Text) +
				v.styles.ReaderText.Render(text[idx+len(h.Text):])
		}
	}
	return v.styles.ReaderText.Render(text)
}

// Overlay panels

func (v *ReaderView) viewMarks() string {
	marks := v.ctrl.Bookmarks().List()
	var b strings.Builder
	b.WriteString(v.styles.MutedText.Render("  Bookmarks (enter jump, d delete, esc close)"))
	b.WriteString("\n\n")
	if len(marks) == 0 {
		b.WriteString(v.styles.MutedText.Render("  No bookmarks yet"))
		return b.String()
	}
	for i, m := range marks {
		marker := " "
		if m.Type == domain.BookmarkFavorite {
			marker = "*"
		}
		line := fmt.Sprintf("%s %5.1f%%  %s", marker, m.Percentage, m.Preview)
		if i == v.listCursor {
			b.WriteString(v.styles.ListItemSelected.Render(line))
		} else {
			b.WriteString(v.styles.ListItem.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *ReaderView) viewTOC() string {
	flowed, ok := v.ctrl.Renderer().(*render.FlowedRenderer)
	if !ok || !flowed.Ready() {
		return ""
	}
	entries := flowed.Engine().TOC()
	var b strings.Builder
	b.WriteString(v.styles.MutedText.Render("  Contents (enter jump, esc close)"))
	b.WriteString("\n\n")
	for i, e := range entries {
		line := e.Title
		if i == v.listCursor {
			b.WriteString(v.styles.ListItemSelected.Render(line))
		} else {
			b.WriteString(v.styles.ListItem.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *ReaderView) viewHLMenu() string {
	if v.activeHL == nil {
		return ""
	}
	text := v.activeHL.Text
	if len(text) > 120 {
		text = text[:119] + "…"
	}
	var b strings.Builder
	b.WriteString(v.styles.Highlight(v.activeHL.Color).Render("  " + text))
	b.WriteString("\n\n")
	b.WriteString(v.styles.MutedText.Render("  1-5 color  n note  d delete  esc close"))
	if v.activeHL.Note != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.MutedText.Render("  Note: " + v.activeHL.Note))
	}
	return b.String()
}

func (v *ReaderView) statusLine() string {
	if v.err != nil {
		return v.styles.ErrorText.Render(v.err.Error())
	}
	loc := v.ctrl.Renderer().Location()
	var pos string
	if loc.Format == domain.FormatPaginated {
		pos = fmt.Sprintf("page %d/%d", loc.Page, loc.PageCount)
	} else {
		pos = fmt.Sprintf("%.1f%%", loc.Percent)
	}

	idle := ""
	if s := v.ctrl.Session(); s != nil && s.Idle() {
		idle = "  [idle]"
	}
	extra := ""
	switch v.mode {
	case readerModeSelect:
		extra = "  SELECT: j/k extend, enter confirm, esc cancel"
	case readerModeColor:
		extra = "  COLOR: 1 yellow 2 green 3 blue 4 pink 5 orange"
	}
	if v.status != "" {
		extra += "  " + v.status
	}
	return v.styles.StatusBar.Render(pos + idle + extra)
}
