package render

import (
	"context"
	"strings"
	"unicode"

	"shelf-reader/internal/domain"
)

// LineSpan is one wrapped display line together with the byte range it covers
// in the source text, so stored character-range highlights can be mapped back
// onto the visible flow.
type LineSpan struct {
	Start int // byte offset into the source text
	End   int
	Text  string
}

// PlainTextRenderer renders flat text as one scrollable flow. Location is
// derived purely from the scroll offset versus the total scrollable height;
// resume replays a percentage against the current content height.
type PlainTextRenderer struct {
	logger domain.Logger

	text  string
	lines []LineSpan

	width  int
	height int // viewport height in lines
	offset int // first visible line

	onRelocate func(domain.Location)
}

func NewPlainTextRenderer(logger domain.Logger) *PlainTextRenderer {
	return &PlainTextRenderer{logger: logger, width: 80, height: 24}
}

func (r *PlainTextRenderer) Format() domain.DocumentFormat { return domain.FormatPlainText }

func (r *PlainTextRenderer) Open(ctx context.Context, doc *domain.Document, settings *domain.ReadingSettings) error {
	text := doc.ExtractedText
	if text == "" {
		text = string(doc.Data)
	}
	r.text = text
	r.reflow()

	if doc.Progress > 0 {
		r.scrollToPercent(doc.Progress, false)
	}
	return nil
}

func (r *PlainTextRenderer) Close() error { return nil }

func (r *PlainTextRenderer) Ready() bool { return r.lines != nil }

// SetViewport updates the flow dimensions and reflows, keeping the current
// percentage position.
func (r *PlainTextRenderer) SetViewport(width, height int) {
	if width < 1 || height < 1 {
		return
	}
	percent := r.Location().Percent
	r.width = width
	r.height = height
	r.reflow()
	r.scrollToPercent(percent, false)
}

func (r *PlainTextRenderer) Location() domain.Location {
	return domain.Location{
		Format:  domain.FormatPlainText,
		Percent: r.scrollPercent(),
	}
}

func (r *PlainTextRenderer) OnRelocate(fn func(domain.Location)) { r.onRelocate = fn }

// NavigateDelta scrolls by delta viewport-heights (page up/down).
func (r *PlainTextRenderer) NavigateDelta(ctx context.Context, delta int) error {
	r.scrollLines(delta * r.height)
	return nil
}

func (r *PlainTextRenderer) NavigateTo(ctx context.Context, target domain.Location) error {
	r.scrollToPercent(target.Percent, true)
	return nil
}

// ScrollLines scrolls by a raw line delta (single-step scrolling).
func (r *PlainTextRenderer) ScrollLines(delta int) {
	r.scrollLines(delta)
}

// VisibleLines returns the wrapped lines currently in the viewport.
func (r *PlainTextRenderer) VisibleLines() []LineSpan {
	if r.lines == nil {
		return nil
	}
	end := r.offset + r.height
	if end > len(r.lines) {
		end = len(r.lines)
	}
	if r.offset >= end {
		return nil
	}
	return r.lines[r.offset:end]
}

// Text returns the full source text the renderer flows.
func (r *PlainTextRenderer) Text() string { return r.text }

// CharRangeOfVisible returns the byte range of the text currently in view.
func (r *PlainTextRenderer) CharRangeOfVisible() (start, end int) {
	visible := r.VisibleLines()
	if len(visible) == 0 {
		return 0, 0
	}
	return visible[0].Start, visible[len(visible)-1].End
}

func (r *PlainTextRenderer) scrollLines(delta int) {
	max := r.maxOffset()
	target := r.offset + delta
	if target < 0 {
		target = 0
	}
	if target > max {
		target = max
	}
	if target == r.offset {
		return
	}
	r.offset = target
	if r.onRelocate != nil {
		r.onRelocate(r.Location())
	}
}

func (r *PlainTextRenderer) scrollToPercent(percent float64, notify bool) {
	percent = domain.ClampPercent(percent)
	max := r.maxOffset()
	r.offset = int(percent/100*float64(max) + 0.5)
	if notify && r.onRelocate != nil {
		r.onRelocate(r.Location())
	}
}

func (r *PlainTextRenderer) scrollPercent() float64 {
	max := r.maxOffset()
	if max == 0 {
		return 100
	}
	return domain.ClampPercent(float64(r.offset) / float64(max) * 100)
}

// maxOffset is the scrollable height: total lines minus one viewport.
func (r *PlainTextRenderer) maxOffset() int {
	max := len(r.lines) - r.height
	if max < 0 {
		return 0
	}
	return max
}

func (r *PlainTextRenderer) reflow() {
	r.lines = WrapText(r.text, r.width)
}

// WrapText greedily wraps text at word boundaries, preserving byte offsets so
// that character-range annotations survive reflow.
func WrapText(text string, width int) []LineSpan {
	if width < 1 {
		width = 1
	}
	lines := []LineSpan{}
	lineStart := 0
	for lineStart <= len(text) {
		nl := strings.IndexByte(text[lineStart:], '\n')
		var raw string
		var rawEnd int
		if nl < 0 {
			raw = text[lineStart:]
			rawEnd = len(text)
		} else {
			raw = text[lineStart : lineStart+nl]
			rawEnd = lineStart + nl
		}
		lines = append(lines, wrapLine(raw, lineStart, width)...)
		if nl < 0 {
			break
		}
		lineStart = rawEnd + 1
	}
	return lines
}

func wrapLine(line string, base, width int) []LineSpan {
	if line == "" {
		return []LineSpan{{Start: base, End: base, Text: ""}}
	}
	var spans []LineSpan
	start := 0
	for start < len(line) {
		remaining := line[start:]
		if len([]rune(remaining)) <= width {
			spans = append(spans, LineSpan{Start: base + start, End: base + len(line), Text: remaining})
			break
		}
		// Find the rune boundary at the width limit, then back up to the
		// last space before it.
		cut := 0
		count := 0
		for i := range remaining {
			if count == width {
				cut = i
				break
			}
			count++
		}
		if cut == 0 {
			cut = len(remaining)
		}
		brk := strings.LastIndexFunc(remaining[:cut], unicode.IsSpace)
		if brk <= 0 {
			brk = cut
		}
		spans = append(spans, LineSpan{
			Start: base + start,
			End:   base + start + brk,
			Text:  strings.TrimRight(remaining[:brk], " \t"),
		})
		// Skip the break character itself.
		next := start + brk
		for next < len(line) && (line[next] == ' ' || line[next] == '\t') {
			next++
		}
		start = next
	}
	return spans
}
