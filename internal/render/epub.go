package render

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"shelf-reader/internal/domain"
)

const defaultBlockChars = 2600

// EPUBEngine is the built-in layout engine for flowed documents. It reads the
// EPUB spine, converts each chapter to text, and paginates the result into
// fixed-size blocks. Anchor tokens are opaque handles onto those blocks;
// callers must not interpret them.
type EPUBEngine struct {
	logger     domain.Logger
	blockChars int

	mu       sync.Mutex
	loaded   bool
	title    string
	author   string
	chapters []epubChapter
	blocks   []epubBlock
	cur      int

	annotations map[string]Annotation
	annOrder    []string
}

type epubChapter struct {
	title      string
	firstBlock int
}

type epubBlock struct {
	chapter int
	text    string
}

func NewEPUBEngine(logger domain.Logger, blockChars int) *EPUBEngine {
	if blockChars <= 0 {
		blockChars = defaultBlockChars
	}
	return &EPUBEngine{
		logger:      logger,
		blockChars:  blockChars,
		annotations: make(map[string]Annotation),
	}
}

var _ Engine = (*EPUBEngine)(nil)

func (e *EPUBEngine) Load(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open epub: %w", err)
	}

	containerBytes, err := readZipFile(zr, "META-INF/container.xml")
	if err != nil {
		return fmt.Errorf("invalid epub (missing container.xml): %w", err)
	}
	opfPath, err := findOPFPath(containerBytes)
	if err != nil || strings.TrimSpace(opfPath) == "" {
		return fmt.Errorf("invalid epub (missing package path)")
	}
	opfBytes, err := readZipFile(zr, opfPath)
	if err != nil {
		return fmt.Errorf("invalid epub (missing package file): %w", err)
	}

	title, author, orderedHrefs := parseOPF(opfBytes)

	opfDir := path.Dir(opfPath)
	if opfDir == "." {
		opfDir = ""
	}

	var chapters []epubChapter
	var blocks []epubBlock
	for _, href := range orderedHrefs {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		if unescaped, _ := url.PathUnescape(href); unescaped != "" {
			href = unescaped
		}
		full := path.Clean(path.Join(opfDir, href))
		b, err := readZipFile(zr, full)
		if err != nil {
			// Best-effort: skip missing spine items.
			continue
		}
		text := normalizeText(htmlToText(b))
		if text == "" {
			continue
		}
		pages := paginateText(text, e.blockChars)
		if len(pages) == 0 {
			continue
		}
		ch := epubChapter{
			title:      chapterTitle(text, len(chapters)+1),
			firstBlock: len(blocks),
		}
		chapters = append(chapters, ch)
		for _, p := range pages {
			blocks = append(blocks, epubBlock{chapter: len(chapters) - 1, text: p})
		}
	}

	if len(blocks) == 0 {
		return fmt.Errorf("epub has no readable content")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.title = strings.TrimSpace(title)
	e.author = strings.TrimSpace(author)
	e.chapters = chapters
	e.blocks = blocks
	e.cur = 0
	e.loaded = true
	return nil
}

func (e *EPUBEngine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *EPUBEngine) Title() string  { return e.title }
func (e *EPUBEngine) Author() string { return e.author }

// --- anchors ---

// encodeAnchor produces the opaque token for a block index. The encoding is
// an implementation detail; tokens only promise to round-trip through
// Display/Resolve.
func (e *EPUBEngine) encodeAnchor(block int) string {
	raw := fmt.Sprintf("epubloc/%d/%d", block, len(e.blocks))
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func (e *EPUBEngine) decodeAnchor(anchor string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(anchor)
	if err != nil {
		return 0, fmt.Errorf("bad anchor token: %w", err)
	}
	var block, total int
	if _, err := fmt.Sscanf(string(raw), "epubloc/%d/%d", &block, &total); err != nil {
		return 0, fmt.Errorf("bad anchor token: %w", err)
	}
	if block < 0 || block >= len(e.blocks) {
		return 0, fmt.Errorf("anchor out of range")
	}
	return block, nil
}

func (e *EPUBEngine) locationOf(block int) EngineLocation {
	frac := 0.0
	if len(e.blocks) > 1 {
		frac = float64(block) / float64(len(e.blocks)-1)
	} else {
		frac = 1.0
	}
	return EngineLocation{Anchor: e.encodeAnchor(block), Fraction: frac}
}

func (e *EPUBEngine) Display(anchor string) (EngineLocation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return EngineLocation{}, domain.ErrEngineUnavailable
	}
	block := 0
	if anchor != "" {
		b, err := e.decodeAnchor(anchor)
		if err != nil {
			return EngineLocation{}, err
		}
		block = b
	}
	e.cur = block
	return e.locationOf(block), nil
}

func (e *EPUBEngine) Advance(delta int) (EngineLocation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return EngineLocation{}, domain.ErrEngineUnavailable
	}
	target := e.cur + delta
	if target < 0 {
		target = 0
	}
	if target >= len(e.blocks) {
		target = len(e.blocks) - 1
	}
	e.cur = target
	return e.locationOf(target), nil
}

func (e *EPUBEngine) CurrentLocation() EngineLocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return EngineLocation{}
	}
	return e.locationOf(e.cur)
}

func (e *EPUBEngine) Capture() string {
	return e.CurrentLocation().Anchor
}

func (e *EPUBEngine) Resolve(anchor string) (EngineLocation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return EngineLocation{}, domain.ErrEngineUnavailable
	}
	block, err := e.decodeAnchor(anchor)
	if err != nil {
		return EngineLocation{}, err
	}
	return e.locationOf(block), nil
}

// --- content ---

// FullText joins every block into the document's complete plain text, used by
// the import pipeline for snippets and word counts.
func (e *EPUBEngine) FullText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var sb strings.Builder
	for i, b := range e.blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(b.text)
	}
	return sb.String()
}

func (e *EPUBEngine) ViewText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.cur >= len(e.blocks) {
		return ""
	}
	return e.blocks[e.cur].text
}

func (e *EPUBEngine) SnippetAt(anchor string, maxChars int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return "", domain.ErrEngineUnavailable
	}
	block, err := e.decodeAnchor(anchor)
	if err != nil {
		return "", err
	}
	text := e.blocks[block].text
	if maxChars > 0 && len(text) > maxChars {
		cut := text[:maxChars]
		if idx := strings.LastIndexAny(cut, " \n"); idx > maxChars/2 {
			cut = cut[:idx]
		}
		text = cut + "…"
	}
	return strings.TrimSpace(text), nil
}

// --- annotations ---

func (e *EPUBEngine) AddAnnotation(anchor, style string, onClick func(anchor string)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return domain.ErrEngineUnavailable
	}
	if _, err := e.decodeAnchor(anchor); err != nil {
		return err
	}
	if _, exists := e.annotations[anchor]; !exists {
		e.annOrder = append(e.annOrder, anchor)
	}
	e.annotations[anchor] = Annotation{Anchor: anchor, Style: style, OnClick: onClick}
	return nil
}

// RemoveAnnotation deletes a registered mark. An unresolvable anchor is a
// silent no-op.
func (e *EPUBEngine) RemoveAnnotation(anchor string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.annotations[anchor]; !exists {
		return
	}
	delete(e.annotations, anchor)
	for i, a := range e.annOrder {
		if a == anchor {
			e.annOrder = append(e.annOrder[:i], e.annOrder[i+1:]...)
			break
		}
	}
}

// AnnotationsAt returns the marks whose anchors fall in the same view as the
// given anchor, in registration order (later marks render on top).
func (e *EPUBEngine) AnnotationsAt(anchor string) []Annotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return nil
	}
	block, err := e.decodeAnchor(anchor)
	if err != nil {
		return nil
	}
	var out []Annotation
	for _, a := range e.annOrder {
		if b, err := e.decodeAnchor(a); err == nil && b == block {
			out = append(out, e.annotations[a])
		}
	}
	return out
}

// --- table of contents ---

func (e *EPUBEngine) TOC() []TOCEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TOCEntry, 0, len(e.chapters))
	for _, ch := range e.chapters {
		out = append(out, TOCEntry{Title: ch.title, Anchor: e.encodeAnchor(ch.firstBlock)})
	}
	return out
}

// --- epub parsing ---

func chapterTitle(text string, n int) string {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 80 {
		return fmt.Sprintf("Chapter %d", n)
	}
	return line
}

// paginateText splits chapter text into blocks of roughly maxChars,
// breaking at paragraph boundaries where possible.
func paginateText(text string, maxChars int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var pages []string
	var sb strings.Builder

	flush := func() {
		page := strings.TrimSpace(sb.String())
		if page != "" {
			pages = append(pages, page)
		}
		sb.Reset()
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		// A paragraph longer than a block still gets its own block.
		if sb.Len() == 0 && len(para) > maxChars {
			pages = append(pages, para)
			continue
		}
		if sb.Len() > 0 && sb.Len()+2+len(para) > maxChars {
			flush()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(para)
	}
	if sb.Len() > 0 {
		flush()
	}
	return pages
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	lower := strings.ToLower(name)
	for _, f := range zr.File {
		if strings.ToLower(f.Name) == lower {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

func findOPFPath(containerXML []byte) (string, error) {
	type rootfile struct {
		FullPath string `xml:"full-path,attr"`
	}
	type rootfiles struct {
		Rootfiles []rootfile `xml:"rootfile"`
	}
	type container struct {
		Rootfiles rootfiles `xml:"rootfiles"`
	}

	var c container
	if err := xml.Unmarshal(containerXML, &c); err != nil {
		return "", err
	}
	for _, rf := range c.Rootfiles.Rootfiles {
		if strings.TrimSpace(rf.FullPath) != "" {
			return strings.TrimSpace(rf.FullPath), nil
		}
	}
	return "", fmt.Errorf("rootfile not found")
}

// parseOPF extracts title, author, and the ordered spine hrefs. Matching is
// namespace-agnostic via Name.Local.
func parseOPF(opf []byte) (title string, author string, spineHrefs []string) {
	type manifestItem struct {
		ID   string
		Href string
	}
	manifest := map[string]manifestItem{}
	spineIDs := make([]string, 0, 64)

	dec := xml.NewDecoder(bytes.NewReader(opf))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch strings.ToLower(se.Name.Local) {
		case "title":
			if title == "" {
				title = strings.TrimSpace(readElementText(dec))
			}
		case "creator":
			if author == "" {
				author = strings.TrimSpace(readElementText(dec))
			}
		case "item":
			var id, href string
			for _, a := range se.Attr {
				switch strings.ToLower(a.Name.Local) {
				case "id":
					id = a.Value
				case "href":
					href = a.Value
				}
			}
			if id != "" && href != "" {
				manifest[id] = manifestItem{ID: id, Href: href}
			}
		case "itemref":
			var idref string
			for _, a := range se.Attr {
				if strings.ToLower(a.Name.Local) == "idref" {
					idref = a.Value
					break
				}
			}
			if idref != "" {
				spineIDs = append(spineIDs, idref)
			}
		}
	}

	spineHrefs = make([]string, 0, len(spineIDs))
	for _, id := range spineIDs {
		if item, ok := manifest[id]; ok && item.Href != "" {
			spineHrefs = append(spineHrefs, item.Href)
		}
	}
	return title, author, spineHrefs
}

func readElementText(dec *xml.Decoder) string {
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			out.Write([]byte(t))
		case xml.EndElement:
			return out.String()
		}
	}
	return out.String()
}

func htmlToText(b []byte) string {
	doc, err := html.Parse(bytes.NewReader(b))
	if err != nil || doc == nil {
		return ""
	}

	block := map[string]bool{
		"p": true, "div": true, "section": true, "article": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"li": true, "ul": true, "ol": true, "blockquote": true,
	}
	skip := map[string]bool{
		"script": true, "style": true, "head": true, "title": true, "nav": true,
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skip[tag] {
				return
			}
			if tag == "br" {
				sb.WriteString("\n")
			}
			if block[tag] {
				sb.WriteString("\n\n")
			}
		}
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") && !strings.HasSuffix(sb.String(), " ") {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if block[tag] {
				sb.WriteString("\n\n")
			}
		}
	}
	walk(doc)

	return sb.String()
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, " ", " ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			blank++
			if blank <= 2 {
				out = append(out, "")
			}
			continue
		}
		blank = 0
		out = append(out, t)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
