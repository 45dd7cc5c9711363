package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"shelf-reader/pkg/logger"
)

// buildEPUB assembles a minimal valid EPUB with one XHTML file per chapter.
func buildEPUB(t *testing.T, title, author string, chapters []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}

	write("META-INF/container.xml", `<?xml version="1.0"?>
<container xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	var manifest, spine strings.Builder
	for i := range chapters {
		manifest.WriteString(fmt.Sprintf(`<item id="ch%d" href="ch%d.xhtml" media-type="application/xhtml+xml"/>`, i, i))
		spine.WriteString(fmt.Sprintf(`<itemref idref="ch%d"/>`, i))
	}
	write("OEBPS/content.opf", fmt.Sprintf(`<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <metadata>
    <dc:title>%s</dc:title>
    <dc:creator>%s</dc:creator>
  </metadata>
  <manifest>%s</manifest>
  <spine>%s</spine>
</package>`, title, author, manifest.String(), spine.String()))

	for i, body := range chapters {
		write(fmt.Sprintf("OEBPS/ch%d.xhtml", i), fmt.Sprintf(
			`<html><head><title>x</title></head><body>%s</body></html>`, body))
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func loadedEngine(t *testing.T) *EPUBEngine {
	t.Helper()
	chapters := []string{
		"<h1>One</h1><p>First paragraph of the opening chapter.</p><p>Second paragraph with a little more text to span blocks.</p>",
		"<h1>Two</h1><p>The second chapter begins here.</p><p>It continues at some length so pagination has work to do.</p>",
	}
	e := NewEPUBEngine(logger.NewNop(), 60)
	if err := e.Load(buildEPUB(t, "Test Book", "A. Writer", chapters)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return e
}

func TestEPUBLoadMetadata(t *testing.T) {
	e := loadedEngine(t)
	if !e.Ready() {
		t.Fatal("expected engine to be ready after load")
	}
	if e.Title() != "Test Book" {
		t.Errorf("expected title %q, got %q", "Test Book", e.Title())
	}
	if e.Author() != "A. Writer" {
		t.Errorf("expected author %q, got %q", "A. Writer", e.Author())
	}
	if e.FullText() == "" {
		t.Error("expected extracted text")
	}
}

func TestEPUBAnchorRoundTrip(t *testing.T) {
	e := loadedEngine(t)

	if _, err := e.Advance(2); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	anchor := e.Capture()
	if anchor == "" {
		t.Fatal("expected a non-empty anchor token")
	}
	here := e.CurrentLocation()

	// Move away, then display the captured token.
	if _, err := e.Advance(-2); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	loc, err := e.Display(anchor)
	if err != nil {
		t.Fatalf("Display returned error: %v", err)
	}
	if loc.Anchor != here.Anchor || loc.Fraction != here.Fraction {
		t.Errorf("round trip mismatch: got %+v, want %+v", loc, here)
	}

	// Resolve reports without moving.
	before := e.Capture()
	if _, err := e.Resolve(anchor); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if e.Capture() != before {
		t.Error("Resolve must not move the reading position")
	}
}

func TestEPUBDisplayEmptyAnchorStartsAtBeginning(t *testing.T) {
	e := loadedEngine(t)
	if _, err := e.Advance(1); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	loc, err := e.Display("")
	if err != nil {
		t.Fatalf("Display returned error: %v", err)
	}
	if loc.Fraction != 0 {
		t.Errorf("expected the beginning, got fraction %f", loc.Fraction)
	}
}

func TestEPUBAdvanceClampsAtEnds(t *testing.T) {
	e := loadedEngine(t)

	loc, err := e.Advance(-5)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if loc.Fraction != 0 {
		t.Errorf("expected clamp at start, got %f", loc.Fraction)
	}

	loc, err = e.Advance(1000)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if loc.Fraction != 1 {
		t.Errorf("expected clamp at end, got %f", loc.Fraction)
	}
}

func TestEPUBBadAnchorRejected(t *testing.T) {
	e := loadedEngine(t)
	if _, err := e.Display("not-base64!!"); err == nil {
		t.Error("expected an error for a malformed token")
	}
	if _, err := e.Resolve("bm90LWEtdG9rZW4"); err == nil {
		t.Error("expected an error for a token with foreign payload")
	}
}

func TestEPUBAnnotationsOrderedPerView(t *testing.T) {
	e := loadedEngine(t)
	anchor := e.Capture()

	if err := e.AddAnnotation(anchor, "hl-yellow", nil); err != nil {
		t.Fatalf("AddAnnotation returned error: %v", err)
	}
	if err := e.AddAnnotation(anchor, "hl-blue", nil); err != nil {
		// Same anchor replaces, registration order preserved below.
		t.Fatalf("AddAnnotation returned error: %v", err)
	}

	anns := e.AnnotationsAt(anchor)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation at the view, got %d", len(anns))
	}
	if anns[0].Style != "hl-blue" {
		t.Errorf("expected the later style to win, got %s", anns[0].Style)
	}

	// Unresolvable anchors: add fails, remove is a silent no-op.
	if err := e.AddAnnotation("garbage", "hl-green", nil); err == nil {
		t.Error("expected an error for an unresolvable anchor")
	}
	e.RemoveAnnotation("garbage")

	e.RemoveAnnotation(anchor)
	if got := e.AnnotationsAt(anchor); len(got) != 0 {
		t.Errorf("expected no annotations after removal, got %d", len(got))
	}
}

func TestEPUBTOC(t *testing.T) {
	e := loadedEngine(t)
	toc := e.TOC()
	if len(toc) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(toc))
	}
	if toc[0].Title != "One" || toc[1].Title != "Two" {
		t.Errorf("unexpected chapter titles: %+v", toc)
	}

	// Jumping to a TOC anchor lands on that chapter's first block.
	loc, err := e.Display(toc[1].Anchor)
	if err != nil {
		t.Fatalf("Display returned error: %v", err)
	}
	if !strings.Contains(e.ViewText(), "second chapter") && !strings.Contains(e.ViewText(), "Two") {
		t.Errorf("expected the second chapter in view, got %q (fraction %f)", e.ViewText(), loc.Fraction)
	}
}

func TestEPUBSnippetAt(t *testing.T) {
	e := loadedEngine(t)
	snippet, err := e.SnippetAt(e.Capture(), 20)
	if err != nil {
		t.Fatalf("SnippetAt returned error: %v", err)
	}
	if snippet == "" {
		t.Fatal("expected a snippet")
	}
	if len(snippet) > 20+len("…") {
		t.Errorf("snippet too long: %d bytes", len(snippet))
	}
}

func TestEPUBLoadRejectsInvalidArchive(t *testing.T) {
	e := NewEPUBEngine(logger.NewNop(), 0)
	if err := e.Load([]byte("not a zip")); err == nil {
		t.Fatal("expected an error for a non-zip payload")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("mimetype")
	w.Write([]byte("application/epub+zip"))
	zw.Close()
	if err := e.Load(buf.Bytes()); err == nil {
		t.Fatal("expected an error for a zip without container.xml")
	}
	if e.Ready() {
		t.Error("engine must not become ready after a failed load")
	}
}
