package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"shelf-reader/internal/domain"
	"shelf-reader/pkg/logger"
)

// buildPDF writes a minimal uncompressed PDF with one text line per page.
func buildPDF(t *testing.T, pageTexts []string) []byte {
	t.Helper()

	kids := make([]string, len(pageTexts))
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pageTexts)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for i, text := range pageTexts {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func openPaginated(t *testing.T, pages int) *PaginatedRenderer {
	t.Helper()
	texts := make([]string, pages)
	for i := range texts {
		texts[i] = fmt.Sprintf("page %d body", i+1)
	}
	doc := &domain.Document{
		ID:     "pdf-1",
		Format: domain.FormatPaginated,
		Data:   buildPDF(t, texts),
	}
	r := NewPaginatedRenderer(logger.NewNop())
	if err := r.Open(context.Background(), doc, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestPaginatedOpenAndPageText(t *testing.T) {
	r := openPaginated(t, 6)

	if !r.Ready() {
		t.Fatal("renderer not ready after Open")
	}
	if r.PageCount() != 6 {
		t.Fatalf("PageCount = %d, want 6", r.PageCount())
	}
	text, err := r.PageText(3)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if !strings.Contains(text, "page 3 body") {
		t.Fatalf("PageText(3) = %q, want page 3 content", text)
	}
	if _, err := r.PageText(7); err == nil {
		t.Fatal("expected error for out-of-range page")
	}
}

func TestPaginatedNavigateClamps(t *testing.T) {
	r := openPaginated(t, 6)
	ctx := context.Background()

	if err := r.NavigateDelta(ctx, -1); err != nil {
		t.Fatalf("NavigateDelta: %v", err)
	}
	if loc := r.Location(); loc.Page != 1 {
		t.Fatalf("page = %d after backing off the first page, want 1", loc.Page)
	}
	if err := r.NavigateDelta(ctx, 10); err != nil {
		t.Fatalf("NavigateDelta: %v", err)
	}
	if loc := r.Location(); loc.Page != 1 {
		t.Fatalf("page = %d after over-large delta, want 1", loc.Page)
	}
	if err := r.NavigateDelta(ctx, 1); err != nil {
		t.Fatalf("NavigateDelta: %v", err)
	}
	if loc := r.Location(); loc.Page != 2 {
		t.Fatalf("page = %d, want 2", loc.Page)
	}

	if err := r.NavigateTo(ctx, domain.Location{Page: 99}); err != nil {
		t.Fatalf("NavigateTo: %v", err)
	}
	if loc := r.Location(); loc.Page != 6 {
		t.Fatalf("page = %d after overshooting target, want 6", loc.Page)
	}
	if err := r.NavigateTo(ctx, domain.Location{Percent: 0}); err != nil {
		t.Fatalf("NavigateTo: %v", err)
	}
	if loc := r.Location(); loc.Page != 1 {
		t.Fatalf("page = %d, want 1", loc.Page)
	}
}

func TestPaginatedRelocateFiresOnPageTurn(t *testing.T) {
	r := openPaginated(t, 4)

	var got []domain.Location
	r.OnRelocate(func(loc domain.Location) { got = append(got, loc) })

	if err := r.NavigateDelta(context.Background(), 1); err != nil {
		t.Fatalf("NavigateDelta: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("relocate fired %d times, want 1", len(got))
	}
	if got[0].Page != 2 || got[0].PageCount != 4 {
		t.Fatalf("relocate location = %+v", got[0])
	}
}

func TestPaginatedRenderAndSurface(t *testing.T) {
	r := openPaginated(t, 3)
	ctx := context.Background()

	img, err := r.RenderCurrent(ctx)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if img == nil || img.Bounds().Dx() == 0 {
		t.Fatal("render produced an empty image")
	}

	surface, page := r.Surface()
	if surface != img || page != 1 {
		t.Fatalf("Surface page = %d, want the just-rendered page 1", page)
	}

	if err := r.NavigateDelta(ctx, 2); err != nil {
		t.Fatalf("NavigateDelta: %v", err)
	}
	if _, err := r.RenderCurrent(ctx); err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	if _, page := r.Surface(); page != 3 {
		t.Fatalf("Surface page = %d after turning to page 3, want 3", page)
	}
}

func TestPaginatedZoomChangesRasterSize(t *testing.T) {
	r := openPaginated(t, 2)
	ctx := context.Background()

	base, err := r.RenderCurrent(ctx)
	if err != nil {
		t.Fatalf("RenderCurrent: %v", err)
	}
	r.SetZoom(2.0)
	doubled, err := r.RenderCurrent(ctx)
	if err != nil {
		t.Fatalf("RenderCurrent at zoom 2: %v", err)
	}
	if doubled.Bounds().Dx() <= base.Bounds().Dx() {
		t.Fatalf("zoomed width %d not larger than base width %d",
			doubled.Bounds().Dx(), base.Bounds().Dx())
	}

	r.SetZoom(-1)
	if r.Zoom() != 2.0 {
		t.Fatalf("Zoom = %v after rejecting non-positive zoom, want 2.0", r.Zoom())
	}
}

// A render that is overtaken by a newer request must return ErrSuperseded and
// must not land on the surface. The document lock is held so both requests are
// in flight together, making the overtake deterministic.
func TestPaginatedRenderSuperseded(t *testing.T) {
	r := openPaginated(t, 6)
	ctx := context.Background()

	r.mu.Lock()
	first := make(chan error, 1)
	go func() {
		_, err := r.RenderCurrent(ctx)
		first <- err
	}()
	waitForGeneration(t, r, 1)

	if err := r.NavigateDelta(ctx, 1); err != nil {
		t.Fatalf("NavigateDelta: %v", err)
	}
	second := make(chan error, 1)
	go func() {
		_, err := r.RenderCurrent(ctx)
		second <- err
	}()
	waitForGeneration(t, r, 2)
	r.mu.Unlock()

	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first render err = %v, want ErrSuperseded", err)
	}
	if !IsCancel(ErrSuperseded) {
		t.Fatal("IsCancel must treat ErrSuperseded as a cancellation")
	}
	if err := <-second; err != nil {
		t.Fatalf("second render err = %v", err)
	}
	if _, page := r.Surface(); page != 2 {
		t.Fatalf("Surface page = %d, want the newer page 2", page)
	}
}

func TestPaginatedRenderContextCancel(t *testing.T) {
	r := openPaginated(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Hold the document lock so the rasterization cannot complete first.
	r.mu.Lock()
	_, err := r.RenderCurrent(ctx)
	r.mu.Unlock()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPaginatedConcurrentRenderAndNavigate(t *testing.T) {
	r := openPaginated(t, 6)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			if _, err := r.RenderCurrent(ctx); err != nil && !IsCancel(err) {
				t.Errorf("RenderCurrent: %v", err)
				return
			}
		}
	}()
	for i := 0; i < 20; i++ {
		if err := r.NavigateDelta(ctx, 1); err != nil {
			t.Fatalf("NavigateDelta: %v", err)
		}
		r.SetZoom(1.0 + float64(i%4)*0.25)
	}
	<-done

	// After the churn a fresh render still lands on the current page.
	if _, err := r.RenderCurrent(ctx); err != nil {
		t.Fatalf("final RenderCurrent: %v", err)
	}
	if _, page := r.Surface(); page != r.Location().Page {
		t.Fatalf("Surface page = %d, want current page %d", page, r.Location().Page)
	}
}

func TestPaginatedOpenRejectsGarbage(t *testing.T) {
	r := NewPaginatedRenderer(logger.NewNop())
	doc := &domain.Document{ID: "bad", Format: domain.FormatPaginated, Data: []byte("not a pdf")}
	if err := r.Open(context.Background(), doc, nil); !errors.Is(err, domain.ErrUnrenderable) {
		t.Fatalf("err = %v, want ErrUnrenderable", err)
	}
	if r.Ready() {
		t.Fatal("renderer must not report ready after a failed open")
	}
}

func waitForGeneration(t *testing.T, r *PaginatedRenderer, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.generation.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("render generation never reached %d", want)
		}
		time.Sleep(time.Millisecond)
	}
}
