// Package render implements the three format rendering strategies behind a
// single Renderer contract: a paginated raster renderer for fixed-layout
// documents, a flowed renderer delegating layout to an embedded engine, and a
// plain-text scrollable flow.
package render

import (
	"context"
	"errors"

	"shelf-reader/internal/domain"
)

// ErrSuperseded is returned when an in-flight render or navigation was
// cancelled by a newer request for the same surface. It is expected control
// flow, never surfaced to the user.
var ErrSuperseded = errors.New("render superseded")

// IsCancel reports whether err is a cancellation of an outdated request.
func IsCancel(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled)
}

// Renderer is the contract every format strategy implements. A renderer is
// selected once per document at open time and owns location tracking,
// navigation, and selection geometry for its format.
type Renderer interface {
	Format() domain.DocumentFormat

	// Open parses the document's source bytes. A parse failure leaves the
	// document unrenderable (domain.ErrUnrenderable); there is no retry.
	Open(ctx context.Context, doc *domain.Document, settings *domain.ReadingSettings) error
	Close() error

	// Ready reports whether the underlying engine has loaded. While false
	// the reader shows a loading state indefinitely rather than failing.
	Ready() bool

	// Location returns the current position. Percent is always populated.
	Location() domain.Location

	// OnRelocate registers the location-change callback. Relocations fire
	// on every navigation, scroll, or engine-driven move.
	OnRelocate(fn func(domain.Location))

	// NavigateDelta moves by a page/offset delta. Out-of-range deltas are
	// no-ops, not errors.
	NavigateDelta(ctx context.Context, delta int) error

	// NavigateTo moves to an explicit target: a page for paginated
	// documents, an anchor token for flowed ones, a percentage otherwise.
	NavigateTo(ctx context.Context, target domain.Location) error
}
