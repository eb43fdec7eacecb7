package capture

import "context"

// Page is the slice of a browser tab the capturer drives. The browser
// package implements it on top of Rod; tests use fakes.
type Page interface {
	// Navigate loads url and waits for the document to settle.
	Navigate(ctx context.Context, url string) error

	// ClickFirst waits for the first of targets to appear, clicks it and
	// returns the target that matched.
	ClickFirst(ctx context.Context, targets []ConsentTarget) (ConsentTarget, error)

	// Dimensions returns the document scroll width and height.
	Dimensions(ctx context.Context) (width, height int, err error)

	// Screenshot returns a PNG of the whole document when fullPage is set,
	// or of the current viewport otherwise.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	// Close releases the tab. Calling it more than once is harmless.
	Close() error
}
