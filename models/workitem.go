package models

import "strings"

// WorkItem is one sheet row's URL plus the link already recorded next to it.
// It is rebuilt from the sheet on every run; the sheet is the system of record.
type WorkItem struct {
	// Row is the 1-based sheet row the URL was read from.
	Row int

	// URL is the page to capture.
	URL string

	// ExistingLink is the content of the link cell. Empty means the row
	// has not been processed yet.
	ExistingLink string
}

// Done reports whether the row already carries a link and must be skipped.
func (w WorkItem) Done() bool {
	return strings.TrimSpace(w.ExistingLink) != ""
}

// CaptureResult describes a screenshot written to the scratch directory.
type CaptureResult struct {
	// LocalPath is the screenshot file. The orchestrator removes it once
	// the upload has been attempted.
	LocalPath string

	// Width and Height are the document scroll dimensions, zero when the
	// page refused to report them.
	Width  int
	Height int
}

// UploadResult is a stored screenshot reachable through ShareLink.
type UploadResult struct {
	FileID    string
	Name      string
	ShareLink string
}
