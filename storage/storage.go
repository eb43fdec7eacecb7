// Package storage uploads screenshots to Google Drive or an S3-compatible
// bucket and returns a link that can be written into the sheet.
package storage

import (
	"context"
	"fmt"

	"github.com/use-agent/sheetshot/config"
	"github.com/use-agent/sheetshot/models"
	"google.golang.org/api/option"
)

// Uploader stores one local file under a folder reference. It never
// deletes the local file.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) (*models.UploadResult, error)
}

// New returns the uploader selected by cfg.Backend. googleOpts are used by
// the Drive backend only.
func New(ctx context.Context, cfg config.StorageConfig, googleOpts ...option.ClientOption) (Uploader, error) {
	switch cfg.Backend {
	case "", "drive":
		return NewDriveUploader(ctx, googleOpts...)
	case "s3":
		return NewS3Uploader(ctx, cfg.S3)
	default:
		return nil, models.NewInitError(fmt.Sprintf("unsupported storage backend: %s", cfg.Backend), nil)
	}
}
