package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/sheetshot/models"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveUploader stores screenshots in a Google Drive folder and shares
// them with anyone holding the link.
type DriveUploader struct {
	svc *drive.Service
}

// NewDriveUploader builds a Drive client from opts.
func NewDriveUploader(ctx context.Context, opts ...option.ClientOption) (*DriveUploader, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, models.NewInitError("failed to create Drive client", err)
	}
	return &DriveUploader{svc: svc}, nil
}

// Upload creates the file under folderID, grants anyone-with-link read
// access and returns the view link. The local file is left in place.
func (u *DriveUploader) Upload(ctx context.Context, localPath, folderID string) (*models.UploadResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeUploadIO, "cannot open screenshot", err)
	}
	defer f.Close()

	name := filepath.Base(localPath)
	meta := &drive.File{Name: name}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	file, err := u.svc.Files.Create(meta).
		Media(f, googleapi.ContentType("image/png")).
		Fields("id", "name", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyGoogle(err, "drive upload failed")
	}
	slog.Info("uploaded to drive", "name", name, "fileID", file.Id)

	_, err = u.svc.Permissions.Create(file.Id, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		u.deleteUnshared(ctx, file.Id)
		return nil, classifyGoogle(err, "failed to share drive file")
	}

	link := file.WebViewLink
	if link == "" {
		link = fmt.Sprintf("https://drive.google.com/file/d/%s/view?usp=sharing", file.Id)
	}

	return &models.UploadResult{FileID: file.Id, Name: name, ShareLink: link}, nil
}

// deleteUnshared removes a file whose sharing failed. An unshared file is
// useless in the sheet, so the delete runs even after ctx is canceled.
func (u *DriveUploader) deleteUnshared(ctx context.Context, fileID string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := u.svc.Files.Delete(fileID).SupportsAllDrives(true).Context(dctx).Do(); err != nil {
		slog.Warn("failed to delete unshared drive file", "fileID", fileID, "error", err)
		return
	}
	slog.Info("deleted unshared drive file", "fileID", fileID)
}
