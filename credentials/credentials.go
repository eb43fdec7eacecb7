// Package credentials turns a service-account key file into authenticated
// client options for the Google Sheets and Drive APIs.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/use-agent/sheetshot/models"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account.
var Scopes = []string{drive.DriveScope, sheets.SpreadsheetsScope}

// Provider loads the service-account key once and hands out client options.
type Provider struct {
	Path string

	creds *google.Credentials
}

// NewProvider returns a Provider reading the key at path.
func NewProvider(path string) *Provider {
	return &Provider{Path: path}
}

// Load reads and parses the key file. Any failure is an init failure.
func (p *Provider) Load(ctx context.Context) (*google.Credentials, error) {
	if p.creds != nil {
		return p.creds, nil
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, models.NewInitError(
			fmt.Sprintf("cannot read credentials file %s", p.Path), err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, models.NewInitError("invalid service account key", err)
	}

	slog.Info("service account credentials loaded", "path", p.Path, "project", creds.ProjectID)
	p.creds = creds
	return creds, nil
}

// ClientOptions returns the options shared by the Sheets and Drive clients.
func (p *Provider) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	creds, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}
