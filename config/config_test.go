package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("URL_RANGE", "Sheet1!B2:C")
	t.Setenv("FOLDER_ID", "folder-abc")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "drive", cfg.Storage.Backend)
	assert.Equal(t, 60, cfg.Sheet.WritesPerMinute)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1080, cfg.Browser.ViewportHeight)
	assert.Equal(t, 60*time.Second, cfg.Capture.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.Delay)
	assert.Equal(t, "credentials.json", cfg.Credentials.Path)
	assert.Equal(t, "sheetshot.db", cfg.Ledger.Path)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HEADLESS_BROWSER", "false")
	t.Setenv("INTER_URL_DELAY_SECONDS", "0.5")
	t.Setenv("NAVIGATION_TIMEOUT", "15s")
	t.Setenv("LEDGER_PATH", "")

	cfg := Load()
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.Delay)
	assert.Equal(t, 15*time.Second, cfg.Capture.NavigationTimeout)
	assert.Empty(t, cfg.Ledger.Path)
}

func TestDelayDurationWins(t *testing.T) {
	setRequired(t)
	t.Setenv("INTER_URL_DELAY_SECONDS", "9")
	t.Setenv("SHEETSHOT_DELAY", "250ms")

	assert.Equal(t, 250*time.Millisecond, Load().Pipeline.Delay)
}

func TestValidateReportsAllMissing(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "")
	t.Setenv("URL_RANGE", "")
	t.Setenv("FOLDER_ID", "")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPREADSHEET_ID")
	assert.Contains(t, err.Error(), "URL_RANGE")
	assert.Contains(t, err.Error(), "FOLDER_ID")
}

func TestValidateS3(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")

	t.Setenv("S3_BUCKET", "shots")
	assert.NoError(t, Load().Validate())

	t.Setenv("S3_PRESIGNED_TTL", "200h")
	err = Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_PRESIGNED_TTL")
}

func TestValidateUnknownBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "ftp")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp")
}

func TestValidateErrorDirOutsideScratch(t *testing.T) {
	setRequired(t)
	t.Setenv("SCREENSHOTS_DIR", "shots")

	for _, dir := range []string{"shots", "./shots/", "shots/errors"} {
		t.Setenv("ERROR_SCREENSHOTS_DIR", dir)
		err := Load().Validate()
		require.Error(t, err, dir)
		assert.Contains(t, err.Error(), "ERROR_SCREENSHOTS_DIR")
	}

	for _, dir := range []string{"", "errors", "shots-errors", "..shots"} {
		t.Setenv("ERROR_SCREENSHOTS_DIR", dir)
		assert.NoError(t, Load().Validate(), dir)
	}
}
