package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Sheet       SheetConfig
	Storage     StorageConfig
	Browser     BrowserConfig
	Capture     CaptureConfig
	Pipeline    PipelineConfig
	Credentials CredentialsConfig
	Ledger      LedgerConfig
	Webhook     WebhookConfig
	Log         LogConfig
}

// SheetConfig addresses the source spreadsheet.
type SheetConfig struct {
	// SpreadsheetID is the Google Sheets document ID. Required.
	SpreadsheetID string

	// Range is an A1 range such as "Sheet1!B2:C". The first column holds
	// URLs, the next one holds links. Required.
	Range string

	// WritesPerMinute caps link write-backs to stay inside the Sheets quota.
	WritesPerMinute int // default: 60
}

// StorageConfig selects where screenshots are uploaded.
type StorageConfig struct {
	// Backend is "drive" or "s3". default: "drive"
	Backend string

	// FolderID is the Drive folder ID, or the key prefix for S3. Required.
	FolderID string

	S3 S3Config
}

// S3Config configures the S3-compatible backend.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	URLMode         string        // "public" or "presigned"; default: "public"
	PresignedTTL    time.Duration // default: 168h, the SigV4 maximum

	// PublicReadACL uploads objects with the public-read canned ACL in
	// public mode. Leave it off for buckets with ACLs disabled.
	PublicReadACL bool
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects the anti-detection script into every page.
	Stealth bool // default: true

	// CookiesPath is a JSON cookie export loaded into the browser context.
	CookiesPath string

	ViewportWidth  int    // default: 1920
	ViewportHeight int    // default: 1080
	UserAgent      string // default: desktop Chrome
}

// CaptureConfig controls the per-URL screenshot step.
type CaptureConfig struct {
	// ScratchDir receives screenshots between capture and upload.
	ScratchDir string // default: "screenshots"

	// ErrorDir receives a screenshot of the page when a capture fails.
	// Empty disables error screenshots.
	ErrorDir string

	NavigationTimeout time.Duration // default: 60s
	ConsentTimeout    time.Duration // default: 5s
	ScreenshotTimeout time.Duration // default: 120s
}

// PipelineConfig controls pacing between URLs.
type PipelineConfig struct {
	// Delay is the courtesy pause between two URLs that hit the browser.
	Delay time.Duration // default: 3s
}

// CredentialsConfig points at the service-account key.
type CredentialsConfig struct {
	Path string // default: "credentials.json"
}

// LedgerConfig controls the local upload ledger.
type LedgerConfig struct {
	// Path is the sqlite file. Empty disables the ledger.
	Path string // default: "sheetshot.db"
}

// WebhookConfig controls the end-of-run notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
	File   string // default: "logs/sheetshot.log"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Sheet: SheetConfig{
			SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
			Range:           os.Getenv("URL_RANGE"),
			WritesPerMinute: envIntOr("SHEETS_WRITES_PER_MINUTE", 60),
		},
		Storage: StorageConfig{
			Backend:  strings.ToLower(envOr("STORAGE_BACKEND", "drive")),
			FolderID: os.Getenv("FOLDER_ID"),
			S3: S3Config{
				Bucket:          os.Getenv("S3_BUCKET"),
				Region:          envOr("S3_REGION", "us-east-1"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
				UsePathStyle:    envBoolOr("S3_USE_PATH_STYLE", false),
				URLMode:         envOr("S3_URL_MODE", "public"),
				PresignedTTL:    envDurationOr("S3_PRESIGNED_TTL", 7*24*time.Hour),
				PublicReadACL:   envBoolOr("S3_PUBLIC_READ_ACL", false),
			},
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("HEADLESS_BROWSER", true),
			NoSandbox:      envBoolOr("SHEETSHOT_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("SHEETSHOT_BROWSER_BIN"),
			Stealth:        envBoolOr("SHEETSHOT_STEALTH", true),
			CookiesPath:    os.Getenv("COOKIES_PATH"),
			ViewportWidth:  envIntOr("VIEWPORT_WIDTH", 1920),
			ViewportHeight: envIntOr("VIEWPORT_HEIGHT", 1080),
			UserAgent:      envOr("SHEETSHOT_USER_AGENT", defaultUserAgent),
		},
		Capture: CaptureConfig{
			ScratchDir:        envOr("SCREENSHOTS_DIR", "screenshots"),
			ErrorDir:          os.Getenv("ERROR_SCREENSHOTS_DIR"),
			NavigationTimeout: envDurationOr("NAVIGATION_TIMEOUT", 60*time.Second),
			ConsentTimeout:    envDurationOr("CONSENT_TIMEOUT", 5*time.Second),
			ScreenshotTimeout: envDurationOr("SCREENSHOT_TIMEOUT", 120*time.Second),
		},
		Pipeline: PipelineConfig{
			Delay: envDelay(3 * time.Second),
		},
		Credentials: CredentialsConfig{
			Path: envOr("GOOGLE_APPLICATION_CREDENTIALS", "credentials.json"),
		},
		Ledger: LedgerConfig{
			Path: envOrEmpty("LEDGER_PATH", "sheetshot.db"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("WEBHOOK_URL"),
			Secret: os.Getenv("WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SHEETSHOT_LOG_LEVEL", "info"),
			Format: envOr("SHEETSHOT_LOG_FORMAT", "text"),
			File:   envOr("SHEETSHOT_LOG_FILE", "logs/sheetshot.log"),
		},
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Sheet.SpreadsheetID == "" {
		problems = append(problems, "SPREADSHEET_ID is required")
	}
	if c.Sheet.Range == "" {
		problems = append(problems, "URL_RANGE is required")
	}
	if c.Storage.FolderID == "" {
		problems = append(problems, "FOLDER_ID is required")
	}

	switch c.Storage.Backend {
	case "drive":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			problems = append(problems, "S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
		if c.Storage.S3.URLMode != "public" && c.Storage.S3.URLMode != "presigned" {
			problems = append(problems, fmt.Sprintf("unsupported S3_URL_MODE: %s", c.Storage.S3.URLMode))
		}
		if c.Storage.S3.PresignedTTL > 7*24*time.Hour {
			problems = append(problems, "S3_PRESIGNED_TTL must not exceed 168h")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported STORAGE_BACKEND: %s", c.Storage.Backend))
	}

	if c.Capture.NavigationTimeout <= 0 {
		problems = append(problems, "NAVIGATION_TIMEOUT must be positive")
	}
	if c.Pipeline.Delay < 0 {
		problems = append(problems, "inter-URL delay must not be negative")
	}
	if c.Capture.ErrorDir != "" && insideDir(c.Capture.ErrorDir, c.Capture.ScratchDir) {
		problems = append(problems, "ERROR_SCREENSHOTS_DIR must not be SCREENSHOTS_DIR or inside it")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		problems = append(problems, "viewport dimensions must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// envDelay accepts either INTER_URL_DELAY_SECONDS (float seconds) or
// SHEETSHOT_DELAY (Go duration). The duration form wins when both are set.
func envDelay(fallback time.Duration) time.Duration {
	if v := os.Getenv("SHEETSHOT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if secs := envFloatOr("INTER_URL_DELAY_SECONDS", -1); secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrEmpty is envOr, except that a variable explicitly set to ""
// returns "" instead of the fallback.
func envOrEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// insideDir reports whether dir is parent or lies below it.
func insideDir(dir, parent string) bool {
	d, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	p, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p, d)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
