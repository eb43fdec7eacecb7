package capture

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/sheetshot/models"
)

const maxSlugLen = 75

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns the deterministic scratch file name for item, e.g.
// "screenshot_row0002_example.com_pricing.png".
func FileName(item models.WorkItem) string {
	return fmt.Sprintf("screenshot_row%04d_%s.png", item.Row, slug(item.URL))
}

func slug(raw string) string {
	s := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		s = u.Host + u.Path
	}
	s = strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_.")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "_.")
	}
	if s == "" {
		return "page"
	}
	return s
}
