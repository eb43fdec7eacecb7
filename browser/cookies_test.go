package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookies(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadCookieFile(t *testing.T) {
	path := writeCookies(t, `[
		{"name": "sid", "value": "abc", "domain": ".example.com", "path": "/app",
		 "secure": true, "httpOnly": true, "sameSite": "STRICT", "expirationDate": 1893456000.5},
		{"name": "pref", "value": "dark", "domain": "example.com", "sameSite": null, "secure": true},
		{"name": "plain", "value": "1", "domain": "example.com", "sameSite": null},
		{"name": "ext", "value": "2", "domain": "example.com", "sameSite": "no_restriction"},
		{"name": "", "value": "orphan"},
		{"name": "novalue", "value": null}
	]`)

	cookies, err := ReadCookieFile(path)
	require.NoError(t, err)
	require.Len(t, cookies, 4)

	sid := cookies[0]
	assert.Equal(t, "sid", sid.Name)
	assert.Equal(t, "abc", sid.Value)
	assert.Equal(t, "example.com", sid.Domain)
	assert.Equal(t, "/app", sid.Path)
	assert.True(t, sid.Secure)
	assert.True(t, sid.HTTPOnly)
	assert.Equal(t, proto.NetworkCookieSameSiteStrict, sid.SameSite)
	assert.Equal(t, proto.TimeSinceEpoch(1893456000.5), sid.Expires)

	assert.Equal(t, "/", cookies[1].Path)
	assert.Equal(t, proto.NetworkCookieSameSiteNone, cookies[1].SameSite)
	assert.Equal(t, proto.NetworkCookieSameSiteLax, cookies[2].SameSite)
	assert.Equal(t, proto.NetworkCookieSameSiteLax, cookies[3].SameSite)
	assert.Zero(t, cookies[3].Expires)
}

func TestReadCookieFileEmptyValueKept(t *testing.T) {
	cookies, err := ReadCookieFile(writeCookies(t, `[{"name": "flag", "value": ""}]`))
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
}

func TestReadCookieFileNotAList(t *testing.T) {
	_, err := ReadCookieFile(writeCookies(t, `{"name": "sid"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON list")
}

func TestReadCookieFileMissing(t *testing.T) {
	_, err := ReadCookieFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
