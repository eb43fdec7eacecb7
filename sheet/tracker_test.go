package sheet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/sheetshot/config"
	"github.com/use-agent/sheetshot/models"
	"google.golang.org/api/option"
)

// fakeSheets serves spreadsheets.values get/update for one spreadsheet.
type fakeSheets struct {
	mu       sync.Mutex
	values   [][]any
	getCode  int
	putCode  int
	reads    []string
	writes   map[string]any
	inputOpt []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/v4/spreadsheets/sheet-123/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.reads = append(f.reads, rng)
		if f.getCode != 0 {
			w.WriteHeader(f.getCode)
			_, _ = io.WriteString(w, `{"error": {"code": 404, "message": "not found"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.values})
	case http.MethodPut:
		if f.putCode != 0 {
			w.WriteHeader(f.putCode)
			_, _ = io.WriteString(w, `{"error": {"code": 400, "message": "exceeds grid limits"}}`)
			return
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if f.writes == nil {
			f.writes = map[string]any{}
		}
		f.writes[rng] = body.Values[0][0]
		f.inputOpt = append(f.inputOpt, r.URL.Query().Get("valueInputOption"))
		_, _ = io.WriteString(w, `{"updatedCells": 1}`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestTracker(t *testing.T, fake *fakeSheets, rng string) *Tracker {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	tr, err := NewTracker(context.Background(),
		config.SheetConfig{SpreadsheetID: "sheet-123", Range: rng},
		option.WithEndpoint(ts.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(ts.Client()),
	)
	require.NoError(t, err)
	return tr
}

func TestListPreservesRowIndices(t *testing.T) {
	fake := &fakeSheets{values: [][]any{
		{"https://a.example"},
		{"https://b.example", "https://drive/xyz"},
		{},
		{"  ", "ignored"},
		{" https://c.example ", ""},
	}}
	tr := newTestTracker(t, fake, "Sheet1!B2:C")

	items, err := tr.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.WorkItem{
		{Row: 2, URL: "https://a.example"},
		{Row: 3, URL: "https://b.example", ExistingLink: "https://drive/xyz"},
		{Row: 6, URL: "https://c.example"},
	}, items)
	assert.Equal(t, []string{"Sheet1!B2:C"}, fake.reads)
}

func TestListEmptySheet(t *testing.T) {
	tr := newTestTracker(t, &fakeSheets{}, "Sheet1!B2:C")

	items, err := tr.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListUnavailable(t *testing.T) {
	tr := newTestTracker(t, &fakeSheets{getCode: http.StatusNotFound}, "Sheet1!B2:C")

	_, err := tr.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeSourceUnavailable, models.CodeOf(err))
}

func TestWriteBack(t *testing.T) {
	fake := &fakeSheets{}
	tr := newTestTracker(t, fake, "Sheet1!B2:C")

	require.NoError(t, tr.WriteBack(context.Background(), 2, "https://drive/new"))

	assert.Equal(t, map[string]any{"Sheet1!C2": "https://drive/new"}, fake.writes)
	assert.Equal(t, []string{"USER_ENTERED"}, fake.inputOpt)
}

func TestWriteBackInvalidRow(t *testing.T) {
	fake := &fakeSheets{}
	tr := newTestTracker(t, fake, "Sheet1!B2:C")

	err := tr.WriteBack(context.Background(), 1, "https://drive/new")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidRow, models.CodeOf(err))
	assert.Empty(t, fake.writes)

	err = tr.WriteBack(context.Background(), 0, "https://drive/new")
	assert.Equal(t, models.ErrCodeInvalidRow, models.CodeOf(err))
}

func TestWriteBackRejected(t *testing.T) {
	tr := newTestTracker(t, &fakeSheets{putCode: http.StatusBadRequest}, "Sheet1!B2:C")

	err := tr.WriteBack(context.Background(), 5000000, "https://drive/new")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidRow, models.CodeOf(err))
}

func TestWriteBackServerError(t *testing.T) {
	tr := newTestTracker(t, &fakeSheets{putCode: http.StatusServiceUnavailable}, "Sheet1!B2:C")

	err := tr.WriteBack(context.Background(), 2, "https://drive/new")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeWriteBack, models.CodeOf(err))
}

func TestWriteBackCanceledWhileWaitingForQuota(t *testing.T) {
	fake := &fakeSheets{}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)
	tr, err := NewTracker(context.Background(),
		config.SheetConfig{SpreadsheetID: "sheet-123", Range: "Sheet1!B2:C", WritesPerMinute: 1},
		option.WithEndpoint(ts.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	require.NoError(t, tr.WriteBack(context.Background(), 2, "first"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tr.WriteBack(ctx, 3, "second")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeWriteBack, models.CodeOf(err))
	assert.Len(t, fake.writes, 1)
}

func TestNewTrackerBadRange(t *testing.T) {
	_, err := NewTracker(context.Background(), config.SheetConfig{SpreadsheetID: "x", Range: "!!"},
		option.WithoutAuthentication())
	require.Error(t, err)
	assert.True(t, models.IsInit(err))
}
