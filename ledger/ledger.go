// Package ledger remembers every upload until its link has reached the
// sheet, so that a failed write-back can be repaired without recapturing.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/sheetshot/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Upload is one stored screenshot keyed by sheet row and URL.
type Upload struct {
	Row        int
	URL        string
	FileName   string
	FileID     string
	Link       string
	UploadedAt time.Time
	Linked     bool
}

// Store is a ledger view limited to one scope. Uploads recorded under
// another scope are invisible to it, so one file can serve several sheets.
type Store struct {
	db    *sql.DB
	scope string
}

// Scope names the sheet range a ledger view belongs to.
func Scope(spreadsheetID, rng string) string {
	return spreadsheetID + "/" + rng
}

// Open opens (or creates) the ledger at path and returns the view for
// scope. ":memory:" is accepted.
func Open(path, scope string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, models.NewInitError("cannot create ledger directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, models.NewInitError("cannot open ledger", err)
	}
	// One writer; also keeps ":memory:" on a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, models.NewInitError("cannot apply ledger schema", err)
	}
	return &Store{db: db, scope: scope}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordUpload stores u as not yet linked, replacing any earlier upload for
// the same row and URL.
func (s *Store) RecordUpload(ctx context.Context, u Upload) error {
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into uploads (scope, row_index, url, file_name, file_id, link, uploaded_at, linked_at)
		values (?, ?, ?, ?, ?, ?, ?, null)
		on conflict (scope, row_index, url) do update set
			file_name = excluded.file_name,
			file_id = excluded.file_id,
			link = excluded.link,
			uploaded_at = excluded.uploaded_at,
			linked_at = null`,
		s.scope, u.Row, u.URL, u.FileName, u.FileID, u.Link, u.UploadedAt.Unix())
	if err != nil {
		return fmt.Errorf("record upload for row %d: %w", u.Row, err)
	}
	return nil
}

// MarkLinked records that the link for row and url is in the sheet.
func (s *Store) MarkLinked(ctx context.Context, row int, url string) error {
	_, err := s.db.ExecContext(ctx,
		`update uploads set linked_at = ? where scope = ? and row_index = ? and url = ?`,
		time.Now().Unix(), s.scope, row, url)
	if err != nil {
		return fmt.Errorf("mark row %d linked: %w", row, err)
	}
	return nil
}

// PendingFor returns the unlinked upload for row and url, or nil.
func (s *Store) PendingFor(ctx context.Context, row int, url string) (*Upload, error) {
	r := s.db.QueryRowContext(ctx, `
		select row_index, url, file_name, file_id, link, uploaded_at
		from uploads
		where scope = ? and row_index = ? and url = ? and linked_at is null`, s.scope, row, url)

	u, err := scanUpload(r)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup pending upload for row %d: %w", row, err)
	}
	return u, nil
}

// Pending lists every unlinked upload in row order.
func (s *Store) Pending(ctx context.Context) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		select row_index, url, file_name, file_id, link, uploaded_at
		from uploads
		where scope = ? and linked_at is null
		order by row_index`, s.scope)
	if err != nil {
		return nil, fmt.Errorf("list pending uploads: %w", err)
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("list pending uploads: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(sc scanner) (*Upload, error) {
	var (
		u        Upload
		uploaded int64
	)
	if err := sc.Scan(&u.Row, &u.URL, &u.FileName, &u.FileID, &u.Link, &uploaded); err != nil {
		return nil, err
	}
	u.UploadedAt = time.Unix(uploaded, 0)
	return &u, nil
}
