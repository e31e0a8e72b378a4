package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/pkg/api"
)

// Store persists drafts in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the drafts database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	dbh.SetMaxOpenConns(1)
	for _, pragma := range []string{`PRAGMA journal_mode=WAL;`, `PRAGMA foreign_keys=ON;`} {
		if _, err := dbh.ExecContext(ctx, pragma); err != nil {
			_ = dbh.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, fmt.Errorf("migrate drafts: %w", err)
	}
	return &Store{db: dbh, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS drafts (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  markdown TEXT NOT NULL,
  category_id INTEGER NOT NULL DEFAULT 0,
  tag_ids TEXT NOT NULL DEFAULT '[]',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_updated ON drafts(updated_at DESC);
CREATE TABLE IF NOT EXISTS draft_attachments (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  draft_id TEXT NOT NULL,
  name TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  size INTEGER NOT NULL,
  path TEXT NOT NULL,
  digest TEXT NOT NULL DEFAULT '',
  FOREIGN KEY(draft_id) REFERENCES drafts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_draft_attachments_draft ON draft_attachments(draft_id, seq);
`)
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create stores a new draft and returns it with its id and timestamps set.
func (s *Store) Create(ctx context.Context, d Draft) (Draft, error) {
	d.ID = api.NewID()
	d.TagIDs = normalizeTags(d.TagIDs)
	now := s.now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	d.Attachments = nil

	tags, _ := json.Marshal(nonNil(d.TagIDs))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts(id, title, content, markdown, category_id, tag_ids, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?)`,
		d.ID, d.Title, d.Content, d.Markdown, d.CategoryID, string(tags), now.UnixNano(), now.UnixNano())
	if err != nil {
		return Draft{}, fmt.Errorf("insert draft: %w", err)
	}
	return d, nil
}

// Get loads a draft by id or by a unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (Draft, error) {
	return s.get(ctx, s.db, id)
}

func (s *Store) get(ctx context.Context, q queryer, id string) (Draft, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Draft{}, ErrNotFound
	}
	rows, err := q.QueryContext(ctx,
		`SELECT id, title, content, markdown, category_id, tag_ids, created_at, updated_at FROM drafts WHERE id = ? OR id LIKE ? LIMIT 2`,
		id, escapeLike(id)+"%")
	if err != nil {
		return Draft{}, err
	}
	var found []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			rows.Close()
			return Draft{}, err
		}
		found = append(found, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Draft{}, err
	}

	var d Draft
	switch {
	case len(found) == 0:
		return Draft{}, ErrNotFound
	case len(found) == 1:
		d = found[0]
	case found[0].ID == id:
		d = found[0]
	case found[1].ID == id:
		d = found[1]
	default:
		return Draft{}, ErrAmbiguous
	}

	atts, err := s.attachments(ctx, q, d.ID)
	if err != nil {
		return Draft{}, err
	}
	d.Attachments = atts
	return d, nil
}

// List returns all drafts, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, markdown, category_id, tag_ids, created_at, updated_at FROM drafts ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	var out []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Attachments, err = s.attachments(ctx, s.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update replaces the editable fields of an existing draft. Attachments are
// managed separately and are left untouched.
func (s *Store) Update(ctx context.Context, d Draft) (Draft, error) {
	d.TagIDs = normalizeTags(d.TagIDs)
	tags, _ := json.Marshal(nonNil(d.TagIDs))
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE drafts SET title=?, content=?, markdown=?, category_id=?, tag_ids=?, updated_at=? WHERE id=?`,
		d.Title, d.Content, d.Markdown, d.CategoryID, string(tags), now.UnixNano(), d.ID)
	if err != nil {
		return Draft{}, fmt.Errorf("update draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Draft{}, ErrNotFound
	}
	return s.Get(ctx, d.ID)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, d.ID)
	return err
}

// AddAttachments validates files against policy, counting the attachments
// already pending on the draft, and stores only the accepted ones. The
// validation outcome is returned whether or not anything was stored.
func (s *Store) AddAttachments(ctx context.Context, id string, files []api.CandidateFile, policy api.UploadPolicy) (attach.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return attach.Result{}, err
	}
	defer func() { _ = tx.Rollback() }()

	d, err := s.get(ctx, tx, id)
	if err != nil {
		return attach.Result{}, err
	}
	res := attach.Validate(files, len(d.Attachments), policy)
	if len(res.Accepted) == 0 {
		return res, nil
	}
	for _, f := range res.Accepted {
		a := fromCandidate(f)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO draft_attachments(draft_id, name, mime_type, size, path, digest) VALUES(?,?,?,?,?,?)`,
			d.ID, a.Name, a.MIMEType, a.SizeBytes, a.Path, a.Digest); err != nil {
			return attach.Result{}, fmt.Errorf("insert attachment %s: %w", a.Name, err)
		}
	}
	if err := touch(ctx, tx, d.ID, s.now()); err != nil {
		return attach.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return attach.Result{}, err
	}
	return res, nil
}

// RemoveAttachment drops the first pending attachment named name.
func (s *Store) RemoveAttachment(ctx context.Context, id, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	d, err := s.get(ctx, tx, id)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM draft_attachments WHERE seq = (SELECT seq FROM draft_attachments WHERE draft_id = ? AND name = ? ORDER BY seq LIMIT 1)`,
		d.ID, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attachment %q: %w", name, ErrNotFound)
	}
	if err := touch(ctx, tx, d.ID, s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertImageMarkdown appends an inline image reference to the draft body.
func (s *Store) InsertImageMarkdown(ctx context.Context, id, name string) (Draft, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	d.Markdown = AppendImage(d.Markdown, name)
	return s.Update(ctx, d)
}

func (s *Store) attachments(ctx context.Context, q queryer, id string) ([]Attachment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, mime_type, size, path, digest FROM draft_attachments WHERE draft_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.Name, &a.MIMEType, &a.SizeBytes, &a.Path, &a.Digest); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func touch(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE drafts SET updated_at=? WHERE id=?`, now.UTC().UnixNano(), id)
	return err
}

type scanner interface{ Scan(dest ...any) error }

func scanDraft(sc scanner) (Draft, error) {
	var (
		d          Draft
		tags       string
		created, u int64
	)
	if err := sc.Scan(&d.ID, &d.Title, &d.Content, &d.Markdown, &d.CategoryID, &tags, &created, &u); err != nil {
		return Draft{}, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &d.TagIDs); err != nil {
			return Draft{}, fmt.Errorf("draft %s tags: %w", shortID(d.ID), err)
		}
	}
	d.TagIDs = normalizeTags(d.TagIDs)
	d.CreatedAt = time.Unix(0, created).UTC()
	d.UpdatedAt = time.Unix(0, u).UTC()
	return d, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// IsNotFound reports whether err means the draft or attachment is missing.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
