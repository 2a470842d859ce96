package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const entryColumns = "id, code, title, filename, file_path, file_size, uploaded_by, upload_date, download_count"

// CreateEntry inserts a catalog entry for a code. The UNIQUE constraint on the
// code column serializes concurrent creation attempts: exactly one caller wins,
// the rest receive ErrDuplicateCode.
func (s *Store) CreateEntry(ctx context.Context, code, title, filename, filePath string, fileSize, uploadedBy int64) (*Entry, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO movies (code, title, filename, file_path, file_size, uploaded_by, upload_date)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		code,
		title,
		filename,
		filePath,
		fileSize,
		uploadedBy,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("code %q: %w", code, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM movies WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("reload entry: %w", err)
	}
	return entry, nil
}

// GetEntry fetches a catalog entry by code. Returns nil when the code is unknown.
func (s *Store) GetEntry(ctx context.Context, code string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM movies WHERE code = ?`, code)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// DeleteEntry removes a catalog entry. Returns whether a row was removed;
// deleting an unknown code is not an error.
func (s *Store) DeleteEntry(ctx context.Context, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE code = ?`, code)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListEntries returns all catalog entries ordered by code ascending.
func (s *Store) ListEntries(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM movies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// IncrementDownloadCount bumps an entry's download counter by one. Unknown
// codes are a no-op.
func (s *Store) IncrementDownloadCount(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE movies SET download_count = download_count + 1 WHERE code = ?`,
		code,
	)
	if err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id          int64
		code        string
		title       string
		filename    string
		filePath    string
		fileSize    sql.NullInt64
		uploadedBy  sql.NullInt64
		uploadedRaw string
		downloads   int64
	)

	if err := scanner.Scan(
		&id,
		&code,
		&title,
		&filename,
		&filePath,
		&fileSize,
		&uploadedBy,
		&uploadedRaw,
		&downloads,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            id,
		Code:          code,
		Title:         title,
		Filename:      filename,
		FilePath:      filePath,
		FileSize:      fileSize.Int64,
		UploadedBy:    uploadedBy.Int64,
		DownloadCount: downloads,
	}
	if uploaded, err := parseTimeString(uploadedRaw); err == nil {
		entry.UploadedAt = uploaded
	}
	return entry, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
