package catalog

import (
	"context"
	"fmt"
	"time"
)

// RecordDownload appends one row to the delivery audit log. Repeat downloads
// by the same user produce distinct rows.
func (s *Store) RecordDownload(ctx context.Context, userID int64, code string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO downloads (user_id, movie_code, download_date) VALUES (?, ?, ?)`,
		userID,
		code,
		now,
	)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// RecentDownloads returns the newest download records, most recent first.
func (s *Store) RecentDownloads(ctx context.Context, limit int) ([]*DownloadRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, movie_code, download_date FROM downloads ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent downloads: %w", err)
	}
	defer rows.Close()

	var records []*DownloadRecord
	for rows.Next() {
		var (
			record  DownloadRecord
			dateRaw string
		)
		if err := rows.Scan(&record.ID, &record.UserID, &record.Code, &dateRaw); err != nil {
			return nil, err
		}
		if downloaded, err := parseTimeString(dateRaw); err == nil {
			record.DownloadedAt = downloaded
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// DownloadsForCode counts audit rows for one code.
func (s *Store) DownloadsForCode(ctx context.Context, code string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM downloads WHERE movie_code = ?`, code)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return count, nil
}

// Stats aggregates catalog-wide counts with fresh queries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM users`, &stats.TotalUsers},
		{`SELECT COUNT(1) FROM users WHERE is_subscribed = 1`, &stats.SubscribedUsers},
		{`SELECT COUNT(1) FROM movies`, &stats.TotalEntries},
		{`SELECT COUNT(1) FROM downloads`, &stats.TotalDownloads},
	}
	for _, q := range queries {
		row := s.db.QueryRowContext(ctx, q.query)
		if err := row.Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("catalog stats: %w", err)
		}
	}
	return stats, nil
}
