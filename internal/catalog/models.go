package catalog

import "time"

// User is a chat user known to the bot. Users are created on first contact and
// never deleted in normal operation.
type User struct {
	ID                int64
	Username          string
	FirstName         string
	LastName          string
	LanguageCode      string
	Subscribed        bool
	InstagramFollowed bool
	CreatedAt         time.Time
	LastActivity      time.Time
}

// Entry binds a human-assigned code to a stored movie file and its metadata.
type Entry struct {
	ID            int64
	Code          string
	Title         string
	Filename      string
	FilePath      string
	FileSize      int64
	UploadedBy    int64
	UploadedAt    time.Time
	DownloadCount int64
}

// DownloadRecord is one row of the append-only delivery audit log.
type DownloadRecord struct {
	ID           int64
	UserID       int64
	Code         string
	DownloadedAt time.Time
}

// Stats aggregates catalog-wide counts. Computed fresh on every call.
type Stats struct {
	TotalUsers      int
	SubscribedUsers int
	TotalEntries    int
	TotalDownloads  int
}
