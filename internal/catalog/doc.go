// Package catalog persists users, movie entries, and download records in
// SQLite. Codes are unique human-assigned keys; the UNIQUE constraint on the
// movies table is what serializes concurrent attempts to claim the same code.
package catalog
