package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertUser creates a user on first contact or refreshes display attributes
// and last-activity on re-contact. Language preference and subscription flags
// survive the refresh.
func (s *Store) UpsertUser(ctx context.Context, id int64, username, firstName, lastName string) (*User, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (user_id, username, first_name, last_name, language_code, created_at, last_activity)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(user_id) DO UPDATE SET
             username = excluded.username,
             first_name = excluded.first_name,
             last_name = excluded.last_name,
             last_activity = excluded.last_activity`,
		id,
		nullableString(username),
		nullableString(firstName),
		nullableString(lastName),
		s.defaultLanguage,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by identifier. Returns nil when the user is unknown.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT user_id, username, first_name, last_name, language_code,
                is_subscribed, instagram_followed, created_at, last_activity
         FROM users WHERE user_id = ?`,
		id,
	)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// SetUserLanguage updates a user's language preference. Unknown users are a no-op.
func (s *Store) SetUserLanguage(ctx context.Context, id int64, code string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE users SET language_code = ? WHERE user_id = ?`,
		code,
		id,
	)
	if err != nil {
		return fmt.Errorf("set user language: %w", err)
	}
	return nil
}

// SetSubscriptionStatus updates a user's channel subscription flag, and the
// instagram flag when followed is non-nil. Unknown users are a no-op.
func (s *Store) SetSubscriptionStatus(ctx context.Context, id int64, subscribed bool, followed *bool) error {
	var err error
	if followed != nil {
		_, err = s.db.ExecContext(
			ctx,
			`UPDATE users SET is_subscribed = ?, instagram_followed = ? WHERE user_id = ?`,
			boolToInt(subscribed),
			boolToInt(*followed),
			id,
		)
	} else {
		_, err = s.db.ExecContext(
			ctx,
			`UPDATE users SET is_subscribed = ? WHERE user_id = ?`,
			boolToInt(subscribed),
			id,
		)
	}
	if err != nil {
		return fmt.Errorf("set subscription status: %w", err)
	}
	return nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var (
		id           int64
		username     sql.NullString
		firstName    sql.NullString
		lastName     sql.NullString
		languageCode string
		subscribed   int
		followed     int
		createdRaw   string
		activityRaw  string
	)

	if err := scanner.Scan(
		&id,
		&username,
		&firstName,
		&lastName,
		&languageCode,
		&subscribed,
		&followed,
		&createdRaw,
		&activityRaw,
	); err != nil {
		return nil, err
	}

	user := &User{
		ID:                id,
		Username:          username.String,
		FirstName:         firstName.String,
		LastName:          lastName.String,
		LanguageCode:      languageCode,
		Subscribed:        subscribed != 0,
		InstagramFollowed: followed != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		user.CreatedAt = created
	}
	if activity, err := parseTimeString(activityRaw); err == nil {
		user.LastActivity = activity
	}
	return user, nil
}
