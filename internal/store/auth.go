package store

import (
	"database/sql"
	"errors"
	"time"
)

// The auth table holds a single row (id = 1) with the connected athlete's
// OAuth tokens. Expiry is stored as a unix timestamp.

// GetAuth returns the stored Strava credentials, or ErrNoAuth when the
// account has never been connected.
func (db *DB) GetAuth() (*Auth, error) {
	var (
		a      Auth
		expiry int64
	)
	err := db.QueryRow(
		`SELECT athlete_id, access_token, refresh_token, expires_at FROM auth WHERE id = 1`,
	).Scan(&a.AthleteID, &a.AccessToken, &a.RefreshToken, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAuth
	}
	if err != nil {
		return nil, err
	}
	a.ExpiresAt = time.Unix(expiry, 0)
	return &a, nil
}

// SaveAuth writes the credential row, replacing whatever was there.
func (db *DB) SaveAuth(a *Auth) error {
	_, err := db.Exec(`
		INSERT INTO auth (id, athlete_id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id    = excluded.athlete_id,
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at    = excluded.expires_at,
			updated_at    = CURRENT_TIMESTAMP
	`, a.AthleteID, a.AccessToken, a.RefreshToken, a.ExpiresAt.Unix())
	return err
}

// UpdateTokens refreshes the token fields after an OAuth refresh. Fails
// with ErrNoAuth if SaveAuth has never run.
func (db *DB) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	res, err := db.Exec(`
		UPDATE auth
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, accessToken, refreshToken, expiresAt.Unix())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoAuth
	}
	return nil
}
