package store

import (
	"database/sql"
	"errors"
	"time"
)

// GetProfile retrieves the athlete profile singleton.
func (db *DB) GetProfile() (*Profile, error) {
	row := db.QueryRow(`
		SELECT ftp, weight_kg, ctl, atl, tsb, rider_type, fitness_computed_at
		FROM athlete_profile
		WHERE id = 1
	`)

	var p Profile
	var weight sql.NullFloat64
	var riderType, computedAt sql.NullString
	err := row.Scan(&p.FTP, &weight, &p.CTL, &p.ATL, &p.TSB, &riderType, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, err
	}

	p.WeightKg = weight.Float64
	p.RiderType = riderType.String
	if computedAt.Valid {
		if t, err := time.Parse(time.RFC3339, computedAt.String); err == nil {
			p.FitnessComputedAt = t
		}
	}
	return &p, nil
}

// SaveProfile stores or updates the athlete profile.
func (db *DB) SaveProfile(p *Profile) error {
	var computedAt any
	if !p.FitnessComputedAt.IsZero() {
		computedAt = p.FitnessComputedAt.Format(time.RFC3339)
	}
	_, err := db.Exec(`
		INSERT INTO athlete_profile (id, ftp, weight_kg, ctl, atl, tsb, rider_type, fitness_computed_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			ftp = excluded.ftp,
			weight_kg = excluded.weight_kg,
			ctl = excluded.ctl,
			atl = excluded.atl,
			tsb = excluded.tsb,
			rider_type = excluded.rider_type,
			fitness_computed_at = excluded.fitness_computed_at,
			updated_at = CURRENT_TIMESTAMP
	`, p.FTP, nullFloat(p.WeightKg), p.CTL, p.ATL, p.TSB, nullString(p.RiderType), computedAt)
	return err
}

// UpdateFitness updates just the computed fitness snapshot.
func (db *DB) UpdateFitness(ctl, atl, tsb float64, computedAt time.Time) error {
	result, err := db.Exec(`
		UPDATE athlete_profile
		SET ctl = ?, atl = ?, tsb = ?, fitness_computed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, ctl, atl, tsb, computedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoProfile
	}
	return nil
}

// UpdateRiderType updates the profile's rider-type classification.
func (db *DB) UpdateRiderType(riderType string) error {
	_, err := db.Exec(`
		UPDATE athlete_profile
		SET rider_type = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, riderType)
	return err
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
