package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const activityColumns = `
	id, external_id, source, name, type, start_date, duration_seconds,
	distance, total_elevation_gain, average_watts, weighted_average_watts,
	max_watts, device_watts, trainer, normalized_power, intensity_factor,
	tss, samples_synced, time_zone1, time_zone2, time_zone3, time_zone4,
	time_zone5, time_zone6, time_zone7`

// UpsertActivity inserts a ride or updates it when the external ID already
// exists. Returns the local row ID.
func (db *DB) UpsertActivity(a *Activity) (int64, error) {
	_, err := db.Exec(`
		INSERT INTO activities (
			external_id, source, name, type, start_date, duration_seconds,
			distance, total_elevation_gain, average_watts, weighted_average_watts,
			max_watts, device_watts, trainer, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(external_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			duration_seconds = excluded.duration_seconds,
			distance = excluded.distance,
			total_elevation_gain = excluded.total_elevation_gain,
			average_watts = excluded.average_watts,
			weighted_average_watts = excluded.weighted_average_watts,
			max_watts = excluded.max_watts,
			device_watts = excluded.device_watts,
			trainer = excluded.trainer,
			updated_at = CURRENT_TIMESTAMP
	`, a.ExternalID, a.Source, a.Name, a.Type, a.StartDate.Format(time.RFC3339),
		a.DurationSeconds, a.Distance, a.TotalElevationGain,
		a.AverageWatts, a.WeightedAverageWatts, a.MaxWatts,
		boolInt(a.DeviceWatts), boolInt(a.Trainer))
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.QueryRow(`SELECT id FROM activities WHERE external_id = ?`, a.ExternalID).Scan(&id)
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// UpdateActivityMetrics stores the computed training metrics for a ride.
func (db *DB) UpdateActivityMetrics(activityID int64, np, intensityFactor, tss float64, zoneSeconds [7]int) error {
	result, err := db.Exec(`
		UPDATE activities
		SET normalized_power = ?, intensity_factor = ?, tss = ?,
			time_zone1 = ?, time_zone2 = ?, time_zone3 = ?, time_zone4 = ?,
			time_zone5 = ?, time_zone6 = ?, time_zone7 = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, np, intensityFactor, tss,
		zoneSeconds[0], zoneSeconds[1], zoneSeconds[2], zoneSeconds[3],
		zoneSeconds[4], zoneSeconds[5], zoneSeconds[6], activityID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// GetActivity retrieves one ride by local ID.
func (db *DB) GetActivity(id int64) (*Activity, error) {
	row := db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// GetActivityByExternalID retrieves one ride by its source ID.
func (db *DB) GetActivityByExternalID(externalID string) (*Activity, error) {
	row := db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE external_id = ?`, externalID)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns rides newest first, up to limit (0 = all).
func (db *DB) ListActivities(limit int) ([]*Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities ORDER BY start_date DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = db.Query(query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListActivitiesSince returns rides on or after the given time, oldest first.
func (db *DB) ListActivitiesSince(since time.Time) ([]*Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE start_date >= ?
		ORDER BY start_date ASC
	`, since.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListActivitiesNeedingSamples returns power-meter rides from the activity
// source whose 1 Hz stream has not been fetched yet, oldest first.
func (db *DB) ListActivitiesNeedingSamples(limit int) ([]*Activity, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE samples_synced = 0 AND device_watts = 1 AND source = 'strava'
		ORDER BY start_date ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListActivitiesNeedingMetrics returns rides with power data but no computed
// training metrics yet, oldest first.
func (db *DB) ListActivitiesNeedingMetrics() ([]*Activity, error) {
	rows, err := db.Query(`
		SELECT ` + activityColumns + `
		FROM activities
		WHERE tss IS NULL
			AND (average_watts IS NOT NULL OR samples_synced = 1)
		ORDER BY start_date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate string
	var deviceWatts, trainer, samplesSynced int64

	err := row.Scan(
		&a.ID, &a.ExternalID, &a.Source, &a.Name, &a.Type, &startDate,
		&a.DurationSeconds, &a.Distance, &a.TotalElevationGain,
		&a.AverageWatts, &a.WeightedAverageWatts, &a.MaxWatts,
		&deviceWatts, &trainer, &a.NormalizedPower, &a.IntensityFactor,
		&a.TSS, &samplesSynced,
		&a.ZoneSeconds[0], &a.ZoneSeconds[1], &a.ZoneSeconds[2], &a.ZoneSeconds[3],
		&a.ZoneSeconds[4], &a.ZoneSeconds[5], &a.ZoneSeconds[6],
	)
	if err != nil {
		return nil, err
	}

	a.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	a.DeviceWatts = deviceWatts == 1
	a.Trainer = trainer == 1
	a.SamplesSynced = samplesSynced == 1
	return &a, nil
}

// SavePowerSamples replaces the stored 1 Hz power stream for a ride and
// marks it sample-synced.
func (db *DB) SavePowerSamples(activityID int64, watts []float64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM power_samples WHERE activity_id = ?`, activityID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO power_samples (activity_id, time_offset, watts) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for offset, w := range watts {
		if _, err := stmt.Exec(activityID, offset, w); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		UPDATE activities SET samples_synced = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, activityID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetPowerSamples returns a ride's power stream ordered by time offset.
func (db *DB) GetPowerSamples(activityID int64) ([]float64, error) {
	rows, err := db.Query(`
		SELECT watts FROM power_samples
		WHERE activity_id = ?
		ORDER BY time_offset ASC
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var watts []float64
	for rows.Next() {
		var w float64
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		watts = append(watts, w)
	}
	return watts, rows.Err()
}

// GetPowerRecords returns all stored personal records keyed by duration.
func (db *DB) GetPowerRecords() (map[string]PowerRecord, error) {
	rows, err := db.Query(`SELECT duration_key, watts, achieved_at FROM power_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]PowerRecord)
	for rows.Next() {
		var r PowerRecord
		var achievedAt string
		if err := rows.Scan(&r.DurationKey, &r.Watts, &achievedAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, achievedAt); err == nil {
			r.AchievedAt = t
		}
		records[r.DurationKey] = r
	}
	return records, rows.Err()
}

// SavePowerRecord stores a personal record, overwriting any prior entry for
// the duration.
func (db *DB) SavePowerRecord(r PowerRecord) error {
	_, err := db.Exec(`
		INSERT INTO power_records (duration_key, watts, achieved_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(duration_key) DO UPDATE SET
			watts = excluded.watts,
			achieved_at = excluded.achieved_at,
			updated_at = CURRENT_TIMESTAMP
	`, r.DurationKey, r.Watts, r.AchievedAt.Format(time.RFC3339))
	return err
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
