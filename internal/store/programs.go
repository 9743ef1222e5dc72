package store

import (
	"database/sql"
	"errors"
	"time"
)

// CreateProgram stores a new training program.
func (db *DB) CreateProgram(p *Program) error {
	_, err := db.Exec(`
		INSERT INTO training_programs (
			id, goal_type, goal_description, target_date,
			hours_per_week, sessions_per_week, total_weeks,
			macro_plan, status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.ID, p.GoalType, p.GoalDescription, p.TargetDate,
		p.HoursPerWeek, p.SessionsPerWeek, p.TotalWeeks,
		p.MacroPlanJSON, p.Status)
	return err
}

// GetProgram retrieves a program by ID.
func (db *DB) GetProgram(id string) (*Program, error) {
	row := db.QueryRow(`
		SELECT id, goal_type, goal_description, target_date,
			hours_per_week, sessions_per_week, total_weeks,
			macro_plan, status, created_at
		FROM training_programs
		WHERE id = ?
	`, id)
	return scanProgram(row)
}

// GetActiveProgram returns the most recently created active program.
func (db *DB) GetActiveProgram() (*Program, error) {
	row := db.QueryRow(`
		SELECT id, goal_type, goal_description, target_date,
			hours_per_week, sessions_per_week, total_weeks,
			macro_plan, status, created_at
		FROM training_programs
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, ProgramActive)
	return scanProgram(row)
}

func scanProgram(row rowScanner) (*Program, error) {
	var p Program
	var createdAt string
	err := row.Scan(&p.ID, &p.GoalType, &p.GoalDescription, &p.TargetDate,
		&p.HoursPerWeek, &p.SessionsPerWeek, &p.TotalWeeks,
		&p.MacroPlanJSON, &p.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}

// UpdateProgramStatus sets a program's lifecycle status.
func (db *DB) UpdateProgramStatus(id, status string) error {
	result, err := db.Exec(`
		UPDATE training_programs
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProgramNotFound
	}
	return nil
}

// SaveWeekPlan inserts a week plan or replaces the targets of an existing
// (program, week) row, preserving any recorded actuals.
func (db *DB) SaveWeekPlan(w *WeekPlan) error {
	_, err := db.Exec(`
		INSERT INTO week_plans (
			program_id, week_number, phase, is_recovery,
			target_tss, target_sessions, target_hours,
			status, instructions, adaptation_notes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(program_id, week_number) DO UPDATE SET
			phase = excluded.phase,
			is_recovery = excluded.is_recovery,
			target_tss = excluded.target_tss,
			target_sessions = excluded.target_sessions,
			target_hours = excluded.target_hours,
			status = excluded.status,
			instructions = excluded.instructions,
			adaptation_notes = excluded.adaptation_notes,
			updated_at = CURRENT_TIMESTAMP
	`, w.ProgramID, w.WeekNumber, w.Phase, boolInt(w.IsRecovery),
		w.TargetTSS, w.TargetSessions, w.TargetHours,
		w.Status, w.Instructions, w.AdaptationNotes)
	if err != nil {
		return err
	}

	return db.QueryRow(`
		SELECT id FROM week_plans WHERE program_id = ? AND week_number = ?
	`, w.ProgramID, w.WeekNumber).Scan(&w.ID)
}

// GetWeekPlan retrieves one week of a program.
func (db *DB) GetWeekPlan(programID string, weekNumber int) (*WeekPlan, error) {
	row := db.QueryRow(`
		SELECT id, program_id, week_number, phase, is_recovery,
			target_tss, target_sessions, target_hours,
			actual_tss, actual_sessions, actual_hours, actual_ctl,
			status, instructions, adaptation_notes
		FROM week_plans
		WHERE program_id = ? AND week_number = ?
	`, programID, weekNumber)
	w, err := scanWeekPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWeekPlanNotFound
	}
	return w, err
}

// ListWeekPlans returns all stored weeks of a program in week order.
func (db *DB) ListWeekPlans(programID string) ([]*WeekPlan, error) {
	rows, err := db.Query(`
		SELECT id, program_id, week_number, phase, is_recovery,
			target_tss, target_sessions, target_hours,
			actual_tss, actual_sessions, actual_hours, actual_ctl,
			status, instructions, adaptation_notes
		FROM week_plans
		WHERE program_id = ?
		ORDER BY week_number ASC
	`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []*WeekPlan
	for rows.Next() {
		w, err := scanWeekPlan(rows)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func scanWeekPlan(row rowScanner) (*WeekPlan, error) {
	var w WeekPlan
	var isRecovery int64
	var instructions, notes sql.NullString
	err := row.Scan(&w.ID, &w.ProgramID, &w.WeekNumber, &w.Phase, &isRecovery,
		&w.TargetTSS, &w.TargetSessions, &w.TargetHours,
		&w.ActualTSS, &w.ActualSessions, &w.ActualHours, &w.ActualCTL,
		&w.Status, &instructions, &notes)
	if err != nil {
		return nil, err
	}
	w.IsRecovery = isRecovery == 1
	w.Instructions = instructions.String
	w.AdaptationNotes = notes.String
	return &w, nil
}

// CompleteWeek records a week's actuals and marks it completed.
func (db *DB) CompleteWeek(programID string, weekNumber int, actualTSS float64, actualSessions int, actualHours, actualCTL float64) error {
	result, err := db.Exec(`
		UPDATE week_plans
		SET actual_tss = ?, actual_sessions = ?, actual_hours = ?, actual_ctl = ?,
			status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE program_id = ? AND week_number = ?
	`, actualTSS, actualSessions, actualHours, actualCTL, WeekCompleted, programID, weekNumber)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrWeekPlanNotFound
	}
	return nil
}

// ReplaceWorkouts swaps the planned sessions of a week for a new set.
func (db *DB) ReplaceWorkouts(weekPlanID int64, workouts []PlannedWorkout) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM planned_workouts WHERE week_plan_id = ?`, weekPlanID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO planned_workouts (
			week_plan_id, day_index, workout_type, target_tss,
			target_duration_min, steps_text, status
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, wo := range workouts {
		status := wo.Status
		if status == "" {
			status = WeekPlanned
		}
		if _, err := stmt.Exec(weekPlanID, wo.DayIndex, wo.WorkoutType,
			wo.TargetTSS, wo.TargetDurationMin, wo.StepsText, status); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListWorkouts returns a week's planned sessions in day order.
func (db *DB) ListWorkouts(weekPlanID int64) ([]PlannedWorkout, error) {
	rows, err := db.Query(`
		SELECT id, week_plan_id, day_index, workout_type, target_tss,
			target_duration_min, steps_text, status
		FROM planned_workouts
		WHERE week_plan_id = ?
		ORDER BY day_index ASC
	`, weekPlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []PlannedWorkout
	for rows.Next() {
		var wo PlannedWorkout
		var steps sql.NullString
		if err := rows.Scan(&wo.ID, &wo.WeekPlanID, &wo.DayIndex, &wo.WorkoutType,
			&wo.TargetTSS, &wo.TargetDurationMin, &steps, &wo.Status); err != nil {
			return nil, err
		}
		wo.StepsText = steps.String
		workouts = append(workouts, wo)
	}
	return workouts, rows.Err()
}
