package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cyclecoach/internal/adaptation"
	"cyclecoach/internal/plan"
	"cyclecoach/internal/store"
	"cyclecoach/internal/workout"
)

// ProgramService manages training program lifecycle: creation, weekly
// planning, and completion tracking.
type ProgramService struct {
	store   *store.DB
	builder *plan.Builder
	planner *plan.Planner
}

// NewProgramService creates a program service. The narrative generator is
// optional; without it every macro plan is the deterministic one.
func NewProgramService(db *store.DB, narrative plan.NarrativeGenerator) *ProgramService {
	return &ProgramService{
		store:   db,
		builder: &plan.Builder{Narrative: narrative},
		planner: plan.NewPlanner(),
	}
}

// CreateProgram builds a macro plan for the goal, stores the program with
// all its week targets, and plans the first week in detail. Any previously
// active program is abandoned.
func (s *ProgramService) CreateProgram(ctx context.Context, goal plan.Goal) (*store.Program, error) {
	profile, err := s.store.GetProfile()
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	if summary, err := AnalyzeFitness(s.store, profile.FTP, profile.WeightKg, time.Now()); err == nil {
		s.builder.FitnessAnalysis = summary.NarrativeText()
	}

	macro, err := s.builder.BuildMacroPlan(ctx, goal, profile.FTP, profile.CTL, time.Now())
	if err != nil {
		return nil, fmt.Errorf("building macro plan: %w", err)
	}

	macroJSON, err := json.Marshal(macro)
	if err != nil {
		return nil, fmt.Errorf("encoding macro plan: %w", err)
	}

	if prior, err := s.store.GetActiveProgram(); err == nil {
		if err := s.store.UpdateProgramStatus(prior.ID, store.ProgramAbandoned); err != nil {
			return nil, fmt.Errorf("abandoning prior program: %w", err)
		}
	} else if !errors.Is(err, store.ErrProgramNotFound) {
		return nil, err
	}

	program := &store.Program{
		ID:              uuid.New().String(),
		GoalType:        string(goal.Type),
		GoalDescription: goal.Description,
		TargetDate:      goal.TargetDate,
		HoursPerWeek:    goal.HoursPerWeek,
		SessionsPerWeek: goal.SessionsPerWeek,
		TotalWeeks:      macro.TotalWeeks,
		MacroPlanJSON:   string(macroJSON),
		Status:          store.ProgramActive,
	}
	if err := s.store.CreateProgram(program); err != nil {
		return nil, fmt.Errorf("storing program: %w", err)
	}

	// Seed every week from the macro targets so the full program is
	// visible before any week is planned in detail.
	for _, wt := range macro.WeekTargets {
		week := &store.WeekPlan{
			ProgramID:      program.ID,
			WeekNumber:     wt.Week,
			Phase:          wt.Phase,
			IsRecovery:     wt.IsRecovery,
			TargetTSS:      float64(wt.TSS),
			TargetSessions: goal.SessionsPerWeek,
			TargetHours:    goal.HoursPerWeek,
			Status:         store.WeekPlanned,
		}
		if err := s.store.SaveWeekPlan(week); err != nil {
			return nil, fmt.Errorf("storing week %d: %w", wt.Week, err)
		}
	}

	if _, err := s.PlanWeek(program.ID, 1); err != nil {
		return nil, fmt.Errorf("planning first week: %w", err)
	}

	return program, nil
}

// PlanWeek plans (or re-plans) one week of a program against the rider's
// current fitness and the completed weeks so far, and generates a structured
// workout for every session.
func (s *ProgramService) PlanWeek(programID string, weekNumber int) (*plan.PlannedWeek, error) {
	program, err := s.store.GetProgram(programID)
	if err != nil {
		return nil, err
	}
	macro, err := decodeMacro(program)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile()
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	weeks, err := s.store.ListWeekPlans(programID)
	if err != nil {
		return nil, fmt.Errorf("loading week history: %w", err)
	}

	goal := goalFromProgram(program)
	riderProfile := adaptation.Profile{
		FTP:      profile.FTP,
		CTL:      profile.CTL,
		ATL:      profile.ATL,
		TSB:      profile.TSB,
		WeightKg: profile.WeightKg,
	}

	planned := s.planner.PlanWeek(macro, weekNumber, goal, riderProfile, snapshotsBefore(weeks, weekNumber))

	week := &store.WeekPlan{
		ProgramID:       programID,
		WeekNumber:      weekNumber,
		Phase:           planned.Detail.Phase,
		IsRecovery:      planned.Detail.IsRecovery,
		TargetTSS:       planned.Detail.TargetTSS,
		TargetSessions:  planned.Detail.TargetSessions,
		TargetHours:     planned.Detail.TargetHours,
		Status:          store.WeekActive,
		Instructions:    planned.Detail.Instructions,
		AdaptationNotes: planned.Detail.AdaptationNotes,
	}
	if err := s.store.SaveWeekPlan(week); err != nil {
		return nil, fmt.Errorf("storing week plan: %w", err)
	}

	workouts := make([]store.PlannedWorkout, 0, len(planned.Sessions))
	for _, sess := range planned.Sessions {
		steps := workout.GenerateSteps(sess.WorkoutType, sess.TargetTSS, sess.TargetDurationMin)
		workouts = append(workouts, store.PlannedWorkout{
			WeekPlanID:        week.ID,
			DayIndex:          sess.DayIndex,
			WorkoutType:       sess.WorkoutType,
			TargetTSS:         sess.TargetTSS,
			TargetDurationMin: sess.TargetDurationMin,
			StepsText:         workout.Render(steps),
			Status:            store.WeekPlanned,
		})
	}
	if err := s.store.ReplaceWorkouts(week.ID, workouts); err != nil {
		return nil, fmt.Errorf("storing workouts: %w", err)
	}

	return &planned, nil
}

// CompleteWeek aggregates the rides of a program week into actuals and marks
// the week completed.
func (s *ProgramService) CompleteWeek(programID string, weekNumber int) error {
	program, err := s.store.GetProgram(programID)
	if err != nil {
		return err
	}

	weekStart := program.CreatedAt.AddDate(0, 0, 7*(weekNumber-1))
	weekEnd := weekStart.AddDate(0, 0, 7)

	activities, err := s.store.ListActivitiesSince(weekStart)
	if err != nil {
		return fmt.Errorf("loading rides: %w", err)
	}

	var actualTSS, actualHours float64
	var actualSessions int
	for _, a := range activities {
		if !a.StartDate.Before(weekEnd) {
			continue
		}
		actualSessions++
		actualHours += float64(a.DurationSeconds) / 3600
		if a.TSS != nil {
			actualTSS += *a.TSS
		}
	}

	fitness, err := currentFitness(s.store, weekEnd)
	if err != nil {
		return fmt.Errorf("computing fitness: %w", err)
	}

	return s.store.CompleteWeek(programID, weekNumber, actualTSS, actualSessions, actualHours, fitness.CTL)
}

// ActiveProgram returns the active program with its decoded macro plan.
func (s *ProgramService) ActiveProgram() (*store.Program, *plan.MacroPlan, error) {
	program, err := s.store.GetActiveProgram()
	if err != nil {
		return nil, nil, err
	}
	macro, err := decodeMacro(program)
	if err != nil {
		return nil, nil, err
	}
	return program, macro, nil
}

func decodeMacro(p *store.Program) (*plan.MacroPlan, error) {
	var macro plan.MacroPlan
	if err := json.Unmarshal([]byte(p.MacroPlanJSON), &macro); err != nil {
		return nil, fmt.Errorf("decoding macro plan: %w", err)
	}
	return &macro, nil
}

func goalFromProgram(p *store.Program) plan.Goal {
	return plan.Goal{
		Type:            plan.GoalType(p.GoalType),
		Description:     p.GoalDescription,
		TargetDate:      p.TargetDate,
		HoursPerWeek:    p.HoursPerWeek,
		SessionsPerWeek: p.SessionsPerWeek,
	}
}

// snapshotsBefore converts stored week plans into adaptation snapshots for
// the weeks preceding the one being planned.
func snapshotsBefore(weeks []*store.WeekPlan, weekNumber int) []adaptation.WeekSnapshot {
	var snapshots []adaptation.WeekSnapshot
	for _, w := range weeks {
		if w.WeekNumber >= weekNumber {
			continue
		}
		snapshots = append(snapshots, adaptation.WeekSnapshot{
			WeekNumber:     w.WeekNumber,
			Phase:          w.Phase,
			TargetTSS:      w.TargetTSS,
			TargetSessions: w.TargetSessions,
			TargetHours:    w.TargetHours,
			ActualTSS:      w.ActualTSS,
			ActualSessions: w.ActualSessions,
			ActualHours:    w.ActualHours,
			ActualCTL:      w.ActualCTL,
			Completed:      w.Status == store.WeekCompleted,
			Notes:          w.AdaptationNotes,
		})
	}
	return snapshots
}
