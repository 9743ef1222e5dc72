package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cyclecoach/internal/plan"
)

const validPlanJSON = `{
	"total_weeks": 4,
	"periodization_model": "traditional_linear",
	"phases": [
		{"name": "Base", "weeks": [1, 3], "purpose": "aerobic base", "weekly_tss_range": [300, 400], "zone_focus": ["Endurance", "Tempo"]},
		{"name": "Taper", "weeks": [4, 4], "purpose": "freshen up", "weekly_tss_range": [180, 220], "zone_focus": ["Recovery"]}
	],
	"progression_rules": {"max_tss_increase_pct": 10, "recovery_week_frequency": 4, "recovery_week_tss_reduction_pct": 40, "max_ctl_ramp_rate": 7},
	"week_targets": [
		{"week": 1, "tss": 300, "phase": "Base", "is_recovery": false},
		{"week": 2, "tss": 330, "phase": "Base", "is_recovery": false},
		{"week": 3, "tss": 360, "phase": "Base", "is_recovery": false},
		{"week": 4, "tss": 200, "phase": "Taper", "is_recovery": true}
	]
}`

func TestParseMacroPlan(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"bare JSON", validPlanJSON, false},
		{"json fence", "Here is the plan:\n```json\n" + validPlanJSON + "\n```", false},
		{"plain fence", "```\n" + validPlanJSON + "\n```", false},
		{"not JSON", "I think you should ride more.", true},
		{"truncated", validPlanJSON[:50], true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp, err := parseMacroPlan(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Error("expected a parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMacroPlan: %v", err)
			}
			if mp.TotalWeeks != 4 || len(mp.Phases) != 2 || len(mp.WeekTargets) != 4 {
				t.Errorf("parsed plan = %+v", mp)
			}
			if mp.Phases[0].Weeks != [2]int{1, 3} {
				t.Errorf("phase weeks = %v, want [1 3]", mp.Phases[0].Weeks)
			}
			if !mp.WeekTargets[3].IsRecovery {
				t.Error("week 4 recovery flag lost")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	mp, err := parseMacroPlan(validPlanJSON)
	if err != nil {
		t.Fatal(err)
	}

	if err := validate(mp, 4); err != nil {
		t.Errorf("valid plan rejected: %v", err)
	}

	t.Run("too few week targets", func(t *testing.T) {
		thin := *mp
		thin.WeekTargets = mp.WeekTargets[:2]
		if err := validate(&thin, 4); err == nil {
			t.Error("2 of 4 targets must be rejected")
		}
	})

	t.Run("out-of-range week number", func(t *testing.T) {
		bad := *mp
		bad.WeekTargets = append([]plan.WeekTarget{}, mp.WeekTargets...)
		bad.WeekTargets[0].Week = 9
		if err := validate(&bad, 4); err == nil {
			t.Error("week 9 of a 4-week plan must be rejected")
		}
	})

	t.Run("no phases", func(t *testing.T) {
		empty := *mp
		empty.Phases = nil
		if err := validate(&empty, 4); err == nil {
			t.Error("plan without phases must be rejected")
		}
	})
}

func chatReply(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestGenerateMacroPlan(t *testing.T) {
	t.Run("valid reply", func(t *testing.T) {
		srv := httptest.NewServer(chatReply(t, "```json\n"+validPlanJSON+"\n```"))
		defer srv.Close()

		c := NewClient("test-key", "", srv.URL)
		mp, err := c.GenerateMacroPlan(context.Background(), plan.NarrativeRequest{TotalWeeks: 4})
		if err != nil {
			t.Fatalf("GenerateMacroPlan: %v", err)
		}
		if mp.TotalWeeks != 4 {
			t.Errorf("TotalWeeks = %d, want 4", mp.TotalWeeks)
		}
	})

	t.Run("unparseable reply errors", func(t *testing.T) {
		srv := httptest.NewServer(chatReply(t, "ride lots"))
		defer srv.Close()

		c := NewClient("test-key", "", srv.URL)
		if _, err := c.GenerateMacroPlan(context.Background(), plan.NarrativeRequest{TotalWeeks: 4}); err == nil {
			t.Error("expected an error for a non-JSON reply")
		}
	})

	t.Run("API error surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
			})
		}))
		defer srv.Close()

		c := NewClient("test-key", "", srv.URL)
		_, err := c.GenerateMacroPlan(context.Background(), plan.NarrativeRequest{TotalWeeks: 4})
		if err == nil || !strings.Contains(err.Error(), "rate limited") {
			t.Errorf("err = %v, want the API error message", err)
		}
	})
}

func TestPromptNamesConstraints(t *testing.T) {
	req := plan.NarrativeRequest{
		Goal:        plan.Goal{Description: "Spring fondo", TargetDate: "2026-06-01", HoursPerWeek: 10, SessionsPerWeek: 5},
		TotalWeeks:  12,
		CurrentFTP:  250,
		TargetFTP:   270,
		CurrentCTL:  50,
		StartingTSS: 350,
		PeakTSS:     550,
	}
	prompt := planUserPrompt(req)

	for _, want := range []string{"Total weeks: 12", "~350", "~550", "week_targets MUST have EXACTLY 12 entries"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
