package entity

import "testing"

func TestAnalysisFromMap(t *testing.T) {
	m := map[string]any{
		"executive_summary": "A solid fit for the data tower.",
		"key_requirements":  []any{"Streaming ingest", "PII masking"},
		"required_towers":   []any{"Data", "QA"},
		"team_recommendations": []any{
			map[string]any{"team_name": "alpha", "relevance_score": 0.9},
			"not-an-object",
		},
		"risks": []any{
			map[string]any{
				"category":    "technical",
				"description": "Unclear data volumes",
				"level":       "medium",
				"probability": 0.4,
				"mitigation":  "Run a discovery spike",
			},
		},
		"overall_risk_level": "medium",
		"timeline_estimate": map[string]any{
			"total_duration": "12 weeks",
			"phases": []any{
				map[string]any{"phase_name": "Discovery", "duration": "2 weeks", "activities": []any{"Workshops"}},
			},
		},
		"effort_estimate": map[string]any{
			"min_hours":  float64(400),
			"max_hours":  float64(600),
			"complexity": "High",
		},
		"recommendations":         []any{"Lock scope early"},
		"next_steps":              []any{"Schedule kickoff"},
		"clarification_questions": []any{"Which regions?"},
		"analysis_confidence":     0.85,
	}

	a := AnalysisFromMap(m)

	if a.ExecutiveSummary != "A solid fit for the data tower." {
		t.Errorf("ExecutiveSummary = %q", a.ExecutiveSummary)
	}
	if len(a.KeyRequirements) != 2 || a.KeyRequirements[1] != "PII masking" {
		t.Errorf("KeyRequirements = %v", a.KeyRequirements)
	}
	// Raw entries survive untouched; the enricher decides what to skip.
	if len(a.TeamRecommendations) != 2 {
		t.Errorf("TeamRecommendations len = %d, want 2", len(a.TeamRecommendations))
	}
	if len(a.Risks) != 1 || a.Risks[0].Level != "medium" || a.Risks[0].Probability != 0.4 {
		t.Errorf("Risks = %+v", a.Risks)
	}
	if a.TimelineEstimate == nil || a.TimelineEstimate.TotalDuration != "12 weeks" {
		t.Errorf("TimelineEstimate = %+v", a.TimelineEstimate)
	}
	if len(a.TimelineEstimate.Phases) != 1 || a.TimelineEstimate.Phases[0].PhaseName != "Discovery" {
		t.Errorf("Phases = %+v", a.TimelineEstimate.Phases)
	}
	if a.EffortEstimate == nil || a.EffortEstimate.MinHours != 400 || a.EffortEstimate.MaxHours != 600 {
		t.Errorf("EffortEstimate = %+v", a.EffortEstimate)
	}
	if a.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", a.Confidence)
	}
}

func TestAnalysisFromMapEmpty(t *testing.T) {
	a := AnalysisFromMap(map[string]any{})

	if a.KeyRequirements == nil || len(a.KeyRequirements) != 0 {
		t.Errorf("KeyRequirements should default to empty slice, got %v", a.KeyRequirements)
	}
	if a.TeamRecommendations == nil || len(a.TeamRecommendations) != 0 {
		t.Errorf("TeamRecommendations should default to empty slice, got %v", a.TeamRecommendations)
	}
	if a.Risks == nil || len(a.Risks) != 0 {
		t.Errorf("Risks should default to empty slice, got %v", a.Risks)
	}
	if a.TimelineEstimate != nil || a.EffortEstimate != nil {
		t.Error("absent estimates should stay nil")
	}
	if a.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", a.Confidence)
	}
}

func TestAnalysisFromMapWrongTypes(t *testing.T) {
	a := AnalysisFromMap(map[string]any{
		"executive_summary":   float64(7),
		"key_requirements":    "not a list",
		"risks":               map[string]any{"level": "high"},
		"analysis_confidence": "very",
	})

	if a.ExecutiveSummary != "" || len(a.KeyRequirements) != 0 || len(a.Risks) != 0 || a.Confidence != 0 {
		t.Errorf("wrong types should coerce to zero values: %+v", a)
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.73, 0.73},
		{1, 1},
		{3.2, 1},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
