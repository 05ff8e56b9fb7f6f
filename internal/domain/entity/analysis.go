package entity

// Analysis is the parsed reasoning-model output. Every list defaults to empty
// rather than absent, and score fields are clamped to [0,1].
//
// TeamRecommendations stays loosely typed on purpose: malformed model entries
// are skipped by the enricher and unmatched entries pass through verbatim, so
// the raw shape has to survive parsing.
type Analysis struct {
	ExecutiveSummary       string    `json:"executive_summary"`
	KeyRequirements        []string  `json:"key_requirements"`
	RequiredTowers         []string  `json:"required_towers"`
	TeamRecommendations    []any     `json:"team_recommendations"`
	Risks                  []Risk    `json:"risks"`
	OverallRiskLevel       string    `json:"overall_risk_level"`
	TimelineEstimate       *Timeline `json:"timeline_estimate"`
	EffortEstimate         *Effort   `json:"effort_estimate"`
	Recommendations        []string  `json:"recommendations"`
	NextSteps              []string  `json:"next_steps"`
	ClarificationQuestions []string  `json:"clarification_questions"`
	Confidence             float64   `json:"confidence"`
}

type Risk struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Level       string  `json:"level"`
	Probability float64 `json:"probability"`
	Impact      string  `json:"impact,omitempty"`
	Mitigation  string  `json:"mitigation"`
}

type Timeline struct {
	TotalDuration string  `json:"total_duration"`
	Phases        []Phase `json:"phases"`
}

type Phase struct {
	PhaseName  string   `json:"phase_name"`
	Duration   string   `json:"duration"`
	Activities []string `json:"activities"`
}

type Effort struct {
	MinHours            int      `json:"min_hours"`
	MaxHours            int      `json:"max_hours"`
	Complexity          string   `json:"complexity"`
	TeamSizeRecommended string   `json:"team_size_recommended,omitempty"`
	Assumptions         []string `json:"assumptions"`
}

// AnalysisFromMap coerces a decoded model JSON object into an Analysis.
// It is tolerant of wrong types: anything that does not fit becomes the
// zero/empty value instead of an error.
func AnalysisFromMap(m map[string]any) *Analysis {
	a := &Analysis{
		ExecutiveSummary:       stringField(m, "executive_summary"),
		KeyRequirements:        stringList(m["key_requirements"]),
		RequiredTowers:         stringList(m["required_towers"]),
		TeamRecommendations:    anyList(m["team_recommendations"]),
		Risks:                  riskList(m["risks"]),
		OverallRiskLevel:       stringField(m, "overall_risk_level"),
		TimelineEstimate:       timelineFrom(m["timeline_estimate"]),
		EffortEstimate:         effortFrom(m["effort_estimate"]),
		Recommendations:        stringList(m["recommendations"]),
		NextSteps:              stringList(m["next_steps"]),
		ClarificationQuestions: stringList(m["clarification_questions"]),
		Confidence:             ClampScore(floatField(m, "analysis_confidence")),
	}
	return a
}

// ClampScore coerces a score into [0,1].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func stringList(v any) []string {
	out := []string{}
	items, _ := v.([]any)
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func anyList(v any) []any {
	if items, ok := v.([]any); ok {
		return items
	}
	return []any{}
}

func riskList(v any) []Risk {
	out := []Risk{}
	items, _ := v.([]any)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Risk{
			Category:    stringField(m, "category"),
			Description: stringField(m, "description"),
			Level:       stringField(m, "level"),
			Probability: ClampScore(floatField(m, "probability")),
			Impact:      stringField(m, "impact"),
			Mitigation:  stringField(m, "mitigation"),
		})
	}
	return out
}

func timelineFrom(v any) *Timeline {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	t := &Timeline{
		TotalDuration: stringField(m, "total_duration"),
		Phases:        []Phase{},
	}
	phases, _ := m["phases"].([]any)
	for _, p := range phases {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		t.Phases = append(t.Phases, Phase{
			PhaseName:  stringField(pm, "phase_name"),
			Duration:   stringField(pm, "duration"),
			Activities: stringList(pm["activities"]),
		})
	}
	return t
}

func effortFrom(v any) *Effort {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &Effort{
		MinHours:            int(floatField(m, "min_hours")),
		MaxHours:            int(floatField(m, "max_hours")),
		Complexity:          stringField(m, "complexity"),
		TeamSizeRecommended: stringField(m, "team_size_recommended"),
		Assumptions:         stringList(m["assumptions"]),
	}
}
