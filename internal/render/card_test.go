package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"opportunity-agent/internal/domain/entity"
)

var cardTime = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func fullAnalysis() *entity.Analysis {
	return &entity.Analysis{
		ExecutiveSummary: strings.Repeat("A long executive summary. ", 30),
		KeyRequirements:  []string{"Req 1", "Req 2", "Req 3", "Req 4", "Req 5", "Req 6", "Req 7"},
		TeamRecommendations: []any{
			map[string]any{"team_name": "Alpha", "tower": "Data", "team_lead": "Jane Doe", "relevance_score": 0.92, "justification": "Strong fit"},
			map[string]any{"team_name": "Bravo", "tower": "QA", "relevance_score": 0.65},
			map[string]any{"team_name": "Charlie", "relevance_score": 0.4},
			map[string]any{"team_name": "Delta", "relevance_score": 0.3},
			map[string]any{"team_name": "Echo", "relevance_score": 0.2},
		},
		Risks: []entity.Risk{
			{Level: "high", Description: "Tight deadline", Mitigation: "Add buffer"},
			{Level: "medium", Description: "Scope creep"},
			{Level: "low", Description: "Minor unknowns"},
			{Level: "low", Description: "Should not appear"},
		},
		OverallRiskLevel: "medium",
		TimelineEstimate: &entity.Timeline{TotalDuration: "10 weeks"},
		EffortEstimate:   &entity.Effort{MinHours: 300, MaxHours: 500, Complexity: "High"},
		Recommendations:  []string{"Do X", "Do Y"},
		NextSteps:        []string{"Kickoff", "Discovery"},
		ClarificationQuestions: []string{
			"Which regions?", "What SLA?", "Budget owner?", "Should not appear",
		},
		Confidence: 0.85,
	}
}

func TestOpportunityCardShape(t *testing.T) {
	card := OpportunityCard("opp-1", "Data Platform", fullAnalysis(), "https://blobs/x.pdf", cardTime)

	if card["type"] != "AdaptiveCard" || card["version"] != "1.4" {
		t.Errorf("card envelope wrong: type=%v version=%v", card["type"], card["version"])
	}
	body, ok := card["body"].([]any)
	if !ok || len(body) == 0 {
		t.Fatal("card body missing")
	}

	raw, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("card is not JSON-serializable: %v", err)
	}
	text := string(raw)

	for _, want := range []string{
		"OPPORTUNITY ANALYSIS", "Data Platform", "EXECUTIVE SUMMARY",
		"TOP MATCH", "RECOMMENDED TEAMS", "IDENTIFIED RISKS", "NEXT STEPS",
		"https://blobs/x.pdf", "IMPORTANT NOTICE",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("card missing %q", want)
		}
	}
}

func TestOpportunityCardCaps(t *testing.T) {
	raw, _ := json.Marshal(OpportunityCard("opp-1", "Capped", fullAnalysis(), "", cardTime))
	text := string(raw)

	if strings.Contains(text, "Echo") {
		t.Error("more than 4 teams rendered")
	}
	if !strings.Contains(text, "Delta") {
		t.Error("4th team should still render")
	}
	if strings.Contains(text, "Should not appear") {
		t.Error("risk/question caps not applied")
	}
	if strings.Contains(text, "Req 6") {
		t.Error("more than 5 requirements rendered")
	}
}

func TestOpportunityCardBadges(t *testing.T) {
	analysis := &entity.Analysis{
		TeamRecommendations: []any{
			map[string]any{"team_name": "Top", "relevance_score": 0.85},
			map[string]any{"team_name": "Mid", "relevance_score": 0.65},
			map[string]any{"team_name": "Low", "relevance_score": 0.30},
		},
	}
	raw, _ := json.Marshal(OpportunityCard("opp-1", "Badges", analysis, "", cardTime))
	text := string(raw)

	if !strings.Contains(text, "TOP MATCH") {
		t.Error("score >= 80% should earn TOP MATCH badge")
	}
	if !strings.Contains(text, "**Mid** · MATCH") {
		t.Error("score >= 60% should earn MATCH badge")
	}
	if strings.Contains(text, "**Low** · ") {
		t.Error("score < 60% should get no badge")
	}
}

func TestOpportunityCardSummaryTruncation(t *testing.T) {
	analysis := &entity.Analysis{ExecutiveSummary: strings.Repeat("x", 900)}
	raw, _ := json.Marshal(OpportunityCard("opp-1", "Long", analysis, "", cardTime))

	if !strings.Contains(string(raw), strings.Repeat("x", 397)+"...") {
		t.Error("summary should be truncated to 400 chars with ellipsis")
	}
	if strings.Contains(string(raw), strings.Repeat("x", 401)) {
		t.Error("summary exceeds 400 chars")
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short ascii untouched", "hello", 10, "hello"},
		{"ascii ellipsis", "aaaaaaaaaa", 8, "aaaaa..."},
		{"multibyte untouched when runes fit", "ééééé", 5, "ééééé"},
		{"multibyte at boundary", "éééééééééé", 8, "ééééé..."},
		{"mixed at boundary", "aaaaaaañoño", 10, "aaaaaaa..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: % x", got)
			}
		})
	}
}

func TestOpportunityCardMultibyteSummary(t *testing.T) {
	analysis := &entity.Analysis{ExecutiveSummary: strings.Repeat("ñ", maxSummaryChars+50)}

	raw, err := json.Marshal(OpportunityCard("opp-1", "Acentuación", analysis, "", cardTime))
	if err != nil {
		t.Fatalf("multibyte summary broke serialization: %v", err)
	}
	if !utf8.Valid(raw) {
		t.Error("card JSON contains invalid UTF-8")
	}
	if !strings.Contains(string(raw), strings.Repeat("ñ", maxSummaryChars-3)+"...") {
		t.Error("summary not truncated to the character limit")
	}
}

func TestOpportunityCardIdempotent(t *testing.T) {
	analysis := fullAnalysis()
	first, err := json.Marshal(OpportunityCard("opp-1", "Same", analysis, "u", cardTime))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(OpportunityCard("opp-1", "Same", analysis, "u", cardTime))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("identical inputs produced different cards")
	}
}

func TestOpportunityCardNilAnalysis(t *testing.T) {
	card := OpportunityCard("opp-1", "Empty", nil, "", cardTime)
	if card["type"] != "AdaptiveCard" {
		t.Error("nil analysis should still produce a card")
	}
	raw, _ := json.Marshal(card)
	if !strings.Contains(string(raw), "Analysis in progress") {
		t.Error("empty summary placeholder missing")
	}
}

func TestAnalysisPDF(t *testing.T) {
	data, err := AnalysisPDF("Analysis: Data Platform", fullAnalysis(), PDFMetadata{
		OpportunityID:   "opp-1",
		OpportunityName: "Data Platform",
		GeneratedAt:     cardTime,
	})
	if err != nil {
		t.Fatalf("AnalysisPDF() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty PDF output")
	}
	if !strings.HasPrefix(string(data[:5]), "%PDF-") {
		t.Errorf("output does not start with PDF magic: %q", data[:5])
	}
}

func TestAnalysisPDFNilAnalysis(t *testing.T) {
	data, err := AnalysisPDF("Analysis: Empty", nil, PDFMetadata{OpportunityID: "x", GeneratedAt: cardTime})
	if err != nil {
		t.Fatalf("AnalysisPDF() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty PDF output")
	}
}

func TestSanitizePDFText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"curly ‘quotes’ and “more”", `curly 'quotes' and "more"`},
		{"dash – and — here", "dash - and - here"},
		{"café", "café"},
		{"emoji \U0001f600 gone", "emoji ? gone"},
	}
	for _, tt := range tests {
		if got := sanitizePDFText(tt.in); got != tt.want {
			t.Errorf("sanitizePDFText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
