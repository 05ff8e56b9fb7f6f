package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"opportunity-agent/internal/domain/entity"
)

type stubDirectory struct {
	searchTeams []entity.DirectoryTeam
	searchErr   error
	allTeams    []entity.DirectoryTeam
	allErr      error
	allCalled   bool
}

func (s *stubDirectory) SearchTeams(ctx context.Context, query string, top int) ([]entity.DirectoryTeam, error) {
	return s.searchTeams, s.searchErr
}

func (s *stubDirectory) AllTeams(ctx context.Context) ([]entity.DirectoryTeam, error) {
	s.allCalled = true
	return s.allTeams, s.allErr
}

type stubAnalyzer struct {
	analysis *entity.Analysis
	err      error
	gotText  string
	gotTeams []entity.DirectoryTeam
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string, teams []entity.DirectoryTeam) (*entity.Analysis, error) {
	s.gotText = text
	s.gotTeams = teams
	return s.analysis, s.err
}

func (s *stubAnalyzer) Model() string { return "stub-model" }

type stubSink struct {
	err   error
	gotID string
}

func (s *stubSink) SaveAnalysis(ctx context.Context, rec entity.AnalysisRecord) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.gotID = rec.ID
	return rec.ID, nil
}

func minimalAnalysis() *entity.Analysis {
	return &entity.Analysis{
		ExecutiveSummary: "Looks feasible.",
		TeamRecommendations: []any{
			map[string]any{"team_name": "ALPHA", "relevance_score": 0.9},
		},
		OverallRiskLevel: "low",
		Confidence:       0.8,
	}
}

func testRecord() map[string]any {
	return map[string]any{
		"opportunityid": "opp-1",
		"name":          "Test Opportunity",
		"description":   "Build a data platform",
		"SdkMessage":    "Create",
	}
}

func TestProcessSuccess(t *testing.T) {
	directory := &stubDirectory{
		searchTeams: []entity.DirectoryTeam{{Name: "ALPHA", Tower: "Data", Leader: "Jane Doe"}},
	}
	analyzer := &stubAnalyzer{analysis: minimalAnalysis()}

	orch := NewOrchestrator(directory, analyzer, nil, nil, nil)
	envelope := orch.Process(context.Background(), testRecord())

	if !envelope.Success {
		t.Fatalf("Success = false, error = %+v", envelope.Error)
	}
	if envelope.OpportunityID != "opp-1" || envelope.OpportunityName != "Test Opportunity" {
		t.Errorf("identity fields wrong: %+v", envelope)
	}
	if envelope.EventType != "Create" {
		t.Errorf("EventType = %q, want Create", envelope.EventType)
	}
	if envelope.Analysis == nil {
		t.Fatal("Analysis missing from envelope")
	}
	if envelope.Outputs == nil || envelope.Outputs.AdaptiveCard == nil {
		t.Fatal("adaptive card missing from outputs")
	}
	if envelope.Outputs.PDFURL != nil || envelope.Outputs.RecordID != nil {
		t.Error("disabled capabilities should leave pdf_url and record id nil")
	}
	if envelope.Metadata == nil || envelope.Metadata.ModelUsed != "stub-model" {
		t.Errorf("Metadata = %+v", envelope.Metadata)
	}
	if envelope.Metadata.TeamsEvaluated != 1 {
		t.Errorf("TeamsEvaluated = %d, want 1", envelope.Metadata.TeamsEvaluated)
	}

	// Enrichment ran: directory lead appears in the recommendation.
	rec := envelope.Analysis.TeamRecommendations[0].(map[string]any)
	if rec["team_lead"] != "Jane Doe" {
		t.Errorf("recommendations not enriched: %v", rec)
	}
}

func TestProcessValidationError(t *testing.T) {
	orch := NewOrchestrator(&stubDirectory{}, &stubAnalyzer{}, nil, nil, nil)

	envelope := orch.Process(context.Background(), map[string]any{"name": "No ID"})

	if envelope.Success {
		t.Fatal("Success should be false")
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Error = %+v, want VALIDATION_ERROR", envelope.Error)
	}
	if envelope.OpportunityName != "No ID" {
		t.Errorf("OpportunityName = %q, want fallback from payload", envelope.OpportunityName)
	}
	if envelope.OpportunityID != "unknown" {
		t.Errorf("OpportunityID = %q, want unknown", envelope.OpportunityID)
	}
}

func TestProcessSearchError(t *testing.T) {
	directory := &stubDirectory{searchErr: errors.New("qdrant unreachable")}
	orch := NewOrchestrator(directory, &stubAnalyzer{analysis: minimalAnalysis()}, nil, nil, nil)

	envelope := orch.Process(context.Background(), testRecord())

	if envelope.Success || envelope.Error == nil || envelope.Error.Code != "PROCESSING_ERROR" {
		t.Errorf("Error = %+v, want PROCESSING_ERROR", envelope.Error)
	}
}

func TestProcessEmptySearchFallsBackToFullDirectory(t *testing.T) {
	directory := &stubDirectory{
		searchTeams: nil,
		allTeams:    []entity.DirectoryTeam{{Name: "ALPHA", Tower: "Data"}},
	}
	analyzer := &stubAnalyzer{analysis: minimalAnalysis()}
	orch := NewOrchestrator(directory, analyzer, nil, nil, nil)

	envelope := orch.Process(context.Background(), testRecord())

	if !directory.allCalled {
		t.Error("AllTeams fallback was not used")
	}
	if !envelope.Success {
		t.Fatalf("Success = false, error = %+v", envelope.Error)
	}
	if len(analyzer.gotTeams) != 1 {
		t.Errorf("analyzer got %d teams, want full directory", len(analyzer.gotTeams))
	}
}

func TestProcessAnalyzerError(t *testing.T) {
	directory := &stubDirectory{searchTeams: []entity.DirectoryTeam{{Name: "ALPHA"}}}
	analyzer := &stubAnalyzer{err: entity.ErrNoAnalysis}
	orch := NewOrchestrator(directory, analyzer, nil, nil, nil)

	envelope := orch.Process(context.Background(), testRecord())

	if envelope.Success || envelope.Error == nil || envelope.Error.Code != "AI_ANALYSIS_ERROR" {
		t.Errorf("Error = %+v, want AI_ANALYSIS_ERROR", envelope.Error)
	}
	if envelope.OpportunityID != "opp-1" {
		t.Errorf("OpportunityID = %q, want opp-1", envelope.OpportunityID)
	}
}

func TestProcessSinkFailureIsNonFatal(t *testing.T) {
	directory := &stubDirectory{searchTeams: []entity.DirectoryTeam{{Name: "ALPHA"}}}
	sink := &stubSink{err: errors.New("postgres down")}
	orch := NewOrchestrator(directory, &stubAnalyzer{analysis: minimalAnalysis()}, sink, nil, nil)

	envelope := orch.Process(context.Background(), testRecord())

	if !envelope.Success {
		t.Fatalf("sink failure must not fail the pipeline: %+v", envelope.Error)
	}
	if envelope.Outputs.RecordID != nil {
		t.Error("record id should be nil when save failed")
	}
}

func TestProcessSinkSuccessSetsRecordID(t *testing.T) {
	directory := &stubDirectory{searchTeams: []entity.DirectoryTeam{{Name: "ALPHA"}}}
	sink := &stubSink{}
	orch := NewOrchestrator(directory, &stubAnalyzer{analysis: minimalAnalysis()}, sink, nil, nil)

	envelope := orch.Process(context.Background(), testRecord())

	if !envelope.Success {
		t.Fatalf("Success = false: %+v", envelope.Error)
	}
	if envelope.Outputs.RecordID == nil {
		t.Fatal("record id missing")
	}
	id := *envelope.Outputs.RecordID
	const prefix = "opp-opp-1-"
	if len(id) != len(prefix)+14 || id[:len(prefix)] != prefix {
		t.Errorf("record id = %q, want %q + timestamp", id, prefix)
	}
}

func TestProcessTruncatesSearchQuery(t *testing.T) {
	long := make([]byte, 1200)
	for i := range long {
		long[i] = 'a'
	}
	record := testRecord()
	record["description"] = string(long)

	var gotQuery string
	directory := &queryRecordingDirectory{teams: []entity.DirectoryTeam{{Name: "ALPHA"}}, query: &gotQuery}
	orch := NewOrchestrator(directory, &stubAnalyzer{analysis: minimalAnalysis()}, nil, nil, nil)

	orch.Process(context.Background(), record)

	if len(gotQuery) != searchQueryLimit {
		t.Errorf("query length = %d, want %d", len(gotQuery), searchQueryLimit)
	}
}

func TestProcessSearchQueryKeepsRuneBoundary(t *testing.T) {
	record := testRecord()
	record["description"] = strings.Repeat("a", searchQueryLimit-1) + "ééé"

	var gotQuery string
	directory := &queryRecordingDirectory{teams: []entity.DirectoryTeam{{Name: "ALPHA"}}, query: &gotQuery}
	orch := NewOrchestrator(directory, &stubAnalyzer{analysis: minimalAnalysis()}, nil, nil, nil)

	orch.Process(context.Background(), record)

	if !utf8.ValidString(gotQuery) {
		t.Fatalf("truncated query is not valid UTF-8: % x", gotQuery[len(gotQuery)-4:])
	}
	if n := utf8.RuneCountInString(gotQuery); n != searchQueryLimit {
		t.Errorf("query rune count = %d, want %d", n, searchQueryLimit)
	}
	if !strings.HasSuffix(gotQuery, "é") {
		t.Errorf("query should end with the whole rune, got %q", gotQuery[len(gotQuery)-4:])
	}
}

type queryRecordingDirectory struct {
	teams []entity.DirectoryTeam
	query *string
}

func (d *queryRecordingDirectory) SearchTeams(ctx context.Context, query string, top int) ([]entity.DirectoryTeam, error) {
	*d.query = query
	return d.teams, nil
}

func (d *queryRecordingDirectory) AllTeams(ctx context.Context) ([]entity.DirectoryTeam, error) {
	return d.teams, nil
}
