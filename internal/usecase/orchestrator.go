package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"opportunity-agent/internal/domain/entity"
	"opportunity-agent/internal/domain/repository"
	"opportunity-agent/internal/render"
)

const (
	searchQueryLimit = 500
	directoryTopN    = 15
)

// Orchestrator runs the linear analysis pipeline:
// validate -> format -> search -> reason -> enrich -> persist -> pdf -> card.
// Validation and reasoning failures are fatal; persistence and PDF upload are
// best effort. No step is retried.
type Orchestrator struct {
	directory repository.DirectoryIndex
	analyzer  repository.Analyzer
	sink      repository.AnalysisSink // nil when persistence is disabled
	blobs     repository.BlobStore    // nil when PDF upload is disabled
	observer  StageObserver

	now func() time.Time
}

func NewOrchestrator(directory repository.DirectoryIndex, analyzer repository.Analyzer, sink repository.AnalysisSink, blobs repository.BlobStore, observer StageObserver) *Orchestrator {
	if observer == nil {
		observer = LogObserver{}
	}
	return &Orchestrator{
		directory: directory,
		analyzer:  analyzer,
		sink:      sink,
		blobs:     blobs,
		observer:  observer,
		now:       time.Now,
	}
}

// Process analyzes one flattened opportunity record and always returns an
// envelope; the Success flag tells the delivery layer which status to send.
func (o *Orchestrator) Process(ctx context.Context, record map[string]any) *entity.ResponseEnvelope {
	start := o.now()
	fallbackID, _ := record["opportunityid"].(string)
	fallbackName, _ := record["name"].(string)

	o.observer.Transition(fallbackID, StageValidating)
	opp, err := entity.ParseOpportunity(record)
	if err != nil {
		log.Printf("[ORCH] payload validation failed: %v", err)
		return o.errorEnvelope("VALIDATION_ERROR", fmt.Sprintf("error validating opportunity data: %v", err), fallbackID, fallbackName)
	}

	o.observer.Transition(opp.OpportunityID, StageFormatting)
	analysisText := opp.FormatForAnalysis()
	log.Printf("[ORCH] analysis text prepared: %d chars", len(analysisText))

	o.observer.Transition(opp.OpportunityID, StageSearching)
	query := truncateRunes(opp.CleanDescription(), searchQueryLimit)
	if query == "" {
		query = opp.Name
	}
	teams, err := o.directory.SearchTeams(ctx, query, directoryTopN)
	if err != nil {
		log.Printf("[ORCH] directory search failed: %v", err)
		return o.errorEnvelope("PROCESSING_ERROR", err.Error(), opp.OpportunityID, opp.Name)
	}
	if len(teams) == 0 {
		log.Printf("[ORCH] no teams matched, falling back to full directory")
		teams, err = o.directory.AllTeams(ctx)
		if err != nil {
			log.Printf("[ORCH] directory listing failed: %v", err)
			return o.errorEnvelope("PROCESSING_ERROR", err.Error(), opp.OpportunityID, opp.Name)
		}
	}
	log.Printf("[ORCH] %d candidate teams", len(teams))

	o.observer.Transition(opp.OpportunityID, StageReasoning)
	analysis, err := o.analyzer.Analyze(ctx, analysisText, teams)
	if err != nil || analysis == nil {
		log.Printf("[ORCH] reasoning produced no analysis: %v", err)
		return o.errorEnvelope("AI_ANALYSIS_ERROR", "the reasoning analysis could not be completed", opp.OpportunityID, opp.Name)
	}

	o.observer.Transition(opp.OpportunityID, StageEnriching)
	analysis.TeamRecommendations = EnrichRecommendations(analysis.TeamRecommendations, teams)

	processedAt := o.now().UTC()

	o.observer.Transition(opp.OpportunityID, StagePersisting)
	var recordID *string
	if o.sink != nil {
		rec := entity.AnalysisRecord{
			ID:              fmt.Sprintf("opp-%s-%s", opp.OpportunityID, processedAt.Format("20060102150405")),
			OpportunityID:   opp.OpportunityID,
			OpportunityName: opp.Name,
			EventType:       opp.EventType(),
			Analysis:        analysis,
			ProcessedAt:     processedAt.Format(time.RFC3339),
			Source:          "workflow",
		}
		if id, err := o.sink.SaveAnalysis(ctx, rec); err != nil {
			log.Printf("[ORCH] analysis record save failed (non-fatal): %v", err)
		} else {
			recordID = &id
			log.Printf("[ORCH] analysis record saved: %s", id)
		}
	} else {
		log.Printf("[ORCH] persistence disabled, skipping save")
	}

	o.observer.Transition(opp.OpportunityID, StageRenderingPDF)
	var pdfURL *string
	if o.blobs != nil {
		data, err := render.AnalysisPDF("Analysis: "+opp.Name, analysis, render.PDFMetadata{
			OpportunityID:   opp.OpportunityID,
			OpportunityName: opp.Name,
			GeneratedAt:     processedAt,
		})
		if err != nil {
			log.Printf("[ORCH] PDF generation failed (non-fatal): %v", err)
		} else {
			path := fmt.Sprintf("opportunity-analysis/%s/%s.pdf", opp.OpportunityID, processedAt.Format("20060102_150405"))
			if url, err := o.blobs.UploadPDF(ctx, data, path); err != nil {
				log.Printf("[ORCH] PDF upload failed (non-fatal): %v", err)
			} else {
				pdfURL = &url
				log.Printf("[ORCH] PDF uploaded: %s", path)
			}
		}
	} else {
		log.Printf("[ORCH] blob storage disabled, skipping PDF")
	}

	o.observer.Transition(opp.OpportunityID, StageRenderingCard)
	var cardPDFURL string
	if pdfURL != nil {
		cardPDFURL = *pdfURL
	}
	card := render.OpportunityCard(opp.OpportunityID, opp.Name, analysis, cardPDFURL, processedAt)

	o.observer.Transition(opp.OpportunityID, StageDone)
	elapsed := o.now().Sub(start).Seconds()

	return &entity.ResponseEnvelope{
		Success:         true,
		OpportunityID:   opp.OpportunityID,
		OpportunityName: opp.Name,
		EventType:       opp.EventType(),
		Analysis:        analysis,
		Outputs: &entity.Outputs{
			AdaptiveCard: card,
			PDFURL:       pdfURL,
			RecordID:     recordID,
		},
		Metadata: &entity.Metadata{
			ProcessedAt:           processedAt.Format(time.RFC3339),
			ProcessingTimeSeconds: math.Round(elapsed*100) / 100,
			ModelUsed:             o.analyzer.Model(),
			TeamsEvaluated:        len(teams),
		},
	}
}

func (o *Orchestrator) errorEnvelope(code, message, opportunityID, opportunityName string) *entity.ResponseEnvelope {
	if opportunityID == "" {
		opportunityID = "unknown"
	}
	if opportunityName == "" {
		opportunityName = "Unknown"
	}
	return &entity.ResponseEnvelope{
		Success:         false,
		OpportunityID:   opportunityID,
		OpportunityName: opportunityName,
		Error:           &entity.ErrorInfo{Code: code, Message: message},
		Metadata: &entity.Metadata{
			ProcessedAt: o.now().UTC().Format(time.RFC3339),
		},
	}
}

// truncateRunes cuts s to at most max characters without splitting a
// multibyte rune. The upstream fields are free text; a byte slice here
// would produce invalid UTF-8.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
