package usecase

import "log"

// Stage names the orchestrator's pipeline states.
type Stage string

const (
	StageValidating    Stage = "validating"
	StageFormatting    Stage = "formatting"
	StageSearching     Stage = "searching"
	StageReasoning     Stage = "reasoning"
	StageEnriching     Stage = "enriching"
	StagePersisting    Stage = "persisting"
	StageRenderingPDF  Stage = "rendering_pdf"
	StageRenderingCard Stage = "rendering_card"
	StageDone          Stage = "done"
)

// StageObserver receives one event per pipeline stage transition.
type StageObserver interface {
	Transition(opportunityID string, stage Stage)
}

// LogObserver is the default observer; it writes stage transitions to the
// process log with the orchestrator prefix.
type LogObserver struct{}

func (LogObserver) Transition(opportunityID string, stage Stage) {
	log.Printf("[ORCH] %s: stage=%s", opportunityID, stage)
}
