package entity

// ResponseEnvelope is the terminal artifact of the pipeline, serialized as
// the HTTP response body. Success and error responses share the shape; error
// responses carry Error and omit Analysis/Outputs.
type ResponseEnvelope struct {
	Success         bool       `json:"success"`
	OpportunityID   string     `json:"opportunity_id"`
	OpportunityName string     `json:"opportunity_name"`
	EventType       string     `json:"event_type,omitempty"`
	Analysis        *Analysis  `json:"analysis,omitempty"`
	Outputs         *Outputs   `json:"outputs,omitempty"`
	Error           *ErrorInfo `json:"error,omitempty"`
	Metadata        *Metadata  `json:"metadata,omitempty"`
}

type Outputs struct {
	AdaptiveCard map[string]any `json:"adaptive_card"`
	PDFURL       *string        `json:"pdf_url"`
	// Field name kept from the previous document-store integration so the
	// existing workflow consumers keep parsing the response.
	RecordID *string `json:"cosmos_record_id"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type Metadata struct {
	ProcessedAt           string  `json:"processed_at"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds,omitempty"`
	ModelUsed             string  `json:"model_used,omitempty"`
	TeamsEvaluated        int     `json:"teams_evaluated,omitempty"`
}

// AnalysisRecord is the derived document persisted by the sink. It is not the
// inbound payload: only the identification fields and the finished analysis
// survive the request.
type AnalysisRecord struct {
	ID              string    `json:"id"`
	OpportunityID   string    `json:"opportunity_id"`
	OpportunityName string    `json:"opportunity_name"`
	EventType       string    `json:"event_type"`
	Analysis        *Analysis `json:"analysis"`
	ProcessedAt     string    `json:"processed_at"`
	Source          string    `json:"source"`
}
