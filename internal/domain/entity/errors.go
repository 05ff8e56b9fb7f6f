package entity

import "errors"

// Standard domain errors
var (
	ErrMissingOpportunityID = errors.New("payload must contain 'opportunityid' (inside 'body' or at the top level)")
	ErrNoAnalysis           = errors.New("reasoning model returned no usable analysis")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded: too many requests for this caller")
	ErrEmptyPayload         = errors.New("request payload is empty")
)
