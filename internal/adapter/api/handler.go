package api

import (
	"encoding/json"
	"log"
	"strings"

	"opportunity-agent/internal/domain/entity"
	"opportunity-agent/internal/domain/repository"
	"opportunity-agent/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type AnalyzeHandler struct {
	orchestrator *usecase.Orchestrator
	limiter      repository.RequestLimiter // nil when rate limiting is disabled
}

func NewAnalyzeHandler(orch *usecase.Orchestrator, limiter repository.RequestLimiter) *AnalyzeHandler {
	return &AnalyzeHandler{orchestrator: orch, limiter: limiter}
}

// HandleAnalyze is the single entry point for the analysis workflow. Request
// shape errors map to 4xx with a machine-readable code; pipeline failures are
// reported by the orchestrator inside a 500 envelope.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[API] panic recovered: %v", r)
			_ = errorResponse(c, 500, "INTERNAL_ERROR", "unexpected internal error", "panic")
		}
	}()

	if c.Method() != fiber.MethodPost {
		return errorResponse(c, 405, "METHOD_NOT_ALLOWED", "use POST to submit an opportunity", "")
	}

	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return errorResponse(c, 400, "EMPTY_PAYLOAD", entity.ErrEmptyPayload.Error(), "")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return errorResponse(c, 400, "INVALID_JSON", "request body is not valid JSON", "")
	}

	record := entity.FlattenPayload(payload)
	if _, err := entity.ParseOpportunity(record); err != nil {
		return errorResponse(c, 400, "MISSING_OPPORTUNITY_ID", err.Error(), "")
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(c.Context(), callerKey(record, c.IP()))
		if err != nil {
			// Limiter outage must not block the workflow.
			log.Printf("[API] rate limiter unavailable, allowing request: %v", err)
		} else if !allowed {
			return errorResponse(c, 429, "RATE_LIMITED", entity.ErrRateLimitExceeded.Error(), "")
		}
	}

	envelope := h.orchestrator.Process(c.Context(), record)
	status := 200
	if !envelope.Success {
		status = 500
	}
	return c.Status(status).JSON(envelope)
}

// callerKey identifies the caller for rate limiting. The payload routing ids
// survive NAT and proxy aggregation, so they win over the client address.
func callerKey(record map[string]any, ip string) string {
	if id, _ := record["teams_id"].(string); id != "" {
		return id
	}
	if id, _ := record["channel_id"].(string); id != "" {
		return id
	}
	return ip
}

func errorResponse(c *fiber.Ctx, status int, code, message, errType string) error {
	if errType == "" {
		errType = "request_error"
	}
	return c.Status(status).JSON(entity.ResponseEnvelope{
		Success: false,
		Error:   &entity.ErrorInfo{Code: code, Message: message, Type: errType},
	})
}
