package client

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"opportunity-agent/internal/domain/entity"

	"google.golang.org/genai"
)

const (
	// Opportunity text beyond this is noise for the model and burns context.
	maxOpportunityChars = 25000
	maxSkillsPerTeam    = 10

	analyzeTimeout = 90 * time.Second

	systemInstruction = "You are an expert analyst of commercial opportunities and enterprise technical proposals."
)

// GeminiAnalyzer sends one fixed-shape analysis prompt per opportunity and
// parses the strict JSON contract out of the model's free-form response.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

func NewGeminiAnalyzer(client *genai.Client, model string) *GeminiAnalyzer {
	return &GeminiAnalyzer{client: client, model: model}
}

func (g *GeminiAnalyzer) Model() string { return g.model }

// Analyze runs a single reasoning call. It returns entity.ErrNoAnalysis when
// the model response contains no parseable JSON object; there are no retries.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, opportunityText string, teams []entity.DirectoryTeam) (*entity.Analysis, error) {
	callCtx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	prompt := buildAnalysisPrompt(opportunityText, teams)

	resp, err := g.client.Models.GenerateContent(callCtx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
		MaxOutputTokens:   12000,
	})
	if err != nil {
		return nil, fmt.Errorf("reasoning request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	log.Printf("[GEMINI] response received: %d chars", len(text))

	raw := ExtractJSON(text)
	if raw == nil {
		log.Printf("[GEMINI] no parseable JSON in response (first 200 chars: %.200s)", text)
		return nil, entity.ErrNoAnalysis
	}

	return entity.AnalysisFromMap(raw), nil
}

func buildAnalysisPrompt(opportunityText string, teams []entity.DirectoryTeam) string {
	if len(opportunityText) > maxOpportunityChars {
		if runes := []rune(opportunityText); len(runes) > maxOpportunityChars {
			// Cut on a rune boundary; the CRM fields carry accented text.
			opportunityText = string(runes[:maxOpportunityChars])
		}
	}

	var b strings.Builder
	b.WriteString("Analyze the following opportunity in depth and produce a complete analysis to support commercial and technical decisions.\n\n")
	b.WriteString("OPPORTUNITY:\n")
	b.WriteString(opportunityText)
	b.WriteString("\n\nAVAILABLE TEAMS/TOWERS:\n")
	b.WriteString(formatTeamsContext(teams))
	b.WriteString("\nINSTRUCTIONS:\nAnalyze the opportunity following this EXACT JSON format:\n\n")
	b.WriteString(analysisSchema)
	b.WriteString(`
IMPORTANT RULES:
1. Respond ONLY with the JSON, no text before or after.
2. For "required_towers", use EXACTLY the tower names from the available teams list.
3. For each recommended team, COPY EXACTLY team_lead and team_lead_email from the matching team.
4. Be realistic with estimates based on the described complexity.
5. Identify real risks with practical mitigations.
6. Clarification questions must help refine the proposal.
7. The Quality Assurance and PMO towers are MANDATORY for medium/large projects.
`)
	return b.String()
}

func formatTeamsContext(teams []entity.DirectoryTeam) string {
	var b strings.Builder
	for _, t := range teams {
		fmt.Fprintf(&b, "- %s (%s)\n", t.Name, t.Tower)
		fmt.Fprintf(&b, "  ID: %s\n", t.ID)
		fmt.Fprintf(&b, "  Lead: %s\n", t.Leader)
		fmt.Fprintf(&b, "  Email: %s\n", t.LeaderEmail)
		if len(t.Skills) > 0 {
			skills := t.Skills
			if len(skills) > maxSkillsPerTeam {
				skills = skills[:maxSkillsPerTeam]
			}
			fmt.Fprintf(&b, "  Skills: %s\n", strings.Join(skills, ", "))
		}
		fmt.Fprintf(&b, "  Description: %s\n\n", t.Description)
	}
	return b.String()
}

const analysisSchema = `{
  "executive_summary": "Concise executive summary of the analysis (3-4 paragraphs): what the client requests, estimated complexity, viability and overall recommendation.",
  "key_requirements": ["Key requirement 1", "Key requirement 2", "Key requirement 3"],
  "required_towers": ["Tower NAME1", "Tower NAME2"],
  "team_recommendations": [
    {
      "tower": "Tower NAME",
      "team_name": "NAME",
      "team_lead": "Lead name",
      "team_lead_email": "email@example.com",
      "relevance_score": 0.85,
      "matched_skills": ["skill1", "skill2"],
      "justification": "Why this team is needed for this opportunity",
      "estimated_involvement": "Full-time / Part-time / Advisory"
    }
  ],
  "risks": [
    {
      "category": "Technical/Commercial/Resourcing/Timeline",
      "description": "Risk description",
      "level": "Low/Medium/High/Critical",
      "probability": 0.6,
      "impact": "Potential impact",
      "mitigation": "Mitigation strategy"
    }
  ],
  "overall_risk_level": "Low/Medium/High",
  "timeline_estimate": {
    "total_duration": "X-Y months",
    "phases": [
      {"phase_name": "Discovery & Design", "duration": "X weeks", "activities": ["Activity 1", "Activity 2"]},
      {"phase_name": "Development", "duration": "X months", "activities": ["Activity 1", "Activity 2"]},
      {"phase_name": "Testing & QA", "duration": "X weeks", "activities": ["Activity 1", "Activity 2"]},
      {"phase_name": "Deployment & Go-Live", "duration": "X weeks", "activities": ["Activity 1", "Activity 2"]}
    ]
  },
  "effort_estimate": {
    "min_hours": 500,
    "max_hours": 800,
    "complexity": "Low/Medium/High/Very High",
    "team_size_recommended": "X-Y people",
    "assumptions": ["Assumption 1", "Assumption 2"]
  },
  "recommendations": ["Strategic or tactical recommendation 1", "Recommendation 2"],
  "clarification_questions": ["Question needing client clarification 1", "Question 2"],
  "next_steps": ["Next step 1", "Next step 2", "Next step 3"],
  "analysis_confidence": 0.80
}
`
