package render

import (
	"fmt"
	"log"
	"strings"
	"time"

	"opportunity-agent/internal/domain/entity"
)

// Adaptive Card limits imposed by the chat client. Free text is truncated and
// lists capped so the card stays renderable on desktop and mobile.
const (
	maxSummaryChars  = 400
	maxItemChars     = 100
	maxJustification = 150
	maxTeamsOnCard   = 4
	maxRisksOnCard   = 3
	maxReqsOnCard    = 5
	maxRecsOnCard    = 4
	maxStepsOnCard   = 4
	maxQuestionsCard = 3
)

const cardSchema = "http://adaptivecards.io/schemas/adaptive-card.json"

// OpportunityCard renders the enriched analysis as an Adaptive Card 1.4
// document. Pure: identical inputs (including generatedAt) produce identical
// cards. A panic inside rendering degrades to a minimal error card instead of
// aborting the pipeline.
func OpportunityCard(opportunityID, opportunityName string, analysis *entity.Analysis, pdfURL string, generatedAt time.Time) (card map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CARD] render failed: %v", r)
			card = fallbackCard(opportunityName, fmt.Sprintf("%v", r))
		}
	}()

	if analysis == nil {
		analysis = &entity.Analysis{}
	}

	body := []any{
		cardHeader(opportunityID, opportunityName, analysis.OverallRiskLevel, generatedAt),
		summarySection(analysis.ExecutiveSummary),
		metricsSection(analysis),
	}

	if section := teamsSection(analysis.TeamRecommendations); section != nil {
		body = append(body, section)
	}
	if section := bulletSection("KEY REQUIREMENTS", "• ", analysis.KeyRequirements, maxReqsOnCard); section != nil {
		body = append(body, section)
	}
	if section := risksSection(analysis.Risks); section != nil {
		body = append(body, section)
	}
	if section := bulletSection("RECOMMENDATIONS", "→ ", analysis.Recommendations, maxRecsOnCard); section != nil {
		body = append(body, section)
	}
	if section := questionsSection(analysis.ClarificationQuestions); section != nil {
		body = append(body, section)
	}
	if section := stepsSection(analysis.NextSteps); section != nil {
		body = append(body, section)
	}
	if pdfURL != "" {
		body = append(body, map[string]any{
			"type": "TextBlock", "text": "[Download full analysis (PDF)](" + pdfURL + ")",
			"size": "Small", "spacing": "Medium", "wrap": true,
		})
	}
	body = append(body, disclaimerSection(), footerSection(generatedAt))

	return map[string]any{
		"type":    "AdaptiveCard",
		"$schema": cardSchema,
		"version": "1.4",
		"body":    body,
		"msteams": map[string]any{"width": "Full"},
	}
}

func cardHeader(opportunityID, opportunityName, riskLevel string, generatedAt time.Time) map[string]any {
	return map[string]any{
		"type": "Container", "style": "emphasis", "bleed": true, "spacing": "None",
		"items": []any{
			map[string]any{
				"type": "TextBlock", "text": "OPPORTUNITY ANALYSIS",
				"weight": "Bolder", "size": "Medium", "color": "Accent", "spacing": "None",
			},
			map[string]any{
				"type": "TextBlock", "text": truncate(opportunityName, maxItemChars),
				"weight": "Bolder", "size": "Large", "wrap": true, "spacing": "Small", "color": "Light",
			},
			map[string]any{
				"type": "ColumnSet", "spacing": "Medium",
				"columns": []any{
					autoColumn(subtleText("ID: " + opportunityID)),
					map[string]any{
						"type": "Column", "width": "stretch",
						"items": []any{map[string]any{
							"type": "TextBlock", "text": generatedAt.Format("02/01/2006 15:04"),
							"size": "Small", "isSubtle": true, "horizontalAlignment": "Center",
						}},
					},
					autoColumn(map[string]any{
						"type": "TextBlock", "text": "Risk: " + riskBadge(riskLevel),
						"weight": "Bolder", "size": "Small", "horizontalAlignment": "Right",
					}),
				},
			},
		},
	}
}

func summarySection(summary string) map[string]any {
	if summary == "" {
		summary = "Analysis in progress"
	}
	return map[string]any{
		"type": "Container", "spacing": "Medium",
		"items": []any{
			sectionTitle("EXECUTIVE SUMMARY"),
			map[string]any{
				"type": "TextBlock", "text": truncate(summary, maxSummaryChars),
				"wrap": true, "size": "Small", "spacing": "Small",
			},
		},
	}
}

func metricsSection(analysis *entity.Analysis) map[string]any {
	duration := "TBD"
	if analysis.TimelineEstimate != nil && analysis.TimelineEstimate.TotalDuration != "" {
		duration = analysis.TimelineEstimate.TotalDuration
	}
	effort := "TBD"
	complexity := "Medium"
	if e := analysis.EffortEstimate; e != nil {
		if e.MinHours > 0 && e.MaxHours > 0 {
			effort = fmt.Sprintf("%d-%dh", e.MinHours, e.MaxHours)
		}
		if e.Complexity != "" {
			complexity = e.Complexity
		}
	}
	confidencePct := int(analysis.Confidence * 100)
	confidenceColor := "Warning"
	if confidencePct >= 70 {
		confidenceColor = "Good"
	}

	return map[string]any{
		"type": "Container", "style": "emphasis", "spacing": "Medium",
		"items": []any{map[string]any{
			"type": "ColumnSet",
			"columns": []any{
				metricColumn("Duration", duration, ""),
				metricColumn("Effort", effort, ""),
				metricColumn("Complexity", complexity, ""),
				metricColumn("Confidence", fmt.Sprintf("%d%%", confidencePct), confidenceColor),
			},
		}},
	}
}

func metricColumn(label, value, color string) map[string]any {
	valueBlock := map[string]any{
		"type": "TextBlock", "text": value,
		"weight": "Bolder", "size": "Small", "horizontalAlignment": "Center", "wrap": true,
	}
	if color != "" {
		valueBlock["color"] = color
	}
	return map[string]any{
		"type": "Column", "width": "1",
		"items": []any{
			map[string]any{
				"type": "TextBlock", "text": label,
				"size": "Small", "isSubtle": true, "horizontalAlignment": "Center",
			},
			valueBlock,
		},
	}
}

func teamsSection(recommendations []any) map[string]any {
	items := []any{sectionTitle("RECOMMENDED TEAMS")}
	count := 0
	for _, raw := range recommendations {
		if count >= maxTeamsOnCard {
			break
		}
		rec, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, teamContainer(rec, count))
		count++
	}
	if count == 0 {
		return nil
	}
	return map[string]any{"type": "Container", "spacing": "Medium", "items": items}
}

func teamContainer(rec map[string]any, index int) map[string]any {
	name, _ := rec["team_name"].(string)
	if name == "" {
		name = "Team"
	}
	tower, _ := rec["tower"].(string)
	score, _ := rec["relevance_score"].(float64)
	scorePct := int(score * 100)

	scoreColor := "Default"
	badge := ""
	switch {
	case scorePct >= 80:
		scoreColor = "Good"
		badge = "TOP MATCH"
	case scorePct >= 60:
		scoreColor = "Warning"
		badge = "MATCH"
	}

	nameColor := "Default"
	style := "default"
	if index == 0 {
		nameColor = "Accent"
		style = "emphasis"
	}

	nameText := "**" + name + "**"
	if badge != "" {
		nameText += " · " + badge
	}

	items := []any{
		map[string]any{
			"type": "ColumnSet",
			"columns": []any{
				map[string]any{
					"type": "Column", "width": "stretch",
					"items": []any{
						map[string]any{
							"type": "TextBlock", "text": nameText,
							"wrap": true, "size": "Medium", "color": nameColor,
						},
						map[string]any{
							"type": "TextBlock", "text": tower,
							"size": "Small", "isSubtle": true, "spacing": "None",
						},
					},
				},
				map[string]any{
					"type": "Column", "width": "auto", "verticalContentAlignment": "Center",
					"items": []any{map[string]any{
						"type": "TextBlock", "text": fmt.Sprintf("**%d%%**", scorePct),
						"size": "Large", "weight": "Bolder", "color": scoreColor, "horizontalAlignment": "Right",
					}},
				},
			},
		},
	}

	if lead, _ := rec["team_lead"].(string); lead != "" {
		leadText := lead
		if email, _ := rec["team_lead_email"].(string); email != "" {
			leadText += " · " + email
		}
		items = append(items, map[string]any{
			"type": "TextBlock", "text": leadText,
			"size": "Small", "isSubtle": true, "spacing": "Small",
		})
	}
	if justification, _ := rec["justification"].(string); justification != "" {
		items = append(items, map[string]any{
			"type": "TextBlock", "text": "_" + truncate(justification, maxJustification) + "_",
			"wrap": true, "size": "Small", "spacing": "Small",
		})
	}

	return map[string]any{
		"type": "Container", "style": style, "spacing": "Medium",
		"separator": index > 0, "items": items,
	}
}

func risksSection(risks []entity.Risk) map[string]any {
	if len(risks) == 0 {
		return nil
	}
	items := []any{sectionTitle("IDENTIFIED RISKS")}
	for i, risk := range risks {
		if i >= maxRisksOnCard {
			break
		}
		riskItems := []any{
			map[string]any{
				"type": "ColumnSet",
				"columns": []any{
					autoColumn(map[string]any{
						"type": "TextBlock", "text": riskBadge(risk.Level),
						"size": "Small", "weight": "Bolder",
					}),
					map[string]any{
						"type": "Column", "width": "stretch",
						"items": []any{map[string]any{
							"type": "TextBlock", "text": truncate(risk.Description, maxJustification),
							"wrap": true, "size": "Small",
						}},
					},
				},
			},
		}
		if risk.Mitigation != "" {
			riskItems = append(riskItems, map[string]any{
				"type": "TextBlock", "text": "_Mitigation: " + truncate(risk.Mitigation, maxItemChars) + "_",
				"wrap": true, "size": "Small", "isSubtle": true, "spacing": "Small",
			})
		}
		items = append(items, map[string]any{
			"type": "Container", "style": riskStyle(risk.Level), "spacing": "Small", "items": riskItems,
		})
	}
	return map[string]any{"type": "Container", "spacing": "Medium", "items": items}
}

func bulletSection(title, bullet string, lines []string, max int) map[string]any {
	var kept []string
	for _, line := range lines {
		if len(kept) >= max {
			break
		}
		if line == "" {
			continue
		}
		kept = append(kept, bullet+truncate(line, maxItemChars))
	}
	if len(kept) == 0 {
		return nil
	}
	return map[string]any{
		"type": "Container", "spacing": "Medium",
		"items": []any{
			sectionTitle(title),
			map[string]any{
				"type": "TextBlock", "text": strings.Join(kept, "\n"),
				"wrap": true, "size": "Small", "spacing": "Small",
			},
		},
	}
}

func questionsSection(questions []string) map[string]any {
	var kept []string
	for _, q := range questions {
		if len(kept) >= maxQuestionsCard {
			break
		}
		if q == "" {
			continue
		}
		kept = append(kept, "? "+truncate(q, maxItemChars))
	}
	if len(kept) == 0 {
		return nil
	}
	return map[string]any{
		"type": "Container", "style": "warning", "spacing": "Medium",
		"items": []any{
			map[string]any{"type": "TextBlock", "text": "POINTS TO CLARIFY", "weight": "Bolder", "size": "Small"},
			map[string]any{
				"type": "TextBlock", "text": strings.Join(kept, "\n"),
				"wrap": true, "size": "Small", "spacing": "Small",
			},
		},
	}
}

func stepsSection(steps []string) map[string]any {
	var kept []string
	for i, step := range steps {
		if len(kept) >= maxStepsOnCard {
			break
		}
		if step == "" {
			continue
		}
		kept = append(kept, fmt.Sprintf("%d. %s", i+1, truncate(step, maxItemChars)))
	}
	if len(kept) == 0 {
		return nil
	}
	return map[string]any{
		"type": "Container", "spacing": "Medium",
		"items": []any{
			sectionTitle("NEXT STEPS"),
			map[string]any{
				"type": "TextBlock", "text": strings.Join(kept, "\n"),
				"wrap": true, "size": "Small", "spacing": "Small",
			},
		},
	}
}

func disclaimerSection() map[string]any {
	return map[string]any{
		"type": "Container", "style": "warning", "spacing": "Large",
		"items": []any{
			map[string]any{"type": "TextBlock", "text": "**IMPORTANT NOTICE**", "weight": "Bolder", "size": "Small"},
			map[string]any{
				"type": "TextBlock",
				"text": "This analysis was generated automatically. Estimates, recommendations and team assignments are suggestions based on the available information and **may not be accurate**. Validate with the tower leads before taking decisions.",
				"wrap": true, "size": "Small", "spacing": "Small",
			},
		},
	}
}

func footerSection(generatedAt time.Time) map[string]any {
	return map[string]any{
		"type": "Container", "separator": true, "spacing": "Medium",
		"items": []any{map[string]any{
			"type": "ColumnSet",
			"columns": []any{
				map[string]any{
					"type": "Column", "width": "stretch",
					"items": []any{subtleText("Automated opportunity analysis")},
				},
				autoColumn(map[string]any{
					"type": "TextBlock", "text": generatedAt.Format("02/01/2006 15:04"),
					"size": "Small", "isSubtle": true, "horizontalAlignment": "Right",
				}),
			},
		}},
	}
}

func fallbackCard(opportunityName, errMsg string) map[string]any {
	return map[string]any{
		"type":    "AdaptiveCard",
		"$schema": cardSchema,
		"version": "1.4",
		"body": []any{map[string]any{
			"type": "Container", "style": "attention",
			"items": []any{
				map[string]any{"type": "TextBlock", "text": "Analysis rendering error", "weight": "Bolder", "size": "Medium"},
				map[string]any{"type": "TextBlock", "text": "Opportunity: " + opportunityName, "wrap": true, "size": "Small"},
				map[string]any{"type": "TextBlock", "text": "Error: " + errMsg, "wrap": true, "size": "Small", "isSubtle": true},
			},
		}},
	}
}

func sectionTitle(text string) map[string]any {
	return map[string]any{
		"type": "TextBlock", "text": text,
		"weight": "Bolder", "size": "Small", "color": "Accent",
	}
}

func subtleText(text string) map[string]any {
	return map[string]any{"type": "TextBlock", "text": text, "size": "Small", "isSubtle": true}
}

func autoColumn(item map[string]any) map[string]any {
	return map[string]any{"type": "Column", "width": "auto", "items": []any{item}}
}

// riskBadge maps a risk level to the card badge vocabulary.
func riskBadge(level string) string {
	switch strings.ToLower(level) {
	case "high", "critical":
		return "HIGH"
	case "medium", "moderate":
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// riskStyle maps a risk level to the container color style.
func riskStyle(level string) string {
	switch strings.ToLower(level) {
	case "high", "critical":
		return "attention"
	case "medium", "moderate":
		return "warning"
	default:
		return "good"
	}
}

// truncate cuts text to at most max characters, counting runes so multibyte
// text is never split mid-sequence.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max > 3 {
		return string(runes[:max-3]) + "..."
	}
	return string(runes[:max])
}
