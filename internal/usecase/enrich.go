package usecase

import (
	"strings"

	"opportunity-agent/internal/domain/entity"
)

// EnrichRecommendations reconciles model-suggested teams against the
// directory records returned by the search. The directory is authoritative
// for tower, team name, lead and lead email; the model keeps ownership of
// relevance, matched skills, justification and involvement. Matching is
// case-insensitive exact, by team name first and tower second. Entries that
// are not JSON objects are skipped; unmatched objects pass through verbatim.
// Output order follows input order.
func EnrichRecommendations(recommendations []any, teams []entity.DirectoryTeam) []any {
	lookup := make(map[string]entity.DirectoryTeam, len(teams)*2)
	for _, team := range teams {
		if name := strings.ToUpper(team.Name); name != "" {
			lookup[name] = team
		}
		if tower := strings.ToUpper(team.Tower); tower != "" {
			lookup[tower] = team
		}
	}

	enriched := make([]any, 0, len(recommendations))
	for _, raw := range recommendations {
		rec, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		team, found := lookup[strings.ToUpper(recString(rec, "team_name"))]
		if !found {
			team, found = lookup[strings.ToUpper(recString(rec, "tower"))]
		}
		if !found {
			enriched = append(enriched, rec)
			continue
		}

		enriched = append(enriched, map[string]any{
			"tower":                 orElse(team.Tower, recString(rec, "tower")),
			"team_name":             orElse(team.Name, recString(rec, "team_name")),
			"team_lead":             orElse(team.Leader, recString(rec, "team_lead")),
			"team_lead_email":       orElse(team.LeaderEmail, recString(rec, "team_lead_email")),
			"relevance_score":       entity.ClampScore(recScore(rec, "relevance_score", 0.8)),
			"matched_skills":        recList(rec, "matched_skills"),
			"justification":         recString(rec, "justification"),
			"estimated_involvement": recString(rec, "estimated_involvement"),
		})
	}
	return enriched
}

func recString(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}

func recScore(rec map[string]any, key string, fallback float64) float64 {
	if v, ok := rec[key].(float64); ok {
		return v
	}
	return fallback
}

func recList(rec map[string]any, key string) []any {
	if v, ok := rec[key].([]any); ok {
		return v
	}
	return []any{}
}

func orElse(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
