package client

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Reasoning models are not guaranteed to emit pure JSON: they wrap answers in
// thinking blocks, markdown fences, and trailing commentary. ExtractJSON runs
// an ordered list of parser strategies until one produces a JSON object, and
// returns nil when none does. Callers treat nil as "no analysis available".

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	jsonFenceRe  = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFenceRe   = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

var extractStrategies = []func(string) map[string]any{
	parseDirect,
	parseWithoutThink,
	parseJSONFence,
	parseAnyFence,
	parseBraceSlice,
}

func ExtractJSON(text string) map[string]any {
	for _, strategy := range extractStrategies {
		if m := strategy(text); m != nil {
			return m
		}
	}
	return nil
}

func parseObject(s string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

func parseDirect(text string) map[string]any {
	return parseObject(text)
}

func stripThink(text string) string {
	return strings.TrimSpace(thinkBlockRe.ReplaceAllString(text, ""))
}

func parseWithoutThink(text string) map[string]any {
	return parseObject(stripThink(text))
}

func parseJSONFence(text string) map[string]any {
	if match := jsonFenceRe.FindStringSubmatch(stripThink(text)); match != nil {
		return parseObject(match[1])
	}
	return nil
}

func parseAnyFence(text string) map[string]any {
	if match := anyFenceRe.FindStringSubmatch(stripThink(text)); match != nil {
		return parseObject(match[1])
	}
	return nil
}

func parseBraceSlice(text string) map[string]any {
	cleaned := stripThink(text)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil
	}
	return parseObject(cleaned[start : end+1])
}
