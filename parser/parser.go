package parser

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"civicfix-backend/models"
)

// rawClassification mirrors the classifier's JSON output with loose types so
// a model returning "severity_score": 7.0 or omitting fields still decodes.
type rawClassification struct {
	IssueDetected     *bool   `json:"issue_detected"`
	Type              string  `json:"type"`
	SeverityScore     float64 `json:"severity_score"`
	DangerReason      string  `json:"danger_reason"`
	RecommendedAction string  `json:"recommended_action"`
}

// typeIndex maps folded issue-type spellings ("suspiciousfake", "garbagedump")
// onto their canonical values.
var typeIndex = func() map[string]string {
	m := make(map[string]string, len(models.IssueTypes))
	for _, t := range models.IssueTypes {
		m[foldType(t)] = t
	}
	return m
}()

// foldType lowercases and strips everything but letters so spelling variants
// like "Suspicious/Fake", "SuspiciousFake" and "suspicious fake" collide.
func foldType(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks.
func ExtractJSONFromMarkdown(response string) string {
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find a JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseClassification parses raw classifier text into a ClassificationResult.
// The classifier's output is untrusted: the issue type is folded onto the
// known enum (unknown values become Other) and the severity score is clamped
// into [1,10]. A decode failure returns an error; callers fall back to
// Fallback() rather than surfacing it.
func ParseClassification(response string) (models.ClassificationResult, error) {
	cleaned := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	var raw rawClassification
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return models.ClassificationResult{}, errors.New("failed to parse classifier JSON: " + err.Error())
	}

	result := models.ClassificationResult{
		Type:              models.TypeOther,
		SeverityScore:     clampSeverity(raw.SeverityScore),
		DangerReason:      strings.TrimSpace(raw.DangerReason),
		RecommendedAction: strings.TrimSpace(raw.RecommendedAction),
	}
	if raw.IssueDetected != nil {
		result.IssueDetected = *raw.IssueDetected
	}
	if canonical, ok := typeIndex[foldType(raw.Type)]; ok && strings.TrimSpace(raw.Type) != "" {
		result.Type = canonical
	}
	return result, nil
}

// Fallback is the deterministic record used when the classifier call fails or
// returns something unparseable. IssueDetected is true on purpose: a report
// the AI could not judge needs a human, not a silent drop.
func Fallback() models.ClassificationResult {
	return models.ClassificationResult{
		IssueDetected:     true,
		Type:              models.TypeOther,
		SeverityScore:     5,
		DangerReason:      "AI response unavailable or invalid; manual review required",
		RecommendedAction: "Manual Review",
	}
}

func clampSeverity(v float64) int {
	score := int(math.Round(v))
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
