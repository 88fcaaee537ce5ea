package parser

import (
	"testing"

	"civicfix-backend/models"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
		expected models.ClassificationResult
	}{
		{
			name: "valid JSON response",
			response: `{
				"issue_detected": true,
				"type": "Pothole",
				"severity_score": 8,
				"danger_reason": "Deep pothole in the middle of an arterial road, likely to damage two-wheelers.",
				"recommended_action": "Immediate Dispatch"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     true,
				Type:              models.TypePothole,
				SeverityScore:     8,
				DangerReason:      "Deep pothole in the middle of an arterial road, likely to damage two-wheelers.",
				RecommendedAction: "Immediate Dispatch",
			},
		},
		{
			name: "markdown fenced JSON with language tag",
			response: "Here is the analysis:\n\n```json\n" + `{
				"issue_detected": true,
				"type": "Garbage Dump",
				"severity_score": 6,
				"danger_reason": "Accumulated waste blocking the footpath.",
				"recommended_action": "Schedule Cleanup"
			}` + "\n```\n",
			expected: models.ClassificationResult{
				IssueDetected:     true,
				Type:              models.TypeGarbageDump,
				SeverityScore:     6,
				DangerReason:      "Accumulated waste blocking the footpath.",
				RecommendedAction: "Schedule Cleanup",
			},
		},
		{
			name: "markdown fenced JSON without language tag",
			response: "```\n" + `{
				"issue_detected": false,
				"type": "None",
				"severity_score": 1,
				"danger_reason": "Clean road, no issue visible.",
				"recommended_action": "Ignore"
			}` + "\n```",
			expected: models.ClassificationResult{
				IssueDetected:     false,
				Type:              models.TypeNone,
				SeverityScore:     1,
				DangerReason:      "Clean road, no issue visible.",
				RecommendedAction: "Ignore",
			},
		},
		{
			name: "type spelling variant folds onto enum",
			response: `{
				"issue_detected": true,
				"type": "SuspiciousFake",
				"severity_score": 9,
				"danger_reason": "Image looks AI generated.",
				"recommended_action": "Reject"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     true,
				Type:              models.TypeSuspiciousFake,
				SeverityScore:     9,
				DangerReason:      "Image looks AI generated.",
				RecommendedAction: "Reject",
			},
		},
		{
			name: "unknown type maps to Other",
			response: `{
				"issue_detected": true,
				"type": "Alien Invasion",
				"severity_score": 3,
				"danger_reason": "Unrecognized category.",
				"recommended_action": "Manual Review"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     true,
				Type:              models.TypeOther,
				SeverityScore:     3,
				DangerReason:      "Unrecognized category.",
				RecommendedAction: "Manual Review",
			},
		},
		{
			name: "missing type and issue_detected default",
			response: `{
				"severity_score": 4,
				"danger_reason": "Partial output.",
				"recommended_action": "Manual Review"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     false,
				Type:              models.TypeOther,
				SeverityScore:     4,
				DangerReason:      "Partial output.",
				RecommendedAction: "Manual Review",
			},
		},
		{
			name: "severity above range clamps to 10",
			response: `{
				"issue_detected": true,
				"type": "Waterlogging",
				"severity_score": 42,
				"danger_reason": "Severe flooding.",
				"recommended_action": "Immediate Dispatch"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     true,
				Type:              models.TypeWaterlogging,
				SeverityScore:     10,
				DangerReason:      "Severe flooding.",
				RecommendedAction: "Immediate Dispatch",
			},
		},
		{
			name: "severity below range clamps to 1",
			response: `{
				"issue_detected": false,
				"type": "None",
				"severity_score": -5,
				"danger_reason": "Nothing here.",
				"recommended_action": "Ignore"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     false,
				Type:              models.TypeNone,
				SeverityScore:     1,
				DangerReason:      "Nothing here.",
				RecommendedAction: "Ignore",
			},
		},
		{
			name: "boundary severities pass through",
			response: `{
				"issue_detected": true,
				"type": "Fallen Tree",
				"severity_score": 10,
				"danger_reason": "Tree blocking both lanes.",
				"recommended_action": "Immediate Dispatch"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     true,
				Type:              models.TypeFallenTree,
				SeverityScore:     10,
				DangerReason:      "Tree blocking both lanes.",
				RecommendedAction: "Immediate Dispatch",
			},
		},
		{
			name: "fractional severity rounds",
			response: `{
				"issue_detected": true,
				"type": "Pothole",
				"severity_score": 6.6,
				"danger_reason": "Cluster of potholes.",
				"recommended_action": "Schedule Repair"
			}`,
			expected: models.ClassificationResult{
				IssueDetected:     true,
				Type:              models.TypePothole,
				SeverityScore:     7,
				DangerReason:      "Cluster of potholes.",
				RecommendedAction: "Schedule Repair",
			},
		},
		{
			name:     "invalid JSON",
			response: `{"issue_detected": tru`,
			wantErr:  true,
		},
		{
			name:     "plain prose",
			response: "I could not analyze this image, sorry.",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseClassification(tt.response)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseClassification() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("ParseClassification() unexpected error: %v", err)
				return
			}

			if result != tt.expected {
				t.Errorf("ParseClassification() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestFenceWrappedMatchesUnwrapped(t *testing.T) {
	body := `{
		"issue_detected": true,
		"type": "Manhole Cover Missing",
		"severity_score": 9,
		"danger_reason": "Open manhole on a pedestrian crossing.",
		"recommended_action": "Immediate Dispatch"
	}`

	plain, err := ParseClassification(body)
	if err != nil {
		t.Fatalf("unwrapped parse failed: %v", err)
	}

	for _, wrapped := range []string{
		"```json\n" + body + "\n```",
		"```\n" + body + "\n```",
	} {
		got, err := ParseClassification(wrapped)
		if err != nil {
			t.Fatalf("wrapped parse failed: %v", err)
		}
		if got != plain {
			t.Errorf("wrapped parse = %+v, want %+v", got, plain)
		}
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	want := models.ClassificationResult{
		IssueDetected:     true,
		Type:              models.TypeOther,
		SeverityScore:     5,
		DangerReason:      "AI response unavailable or invalid; manual review required",
		RecommendedAction: "Manual Review",
	}

	for i := 0; i < 3; i++ {
		if got := Fallback(); got != want {
			t.Fatalf("Fallback() = %+v, want %+v", got, want)
		}
	}
}
