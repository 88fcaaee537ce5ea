package stubllm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"

	"civicfix-backend/models"
)

// Client is a deterministic, no-network classifier stub intended for local
// development and CI. It returns schema-valid JSON so parsing, policy and
// store writes exercise the full pipeline.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

// issueTypes the stub cycles through. Suspicious/Fake is excluded so casual
// dev submissions don't trip the rejection policy; use a crafted hash input
// if that path needs exercising.
var issueTypes = []string{
	models.TypePothole,
	models.TypeGarbageDump,
	models.TypeStreetlightFailure,
	models.TypeWaterlogging,
	models.TypeFallenTree,
	models.TypeNone,
}

func (c *Client) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	// Make output deterministic per-input so the pipeline is stable in CI.
	sum := sha256.Sum256(imageData)
	pick := binary.BigEndian.Uint32(sum[:4])

	issueType := issueTypes[pick%uint32(len(issueTypes))]
	detected := issueType != models.TypeNone
	severity := int(pick%10) + 1
	if !detected {
		severity = 1
	}

	out := map[string]any{
		"issue_detected":     detected,
		"type":               issueType,
		"severity_score":     severity,
		"danger_reason":      "Stubbed classification for development and CI.",
		"recommended_action": "Manual Review",
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
