package llm

import "context"

// Client abstracts the vision model used to classify civic-issue photos.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// AnalyzeImage sends raw image bytes with their declared MIME type and
	// returns the model's text output, expected to be a single JSON object
	// per SystemInstruction. Callers bound the call with the context.
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (string, error)
	// SourceName returns a short provider label for logs and health output
	// (e.g., "Gemini", "ChatGPT").
	SourceName() string
}

// SystemInstruction is the classification contract sent to every provider.
// The parser and policy packages re-enforce the schema and the anti-spoofing
// rule independently; the model is never trusted to follow this verbatim.
const SystemInstruction = `You are a city infrastructure expert. Analyze images for civic issues.
Return ONLY a single JSON object with these keys:
- "issue_detected": boolean
- "type": one of "Pothole" | "Garbage Dump" | "Streetlight Failure" | "Electric Pole Damage" | "Waterlogging" | "Broken Pipe/Leakage" | "Manhole Cover Missing" | "Encroachment" | "Traffic Signal Failure" | "Fallen Tree" | "Suspicious/Fake" | "Other" | "None"
- "severity_score": integer from 1 to 10
- "danger_reason": short explanation of the danger to the public
- "recommended_action": short directive, e.g. "Immediate Dispatch" | "Schedule Repair" | "Manual Review" | "Ignore"

Rules:
1. Only report clear, real infrastructure issues.
2. Animals, people, selfies, indoor scenes = issue_detected: false, type "None".
3. Clean roads and intact infrastructure = issue_detected: false, type "None".
4. If the image looks AI-generated, manipulated, staged or physically impossible (warped geometry, inconsistent lighting or shadows, rendering artifacts, exaggerated cinematic damage), set type to "Suspicious/Fake".
5. Be critical but accurate. Do not inflate severity.
6. Output the JSON object only - no markdown, no commentary.`
