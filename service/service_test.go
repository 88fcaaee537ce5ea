package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"civicfix-backend/config"
	"civicfix-backend/models"
	"civicfix-backend/parser"
	"civicfix-backend/policy"
)

// fakeStore is an in-memory ReportStore.
type fakeStore struct {
	timestamps []time.Time
	reports    []*models.Report
	readErr    error
	writeErr   error
	nextID     string
}

func (f *fakeStore) InsertReport(ctx context.Context, report *models.Report) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.reports = append(f.reports, report)
	if f.nextID == "" {
		return "64f000000000000000000001", nil
	}
	return f.nextID, nil
}

func (f *fakeStore) RecentUserTimestamps(ctx context.Context, userID string) ([]time.Time, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.timestamps, nil
}

// fakeLLM returns a canned response or error and records whether it was called.
type fakeLLM struct {
	response string
	err      error
	called   bool
}

func (f *fakeLLM) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) SourceName() string { return "Fake" }

type fakePublisher struct {
	messages []interface{}
	err      error
}

func (f *fakePublisher) Publish(message interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		DailyReportLimit: 5,
		LLMTimeout:       5 * time.Second,
	}
}

func validSubmission() Submission {
	return Submission{
		Image:       []byte("fake image bytes"),
		ContentType: "image/jpeg",
		UserID:      "user-1",
		Filename:    "pothole.jpg",
	}
}

const potholeResponse = `{
	"issue_detected": true,
	"type": "Pothole",
	"severity_score": 8,
	"danger_reason": "Deep pothole on an arterial road.",
	"recommended_action": "Immediate Dispatch"
}`

func TestSubmitHappyPath(t *testing.T) {
	store := &fakeStore{nextID: "64f000000000000000000042"}
	client := &fakeLLM{response: potholeResponse}
	svc := NewService(testConfig(), store, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.True(t, outcome.Saved)
	assert.Equal(t, "64f000000000000000000042", outcome.ReportID)
	assert.Equal(t, models.TypePothole, outcome.Result.Type)
	assert.Equal(t, 8, outcome.Result.SeverityScore)

	if assert.Len(t, store.reports, 1) {
		saved := store.reports[0]
		assert.Equal(t, models.StatusOpen, saved.Status)
		assert.Equal(t, "user-1", saved.UserID)
		assert.Equal(t, "pothole.jpg", saved.Filename)
		assert.Equal(t, time.UTC, saved.Timestamp.Location())
		assert.Equal(t, saved.Timestamp, saved.CreatedAt)
	}
}

func TestSubmitInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
	}{
		{
			name: "missing user id",
			sub:  Submission{Image: []byte("x"), ContentType: "image/png"},
		},
		{
			name: "non-image content type",
			sub:  Submission{Image: []byte("x"), ContentType: "application/pdf", UserID: "u"},
		},
		{
			name: "empty file",
			sub:  Submission{Image: nil, ContentType: "image/png", UserID: "u"},
		},
		{
			name: "oversized file",
			sub:  Submission{Image: make([]byte, MaxImageBytes+1), ContentType: "image/png", UserID: "u"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLM{response: potholeResponse}
			svc := NewService(testConfig(), &fakeStore{}, client, nil)

			outcome, err := svc.Submit(context.Background(), tt.sub)

			assert.Nil(t, outcome)
			var invalid *InvalidInputError
			assert.ErrorAs(t, err, &invalid)
			assert.False(t, client.called, "classifier must not run on invalid input")
		})
	}
}

func TestSubmitRateLimitedBeforeClassifier(t *testing.T) {
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)

	timestamps := make([]time.Time, 0, 15)
	for i := 0; i < 5; i++ {
		timestamps = append(timestamps, now.Add(-time.Duration(i)*time.Hour))
	}
	for i := 0; i < 10; i++ {
		timestamps = append(timestamps, yesterday)
	}

	store := &fakeStore{timestamps: timestamps}
	client := &fakeLLM{response: potholeResponse}
	svc := NewService(testConfig(), store, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.Nil(t, outcome)
	var limited *RateLimitError
	if assert.ErrorAs(t, err, &limited) {
		assert.Equal(t, 5, limited.Count)
		assert.Equal(t, 5, limited.Limit)
	}
	assert.False(t, client.called, "classifier must not run on a rate-limited request")
	assert.Empty(t, store.reports)
}

func TestSubmitAllowedWhenOnlyYesterdayReports(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	timestamps := make([]time.Time, 10)
	for i := range timestamps {
		timestamps[i] = yesterday
	}

	svc := NewService(testConfig(), &fakeStore{timestamps: timestamps}, &fakeLLM{response: potholeResponse}, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.True(t, outcome.Saved)
}

func TestSubmitClassifierFailureFallsBackAndSaves(t *testing.T) {
	store := &fakeStore{}
	client := &fakeLLM{err: errors.New("connection refused")}
	svc := NewService(testConfig(), store, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err, "classifier failure must not fail the request")
	assert.Equal(t, parser.Fallback(), outcome.Result)
	// Fallback sets issue_detected=true, so the report is persisted.
	assert.True(t, outcome.Saved)
	assert.Len(t, store.reports, 1)
}

func TestSubmitUnparseableOutputFallsBack(t *testing.T) {
	client := &fakeLLM{response: "sorry, I cannot help with that"}
	svc := NewService(testConfig(), &fakeStore{}, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.Equal(t, parser.Fallback(), outcome.Result)
}

func TestSubmitFakeImageRejectedAndNotSaved(t *testing.T) {
	store := &fakeStore{}
	client := &fakeLLM{response: `{
		"issue_detected": true,
		"type": "Suspicious/Fake",
		"severity_score": 9,
		"danger_reason": "Giant crater across the city center.",
		"recommended_action": "Immediate Dispatch"
	}`}
	svc := NewService(testConfig(), store, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.False(t, outcome.Saved)
	assert.Empty(t, store.reports, "rejected fakes must not be persisted")
	assert.False(t, outcome.Result.IssueDetected)
	assert.Equal(t, 1, outcome.Result.SeverityScore)
	assert.Equal(t, policy.RejectionAction, outcome.Result.RecommendedAction)
	assert.Equal(t, policy.RejectionReason, outcome.Result.DangerReason)
}

func TestSubmitNoIssueNotSaved(t *testing.T) {
	store := &fakeStore{}
	client := &fakeLLM{response: `{
		"issue_detected": false,
		"type": "None",
		"severity_score": 1,
		"danger_reason": "Clean road.",
		"recommended_action": "Ignore"
	}`}
	svc := NewService(testConfig(), store, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.False(t, outcome.Saved)
	assert.Empty(t, outcome.ReportID)
	assert.Empty(t, store.reports)
}

func TestSubmitStoreWriteFailureStillReturnsResult(t *testing.T) {
	store := &fakeStore{writeErr: errors.New("mongo unavailable")}
	client := &fakeLLM{response: potholeResponse}
	svc := NewService(testConfig(), store, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err, "store write failure must not fail the request")
	assert.False(t, outcome.Saved)
	assert.Empty(t, outcome.ReportID)
	assert.Equal(t, models.TypePothole, outcome.Result.Type)
}

func TestSubmitRateLimitLookupFailureFailsOpen(t *testing.T) {
	store := &fakeStore{readErr: errors.New("mongo unavailable")}
	client := &fakeLLM{response: potholeResponse}
	svc := NewService(testConfig(), store, client, nil)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.True(t, client.called)
	assert.NotNil(t, outcome)
}

func TestSubmitPublishesSavedReports(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(testConfig(), &fakeStore{}, &fakeLLM{response: potholeResponse}, pub)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.True(t, outcome.Saved)
	assert.Len(t, pub.messages, 1)
}

func TestSubmitPublishFailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(testConfig(), &fakeStore{}, &fakeLLM{response: potholeResponse}, pub)

	outcome, err := svc.Submit(context.Background(), validSubmission())

	assert.NoError(t, err)
	assert.True(t, outcome.Saved)
}
