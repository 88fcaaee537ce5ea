// Package service implements the report intake pipeline: validation,
// rate limiting, classification, normalization, policy and persistence
// for one incoming image submission.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"

	"civicfix-backend/config"
	"civicfix-backend/llm"
	"civicfix-backend/metrics"
	"civicfix-backend/models"
	"civicfix-backend/parser"
	"civicfix-backend/policy"
	"civicfix-backend/ratelimit"
)

// MaxImageBytes is the upload size ceiling (10 MiB).
const MaxImageBytes = 10 << 20

// ReportStore is the slice of the document store the pipeline needs.
type ReportStore interface {
	InsertReport(ctx context.Context, report *models.Report) (string, error)
	RecentUserTimestamps(ctx context.Context, userID string) ([]time.Time, error)
}

// EventPublisher receives each persisted report, best-effort. May be nil.
type EventPublisher interface {
	Publish(message interface{}) error
}

// Submission is one end-user image upload. It lives for the duration of the
// request; only the derived Report is ever persisted.
type Submission struct {
	Image       []byte
	ContentType string
	UserID      string
	Filename    string
	Location    *models.Location
}

// IntakeOutcome is what the pipeline hands back to the HTTP layer.
type IntakeOutcome struct {
	Result   models.ClassificationResult
	Saved    bool
	ReportID string
}

// InvalidInputError rejects a submission before any external call is made.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// RateLimitError carries the observed count and the configured daily limit.
type RateLimitError struct {
	Count int
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("daily report limit reached (%d/%d)", e.Count, e.Limit)
}

// Service orchestrates one submission end to end. All collaborators are
// injected so tests can substitute fakes.
type Service struct {
	cfg       *config.Config
	store     ReportStore
	llmClient llm.Client
	publisher EventPublisher
}

// NewService creates the intake pipeline. publisher may be nil.
func NewService(cfg *config.Config, store ReportStore, client llm.Client, publisher EventPublisher) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		llmClient: client,
		publisher: publisher,
	}
}

// Submit runs the full intake pipeline for one submission.
//
// The rate limit is checked before the classifier is invoked so a doomed
// request never spends an AI call. Classifier failures of any kind degrade
// to the fallback classification; store-write failures are logged and
// swallowed because losing the user-visible result on a storage hiccup is
// worse than losing durability for one record. No step retries.
func (s *Service) Submit(ctx context.Context, sub Submission) (*IntakeOutcome, error) {
	if err := validate(sub); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	now := time.Now().UTC()

	timestamps, err := s.store.RecentUserTimestamps(ctx, sub.UserID)
	if err != nil {
		// Fail open: an unreachable store already means persistence will be
		// skipped below, and blocking intake on the limiter read would turn
		// a storage hiccup into a user-facing outage.
		log.WithError(err).Warnf("Rate-limit lookup failed for user %s, allowing submission", sub.UserID)
		timestamps = nil
	}

	decision := ratelimit.Check(now, timestamps, s.cfg.DailyReportLimit)
	if !decision.Allowed {
		log.Warnf("User %s hit the daily report limit (%d/%d)", sub.UserID, decision.Count, decision.Limit)
		metrics.SubmissionsTotal.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitedTotal.Inc()
		return nil, &RateLimitError{Count: decision.Count, Limit: decision.Limit}
	}

	result := s.classify(ctx, sub)
	result = policy.Apply(result)

	outcome := &IntakeOutcome{Result: result}

	if result.IssueDetected {
		report := &models.Report{
			ClassificationResult: result,
			Status:               models.StatusOpen,
			Timestamp:            now,
			CreatedAt:            now,
			UserID:               sub.UserID,
			Filename:             sub.Filename,
			Location:             sub.Location,
		}

		id, err := s.store.InsertReport(ctx, report)
		if err != nil {
			log.WithError(err).Errorf("Failed to persist report for user %s", sub.UserID)
			metrics.StoreWriteFailuresTotal.Inc()
		} else {
			outcome.Saved = true
			outcome.ReportID = id
			metrics.ReportsSavedTotal.Inc()
			s.publishReport(report, id)
		}
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	return outcome, nil
}

// classify calls the external model with a bounded timeout and normalizes
// whatever comes back. Every failure path lands on the fallback record.
func (s *Service) classify(ctx context.Context, sub Submission) models.ClassificationResult {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.llmClient.AnalyzeImage(callCtx, sub.Image, sub.ContentType)
	metrics.ClassifierDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		log.WithError(err).Errorf("%s call failed, using fallback classification", s.llmClient.SourceName())
		metrics.ClassifierFailuresTotal.WithLabelValues("call_error").Inc()
		return parser.Fallback()
	}

	result, err := parser.ParseClassification(raw)
	if err != nil {
		log.WithError(err).Errorf("%s returned unparseable output, using fallback classification", s.llmClient.SourceName())
		metrics.ClassifierFailuresTotal.WithLabelValues("parse_error").Inc()
		return parser.Fallback()
	}
	return result
}

func (s *Service) publishReport(report *models.Report, id string) {
	if s.publisher == nil {
		return
	}

	msg := struct {
		ReportID string         `json:"report_id"`
		Report   *models.Report `json:"report"`
	}{ReportID: id, Report: report}

	if err := s.publisher.Publish(msg); err != nil {
		log.WithError(err).Warnf("Failed to publish report %s", id)
	}
}

func validate(sub Submission) error {
	if sub.UserID == "" {
		return &InvalidInputError{Reason: "user_id is required"}
	}
	if !strings.HasPrefix(sub.ContentType, "image/") {
		return &InvalidInputError{Reason: "file must be an image"}
	}
	if len(sub.Image) == 0 {
		return &InvalidInputError{Reason: "empty file"}
	}
	if len(sub.Image) > MaxImageBytes {
		return &InvalidInputError{Reason: "file exceeds the 10 MiB limit"}
	}
	return nil
}
