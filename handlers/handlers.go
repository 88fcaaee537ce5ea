package handlers

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"civicfix-backend/config"
	"civicfix-backend/database"
	"civicfix-backend/models"
	"civicfix-backend/seed"
	"civicfix-backend/service"
	"civicfix-backend/version"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxSeedCount     = 500
)

// AdminStore covers the store queries behind the admin dashboard endpoints.
type AdminStore interface {
	ListReports(ctx context.Context, status, issueType string, limit int64) ([]models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	UpdateReportStatus(ctx context.Context, id, status string) error
	DeleteReport(ctx context.Context, id string) error
	AllReports(ctx context.Context) ([]models.Report, error)
	InsertReports(ctx context.Context, reports []models.Report) (int, error)
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	cfg    *config.Config
	intake *service.Service
	store  AdminStore
}

// NewHandlers creates new HTTP handlers
func NewHandlers(cfg *config.Config, intake *service.Service, store AdminStore) *Handlers {
	return &Handlers{cfg: cfg, intake: intake, store: store}
}

// Root handles liveness/version requests
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":    "CivicFix AI API",
		"ai_enabled": h.cfg.AIConfigured(),
		"build":      version.Get("civicfix-backend"),
	})
}

// HealthCheck reports the status of the AI and database collaborators.
func (h *Handlers) HealthCheck(c *gin.Context) {
	ai := "disabled"
	if h.cfg.AIConfigured() {
		ai = "enabled"
	}

	db := "connected"
	if err := h.store.Ping(c.Request.Context()); err != nil {
		db = "disconnected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"services": gin.H{
			"ai":       ai,
			"database": db,
		},
	})
}

// AnalyzeImage accepts one multipart image submission and runs the intake
// pipeline.
func (h *Handlers) AnalyzeImage(c *gin.Context) {
	start := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file is required"})
		return
	}

	userID := c.PostForm("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "user_id is required"})
		return
	}

	location, err := parseLocation(c.PostForm("latitude"), c.PostForm("longitude"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "latitude and longitude must be valid numbers"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "could not read uploaded file"})
		return
	}
	defer file.Close()

	// Read one byte past the ceiling so oversized uploads are detected
	// without buffering arbitrarily large bodies.
	image, err := io.ReadAll(io.LimitReader(file, service.MaxImageBytes+1))
	if err != nil {
		log.WithError(err).Error("Failed to read uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "could not read uploaded file"})
		return
	}

	outcome, err := h.intake.Submit(c.Request.Context(), service.Submission{
		Image:       image,
		ContentType: fileHeader.Header.Get("Content-Type"),
		UserID:      userID,
		Filename:    fileHeader.Filename,
		Location:    location,
	})
	if err != nil {
		var invalid *service.InvalidInputError
		var limited *service.RateLimitError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"detail": invalid.Reason})
		case errors.As(err, &limited):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"detail": fmt429(limited.Count, limited.Limit),
			})
		default:
			log.WithError(err).Error("Intake pipeline failed")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                  "success",
		"processing_time_seconds": round2(time.Since(start).Seconds()),
		"data":                    outcome.Result,
		"saved_to_db":             outcome.Saved,
		"report_id":               outcome.ReportID,
	})
}

// ListReports returns reports for the admin dashboard, newest first.
func (h *Handlers) ListReports(c *gin.Context) {
	limit := int64(defaultListLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	reports, err := h.store.ListReports(c.Request.Context(), c.Query("status"), c.Query("type"), limit)
	if err != nil {
		log.WithError(err).Error("Failed to list reports")
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(reports),
		"reports": reports,
	})
}

// GetReport returns a single report by id.
func (h *Handlers) GetReport(c *gin.Context) {
	report, err := h.store.GetReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report not found"})
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to fetch report")
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// UpdateReportStatus PATCHes a report's workflow status.
func (h *Handlers) UpdateReportStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if !models.IsValidStatus(body.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "status must be one of: OPEN, IN_PROGRESS, RESOLVED, REJECTED",
		})
		return
	}

	id := c.Param("id")
	err := h.store.UpdateReportStatus(c.Request.Context(), id, body.Status)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report not found"})
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to update report status")
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Report " + id + " updated to " + body.Status,
	})
}

// DeleteReport removes a report by id.
func (h *Handlers) DeleteReport(c *gin.Context) {
	err := h.store.DeleteReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report not found"})
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to delete report")
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats returns dashboard aggregates over all reports.
func (h *Handlers) Stats(c *gin.Context) {
	reports, err := h.store.AllReports(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to load reports for stats")
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, computeStats(reports, time.Now().UTC()))
}

// Seed inserts synthetic reports. Development-only, gated by SEED_ENABLED.
func (h *Handlers) Seed(c *gin.Context) {
	if !h.cfg.SeedEnabled {
		c.JSON(http.StatusForbidden, gin.H{"detail": "seeding is disabled"})
		return
	}

	count := 10
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "count must be a positive integer"})
			return
		}
		if parsed > maxSeedCount {
			parsed = maxSeedCount
		}
		count = parsed
	}

	inserted, err := h.store.InsertReports(c.Request.Context(), seed.GenerateReports(count))
	if err != nil {
		log.WithError(err).Error("Failed to insert seed reports")
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// computeStats aggregates report counts the way the dashboard expects:
// severity buckets low < 4, medium 4..6, high >= 7; today by UTC day.
func computeStats(reports []models.Report, now time.Time) models.Stats {
	stats := models.Stats{
		ReportsByType: map[string]int{},
	}

	today := now.Format("2006-01-02")
	severitySum := 0

	for _, r := range reports {
		stats.TotalReports++

		if r.Timestamp.UTC().Format("2006-01-02") == today {
			stats.TodayReports++
		}

		stats.ReportsByType[r.Type]++

		severitySum += r.SeverityScore
		switch {
		case r.SeverityScore >= 7:
			stats.ReportsBySeverity.High++
		case r.SeverityScore >= 4:
			stats.ReportsBySeverity.Medium++
		default:
			stats.ReportsBySeverity.Low++
		}
	}

	if stats.TotalReports > 0 {
		avg := float64(severitySum) / float64(stats.TotalReports)
		stats.AvgSeverityScore = math.Round(avg*10) / 10
	}

	return stats
}

func parseLocation(latRaw, lngRaw string) (*models.Location, error) {
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, err
	}
	return &models.Location{Latitude: lat, Longitude: lng}, nil
}

func fmt429(count, limit int) string {
	return "Daily limit reached (" + strconv.Itoa(count) + "/" + strconv.Itoa(limit) + "). Try again tomorrow."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
