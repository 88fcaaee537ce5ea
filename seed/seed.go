// Package seed generates synthetic reports for the development-only
// /admin/seed endpoint so the admin dashboard has data to render.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"civicfix-backend/models"
)

var seedTypes = []string{
	models.TypePothole,
	models.TypeGarbageDump,
	models.TypeStreetlightFailure,
	models.TypeElectricPoleDamage,
	models.TypeWaterlogging,
	models.TypeBrokenPipeOrLeakage,
	models.TypeManholeCoverMissing,
	models.TypeEncroachment,
	models.TypeTrafficSignalFailure,
	models.TypeFallenTree,
	models.TypeOther,
}

var seedReasons = map[string]string{
	models.TypePothole:              "Deep pothole likely to damage vehicles at speed.",
	models.TypeGarbageDump:          "Accumulated waste attracting pests and blocking the footpath.",
	models.TypeStreetlightFailure:   "Dark stretch of road at night, unsafe for pedestrians.",
	models.TypeElectricPoleDamage:   "Leaning pole with exposed wiring near a bus stop.",
	models.TypeWaterlogging:         "Standing water hiding road surface hazards.",
	models.TypeBrokenPipeOrLeakage:  "Continuous water leakage undermining the roadbed.",
	models.TypeManholeCoverMissing:  "Open manhole on a pedestrian route.",
	models.TypeEncroachment:         "Structure blocking the public right of way.",
	models.TypeTrafficSignalFailure: "Signal stuck, intersection running uncontrolled.",
	models.TypeFallenTree:           "Tree across one lane after overnight winds.",
	models.TypeOther:                "Unclassified infrastructure issue flagged for review.",
}

var seedActions = []string{"Immediate Dispatch", "Schedule Repair", "Manual Review"}

// Base coordinates with jitter, roughly central Delhi.
const (
	baseLat = 28.6139
	baseLng = 77.2090
)

// GenerateReports builds n random reports timestamped within the past week.
func GenerateReports(n int) []models.Report {
	now := time.Now().UTC()
	reports := make([]models.Report, 0, n)

	for i := 0; i < n; i++ {
		issueType := seedTypes[rand.Intn(len(seedTypes))]
		ts := now.Add(-time.Duration(rand.Intn(7*24*60)) * time.Minute)

		reports = append(reports, models.Report{
			ClassificationResult: models.ClassificationResult{
				IssueDetected:     true,
				Type:              issueType,
				SeverityScore:     rand.Intn(10) + 1,
				DangerReason:      seedReasons[issueType],
				RecommendedAction: seedActions[rand.Intn(len(seedActions))],
			},
			Status:    models.Statuses[rand.Intn(len(models.Statuses))],
			Timestamp: ts,
			CreatedAt: ts,
			UserID:    "seed-user-" + uuid.NewString()[:8],
			Filename:  fmt.Sprintf("seed-%s.jpg", uuid.NewString()[:8]),
			Location: &models.Location{
				Latitude:  baseLat + (rand.Float64()-0.5)*0.2,
				Longitude: baseLng + (rand.Float64()-0.5)*0.2,
			},
		})
	}

	return reports
}
