package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Issue types the classifier is allowed to return. Anything else coming back
// from the model is folded onto TypeOther by the parser.
const (
	TypePothole              = "Pothole"
	TypeGarbageDump          = "Garbage Dump"
	TypeStreetlightFailure   = "Streetlight Failure"
	TypeElectricPoleDamage   = "Electric Pole Damage"
	TypeWaterlogging         = "Waterlogging"
	TypeBrokenPipeOrLeakage  = "Broken Pipe/Leakage"
	TypeManholeCoverMissing  = "Manhole Cover Missing"
	TypeEncroachment         = "Encroachment"
	TypeTrafficSignalFailure = "Traffic Signal Failure"
	TypeFallenTree           = "Fallen Tree"
	TypeSuspiciousFake       = "Suspicious/Fake"
	TypeOther                = "Other"
	TypeNone                 = "None"
)

// IssueTypes lists every valid issue type in display order.
var IssueTypes = []string{
	TypePothole,
	TypeGarbageDump,
	TypeStreetlightFailure,
	TypeElectricPoleDamage,
	TypeWaterlogging,
	TypeBrokenPipeOrLeakage,
	TypeManholeCoverMissing,
	TypeEncroachment,
	TypeTrafficSignalFailure,
	TypeFallenTree,
	TypeSuspiciousFake,
	TypeOther,
	TypeNone,
}

// Report workflow statuses.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusRejected   = "REJECTED"
)

// Statuses lists every valid report status.
var Statuses = []string{StatusOpen, StatusInProgress, StatusResolved, StatusRejected}

// IsValidStatus reports whether s is one of the known workflow statuses.
func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ClassificationResult is the normalized output of the AI classifier for one image.
// Invariants: Type is always one of IssueTypes and SeverityScore is always in [1,10].
type ClassificationResult struct {
	IssueDetected     bool   `json:"issue_detected" bson:"issue_detected"`
	Type              string `json:"type" bson:"type"`
	SeverityScore     int    `json:"severity_score" bson:"severity_score"`
	DangerReason      string `json:"danger_reason" bson:"danger_reason"`
	RecommendedAction string `json:"recommended_action" bson:"recommended_action"`
}

// Location is an optional submitter-provided coordinate pair.
type Location struct {
	Latitude  float64 `json:"lat" bson:"lat"`
	Longitude float64 `json:"lng" bson:"lng"`
}

// Report is one persisted civic-issue record, tracked through the admin workflow.
// Timestamp and CreatedAt are both stored in UTC and set together at insert time.
type Report struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClassificationResult `bson:",inline"`
	Status               string     `json:"status" bson:"status"`
	Timestamp            time.Time  `json:"timestamp" bson:"timestamp"`
	CreatedAt            time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
	UserID               string     `json:"user_id" bson:"user_id"`
	Filename             string     `json:"filename" bson:"filename"`
	Location             *Location  `json:"location,omitempty" bson:"location,omitempty"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalReports      int            `json:"total_reports"`
	TodayReports      int            `json:"today_reports"`
	ReportsByType     map[string]int `json:"reports_by_type"`
	ReportsBySeverity SeverityBucket `json:"reports_by_severity"`
	AvgSeverityScore  float64        `json:"avg_severity_score"`
}

// SeverityBucket groups severity scores: low < 4, medium 4..6, high >= 7.
type SeverityBucket struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}
