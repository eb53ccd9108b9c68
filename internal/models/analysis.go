package models

import "time"

// Sentiment labels the model is allowed to emit
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
	SentimentMixed    = "Mixed"
)

// Flag types the model is allowed to emit
const (
	FlagCleanlinessIssue = "cleanliness_issue"
	FlagMaintenanceIssue = "maintenance_issue"
	FlagNoiseComplaint   = "noise_complaint"
	FlagServiceComplaint = "service_complaint"
	FlagSafetyConcern    = "safety_concern"
)

// ValidSentiments lists the canonical sentiment labels
var ValidSentiments = []string{
	SentimentPositive,
	SentimentNeutral,
	SentimentNegative,
	SentimentMixed,
}

// ValidFlagTypes lists the canonical operational-issue flag types
var ValidFlagTypes = []string{
	FlagCleanlinessIssue,
	FlagMaintenanceIssue,
	FlagNoiseComplaint,
	FlagServiceComplaint,
	FlagSafetyConcern,
}

// AnalysisFlag is one operational issue surfaced by the analysis
type AnalysisFlag struct {
	Flag        string `json:"flag"`
	Explanation string `json:"explanation"`
}

// GuestAnalysis is the AI-derived summary for one reservation. At most one
// row exists per reservation; regeneration overwrites it in place.
type GuestAnalysis struct {
	ID               string         `json:"id"`
	ReservationID    int64          `json:"reservationId"`
	Summary          string         `json:"summary"`
	Sentiment        string         `json:"sentiment"`
	SentimentReason  string         `json:"sentimentReason"`
	Flags            []AnalysisFlag `json:"flags"`
	AnalyzedAt       time.Time      `json:"analyzedAt"`
	AnalyzedBy       string         `json:"analyzedBy"`
	CommunicationIDs []string       `json:"communicationIds"`
}

// IsValidSentiment reports whether s is one of the canonical sentiment labels
func IsValidSentiment(s string) bool {
	for _, v := range ValidSentiments {
		if s == v {
			return true
		}
	}
	return false
}
