package handlers

import (
	"context"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/models"
)

// AnalysisServiceInterface defines the contract for analysis operations
// This interface is used for dependency injection and testing
type AnalysisServiceInterface interface {
	GetAnalysis(reservationID int64) (*models.GuestAnalysis, error)
	GetAnalyses(reservationIDs []int64) ([]*models.GuestAnalysis, error)
	GetCommunications(reservationID int64) ([]*models.GuestCommunication, error)
	FetchCommunications(ctx context.Context, reservationID int64, inboxID string) (map[string]int, error)
	Analyze(ctx context.Context, reservationID int64, inboxID string) (*models.GuestAnalysis, error)
}
