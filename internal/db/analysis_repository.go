package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/models"

	"github.com/google/uuid"
)

// AnalysisRepository defines the interface for guest analysis data access
type AnalysisRepository interface {
	Upsert(analysis *models.GuestAnalysis) error
	GetByReservationID(reservationID int64) (*models.GuestAnalysis, error)
	GetByReservationIDs(reservationIDs []int64) ([]*models.GuestAnalysis, error)
}

// analysisRepository implements AnalysisRepository
type analysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new AnalysisRepository
func NewAnalysisRepository(db *sql.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Upsert inserts the analysis row for a reservation, overwriting the mutable
// fields in place when a row already exists. Exactly one row survives per
// reservation.
func (r *analysisRepository) Upsert(analysis *models.GuestAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("analysis cannot be nil")
	}
	if analysis.ReservationID <= 0 {
		return fmt.Errorf("reservation ID must be positive")
	}

	if analysis.ID == "" {
		analysis.ID = uuid.New().String()
	}
	if analysis.Flags == nil {
		analysis.Flags = []models.AnalysisFlag{}
	}
	if analysis.CommunicationIDs == nil {
		analysis.CommunicationIDs = []string{}
	}

	flags, err := json.Marshal(analysis.Flags)
	if err != nil {
		return fmt.Errorf("failed to marshal flags: %w", err)
	}
	commIDs, err := json.Marshal(analysis.CommunicationIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal communication ids: %w", err)
	}

	query := `
		INSERT INTO guest_analyses (id, reservation_id, summary, sentiment,
			sentiment_reason, flags, analyzed_at, analyzed_by, communication_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reservation_id) DO UPDATE SET
			summary = excluded.summary,
			sentiment = excluded.sentiment,
			sentiment_reason = excluded.sentiment_reason,
			flags = excluded.flags,
			analyzed_at = excluded.analyzed_at,
			analyzed_by = excluded.analyzed_by,
			communication_ids = excluded.communication_ids
	`

	_, err = r.db.Exec(query,
		analysis.ID,
		analysis.ReservationID,
		analysis.Summary,
		analysis.Sentiment,
		analysis.SentimentReason,
		string(flags),
		analysis.AnalyzedAt.Unix(),
		analysis.AnalyzedBy,
		string(commIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}

	// Reflect the surviving row's id when the insert hit an existing row
	existing, err := r.GetByReservationID(analysis.ReservationID)
	if err != nil {
		return err
	}
	if existing != nil {
		analysis.ID = existing.ID
	}

	return nil
}

// GetByReservationID retrieves the analysis for a reservation, nil when none exists
func (r *analysisRepository) GetByReservationID(reservationID int64) (*models.GuestAnalysis, error) {
	if reservationID <= 0 {
		return nil, fmt.Errorf("reservation ID must be positive")
	}

	query := `
		SELECT id, reservation_id, summary, sentiment, sentiment_reason,
			flags, analyzed_at, analyzed_by, communication_ids
		FROM guest_analyses
		WHERE reservation_id = ?
	`

	analysis, err := r.scanRow(r.db.QueryRow(query, reservationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis by reservation ID: %w", err)
	}

	return analysis, nil
}

// GetByReservationIDs retrieves analyses for the given reservations; missing
// reservations are simply absent from the result
func (r *analysisRepository) GetByReservationIDs(reservationIDs []int64) ([]*models.GuestAnalysis, error) {
	if len(reservationIDs) == 0 {
		return nil, fmt.Errorf("reservation IDs cannot be empty")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(reservationIDs)), ",")
	query := fmt.Sprintf(`
		SELECT id, reservation_id, summary, sentiment, sentiment_reason,
			flags, analyzed_at, analyzed_by, communication_ids
		FROM guest_analyses
		WHERE reservation_id IN (%s)
		ORDER BY reservation_id
	`, placeholders)

	args := make([]interface{}, 0, len(reservationIDs))
	for _, id := range reservationIDs {
		args = append(args, id)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.GuestAnalysis
	for rows.Next() {
		analysis, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, analysis)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return analyses, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *analysisRepository) scanRow(row rowScanner) (*models.GuestAnalysis, error) {
	analysis := &models.GuestAnalysis{}
	var flags, commIDs string
	var analyzedAt int64

	err := row.Scan(
		&analysis.ID,
		&analysis.ReservationID,
		&analysis.Summary,
		&analysis.Sentiment,
		&analysis.SentimentReason,
		&flags,
		&analyzedAt,
		&analysis.AnalyzedBy,
		&commIDs,
	)
	if err != nil {
		return nil, err
	}

	analysis.AnalyzedAt = time.Unix(analyzedAt, 0).UTC()

	if err := json.Unmarshal([]byte(flags), &analysis.Flags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flags: %w", err)
	}
	if err := json.Unmarshal([]byte(commIDs), &analysis.CommunicationIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal communication ids: %w", err)
	}

	return analysis, nil
}
