package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/models"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateCommunication indicates a record with the same
// (source, external_id) pair is already stored
var ErrDuplicateCommunication = errors.New("communication already exists for source and external id")

// CommunicationRepository defines the interface for guest communication data access
type CommunicationRepository interface {
	Create(comm *models.GuestCommunication) error
	ExistsBySourceAndExternalID(source, externalID string) (bool, error)
	GetByReservationID(reservationID int64) ([]*models.GuestCommunication, error)
}

// communicationRepository implements CommunicationRepository
type communicationRepository struct {
	db *sql.DB
}

// NewCommunicationRepository creates a new CommunicationRepository
func NewCommunicationRepository(db *sql.DB) CommunicationRepository {
	return &communicationRepository{db: db}
}

// Create inserts a new communication record. The (source, external_id) pair
// is enforced unique at the schema level; a violation surfaces as
// ErrDuplicateCommunication so callers can treat the event as already stored.
func (r *communicationRepository) Create(comm *models.GuestCommunication) error {
	if comm == nil {
		return fmt.Errorf("communication cannot be nil")
	}
	if comm.Source == "" {
		return fmt.Errorf("source cannot be empty")
	}
	if comm.ExternalID == "" {
		return fmt.Errorf("external ID cannot be empty")
	}

	// Generate UUID if not provided
	if comm.ID == "" {
		comm.ID = uuid.New().String()
	}
	if comm.CreatedAt.IsZero() {
		comm.CreatedAt = time.Now()
	}

	metadata, err := json.Marshal(comm.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if comm.Metadata == nil {
		metadata = []byte("{}")
	}

	query := `
		INSERT INTO communications (id, reservation_id, source, external_id, content,
			direction, sender_name, sender_phone, communicated_at, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		comm.ID,
		comm.ReservationID,
		comm.Source,
		comm.ExternalID,
		comm.Content,
		comm.Direction,
		comm.SenderName,
		comm.SenderPhone,
		comm.CommunicatedAt.Unix(),
		string(metadata),
		comm.CreatedAt.Unix(),
	)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateCommunication
		}
		return fmt.Errorf("failed to create communication: %w", err)
	}

	return nil
}

// ExistsBySourceAndExternalID checks the dedup key for an already-stored event
func (r *communicationRepository) ExistsBySourceAndExternalID(source, externalID string) (bool, error) {
	if source == "" {
		return false, fmt.Errorf("source cannot be empty")
	}
	if externalID == "" {
		return false, fmt.Errorf("external ID cannot be empty")
	}

	query := `SELECT COUNT(1) FROM communications WHERE source = ? AND external_id = ?`

	var count int
	if err := r.db.QueryRow(query, source, externalID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check communication existence: %w", err)
	}

	return count > 0, nil
}

// GetByReservationID retrieves all communications for a reservation ordered
// by event time ascending
func (r *communicationRepository) GetByReservationID(reservationID int64) ([]*models.GuestCommunication, error) {
	if reservationID <= 0 {
		return nil, fmt.Errorf("reservation ID must be positive")
	}

	query := `
		SELECT id, reservation_id, source, external_id, content, direction,
			sender_name, sender_phone, communicated_at, metadata, created_at
		FROM communications
		WHERE reservation_id = ?
		ORDER BY communicated_at ASC
	`

	rows, err := r.db.Query(query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list communications: %w", err)
	}
	defer rows.Close()

	var comms []*models.GuestCommunication
	for rows.Next() {
		comm := &models.GuestCommunication{}
		var senderName, senderPhone, metadata sql.NullString
		var communicatedAt, createdAt int64

		err := rows.Scan(
			&comm.ID,
			&comm.ReservationID,
			&comm.Source,
			&comm.ExternalID,
			&comm.Content,
			&comm.Direction,
			&senderName,
			&senderPhone,
			&communicatedAt,
			&metadata,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan communication: %w", err)
		}

		comm.SenderName = senderName.String
		comm.SenderPhone = senderPhone.String
		comm.CommunicatedAt = time.Unix(communicatedAt, 0).UTC()
		comm.CreatedAt = time.Unix(createdAt, 0).UTC()

		if metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &comm.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		comms = append(comms, comm)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating communications: %w", err)
	}

	return comms, nil
}
