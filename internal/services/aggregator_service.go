package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/clients"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/db"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/models"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/logger"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/utils"

	"go.uber.org/zap"
)

// NoCommunicationsSentinel is the timeline text used when a reservation has
// no stored communications
const NoCommunicationsSentinel = "No communications found for this reservation."

// OpenPhoneAPI is the OpenPhone collaborator contract used by the aggregator
type OpenPhoneAPI interface {
	HasCredentials() bool
	ListPhoneNumbers(ctx context.Context) ([]clients.OpenPhonePhoneNumber, error)
	ListMessages(ctx context.Context, phoneNumberID string, participants []string) ([]clients.OpenPhoneMessage, error)
	ListCalls(ctx context.Context, phoneNumberID string, participants []string) ([]clients.OpenPhoneCall, error)
	GetCallSummary(ctx context.Context, callID string) (string, error)
	GetCallTranscript(ctx context.Context, callID string) (string, error)
}

// HostifyAPI is the Hostify collaborator contract used by the aggregator
type HostifyAPI interface {
	HasCredentials() bool
	GetReservationInfo(ctx context.Context, reservationID int64) (*clients.HostifyReservationInfo, error)
	GetInboxThread(ctx context.Context, inboxID string) (*clients.HostifyThread, error)
}

// ReservationAPI is the read-only reservation lookup contract
type ReservationAPI interface {
	FindByID(ctx context.Context, reservationID int64) (*clients.Reservation, error)
	GetCheckoutReservations(ctx context.Context) ([]clients.Reservation, error)
}

// AggregatorService pulls guest communications from both messaging
// platforms, deduplicates them against the store and renders the
// chronological timeline for a reservation.
type AggregatorService struct {
	comms        db.CommunicationRepository
	openPhone    OpenPhoneAPI
	hostify      HostifyAPI
	reservations ReservationAPI
	now          func() time.Time
}

// NewAggregatorService creates a new communication aggregator
func NewAggregatorService(
	comms db.CommunicationRepository,
	openPhone OpenPhoneAPI,
	hostify HostifyAPI,
	reservations ReservationAPI,
) *AggregatorService {
	return &AggregatorService{
		comms:        comms,
		openPhone:    openPhone,
		hostify:      hostify,
		reservations: reservations,
		now:          time.Now,
	}
}

// FetchOpenPhoneCommunications pulls SMS and call records for the
// reservation's guest phone across every phone number id on the account and
// stores the ones not seen before. Returns the number of newly stored
// records. Missing phone or credentials yields an empty result, not an
// error; a failing phone-number id is skipped without aborting the rest.
func (s *AggregatorService) FetchOpenPhoneCommunications(ctx context.Context, reservationID int64) (int, error) {
	if !s.openPhone.HasCredentials() {
		logger.Warn("OpenPhone credentials not configured, skipping fetch",
			zap.Int64("reservation_id", reservationID))
		return 0, nil
	}

	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil || reservation == nil {
		logger.Warn("Reservation lookup failed for OpenPhone fetch",
			zap.Int64("reservation_id", reservationID),
			zap.Error(err))
		return 0, nil
	}

	guestPhone := utils.NormalizePhone(reservation.Phone)
	if guestPhone == "" {
		logger.Warn("Reservation has no phone number, skipping OpenPhone fetch",
			zap.Int64("reservation_id", reservationID))
		return 0, nil
	}

	phoneNumbers, err := s.openPhone.ListPhoneNumbers(ctx)
	if err != nil {
		logger.Error("Failed to list OpenPhone numbers",
			zap.Int64("reservation_id", reservationID),
			zap.Error(err))
		return 0, nil
	}

	stored := 0
	participants := []string{guestPhone}

	// The platform cannot filter globally; each account number is its own
	// partition and has to be queried separately.
	for _, pn := range phoneNumbers {
		messages, err := s.openPhone.ListMessages(ctx, pn.ID, participants)
		if err != nil {
			logger.Warn("Failed to list OpenPhone messages for number, continuing",
				zap.String("phone_number_id", pn.ID),
				zap.Error(err))
		} else {
			for _, msg := range messages {
				created, err := s.storeOpenPhoneMessage(reservationID, reservation.GuestName, msg)
				if err != nil {
					return stored, err
				}
				if created {
					stored++
				}
			}
		}

		calls, err := s.openPhone.ListCalls(ctx, pn.ID, participants)
		if err != nil {
			logger.Warn("Failed to list OpenPhone calls for number, continuing",
				zap.String("phone_number_id", pn.ID),
				zap.Error(err))
			continue
		}
		for _, call := range calls {
			created, err := s.storeOpenPhoneCall(ctx, reservationID, reservation.GuestName, call)
			if err != nil {
				return stored, err
			}
			if created {
				stored++
			}
		}
	}

	return stored, nil
}

func (s *AggregatorService) storeOpenPhoneMessage(reservationID int64, guestName string, msg clients.OpenPhoneMessage) (bool, error) {
	exists, err := s.comms.ExistsBySourceAndExternalID(models.SourceOpenPhoneSMS, msg.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check dedup key: %w", err)
	}
	if exists {
		return false, nil
	}

	direction := models.DirectionOutbound
	senderName := "Representative"
	if msg.Direction == "incoming" {
		direction = models.DirectionInbound
		senderName = guestName
	}

	comm := &models.GuestCommunication{
		ReservationID:  reservationID,
		Source:         models.SourceOpenPhoneSMS,
		ExternalID:     msg.ID,
		Content:        msg.Text,
		Direction:      direction,
		SenderName:     senderName,
		SenderPhone:    msg.From,
		CommunicatedAt: msg.CreatedAt,
		Metadata:       map[string]string{"conversationId": msg.ConversationID},
	}

	if err := s.comms.Create(comm); err != nil {
		if errors.Is(err, db.ErrDuplicateCommunication) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *AggregatorService) storeOpenPhoneCall(ctx context.Context, reservationID int64, guestName string, call clients.OpenPhoneCall) (bool, error) {
	exists, err := s.comms.ExistsBySourceAndExternalID(models.SourceOpenPhoneCall, call.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check dedup key: %w", err)
	}
	if exists {
		return false, nil
	}

	direction := models.DirectionOutbound
	senderName := "Representative"
	if call.Direction == "incoming" {
		direction = models.DirectionInbound
		senderName = guestName
	}

	content := fmt.Sprintf("Call %s - Duration: %ds", direction, call.Duration)

	// Best effort content upgrade: summary first, transcript only as a
	// fallback. Either failing keeps the synthesized default.
	if summary, err := s.openPhone.GetCallSummary(ctx, call.ID); err == nil && summary != "" {
		content = summary
	} else {
		if err != nil {
			logger.Debug("Call summary lookup failed", zap.String("call_id", call.ID), zap.Error(err))
		}
		if transcript, err := s.openPhone.GetCallTranscript(ctx, call.ID); err == nil && transcript != "" {
			content = transcript
		} else if err != nil {
			logger.Debug("Call transcript lookup failed", zap.String("call_id", call.ID), zap.Error(err))
		}
	}

	comm := &models.GuestCommunication{
		ReservationID:  reservationID,
		Source:         models.SourceOpenPhoneCall,
		ExternalID:     call.ID,
		Content:        content,
		Direction:      direction,
		SenderName:     senderName,
		SenderPhone:    call.From,
		CommunicatedAt: call.CreatedAt,
		Metadata: map[string]string{
			"duration": strconv.Itoa(call.Duration),
			"status":   call.Status,
		},
	}

	if err := s.comms.Create(comm); err != nil {
		if errors.Is(err, db.ErrDuplicateCommunication) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// FetchHostifyCommunications pulls the reservation's inbox thread and stores
// messages not seen before. When inboxID is empty it is resolved through the
// Hostify reservation payload. Returns the number of newly stored records;
// upstream failures are absorbed and yield whatever was collected so far.
func (s *AggregatorService) FetchHostifyCommunications(ctx context.Context, reservationID int64, inboxID string) (int, error) {
	if !s.hostify.HasCredentials() {
		logger.Warn("Hostify credentials not configured, skipping fetch",
			zap.Int64("reservation_id", reservationID))
		return 0, nil
	}

	reservationGuest := ""
	if inboxID == "" {
		info, err := s.hostify.GetReservationInfo(ctx, reservationID)
		if err != nil || info == nil {
			logger.Warn("Failed to resolve Hostify inbox id from reservation",
				zap.Int64("reservation_id", reservationID),
				zap.Error(err))
			return 0, nil
		}
		inboxID = info.Reservation.MessageID.String()
		reservationGuest = info.Reservation.GuestName
		if inboxID == "" || inboxID == "0" {
			logger.Warn("Reservation has no Hostify inbox thread",
				zap.Int64("reservation_id", reservationID))
			return 0, nil
		}
	}

	thread, err := s.hostify.GetInboxThread(ctx, inboxID)
	if err != nil {
		logger.Error("Failed to fetch Hostify inbox thread",
			zap.Int64("reservation_id", reservationID),
			zap.String("inbox_id", inboxID),
			zap.Error(err))
		return 0, nil
	}

	stored := 0
	for _, raw := range thread.Messages {
		created, err := s.storeHostifyMessage(reservationID, inboxID, thread, reservationGuest, raw)
		if err != nil {
			return stored, err
		}
		if created {
			stored++
		}
	}

	return stored, nil
}

func (s *AggregatorService) storeHostifyMessage(reservationID int64, inboxID string, thread *clients.HostifyThread, reservationGuest string, raw map[string]interface{}) (bool, error) {
	rawID := pickString(raw, "id", "message_id")
	if rawID == "" {
		logger.Warn("Hostify message has no id, skipping",
			zap.Int64("reservation_id", reservationID))
		return false, nil
	}

	externalID := "hostify_" + rawID

	exists, err := s.comms.ExistsBySourceAndExternalID(models.SourceHostifyMessage, externalID)
	if err != nil {
		return false, fmt.Errorf("failed to check dedup key: %w", err)
	}
	if exists {
		return false, nil
	}

	content := pickString(raw, "message", "text")
	senderType := pickString(raw, "senderType", "sender_type")

	direction := models.DirectionOutbound
	senderName := "Representative"
	if senderType == "guest" {
		direction = models.DirectionInbound
		senderName = thread.GuestName
		if senderName == "" {
			senderName = reservationGuest
		}
		if senderName == "" {
			senderName = "Guest"
		}
	} else if name := pickString(raw, "sender", "sender_name"); name != "" {
		senderName = name
	}

	communicatedAt := parseTimestamp(pickString(raw, "createdAt", "created_at", "timestamp"), s.now)

	comm := &models.GuestCommunication{
		ReservationID:  reservationID,
		Source:         models.SourceHostifyMessage,
		ExternalID:     externalID,
		Content:        content,
		Direction:      direction,
		SenderName:     senderName,
		SenderPhone:    thread.GuestPhone,
		CommunicatedAt: communicatedAt,
		Metadata: map[string]string{
			"inboxId": inboxID,
			"channel": pickString(raw, "channel", "provider"),
		},
	}

	if err := s.comms.Create(comm); err != nil {
		if errors.Is(err, db.ErrDuplicateCommunication) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// GetCommunications returns the stored communications for a reservation
// ordered by event time ascending
func (s *AggregatorService) GetCommunications(reservationID int64) ([]*models.GuestCommunication, error) {
	return s.comms.GetByReservationID(reservationID)
}

// BuildTimeline renders the stored communications as the chronological text
// block handed to the analysis prompt
func (s *AggregatorService) BuildTimeline(reservationID int64) (string, error) {
	comms, err := s.comms.GetByReservationID(reservationID)
	if err != nil {
		return "", fmt.Errorf("failed to load communications: %w", err)
	}
	if len(comms) == 0 {
		return NoCommunicationsSentinel, nil
	}

	var b strings.Builder
	for _, comm := range comms {
		b.WriteString(fmt.Sprintf("[%s] [%s] [%s] %s:\n%s\n\n",
			comm.CommunicatedAt.UTC().Format("2006-01-02 15:04:05"),
			sourceLabel(comm.Source),
			partyLabel(comm.Direction),
			comm.SenderName,
			comm.Content,
		))
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func sourceLabel(source string) string {
	switch source {
	case models.SourceOpenPhoneSMS:
		return "SMS"
	case models.SourceOpenPhoneCall:
		return "CALL"
	default:
		return "MSG"
	}
}

func partyLabel(direction string) string {
	if direction == models.DirectionInbound {
		return "GUEST"
	}
	return "REP"
}

// pickString returns the first present, non-empty candidate field from a raw
// payload, stringifying numeric ids along the way
func pickString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatInt(int64(t), 10)
		case int64:
			return strconv.FormatInt(t, 10)
		}
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a source timestamp, substituting the current time
// for missing or invalid values so the record stays valid
func parseTimestamp(value string, now func() time.Time) time.Time {
	if value == "" {
		return now()
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	// Some integrations send unix seconds
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return now()
}
