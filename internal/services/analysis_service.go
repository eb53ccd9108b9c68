package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/ai"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/clients"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/db"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/models"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/logger"

	"go.uber.org/zap"
)

// freshnessWindow is how recent an existing analysis must be for the
// scheduled batch to skip re-analysis
const freshnessWindow = 24 * time.Hour

const systemPrompt = `You are an assistant that reviews guest communication timelines for short-term rental reservations.

Respond with a single JSON object containing exactly these four fields:
- "summary": a neutral narrative of the guest's stay communications
- "sentiment": exactly one of "Positive", "Neutral", "Negative", "Mixed"
- "sentimentReason": a short justification for the chosen sentiment
- "flags": an array of {"flag": <type>, "explanation": <string>} objects; use an empty array when nothing applies

Allowed flag types: "cleanliness_issue", "maintenance_issue", "noise_complaint", "service_complaint", "safety_concern".

Rules:
- Keep a neutral, factual tone.
- Do not repeat messages verbatim.
- Do not mention internal system or platform names.
- Do not invent facts that are not supported by the timeline.`

// BatchResult aggregates the outcome of one scheduled batch run
type BatchResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// AnalysisService turns a reservation's communication timeline into one
// validated, persisted GuestAnalysis
type AnalysisService struct {
	aggregator   *AggregatorService
	comms        db.CommunicationRepository
	analyses     db.AnalysisRepository
	reservations ReservationAPI
	ai           ai.Client
	now          func() time.Time
}

// NewAnalysisService creates a new analysis engine
func NewAnalysisService(
	aggregator *AggregatorService,
	comms db.CommunicationRepository,
	analyses db.AnalysisRepository,
	reservations ReservationAPI,
	aiClient ai.Client,
) *AnalysisService {
	return &AnalysisService{
		aggregator:   aggregator,
		comms:        comms,
		analyses:     analyses,
		reservations: reservations,
		ai:           aiClient,
		now:          time.Now,
	}
}

// GetAnalysis returns the stored analysis for a reservation, nil when none exists
func (s *AnalysisService) GetAnalysis(reservationID int64) (*models.GuestAnalysis, error) {
	return s.analyses.GetByReservationID(reservationID)
}

// GetAnalyses returns the stored analyses for the given reservations
func (s *AnalysisService) GetAnalyses(reservationIDs []int64) ([]*models.GuestAnalysis, error) {
	return s.analyses.GetByReservationIDs(reservationIDs)
}

// GetCommunications returns the stored timeline rows for a reservation
func (s *AnalysisService) GetCommunications(reservationID int64) ([]*models.GuestCommunication, error) {
	return s.aggregator.GetCommunications(reservationID)
}

// FetchCommunications forces a source pull without running the analysis.
// Returns the per-source counts of newly stored records.
func (s *AnalysisService) FetchCommunications(ctx context.Context, reservationID int64, inboxID string) (map[string]int, error) {
	openPhoneCount, err := s.aggregator.FetchOpenPhoneCommunications(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	hostifyCount, err := s.aggregator.FetchHostifyCommunications(ctx, reservationID, inboxID)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		"openphone": openPhoneCount,
		"hostify":   hostifyCount,
	}, nil
}

// Analyze refreshes the communication history for a reservation, runs the
// model over the timeline and upserts the analysis row. Regeneration is the
// same operation; it always re-fetches and re-runs the model.
func (s *AnalysisService) Analyze(ctx context.Context, reservationID int64, inboxID string) (*models.GuestAnalysis, error) {
	return s.analyze(ctx, reservationID, inboxID, "manual")
}

func (s *AnalysisService) analyze(ctx context.Context, reservationID int64, inboxID, analyzedBy string) (*models.GuestAnalysis, error) {
	if _, err := s.aggregator.FetchOpenPhoneCommunications(ctx, reservationID); err != nil {
		return nil, fmt.Errorf("failed to store OpenPhone communications: %w", err)
	}
	if _, err := s.aggregator.FetchHostifyCommunications(ctx, reservationID, inboxID); err != nil {
		return nil, fmt.Errorf("failed to store Hostify communications: %w", err)
	}

	timeline, err := s.aggregator.BuildTimeline(reservationID)
	if err != nil {
		return nil, err
	}

	// Reservation context is best effort; the analysis proceeds without it
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil || reservation == nil {
		logger.Warn("Proceeding without reservation context",
			zap.Int64("reservation_id", reservationID),
			zap.Error(err))
		reservation = nil
	}

	comms, err := s.comms.GetByReservationID(reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect communication ids: %w", err)
	}
	commIDs := make([]string, 0, len(comms))
	for _, comm := range comms {
		commIDs = append(commIDs, comm.ID)
	}

	raw, err := s.ai.GenerateJSON(ctx, systemPrompt, buildUserMessage(reservation, timeline))
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis: %w", err)
	}

	summary, sentiment, reason, flags, err := parseAnalysisResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis: %w", err)
	}

	analysis := &models.GuestAnalysis{
		ReservationID:    reservationID,
		Summary:          summary,
		Sentiment:        sentiment,
		SentimentReason:  reason,
		Flags:            flags,
		AnalyzedAt:       s.now(),
		AnalyzedBy:       analyzedBy,
		CommunicationIDs: commIDs,
	}

	// Keep the surviving row's id stable across regenerations
	existing, err := s.analyses.GetByReservationID(reservationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		analysis.ID = existing.ID
	}

	if err := s.analyses.Upsert(analysis); err != nil {
		return nil, err
	}

	return analysis, nil
}

// ProcessScheduledAnalysis analyzes today's checkout reservations one at a
// time, skipping reservations whose analysis is fresher than 24 hours. A
// failing reservation is counted and the batch continues.
func (s *AnalysisService) ProcessScheduledAnalysis(ctx context.Context) (*BatchResult, error) {
	checkouts, err := s.reservations.GetCheckoutReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout reservations: %w", err)
	}

	result := &BatchResult{}
	for _, reservation := range checkouts {
		existing, err := s.analyses.GetByReservationID(reservation.ID)
		if err == nil && existing != nil && s.now().Sub(existing.AnalyzedAt) < freshnessWindow {
			result.Skipped++
			continue
		}

		if _, err := s.analyze(ctx, reservation.ID, "", "scheduled"); err != nil {
			logger.Error("Scheduled analysis failed for reservation",
				zap.Int64("reservation_id", reservation.ID),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Processed++
	}

	logger.Info("Scheduled analysis batch finished",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

func buildUserMessage(reservation *clients.Reservation, timeline string) string {
	var b strings.Builder

	if reservation != nil {
		b.WriteString("Reservation context:\n")
		b.WriteString(fmt.Sprintf("Guest: %s\n", reservation.GuestName))
		b.WriteString(fmt.Sprintf("Listing: %s\n", reservation.ListingName))
		b.WriteString(fmt.Sprintf("Stay: %s to %s\n", reservation.ArrivalDate, reservation.DepartureDate))
		b.WriteString(fmt.Sprintf("Booking channel: %s\n", reservation.ChannelName))
		b.WriteString("\n")
	}

	b.WriteString("Communication timeline:\n")
	b.WriteString(timeline)
	b.WriteString("\nAnalyze the timeline above and respond with the JSON object described in your instructions.")

	return b.String()
}

// parseAnalysisResponse decodes the model output. Unparseable JSON is a hard
// error; an out-of-contract sentiment or flags value is silently repaired.
func parseAnalysisResponse(raw string) (summary, sentiment, reason string, flags []models.AnalysisFlag, err error) {
	var resp struct {
		Summary         string          `json:"summary"`
		Sentiment       string          `json:"sentiment"`
		SentimentReason string          `json:"sentimentReason"`
		Flags           json.RawMessage `json:"flags"`
	}

	if err = json.Unmarshal([]byte(raw), &resp); err != nil {
		err = fmt.Errorf("model response is not valid JSON: %w", err)
		return
	}

	sentiment = resp.Sentiment
	if !models.IsValidSentiment(sentiment) {
		logger.Warn("Repairing out-of-contract sentiment", zap.String("sentiment", sentiment))
		sentiment = models.SentimentNeutral
	}

	flags = []models.AnalysisFlag{}
	if len(resp.Flags) > 0 {
		var parsed []models.AnalysisFlag
		if jsonErr := json.Unmarshal(resp.Flags, &parsed); jsonErr != nil {
			logger.Warn("Repairing non-array flags value")
		} else if parsed != nil {
			flags = parsed
		}
	}

	return resp.Summary, sentiment, resp.SentimentReason, flags, nil
}
