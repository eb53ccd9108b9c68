package db

import (
	"testing"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnalysis(reservationID int64) *models.GuestAnalysis {
	return &models.GuestAnalysis{
		ReservationID:   reservationID,
		Summary:         "Smooth stay with one towel request.",
		Sentiment:       models.SentimentPositive,
		SentimentReason: "Guest was consistently friendly.",
		Flags: []models.AnalysisFlag{
			{Flag: models.FlagServiceComplaint, Explanation: "Asked twice for extra towels."},
		},
		AnalyzedAt:       time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		AnalyzedBy:       "manual",
		CommunicationIDs: []string{"c1", "c2"},
	}
}

func TestAnalysisRepository_UpsertAndGet(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t).GetDB())

	analysis := testAnalysis(101)
	require.NoError(t, repo.Upsert(analysis))
	assert.NotEmpty(t, analysis.ID)

	stored, err := repo.GetByReservationID(101)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, analysis.Summary, stored.Summary)
	assert.Equal(t, models.SentimentPositive, stored.Sentiment)
	require.Len(t, stored.Flags, 1)
	assert.Equal(t, models.FlagServiceComplaint, stored.Flags[0].Flag)
	assert.Equal(t, []string{"c1", "c2"}, stored.CommunicationIDs)
}

func TestAnalysisRepository_Upsert_OneRowPerReservation(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t).GetDB())

	first := testAnalysis(101)
	require.NoError(t, repo.Upsert(first))

	second := testAnalysis(101)
	second.Summary = "Regenerated summary."
	second.Sentiment = models.SentimentMixed
	second.AnalyzedAt = first.AnalyzedAt.Add(3 * time.Hour)
	require.NoError(t, repo.Upsert(second))

	// The surviving row keeps the original id with the new fields
	stored, err := repo.GetByReservationID(101)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "Regenerated summary.", stored.Summary)
	assert.Equal(t, models.SentimentMixed, stored.Sentiment)
	assert.Equal(t, second.AnalyzedAt.Unix(), stored.AnalyzedAt.Unix())

	all, err := repo.GetByReservationIDs([]int64{101})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAnalysisRepository_GetByReservationID_NotFound(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t).GetDB())

	stored, err := repo.GetByReservationID(999)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestAnalysisRepository_GetByReservationIDs(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t).GetDB())

	require.NoError(t, repo.Upsert(testAnalysis(101)))
	require.NoError(t, repo.Upsert(testAnalysis(202)))

	analyses, err := repo.GetByReservationIDs([]int64{101, 202, 303})
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.Equal(t, int64(101), analyses[0].ReservationID)
	assert.Equal(t, int64(202), analyses[1].ReservationID)

	_, err = repo.GetByReservationIDs(nil)
	assert.Error(t, err)
}

func TestAnalysisRepository_Upsert_Validation(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t).GetDB())

	assert.Error(t, repo.Upsert(nil))
	assert.Error(t, repo.Upsert(&models.GuestAnalysis{}))
}
