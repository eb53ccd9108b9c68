package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservationTestServer(t *testing.T, handler http.HandlerFunc) *ReservationClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewReservationClient(server.URL)
}

func TestReservationClient_FindByID(t *testing.T) {
	client := newReservationTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reservations/101", r.URL.Path)
		w.Write([]byte(`{"id":101,"phone":"5552010099","guestName":"John Doe","listingName":"Sea View Loft","arrivalDate":"2024-01-01","departureDate":"2024-01-05","channelName":"Airbnb"}`))
	})

	reservation, err := client.FindByID(context.Background(), 101)
	require.NoError(t, err)
	require.NotNil(t, reservation)
	assert.Equal(t, int64(101), reservation.ID)
	assert.Equal(t, "John Doe", reservation.GuestName)
	assert.Equal(t, "Sea View Loft", reservation.ListingName)
}

func TestReservationClient_FindByID_NotFound(t *testing.T) {
	client := newReservationTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// An unknown reservation is not an error
	reservation, err := client.FindByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, reservation)
}

func TestReservationClient_FindByID_ServerError(t *testing.T) {
	client := newReservationTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FindByID(context.Background(), 101)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestReservationClient_GetCheckoutReservations(t *testing.T) {
	client := newReservationTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reservations/checkouts-today", r.URL.Path)
		w.Write([]byte(`{"reservations":[{"id":1,"guestName":"A"},{"id":2,"guestName":"B"}]}`))
	})

	checkouts, err := client.GetCheckoutReservations(context.Background())
	require.NoError(t, err)
	require.Len(t, checkouts, 2)
	assert.Equal(t, int64(1), checkouts[0].ID)
	assert.Equal(t, "B", checkouts[1].GuestName)
}

func TestReservationClient_GetCheckoutReservations_Empty(t *testing.T) {
	client := newReservationTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reservations":[]}`))
	})

	checkouts, err := client.GetCheckoutReservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, checkouts)
}
