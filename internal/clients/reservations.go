package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Reservation is the read-only booking record owned by the PMS service
type Reservation struct {
	ID            int64  `json:"id"`
	Phone         string `json:"phone"`
	GuestName     string `json:"guestName"`
	ListingName   string `json:"listingName"`
	ArrivalDate   string `json:"arrivalDate"`
	DepartureDate string `json:"departureDate"`
	ChannelName   string `json:"channelName"`
}

// ReservationClient is a read-only HTTP client for reservation metadata
type ReservationClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewReservationClient creates a new reservation lookup client
func NewReservationClient(baseURL string) *ReservationClient {
	return &ReservationClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FindByID fetches reservation metadata, nil when the reservation is unknown
func (c *ReservationClient) FindByID(ctx context.Context, reservationID int64) (*Reservation, error) {
	path := "/api/reservations/" + strconv.FormatInt(reservationID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reservation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reservation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reservation request to %s returned status %d", path, resp.StatusCode)
	}

	var reservation Reservation
	if err := json.NewDecoder(resp.Body).Decode(&reservation); err != nil {
		return nil, fmt.Errorf("failed to decode reservation response: %w", err)
	}

	return &reservation, nil
}

// GetCheckoutReservations fetches today's checkouts in the PMS business timezone
func (c *ReservationClient) GetCheckoutReservations(ctx context.Context) ([]Reservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/reservations/checkouts-today", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout reservations request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout reservations request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout reservations request returned status %d", resp.StatusCode)
	}

	var result struct {
		Reservations []Reservation `json:"reservations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode checkout reservations response: %w", err)
	}

	return result.Reservations, nil
}
