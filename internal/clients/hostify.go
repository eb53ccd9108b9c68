package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HostifyReservationInfo is the reservation payload from Hostify, carrying
// the inbox thread id when one exists
type HostifyReservationInfo struct {
	Reservation struct {
		ID        int64       `json:"id"`
		MessageID json.Number `json:"message_id"`
		GuestName string      `json:"guest_name"`
	} `json:"reservation"`
}

// HostifyThread is one inbox conversation. Messages are kept as raw maps
// because the integration returns two casing conventions for the same
// logical fields; normalization happens in the aggregator.
type HostifyThread struct {
	GuestName  string                   `json:"guestName"`
	GuestPhone string                   `json:"guestPhone"`
	Messages   []map[string]interface{} `json:"messages"`
}

// HostifyClient is a typed HTTP client for the Hostify API
type HostifyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewHostifyClient creates a new Hostify API client
func NewHostifyClient(apiKey, baseURL string) *HostifyClient {
	return &HostifyClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HasCredentials reports whether the client has an API key configured
func (c *HostifyClient) HasCredentials() bool {
	return c.apiKey != ""
}

// GetReservationInfo fetches reservation details, including the inbox thread
// id embedded in the payload
func (c *HostifyClient) GetReservationInfo(ctx context.Context, reservationID int64) (*HostifyReservationInfo, error) {
	var result HostifyReservationInfo
	path := "/reservations/" + strconv.FormatInt(reservationID, 10)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetInboxThread fetches one inbox conversation with all of its messages
func (c *HostifyClient) GetInboxThread(ctx context.Context, inboxID string) (*HostifyThread, error) {
	// The inbox payload nests the thread next to a success flag; tolerate
	// both snake and camel casing on the envelope fields as well.
	var result struct {
		Success    bool                     `json:"success"`
		GuestName  string                   `json:"guest_name"`
		GuestAlt   string                   `json:"guestName"`
		GuestPhone string                   `json:"guest_phone"`
		PhoneAlt   string                   `json:"guestPhone"`
		Messages   []map[string]interface{} `json:"messages"`
		Thread     *struct {
			GuestName  string                   `json:"guest_name"`
			GuestPhone string                   `json:"guest_phone"`
			Messages   []map[string]interface{} `json:"messages"`
		} `json:"thread"`
	}

	if err := c.get(ctx, "/inbox/"+url.PathEscape(inboxID), &result); err != nil {
		return nil, err
	}

	thread := &HostifyThread{
		GuestName:  result.GuestName,
		GuestPhone: result.GuestPhone,
		Messages:   result.Messages,
	}
	if thread.GuestName == "" {
		thread.GuestName = result.GuestAlt
	}
	if thread.GuestPhone == "" {
		thread.GuestPhone = result.PhoneAlt
	}
	if result.Thread != nil {
		if thread.GuestName == "" {
			thread.GuestName = result.Thread.GuestName
		}
		if thread.GuestPhone == "" {
			thread.GuestPhone = result.Thread.GuestPhone
		}
		if len(thread.Messages) == 0 {
			thread.Messages = result.Thread.Messages
		}
	}

	return thread, nil
}

func (c *HostifyClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build hostify request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hostify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hostify request to %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode hostify response: %w", err)
	}

	return nil
}
