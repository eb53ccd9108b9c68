package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// OpenPhonePhoneNumber is one outbound number configured on the account
type OpenPhonePhoneNumber struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// OpenPhoneMessage is one SMS returned by the messages listing
type OpenPhoneMessage struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Direction      string    `json:"direction"`
	From           string    `json:"from"`
	CreatedAt      time.Time `json:"createdAt"`
	ConversationID string    `json:"conversationId"`
}

// OpenPhoneCall is one call record returned by the calls listing
type OpenPhoneCall struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"`
	From      string    `json:"from"`
	CreatedAt time.Time `json:"createdAt"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status"`
	Voicemail *struct {
		URL string `json:"url"`
	} `json:"voicemail,omitempty"`
}

// OpenPhoneClient is a typed HTTP client for the OpenPhone API
type OpenPhoneClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenPhoneClient creates a new OpenPhone API client
func NewOpenPhoneClient(apiKey, baseURL string) *OpenPhoneClient {
	return &OpenPhoneClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HasCredentials reports whether the client has an API key configured
func (c *OpenPhoneClient) HasCredentials() bool {
	return c.apiKey != ""
}

// ListPhoneNumbers enumerates every phone number id on the account
func (c *OpenPhoneClient) ListPhoneNumbers(ctx context.Context) ([]OpenPhonePhoneNumber, error) {
	var result struct {
		Data []OpenPhonePhoneNumber `json:"data"`
	}
	if err := c.get(ctx, "/phone-numbers", nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// ListMessages lists SMS messages exchanged with the given participants on
// one outbound phone number
func (c *OpenPhoneClient) ListMessages(ctx context.Context, phoneNumberID string, participants []string) ([]OpenPhoneMessage, error) {
	params := url.Values{}
	params.Set("phoneNumberId", phoneNumberID)
	for _, p := range participants {
		params.Add("participants[]", p)
	}
	params.Set("maxResults", "100")

	var result struct {
		Data []OpenPhoneMessage `json:"data"`
	}
	if err := c.get(ctx, "/messages", params, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// ListCalls lists calls with the given participants on one outbound phone number
func (c *OpenPhoneClient) ListCalls(ctx context.Context, phoneNumberID string, participants []string) ([]OpenPhoneCall, error) {
	params := url.Values{}
	params.Set("phoneNumberId", phoneNumberID)
	for _, p := range participants {
		params.Add("participants[]", p)
	}
	params.Set("maxResults", "100")

	var result struct {
		Data []OpenPhoneCall `json:"data"`
	}
	if err := c.get(ctx, "/calls", params, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GetCallSummary fetches the AI-generated summary for a call, empty when the
// platform has none
func (c *OpenPhoneClient) GetCallSummary(ctx context.Context, callID string) (string, error) {
	var result struct {
		Data struct {
			Summary string `json:"summary"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/call-summaries/"+url.PathEscape(callID), nil, &result); err != nil {
		return "", err
	}
	return result.Data.Summary, nil
}

// GetCallTranscript fetches the transcript text for a call, empty when the
// platform has none
func (c *OpenPhoneClient) GetCallTranscript(ctx context.Context, callID string) (string, error) {
	var result struct {
		Data struct {
			Dialogue []struct {
				Content string `json:"content"`
			} `json:"dialogue"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/call-transcripts/"+url.PathEscape(callID), nil, &result); err != nil {
		return "", err
	}
	if result.Data.Text != "" {
		return result.Data.Text, nil
	}
	transcript := ""
	for _, d := range result.Data.Dialogue {
		if d.Content == "" {
			continue
		}
		if transcript != "" {
			transcript += "\n"
		}
		transcript += d.Content
	}
	return transcript, nil
}

func (c *OpenPhoneClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build openphone request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openphone request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("openphone request to %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode openphone response: %w", err)
	}

	return nil
}
