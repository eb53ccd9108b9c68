package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// Client generates a completion constrained to a JSON object payload
type Client interface {
	GenerateJSON(ctx context.Context, system, user string) (string, error)
}

// analysisShape documents the output contract handed to the model. The
// schema is deliberately non-strict so out-of-contract values still come
// back and can be repaired by the caller instead of failing the request.
type analysisShape struct {
	Summary         string `json:"summary"`
	Sentiment       string `json:"sentiment"`
	SentimentReason string `json:"sentimentReason"`
	Flags           []struct {
		Flag        string `json:"flag"`
		Explanation string `json:"explanation"`
	} `json:"flags"`
}

var analysisSchema = generateSchema[analysisShape]()

// OpenAIClient calls the OpenAI Responses API
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI completion client
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client: &client,
		model:  model,
	}
}

// GenerateJSON runs a low-randomness completion and returns the raw JSON text
func (c *OpenAIClient) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "GuestAnalysis",
			Schema:      analysisSchema,
			Strict:      openai.Bool(false),
			Description: openai.String("Guest communication analysis JSON"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		Temperature:     openai.Float(0.2),
		MaxOutputTokens: openai.Int(1500),
		Instructions:    openai.String(system),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(user, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := c.callWithRetry(ctx, params)
	if err != nil {
		return "", err
	}

	return resp.OutputText(), nil
}

func (c *OpenAIClient) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	waitTimes := []time.Duration{5 * time.Second, 20 * time.Second, 60 * time.Second}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.client.Responses.New(ctx, params)
		if err != nil {
			if (isRateLimitError(err) || isServerError(err)) && attempt < maxRetries-1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(waitTimes[attempt]):
				}
				continue
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("completion failed after %d attempts", maxRetries)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	return m
}
