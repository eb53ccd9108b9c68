package ai

import (
	"errors"
	"testing"
)

func TestGenerateSchema(t *testing.T) {
	schema := generateSchema[analysisShape]()

	if schema["type"] != "object" {
		t.Fatalf("schema type = %v, want object", schema["type"])
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("schema has no properties map")
	}
	for _, field := range []string{"summary", "sentiment", "sentimentReason", "flags"} {
		if _, ok := props[field]; !ok {
			t.Errorf("schema missing property %q", field)
		}
	}

	if extra, ok := schema["additionalProperties"].(bool); !ok || extra {
		t.Error("schema must forbid additional properties")
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "status code", err: errors.New("request failed: 429"), want: true},
		{name: "rate limit text", err: errors.New("Rate limit exceeded"), want: true},
		{name: "too many requests", err: errors.New("Too Many Requests"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRateLimitError(tt.err); got != tt.want {
				t.Errorf("isRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsServerError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "status code", err: errors.New("request failed: 500"), want: true},
		{name: "server_error type", err: errors.New("openai: server_error"), want: true},
		{name: "unrelated", err: errors.New("bad request: 400"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isServerError(tt.err); got != tt.want {
				t.Errorf("isServerError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
