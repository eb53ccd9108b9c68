package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "ten digits gets country code", raw: "5552010099", want: "+15552010099"},
		{name: "formatted number", raw: "(555) 201-0099", want: "+15552010099"},
		{name: "already e164", raw: "+15552010099", want: "+15552010099"},
		{name: "eleven digits kept as-is", raw: "15552010099", want: "+15552010099"},
		{name: "international number", raw: "+44 20 7946 0958", want: "+442079460958"},
		{name: "empty input", raw: "", want: ""},
		{name: "no digits", raw: "n/a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.raw); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
