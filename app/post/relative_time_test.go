package post

import (
	"testing"
	"time"
)

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		token string
		want  time.Duration
	}{
		{"20h", 20 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"20h •", 20 * time.Hour},
		{"2 hrs", 2 * time.Hour},
		{"3mo Visible to everyone", 90 * 24 * time.Hour},
		{"1yr", 365 * 24 * time.Hour},
		{"  5 Weeks ", 35 * 24 * time.Hour},
	}

	for _, tt := range tests {
		got, ok := ParseRelativeTime(tt.token, now)
		if !ok {
			t.Errorf("Expected %q to parse", tt.token)
			continue
		}
		if diff := now.Add(-tt.want).Sub(got); diff < -time.Second || diff > time.Second {
			t.Errorf("ParseRelativeTime(%q) = %v, want %v", tt.token, got, now.Add(-tt.want))
		}
	}
}

func TestParseRelativeTime_Invalid(t *testing.T) {
	for _, token := range []string{"notanumber", "", "5x", "h20", "•", "99999999999h", "999999999y"} {
		if _, ok := ParseRelativeTime(token, time.Now()); ok {
			t.Errorf("Expected %q not to parse", token)
		}
	}
}
