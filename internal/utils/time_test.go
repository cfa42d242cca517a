package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: "", wantErr: false},
		{name: "Local returns local", timezone: "Local", wantErr: false},
		{name: "valid timezone UTC", timezone: "UTC", wantErr: false},
		{name: "valid timezone Asia/Tokyo", timezone: "Asia/Tokyo", wantErr: false},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestDateIn(t *testing.T) {
	// 23:30 UTC is already the next day in Tokyo
	instant := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	tokyo, err := LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	if got := DateIn(instant, time.UTC); got != "2026-10-19" {
		t.Errorf("DateIn(UTC) = %q, want 2026-10-19", got)
	}
	if got := DateIn(instant, tokyo); got != "2026-10-20" {
		t.Errorf("DateIn(Tokyo) = %q, want 2026-10-20", got)
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "2026-10-19", wantErr: false},
		{in: "2026-13-01", wantErr: true},
		{in: "10/19/2026", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if err := ValidateDate(tt.in); (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestChallengeDay(t *testing.T) {
	tests := []struct {
		streak int
		want   string
	}{
		{streak: 0, want: "Not started"},
		{streak: 1, want: "Day 1 of 75"},
		{streak: 75, want: "Day 75 of 75"},
		{streak: 76, want: "Day 76 (challenge complete)"},
	}
	for _, tt := range tests {
		if got := ChallengeDay(tt.streak); got != tt.want {
			t.Errorf("ChallengeDay(%d) = %q, want %q", tt.streak, got, tt.want)
		}
	}
}
