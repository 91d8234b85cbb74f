package utils

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "09:00", want: 9 * time.Hour},
		{in: "17:45", want: 17*time.Hour + 45*time.Minute},
		{in: "00:00", want: 0},
		{in: "24:00", want: 24 * time.Hour},
		{in: "9am", wantErr: true},
		{in: "25:00", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected an error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseClock(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if FormatClock(got) != tt.in {
			t.Errorf("FormatClock(%v) = %q, want %q", got, FormatClock(got), tt.in)
		}
	}
}

func TestAtOffset_KeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks jump forward at 02:00 on 2026-03-08.
	day := time.Date(2026, 3, 8, 0, 0, 0, 0, ny)
	got := AtOffset(day, 9*time.Hour)
	if got.Hour() != 9 || got.Minute() != 0 {
		t.Errorf("AtOffset = %v, want 09:00 local", got)
	}
	if got.Sub(day) != 8*time.Hour {
		t.Errorf("elapsed = %v, want 8h on a 23h day", got.Sub(day))
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{day: 2, want: 2}, // Monday
		{day: 4, want: 2},
		{day: 8, want: 2}, // Sunday
		{day: 9, want: 9},
	}
	for _, tt := range tests {
		got := StartOfWeek(time.Date(2026, 3, tt.day, 15, 30, 0, 0, time.UTC))
		want := time.Date(2026, 3, tt.want, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("StartOfWeek(Mar %d) = %v, want %v", tt.day, got, want)
		}
	}
}

func TestSameDay(t *testing.T) {
	utc := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	east := time.FixedZone("UTC+2", 2*3600)
	if SameDay(utc.In(east), utc) {
		t.Error("23:30 UTC is the next day at UTC+2")
	}
	if !SameDay(utc, utc.Add(-23*time.Hour)) {
		t.Error("expected the same UTC day")
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "", want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{in: "today", want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{in: "tomorrow", want: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{in: "2026-04-01", want: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{in: "next week", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ResolveDate(tt.in, now)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveDate(%q) expected an error", tt.in)
			}
			continue
		}
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("ResolveDate(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	for _, tz := range []string{"", "Local", "UTC"} {
		if !ValidateTimezone(tz) {
			t.Errorf("ValidateTimezone(%q) = false", tz)
		}
	}
	if ValidateTimezone("Mars/Olympus_Mons") {
		t.Error("expected an unknown zone to be rejected")
	}
	if _, err := NowInTimezone("Mars/Olympus_Mons"); err == nil {
		t.Error("NowInTimezone should fail for an unknown zone")
	}
}
