package utils

import (
	"testing"
	"time"
)

func TestDisplayName(t *testing.T) {
	if got := DisplayName("Nimal Perera", "nimal@example.com"); got != "Nimal Perera" {
		t.Fatalf("expected full name, got %q", got)
	}
	if got := DisplayName("   ", "nimal@example.com"); got != "nimal@example.com" {
		t.Fatalf("expected email fallback, got %q", got)
	}
	if got := DisplayName("", ""); got != "User" {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}

func TestAvatarHueStable(t *testing.T) {
	first := AvatarHue("Nimal Perera")
	second := AvatarHue("Nimal Perera")
	if first != second {
		t.Fatalf("hue not stable: %d vs %d", first, second)
	}
	if first < 0 || first > 359 {
		t.Fatalf("hue out of range: %d", first)
	}
	if AvatarHue("") != 0 {
		t.Fatalf("empty string should hash to 0, got %d", AvatarHue(""))
	}
}

func TestTimeAgoBuckets(t *testing.T) {
	now := time.Now()
	cases := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{90 * time.Minute, "1h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, c := range cases {
		if got := TimeAgo(now.Add(-c.age)); got != c.want {
			t.Fatalf("TimeAgo(-%v) = %q, want %q", c.age, got, c.want)
		}
	}

	// Future timestamps clamp to the smallest bucket.
	if got := TimeAgo(now.Add(time.Hour)); got != "just now" {
		t.Fatalf("future timestamp should be %q, got %q", "just now", got)
	}
}

func TestPropertyTypeLabel(t *testing.T) {
	cases := map[string]string{
		"single_room":    "Single room",
		"multiple_rooms": "Multiple rooms",
		"hostel":         "Hostel",
		"whatever":       "Property",
	}
	for in, want := range cases {
		if got := PropertyTypeLabel(in); got != want {
			t.Fatalf("PropertyTypeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
