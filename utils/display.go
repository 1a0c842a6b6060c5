package utils

import (
	"fmt"
	"strings"
	"time"
)

// DisplayName resolves what to show for a profile: the trimmed full name,
// falling back to the email, falling back to "User".
func DisplayName(fullName, email string) string {
	if n := strings.TrimSpace(fullName); n != "" {
		return n
	}
	if email != "" {
		return email
	}
	return "User"
}

// AvatarHue derives a stable hue (0-359) for a generated avatar background
// from a display string. The hash is the classic 31x rolling string hash over
// 32-bit arithmetic, so the same name renders the same color on every
// platform.
func AvatarHue(s string) int {
	var hash int32
	for _, r := range s {
		hash = int32(r) + (hash<<5 - hash)
	}
	if hash < 0 {
		hash = -hash
	}
	return int(hash % 360)
}

// TimeAgo buckets a timestamp into "just now" / "Nm ago" / "Nh ago" /
// "Nd ago". Floor-based, not calendar-aware.
func TimeAgo(t time.Time) string {
	diff := time.Since(t)
	if diff < 0 {
		diff = 0
	}
	m := int(diff.Minutes())
	if m < 1 {
		return "just now"
	}
	if m < 60 {
		return fmt.Sprintf("%dm ago", m)
	}
	h := m / 60
	if h < 24 {
		return fmt.Sprintf("%dh ago", h)
	}
	return fmt.Sprintf("%dd ago", h/24)
}

// PropertyTypeLabel maps internal listing type codes to human labels.
func PropertyTypeLabel(t string) string {
	switch t {
	case "single_room":
		return "Single room"
	case "multiple_rooms":
		return "Multiple rooms"
	case "hostel":
		return "Hostel"
	default:
		return "Property"
	}
}
