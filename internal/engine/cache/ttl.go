package cache

import (
	"fmt"
	"strconv"
	"time"
)

// TTL configuration constants and defaults.
const (
	// CatalogTTL is how long catalog pages stay fresh.
	CatalogTTL = time.Hour

	// CategoriesTTL is how long the category list stays fresh.
	CategoriesTTL = 24 * time.Hour

	// MinTTL is the minimum allowed configured TTL.
	MinTTL = time.Minute

	// MaxTTL is the maximum allowed configured TTL.
	MaxTTL = 7 * 24 * time.Hour

	// minutesPerHour is used for duration formatting calculations.
	minutesPerHour = 60

	// hoursPerDay is used for duration formatting calculations.
	hoursPerDay = 24
)

// TTL validation errors.
var (
	ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", FormatDuration(MinTTL), FormatDuration(MaxTTL))
)

// ValidateTTL checks that ttl lies within [MinTTL, MaxTTL].
func ValidateTTL(ttl time.Duration) error {
	if ttl < MinTTL || ttl > MaxTTL {
		return fmt.Errorf("%w: got %s", ErrInvalidTTL, ttl)
	}
	return nil
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "1h", "30m", "5m30s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

// ParseTTL parses a TTL string in various formats:
// - Integer seconds: "3600".
// - Duration string: "1h", "30m", "1h30m".
func ParseTTL(s string) (time.Duration, error) {
	// Try parsing as integer seconds first
	if seconds, err := strconv.Atoi(s); err == nil {
		ttl := time.Duration(seconds) * time.Second
		if err := ValidateTTL(ttl); err != nil {
			return 0, err
		}
		return ttl, nil
	}

	ttl, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TTL format: %w", err)
	}
	if err := ValidateTTL(ttl); err != nil {
		return 0, err
	}
	return ttl, nil
}
