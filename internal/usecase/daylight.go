package usecase

import (
	"time"

	"github.com/keep94/sunrise"
)

// IsDaylight reports whether t falls between sunrise and sunset at the
// given position. Polar day and night report false.
func IsDaylight(lat, lon float64, t time.Time) bool {
	var s sunrise.Sunrise
	s.Around(lat, lon, t)

	// Move to the first sunset at or after t.
	for i := 0; i < 3 && s.Sunset().Before(t); i++ {
		s.AddDays(1)
	}
	for i := 0; i < 3; i++ {
		prev := s
		prev.AddDays(-1)
		if prev.Sunset().Before(t) {
			break
		}
		s = prev
	}

	rise, set := s.Sunrise(), s.Sunset()
	if !set.After(rise) {
		return false
	}
	return !t.Before(rise) && !t.After(set)
}
