package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
)

const (
	// BedashWindow is how long a confirmed bedash stays on the pending page
	BedashWindow = 48 * time.Hour
	// TokenWindow is how long a confirmed token stays on the pending page
	TokenWindow = 15 * 24 * time.Hour
)

// IsVisible decides whether a record stays listed. Records that are not
// completed always show. A completed record shows while less than window has
// passed since confirmedAt; without a stamp it is hidden.
func IsVisible(completed bool, confirmedAt time.Time, stamped bool, window time.Duration, now time.Time) bool {
	if !completed {
		return true
	}
	if !stamped {
		return false
	}
	return now.Sub(confirmedAt) < window
}

// Remaining is the time left in the window, never negative
func Remaining(confirmedAt time.Time, window time.Duration, now time.Time) time.Duration {
	left := window - now.Sub(confirmedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Countdown renders the remaining time as "HHh MMm SSs", or "Expired"
func Countdown(confirmedAt time.Time, window time.Duration, now time.Time) string {
	left := Remaining(confirmedAt, window, now)
	if left <= 0 {
		return "Expired"
	}
	left = left.Truncate(time.Second)
	h := int(left / time.Hour)
	m := int(left%time.Hour) / int(time.Minute)
	s := int(left%time.Minute) / int(time.Second)
	return fmt.Sprintf("%02dh %02dm %02ds", h, m, s)
}

// FilterBedash keeps pending items and completed items still inside their
// window, ordered by target date ascending. times maps item id to the local
// confirmation stamp, which wins over the server's confirmedAt.
func FilterBedash(items []models.BedashItem, times map[int64]time.Time, now time.Time) []models.BedashItem {
	visible := make([]models.BedashItem, 0, len(items))
	for _, item := range items {
		at, ok := times[item.ID]
		if !ok && item.ConfirmedAt != nil {
			at, ok = *item.ConfirmedAt, true
		}
		if IsVisible(item.Status == models.BedashCompleted, at, ok, BedashWindow, now) {
			visible = append(visible, item)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].TargetDate.Before(visible[j].TargetDate)
	})
	return visible
}

// FilterTokens keeps tokens that are not completed or were confirmed within
// TokenWindow. A local stamp in times wins over the server's confirmedAt.
func FilterTokens(tokens []models.Token, times map[int64]time.Time, now time.Time) []models.Token {
	visible := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		at, ok := times[t.ID]
		if !ok && t.ConfirmedAt != nil {
			at, ok = *t.ConfirmedAt, true
		}
		if IsVisible(t.Status == models.TokenCompleted, at, ok, TokenWindow, now) {
			visible = append(visible, t)
		}
	}
	return visible
}
