package usecase

import (
	"strings"

	"NewsCaster/internal/domain"
)

// recentUnits are the label tokens that mark an item as published within the day.
// Day-unit labels fall outside; "23 hours ago" still counts as recent.
var recentUnits = []string{"hour", "hours", "minute", "minutes", "second", "seconds"}

// IsRecent classifies a free-text "published" label such as "3 hours ago".
func IsRecent(label string) bool {
	label = strings.ToLower(label)
	for _, unit := range recentUnits {
		if strings.Contains(label, unit) {
			return true
		}
	}
	return false
}

// FilterRecent keeps recent candidates in source order.
func FilterRecent(candidates []domain.Candidate) []domain.Candidate {
	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if IsRecent(c.PublishedLabel) {
			kept = append(kept, c)
		}
	}
	return kept
}
