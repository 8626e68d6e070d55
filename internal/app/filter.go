package app

import (
	"sort"
	"strings"
	"time"

	"hostaway_reviews/internal/domain"
)

// ApplyFilter narrows and orders reviews the way the moderation dashboard does.
// The input slice is not modified.
func ApplyFilter(in []domain.CanonicalReview, f domain.ReviewFilter) []domain.CanonicalReview {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.CanonicalReview, 0, len(in))
	for _, r := range in {
		if q != "" &&
			!strings.Contains(strings.ToLower(r.Comment), q) &&
			!strings.Contains(strings.ToLower(r.GuestName), q) &&
			!strings.Contains(strings.ToLower(r.ListingName), q) {
			continue
		}
		if f.Listing != "" && r.ListingName != f.Listing {
			continue
		}
		if f.Channel != "" && r.Channel != f.Channel {
			continue
		}
		if f.MinRating != nil && r.OverallRating < *f.MinRating {
			continue
		}
		if f.Approved != nil && r.Approved != *f.Approved {
			continue
		}
		if f.Featured != nil && r.Featured != *f.Featured {
			continue
		}
		out = append(out, r)
	}

	switch f.Sort {
	case domain.SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].OverallRating > out[j].OverallRating })
	case domain.SortDate:
		// newest first; unparsable timestamps sink to the end
		sort.SliceStable(out, func(i, j int) bool {
			ti, oki := submittedTime(out[i])
			tj, okj := submittedTime(out[j])
			if oki != okj {
				return oki
			}
			return ti.After(tj)
		})
	}
	return out
}

func submittedTime(r domain.CanonicalReview) (time.Time, bool) {
	t, err := time.Parse(domain.SubmittedAtLayout, r.SubmittedAt)
	return t, err == nil
}

// ParseSort accepts "", "date" and "rating".
func ParseSort(s string) (domain.SortOrder, bool) {
	switch domain.SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case domain.SortNone:
		return domain.SortNone, true
	case domain.SortDate:
		return domain.SortDate, true
	case domain.SortRating:
		return domain.SortRating, true
	}
	return domain.SortNone, false
}
