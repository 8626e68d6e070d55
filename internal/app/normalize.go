package app

import "hostaway_reviews/internal/domain"

// OverallRating is the explicit rating when present, else the half-up rounded
// mean of the category ratings, else 0.
func OverallRating(r domain.RawReview) int {
	if r.Rating != nil {
		return *r.Rating
	}
	if len(r.Categories) == 0 {
		return 0
	}
	sum := 0
	for _, c := range r.Categories {
		sum += c.Rating
	}
	return roundHalfUp(float64(sum) / float64(len(r.Categories)))
}

// Normalize converts raw reviews into canonical ones, preserving order.
// flags may be nil; ids absent from it are reported unapproved and unfeatured.
func Normalize(raws []domain.RawReview, flags map[int64]domain.ModerationFlags) []domain.CanonicalReview {
	out := make([]domain.CanonicalReview, 0, len(raws))
	for _, r := range raws {
		cats := make(map[string]int, len(r.Categories))
		for _, c := range r.Categories {
			cats[c.Category] = c.Rating // later duplicates win
		}
		ch := domain.DefaultChannel
		if r.Channel != nil && *r.Channel != "" {
			ch = *r.Channel
		}
		st := flags[r.ID]
		out = append(out, domain.CanonicalReview{
			ID:            r.ID,
			Type:          r.Type,
			Status:        r.Status,
			OverallRating: OverallRating(r),
			Comment:       r.Comment,
			Categories:    cats,
			SubmittedAt:   r.SubmittedAt,
			GuestName:     r.GuestName,
			ListingName:   r.ListingName,
			Channel:       ch,
			Approved:      st.Approved,
			Featured:      st.Featured,
		})
	}
	return out
}
