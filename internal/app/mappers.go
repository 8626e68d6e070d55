package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"hostaway_reviews/internal/domain"
)

/********** alias registry (single source of truth) **********/

var reviewAliases = map[string][]string{
	"id":          {"id", "reviewId", "review_id"},
	"type":        {"type", "reviewType"},
	"status":      {"status"},
	"rating":      {"rating", "overallRating", "scores.overall"},
	"comment":     {"publicReview", "public_review", "comment", "text"},
	"categories":  {"reviewCategory", "review_category", "categories"},
	"submittedAt": {"submittedAt", "submitted_at", "submittedDate"},
	"guestName":   {"guestName", "guest_name", "reviewerName"},
	"listingName": {"listingName", "listing_name", "listingMapName"},
	"channel":     {"channel", "channelName", "source"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstAlias returns the first non-nil value among the aliases of key.
func firstAlias(m map[string]any, key string) any {
	for _, p := range reviewAliases[key] {
		if v := lookupAny(m, p); v != nil {
			return v
		}
	}
	return nil
}

// firstStr: first non-empty string for a named alias set.
func firstStr(m map[string]any, key string) string {
	for _, p := range reviewAliases[key] {
		if s, ok := lookupAny(m, p).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// floatFlexible: number from float64/int/json-ish string ("8,5" accepted).
func floatFlexible(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

// roundHalfUp rounds .5 towards +Inf.
func roundHalfUp(f float64) int { return int(math.Floor(f + 0.5)) }

/********** review mapper **********/

// DecodeRawReview maps a loosely typed provider payload onto RawReview.
// Malformed numbers are tolerated: an unparsable category rating becomes 0 and an
// unparsable overall rating is treated as absent. Only a missing or non-positive id
// is rejected.
func DecodeRawReview(p map[string]any) (domain.RawReview, error) {
	var rv domain.RawReview

	idf, ok := floatFlexible(firstAlias(p, "id"))
	if !ok || idf <= 0 || idf != math.Trunc(idf) {
		return rv, fmt.Errorf("review id %v: %w", firstAlias(p, "id"), domain.ErrInvalidInput)
	}
	rv.ID = int64(idf)

	rv.Type = domain.ReviewType(firstStr(p, "type"))
	rv.Status = firstStr(p, "status")
	rv.Comment = firstStr(p, "comment")
	rv.SubmittedAt = firstStr(p, "submittedAt")
	rv.GuestName = firstStr(p, "guestName")
	rv.ListingName = firstStr(p, "listingName")
	if ch := firstStr(p, "channel"); ch != "" {
		rv.Channel = &ch
	}

	if f, ok := floatFlexible(firstAlias(p, "rating")); ok {
		r := roundHalfUp(f)
		rv.Rating = &r
	}

	if raw, ok := firstAlias(p, "categories").([]any); ok {
		rv.Categories = make([]domain.CategoryRating, 0, len(raw))
		for _, it := range raw {
			obj, ok := it.(map[string]any)
			if !ok {
				continue
			}
			name, _ := obj["category"].(string)
			if name == "" {
				continue
			}
			f, _ := floatFlexible(obj["rating"])
			rv.Categories = append(rv.Categories, domain.CategoryRating{Category: name, Rating: roundHalfUp(f)})
		}
	}
	return rv, nil
}
