package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hostaway_reviews/internal/domain"
)

type QueryService struct {
	source domain.ReviewSource
	store  domain.ModerationStore
}

func NewQueryService(src domain.ReviewSource, st domain.ModerationStore) *QueryService {
	return &QueryService{source: src, store: st}
}

// rawReviews decodes the source payloads. Payloads without a usable id are skipped.
func (s *QueryService) rawReviews(ctx context.Context) ([]domain.RawReview, error) {
	payloads, err := s.source.RawReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw reviews: %w", err)
	}
	out := make([]domain.RawReview, 0, len(payloads))
	for i, p := range payloads {
		rv, err := DecodeRawReview(p)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping raw review")
			continue
		}
		out = append(out, rv)
	}
	return out, nil
}

// List returns every review normalized and merged with current moderation state.
// A zero filter keeps source order.
func (s *QueryService) List(ctx context.Context, f domain.ReviewFilter) ([]domain.CanonicalReview, error) {
	raws, err := s.rawReviews(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(raws))
	for i, r := range raws {
		ids[i] = r.ID
	}
	flags, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("read moderation state: %w", err)
	}
	return ApplyFilter(Normalize(raws, flags), f), nil
}

// Update applies a partial moderation patch to an existing review.
func (s *QueryService) Update(ctx context.Context, id int64, p domain.ModerationPatch) (domain.ModerationResult, error) {
	if id <= 0 {
		return domain.ModerationResult{}, fmt.Errorf("review id %d: %w", id, domain.ErrInvalidInput)
	}
	raws, err := s.rawReviews(ctx)
	if err != nil {
		return domain.ModerationResult{}, err
	}
	found := false
	for _, r := range raws {
		if r.ID == id {
			found = true
			break
		}
	}
	if !found {
		return domain.ModerationResult{}, fmt.Errorf("review %d: %w", id, domain.ErrNotFound)
	}

	st, err := s.store.Set(ctx, id, p)
	if err != nil {
		return domain.ModerationResult{}, fmt.Errorf("write moderation state for %d: %w", id, err)
	}
	return domain.ModerationResult{ID: id, Approved: st.Approved, Featured: st.Featured}, nil
}

func (s *QueryService) Stats(ctx context.Context) (domain.ReviewStats, error) {
	rs, err := s.List(ctx, domain.ReviewFilter{})
	if err != nil {
		return domain.ReviewStats{}, err
	}
	out := domain.ReviewStats{Total: len(rs)}
	sum := 0
	for _, r := range rs {
		if r.Approved {
			out.Approved++
		}
		if r.Featured {
			out.Featured++
		}
		sum += r.OverallRating
	}
	if len(rs) > 0 {
		out.AverageRating = float64(sum) / float64(len(rs))
	}
	return out, nil
}

// Showcase builds the public view of one listing. Only approved reviews are
// shown; featured ones must also be approved.
func (s *QueryService) Showcase(ctx context.Context, listing string) (domain.Showcase, error) {
	if listing == "" {
		return domain.Showcase{}, fmt.Errorf("listing name is required: %w", domain.ErrInvalidInput)
	}
	approved := true
	rs, err := s.List(ctx, domain.ReviewFilter{Listing: listing, Approved: &approved, Sort: domain.SortDate})
	if err != nil {
		return domain.Showcase{}, err
	}

	out := domain.Showcase{
		ListingName:      listing,
		Count:            len(rs),
		CategoryAverages: map[string]float64{},
		Approved:         rs,
		Featured:         []domain.CanonicalReview{},
	}
	if len(rs) == 0 {
		out.Approved = []domain.CanonicalReview{}
		return out, nil
	}

	sum := 0
	catSum := map[string]int{}
	catN := map[string]int{}
	for _, r := range rs {
		sum += r.OverallRating
		for c, v := range r.Categories {
			catSum[c] += v
			catN[c]++
		}
		if r.Featured {
			out.Featured = append(out.Featured, r)
		}
	}
	out.AverageRating = float64(sum) / float64(len(rs))
	for c, n := range catN {
		out.CategoryAverages[c] = float64(catSum[c]) / float64(n)
	}
	return out, nil
}
