package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hostaway_reviews/internal/domain"
)

// SeedService copies raw reviews from a source into the MySQL catalog.
type SeedService struct {
	source  domain.ReviewSource
	catalog domain.ReviewCatalog
}

func NewSeedService(src domain.ReviewSource, c domain.ReviewCatalog) *SeedService {
	return &SeedService{source: src, catalog: c}
}

// Batches loads the source and splits its payloads into chunks of at most size.
func (s *SeedService) Batches(ctx context.Context, size int) ([][]map[string]any, error) {
	if size <= 0 {
		size = 50
	}
	payloads, err := s.source.RawReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seed payloads: %w", err)
	}
	var out [][]map[string]any
	for start := 0; start < len(payloads); start += size {
		end := start + size
		if end > len(payloads) {
			end = len(payloads)
		}
		out = append(out, payloads[start:end])
	}
	return out, nil
}

// SeedBatch decodes one batch and upserts it. Payloads without a usable id are
// logged and left out; the rest of the batch still goes in.
func (s *SeedService) SeedBatch(ctx context.Context, batch []map[string]any) (int, error) {
	rs := make([]domain.RawReview, 0, len(batch))
	kept := make([]map[string]any, 0, len(batch))
	for _, p := range batch {
		rv, err := DecodeRawReview(p)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				log.Warn().Err(err).Msg("seed: skipping payload")
				continue
			}
			return 0, err
		}
		rs = append(rs, rv)
		kept = append(kept, p)
	}
	if len(rs) == 0 {
		return 0, nil
	}
	if err := s.catalog.UpsertRawReviews(ctx, rs, kept); err != nil {
		// do not swallow this; surface so we know inserts failed
		return 0, fmt.Errorf("upsert %d reviews: %w", len(rs), err)
	}
	return len(rs), nil
}
