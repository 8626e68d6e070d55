package reviewsapi

import (
	"context"
	"fmt"
	"sync"

	"hostaway_reviews/internal/domain"
)

// Updater is the write half of Client.
type Updater interface {
	Update(ctx context.Context, id int64, p domain.ModerationPatch) (domain.ModerationResult, error)
}

type flag int

const (
	flagApproved flag = iota
	flagFeatured
)

// Board is a local copy of the review list with optimistic moderation toggles:
// the flip is visible immediately, then confirmed by the server or rolled back.
type Board struct {
	mu      sync.Mutex
	up      Updater
	reviews []domain.CanonicalReview
}

func NewBoard(up Updater, rs []domain.CanonicalReview) *Board {
	cp := make([]domain.CanonicalReview, len(rs))
	copy(cp, rs)
	return &Board{up: up, reviews: cp}
}

// Reviews returns a snapshot of the board.
func (b *Board) Reviews() []domain.CanonicalReview {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.CanonicalReview, len(b.reviews))
	copy(out, b.reviews)
	return out
}

func (b *Board) ToggleApproved(ctx context.Context, id int64) (domain.CanonicalReview, error) {
	return b.toggle(ctx, id, flagApproved)
}

func (b *Board) ToggleFeatured(ctx context.Context, id int64) (domain.CanonicalReview, error) {
	return b.toggle(ctx, id, flagFeatured)
}

func (b *Board) toggle(ctx context.Context, id int64, f flag) (domain.CanonicalReview, error) {
	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return domain.CanonicalReview{}, fmt.Errorf("review %d not on board: %w", id, domain.ErrNotFound)
	}
	field := b.field(i, f)
	prev := *field
	*field = !prev
	next := !prev
	b.mu.Unlock()

	var p domain.ModerationPatch
	if f == flagApproved {
		p.Approved = &next
	} else {
		p.Featured = &next
	}
	res, err := b.up.Update(ctx, id, p)

	b.mu.Lock()
	defer b.mu.Unlock()
	i = b.index(id)
	if err != nil {
		// roll back only the flag this call changed
		*b.field(i, f) = prev
		return b.reviews[i], err
	}
	b.reviews[i].Approved = res.Approved
	b.reviews[i].Featured = res.Featured
	return b.reviews[i], nil
}

// index and field must be called with mu held.
func (b *Board) index(id int64) int {
	for i := range b.reviews {
		if b.reviews[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) field(i int, f flag) *bool {
	if f == flagApproved {
		return &b.reviews[i].Approved
	}
	return &b.reviews[i].Featured
}
