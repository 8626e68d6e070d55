package reviewsapi_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostaway_reviews/internal/adapters/reviewsapi"
	"hostaway_reviews/internal/domain"
)

type stubUpdater struct {
	err   error
	calls []domain.ModerationPatch
	// seenOnBoard captures the board state while the request is in flight
	board       *reviewsapi.Board
	seenOnBoard []domain.CanonicalReview
}

func (s *stubUpdater) Update(ctx context.Context, id int64, p domain.ModerationPatch) (domain.ModerationResult, error) {
	s.calls = append(s.calls, p)
	if s.board != nil {
		s.seenOnBoard = s.board.Reviews()
	}
	if s.err != nil {
		return domain.ModerationResult{}, s.err
	}
	res := domain.ModerationResult{ID: id, Approved: true}
	if p.Featured != nil {
		res.Featured = *p.Featured
	}
	return res, nil
}

func boardReviews() []domain.CanonicalReview {
	return []domain.CanonicalReview{
		{ID: 7453, Approved: true},
		{ID: 7454},
	}
}

func TestBoard_OptimisticThenConfirmed(t *testing.T) {
	up := &stubUpdater{}
	b := reviewsapi.NewBoard(up, boardReviews())
	up.board = b

	r, err := b.ToggleFeatured(context.Background(), 7453)
	require.NoError(t, err)
	assert.True(t, r.Featured)
	assert.True(t, r.Approved)

	require.Len(t, up.calls, 1)
	assert.Nil(t, up.calls[0].Approved)
	require.NotNil(t, up.calls[0].Featured)
	assert.True(t, *up.calls[0].Featured)

	// the flip was visible before the server answered
	assert.True(t, up.seenOnBoard[0].Featured)
}

func TestBoard_RollsBackOnlyToggledField(t *testing.T) {
	up := &stubUpdater{err: errors.New("network down")}
	b := reviewsapi.NewBoard(up, boardReviews())

	r, err := b.ToggleFeatured(context.Background(), 7453)
	require.Error(t, err)
	assert.False(t, r.Featured, "featured restored")
	assert.True(t, r.Approved, "approved untouched")

	r, err = b.ToggleApproved(context.Background(), 7454)
	require.Error(t, err)
	assert.False(t, r.Approved)
	assert.Equal(t, boardReviews(), b.Reviews())
}

func TestBoard_UnknownReview(t *testing.T) {
	up := &stubUpdater{}
	b := reviewsapi.NewBoard(up, boardReviews())
	_, err := b.ToggleApproved(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, up.calls)
}

func TestBoard_WithRealClient(t *testing.T) {
	h, st := apiHandler()
	ts := httptest.NewServer(h)
	defer ts.Close()

	cl, err := reviewsapi.New(ts.URL, 100)
	require.NoError(t, err)
	ctx := context.Background()
	rs, err := cl.List(ctx, nil)
	require.NoError(t, err)

	b := reviewsapi.NewBoard(cl, rs)
	r, err := b.ToggleApproved(ctx, 7455)
	require.NoError(t, err)
	assert.True(t, r.Approved)

	flags, err := st.Get(ctx, 7455)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationFlags{Approved: true}, flags)
}
