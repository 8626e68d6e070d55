package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"hostaway_reviews/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// Repo is the MySQL catalog of raw Hostaway reviews.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertRawReviews writes decoded reviews with their original payloads; rs and
// payloads are parallel slices.
func (r *Repo) UpsertRawReviews(ctx context.Context, rs []domain.RawReview, payloads []map[string]any) error {
	if len(rs) == 0 {
		return nil
	}
	if len(rs) != len(payloads) {
		return fmt.Errorf("upsert: %d reviews but %d payloads", len(rs), len(payloads))
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*9) // 9 params per row
	for i, rv := range rs {
		raw, err := json.Marshal(payloads[i])
		if err != nil {
			return fmt.Errorf("marshal payload %d: %w", rv.ID, err)
		}
		values = append(values, "(?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rv.ID,              // id
			string(rv.Type),    // type
			rv.Status,          // status
			valInt(rv.Rating),  // rating
			rv.GuestName,       // guest_name
			rv.ListingName,     // listing_name
			valStr(rv.Channel), // channel
			rv.SubmittedAt,     // submitted_at (verbatim provider text)
			string(raw),        // raw
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// RawReviews returns the stored payloads ordered by id. It satisfies
// domain.ReviewSource.
func (r *Repo) RawReviews(ctx context.Context) ([]map[string]any, error) {
	rows, err := r.db.QueryContext(ctx, listRawSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var p map[string]any
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warn().Err(err).Int64("id", id).Msg("unreadable raw payload")
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByListing reports how many reviews each listing holds.
func (r *Repo) CountByListing(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, countByListingSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}
