package domain

import "context"

// ReviewSource yields raw provider payloads in a stable order.
type ReviewSource interface {
	RawReviews(ctx context.Context) ([]map[string]any, error)
}

// ModerationStore keeps approved/featured flags per review id.
// Ids that were never written read as the zero ModerationFlags.
type ModerationStore interface {
	Get(ctx context.Context, id int64) (ModerationFlags, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]ModerationFlags, error)
	Set(ctx context.Context, id int64, p ModerationPatch) (ModerationFlags, error)
}

// Write side of the MySQL catalog, used by the seeder.
type ReviewCatalog interface {
	UpsertRawReviews(ctx context.Context, rs []RawReview, payloads []map[string]any) error
}

// Read models & queries

type SortOrder string

const (
	SortNone   SortOrder = ""
	SortDate   SortOrder = "date"
	SortRating SortOrder = "rating"
)

type ReviewFilter struct {
	Search    string
	Listing   string
	Channel   string
	MinRating *int
	Approved  *bool
	Featured  *bool
	Sort      SortOrder
}

type ReviewStats struct {
	Total         int     `json:"total"`
	Approved      int     `json:"approved"`
	Featured      int     `json:"featured"`
	AverageRating float64 `json:"averageRating"`
}

type Showcase struct {
	ListingName      string             `json:"listingName"`
	Count            int                `json:"count"`
	AverageRating    float64            `json:"averageRating"`
	CategoryAverages map[string]float64 `json:"categoryAverages"`
	Approved         []CanonicalReview  `json:"approved"`
	Featured         []CanonicalReview  `json:"featured"`
}
