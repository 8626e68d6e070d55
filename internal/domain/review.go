package domain

// ReviewType tells who wrote the review about whom.
type ReviewType string

const (
	HostToGuest ReviewType = "host-to-guest"
	GuestToHost ReviewType = "guest-to-host"
)

// DefaultChannel is reported when the provider payload carries no channel.
const DefaultChannel = "hostaway"

// SubmittedAtLayout is the provider timestamp format; submittedAt is passed through verbatim.
const SubmittedAtLayout = "2006-01-02 15:04:05"

type CategoryRating struct {
	Category string `json:"category"`
	Rating   int    `json:"rating"`
}

// RawReview is a review as received from the channel aggregator.
type RawReview struct {
	ID          int64            `json:"id"`
	Type        ReviewType       `json:"type"`
	Status      string           `json:"status"`
	Rating      *int             `json:"rating"`
	Comment     string           `json:"publicReview"`
	Categories  []CategoryRating `json:"reviewCategory"`
	SubmittedAt string           `json:"submittedAt"`
	GuestName   string           `json:"guestName"`
	ListingName string           `json:"listingName"`
	Channel     *string          `json:"channel,omitempty"`
}

// CanonicalReview is the normalized record served to the dashboard and showcase.
// Approved/Featured come from the moderation store at read time.
type CanonicalReview struct {
	ID            int64          `json:"id"`
	Type          ReviewType     `json:"type"`
	Status        string         `json:"status"`
	OverallRating int            `json:"overallRating"`
	Comment       string         `json:"comment"`
	Categories    map[string]int `json:"categories"`
	SubmittedAt   string         `json:"submittedAt"`
	GuestName     string         `json:"guestName"`
	ListingName   string         `json:"listingName"`
	Channel       string         `json:"channel"`
	Approved      bool           `json:"approved"`
	Featured      bool           `json:"featured"`
}

type ModerationFlags struct {
	Approved bool `json:"approved"`
	Featured bool `json:"featured"`
}

// ModerationPatch carries only the flags the caller wants to change.
type ModerationPatch struct {
	Approved *bool `json:"approved,omitempty"`
	Featured *bool `json:"featured,omitempty"`
}

func (p ModerationPatch) Empty() bool { return p.Approved == nil && p.Featured == nil }

// Apply merges the patch over cur and returns the result.
func (p ModerationPatch) Apply(cur ModerationFlags) ModerationFlags {
	if p.Approved != nil {
		cur.Approved = *p.Approved
	}
	if p.Featured != nil {
		cur.Featured = *p.Featured
	}
	return cur
}

type ModerationResult struct {
	ID       int64 `json:"id"`
	Approved bool  `json:"approved"`
	Featured bool  `json:"featured"`
}
