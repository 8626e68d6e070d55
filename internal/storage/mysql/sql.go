package mysql

// Note: `status` and `type` are keywords in some modes; keep them quoted everywhere.
const insertReviewsPrefix = "INSERT INTO hostaway_reviews\n" +
	"  (id, `type`, `status`, rating, guest_name, listing_name, channel, submitted_at, raw)\nVALUES "

// Use VALUES(col) for broad compatibility; a NULL rating/channel is a real value here.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  `type`       = VALUES(`type`),\n" +
	"  `status`     = VALUES(`status`),\n" +
	"  rating       = VALUES(rating),\n" +
	"  guest_name   = VALUES(guest_name),\n" +
	"  listing_name = VALUES(listing_name),\n" +
	"  channel      = VALUES(channel),\n" +
	"  submitted_at = VALUES(submitted_at),\n" +
	"  raw          = VALUES(raw),\n" +
	"  updated_at   = CURRENT_TIMESTAMP\n"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// raw holds the provider payload as received; the mapper works from it so the
// catalog and the fixture go through the same decoding.
const listRawSQL = `
SELECT id, raw
FROM hostaway_reviews
ORDER BY id
`

const countByListingSQL = `
SELECT listing_name, COUNT(*)
FROM hostaway_reviews
GROUP BY listing_name
ORDER BY listing_name
`
