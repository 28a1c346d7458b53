package domain

// Link maps a short code to its destination URL. Links are created by the
// seeding/admin surface; this service only reads them.
type Link struct {
	ShortCode      string
	DestinationURL string
}
