package entities

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// NewSaleID builds a sale id of the form sale<unix millis><3 random digits>
func NewSaleID(now time.Time, rng *rand.Rand) string {
	n := 0
	if rng != nil {
		n = rng.Intn(1000)
	} else {
		n = rand.Intn(1000)
	}
	return fmt.Sprintf("sale%d%03d", now.UnixMilli(), n)
}

// NewArtworkID builds an artwork id of the form w<unix millis>
func NewArtworkID(now time.Time) string {
	return fmt.Sprintf("w%d", now.UnixMilli())
}

func NewContactID() string {
	return "contact_" + uuid.NewString()
}

func NewActivityID() string {
	return "activity_" + uuid.NewString()
}

// Timestamp formats t the way the storefront writes ISO timestamps
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// TimeAgo renders the relative time shown in the dashboard activity feed
func TimeAgo(now, then time.Time) string {
	diff := int(now.Sub(then).Seconds())
	switch {
	case diff < 60:
		return "Just now"
	case diff < 3600:
		return fmt.Sprintf("%d minutes ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%d hours ago", diff/3600)
	case diff < 2592000:
		return fmt.Sprintf("%d days ago", diff/86400)
	}
	return then.Format("2006/01/02")
}
