// Package geo provides pluggable IP geolocation for click enrichment.
package geo

import "context"

// Location describes where an IP address appears to be, plus network
// ownership data. Zero values mean unknown.
type Location struct {
	Country     string
	CountryCode string
	Region      string
	RegionCode  string
	City        string
	Latitude    *float64
	Longitude   *float64
	Timezone    string
	ISP         string
	Org         string
	ASN         string
	IsProxy     bool
	Source      string
}

// Locator resolves an IP address to a Location. Implementations may fail
// independently of the tracking pipeline; callers treat a nil Location or an
// error as "unknown" and continue.
type Locator interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// Noop is a Locator that knows nothing. Useful for tests and deployments
// without a geolocation backend.
type Noop struct{}

func (Noop) Lookup(context.Context, string) (*Location, error) { return nil, nil }
