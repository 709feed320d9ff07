package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultIPSBEndpoint = "https://api.ip.sb/geoip"

// IPSB looks locations up against the ip.sb JSON API.
type IPSB struct {
	endpoint string
	client   *http.Client
}

// NewIPSB builds an ip.sb locator. endpoint may be empty to use the public
// API; timeout bounds each lookup.
func NewIPSB(endpoint string, timeout time.Duration) *IPSB {
	if endpoint == "" {
		endpoint = defaultIPSBEndpoint
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IPSB{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type ipsbResponse struct {
	Country      string  `json:"country"`
	CountryCode  string  `json:"country_code"`
	Region       string  `json:"region"`
	RegionCode   string  `json:"region_code"`
	City         string  `json:"city"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Timezone     string  `json:"timezone"`
	ISP          string  `json:"isp"`
	Organization string  `json:"organization"`
	ASN          int     `json:"asn"`
}

func (l *IPSB) Lookup(ctx context.Context, ip string) (*Location, error) {
	if ip == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", l.endpoint, ip), nil)
	if err != nil {
		return nil, fmt.Errorf("geo: build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: lookup %s: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: lookup %s: unexpected status %d", ip, resp.StatusCode)
	}

	var body ipsbResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geo: decode response: %w", err)
	}

	loc := &Location{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Region:      body.Region,
		RegionCode:  body.RegionCode,
		City:        body.City,
		Timezone:    body.Timezone,
		ISP:         body.ISP,
		Org:         body.Organization,
		Source:      "ipsb",
	}
	if body.Latitude != 0 || body.Longitude != 0 {
		lat, lon := body.Latitude, body.Longitude
		loc.Latitude = &lat
		loc.Longitude = &lon
	}
	if body.ASN != 0 {
		loc.ASN = strconv.Itoa(body.ASN)
	}
	return loc, nil
}
