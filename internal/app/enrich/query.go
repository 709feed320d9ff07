package enrich

import (
	"net/url"
	"strings"
)

// QueryInfo is the decomposed query string of a destination URL: the six
// canonical UTM parameters in dedicated fields, everything else in Params.
type QueryInfo struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
	UTMID       string
	Params      map[string]string
}

// ParseQuery splits originalURL's query string into UTM fields and an open
// parameter map. UTM keys match case-insensitively. Malformed URLs are
// tolerated: the result simply has empty fields and an empty map.
func ParseQuery(originalURL string) QueryInfo {
	info := QueryInfo{Params: map[string]string{}}

	u, err := url.Parse(originalURL)
	if err != nil {
		return info
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return info
	}

	for key, vals := range values {
		value := ""
		if len(vals) > 0 {
			value = vals[0]
		}
		switch strings.ToLower(key) {
		case "utm_source":
			info.UTMSource = value
		case "utm_medium":
			info.UTMMedium = value
		case "utm_campaign":
			info.UTMCampaign = value
		case "utm_term":
			info.UTMTerm = value
		case "utm_content":
			info.UTMContent = value
		case "utm_id":
			info.UTMID = value
		default:
			info.Params[key] = value
		}
	}
	return info
}
