package model

import "time"

// NATS JetStream topology for the click pipeline.
const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-writer"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)

// ClickEvent is one enriched redirect hit, appended to ClickHouse.
// Rows are immutable: this service never updates or deletes them.
type ClickEvent struct {
	ID          string    `gorm:"column:id" json:"id"`
	LinkID      string    `gorm:"column:link_id" json:"linkId"`
	ShortCode   string    `gorm:"column:short_code" json:"shortCode"`
	OriginalURL string    `gorm:"column:original_url" json:"originalUrl"`
	Timestamp   time.Time `gorm:"column:timestamp" json:"timestamp"`

	// Browser
	BrowserName    string `gorm:"column:browser_name" json:"browserName"`
	BrowserVersion string `gorm:"column:browser_version" json:"browserVersion"`
	BrowserMajor   string `gorm:"column:browser_major" json:"browserMajor"`

	// Engine
	EngineName string `gorm:"column:engine_name" json:"engineName"`

	// OS
	OSName    string `gorm:"column:os_name" json:"osName"`
	OSVersion string `gorm:"column:os_version" json:"osVersion"`

	// Device
	DeviceType   string `gorm:"column:device_type" json:"deviceType"`
	DeviceVendor string `gorm:"column:device_vendor" json:"deviceVendor"`
	DeviceModel  string `gorm:"column:device_model" json:"deviceModel"`

	// CPU
	CPUArchitecture string `gorm:"column:cpu_architecture" json:"cpuArchitecture"`

	// Bot
	IsBot uint8 `gorm:"column:is_bot" json:"isBot"`

	// Geolocation. Empty values mean the lookup failed or was skipped.
	IP          string   `gorm:"column:ip" json:"ip"`
	Country     string   `gorm:"column:country" json:"country"`
	CountryCode string   `gorm:"column:country_code" json:"countryCode"`
	Region      string   `gorm:"column:region" json:"region"`
	RegionCode  string   `gorm:"column:region_code" json:"regionCode"`
	City        string   `gorm:"column:city" json:"city"`
	Latitude    *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude   *float64 `gorm:"column:longitude" json:"longitude"`
	Timezone    string   `gorm:"column:timezone" json:"timezone"`
	ISP         string   `gorm:"column:isp" json:"isp"`
	Org         string   `gorm:"column:org" json:"org"`
	ASN         string   `gorm:"column:asn" json:"asn"`
	IsProxy     uint8    `gorm:"column:is_proxy" json:"isProxy"`
	GeoSource   string   `gorm:"column:geo_source" json:"geoSource"`

	// Canonical UTM parameters, split out of the destination URL.
	UTMSource   string `gorm:"column:utm_source" json:"utmSource"`
	UTMMedium   string `gorm:"column:utm_medium" json:"utmMedium"`
	UTMCampaign string `gorm:"column:utm_campaign" json:"utmCampaign"`
	UTMTerm     string `gorm:"column:utm_term" json:"utmTerm"`
	UTMContent  string `gorm:"column:utm_content" json:"utmContent"`
	UTMID       string `gorm:"column:utm_id" json:"utmId"`

	// All remaining query parameters (fbclid, gclid, user-defined keys).
	QueryParams map[string]string `gorm:"column:query_params;type:Map(String,String)" json:"queryParams"`

	// Request
	Referrer   string `gorm:"column:referrer" json:"referrer"`
	UserAgent  string `gorm:"column:user_agent" json:"userAgent"`
	DomainName string `gorm:"column:domain_name" json:"domainName"`
}

func (ClickEvent) TableName() string { return "click_events" }
