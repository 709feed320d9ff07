package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"gorm.io/gorm"
)

// EventFilter restricts click-event queries to one link and an optional
// closed time range.
type EventFilter struct {
	LinkID string
	Start  *time.Time
	End    *time.Time
}

// TimeBucket is one hourly count from the store-side timeseries grouping.
type TimeBucket struct {
	Bucket time.Time `gorm:"column:bucket" json:"timestamp"`
	Clicks int64     `gorm:"column:clicks" json:"clicks"`
}

// BreakdownRow is one group of a dimension breakdown.
type BreakdownRow struct {
	Value  string `gorm:"column:value" json:"value"`
	Clicks int64  `gorm:"column:clicks" json:"clicks"`
}

// EventSummary is a click row restricted to the fields safe to list back to
// dashboard users. The raw IP never leaves the store through this view.
type EventSummary struct {
	ID              string    `gorm:"column:id" json:"id"`
	Timestamp       time.Time `gorm:"column:timestamp" json:"timestamp"`
	ShortCode       string    `gorm:"column:short_code" json:"shortCode"`
	OriginalURL     string    `gorm:"column:original_url" json:"originalUrl"`
	BrowserName     string    `gorm:"column:browser_name" json:"browserName"`
	OSName          string    `gorm:"column:os_name" json:"osName"`
	DeviceType      string    `gorm:"column:device_type" json:"deviceType"`
	DeviceVendor    string    `gorm:"column:device_vendor" json:"deviceVendor"`
	DeviceModel     string    `gorm:"column:device_model" json:"deviceModel"`
	CPUArchitecture string    `gorm:"column:cpu_architecture" json:"cpuArchitecture"`
	IsBot           uint8     `gorm:"column:is_bot" json:"isBot"`
	Country         string    `gorm:"column:country" json:"country"`
	CountryCode     string    `gorm:"column:country_code" json:"countryCode"`
	Region          string    `gorm:"column:region" json:"region"`
	RegionCode      string    `gorm:"column:region_code" json:"regionCode"`
	City            string    `gorm:"column:city" json:"city"`
	Timezone        string    `gorm:"column:timezone" json:"timezone"`
	ISP             string    `gorm:"column:isp" json:"isp"`
	Org             string    `gorm:"column:org" json:"org"`
	ASN             string    `gorm:"column:asn" json:"asn"`
	IsProxy         uint8     `gorm:"column:is_proxy" json:"isProxy"`
	UTMSource       string    `gorm:"column:utm_source" json:"utmSource"`
	UTMMedium       string    `gorm:"column:utm_medium" json:"utmMedium"`
	UTMCampaign     string    `gorm:"column:utm_campaign" json:"utmCampaign"`
	UTMTerm         string    `gorm:"column:utm_term" json:"utmTerm"`
	UTMContent      string    `gorm:"column:utm_content" json:"utmContent"`
	UTMID           string    `gorm:"column:utm_id" json:"utmId"`
}

// ClickEventRepository is the append-only analytics store contract: single
// row inserts plus grouped aggregate reads. Rows are never mutated.
type ClickEventRepository interface {
	Insert(ctx context.Context, event *model.ClickEvent) error
	Count(ctx context.Context, filter EventFilter) (int64, error)
	Timeseries(ctx context.Context, filter EventFilter) ([]TimeBucket, error)
	Breakdown(ctx context.Context, filter EventFilter, column string, limit int) ([]BreakdownRow, error)
	ListEvents(ctx context.Context, filter EventFilter, limit, offset int) ([]EventSummary, error)
}

// eventSummaryColumns spells the listing projection out so sensitive columns
// (raw ip, full referrer, user agent) never reach the listing path.
const eventSummaryColumns = "id, timestamp, short_code, original_url, browser_name, os_name, " +
	"device_type, device_vendor, device_model, cpu_architecture, is_bot, " +
	"country, country_code, region, region_code, city, timezone, isp, org, asn, is_proxy, " +
	"utm_source, utm_medium, utm_campaign, utm_term, utm_content, utm_id"

type clickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository returns a ClickHouse-backed ClickEventRepository.
func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &clickEventRepository{db: db}
}

func (r *clickEventRepository) Insert(ctx context.Context, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *clickEventRepository) Count(ctx context.Context, filter EventFilter) (int64, error) {
	var total int64
	err := r.base(ctx, filter).Count(&total).Error
	return total, err
}

// Timeseries groups events into fixed one-hour buckets, the finest
// granularity the store is ever asked for. Coarser views are re-aggregated
// client-side by the analytics service.
func (r *clickEventRepository) Timeseries(ctx context.Context, filter EventFilter) ([]TimeBucket, error) {
	var buckets []TimeBucket
	err := r.base(ctx, filter).
		Select("toStartOfHour(timestamp) AS bucket, count(*) AS clicks").
		Group("bucket").
		Order("bucket ASC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// Breakdown groups events by the given column and counts per group,
// descending. The column name is interpolated, so callers must validate it
// against a fixed dimension list.
func (r *clickEventRepository) Breakdown(ctx context.Context, filter EventFilter, column string, limit int) ([]BreakdownRow, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []BreakdownRow
	err := r.base(ctx, filter).
		Select(fmt.Sprintf("%s AS value, count(*) AS clicks", column)).
		Group("value").
		Order("clicks DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *clickEventRepository) ListEvents(ctx context.Context, filter EventFilter, limit, offset int) ([]EventSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var events []EventSummary
	err := r.base(ctx, filter).
		Select(eventSummaryColumns).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *clickEventRepository) base(ctx context.Context, filter EventFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).
		Table((model.ClickEvent{}).TableName()).
		Where("link_id = ?", filter.LinkID)
	if filter.Start != nil {
		tx = tx.Where("timestamp >= ?", *filter.Start)
	}
	if filter.End != nil {
		tx = tx.Where("timestamp <= ?", *filter.End)
	}
	return tx
}
