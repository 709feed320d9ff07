// Package clickhouse wires the append-only analytics store.
package clickhouse

import (
	"context"
	"fmt"
	"net/url"

	"github.com/DemoMacro/jumpstats/config"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGorm opens a GORM connection against ClickHouse for click-event
// inserts and grouped aggregate queries.
func NewGorm(cfg config.ClickHouseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(clickhouse.Open(ConnString(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse: open gorm connection: %w", err)
	}
	return db, nil
}

// ConnString renders a clickhouse:// DSN for cfg, defaulting host and the
// native protocol port.
func ConnString(cfg config.ClickHouseConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 9000
	}

	user := url.PathEscape(cfg.User)
	credentials := user
	if cfg.Password != "" {
		credentials = fmt.Sprintf("%s:%s", user, url.PathEscape(cfg.Password))
	}

	return fmt.Sprintf("clickhouse://%s@%s:%d/%s?dial_timeout=10s&read_timeout=20s",
		credentials,
		host,
		port,
		url.PathEscape(cfg.Database),
	)
}

// clickEventsDDL creates the analytics table. LowCardinality columns follow
// the dimension cardinality of the fields; the MergeTree key matches the two
// filters every aggregate query applies.
const clickEventsDDL = `
CREATE TABLE IF NOT EXISTS click_events (
    id               String,
    link_id          String,
    short_code       String,
    original_url     String,
    timestamp        DateTime,

    browser_name     LowCardinality(String),
    browser_version  LowCardinality(String),
    browser_major    LowCardinality(String),
    engine_name      LowCardinality(String),
    os_name          LowCardinality(String),
    os_version       LowCardinality(String),
    device_type      LowCardinality(String),
    device_vendor    LowCardinality(String),
    device_model     LowCardinality(String),
    cpu_architecture LowCardinality(String),

    is_bot           UInt8,

    ip               LowCardinality(String),
    country          LowCardinality(String),
    country_code     LowCardinality(String),
    region           LowCardinality(String),
    region_code      LowCardinality(String),
    city             LowCardinality(String),
    latitude         Nullable(Float64),
    longitude        Nullable(Float64),
    timezone         LowCardinality(String),
    isp              LowCardinality(String),
    org              LowCardinality(String),
    asn              LowCardinality(String),
    is_proxy         UInt8,
    geo_source       LowCardinality(String),

    utm_source       LowCardinality(String),
    utm_medium       LowCardinality(String),
    utm_campaign     LowCardinality(String),
    utm_term         LowCardinality(String),
    utm_content      LowCardinality(String),
    utm_id           LowCardinality(String),

    query_params     Map(String, String),

    referrer         String,
    user_agent       String,
    domain_name      LowCardinality(String)
)
ENGINE = MergeTree
ORDER BY (link_id, timestamp)`

// EnsureSchema creates the click_events table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(clickEventsDDL).Error; err != nil {
		return fmt.Errorf("clickhouse: ensure schema: %w", err)
	}
	return nil
}
