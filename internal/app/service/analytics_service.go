package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/DemoMacro/jumpstats/internal/app/apperror"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	infraprom "github.com/DemoMacro/jumpstats/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Granularity of a time-series view.
type Granularity string

const (
	GranularityAuto  Granularity = ""
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Bucket-count ceilings for automatic granularity selection: up to a day of
// hours stays hourly, up to 30 days aggregates daily, up to 180 days weekly,
// anything longer monthly.
const (
	maxHourBuckets = 24
	maxDayBuckets  = 30 * 24
	maxWeekBuckets = 180 * 24
)

// breakdownColumns maps public groupBy names onto store columns. It is the
// whitelist guarding the interpolated column in the repository.
var breakdownColumns = map[string]string{
	"countries":     "country",
	"cities":        "city",
	"devices":       "device_type",
	"browsers":      "browser_name",
	"os":            "os_name",
	"utm_sources":   "utm_source",
	"utm_mediums":   "utm_medium",
	"utm_campaigns": "utm_campaign",
	"utm_terms":     "utm_term",
	"utm_contents":  "utm_content",
	"utm_ids":       "utm_id",
	"referers":      "referrer",
}

const breakdownLimit = 50

// CountResult is the total-clicks aggregate plus the derived visitor
// estimate.
type CountResult struct {
	TotalClicks int64 `json:"totalClicks"`
	// UniqueVisitors is a documented heuristic (70% of clicks), not a true
	// distinct count. It never exceeds TotalClicks.
	UniqueVisitors int64 `json:"uniqueVisitors"`
}

// TimeseriesResult is a re-aggregated time series.
type TimeseriesResult struct {
	Granularity Granularity             `json:"granularity"`
	Data        []repository.TimeBucket `json:"data"`
}

// AnalyticsService builds grouped queries over the click store and reshapes
// hourly buckets into dashboard-friendly series.
type AnalyticsService struct {
	logger *zap.Logger
	events repository.ClickEventRepository
}

// NewAnalyticsService returns a service backed by the given event repository.
func NewAnalyticsService(logger *zap.Logger, events repository.ClickEventRepository) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{logger: logger, events: events}
}

// ValidBreakdown reports whether groupBy names a dimension breakdown.
func ValidBreakdown(groupBy string) bool {
	_, ok := breakdownColumns[groupBy]
	return ok
}

// Count returns the matching row count and the unique-visitor estimate.
func (s *AnalyticsService) Count(ctx context.Context, filter repository.EventFilter) (*CountResult, error) {
	infraprom.AnalyticsQueries.WithLabelValues("count").Inc()

	total, err := s.events.Count(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("count clicks: %w", err))
	}
	return &CountResult{
		TotalClicks:    total,
		UniqueVisitors: EstimateUniqueVisitors(total),
	}, nil
}

// Timeseries fetches hourly buckets from the store and re-aggregates them to
// the requested granularity, or to an automatically selected one.
func (s *AnalyticsService) Timeseries(ctx context.Context, filter repository.EventFilter, granularity Granularity) (*TimeseriesResult, error) {
	infraprom.AnalyticsQueries.WithLabelValues("timeseries").Inc()

	switch granularity {
	case GranularityAuto, GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
	default:
		return nil, apperror.BadRequest("invalid granularity")
	}

	buckets, err := s.events.Timeseries(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("timeseries clicks: %w", err))
	}

	if granularity == GranularityAuto {
		granularity = AutoGranularity(rangeHours(filter, buckets))
	}

	return &TimeseriesResult{
		Granularity: granularity,
		Data:        Rebucket(buckets, granularity),
	}, nil
}

// Breakdown groups clicks by one of the whitelisted dimensions, descending by
// count, capped at a practical result size.
func (s *AnalyticsService) Breakdown(ctx context.Context, filter repository.EventFilter, groupBy string) ([]repository.BreakdownRow, error) {
	column, ok := breakdownColumns[groupBy]
	if !ok {
		return nil, apperror.BadRequest("invalid groupBy parameter")
	}
	infraprom.AnalyticsQueries.WithLabelValues(groupBy).Inc()

	rows, err := s.events.Breakdown(ctx, filter, column, breakdownLimit)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("breakdown %s: %w", groupBy, err))
	}
	return rows, nil
}

// Events lists raw click rows, newest first, restricted to non-sensitive
// columns.
func (s *AnalyticsService) Events(ctx context.Context, filter repository.EventFilter, limit, offset int) ([]repository.EventSummary, int64, error) {
	infraprom.AnalyticsQueries.WithLabelValues("events").Inc()

	events, err := s.events.ListEvents(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list events: %w", err))
	}
	total, err := s.events.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("count events: %w", err))
	}
	return events, total, nil
}

// EstimateUniqueVisitors approximates distinct visitors as 70% of total
// clicks, rounded down. A true distinct count would need visitor identity,
// which the pipeline deliberately does not retain.
func EstimateUniqueVisitors(totalClicks int64) int64 {
	if totalClicks <= 0 {
		return 0
	}
	return totalClicks * 7 / 10
}

// AutoGranularity picks the granularity for a range spanning the given
// number of hourly buckets.
func AutoGranularity(hourBuckets int) Granularity {
	switch {
	case hourBuckets <= maxHourBuckets:
		return GranularityHour
	case hourBuckets <= maxDayBuckets:
		return GranularityDay
	case hourBuckets <= maxWeekBuckets:
		return GranularityWeek
	default:
		return GranularityMonth
	}
}

// Rebucket folds hourly buckets into the target granularity. Each output
// bucket's count is the sum of the hourly counts falling into it; output is
// ascending by bucket start.
func Rebucket(points []repository.TimeBucket, granularity Granularity) []repository.TimeBucket {
	if granularity == GranularityHour {
		return points
	}

	sums := make(map[time.Time]int64, len(points))
	for _, p := range points {
		sums[floorBucket(p.Bucket, granularity)] += p.Clicks
	}

	out := make([]repository.TimeBucket, 0, len(sums))
	for start, clicks := range sums {
		out = append(out, repository.TimeBucket{Bucket: start, Clicks: clicks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out
}

func floorBucket(t time.Time, granularity Granularity) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch granularity {
	case GranularityDay:
		return midnight
	case GranularityWeek:
		// Weeks start on Sunday.
		return midnight.AddDate(0, 0, -int(midnight.Weekday()))
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// rangeHours yields the span of the query in hourly buckets: the explicit
// filter range when given, otherwise the span of the data itself.
func rangeHours(filter repository.EventFilter, buckets []repository.TimeBucket) int {
	var start, end time.Time
	switch {
	case filter.Start != nil && filter.End != nil:
		start, end = *filter.Start, *filter.End
	case len(buckets) > 0:
		start, end = buckets[0].Bucket, buckets[len(buckets)-1].Bucket
	default:
		return 1
	}

	if end.Before(start) {
		return 1
	}
	return int(end.Sub(start).Hours()) + 1
}
