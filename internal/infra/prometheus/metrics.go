package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the redirect and click pipelines. Registered on the default
// registry, which the metrics server in this package serves.
var (
	// RedirectsTotal counts redirect requests by outcome: hit, miss.
	RedirectsTotal = promauto.NewCounterVec(prom.CounterOpts{
		Name: "jumpstats_redirects_total",
		Help: "Redirect requests by outcome.",
	}, []string{"outcome"})

	// CacheLookups counts link cache reads by result: hit, miss, error.
	CacheLookups = promauto.NewCounterVec(prom.CounterOpts{
		Name: "jumpstats_link_cache_lookups_total",
		Help: "Link cache lookups by result.",
	}, []string{"result"})

	// ClickEventsPublished counts click events handed to JetStream.
	ClickEventsPublished = promauto.NewCounter(prom.CounterOpts{
		Name: "jumpstats_click_events_published_total",
		Help: "Click events published to the stream.",
	})

	// ClickEventsPersisted counts click events written to the analytics store.
	ClickEventsPersisted = promauto.NewCounter(prom.CounterOpts{
		Name: "jumpstats_click_events_persisted_total",
		Help: "Click events persisted to ClickHouse.",
	})

	// ClickEventsDropped counts click events lost anywhere in the pipeline.
	// Loss is acceptable, but it should be visible.
	ClickEventsDropped = promauto.NewCounter(prom.CounterOpts{
		Name: "jumpstats_click_events_dropped_total",
		Help: "Click events dropped by the tracking pipeline.",
	})

	// AnalyticsQueries counts aggregate queries by grouping.
	AnalyticsQueries = promauto.NewCounterVec(prom.CounterOpts{
		Name: "jumpstats_analytics_queries_total",
		Help: "Analytics queries by groupBy dimension.",
	}, []string{"group_by"})
)
