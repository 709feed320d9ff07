package service

import (
	"context"
	"time"

	"github.com/DemoMacro/jumpstats/internal/app/enrich"
	"github.com/DemoMacro/jumpstats/internal/app/geo"
	"github.com/DemoMacro/jumpstats/internal/app/model"
	infraprom "github.com/DemoMacro/jumpstats/internal/infra/prometheus"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClickRequest is the request context a handler snapshots before answering.
// Tracking runs after the response, so nothing here may reference the
// request object itself.
type ClickRequest struct {
	RemoteIP  string
	UserAgent string
	Referrer  string
	// Headers holds the proxy/platform headers relevant for client-IP
	// extraction (see enrich.ProxyHeaders).
	Headers map[string]string
}

// ClickTracker enriches redirect hits into click events and dispatches them
// without touching the redirect latency. Every failure inside the pipeline is
// logged and swallowed; nothing ever reaches the redirect caller.
type ClickTracker struct {
	logger    *zap.Logger
	publisher ClickEventPublisher
	locator   geo.Locator
	agents    *enrich.AgentParser
	scheduler Scheduler
	// geoTimeout bounds the lookup of a single background task. A slow
	// geolocation backend delays only that task, never a response.
	geoTimeout time.Duration
}

// NewClickTracker builds a tracker with explicit collaborators. locator and
// scheduler may be nil, defaulting to no geolocation and plain goroutines.
func NewClickTracker(logger *zap.Logger, publisher ClickEventPublisher, locator geo.Locator, scheduler Scheduler) *ClickTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locator == nil {
		locator = geo.Noop{}
	}
	if scheduler == nil {
		scheduler = NewGoroutineScheduler()
	}
	return &ClickTracker{
		logger:     logger,
		publisher:  publisher,
		locator:    locator,
		agents:     enrich.NewAgentParser(),
		scheduler:  scheduler,
		geoTimeout: 3 * time.Second,
	}
}

// WithGeoTimeout overrides the geolocation budget. Returns the tracker for
// chaining at wiring time.
func (t *ClickTracker) WithGeoTimeout(d time.Duration) *ClickTracker {
	if d > 0 {
		t.geoTimeout = d
	}
	return t
}

// Track dispatches the enrichment pipeline for one resolved redirect.
// It returns immediately; once dispatched there is no cancellation.
func (t *ClickTracker) Track(req ClickRequest, link *model.CachedLink) {
	t.scheduler.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				infraprom.ClickEventsDropped.Inc()
				t.logger.Error("click tracking panicked",
					zap.Any("panic", r),
					zap.String("short_code", link.ShortCode))
			}
		}()
		t.record(req, link)
	})
}

func (t *ClickTracker) record(req ClickRequest, link *model.CachedLink) {
	event := t.BuildEvent(req, link)

	if err := t.publisher.Publish(event); err != nil {
		infraprom.ClickEventsDropped.Inc()
		t.logger.Error("failed to publish click event",
			zap.Error(err),
			zap.String("short_code", link.ShortCode))
		return
	}
	infraprom.ClickEventsPublished.Inc()
}

// BuildEvent runs the enrichment pipeline: client IP, user agent, bot flag,
// geolocation, query decomposition. Each stage degrades independently to
// empty fields.
func (t *ClickTracker) BuildEvent(req ClickRequest, link *model.CachedLink) *model.ClickEvent {
	ip := enrich.ClientIP(req.Headers, req.RemoteIP)
	agent := t.agents.Parse(req.UserAgent)
	query := enrich.ParseQuery(link.OriginalURL)

	event := &model.ClickEvent{
		ID:          uuid.NewString(),
		LinkID:      link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		Timestamp:   time.Now().UTC(),

		BrowserName:    agent.BrowserName,
		BrowserVersion: agent.BrowserVersion,
		BrowserMajor:   agent.BrowserMajor,
		EngineName:     agent.EngineName,
		OSName:         agent.OSName,
		OSVersion:      agent.OSVersion,

		DeviceType:      agent.DeviceType,
		DeviceVendor:    agent.DeviceVendor,
		DeviceModel:     agent.DeviceModel,
		CPUArchitecture: agent.CPUArch,

		IsBot: boolToUint8(agent.Bot),

		IP: ip,

		UTMSource:   query.UTMSource,
		UTMMedium:   query.UTMMedium,
		UTMCampaign: query.UTMCampaign,
		UTMTerm:     query.UTMTerm,
		UTMContent:  query.UTMContent,
		UTMID:       query.UTMID,
		QueryParams: query.Params,

		Referrer:   req.Referrer,
		UserAgent:  req.UserAgent,
		DomainName: link.DomainName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.geoTimeout)
	defer cancel()

	location, err := t.locator.Lookup(ctx, ip)
	if err != nil {
		// Geo is optional enrichment: the event ships with empty fields.
		t.logger.Warn("geolocation lookup failed", zap.Error(err), zap.String("ip", ip))
	}
	if location != nil {
		event.Country = location.Country
		event.CountryCode = location.CountryCode
		event.Region = location.Region
		event.RegionCode = location.RegionCode
		event.City = location.City
		event.Latitude = location.Latitude
		event.Longitude = location.Longitude
		event.Timezone = location.Timezone
		event.ISP = location.ISP
		event.Org = location.Org
		event.ASN = location.ASN
		event.IsProxy = boolToUint8(location.IsProxy)
		event.GeoSource = location.Source
	}

	return event
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
