package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	svg "github.com/wamuir/svg-qr-code"
	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/internal/app/enrich"
	"github.com/DemoMacro/jumpstats/internal/app/service"
	infraprom "github.com/DemoMacro/jumpstats/internal/infra/prometheus"
)

// RedirectDeps groups dependencies required by the redirect handlers.
type RedirectDeps struct {
	Logger   *zap.Logger
	Resolver *service.Resolver
	Tracker  *service.ClickTracker
}

// RedirectHandler serves the public hot path: redirects and QR codes.
type RedirectHandler struct {
	logger   *zap.Logger
	resolver *service.Resolver
	tracker  *service.ClickTracker
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:   logger,
		resolver: deps.Resolver,
		tracker:  deps.Tracker,
	}
}

// Register wires the public routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/s/:shortCode", h.Redirect)
	router.Get("/qr/:shortCode", h.QRCode)
}

// Health reports liveness.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Redirect handles GET /s/:shortCode. The click is dispatched for tracking
// only after the redirect decision; the response never waits on enrichment.
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	shortCode := c.Params("shortCode")
	if shortCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing short code",
		})
	}

	link, err := h.resolver.Resolve(c.UserContext(), shortCode, c.Hostname())
	if err != nil {
		infraprom.RedirectsTotal.WithLabelValues("miss").Inc()
		return writeError(h.logger, c, err)
	}
	infraprom.RedirectsTotal.WithLabelValues("hit").Inc()

	h.tracker.Track(h.snapshotRequest(c), link)

	return c.Redirect(link.OriginalURL, fiber.StatusFound)
}

// QRCode handles GET /qr/:shortCode. The code encodes the canonical short
// URL under the link's own domain, resolved the same way a redirect is.
func (h *RedirectHandler) QRCode(c *fiber.Ctx) error {
	shortCode := c.Params("shortCode")
	if shortCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing short code",
		})
	}

	link, err := h.resolver.Resolve(c.UserContext(), shortCode, c.Hostname())
	if err != nil {
		return writeError(h.logger, c, err)
	}

	qr, err := svg.New("https://" + link.DomainName + "/s/" + link.ShortCode)
	if err != nil {
		return writeError(h.logger, c, err)
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.SendString(qr.String())
}

// snapshotRequest copies everything tracking needs out of the request.
// The fiber context is recycled once the handler returns, so the background
// task must never touch it.
func (h *RedirectHandler) snapshotRequest(c *fiber.Ctx) service.ClickRequest {
	headers := make(map[string]string)
	for _, name := range enrich.ProxyHeaders() {
		if value := c.Get(name); value != "" {
			headers[name] = value
		}
	}
	return service.ClickRequest{
		RemoteIP:  c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
		Headers:   headers,
	}
}
