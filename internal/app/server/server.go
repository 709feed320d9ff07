package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DemoMacro/jumpstats/config"
	"github.com/DemoMacro/jumpstats/internal/app/geo"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	"github.com/DemoMacro/jumpstats/internal/app/service"
	"github.com/DemoMacro/jumpstats/internal/http/handler"
	"github.com/DemoMacro/jumpstats/internal/http/middleware"
)

// Dependencies bundles the infrastructure handles the HTTP server wires
// together.
type Dependencies struct {
	Logger     *zap.Logger
	Config     *config.Config
	Postgres   *gorm.DB
	Pool       *pgxpool.Pool
	ClickHouse *gorm.DB
	Redis      *redis.Client
	JetStream  nats.JetStreamContext
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New builds the full application: repositories, services, handlers and the
// middleware chain.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{app: app, deps: deps}
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app, used by handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	cfg := s.deps.Config
	log := s.deps.Logger

	links := repository.NewLinkRepository(s.deps.Postgres)
	domains := repository.NewDomainRepository(s.deps.Postgres)
	members := repository.NewMemberRepository(s.deps.Postgres)
	resolveStore := repository.NewResolveStore(s.deps.Pool)
	events := repository.NewClickEventRepository(s.deps.ClickHouse)

	cache := service.NewRedisLinkCache(s.deps.Redis, cfg.Cache.LinkTTL())
	resolver := service.NewResolver(log, resolveStore, cache)

	publisher := service.NewClickPublisher(s.deps.JetStream)
	tracker := service.NewClickTracker(log, publisher, s.locator(), nil).
		WithGeoTimeout(cfg.GeoIP.Timeout())

	linkService := service.NewLinkService(log, links, domains, cache, cfg.Server.DefaultHost)
	if err := linkService.WarmShortCodes(context.Background()); err != nil {
		// Generation still works unseeded, it just leans on the store check.
		log.Warn("short code filter warmup failed", zap.Error(err))
	}
	domainService := service.NewDomainService(log, domains)
	analytics := service.NewAnalyticsService(log, events)
	authorizer := service.NewAuthorizer(members)

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(log))
	s.app.Use(middleware.Logger(log))
	s.app.Use(middleware.CORS())

	// Redirects get a generous ceiling; the management API a tight one.
	redirectLimit := middleware.RateLimitConfig{
		MaxRequests: 2000,
		Window:      time.Minute,
		KeyPrefix:   "ratelimit:redirect",
	}

	redirectHandler := handler.NewRedirectHandler(handler.RedirectDeps{
		Logger:   log,
		Resolver: resolver,
		Tracker:  tracker,
	})
	public := s.app.Group("", middleware.RateLimit(s.deps.Redis, redirectLimit, log))
	redirectHandler.Register(public)

	api := s.app.Group("", middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), log))

	linkHandler := handler.NewLinkHandler(handler.LinkDeps{
		Logger:     log,
		Links:      linkService,
		Authorizer: authorizer,
	})
	linkHandler.RegisterPublic(api.Group("", middleware.OptionalSession(cfg.Auth.Secret)))

	authed := api.Group("", middleware.RequireSession(cfg.Auth.Secret))
	linkHandler.Register(authed)

	handler.NewAnalyticsHandler(handler.AnalyticsDeps{
		Logger:     log,
		Analytics:  analytics,
		Links:      linkService,
		Authorizer: authorizer,
	}).Register(authed)

	handler.NewDomainHandler(handler.DomainDeps{
		Logger:     log,
		Domains:    domainService,
		Authorizer: authorizer,
	}).Register(authed)
}

func (s *Server) locator() geo.Locator {
	cfg := s.deps.Config.GeoIP
	switch cfg.Driver {
	case "noop":
		return geo.Noop{}
	default:
		return geo.NewIPSB(cfg.Endpoint, cfg.Timeout())
	}
}
