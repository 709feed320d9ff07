package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/internal/app/service"
	"github.com/DemoMacro/jumpstats/internal/http/middleware"
)

// DomainDeps groups dependencies required by the domain handlers.
type DomainDeps struct {
	Logger     *zap.Logger
	Domains    *service.DomainService
	Authorizer *service.Authorizer
}

// DomainHandler implements custom-domain management.
type DomainHandler struct {
	logger     *zap.Logger
	domains    *service.DomainService
	authorizer *service.Authorizer
}

// NewDomainHandler creates a domain handler with the provided dependencies.
func NewDomainHandler(deps DomainDeps) *DomainHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DomainHandler{
		logger:     logger,
		domains:    deps.Domains,
		authorizer: deps.Authorizer,
	}
}

// Register wires domain routes onto the provided (authenticated) router.
func (h *DomainHandler) Register(router fiber.Router) {
	router.Post("/domain/create", h.Create)
	router.Post("/domain/verify", h.Verify)
	router.Get("/domain/list", h.List)
}

// Create handles POST /domain/create.
func (h *DomainHandler) Create(c *fiber.Ctx) error {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return writeError(h.logger, c, errUnauthenticated())
	}

	var req struct {
		DomainName     string  `json:"domainName"`
		OrganizationID *string `json:"organizationId,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	userID := session.UserID
	domain, err := h.domains.Create(c.UserContext(), req.DomainName, &userID, req.OrganizationID)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain)
}

// Verify handles POST /domain/verify.
func (h *DomainHandler) Verify(c *fiber.Ctx) error {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return writeError(h.logger, c, errUnauthenticated())
	}

	var req struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ID == "" {
		return writeError(h.logger, c, errMissingParam("id"))
	}

	domain, err := h.domains.Get(c.UserContext(), req.ID)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	if err := h.authorizer.CanAccessDomain(c.UserContext(), session, domain); err != nil {
		return writeError(h.logger, c, err)
	}

	verified, err := h.domains.Verify(c.UserContext(), req.ID, req.Token)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	return c.JSON(verified)
}

// List handles GET /domain/list.
func (h *DomainHandler) List(c *fiber.Ctx) error {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return writeError(h.logger, c, errUnauthenticated())
	}

	domains, err := h.domains.List(c.UserContext(),
		c.Query("organizationId"),
		session.UserID,
		c.QueryInt("limit", 20),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	return c.JSON(fiber.Map{"domains": domains})
}
