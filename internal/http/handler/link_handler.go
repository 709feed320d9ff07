package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	"github.com/DemoMacro/jumpstats/internal/app/service"
	"github.com/DemoMacro/jumpstats/internal/http/middleware"
)

// LinkDeps groups dependencies required by the link management handlers.
type LinkDeps struct {
	Logger     *zap.Logger
	Links      *service.LinkService
	Authorizer *service.Authorizer
}

// LinkHandler implements link CRUD for the management API.
type LinkHandler struct {
	logger     *zap.Logger
	links      *service.LinkService
	authorizer *service.Authorizer
}

// NewLinkHandler creates a link handler with the provided dependencies.
func NewLinkHandler(deps LinkDeps) *LinkHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		logger:     logger,
		links:      deps.Links,
		authorizer: deps.Authorizer,
	}
}

// RegisterPublic wires the routes usable with or without a session.
func (h *LinkHandler) RegisterPublic(router fiber.Router) {
	router.Post("/link/create", h.Create)
}

// Register wires the session-only management routes.
func (h *LinkHandler) Register(router fiber.Router) {
	router.Post("/link/update", h.Update)
	router.Post("/link/delete", h.Delete)
	router.Get("/link/list", h.List)
}

// CreateLinkRequest is the body for POST /link/create.
type CreateLinkRequest struct {
	OriginalURL    string     `json:"originalUrl"`
	ShortCode      string     `json:"shortCode,omitempty"`
	DomainID       *string    `json:"domainId,omitempty"`
	OrganizationID *string    `json:"organizationId,omitempty"`
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

// Create handles POST /link/create. Anonymous callers get ownerless links;
// organization links require membership.
func (h *LinkHandler) Create(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	input := service.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		ShortCode:   req.ShortCode,
		DomainID:    req.DomainID,
		Title:       req.Title,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	}

	session, authenticated := middleware.SessionFrom(c)
	if authenticated {
		userID := session.UserID
		input.UserID = &userID
	}
	if req.OrganizationID != nil {
		if !authenticated {
			return writeError(h.logger, c, errUnauthenticated())
		}
		scope := repository.LinkFilter{OrganizationID: *req.OrganizationID}
		if _, err := h.authorizer.LinkScope(c.UserContext(), session, scope); err != nil {
			return writeError(h.logger, c, err)
		}
		input.OrganizationID = req.OrganizationID
	}

	link, err := h.links.Create(c.UserContext(), input)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// UpdateLinkRequest is the body for POST /link/update. Pointer fields
// distinguish "not sent" from "clear".
type UpdateLinkRequest struct {
	ID          string     `json:"id"`
	OriginalURL *string    `json:"originalUrl,omitempty"`
	DomainID    *string    `json:"domainId,omitempty"`
	ClearDomain bool       `json:"clearDomain,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ClearExpiry bool       `json:"clearExpiry,omitempty"`
}

// Update handles POST /link/update.
func (h *LinkHandler) Update(c *fiber.Ctx) error {
	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ID == "" {
		return writeError(h.logger, c, errMissingParam("id"))
	}

	link, err := h.authorizedLink(c, req.ID)
	if err != nil {
		return writeError(h.logger, c, err)
	}

	fields := map[string]any{}
	if req.OriginalURL != nil {
		fields["original_url"] = *req.OriginalURL
	}
	if req.ClearDomain {
		fields["domain_id"] = nil
	} else if req.DomainID != nil {
		fields["domain_id"] = *req.DomainID
	}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.ClearExpiry {
		fields["expires_at"] = nil
	} else if req.ExpiresAt != nil {
		fields["expires_at"] = *req.ExpiresAt
	}
	if len(fields) == 0 {
		return c.JSON(link)
	}

	updated, err := h.links.Update(c.UserContext(), req.ID, fields)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	return c.JSON(updated)
}

// Delete handles POST /link/delete.
func (h *LinkHandler) Delete(c *fiber.Ctx) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ID == "" {
		return writeError(h.logger, c, errMissingParam("id"))
	}

	if _, err := h.authorizedLink(c, req.ID); err != nil {
		return writeError(h.logger, c, err)
	}
	if err := h.links.Delete(c.UserContext(), req.ID); err != nil {
		return writeError(h.logger, c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// List handles GET /link/list, scoped to the session's own links or an
// organization it belongs to.
func (h *LinkHandler) List(c *fiber.Ctx) error {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return writeError(h.logger, c, errUnauthenticated())
	}

	filter := repository.LinkFilter{
		OrganizationID: c.Query("organizationId"),
		DomainID:       c.Query("domainId"),
		Status:         c.Query("status"),
		Limit:          c.QueryInt("limit", 20),
		Offset:         c.QueryInt("offset", 0),
	}

	filter, err := h.authorizer.LinkScope(c.UserContext(), session, filter)
	if err != nil {
		return writeError(h.logger, c, err)
	}

	links, total, err := h.links.List(c.UserContext(), filter)
	if err != nil {
		return writeError(h.logger, c, err)
	}
	return c.JSON(fiber.Map{
		"links": links,
		"total": total,
	})
}

func (h *LinkHandler) authorizedLink(c *fiber.Ctx, id string) (*model.Link, error) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, errUnauthenticated()
	}
	link, err := h.links.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if err := h.authorizer.CanAccessLink(c.UserContext(), session, link); err != nil {
		return nil, err
	}
	return link, nil
}
