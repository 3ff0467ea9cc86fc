package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// LocationsHandler manages location hierarchy endpoints.
type LocationsHandler struct {
	service *service.LocationService
}

// NewLocationsHandler constructs handler.
func NewLocationsHandler(locationService *service.LocationService) *LocationsHandler {
	return &LocationsHandler{service: locationService}
}

// Create POST /locations.
func (h *LocationsHandler) Create(c *fiber.Ctx) error {
	var req dto.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	loc, err := h.service.Create(c.Context(), service.LocationInput{
		Name:     req.Name,
		Code:     req.Code,
		ParentID: req.ParentID,
		Level:    req.Level,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewLocationResponse(loc)})
}

// Update PUT /locations/:id.
func (h *LocationsHandler) Update(c *fiber.Ctx) error {
	var req dto.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	loc, err := h.service.Update(c.Context(), c.Params("id"), service.LocationInput{
		Name:     req.Name,
		Code:     req.Code,
		ParentID: req.ParentID,
		Level:    req.Level,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLocationResponse(loc)})
}

// Delete DELETE /locations/:id.
func (h *LocationsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get GET /locations/:id. With ?audit=true soft-deleted nodes stay addressable.
func (h *LocationsHandler) Get(c *fiber.Ctx) error {
	get := h.service.Get
	if c.QueryBool("audit") {
		get = h.service.GetForAudit
	}
	loc, err := get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLocationResponse(loc)})
}

// Roots GET /locations/roots.
func (h *LocationsHandler) Roots(c *fiber.Ctx) error {
	roots, err := h.service.Roots(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLocationResponses(roots)})
}

// Children GET /locations/:id/children.
func (h *LocationsHandler) Children(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	children, err := h.service.Children(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLocationResponses(children)})
}

// Root GET /locations/:id/root returns the ancestor root of the node.
func (h *LocationsHandler) Root(c *fiber.Ctx) error {
	root, err := h.service.AncestorRoot(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLocationResponse(root)})
}

// Descendants GET /locations/:id/descendants.
func (h *LocationsHandler) Descendants(c *fiber.Ctx) error {
	descendants, err := h.service.Descendants(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLocationResponses(descendants)})
}

// LookupRoot GET /locations/lookup?code_or_name=X finds a root by code or name.
func (h *LocationsHandler) LookupRoot(c *fiber.Ctx) error {
	codeOrName := c.Query("code_or_name")
	if codeOrName == "" {
		return apperrors.NewValidationError("code_or_name required", nil)
	}
	root, err := h.service.RootByCodeOrName(c.Context(), codeOrName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLocationResponse(root)})
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}

func parsePositiveInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
