package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service       *service.TicketService
	autoCloseDays int
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, autoCloseDays int) *TicketsHandler {
	return &TicketsHandler{service: ticketService, autoCloseDays: autoCloseDays}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Create(c.Context(), principal.User.ID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// List GET /tickets lists the caller's tickets; ?status=X filters, and
// ?unresolved=true returns everything not yet CLOSED across owners.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := parsePagination(c)

	var (
		tickets []domain.Ticket
		err     error
	)
	switch {
	case c.QueryBool("unresolved"):
		tickets, err = h.service.ListUnresolved(c.Context(), limit, offset)
	case c.Query("status") != "":
		tickets, err = h.service.ListByStatus(c.Context(), domain.TicketStatus(c.Query("status")), limit, offset)
	default:
		tickets, err = h.service.ListByOwner(c.Context(), principal.User.ID, limit, offset)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if ticket.OwnerID != principal.User.ID {
		return apperrors.NewNotFound("ticket", map[string]any{"id": ticket.ID})
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	if err := h.requireOwnership(c); err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Update(c.Context(), c.Params("id"), service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Transition POST /tickets/:id/status.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	if err := h.requireOwnership(c); err != nil {
		return err
	}
	var req dto.TransitionTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Transition(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.requireOwnership(c); err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Stats GET /tickets/stats. ?scope=mine restricts to the caller's tickets.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var (
		stats *service.TicketStatistics
		err   error
	)
	if c.Query("scope") == "mine" {
		stats, err = h.service.OwnerStatistics(c.Context(), principal.User.ID)
	} else {
		stats, err = h.service.OverallStatistics(c.Context())
	}
	if err != nil {
		return err
	}
	avg, err := h.service.AverageResolutionHours(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketStatsResponse{
		Open:                   stats.Open,
		InProgress:             stats.InProgress,
		Resolved:               stats.Resolved,
		Closed:                 stats.Closed,
		Total:                  stats.Total,
		AverageResolutionHours: avg,
	}})
}

// CloseResolved POST /tickets/maintenance/close-resolved.
func (h *TicketsHandler) CloseResolved(c *fiber.Ctx) error {
	result, err := h.service.BulkCloseResolved(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bulkCloseResponse(result)})
}

// AutoClose POST /tickets/maintenance/auto-close.
func (h *TicketsHandler) AutoClose(c *fiber.Ctx) error {
	daysOld := h.autoCloseDays
	if raw := c.Query("days_old"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return apperrors.NewValidationError("days_old must be a non-negative integer", nil)
		}
		daysOld = parsed
	}
	result, err := h.service.AutoCloseStale(c.Context(), daysOld)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bulkCloseResponse(result)})
}

func (h *TicketsHandler) requireOwnership(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	owned, err := h.service.IsOwnedBy(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	if !owned {
		return apperrors.NewNotFound("ticket", map[string]any{"id": c.Params("id")})
	}
	return nil
}

func bulkCloseResponse(result *service.BulkCloseResult) dto.BulkCloseResponse {
	resp := dto.BulkCloseResponse{
		Closed: result.Closed,
		Failed: make([]dto.BulkCloseFailed, 0, len(result.Failed)),
	}
	if resp.Closed == nil {
		resp.Closed = []string{}
	}
	for _, failure := range result.Failed {
		resp.Failed = append(resp.Failed, dto.BulkCloseFailed{
			TicketID: failure.TicketID,
			Reason:   failure.Reason,
		})
	}
	return resp
}
