package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pomboexe/support-desk/internal/api/dto"
	"github.com/pomboexe/support-desk/internal/auth"
	"github.com/pomboexe/support-desk/internal/service"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

// KnowledgeHandler manages knowledge base endpoints.
type KnowledgeHandler struct {
	service *service.KnowledgeService
}

// NewKnowledgeHandler constructs handler.
func NewKnowledgeHandler(knowledgeService *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: knowledgeService}
}

// List GET /knowledge.
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	docs, err := h.service.List(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.KnowledgeDocResponse, 0, len(docs))
	for i := range docs {
		items = append(items, dto.FromKnowledgeDoc(&docs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /knowledge. Admin-only.
func (h *KnowledgeHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateKnowledgeDocRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("title and content required", nil)
	}

	doc, err := h.service.Create(c.Context(), principal.User, req.Title, req.Content, req.Category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromKnowledgeDoc(doc)})
}

// Delete DELETE /knowledge/:id. Admin-only.
func (h *KnowledgeHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
