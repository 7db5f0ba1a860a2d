package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// KBHandler exposes knowledge base endpoints.
type KBHandler struct {
	kb       *service.KBService
	validate *validator.Validate
}

// NewKBHandler constructs handler.
func NewKBHandler(kb *service.KBService, v *validator.Validate) *KBHandler {
	return &KBHandler{kb: kb, validate: v}
}

// List handles GET /kb?category=&q=.
func (h *KBHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	articles, err := h.kb.List(c.UserContext(), service.KBListFilter{
		Category:   optionalQuery(c, "category"),
		SearchTerm: optionalQuery(c, "q"),
	}, actor)
	if err != nil {
		return err
	}
	items := make([]dto.KBArticleResponse, 0, len(articles))
	for i := range articles {
		items = append(items, articleResponse(&articles[i]))
	}
	return data(c, http.StatusOK, items)
}

// Get handles GET /kb/:id.
func (h *KBHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	article, err := h.kb.Get(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, articleResponse(article))
}

// Create handles POST /kb.
func (h *KBHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.KBArticleRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	article, err := h.kb.Create(c.UserContext(), articleInput(req), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, articleResponse(article))
}

// Update handles PUT /kb/:id.
func (h *KBHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.KBArticleRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	article, err := h.kb.Update(c.UserContext(), c.Params("id"), articleInput(req), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, articleResponse(article))
}

// Delete handles DELETE /kb/:id.
func (h *KBHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.kb.Delete(c.UserContext(), c.Params("id"), actor); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func articleInput(req dto.KBArticleRequest) service.KBArticleInput {
	return service.KBArticleInput{
		Title:     req.Title,
		Category:  req.Category,
		Tags:      req.Tags,
		Published: req.Published,
		Body:      req.Body,
	}
}

func articleResponse(a *domain.KBArticle) dto.KBArticleResponse {
	return dto.KBArticleResponse{
		ID:         a.ID,
		Title:      a.Title,
		Category:   a.Category,
		Tags:       a.Tags,
		Published:  a.Published,
		Body:       a.Body,
		AuthorID:   a.AuthorID,
		AuthorName: a.AuthorName,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
