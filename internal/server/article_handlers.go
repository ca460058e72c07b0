package server

import (
	"clipstream/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateArticle handles POST /articles
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.CreateArticle(c.UserContext(), currentUserID(c), req.Title, req.Body)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// GetArticle handles GET /articles/:id
func (s *Server) GetArticle(c *fiber.Ctx) error {
	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	article, err := s.articleService.GetArticle(c.UserContext(), articleID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(article)
}

// GetArticles handles GET /articles
func (s *Server) GetArticles(c *fiber.Ctx) error {
	p := parsePagination(c)
	articles, err := s.articleService.ListArticles(c.UserContext(), p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"articles": articles,
		"page":     p.Page,
		"limit":    p.Limit,
	})
}
