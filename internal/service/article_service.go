package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"clipstream/internal/cache"
	"clipstream/internal/models"
	"clipstream/internal/repository"
)

const maxArticleTitleRunes = 200

// ArticleService manages long-form article content.
type ArticleService struct {
	articleRepo repository.ArticleRepository
}

// NewArticleService returns a new ArticleService.
func NewArticleService(articleRepo repository.ArticleRepository) *ArticleService {
	return &ArticleService{articleRepo: articleRepo}
}

// CreateArticle publishes a new article.
func (s *ArticleService) CreateArticle(ctx context.Context, userID uint, title, body string) (*models.Article, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxArticleTitleRunes {
		return nil, models.NewValidationError("Title exceeds 200 characters")
	}
	if body == "" {
		return nil, models.NewValidationError("Body is required")
	}

	article := &models.Article{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Published: true,
	}
	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}

	cache.InvalidateByPrefix(ctx, cache.ArticlesListPrefix)
	return article, nil
}

// GetArticle returns one article with its computed like count.
func (s *ArticleService) GetArticle(ctx context.Context, id uint) (*models.Article, error) {
	var article *models.Article
	err := cache.CacheAside(ctx, cache.ArticleKey(id), &article, cache.ContentTTL, func() error {
		var err error
		article, err = s.articleRepo.GetByID(ctx, id)
		return err
	})
	return article, err
}

// ListArticles returns one page of published articles, newest first.
func (s *ArticleService) ListArticles(ctx context.Context, page, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	key := cache.ArticlesListKey(page, limit)
	err := cache.CacheAside(ctx, key, &articles, cache.ContentTTL, func() error {
		var err error
		articles, err = s.articleRepo.List(ctx, limit, (page-1)*limit)
		return err
	})
	return articles, err
}
