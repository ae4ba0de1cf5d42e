package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pomboexe/support-desk/internal/domain"
	"github.com/pomboexe/support-desk/internal/repository"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

// KnowledgeService manages the admin knowledge base.
type KnowledgeService struct {
	docs repository.KnowledgeRepository
}

// NewKnowledgeService constructs the service.
func NewKnowledgeService(docs repository.KnowledgeRepository) *KnowledgeService {
	return &KnowledgeService{docs: docs}
}

// List returns all articles, newest first.
func (s *KnowledgeService) List(ctx context.Context, caller *domain.User) ([]domain.KnowledgeDoc, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return docs, nil
}

// Create adds an article.
func (s *KnowledgeService) Create(ctx context.Context, caller *domain.User, title, content, category string) (*domain.KnowledgeDoc, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("title and content required", nil)
	}

	doc := &domain.KnowledgeDoc{
		Title:    title,
		Content:  content,
		Category: strings.TrimSpace(category),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, apperrors.MapError(err)
	}
	return doc, nil
}

// Delete removes an article.
func (s *KnowledgeService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("knowledge doc", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}
