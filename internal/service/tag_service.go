package service

import (
	"context"
	"fmt"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/choncance/choncance-backend/internal/repository"
)

type TagService interface {
	List(ctx context.Context, category string) ([]domain.Tag, error)
}

type tagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

// List returns active tags ordered by display order; an empty category lists all.
func (s *tagService) List(ctx context.Context, category string) ([]domain.Tag, error) {
	var c domain.TagCategory
	if category != "" {
		parsed, ok := domain.ParseTagCategory(category)
		if !ok {
			return nil, apperr.Validation(apperr.CodeInvalidCategory, "category must be one of VIEW, ACTIVITY, FACILITY, VIBE")
		}
		c = parsed
	}

	tags, err := s.tagRepo.ListActive(ctx, c)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list tags: %w", err))
	}
	return tags, nil
}
