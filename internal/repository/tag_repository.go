package repository

import (
	"context"
	"fmt"

	"github.com/choncance/choncance-backend/internal/domain"
)

type TagRepository interface {
	// ListActive returns active tags; an empty category means all of them.
	ListActive(ctx context.Context, category domain.TagCategory) ([]domain.Tag, error)
}

type tagRepository struct {
	db DB
}

func NewTagRepository(db DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) ListActive(ctx context.Context, category domain.TagCategory) ([]domain.Tag, error) {
	const q = `
		SELECT id, name, category, icon, color, description, display_order, created_at
		FROM tags
		WHERE is_active AND ($1 = '' OR category = $1)
		ORDER BY display_order, name`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q, string(category))
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.Icon, &t.Color, &t.Description, &t.DisplayOrder, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}
