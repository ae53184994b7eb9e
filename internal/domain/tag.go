package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TagCategory string

const (
	TagCategoryView     TagCategory = "VIEW"
	TagCategoryActivity TagCategory = "ACTIVITY"
	TagCategoryFacility TagCategory = "FACILITY"
	TagCategoryVibe     TagCategory = "VIBE"
)

// ParseTagCategory accepts any casing. An empty string is not a category.
func ParseTagCategory(s string) (TagCategory, bool) {
	switch c := TagCategory(strings.ToUpper(strings.TrimSpace(s))); c {
	case TagCategoryView, TagCategoryActivity, TagCategoryFacility, TagCategoryVibe:
		return c, true
	}
	return "", false
}

type Tag struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Category     TagCategory `json:"category"`
	Icon         *string     `json:"icon"`
	Color        string      `json:"color"`
	Description  *string     `json:"description"`
	DisplayOrder int         `json:"display_order"`
	CreatedAt    time.Time   `json:"created_at"`
}

type TagListResponse struct {
	Tags []Tag `json:"tags"`
}
