package cms

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bilgisen/postcraft/internal/models"
)

const equipmentProjection = `{
  _id, name, brand, short_description, primaryImage, images, pricing,
  categories, safety_flags, popularity_score, availability, _createdAt
}`

// AvailabilityFilter is the GROQ condition used to select rentable equipment.
const AvailabilityFilter = `availability.status == "available"`

// EquipmentByIDs fetches full equipment documents, returned in the order of ids.
// Unknown ids are dropped.
func (c *Client) EquipmentByIDs(ctx context.Context, ids []string) ([]models.Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []models.Equipment
	groq := `*[_type == "equipment" && _id in $ids]` + equipmentProjection
	if _, err := c.Query(ctx, groq, map[string]any{"ids": ids}, &found); err != nil {
		return nil, fmt.Errorf("failed to fetch equipment: %w", err)
	}

	byID := make(map[string]models.Equipment, len(found))
	for _, eq := range found {
		byID[eq.ID] = eq
	}
	ordered := make([]models.Equipment, 0, len(found))
	for _, id := range ids {
		if eq, ok := byID[id]; ok {
			ordered = append(ordered, eq)
		}
	}
	return ordered, nil
}

// AvailableEquipmentInCategory lists available equipment carrying the category.
func (c *Client) AvailableEquipmentInCategory(ctx context.Context, category string) ([]models.Equipment, error) {
	var list []models.Equipment
	groq := `*[_type == "equipment" && ` + AvailabilityFilter + ` && $category in categories[]]{
  _id, name, brand, availability, popularity_score, _createdAt
}`
	if _, err := c.Query(ctx, groq, map[string]any{"category": category}, &list); err != nil {
		return nil, fmt.Errorf("failed to query equipment in %s: %w", category, err)
	}
	return list, nil
}

// CountAvailable counts available equipment in a category.
func (c *Client) CountAvailable(ctx context.Context, category string) (int, error) {
	var count int
	groq := `count(*[_type == "equipment" && ` + AvailabilityFilter + ` && $category in categories[]])`
	if _, err := c.Query(ctx, groq, map[string]any{"category": category}, &count); err != nil {
		return 0, fmt.Errorf("failed to count equipment in %s: %w", category, err)
	}
	return count, nil
}

// Categories returns every category used by at least one equipment document, sorted.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var rows []struct {
		Categories []string `json:"categories"`
	}
	if _, err := c.Query(ctx, `*[_type == "equipment"]{ categories }`, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	seen := make(map[string]struct{})
	var categories []string
	for _, row := range rows {
		for _, cat := range row.Categories {
			if _, ok := seen[cat]; ok || cat == "" {
				continue
			}
			seen[cat] = struct{}{}
			categories = append(categories, cat)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// ContentSummary is the slice of a socialContent document used for distribution analysis
type ContentSummary struct {
	Pillar         string    `json:"pillar"`
	Platform       string    `json:"platform"`
	CreatedAt      time.Time `json:"_createdAt"`
	EquipmentCount int       `json:"equipmentCount"`
}

// RecentContent lists socialContent documents created after since.
func (c *Client) RecentContent(ctx context.Context, since time.Time) ([]ContentSummary, error) {
	var rows []ContentSummary
	groq := `*[_type == "socialContent" && _createdAt > $since]{
  "pillar": coalesce(content_pillar, contentPillar),
  platform, _createdAt,
  "equipmentCount": count(related_equipment)
}`
	params := map[string]any{"since": since.UTC().Format(time.RFC3339)}
	if _, err := c.Query(ctx, groq, params, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch recent content: %w", err)
	}
	return rows, nil
}
