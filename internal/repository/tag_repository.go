package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/slug"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// NormalizeTagNames trims names and drops blanks and case-insensitive duplicates,
// keeping the first spelling.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// TagSlug is the unique key of a tag name.
func TagSlug(name string) string {
	s := slug.Transliterate(name)
	if s == "" {
		s = strings.ToLower(strings.TrimSpace(name))
	}
	return slug.Truncate(s, slug.MaxTagLength)
}

// FindOrCreateMany returns tags for names in the given order, creating the
// missing ones. Names are matched by slug, so "Sci-Fi" and "sci fi" are the
// same tag.
func (r *TagRepository) FindOrCreateMany(ctx context.Context, names []string) ([]model.Tag, error) {
	names = NormalizeTagNames(names)
	if len(names) == 0 {
		return []model.Tag{}, nil
	}

	slugs := make([]string, 0, len(names))
	nameBySlug := make(map[string]string, len(names))
	for _, name := range names {
		key := TagSlug(name)
		if _, ok := nameBySlug[key]; ok {
			continue
		}
		nameBySlug[key] = name
		slugs = append(slugs, key)
	}

	db := conn(ctx, r.db)
	bySlug, err := r.findBySlugs(db, slugs)
	if err != nil {
		return nil, err
	}

	var missing []model.Tag
	for _, key := range slugs {
		if _, ok := bySlug[key]; !ok {
			missing = append(missing, model.Tag{Name: nameBySlug[key], Slug: key})
		}
	}
	if len(missing) > 0 {
		// Concurrent writers may insert the same tags; conflicts are re-read below.
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&missing).Error; err != nil {
			return nil, fmt.Errorf("create tags failed: %w", err)
		}
		missingSlugs := make([]string, 0, len(missing))
		for _, t := range missing {
			missingSlugs = append(missingSlugs, t.Slug)
		}
		created, err := r.findBySlugs(db, missingSlugs)
		if err != nil {
			return nil, err
		}
		for key, t := range created {
			bySlug[key] = t
		}
	}

	tags := make([]model.Tag, 0, len(slugs))
	for _, key := range slugs {
		t, ok := bySlug[key]
		if !ok {
			return nil, fmt.Errorf("tag %q conflicts with an existing tag name", nameBySlug[key])
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (r *TagRepository) findBySlugs(db *gorm.DB, slugs []string) (map[string]model.Tag, error) {
	var found []model.Tag
	if err := db.Where("slug IN ?", slugs).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("find tags failed: %w", err)
	}
	out := make(map[string]model.Tag, len(found))
	for _, t := range found {
		out[t.Slug] = t
	}
	return out, nil
}

func (r *TagRepository) GetBySlug(ctx context.Context, tagSlug string) (*model.Tag, error) {
	var tag model.Tag
	if err := conn(ctx, r.db).Where("slug = ?", tagSlug).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tag by slug failed: %w", err)
	}
	return &tag, nil
}

func (r *TagRepository) List(ctx context.Context, page Page) ([]model.Tag, int64, error) {
	db := conn(ctx, r.db).Model(&model.Tag{}).Session(&gorm.Session{})
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count tags failed: %w", err)
	}
	var tags []model.Tag
	if err := db.Order("name ASC").Limit(page.Limit).Offset(page.Offset).Find(&tags).Error; err != nil {
		return nil, 0, fmt.Errorf("list tags failed: %w", err)
	}
	return tags, count, nil
}

func (r *TagRepository) ListByStory(ctx context.Context, storyID uint) ([]model.Tag, error) {
	tags := []model.Tag{}
	if err := conn(ctx, r.db).
		Joins("JOIN story_tags ON story_tags.tag_id = tags.id").
		Where("story_tags.story_id = ?", storyID).
		Order("tags.name ASC").
		Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list story tags failed: %w", err)
	}
	return tags, nil
}
