package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ponyfiction/internal/model"
)

type StoryRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Create inserts the story row and its chapters. Tags are attached with ReplaceTags.
func (r *StoryRepository) Create(ctx context.Context, story *model.Story) error {
	db := conn(ctx, r.db)
	if err := db.Omit(clause.Associations).Create(story).Error; err != nil {
		return fmt.Errorf("create story failed: %w", err)
	}
	for i := range story.Chapters {
		story.Chapters[i].StoryID = story.ID
		if err := db.Create(&story.Chapters[i]).Error; err != nil {
			return fmt.Errorf("create story chapter failed: %w", err)
		}
	}
	return nil
}

func (r *StoryRepository) GetByID(ctx context.Context, id uint) (*model.Story, error) {
	return r.first(ctx, "get story by id", conn(ctx, r.db).Where("id = ?", id))
}

// GetByIDForUpdate reads the story with a row lock held until the
// surrounding transaction ends.
func (r *StoryRepository) GetByIDForUpdate(ctx context.Context, id uint) (*model.Story, error) {
	q := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	return r.first(ctx, "lock story", q)
}

// GetBySlug matches either the short or the full slug.
func (r *StoryRepository) GetBySlug(ctx context.Context, slug string) (*model.Story, error) {
	return r.first(ctx, "get story by slug", conn(ctx, r.db).Where("slug_short = ? OR slug_full = ?", slug, slug))
}

func (r *StoryRepository) first(ctx context.Context, op string, q *gorm.DB) (*model.Story, error) {
	var story model.Story
	if err := q.Preload("Publisher").Preload("Cover").First(&story).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	return &story, nil
}

func (r *StoryRepository) ListPublished(ctx context.Context, page Page) ([]model.Story, int64, error) {
	q := conn(ctx, r.db).Model(&model.Story{}).Where("is_draft = ?", false)
	return r.list(q, page)
}

func (r *StoryRepository) ListByPublisher(ctx context.Context, publisherID uint, withDrafts bool, page Page) ([]model.Story, int64, error) {
	q := conn(ctx, r.db).Model(&model.Story{}).Where("publisher_id = ?", publisherID)
	if !withDrafts {
		q = q.Where("is_draft = ?", false)
	}
	return r.list(q, page)
}

func (r *StoryRepository) list(q *gorm.DB, page Page) ([]model.Story, int64, error) {
	q = q.Session(&gorm.Session{})
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count stories failed: %w", err)
	}
	stories := []model.Story{}
	if count == 0 {
		return stories, 0, nil
	}
	if err := q.Preload("Publisher").Preload("Cover").
		Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&stories).Error; err != nil {
		return nil, 0, fmt.Errorf("list stories failed: %w", err)
	}
	return stories, count, nil
}

func (r *StoryRepository) Update(ctx context.Context, story *model.Story, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := conn(ctx, r.db).Model(story).Omit(clause.Associations).Updates(fields).Error; err != nil {
		return fmt.Errorf("update story failed: %w", err)
	}
	return nil
}

func (r *StoryRepository) ReplaceTags(ctx context.Context, story *model.Story, tags []model.Tag) error {
	if err := conn(ctx, r.db).Model(story).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("replace story tags failed: %w", err)
	}
	story.Tags = tags
	return nil
}

func (r *StoryRepository) SetCover(ctx context.Context, storyID uint, coverID *uint) error {
	if err := conn(ctx, r.db).Model(&model.Story{}).Where("id = ?", storyID).
		Update("cover_id", coverID).Error; err != nil {
		return fmt.Errorf("set story cover failed: %w", err)
	}
	return nil
}

func (r *StoryRepository) AddChaptersCount(ctx context.Context, storyID uint, delta int) error {
	expr := gorm.Expr("chapters_count + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN chapters_count >= ? THEN chapters_count - ? ELSE 0 END", -delta, -delta)
	}
	if err := conn(ctx, r.db).Model(&model.Story{}).Where("id = ?", storyID).
		Update("chapters_count", expr).Error; err != nil {
		return fmt.Errorf("update chapters count failed: %w", err)
	}
	return nil
}

// Delete soft deletes the story.
func (r *StoryRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&model.Story{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete story failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete story %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
