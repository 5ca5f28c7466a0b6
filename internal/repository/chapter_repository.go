package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ponyfiction/internal/model"
)

type ChapterRepository struct {
	db *gorm.DB
}

func NewChapterRepository(db *gorm.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

func (r *ChapterRepository) Create(ctx context.Context, chapter *model.Chapter) error {
	if err := conn(ctx, r.db).Create(chapter).Error; err != nil {
		return fmt.Errorf("create chapter failed: %w", err)
	}
	return nil
}

func (r *ChapterRepository) GetByID(ctx context.Context, id uint) (*model.Chapter, error) {
	var chapter model.Chapter
	if err := conn(ctx, r.db).First(&chapter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chapter failed: %w", err)
	}
	return &chapter, nil
}

func (r *ChapterRepository) ListByStory(ctx context.Context, storyID uint) ([]model.Chapter, error) {
	chapters := []model.Chapter{}
	if err := conn(ctx, r.db).Where("story_id = ?", storyID).Order("number ASC").Find(&chapters).Error; err != nil {
		return nil, fmt.Errorf("list chapters failed: %w", err)
	}
	return chapters, nil
}

func (r *ChapterRepository) Update(ctx context.Context, chapter *model.Chapter, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := conn(ctx, r.db).Model(chapter).Updates(fields).Error; err != nil {
		return fmt.Errorf("update chapter failed: %w", err)
	}
	return nil
}

func (r *ChapterRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&model.Chapter{}, id).Error; err != nil {
		return fmt.Errorf("delete chapter failed: %w", err)
	}
	return nil
}

// Renumber shifts chapters numbered above after down by one.
func (r *ChapterRepository) Renumber(ctx context.Context, storyID uint, after int) error {
	if err := conn(ctx, r.db).Model(&model.Chapter{}).
		Where("story_id = ? AND number > ?", storyID, after).
		Update("number", gorm.Expr("number - 1")).Error; err != nil {
		return fmt.Errorf("renumber chapters failed: %w", err)
	}
	return nil
}
