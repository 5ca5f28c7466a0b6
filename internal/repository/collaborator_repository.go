package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ponyfiction/internal/model"
)

type CollaboratorRepository struct {
	db *gorm.DB
}

func NewCollaboratorRepository(db *gorm.DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

// Add inserts a collaborator or updates the role of an existing one.
func (r *CollaboratorRepository) Add(ctx context.Context, collaborator *model.StoryCollaborator) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(collaborator).Error; err != nil {
		return fmt.Errorf("add collaborator failed: %w", err)
	}
	return nil
}

func (r *CollaboratorRepository) ListByStory(ctx context.Context, storyID uint) ([]model.StoryCollaborator, error) {
	list := []model.StoryCollaborator{}
	if err := conn(ctx, r.db).Preload("User").Where("story_id = ?", storyID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list collaborators failed: %w", err)
	}
	return list, nil
}
