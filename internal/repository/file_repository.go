package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ponyfiction/internal/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *model.File) error {
	if err := conn(ctx, r.db).Create(file).Error; err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) Save(ctx context.Context, file *model.File) error {
	if err := conn(ctx, r.db).Save(file).Error; err != nil {
		return fmt.Errorf("save file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uint) (*model.File, error) {
	var file model.File
	if err := conn(ctx, r.db).First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get file failed: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&model.File{}, id).Error; err != nil {
		return fmt.Errorf("delete file failed: %w", err)
	}
	return nil
}
