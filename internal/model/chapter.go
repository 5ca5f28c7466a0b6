package model

import (
	"time"

	"gorm.io/gorm"
)

type Chapter struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StoryID   uint           `gorm:"not null;index" json:"storyId"`
	Number    int            `gorm:"not null" json:"number"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Content   string         `gorm:"type:text" json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
