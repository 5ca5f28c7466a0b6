package model

import (
	"time"

	"gorm.io/gorm"
)

type Story struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Title         string              `gorm:"size:255;not null" json:"title"`
	Description   string              `gorm:"type:text" json:"description"`
	SlugShort     string              `gorm:"size:16;not null;uniqueIndex" json:"slugShort"`
	SlugFull      string              `gorm:"size:300;not null;uniqueIndex" json:"slugFull"`
	IsDraft       bool                `gorm:"not null;default:true" json:"isDraft"`
	IsFinished    bool                `gorm:"not null;default:false" json:"isFinished"`
	ChaptersCount int                 `gorm:"not null;default:0" json:"chaptersCount"`
	PublisherID   uint                `gorm:"not null;index" json:"publisherId"`
	Publisher     *User               `json:"publisher,omitempty"`
	CoverID       *uint               `json:"coverId,omitempty"`
	Cover         *File               `gorm:"constraint:OnDelete:SET NULL" json:"cover,omitempty"`
	Tags          []Tag               `gorm:"many2many:story_tags" json:"tags,omitempty"`
	Chapters      []Chapter           `json:"chapters,omitempty"`
	Collaborators []StoryCollaborator `json:"collaborators,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (s *Story) ACLSubject() string {
	return "Story"
}
