package model

import "time"

type File struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Path      string    `gorm:"size:512;not null" json:"path"`
	Mime      string    `gorm:"size:128" json:"mime"`
	Hash      string    `gorm:"size:128;index" json:"hash"`
	Size      int64     `gorm:"not null;default:0" json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
