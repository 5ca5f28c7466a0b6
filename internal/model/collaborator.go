package model

import (
	"strings"
	"time"
)

type CollaboratorRole int

const (
	CollaboratorBeta CollaboratorRole = iota
	CollaboratorPainter
	CollaboratorTranslator
	CollaboratorWriter
	CollaboratorEditor
)

var collaboratorRoleNames = []string{"beta", "painter", "translator", "writer", "editor"}

func (r CollaboratorRole) String() string {
	if int(r) < 0 || int(r) >= len(collaboratorRoleNames) {
		return "unknown"
	}
	return collaboratorRoleNames[r]
}

// ParseCollaboratorRole matches a role name case-insensitively.
func ParseCollaboratorRole(name string) (CollaboratorRole, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range collaboratorRoleNames {
		if n == name {
			return CollaboratorRole(i), true
		}
	}
	return 0, false
}

func CollaboratorRoleNames() []string {
	return append([]string(nil), collaboratorRoleNames...)
}

type StoryCollaborator struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	StoryID   uint             `gorm:"not null;uniqueIndex:idx_story_collaborator" json:"storyId"`
	UserID    uint             `gorm:"not null;uniqueIndex:idx_story_collaborator" json:"userId"`
	User      *User            `json:"user,omitempty"`
	Role      CollaboratorRole `gorm:"not null;default:0" json:"role"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
