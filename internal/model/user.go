package model

import "time"

type UserRole int

const (
	RoleUser UserRole = iota
	RoleModerator
	RoleAdmin
	RoleSu
)

func (r UserRole) String() string {
	switch r {
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	case RoleSu:
		return "su"
	default:
		return "user"
	}
}

// ParseUserRole accepts the names returned by UserRole.String.
func ParseUserRole(name string) (UserRole, bool) {
	for _, r := range []UserRole{RoleUser, RoleModerator, RoleAdmin, RoleSu} {
		if r.String() == name {
			return r, true
		}
	}
	return RoleUser, false
}

type UserStatus int

const (
	StatusInactive UserStatus = iota
	StatusActive
	StatusBanned
)

func (s UserStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusBanned:
		return "banned"
	default:
		return "inactive"
	}
}

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Login        string     `gorm:"size:48;not null;uniqueIndex" json:"login"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         UserRole   `gorm:"not null;default:0" json:"role"`
	Status       UserStatus `gorm:"not null;default:0" json:"status"`
	AvatarID     *uint      `json:"avatarId,omitempty"`
	Avatar       *File      `gorm:"constraint:OnDelete:SET NULL" json:"avatar,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

func (u *User) IsStaff() bool {
	return u != nil && u.Role >= RoleAdmin
}
