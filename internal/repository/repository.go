package repository

import (
	"context"
	"time"

	"ponyfiction/internal/model"
)

// Page is a window into an ordered listing.
type Page struct {
	Limit  int
	Offset int
}

type Users interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User, fields map[string]interface{}) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type Sessions interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

type Files interface {
	Create(ctx context.Context, file *model.File) error
	Save(ctx context.Context, file *model.File) error
	GetByID(ctx context.Context, id uint) (*model.File, error)
	Delete(ctx context.Context, id uint) error
}

type Tags interface {
	FindOrCreateMany(ctx context.Context, names []string) ([]model.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tag, error)
	List(ctx context.Context, page Page) ([]model.Tag, int64, error)
	ListByStory(ctx context.Context, storyID uint) ([]model.Tag, error)
}

type Stories interface {
	Create(ctx context.Context, story *model.Story) error
	GetByID(ctx context.Context, id uint) (*model.Story, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*model.Story, error)
	GetBySlug(ctx context.Context, slug string) (*model.Story, error)
	ListPublished(ctx context.Context, page Page) ([]model.Story, int64, error)
	ListByPublisher(ctx context.Context, publisherID uint, withDrafts bool, page Page) ([]model.Story, int64, error)
	Update(ctx context.Context, story *model.Story, fields map[string]interface{}) error
	ReplaceTags(ctx context.Context, story *model.Story, tags []model.Tag) error
	SetCover(ctx context.Context, storyID uint, coverID *uint) error
	AddChaptersCount(ctx context.Context, storyID uint, delta int) error
	Delete(ctx context.Context, id uint) error
}

type Chapters interface {
	Create(ctx context.Context, chapter *model.Chapter) error
	GetByID(ctx context.Context, id uint) (*model.Chapter, error)
	ListByStory(ctx context.Context, storyID uint) ([]model.Chapter, error)
	Update(ctx context.Context, chapter *model.Chapter, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	Renumber(ctx context.Context, storyID uint, after int) error
}

type Collaborators interface {
	Add(ctx context.Context, collaborator *model.StoryCollaborator) error
	ListByStory(ctx context.Context, storyID uint) ([]model.StoryCollaborator, error)
}
