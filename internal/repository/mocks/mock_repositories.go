package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ponyfiction/internal/model"
	"ponyfiction/internal/repository"
)

// MockTransactor runs fn directly without a database.
type MockTransactor struct{}

func (MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUsers) Update(ctx context.Context, user *model.User, fields map[string]interface{}) error {
	return m.Called(ctx, user, fields).Error(0)
}

func (m *MockUsers) GetByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsers) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Create(ctx context.Context, session *model.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessions) GetByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessions) GetByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessions) Revoke(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockFiles struct {
	mock.Mock
}

func (m *MockFiles) Create(ctx context.Context, file *model.File) error {
	return m.Called(ctx, file).Error(0)
}

func (m *MockFiles) Save(ctx context.Context, file *model.File) error {
	return m.Called(ctx, file).Error(0)
}

func (m *MockFiles) GetByID(ctx context.Context, id uint) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFiles) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type MockTags struct {
	mock.Mock
}

func (m *MockTags) FindOrCreateMany(ctx context.Context, names []string) ([]model.Tag, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTags) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTags) List(ctx context.Context, page repository.Page) ([]model.Tag, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Tag), args.Get(1).(int64), args.Error(2)
}

func (m *MockTags) ListByStory(ctx context.Context, storyID uint) ([]model.Tag, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

type MockStories struct {
	mock.Mock
}

func (m *MockStories) Create(ctx context.Context, story *model.Story) error {
	return m.Called(ctx, story).Error(0)
}

func (m *MockStories) GetByID(ctx context.Context, id uint) (*model.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Story), args.Error(1)
}

func (m *MockStories) GetByIDForUpdate(ctx context.Context, id uint) (*model.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Story), args.Error(1)
}

func (m *MockStories) GetBySlug(ctx context.Context, slug string) (*model.Story, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Story), args.Error(1)
}

func (m *MockStories) ListPublished(ctx context.Context, page repository.Page) ([]model.Story, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Story), args.Get(1).(int64), args.Error(2)
}

func (m *MockStories) ListByPublisher(ctx context.Context, publisherID uint, withDrafts bool, page repository.Page) ([]model.Story, int64, error) {
	args := m.Called(ctx, publisherID, withDrafts, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Story), args.Get(1).(int64), args.Error(2)
}

func (m *MockStories) Update(ctx context.Context, story *model.Story, fields map[string]interface{}) error {
	return m.Called(ctx, story, fields).Error(0)
}

func (m *MockStories) ReplaceTags(ctx context.Context, story *model.Story, tags []model.Tag) error {
	return m.Called(ctx, story, tags).Error(0)
}

func (m *MockStories) SetCover(ctx context.Context, storyID uint, coverID *uint) error {
	return m.Called(ctx, storyID, coverID).Error(0)
}

func (m *MockStories) AddChaptersCount(ctx context.Context, storyID uint, delta int) error {
	return m.Called(ctx, storyID, delta).Error(0)
}

func (m *MockStories) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type MockChapters struct {
	mock.Mock
}

func (m *MockChapters) Create(ctx context.Context, chapter *model.Chapter) error {
	return m.Called(ctx, chapter).Error(0)
}

func (m *MockChapters) GetByID(ctx context.Context, id uint) (*model.Chapter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chapter), args.Error(1)
}

func (m *MockChapters) ListByStory(ctx context.Context, storyID uint) ([]model.Chapter, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Chapter), args.Error(1)
}

func (m *MockChapters) Update(ctx context.Context, chapter *model.Chapter, fields map[string]interface{}) error {
	return m.Called(ctx, chapter, fields).Error(0)
}

func (m *MockChapters) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockChapters) Renumber(ctx context.Context, storyID uint, after int) error {
	return m.Called(ctx, storyID, after).Error(0)
}

type MockCollaborators struct {
	mock.Mock
}

func (m *MockCollaborators) Add(ctx context.Context, collaborator *model.StoryCollaborator) error {
	return m.Called(ctx, collaborator).Error(0)
}

func (m *MockCollaborators) ListByStory(ctx context.Context, storyID uint) ([]model.StoryCollaborator, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StoryCollaborator), args.Error(1)
}
