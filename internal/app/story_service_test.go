package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/httperr"
	"ponyfiction/internal/repository/mocks"
	"ponyfiction/internal/storage"
)

type fakeStoryCache struct {
	items   map[uint]*model.Story
	deleted []uint
}

func newFakeStoryCache() *fakeStoryCache {
	return &fakeStoryCache{items: map[uint]*model.Story{}}
}

func (c *fakeStoryCache) Get(_ context.Context, id uint) (*model.Story, bool, error) {
	s, ok := c.items[id]
	return s, ok, nil
}

func (c *fakeStoryCache) Set(_ context.Context, story *model.Story) error {
	c.items[story.ID] = story
	return nil
}

func (c *fakeStoryCache) Delete(_ context.Context, id uint) error {
	delete(c.items, id)
	c.deleted = append(c.deleted, id)
	return nil
}

type storyFixture struct {
	svc           *StoryService
	stories       *mocks.MockStories
	chapters      *mocks.MockChapters
	tags          *mocks.MockTags
	collaborators *mocks.MockCollaborators
	users         *mocks.MockUsers
	files         *mocks.MockFiles
	cache         *fakeStoryCache
	root          string
}

func newStoryFixture(t *testing.T) *storyFixture {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocal(root, "/files")
	require.NoError(t, err)

	f := &storyFixture{
		stories:       new(mocks.MockStories),
		chapters:      new(mocks.MockChapters),
		tags:          new(mocks.MockTags),
		collaborators: new(mocks.MockCollaborators),
		users:         new(mocks.MockUsers),
		files:         new(mocks.MockFiles),
		cache:         newFakeStoryCache(),
		root:          root,
	}
	f.svc = NewStoryService(
		mocks.MockTransactor{},
		StoryRepos{
			Stories:       f.stories,
			Chapters:      f.chapters,
			Tags:          f.tags,
			Collaborators: f.collaborators,
			Users:         f.users,
		},
		NewFileService(f.files, store, 1<<20),
		NewFileRemover(nil, store, zerolog.Nop()),
		f.cache,
		zerolog.Nop(),
	)
	return f
}

func activeUser(id uint, role model.UserRole) *model.User {
	return &model.User{ID: id, Login: "user", Role: role, Status: model.StatusActive}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	httpErr, ok := httperr.As(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	names := make([]string, 0, len(httpErr.Fields))
	for _, f := range httpErr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func textUpload(name, body string) *Upload {
	return &Upload{
		Filename: name,
		Size:     int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func TestStoryAddRequiresViewer(t *testing.T) {
	f := newStoryFixture(t)
	_, err := f.svc.Add(context.Background(), nil, StoryAddInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestStoryAddValidation(t *testing.T) {
	f := newStoryFixture(t)
	_, err := f.svc.Add(context.Background(), activeUser(1, model.RoleUser), StoryAddInput{
		Title:    "   ",
		Chapters: []ChapterInput{{Title: "ok"}, {Title: ""}},
	})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"title", "description", "chapters[1].title"}, fieldNames(t, err))
	f.stories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStoryAddForbiddenForInactiveViewer(t *testing.T) {
	f := newStoryFixture(t)
	viewer := &model.User{ID: 1, Status: model.StatusInactive}
	_, err := f.svc.Add(context.Background(), viewer, StoryAddInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStoryAddCreatesChaptersTagsAndSlug(t *testing.T) {
	f := newStoryFixture(t)
	viewer := activeUser(1, model.RoleUser)
	tags := []model.Tag{{ID: 4, Name: "Drama", Slug: "drama"}}

	f.stories.On("Create", mock.Anything, mock.AnythingOfType("*model.Story")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Story).ID = 7 }).
		Return(nil)
	f.tags.On("FindOrCreateMany", mock.Anything, []string{"Drama"}).Return(tags, nil)
	f.stories.On("ReplaceTags", mock.Anything, mock.AnythingOfType("*model.Story"), tags).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Story).Tags = args.Get(2).([]model.Tag) }).
		Return(nil)

	story, err := f.svc.Add(context.Background(), viewer, StoryAddInput{
		Title:       "Привет, мир",
		Description: "A story",
		Tags:        []string{"Drama"},
		Chapters:    []ChapterInput{{Title: "One", Content: "1"}, {Title: "Two", Content: "2"}},
	})
	require.NoError(t, err)

	assert.Equal(t, uint(7), story.ID)
	assert.False(t, story.IsDraft)
	assert.Equal(t, 2, story.ChaptersCount)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, 1, story.Chapters[0].Number)
	assert.Equal(t, 2, story.Chapters[1].Number)
	assert.Len(t, story.SlugShort, 10)
	assert.Equal(t, "privet-mir."+story.SlugShort, story.SlugFull)
	assert.Equal(t, viewer.ID, story.PublisherID)
	assert.Same(t, viewer, story.Publisher)
	assert.Equal(t, tags, story.Tags)
	f.stories.AssertExpectations(t)
	f.tags.AssertExpectations(t)
}

func TestStoryAddWithoutChaptersIsDraft(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("Create", mock.Anything, mock.AnythingOfType("*model.Story")).Return(nil)

	story, err := f.svc.Add(context.Background(), activeUser(1, model.RoleUser), StoryAddInput{
		Title:       "Alone",
		Description: "No chapters yet",
	})
	require.NoError(t, err)
	assert.True(t, story.IsDraft)
	assert.NotNil(t, story.Tags)
	assert.Empty(t, story.Tags)
	f.stories.AssertNotCalled(t, "ReplaceTags", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoryAddCollaborators(t *testing.T) {
	t.Run("unknown role", func(t *testing.T) {
		f := newStoryFixture(t)
		_, err := f.svc.Add(context.Background(), activeUser(1, model.RoleUser), StoryAddInput{
			Title:         "t",
			Description:   "d",
			Collaborators: []CollaboratorInput{{UserID: 5, Role: "janitor"}},
		})
		require.Error(t, err)
		assert.Equal(t, []string{"collaborators[0].role"}, fieldNames(t, err))
		f.stories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("stored with parsed role", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("Create", mock.Anything, mock.AnythingOfType("*model.Story")).
			Run(func(args mock.Arguments) { args.Get(1).(*model.Story).ID = 3 }).
			Return(nil)
		f.users.On("GetByID", mock.Anything, uint(5)).Return(&model.User{ID: 5}, nil)
		f.collaborators.On("Add", mock.Anything, mock.MatchedBy(func(c *model.StoryCollaborator) bool {
			return c.StoryID == 3 && c.UserID == 5 && c.Role == model.CollaboratorEditor
		})).Return(nil)

		story, err := f.svc.Add(context.Background(), activeUser(1, model.RoleUser), StoryAddInput{
			Title:         "t",
			Description:   "d",
			Collaborators: []CollaboratorInput{{UserID: 5, Role: " Editor "}},
		})
		require.NoError(t, err)
		require.Len(t, story.Collaborators, 1)
		f.collaborators.AssertExpectations(t)
	})
}

func TestStoryGet(t *testing.T) {
	ctx := context.Background()

	t.Run("draft hidden from guests", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).
			Return(&model.Story{ID: 3, PublisherID: 1, IsDraft: true}, nil)

		_, err := f.svc.Get(ctx, nil, "3")
		assert.ErrorIs(t, err, ErrStoryNotFound)

		story, err := f.svc.Get(ctx, activeUser(1, model.RoleUser), "3")
		require.NoError(t, err)
		assert.Equal(t, uint(3), story.ID)
		assert.Empty(t, f.cache.items)
	})

	t.Run("published story is cached by id", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).
			Return(&model.Story{ID: 3, PublisherID: 1}, nil).Once()

		first, err := f.svc.Get(ctx, nil, "3")
		require.NoError(t, err)
		second, err := f.svc.Get(ctx, nil, "3")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		f.stories.AssertNumberOfCalls(t, "GetByID", 1)
	})

	t.Run("slug lookup", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetBySlug", mock.Anything, "friendship.abcdefghij").
			Return(&model.Story{ID: 9}, nil)

		story, err := f.svc.Get(ctx, nil, "friendship.abcdefghij")
		require.NoError(t, err)
		assert.Equal(t, uint(9), story.ID)
		assert.Empty(t, f.cache.items)
	})

	t.Run("missing", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetBySlug", mock.Anything, "nope").Return(nil, nil)

		_, err := f.svc.Get(ctx, nil, "nope")
		assert.ErrorIs(t, err, ErrStoryNotFound)
	})
}

func TestStoryListPublishedClampsPaging(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("ListPublished", mock.Anything, mock.Anything).
		Return([]model.Story{{ID: 1}}, int64(250), nil)

	page, err := f.svc.ListPublished(context.Background(), 500, 2)
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 100, page.Offset)
	assert.True(t, page.HasNext)
	assert.Equal(t, int64(250), page.Count)
}

func TestNewPageInfoClampsLimit(t *testing.T) {
	for _, tc := range []struct {
		limit, page  int
		want, offset int
	}{
		{limit: 0, page: 1, want: 1, offset: 0},
		{limit: -5, page: 3, want: 1, offset: 2},
		{limit: 1, page: 0, want: 1, offset: 0},
		{limit: 100, page: 2, want: 100, offset: 100},
		{limit: 101, page: 1, want: 100, offset: 0},
	} {
		info := NewPageInfo(tc.limit, tc.page)
		assert.Equal(t, tc.want, info.Limit, "limit %d", tc.limit)
		assert.Equal(t, tc.offset, info.Offset, "limit %d page %d", tc.limit, tc.page)
	}
}

func TestStoryListByPublisherShowsDraftsToOwner(t *testing.T) {
	f := newStoryFixture(t)
	owner := activeUser(1, model.RoleUser)
	f.users.On("GetByLogin", mock.Anything, "rarity").Return(owner, nil)
	f.stories.On("ListByPublisher", mock.Anything, uint(1), true, mock.Anything).Return([]model.Story{}, int64(0), nil)
	f.stories.On("ListByPublisher", mock.Anything, uint(1), false, mock.Anything).Return([]model.Story{}, int64(0), nil)

	_, err := f.svc.ListByPublisher(context.Background(), owner, "rarity", 0, 0)
	require.NoError(t, err)
	_, err = f.svc.ListByPublisher(context.Background(), nil, "rarity", 0, 0)
	require.NoError(t, err)

	f.stories.AssertCalled(t, "ListByPublisher", mock.Anything, uint(1), true, mock.Anything)
	f.stories.AssertCalled(t, "ListByPublisher", mock.Anything, uint(1), false, mock.Anything)
}

func TestStoryUpdate(t *testing.T) {
	ctx := context.Background()
	existing := func() *model.Story {
		return &model.Story{ID: 3, PublisherID: 1, Title: "Old", SlugShort: "abcdefghij", SlugFull: "old.abcdefghij"}
	}

	t.Run("moderator limited to title and description", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(existing(), nil)
		f.stories.On("Update", mock.Anything, mock.Anything, map[string]interface{}{
			"title":     "New",
			"slug_full": "new.abcdefghij",
		}).Return(nil)

		title, draft := "New", true
		story, err := f.svc.Update(ctx, activeUser(2, model.RoleModerator), StoryUpdateInput{
			ID: 3, Title: &title, IsDraft: &draft,
		})
		require.NoError(t, err)
		assert.Equal(t, "New", story.Title)
		assert.Equal(t, "new.abcdefghij", story.SlugFull)
		assert.False(t, story.IsDraft)
		assert.Equal(t, []uint{3}, f.cache.deleted)
	})

	t.Run("empty tag list clears tags", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(existing(), nil)
		f.stories.On("Update", mock.Anything, mock.Anything, map[string]interface{}{}).Return(nil)
		f.stories.On("ReplaceTags", mock.Anything, mock.Anything, []model.Tag{}).Return(nil)

		_, err := f.svc.Update(ctx, activeUser(1, model.RoleUser), StoryUpdateInput{ID: 3, TagsSet: true})
		require.NoError(t, err)
		f.tags.AssertNotCalled(t, "FindOrCreateMany", mock.Anything, mock.Anything)
		f.stories.AssertExpectations(t)
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(existing(), nil)

		_, err := f.svc.Update(ctx, activeUser(2, model.RoleUser), StoryUpdateInput{ID: 3})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing story", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(nil, nil)

		_, err := f.svc.Update(ctx, activeUser(1, model.RoleAdmin), StoryUpdateInput{ID: 3})
		assert.ErrorIs(t, err, ErrStoryNotFound)
	})
}

func TestStoryRemove(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)
	f.stories.On("Delete", mock.Anything, uint(3)).Return(nil)

	id, err := f.svc.Remove(context.Background(), activeUser(1, model.RoleUser), 3)
	require.NoError(t, err)
	assert.Equal(t, uint(3), id)
	assert.Equal(t, []uint{3}, f.cache.deleted)
}

func TestStoryUpdateCover(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and links a new file", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)
		f.files.On("Create", mock.Anything, mock.AnythingOfType("*model.File")).
			Run(func(args mock.Arguments) { args.Get(1).(*model.File).ID = 11 }).
			Return(nil)
		f.stories.On("SetCover", mock.Anything, uint(3), mock.MatchedBy(func(id *uint) bool {
			return id != nil && *id == 11
		})).Return(nil)

		cover, err := f.svc.UpdateCover(ctx, activeUser(1, model.RoleUser), 3, textUpload("cover.png", "png-bytes"))
		require.NoError(t, err)
		assert.Equal(t, "story/3/cover/cover.png", cover.Path)
		assert.Equal(t, "image/png", cover.Mime)
		assert.Equal(t, int64(9), cover.Size)
		assert.Len(t, cover.Hash, 128)
		assert.FileExists(t, filepath.Join(f.root, "story", "3", "cover", "cover.png"))
		f.stories.AssertExpectations(t)
	})

	t.Run("replaces the existing file and removes the old object", func(t *testing.T) {
		f := newStoryFixture(t)
		oldPath := filepath.Join(f.root, "story", "3", "cover", "old.png")
		require.NoError(t, os.MkdirAll(filepath.Dir(oldPath), 0o755))
		require.NoError(t, os.WriteFile(oldPath, []byte("old"), 0o600))

		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{
			ID: 3, PublisherID: 1,
			Cover: &model.File{ID: 11, Path: "story/3/cover/old.png"},
		}, nil)
		f.files.On("Save", mock.Anything, mock.AnythingOfType("*model.File")).Return(nil)

		cover, err := f.svc.UpdateCover(ctx, activeUser(1, model.RoleUser), 3, textUpload("new.png", "new"))
		require.NoError(t, err)
		assert.Equal(t, uint(11), cover.ID)
		assert.Equal(t, "story/3/cover/new.png", cover.Path)
		assert.NoFileExists(t, oldPath)
		f.stories.AssertNotCalled(t, "SetCover", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("db failure removes the written object", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)
		f.files.On("Create", mock.Anything, mock.Anything).Return(errors.New("boom"))

		_, err := f.svc.UpdateCover(ctx, activeUser(1, model.RoleUser), 3, textUpload("cover.png", "png"))
		require.Error(t, err)
		assert.NoFileExists(t, filepath.Join(f.root, "story", "3", "cover", "cover.png"))
	})

	t.Run("missing story", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(nil, nil)

		_, err := f.svc.UpdateCover(ctx, activeUser(1, model.RoleUser), 3, textUpload("cover.png", "png"))
		assert.ErrorIs(t, err, ErrStoryNotFound)
	})
}

func TestStoryRemoveCover(t *testing.T) {
	ctx := context.Background()

	t.Run("no cover", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)

		id, err := f.svc.RemoveCover(ctx, activeUser(1, model.RoleUser), 3)
		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Empty(t, f.cache.deleted)
	})

	t.Run("removes row and object", func(t *testing.T) {
		f := newStoryFixture(t)
		objPath := filepath.Join(f.root, "story", "3", "cover", "c.png")
		require.NoError(t, os.MkdirAll(filepath.Dir(objPath), 0o755))
		require.NoError(t, os.WriteFile(objPath, []byte("c"), 0o600))

		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{
			ID: 3, PublisherID: 1,
			Cover: &model.File{ID: 11, Path: "story/3/cover/c.png"},
		}, nil)
		f.stories.On("SetCover", mock.Anything, uint(3), (*uint)(nil)).Return(nil)
		f.files.On("Delete", mock.Anything, uint(11)).Return(nil)

		id, err := f.svc.RemoveCover(ctx, activeUser(1, model.RoleUser), 3)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, uint(11), *id)
		assert.NoFileExists(t, objPath)
	})
}

func TestStoryAddCollaborator(t *testing.T) {
	ctx := context.Background()

	t.Run("only the publisher", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)

		_, err := f.svc.AddCollaborator(ctx, activeUser(2, model.RoleAdmin), 3, CollaboratorInput{UserID: 5, Role: "beta"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("publisher adds", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)
		f.users.On("GetByID", mock.Anything, uint(5)).Return(&model.User{ID: 5}, nil)
		f.collaborators.On("Add", mock.Anything, mock.MatchedBy(func(c *model.StoryCollaborator) bool {
			return c.UserID == 5 && c.Role == model.CollaboratorBeta
		})).Return(nil)

		story, err := f.svc.AddCollaborator(ctx, activeUser(1, model.RoleUser), 3, CollaboratorInput{UserID: 5, Role: "BETA"})
		require.NoError(t, err)
		assert.Equal(t, uint(3), story.ID)
		assert.Equal(t, []uint{3}, f.cache.deleted)
	})

	t.Run("publisher can't add themself", func(t *testing.T) {
		f := newStoryFixture(t)
		f.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)

		_, err := f.svc.AddCollaborator(ctx, activeUser(1, model.RoleUser), 3, CollaboratorInput{UserID: 1, Role: "beta"})
		assert.ErrorIs(t, err, ErrCollaboratorIsAuthor)
	})
}

func TestStoryTagsNeverNil(t *testing.T) {
	f := newStoryFixture(t)
	f.tags.On("ListByStory", mock.Anything, uint(3)).Return(nil, nil)

	tags, err := f.svc.Tags(context.Background(), &model.Story{ID: 3})
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}
