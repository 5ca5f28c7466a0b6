package graph

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ponyfiction/internal/app"
	"ponyfiction/internal/model"
	"ponyfiction/internal/repository/mocks"
	"ponyfiction/internal/storage"
)

type harness struct {
	schema        *Schema
	metrics       *Metrics
	users         *mocks.MockUsers
	stories       *mocks.MockStories
	chapters      *mocks.MockChapters
	tags          *mocks.MockTags
	collaborators *mocks.MockCollaborators
	files         *mocks.MockFiles
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir(), "/files")
	require.NoError(t, err)

	h := &harness{
		users:         new(mocks.MockUsers),
		stories:       new(mocks.MockStories),
		chapters:      new(mocks.MockChapters),
		tags:          new(mocks.MockTags),
		collaborators: new(mocks.MockCollaborators),
		files:         new(mocks.MockFiles),
	}
	h.metrics, err = NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	tx := mocks.MockTransactor{}
	files := app.NewFileService(h.files, store, 1<<20)
	services := Services{
		Auth: app.NewAuthService(tx, h.users, new(mocks.MockSessions), nil, files, app.AuthConfig{
			JWTSecret: "secret", AccessTTL: time.Hour, RefreshTTL: time.Hour,
		}),
		Users: app.NewUserService(h.users),
		Stories: app.NewStoryService(tx, app.StoryRepos{
			Stories:       h.stories,
			Chapters:      h.chapters,
			Tags:          h.tags,
			Collaborators: h.collaborators,
			Users:         h.users,
		}, files, app.NewFileRemover(nil, store, zerolog.Nop()), nil, zerolog.Nop()),
		Chapters: app.NewChapterService(tx, h.stories, h.chapters, nil, zerolog.Nop()),
		Tags:     app.NewTagService(h.tags),
		Files:    files,
	}
	h.schema, err = NewSchema(services, h.metrics, zerolog.Nop())
	require.NoError(t, err)
	return h
}

var rarity = &model.User{ID: 1, Login: "rarity", Email: "rarity@equestria.net", Status: model.StatusActive}

func (h *harness) asViewer(user *model.User) context.Context {
	h.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	return WithRequest(context.Background(), user.ID, app.ClientInfo{})
}

func data(t *testing.T, result *graphql.Result, path ...string) interface{} {
	t.Helper()
	require.False(t, result.HasErrors(), "unexpected errors: %v", result.Errors)
	var cur interface{} = result.Data
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		require.True(t, ok, "no object at %q", key)
		cur = m[key]
	}
	return cur
}

func firstError(t *testing.T, result *graphql.Result) (string, map[string]interface{}) {
	t.Helper()
	require.True(t, result.HasErrors())
	return result.Errors[0].Message, result.Errors[0].Extensions
}

func TestStoryAddMutation(t *testing.T) {
	h := newHarness(t)
	tags := []model.Tag{{ID: 1, Name: "Drama", Slug: "drama"}}
	h.stories.On("Create", mock.Anything, mock.AnythingOfType("*model.Story")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Story).ID = 5 }).
		Return(nil)
	h.tags.On("FindOrCreateMany", mock.Anything, []string{"Drama"}).Return(tags, nil)
	h.stories.On("ReplaceTags", mock.Anything, mock.Anything, tags).
		Run(func(args mock.Arguments) { args.Get(1).(*model.Story).Tags = args.Get(2).([]model.Tag) }).
		Return(nil)

	result := h.schema.Execute(h.asViewer(rarity), Request{
		Query: `mutation Add($story: StoryAddInput!) {
			storyAdd(story: $story) {
				id title isDraft chaptersCount
				tags { name }
				chapters { number title }
				publisher { login }
			}
		}`,
		Variables: map[string]interface{}{
			"story": map[string]interface{}{
				"title":       "Sunset",
				"description": "A story",
				"tags":        []interface{}{"Drama"},
				"chapters":    []interface{}{map[string]interface{}{"title": "One", "content": "..."}},
			},
		},
	})

	story := data(t, result, "storyAdd").(map[string]interface{})
	assert.Equal(t, "5", story["id"])
	assert.Equal(t, "Sunset", story["title"])
	assert.Equal(t, false, story["isDraft"])
	assert.Equal(t, 1, story["chaptersCount"])
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "Drama"}}, story["tags"])
	assert.Equal(t, []interface{}{map[string]interface{}{"number": 1, "title": "One"}}, story["chapters"])
	assert.Equal(t, map[string]interface{}{"login": "rarity"}, story["publisher"])
}

func TestMutationsRequireViewer(t *testing.T) {
	h := newHarness(t)
	result := h.schema.Execute(context.Background(), Request{Query: `mutation { storyRemove(storyId: "1") }`})

	msg, ext := firstError(t, result)
	assert.Equal(t, app.ErrUnauthenticated.Error(), msg)
	assert.Equal(t, 401, ext["status"])
	assert.Equal(t, "UNAUTHORIZED", ext["code"])
}

func TestMissingStoryStatusDependsOnOperation(t *testing.T) {
	h := newHarness(t)
	h.stories.On("GetByID", mock.Anything, uint(9)).Return(nil, nil)
	ctx := h.asViewer(rarity)

	update := h.schema.Execute(ctx, Request{
		Query:     `mutation($s: StoryUpdateInput!) { storyUpdate(story: $s) { id } }`,
		Variables: map[string]interface{}{"s": map[string]interface{}{"id": "9"}},
	})
	_, ext := firstError(t, update)
	assert.Equal(t, 400, ext["status"])

	cover := h.schema.Execute(ctx, Request{Query: `mutation { storyCoverRemove(storyId: "9") }`})
	_, ext = firstError(t, cover)
	assert.Equal(t, 404, ext["status"])
}

func TestStoryQuery(t *testing.T) {
	h := newHarness(t)
	h.stories.On("GetBySlug", mock.Anything, "nope").Return(nil, nil)
	h.stories.On("GetBySlug", mock.Anything, "broken").Return(nil, errors.New("db down"))
	h.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{
		ID: 3, Title: "Found", PublisherID: 1, Publisher: rarity,
	}, nil)
	h.tags.On("ListByStory", mock.Anything, uint(3)).Return(nil, nil)

	t.Run("found by id", func(t *testing.T) {
		result := h.schema.Execute(context.Background(), Request{Query: `{ story(idOrSlug: "3") { title tags { name } dates { createdAt } } }`})
		story := data(t, result, "story").(map[string]interface{})
		assert.Equal(t, "Found", story["title"])
		assert.Equal(t, []interface{}{}, story["tags"])
	})

	t.Run("not found", func(t *testing.T) {
		result := h.schema.Execute(context.Background(), Request{Query: `{ story(idOrSlug: "nope") { id } }`})
		_, ext := firstError(t, result)
		assert.Equal(t, "NOT_FOUND", ext["code"])
		assert.Nil(t, result.Data)
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		result := h.schema.Execute(context.Background(), Request{Query: `{ story(idOrSlug: "broken") { id } }`})
		msg, ext := firstError(t, result)
		assert.Equal(t, "Internal Server Error", msg)
		assert.Equal(t, 500, ext["status"])
	})
}

func TestStoriesPage(t *testing.T) {
	h := newHarness(t)
	h.stories.On("ListPublished", mock.Anything, mock.Anything).Return([]model.Story{{ID: 1, Title: "A"}}, int64(1), nil)

	result := h.schema.Execute(context.Background(), Request{
		Query: `query Stories { stories(limit: 10) { list { id title } count page limit offset hasNext } }`,
	})
	page := data(t, result, "stories").(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"id": "1", "title": "A"}}, page["list"])
	assert.Equal(t, 1, page["count"])
	assert.Equal(t, 1, page["page"])
	assert.Equal(t, 10, page["limit"])
	assert.Equal(t, 0, page["offset"])
	assert.Equal(t, false, page["hasNext"])

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.operations.WithLabelValues("stories", "query", "ok")))
}

func TestStoriesPageLimits(t *testing.T) {
	h := newHarness(t)
	h.stories.On("ListPublished", mock.Anything, mock.Anything).Return([]model.Story{}, int64(0), nil)

	for query, want := range map[string]int{
		`{ stories { limit } }`:             20,
		`{ stories(limit: 0) { limit } }`:   1,
		`{ stories(limit: -3) { limit } }`:  1,
		`{ stories(limit: 500) { limit } }`: 100,
	} {
		result := h.schema.Execute(context.Background(), Request{Query: query})
		assert.Equal(t, want, data(t, result, "stories", "limit"), query)
	}
}

func TestUserEmailVisibility(t *testing.T) {
	h := newHarness(t)
	h.users.On("GetByLogin", mock.Anything, "rarity").Return(rarity, nil)
	query := Request{Query: `{ user(login: "rarity") { login email role } }`}

	guest := h.schema.Execute(context.Background(), query)
	assert.Nil(t, data(t, guest, "user", "email"))
	assert.Equal(t, "user", data(t, guest, "user", "role"))

	self := h.schema.Execute(h.asViewer(rarity), query)
	assert.Equal(t, "rarity@equestria.net", data(t, self, "user", "email"))
}

func TestStoryCoverUpdateWithUpload(t *testing.T) {
	h := newHarness(t)
	h.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{ID: 3, PublisherID: 1}, nil)
	h.files.On("Create", mock.Anything, mock.AnythingOfType("*model.File")).
		Run(func(args mock.Arguments) { args.Get(1).(*model.File).ID = 11 }).
		Return(nil)
	h.stories.On("SetCover", mock.Anything, uint(3), mock.Anything).Return(nil)

	upload := &app.Upload{
		Filename: "c.png",
		Size:     3,
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil },
	}
	result := h.schema.Execute(h.asViewer(rarity), Request{
		Query: `mutation($story: FileNodeInput!) { storyCoverUpdate(story: $story) { id mime size url } }`,
		Variables: map[string]interface{}{
			"story": map[string]interface{}{"id": "3", "file": upload},
		},
	})

	cover := data(t, result, "storyCoverUpdate").(map[string]interface{})
	assert.Equal(t, "11", cover["id"])
	assert.Equal(t, "image/png", cover["mime"])
	assert.Equal(t, 3, cover["size"])
	assert.Equal(t, "/files/story/3/cover/c.png", cover["url"])
}

func TestSelectedOperation(t *testing.T) {
	cases := []struct {
		req Request
		op  string
	}{
		{Request{Query: `{ viewer { id } }`}, "query"},
		{Request{Query: "# leading comment\nmutation { storyRemove(storyId: \"1\") }"}, "mutation"},
		{Request{Query: `query A { viewer { id } } mutation B { storyRemove(storyId: "7") }`, OperationName: "B"}, "mutation"},
		{Request{Query: `query A { viewer { id } } mutation B { storyRemove(storyId: "7") }`, OperationName: "A"}, "query"},
		{Request{Query: `query A { viewer { id } } mutation B { storyRemove(storyId: "7") }`}, ""},
		{Request{Query: `{`}, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.op, OperationType(tc.req), tc.req.Query)
	}
}

func TestOperationLabelUsesSchemaFields(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		req   Request
		label string
	}{
		{Request{Query: `query Whatever { tags { count } stories { count } t2: tags { count } }`}, "stories+tags"},
		{Request{Query: `mutation Add { storyRemove(storyId: "1") }`}, "storyRemove"},
		{Request{Query: `query Random123 { nope }`}, "other"},
		{Request{Query: `{ __typename }`}, "other"},
		{Request{Query: `{`}, "invalid"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, h.schema.operationLabel(selectedOperation(tc.req)), tc.req.Query)
	}
}

func TestStoryUpdateClearsTags(t *testing.T) {
	cases := []struct {
		name string
		req  Request
	}{
		{
			name: "null field in variable object",
			req: Request{
				Query:     `mutation($s: StoryUpdateInput!) { storyUpdate(story: $s) { id tags { name } } }`,
				Variables: map[string]interface{}{"s": map[string]interface{}{"id": "3", "tags": nil}},
			},
		},
		{
			name: "null variable bound to field",
			req: Request{
				Query:     `mutation($tags: [String!]) { storyUpdate(story: {id: "3", tags: $tags}) { id tags { name } } }`,
				Variables: map[string]interface{}{"tags": nil},
			},
		},
		{
			name: "clearTags literal",
			req:  Request{Query: `mutation { storyUpdate(story: {id: "3", clearTags: true}) { id tags { name } } }`},
		},
		{
			name: "empty list literal",
			req:  Request{Query: `mutation { storyUpdate(story: {id: "3", tags: []}) { id tags { name } } }`},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{
				ID: 3, PublisherID: 1, Tags: []model.Tag{{ID: 1, Name: "Drama", Slug: "drama"}},
			}, nil)
			h.stories.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			h.stories.On("ReplaceTags", mock.Anything, mock.AnythingOfType("*model.Story"), []model.Tag{}).
				Run(func(args mock.Arguments) { args.Get(1).(*model.Story).Tags = args.Get(2).([]model.Tag) }).
				Return(nil)

			result := h.schema.Execute(h.asViewer(rarity), tc.req)

			assert.Equal(t, []interface{}{}, data(t, result, "storyUpdate", "tags"))
			h.stories.AssertCalled(t, "ReplaceTags", mock.Anything, mock.Anything, []model.Tag{})
		})
	}
}

func TestStoryUpdateWithoutTagsKeepsThem(t *testing.T) {
	h := newHarness(t)
	h.stories.On("GetByID", mock.Anything, uint(3)).Return(&model.Story{
		ID: 3, PublisherID: 1, Tags: []model.Tag{{ID: 1, Name: "Drama", Slug: "drama"}},
	}, nil)
	h.stories.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result := h.schema.Execute(h.asViewer(rarity), Request{
		Query:     `mutation($s: StoryUpdateInput!) { storyUpdate(story: $s) { tags { name } } }`,
		Variables: map[string]interface{}{"s": map[string]interface{}{"id": "3", "description": "new"}},
	})

	assert.Equal(t, []interface{}{map[string]interface{}{"name": "Drama"}}, data(t, result, "storyUpdate", "tags"))
	h.stories.AssertNotCalled(t, "ReplaceTags", mock.Anything, mock.Anything, mock.Anything)
}
