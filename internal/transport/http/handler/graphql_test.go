package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ponyfiction/internal/app"
	"ponyfiction/internal/graph"
	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/httperr"
	"ponyfiction/internal/repository/mocks"
	"ponyfiction/internal/storage"
	"ponyfiction/internal/transport/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestSchema(t *testing.T, users *mocks.MockUsers) *graph.Schema {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir(), "/files")
	require.NoError(t, err)

	tx := mocks.MockTransactor{}
	stories := new(mocks.MockStories)
	chapters := new(mocks.MockChapters)
	files := app.NewFileService(new(mocks.MockFiles), store, 1<<20)
	schema, err := graph.NewSchema(graph.Services{
		Auth: app.NewAuthService(tx, users, new(mocks.MockSessions), nil, files, app.AuthConfig{
			JWTSecret: "secret", AccessTTL: time.Hour, RefreshTTL: time.Hour,
		}),
		Users: app.NewUserService(users),
		Stories: app.NewStoryService(tx, app.StoryRepos{
			Stories:       stories,
			Chapters:      chapters,
			Tags:          new(mocks.MockTags),
			Collaborators: new(mocks.MockCollaborators),
			Users:         users,
		}, files, app.NewFileRemover(nil, store, zerolog.Nop()), nil, zerolog.Nop()),
		Chapters: app.NewChapterService(tx, stories, chapters, nil, zerolog.Nop()),
		Tags:     app.NewTagService(new(mocks.MockTags)),
		Files:    files,
	}, nil, zerolog.Nop())
	require.NoError(t, err)
	return schema
}

func newTestRouter(h *GraphQLHandler, userID uint) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Client(), func(c *gin.Context) {
		if userID != 0 {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})
	router.GET("/graphql", h.Get)
	router.POST("/graphql", h.Post)
	return router
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGraphQLPostJSON(t *testing.T) {
	users := new(mocks.MockUsers)
	users.On("GetByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Login: "rarity", Status: model.StatusActive}, nil)
	router := newTestRouter(NewGraphQLHandler(newTestSchema(t, users), 1<<20, false), 1)

	payload := `{"query":"query Me { viewer { login } }","operationName":"Me"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Nil(t, body["errors"])
	viewer := body["data"].(map[string]interface{})["viewer"].(map[string]interface{})
	assert.Equal(t, "rarity", viewer["login"])
}

func TestGraphQLPostGuestViewerIsNull(t *testing.T) {
	router := newTestRouter(NewGraphQLHandler(newTestSchema(t, new(mocks.MockUsers)), 1<<20, false), 0)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":"{ viewer { id } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Nil(t, data["viewer"])
}

func TestGraphQLPostRejectsBadBodies(t *testing.T) {
	router := newTestRouter(NewGraphQLHandler(newTestSchema(t, new(mocks.MockUsers)), 1<<20, false), 0)

	for name, body := range map[string]string{
		"malformed json": `{"query":`,
		"empty query":    `{"query":"  "}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			errs := decodeBody(t, rec)["errors"].([]interface{})
			ext := errs[0].(map[string]interface{})["extensions"].(map[string]interface{})
			assert.Equal(t, float64(http.StatusBadRequest), ext["status"])
		})
	}
}

func TestGraphQLGet(t *testing.T) {
	router := newTestRouter(NewGraphQLHandler(newTestSchema(t, new(mocks.MockUsers)), 1<<20, true), 0)

	t.Run("query string", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape("{ __typename }"), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Query", decodeBody(t, rec)["data"].(map[string]interface{})["__typename"])
	})

	t.Run("mutation is not allowed", func(t *testing.T) {
		cases := []struct{ query, operationName string }{
			{query: `mutation { authLogOut(refreshToken: "x") }`},
			{query: "# remove it\nmutation { storyRemove(storyId: \"7\") }"},
			{query: `query A { viewer { login } } mutation B { storyRemove(storyId: "7") }`, operationName: "B"},
		}
		for _, tc := range cases {
			rec := httptest.NewRecorder()
			target := "/graphql?query=" + url.QueryEscape(tc.query) + "&operationName=" + tc.operationName
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.query)
		}
	})

	t.Run("query selected from mixed document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		q := url.QueryEscape(`query A { __typename } mutation B { storyRemove(storyId: "7") }`)
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql?operationName=A&query="+q, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Query", decodeBody(t, rec)["data"].(map[string]interface{})["__typename"])
	})

	t.Run("bad variables", func(t *testing.T) {
		rec := httptest.NewRecorder()
		q := url.QueryEscape("{ __typename }")
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql?query="+q+"&variables=nope", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("graphiql", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "GraphiQL")
	})
}

func multipartRequest(t *testing.T, operations, fileMap string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("operations", operations))
	if fileMap != "" {
		require.NoError(t, w.WriteField("map", fileMap))
	}
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/graphql", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func parseWith(t *testing.T, h *GraphQLHandler, req *http.Request) (graph.Request, error) {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return h.parseMultipart(c)
}

func TestParseMultipart(t *testing.T) {
	h := &GraphQLHandler{maxUploadSize: 1 << 20}
	req := multipartRequest(t,
		`{"query":"mutation($story: FileNodeInput!) { storyCoverUpdate(story: $story) { id } }","variables":{"story":{"id":"3","file":null}}}`,
		`{"0":["variables.story.file"]}`,
		map[string]string{"0": "png-bytes"},
	)

	parsed, err := parseWith(t, h, req)
	require.NoError(t, err)
	story := parsed.Variables["story"].(map[string]interface{})
	assert.Equal(t, "3", story["id"])

	upload, ok := story["file"].(*app.Upload)
	require.True(t, ok)
	assert.Equal(t, "0.png", upload.Filename)
	assert.Equal(t, int64(len("png-bytes")), upload.Size)

	rc, err := upload.Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

func TestParseMultipartErrors(t *testing.T) {
	t.Run("missing operations", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("map", "{}"))
		require.NoError(t, w.Close())
		req := httptest.NewRequest(http.MethodPost, "/graphql", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())

		_, err := parseWith(t, &GraphQLHandler{}, req)
		assert.EqualError(t, err, "missing operations field")
	})

	t.Run("missing file part", func(t *testing.T) {
		req := multipartRequest(t, `{"query":"{ __typename }","variables":{"file":null}}`, `{"0":["variables.file"]}`, nil)
		_, err := parseWith(t, &GraphQLHandler{}, req)
		assert.EqualError(t, err, `file part "0" is missing`)
	})

	t.Run("file too large", func(t *testing.T) {
		req := multipartRequest(t, `{"query":"{ __typename }","variables":{"file":null}}`, `{"0":["variables.file"]}`,
			map[string]string{"0": "0123456789"})
		_, err := parseWith(t, &GraphQLHandler{maxUploadSize: 4}, req)

		var httpErr *httperr.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusRequestEntityTooLarge, httpErr.Status)
	})
}

func TestSetPath(t *testing.T) {
	upload := &app.Upload{Filename: "a.png"}

	variables := map[string]interface{}{
		"input": map[string]interface{}{"files": []interface{}{nil, nil}},
	}
	root := map[string]interface{}{"variables": variables}
	require.NoError(t, setPath(root, "variables.input.files.1", upload))
	files := variables["input"].(map[string]interface{})["files"].([]interface{})
	assert.Nil(t, files[0])
	assert.Same(t, upload, files[1])

	assert.Error(t, setPath(root, "input.files.0", upload))
	assert.Error(t, setPath(root, "variables.input.files.2", upload))
	assert.Error(t, setPath(root, "variables.missing.file", upload))
	assert.Error(t, setPath(root, "variables", upload))
}
