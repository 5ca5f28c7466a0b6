package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ponyfiction/internal/app"
	"ponyfiction/internal/graph"
	"ponyfiction/internal/pkg/httperr"
	"ponyfiction/internal/transport/http/middleware"
	"ponyfiction/internal/transport/http/response"
)

// multipartOverhead leaves room for the operations and map fields on top
// of the file size limit.
const multipartOverhead = 1 << 20

type GraphQLHandler struct {
	schema        *graph.Schema
	maxUploadSize int64
	graphiql      bool
}

func NewGraphQLHandler(schema *graph.Schema, maxUploadSize int64, graphiql bool) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, maxUploadSize: maxUploadSize, graphiql: graphiql}
}

func (h *GraphQLHandler) Get(c *gin.Context) {
	if h.graphiql && c.Query("query") == "" && strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(graphiqlPage))
		return
	}

	req := graph.Request{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			response.Error(c, httperr.BadRequest("variables must be a JSON object"))
			return
		}
	}
	if graph.OperationType(req) == "mutation" {
		response.Error(c, httperr.New(http.StatusMethodNotAllowed, "mutations must be sent with POST"))
		return
	}
	h.execute(c, req)
}

func (h *GraphQLHandler) Post(c *gin.Context) {
	var req graph.Request
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		parsed, err := h.parseMultipart(c)
		if err != nil {
			var httpErr *httperr.HTTPError
			if !errors.As(err, &httpErr) {
				httpErr = httperr.BadRequest(err.Error())
			}
			response.Error(c, httpErr)
			return
		}
		req = parsed
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, httperr.BadRequest("request body must be a JSON object"))
		return
	}
	h.execute(c, req)
}

func (h *GraphQLHandler) execute(c *gin.Context, req graph.Request) {
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, httperr.BadRequest("query is required"))
		return
	}
	ctx := graph.WithRequest(c.Request.Context(), c.GetUint(middleware.ContextUserIDKey), middleware.ClientFrom(c))
	c.JSON(http.StatusOK, h.schema.Execute(ctx, req))
}

// parseMultipart implements the GraphQL multipart request format: an
// "operations" JSON field, a "map" field from file part names to variable
// paths, and the file parts themselves.
func (h *GraphQLHandler) parseMultipart(c *gin.Context) (graph.Request, error) {
	var req graph.Request
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, httperr.New(http.StatusRequestEntityTooLarge, app.ErrFileTooLarge.Error())
		}
		return req, fmt.Errorf("invalid multipart request: %w", err)
	}

	operations := firstValue(form, "operations")
	if operations == "" {
		return req, errors.New("missing operations field")
	}
	if err := json.Unmarshal([]byte(operations), &req); err != nil {
		return req, errors.New("operations must be a single JSON object")
	}
	if req.Variables == nil {
		req.Variables = map[string]interface{}{}
	}

	var fileMap map[string][]string
	if raw := firstValue(form, "map"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fileMap); err != nil {
			return req, errors.New("map must be a JSON object")
		}
	}

	root := map[string]interface{}{"variables": req.Variables}
	for key, paths := range fileMap {
		headers := form.File[key]
		if len(headers) == 0 {
			return req, fmt.Errorf("file part %q is missing", key)
		}
		upload := toUpload(headers[0])
		if h.maxUploadSize > 0 && upload.Size > h.maxUploadSize {
			return req, httperr.New(http.StatusRequestEntityTooLarge, app.ErrFileTooLarge.Error())
		}
		for _, path := range paths {
			if err := setPath(root, path, upload); err != nil {
				return req, err
			}
		}
	}
	return req, nil
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func toUpload(fh *multipart.FileHeader) *app.Upload {
	return &app.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// setPath replaces the value at a dotted path such as "variables.story.file"
// or "variables.files.0".
func setPath(root map[string]interface{}, path string, value interface{}) error {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "variables" {
		return fmt.Errorf("invalid map path %q", path)
	}

	var cur interface{} = root
	for i, part := range parts {
		last := i == len(parts)-1
		switch node := cur.(type) {
		case map[string]interface{}:
			if last {
				node[part] = value
				return nil
			}
			next, ok := node[part]
			if !ok {
				return fmt.Errorf("map path %q not found in variables", path)
			}
			cur = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("invalid index in map path %q", path)
			}
			if last {
				node[idx] = value
				return nil
			}
			cur = node[idx]
		default:
			return fmt.Errorf("map path %q not found in variables", path)
		}
	}
	return nil
}

const graphiqlPage = `<!DOCTYPE html>
<html>
<head>
  <title>GraphiQL</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css" />
</head>
<body style="margin:0">
  <div id="graphiql" style="height:100vh"></div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: window.location.pathname });
    ReactDOM.createRoot(document.getElementById('graphiql'))
      .render(React.createElement(GraphiQL, { fetcher }));
  </script>
</body>
</html>`
