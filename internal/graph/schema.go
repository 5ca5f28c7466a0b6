// Package graph exposes the app services as a GraphQL schema.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/rs/zerolog"

	"ponyfiction/internal/app"
)

type Services struct {
	Auth     *app.AuthService
	Users    *app.UserService
	Stories  *app.StoryService
	Chapters *app.ChapterService
	Tags     *app.TagService
	Files    *app.FileService
}

type Schema struct {
	schema   graphql.Schema
	services Services
	metrics  *Metrics
	logger   zerolog.Logger
}

// Request is a decoded GraphQL request body.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// NewSchema builds the schema. metrics may be nil.
func NewSchema(services Services, metrics *Metrics, logger zerolog.Logger) (*Schema, error) {
	s := &Schema{services: services, metrics: metrics, logger: logger}

	t := s.defineTypes()
	in := defineInputs()

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    s.defineQuery(t),
		Mutation: s.defineMutation(t, in),
	})
	if err != nil {
		return nil, fmt.Errorf("build graphql schema failed: %w", err)
	}
	s.schema = schema
	return s, nil
}

func (s *Schema) Execute(ctx context.Context, req Request) *graphql.Result {
	start := time.Now()
	result := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        withVariables(ctx, req.Variables),
	})

	op := selectedOperation(req)
	label, opType := s.operationLabel(op), "unknown"
	if op != nil {
		opType = op.Operation
	}
	s.metrics.observe(label, opType, result.HasErrors(), time.Since(start))
	if result.HasErrors() {
		s.logger.Debug().Str("operation", label).Interface("errors", result.Errors).Msg("graphql operation failed")
	}
	return result
}

// OperationType reports the type ("query", "mutation", ...) of the operation
// req selects, or "" when the document does not parse or selects nothing.
func OperationType(req Request) string {
	if op := selectedOperation(req); op != nil {
		return op.Operation
	}
	return ""
}

// selectedOperation returns the operation graphql.Do will execute for req.
func selectedOperation(req Request) *ast.OperationDefinition {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return nil
	}
	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if req.OperationName == "" {
			if found != nil {
				return nil
			}
			found = op
			continue
		}
		if op.Name != nil && op.Name.Value == req.OperationName {
			return op
		}
	}
	return found
}

// operationLabel names an operation by its root fields. Only fields defined
// by the schema are used so clients can't grow the label set.
func (s *Schema) operationLabel(op *ast.OperationDefinition) string {
	if op == nil {
		return "invalid"
	}
	var root *graphql.Object
	switch op.Operation {
	case "query":
		root = s.schema.QueryType()
	case "mutation":
		root = s.schema.MutationType()
	}
	if root == nil || op.SelectionSet == nil {
		return "other"
	}

	known := root.Fields()
	seen := map[string]bool{}
	var names []string
	for _, sel := range op.SelectionSet.Selections {
		f, ok := sel.(*ast.Field)
		if !ok || f.Name == nil {
			return "other"
		}
		name := f.Name.Value
		if _, ok := known[name]; !ok {
			return "other"
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "other"
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}
