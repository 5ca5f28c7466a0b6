package graph

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"ponyfiction/internal/app"
)

// uploadScalar accepts files placed into variables by the multipart request
// handler. It can't be written inline in a query or returned.
var uploadScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Upload",
	Description: "A file sent with a GraphQL multipart request.",
	Serialize: func(value interface{}) interface{} {
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		if u, ok := value.(*app.Upload); ok && u != nil {
			return u
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return nil
	},
})
