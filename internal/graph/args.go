package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"ponyfiction/internal/app"
	"ponyfiction/internal/pkg/httperr"
)

func stringArg(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func optString(m map[string]interface{}, key string) *string {
	v, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func optBool(m map[string]interface{}, key string) *bool {
	v, ok := m[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

func intArg(m map[string]interface{}, key string, def int) int {
	if v, ok := m[key].(int); ok {
		return v
	}
	return def
}

func mapArg(m map[string]interface{}, key string) map[string]interface{} {
	v, _ := m[key].(map[string]interface{})
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

func listArg(m map[string]interface{}, key string) []interface{} {
	v, _ := m[key].([]interface{})
	return v
}

func stringsArg(m map[string]interface{}, key string) []string {
	raw := listArg(m, key)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func uploadArg(m map[string]interface{}, key string) *app.Upload {
	v, _ := m[key].(*app.Upload)
	return v
}

// idArg reads a positive numeric ID. IDs arrive as strings from both
// literals and variables.
func idArg(m map[string]interface{}, key string) (uint, error) {
	var raw string
	switch v := m[key].(type) {
	case string:
		raw = v
	case int:
		raw = strconv.Itoa(v)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, httperr.BadRequest("Validation failed", httperr.FieldError{
			Field: key,
			Error: fmt.Sprintf("must be a positive integer id, got %q", raw),
		})
	}
	return uint(id), nil
}

// explicitNull reports whether the client sent null for field inside the
// input object passed as argument arg, either through a variable holding the
// whole object or through a variable bound to that field.
func explicitNull(p graphql.ResolveParams, arg, field string) bool {
	if len(p.Info.FieldASTs) == 0 {
		return false
	}
	vars := variablesFrom(p.Context)
	for _, a := range p.Info.FieldASTs[0].Arguments {
		if a.Name == nil || a.Name.Value != arg {
			continue
		}
		switch v := a.Value.(type) {
		case *ast.Variable:
			obj, ok := vars[v.Name.Value].(map[string]interface{})
			if !ok {
				return false
			}
			val, present := obj[field]
			return present && val == nil
		case *ast.ObjectValue:
			for _, f := range v.Fields {
				if f.Name == nil || f.Name.Value != field {
					continue
				}
				ref, ok := f.Value.(*ast.Variable)
				if !ok {
					return false
				}
				val, present := vars[ref.Name.Value]
				return present && val == nil
			}
		}
	}
	return false
}
