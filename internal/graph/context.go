package graph

import (
	"context"
	"sync"

	"ponyfiction/internal/app"
	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/httperr"
)

type requestKey struct{}

// requestState is created once per HTTP request. The viewer row is loaded
// lazily on first use and shared by every resolver of the request.
type requestState struct {
	userID uint
	client app.ClientInfo

	once   sync.Once
	viewer *model.User
	err    error
}

// WithRequest attaches the authenticated user id (0 for guests) and client
// info to ctx.
func WithRequest(ctx context.Context, userID uint, client app.ClientInfo) context.Context {
	return context.WithValue(ctx, requestKey{}, &requestState{userID: userID, client: client})
}

func stateFrom(ctx context.Context) *requestState {
	st, _ := ctx.Value(requestKey{}).(*requestState)
	return st
}

func clientFrom(ctx context.Context) app.ClientInfo {
	if st := stateFrom(ctx); st != nil {
		return st.client
	}
	return app.ClientInfo{}
}

// viewer returns the current user or nil for guests and deleted accounts.
func (s *Schema) viewer(ctx context.Context) (*model.User, error) {
	st := stateFrom(ctx)
	if st == nil || st.userID == 0 {
		return nil, nil
	}
	st.once.Do(func() {
		st.viewer, st.err = s.services.Users.GetByID(ctx, st.userID)
	})
	return st.viewer, st.err
}

func (s *Schema) requireViewer(ctx context.Context) (*model.User, error) {
	viewer, err := s.viewer(ctx)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, httperr.Unauthorized(app.ErrUnauthenticated.Error())
	}
	return viewer, nil
}

type variablesKey struct{}

// withVariables keeps the request variables as sent. graphql-go drops null
// input object fields while coercing them.
func withVariables(ctx context.Context, variables map[string]interface{}) context.Context {
	return context.WithValue(ctx, variablesKey{}, variables)
}

func variablesFrom(ctx context.Context) map[string]interface{} {
	vars, _ := ctx.Value(variablesKey{}).(map[string]interface{})
	return vars
}
