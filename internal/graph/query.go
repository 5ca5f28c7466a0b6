package graph

import (
	"github.com/graphql-go/graphql"

	"ponyfiction/internal/app"
)

func pagingArgs(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{
		"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: app.DefaultPageLimit},
		"page":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

func (s *Schema) defineQuery(t *types) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"viewer": &graphql.Field{
				Type:    t.user,
				Resolve: s.resolveViewer,
			},
			"user": &graphql.Field{
				Type: t.user,
				Args: graphql.FieldConfigArgument{
					"login": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: s.resolveUser,
			},
			"stories": &graphql.Field{
				Type:        graphql.NewNonNull(t.storyPage),
				Description: "Published stories, newest first.",
				Args:        pagingArgs(nil),
				Resolve:     s.resolveStories,
			},
			"storiesByPublisher": &graphql.Field{
				Type: graphql.NewNonNull(t.storyPage),
				Args: pagingArgs(graphql.FieldConfigArgument{
					"login": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				}),
				Resolve: s.resolveStoriesByPublisher,
			},
			"story": &graphql.Field{
				Type:        graphql.NewNonNull(t.story),
				Description: "Finds a story by given id or slug",
				Args: graphql.FieldConfigArgument{
					"idOrSlug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: s.resolveStory,
			},
			"chapter": &graphql.Field{
				Type: graphql.NewNonNull(t.chapter),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: s.resolveChapter,
			},
			"tags": &graphql.Field{
				Type:    graphql.NewNonNull(t.tagPage),
				Args:    pagingArgs(nil),
				Resolve: s.resolveTags,
			},
			"tag": &graphql.Field{
				Type: graphql.NewNonNull(t.tag),
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: s.resolveTag,
			},
		},
	})
}

func (s *Schema) resolveViewer(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.viewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	if viewer == nil {
		return nil, nil
	}
	return viewer, nil
}

func (s *Schema) resolveUser(p graphql.ResolveParams) (interface{}, error) {
	user, err := s.services.Users.GetByLogin(p.Context, stringArg(p.Args, "login"))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return user, nil
}

func (s *Schema) resolveStories(p graphql.ResolveParams) (interface{}, error) {
	page, err := s.services.Stories.ListPublished(p.Context, intArg(p.Args, "limit", app.DefaultPageLimit), intArg(p.Args, "page", 1))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return page, nil
}

func (s *Schema) resolveStoriesByPublisher(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.viewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	page, err := s.services.Stories.ListByPublisher(p.Context, viewer, stringArg(p.Args, "login"),
		intArg(p.Args, "limit", app.DefaultPageLimit), intArg(p.Args, "page", 1))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return page, nil
}

func (s *Schema) resolveStory(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.viewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	story, err := s.services.Stories.Get(p.Context, viewer, stringArg(p.Args, "idOrSlug"))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return story, nil
}

func (s *Schema) resolveChapter(p graphql.ResolveParams) (interface{}, error) {
	id, err := idArg(p.Args, "id")
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	chapter, err := s.services.Chapters.Get(p.Context, viewer, id)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return chapter, nil
}

func (s *Schema) resolveTags(p graphql.ResolveParams) (interface{}, error) {
	page, err := s.services.Tags.List(p.Context, intArg(p.Args, "limit", app.DefaultPageLimit), intArg(p.Args, "page", 1))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return page, nil
}

func (s *Schema) resolveTag(p graphql.ResolveParams) (interface{}, error) {
	tag, err := s.services.Tags.GetBySlug(p.Context, stringArg(p.Args, "slug"))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return tag, nil
}
