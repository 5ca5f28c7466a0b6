package graph

import (
	"time"

	"github.com/graphql-go/graphql"

	"ponyfiction/internal/app"
	"ponyfiction/internal/model"
)

type dates struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type types struct {
	dates        *graphql.Object
	file         *graphql.Object
	user         *graphql.Object
	tag          *graphql.Object
	chapter      *graphql.Object
	collaborator *graphql.Object
	story        *graphql.Object
	storyPage    *graphql.Object
	tagPage      *graphql.Object
	authTokens   *graphql.Object
}

func nonNullList(t graphql.Type) graphql.Output {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

func (s *Schema) defineTypes() *types {
	t := &types{}
	t.dates = graphql.NewObject(graphql.ObjectConfig{
		Name: "Dates",
		Fields: graphql.Fields{
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})
	t.file = s.defineFileType(t.dates)
	t.user = s.defineUserType(t.dates, t.file)
	t.tag = graphql.NewObject(graphql.ObjectConfig{
		Name: "Tag",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"slug":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"dates":       datesField(t.dates, func(src interface{}) dates { v := asTag(src); return dates{v.CreatedAt, v.UpdatedAt} }),
		},
	})
	t.chapter = graphql.NewObject(graphql.ObjectConfig{
		Name: "Chapter",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"storyId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"number":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"content": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"dates":   datesField(t.dates, func(src interface{}) dates { v := asChapter(src); return dates{v.CreatedAt, v.UpdatedAt} }),
		},
	})
	t.collaborator = graphql.NewObject(graphql.ObjectConfig{
		Name: "Collaborator",
		Fields: graphql.Fields{
			"user": &graphql.Field{
				Type: graphql.NewNonNull(t.user),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c := asCollaborator(p.Source)
					if c.User != nil {
						return c.User, nil
					}
					user, err := s.services.Users.GetByID(p.Context, c.UserID)
					return user, s.toHTTPError(p.Info.FieldName, err)
				},
			},
			"role": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return asCollaborator(p.Source).Role.String(), nil
				},
			},
		},
	})
	t.story = s.defineStoryType(t)
	t.storyPage = pageType("StoryPage", t.story, func(src interface{}) (interface{}, app.PageInfo) {
		page := src.(*app.StoryPage)
		return ptrs(page.List), page.PageInfo
	})
	t.tagPage = pageType("TagPage", t.tag, func(src interface{}) (interface{}, app.PageInfo) {
		page := src.(*app.TagPage)
		return ptrs(page.List), page.PageInfo
	})
	t.authTokens = graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthTokens",
		Fields: graphql.Fields{
			"accessToken":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"refreshToken": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"expiresAt":    &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"user":         &graphql.Field{Type: graphql.NewNonNull(t.user)},
		},
	})
	return t
}

func (s *Schema) defineFileType(datesType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "File",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"mime": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"hash": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"size": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"url": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					url, err := s.services.Files.URL(p.Context, asFile(p.Source))
					return url, s.toHTTPError(p.Info.FieldName, err)
				},
			},
			"dates": datesField(datesType, func(src interface{}) dates { v := asFile(src); return dates{v.CreatedAt, v.UpdatedAt} }),
		},
	})
}

func (s *Schema) defineUserType(datesType, fileType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"login": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email": &graphql.Field{
				Type:        graphql.String,
				Description: "Visible to the user themself and to admins.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user := asUser(p.Source)
					viewer, err := s.viewer(p.Context)
					if err != nil {
						return nil, s.toHTTPError(p.Info.FieldName, err)
					}
					if !app.CanSeeEmail(viewer, user) {
						return nil, nil
					}
					return user.Email, nil
				},
			},
			"role": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return asUser(p.Source).Role.String(), nil
				},
			},
			"status": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return asUser(p.Source).Status.String(), nil
				},
			},
			"avatar": &graphql.Field{
				Type: fileType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user := asUser(p.Source)
					if user.Avatar != nil {
						return user.Avatar, nil
					}
					if user.AvatarID == nil {
						return nil, nil
					}
					file, err := s.services.Files.GetByID(p.Context, *user.AvatarID)
					return file, s.toHTTPError(p.Info.FieldName, err)
				},
			},
			"dates": datesField(datesType, func(src interface{}) dates { v := asUser(src); return dates{v.CreatedAt, v.UpdatedAt} }),
		},
	})
}

func (s *Schema) defineStoryType(t *types) *graphql.Object {
	stories := s.services.Stories
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Story",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"slugShort":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"slugFull":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"isDraft":       &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"isFinished":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"chaptersCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"publisher": &graphql.Field{
				Type: graphql.NewNonNull(t.user),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := stories.Publisher(p.Context, asStory(p.Source))
					return user, s.toHTTPError(p.Info.FieldName, err)
				},
			},
			"cover": &graphql.Field{
				Type: t.file,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					file, err := stories.Cover(p.Context, asStory(p.Source))
					if err != nil || file == nil {
						return nil, s.toHTTPError(p.Info.FieldName, err)
					}
					return file, nil
				},
			},
			"tags": &graphql.Field{
				Type: nonNullList(t.tag),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					tags, err := stories.Tags(p.Context, asStory(p.Source))
					if err != nil {
						return nil, s.toHTTPError(p.Info.FieldName, err)
					}
					return ptrs(tags), nil
				},
			},
			"chapters": &graphql.Field{
				Type: nonNullList(t.chapter),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					chapters, err := stories.Chapters(p.Context, asStory(p.Source))
					if err != nil {
						return nil, s.toHTTPError(p.Info.FieldName, err)
					}
					return ptrs(chapters), nil
				},
			},
			"collaborators": &graphql.Field{
				Type: nonNullList(t.collaborator),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					list, err := stories.Collaborators(p.Context, asStory(p.Source))
					if err != nil {
						return nil, s.toHTTPError(p.Info.FieldName, err)
					}
					return ptrs(list), nil
				},
			},
			"dates": datesField(t.dates, func(src interface{}) dates { v := asStory(src); return dates{v.CreatedAt, v.UpdatedAt} }),
		},
	})
}

func datesField(datesType *graphql.Object, get func(src interface{}) dates) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(datesType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return get(p.Source), nil
		},
	}
}

// pageType builds {list, count, page, limit, offset, hasNext}. PageInfo is
// embedded in the page structs, which the default resolver doesn't see
// through, so every field resolves explicitly.
func pageType(name string, item *graphql.Object, split func(src interface{}) (interface{}, app.PageInfo)) *graphql.Object {
	info := func(get func(app.PageInfo) interface{}) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			_, pi := split(p.Source)
			return get(pi), nil
		}
	}
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"list": &graphql.Field{
				Type: nonNullList(item),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					list, _ := split(p.Source)
					return list, nil
				},
			},
			"count":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: info(func(pi app.PageInfo) interface{} { return pi.Count })},
			"page":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: info(func(pi app.PageInfo) interface{} { return pi.Page })},
			"limit":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: info(func(pi app.PageInfo) interface{} { return pi.Limit })},
			"offset":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: info(func(pi app.PageInfo) interface{} { return pi.Offset })},
			"hasNext": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Resolve: info(func(pi app.PageInfo) interface{} { return pi.HasNext })},
		},
	})
}

func ptrs[T any](in []T) []*T {
	out := make([]*T, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func asStory(src interface{}) *model.Story {
	switch v := src.(type) {
	case *model.Story:
		return v
	case model.Story:
		return &v
	}
	return &model.Story{}
}

func asUser(src interface{}) *model.User {
	switch v := src.(type) {
	case *model.User:
		return v
	case model.User:
		return &v
	}
	return &model.User{}
}

func asFile(src interface{}) *model.File {
	switch v := src.(type) {
	case *model.File:
		return v
	case model.File:
		return &v
	}
	return &model.File{}
}

func asTag(src interface{}) *model.Tag {
	switch v := src.(type) {
	case *model.Tag:
		return v
	case model.Tag:
		return &v
	}
	return &model.Tag{}
}

func asChapter(src interface{}) *model.Chapter {
	switch v := src.(type) {
	case *model.Chapter:
		return v
	case model.Chapter:
		return &v
	}
	return &model.Chapter{}
}

func asCollaborator(src interface{}) *model.StoryCollaborator {
	switch v := src.(type) {
	case *model.StoryCollaborator:
		return v
	case model.StoryCollaborator:
		return &v
	}
	return &model.StoryCollaborator{}
}
