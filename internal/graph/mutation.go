package graph

import (
	"github.com/graphql-go/graphql"

	"ponyfiction/internal/app"
)

func (s *Schema) defineMutation(t *types, in *inputs) *graphql.Object {
	idArgument := func(name string) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			name: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		}
	}
	tokenArgument := graphql.FieldConfigArgument{
		"refreshToken": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"authSignUp": &graphql.Field{
				Type: graphql.NewNonNull(t.authTokens),
				Args: graphql.FieldConfigArgument{
					"user": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.user)},
				},
				Resolve: s.resolveSignUp,
			},
			"authLogIn": &graphql.Field{
				Type: graphql.NewNonNull(t.authTokens),
				Args: graphql.FieldConfigArgument{
					"credentials": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.auth)},
				},
				Resolve: s.resolveLogIn,
			},
			"authRefresh": &graphql.Field{
				Type:    graphql.NewNonNull(t.authTokens),
				Args:    tokenArgument,
				Resolve: s.resolveRefresh,
			},
			"authLogOut": &graphql.Field{
				Type:    graphql.String,
				Args:    tokenArgument,
				Resolve: s.resolveLogOut,
			},
			"storyAdd": &graphql.Field{
				Type:        graphql.NewNonNull(t.story),
				Description: "Creates a new story",
				Args: graphql.FieldConfigArgument{
					"story": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.storyAdd)},
				},
				Resolve: s.resolveStoryAdd,
			},
			"storyUpdate": &graphql.Field{
				Type:        graphql.NewNonNull(t.story),
				Description: "Updates story with given ID.",
				Args: graphql.FieldConfigArgument{
					"story": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.storyUpdate)},
				},
				Resolve: s.resolveStoryUpdate,
			},
			"storyRemove": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Args:    idArgument("storyId"),
				Resolve: s.resolveStoryRemove,
			},
			"storyCoverUpdate": &graphql.Field{
				Type:        graphql.NewNonNull(t.file),
				Description: "Updates story's cover.",
				Args: graphql.FieldConfigArgument{
					"story": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.fileNode)},
				},
				Resolve: s.resolveStoryCoverUpdate,
			},
			"storyCoverRemove": &graphql.Field{
				Type:        graphql.ID,
				Description: "Removes story's cover.",
				Args:        idArgument("storyId"),
				Resolve:     s.resolveStoryCoverRemove,
			},
			"storyCollaboratorAdd": &graphql.Field{
				Type: graphql.NewNonNull(t.story),
				Args: graphql.FieldConfigArgument{
					"storyId":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"collaborator": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.collaborator)},
				},
				Resolve: s.resolveStoryCollaboratorAdd,
			},
			"chapterAdd": &graphql.Field{
				Type: graphql.NewNonNull(t.chapter),
				Args: graphql.FieldConfigArgument{
					"storyId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"chapter": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.chapter)},
				},
				Resolve: s.resolveChapterAdd,
			},
			"chapterUpdate": &graphql.Field{
				Type: graphql.NewNonNull(t.chapter),
				Args: graphql.FieldConfigArgument{
					"chapter": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in.chapterUpdate)},
				},
				Resolve: s.resolveChapterUpdate,
			},
			"chapterRemove": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Args:    idArgument("chapterId"),
				Resolve: s.resolveChapterRemove,
			},
		},
	})
}

func (s *Schema) resolveSignUp(p graphql.ResolveParams) (interface{}, error) {
	user := mapArg(p.Args, "user")
	tokens, err := s.services.Auth.SignUp(p.Context, app.SignUpInput{
		Login:    stringArg(user, "login"),
		Email:    stringArg(user, "email"),
		Password: stringArg(user, "password"),
		Avatar:   uploadArg(user, "avatar"),
	}, clientFrom(p.Context))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return tokens, nil
}

func (s *Schema) resolveLogIn(p graphql.ResolveParams) (interface{}, error) {
	credentials := mapArg(p.Args, "credentials")
	tokens, err := s.services.Auth.LogIn(p.Context, app.LogInInput{
		Email:    stringArg(credentials, "email"),
		Password: stringArg(credentials, "password"),
	}, clientFrom(p.Context))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return tokens, nil
}

func (s *Schema) resolveRefresh(p graphql.ResolveParams) (interface{}, error) {
	tokens, err := s.services.Auth.Refresh(p.Context, stringArg(p.Args, "refreshToken"), clientFrom(p.Context))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return tokens, nil
}

func (s *Schema) resolveLogOut(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	token, err := s.services.Auth.LogOut(p.Context, viewer, stringArg(p.Args, "refreshToken"))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return token, nil
}

func (s *Schema) resolveStoryAdd(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}

	raw := mapArg(p.Args, "story")
	input := app.StoryAddInput{
		Title:       stringArg(raw, "title"),
		Description: stringArg(raw, "description"),
		IsDraft:     optBool(raw, "isDraft"),
		IsFinished:  optBool(raw, "isFinished"),
		Tags:        stringsArg(raw, "tags"),
	}
	for _, item := range listArg(raw, "chapters") {
		ch, _ := item.(map[string]interface{})
		input.Chapters = append(input.Chapters, app.ChapterInput{
			Title:   stringArg(ch, "title"),
			Content: stringArg(ch, "content"),
		})
	}
	for _, item := range listArg(raw, "collaborators") {
		c, _ := item.(map[string]interface{})
		userID, err := idArg(c, "userId")
		if err != nil {
			return nil, err
		}
		input.Collaborators = append(input.Collaborators, app.CollaboratorInput{
			UserID: userID,
			Role:   stringArg(c, "role"),
		})
	}

	story, err := s.services.Stories.Add(p.Context, viewer, input)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return story, nil
}

func (s *Schema) resolveStoryUpdate(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}

	raw := mapArg(p.Args, "story")
	id, err := idArg(raw, "id")
	if err != nil {
		return nil, err
	}
	_, tagsSet := raw["tags"]
	clearTags, _ := raw["clearTags"].(bool)
	if clearTags || explicitNull(p, "story", "tags") {
		tagsSet = true
		delete(raw, "tags")
	}
	story, err := s.services.Stories.Update(p.Context, viewer, app.StoryUpdateInput{
		ID:          id,
		Title:       optString(raw, "title"),
		Description: optString(raw, "description"),
		IsDraft:     optBool(raw, "isDraft"),
		IsFinished:  optBool(raw, "isFinished"),
		Tags:        stringsArg(raw, "tags"),
		TagsSet:     tagsSet,
	})
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return story, nil
}

func (s *Schema) resolveStoryRemove(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	id, err := idArg(p.Args, "storyId")
	if err != nil {
		return nil, err
	}
	removed, err := s.services.Stories.Remove(p.Context, viewer, id)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return removed, nil
}

func (s *Schema) resolveStoryCoverUpdate(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	raw := mapArg(p.Args, "story")
	id, err := idArg(raw, "id")
	if err != nil {
		return nil, err
	}
	cover, err := s.services.Stories.UpdateCover(p.Context, viewer, id, uploadArg(raw, "file"))
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return cover, nil
}

func (s *Schema) resolveStoryCoverRemove(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	id, err := idArg(p.Args, "storyId")
	if err != nil {
		return nil, err
	}
	removed, err := s.services.Stories.RemoveCover(p.Context, viewer, id)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	if removed == nil {
		return nil, nil
	}
	return *removed, nil
}

func (s *Schema) resolveStoryCollaboratorAdd(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	storyID, err := idArg(p.Args, "storyId")
	if err != nil {
		return nil, err
	}
	raw := mapArg(p.Args, "collaborator")
	userID, err := idArg(raw, "userId")
	if err != nil {
		return nil, err
	}
	story, err := s.services.Stories.AddCollaborator(p.Context, viewer, storyID, app.CollaboratorInput{
		UserID: userID,
		Role:   stringArg(raw, "role"),
	})
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	// Reload collaborators so the new one is listed.
	story.Collaborators = nil
	return story, nil
}

func (s *Schema) resolveChapterAdd(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	storyID, err := idArg(p.Args, "storyId")
	if err != nil {
		return nil, err
	}
	raw := mapArg(p.Args, "chapter")
	chapter, err := s.services.Chapters.Add(p.Context, viewer, storyID, app.ChapterInput{
		Title:   stringArg(raw, "title"),
		Content: stringArg(raw, "content"),
	})
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return chapter, nil
}

func (s *Schema) resolveChapterUpdate(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	raw := mapArg(p.Args, "chapter")
	id, err := idArg(raw, "id")
	if err != nil {
		return nil, err
	}
	chapter, err := s.services.Chapters.Update(p.Context, viewer, app.ChapterUpdateInput{
		ID:      id,
		Title:   optString(raw, "title"),
		Content: optString(raw, "content"),
	})
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return chapter, nil
}

func (s *Schema) resolveChapterRemove(p graphql.ResolveParams) (interface{}, error) {
	viewer, err := s.requireViewer(p.Context)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	id, err := idArg(p.Args, "chapterId")
	if err != nil {
		return nil, err
	}
	removed, err := s.services.Chapters.Remove(p.Context, viewer, id)
	if err != nil {
		return nil, s.toHTTPError(p.Info.FieldName, err)
	}
	return removed, nil
}
