package graph

import "github.com/graphql-go/graphql"

type inputs struct {
	user          *graphql.InputObject
	auth          *graphql.InputObject
	chapter       *graphql.InputObject
	chapterUpdate *graphql.InputObject
	collaborator  *graphql.InputObject
	storyAdd      *graphql.InputObject
	storyUpdate   *graphql.InputObject
	fileNode      *graphql.InputObject
}

func field(t graphql.Input) *graphql.InputObjectFieldConfig {
	return &graphql.InputObjectFieldConfig{Type: t}
}

func required(t graphql.Input) *graphql.InputObjectFieldConfig {
	return &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(t)}
}

func defineInputs() *inputs {
	in := &inputs{}
	in.user = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"login":    required(graphql.String),
			"email":    required(graphql.String),
			"password": required(graphql.String),
			"avatar":   field(uploadScalar),
		},
	})
	in.auth = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "AuthInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    required(graphql.String),
			"password": required(graphql.String),
		},
	})
	in.chapter = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ChapterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":   required(graphql.String),
			"content": field(graphql.String),
		},
	})
	in.chapterUpdate = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ChapterUpdateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":      required(graphql.ID),
			"title":   field(graphql.String),
			"content": field(graphql.String),
		},
	})
	in.collaborator = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CollaboratorInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"userId": required(graphql.ID),
			"role":   required(graphql.String),
		},
	})
	in.storyAdd = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "StoryAddInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":         required(graphql.String),
			"description":   required(graphql.String),
			"isDraft":       field(graphql.Boolean),
			"isFinished":    field(graphql.Boolean),
			"tags":          field(graphql.NewList(graphql.NewNonNull(graphql.String))),
			"chapters":      field(graphql.NewList(graphql.NewNonNull(in.chapter))),
			"collaborators": field(graphql.NewList(graphql.NewNonNull(in.collaborator))),
		},
	})
	in.storyUpdate = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "StoryUpdateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":          required(graphql.ID),
			"title":       field(graphql.String),
			"description": field(graphql.String),
			"isDraft":     field(graphql.Boolean),
			"isFinished":  field(graphql.Boolean),
			"tags":        field(graphql.NewList(graphql.NewNonNull(graphql.String))),
			"clearTags": &graphql.InputObjectFieldConfig{
				Type:        graphql.Boolean,
				Description: "Removes all tags. Same as sending tags: null.",
			},
		},
	})
	in.fileNode = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "FileNodeInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":   required(graphql.ID),
			"file": required(uploadScalar),
		},
	})
	return in
}
