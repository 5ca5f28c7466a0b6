package acl

import "ponyfiction/internal/model"

// StoryFieldsModerator are the only story fields a moderator may change.
var StoryFieldsModerator = []string{"title", "description"}

func ownStory(viewer *model.User) func(Resource) bool {
	return func(r Resource) bool {
		switch v := r.(type) {
		case *model.Story:
			return v.PublisherID == viewer.ID
		default:
			return false
		}
	}
}

// StoryAbilities describes what viewer may do with stories. A nil viewer is a guest.
func StoryAbilities(viewer *model.User) *Ability {
	b := NewBuilder().Can(Read, SubjectStory, nil, nil)
	if viewer == nil {
		return b.Build()
	}

	b.Can(Create, SubjectStory, nil, nil)
	b.Can(Manage, SubjectStory, nil, ownStory(viewer))

	switch {
	case viewer.Role >= model.RoleAdmin:
		b.Can(Manage, SubjectStory, nil, nil)
	case viewer.Role == model.RoleModerator:
		b.Can(Update, SubjectStory, StoryFieldsModerator, nil)
		b.Can(Delete, SubjectStory, StoryFieldsModerator, nil)
		// Moderators keep full access to their own stories.
		b.Can(Manage, SubjectStory, nil, ownStory(viewer))
	}
	return b.Build()
}

// CommonAbilities forbids writes for viewers that are not active.
func CommonAbilities(viewer *model.User) *Ability {
	b := NewBuilder().Can(Manage, SubjectAll, nil, nil)
	if viewer == nil || !viewer.IsActive() {
		b.Cannot(Create, SubjectAll, nil)
		b.Cannot(Update, SubjectAll, nil)
		b.Cannot(Delete, SubjectAll, nil)
	}
	return b.Build()
}

// FilterFields keeps only the permitted keys of input. An empty permitted
// list keeps everything.
func FilterFields(input map[string]interface{}, permitted []string) map[string]interface{} {
	if len(permitted) == 0 {
		return input
	}
	allowed := make(map[string]struct{}, len(permitted))
	for _, f := range permitted {
		allowed[f] = struct{}{}
	}
	out := make(map[string]interface{}, len(input))
	for k, v := range input {
		if _, ok := allowed[k]; ok {
			out[k] = v
		}
	}
	return out
}
