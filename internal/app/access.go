package app

import (
	"ponyfiction/internal/acl"
	"ponyfiction/internal/model"
)

func canStory(viewer *model.User, action acl.Action, story *model.Story) bool {
	if story == nil {
		return acl.CommonAbilities(viewer).Can(action, acl.SubjectStory, nil) &&
			acl.StoryAbilities(viewer).Can(action, acl.SubjectStory, nil)
	}
	return acl.CommonAbilities(viewer).CanResource(action, story) &&
		acl.StoryAbilities(viewer).CanResource(action, story)
}

// CanUpdateStory reports whether viewer may edit story or see it as a draft.
func CanUpdateStory(viewer *model.User, story *model.Story) bool {
	return canStory(viewer, acl.Update, story)
}

func canReadStory(viewer *model.User, story *model.Story) bool {
	if !canStory(viewer, acl.Read, story) {
		return false
	}
	return !story.IsDraft || CanUpdateStory(viewer, story)
}
