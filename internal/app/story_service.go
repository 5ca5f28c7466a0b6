package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"ponyfiction/internal/acl"
	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/httperr"
	"ponyfiction/internal/pkg/slug"
	"ponyfiction/internal/pkg/validation"
	"ponyfiction/internal/repository"
)

// StoryCacher is the read-through cache of published stories.
type StoryCacher interface {
	Get(ctx context.Context, storyID uint) (*model.Story, bool, error)
	Set(ctx context.Context, story *model.Story) error
	Delete(ctx context.Context, storyID uint) error
}

type StoryRepos struct {
	Stories       repository.Stories
	Chapters      repository.Chapters
	Tags          repository.Tags
	Collaborators repository.Collaborators
	Users         repository.Users
}

type StoryService struct {
	tx      repository.Transactor
	repos   StoryRepos
	files   *FileService
	remover *FileRemover
	cache   StoryCacher
	logger  zerolog.Logger
}

func NewStoryService(
	tx repository.Transactor,
	repos StoryRepos,
	files *FileService,
	remover *FileRemover,
	cache StoryCacher,
	logger zerolog.Logger,
) *StoryService {
	return &StoryService{
		tx:      tx,
		repos:   repos,
		files:   files,
		remover: remover,
		cache:   cache,
		logger:  logger,
	}
}

type ChapterInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"max=500000"`
}

type CollaboratorInput struct {
	UserID uint   `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

type StoryAddInput struct {
	Title         string              `json:"title" validate:"required,max=255"`
	Description   string              `json:"description" validate:"required,max=10000"`
	IsDraft       *bool               `json:"isDraft"`
	IsFinished    *bool               `json:"isFinished"`
	Tags          []string            `json:"tags" validate:"max=32,dive,max=128"`
	Chapters      []ChapterInput      `json:"chapters" validate:"dive"`
	Collaborators []CollaboratorInput `json:"collaborators" validate:"dive"`
}

// StoryUpdateInput carries only the fields present in the request. Tags is
// applied when TagsSet is true; an empty list removes every tag.
type StoryUpdateInput struct {
	ID          uint     `json:"id" validate:"required"`
	Title       *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=10000"`
	IsDraft     *bool    `json:"isDraft"`
	IsFinished  *bool    `json:"isFinished"`
	Tags        []string `json:"tags" validate:"max=32,dive,max=128"`
	TagsSet     bool     `json:"-"`
}

func (in StoryUpdateInput) changes() map[string]interface{} {
	out := map[string]interface{}{}
	if in.Title != nil {
		out["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		out["description"] = *in.Description
	}
	if in.IsDraft != nil {
		out["isDraft"] = *in.IsDraft
	}
	if in.IsFinished != nil {
		out["isFinished"] = *in.IsFinished
	}
	if in.TagsSet {
		out["tags"] = in.Tags
	}
	return out
}

type StoryPage struct {
	List []model.Story
	PageInfo
}

func (s *StoryService) Add(ctx context.Context, viewer *model.User, input StoryAddInput) (*model.Story, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !canStory(viewer, acl.Create, nil) {
		return nil, ErrForbidden
	}

	roles, err := parseCollaborators(input.Collaborators)
	if err != nil {
		return nil, err
	}

	sl, err := slug.New(input.Title)
	if err != nil {
		return nil, err
	}

	isDraft := len(input.Chapters) == 0
	if input.IsDraft != nil {
		isDraft = *input.IsDraft
	}
	story := &model.Story{
		Title:         input.Title,
		Description:   input.Description,
		SlugShort:     sl.Short,
		SlugFull:      sl.Full,
		IsDraft:       isDraft,
		IsFinished:    input.IsFinished != nil && *input.IsFinished,
		ChaptersCount: len(input.Chapters),
		PublisherID:   viewer.ID,
	}
	for i, ch := range input.Chapters {
		story.Chapters = append(story.Chapters, model.Chapter{
			Number:  i + 1,
			Title:   strings.TrimSpace(ch.Title),
			Content: ch.Content,
		})
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Stories.Create(ctx, story); err != nil {
			return err
		}
		if err := s.replaceTags(ctx, story, input.Tags, true); err != nil {
			return err
		}
		for i, c := range input.Collaborators {
			if c.UserID == viewer.ID {
				return ErrCollaboratorIsAuthor
			}
			user, err := s.repos.Users.GetByID(ctx, c.UserID)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("collaborator %d: %w", c.UserID, ErrUserNotFound)
			}
			collaborator := &model.StoryCollaborator{StoryID: story.ID, UserID: user.ID, User: user, Role: roles[i]}
			if err := s.repos.Collaborators.Add(ctx, collaborator); err != nil {
				return err
			}
			story.Collaborators = append(story.Collaborators, *collaborator)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	story.Publisher = viewer
	return story, nil
}

// Get finds a story by numeric id or by short or full slug. Drafts are only
// visible to viewers allowed to edit them.
func (s *StoryService) Get(ctx context.Context, viewer *model.User, idOrSlug string) (*model.Story, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, ErrStoryNotFound
	}

	id, convErr := strconv.ParseUint(idOrSlug, 10, 64)
	isID := convErr == nil && id > 0

	if isID && s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, uint(id))
		if err != nil {
			s.logger.Warn().Err(err).Uint64("story_id", id).Msg("story cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	var story *model.Story
	var err error
	if isID {
		story, err = s.repos.Stories.GetByID(ctx, uint(id))
	} else {
		story, err = s.repos.Stories.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if story == nil || !canReadStory(viewer, story) {
		return nil, ErrStoryNotFound
	}

	if isID && s.cache != nil && !story.IsDraft {
		if err := s.cache.Set(ctx, story); err != nil {
			s.logger.Warn().Err(err).Uint("story_id", story.ID).Msg("story cache write failed")
		}
	}
	return story, nil
}

func (s *StoryService) ListPublished(ctx context.Context, limit, page int) (*StoryPage, error) {
	info := NewPageInfo(limit, page)
	list, count, err := s.repos.Stories.ListPublished(ctx, info.query())
	if err != nil {
		return nil, err
	}
	return &StoryPage{List: list, PageInfo: info.withCount(count)}, nil
}

// ListByPublisher lists the stories of login. Publishers also see their drafts.
func (s *StoryService) ListByPublisher(ctx context.Context, viewer *model.User, login string, limit, page int) (*StoryPage, error) {
	publisher, err := s.repos.Users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		return nil, ErrUserNotFound
	}

	info := NewPageInfo(limit, page)
	withDrafts := viewer != nil && viewer.ID == publisher.ID
	list, count, err := s.repos.Stories.ListByPublisher(ctx, publisher.ID, withDrafts, info.query())
	if err != nil {
		return nil, err
	}
	return &StoryPage{List: list, PageInfo: info.withCount(count)}, nil
}

// Update applies the permitted subset of input to the story.
func (s *StoryService) Update(ctx context.Context, viewer *model.User, input StoryUpdateInput) (*model.Story, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var story *model.Story
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		story, err = s.repos.Stories.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrStoryNotFound
		}
		if !canStory(viewer, acl.Update, story) {
			return ErrForbidden
		}

		permitted := acl.StoryAbilities(viewer).PermittedFields(acl.Update, story)
		changes := acl.FilterFields(input.changes(), permitted)

		fields := map[string]interface{}{}
		updated := *story
		if v, ok := changes["title"].(string); ok {
			if v == "" {
				return httperr.BadRequest("Validation failed", httperr.FieldError{Field: "title", Error: "is required"})
			}
			updated.Title = v
			updated.SlugFull = slug.Join(v, story.SlugShort)
			fields["title"] = updated.Title
			fields["slug_full"] = updated.SlugFull
		}
		if v, ok := changes["description"].(string); ok {
			updated.Description = v
			fields["description"] = v
		}
		if v, ok := changes["isDraft"].(bool); ok {
			updated.IsDraft = v
			fields["is_draft"] = v
		}
		if v, ok := changes["isFinished"].(bool); ok {
			updated.IsFinished = v
			fields["is_finished"] = v
		}
		if err := s.repos.Stories.Update(ctx, story, fields); err != nil {
			return err
		}
		story = &updated

		if names, ok := changes["tags"]; ok {
			tagNames, _ := names.([]string)
			if err := s.replaceTags(ctx, story, tagNames, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, story.ID)
	return story, nil
}

// replaceTags sets the story tags to names, creating unknown tags. A new
// story without names skips the association write.
func (s *StoryService) replaceTags(ctx context.Context, story *model.Story, names []string, created bool) error {
	tags := []model.Tag{}
	if len(repository.NormalizeTagNames(names)) > 0 {
		var err error
		if tags, err = s.repos.Tags.FindOrCreateMany(ctx, names); err != nil {
			return err
		}
	} else if created {
		story.Tags = tags
		return nil
	}
	return s.repos.Stories.ReplaceTags(ctx, story, tags)
}

// Remove soft deletes the story and returns its id.
func (s *StoryService) Remove(ctx context.Context, viewer *model.User, storyID uint) (uint, error) {
	if viewer == nil {
		return 0, ErrUnauthenticated
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		story, err := s.repos.Stories.GetByID(ctx, storyID)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrStoryNotFound
		}
		if !canStory(viewer, acl.Delete, story) {
			return ErrForbidden
		}
		return s.repos.Stories.Delete(ctx, story.ID)
	})
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, storyID)
	return storyID, nil
}

// UpdateCover stores upload as the story cover, replacing the previous one.
func (s *StoryService) UpdateCover(ctx context.Context, viewer *model.User, storyID uint, upload *Upload) (*model.File, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	if upload == nil {
		return nil, ErrInvalidUpload
	}

	var cover *model.File
	var stale string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		story, err := s.repos.Stories.GetByID(ctx, storyID)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrStoryNotFound
		}
		if !canStory(viewer, acl.Update, story) {
			return ErrForbidden
		}

		existing := story.Cover
		if existing == nil && story.CoverID != nil {
			if existing, err = s.files.GetByID(ctx, *story.CoverID); err != nil {
				return err
			}
		}

		cover, stale, err = s.files.Replace(ctx, existing, fmt.Sprintf("story/%d/cover", story.ID), upload)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := s.repos.Stories.SetCover(ctx, story.ID, &cover.ID); err != nil {
				s.files.Discard(ctx, cover.Path)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.remover.Remove(ctx, stale)
	s.invalidate(ctx, storyID)
	return cover, nil
}

// RemoveCover deletes the cover and returns its id, or nil if the story had none.
func (s *StoryService) RemoveCover(ctx context.Context, viewer *model.User, storyID uint) (*uint, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}

	var removedID *uint
	var stale string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		story, err := s.repos.Stories.GetByID(ctx, storyID)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrStoryNotFound
		}
		if !canStory(viewer, acl.Update, story) {
			return ErrForbidden
		}

		cover := story.Cover
		if cover == nil && story.CoverID != nil {
			if cover, err = s.files.GetByID(ctx, *story.CoverID); err != nil {
				return err
			}
		}
		if cover == nil {
			return nil
		}

		if err := s.repos.Stories.SetCover(ctx, story.ID, nil); err != nil {
			return err
		}
		if stale, err = s.files.Remove(ctx, cover); err != nil {
			return err
		}
		id := cover.ID
		removedID = &id
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removedID != nil {
		s.remover.Remove(ctx, stale)
		s.invalidate(ctx, storyID)
	}
	return removedID, nil
}

// AddCollaborator lets the publisher invite another user.
func (s *StoryService) AddCollaborator(ctx context.Context, viewer *model.User, storyID uint, input CollaboratorInput) (*model.Story, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	roles, err := parseCollaborators([]CollaboratorInput{input})
	if err != nil {
		return nil, err
	}

	var story *model.Story
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		story, err = s.repos.Stories.GetByID(ctx, storyID)
		if err != nil {
			return err
		}
		if story == nil {
			return ErrStoryNotFound
		}
		if story.PublisherID != viewer.ID || !canStory(viewer, acl.Update, story) {
			return ErrForbidden
		}
		if input.UserID == viewer.ID {
			return ErrCollaboratorIsAuthor
		}
		user, err := s.repos.Users.GetByID(ctx, input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		return s.repos.Collaborators.Add(ctx, &model.StoryCollaborator{
			StoryID: story.ID,
			UserID:  user.ID,
			Role:    roles[0],
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, storyID)
	return story, nil
}

func (s *StoryService) Publisher(ctx context.Context, story *model.Story) (*model.User, error) {
	if story.Publisher != nil {
		return story.Publisher, nil
	}
	return s.repos.Users.GetByID(ctx, story.PublisherID)
}

// Tags never returns nil.
func (s *StoryService) Tags(ctx context.Context, story *model.Story) ([]model.Tag, error) {
	if story.Tags != nil {
		return story.Tags, nil
	}
	tags, err := s.repos.Tags.ListByStory(ctx, story.ID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	return tags, nil
}

func (s *StoryService) Cover(ctx context.Context, story *model.Story) (*model.File, error) {
	if story.Cover != nil {
		return story.Cover, nil
	}
	if story.CoverID == nil {
		return nil, nil
	}
	return s.files.GetByID(ctx, *story.CoverID)
}

func (s *StoryService) Chapters(ctx context.Context, story *model.Story) ([]model.Chapter, error) {
	if story.Chapters != nil {
		return story.Chapters, nil
	}
	return s.repos.Chapters.ListByStory(ctx, story.ID)
}

func (s *StoryService) Collaborators(ctx context.Context, story *model.Story) ([]model.StoryCollaborator, error) {
	if story.Collaborators != nil {
		return story.Collaborators, nil
	}
	return s.repos.Collaborators.ListByStory(ctx, story.ID)
}

func (s *StoryService) invalidate(ctx context.Context, storyID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, storyID); err != nil {
		s.logger.Warn().Err(err).Uint("story_id", storyID).Msg("story cache invalidation failed")
	}
}

func parseCollaborators(inputs []CollaboratorInput) ([]model.CollaboratorRole, error) {
	roles := make([]model.CollaboratorRole, len(inputs))
	for i, in := range inputs {
		role, ok := model.ParseCollaboratorRole(in.Role)
		if !ok {
			return nil, httperr.BadRequest(ErrUnknownCollaborator.Error(), httperr.FieldError{
				Field: fmt.Sprintf("collaborators[%d].role", i),
				Error: "must be one of: " + strings.Join(model.CollaboratorRoleNames(), " "),
			})
		}
		roles[i] = role
	}
	return roles, nil
}
