package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ponyfiction/internal/acl"
	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/validation"
	"ponyfiction/internal/repository"
)

type ChapterUpdateInput struct {
	ID      uint    `json:"id" validate:"required"`
	Title   *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content" validate:"omitempty,max=500000"`
}

// ChapterService manages chapters on behalf of the story they belong to.
type ChapterService struct {
	tx       repository.Transactor
	stories  repository.Stories
	chapters repository.Chapters
	cache    StoryCacher
	logger   zerolog.Logger
}

func NewChapterService(
	tx repository.Transactor,
	stories repository.Stories,
	chapters repository.Chapters,
	cache StoryCacher,
	logger zerolog.Logger,
) *ChapterService {
	return &ChapterService{tx: tx, stories: stories, chapters: chapters, cache: cache, logger: logger}
}

func (s *ChapterService) Get(ctx context.Context, viewer *model.User, id uint) (*model.Chapter, error) {
	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, ErrChapterNotFound
	}
	story, err := s.stories.GetByID(ctx, chapter.StoryID)
	if err != nil {
		return nil, err
	}
	if story == nil || !canReadStory(viewer, story) {
		return nil, ErrChapterNotFound
	}
	return chapter, nil
}

// Add appends a chapter to the end of the story.
func (s *ChapterService) Add(ctx context.Context, viewer *model.User, storyID uint, input ChapterInput) (*model.Chapter, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var chapter *model.Chapter
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		story, err := s.editableStory(ctx, viewer, storyID, true)
		if err != nil {
			return err
		}
		chapter = &model.Chapter{
			StoryID: story.ID,
			Number:  story.ChaptersCount + 1,
			Title:   input.Title,
			Content: input.Content,
		}
		if err := s.chapters.Create(ctx, chapter); err != nil {
			return err
		}
		return s.stories.AddChaptersCount(ctx, story.ID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, storyID)
	return chapter, nil
}

func (s *ChapterService) Update(ctx context.Context, viewer *model.User, input ChapterUpdateInput) (*model.Chapter, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var chapter *model.Chapter
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		chapter, err = s.chapters.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if chapter == nil {
			return ErrChapterNotFound
		}
		if _, err := s.editableStory(ctx, viewer, chapter.StoryID, false); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if input.Title != nil {
			chapter.Title = strings.TrimSpace(*input.Title)
			fields["title"] = chapter.Title
		}
		if input.Content != nil {
			chapter.Content = *input.Content
			fields["content"] = chapter.Content
		}
		return s.chapters.Update(ctx, chapter, fields)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, chapter.StoryID)
	return chapter, nil
}

// Remove deletes the chapter, closes the gap in numbering and returns its id.
func (s *ChapterService) Remove(ctx context.Context, viewer *model.User, chapterID uint) (uint, error) {
	if viewer == nil {
		return 0, ErrUnauthenticated
	}

	var storyID uint
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		chapter, err := s.chapters.GetByID(ctx, chapterID)
		if err != nil {
			return err
		}
		if chapter == nil {
			return ErrChapterNotFound
		}
		if _, err := s.editableStory(ctx, viewer, chapter.StoryID, true); err != nil {
			return err
		}
		storyID = chapter.StoryID

		if err := s.chapters.Delete(ctx, chapter.ID); err != nil {
			return err
		}
		if err := s.chapters.Renumber(ctx, chapter.StoryID, chapter.Number); err != nil {
			return err
		}
		return s.stories.AddChaptersCount(ctx, chapter.StoryID, -1)
	})
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, storyID)
	return chapterID, nil
}

// editableStory loads the story for a chapter change. lock takes a row lock
// so concurrent adds and removes see each other's chaptersCount.
func (s *ChapterService) editableStory(ctx context.Context, viewer *model.User, storyID uint, lock bool) (*model.Story, error) {
	get := s.stories.GetByID
	if lock {
		get = s.stories.GetByIDForUpdate
	}
	story, err := get(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}
	if !canStory(viewer, acl.Update, story) {
		return nil, ErrForbidden
	}
	return story, nil
}

func (s *ChapterService) invalidate(ctx context.Context, storyID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, storyID); err != nil {
		s.logger.Warn().Err(err).Uint("story_id", storyID).Msg("story cache invalidation failed")
	}
}
