package app

import (
	"context"
	"strings"

	"ponyfiction/internal/model"
	"ponyfiction/internal/repository"
)

type TagPage struct {
	List []model.Tag
	PageInfo
}

type TagService struct {
	tags repository.Tags
}

func NewTagService(tags repository.Tags) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) List(ctx context.Context, limit, page int) (*TagPage, error) {
	info := NewPageInfo(limit, page)
	list, count, err := s.tags.List(ctx, info.query())
	if err != nil {
		return nil, err
	}
	return &TagPage{List: list, PageInfo: info.withCount(count)}, nil
}

func (s *TagService) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	tag, err := s.tags.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, ErrTagNotFound
	}
	return tag, nil
}
