package app

import "ponyfiction/internal/repository"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PageInfo struct {
	Count   int64
	Page    int
	Limit   int
	Offset  int
	HasNext bool
}

// NewPageInfo clamps limit to 1..MaxPageLimit and page to at least 1.
func NewPageInfo(limit, page int) PageInfo {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func (p PageInfo) query() repository.Page {
	return repository.Page{Limit: p.Limit, Offset: p.Offset}
}

func (p PageInfo) withCount(count int64) PageInfo {
	p.Count = count
	p.HasNext = int64(p.Offset+p.Limit) < count
	return p
}
