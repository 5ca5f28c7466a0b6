package app

import (
	"context"

	"github.com/rs/zerolog"

	"ponyfiction/internal/storage"
)

// CleanupPublisher queues a storage object for asynchronous removal.
type CleanupPublisher interface {
	PublishFileCleanup(ctx context.Context, path string) error
}

// FileRemover schedules removal of stale objects, falling back to deleting
// them inline when no queue is available.
type FileRemover struct {
	publisher CleanupPublisher
	storage   storage.Storage
	logger    zerolog.Logger
}

func NewFileRemover(publisher CleanupPublisher, store storage.Storage, logger zerolog.Logger) *FileRemover {
	return &FileRemover{publisher: publisher, storage: store, logger: logger}
}

func (r *FileRemover) Remove(ctx context.Context, paths ...string) {
	if r == nil {
		return
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if r.publisher != nil {
			err := r.publisher.PublishFileCleanup(ctx, path)
			if err == nil {
				continue
			}
			r.logger.Warn().Err(err).Str("path", path).Msg("queue file cleanup failed, deleting inline")
		}
		if err := r.storage.Delete(ctx, path); err != nil {
			r.logger.Error().Err(err).Str("path", path).Msg("delete stale file failed")
		}
	}
}
