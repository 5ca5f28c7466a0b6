package app

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/filehash"
	"ponyfiction/internal/repository"
	"ponyfiction/internal/storage"
)

// Upload is a file received with a GraphQL multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileService writes uploads to storage and keeps File rows in sync.
type FileService struct {
	files   repository.Files
	storage storage.Storage
	maxSize int64
}

func NewFileService(files repository.Files, store storage.Storage, maxSize int64) *FileService {
	return &FileService{files: files, storage: store, maxSize: maxSize}
}

// URL returns the public address of file.
func (s *FileService) URL(ctx context.Context, file *model.File) (string, error) {
	return s.storage.URL(ctx, file.Path)
}

func (s *FileService) GetByID(ctx context.Context, id uint) (*model.File, error) {
	return s.files.GetByID(ctx, id)
}

// Replace stores upload under dir. When existing is non-nil its row is
// updated in place, otherwise a new row is created. stale is the key of an
// object that is no longer referenced and should be removed after commit.
func (s *FileService) Replace(ctx context.Context, existing *model.File, dir string, upload *Upload) (file *model.File, stale string, err error) {
	written, err := s.write(ctx, dir, upload)
	if err != nil {
		return nil, "", err
	}

	if existing != nil {
		if existing.Path != written.Path {
			stale = existing.Path
		}
		existing.Name = written.Name
		existing.Path = written.Path
		existing.Mime = written.Mime
		existing.Hash = written.Hash
		existing.Size = written.Size
		file = existing
		err = s.files.Save(ctx, file)
	} else {
		file = written
		err = s.files.Create(ctx, file)
	}
	if err != nil {
		if existing == nil || stale != "" {
			if delErr := s.storage.Delete(ctx, written.Path); delErr != nil {
				return nil, "", fmt.Errorf("save file failed: %v; rollback delete failed: %w", err, delErr)
			}
		}
		return nil, "", err
	}
	return file, stale, nil
}

// Remove deletes the row and returns the key to clean up.
func (s *FileService) Remove(ctx context.Context, file *model.File) (string, error) {
	if err := s.files.Delete(ctx, file.ID); err != nil {
		return "", err
	}
	return file.Path, nil
}

// Discard deletes an object written by a transaction that was rolled back.
func (s *FileService) Discard(ctx context.Context, key string) {
	_ = s.storage.Delete(ctx, key)
}

func (s *FileService) write(ctx context.Context, dir string, upload *Upload) (*model.File, error) {
	if upload == nil || upload.Open == nil {
		return nil, ErrInvalidUpload
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	rc, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	name := SanitizeFilename(upload.Filename)
	key := path.Join(dir, name)
	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			contentType = byExt
		}
	}

	var src io.Reader = rc
	if s.maxSize > 0 {
		src = io.LimitReader(rc, s.maxSize+1)
	}
	hr, err := filehash.NewReader(filehash.SHA512, src)
	if err != nil {
		return nil, err
	}

	size := upload.Size
	if size <= 0 {
		size = -1
	}
	if _, err := s.storage.Put(ctx, key, hr, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": upload.Filename},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	if s.maxSize > 0 && hr.Size() > s.maxSize {
		_ = s.storage.Delete(ctx, key)
		return nil, ErrFileTooLarge
	}

	return &model.File{
		Name: upload.Filename,
		Path: key,
		Mime: contentType,
		Hash: hr.Sum(),
		Size: hr.Size(),
	}, nil
}

// SanitizeFilename keeps the base name and replaces characters that are
// awkward in object keys.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return "file"
	}
	return name
}
