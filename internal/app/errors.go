package app

import "errors"

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("you are not allowed to perform this action")
	ErrInvalidCredentials   = errors.New("Can't authenticate user. Check your credentials and try again.")
	ErrUserBanned           = errors.New("user is banned")
	ErrLoginExists          = errors.New("login already exists")
	ErrEmailExists          = errors.New("email already exists")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrSessionNotFound      = errors.New("Can't find a user associated with given token.")
	ErrUserNotFound         = errors.New("user not found")
	ErrStoryNotFound        = errors.New("story not found")
	ErrChapterNotFound      = errors.New("chapter not found")
	ErrTagNotFound          = errors.New("tag not found")
	ErrUnknownCollaborator  = errors.New("unknown collaborator role")
	ErrFileTooLarge         = errors.New("file is too large")
	ErrInvalidUpload        = errors.New("invalid upload")
	ErrCollaboratorIsAuthor = errors.New("publisher can't be a collaborator of their own story")
)
