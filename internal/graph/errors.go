package graph

import (
	"errors"

	"ponyfiction/internal/app"
	"ponyfiction/internal/pkg/httperr"
	"ponyfiction/internal/pkg/jwtutil"
)

// Operations that report a missing story as a bad request instead of 404.
var missingStoryIsBadRequest = map[string]bool{
	"storyUpdate":          true,
	"storyRemove":          true,
	"storyCollaboratorAdd": true,
	"chapterAdd":           true,
}

// toHTTPError maps service errors to errors that carry an HTTP status.
// Unknown errors are logged and hidden behind a generic message.
func (s *Schema) toHTTPError(op string, err error) error {
	if err == nil {
		return nil
	}
	if httpErr, ok := httperr.As(err); ok {
		return httpErr
	}

	msg := err.Error()
	switch {
	case errors.Is(err, app.ErrUnauthenticated),
		errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrInvalidRefreshToken),
		errors.Is(err, jwtutil.ErrInvalidToken):
		return httperr.Unauthorized(msg)

	case errors.Is(err, app.ErrForbidden),
		errors.Is(err, app.ErrUserBanned):
		return httperr.Forbidden(msg)

	case errors.Is(err, app.ErrStoryNotFound):
		if missingStoryIsBadRequest[op] {
			return httperr.BadRequest(msg)
		}
		return httperr.NotFound(msg)

	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrChapterNotFound),
		errors.Is(err, app.ErrTagNotFound):
		return httperr.NotFound(msg)

	case errors.Is(err, app.ErrLoginExists),
		errors.Is(err, app.ErrEmailExists),
		errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, app.ErrCollaboratorIsAuthor),
		errors.Is(err, app.ErrUnknownCollaborator),
		errors.Is(err, app.ErrFileTooLarge),
		errors.Is(err, app.ErrInvalidUpload):
		return httperr.BadRequest(msg)
	}

	s.logger.Error().Err(err).Str("field", op).Msg("resolver failed")
	return httperr.Internal()
}
