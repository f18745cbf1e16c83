package domain

import "errors"

// Error kinds. Every error returned by the core wraps exactly one of these so
// the transport layer can map it without knowing the specific cause.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("access forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrArticleNotFound = kindError(ErrNotFound, "article not found")
	ErrUserNotFound    = kindError(ErrNotFound, "user not found")
	ErrReviewNotFound  = kindError(ErrNotFound, "review not found")

	ErrWriterCannotPublish   = kindError(ErrForbidden, "writers cannot publish articles")
	ErrNotArticleOwner       = kindError(ErrForbidden, "you can only edit your own articles")
	ErrArticlePublished      = kindError(ErrForbidden, "cannot edit published articles")
	ErrAdminOnly             = kindError(ErrForbidden, "admin access required")
	ErrOwnRoleChange         = kindError(ErrForbidden, "cannot change your own role")
	ErrOwnAccountDeletion    = kindError(ErrForbidden, "cannot delete your own account")
	ErrNotReviewOwner        = kindError(ErrForbidden, "you can only modify your own reviews")
	ErrAdminSelfRegistration = kindError(ErrForbidden, "admin accounts cannot be self-registered")

	ErrUserExists     = kindError(ErrConflict, "username or email already exists")
	ErrReviewExists   = kindError(ErrConflict, "you have already reviewed this article")
	ErrArticleChanged = kindError(ErrConflict, "article was modified by another request, retry")

	ErrInvalidCredentials = kindError(ErrUnauthorized, "invalid credentials")
)

type wrappedKind struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &wrappedKind{kind: kind, msg: msg}
}

func (e *wrappedKind) Error() string { return e.msg }
func (e *wrappedKind) Unwrap() error { return e.kind }

// ValidationError reports a single field constraint violation.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
