package registry

import "errors"

// Referential and conflict errors surfaced by the registry API, per the
// error taxonomy: referential errors are distinct from validation errors
// (ids.ErrInvalidName, ids.ErrInvalidColor) and from conflict errors, which
// are themselves distinct from plain I/O "already exists" errors.
var (
	ErrTagNotFound          = errors.New("registry: tag not found")
	ErrFileNotFound         = errors.New("registry: file not found")
	ErrValueNotFound        = errors.New("registry: value not found")
	ErrImplicationWouldLoop = errors.New("registry: implication would create a loop")
	ErrTagExists            = errors.New("registry: tag already exists")
	ErrValueExists          = errors.New("registry: value already exists")
)
