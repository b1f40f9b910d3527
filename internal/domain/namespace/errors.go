package namespace

import "errors"

var (
	// ErrNamespaceNotFound indicates the namespace doesn't exist.
	ErrNamespaceNotFound = errors.New("namespace not found")
	// ErrNamespaceExists indicates the name is taken.
	ErrNamespaceExists = errors.New("namespace already exists")
	// ErrInvalidInput indicates invalid namespace input.
	ErrInvalidInput = errors.New("invalid namespace input")
)
