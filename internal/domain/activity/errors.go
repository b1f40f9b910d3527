package activity

import "errors"

// ErrInvalidInput indicates an entry without a type or summary.
var ErrInvalidInput = errors.New("invalid activity input")
