package reldep

import "errors"

// ErrMalformed indicates a capability literal with an operator but no name
// or no version.
var ErrMalformed = errors.New("malformed capability literal")
