package subject

import "errors"

// ErrNoMatch is returned by Split when the identifier is not a full NEVRA.
var ErrNoMatch = errors.New("no form matches")
