package resolver

import "errors"

// ErrNoCatalog is returned when a resolver is used without a catalog.
var ErrNoCatalog = errors.New("no catalog configured")
