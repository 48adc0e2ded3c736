package metrics

import "errors"

// ErrInvalidService is returned for an unknown service type filter.
var ErrInvalidService = errors.New("unknown service type")
