package hasher

import "errors"

// ErrCanonicalEncoding is returned when a row contains a value that has no
// canonical representation.
var ErrCanonicalEncoding = errors.New("row cannot be canonically encoded")
