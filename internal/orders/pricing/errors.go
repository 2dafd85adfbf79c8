package pricing

import "errors"

// ErrUnknownKind is returned when parsing an unrecognised discount kind or tax type.
var ErrUnknownKind = errors.New("unknown pricing kind")
