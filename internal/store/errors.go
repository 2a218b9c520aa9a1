package store

import "errors"

// ErrSchema reports a document that does not match its JSON Schema.
var ErrSchema = errors.New("schema validation failed")
