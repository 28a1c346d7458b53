package domain

import "errors"

// ErrLinkNotFound is returned when a short code does not exist in the store.
var ErrLinkNotFound = errors.New("link not found")
