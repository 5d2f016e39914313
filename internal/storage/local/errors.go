package local

import "github.com/callumalpass/study-program/internal/storage"

// ErrNotFound is returned when a record is not found
var ErrNotFound = storage.ErrNotFound
