package sqlite

import "github.com/callumalpass/study-program/internal/publish"

// Ensure the SQLite catalog store can be used as a publication sink.
var _ publish.Sink = (*CatalogStore)(nil)
