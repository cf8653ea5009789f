package search

import "errors"

var errEmptyQuery = errors.New("empty search query")
