package ingest

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoReadableText    = errors.New("no readable text found in document")
	ErrEmptyChunks       = errors.New("document produced no text chunks")
)
