package store

import "errors"

// ErrNotFound is returned when no file exists for the requested identifier.
var ErrNotFound = errors.New("store: not found")

// ErrInvalidID is returned when an identifier is empty or escapes the root.
var ErrInvalidID = errors.New("store: invalid identifier")

// Store is the persistence layer for original image bytes.
type Store interface {
	// ReadFile returns the stored bytes for id, or ErrNotFound.
	ReadFile(id string) ([]byte, error)
	// WriteFile stores data under id, replacing any previous content.
	WriteFile(id string, data []byte) error
	// DeleteFile removes the stored file for id. Deleting an absent id
	// returns ErrNotFound.
	DeleteFile(id string) error
	// Exists reports whether a file is stored under id.
	Exists(id string) bool
	// List returns the identifiers of every stored file, sorted.
	List() ([]string, error)
}
