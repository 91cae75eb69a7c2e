// Package storage provides SQLite-based persistent storage for vselect.
// It remembers the last option chosen in each named list so the list can open
// scrolled to it next time.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no selection has been recorded for a list.
var ErrNotFound = errors.New("storage: not found")

// Store defines the interface for all storage operations.
type Store interface {
	// RememberSelection records key as the latest choice in listID.
	RememberSelection(ctx context.Context, listID, key string) error
	// LastSelection returns the latest choice in listID, or ErrNotFound.
	LastSelection(ctx context.Context, listID string) (string, error)
	// GetSelection returns the full record for listID, or ErrNotFound.
	GetSelection(ctx context.Context, listID string) (*Selection, error)
	// ForgetSelection removes the record for listID. Missing records are not
	// an error.
	ForgetSelection(ctx context.Context, listID string) error

	// Lifecycle
	Close() error
}

// Selection is the remembered choice of one list.
type Selection struct {
	ListID         string
	Key            string
	ChosenAtUnixMs int64
	ChooseCount    int64
}
