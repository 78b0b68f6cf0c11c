// Package content stores uploaded sources and rendered artifacts and maps them to public URLs.
package content

import (
	"context"
	"errors"

	"github.com/hyperjump/lessonforge/internal/models"
)

// ErrExists is returned by Put when the key is already taken. Stored files are write-once.
var ErrExists = errors.New("content already exists")

// Store is a write-once file store addressed by slash-separated keys.
type Store interface {
	// Put writes data under key and fails with ErrExists if key is taken.
	Put(ctx context.Context, key string, data []byte) (models.FileRef, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
