// Package storage defines the persistence interface for lesson records.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/lessonforge/internal/config"
	"github.com/hyperjump/lessonforge/internal/models"
)

var (
	// ErrNotFound is returned when no lesson has the requested ID.
	ErrNotFound = errors.New("lesson not found")
	// ErrDuplicate is returned when a lesson ID is already taken. Records are written once.
	ErrDuplicate = errors.New("lesson already exists")
)

// LessonStore persists LessonRecords.
type LessonStore interface {
	// CreateLesson inserts rec, assigning ID and CreatedAt when they are zero.
	CreateLesson(ctx context.Context, rec *models.LessonRecord) error
	GetLesson(ctx context.Context, id string) (*models.LessonRecord, error)
	// ListLessons returns every lesson owned by owner, most recent first.
	ListLessons(ctx context.Context, owner string) ([]*models.LessonRecord, error)
	CountLessons(ctx context.Context) (int64, error)

	Close() error
}

// prepare fills generated fields and checks the record before insert.
func prepare(rec *models.LessonRecord) error {
	if rec == nil {
		return fmt.Errorf("lesson record is nil")
	}
	if strings.TrimSpace(rec.Owner) == "" {
		return fmt.Errorf("lesson owner cannot be empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return nil
}

// Open returns the LessonStore selected by cfg.Driver.
func Open(cfg config.StorageConfig) (LessonStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStorage(cfg.DatabasePath)
	case "postgres":
		return NewPostgresStorage(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
