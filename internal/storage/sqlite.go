package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/lessonforge/internal/models"
)

// SQLiteStorage implements LessonStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS lessons (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		title TEXT NOT NULL,
		teacher_guide TEXT,
		student_book TEXT,
		scheme TEXT,
		lesson_plan TEXT NOT NULL,
		lesson_notes TEXT NOT NULL,
		assignment TEXT NOT NULL,
		daily_record TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lessons_owner_created_at ON lessons(owner, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const lessonColumns = `id, owner, title, teacher_guide, student_book, scheme,
	lesson_plan, lesson_notes, assignment, daily_record, created_at`

// CreateLesson inserts a lesson record.
func (s *SQLiteStorage) CreateLesson(ctx context.Context, rec *models.LessonRecord) error {
	if err := prepare(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (`+lessonColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Owner, rec.Title,
		rec.Files.TeacherGuide, rec.Files.StudentBook, rec.Files.Scheme,
		rec.Outputs.LessonPlan, rec.Outputs.LessonNotes, rec.Outputs.Assignment, rec.Outputs.DailyRecord,
		rec.CreatedAt,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.ID)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(row scanner) (*models.LessonRecord, error) {
	var (
		rec                 models.LessonRecord
		guide, book, scheme sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.Owner, &rec.Title, &guide, &book, &scheme,
		&rec.Outputs.LessonPlan, &rec.Outputs.LessonNotes, &rec.Outputs.Assignment, &rec.Outputs.DailyRecord,
		&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Files = models.SourceFiles{TeacherGuide: guide.String, StudentBook: book.String, Scheme: scheme.String}
	return &rec, nil
}

// GetLesson returns a lesson by ID.
func (s *SQLiteStorage) GetLesson(ctx context.Context, id string) (*models.LessonRecord, error) {
	rec, err := scanLesson(s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// ListLessons returns the owner's lessons, newest first. Ties on created_at
// fall back to insertion order.
func (s *SQLiteStorage) ListLessons(ctx context.Context, owner string) ([]*models.LessonRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE owner = ?
		 ORDER BY created_at DESC, rowid DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []*models.LessonRecord{}
	for rows.Next() {
		rec, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, rec)
	}
	return lessons, rows.Err()
}

// CountLessons returns the total number of lessons.
func (s *SQLiteStorage) CountLessons(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
