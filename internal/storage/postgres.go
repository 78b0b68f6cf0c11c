package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/hyperjump/lessonforge/internal/models"
)

// lessonRow is the gorm model for the lessons table.
type lessonRow struct {
	Seq          int64     `gorm:"autoIncrement;uniqueIndex"`
	ID           string    `gorm:"primaryKey;type:text"`
	Owner        string    `gorm:"not null;index:idx_lessons_owner_created_at,priority:1"`
	Title        string    `gorm:"not null"`
	TeacherGuide string    `gorm:"column:teacher_guide"`
	StudentBook  string    `gorm:"column:student_book"`
	Scheme       string    `gorm:"column:scheme"`
	LessonPlan   string    `gorm:"not null"`
	LessonNotes  string    `gorm:"not null"`
	Assignment   string    `gorm:"not null"`
	DailyRecord  string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;index:idx_lessons_owner_created_at,priority:2"`
}

func (lessonRow) TableName() string { return "lessons" }

func rowFromRecord(rec *models.LessonRecord) *lessonRow {
	return &lessonRow{
		ID:           rec.ID,
		Owner:        rec.Owner,
		Title:        rec.Title,
		TeacherGuide: rec.Files.TeacherGuide,
		StudentBook:  rec.Files.StudentBook,
		Scheme:       rec.Files.Scheme,
		LessonPlan:   rec.Outputs.LessonPlan,
		LessonNotes:  rec.Outputs.LessonNotes,
		Assignment:   rec.Outputs.Assignment,
		DailyRecord:  rec.Outputs.DailyRecord,
		CreatedAt:    rec.CreatedAt,
	}
}

func (r *lessonRow) record() *models.LessonRecord {
	return &models.LessonRecord{
		ID:    r.ID,
		Owner: r.Owner,
		Title: r.Title,
		Files: models.SourceFiles{
			TeacherGuide: r.TeacherGuide,
			StudentBook:  r.StudentBook,
			Scheme:       r.Scheme,
		},
		Outputs: models.Outputs{
			LessonPlan:  r.LessonPlan,
			LessonNotes: r.LessonNotes,
			Assignment:  r.Assignment,
			DailyRecord: r.DailyRecord,
		},
		CreatedAt: r.CreatedAt.UTC(),
	}
}

// PostgresStorage implements LessonStore on PostgreSQL through gorm.
type PostgresStorage struct {
	db *gorm.DB
}

// NewPostgresStorage connects to dsn and creates the lessons table if it is missing.
func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&lessonRow{}); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

// CreateLesson inserts a lesson record.
func (s *PostgresStorage) CreateLesson(ctx context.Context, rec *models.LessonRecord) error {
	if err := prepare(rec); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Omit("Seq").Create(rowFromRecord(rec)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.ID)
	}
	return err
}

// GetLesson returns a lesson by ID.
func (s *PostgresStorage) GetLesson(ctx context.Context, id string) (*models.LessonRecord, error) {
	var row lessonRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.record(), nil
}

// ListLessons returns the owner's lessons, newest first.
func (s *PostgresStorage) ListLessons(ctx context.Context, owner string) ([]*models.LessonRecord, error) {
	var rows []lessonRow
	err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC").Order("seq DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	lessons := make([]*models.LessonRecord, 0, len(rows))
	for i := range rows {
		lessons = append(lessons, rows[i].record())
	}
	return lessons, nil
}

// CountLessons returns the total number of lessons.
func (s *PostgresStorage) CountLessons(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&lessonRow{}).Count(&n).Error
	return n, err
}

// Close closes the underlying connection pool.
func (s *PostgresStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
