package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/lingoprogress/internal/db"
	"github.com/vytor/lingoprogress/internal/hearts"
	"github.com/vytor/lingoprogress/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is configured with foreign keys enabled and a single
// connection, since every connection to ":memory:" is a separate database.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), sqlDB), "failed to apply migrations")
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// NewProfile returns a fresh profile with full hearts created at now.
func NewProfile(now time.Time) models.Profile {
	return models.Profile{
		UserID:       uuid.New(),
		Hearts:       hearts.MaxHearts,
		LastRefillAt: now,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTranslationExercise returns an exercise in lessonID expecting answer.
func NewTranslationExercise(lessonID uuid.UUID, answer string, xp, cost int) models.Exercise {
	return models.Exercise{
		ID:         uuid.New(),
		LessonID:   lessonID,
		Prompt:     "Translate: " + answer,
		XPReward:   xp,
		HeartsCost: cost,
		Payload:    models.Translation{Expected: answer},
	}
}
