package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Helper functions shared across repository implementations

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func tx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("repo")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return mapBusy(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return mapBusy(err)
	}
	log.Debug("transaction committed")
	return nil
}

// updateProfile writes p when the stored version still equals p.Version.
func updateProfile(ctx context.Context, db execer, p models.Profile) error {
	query, args, err := sqlBuilder.Update("profiles").
		SetMap(map[string]any{
			"xp":                 p.XP,
			"hearts":             p.Hearts,
			"last_refill_at":     p.LastRefillAt.UTC(),
			"streak":             p.Streak,
			"last_practice_date": p.LastPracticeDate,
			"freeze_count":       p.FreezeCount,
			"version":            p.Version + 1,
			"updated_at":         time.Now().UTC(),
		}).
		Where(squirrel.Eq{"user_id": p.UserID.String(), "version": p.Version}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapBusy(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// mapBusy turns lock contention into a version conflict so callers retry it.
func mapBusy(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return errors.Join(repository.ErrVersionConflict, err)
	}
	return err
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
