package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// mapError turns serialization failures and deadlocks into version conflicts
// so callers retry them.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected) {
		return errors.Join(repository.ErrVersionConflict, err)
	}
	return err
}

func dateArg(d models.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func dateFrom(d pgtype.Date) models.Date {
	if !d.Valid {
		return models.Date{}
	}
	return models.DateOf(d.Time)
}

// updateProfile writes p when the stored version still equals p.Version.
func updateProfile(ctx context.Context, db DBTX, p models.Profile) error {
	query, args, err := sqlBuilder.Update("profiles").
		SetMap(map[string]any{
			"xp":                 p.XP,
			"hearts":             p.Hearts,
			"last_refill_at":     p.LastRefillAt,
			"streak":             p.Streak,
			"last_practice_date": dateArg(p.LastPracticeDate),
			"freeze_count":       p.FreezeCount,
			"version":            p.Version + 1,
			"updated_at":         time.Now(),
		}).
		Where(squirrel.Eq{"user_id": p.UserID.String(), "version": p.Version}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
