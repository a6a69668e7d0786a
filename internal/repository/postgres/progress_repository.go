package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var progressColumns = []string{
	"id", "user_id", "exercise_id", "lesson_id", "completed", "correct",
	"answer_given", "completed_at", "xp_earned", "hearts_spent",
}

// ProgressRepository stores progress records in PostgreSQL. Writes that
// touch the profile go through the Transactor.
type ProgressRepository struct {
	db DBTX
	tx *Transactor
}

func NewProgressRepository(db DBTX, tx *Transactor) *ProgressRepository {
	return &ProgressRepository{db: db, tx: tx}
}

var _ repository.ProgressRepository = (*ProgressRepository)(nil)

func scanProgress(row pgx.Row) (models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ExerciseID, &rec.LessonID, &rec.Completed, &rec.Correct,
		&rec.AnswerGiven, &rec.CompletedAt, &rec.XPEarned, &rec.HeartsSpent)
	return rec, err
}

func (r *ProgressRepository) Get(ctx context.Context, userID, exerciseID uuid.UUID) (*models.ProgressRecord, error) {
	query, args, err := sqlBuilder.Select(progressColumns...).
		From("progress_records").
		Where(squirrel.Eq{"user_id": userID.String(), "exercise_id": exerciseID.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanProgress(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &rec, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	query, args, err := sqlBuilder.Select(progressColumns...).
		From("progress_records").
		Where(squirrel.Eq{"user_id": userID.String()}).
		OrderBy("completed_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ProgressRepository) CountForExercises(ctx context.Context, userID uuid.UUID, exerciseIDs []uuid.UUID) (int, int, error) {
	if len(exerciseIDs) == 0 {
		return 0, 0, nil
	}

	query, args, err := sqlBuilder.Select("COUNT(*)", "COUNT(*) FILTER (WHERE correct)").
		From("progress_records").
		Where(squirrel.Eq{"user_id": userID.String(), "exercise_id": idStrings(exerciseIDs), "completed": true}).
		ToSql()
	if err != nil {
		return 0, 0, err
	}

	var completed, correct int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&completed, &correct); err != nil {
		return 0, 0, fmt.Errorf("count progress: %w", err)
	}
	return completed, correct, nil
}

func (r *ProgressRepository) RecordSubmission(ctx context.Context, profile models.Profile, rec models.ProgressRecord) error {
	log := logger.FromContext(ctx).WithPrefix("pg_progress_repo")

	insert, args, err := sqlBuilder.Insert("progress_records").
		Columns(progressColumns...).
		Values(rec.ID.String(), rec.UserID.String(), rec.ExerciseID.String(), rec.LessonID.String(), rec.Completed, rec.Correct,
			rec.AnswerGiven, rec.CompletedAt, rec.XPEarned, rec.HeartsSpent).
		ToSql()
	if err != nil {
		return err
	}

	return r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := updateProfile(ctx, tx, profile); err != nil {
			log.Debug("profile update rejected: %v", err)
			return err
		}
		if _, err := tx.Exec(ctx, insert, args...); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicateProgress
			}
			return fmt.Errorf("insert progress: %w", mapError(err))
		}
		return nil
	})
}
