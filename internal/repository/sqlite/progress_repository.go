package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var progressColumns = []string{
	"id", "user_id", "exercise_id", "lesson_id", "completed", "correct",
	"answer_given", "completed_at", "xp_earned", "hearts_spent",
}

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

func scanProgress(row rowScanner) (models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ExerciseID, &rec.LessonID, &rec.Completed, &rec.Correct,
		&rec.AnswerGiven, &rec.CompletedAt, &rec.XPEarned, &rec.HeartsSpent)
	return rec, err
}

func (r *progressRepository) Get(ctx context.Context, userID, exerciseID uuid.UUID) (*models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("getting progress: user_id=%s, exercise_id=%s", userID, exerciseID)

	query, args, err := sqlBuilder.Select(progressColumns...).
		From("progress_records").
		Where(squirrel.Eq{"user_id": userID.String(), "exercise_id": exerciseID.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanProgress(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get progress record: %v", err)
		return nil, err
	}
	return &rec, nil
}

func (r *progressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("listing progress: user_id=%s", userID)

	query, args, err := sqlBuilder.Select(progressColumns...).
		From("progress_records").
		Where(squirrel.Eq{"user_id": userID.String()}).
		OrderBy("completed_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list progress records: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan progress row: %v", err)
			return nil, err
		}
		records = append(records, rec)
	}
	log.Debug("found %d progress records", len(records))
	return records, rows.Err()
}

func (r *progressRepository) CountForExercises(ctx context.Context, userID uuid.UUID, exerciseIDs []uuid.UUID) (int, int, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	if len(exerciseIDs) == 0 {
		return 0, 0, nil
	}

	query, args, err := sqlBuilder.Select("COUNT(*)", "COALESCE(SUM(correct), 0)").
		From("progress_records").
		Where(squirrel.Eq{"user_id": userID.String(), "exercise_id": idStrings(exerciseIDs)}).
		Where(squirrel.Eq{"completed": true}).
		ToSql()
	if err != nil {
		return 0, 0, err
	}

	var completed, correct int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&completed, &correct); err != nil {
		log.Error("failed to count progress: %v", err)
		return 0, 0, err
	}
	log.Debug("progress counts: user_id=%s, completed=%d, correct=%d", userID, completed, correct)
	return completed, correct, nil
}

func (r *progressRepository) RecordSubmission(ctx context.Context, profile models.Profile, rec models.ProgressRecord) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("recording submission: user_id=%s, exercise_id=%s, version=%d", rec.UserID, rec.ExerciseID, profile.Version)

	insert, args, err := sqlBuilder.Insert("progress_records").
		Columns(progressColumns...).
		Values(rec.ID.String(), rec.UserID.String(), rec.ExerciseID.String(), rec.LessonID.String(), rec.Completed, rec.Correct,
			rec.AnswerGiven, rec.CompletedAt.UTC(), rec.XPEarned, rec.HeartsSpent).
		ToSql()
	if err != nil {
		return err
	}

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := updateProfile(ctx, tx, profile); err != nil {
			log.Debug("profile update rejected: %v", err)
			return err
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			if isUniqueViolation(err) {
				log.Debug("duplicate progress record: user_id=%s, exercise_id=%s", rec.UserID, rec.ExerciseID)
				return repository.ErrDuplicateProgress
			}
			log.Error("failed to insert progress record: %v", err)
			return mapBusy(err)
		}
		return nil
	})
}
