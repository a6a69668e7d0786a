package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/exercise"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var exerciseColumns = []string{"id", "lesson_id", "prompt", "hint", "xp_reward", "hearts_cost", "kind", "payload"}

type exerciseRepository struct {
	db *sql.DB
}

// NewExerciseRepository creates a new ExerciseRepository implementation
func NewExerciseRepository(db *sql.DB) repository.ExerciseRepository {
	return &exerciseRepository{db: db}
}

func scanExercise(row rowScanner) (models.Exercise, error) {
	var (
		ex   models.Exercise
		kind string
		body string
	)
	if err := row.Scan(&ex.ID, &ex.LessonID, &ex.Prompt, &ex.Hint, &ex.XPReward, &ex.HeartsCost, &kind, &body); err != nil {
		return ex, err
	}
	payload, err := exercise.DecodePayload(models.ExerciseKind(kind), []byte(body))
	if err != nil {
		return ex, fmt.Errorf("exercise %s: %w", ex.ID, err)
	}
	ex.Payload = payload
	return ex, nil
}

func (r *exerciseRepository) Get(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	log := logger.FromContext(ctx).WithPrefix("exercise_repo")
	log.Debug("getting exercise: id=%s", id)

	query, args, err := sqlBuilder.Select(exerciseColumns...).
		From("exercises").
		Where(squirrel.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	ex, err := scanExercise(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("exercise not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get exercise: %v", err)
		return nil, err
	}
	return &ex, nil
}

func (r *exerciseRepository) Save(ctx context.Context, ex models.Exercise) error {
	log := logger.FromContext(ctx).WithPrefix("exercise_repo")
	log.Debug("saving exercise: id=%s, lesson_id=%s", ex.ID, ex.LessonID)

	kind, body, err := exercise.EncodePayload(ex.Payload)
	if err != nil {
		return err
	}

	query, args, err := sqlBuilder.Insert("exercises").
		Columns(exerciseColumns...).
		Values(ex.ID.String(), ex.LessonID.String(), ex.Prompt, ex.Hint, ex.XPReward, ex.HeartsCost, string(kind), string(body)).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
    lesson_id = excluded.lesson_id,
    prompt = excluded.prompt,
    hint = excluded.hint,
    xp_reward = excluded.xp_reward,
    hearts_cost = excluded.hearts_cost,
    kind = excluded.kind,
    payload = excluded.payload`).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to save exercise: %v", err)
		return err
	}
	return nil
}

func (r *exerciseRepository) ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]models.Exercise, error) {
	log := logger.FromContext(ctx).WithPrefix("exercise_repo")
	log.Debug("listing exercises: lesson_id=%s", lessonID)

	query, args, err := sqlBuilder.Select(exerciseColumns...).
		From("exercises").
		Where(squirrel.Eq{"lesson_id": lessonID.String()}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list exercises: %v", err)
		return nil, err
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			log.Error("failed to scan exercise row: %v", err)
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	log.Debug("found %d exercises", len(exercises))
	return exercises, rows.Err()
}
