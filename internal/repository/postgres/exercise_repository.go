package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vytor/lingoprogress/internal/exercise"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var exerciseColumns = []string{"id", "lesson_id", "prompt", "hint", "xp_reward", "hearts_cost", "kind", "payload"}

// ExerciseRepository stores exercise definitions in PostgreSQL.
type ExerciseRepository struct {
	db DBTX
}

func NewExerciseRepository(db DBTX) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

var _ repository.ExerciseRepository = (*ExerciseRepository)(nil)

func scanExercise(row pgx.Row) (models.Exercise, error) {
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

func (r *ExerciseRepository) Get(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	query, args, err := sqlBuilder.Select(exerciseColumns...).
		From("exercises").
		Where(squirrel.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	ex, err := scanExercise(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return &ex, nil
}

func (r *ExerciseRepository) Save(ctx context.Context, ex models.Exercise) error {
	kind, body, err := exercise.EncodePayload(ex.Payload)
	if err != nil {
		return err
	}

	query, args, err := sqlBuilder.Insert("exercises").
		Columns(exerciseColumns...).
		Values(ex.ID.String(), ex.LessonID.String(), ex.Prompt, ex.Hint, ex.XPReward, ex.HeartsCost, string(kind), string(body)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			lesson_id = EXCLUDED.lesson_id,
			prompt = EXCLUDED.prompt,
			hint = EXCLUDED.hint,
			xp_reward = EXCLUDED.xp_reward,
			hearts_cost = EXCLUDED.hearts_cost,
			kind = EXCLUDED.kind,
			payload = EXCLUDED.payload`).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save exercise: %w", err)
	}
	return nil
}

func (r *ExerciseRepository) ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]models.Exercise, error) {
	query, args, err := sqlBuilder.Select(exerciseColumns...).
		From("exercises").
		Where(squirrel.Eq{"lesson_id": lessonID.String()}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}
