package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var profileColumns = []string{
	"user_id", "xp", "hearts", "last_refill_at", "streak",
	"last_practice_date", "freeze_count", "version", "created_at", "updated_at",
}

// ProfileRepository stores profiles in PostgreSQL.
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new ProfileRepository with the provided database pool.
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

func scanProfile(row pgx.Row) (models.Profile, error) {
	var (
		p    models.Profile
		last pgtype.Date
	)
	err := row.Scan(&p.UserID, &p.XP, &p.Hearts, &p.LastRefillAt, &p.Streak,
		&last, &p.FreezeCount, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	p.LastPracticeDate = dateFrom(last)
	return p, err
}

func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query, args, err := sqlBuilder.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"user_id": userID.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profile ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ProfileRepository) Create(ctx context.Context, p models.Profile) error {
	log := logger.FromContext(ctx).WithPrefix("pg_profile_repo")

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	version := p.Version
	if version == 0 {
		version = 1
	}

	query, args, err := sqlBuilder.Insert("profiles").
		Columns(profileColumns...).
		Values(p.UserID.String(), p.XP, p.Hearts, p.LastRefillAt, p.Streak,
			dateArg(p.LastPracticeDate), p.FreezeCount, version, created, created).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			log.Debug("profile already exists: user_id=%s", p.UserID)
			return repository.ErrProfileExists
		}
		return fmt.Errorf("create profile: %w", mapError(err))
	}
	return nil
}

func (r *ProfileRepository) Update(ctx context.Context, p models.Profile) error {
	if err := updateProfile(ctx, r.db, p); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
