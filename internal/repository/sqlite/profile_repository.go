package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

var profileColumns = []string{
	"user_id", "xp", "hearts", "last_refill_at", "streak",
	"last_practice_date", "freeze_count", "version", "created_at", "updated_at",
}

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository implementation
func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.XP, &p.Hearts, &p.LastRefillAt, &p.Streak,
		&p.LastPracticeDate, &p.FreezeCount, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *profileRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("getting profile: user_id=%s", userID)

	query, args, err := sqlBuilder.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"user_id": userID.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("profile not found: user_id=%s", userID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		log.Error("failed to list profile ids: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	log.Debug("found %d profile ids", len(ids))
	return ids, rows.Err()
}

func (r *profileRepository) Create(ctx context.Context, p models.Profile) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("creating profile: user_id=%s", p.UserID)

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
		Values(p.UserID.String(), p.XP, p.Hearts, p.LastRefillAt.UTC(), p.Streak,
			p.LastPracticeDate, p.FreezeCount, version, created.UTC(), created.UTC()).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			log.Debug("profile already exists: user_id=%s", p.UserID)
			return repository.ErrProfileExists
		}
		log.Error("failed to create profile: %v", err)
		return mapBusy(err)
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, p models.Profile) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("updating profile: user_id=%s, version=%d", p.UserID, p.Version)

	err := updateProfile(ctx, r.db, p)
	if errors.Is(err, repository.ErrVersionConflict) {
		log.Debug("profile version conflict: user_id=%s, version=%d", p.UserID, p.Version)
		return err
	}
	if err != nil {
		log.Error("failed to update profile: %v", err)
	}
	return err
}
