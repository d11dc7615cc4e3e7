package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pitchside/apiserver/types"
)

// FavoriteRepository handles persistence for favorite teams.
type FavoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) GetByUser(ctx context.Context, userID int) (types.Favorite, error) {
	const query = `
		SELECT id, user_id, team, created_at, updated_at
		FROM favorites
		WHERE user_id = $1`
	var fav types.Favorite
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&fav.ID,
		&fav.UserID,
		&fav.Team,
		&fav.CreatedAt,
		&fav.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Favorite{}, ErrNotFound
		}
		return types.Favorite{}, err
	}
	return fav, nil
}

// Upsert stores team as the user's favorite in a single statement,
// creating the row or overwriting the existing one.
func (r *FavoriteRepository) Upsert(ctx context.Context, userID int, team string) (types.Favorite, error) {
	now := time.Now()

	const query = `
		INSERT INTO favorites (user_id, team, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET team = EXCLUDED.team,
			updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, team, created_at, updated_at`
	var fav types.Favorite
	if err := r.db.QueryRowContext(ctx, query, userID, team, now).Scan(
		&fav.ID,
		&fav.UserID,
		&fav.Team,
		&fav.CreatedAt,
		&fav.UpdatedAt,
	); err != nil {
		return types.Favorite{}, err
	}
	return fav, nil
}

// DeleteByUser removes the user's favorite. Deleting a missing row is not an error.
func (r *FavoriteRepository) DeleteByUser(ctx context.Context, userID int) error {
	const query = `DELETE FROM favorites WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
