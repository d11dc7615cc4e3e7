package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pitchside/apiserver/internal/mq"
	"github.com/pitchside/apiserver/internal/store"
	"github.com/pitchside/apiserver/types"
)

// FavoriteRepository defines persistence operations for favorite teams.
type FavoriteRepository interface {
	GetByUser(ctx context.Context, userID int) (types.Favorite, error)
	Upsert(ctx context.Context, userID int, team string) (types.Favorite, error)
	DeleteByUser(ctx context.Context, userID int) error
}

// FavoriteService manages the single favorite team of each user.
type FavoriteService struct {
	repo   FavoriteRepository
	events EventEmitter
}

func NewFavoriteService(repo FavoriteRepository, events EventEmitter) *FavoriteService {
	return &FavoriteService{repo: repo, events: events}
}

// Get returns the user's favorite. The boolean is false when none is set.
func (s *FavoriteService) Get(ctx context.Context, userID int) (types.Favorite, bool, error) {
	fav, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Favorite{}, false, nil
		}
		return types.Favorite{}, false, err
	}
	return fav, true, nil
}

// Set creates or overwrites the user's favorite team.
func (s *FavoriteService) Set(ctx context.Context, userID int, team string) (types.Favorite, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return types.Favorite{}, ErrMissingFields
	}

	fav, err := s.repo.Upsert(ctx, userID, team)
	if err != nil {
		return types.Favorite{}, fmt.Errorf("upsert favorite: %w", err)
	}

	if s.events != nil {
		s.events.Emit(ctx, mq.ChannelFavorites, mq.EventFavoriteUpdated, map[string]any{
			"user_id": userID,
			"team":    fav.Team,
		})
	}
	return fav, nil
}

// Remove deletes the user's favorite if there is one.
func (s *FavoriteService) Remove(ctx context.Context, userID int) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}

	if s.events != nil {
		s.events.Emit(ctx, mq.ChannelFavorites, mq.EventFavoriteDeleted, map[string]any{
			"user_id": userID,
		})
	}
	return nil
}
