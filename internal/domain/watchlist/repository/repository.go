package repository

import (
	"context"
	"fmt"

	"github.com/martinmanurung/cinereview/internal/domain/watchlist"
	"github.com/martinmanurung/cinereview/internal/platform/backend"
	"github.com/martinmanurung/cinereview/pkg/apperror"
)

type WatchlistRepository struct {
	client *backend.Client
}

func NewWatchlistRepository(client *backend.Client) *WatchlistRepository {
	return &WatchlistRepository{client: client}
}

// ListEntries returns the whole watchlist, unfiltered
func (r *WatchlistRepository) ListEntries(ctx context.Context) ([]watchlist.Entry, error) {
	var out []watchlist.Entry
	if err := r.client.Get(ctx, "/api/watchlist", &out); err != nil {
		return nil, apperror.Fetch("watchlist", err)
	}
	return out, nil
}

// AddEntry adds movieID to the watchlist
func (r *WatchlistRepository) AddEntry(ctx context.Context, movieID int64) (*watchlist.Entry, error) {
	var entry watchlist.Entry
	body := watchlist.AddEntryRequest{MovieID: movieID}
	if err := r.client.Post(ctx, "/api/watchlist", body, &entry); err != nil {
		return nil, apperror.Mutation("add to watchlist", err)
	}
	return &entry, nil
}

// RemoveEntry deletes a watchlist entry by its own ID, not the movie's
func (r *WatchlistRepository) RemoveEntry(ctx context.Context, entryID int64) error {
	if err := r.client.Delete(ctx, fmt.Sprintf("/api/watchlist/%d", entryID)); err != nil {
		return apperror.Mutation("remove from watchlist", err)
	}
	return nil
}
