package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/martinmanurung/cinereview/internal/domain/watchlist"
	"github.com/martinmanurung/cinereview/internal/platform/backend"
	"github.com/rs/zerolog"
)

type WatchlistRepository interface {
	ListEntries(ctx context.Context) ([]watchlist.Entry, error)
	RemoveEntry(ctx context.Context, entryID int64) error
}

const MsgRemoveFailed = "Could not remove item. Try again."

var (
	ErrUnmounted = errors.New("page unmounted")
	ErrNotReady  = errors.New("watchlist is not loaded")
)

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

type WatchlistView struct {
	Status  Status
	Error   string
	Entries []watchlist.Entry
	Alert   string
}

// WatchlistPage holds the entries shown on the watchlist page.
type WatchlistPage struct {
	mu      sync.Mutex
	scope   context.Context
	repo    WatchlistRepository
	status  Status
	err     error
	entries []watchlist.Entry
	alert   string
}

func NewWatchlistPage(scope context.Context, repo WatchlistRepository) *WatchlistPage {
	return &WatchlistPage{scope: scope, repo: repo, status: StatusLoading}
}

func (p *WatchlistPage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.scope, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Load fetches the watchlist
func (p *WatchlistPage) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, done := p.bind(ctx)
	defer done()

	p.status = StatusLoading
	entries, err := p.repo.ListEntries(ctx)
	if p.scope.Err() != nil {
		return ErrUnmounted
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("status", backend.StatusCode(err)).Msg("Failed to load watchlist")
		p.status, p.err, p.entries = StatusError, err, nil
		return err
	}
	p.status, p.err, p.entries = StatusReady, nil, entries
	return nil
}

// Remove deletes an entry and drops it from the held list once the backend
// has confirmed.
func (p *WatchlistPage) Remove(ctx context.Context, entryID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != StatusReady {
		return ErrNotReady
	}

	ctx, done := p.bind(ctx)
	defer done()

	err := p.repo.RemoveEntry(ctx, entryID)
	if p.scope.Err() != nil {
		return ErrUnmounted
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("status", backend.StatusCode(err)).Int64("entry_id", entryID).Msg("Failed to remove watchlist item")
		p.alert = MsgRemoveFailed
		return err
	}
	p.entries = watchlist.Without(p.entries, entryID)
	return nil
}

func (p *WatchlistPage) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// View returns a render snapshot and consumes the pending alert.
func (p *WatchlistPage) View() WatchlistView {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := WatchlistView{
		Status:  p.status,
		Entries: append([]watchlist.Entry(nil), p.entries...),
		Alert:   p.alert,
	}
	if p.err != nil {
		v.Error = p.err.Error()
	}
	p.alert = ""
	return v
}
