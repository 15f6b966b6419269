package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/martinmanurung/cinereview/internal/domain/movies"
	"github.com/martinmanurung/cinereview/internal/domain/watchlist"
	"github.com/martinmanurung/cinereview/internal/platform/backend"
	"github.com/martinmanurung/cinereview/pkg/apperror"
	"github.com/rs/zerolog"
)

// Status is the page-level load state
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// TrailerMode is the trailer widget state
type TrailerMode int

const (
	TrailerViewing TrailerMode = iota
	TrailerEditing
)

// User-facing alerts
const (
	MsgReviewInvalid   = "Please fill in all fields and ensure comment is at least 10 characters."
	MsgReviewFailed    = "Could not submit review. Try again."
	MsgTrailerFailed   = "Could not save trailer. Try again."
	MsgWatchlistFailed = "Could not update watchlist. Try again."
)

var (
	// ErrUnmounted is returned when the page went away while a request was
	// in flight. The result of that request is dropped.
	ErrUnmounted = errors.New("page unmounted")
	// ErrNotReady rejects mutations before a successful load.
	ErrNotReady = errors.New("page is not ready")
	// ErrNotEditing rejects trailer saves outside edit mode.
	ErrNotEditing = errors.New("trailer is not being edited")
)

// DetailState is the whole view state of a detail page. It only changes
// through DetailPage methods.
type DetailState struct {
	Status       Status
	Err          error
	MovieID      int64
	Movie        *movies.Movie
	Reviews      []movies.Review
	InWatchlist  bool
	Trailer      TrailerMode
	TrailerDraft string
	// ReviewDraft is the last review the user could not submit
	ReviewDraft movies.ReviewRequest
	Alert       string
}

// DetailView is a render-ready snapshot of DetailState.
type DetailView struct {
	Status        Status
	Error         string
	Movie         movies.Movie
	Reviews       []movies.Review
	AverageRating string
	EmbedURL      string
	InWatchlist   bool
	Editing       bool
	TrailerDraft  string
	ReviewDraft   movies.ReviewRequest
	ReviewOpen    bool
	Alert         string
}

// DetailPage keeps a movie, its reviews and its watchlist membership
// consistent across review submission, trailer edits and watchlist toggles.
// Calls are serialized; each runs to completion before the next starts.
type DetailPage struct {
	mu        sync.Mutex
	scope     context.Context
	movies    MovieRepository
	watchlist WatchlistRepository
	validator Validator
	state     DetailState
}

func NewDetailPage(scope context.Context, movieID int64, movieRepo MovieRepository, watchlistRepo WatchlistRepository, validator Validator) *DetailPage {
	return &DetailPage{
		scope:     scope,
		movies:    movieRepo,
		watchlist: watchlistRepo,
		validator: validator,
		state:     DetailState{Status: StatusLoading, MovieID: movieID},
	}
}

// bind ties a request context to the page scope: unmounting the page
// cancels whatever the request is waiting on.
func (p *DetailPage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.scope, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (p *DetailPage) unmounted() bool {
	return p.scope.Err() != nil
}

// Load fetches the movie and the full watchlist. The page only becomes ready
// once both have arrived.
func (p *DetailPage) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, done := p.bind(ctx)
	defer done()
	logger := zerolog.Ctx(ctx)

	movieID := p.state.MovieID
	p.state = DetailState{Status: StatusLoading, MovieID: movieID}

	movie, err := p.movies.GetMovie(ctx, movieID)
	if p.unmounted() {
		return ErrUnmounted
	}
	if err != nil {
		logger.Error().Err(err).Int("status", backend.StatusCode(err)).Int64("movie_id", movieID).Msg("Failed to load movie")
		p.state = DetailState{Status: StatusError, MovieID: movieID, Err: err}
		return err
	}

	entries, err := p.watchlist.ListEntries(ctx)
	if p.unmounted() {
		return ErrUnmounted
	}
	if err != nil {
		logger.Error().Err(err).Int("status", backend.StatusCode(err)).Int64("movie_id", movieID).Msg("Failed to load watchlist")
		p.state = DetailState{Status: StatusError, MovieID: movieID, Err: err}
		return err
	}

	reviews := make([]movies.Review, 0, len(movie.Reviews))
	for _, r := range movie.Reviews {
		r.Username = r.DisplayName()
		reviews = append(reviews, r)
	}
	movie.Reviews = nil

	p.state = DetailState{
		Status:       StatusReady,
		MovieID:      movieID,
		Movie:        movie,
		Reviews:      reviews,
		InWatchlist:  watchlist.Contains(entries, movie.ID),
		Trailer:      TrailerViewing,
		TrailerDraft: movie.TrailerURL,
	}
	return nil
}

// SubmitReview validates locally, posts the review and appends the
// confirmed record. Nothing is added before the backend answers.
func (p *DetailPage) SubmitReview(ctx context.Context, req movies.ReviewRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Status != StatusReady {
		return ErrNotReady
	}
	req.MovieID = p.state.Movie.ID

	if errs := p.validator.Map(req); errs != nil {
		p.state.Alert = MsgReviewInvalid
		p.state.ReviewDraft = req
		return apperror.Validation(errs)
	}

	ctx, done := p.bind(ctx)
	defer done()

	review, err := p.movies.CreateReview(ctx, req)
	if p.unmounted() {
		return ErrUnmounted
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("status", backend.StatusCode(err)).Int64("movie_id", req.MovieID).Msg("Failed to submit review")
		p.state.Alert = MsgReviewFailed
		p.state.ReviewDraft = req
		return err
	}

	// the backend does not echo the name back
	review.Username = req.Username
	p.state.Reviews = append(p.state.Reviews, *review)
	p.state.ReviewDraft = movies.ReviewRequest{}
	return nil
}

// EditTrailer switches the trailer widget into edit mode with the current
// trailer URL pre-filled.
func (p *DetailPage) EditTrailer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Status != StatusReady {
		return ErrNotReady
	}
	if p.state.Trailer == TrailerEditing {
		return nil
	}
	p.state.Trailer = TrailerEditing
	p.state.TrailerDraft = p.state.Movie.TrailerURL
	return nil
}

// SaveTrailer patches the trailer with draft. On success the movie is
// replaced by the backend's copy; on failure the page stays in edit mode
// and keeps draft.
func (p *DetailPage) SaveTrailer(ctx context.Context, draft string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Status != StatusReady {
		return ErrNotReady
	}
	if p.state.Trailer != TrailerEditing {
		return ErrNotEditing
	}
	p.state.TrailerDraft = draft

	ctx, done := p.bind(ctx)
	defer done()

	updated, err := p.movies.UpdateTrailer(ctx, p.state.Movie.ID, draft)
	if p.unmounted() {
		return ErrUnmounted
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("status", backend.StatusCode(err)).Int64("movie_id", p.state.Movie.ID).Msg("Failed to save trailer")
		p.state.Alert = MsgTrailerFailed
		return err
	}

	updated.Reviews = nil
	p.state.Movie = updated
	p.state.Trailer = TrailerViewing
	p.state.TrailerDraft = updated.TrailerURL
	return nil
}

// CancelTrailer drops the draft and leaves edit mode. No request is made.
func (p *DetailPage) CancelTrailer() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Trailer = TrailerViewing
	if p.state.Movie != nil {
		p.state.TrailerDraft = p.state.Movie.TrailerURL
	} else {
		p.state.TrailerDraft = ""
	}
}

// ToggleWatchlist adds or removes the movie. Both directions first re-fetch
// the watchlist and act on what it says, so a stale membership flag is
// corrected instead of producing a duplicate entry or a blind delete.
func (p *DetailPage) ToggleWatchlist(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Status != StatusReady {
		return ErrNotReady
	}

	ctx, done := p.bind(ctx)
	defer done()
	logger := zerolog.Ctx(ctx)
	movieID := p.state.Movie.ID

	entries, err := p.watchlist.ListEntries(ctx)
	if p.unmounted() {
		return ErrUnmounted
	}
	if err != nil {
		logger.Error().Err(err).Int("status", backend.StatusCode(err)).Int64("movie_id", movieID).Msg("Failed to refresh watchlist")
		p.state.Alert = MsgWatchlistFailed
		return apperror.Mutation("update watchlist", err)
	}
	entry, found := watchlist.Find(entries, movieID)

	if !p.state.InWatchlist {
		if found {
			p.state.InWatchlist = true
			return nil
		}
		_, err := p.watchlist.AddEntry(ctx, movieID)
		if p.unmounted() {
			return ErrUnmounted
		}
		if err != nil {
			logger.Error().Err(err).Int("status", backend.StatusCode(err)).Int64("movie_id", movieID).Msg("Failed to add to watchlist")
			p.state.Alert = MsgWatchlistFailed
			return err
		}
		p.state.InWatchlist = true
		return nil
	}

	if !found {
		p.state.InWatchlist = false
		return nil
	}
	err = p.watchlist.RemoveEntry(ctx, entry.ID)
	if p.unmounted() {
		return ErrUnmounted
	}
	if err != nil {
		logger.Error().Err(err).Int("status", backend.StatusCode(err)).Int64("movie_id", movieID).Int64("entry_id", entry.ID).Msg("Failed to remove from watchlist")
		p.state.Alert = MsgWatchlistFailed
		return err
	}
	p.state.InWatchlist = false
	return nil
}

// State returns a copy of the current state.
func (p *DetailPage) State() DetailState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyState()
}

// View returns a render snapshot and consumes the pending alert.
func (p *DetailPage) View() DetailView {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	p.state.Alert = ""

	v := DetailView{
		Status:       s.Status,
		InWatchlist:  s.InWatchlist,
		Editing:      s.Trailer == TrailerEditing,
		TrailerDraft: s.TrailerDraft,
		ReviewDraft:  s.ReviewDraft,
		ReviewOpen:   s.ReviewDraft != (movies.ReviewRequest{}),
		Alert:        s.Alert,
	}
	if s.Err != nil {
		v.Error = s.Err.Error()
	}
	if s.Movie != nil {
		v.Movie = *s.Movie
		v.EmbedURL = movies.EmbedURL(s.Movie.TrailerURL)
	}
	v.Reviews = append([]movies.Review(nil), s.Reviews...)
	if avg, ok := movies.AverageRating(s.Reviews); ok {
		v.AverageRating = movies.FormatRating(avg)
	}
	return v
}

func (p *DetailPage) copyState() DetailState {
	s := p.state
	if s.Movie != nil {
		m := *s.Movie
		s.Movie = &m
	}
	s.Reviews = append([]movies.Review(nil), s.Reviews...)
	return s
}
