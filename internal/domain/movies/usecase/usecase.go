package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/martinmanurung/cinereview/internal/domain/movies"
	"github.com/martinmanurung/cinereview/internal/domain/watchlist"
	"github.com/martinmanurung/cinereview/internal/platform/backend"
	"github.com/martinmanurung/cinereview/pkg/apperror"
	"github.com/rs/zerolog"
)

type MovieRepository interface {
	ListMovies(ctx context.Context) ([]movies.Movie, error)
	GetMovie(ctx context.Context, movieID int64) (*movies.Movie, error)
	UpdateTrailer(ctx context.Context, movieID int64, trailerURL string) (*movies.Movie, error)
	CreateMovie(ctx context.Context, req movies.CreateMovieRequest) (*movies.CreateMovieResponse, error)
	CreateReview(ctx context.Context, req movies.ReviewRequest) (*movies.Review, error)
}

type WatchlistRepository interface {
	ListEntries(ctx context.Context) ([]watchlist.Entry, error)
	AddEntry(ctx context.Context, movieID int64) (*watchlist.Entry, error)
	RemoveEntry(ctx context.Context, entryID int64) error
}

// Validator returns field -> message pairs, nil when valid.
type Validator interface {
	Map(s interface{}) map[string]string
}

const (
	MsgMovieAdded     = "Movie added successfully!"
	MsgMovieAddFailed = "Failed to add movie."
)

type MovieUsecase struct {
	repo      MovieRepository
	watchlist WatchlistRepository
	validator Validator
}

func NewMovieUsecase(repo MovieRepository, watchlistRepo WatchlistRepository, validator Validator) *MovieUsecase {
	return &MovieUsecase{
		repo:      repo,
		watchlist: watchlistRepo,
		validator: validator,
	}
}

// MovieCard is one entry of the movie list
type MovieCard struct {
	movies.Movie
	// Rating is the backend's avg_rating with one decimal, empty when the
	// movie has no reviews.
	Rating string
}

type ListView struct {
	Status Status
	Error  string
	Movies []MovieCard
}

// ListMovies loads the movie list page. A failed fetch is reported through
// the view and the returned error.
func (u *MovieUsecase) ListMovies(ctx context.Context) (ListView, error) {
	list, err := u.repo.ListMovies(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("status", backend.StatusCode(err)).Msg("Failed to fetch movies")
		return ListView{Status: StatusError, Error: err.Error()}, err
	}

	cards := make([]MovieCard, 0, len(list))
	for _, m := range list {
		card := MovieCard{Movie: m}
		if m.AvgRating != nil {
			card.Rating = movies.FormatRating(*m.AvgRating)
		}
		cards = append(cards, card)
	}
	return ListView{Status: StatusReady, Movies: cards}, nil
}

// AddMovie validates and submits the add-movie form. The returned message is
// meant for the user in both the success and the failure case.
func (u *MovieUsecase) AddMovie(ctx context.Context, req movies.CreateMovieRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	if errs := u.validator.Map(req); errs != nil {
		return "Please provide a title and a numeric release year.", apperror.Validation(errs)
	}

	res, err := u.repo.CreateMovie(ctx, req)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("status", backend.StatusCode(err)).Msg("Add movie error")
		var se *backend.StatusError
		if errors.As(err, &se) && se.Message != "" {
			return se.Message, err
		}
		return MsgMovieAddFailed, err
	}

	zerolog.Ctx(ctx).Info().Int64("movie_id", res.ID).Str("title", req.Title).Msg("Movie added")
	if res.Message != "" {
		return res.Message, nil
	}
	return MsgMovieAdded, nil
}

// NewDetailPage builds the detail page for movieID bound to scope.
func (u *MovieUsecase) NewDetailPage(scope context.Context, movieID int64) *DetailPage {
	return NewDetailPage(scope, movieID, u.repo, u.watchlist, u.validator)
}
