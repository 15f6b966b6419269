package repository

import (
	"context"
	"fmt"

	"github.com/martinmanurung/cinereview/internal/domain/movies"
	"github.com/martinmanurung/cinereview/internal/platform/backend"
	"github.com/martinmanurung/cinereview/pkg/apperror"
	"github.com/martinmanurung/cinereview/pkg/constant"
)

type MovieRepository struct {
	client *backend.Client
}

func NewMovieRepository(client *backend.Client) *MovieRepository {
	return &MovieRepository{client: client}
}

// ListMovies returns every movie with its server-side stats
func (r *MovieRepository) ListMovies(ctx context.Context) ([]movies.Movie, error) {
	var out []movies.Movie
	if err := r.client.Get(ctx, "/api/movies", &out); err != nil {
		return nil, apperror.Fetch("movies", err)
	}
	return out, nil
}

// GetMovie returns one movie with its embedded reviews
func (r *MovieRepository) GetMovie(ctx context.Context, movieID int64) (*movies.Movie, error) {
	var movie movies.Movie
	if err := r.client.Get(ctx, moviePath(movieID), &movie); err != nil {
		return nil, apperror.Fetch(fmt.Sprintf("movie %d", movieID), err)
	}
	return &movie, nil
}

// UpdateTrailer patches trailer_url and returns the movie as the backend now
// holds it
func (r *MovieRepository) UpdateTrailer(ctx context.Context, movieID int64, trailerURL string) (*movies.Movie, error) {
	var movie movies.Movie
	body := movies.TrailerUpdate{TrailerURL: trailerURL}
	if err := r.client.Patch(ctx, moviePath(movieID), body, &movie); err != nil {
		return nil, apperror.Mutation("save trailer", err)
	}
	return &movie, nil
}

// CreateMovie posts a new movie
func (r *MovieRepository) CreateMovie(ctx context.Context, req movies.CreateMovieRequest) (*movies.CreateMovieResponse, error) {
	var out movies.CreateMovieResponse
	if err := r.client.Post(ctx, "/api/movies", req, &out); err != nil {
		return nil, apperror.Mutation("add movie", err)
	}
	return &out, nil
}

// CreateReview posts a review. The username goes out as the X-User-Id header.
func (r *MovieRepository) CreateReview(ctx context.Context, req movies.ReviewRequest) (*movies.Review, error) {
	var review movies.Review
	err := r.client.Post(ctx, "/api/reviews", req, &review,
		backend.WithHeader(constant.HeaderUserID, req.Username))
	if err != nil {
		return nil, apperror.Mutation("submit review", err)
	}
	return &review, nil
}

func moviePath(movieID int64) string {
	return fmt.Sprintf("/api/movies/%d", movieID)
}
