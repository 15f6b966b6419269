package movies

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Movie mirrors the backend's movie payload. Reviews is only populated by
// the detail fetch.
type Movie struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ReleaseYear int      `json:"release_year"`
	Description string   `json:"description"`
	PosterURL   string   `json:"poster_url"`
	TrailerURL  string   `json:"trailer_url"`
	AvgRating   *float64 `json:"avg_rating,omitempty"`
	ReviewCount int      `json:"review_count"`
	Reviews     []Review `json:"reviews,omitempty"`
}

// Review mirrors the backend's review payload. Username is never echoed back
// by the backend; the client fills it in.
type Review struct {
	ID       int64  `json:"id"`
	MovieID  int64  `json:"movie_id"`
	UserID   int64  `json:"user_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Username string `json:"username,omitempty"`
}

// DisplayName is the name shown next to a review.
func (r Review) DisplayName() string {
	if r.Username != "" {
		return r.Username
	}
	return fmt.Sprintf("User %d", r.UserID)
}

// Stars renders the rating as five filled or empty stars.
func (r Review) Stars() string {
	n := r.Rating
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	out := make([]rune, 0, 5)
	for i := 0; i < 5; i++ {
		if i < n {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}

// Request DTOs

// ReviewRequest is the review form. Username travels as a header, never in
// the body.
type ReviewRequest struct {
	Username string `form:"username" json:"-" validate:"required"`
	MovieID  int64  `form:"-" json:"movie_id"`
	Rating   int    `form:"rating" json:"rating" validate:"required,gte=1,lte=5"`
	Comment  string `form:"comment" json:"comment" validate:"min=10"`
}

// TrailerUpdate is the PATCH body for saving a trailer.
type TrailerUpdate struct {
	TrailerURL string `json:"trailer_url"`
}

// CreateMovieRequest is the add-movie form
type CreateMovieRequest struct {
	Title       string `form:"title" json:"title" validate:"required"`
	ReleaseYear int    `form:"release_year" json:"release_year" validate:"required"`
	Description string `form:"description" json:"description"`
	PosterURL   string `form:"poster_url" json:"poster_url"`
	TrailerURL  string `form:"trailer_url" json:"trailer_url"`
}

// CreateMovieResponse covers both shapes the backend may answer with: a
// {message} acknowledgement or the created movie.
type CreateMovieResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
	Title   string `json:"title"`
}

// AverageRating is the mean rating of reviews rounded to one decimal place.
// ok is false for an empty list.
func AverageRating(reviews []Review) (avg float64, ok bool) {
	if len(reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*10) / 10, true
}

// FormatRating renders a rating with one decimal, e.g. "4.0".
func FormatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

var youtubeID = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/watch\?v=)([^&]+)`)

// EmbedURL rewrites YouTube share and watch links into the embeddable player
// URL. Anything else is returned unchanged.
func EmbedURL(url string) string {
	if url == "" {
		return ""
	}
	m := youtubeID.FindStringSubmatch(url)
	if m == nil {
		return url
	}
	return "https://www.youtube.com/embed/" + m[1]
}
