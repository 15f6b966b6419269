// Package backendtest runs an in-memory stand-in for the movie review backend
// so the client can be exercised end to end in tests.
package backendtest

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/martinmanurung/cinereview/internal/domain/movies"
	"github.com/martinmanurung/cinereview/internal/domain/watchlist"
	"github.com/martinmanurung/cinereview/internal/platform/backend"
)

// Request is one recorded call to the fake backend.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type Server struct {
	URL string

	srv *httptest.Server

	mu       sync.Mutex
	nextID   int64
	movies   map[int64]movies.Movie
	reviews  []movies.Review
	entries  []watchlist.Entry
	requests []Request
	failures map[string]int
	holds    map[string]chan struct{}
}

// New starts a fake backend that is shut down when t finishes.
func New(t testing.TB) *Server {
	s := &Server{
		nextID:   100,
		movies:   make(map[int64]movies.Movie),
		failures: make(map[string]int),
		holds:    make(map[string]chan struct{}),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.record)

	e.GET("/api/movies", s.listMovies)
	e.POST("/api/movies", s.createMovie)
	e.GET("/api/movies/:id", s.getMovie)
	e.PATCH("/api/movies/:id", s.updateMovie)
	e.POST("/api/reviews", s.createReview)
	e.GET("/api/watchlist", s.listWatchlist)
	e.POST("/api/watchlist", s.addWatchlist)
	e.DELETE("/api/watchlist/:id", s.deleteWatchlist)

	s.srv = httptest.NewServer(e)
	s.URL = s.srv.URL
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Close() {
	s.mu.Lock()
	for key, ch := range s.holds {
		close(ch)
		delete(s.holds, key)
	}
	s.mu.Unlock()
	s.srv.Close()
}

// Client returns a backend client pointed at the fake.
func (s *Server) Client() *backend.Client {
	return backend.New(s.URL, s.srv.Client())
}

// AddMovie seeds a movie. A zero ID is assigned automatically.
func (s *Server) AddMovie(m movies.Movie) movies.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.id()
	}
	m.Reviews = nil
	s.movies[m.ID] = m
	return m
}

// AddReview seeds a review
func (s *Server) AddReview(r movies.Review) movies.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	s.reviews = append(s.reviews, r)
	return r
}

// AddEntry seeds a watchlist entry for movieID
func (s *Server) AddEntry(movieID int64) watchlist.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := watchlist.Entry{ID: s.id(), MovieID: movieID, UserID: 1}
	s.entries = append(s.entries, e)
	return e
}

// Entries returns the stored watchlist
func (s *Server) Entries() []watchlist.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]watchlist.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Movie returns the stored movie
func (s *Server) Movie(id int64) (movies.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	return m, ok
}

// Fail makes every later "method path" call answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Recover undoes Fail.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Hold parks "method path" calls until release is called or the caller
// gives up.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	key := method + " " + path
	s.mu.Lock()
	s.holds[key] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			// Close may already have released it
			if s.holds[key] == ch {
				delete(s.holds, key)
				close(ch)
			}
		})
	}
}

// Requests returns every recorded call in order
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many times "method path" was called.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// CountMethod returns how many calls used method.
func (s *Server) CountMethod(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
		key := req.Method + " " + req.URL.Path

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: req.Method,
			Path:   req.URL.Path,
			Header: req.Header.Clone(),
			Body:   body,
		})
		status, failing := s.failures[key]
		hold := s.holds[key]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-req.Context().Done():
				return nil
			}
		}
		if failing {
			return c.JSON(status, map[string]string{"error": "injected failure"})
		}
		return next(c)
	}
}

func bad(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// withStats fills avg_rating and review_count the way the backend does.
// Callers hold s.mu.
func (s *Server) withStats(m movies.Movie) movies.Movie {
	sum, n := 0, 0
	for _, r := range s.reviews {
		if r.MovieID == m.ID {
			sum += r.Rating
			n++
		}
	}
	m.ReviewCount = n
	m.AvgRating = nil
	if n > 0 {
		avg := math.Round(float64(sum)/float64(n)*100) / 100
		m.AvgRating = &avg
	}
	return m
}

func (s *Server) listMovies(c echo.Context) error {
	s.mu.Lock()
	out := make([]movies.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, s.withStats(m))
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getMovie(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return bad(c, http.StatusNotFound, "not found")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return bad(c, http.StatusNotFound, "not found")
	}
	m = s.withStats(m)
	for _, r := range s.reviews {
		if r.MovieID == id {
			r.Username = ""
			m.Reviews = append(m.Reviews, r)
		}
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) updateMovie(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var body struct {
		Title      *string `json:"title"`
		TrailerURL *string `json:"trailer_url"`
	}
	if err := c.Bind(&body); err != nil {
		return bad(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return bad(c, http.StatusNotFound, "not found")
	}
	if body.Title != nil {
		m.Title = strings.TrimSpace(*body.Title)
	}
	if body.TrailerURL != nil {
		m.TrailerURL = strings.TrimSpace(*body.TrailerURL)
	}
	s.movies[id] = m
	return c.JSON(http.StatusOK, s.withStats(m))
}

func (s *Server) createMovie(c echo.Context) error {
	var req movies.CreateMovieRequest
	if err := c.Bind(&req); err != nil {
		return bad(c, http.StatusBadRequest, "release_year must be a number")
	}
	if strings.TrimSpace(req.Title) == "" {
		return bad(c, http.StatusBadRequest, "title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := movies.Movie{
		ID:          s.id(),
		Title:       strings.TrimSpace(req.Title),
		ReleaseYear: req.ReleaseYear,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		TrailerURL:  req.TrailerURL,
	}
	s.movies[m.ID] = m
	return c.JSON(http.StatusCreated, s.withStats(m))
}

func (s *Server) createReview(c echo.Context) error {
	var body struct {
		MovieID int64  `json:"movie_id"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return bad(c, http.StatusBadRequest, "movie_id (int) required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[body.MovieID]; !ok {
		return bad(c, http.StatusNotFound, "movie not found")
	}
	if body.Rating < 1 || body.Rating > 5 {
		return bad(c, http.StatusBadRequest, "rating 1–5 only")
	}
	if len(strings.TrimSpace(body.Comment)) < 10 {
		return bad(c, http.StatusBadRequest, "comment at least 10 chars")
	}
	r := movies.Review{
		ID:      s.id(),
		MovieID: body.MovieID,
		UserID:  1,
		Rating:  body.Rating,
		Comment: strings.TrimSpace(body.Comment),
	}
	s.reviews = append(s.reviews, r)
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) listWatchlist(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]watchlist.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Movie = s.withStats(s.movies[e.MovieID])
		out = append(out, e)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) addWatchlist(c echo.Context) error {
	var body watchlist.AddEntryRequest
	if err := c.Bind(&body); err != nil {
		return bad(c, http.StatusBadRequest, "movie_id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[body.MovieID]
	if !ok {
		return bad(c, http.StatusNotFound, "movie not found")
	}
	e := watchlist.Entry{ID: s.id(), MovieID: body.MovieID, UserID: 1, Note: strings.TrimSpace(body.Note)}
	s.entries = append(s.entries, e)
	e.Movie = s.withStats(m)
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) deleteWatchlist(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return c.JSON(http.StatusOK, map[string]string{"message": "Item removed successfully"})
		}
	}
	return bad(c, http.StatusNotFound, "Watchlist item not found")
}
