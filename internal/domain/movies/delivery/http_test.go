package delivery_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/martinmanurung/cinereview/internal/domain/movies"
	"github.com/martinmanurung/cinereview/internal/domain/movies/delivery"
	"github.com/martinmanurung/cinereview/internal/domain/movies/repository"
	"github.com/martinmanurung/cinereview/internal/domain/movies/usecase"
	watchlistRepository "github.com/martinmanurung/cinereview/internal/domain/watchlist/repository"
	"github.com/martinmanurung/cinereview/internal/platform/backend/backendtest"
	"github.com/martinmanurung/cinereview/internal/platform/session"
	"github.com/martinmanurung/cinereview/internal/platform/view"
	"github.com/martinmanurung/cinereview/pkg/middleware"
	"github.com/martinmanurung/cinereview/pkg/response"
	customValidator "github.com/martinmanurung/cinereview/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e     *echo.Echo
	fake  *backendtest.Server
	pages *session.Registry[*usecase.DetailPage]
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	fake := backendtest.New(t)
	client := fake.Client()

	uc := usecase.NewMovieUsecase(
		repository.NewMovieRepository(client),
		watchlistRepository.NewWatchlistRepository(client),
		customValidator.New(),
	)
	pages := session.New[*usecase.DetailPage]("detail", time.Minute)
	t.Cleanup(pages.Close)
	h := delivery.NewMovieHandler(uc, pages)

	renderer, err := view.New()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	e.HTTPErrorHandler = response.CustomErrorHandler
	e.Use(middleware.RequestID())

	e.GET("/movies", h.ListMovies)
	e.GET("/movies/:id", h.Detail)
	e.POST("/movies/:id/reviews", h.SubmitReview)
	e.POST("/movies/:id/trailer/edit", h.EditTrailer)
	e.POST("/movies/:id/trailer", h.SaveTrailer)
	e.POST("/movies/:id/trailer/cancel", h.CancelTrailer)
	e.POST("/movies/:id/watchlist", h.ToggleWatchlist)
	e.GET("/add", h.AddMovieForm)
	e.POST("/add", h.AddMovie)

	return &testServer{e: e, fake: fake, pages: pages}
}

func (s *testServer) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

var pageToken = regexp.MustCompile(`name="page" value="([^"]+)"`)

// mount opens a detail page and returns its token
func (s *testServer) mount(t *testing.T, movieID string) string {
	t.Helper()
	rec := s.do(http.MethodGet, "/movies/"+movieID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := pageToken.FindStringSubmatch(rec.Body.String())
	require.NotNil(t, m, "page token not rendered")
	return m[1]
}

func redirectToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	return loc.Query().Get("page")
}

func TestListMoviesPage(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Heat", ReleaseYear: 1995})
	s.fake.AddReview(movies.Review{MovieID: 1, Rating: 5})
	s.fake.AddReview(movies.Review{MovieID: 1, Rating: 4})

	rec := s.do(http.MethodGet, "/movies", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Heat")
	assert.Contains(t, rec.Body.String(), "4.5 / 5")
}

func TestListMoviesBackendDown(t *testing.T) {
	s := newTestServer(t)
	s.fake.Fail(http.MethodGet, "/api/movies", http.StatusInternalServerError)

	rec := s.do(http.MethodGet, "/movies", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load movies")
}

func TestDetailMountsPage(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien", ReleaseYear: 1979})

	token := s.mount(t, "1")
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, s.pages.Len())

	// re-attaching does not fetch again
	rec := s.do(http.MethodGet, "/movies/1?page="+token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.fake.Count(http.MethodGet, "/api/movies/1"))
	assert.Equal(t, 1, s.pages.Len())
}

func TestDetailInvalidID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/movies/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, s.fake.Requests())
}

func TestDetailMissingMovie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/movies/9", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load movie")
	assert.NotContains(t, rec.Body.String(), "Add to Watchlist")
}

func TestDetailTokenForOtherMovie(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})
	s.fake.AddMovie(movies.Movie{ID: 2, Title: "Heat"})

	first := s.mount(t, "1")
	rec := s.do(http.MethodGet, "/movies/2?page="+first, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	m := pageToken.FindStringSubmatch(rec.Body.String())
	require.NotNil(t, m)
	assert.NotEqual(t, first, m[1])
	assert.Equal(t, 1, s.pages.Len(), "the previous page is unmounted")
}

func TestSubmitReview(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})
	token := s.mount(t, "1")

	rec := s.do(http.MethodPost, "/movies/1/reviews", url.Values{
		"page":     {token},
		"username": {"Ann"},
		"rating":   {"4"},
		"comment":  {"Great film, loved it"},
	})
	assert.Equal(t, token, redirectToken(t, rec))

	reqs := s.fake.Requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, "/api/reviews", last.Path)
	assert.Equal(t, "Ann", last.Header.Get("X-User-Id"))

	page := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, page, "Ann")
	assert.Contains(t, page, "Average Rating: 4.0 / 5")
	assert.NotContains(t, page, "No reviews yet.")
}

func TestSubmitInvalidReviewShowsAlertOnce(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})
	token := s.mount(t, "1")

	rec := s.do(http.MethodPost, "/movies/1/reviews", url.Values{
		"page":     {token},
		"username": {"Ann"},
		"rating":   {"not-a-number"},
		"comment":  {"short"},
	})
	assert.Equal(t, token, redirectToken(t, rec))
	assert.Zero(t, s.fake.Count(http.MethodPost, "/api/reviews"))

	first := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, first, usecase.MsgReviewInvalid)

	second := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.NotContains(t, second, usecase.MsgReviewInvalid)
}

func TestInvalidReviewKeepsTypedValues(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})
	token := s.mount(t, "1")

	redirectToken(t, s.do(http.MethodPost, "/movies/1/reviews", url.Values{
		"page":     {token},
		"username": {"Ann"},
		"rating":   {"4"},
		"comment":  {"short"},
	}))

	page := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, page, "<details open>")
	assert.Contains(t, page, `name="username" value="Ann"`)
	assert.Contains(t, page, `<option value="4" selected>`)
	assert.Contains(t, page, ">short</textarea>")
}

func TestTrailerEditAndSave(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien", TrailerURL: "https://youtu.be/old"})
	token := s.mount(t, "1")

	redirectToken(t, s.do(http.MethodPost, "/movies/1/trailer/edit", url.Values{"page": {token}}))
	editing := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, editing, `name="trailer_url" value="https://youtu.be/old"`)

	redirectToken(t, s.do(http.MethodPost, "/movies/1/trailer", url.Values{
		"page":        {token},
		"trailer_url": {"https://www.youtube.com/watch?v=xyz&t=10"},
	}))
	saved := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, saved, "https://www.youtube.com/embed/xyz")
	assert.NotContains(t, saved, `name="trailer_url"`)

	m, ok := s.fake.Movie(1)
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/watch?v=xyz&t=10", m.TrailerURL)
}

func TestSaveTrailerWithExpiredPage(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})

	token := redirectToken(t, s.do(http.MethodPost, "/movies/1/trailer", url.Values{
		"page":        {"expired-token"},
		"trailer_url": {"https://youtu.be/typed"},
	}))
	assert.NotEqual(t, "expired-token", token)
	assert.Equal(t, 1, s.fake.Count(http.MethodPatch, "/api/movies/1"))

	m, ok := s.fake.Movie(1)
	require.True(t, ok)
	assert.Equal(t, "https://youtu.be/typed", m.TrailerURL)

	page := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, page, "https://www.youtube.com/embed/typed")
}

func TestSaveTrailerWithExpiredPageFailure(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})
	s.fake.Fail(http.MethodPatch, "/api/movies/1", http.StatusInternalServerError)

	token := redirectToken(t, s.do(http.MethodPost, "/movies/1/trailer", url.Values{
		"page":        {"expired-token"},
		"trailer_url": {"https://youtu.be/typed"},
	}))

	page := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, page, usecase.MsgTrailerFailed)
	assert.Contains(t, page, `name="trailer_url" value="https://youtu.be/typed"`)
}

func TestTrailerCancel(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})
	token := s.mount(t, "1")

	redirectToken(t, s.do(http.MethodPost, "/movies/1/trailer/edit", url.Values{"page": {token}}))
	redirectToken(t, s.do(http.MethodPost, "/movies/1/trailer/cancel", url.Values{"page": {token}}))

	page := s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String()
	assert.Contains(t, page, "Add Trailer")
	assert.Zero(t, s.fake.CountMethod(http.MethodPatch))
}

func TestToggleWatchlist(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})
	token := s.mount(t, "1")

	redirectToken(t, s.do(http.MethodPost, "/movies/1/watchlist", url.Values{"page": {token}}))
	assert.Len(t, s.fake.Entries(), 1)
	assert.Contains(t, s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String(), "Already in Watchlist")

	redirectToken(t, s.do(http.MethodPost, "/movies/1/watchlist", url.Values{"page": {token}}))
	assert.Empty(t, s.fake.Entries())
	assert.Contains(t, s.do(http.MethodGet, "/movies/1?page="+token, nil).Body.String(), "Add to Watchlist")
}

func TestActionWithoutPageMountsOne(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddMovie(movies.Movie{ID: 1, Title: "Alien"})

	token := redirectToken(t, s.do(http.MethodPost, "/movies/1/watchlist", url.Values{}))
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, s.pages.Len())
	assert.Len(t, s.fake.Entries(), 1)
}

func TestAddMovieForm(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/add", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Add a Movie")
}

func TestAddMovie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/add", url.Values{
		"title":        {"Heat"},
		"release_year": {"1995"},
		"poster_url":   {"https://img.example/heat.jpg"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), usecase.MsgMovieAdded)
	assert.NotContains(t, rec.Body.String(), `value="Heat"`, "form is reset")
	assert.Equal(t, 1, s.fake.Count(http.MethodPost, "/api/movies"))
}

func TestAddMovieInvalidYear(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/add", url.Values{
		"title":        {"Heat"},
		"release_year": {"nineteen"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please provide a title and a numeric release year.")
	assert.Contains(t, rec.Body.String(), `value="Heat"`)
	assert.Zero(t, s.fake.Count(http.MethodPost, "/api/movies"))
}

func TestAddMovieBackendFailure(t *testing.T) {
	s := newTestServer(t)
	s.fake.Fail(http.MethodPost, "/api/movies", http.StatusBadRequest)

	rec := s.do(http.MethodPost, "/add", url.Values{
		"title":        {"Heat"},
		"release_year": {"1995"},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "injected failure")
}
