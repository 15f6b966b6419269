package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/martinmanurung/cinereview/internal/domain/movies"
	"github.com/martinmanurung/cinereview/internal/domain/movies/usecase"
	"github.com/martinmanurung/cinereview/internal/platform/session"
	"github.com/martinmanurung/cinereview/pkg/apperror"
	"github.com/martinmanurung/cinereview/pkg/constant"
	"github.com/martinmanurung/cinereview/pkg/middleware"
	"github.com/martinmanurung/cinereview/pkg/response"
)

// Template names
const (
	TemplateMovies = "movies"
	TemplateDetail = "detail"
	TemplateAdd    = "add"
)

type MovieUsecase interface {
	ListMovies(ctx context.Context) (usecase.ListView, error)
	AddMovie(ctx context.Context, req movies.CreateMovieRequest) (string, error)
	NewDetailPage(scope context.Context, movieID int64) *usecase.DetailPage
}

// DetailData is what the detail template renders
type DetailData struct {
	Token string
	usecase.DetailView
}

// AddMovieForm keeps the raw form input so it can be shown again after a
// failed submit.
type AddMovieForm struct {
	Title       string `form:"title"`
	ReleaseYear string `form:"release_year"`
	Description string `form:"description"`
	PosterURL   string `form:"poster_url"`
	TrailerURL  string `form:"trailer_url"`
}

type AddMovieData struct {
	Form    AddMovieForm
	Message string
	Success bool
	Errors  map[string]string
}

type MovieHandler struct {
	usecase MovieUsecase
	pages   *session.Registry[*usecase.DetailPage]
}

func NewMovieHandler(usecase MovieUsecase, pages *session.Registry[*usecase.DetailPage]) *MovieHandler {
	return &MovieHandler{
		usecase: usecase,
		pages:   pages,
	}
}

// ListMovies renders the movie list
// GET /movies
func (h *MovieHandler) ListMovies(c echo.Context) error {
	view, err := h.usecase.ListMovies(c.Request().Context())
	if err != nil {
		return c.Render(http.StatusBadGateway, TemplateMovies, view)
	}
	return c.Render(http.StatusOK, TemplateMovies, view)
}

// Detail renders a movie detail page. Without a known page token a fresh page
// is mounted and loaded.
// GET /movies/:id?page=<token>
func (h *MovieHandler) Detail(c echo.Context) error {
	movieID, err := movieIDParam(c)
	if err != nil {
		return err
	}

	token, page, err := h.attach(c, movieID)
	if err != nil {
		return err
	}

	view := page.View()
	code := http.StatusOK
	if view.Status == usecase.StatusError {
		code = http.StatusBadGateway
	}
	return c.Render(code, TemplateDetail, DetailData{Token: token, DetailView: view})
}

// SubmitReview posts the review form
// POST /movies/:id/reviews
func (h *MovieHandler) SubmitReview(c echo.Context) error {
	logger := middleware.GetLogger(c)

	var req movies.ReviewRequest
	if err := c.Bind(&req); err != nil {
		// a non-numeric rating is treated like a missing one
		logger.Warn().Err(err).Msg("Failed to bind review form")
		req = movies.ReviewRequest{
			Username: c.FormValue("username"),
			Comment:  c.FormValue("comment"),
		}
	}

	return h.act(c, func(ctx context.Context, page *usecase.DetailPage) error {
		return page.SubmitReview(ctx, req)
	})
}

// EditTrailer switches the trailer widget to edit mode
// POST /movies/:id/trailer/edit
func (h *MovieHandler) EditTrailer(c echo.Context) error {
	return h.act(c, func(_ context.Context, page *usecase.DetailPage) error {
		return page.EditTrailer()
	})
}

// SaveTrailer saves the edited trailer URL
// POST /movies/:id/trailer
func (h *MovieHandler) SaveTrailer(c echo.Context) error {
	draft := strings.TrimSpace(c.FormValue("trailer_url"))
	return h.act(c, func(ctx context.Context, page *usecase.DetailPage) error {
		// a page mounted for this request starts in viewing mode; the typed
		// URL is still saved
		if page.State().Trailer != usecase.TrailerEditing {
			if err := page.EditTrailer(); err != nil {
				return err
			}
		}
		return page.SaveTrailer(ctx, draft)
	})
}

// CancelTrailer leaves edit mode
// POST /movies/:id/trailer/cancel
func (h *MovieHandler) CancelTrailer(c echo.Context) error {
	return h.act(c, func(_ context.Context, page *usecase.DetailPage) error {
		page.CancelTrailer()
		return nil
	})
}

// ToggleWatchlist adds the movie to or removes it from the watchlist
// POST /movies/:id/watchlist
func (h *MovieHandler) ToggleWatchlist(c echo.Context) error {
	return h.act(c, func(ctx context.Context, page *usecase.DetailPage) error {
		return page.ToggleWatchlist(ctx)
	})
}

// AddMovieForm renders an empty add-movie form
// GET /add
func (h *MovieHandler) AddMovieForm(c echo.Context) error {
	return c.Render(http.StatusOK, TemplateAdd, AddMovieData{})
}

// AddMovie creates a movie from the add-movie form
// POST /add
func (h *MovieHandler) AddMovie(c echo.Context) error {
	logger := middleware.GetLogger(c)

	var form AddMovieForm
	if err := c.Bind(&form); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid_request_body", err.Error())
	}

	// a year that does not parse stays zero and fails validation
	year, _ := strconv.Atoi(strings.TrimSpace(form.ReleaseYear))
	req := movies.CreateMovieRequest{
		Title:       form.Title,
		ReleaseYear: year,
		Description: form.Description,
		PosterURL:   form.PosterURL,
		TrailerURL:  form.TrailerURL,
	}

	msg, err := h.usecase.AddMovie(c.Request().Context(), req)
	if err != nil {
		data := AddMovieData{Form: form, Message: msg}
		var ve *apperror.ValidationError
		if errors.As(err, &ve) {
			logger.Warn().Err(err).Msg("Validation failed")
			data.Errors = ve.Fields
			return c.Render(http.StatusBadRequest, TemplateAdd, data)
		}
		return c.Render(http.StatusBadGateway, TemplateAdd, data)
	}

	return c.Render(http.StatusOK, TemplateAdd, AddMovieData{Message: msg, Success: true})
}

// attach returns the mounted page for the request's token, or mounts and
// loads a new one. A token that belongs to another movie is unmounted.
func (h *MovieHandler) attach(c echo.Context, movieID int64) (string, *usecase.DetailPage, error) {
	logger := middleware.GetLogger(c)
	ctx := c.Request().Context()

	token := c.FormValue(constant.QueryPageToken)
	if page, ok := h.pages.Get(token); ok {
		state := page.State()
		if state.MovieID == movieID {
			if state.Status == usecase.StatusReady {
				return token, page, nil
			}
			return token, page, h.load(ctx, page)
		}
		h.pages.Unmount(token)
	}

	token, page := h.pages.Mount(func(scope context.Context) *usecase.DetailPage {
		return h.usecase.NewDetailPage(scope, movieID)
	})
	logger.Debug().Str("page", token).Int64("movie_id", movieID).Msg("Mounted detail page")
	return token, page, h.load(ctx, page)
}

// load reports only what the page could not record itself
func (h *MovieHandler) load(ctx context.Context, page *usecase.DetailPage) error {
	err := page.Load(ctx)
	if errors.Is(err, usecase.ErrUnmounted) {
		return echo.NewHTTPError(http.StatusGone, "page was closed")
	}
	return nil
}

// act runs fn against the request's page and redirects back to it. Failures
// are recorded on the page as alerts and shown after the redirect.
func (h *MovieHandler) act(c echo.Context, fn func(ctx context.Context, page *usecase.DetailPage) error) error {
	logger := middleware.GetLogger(c)

	movieID, err := movieIDParam(c)
	if err != nil {
		return err
	}

	token, page, err := h.attach(c, movieID)
	if err != nil {
		return err
	}

	if err := fn(c.Request().Context(), page); err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnmounted):
			return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/movies/%d", movieID))
		case errors.Is(err, usecase.ErrNotReady), errors.Is(err, usecase.ErrNotEditing):
			logger.Warn().Err(err).Int64("movie_id", movieID).Msg("Action ignored")
		}
	}
	return c.Redirect(http.StatusSeeOther, detailURL(movieID, token))
}

func movieIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, response.NewError(http.StatusNotFound, "movie not found", nil)
	}
	return id, nil
}

func detailURL(movieID int64, token string) string {
	return fmt.Sprintf("/movies/%d?%s=%s", movieID, constant.QueryPageToken, token)
}
