package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/martinmanurung/cinereview/internal/domain/watchlist/usecase"
	"github.com/martinmanurung/cinereview/internal/platform/session"
	"github.com/martinmanurung/cinereview/pkg/constant"
	"github.com/martinmanurung/cinereview/pkg/middleware"
	"github.com/martinmanurung/cinereview/pkg/response"
)

const TemplateWatchlist = "watchlist"

type WatchlistData struct {
	Token string
	usecase.WatchlistView
}

type WatchlistHandler struct {
	repo  usecase.WatchlistRepository
	pages *session.Registry[*usecase.WatchlistPage]
}

func NewWatchlistHandler(repo usecase.WatchlistRepository, pages *session.Registry[*usecase.WatchlistPage]) *WatchlistHandler {
	return &WatchlistHandler{
		repo:  repo,
		pages: pages,
	}
}

// Show renders the watchlist
// GET /watchlist?page=<token>
func (h *WatchlistHandler) Show(c echo.Context) error {
	token, page, err := h.attach(c)
	if err != nil {
		return err
	}

	view := page.View()
	code := http.StatusOK
	if view.Status == usecase.StatusError {
		code = http.StatusBadGateway
	}
	return c.Render(code, TemplateWatchlist, WatchlistData{Token: token, WatchlistView: view})
}

// Remove deletes one entry and redirects back to the watchlist
// POST /watchlist/:id/remove
func (h *WatchlistHandler) Remove(c echo.Context) error {
	logger := middleware.GetLogger(c)

	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || entryID <= 0 {
		return response.NewError(http.StatusNotFound, "watchlist item not found", nil)
	}

	token, page, err := h.attach(c)
	if err != nil {
		return err
	}

	err = page.Remove(c.Request().Context(), entryID)
	switch {
	case errors.Is(err, usecase.ErrUnmounted):
		return c.Redirect(http.StatusSeeOther, "/watchlist")
	case errors.Is(err, usecase.ErrNotReady):
		logger.Warn().Err(err).Int64("entry_id", entryID).Msg("Remove ignored")
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/watchlist?%s=%s", constant.QueryPageToken, token))
}

func (h *WatchlistHandler) attach(c echo.Context) (string, *usecase.WatchlistPage, error) {
	token := c.FormValue(constant.QueryPageToken)
	page, ok := h.pages.Get(token)
	if !ok {
		token, page = h.pages.Mount(func(scope context.Context) *usecase.WatchlistPage {
			return usecase.NewWatchlistPage(scope, h.repo)
		})
		middleware.GetLogger(c).Debug().Str("page", token).Msg("Mounted watchlist page")
	} else if page.Status() == usecase.StatusReady {
		return token, page, nil
	}

	if err := page.Load(c.Request().Context()); errors.Is(err, usecase.ErrUnmounted) {
		return "", nil, echo.NewHTTPError(http.StatusGone, "page was closed")
	}
	return token, page, nil
}
