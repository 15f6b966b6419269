package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	movieDelivery "github.com/martinmanurung/cinereview/internal/domain/movies/delivery"
	watchlistDelivery "github.com/martinmanurung/cinereview/internal/domain/watchlist/delivery"
	appMiddleware "github.com/martinmanurung/cinereview/pkg/middleware"
	"github.com/martinmanurung/cinereview/pkg/response"
)

func setupRoutes(e *echo.Echo, movieHandler *movieDelivery.MovieHandler, watchlistHandler *watchlistDelivery.WatchlistHandler) {
	// Middleware
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Gzip())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(appMiddleware.RequestID())

	// Custom error handler
	e.HTTPErrorHandler = response.CustomErrorHandler

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return response.Success(c, http.StatusOK, "ok", map[string]string{
			"status": "ok",
		})
	})

	// Movie pages
	e.GET("/", movieHandler.ListMovies)
	movies := e.Group("/movies")
	{
		movies.GET("", movieHandler.ListMovies)
		movies.GET("/:id", movieHandler.Detail)                        // GET /movies/:id?page=<token>
		movies.POST("/:id/reviews", movieHandler.SubmitReview)         // POST /movies/:id/reviews
		movies.POST("/:id/trailer/edit", movieHandler.EditTrailer)     // POST /movies/:id/trailer/edit
		movies.POST("/:id/trailer", movieHandler.SaveTrailer)          // POST /movies/:id/trailer
		movies.POST("/:id/trailer/cancel", movieHandler.CancelTrailer) // POST /movies/:id/trailer/cancel
		movies.POST("/:id/watchlist", movieHandler.ToggleWatchlist)    // POST /movies/:id/watchlist
	}

	// Watchlist pages
	watchlist := e.Group("/watchlist")
	{
		watchlist.GET("", watchlistHandler.Show)
		watchlist.POST("/:id/remove", watchlistHandler.Remove) // POST /watchlist/:id/remove
	}

	// Add movie
	e.GET("/add", movieHandler.AddMovieForm)
	e.POST("/add", movieHandler.AddMovie)
}
