package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SizeMattersAI/eliza-agent/internal/server/middleware"
	"github.com/SizeMattersAI/eliza-agent/internal/store"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
)

// GetLeaderboardHandler returns the largest recorded measurements.
func GetLeaderboardHandler(c echo.Context) error {
	type leaderboardParams struct {
		Limit int32 `query:"limit"`
	}

	type leaderboardResponse struct {
		Message string              `json:"message"`
		Entries []store.Measurement `json:"entries,omitempty"`
	}

	params := new(leaderboardParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, leaderboardResponse{
			Message: "Invalid request",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	entries, err := store.New(app.DBConn).Leaderboard(ctx, params.Limit)
	if err != nil {
		logger.Error("Failed to query leaderboard", "err", err)
		return c.JSON(http.StatusInternalServerError, leaderboardResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, leaderboardResponse{
		Message: "OK",
		Entries: entries,
	})
}
