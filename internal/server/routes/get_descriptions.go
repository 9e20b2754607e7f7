package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SizeMattersAI/eliza-agent/internal/server/middleware"
	"github.com/SizeMattersAI/eliza-agent/internal/store"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
)

// GetDescriptionHandler returns the state and result of a describe job.
func GetDescriptionHandler(c echo.Context) error {
	type getDescriptionParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getDescriptionResponse struct {
		Message string                `json:"message"`
		Job     *store.DescriptionJob `json:"job,omitempty"`
	}

	params := new(getDescriptionParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getDescriptionResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getDescriptionResponse{
			Message: "Invalid request",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	job, err := store.New(app.DBConn).GetDescriptionJob(ctx, params.ID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, getDescriptionResponse{
			Message: "Job not found",
		})
	}
	if err != nil {
		logger.Error("Failed to get description job", "job_id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getDescriptionResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getDescriptionResponse{
		Message: "OK",
		Job:     &job,
	})
}

// GetSimilarDescriptionsHandler embeds the query text and returns the
// completed jobs whose descriptions are closest in embedding space.
func GetSimilarDescriptionsHandler(c echo.Context) error {
	type similarParams struct {
		Query string `query:"text" validate:"required"`
		Limit int32  `query:"limit"`
	}

	type similarResponse struct {
		Message string                 `json:"message"`
		Jobs    []store.DescriptionJob `json:"jobs,omitempty"`
	}

	params := new(similarParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, similarResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, similarResponse{
			Message: "Invalid request",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	provider, err := app.Describe.Provider(ctx)
	if err != nil {
		logger.Error("Vision provider unavailable for similarity search", "err", err)
		return c.JSON(http.StatusInternalServerError, similarResponse{
			Message: "Internal server error",
		})
	}

	embedding, err := provider.GenerateEmbedding(ctx, params.Query)
	if err != nil {
		logger.Error("Failed to embed similarity query", "err", err)
		return c.JSON(http.StatusInternalServerError, similarResponse{
			Message: "Internal server error",
		})
	}
	if len(embedding) != store.EmbeddingDim {
		return c.JSON(http.StatusOK, similarResponse{
			Message: "Similarity search is not available for the active embedding model",
			Jobs:    []store.DescriptionJob{},
		})
	}

	jobs, err := store.New(app.DBConn).SimilarDescriptions(ctx, embedding, params.Limit)
	if err != nil {
		logger.Error("Failed to query similar descriptions", "err", err)
		return c.JSON(http.StatusInternalServerError, similarResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, similarResponse{
		Message: "OK",
		Jobs:    jobs,
	})
}
