package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/SizeMattersAI/eliza-agent/internal/queue"
	"github.com/SizeMattersAI/eliza-agent/internal/server/middleware"
	"github.com/SizeMattersAI/eliza-agent/internal/store"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
)

// CreateDescribeJobRequest is the payload for the asynchronous describe
// action.
type CreateDescribeJobRequest struct {
	ImageURL string `json:"image_url" validate:"required"`
}

// CreateDescribeJobHandler enqueues a describe job and returns immediately.
// The worker picks the job up from the describe queue.
func CreateDescribeJobHandler(c echo.Context) error {
	type createJobResponse struct {
		Message string                `json:"message"`
		Job     *store.DescriptionJob `json:"job,omitempty"`
	}

	data := new(CreateDescribeJobRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createJobResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createJobResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	jobID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}

	s := store.New(app.DBConn)
	job, err := s.CreateDescriptionJob(ctx, jobID, data.ImageURL)
	if err != nil {
		logger.Error("Failed to create description job", "err", err)
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}

	msgBytes, err := json.Marshal(queue.DescribeJobMsg{
		JobID:    job.ID,
		ImageURL: job.ImageURL,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}

	if err := queue.PublishFIFO(app.Queue, queue.DescribeQueue, msgBytes); err != nil {
		logger.Error("Failed to publish describe job", "job_id", job.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, createJobResponse{
		Message: "Describe job created",
		Job:     &job,
	})
}
