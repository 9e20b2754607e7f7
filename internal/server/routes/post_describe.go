package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SizeMattersAI/eliza-agent/internal/server/middleware"
	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

// DescribeRequest is the payload for the synchronous describe action.
type DescribeRequest struct {
	ImageURL string `json:"image_url" validate:"required"`
}

// DescribeHandler produces a title and description for an image. When the
// measurement shortcut applies the result is the formatted measurement
// instead of a vision caption.
func DescribeHandler(c echo.Context) error {
	type describeResponse struct {
		Message     string `json:"message"`
		Title       string `json:"title,omitempty"`
		Description string `json:"description,omitempty"`
	}

	data := new(DescribeRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, describeResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, describeResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	svc := c.(*middleware.AppContext).App.Describe

	result, err := svc.DescribeImage(ctx, data.ImageURL)
	if err != nil {
		var configErr *vision.ConfigError
		if errors.As(err, &configErr) {
			logger.Error("Vision provider misconfigured", "err", err)
			return c.JSON(http.StatusInternalServerError, describeResponse{
				Message: "Vision provider is not configured",
			})
		}

		var fetchErr *loader.FetchError
		if errors.As(err, &fetchErr) || errors.Is(err, loader.ErrEmptyImage) {
			return c.JSON(http.StatusBadRequest, describeResponse{
				Message: "Could not load image",
			})
		}

		logger.Error("Failed to describe image", "err", err)
		return c.JSON(http.StatusInternalServerError, describeResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, describeResponse{
		Message:     "Image described successfully",
		Title:       result.Title,
		Description: result.Description,
	})
}
