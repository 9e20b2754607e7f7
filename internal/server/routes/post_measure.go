package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SizeMattersAI/eliza-agent/internal/server/middleware"
	"github.com/SizeMattersAI/eliza-agent/internal/store"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
	"github.com/SizeMattersAI/eliza-agent/pkg/measure"
)

// MeasureRequest is the payload for the size measurement action.
type MeasureRequest struct {
	ImageURL string `json:"image_url" validate:"required"`
}

// MeasureHandler forwards the image to the measurement API. A miss is not
// an error: the response reports measured=false and the caller falls back
// to regular description.
func MeasureHandler(c echo.Context) error {
	type measureResponse struct {
		Message  string            `json:"message"`
		Measured bool              `json:"measured"`
		Result   *measure.Response `json:"result,omitempty"`
	}

	data := new(MeasureRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, measureResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, measureResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result := app.Describe.Measure(ctx, data.ImageURL)
	if result == nil {
		return c.JSON(http.StatusOK, measureResponse{
			Message:  "No measurement available for this image",
			Measured: false,
		})
	}

	s := store.New(app.DBConn)
	_, err := s.InsertMeasurement(ctx, store.InsertMeasurementParams{
		PredictionID:      result.PredictionID,
		MeasurementCm:     result.MeasurementCm,
		Age:               result.Age,
		SocialConnections: result.SocialConnections,
		WalletAddress:     result.WalletAddress,
		ImageURL:          data.ImageURL,
	})
	if err != nil {
		logger.Error("Failed to record measurement", "err", err)
	}

	return c.JSON(http.StatusOK, measureResponse{
		Message:  "Image measured successfully",
		Measured: true,
		Result:   result,
	})
}
