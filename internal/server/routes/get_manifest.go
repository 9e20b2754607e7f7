package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SizeMattersAI/eliza-agent/pkg/plugin"
)

// GetManifestHandler serves the action manifest so agent hosts can register
// the plugin's capabilities.
func GetManifestHandler(c echo.Context) error {
	manifest := plugin.Manifest{
		Name:    "eliza-agent",
		Version: "1.0.0",
		Actions: []plugin.Action{
			{
				Name:        "DESCRIBE_IMAGE",
				Description: "Describe an image with a title and a detailed description. Images that contain a measurable subject return a size measurement instead.",
				Parameters:  plugin.GenerateSchema(DescribeRequest{}),
			},
			{
				Name:        "MEASURE_SIZE",
				Description: "Measure the size of the subject in an image and format the result with a playful caption.",
				Parameters:  plugin.GenerateSchema(MeasureRequest{}),
			},
		},
	}

	return c.JSON(http.StatusOK, manifest)
}
