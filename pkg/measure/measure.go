package measure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
)

// Completer is the language-model capability used for witty one-liners.
// Any vision.Provider satisfies it.
type Completer interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// Response is the terminal output of the measurement path.
type Response struct {
	PredictionID      string  `json:"prediction_id"`
	Measurement       string  `json:"measurement"`
	MeasurementCm     float64 `json:"measurement_cm"`
	Age               string  `json:"age,omitempty"`
	SocialConnections string  `json:"social_connections,omitempty"`
	WalletAddress     string  `json:"wallet_address,omitempty"`
	WebsiteURL        string  `json:"website_url"`
	FormattedText     string  `json:"formatted_text"`
}

// Client calls the SizeMatters measurement API. All failures degrade to a
// nil result so callers can fall back to regular image description.
type Client struct {
	baseURL    string
	httpClient *http.Client
	completer  Completer
}

// NewClientParams contains configuration for creating a measurement Client.
type NewClientParams struct {
	BaseURL    string
	HTTPClient *http.Client // if nil, http.DefaultClient is used
	Completer  Completer    // optional, enables LLM-generated one-liners
}

// NewClient creates a new measurement client.
func NewClient(params NewClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(params.BaseURL, "/"),
		httpClient: httpClient,
		completer:  params.Completer,
	}
}

const wittyPrompt = `Write one short, playful one-liner reacting to a size
measurement result. Keep it under 15 words, no hashtags, no emoji.`

var cannedJokes = []string{
	"The tape measure never lies, but it does giggle sometimes.",
	"Science has spoken. The numbers are in.",
	"Measured with laboratory precision and zero mercy.",
}

type apiResponse struct {
	PredictionID      string     `json:"prediction_id"`
	Measurement       FlexNumber `json:"measurement"`
	Age               FlexNumber `json:"age"`
	SocialConnections FlexNumber `json:"social_connections"`
	WalletAddress     string     `json:"wallet_address"`
}

// Measure forwards the image URL to the measurement API and formats the
// result. It never returns an error: non-success statuses, unparsable
// bodies and zero-valued measurements all yield nil, which callers treat
// as "no measurement".
func (c *Client) Measure(ctx context.Context, imageURL string) *Response {
	body, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/measure", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Measurement request failed", "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("Measurement API returned non-success status", "status", resp.StatusCode)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	data := new(apiResponse)
	if err := UnmarshalFlexible(string(raw), data); err != nil {
		logger.Debug("Failed to parse measurement response", "err", err)
		return nil
	}
	if data.Measurement.Value == 0 {
		return nil
	}

	websiteURL := c.baseURL
	if data.PredictionID != "" {
		websiteURL = fmt.Sprintf("%s/photo/%s", c.baseURL, data.PredictionID)
	}

	return &Response{
		PredictionID:      data.PredictionID,
		Measurement:       data.Measurement.Display(),
		MeasurementCm:     data.Measurement.Value,
		Age:               data.Age.Display(),
		SocialConnections: data.SocialConnections.Display(),
		WalletAddress:     data.WalletAddress,
		WebsiteURL:        websiteURL,
		FormattedText:     c.formatText(ctx, data.Measurement.Display(), websiteURL),
	}
}

// formatText builds the display message, prefixed with a witty one-liner.
// The one-liner comes from the language model when available and falls
// back to a canned joke.
func (c *Client) formatText(ctx context.Context, measurement string, websiteURL string) string {
	return fmt.Sprintf(
		"%s\nMeasured at %scm! Think you can do better? Submit your own photo at %s",
		c.wittyLine(ctx), measurement, websiteURL,
	)
}

func (c *Client) wittyLine(ctx context.Context) string {
	if c.completer != nil {
		line, err := c.completer.GenerateCompletion(ctx, wittyPrompt)
		if err == nil {
			line = strings.TrimSpace(line)
			if line != "" {
				return line
			}
		} else {
			logger.Debug("Witty caption generation failed, using canned joke", "err", err)
		}
	}
	return cannedJokes[rand.IntN(len(cannedJokes))]
}
