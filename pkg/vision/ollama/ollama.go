package ollama

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

// VisionClient implements the vision.Provider interface using Ollama as the
// backend. The model is downloaded on Initialize and runs on the local
// Ollama server, so a single caption is produced per image.
type VisionClient struct {
	model string

	reqLock *semaphore.Weighted

	initMu      sync.Mutex
	initialized bool

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewVisionClientParams contains configuration options for creating a new VisionClient.
type NewVisionClientParams struct {
	Model string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewVisionClient creates a new Ollama-based vision client. It connects to
// the Ollama server at the given BaseURL (or the default if empty) and uses
// the configured model for captioning and completions.
func NewVisionClient(params NewVisionClientParams) (*VisionClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	return &VisionClient{
		model: params.Model,

		reqLock: sem,

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}

// Name returns the backend name.
func (c *VisionClient) Name() string {
	return string(vision.BackendOllama)
}

// Initialize downloads the vision model into the local Ollama instance.
// Download progress is logged as a percentage. Repeated calls after a
// successful download are no-ops; a failed download may be retried.
func (c *VisionClient) Initialize(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}

	logger.Info("Pulling vision model", "model", c.model)

	lastPercent := int64(-1)
	err := c.Client.Pull(ctx, &api.PullRequest{Model: c.model}, func(pr api.ProgressResponse) error {
		if pr.Total <= 0 {
			return nil
		}
		percent := pr.Completed * 100 / pr.Total
		if percent != lastPercent {
			lastPercent = percent
			logger.Info("Downloading vision model", "model", c.model, "status", pr.Status, "percent", percent)
		}
		return nil
	})
	if err != nil {
		return &vision.GenerationError{Model: c.model, Err: err}
	}

	c.initialized = true
	logger.Info("Vision model ready", "model", c.model)
	return nil
}
