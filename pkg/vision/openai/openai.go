package openai

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

// VisionClient implements the vision.Provider interface using the OpenAI
// chat-completions API. It is stateless beyond holding credentials, so
// Initialize is a no-op.
//
// A VisionClient should be created using NewVisionClient.
type VisionClient struct {
	model          string
	embeddingModel string

	Client *openai.Client
}

// NewVisionClientParams defines the configuration parameters for creating
// a new VisionClient.
//
// Model specifies the chat model used for image description and captions.
// EmbeddingModel specifies the model used for embeddings.
// BaseURL and ApiKey configure the API endpoint.
type NewVisionClientParams struct {
	Model          string
	EmbeddingModel string

	BaseURL string
	ApiKey  string
}

// NewVisionClient creates and returns a new VisionClient configured with
// the provided parameters.
//
// Example:
//
//	params := openai.NewVisionClientParams{
//		Model:          "gpt-4o-mini",
//		EmbeddingModel: "text-embedding-3-small",
//		ApiKey:         os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewVisionClient(params)
func NewVisionClient(params NewVisionClientParams) *VisionClient {
	options := []option.RequestOption{
		option.WithAPIKey(params.ApiKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}

	client := openai.NewClient(options...)

	return &VisionClient{
		model:          params.Model,
		embeddingModel: params.EmbeddingModel,

		Client: &client,
	}
}

// Name returns the backend name.
func (c *VisionClient) Name() string {
	return string(vision.BackendOpenAI)
}

// Initialize is a no-op for OpenAI as models are loaded on-demand.
func (c *VisionClient) Initialize(ctx context.Context) error {
	return nil
}
