package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

// VisionClient implements the vision.Provider interface using the Google
// Gemini generate-content API. It is stateless beyond holding credentials,
// so Initialize is a no-op.
type VisionClient struct {
	model          string
	embeddingModel string

	Client *genai.Client
}

// NewVisionClientParams defines the configuration parameters for creating
// a new VisionClient.
type NewVisionClientParams struct {
	Model          string
	EmbeddingModel string

	ApiKey string
}

// NewVisionClient creates a new Gemini-backed vision client.
func NewVisionClient(ctx context.Context, params NewVisionClientParams) (*VisionClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  params.ApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &VisionClient{
		model:          params.Model,
		embeddingModel: params.EmbeddingModel,

		Client: client,
	}, nil
}

// Name returns the backend name.
func (c *VisionClient) Name() string {
	return string(vision.BackendGoogle)
}

// Initialize is a no-op for Gemini as models are hosted remotely.
func (c *VisionClient) Initialize(ctx context.Context) error {
	return nil
}

// Describe sends the image as an inline base64 blob and parses the reply
// into a title/description pair.
func (c *VisionClient) Describe(ctx context.Context, img loader.Image) (vision.Description, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(vision.DescribePrompt),
		{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data}},
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.Client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return vision.Description{}, c.wrapError(err)
	}

	text := collectText(resp)
	if text == "" {
		return vision.Description{}, fmt.Errorf("gemini returned no text")
	}
	return vision.SplitReply(text), nil
}

// GenerateCompletion sends a single-turn text prompt and returns the reply.
func (c *VisionClient) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(
		[]*genai.Part{genai.NewPartFromText(prompt)},
		genai.RoleUser,
	)}

	resp, err := c.Client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", c.wrapError(err)
	}

	text := collectText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// GenerateEmbedding returns the embedding vector for the given text.
func (c *VisionClient) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromParts(
		[]*genai.Part{genai.NewPartFromText(input)},
		genai.RoleUser,
	)}

	resp, err := c.Client.Models.EmbedContent(ctx, c.embeddingModel, contents, nil)
	if err != nil {
		return nil, c.wrapError(err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding")
	}

	return resp.Embeddings[0].Values, nil
}

func (c *VisionClient) wrapError(err error) error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		logger.Error("Gemini request failed", "status", apierr.Code, "body", apierr.Message)
		return &vision.APIError{Provider: vision.BackendGoogle, Status: apierr.Code}
	}
	return err
}

func collectText(resp *genai.GenerateContentResponse) string {
	var out strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			out.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(out.String())
}
