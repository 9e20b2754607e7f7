package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"

	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

// Describe sends a vision request with the image as a base64 data URL and
// parses the reply into a title/description pair.
func (c *VisionClient) Describe(ctx context.Context, img loader.Image) (vision.Description, error) {
	url := fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(vision.DescribePrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: url,
				}),
			}),
		},
	}

	response, err := c.Client.Chat.Completions.New(ctx, body)
	if err != nil {
		return vision.Description{}, c.wrapError(err)
	}
	if len(response.Choices) == 0 {
		return vision.Description{}, fmt.Errorf("openai returned no choices")
	}

	return vision.SplitReply(response.Choices[0].Message.Content), nil
}

// GenerateCompletion sends a single-turn text prompt and returns the reply.
func (c *VisionClient) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	response, err := c.Client.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", c.wrapError(err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// GenerateEmbedding returns the embedding vector for the given text.
func (c *VisionClient) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	response, err := c.Client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(input),
		},
	})
	if err != nil {
		return nil, c.wrapError(err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embedding")
	}

	embedding := make([]float32, len(response.Data[0].Embedding))
	for i, v := range response.Data[0].Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// wrapError logs API failures with their status and body, then converts
// them into a vision.APIError.
func (c *VisionClient) wrapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		logger.Error("OpenAI request failed", "status", apierr.StatusCode, "body", apierr.RawJSON())
		return &vision.APIError{Provider: vision.BackendOpenAI, Status: apierr.StatusCode}
	}
	return err
}
