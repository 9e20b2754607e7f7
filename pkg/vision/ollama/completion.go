package ollama

import (
	"context"
	"errors"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"

	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

var errNoEmbedding = errors.New("no embedding returned")

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *VisionClient) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream:  &stream,
		Options: map[string]any{"temperature": 0.3},
	}

	tokens := 200
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return "", err
	}
	tokens += len(enc.Encode(prompt, nil, nil))
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		return nil
	}); err != nil {
		return "", &vision.GenerationError{Model: c.model, Err: err}
	}

	return final.Message.Content, nil
}

// GenerateEmbedding returns the embedding vector for the given text.
func (c *VisionClient) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	resp, err := c.Client.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: input,
	})
	if err != nil {
		return nil, &vision.GenerationError{Model: c.model, Err: err}
	}
	if len(resp.Embeddings) == 0 {
		return nil, &vision.GenerationError{Model: c.model, Err: errNoEmbedding}
	}

	return resp.Embeddings[0], nil
}

// postprocessCaption cleans up raw model output into a single caption line.
func postprocessCaption(raw string) string {
	caption := strings.TrimSpace(raw)
	caption = strings.Trim(caption, `"`)
	return strings.TrimSpace(caption)
}
