package ollama

import (
	"context"

	"github.com/ollama/ollama/api"

	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

// maxNewTokens caps generation length for image captions.
const maxNewTokens = 256

// Describe sends a vision chat request with the raw image and returns the
// generated caption. Local models do not distinguish a title from a body,
// so the caption is used for both.
func (c *VisionClient) Describe(ctx context.Context, img loader.Image) (vision.Description, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return vision.Description{}, err
	}
	defer c.reqLock.Release(1)

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: vision.CaptionPrompt},
			{
				Role:    "user",
				Content: "",
				Images:  []api.ImageData{img.Data},
			},
		},
		Stream: &stream,
		Options: map[string]any{
			"num_predict": maxNewTokens,
		},
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final = cr
		return nil
	}); err != nil {
		return vision.Description{}, &vision.GenerationError{Model: c.model, Err: err}
	}

	caption := postprocessCaption(final.Message.Content)
	return vision.Description{
		Title:       caption,
		Description: caption,
	}, nil
}
