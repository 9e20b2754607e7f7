package vision

import (
	"context"
	"fmt"

	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
)

// Backend names a vision provider implementation.
type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
	BackendGoogle Backend = "google"
)

// Description is the result of describing a single image.
type Description struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Provider turns image bytes into a title/description pair using a
// specific vision backend. Initialize must be idempotent; it is called
// once after selection and may be slow for local models.
type Provider interface {
	Name() string
	Initialize(ctx context.Context) error
	Describe(ctx context.Context, img loader.Image) (Description, error)
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
	GenerateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// ConfigError reports an invalid provider selection or missing credentials.
type ConfigError struct {
	Setting string
	Value   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%q", e.Setting, e.Value)
}

// APIError reports a non-success response from a remote vision API.
type APIError struct {
	Provider Backend
	Status   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status %d", e.Provider, e.Status)
}

// GenerationError reports a local-model inference failure.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for model %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ResolveBackend maps configuration to the backend to use. An explicit
// override takes priority and must name a known backend; otherwise the
// general model-provider setting decides, with OpenAI as the default.
func ResolveBackend(override string, modelProvider string) (Backend, error) {
	if override != "" {
		switch override {
		case "ollama", "local":
			return BackendOllama, nil
		case "google":
			return BackendGoogle, nil
		case "openai":
			return BackendOpenAI, nil
		default:
			return "", &ConfigError{Setting: "vision provider", Value: override}
		}
	}

	switch modelProvider {
	case "ollama", "local":
		return BackendOllama, nil
	case "google":
		return BackendGoogle, nil
	default:
		return BackendOpenAI, nil
	}
}
