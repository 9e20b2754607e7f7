package describe

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
	"github.com/SizeMattersAI/eliza-agent/pkg/measure"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision/google"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision/ollama"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision/openai"
)

// Config holds the provider selection and credentials for a Service.
type Config struct {
	VisionProvider string // explicit override: "ollama", "openai" or "google"
	ModelProvider  string // the character's general model provider

	OpenAIModel          string
	OpenAIEmbeddingModel string
	OpenAIBaseURL        string
	OpenAIKey            string

	GoogleModel          string
	GoogleEmbeddingModel string
	GoogleKey            string

	OllamaModel         string
	OllamaBaseURL       string
	OllamaKey           string
	OllamaMaxConcurrent int64

	MeasureBaseURL string // empty disables the measurement shortcut
}

// Service orchestrates the describe pipeline: measurement shortcut first,
// then image acquisition and the active vision provider. The provider is
// selected and initialized lazily, exactly once per service lifetime.
type Service struct {
	config   Config
	loader   *loader.ImageLoader
	override vision.Provider

	group singleflight.Group

	mu       sync.RWMutex
	provider vision.Provider
	measurer *measure.Client
}

// NewServiceParams contains configuration for creating a describe Service.
type NewServiceParams struct {
	Config Config
	Loader *loader.ImageLoader

	// Provider overrides config-driven selection when set. Used by tests
	// and by hosts that construct their own backend. It is still
	// initialized lazily on first use.
	Provider vision.Provider
}

// NewService creates a new describe service.
func NewService(params NewServiceParams) *Service {
	l := params.Loader
	if l == nil {
		l = loader.NewImageLoader(loader.NewImageLoaderParams{})
	}
	return &Service{
		config:   params.Config,
		loader:   l,
		override: params.Provider,
	}
}

// Provider returns the active vision provider, selecting and initializing
// it on first use. Concurrent first calls share a single in-flight
// initialization; a failed initialization is not cached and may be retried.
func (s *Service) Provider(ctx context.Context) (vision.Provider, error) {
	s.mu.RLock()
	if s.provider != nil {
		provider := s.provider
		s.mu.RUnlock()
		return provider, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.group.Do("provider", func() (any, error) {
		s.mu.RLock()
		if s.provider != nil {
			provider := s.provider
			s.mu.RUnlock()
			return provider, nil
		}
		s.mu.RUnlock()

		provider, err := s.resolveProvider(ctx)
		if err != nil {
			return nil, err
		}
		if err := provider.Initialize(ctx); err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.provider = provider
		s.mu.Unlock()

		logger.Info("Vision provider initialized", "provider", provider.Name())
		return provider, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(vision.Provider), nil
}

func (s *Service) resolveProvider(ctx context.Context) (vision.Provider, error) {
	if s.override != nil {
		return s.override, nil
	}

	backend, err := vision.ResolveBackend(s.config.VisionProvider, s.config.ModelProvider)
	if err != nil {
		return nil, err
	}

	switch backend {
	case vision.BackendOllama:
		return ollama.NewVisionClient(ollama.NewVisionClientParams{
			Model:                 s.config.OllamaModel,
			BaseURL:               s.config.OllamaBaseURL,
			ApiKey:                s.config.OllamaKey,
			MaxConcurrentRequests: s.config.OllamaMaxConcurrent,
		})
	case vision.BackendGoogle:
		if s.config.GoogleKey == "" {
			return nil, &vision.ConfigError{Setting: "google api key", Value: ""}
		}
		return google.NewVisionClient(ctx, google.NewVisionClientParams{
			Model:          s.config.GoogleModel,
			EmbeddingModel: s.config.GoogleEmbeddingModel,
			ApiKey:         s.config.GoogleKey,
		})
	default:
		if s.config.OpenAIKey == "" {
			return nil, &vision.ConfigError{Setting: "openai api key", Value: ""}
		}
		return openai.NewVisionClient(openai.NewVisionClientParams{
			Model:          s.config.OpenAIModel,
			EmbeddingModel: s.config.OpenAIEmbeddingModel,
			BaseURL:        s.config.OpenAIBaseURL,
			ApiKey:         s.config.OpenAIKey,
		}), nil
	}
}

// Measure runs only the measurement path. A nil result means the shortcut
// did not apply. The active provider, when available, supplies the witty
// one-liner; measurement itself never fails the call.
func (s *Service) Measure(ctx context.Context, imageURL string) *measure.Response {
	if s.config.MeasureBaseURL == "" {
		return nil
	}
	return s.measurementClient(ctx).Measure(ctx, imageURL)
}

func (s *Service) measurementClient(ctx context.Context) *measure.Client {
	s.mu.RLock()
	if s.measurer != nil {
		client := s.measurer
		s.mu.RUnlock()
		return client
	}
	s.mu.RUnlock()

	// Witty captions are best-effort: a provider that cannot be
	// initialized only disables them.
	var completer measure.Completer
	if provider, err := s.Provider(ctx); err == nil {
		completer = provider
	}

	client := measure.NewClient(measure.NewClientParams{
		BaseURL:    s.config.MeasureBaseURL,
		HTTPClient: http.DefaultClient,
		Completer:  completer,
	})

	s.mu.Lock()
	s.measurer = client
	s.mu.Unlock()
	return client
}

// DescribeImage produces a title/description pair for the given image
// reference. The measurement shortcut is attempted first; on a miss the
// image is acquired and described by the active provider. Acquisition and
// provider errors propagate to the caller.
func (s *Service) DescribeImage(ctx context.Context, imageURL string) (vision.Description, error) {
	provider, err := s.Provider(ctx)
	if err != nil {
		return vision.Description{}, err
	}

	if m := s.Measure(ctx, imageURL); m != nil {
		return vision.Description{
			Title:       fmt.Sprintf("Size Measurement: %scm", m.Measurement),
			Description: m.FormattedText,
		}, nil
	}

	img, err := s.loader.Load(ctx, imageURL)
	if err != nil {
		return vision.Description{}, err
	}

	return provider.Describe(ctx, img)
}
