package server

import (
	"context"

	"github.com/SizeMattersAI/eliza-agent/internal/storage"
	"github.com/SizeMattersAI/eliza-agent/internal/util"
	"github.com/SizeMattersAI/eliza-agent/pkg/describe"
	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
)

// NewDescribeService builds the describe pipeline from environment
// configuration. Shared by the API server and the queue worker.
func NewDescribeService(ctx context.Context) *describe.Service {
	var objects loader.ObjectFetcher
	if s3 := storage.NewObjectStorage(ctx); s3 != nil {
		objects = s3
	}

	imageLoader := loader.NewImageLoader(loader.NewImageLoaderParams{
		Objects: objects,
	})

	return describe.NewService(describe.NewServiceParams{
		Loader: imageLoader,
		Config: describe.Config{
			VisionProvider: util.GetEnv("VISION_PROVIDER"),
			ModelProvider:  util.GetEnv("MODEL_PROVIDER"),

			OpenAIModel:          util.GetEnvString("OPENAI_VISION_MODEL", "gpt-4o-mini"),
			OpenAIEmbeddingModel: util.GetEnvString("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
			OpenAIBaseURL:        util.GetEnv("OPENAI_BASE_URL"),
			OpenAIKey:            util.GetEnv("OPENAI_API_KEY"),

			GoogleModel:          util.GetEnvString("GOOGLE_VISION_MODEL", "gemini-2.0-flash"),
			GoogleEmbeddingModel: util.GetEnvString("GOOGLE_EMBED_MODEL", "gemini-embedding-001"),
			GoogleKey:            util.GetEnv("GOOGLE_API_KEY"),

			OllamaModel:         util.GetEnvString("OLLAMA_VISION_MODEL", "llama3.2-vision"),
			OllamaBaseURL:       util.GetEnv("OLLAMA_URL"),
			OllamaKey:           util.GetEnv("OLLAMA_API_KEY"),
			OllamaMaxConcurrent: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 1)),

			MeasureBaseURL: util.GetEnv("MEASURE_API_URL"),
		},
	})
}
