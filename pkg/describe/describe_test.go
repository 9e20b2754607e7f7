package describe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/SizeMattersAI/eliza-agent/pkg/loader"
	"github.com/SizeMattersAI/eliza-agent/pkg/vision"
)

type fakeProvider struct {
	initCalls     atomic.Int64
	initFailures  int64
	describeCalls atomic.Int64
	description   vision.Description
	describeErr   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Initialize(context.Context) error {
	n := f.initCalls.Add(1)
	if n <= f.initFailures {
		return errors.New("init failed")
	}
	return nil
}

func (f *fakeProvider) Describe(context.Context, loader.Image) (vision.Description, error) {
	f.describeCalls.Add(1)
	return f.description, f.describeErr
}

func (f *fakeProvider) GenerateCompletion(context.Context, string) (string, error) {
	return "Zing!", nil
}

func (f *fakeProvider) GenerateEmbedding(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func measureServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
}

func TestDescribeImageMeasurementShortcut(t *testing.T) {
	t.Parallel()

	srv := measureServer(t, `{"prediction_id": "abc", "measurement": "12.5"}`)
	defer srv.Close()

	provider := &fakeProvider{}
	svc := NewService(NewServiceParams{
		Config:   Config{MeasureBaseURL: srv.URL},
		Provider: provider,
	})

	result, err := svc.DescribeImage(context.Background(), "https://example.com/photo.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Size Measurement: 12.5cm"; result.Title != want {
		t.Fatalf("title: got %q, want %q", result.Title, want)
	}
	if result.Description == "" {
		t.Fatal("expected formatted measurement text, got empty description")
	}
	if provider.describeCalls.Load() != 0 {
		t.Fatal("vision provider should not be invoked when the shortcut hits")
	}
}

func TestDescribeImageFallsThroughOnMeasurementMiss(t *testing.T) {
	t.Parallel()

	srv := measureServer(t, `{"prediction_id": "abc", "measurement": 0}`)
	defer srv.Close()

	provider := &fakeProvider{
		description: vision.Description{Title: "A bicycle", Description: "A red bicycle against a wall."},
	}
	svc := NewService(NewServiceParams{
		Config:   Config{MeasureBaseURL: srv.URL},
		Provider: provider,
	})

	result, err := svc.DescribeImage(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "A bicycle" {
		t.Fatalf("title: got %q", result.Title)
	}
	if provider.describeCalls.Load() != 1 {
		t.Fatalf("describe calls: got %d, want 1", provider.describeCalls.Load())
	}
}

func TestDescribeImageWithoutMeasurementAPI(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		description: vision.Description{Title: "A bicycle", Description: "A red bicycle."},
	}
	svc := NewService(NewServiceParams{Provider: provider})

	result, err := svc.DescribeImage(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "A bicycle" {
		t.Fatalf("title: got %q", result.Title)
	}
}

func TestDescribeImagePropagatesProviderErrors(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{describeErr: errors.New("model exploded")}
	svc := NewService(NewServiceParams{Provider: provider})

	if _, err := svc.DescribeImage(context.Background(), writeTestImage(t)); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestProviderResolutionRejectsUnknownOverride(t *testing.T) {
	t.Parallel()

	svc := NewService(NewServiceParams{
		Config: Config{VisionProvider: "azure"},
	})

	_, err := svc.Provider(context.Background())
	var configErr *vision.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}

func TestProviderResolutionRequiresOpenAIKey(t *testing.T) {
	t.Parallel()

	svc := NewService(NewServiceParams{
		Config: Config{ModelProvider: "openai"},
	})

	_, err := svc.Provider(context.Background())
	var configErr *vision.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}

func TestProviderInitializedOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc := NewService(NewServiceParams{Provider: provider})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Provider(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := provider.initCalls.Load(); got != 1 {
		t.Fatalf("init calls: got %d, want 1", got)
	}
}

func TestFailedInitializationIsRetried(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{initFailures: 1}
	svc := NewService(NewServiceParams{Provider: provider})

	if _, err := svc.Provider(context.Background()); err == nil {
		t.Fatal("expected first initialization to fail")
	}
	if _, err := svc.Provider(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := provider.initCalls.Load(); got != 2 {
		t.Fatalf("init calls: got %d, want 2", got)
	}
}
