package vision

import (
	"errors"
	"testing"
)

func TestResolveBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		override      string
		modelProvider string
		want          Backend
		wantErr       bool
	}{
		{
			name:     "override_ollama",
			override: "ollama",
			want:     BackendOllama,
		},
		{
			name:     "override_local_maps_to_ollama",
			override: "local",
			want:     BackendOllama,
		},
		{
			name:     "override_google",
			override: "google",
			want:     BackendGoogle,
		},
		{
			name:     "override_openai",
			override: "openai",
			want:     BackendOpenAI,
		},
		{
			name:     "unknown_override_is_an_error",
			override: "azure",
			wantErr:  true,
		},
		{
			name:          "model_provider_ollama",
			modelProvider: "ollama",
			want:          BackendOllama,
		},
		{
			name:          "model_provider_local_maps_to_ollama",
			modelProvider: "local",
			want:          BackendOllama,
		},
		{
			name:          "model_provider_google",
			modelProvider: "google",
			want:          BackendGoogle,
		},
		{
			name:          "model_provider_anything_else_defaults_to_openai",
			modelProvider: "anthropic",
			want:          BackendOpenAI,
		},
		{
			name: "nothing_configured_defaults_to_openai",
			want: BackendOpenAI,
		},
		{
			name:          "override_wins_over_model_provider",
			override:      "google",
			modelProvider: "ollama",
			want:          BackendGoogle,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveBackend(tc.override, tc.modelProvider)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var configErr *ConfigError
				if !errors.As(err, &configErr) {
					t.Fatalf("expected ConfigError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
