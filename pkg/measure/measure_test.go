package measure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
)

type fakeCompleter struct {
	line string
	err  error
}

func (f *fakeCompleter) GenerateCompletion(context.Context, string) (string, error) {
	return f.line, f.err
}

func newMeasureServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/measure" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestMeasure(t *testing.T) {
	t.Parallel()

	t.Run("successful_measurement", func(t *testing.T) {
		srv := newMeasureServer(t, http.StatusOK, `{"prediction_id": "abc", "measurement": "12.5", "wallet_address": "0xdead"}`)
		defer srv.Close()

		c := NewClient(NewClientParams{
			BaseURL:    srv.URL,
			HTTPClient: srv.Client(),
			Completer:  &fakeCompleter{line: "Zing!"},
		})

		result := c.Measure(context.Background(), "https://example.com/photo.jpg")
		if result == nil {
			t.Fatal("expected a result, got nil")
		}
		if result.Measurement != "12.5" {
			t.Fatalf("measurement: got %q, want %q", result.Measurement, "12.5")
		}
		if result.MeasurementCm != 12.5 {
			t.Fatalf("measurement_cm: got %v, want 12.5", result.MeasurementCm)
		}
		if result.WalletAddress != "0xdead" {
			t.Fatalf("wallet_address: got %q", result.WalletAddress)
		}
		if want := srv.URL + "/photo/abc"; result.WebsiteURL != want {
			t.Fatalf("website_url: got %q, want %q", result.WebsiteURL, want)
		}
		if !strings.HasPrefix(result.FormattedText, "Zing!\n") {
			t.Fatalf("formatted text missing witty line: %q", result.FormattedText)
		}
		if !strings.Contains(result.FormattedText, "Measured at 12.5cm!") {
			t.Fatalf("formatted text missing measurement: %q", result.FormattedText)
		}
		if !strings.Contains(result.FormattedText, result.WebsiteURL) {
			t.Fatalf("formatted text missing website url: %q", result.FormattedText)
		}
	})

	t.Run("missing_prediction_id_links_to_base_url", func(t *testing.T) {
		srv := newMeasureServer(t, http.StatusOK, `{"measurement": 42}`)
		defer srv.Close()

		c := NewClient(NewClientParams{BaseURL: srv.URL, HTTPClient: srv.Client()})
		result := c.Measure(context.Background(), "https://example.com/photo.jpg")
		if result == nil {
			t.Fatal("expected a result, got nil")
		}
		if result.WebsiteURL != srv.URL {
			t.Fatalf("website_url: got %q, want %q", result.WebsiteURL, srv.URL)
		}
	})

	t.Run("zero_measurement_is_a_miss", func(t *testing.T) {
		srv := newMeasureServer(t, http.StatusOK, `{"prediction_id": "abc", "measurement": 0}`)
		defer srv.Close()

		c := NewClient(NewClientParams{BaseURL: srv.URL, HTTPClient: srv.Client()})
		if result := c.Measure(context.Background(), "x"); result != nil {
			t.Fatalf("expected nil, got %+v", result)
		}
	})

	t.Run("quoted_zero_is_a_miss", func(t *testing.T) {
		srv := newMeasureServer(t, http.StatusOK, `{"prediction_id": "abc", "measurement": "0"}`)
		defer srv.Close()

		c := NewClient(NewClientParams{BaseURL: srv.URL, HTTPClient: srv.Client()})
		if result := c.Measure(context.Background(), "x"); result != nil {
			t.Fatalf("expected nil, got %+v", result)
		}
	})

	t.Run("non_success_status_is_a_miss", func(t *testing.T) {
		srv := newMeasureServer(t, http.StatusBadRequest, `{"error": "no subject found"}`)
		defer srv.Close()

		c := NewClient(NewClientParams{BaseURL: srv.URL, HTTPClient: srv.Client()})
		if result := c.Measure(context.Background(), "x"); result != nil {
			t.Fatalf("expected nil, got %+v", result)
		}
	})

	t.Run("unreachable_api_is_a_miss", func(t *testing.T) {
		c := NewClient(NewClientParams{BaseURL: "http://127.0.0.1:1"})
		if result := c.Measure(context.Background(), "x"); result != nil {
			t.Fatalf("expected nil, got %+v", result)
		}
	})
}

func TestWittyLineFallsBackToCannedJoke(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		completer Completer
	}{
		{
			name:      "no_completer",
			completer: nil,
		},
		{
			name:      "completer_error",
			completer: &fakeCompleter{err: errors.New("model offline")},
		},
		{
			name:      "blank_completion",
			completer: &fakeCompleter{line: "   "},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := NewClient(NewClientParams{BaseURL: "http://example.com", Completer: tc.completer})
			line := c.wittyLine(context.Background())
			if !slices.Contains(cannedJokes, line) {
				t.Fatalf("got %q, want one of the canned jokes", line)
			}
		})
	}
}
