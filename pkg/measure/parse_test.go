package measure

import (
	"encoding/json"
	"testing"
)

func TestFlexNumberUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantValue   float64
		wantDisplay string
	}{
		{
			name:        "plain_number",
			input:       `{"measurement": 12.5}`,
			wantValue:   12.5,
			wantDisplay: "12.5",
		},
		{
			name:        "quoted_number",
			input:       `{"measurement": "12.5"}`,
			wantValue:   12.5,
			wantDisplay: "12.5",
		},
		{
			name:        "quoted_number_keeps_wire_formatting",
			input:       `{"measurement": "12.50"}`,
			wantValue:   12.5,
			wantDisplay: "12.50",
		},
		{
			name:        "zero",
			input:       `{"measurement": 0}`,
			wantValue:   0,
			wantDisplay: "0",
		},
		{
			name:        "quoted_zero",
			input:       `{"measurement": "0"}`,
			wantValue:   0,
			wantDisplay: "0",
		},
		{
			name:        "garbage_string_decodes_to_zero",
			input:       `{"measurement": "huge"}`,
			wantValue:   0,
			wantDisplay: "0",
		},
		{
			name:        "null_decodes_to_zero",
			input:       `{"measurement": null}`,
			wantValue:   0,
			wantDisplay: "0",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var data struct {
				Measurement FlexNumber `json:"measurement"`
			}
			if err := json.Unmarshal([]byte(tc.input), &data); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if data.Measurement.Value != tc.wantValue {
				t.Fatalf("value: got %v, want %v", data.Measurement.Value, tc.wantValue)
			}
			if got := data.Measurement.Display(); got != tc.wantDisplay {
				t.Fatalf("display: got %q, want %q", got, tc.wantDisplay)
			}
		})
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	t.Parallel()

	type payload struct {
		PredictionID string     `json:"prediction_id"`
		Measurement  FlexNumber `json:"measurement"`
	}

	tests := []struct {
		name    string
		input   string
		wantID  string
		wantCm  float64
		wantErr bool
	}{
		{
			name:   "well_formed",
			input:  `{"prediction_id": "abc", "measurement": 12.5}`,
			wantID: "abc",
			wantCm: 12.5,
		},
		{
			name:   "double_encoded",
			input:  `"{\"prediction_id\": \"abc\", \"measurement\": 12.5}"`,
			wantID: "abc",
			wantCm: 12.5,
		},
		{
			name:   "trailing_comma_is_repaired",
			input:  `{"prediction_id": "abc", "measurement": 12.5,}`,
			wantID: "abc",
			wantCm: 12.5,
		},
		{
			name:   "duplicate_leading_brace_is_stripped",
			input:  `{{"prediction_id": "abc", "measurement": 12.5}`,
			wantID: "abc",
			wantCm: 12.5,
		},
		{
			name:    "hopeless_input_fails",
			input:   `<!DOCTYPE html><html></html>`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			data := new(payload)
			err := UnmarshalFlexible(tc.input, data)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if data.PredictionID != tc.wantID {
				t.Fatalf("prediction_id: got %q, want %q", data.PredictionID, tc.wantID)
			}
			if data.Measurement.Value != tc.wantCm {
				t.Fatalf("measurement: got %v, want %v", data.Measurement.Value, tc.wantCm)
			}
		})
	}
}
