package loader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestMimeFromExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "no_extension_defaults_to_jpeg",
			ref:  "https://example.com/image",
			want: "image/jpeg",
		},
		{
			name: "jpg_normalizes_to_jpeg",
			ref:  "photo.jpg",
			want: "image/jpeg",
		},
		{
			name: "jpeg_stays_jpeg",
			ref:  "photo.jpeg",
			want: "image/jpeg",
		},
		{
			name: "png",
			ref:  "diagram.png",
			want: "image/png",
		},
		{
			name: "webp",
			ref:  "photo.webp",
			want: "image/webp",
		},
		{
			name: "uppercase_extension",
			ref:  "PHOTO.PNG",
			want: "image/png",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := MimeFromExtension(tc.ref)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoadLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, []byte("not-really-png"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewImageLoader(NewImageLoaderParams{})
	img, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(img.Data) != "not-really-png" {
		t.Fatalf("got data %q", img.Data)
	}
	if img.MimeType != "image/png" {
		t.Fatalf("got mime %q, want image/png", img.MimeType)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.png")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewImageLoader(NewImageLoaderParams{})
	_, err := l.Load(context.Background(), path)
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("got %v, want ErrEmptyImage", err)
	}
}

func TestLoadRemote(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed":
			w.Header().Set("Content-Type", "image/webp; charset=binary")
			w.Write([]byte("webp-bytes"))
		case "/untyped":
			w.Header()["Content-Type"] = nil
			w.Write([]byte("mystery-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewImageLoader(NewImageLoaderParams{HTTPClient: srv.Client()})

	t.Run("content_type_header_wins", func(t *testing.T) {
		img, err := l.Load(context.Background(), srv.URL+"/typed")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if img.MimeType != "image/webp" {
			t.Fatalf("got mime %q, want image/webp", img.MimeType)
		}
		if string(img.Data) != "webp-bytes" {
			t.Fatalf("got data %q", img.Data)
		}
	})

	t.Run("missing_content_type_defaults_to_jpeg", func(t *testing.T) {
		img, err := l.Load(context.Background(), srv.URL+"/untyped")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if img.MimeType != "image/jpeg" {
			t.Fatalf("got mime %q, want image/jpeg", img.MimeType)
		}
	})

	t.Run("non_success_status_is_a_fetch_error", func(t *testing.T) {
		_, err := l.Load(context.Background(), srv.URL+"/missing")
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("got %v, want FetchError", err)
		}
		if fetchErr.Status != http.StatusNotFound {
			t.Fatalf("got status %d, want 404", fetchErr.Status)
		}
	})
}

type fakeObjects struct {
	key  string
	data []byte
}

func (f *fakeObjects) GetObject(_ context.Context, key string) ([]byte, error) {
	f.key = key
	return f.data, nil
}

func TestLoadS3Reference(t *testing.T) {
	t.Parallel()

	objects := &fakeObjects{data: []byte("bucket-bytes")}
	l := NewImageLoader(NewImageLoaderParams{Objects: objects})

	img, err := l.Load(context.Background(), "s3://uploads/photo.webp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if objects.key != "uploads/photo.webp" {
		t.Fatalf("got key %q, want uploads/photo.webp", objects.key)
	}
	if string(img.Data) != "bucket-bytes" {
		t.Fatalf("got data %q", img.Data)
	}
	if img.MimeType != "image/webp" {
		t.Fatalf("got mime %q, want image/webp", img.MimeType)
	}
}

func TestLoadS3ReferenceWithoutStore(t *testing.T) {
	t.Parallel()

	l := NewImageLoader(NewImageLoaderParams{})
	if _, err := l.Load(context.Background(), "s3://uploads/photo.png"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func encodeTestGIF(t *testing.T, frames int) []byte {
	t.Helper()

	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		palette := color.Palette{color.Black, color.White}
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
		frame.SetColorIndex(i%4, i%4, 1)
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadGIFExtractsFirstFrameAsPNG(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	gifPath := filepath.Join(srcDir, "animated.gif")
	if err := os.WriteFile(gifPath, encodeTestGIF(t, 3), 0o644); err != nil {
		t.Fatal(err)
	}

	tempDir := t.TempDir()
	l := NewImageLoader(NewImageLoaderParams{TempDir: tempDir})

	img, err := l.Load(context.Background(), gifPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MimeType != "image/png" {
		t.Fatalf("got mime %q, want image/png", img.MimeType)
	}

	frame, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("result is not a decodable png: %v", err)
	}
	bounds := frame.Bounds()
	if bounds.Dx() != 4 || bounds.Dy() != 4 {
		t.Fatalf("got frame bounds %v, want 4x4", bounds)
	}

	// The intermediate frame file must be gone after extraction.
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned up, %d entries left", len(entries))
	}
}

func TestLoadGIFCleansUpWhenReadBackFails(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	gifPath := filepath.Join(srcDir, "animated.gif")
	if err := os.WriteFile(gifPath, encodeTestGIF(t, 2), 0o644); err != nil {
		t.Fatal(err)
	}

	tempDir := t.TempDir()
	l := NewImageLoader(NewImageLoaderParams{TempDir: tempDir})
	l.readFile = func(string) ([]byte, error) {
		return nil, errors.New("disk gone")
	}

	if _, err := l.Load(context.Background(), gifPath); err == nil {
		t.Fatal("expected error, got nil")
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned up after failed read, %d entries left", len(entries))
	}
}

func TestLoadGIFRejectsGarbage(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	gifPath := filepath.Join(srcDir, "broken.gif")
	if err := os.WriteFile(gifPath, []byte("definitely not a gif"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewImageLoader(NewImageLoaderParams{TempDir: t.TempDir()})
	if _, err := l.Load(context.Background(), gifPath); err == nil {
		t.Fatal("expected error, got nil")
	}
}
