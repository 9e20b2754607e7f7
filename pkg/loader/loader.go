package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/gif"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
)

// Image holds raw image bytes together with their MIME type.
type Image struct {
	Data     []byte
	MimeType string
}

// ErrEmptyImage is returned when acquisition yields a zero-length byte buffer.
var ErrEmptyImage = errors.New("image is empty")

// FetchError is returned when a remote image fetch responds with a
// non-success HTTP status.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch image from %s: status %d", e.URL, e.Status)
}

// ObjectFetcher retrieves raw object bytes from an object store by key.
// Implementations may load from S3-compatible storage or test doubles.
type ObjectFetcher interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// ImageLoader acquires image bytes from local paths, remote URLs and
// object-store keys. Animated GIFs are reduced to their first frame.
type ImageLoader struct {
	httpClient *http.Client
	objects    ObjectFetcher
	tempDir    string

	// readFile reads back the extracted frame file. Overridable in tests
	// to exercise the cleanup path when the read fails.
	readFile func(name string) ([]byte, error)
}

// NewImageLoaderParams contains configuration for creating an ImageLoader.
type NewImageLoaderParams struct {
	HTTPClient *http.Client  // if nil, http.DefaultClient is used
	Objects    ObjectFetcher // optional, enables s3:// refs
	TempDir    string        // if empty, os.TempDir() is used for GIF frames
}

// NewImageLoader creates a new image loader.
func NewImageLoader(params NewImageLoaderParams) *ImageLoader {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	tempDir := params.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &ImageLoader{
		httpClient: httpClient,
		objects:    params.Objects,
		tempDir:    tempDir,
		readFile:   os.ReadFile,
	}
}

// Load obtains the raw bytes and MIME type for the given image reference.
// A reference ending in .gif is reduced to its first frame and returned as
// PNG. References naming an existing local file are read from disk, s3://
// references are fetched from the object store, and anything else is
// treated as a remote URL.
func (l *ImageLoader) Load(ctx context.Context, imageRef string) (Image, error) {
	if strings.HasSuffix(strings.ToLower(imageRef), ".gif") {
		return l.loadGIFFrame(ctx, imageRef)
	}

	img, err := l.loadRaw(ctx, imageRef)
	if err != nil {
		return Image{}, err
	}
	if len(img.Data) == 0 {
		return Image{}, ErrEmptyImage
	}
	return img, nil
}

func (l *ImageLoader) loadRaw(ctx context.Context, imageRef string) (Image, error) {
	if key, ok := strings.CutPrefix(imageRef, "s3://"); ok {
		if l.objects == nil {
			return Image{}, fmt.Errorf("no object store configured for %s", imageRef)
		}
		data, err := l.objects.GetObject(ctx, key)
		if err != nil {
			return Image{}, err
		}
		return Image{Data: data, MimeType: MimeFromExtension(imageRef)}, nil
	}

	if info, err := os.Stat(imageRef); err == nil && !info.IsDir() {
		data, err := os.ReadFile(imageRef)
		if err != nil {
			return Image{}, err
		}
		return Image{Data: data, MimeType: MimeFromExtension(imageRef)}, nil
	}

	return l.fetchRemote(ctx, imageRef)
}

func (l *ImageLoader) fetchRemote(ctx context.Context, imageURL string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Image{}, err
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Image{}, &FetchError{URL: imageURL, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, err
	}

	mimeType := resp.Header.Get("Content-Type")
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Image{Data: data, MimeType: mimeType}, nil
}

// loadGIFFrame extracts the first frame of an animated GIF through a
// uniquely named temporary PNG file. The temporary file is removed even
// when a later step fails.
func (l *ImageLoader) loadGIFFrame(ctx context.Context, imageRef string) (Image, error) {
	raw, err := l.loadRaw(ctx, imageRef)
	if err != nil {
		return Image{}, err
	}
	if len(raw.Data) == 0 {
		return Image{}, ErrEmptyImage
	}

	frame, err := gif.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode gif frame: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return Image{}, err
	}
	framePath := filepath.Join(l.tempDir, fmt.Sprintf("frame-%d-%s.png", time.Now().UnixNano(), id))
	defer func() {
		if err := os.Remove(framePath); err != nil {
			logger.Warn("Failed to remove extracted gif frame", "path", framePath, "err", err)
		}
	}()

	f, err := os.Create(framePath)
	if err != nil {
		return Image{}, err
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		return Image{}, err
	}
	if err := f.Close(); err != nil {
		return Image{}, err
	}

	data, err := l.readFile(framePath)
	if err != nil {
		return Image{}, err
	}
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	return Image{Data: data, MimeType: "image/png"}, nil
}

// MimeFromExtension infers an image MIME type from the file extension of
// the given reference, defaulting to image/jpeg when the extension is
// absent or unrecognized.
func MimeFromExtension(ref string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(ref)), ".")
	switch ext {
	case "":
		return "image/jpeg"
	case "jpg":
		return "image/jpeg"
	default:
		return "image/" + ext
	}
}
