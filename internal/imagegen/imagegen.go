// Package imagegen describes the text-to-image collaborator used for
// character portraits. Generation itself is delegated to a backend.
package imagegen

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	ErrUnsafeContent    = errors.New("image withheld by content policy")
	ErrGenerationFailed = errors.New("image generation failed")
)

// Request describes one image.
type Request struct {
	Prompt         string
	NegativePrompt string

	// AspectRatio is a "W:H" string such as "3:4".
	AspectRatio string

	// GuidanceScale controls prompt adherence; zero leaves the backend default.
	GuidanceScale float32
}

// Generator produces an image file and returns its path.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// fallback substitutes a placeholder image for content-policy rejections.
type fallback struct {
	next        Generator
	placeholder string
	logger      *zap.Logger
}

// WithFallback returns a Generator that yields placeholder instead of
// ErrUnsafeContent. An empty placeholder yields an empty path, meaning no
// image. Other errors pass through.
func WithFallback(next Generator, placeholder string, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallback{next: next, placeholder: placeholder, logger: logger}
}

func (f *fallback) Generate(ctx context.Context, req Request) (string, error) {
	path, err := f.next.Generate(ctx, req)
	if errors.Is(err, ErrUnsafeContent) {
		f.logger.Info("image rejected by content policy, using placeholder",
			zap.String("placeholder", f.placeholder), zap.Error(err))
		return f.placeholder, nil
	}
	return path, err
}
