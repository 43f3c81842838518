package gemini

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Yates-Labs/zero2story/internal/imagegen"
)

const DefaultImageModel = "imagen-3.0-generate-002"

// imageModels is the slice of *genai.Models used by ImageGenerator.
type imageModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImageGenerator implements imagegen.Generator with Imagen. Images are
// written to OutDir under random names.
type ImageGenerator struct {
	models imageModels
	model  string
	outDir string
	logger *zap.Logger
}

// NewImageGenerator creates an Imagen-backed generator.
func NewImageGenerator(models imageModels, model, outDir string, logger *zap.Logger) *ImageGenerator {
	if model == "" {
		model = DefaultImageModel
	}
	if outDir == "" {
		outDir = "outputs"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageGenerator{models: models, model: model, outDir: outDir, logger: logger}
}

// Generate creates one image and returns the written file path.
func (g *ImageGenerator) Generate(ctx context.Context, req imagegen.Request) (string, error) {
	if req.Prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", imagegen.ErrGenerationFailed)
	}

	config := &genai.GenerateImagesConfig{
		NegativePrompt:   req.NegativePrompt,
		NumberOfImages:   1,
		AspectRatio:      req.AspectRatio,
		IncludeRAIReason: true,
		OutputMIMEType:   "image/png",
	}
	if req.GuidanceScale > 0 {
		config.GuidanceScale = genai.Ptr(req.GuidanceScale)
	}

	resp, err := g.models.GenerateImages(ctx, g.model, req.Prompt, config)
	if err != nil {
		return "", fmt.Errorf("%w: %w", imagegen.ErrGenerationFailed, err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return "", fmt.Errorf("%w: no images returned", imagegen.ErrUnsafeContent)
	}

	generated := resp.GeneratedImages[0]
	if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		if generated.RAIFilteredReason != "" {
			return "", fmt.Errorf("%w: %s", imagegen.ErrUnsafeContent, generated.RAIFilteredReason)
		}
		return "", fmt.Errorf("%w: image has no data", imagegen.ErrGenerationFailed)
	}

	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", imagegen.ErrGenerationFailed, err)
	}
	path := filepath.Join(g.outDir, uuid.NewString()+extension(generated.Image.MIMEType))
	if err := os.WriteFile(path, generated.Image.ImageBytes, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", imagegen.ErrGenerationFailed, err)
	}

	g.logger.Debug("image written", zap.String("path", path), zap.String("model", g.model))
	return path, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
