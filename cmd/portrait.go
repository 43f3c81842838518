package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Yates-Labs/zero2story/internal/imagegen"
	"github.com/Yates-Labs/zero2story/internal/llm"
	"github.com/Yates-Labs/zero2story/internal/llm/gemini"
	"github.com/Yates-Labs/zero2story/internal/prompts"
	"github.com/Yates-Labs/zero2story/internal/story"
)

// imageBackend is implemented by factories that can also draw images.
type imageBackend interface {
	ImageGenerator(model, outDir string) *gemini.ImageGenerator
}

var portraitCmd = &cobra.Command{
	Use:   "portrait",
	Short: "Generate character portraits",
	Long: `Generate a portrait for every character in the setup.

The language model writes an image prompt for each character and the image
backend draws it. Portraits are generated concurrently and written to the
configured output directory. Only the gemini backend can draw images.

Examples:
  zero2story portrait --setup story.yaml
  zero2story portrait --genre Fantasy --character "Aria:19:knight:brave" --character "Bram:30:thief:sly"`,
	RunE: runPortrait,
}

func init() {
	rootCmd.AddCommand(portraitCmd)
	addSetupFlags(portraitCmd)
}

func runPortrait(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	setup, err := loadSetup()
	if err != nil {
		return err
	}
	factory, err := newFactory(ctx)
	if err != nil {
		return err
	}
	store, err := factory.PromptManager(cfg.PromptsPath)
	if err != nil {
		return err
	}

	paths, err := generatePortraits(ctx, factory, store, setup)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, c := range setup.Characters {
		fmt.Fprintf(out, "%s %s\n", successStyle.Render("✓ "+c.Name), mutedStyle.Render(portraitLabel(paths[i])))
	}
	return nil
}

// portraitLabel describes a generated portrait path. An empty path means
// the image was withheld with no placeholder configured.
func portraitLabel(path string) string {
	if path == "" {
		return "(withheld)"
	}
	return path
}

// generatePortraits draws every character concurrently. The returned paths
// follow the order of setup.Characters.
func generatePortraits(ctx context.Context, factory llm.Factory, store *prompts.Store, setup storySetup) ([]string, error) {
	backend, ok := factory.(imageBackend)
	if !ok {
		return nil, fmt.Errorf("backend %s cannot generate images", factory.Name())
	}

	images := imagegen.WithFallback(
		backend.ImageGenerator(cfg.Images.Model, cfg.Images.OutDir),
		cfg.Images.UnsafePlaceholder,
		logger,
	)
	maker := story.NewPortraitMaker(factory.Service(), store, images, logger)
	maker.DisableContentFilter = !cfg.ContentFilter

	paths := make([]string, len(setup.Characters))
	eg, ctx := errgroup.WithContext(ctx)
	for i, c := range setup.Characters {
		eg.Go(func() error {
			path, err := maker.Make(ctx, setup.Setting, c)
			if err != nil {
				return fmt.Errorf("portrait for %s: %w", c.Name, err)
			}
			logger.Debug("portrait ready", zap.String("character", c.Name), zap.String("path", path))
			paths[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
