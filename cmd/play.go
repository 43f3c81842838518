package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/zero2story/internal/llm"
	"github.com/Yates-Labs/zero2story/internal/story"
)

// openingAction starts the first paragraph.
const openingAction = "Begin the story by introducing the main character"

var (
	exportFormat string
	exportFile   string
	watchPrompts bool
	withPortrait bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Write a story interactively",
	Long: `Write a story one paragraph at a time.

After each paragraph the model suggests three actions. Enter 1, 2 or 3 to pick
one, type your own action, or enter q to stop.

Examples:
  zero2story play --setup story.yaml
  zero2story play --genre Fantasy --place "a ruined keep" --character "Aria:19:knight:brave"
  zero2story play --setup story.yaml --backend openai --export markdown`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	addSetupFlags(playCmd)
	playCmd.Flags().StringVar(&exportFormat, "export", "", "Export the finished story as json or markdown")
	playCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Write the export to a file instead of stdout")
	playCmd.Flags().BoolVar(&watchPrompts, "watch", false, "Reload prompt templates when the file changes")
	playCmd.Flags().BoolVar(&withPortrait, "portraits", false, "Generate character portraits before starting")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

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
	if watchPrompts {
		go func() {
			if err := store.Watch(ctx, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("prompt watcher stopped", zap.Error(err))
			}
		}()
	}

	out := cmd.OutOrStdout()

	if withPortrait || cfg.Images.Enabled {
		paths, err := generatePortraits(ctx, factory, store, setup)
		if err != nil {
			fmt.Fprintln(out, noticeStyle.Render("Portraits skipped: "+err.Error()))
		}
		for i, p := range paths {
			setup.Characters[i].Portrait = p
		}
	}

	s, err := story.New(setup.Setting, setup.Characters, store, story.Options{
		Titles:               cfg.Chapters,
		ParagraphsPerChapter: cfg.ParagraphsPerChapter,
		Display:              factory.NewDisplay(),
	})
	if err != nil {
		return err
	}

	narrator := story.NewNarrator(factory.Service(), factory.PromptFormat(), story.NarratorConfig{
		MaxAttempts:          cfg.MaxAttempts,
		Window:               cfg.Window,
		Truncate:             cfg.Truncate,
		DisableContentFilter: !cfg.ContentFilter,
	}, logger)

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("A %s story", s.Setting.Genre)))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("backend: %s · story: %s", factory.Name(), s.ID)))

	if err := playLoop(ctx, s, narrator, cmd.InOrStdin(), out); err != nil {
		return err
	}

	if exportFormat == "" {
		return nil
	}
	if exportFile != "" {
		return handleExport(s, exportFormat, exportFile, out)
	}
	fmt.Fprintln(out)
	return story.Export(s, exportFormat, out)
}

func handleExport(s *story.Story, format, filename string, out io.Writer) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := story.Export(s, format, file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Exported story to %s", filename)))
	return nil
}

// playLoop advances s until it is complete, the input ends, or the user
// quits. Generation failures are reported and the same action can be retried.
func playLoop(ctx context.Context, s *story.Story, narrator *story.Narrator, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	action := openingAction

	for !s.Done() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, mutedStyle.Render("→ Writing..."))

		env, err := s.Next(ctx, narrator, action)
		switch {
		case err == nil:
			printParagraph(out, s, env)
		case errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, llm.ErrContentWithheld):
			fmt.Fprintln(out, noticeStyle.Render("The model withheld its answer. Try a different action."))
		case errors.Is(err, llm.ErrServiceUnavailable), errors.Is(err, story.ErrNoValidResponse):
			fmt.Fprintln(out, noticeStyle.Render("Generation failed: "+err.Error()))
			fmt.Fprintln(out, mutedStyle.Render("Press enter to retry the same action."))
		default:
			return err
		}

		if s.Done() {
			break
		}

		fmt.Fprint(out, actionStyle.Render("> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "q" || input == "quit" {
			return nil
		}
		action = chooseAction(input, s.Actions, action)
	}

	written, total := s.Progress()
	fmt.Fprintln(out)
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ The end (%d/%d paragraphs)", written, total)))
	return nil
}

// chooseAction maps user input to an action: a number selects a suggestion,
// empty input keeps the previous action, anything else is a custom action.
func chooseAction(input string, suggested []string, previous string) string {
	if input == "" {
		return previous
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(suggested) {
		return suggested[n-1]
	}
	return input
}

func printParagraph(out io.Writer, s *story.Story, env *story.Envelope) {
	written, total := s.Progress()

	fmt.Fprintln(out)
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("[%d/%d]", written, total)))
	fmt.Fprintln(out, paragraphStyle.Render(env.Paragraph))

	if s.Done() {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("What happens next?"))
	for i, a := range env.Actions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, actionStyle.Render(a))
	}
	fmt.Fprintln(out, mutedStyle.Render("  or type your own action, q to quit"))
}
