package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts [key]",
	Short: "List or show prompt templates",
	Long: `List the prompt templates of the configured backend, or print one by its
dotted key.

Examples:
  zero2story prompts
  zero2story prompts story.context --backend openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrompts,
}

func init() {
	rootCmd.AddCommand(promptsCmd)
}

func runPrompts(cmd *cobra.Command, args []string) error {
	factory, err := newFactory(cmd.Context())
	if err != nil {
		return err
	}
	store, err := factory.PromptManager(cfg.PromptsPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		text, err := store.Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, headerStyle.Render(args[0]))
		fmt.Fprintln(out, text)
		return nil
	}

	fmt.Fprintln(out, mutedStyle.Render(store.Path()))
	printKeys(out, "", store.Prompts())
	return nil
}

// printKeys writes the dotted key of every template under table.
func printKeys(out io.Writer, prefix string, table map[string]any) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := table[k].(type) {
		case map[string]any:
			printKeys(out, key, v)
		case string:
			fmt.Fprintf(out, "  %s\n", actionStyle.Render(key))
		}
	}
}
