package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Yates-Labs/zero2story/internal/story"
)

// storySetup is the world and cast a story starts from.
type storySetup struct {
	Setting    story.Setting     `yaml:"setting"`
	Characters []story.Character `yaml:"characters"`
}

var (
	setupPath  string
	genre      string
	era        string
	place      string
	mood       string
	characters []string
)

// addSetupFlags registers the flags describing the setting and cast.
func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&setupPath, "setup", "", "YAML file with the setting and characters")
	cmd.Flags().StringVar(&genre, "genre", "", "Story genre")
	cmd.Flags().StringVar(&era, "time", "", "When the story takes place")
	cmd.Flags().StringVar(&place, "place", "", "Where the story takes place")
	cmd.Flags().StringVar(&mood, "mood", "", "Overall mood")
	cmd.Flags().StringArrayVar(&characters, "character", nil,
		`Character as "name:age:job:personality[:mbti]"; the first one is the main character`)
}

// loadSetup reads the setup file, then applies flag values over it.
func loadSetup() (storySetup, error) {
	var setup storySetup
	if setupPath != "" {
		data, err := os.ReadFile(setupPath)
		if err != nil {
			return setup, fmt.Errorf("read setup: %w", err)
		}
		if err := yaml.Unmarshal(data, &setup); err != nil {
			return setup, fmt.Errorf("parse setup %s: %w", setupPath, err)
		}
	}

	for dst, v := range map[*string]string{
		&setup.Setting.Genre: genre,
		&setup.Setting.Time:  era,
		&setup.Setting.Place: place,
		&setup.Setting.Mood:  mood,
	} {
		if v != "" {
			*dst = v
		}
	}

	if len(characters) > 0 {
		setup.Characters = setup.Characters[:0]
		for _, raw := range characters {
			c, err := parseCharacter(raw)
			if err != nil {
				return setup, err
			}
			setup.Characters = append(setup.Characters, c)
		}
	}

	return setup, story.Validate(setup.Setting, setup.Characters)
}

// parseCharacter parses "name:age:job:personality[:mbti]". Trailing fields
// may be omitted.
func parseCharacter(raw string) (story.Character, error) {
	parts := strings.SplitN(raw, ":", 5)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	c := story.Character{Name: parts[0]}
	if c.Name == "" {
		return c, fmt.Errorf("character %q has no name", raw)
	}
	if len(parts) > 1 && parts[1] != "" {
		age, err := strconv.Atoi(parts[1])
		if err != nil {
			return c, fmt.Errorf("character %s: invalid age %q", c.Name, parts[1])
		}
		c.Age = age
	}
	if len(parts) > 2 {
		c.Job = parts[2]
	}
	if len(parts) > 3 {
		c.Personality = parts[3]
	}
	if len(parts) > 4 {
		c.MBTI = parts[4]
	}
	return c, nil
}
