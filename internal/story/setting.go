package story

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCharacters is the number of character slots: one main character and up
// to three side characters.
const MaxCharacters = 4

var ErrInvalidSetup = errors.New("invalid story setup")

// Setting describes the world the story takes place in.
type Setting struct {
	Genre string `json:"genre" yaml:"genre"`
	Time  string `json:"time" yaml:"time"`
	Place string `json:"place" yaml:"place"`
	Mood  string `json:"mood" yaml:"mood"`
}

// Character is one member of the cast. The first character is the main one.
type Character struct {
	Name        string `json:"name" yaml:"name"`
	Age         int    `json:"age" yaml:"age"`
	Personality string `json:"personality" yaml:"personality"`
	Job         string `json:"job" yaml:"job"`
	MBTI        string `json:"mbti,omitempty" yaml:"mbti,omitempty"`

	// Portrait is the path of the character's generated image, if any.
	Portrait string `json:"portrait,omitempty" yaml:"portrait,omitempty"`
}

// Validate checks that the cast has between one and MaxCharacters named
// members.
func Validate(setting Setting, characters []Character) error {
	if len(characters) == 0 {
		return fmt.Errorf("%w: a main character is required", ErrInvalidSetup)
	}
	if len(characters) > MaxCharacters {
		return fmt.Errorf("%w: at most %d characters, got %d", ErrInvalidSetup, MaxCharacters, len(characters))
	}
	for i, c := range characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: character %d has no name", ErrInvalidSetup, i+1)
		}
		if c.Age < 0 {
			return fmt.Errorf("%w: character %s has a negative age", ErrInvalidSetup, c.Name)
		}
	}
	if strings.TrimSpace(setting.Genre) == "" {
		return fmt.Errorf("%w: genre is required", ErrInvalidSetup)
	}
	return nil
}
