package story

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Yates-Labs/zero2story/internal/conversation"
	"github.com/Yates-Labs/zero2story/internal/prompts"
)

// Template keys read from the prompt store.
const (
	ContextTemplate   = "story.context"
	UserInputTemplate = "story.user_input"
)

const (
	DefaultChapters             = 4
	DefaultParagraphsPerChapter = 3
)

var (
	ErrStoryComplete = errors.New("story is complete")
	ErrEmptyAction   = errors.New("action cannot be empty")
)

// Chapter is one titled section of the story.
type Chapter struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

// Content joins the chapter's paragraphs with blank lines.
func (c Chapter) Content() string {
	return strings.Join(c.Paragraphs, "\n\n")
}

// Options configures a new story.
type Options struct {
	// Titles names the chapters. Empty titles are numbered; a nil slice
	// yields DefaultChapters untitled chapters.
	Titles []string

	ParagraphsPerChapter int

	// Display holds the story's conversation. It must be empty; nil creates
	// a chat display.
	Display *conversation.Display
}

// Story is an interactive story advanced one paragraph per chosen action.
type Story struct {
	ID                   string      `json:"id"`
	Setting              Setting     `json:"setting"`
	Characters           []Character `json:"characters"`
	Chapters             []Chapter   `json:"chapters"`
	Current              int         `json:"current_chapter"`
	ParagraphsPerChapter int         `json:"paragraphs_per_chapter"`
	Actions              []string    `json:"actions,omitempty"`

	templates *prompts.Store
	display   *conversation.Display
}

// New validates the setup and creates an empty story rendering its prompts
// from templates.
func New(setting Setting, characters []Character, templates *prompts.Store, opts Options) (*Story, error) {
	if err := Validate(setting, characters); err != nil {
		return nil, err
	}
	if templates == nil {
		return nil, fmt.Errorf("%w: prompt templates are required", ErrInvalidSetup)
	}

	titles := opts.Titles
	if titles == nil {
		titles = make([]string, DefaultChapters)
	}
	chapters := make([]Chapter, len(titles))
	for i, t := range titles {
		if strings.TrimSpace(t) == "" {
			t = fmt.Sprintf("Chapter %d", i+1)
		}
		chapters[i] = Chapter{Title: t}
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("%w: at least one chapter is required", ErrInvalidSetup)
	}

	perChapter := opts.ParagraphsPerChapter
	if perChapter <= 0 {
		perChapter = DefaultParagraphsPerChapter
	}

	display := opts.Display
	if display == nil {
		display = conversation.NewDisplay(conversation.New(), nil)
	}
	if display.Len() > 0 {
		return nil, fmt.Errorf("%w: display already holds %d turns", ErrInvalidSetup, display.Len())
	}

	cast := make([]Character, len(characters))
	copy(cast, characters)

	return &Story{
		ID:                   uuid.NewString(),
		Setting:              setting,
		Characters:           cast,
		Chapters:             chapters,
		ParagraphsPerChapter: perChapter,
		templates:            templates,
		display:              display,
	}, nil
}

// Display exposes the story's conversation for rendering.
func (s *Story) Display() *conversation.Display {
	return s.display
}

// Done reports whether every chapter is full.
func (s *Story) Done() bool {
	last := len(s.Chapters) - 1
	return s.Current > last ||
		(s.Current == last && len(s.Chapters[last].Paragraphs) >= s.ParagraphsPerChapter)
}

// Progress returns the number of paragraphs written and the total planned.
func (s *Story) Progress() (int, int) {
	written := 0
	for _, c := range s.Chapters {
		written += len(c.Paragraphs)
	}
	return written, len(s.Chapters) * s.ParagraphsPerChapter
}

// Next continues the story with action. On success the new paragraph is
// appended to the current chapter and the suggested actions replace the old
// ones. On failure the story is unchanged and the call may be repeated.
func (s *Story) Next(ctx context.Context, n *Narrator, action string) (*Envelope, error) {
	if s.Done() {
		return nil, ErrStoryComplete
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, ErrEmptyAction
	}

	data := s.templateData(action)
	contextBlock, err := s.templates.Render(ContextTemplate, data)
	if err != nil {
		return nil, err
	}
	input, err := s.templates.Render(UserInputTemplate, data)
	if err != nil {
		return nil, err
	}

	conv := s.display.Conversation
	conv.Append(conversation.Turn{Request: input})

	env, err := n.Advance(ctx, conv, contextBlock)
	if err != nil {
		conv.Discard()
		return nil, err
	}

	chapter := &s.Chapters[s.Current]
	chapter.Paragraphs = append(chapter.Paragraphs, env.Paragraph)
	if len(chapter.Paragraphs) >= s.ParagraphsPerChapter && s.Current < len(s.Chapters)-1 {
		s.Current++
	}
	s.Actions = env.Actions
	return env, nil
}

// chapterView is a chapter as seen by the prompt templates.
type chapterView struct {
	Number     int
	Title      string
	Content    string
	Determined bool
}

// templateData is the value prompt templates are rendered with.
type templateData struct {
	Setting        Setting
	Main           Character
	Side           []Character
	Chapters       []chapterView
	CurrentChapter int
	Action         string
}

func (s *Story) templateData(action string) templateData {
	views := make([]chapterView, len(s.Chapters))
	for i, c := range s.Chapters {
		views[i] = chapterView{
			Number:     i + 1,
			Title:      c.Title,
			Content:    c.Content(),
			Determined: i <= s.Current,
		}
	}
	return templateData{
		Setting:        s.Setting,
		Main:           s.Characters[0],
		Side:           s.Characters[1:],
		Chapters:       views,
		CurrentChapter: s.Current + 1,
		Action:         action,
	}
}
