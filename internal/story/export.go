package story

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ExportFormat represents supported export formats
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

// Export writes the story to w in the given format.
func Export(s *Story, format string, w io.Writer) error {
	switch ExportFormat(strings.ToLower(format)) {
	case FormatJSON:
		return exportJSON(s, w)
	case FormatMarkdown, "md":
		return exportMarkdown(s, w)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, markdown)", format)
	}
}

func exportJSON(s *Story, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}

func exportMarkdown(s *Story, w io.Writer) error {
	var b strings.Builder

	title := "Untitled Story"
	if s.Setting.Genre != "" {
		title = "A " + s.Setting.Genre + " Story"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var setting []string
	for _, kv := range [][2]string{
		{"When", s.Setting.Time},
		{"Where", s.Setting.Place},
		{"Mood", s.Setting.Mood},
	} {
		if kv[1] != "" {
			setting = append(setting, fmt.Sprintf("**%s:** %s", kv[0], kv[1]))
		}
	}
	if len(setting) > 0 {
		b.WriteString(strings.Join(setting, " · "))
		b.WriteString("\n\n")
	}

	b.WriteString("## Characters\n\n")
	for _, c := range s.Characters {
		fmt.Fprintf(&b, "- **%s**", c.Name)
		var details []string
		if c.Age > 0 {
			details = append(details, fmt.Sprintf("%d", c.Age))
		}
		for _, d := range []string{c.Job, c.MBTI, c.Personality} {
			if d != "" {
				details = append(details, d)
			}
		}
		if len(details) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
		}
		if c.Portrait != "" {
			fmt.Fprintf(&b, " ![%s](%s)", c.Name, c.Portrait)
		}
		b.WriteString("\n")
	}

	for _, ch := range s.Chapters {
		if len(ch.Paragraphs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", ch.Title, ch.Content())
	}

	_, err := io.WriteString(w, b.String())
	return err
}
