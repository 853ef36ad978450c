package comic

import "strings"

// DefaultTitle is used when a story's text has no heading line.
const DefaultTitle = "Untitled"

// maxTitleLength bounds derived titles.
const maxTitleLength = 200

// TitleFromContent derives a title from the first non-blank line when it is a
// Markdown heading ("# Title", "## Title"). Otherwise it returns DefaultTitle.
func TitleFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			return DefaultTitle
		}

		title := strings.TrimSpace(strings.TrimLeft(line, "#"))
		title = strings.Trim(title, "*_ ")
		if title == "" {
			return DefaultTitle
		}
		if runes := []rune(title); len(runes) > maxTitleLength {
			title = string(runes[:maxTitleLength])
		}
		return title
	}
	return DefaultTitle
}
