package comic

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var scriptPromptText string

var scriptPrompt = template.Must(template.New("script").Parse(scriptPromptText))

// ScriptPrompt renders the instruction that asks the model for a panel script.
func ScriptPrompt(storyContent string) (string, error) {
	var b strings.Builder
	if err := scriptPrompt.Execute(&b, struct{ Story string }{storyContent}); err != nil {
		return "", fmt.Errorf("comic: render script prompt: %w", err)
	}
	return b.String(), nil
}
