package adk

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompts/system_prompt.md
var systemPromptText string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptText))

// SystemPrompt renders the agent instructions listing the given tools.
func SystemPrompt(tools []Tool) (string, error) {
	var sb strings.Builder
	if err := systemPromptTmpl.Execute(&sb, struct{ Tools []Tool }{tools}); err != nil {
		return "", err
	}
	return sb.String(), nil
}
