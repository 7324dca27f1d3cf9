package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"docmonitor/internal/queue"
)

//go:embed default_prompt.md
var defaultBasePrompt string

const classSeparator = "-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=ypl"

// DefaultBasePrompt returns the built-in base instructions.
func DefaultBasePrompt() string {
	return defaultBasePrompt
}

// LoadBasePrompt reads the base instructions from path, or returns the
// built-in prompt when path is empty.
func LoadBasePrompt(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return defaultBasePrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	return string(data), nil
}

// BuildPrompt appends one section per class to base. Classes are expected
// enabled and ordered by priority; classes with a blank prompt are skipped.
func BuildPrompt(base string, classes []queue.DocumentClass) string {
	sections := []string{strings.TrimRight(base, " \t\r\n")}
	for _, class := range classes {
		if strings.TrimSpace(class.Prompt) == "" {
			continue
		}
		var b strings.Builder
		b.WriteString("\n" + classSeparator + "\n\n")
		b.WriteString("### " + class.ID + "\n\n")
		b.WriteString("DocumentClassID  " + class.ID + "\n\n")
		b.WriteString(strings.TrimRight(class.Prompt, " \t\r\n") + "\n")
		sections = append(sections, b.String())
	}
	return strings.TrimSpace(strings.Join(sections, "\n")) + "\n"
}
