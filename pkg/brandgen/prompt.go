package brandgen

import (
	"fmt"
	"strings"
)

// Prompt assembly is pure and deterministic: identical answers always
// yield identical prompt text. Fields are emitted in a stable order so
// re-displayed assets can be traced back to their wizard inputs.

const (
	// maxIcons caps how many icon choices contribute to the prompt.
	maxIcons = 3

	promptSuffix    = "professional logo design, vector art, clean lines, flat colors, white background"
	variationMarker = "unique design"
)

// CompilePrompt turns a structured answer set into the generation prompt.
// BusinessName is assumed present (validated upstream); every other field
// is omitted when absent.
func CompilePrompt(a BrandAnswers) string {
	parts := make([]string, 0, 9)

	parts = append(parts, fmt.Sprintf("a logo for a business called %q", strings.TrimSpace(a.BusinessName)))

	if a.Category != "" {
		parts = append(parts, fmt.Sprintf("a %s business", a.Category))
	}
	if a.Style != "" {
		parts = append(parts, fmt.Sprintf("in a %s style", a.Style))
	}
	if a.Palette != "" {
		parts = append(parts, fmt.Sprintf("using a %s color palette", a.Palette))
	}
	if a.Mood != "" {
		parts = append(parts, fmt.Sprintf("with a %s mood", a.Mood))
	}
	if icons := a.Icons; len(icons) > 0 {
		if len(icons) > maxIcons {
			icons = icons[:maxIcons]
		}
		parts = append(parts, "featuring "+strings.Join(icons, " and "))
	}
	if a.Tagline != "" {
		parts = append(parts, fmt.Sprintf("with the tagline %q", a.Tagline))
	}

	parts = append(parts, promptSuffix, variationMarker)
	return strings.Join(parts, ", ")
}
