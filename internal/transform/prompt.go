// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"fmt"
	"strings"

	"github.com/pdiddy/ideation-engine/pkg/types"
)

// buildTransformPrompt assembles the generation prompt: the strategy
// instruction with source and target types filled in, any descriptive
// metadata worth carrying, and the source content itself.
func buildTransformPrompt(source *types.CodexObject, sourceType, targetType types.CodexObjectType, instruction string) string {
	var b strings.Builder

	fmt.Fprintf(&b, instruction, sourceType, targetType)
	b.WriteString("\n")

	if source.Title != "" {
		fmt.Fprintf(&b, "\nTitle: %s", source.Title)
	}
	if source.Genre != "" {
		fmt.Fprintf(&b, "\nGenre: %s", source.Genre)
	}
	if source.TargetAudience != "" {
		fmt.Fprintf(&b, "\nTarget audience: %s", source.TargetAudience)
	}
	if source.Logline != "" && sourceType != types.TypeLogline {
		fmt.Fprintf(&b, "\nLogline: %s", source.Logline)
	}

	fmt.Fprintf(&b, "\n\nContent:\n%s\n\nRespond with the %s text only, no preamble.", source.Content, targetType)
	return b.String()
}
