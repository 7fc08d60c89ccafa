// Package prompt builds structured-output instructions from a system
// message, user input, and an expected response shape.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/zen-systems/promptchain/pkg/schema"
)

// Build assembles the instruction payload for a structured-output call.
// The rendered schema is paired with a directive that the response must be
// valid JSON matching it exactly, with no surrounding prose.
func Build(system, userInput string, shape *schema.Shape) string {
	var sb strings.Builder

	system = strings.TrimSpace(system)
	if system != "" {
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}

	if shape != nil {
		sb.WriteString("You MUST return ONLY valid JSON matching this exact schema. No other prose.\n")
		sb.WriteString(shape.PromptSchema())
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("User input: %q", userInput))
	return sb.String()
}

// DateContext renders the temporal context line stages prepend to their
// system instruction when relative dates must resolve against a known today.
// The value is caller-supplied; the builder never reads the clock itself.
func DateContext(now time.Time) string {
	return fmt.Sprintf("Today is %s.", now.Format("Monday, January 2, 2006"))
}
